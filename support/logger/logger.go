package logger

import (
	"fmt"
	"os"
	"sync"
)

// Logger is the base logger interface
type Logger interface {
	// basic messages, appends a newline (\n) after each entry
	Info(msg string)

	// basic messages, can be custom formatted, similar to fmt.Printf. User needs to add a \n if they want a newline after the log entry
	Infof(msg string, args ...interface{})

	// error messages, the logger should NOT panic on these messages. Appends a newline (\n) after each entry.
	Error(msg string)

	// error messages, can be custom formatted. The logger should NOT panic on these messages.
	Errorf(msg string, args ...interface{})
}

// Fatal is a convenience method that can be used with any Logger to log a fatal error
func Fatal(l Logger, e error) {
	l.Info("")
	l.Errorf("%s", e)
	os.Exit(1)
}

// RecordingLogger keeps every message in memory, tests use it to assert on diagnostics
type RecordingLogger struct {
	mutex    sync.Mutex
	Messages []string
}

// MakeRecordingLogger returns a Logger that keeps its messages, it is used from tests in other packages
func MakeRecordingLogger() *RecordingLogger {
	return &RecordingLogger{Messages: []string{}}
}

func (l *RecordingLogger) Info(msg string) {
	l.record(msg)
}

func (l *RecordingLogger) Infof(msg string, args ...interface{}) {
	l.record(fmt.Sprintf(msg, args...))
}

func (l *RecordingLogger) Error(msg string) {
	l.record("error: "+msg)
}

func (l *RecordingLogger) Errorf(msg string, args ...interface{}) {
	l.record("error: "+fmt.Sprintf(msg, args...))
}

func (l *RecordingLogger) record(msg string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.Messages = append(l.Messages, msg)
}

var _ Logger = &RecordingLogger{}
