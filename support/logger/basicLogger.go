package logger

import "log"

// basicLogger is a standard logger
type basicLogger struct {
	prefix string
}

// Info impl
func (l *basicLogger) Info(msg string) {
	log.Println(l.prefix + msg)
}

// Infof impl
func (l *basicLogger) Infof(msg string, args ...interface{}) {
	log.Printf(l.prefix+msg, args...)
}

// Error impl
func (l *basicLogger) Error(msg string) {
	log.Println(l.prefix + "error: " + msg)
}

// Errorf impl
func (l *basicLogger) Errorf(msg string, args ...interface{}) {
	log.Printf(l.prefix+"error: "+msg, args...)
}

// ensure it implements Logger
var _ Logger = &basicLogger{}

// MakeBasicLogger is the factory method
func MakeBasicLogger() Logger {
	return &basicLogger{}
}

