package utils

import (
	"bytes"
	"fmt"
	"log"
	"reflect"
	"strings"
)

// CheckConfigError checks configs for errors, crashes app if there's an error
func CheckConfigError(e error, filename string) {
	if e != nil {
		log.Println(e)
		log.Println()
		log.Fatalf("error: could not parse the config file '%s'. Check that the correct type of file was passed in.\n", filename)
	}
}

// LogConfig logs out the config file
func LogConfig(cfg fmt.Stringer) {
	log.Println("configs:")
	for _, line := range strings.Split(strings.TrimSuffix(cfg.String(), "\n"), "\n") {
		log.Printf("     %s", line)
	}
}

// StructString lists the fields of a config struct one per line using their toml names.
// Fields tagged `secret:"true"` only show whether they are set.
func StructString(s interface{}, indentLevel uint8) string {
	var buf bytes.Buffer
	v := reflect.Indirect(reflect.ValueOf(s))
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !v.Field(i).CanInterface() {
			continue
		}
		name := strings.Split(field.Tag.Get("toml"), ",")[0]
		if name == "-" {
			continue
		}
		if name == "" {
			name = field.Name
		}

		buf.WriteString(strings.Repeat("    ", int(indentLevel)))
		current := reflect.Indirect(v.Field(i))
		if !current.IsValid() {
			buf.WriteString(fmt.Sprintf("%s: <nil>\n", name))
			continue
		}
		if current.Kind() == reflect.Struct {
			buf.WriteString(fmt.Sprintf("%s:\n%s", name, StructString(current.Interface(), indentLevel+1)))
			continue
		}
		if field.Tag.Get("secret") == "true" {
			buf.WriteString(fmt.Sprintf("%s: %s\n", name, hide(current.Interface())))
			continue
		}
		buf.WriteString(fmt.Sprintf("%s: %+v\n", name, current.Interface()))
	}
	return buf.String()
}

func hide(i interface{}) string {
	if s, ok := i.(string); ok && s == "" {
		return "<not set>"
	}
	return "<hidden>"
}
