package utils

import (
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Dedupe removes duplicates from the list
func Dedupe(list []string) []string {
	seen := map[string]bool{}
	out := []string{}

	for _, elem := range list {
		if _, ok := seen[elem]; !ok {
			out = append(out, elem)
			seen[elem] = true
		}
	}
	return out
}

// ParseCommaList splits a comma separated list, empty entries are dropped and duplicates removed
func ParseCommaList(s string) []string {
	items := []string{}
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return Dedupe(items)
}

// PrintErrorHintf shows a helpful hint for the user when there is an error (likely recoverable)
func PrintErrorHintf(message string, args ...interface{}) {
	log.Printf("\n")
	log.Printf("**************************************** HINT ****************************************\n")
	log.Printf(message, args...)
	log.Printf("*************************************** /HINT ****************************************\n")
	log.Printf("\n")
}

// ParseMaybeInt parses an optional string value as an int pointer
func ParseMaybeInt(valueString string) (*int, error) {
	if valueString == "" {
		return nil, nil
	}

	valueInt, e := strconv.Atoi(valueString)
	if e != nil {
		return nil, fmt.Errorf("unable to parse value '%s' as int: %s", valueString, e)
	}
	return &valueInt, nil
}

// WriteFileAtomic writes to a temporary file next to path and renames it over path, readers never see a partial file
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	e := os.MkdirAll(dir, 0755)
	if e != nil {
		return fmt.Errorf("could not create directory '%s': %s", dir, e)
	}

	tmp, e := ioutil.TempFile(dir, "."+filepath.Base(path)+".tmp")
	if e != nil {
		return fmt.Errorf("could not create temporary file in '%s': %s", dir, e)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	_, e = tmp.Write(data)
	if e != nil {
		tmp.Close()
		return fmt.Errorf("could not write '%s': %s", tmpName, e)
	}
	e = tmp.Close()
	if e != nil {
		return fmt.Errorf("could not close '%s': %s", tmpName, e)
	}
	e = os.Chmod(tmpName, perm)
	if e != nil {
		return fmt.Errorf("could not set permissions of '%s': %s", tmpName, e)
	}

	e = os.Rename(tmpName, path)
	if e != nil {
		return fmt.Errorf("could not move '%s' to '%s': %s", tmpName, path, e)
	}
	return nil
}
