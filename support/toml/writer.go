package toml

import (
	"bytes"
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/krakentools/krakentools/support/utils"
)

// WriteFile is a helper method to write toml files
func WriteFile(filePath string, v interface{}) error {
	var fileBuf bytes.Buffer
	encoder := toml.NewEncoder(&fileBuf)

	e := encoder.Encode(v)
	if e != nil {
		return fmt.Errorf("error encoding file as toml: %s", e)
	}

	e = utils.WriteFileAtomic(filePath, fileBuf.Bytes(), 0644)
	if e != nil {
		return fmt.Errorf("error writing toml file: %s", e)
	}
	return nil
}

// ReadFile decodes the toml file at filePath into v, keys in the file that v has no field for are an error
func ReadFile(filePath string, v interface{}) error {
	meta, e := toml.DecodeFile(filePath, v)
	if e != nil {
		return fmt.Errorf("error decoding toml file '%s': %s", filePath, e)
	}

	undecoded := meta.Undecoded()
	if len(undecoded) > 0 {
		return fmt.Errorf("unknown keys in toml file '%s': %v", filePath, undecoded)
	}
	return nil
}
