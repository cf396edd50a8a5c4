package cmd

import (
	"encoding/json"
	"io"

	"github.com/goccy/go-yaml"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// printValue writes v as YAML under --output yaml and as indented JSON
// otherwise.
func printValue(w io.Writer, v interface{}) error {
	if globals.output == outputYAML {
		b, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
