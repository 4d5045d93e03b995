package api

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// OutputFormat selects how CLI commands print responses.
type OutputFormat string

const (
	OutputFormatYAML OutputFormat = "yaml"
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatText prints message-like responses bare and falls back to YAML.
	OutputFormatText OutputFormat = "text"
)

// DefaultOutput is used for unknown --output values.
var DefaultOutput OutputFormat = OutputFormatYAML

var globalOutputFormat = DefaultOutput

// SetOutputFormat sets the format used by Output. Set from the root --output flag.
func SetOutputFormat(format string) {
	switch f := OutputFormat(format); f {
	case OutputFormatJSON, OutputFormatYAML, OutputFormatText:
		globalOutputFormat = f
	default:
		globalOutputFormat = DefaultOutput
	}
}

// GetOutputFormat returns the current global output format.
func GetOutputFormat() OutputFormat {
	return globalOutputFormat
}

// Output writes data to stdout in the configured format.
func Output(data any) error {
	return OutputTo(os.Stdout, globalOutputFormat, data)
}

// OutputTo writes data to w in the given format.
func OutputTo(w io.Writer, format OutputFormat, data any) error {
	switch format {
	case OutputFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case OutputFormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(data)
	case OutputFormatText:
		if m, ok := messageOf(data); ok {
			_, err := fmt.Fprintln(w, m)
			return err
		}
		return OutputTo(w, OutputFormatYAML, data)
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

// messageOf extracts a printable message from strings and {"message": ...} maps.
func messageOf(data any) (string, bool) {
	switch v := data.(type) {
	case string:
		return v, true
	case map[string]string:
		m, ok := v["message"]
		return m, ok && len(v) == 1
	case map[string]any:
		m, ok := v["message"].(string)
		return m, ok && len(v) == 1
	}
	return "", false
}
