package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadRequest reads a YAML or JSON file into v. The format is picked by
// file extension; unknown extensions try YAML first, then JSON.
func LoadRequest(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read request file: %w", err)
	}
	return ParseRequest(data, path, v)
}

// ParseRequest decodes data into v, using filename's extension as a
// format hint.
func ParseRequest(data []byte, filename string, v any) error {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse JSON from %s: %w", filename, err)
		}
		return nil
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse YAML from %s: %w", filename, err)
		}
		return nil
	default:
		if yaml.Unmarshal(data, v) == nil {
			return nil
		}
		if json.Unmarshal(data, v) == nil {
			return nil
		}
		return fmt.Errorf("failed to parse %s as YAML or JSON", filename)
	}
}
