package scoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is a textual interchange format for a Configuration.
type Format string

// Supported formats. JSON is canonical.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks a format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode parses and validates a configuration. Unknown fields are rejected.
func Decode(data []byte, format Format) (*Configuration, error) {
	var cfg Configuration
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parsing scoring configuration (yaml): %w", err)
		}
		var extra yaml.Node
		if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
			return nil, errors.New("parsing scoring configuration (yaml): expected a single document")
		}
	case FormatJSON, "":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parsing scoring configuration (json): %w", err)
		}
		if _, err := dec.Token(); !errors.Is(err, io.EOF) {
			return nil, errors.New("parsing scoring configuration (json): trailing data after configuration")
		}
	default:
		return nil, fmt.Errorf("unsupported scoring configuration format %q", format)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid scoring configuration: %w", err)
	}
	return &cfg, nil
}

// Encode validates and serializes a configuration.
func Encode(cfg *Configuration, format Format) ([]byte, error) {
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid scoring configuration: %w", err)
	}
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return nil, fmt.Errorf("encoding scoring configuration (yaml): %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatJSON, "":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding scoring configuration (json): %w", err)
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unsupported scoring configuration format %q", format)
	}
}

// Load reads a configuration file, choosing the format by extension.
func Load(path string) (*Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scoring configuration: %w", err)
	}
	cfg, err := Decode(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes a validated configuration to path, choosing the format by
// extension. The parent directory is created if needed.
func Save(path string, cfg *Configuration) error {
	data, err := Encode(cfg, FormatFromPath(path))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
