package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/3leaps/gostratus/pkg/workload"
)

// Validation errors.
var (
	// ErrEmptyManifest indicates the manifest file had no content.
	ErrEmptyManifest = errors.New("manifest file is empty")

	// ErrValidationFailed indicates the manifest failed validation.
	ErrValidationFailed = errors.New("manifest validation failed")
)

// ValidationError describes a single validation issue.
type ValidationError struct {
	// Field is the offending field (e.g., "cluster.host").
	Field string

	// Message describes the failure.
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrValidationFailed.
func (e ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// Load reads and validates a manifest from the given file path.
//
// The file format is determined by extension: .yaml/.yml for YAML, .json
// for JSON. Unrecognized extensions try YAML first, then JSON. After
// parsing, the manifest is validated and defaults are applied.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("manifest file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}
	return LoadFromBytes(data, path)
}

// LoadFromBytes parses and validates a manifest from raw bytes.
//
// The path parameter is used for error messages and format detection; if
// empty, format detection falls back to trying YAML first.
func LoadFromBytes(data []byte, path string) (*Manifest, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, ErrEmptyManifest
	}

	m, err := parse(data, path)
	if err != nil {
		return nil, err
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	m.ApplyDefaults()
	return m, nil
}

// parse decodes the manifest based on file extension.
func parse(data []byte, path string) (*Manifest, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".json":
		return parseJSON(data)
	case ".yaml", ".yml":
		return parseYAML(data)
	default:
		m, yamlErr := parseYAML(data)
		if yamlErr == nil {
			return m, nil
		}
		m, jsonErr := parseJSON(data)
		if jsonErr == nil {
			return m, nil
		}
		return nil, fmt.Errorf("manifest is neither valid YAML (%v) nor JSON (%v)", yamlErr, jsonErr)
	}
}

func parseYAML(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("invalid YAML manifest: %w", err)
	}
	return &m, nil
}

func parseJSON(data []byte) (*Manifest, error) {
	var m Manifest
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("invalid JSON manifest: %w", err)
	}
	return &m, nil
}

// Validate checks required fields and value ranges.
func (m *Manifest) Validate() error {
	if m.Version != "1.0" {
		return ValidationError{Field: "version", Message: fmt.Sprintf("unsupported version %q (expected \"1.0\")", m.Version)}
	}
	if m.Cluster.Host == "" {
		return ValidationError{Field: "cluster.host", Message: "host is required"}
	}
	if m.Cluster.Port < 0 || m.Cluster.Port > 65535 {
		return ValidationError{Field: "cluster.port", Message: fmt.Sprintf("invalid port %d", m.Cluster.Port)}
	}
	if len(m.Workloads) == 0 {
		return ValidationError{Field: "workloads", Message: "at least one workload is required"}
	}
	for i, w := range m.Workloads {
		field := fmt.Sprintf("workloads[%d]", i)
		if w.Name == "" {
			return ValidationError{Field: field + ".name", Message: "name is required"}
		}
		if _, err := workload.Lookup(w.Name); err != nil {
			return ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("unknown workload %q (known: %s)", w.Name, strings.Join(workload.Names(), ", ")),
			}
		}
		if w.Records < 0 {
			return ValidationError{Field: field + ".records", Message: "records must be >= 0"}
		}
		if w.Parallelism < 0 {
			return ValidationError{Field: field + ".parallelism", Message: "parallelism must be >= 0"}
		}
	}
	if m.Monitor.PollInterval < 0 || m.Monitor.MaxWait < 0 || m.Monitor.Settle < 0 {
		return ValidationError{Field: "monitor", Message: "durations must be >= 0"}
	}
	return nil
}
