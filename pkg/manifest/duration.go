package manifest

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so manifests can write human-readable
// values like "2s" or "2m" in both YAML and JSON.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// UnmarshalYAML accepts either a duration string or a bare number of
// nanoseconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw any
	if err := value.Decode(&raw); err != nil {
		return err
	}
	return d.set(raw)
}

// UnmarshalJSON accepts either a duration string or a bare number of
// nanoseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return d.set(raw)
}

// MarshalYAML writes the string form.
func (d Duration) MarshalYAML() (any, error) {
	return d.Std().String(), nil
}

// MarshalJSON writes the string form.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Std().String())
}

func (d *Duration) set(raw any) error {
	switch v := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
		return nil
	case int:
		*d = Duration(v)
		return nil
	case int64:
		*d = Duration(v)
		return nil
	case float64:
		*d = Duration(int64(v))
		return nil
	default:
		return fmt.Errorf("invalid duration value %v (%T)", raw, raw)
	}
}
