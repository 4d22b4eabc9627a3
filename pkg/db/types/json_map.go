package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONMap is a schema-less string-keyed bag stored as JSON. Different event
// kinds carry unrelated metadata shapes, so no closed type is attempted.
type JSONMap map[string]any

// Value serializes the map for storage.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal json map: %w", err)
	}
	return string(data), nil
}

// Scan deserializes the stored JSON back into the map.
func (m *JSONMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported json map source %T", value)
	}
	if len(data) == 0 {
		*m = nil
		return nil
	}
	return json.Unmarshal(data, m)
}
