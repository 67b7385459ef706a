package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONMap is a free-form jsonb payload (e.g. payment gateway details).
type JSONMap map[string]any

// Value marshals the map to jsonb so it survives map-based update
// statements, which bypass the struct-field serializer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan decodes a jsonb column.
func (m *JSONMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("json map: unsupported scan type %T", value)
	}
}
