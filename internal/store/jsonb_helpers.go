package store

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONB stores any JSON-serialisable value in a jsonb column. Valid is false
// when the column was NULL, so callers can substitute defaults.
type JSONB[T any] struct {
	V     T
	Valid bool
}

// NewJSONB wraps v as a non-NULL column value.
func NewJSONB[T any](v T) JSONB[T] {
	return JSONB[T]{V: v, Valid: true}
}

// Value implements the driver.Valuer interface
func (j JSONB[T]) Value() (driver.Value, error) {
	if !j.Valid {
		return nil, nil
	}
	b, err := json.Marshal(j.V)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Scan implements the sql.Scanner interface
func (j *JSONB[T]) Scan(value interface{}) error {
	var zero T
	j.V = zero
	if value == nil {
		j.Valid = false
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONB", value)
	}

	if err := decodeJSON(data, &j.V); err != nil {
		return err
	}
	j.Valid = true
	return nil
}

// MarshalJSON renders NULL columns as JSON null.
func (j JSONB[T]) MarshalJSON() ([]byte, error) {
	if !j.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(j.V)
}

// UnmarshalJSON treats JSON null as a NULL column.
func (j *JSONB[T]) UnmarshalJSON(data []byte) error {
	var zero T
	j.V = zero
	if string(data) == "null" {
		j.Valid = false
		return nil
	}
	if err := decodeJSON(data, &j.V); err != nil {
		return err
	}
	j.Valid = true
	return nil
}

// decodeJSON keeps numbers held in interface values as json.Number, so large
// integers are not rounded through float64.
func decodeJSON(data []byte, dest interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(dest)
}
