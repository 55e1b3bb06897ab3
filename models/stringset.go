package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringSet is a grow-only set of strings persisted as a JSON array column.
// Add is a deduplicating union, mirroring the arrayUnion field transform of
// the document store this schema descends from. Removal is intentionally not
// supported.
type StringSet []string

// Contains reports whether the set holds v
func (s StringSet) Contains(v string) bool {
	for _, item := range s {
		if item == v {
			return true
		}
	}
	return false
}

// Add unions values into the set and reports whether the set changed
func (s *StringSet) Add(values ...string) bool {
	changed := false
	for _, v := range values {
		if v == "" || s.Contains(v) {
			continue
		}
		*s = append(*s, v)
		changed = true
	}
	return changed
}

// Value implements driver.Valuer, serializing the set to JSON
func (s StringSet) Value() (driver.Value, error) {
	if s == nil {
		s = StringSet{}
	}
	data, err := json.Marshal([]string(s))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal string set: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner, deserializing a JSON array column
func (s *StringSet) Scan(value interface{}) error {
	if value == nil {
		*s = StringSet{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for string set: %T", value)
	}

	if len(data) == 0 {
		*s = StringSet{}
		return nil
	}

	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("failed to unmarshal string set: %w", err)
	}
	*s = items
	return nil
}
