// Package fielderrors holds the field-keyed validation error map exchanged
// between the API and its clients. The wire shape is a JSON object mapping a
// form field name to a list of human-readable messages, with the special key
// "non_field_errors" carrying form-level messages.
package fielderrors

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// NonField is the map key for errors not attributable to a single field.
const NonField = "non_field_errors"

type Map map[string][]string

func New(field, message string) Map {
	m := Map{}
	m.Add(field, message)
	return m
}

func (m Map) Add(field, message string) {
	m[field] = append(m[field], message)
}

// Joined returns the messages for a field as a single display string.
func (m Map) Joined(field string) string {
	return strings.Join(m[field], " ")
}

// Fields returns the field names in sorted order.
func (m Map) Fields() []string {
	fields := make([]string, 0, len(m))
	for field := range m {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// Error makes Map usable as an error value on the client side.
func (m Map) Error() string {
	parts := make([]string, 0, len(m))
	for _, field := range m.Fields() {
		parts = append(parts, fmt.Sprintf("%s: %s", field, m.Joined(field)))
	}
	return strings.Join(parts, "; ")
}

// Decode parses an error payload. Values may be a single string or a list of
// strings; entries of any other shape are dropped. Only keys literally
// present in the payload object end up in the map, so nothing inherited or
// synthesized can leak into the rendered errors.
func Decode(data []byte) (Map, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	m := Map{}
	for field, value := range raw {
		var list []string
		if err := json.Unmarshal(value, &list); err == nil {
			if len(list) > 0 {
				m[field] = list
			}
			continue
		}
		var single string
		if err := json.Unmarshal(value, &single); err == nil && single != "" {
			m[field] = []string{single}
		}
	}
	return m, nil
}
