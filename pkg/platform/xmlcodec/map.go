// Package xmlcodec encodes and decodes ordered field mappings using the
// hash-to-XML conventions the gateway's client libraries expect:
// booleans carry type="boolean", integers type="integer", absent values
// nil="true", and sequences type="array".
package xmlcodec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Field is a single named value inside a Map.
type Field struct {
	Name  string
	Value any
}

// Map is an ordered field mapping. Supported values are nil, string, bool,
// int, Map and List.
type Map []Field

// List is a sequence of values rendered as repeated Item elements.
type List struct {
	Item  string
	Items []any
}

// Get returns the value stored under name.
func (m Map) Get(name string) (any, bool) {
	for _, f := range m {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Has reports whether name is present, even with a nil value.
func (m Map) Has(name string) bool {
	_, ok := m.Get(name)
	return ok
}

// String returns the value under name when it is a string.
func (m Map) String(name string) (string, bool) {
	v, ok := m.Get(name)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Map returns the nested mapping under name.
func (m Map) Map(name string) (Map, bool) {
	v, ok := m.Get(name)
	if !ok {
		return nil, false
	}
	nested, ok := v.(Map)
	return nested, ok
}

// Set replaces the value under name, or appends it when absent.
func (m Map) Set(name string, value any) Map {
	for i := range m {
		if m[i].Name == name {
			m[i].Value = value
			return m
		}
	}
	return append(m, Field{Name: name, Value: value})
}

// Delete removes name, keeping the order of the remaining fields.
func (m Map) Delete(name string) Map {
	out := m[:0:0]
	for _, f := range m {
		if f.Name != name {
			out = append(out, f)
		}
	}
	return out
}

// Merge returns a copy of m with every field of other set over it.
func (m Map) Merge(other Map) Map {
	out := m.Clone()
	for _, f := range other {
		out = out.Set(f.Name, cloneValue(f.Value))
	}
	return out
}

// Clone returns a deep copy.
func (m Map) Clone() Map {
	if m == nil {
		return nil
	}
	out := make(Map, len(m))
	for i, f := range m {
		out[i] = Field{Name: f.Name, Value: cloneValue(f.Value)}
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Map:
		return t.Clone()
	case List:
		items := make([]any, len(t.Items))
		for i, item := range t.Items {
			items[i] = cloneValue(item)
		}
		return List{Item: t.Item, Items: items}
	default:
		return v
	}
}

// Underscore returns a copy with dashes in element names replaced by
// underscores, at every depth. Gateway client libraries send "credit-card"
// style names; the fixture works with "credit_card".
func (m Map) Underscore() Map {
	if m == nil {
		return nil
	}
	out := make(Map, 0, len(m))
	for _, f := range m {
		out = out.Set(underscore(f.Name), underscoreValue(f.Value))
	}
	return out
}

func underscoreValue(v any) any {
	switch t := v.(type) {
	case Map:
		return t.Underscore()
	case List:
		items := make([]any, len(t.Items))
		for i, item := range t.Items {
			items[i] = underscoreValue(item)
		}
		return List{Item: underscore(t.Item), Items: items}
	default:
		return v
	}
}

func underscore(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// MarshalJSON renders the mapping as a JSON object preserving field order.
func (m Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := marshalJSONValue(f.Value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON renders the list as a JSON array of its items.
func (l List) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, item := range l.Items {
		if i > 0 {
			buf.WriteByte(',')
		}
		val, err := marshalJSONValue(item)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func marshalJSONValue(v any) ([]byte, error) {
	switch t := v.(type) {
	case Map:
		if t == nil {
			return []byte("{}"), nil
		}
		return t.MarshalJSON()
	case List:
		return t.MarshalJSON()
	default:
		return json.Marshal(t)
	}
}
