package models

import (
	"bytes"
	"math"
	"strconv"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Value is a single parsed field: either a number or a piece of text.
type Value struct {
	Num     float64
	Text    string
	Numeric bool
}

// Number returns a numeric Value.
func Number(f float64) Value {
	return Value{Num: f, Numeric: true}
}

// Text returns a text Value.
func Text(s string) Value {
	return Value{Text: s}
}

// String renders numbers in their shortest decimal form ("1", "7.5") and text as-is.
func (v Value) String() string {
	if v.Numeric {
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	}
	return v.Text
}

// Float returns the numeric value, parsing text when possible.
func (v Value) Float() (float64, bool) {
	if v.Numeric {
		return v.Num, true
	}
	f, err := strconv.ParseFloat(v.Text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// MarshalJSON encodes numbers as JSON numbers and text as JSON strings.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.Numeric {
		return []byte(strconv.FormatFloat(v.Num, 'f', -1, 64)), nil
	}
	return json.Marshal(v.Text)
}

// MarshalYAML encodes numbers as YAML numbers and text as YAML strings.
func (v Value) MarshalYAML() (interface{}, error) {
	if v.Numeric {
		return v.Num, nil
	}
	return v.Text, nil
}

// Record is one parsed input row. Records are immutable once built: the field
// order and the values are only reachable through copying accessors.
type Record struct {
	fields []string
	values map[string]Value
}

// NewRecord builds a Record from the header order and the parsed values.
// Both inputs are copied.
func NewRecord(fields []string, values map[string]Value) Record {
	f := make([]string, len(fields))
	copy(f, fields)
	v := make(map[string]Value, len(values))
	for k, val := range values {
		v[k] = val
	}
	return Record{fields: f, values: v}
}

// Fields returns the field names in header order.
func (r Record) Fields() []string {
	out := make([]string, len(r.fields))
	copy(out, r.fields)
	return out
}

// Get returns the value of a field.
func (r Record) Get(name string) (Value, bool) {
	v, ok := r.values[name]
	return v, ok
}

// String returns the rendered value of a field, or "" when absent.
func (r Record) String(name string) string {
	return r.values[name].String()
}

// Map returns the record as a plain map of numbers and strings.
func (r Record) Map() map[string]any {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		if v.Numeric {
			out[k] = v.Num
		} else {
			out[k] = v.Text
		}
	}
	return out
}

// MarshalJSON encodes the record as an object with keys in header order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := r.values[name].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML encodes the record as a mapping with keys in header order.
func (r Record) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range r.fields {
		var val yaml.Node
		if err := val.Encode(r.values[name]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: name},
			&val,
		)
	}
	return node, nil
}
