package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// Field is a single key/value pair of a Document.
type Field struct {
	Key   string
	Value any
}

// Document is an ordered mapping of string keys to arbitrary JSON-compatible values.
// Keys keep the order in which they were first set, including across JSON round trips.
type Document struct {
	keys   []string
	values map[string]any
}

func NewDocument(fields ...Field) *Document {
	d := &Document{values: make(map[string]any, len(fields))}
	for _, f := range fields {
		d.Set(f.Key, f.Value)
	}
	return d
}

// FromMap builds a Document from m with its keys in lexical order.
func FromMap(m map[string]any) *Document {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	d := NewDocument()
	for _, k := range keys {
		d.Set(k, m[k])
	}
	return d
}

// Set stores v at k. A new key is appended; an existing key keeps its position.
func (d *Document) Set(k string, v any) {
	if d.values == nil {
		d.values = make(map[string]any)
	}
	if _, ok := d.values[k]; !ok {
		d.keys = append(d.keys, k)
	}
	d.values[k] = v
}

func (d *Document) Get(k string) (any, bool) {
	if d == nil {
		return nil, false
	}
	v, ok := d.values[k]
	return v, ok
}

func (d *Document) Delete(k string) {
	if _, ok := d.values[k]; !ok {
		return
	}
	delete(d.values, k)
	for i, key := range d.keys {
		if key == k {
			d.keys = append(d.keys[:i:i], d.keys[i+1:]...)
			break
		}
	}
}

// Keys returns a copy of the keys in order.
func (d *Document) Keys() []string {
	if d == nil {
		return nil
	}
	return append([]string(nil), d.keys...)
}

func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// Fields returns the pairs in order.
func (d *Document) Fields() []Field {
	if d == nil {
		return nil
	}
	fields := make([]Field, len(d.keys))
	for i, k := range d.keys {
		fields[i] = Field{Key: k, Value: d.values[k]}
	}
	return fields
}

// Clone returns a shallow copy of d.
func (d *Document) Clone() *Document {
	return NewDocument(d.Fields()...)
}

// Merge overlays src onto d field by field. Keys present in src overwrite the ones in d,
// keys only in d are preserved, and keys only in src are appended in src order.
// Nested values are replaced, not merged.
func (d *Document) Merge(src *Document) *Document {
	for _, f := range src.Fields() {
		d.Set(f.Key, f.Value)
	}
	return d
}

// Map returns the fields as an unordered map.
func (d *Document) Map() map[string]any {
	m := make(map[string]any, d.Len())
	for _, f := range d.Fields() {
		m[f.Key] = f.Value
	}
	return m
}

func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := d.writeFields(&buf, false); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (d *Document) writeFields(buf *bytes.Buffer, leadingComma bool) error {
	for i, f := range d.Fields() {
		if i > 0 || leadingComma {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Key)
		if err != nil {
			return err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return fmt.Errorf("field %q: %w", f.Key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	return nil
}

var ErrNotObject = errors.New("expected a JSON object")

// UnmarshalJSON decodes a JSON object keeping its key order. Numbers are kept as json.Number
// so that they are written back exactly as received.
func (d *Document) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return ErrNotObject
	}

	*d = Document{values: make(map[string]any)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected object key %v", tok)
		}

		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		d.Set(key, v)
	}

	// Closing brace
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
