package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Field is a named column value of a ChangeRecord.
type Field struct {
	Name  string
	Value interface{}
}

// ChangeRecord is a flat row handed to a downstream writer.
type ChangeRecord struct {
	Table  string
	ID     string
	Fields []Field
}

// Get returns the value of a field by name.
func (r ChangeRecord) Get(name string) (interface{}, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// MarshalJSON encodes fields as an object in declaration order.
func (r ChangeRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"table":`)
	if err := writeJSON(&buf, r.Table); err != nil {
		return nil, err
	}
	buf.WriteString(`,"id":`)
	if err := writeJSON(&buf, r.ID); err != nil {
		return nil, err
	}
	buf.WriteString(`,"fields":{`)
	for i, f := range r.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSON(&buf, f.Name); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeJSON(&buf, f.Value); err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}
