package models

import "encoding/json"

// Field is an optional JSON value that remembers whether the key was present
// and whether it was an explicit null.
type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if string(data) == "null" {
		f.Null = true
		return nil
	}
	return json.Unmarshal(data, &f.Value)
}

// Present reports whether the key was sent with a non-null value.
func (f Field[T]) Present() bool {
	return f.Set && !f.Null
}

// NewValue returns a Field holding v.
func NewValue[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

// NewNull returns a Field that clears the column.
func NewNull[T any]() Field[T] {
	return Field[T]{Set: true, Null: true}
}

func assign[T any](cols map[string]any, column string, f Field[T]) {
	if !f.Set {
		return
	}
	if f.Null {
		cols[column] = nil
		return
	}
	cols[column] = f.Value
}
