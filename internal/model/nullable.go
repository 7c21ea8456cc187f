package model

import (
	"bytes"
	"encoding/json"
)

// Nullable is a JSON field that tells "key absent" apart from "key: null".
//
//	{}                      → Set=false
//	{"categoria_id": null}  → Set=true, Valid=false
//	{"categoria_id": 3}     → Set=true, Valid=true, Value=3
//
// encoding/json only calls UnmarshalJSON when the key is present, which is
// what makes Set meaningful.
type Nullable[T any] struct {
	Set   bool
	Valid bool
	Value T
}

// NewNullable returns a set, valid value. Handy in tests and callers that
// build inputs in Go rather than decoding them.
func NewNullable[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Valid: true, Value: v}
}

// Null returns a set but null value.
func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		n.Valid = false
		n.Value = zero
		return nil
	}
	if err := json.Unmarshal(data, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Ptr returns nil for a null value.
func (n Nullable[T]) Ptr() *T {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}
