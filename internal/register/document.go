package register

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
)

// Shape records how a repeatable register field was delivered.
type Shape int

const (
	Absent Shape = iota
	Single
	Sequence
)

func (s Shape) String() string {
	switch s {
	case Single:
		return "single"
	case Sequence:
		return "sequence"
	default:
		return "absent"
	}
}

// Reading is what a sequence means for a given field. The register uses
// arrays for two unrelated things: the publication history of a section
// (index 0 is the most recent entry) and several simultaneous values.
type Reading int

const (
	History Reading = iota
	Multiplicity
)

// OneOrMany holds a field that is either one object or an array of objects.
type OneOrMany[T any] struct {
	shape Shape
	items []T
}

func SingleOf[T any](v T) OneOrMany[T] {
	return OneOrMany[T]{shape: Single, items: []T{v}}
}

func SequenceOf[T any](vs ...T) OneOrMany[T] {
	return OneOrMany[T]{shape: Sequence, items: vs}
}

func (o OneOrMany[T]) Shape() Shape {
	return o.shape
}

func (o OneOrMany[T]) IsAbsent() bool {
	return o.shape == Absent || len(o.items) == 0
}

// Read returns the entries of the field under reading r. A History read
// yields at most the most recent entry, a Multiplicity read yields every
// entry. A single object reads the same either way.
func (o OneOrMany[T]) Read(r Reading) []T {
	if o.IsAbsent() {
		return nil
	}
	if r == History {
		return o.items[:1]
	}
	return o.items
}

// Latest is Read(History) for callers that want the entry itself.
func (o OneOrMany[T]) Latest() (T, bool) {
	var zero T
	items := o.Read(History)
	if len(items) == 0 {
		return zero, false
	}
	return items[0], true
}

// Fold dispatches on the delivered shape for fields whose single-object
// meaning differs from their array meaning.
func Fold[T, R any](o OneOrMany[T], onAbsent func() R, onSingle func(T) R, onSequence func([]T) R) R {
	switch {
	case o.IsAbsent():
		return onAbsent()
	case o.shape == Single:
		return onSingle(o.items[0])
	default:
		return onSequence(o.items)
	}
}

func (o *OneOrMany[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*o = OneOrMany[T]{}
		return nil
	}
	switch trimmed[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return err
		}
		*o = OneOrMany[T]{shape: Sequence, items: items}
	case '{':
		var item T
		if err := json.Unmarshal(trimmed, &item); err != nil {
			return err
		}
		*o = OneOrMany[T]{shape: Single, items: []T{item}}
	default:
		return fmt.Errorf("%w: expected object or array, got %.20s", ErrUnexpectedShape, trimmed)
	}
	return nil
}

func (o OneOrMany[T]) MarshalJSON() ([]byte, error) {
	switch o.shape {
	case Single:
		return json.Marshal(o.items[0])
	case Sequence:
		return json.Marshal(o.items)
	default:
		return []byte("null"), nil
	}
}

// Text is a BadgerFish text node: {"$": "value"}.
type Text struct {
	Value string `json:"$"`
}

func (t *Text) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		return json.Unmarshal(trimmed, &t.Value)
	}
	if len(trimmed) > 0 && trimmed[0] != '{' && !bytes.Equal(trimmed, []byte("null")) {
		return fmt.Errorf("%w: expected text node, got %.20s", ErrUnexpectedShape, trimmed)
	}
	var node struct {
		Value string `json:"$"`
	}
	if err := json.Unmarshal(trimmed, &node); err != nil {
		return err
	}
	t.Value = node.Value
	return nil
}

// text returns the value of an optional text node.
func text(t *Text) string {
	if t == nil {
		return ""
	}
	return t.Value
}
