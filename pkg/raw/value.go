// Package raw holds the untyped tree a document decodes into before any
// validation happens. A Value is a tagged union over null, booleans,
// numbers, strings, sequences and string-keyed maps that keep their
// source key order.
package raw

import (
	"strconv"
)

// Kind identifies which member of the union a Value holds
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindSeq
	KindMap
)

// String returns the type name used in validation messages
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindInt, KindFloat:
		return "number"
	case KindString:
		return "string"
	case KindSeq:
		return "array"
	case KindMap:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a node of the raw tree. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	seq  []Value
	m    *Map

	// text keeps the scalar as it was written in the source
	text string
}

// Null returns the null value
func Null() Value { return Value{} }

// Bool wraps a boolean
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b, text: strconv.FormatBool(b)}
}

// Int wraps an integer
func Int(i int64) Value {
	return Value{kind: KindInt, i: i, text: strconv.FormatInt(i, 10)}
}

// Float wraps a floating point number
func Float(f float64) Value {
	return Value{kind: KindFloat, f: f, text: strconv.FormatFloat(f, 'g', -1, 64)}
}

// String wraps a string
func String(s string) Value {
	return Value{kind: KindString, s: s, text: s}
}

// Seq wraps an ordered sequence
func Seq(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindSeq, seq: items}
}

// MapValue wraps a map
func MapValue(m *Map) Value {
	if m == nil {
		m = NewMap()
	}
	return Value{kind: KindMap, m: m}
}

// Kind returns the union tag
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null (or absent)
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsScalar reports whether v is neither a sequence nor a map
func (v Value) IsScalar() bool { return v.kind != KindSeq && v.kind != KindMap }

// AsBool returns the boolean held by v
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsInt returns the integer held by v
func (v Value) AsInt() (int64, bool) {
	return v.i, v.kind == KindInt
}

// AsFloat returns the number held by v, converting integers
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	default:
		return 0, false
	}
}

// AsString returns the string held by v
func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

// AsSeq returns the items of a sequence
func (v Value) AsSeq() ([]Value, bool) {
	return v.seq, v.kind == KindSeq
}

// AsMap returns the map held by v
func (v Value) AsMap() (*Map, bool) {
	return v.m, v.kind == KindMap
}

// Text renders a scalar the way it appeared in the source. Sequences and
// maps render as JSON.
func (v Value) Text() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindSeq, KindMap:
		return v.JSON()
	default:
		return v.text
	}
}

// Ref returns the $ref entry of a map value, if any
func (v Value) Ref() (Value, bool) {
	m, ok := v.AsMap()
	if !ok {
		return Value{}, false
	}
	return m.Get("$ref")
}

// Get looks up key in a map value. Missing keys and non-map receivers
// yield null.
func (v Value) Get(key string) Value {
	m, ok := v.AsMap()
	if !ok {
		return Value{}
	}
	val, _ := m.Get(key)
	return val
}

// Equal reports deep equality. Map comparison ignores key order.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		if nf, ok := v.AsFloat(); ok {
			of, ok := other.AsFloat()
			return ok && nf == of
		}
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f
	case KindString:
		return v.s == other.s
	case KindSeq:
		if len(v.seq) != len(other.seq) {
			return false
		}
		for i := range v.seq {
			if !v.seq[i].Equal(other.seq[i]) {
				return false
			}
		}
		return true
	case KindMap:
		return v.m.equal(other.m)
	}
	return false
}

// Interface converts v into plain Go values (map[string]any, []any,
// string, int64, float64, bool, nil).
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindSeq:
		out := make([]any, len(v.seq))
		for i, item := range v.seq {
			out[i] = item.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]any, v.m.Len())
		v.m.Range(func(key string, val Value) bool {
			out[key] = val.Interface()
			return true
		})
		return out
	default:
		return nil
	}
}
