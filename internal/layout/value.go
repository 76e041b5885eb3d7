package layout

import (
	"bytes"
	"fmt"
)

// Value is a decoded scalar. Only the member matching Kind is meaningful.
type Value struct {
	Kind  Kind
	Uint  uint64
	Int   int64
	Float float64
	Bytes []byte
	Text  string
}

// UintValue, IntValue and FloatValue build values for derived fields.
func UintValue(v uint64) Value   { return Value{Kind: KindU64, Uint: v} }
func IntValue(v int64) Value     { return Value{Kind: KindI64, Int: v} }
func FloatValue(v float64) Value { return Value{Kind: KindF64, Float: v} }
func TextValue(v string) Value   { return Value{Kind: KindText, Text: v} }
func BytesValue(v []byte) Value  { return Value{Kind: KindBytes, Bytes: v} }

// Trailing returns the bytes a text value carried after its terminator, with
// the NUL padding at the end removed. It is nil for plain padded strings.
func (v Value) Trailing() []byte {
	if v.Kind != KindText || len(v.Bytes) <= len(v.Text)+1 {
		return nil
	}
	tail := bytes.TrimRight(v.Bytes[len(v.Text)+1:], "\x00")
	if len(tail) == 0 {
		return nil
	}
	return tail
}

func (v Value) signed() bool {
	switch v.Kind {
	case KindI8, KindI16, KindI32, KindI64:
		return true
	}
	return false
}

func (v Value) float() bool {
	return v.Kind == KindF32 || v.Kind == KindF64
}

// AsUint converts any numeric kind to uint64.
func (v Value) AsUint() uint64 {
	switch {
	case v.signed():
		return uint64(v.Int)
	case v.float():
		return uint64(v.Float)
	}
	return v.Uint
}

// AsInt converts any numeric kind to int64.
func (v Value) AsInt() int64 {
	switch {
	case v.signed():
		return v.Int
	case v.float():
		return int64(v.Float)
	}
	return int64(v.Uint)
}

// AsFloat converts any numeric kind to float64.
func (v Value) AsFloat() float64 {
	switch {
	case v.signed():
		return float64(v.Int)
	case v.float():
		return v.Float
	}
	return float64(v.Uint)
}

// Scalar returns the Go value held, for structured output.
func (v Value) Scalar() any {
	switch {
	case v.Kind == KindText:
		return v.Text
	case v.Kind == KindBytes:
		return v.Bytes
	case v.signed():
		return v.Int
	case v.float():
		return v.Float
	}
	return v.Uint
}

func (v Value) format(verb string) string {
	if verb == "" {
		switch {
		case v.Kind == KindText:
			verb = "%q"
		case v.Kind == KindBytes:
			verb = "% x"
		case v.float():
			verb = "%g"
		default:
			verb = "%d"
		}
	}
	return fmt.Sprintf(verb, v.Scalar())
}

func (v Value) String() string {
	return v.format("")
}
