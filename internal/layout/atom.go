package layout

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"golang.org/x/text/transform"
)

var ErrTruncated = errors.New("layout: truncated data")

// Kind is the primitive type of an Atom.
type Kind uint8

const (
	KindU8 Kind = iota + 1
	KindU16
	KindU32
	KindU64
	KindI8
	KindI16
	KindI32
	KindI64
	KindF32
	KindF64
	KindBytes
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindU8:
		return "u8"
	case KindU16:
		return "u16"
	case KindU32:
		return "u32"
	case KindU64:
		return "u64"
	case KindI8:
		return "i8"
	case KindI16:
		return "i16"
	case KindI32:
		return "i32"
	case KindI64:
		return "i64"
	case KindF32:
		return "f32"
	case KindF64:
		return "f64"
	case KindBytes:
		return "bytes"
	case KindText:
		return "text"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

func (k Kind) width() int {
	switch k {
	case KindU8, KindI8:
		return 1
	case KindU16, KindI16:
		return 2
	case KindU32, KindI32, KindF32:
		return 4
	case KindU64, KindI64, KindF64:
		return 8
	default:
		return 0
	}
}

// FieldError reports a field that could not be decoded from the bytes left.
type FieldError struct {
	Field string
	Need  int
	Have  int
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("layout: field %q needs %d bytes, have %d", e.Field, e.Need, e.Have)
}

func (e *FieldError) Unwrap() error {
	return ErrTruncated
}

// Atom is one fixed-width scalar field declaration. Atoms are immutable once
// built and may be shared between structs; decoded values live in Field.
type Atom struct {
	Name    string
	Kind    Kind
	Order   binary.ByteOrder
	Size    int
	Format  string
	Display func(Value) string
}

// Endian builds atoms with a fixed byte order.
type Endian struct {
	order binary.ByteOrder
}

var (
	LE = Endian{order: binary.LittleEndian}
	BE = Endian{order: binary.BigEndian}
)

func (e Endian) atom(name string, k Kind) *Atom {
	return &Atom{Name: name, Kind: k, Order: e.order, Size: k.width()}
}

func (e Endian) U8(name string) *Atom  { return e.atom(name, KindU8) }
func (e Endian) U16(name string) *Atom { return e.atom(name, KindU16) }
func (e Endian) U32(name string) *Atom { return e.atom(name, KindU32) }
func (e Endian) U64(name string) *Atom { return e.atom(name, KindU64) }
func (e Endian) I8(name string) *Atom  { return e.atom(name, KindI8) }
func (e Endian) I16(name string) *Atom { return e.atom(name, KindI16) }
func (e Endian) I32(name string) *Atom { return e.atom(name, KindI32) }
func (e Endian) I64(name string) *Atom { return e.atom(name, KindI64) }
func (e Endian) F32(name string) *Atom { return e.atom(name, KindF32) }
func (e Endian) F64(name string) *Atom { return e.atom(name, KindF64) }

// U8 and I8 have no byte order.
func U8(name string) *Atom { return LE.U8(name) }
func I8(name string) *Atom { return LE.I8(name) }

// Bytes declares a fixed run of n raw bytes.
func Bytes(name string, n int) *Atom {
	return &Atom{Name: name, Kind: KindBytes, Size: n, Format: "% x"}
}

// Text declares a NUL terminated string of n bytes. The decoded Text stops
// at the first NUL and keeps every byte before it unchanged, valid UTF-8 or
// not; Bytes holds all n bytes.
func Text(name string, n int) *Atom {
	return &Atom{Name: name, Kind: KindText, Size: n, Format: "%q"}
}

// Fmt sets the display format verb and returns the atom.
func (a *Atom) Fmt(format string) *Atom {
	a.Format = format
	return a
}

// Show sets a display transform and returns the atom.
func (a *Atom) Show(fn func(Value) string) *Atom {
	a.Display = fn
	return a
}

// Len is the fixed byte width of the atom.
func (a *Atom) Len() int {
	return a.Size
}

// Decode reads exactly Len() bytes from the front of buf.
func (a *Atom) Decode(buf []byte) (Value, error) {
	n := a.Len()
	if len(buf) < n {
		return Value{}, &FieldError{Field: a.Name, Need: n, Have: len(buf)}
	}
	raw := buf[:n]
	v := Value{Kind: a.Kind}
	switch a.Kind {
	case KindU8:
		v.Uint = uint64(raw[0])
	case KindI8:
		v.Int = int64(int8(raw[0]))
	case KindU16:
		v.Uint = uint64(a.Order.Uint16(raw))
	case KindI16:
		v.Int = int64(int16(a.Order.Uint16(raw)))
	case KindU32:
		v.Uint = uint64(a.Order.Uint32(raw))
	case KindI32:
		v.Int = int64(int32(a.Order.Uint32(raw)))
	case KindU64:
		v.Uint = a.Order.Uint64(raw)
	case KindI64:
		v.Int = int64(a.Order.Uint64(raw))
	case KindF32:
		v.Float = float64(math.Float32frombits(a.Order.Uint32(raw)))
	case KindF64:
		v.Float = math.Float64frombits(a.Order.Uint64(raw))
	case KindBytes:
		v.Bytes = make([]byte, n)
		copy(v.Bytes, raw)
	case KindText:
		v.Bytes = make([]byte, n)
		copy(v.Bytes, raw)
		v.Text = untilNul(raw)
	default:
		return Value{}, fmt.Errorf("layout: field %q has unsupported kind %s", a.Name, a.Kind)
	}
	return v, nil
}

// Render formats v for display using the transform if present, else the
// format verb.
func (a *Atom) Render(v Value) string {
	if a.Display != nil {
		return a.Display(v)
	}
	return v.format(a.Format)
}

func untilNul(raw []byte) string {
	out, _, err := transform.Bytes(&nulTerminator{}, raw)
	if err != nil {
		return string(raw)
	}
	return string(out)
}

// nulTerminator passes bytes through unchanged up to the first NUL and drops
// the NUL and everything after it.
type nulTerminator struct {
	done bool
}

func (t *nulTerminator) Reset() {
	t.done = false
}

func (t *nulTerminator) Transform(dst, src []byte, atEOF bool) (int, int, error) {
	if t.done {
		return 0, len(src), nil
	}
	n := len(src)
	end := bytes.IndexByte(src, 0)
	if end >= 0 {
		n = end
	}
	if n > len(dst) {
		return copy(dst, src[:len(dst)]), len(dst), transform.ErrShortDst
	}
	copy(dst, src[:n])
	if end >= 0 {
		t.done = true
		return n, len(src), nil
	}
	return n, n, nil
}
