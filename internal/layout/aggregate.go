package layout

import (
	"fmt"
	"strings"

	"github.com/elliotchance/orderedmap/v3"
)

// Node is a decoded member of an Aggregate.
type Node interface {
	Len() int
	String() string
}

// Field is a decoded atom.
type Field struct {
	Atom  *Atom
	Value Value
}

func (f *Field) Len() int {
	return f.Atom.Len()
}

func (f *Field) String() string {
	return f.Atom.Render(f.Value)
}

// Aggregate is one decoded occurrence of a Struct. Named members keep their
// declaration order. Repeated elements of a variable-length tail are kept in
// Items, apart from the named members.
type Aggregate struct {
	Name      string
	Items     []*Aggregate
	Anomalies []string

	fields   *orderedmap.OrderedMap[string, Node]
	consumed int
}

func NewAggregate(name string) *Aggregate {
	return &Aggregate{
		Name:   name,
		fields: orderedmap.NewOrderedMap[string, Node](),
	}
}

// Set stores a member under name. Setting an existing name replaces the
// value in place.
func (a *Aggregate) Set(name string, n Node) {
	a.fields.Set(name, n)
}

// SetDerived stores a computed value that was not read from the buffer.
func (a *Aggregate) SetDerived(name, format string, v Value) {
	a.Set(name, &Field{Atom: &Atom{Name: name, Kind: v.Kind, Format: format}, Value: v})
}

// Attach stores a nested aggregate that a decoder produced on its own, such
// as a second-level protocol message.
func (a *Aggregate) Attach(name string, sub *Aggregate) {
	a.Set(name, sub)
}

// Append adds one repeated element.
func (a *Aggregate) Append(item *Aggregate) {
	a.Items = append(a.Items, item)
}

// Note records a recoverable anomaly seen while decoding.
func (a *Aggregate) Note(format string, args ...any) {
	a.Anomalies = append(a.Anomalies, fmt.Sprintf(format, args...))
}

// Consume adds n bytes to the count of bytes this aggregate was decoded from.
func (a *Aggregate) Consume(n int) {
	a.consumed += n
}

// Len is the number of bytes consumed to decode the aggregate.
func (a *Aggregate) Len() int {
	return a.consumed
}

func (a *Aggregate) Get(name string) (Node, bool) {
	return a.fields.Get(name)
}

func (a *Aggregate) Field(name string) (*Field, bool) {
	n, ok := a.fields.Get(name)
	if !ok {
		return nil, false
	}
	f, ok := n.(*Field)
	return f, ok
}

// Sub returns the nested aggregate stored under name, or nil.
func (a *Aggregate) Sub(name string) *Aggregate {
	n, ok := a.fields.Get(name)
	if !ok {
		return nil
	}
	sub, _ := n.(*Aggregate)
	return sub
}

func (a *Aggregate) Value(name string) Value {
	f, ok := a.Field(name)
	if !ok {
		return Value{}
	}
	return f.Value
}

func (a *Aggregate) Uint(name string) uint64 {
	return a.Value(name).AsUint()
}

func (a *Aggregate) Int(name string) int64 {
	return a.Value(name).AsInt()
}

func (a *Aggregate) Float(name string) float64 {
	return a.Value(name).AsFloat()
}

func (a *Aggregate) Text(name string) string {
	return a.Value(name).Text
}

// Names returns member names in declaration order.
func (a *Aggregate) Names() []string {
	names := make([]string, 0, a.fields.Len())
	for name := range a.fields.Keys() {
		names = append(names, name)
	}
	return names
}

// Each visits members in declaration order.
func (a *Aggregate) Each(fn func(name string, n Node)) {
	for name, n := range a.fields.AllFromFront() {
		fn(name, n)
	}
}

// String renders "name: value" pairs in order, nested aggregates bracketed.
func (a *Aggregate) String() string {
	var b strings.Builder
	a.render(&b)
	return b.String()
}

func (a *Aggregate) render(b *strings.Builder) {
	first := true
	sep := func() {
		if !first {
			b.WriteByte(' ')
		}
		first = false
	}
	a.Each(func(name string, n Node) {
		sep()
		b.WriteString(name)
		b.WriteString(": ")
		if sub, ok := n.(*Aggregate); ok {
			b.WriteByte('[')
			sub.render(b)
			b.WriteByte(']')
			return
		}
		b.WriteString(n.String())
	})
	for i, item := range a.Items {
		sep()
		fmt.Fprintf(b, "%d: {", i)
		item.render(b)
		b.WriteByte('}')
	}
}
