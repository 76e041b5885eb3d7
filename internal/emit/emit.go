// Package emit renders decoded aggregates for people: one-line summaries,
// full field listings, YAML documents and hex fallbacks.
package emit

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/tagtools/internal/layout"
)

var ErrUnknownFormat = errors.New("emit: unknown output format")

type Format int

const (
	FormatText Format = iota
	FormatYAML
)

func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "text":
		return FormatText, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return FormatText, fmt.Errorf("%w: %q", ErrUnknownFormat, raw)
	}
}

func (f Format) String() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "text"
}

// Emission is everything an emitter may look at. Emitters must not modify it.
type Emission struct {
	Level    int
	Offset   int
	Raw      []byte
	Head     *layout.Aggregate
	Obj      *layout.Aggregate
	Format   Format
	HexWidth int
}

// Func renders one emission.
type Func func(w io.Writer, e Emission) error

// Emitter is a render function enabled from a verbosity level upward.
type Emitter struct {
	Level int
	Fn    Func
}

// Run invokes every emitter enabled at e.Level, in order. The first failure
// stops the run and is returned.
func Run(w io.Writer, emitters []Emitter, e Emission) error {
	for _, em := range emitters {
		if em.Level > e.Level {
			continue
		}
		if err := em.Fn(w, e); err != nil {
			return err
		}
	}
	return nil
}

// Fields is the generic detail emitter: it renders e.Obj as indented text or
// as a YAML document.
func Fields(w io.Writer, e Emission) error {
	if e.Obj == nil {
		return nil
	}
	if e.Format == FormatYAML {
		return YAML(w, e.Obj)
	}
	return Text(w, "    ", e.Obj)
}

// Text writes the aggregate's rendering, one nested level per line.
func Text(w io.Writer, indent string, a *layout.Aggregate) error {
	var flat []string
	a.Each(func(name string, n layout.Node) {
		if _, ok := n.(*layout.Aggregate); ok {
			return
		}
		flat = append(flat, name+": "+n.String())
	})
	if len(flat) > 0 {
		if _, err := fmt.Fprintf(w, "%s%s\n", indent, strings.Join(flat, "  ")); err != nil {
			return err
		}
	}
	var err error
	a.Each(func(name string, n layout.Node) {
		sub, ok := n.(*layout.Aggregate)
		if !ok || err != nil {
			return
		}
		if _, err = fmt.Fprintf(w, "%s%s:\n", indent, name); err != nil {
			return
		}
		err = Text(w, indent+"  ", sub)
	})
	if err != nil {
		return err
	}
	for i, item := range a.Items {
		if _, err := fmt.Fprintf(w, "%s[%d] %s\n", indent, i, item.String()); err != nil {
			return err
		}
	}
	for _, note := range a.Anomalies {
		if _, err := fmt.Fprintf(w, "%s!! %s\n", indent, note); err != nil {
			return err
		}
	}
	return nil
}
