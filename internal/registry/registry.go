package registry

import (
	"cmp"
	"errors"
	"slices"

	"github.com/danmuck/tagtools/internal/emit"
	"github.com/danmuck/tagtools/internal/layout"
	"github.com/rs/zerolog/log"
)

var ErrNoProto = errors.New("registry: entry has no prototype layout")

// DecodeFunc decodes one payload for entry e and reports the bytes it used.
type DecodeFunc func(e Entry, buf []byte) (*layout.Aggregate, int, error)

// Entry is one row of a dispatch table. Length 0 means the payload length is
// taken from the enclosing record, not known statically.
type Entry struct {
	Length   int
	Decode   DecodeFunc
	Emitters []emit.Emitter
	Proto    *layout.Struct
	Name     string
	Object   string
}

// DecodeStruct is the default decoder: it fills the entry's prototype layout.
func DecodeStruct(e Entry, buf []byte) (*layout.Aggregate, int, error) {
	if e.Proto == nil {
		return nil, 0, ErrNoProto
	}
	return e.Proto.Decode(buf)
}

// Run decodes buf with the entry's decoder, defaulting to DecodeStruct.
func (e Entry) Run(buf []byte) (*layout.Aggregate, int, error) {
	if e.Decode == nil {
		return DecodeStruct(e, buf)
	}
	return e.Decode(e, buf)
}

// Registry is a read-only dispatch table keyed by a record or message code.
type Registry[K cmp.Ordered] struct {
	name  string
	items map[K]Entry
}

// Lookup returns the entry for code. Unknown codes return the zero Entry
// (no decoder, empty name) and false; callers fall back to a raw rendering.
func (r *Registry[K]) Lookup(code K) (Entry, bool) {
	e, ok := r.items[code]
	return e, ok
}

func (r *Registry[K]) Name() string {
	return r.name
}

func (r *Registry[K]) Len() int {
	return len(r.items)
}

// Codes returns registered codes in ascending order.
func (r *Registry[K]) Codes() []K {
	codes := make([]K, 0, len(r.items))
	for code := range r.items {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}

// NameOf returns the display name for code, or "" when unregistered.
func (r *Registry[K]) NameOf(code K) string {
	return r.items[code].Name
}

// Builder collects table rows. A later row for the same code replaces the
// earlier one.
type Builder[K cmp.Ordered] struct {
	name  string
	items map[K]Entry
}

func NewBuilder[K cmp.Ordered](name string) *Builder[K] {
	return &Builder[K]{name: name, items: make(map[K]Entry)}
}

func (b *Builder[K]) Add(code K, e Entry) *Builder[K] {
	if prev, ok := b.items[code]; ok {
		log.Debug().
			Str("registry", b.name).
			Interface("code", code).
			Str("previous", prev.Name).
			Str("replacement", e.Name).
			Msg("registry row replaced")
	}
	if e.Object == "" && e.Proto != nil {
		e.Object = e.Proto.Name
	}
	b.items[code] = e
	return b
}

// Build freezes the rows into a Registry. The builder must not be reused.
func (b *Builder[K]) Build() *Registry[K] {
	r := &Registry[K]{name: b.name, items: b.items}
	b.items = nil
	return r
}
