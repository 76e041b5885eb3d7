package layout

// Member is one entry of a Struct: either an atom or a nested struct.
type Member struct {
	Name   string
	Atom   *Atom
	Struct *Struct
}

func (m Member) len() int {
	if m.Atom != nil {
		return m.Atom.Len()
	}
	return m.Struct.Len()
}

// Struct is the immutable, ordered declaration of a fixed layout. Decode
// allocates a fresh Aggregate for every call.
type Struct struct {
	Name    string
	Members []Member
}

// NewStruct declares a struct made of atoms, in order.
func NewStruct(name string, atoms ...*Atom) *Struct {
	s := &Struct{Name: name}
	return s.Add(atoms...)
}

// Add appends atoms to the declaration.
func (s *Struct) Add(atoms ...*Atom) *Struct {
	for _, a := range atoms {
		s.Members = append(s.Members, Member{Name: a.Name, Atom: a})
	}
	return s
}

// Nest appends a nested struct under name.
func (s *Struct) Nest(name string, sub *Struct) *Struct {
	s.Members = append(s.Members, Member{Name: name, Struct: sub})
	return s
}

// Len is the static byte length of the declaration.
func (s *Struct) Len() int {
	total := 0
	for _, m := range s.Members {
		total += m.len()
	}
	return total
}

// Decode fills a new Aggregate from the front of buf, member by member, and
// returns the number of bytes consumed.
func (s *Struct) Decode(buf []byte) (*Aggregate, int, error) {
	agg := NewAggregate(s.Name)
	off := 0
	for _, m := range s.Members {
		if m.Atom != nil {
			v, err := m.Atom.Decode(buf[off:])
			if err != nil {
				return nil, off, err
			}
			agg.Set(m.Name, &Field{Atom: m.Atom, Value: v})
			off += m.Atom.Len()
			continue
		}
		sub, n, err := m.Struct.Decode(buf[off:])
		if err != nil {
			return nil, off + n, err
		}
		agg.Set(m.Name, sub)
		off += n
	}
	agg.Consume(off)
	return agg, off, nil
}
