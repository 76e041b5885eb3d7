package registry

import (
	"cmp"
	"slices"
)

// Tally counts occurrences of codes that had no registry entry. The zero
// Tally is ready to use and a nil *Tally reports nothing.
type Tally[K cmp.Ordered] struct {
	counts map[K]int
}

type Count[K cmp.Ordered] struct {
	Code  K
	Count int
}

func NewTally[K cmp.Ordered]() *Tally[K] {
	return &Tally[K]{counts: make(map[K]int)}
}

// Note records one occurrence and returns the running count for code.
func (t *Tally[K]) Note(code K) int {
	if t.counts == nil {
		t.counts = make(map[K]int)
	}
	t.counts[code]++
	return t.counts[code]
}

func (t *Tally[K]) Count(code K) int {
	if t == nil {
		return 0
	}
	return t.counts[code]
}

func (t *Tally[K]) Total() int {
	if t == nil {
		return 0
	}
	total := 0
	for _, n := range t.counts {
		total += n
	}
	return total
}

// Report returns counts sorted by code.
func (t *Tally[K]) Report() []Count[K] {
	if t == nil {
		return nil
	}
	out := make([]Count[K], 0, len(t.counts))
	for code, n := range t.counts {
		out = append(out, Count[K]{Code: code, Count: n})
	}
	slices.SortFunc(out, func(a, b Count[K]) int {
		return cmp.Compare(a.Code, b.Code)
	})
	return out
}
