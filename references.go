package clutmap

import (
	"cmp"
	"fmt"
	"slices"
)

// ReferenceSet is the immutable, duplicate-free set of colors a table
// maps onto. Colors are kept in ascending packed-key order, which is
// also the tie-break order of nearest-color searches.
type ReferenceSet struct {
	colors []Color
}

// NewReferenceSet sorts and deduplicates samples. The samples slice is
// not retained.
func NewReferenceSet(samples []Color) (ReferenceSet, error) {
	if len(samples) == 0 {
		return ReferenceSet{}, fmt.Errorf("clutmap: reference set needs at least one color: %w", ErrEmptyPalette)
	}
	colors := slices.Clone(samples)
	slices.SortFunc(colors, compareColors)
	colors = slices.Compact(colors)
	return ReferenceSet{colors: slices.Clip(colors)}, nil
}

func compareColors(a, b Color) int {
	return cmp.Compare(a.Pack(), b.Pack())
}

func (rs ReferenceSet) Len() int {
	return len(rs.colors)
}

// At returns the i-th color in iteration order.
func (rs ReferenceSet) At(i int) Color {
	return rs.colors[i]
}

// Colors returns a copy of the set in iteration order.
func (rs ReferenceSet) Colors() []Color {
	return slices.Clone(rs.colors)
}

func (rs ReferenceSet) Contains(c Color) bool {
	_, ok := slices.BinarySearchFunc(rs.colors, c, compareColors)
	return ok
}

// Nearest searches the set for the color closest to c under m. Ties go
// to the earliest color. This is the per-query form of what a Table
// precomputes; it panics on the zero ReferenceSet.
func (rs ReferenceSet) Nearest(c Color, m Metric) Color {
	best := rs.colors[0]
	bestD := m.Distance(c, best)
	for _, ref := range rs.colors[1:] {
		if d := m.Distance(c, ref); d < bestD {
			bestD = d
			best = ref
		}
	}
	return best
}
