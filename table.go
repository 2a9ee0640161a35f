package clutmap

import (
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Table maps every 24-bit key to its nearest reference color. The three
// component arrays are dense and indexed by the packed key. A Table is
// immutable once built and safe for concurrent lookups.
type Table struct {
	refs   ReferenceSet
	family Family
	metric Metric
	c0     []uint8
	c1     []uint8
	c2     []uint8
}

// TableOptions configures BuildTable.
type TableOptions struct {
	Metric Metric
	// Build goroutines. <= 0 means runtime.NumCPU(). The result does not
	// depend on it.
	Workers int
}

// BuildTable computes the nearest reference color of every key by
// brute force, O(2^24 x refs.Len()). Equal distances resolve to the
// earliest color of refs.
func BuildTable(refs ReferenceSet, family Family, opt TableOptions) (*Table, error) {
	if refs.Len() == 0 {
		return nil, fmt.Errorf("clutmap: cannot build table: %w", ErrEmptyPalette)
	}
	if !opt.Metric.Valid() {
		return nil, fmt.Errorf("clutmap: %v: %w", opt.Metric, ErrMetricUnsupported)
	}
	if !opt.Metric.supports(family) {
		return nil, fmt.Errorf("clutmap: metric %s requires rgb colors, got %s: %w",
			opt.Metric, family, ErrMetricUnsupported)
	}
	workers := opt.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, 256)

	t := &Table{
		refs:   refs,
		family: family,
		metric: opt.Metric,
		c0:     make([]uint8, KeySpace),
		c1:     make([]uint8, KeySpace),
		c2:     make([]uint8, KeySpace),
	}

	logrus.WithFields(logrus.Fields{
		"function":   "BuildTable",
		"references": refs.Len(),
		"metric":     opt.Metric.String(),
		"family":     family.String(),
		"workers":    workers,
	}).Info("Building nearest color table")
	start := time.Now()

	// Work unit: the 65536 keys sharing one first component.
	var next, done atomic.Int32
	var wg sync.WaitGroup
	for range workers {
		wg.Go(func() {
			s := newSlabScratch(refs)
			for {
				hi := int(next.Add(1) - 1)
				if hi >= 256 {
					return
				}
				switch opt.Metric {
				case MetricAbsolute:
					t.fillSlabAbsolute(hi, s)
				case MetricLab:
					t.fillSlabLab(hi, s)
				default:
					t.fillSlabSquared(hi, s)
				}
				if n := done.Add(1); n%64 == 0 {
					logrus.WithFields(logrus.Fields{
						"function": "BuildTable",
						"slabs":    n,
					}).Debug("Table build progress")
				}
			}
		})
	}
	wg.Wait()

	logrus.WithFields(logrus.Fields{
		"function":   "BuildTable",
		"references": refs.Len(),
		"elapsed":    time.Since(start).String(),
	}).Info("Nearest color table built")
	return t, nil
}

// slabScratch holds per-worker buffers sized to the reference count.
type slabScratch struct {
	r0, r1, r2 []int
	d0, d01    []int
	lab        [][3]float64
}

func newSlabScratch(refs ReferenceSet) *slabScratch {
	n := refs.Len()
	s := &slabScratch{
		r0:  make([]int, n),
		r1:  make([]int, n),
		r2:  make([]int, n),
		d0:  make([]int, n),
		d01: make([]int, n),
	}
	for j := range n {
		c := refs.At(j)
		s.r0[j], s.r1[j], s.r2[j] = int(c[0]), int(c[1]), int(c[2])
	}
	return s
}

func (t *Table) store(key int, ref int) {
	c := t.refs.At(ref)
	t.c0[key] = c[0]
	t.c1[key] = c[1]
	t.c2[key] = c[2]
}

// The per-reference partial sums of the first two components are hoisted
// out of the innermost loop; the winner is unchanged.

func (t *Table) fillSlabSquared(hi int, s *slabScratch) {
	n := len(s.r0)
	for j := range n {
		d := hi - s.r0[j]
		s.d0[j] = d * d
	}
	for mid := range 256 {
		for j := range n {
			d := mid - s.r1[j]
			s.d01[j] = s.d0[j] + d*d
		}
		base := hi<<16 | mid<<8
		for lo := range 256 {
			best, bestD := 0, math.MaxInt
			for j := range n {
				d := lo - s.r2[j]
				if v := s.d01[j] + d*d; v < bestD {
					bestD = v
					best = j
				}
			}
			t.store(base|lo, best)
		}
	}
}

func (t *Table) fillSlabAbsolute(hi int, s *slabScratch) {
	n := len(s.r0)
	for j := range n {
		s.d0[j] = absInt(hi - s.r0[j])
	}
	for mid := range 256 {
		for j := range n {
			s.d01[j] = s.d0[j] + absInt(mid-s.r1[j])
		}
		base := hi<<16 | mid<<8
		for lo := range 256 {
			best, bestD := 0, math.MaxInt
			for j := range n {
				if v := s.d01[j] + absInt(lo-s.r2[j]); v < bestD {
					bestD = v
					best = j
				}
			}
			t.store(base|lo, best)
		}
	}
}

// fillSlabLab compares squared Lab distances, which orders references
// exactly as DistanceLab does.
func (t *Table) fillSlabLab(hi int, s *slabScratch) {
	if s.lab == nil {
		s.lab = make([][3]float64, len(s.r0))
		for j := range s.lab {
			l, a, b := labColor(t.refs.At(j)).Lab()
			s.lab[j] = [3]float64{l, a, b}
		}
	}
	for mid := range 256 {
		base := hi<<16 | mid<<8
		for lo := range 256 {
			l, a, b := labColor(Color{uint8(hi), uint8(mid), uint8(lo)}).Lab()
			best, bestD := 0, math.Inf(1)
			for j, ref := range s.lab {
				dl, da, db := l-ref[0], a-ref[1], b-ref[2]
				if v := dl*dl + da*da + db*db; v < bestD {
					bestD = v
					best = j
				}
			}
			t.store(base|lo, best)
		}
	}
}

// NewTableFromArrays rebuilds a Table from previously computed component
// arrays, as read back from a cache file. Every entry must be a member
// of refs.
func NewTableFromArrays(refs ReferenceSet, family Family, metric Metric, c0, c1, c2 []uint8) (*Table, error) {
	if refs.Len() == 0 {
		return nil, fmt.Errorf("clutmap: cannot restore table: %w", ErrEmptyPalette)
	}
	if !metric.Valid() {
		return nil, fmt.Errorf("clutmap: table metric %v: %w", metric, ErrCorruptTable)
	}
	if family != FamilyRGB && family != FamilyYUV {
		return nil, fmt.Errorf("clutmap: table family %d: %w", int(family), ErrCorruptTable)
	}
	if len(c0) != KeySpace || len(c1) != KeySpace || len(c2) != KeySpace {
		return nil, fmt.Errorf("clutmap: table arrays must hold %d entries, got %d/%d/%d: %w",
			KeySpace, len(c0), len(c1), len(c2), ErrCorruptTable)
	}
	member := make([]uint64, KeySpace/64)
	for _, c := range refs.colors {
		k := c.Pack()
		member[k>>6] |= 1 << (k & 63)
	}
	for i := range KeySpace {
		k := uint32(c0[i])<<16 | uint32(c1[i])<<8 | uint32(c2[i])
		if member[k>>6]&(1<<(k&63)) == 0 {
			return nil, fmt.Errorf("clutmap: table entry %06x maps to %s outside the reference set: %w",
				i, Unpack(k), ErrCorruptTable)
		}
	}
	return &Table{refs: refs, family: family, metric: metric, c0: c0, c1: c1, c2: c2}, nil
}

// Lookup returns the reference color precomputed for key. Only the low
// 24 bits of key are used.
func (t *Table) Lookup(key uint32) Color {
	key &= KeySpace - 1
	return Color{t.c0[key], t.c1[key], t.c2[key]}
}

// LookupColor is Lookup(c.Pack()).
func (t *Table) LookupColor(c Color) Color {
	return t.Lookup(c.Pack())
}

func (t *Table) References() ReferenceSet { return t.refs }
func (t *Table) Family() Family           { return t.family }
func (t *Table) Metric() Metric           { return t.metric }

// Arrays exposes the three component arrays. They must not be modified.
func (t *Table) Arrays() (c0, c1, c2 []uint8) {
	return t.c0, t.c1, t.c2
}
