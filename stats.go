package clutmap

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Report summarizes how far a mapped frame moved from its source.
type Report struct {
	Samples int     // colors compared
	Mean    float64 // mean distance
	StdDev  float64
	Max     float64
	Colors  int // distinct colors in the mapped frame
}

func (r Report) String() string {
	return fmt.Sprintf("samples=%d mean=%.3f stddev=%.3f max=%.0f colors=%d",
		r.Samples, r.Mean, r.StdDev, r.Max, r.Colors)
}

// Measure compares every color shown by src with the color at the same
// position in dst under m. Both frames must share format and size.
func Measure(src, dst *Frame, m Metric) (Report, error) {
	if dst.Format != src.Format {
		return Report{}, fmt.Errorf("clutmap: measuring %s against %s: %w", dst.Format, src.Format, ErrFormatMismatch)
	}
	if dst.Width != src.Width || dst.Height != src.Height {
		return Report{}, fmt.Errorf("clutmap: measuring %dx%d against %dx%d: %w",
			dst.Width, dst.Height, src.Width, src.Height, ErrInvalidDimensions)
	}
	a, err := NewAdapter(src.Format, false)
	if err != nil {
		return Report{}, err
	}
	if !m.Valid() {
		return Report{}, fmt.Errorf("clutmap: %v: %w", m, ErrMetricUnsupported)
	}
	if !m.supports(a.Family()) {
		return Report{}, fmt.Errorf("clutmap: metric %s is not available for %s frames: %w", m, src.Format, ErrMetricUnsupported)
	}
	before, err := a.Extract(src)
	if err != nil {
		return Report{}, err
	}
	after, err := a.Extract(dst)
	if err != nil {
		return Report{}, err
	}

	dist := make([]float64, len(before))
	for i := range before {
		dist[i] = m.Distance(before[i], after[i])
	}
	r := Report{Samples: len(dist)}
	if len(dist) == 0 {
		return r, nil
	}
	r.Mean, r.StdDev = stat.MeanStdDev(dist, nil)
	if len(dist) == 1 {
		r.StdDev = 0
	}
	r.Max = slices.Max(dist)
	slices.SortFunc(after, compareColors)
	r.Colors = len(slices.Compact(after))
	return r, nil
}
