package clutmap

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Metric selects the distance used to pick the nearest reference color.
type Metric int

const (
	// MetricSquared sums squared component differences (no square root).
	MetricSquared Metric = iota
	// MetricAbsolute sums absolute component differences.
	MetricAbsolute
	// MetricLab is the CIE76 distance in L*a*b*. RGB formats only.
	MetricLab
)

func (m Metric) String() string {
	switch m {
	case MetricAbsolute:
		return "absolute"
	case MetricLab:
		return "lab"
	case MetricSquared:
		return "squared"
	}
	return fmt.Sprintf("Metric(%d)", int(m))
}

// ParseMetric resolves "squared", "absolute" or "lab".
func ParseMetric(name string) (Metric, error) {
	switch strings.ToLower(name) {
	case "squared", "euclidean", "":
		return MetricSquared, nil
	case "absolute", "sad":
		return MetricAbsolute, nil
	case "lab":
		return MetricLab, nil
	}
	return 0, fmt.Errorf("clutmap: metric %q: %w", name, ErrMetricUnsupported)
}

// Valid reports whether m is one of the declared metrics.
func (m Metric) Valid() bool {
	return m >= MetricSquared && m <= MetricLab
}

// supports reports whether m is meaningful for colors of family f.
func (m Metric) supports(f Family) bool {
	return m.Valid() && (m != MetricLab || f == FamilyRGB)
}

// Distance returns the distance between a and b. Colors are read as
// {R, G, B} for MetricLab.
func (m Metric) Distance(a, b Color) float64 {
	switch m {
	case MetricAbsolute:
		return float64(absDiff(a, b))
	case MetricLab:
		return labColor(a).DistanceLab(labColor(b))
	default:
		return float64(sqDiff(a, b))
	}
}

func sqDiff(a, b Color) int {
	d0 := int(a[0]) - int(b[0])
	d1 := int(a[1]) - int(b[1])
	d2 := int(a[2]) - int(b[2])
	return d0*d0 + d1*d1 + d2*d2
}

func absDiff(a, b Color) int {
	return absInt(int(a[0])-int(b[0])) + absInt(int(a[1])-int(b[1])) + absInt(int(a[2])-int(b[2]))
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func labColor(c Color) colorful.Color {
	return colorful.Color{
		R: float64(c[0]) / 255.0,
		G: float64(c[1]) / 255.0,
		B: float64(c[2]) / 255.0,
	}
}
