package clutmap

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

type Options struct {
	// Frame of the palette clip whose colors become the palette.
	// Read once at construction.
	PaletteFrame int
	// Process the two fields of every frame separately. Requires even
	// height (a multiple of 4 for YV12).
	Interlaced bool
	// Distance used to pick the nearest palette color. MetricLab is only
	// accepted for RGB formats.
	Metric Metric
	// Goroutines for the table build; <= 0 uses every CPU.
	Workers int
	// Cut the palette down to at most this many colors before building.
	// <= 0 keeps every color of the palette frame.
	MaxColors int
	// How MaxColors is enforced.
	Reduce ReduceMethod
	// Prebuilt table to reuse instead of scanning the palette clip, e.g.
	// one read back from a cache file. Its family must match the clip.
	Table *Table
}

func DefaultOptions() Options {
	return Options{
		PaletteFrame: 0,
		Metric:       MetricSquared,
		Reduce:       ReduceDominant,
	}
}

// CLUT restricts a clip to the colors of a palette frame: every output
// macropixel is the palette color nearest to the source macropixel.
// Construction does all the expensive work; Frame is a table lookup per
// macropixel and is safe to call from several goroutines.
type CLUT struct {
	child   Clip
	info    VideoInfo
	adapter *Adapter
	table   *Table
}

// New validates child and palette, scans the palette frame and builds
// the nearest color table.
func New(child, palette Clip, opt Options) (*CLUT, error) {
	ci := child.Info()
	adapter, err := NewAdapter(ci.Format, opt.Interlaced)
	if err != nil {
		return nil, err
	}
	if err := adapter.checkNamed("clip", ci.Width, ci.Height); err != nil {
		return nil, err
	}
	if !opt.Metric.Valid() {
		return nil, fmt.Errorf("clutmap: %v: %w", opt.Metric, ErrMetricUnsupported)
	}
	if opt.MaxColors > 0 && !opt.Reduce.Valid() {
		return nil, fmt.Errorf("clutmap: %v: %w", opt.Reduce, ErrReduceUnsupported)
	}
	if !opt.Metric.supports(adapter.Family()) {
		return nil, fmt.Errorf("clutmap: metric %s is not available for %s clips: %w",
			opt.Metric, ci.Format, ErrMetricUnsupported)
	}

	c := &CLUT{child: child, info: ci, adapter: adapter}
	if opt.Table != nil {
		if opt.Table.Family() != adapter.Family() {
			return nil, fmt.Errorf("clutmap: table holds %s colors, %s clips need %s: %w",
				opt.Table.Family(), ci.Format, adapter.Family(), ErrFormatMismatch)
		}
		c.table = opt.Table
		logrus.WithFields(logrus.Fields{
			"function":   "New",
			"format":     ci.Format.String(),
			"width":      ci.Width,
			"height":     ci.Height,
			"references": opt.Table.References().Len(),
		}).Info("Using prebuilt nearest color table")
		return c, nil
	}

	pi := palette.Info()
	if pi.Format != ci.Format {
		return nil, fmt.Errorf("clutmap: palette format %s does not match clip format %s: %w",
			pi.Format, ci.Format, ErrFormatMismatch)
	}
	if err := adapter.checkNamed("palette", pi.Width, pi.Height); err != nil {
		return nil, err
	}
	if opt.PaletteFrame < 0 || opt.PaletteFrame >= pi.NumFrames {
		return nil, fmt.Errorf("clutmap: paletteframe %d not in [0,%d): %w",
			opt.PaletteFrame, pi.NumFrames, ErrFrameOutOfRange)
	}
	pf, err := palette.Frame(opt.PaletteFrame)
	if err != nil {
		return nil, fmt.Errorf("clutmap: reading palette frame %d: %w", opt.PaletteFrame, err)
	}
	samples, err := adapter.Extract(pf)
	if err != nil {
		return nil, err
	}
	if opt.MaxColors > 0 {
		samples = Reduce(samples, adapter.Family(), opt.MaxColors, opt.Reduce)
	}
	refs, err := NewReferenceSet(samples)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function":      "New",
		"format":        ci.Format.String(),
		"width":         ci.Width,
		"height":        ci.Height,
		"interlaced":    opt.Interlaced,
		"palette_frame": opt.PaletteFrame,
		"references":    refs.Len(),
	}).Info("Palette extracted")

	c.table, err = BuildTable(refs, adapter.Family(), TableOptions{Metric: opt.Metric, Workers: opt.Workers})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (c *CLUT) Info() VideoInfo { return c.info }

// Table returns the nearest color table built at construction.
func (c *CLUT) Table() *Table { return c.table }

// Frame maps frame n of the child clip into a new frame.
func (c *CLUT) Frame(n int) (*Frame, error) {
	if err := checkFrameIndex(c.info, n); err != nil {
		return nil, err
	}
	src, err := c.child.Frame(n)
	if err != nil {
		return nil, err
	}
	dst, err := NewFrame(c.info.Format, c.info.Width, c.info.Height)
	if err != nil {
		return nil, err
	}
	if err := c.adapter.Map(src, dst, c.table); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"function": "CLUT.Frame",
		"frame":    n,
	}).Trace("Frame mapped")
	return dst, nil
}
