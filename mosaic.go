package clutmap

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// defaultTileSize is the tile edge DefaultMosaicOptions starts from.
const defaultTileSize = 16

type MosaicOptions struct {
	// Tile size in luma samples. Must divide the frame, be at least the
	// format's macropixel size and a multiple of it.
	TileW, TileH int
	// Tile each field separately; TileH then spans both fields and must
	// be a multiple of twice the vertical macropixel size.
	Interlaced bool
}

// tileMinimum is the smallest legal tile of f: one macropixel, twice as
// tall when interlaced.
func tileMinimum(f Format, interlaced bool) (w, h int) {
	g := f.Geometry()
	w, h = g.SubW, g.SubH
	if interlaced {
		h *= 2
	}
	return w, h
}

// DefaultMosaicOptions picks the largest tiles of at most 16x16 that
// divide the clip, square when both axes allow it.
func DefaultMosaicOptions(info VideoInfo, interlaced bool) MosaicOptions {
	if !info.Format.Valid() {
		return MosaicOptions{TileW: defaultTileSize, TileH: defaultTileSize, Interlaced: interlaced}
	}
	minW, minH := tileMinimum(info.Format, interlaced)
	tileW := largestTile(info.Width, minW)
	tileH := largestTile(info.Height, minH)
	if tileW != tileH && info.Width%tileH == 0 && tileH%minW == 0 {
		tileW = tileH
	}
	if tileH != tileW && info.Height%tileW == 0 && tileW%minH == 0 {
		tileH = tileW
	}
	return MosaicOptions{TileW: tileW, TileH: tileH, Interlaced: interlaced}
}

// largestTile returns the largest multiple of step, at most 16, that
// divides dim, or step when none does.
func largestTile(dim, step int) int {
	t := roundDown(defaultTileSize, step)
	for t > step && dim%t != 0 {
		t -= step
	}
	return max(t, step)
}

func roundDown(v, step int) int {
	return v / step * step
}

// Mosaic replaces every tile of a clip with the tile's center sample.
type Mosaic struct {
	child        Clip
	info         VideoInfo
	geom         Geometry
	interlaced   bool
	tileW, tileH int // tileH per field
}

// NewMosaic validates the tile size against child.
func NewMosaic(child Clip, opt MosaicOptions) (*Mosaic, error) {
	info := child.Info()
	if !info.Format.Valid() {
		return nil, fmt.Errorf("clutmap: %v: %w", info.Format, ErrUnsupportedFormat)
	}
	g := info.Format.Geometry()
	if err := g.checkDimensions("clip", info.Format, info.Width, info.Height, opt.Interlaced); err != nil {
		return nil, err
	}
	if err := checkTile("tilew", opt.TileW, info.Width, g.SubW, info.Format, false); err != nil {
		return nil, err
	}
	_, minH := tileMinimum(info.Format, opt.Interlaced)
	if err := checkTile("tileh", opt.TileH, info.Height, minH, info.Format, opt.Interlaced); err != nil {
		return nil, err
	}

	m := &Mosaic{
		child:      child,
		info:       info,
		geom:       g,
		interlaced: opt.Interlaced,
		tileW:      opt.TileW,
		tileH:      opt.TileH,
	}
	if opt.Interlaced {
		m.tileH /= 2
	}
	logrus.WithFields(logrus.Fields{
		"function":   "NewMosaic",
		"format":     info.Format.String(),
		"tile_w":     opt.TileW,
		"tile_h":     opt.TileH,
		"interlaced": opt.Interlaced,
	}).Info("Mosaic configured")
	return m, nil
}

func checkTile(name string, tile, dim, minimum int, f Format, interlaced bool) error {
	kind := f.String()
	if interlaced {
		kind = "interlaced " + kind
	}
	switch {
	case tile < minimum:
		return fmt.Errorf("clutmap: %s must be at least %d for %s input: %w", name, minimum, kind, ErrInvalidTileSize)
	case tile > dim:
		return fmt.Errorf("clutmap: for this clip, %s must not exceed %d: %w", name, dim, ErrInvalidTileSize)
	case tile%minimum != 0:
		return fmt.Errorf("clutmap: for this clip, %s must be a multiple of %d: %w", name, minimum, ErrInvalidTileSize)
	case dim%tile != 0:
		return fmt.Errorf("clutmap: for this clip, %s must be a factor of %d: %w", name, dim, ErrInvalidTileSize)
	}
	return nil
}

func (m *Mosaic) Info() VideoInfo { return m.info }

// TileSize returns the configured tile, its height spanning both fields.
func (m *Mosaic) TileSize() (w, h int) {
	if m.interlaced {
		return m.tileW, m.tileH * 2
	}
	return m.tileW, m.tileH
}

// Frame tiles frame n of the child clip into a new frame.
func (m *Mosaic) Frame(n int) (*Frame, error) {
	if err := checkFrameIndex(m.info, n); err != nil {
		return nil, err
	}
	src, err := m.child.Frame(n)
	if err != nil {
		return nil, err
	}
	if src.Format != m.info.Format || src.Width != m.info.Width || src.Height != m.info.Height {
		return nil, fmt.Errorf("clutmap: mosaic frame %d is %s %dx%d, clip is %s %dx%d: %w",
			n, src.Format, src.Width, src.Height, m.info.Format, m.info.Width, m.info.Height, ErrFormatMismatch)
	}
	if err := src.validate(); err != nil {
		return nil, err
	}
	dst, err := NewFrame(m.info.Format, m.info.Width, m.info.Height)
	if err != nil {
		return nil, err
	}
	if m.interlaced {
		for parity := range 2 {
			m.tile(src.Field(parity), dst.Field(parity))
		}
	} else {
		m.tile(src, dst)
	}
	return dst, nil
}

func (m *Mosaic) tile(src, dst *Frame) {
	tw, th := m.tileW, m.tileH
	sp, dp := src.Plane(PlaneY), dst.Plane(PlaneY)
	bpp := sp.SampleSize
	packed422 := !m.geom.Planar && m.geom.Family == FamilyYUV
	pixel := make([]byte, 4)

	for ty := range src.Height / th {
		for tx := range src.Width / tw {
			cx, cy := tx*tw+tw/2, ty*th+th/2
			row := sp.Row(cy)
			if packed422 {
				// Macropixel under the center; both luma slots get the center luma.
				first := cx &^ 1
				mp := row[first*bpp : (first+2)*bpp]
				luma := mp[(cx&1)*2]
				pixel = append(pixel[:0], luma, mp[1], luma, mp[3])
			} else {
				pixel = append(pixel[:0], row[cx*bpp:(cx+1)*bpp]...)
			}
			fillTile(dp, tx*tw*bpp, ty*th, tw*bpp, th, pixel)
		}
	}

	if !m.geom.Planar || !m.geom.Chroma {
		return
	}
	ctw, cth := tw/m.geom.SubW, th/m.geom.SubH
	for _, i := range []int{PlaneU, PlaneV} {
		sc, dc := src.Plane(i), dst.Plane(i)
		for ty := range sc.Height / cth {
			for tx := range sc.Width / ctw {
				v := sc.At(tx*ctw+ctw/2, ty*cth+cth/2)
				fillTile(dc, tx*ctw, ty*cth, ctw, cth, []byte{v})
			}
		}
	}
}

// fillTile repeats pixel across a region of p given in bytes horizontally
// and rows vertically. A zero-sized region writes nothing.
func fillTile(p *Plane, x0, y0, width, height int, pixel []byte) {
	for y := y0; y < y0+height; y++ {
		row := p.Row(y)[x0 : x0+width]
		for off := 0; off+len(pixel) <= len(row); off += len(pixel) {
			copy(row[off:], pixel)
		}
	}
}
