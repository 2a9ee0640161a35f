package clutmap

import "fmt"

// Adapter converts between frame layouts and the canonical Color key.
// Everything format specific is resolved once in NewAdapter; the walks
// below only see geometry and the selected codec.
type Adapter struct {
	format     Format
	geom       Geometry
	interlaced bool
	codec      packedCodec
}

// packedCodec reads and writes one macropixel of a packed buffer.
type packedCodec struct {
	// bytes per macropixel
	size int
	// key of the macropixel: its first luma sample with the shared chroma
	key func(px []byte) Color
	// every color the macropixel shows
	samples func(px []byte, out []Color) []Color
	// write c over the macropixel; src is the matching source macropixel
	encode func(dst, src []byte, c Color)
}

var (
	bgraCodec = packedCodec{
		size:    4,
		key:     bgrKey,
		samples: bgrSamples,
		encode: func(dst, src []byte, c Color) {
			dst[0], dst[1], dst[2] = c[2], c[1], c[0]
			dst[3] = src[3]
		},
	}
	bgrCodec = packedCodec{
		size:    3,
		key:     bgrKey,
		samples: bgrSamples,
		encode: func(dst, _ []byte, c Color) {
			dst[0], dst[1], dst[2] = c[2], c[1], c[0]
		},
	}
	yuy2Codec = packedCodec{
		size: 4,
		key: func(px []byte) Color {
			return Color{px[0], px[1], px[3]}
		},
		samples: func(px []byte, out []Color) []Color {
			return append(out, Color{px[0], px[1], px[3]}, Color{px[2], px[1], px[3]})
		},
		// One luma for both pixels so the pair never shows an off-palette color.
		encode: func(dst, _ []byte, c Color) {
			dst[0], dst[1], dst[2], dst[3] = c[0], c[1], c[0], c[2]
		},
	}
)

func bgrKey(px []byte) Color {
	return Color{px[2], px[1], px[0]}
}

func bgrSamples(px []byte, out []Color) []Color {
	return append(out, Color{px[2], px[1], px[0]})
}

// NewAdapter returns the adapter of format. With interlaced, frames are
// processed as two independent fields.
func NewAdapter(format Format, interlaced bool) (*Adapter, error) {
	if !format.Valid() {
		return nil, fmt.Errorf("clutmap: %v: %w", format, ErrUnsupportedFormat)
	}
	a := &Adapter{format: format, geom: format.Geometry(), interlaced: interlaced}
	switch format {
	case FormatBGRA32:
		a.codec = bgraCodec
	case FormatBGR24:
		a.codec = bgrCodec
	case FormatYUY2:
		a.codec = yuy2Codec
	}
	return a, nil
}

func (a *Adapter) Format() Format { return a.format }

// Family is the component order of the colors this adapter produces.
func (a *Adapter) Family() Family { return a.geom.Family }

// CheckDimensions reports whether width x height frames can be walked
// in whole macropixels (per field when interlaced).
func (a *Adapter) CheckDimensions(width, height int) error {
	return a.checkNamed("frame", width, height)
}

func (a *Adapter) checkNamed(what string, width, height int) error {
	return a.geom.checkDimensions(what, a.format, width, height, a.interlaced)
}

func (a *Adapter) checkFrame(f *Frame) error {
	if f.Format != a.format {
		return fmt.Errorf("clutmap: frame is %s, adapter expects %s: %w", f.Format, a.format, ErrFormatMismatch)
	}
	if err := a.CheckDimensions(f.Width, f.Height); err != nil {
		return err
	}
	return f.validate()
}

func (a *Adapter) fields(f *Frame) []*Frame {
	if a.interlaced {
		return []*Frame{f.Field(0), f.Field(1)}
	}
	return []*Frame{f}
}

// Extract returns every color shown by f, duplicates included, in
// raster order of macropixels. A packed 4:2:2 macropixel yields two
// colors; a planar chroma sample yields one color per covered luma
// sample.
func (a *Adapter) Extract(f *Frame) ([]Color, error) {
	if err := a.checkFrame(f); err != nil {
		return nil, err
	}
	out := make([]Color, 0, f.Width*f.Height)
	for _, fld := range a.fields(f) {
		if a.geom.Planar {
			out = a.extractPlanar(fld, out)
		} else {
			out = a.extractPacked(fld, out)
		}
	}
	return out, nil
}

// Map writes the table's color for every macropixel of src into dst.
// src and dst must be distinct frames of the adapter's format and the
// same size. Alpha is copied, never mapped.
func (a *Adapter) Map(src, dst *Frame, t *Table) error {
	if err := a.checkFrame(src); err != nil {
		return err
	}
	if err := a.checkFrame(dst); err != nil {
		return err
	}
	if src.Width != dst.Width || src.Height != dst.Height {
		return fmt.Errorf("clutmap: destination %dx%d does not match source %dx%d: %w",
			dst.Width, dst.Height, src.Width, src.Height, ErrInvalidDimensions)
	}
	if t.Family() != a.geom.Family {
		return fmt.Errorf("clutmap: table holds %s colors, %s frames need %s: %w",
			t.Family(), a.format, a.geom.Family, ErrFormatMismatch)
	}
	sf, df := a.fields(src), a.fields(dst)
	for i := range sf {
		if a.geom.Planar {
			a.mapPlanar(sf[i], df[i], t)
		} else {
			a.mapPacked(sf[i], df[i], t)
		}
	}
	return nil
}

// ============ PACKED ============

func (a *Adapter) extractPacked(f *Frame, out []Color) []Color {
	p := f.Plane(PlaneY)
	n := a.codec.size
	for y := range p.Height {
		row := p.Row(y)
		for off := 0; off+n <= len(row); off += n {
			out = a.codec.samples(row[off:off+n], out)
		}
	}
	return out
}

func (a *Adapter) mapPacked(src, dst *Frame, t *Table) {
	sp, dp := src.Plane(PlaneY), dst.Plane(PlaneY)
	n := a.codec.size
	for y := range sp.Height {
		srow, drow := sp.Row(y), dp.Row(y)
		for off := 0; off+n <= len(srow); off += n {
			px := srow[off : off+n]
			a.codec.encode(drow[off:off+n], px, t.LookupColor(a.codec.key(px)))
		}
	}
}

// ============ PLANAR ============

// chroma returns the shared U and V of chroma sample (cx, cy), or zero
// for luma-only frames.
func (a *Adapter) chroma(f *Frame, cx, cy int) (u, v byte) {
	if !a.geom.Chroma {
		return 0, 0
	}
	return f.Planes[PlaneU].At(cx, cy), f.Planes[PlaneV].At(cx, cy)
}

func (a *Adapter) extractPlanar(f *Frame, out []Color) []Color {
	sw, sh := a.geom.SubW, a.geom.SubH
	luma := f.Plane(PlaneY)
	rows := make([][]byte, sh)
	for cy := range f.Height / sh {
		for i := range sh {
			rows[i] = luma.Row(cy*sh + i)
		}
		for cx := range f.Width / sw {
			u, v := a.chroma(f, cx, cy)
			for i := range sh {
				for j := range sw {
					out = append(out, Color{rows[i][cx*sw+j], u, v})
				}
			}
		}
	}
	return out
}

// mapPlanar keys each block on its top-left luma sample and writes the
// mapped luma to every sample of the block, the mapped chroma once.
// Per-sample luma would pair shared chroma with lumas the palette may
// not contain.
func (a *Adapter) mapPlanar(src, dst *Frame, t *Table) {
	sw, sh := a.geom.SubW, a.geom.SubH
	sl, dl := src.Plane(PlaneY), dst.Plane(PlaneY)
	drows := make([][]byte, sh)
	for cy := range src.Height / sh {
		srow := sl.Row(cy * sh)
		for i := range sh {
			drows[i] = dl.Row(cy*sh + i)
		}
		for cx := range src.Width / sw {
			u, v := a.chroma(src, cx, cy)
			c := t.LookupColor(Color{srow[cx*sw], u, v})
			if a.geom.Chroma {
				dst.Planes[PlaneU].Set(cx, cy, c[1])
				dst.Planes[PlaneV].Set(cx, cy, c[2])
			}
			for i := range sh {
				block := drows[i][cx*sw : cx*sw+sw]
				for j := range block {
					block[j] = c[0]
				}
			}
		}
	}
}
