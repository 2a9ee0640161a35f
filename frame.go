package clutmap

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// Plane indexes.
const (
	PlaneY = iota // luma, or the whole buffer of a packed frame
	PlaneU
	PlaneV
)

// frameAlign is the pitch alignment NewFrame uses, in bytes.
const frameAlign = 16

// Plane is one 2D sample buffer. Rows start Stride bytes apart and may
// be padded; only Width*SampleSize bytes of a row are visible.
type Plane struct {
	Pix        []byte
	Stride     int
	Width      int // samples per row
	Height     int // rows
	SampleSize int // bytes per sample
}

// RowSize is the number of visible bytes in a row.
func (p *Plane) RowSize() int {
	return p.Width * p.SampleSize
}

// Row returns the visible bytes of row y.
func (p *Plane) Row(y int) []byte {
	if y < 0 || y >= p.Height {
		panic(fmt.Sprintf("clutmap: row %d out of plane height %d", y, p.Height))
	}
	off := y * p.Stride
	return p.Pix[off : off+p.RowSize() : off+p.RowSize()]
}

// Offset returns the byte offset of sample (x, y) in Pix.
func (p *Plane) Offset(x, y int) int {
	if x < 0 || x >= p.Width || y < 0 || y >= p.Height {
		panic(fmt.Sprintf("clutmap: sample (%d,%d) out of plane %dx%d", x, y, p.Width, p.Height))
	}
	return y*p.Stride + x*p.SampleSize
}

// At returns the first byte of sample (x, y).
func (p *Plane) At(x, y int) byte {
	return p.Pix[p.Offset(x, y)]
}

// Set writes the first byte of sample (x, y).
func (p *Plane) Set(x, y int, v byte) {
	p.Pix[p.Offset(x, y)] = v
}

// field returns the rows of one parity as a plane of half height.
func (p Plane) field(parity int) Plane {
	return Plane{
		Pix:        p.Pix[parity*p.Stride:],
		Stride:     p.Stride * 2,
		Width:      p.Width,
		Height:     p.Height / 2,
		SampleSize: p.SampleSize,
	}
}

// Frame is a picture in one Format. Packed formats and Y8 carry one
// plane; planar formats with chroma carry Y, U and V.
type Frame struct {
	Format Format
	Width  int
	Height int
	Planes []Plane
}

// NewFrame allocates a zeroed frame whose pitches are aligned to 16 bytes.
func NewFrame(format Format, width, height int) (*Frame, error) {
	return NewFrameAligned(format, width, height, frameAlign)
}

// NewFrameAligned allocates a zeroed frame whose pitches are rounded up
// to a multiple of align bytes.
func NewFrameAligned(format Format, width, height, align int) (*Frame, error) {
	if !format.Valid() {
		return nil, fmt.Errorf("clutmap: %v: %w", format, ErrUnsupportedFormat)
	}
	g := format.Geometry()
	if err := g.checkDimensions("frame", format, width, height, false); err != nil {
		return nil, err
	}
	align = max(align, 1)
	f := &Frame{Format: format, Width: width, Height: height}
	f.Planes = append(f.Planes, newPlane(width, height, g.BytesPerPixel, align))
	if g.Planar && g.Chroma {
		cw, ch := width/g.SubW, height/g.SubH
		f.Planes = append(f.Planes, newPlane(cw, ch, 1, align), newPlane(cw, ch, 1, align))
	}
	return f, nil
}

func newPlane(width, height, sampleSize, align int) Plane {
	stride := (width*sampleSize + align - 1) / align * align
	return Plane{
		Pix:        make([]byte, stride*height),
		Stride:     stride,
		Width:      width,
		Height:     height,
		SampleSize: sampleSize,
	}
}

// validate checks the planes against what NewFrameAligned would allocate
// for f's format and size: plane count, plane geometry, and that every
// visible row lies inside Pix.
func (f *Frame) validate() error {
	if !f.Format.Valid() {
		return fmt.Errorf("clutmap: %v: %w", f.Format, ErrUnsupportedFormat)
	}
	g := f.Format.Geometry()
	if err := g.checkDimensions("frame", f.Format, f.Width, f.Height, false); err != nil {
		return err
	}
	want := 1
	if g.Planar && g.Chroma {
		want = 3
	}
	if len(f.Planes) != want {
		return fmt.Errorf("clutmap: %s frame has %d planes, want %d: %w",
			f.Format, len(f.Planes), want, ErrInvalidDimensions)
	}
	for i := range f.Planes {
		p := &f.Planes[i]
		w, h, size := f.Width, f.Height, g.BytesPerPixel
		if i > PlaneY {
			w, h, size = f.Width/g.SubW, f.Height/g.SubH, 1
		}
		switch {
		case p.Width != w || p.Height != h || p.SampleSize != size:
			return fmt.Errorf("clutmap: %s plane %d is %dx%d with %d-byte samples, want %dx%d with %d: %w",
				f.Format, i, p.Width, p.Height, p.SampleSize, w, h, size, ErrInvalidDimensions)
		case p.Stride < p.RowSize():
			return fmt.Errorf("clutmap: %s plane %d stride %d is shorter than its %d-byte rows: %w",
				f.Format, i, p.Stride, p.RowSize(), ErrInvalidDimensions)
		case len(p.Pix) < (h-1)*p.Stride+p.RowSize():
			return fmt.Errorf("clutmap: %s plane %d holds %d bytes, needs %d: %w",
				f.Format, i, len(p.Pix), (h-1)*p.Stride+p.RowSize(), ErrInvalidDimensions)
		}
	}
	return nil
}

// Plane returns plane i, or nil when the frame has no such plane.
func (f *Frame) Plane(i int) *Plane {
	if i < 0 || i >= len(f.Planes) {
		return nil
	}
	return &f.Planes[i]
}

// Field returns a view of the even (parity 0) or odd (parity 1) rows.
// Writes through the view land in f.
func (f *Frame) Field(parity int) *Frame {
	v := &Frame{Format: f.Format, Width: f.Width, Height: f.Height / 2}
	v.Planes = make([]Plane, len(f.Planes))
	for i, p := range f.Planes {
		v.Planes[i] = p.field(parity & 1)
	}
	return v
}

// Digest hashes the visible samples of every plane with BLAKE2b-256.
// Pitch padding never contributes, so equal pictures in differently
// aligned buffers have equal digests.
func (f *Frame) Digest() string {
	// New256 only fails for keys longer than 64 bytes.
	h, _ := blake2b.New256(nil)
	fmt.Fprintf(h, "%s:%dx%d:", f.Format, f.Width, f.Height)
	for i := range f.Planes {
		p := &f.Planes[i]
		for y := range p.Height {
			h.Write(p.Row(y))
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
