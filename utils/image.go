package utils

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/setanarut/clutmap"
	"golang.org/x/image/bmp"
)

// ReadImage decodes a PNG or BMP file.
func ReadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}

// SaveImage encodes img as BMP when filename ends in .bmp, PNG otherwise.
func SaveImage(img image.Image, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if strings.EqualFold(filepath.Ext(filename), ".bmp") {
		err = bmp.Encode(f, img)
	} else {
		err = png.Encode(f, img)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// FrameFromImage converts img into a frame of the given format. YUV
// formats use full-range BT.601 (image/color's YCbCr); chroma of a
// macropixel comes from its top-left pixel. The image size must fit
// whole macropixels of format.
func FrameFromImage(img image.Image, format clutmap.Format) (*clutmap.Frame, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	f, err := clutmap.NewFrame(format, w, h)
	if err != nil {
		return nil, err
	}
	g := format.Geometry()
	at := func(x, y int) color.NRGBA {
		return color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
	}
	ycc := func(x, y int) (yy, cb, cr uint8) {
		c := at(x, y)
		return color.RGBToYCbCr(c.R, c.G, c.B)
	}

	switch {
	case g.Family == clutmap.FamilyRGB:
		p := f.Plane(clutmap.PlaneY)
		for y := range h {
			row := p.Row(y)
			for x := range w {
				c := at(x, y)
				off := x * g.BytesPerPixel
				row[off], row[off+1], row[off+2] = c.B, c.G, c.R
				if g.BytesPerPixel == 4 {
					row[off+3] = c.A
				}
			}
		}
	case !g.Planar:
		p := f.Plane(clutmap.PlaneY)
		for y := range h {
			row := p.Row(y)
			for x := 0; x < w; x += 2 {
				y1, u, v := ycc(x, y)
				y2, _, _ := ycc(x+1, y)
				off := x * 2
				row[off], row[off+1], row[off+2], row[off+3] = y1, u, y2, v
			}
		}
	default:
		luma := f.Plane(clutmap.PlaneY)
		for y := range h {
			row := luma.Row(y)
			for x := range w {
				row[x], _, _ = ycc(x, y)
			}
		}
		if g.Chroma {
			pu, pv := f.Plane(clutmap.PlaneU), f.Plane(clutmap.PlaneV)
			for cy := range pu.Height {
				for cx := range pu.Width {
					_, u, v := ycc(cx*g.SubW, cy*g.SubH)
					pu.Set(cx, cy, u)
					pv.Set(cx, cy, v)
				}
			}
		}
	}
	return f, nil
}

// ImageFromFrame converts f back into an image: NRGBA for RGB formats,
// Gray for Y8 and RGBA for the other YUV formats.
func ImageFromFrame(f *clutmap.Frame) image.Image {
	g := f.Format.Geometry()
	rect := image.Rect(0, 0, f.Width, f.Height)
	p := f.Plane(clutmap.PlaneY)

	switch {
	case g.Family == clutmap.FamilyRGB:
		img := image.NewNRGBA(rect)
		for y := range f.Height {
			row := p.Row(y)
			for x := range f.Width {
				off := x * g.BytesPerPixel
				a := uint8(255)
				if g.BytesPerPixel == 4 {
					a = row[off+3]
				}
				img.SetNRGBA(x, y, color.NRGBA{R: row[off+2], G: row[off+1], B: row[off], A: a})
			}
		}
		return img
	case g.Planar && !g.Chroma:
		img := image.NewGray(rect)
		for y := range f.Height {
			copy(img.Pix[y*img.Stride:], p.Row(y))
		}
		return img
	}

	img := image.NewRGBA(rect)
	for y := range f.Height {
		row := p.Row(y)
		for x := range f.Width {
			var yy, u, v uint8
			if g.Planar {
				yy = row[x]
				u = f.Plane(clutmap.PlaneU).At(x/g.SubW, y/g.SubH)
				v = f.Plane(clutmap.PlaneV).At(x/g.SubW, y/g.SubH)
			} else {
				off := (x &^ 1) * 2
				yy = row[off+(x&1)*2]
				u, v = row[off+1], row[off+3]
			}
			r, gg, bb := color.YCbCrToRGB(yy, u, v)
			img.SetRGBA(x, y, color.RGBA{R: r, G: gg, B: bb, A: 255})
		}
	}
	return img
}
