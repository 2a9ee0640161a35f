package utils

import (
	"fmt"
	"image"
	"image/color"
	"slices"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/setanarut/clutmap"
)

// luminance is the relative luminance of c: linear-light Rec. 709 for
// RGB colors, the luma component itself for YUV colors.
func luminance(c clutmap.Color, family clutmap.Family) float64 {
	if family == clutmap.FamilyYUV {
		return float64(c[0]) / 255.0
	}
	r, g, b := colorful.Color{
		R: float64(c[0]) / 255.0,
		G: float64(c[1]) / 255.0,
		B: float64(c[2]) / 255.0,
	}.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// SortByBrightness orders colors from darkest to brightest.
func SortByBrightness(colors []clutmap.Color, family clutmap.Family) {
	slices.SortStableFunc(colors, func(a, b clutmap.Color) int {
		la, lb := luminance(a, family), luminance(b, family)
		if la < lb {
			return -1
		}
		if la > lb {
			return 1
		}
		return 0
	})
}

// toRGBA renders a palette color for display.
func toRGBA(c clutmap.Color, family clutmap.Family) color.RGBA {
	if family == clutmap.FamilyYUV {
		r, g, b := color.YCbCrToRGB(c[0], c[1], c[2])
		return color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return color.RGBA{R: c[0], G: c[1], B: c[2], A: 255}
}

// PaletteImage draws the reference set as a strip of tileSize swatches,
// darkest first.
func PaletteImage(refs clutmap.ReferenceSet, family clutmap.Family, tileSize int) (*image.RGBA, error) {
	if refs.Len() == 0 {
		return nil, fmt.Errorf("empty palette: %w", clutmap.ErrEmptyPalette)
	}
	if tileSize <= 0 {
		tileSize = 64
	}
	colors := refs.Colors()
	SortByBrightness(colors, family)

	w := tileSize * len(colors)
	h := tileSize
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i, c := range colors {
		rgba := toRGBA(c, family)
		x0 := i * tileSize
		x1 := x0 + tileSize
		for y := range h {
			for x := x0; x < x1; x++ {
				img.SetRGBA(x, y, rgba)
			}
		}
	}
	return img, nil
}

// SavePalette writes PaletteImage to filename.
func SavePalette(refs clutmap.ReferenceSet, family clutmap.Family, tileSize int, filename string) error {
	img, err := PaletteImage(refs, family, tileSize)
	if err != nil {
		return err
	}
	return SaveImage(img, filename)
}
