package clutmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMosaicOptions(t *testing.T) {
	tests := []struct {
		name         string
		info         VideoInfo
		interlaced   bool
		wantW, wantH int
	}{
		{"fits 16", VideoInfo{Format: FormatBGRA32, Width: 64, Height: 48}, false, 16, 16},
		{"squared down", VideoInfo{Format: FormatBGRA32, Width: 30, Height: 20}, false, 10, 10},
		{"interlaced yv12", VideoInfo{Format: FormatYV12, Width: 32, Height: 32}, true, 16, 16},
		{"small yuy2", VideoInfo{Format: FormatYUY2, Width: 6, Height: 3}, false, 6, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opt := DefaultMosaicOptions(tt.info, tt.interlaced)
			assert.Equal(t, tt.wantW, opt.TileW)
			assert.Equal(t, tt.wantH, opt.TileH)
			assert.Equal(t, tt.interlaced, opt.Interlaced)

			clip := NewStillClip(mustFrame(t, tt.info.Format, tt.info.Width, tt.info.Height), 1)
			_, err := NewMosaic(clip, opt)
			assert.NoError(t, err)
		})
	}
}

func TestNewMosaicValidation(t *testing.T) {
	bgra := NewStillClip(mustFrame(t, FormatBGRA32, 8, 8), 1)
	yuy2 := NewStillClip(mustFrame(t, FormatYUY2, 8, 8), 1)
	yv12 := NewStillClip(mustFrame(t, FormatYV12, 8, 8), 1)

	tests := []struct {
		name string
		clip Clip
		opt  MosaicOptions
		msg  string
	}{
		{"zero", bgra, MosaicOptions{TileW: 0, TileH: 2}, "tilew must be at least 1"},
		{"too wide", bgra, MosaicOptions{TileW: 16, TileH: 2}, "tilew must not exceed 8"},
		{"not a factor", bgra, MosaicOptions{TileW: 3, TileH: 2}, "tilew must be a factor of 8"},
		{"yuy2 odd", yuy2, MosaicOptions{TileW: 3, TileH: 2}, "tilew must be a multiple of 2"},
		{"yuy2 narrow", yuy2, MosaicOptions{TileW: 1, TileH: 2}, "tilew must be at least 2"},
		{"yv12 interlaced", yv12, MosaicOptions{TileW: 2, TileH: 2, Interlaced: true}, "tileh must be at least 4 for interlaced YV12"},
		{"yv12 height", yv12, MosaicOptions{TileW: 2, TileH: 3}, "tileh must be a multiple of 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMosaic(tt.clip, tt.opt)
			require.ErrorIs(t, err, ErrInvalidTileSize)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestMosaicBGRA(t *testing.T) {
	src := mustFrame(t, FormatBGRA32, 4, 4)
	for y := range 4 {
		for x := range 4 {
			setBGRA(src, x, y, Color{byte(10*x + y), 0, 0}, byte(x))
		}
	}
	m, err := NewMosaic(NewStillClip(src, 1), MosaicOptions{TileW: 2, TileH: 2})
	require.NoError(t, err)
	w, h := m.TileSize()
	assert.Equal(t, 2, w)
	assert.Equal(t, 2, h)

	out, err := m.Frame(0)
	require.NoError(t, err)
	for y := range 4 {
		for x := range 4 {
			cx, cy := x/2*2+1, y/2*2+1
			c, a := getBGRA(out, x, y)
			assert.Equal(t, Color{byte(10*cx + cy), 0, 0}, c, "pixel %d,%d", x, y)
			assert.Equal(t, byte(cx), a)
		}
	}

	_, err = m.Frame(1)
	assert.ErrorIs(t, err, ErrFrameOutOfRange)
}

func TestMosaicYUY2(t *testing.T) {
	src := mustFrame(t, FormatYUY2, 4, 1)
	copy(src.Plane(PlaneY).Row(0), []byte{1, 2, 3, 4, 5, 6, 7, 8})
	m, err := NewMosaic(NewStillClip(src, 1), MosaicOptions{TileW: 4, TileH: 1})
	require.NoError(t, err)
	out, err := m.Frame(0)
	require.NoError(t, err)
	// Centre pixel 2 is the first luma of the second macropixel.
	assert.Equal(t, []byte{5, 6, 5, 8, 5, 6, 5, 8}, out.Plane(PlaneY).Row(0))
}

func TestMosaicYV12(t *testing.T) {
	src := mustFrame(t, FormatYV12, 4, 4)
	for y := range 4 {
		for x := range 4 {
			src.Plane(PlaneY).Set(x, y, byte(10*y+x))
		}
	}
	for y := range 2 {
		for x := range 2 {
			src.Plane(PlaneU).Set(x, y, byte(100+10*y+x))
			src.Plane(PlaneV).Set(x, y, byte(200+10*y+x))
		}
	}
	m, err := NewMosaic(NewStillClip(src, 1), MosaicOptions{TileW: 4, TileH: 4})
	require.NoError(t, err)
	out, err := m.Frame(0)
	require.NoError(t, err)

	for y := range 4 {
		assert.Equal(t, []byte{22, 22, 22, 22}, out.Plane(PlaneY).Row(y))
	}
	for y := range 2 {
		assert.Equal(t, []byte{111, 111}, out.Plane(PlaneU).Row(y))
		assert.Equal(t, []byte{211, 211}, out.Plane(PlaneV).Row(y))
	}
}

func TestMosaicInterlaced(t *testing.T) {
	src := mustFrame(t, FormatY8, 1, 4)
	for y := range 4 {
		src.Plane(PlaneY).Set(0, y, byte(y))
	}
	m, err := NewMosaic(NewStillClip(src, 1), MosaicOptions{TileW: 1, TileH: 4, Interlaced: true})
	require.NoError(t, err)
	_, h := m.TileSize()
	assert.Equal(t, 4, h)

	out, err := m.Frame(0)
	require.NoError(t, err)
	// Each field is tiled on its own: rows 0,2 take row 2 and rows 1,3 take row 3.
	got := make([]byte, 4)
	for y := range 4 {
		got[y] = out.Plane(PlaneY).At(0, y)
	}
	assert.Equal(t, []byte{2, 3, 2, 3}, got)
}
