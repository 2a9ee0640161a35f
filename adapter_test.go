package clutmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustAdapter(t *testing.T, f Format, interlaced bool) *Adapter {
	t.Helper()
	a, err := NewAdapter(f, interlaced)
	require.NoError(t, err)
	return a
}

func TestAdapterExtractYUY2(t *testing.T) {
	f := mustFrame(t, FormatYUY2, 2, 1)
	copy(f.Plane(PlaneY).Row(0), []byte{50, 60, 70, 80})

	got, err := mustAdapter(t, FormatYUY2, false).Extract(f)
	require.NoError(t, err)
	assert.Equal(t, []Color{{50, 60, 80}, {70, 60, 80}}, got)
}

func TestAdapterExtractPlanar(t *testing.T) {
	tests := []struct {
		format Format
		w, h   int
	}{
		{FormatYV12, 4, 4},
		{FormatYV16, 4, 2},
		{FormatYV411, 8, 1},
		{FormatYV24, 3, 3},
		{FormatY8, 5, 2},
	}
	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			f := mustFrame(t, tt.format, tt.w, tt.h)
			got, err := mustAdapter(t, tt.format, false).Extract(f)
			require.NoError(t, err)
			assert.Len(t, got, tt.w*tt.h)
		})
	}
}

func TestAdapterExtractYV12SharesChroma(t *testing.T) {
	f := mustFrame(t, FormatYV12, 2, 2)
	luma := f.Plane(PlaneY)
	luma.Set(0, 0, 1)
	luma.Set(1, 0, 2)
	luma.Set(0, 1, 3)
	luma.Set(1, 1, 4)
	f.Plane(PlaneU).Set(0, 0, 100)
	f.Plane(PlaneV).Set(0, 0, 200)

	got, err := mustAdapter(t, FormatYV12, false).Extract(f)
	require.NoError(t, err)
	assert.ElementsMatch(t, []Color{{1, 100, 200}, {2, 100, 200}, {3, 100, 200}, {4, 100, 200}}, got)
}

func TestAdapterExtractInterlacedOrder(t *testing.T) {
	f := mustFrame(t, FormatBGRA32, 1, 4)
	for y := range 4 {
		setBGRA(f, 0, y, Color{byte(y), 0, 0}, 255)
	}
	got, err := mustAdapter(t, FormatBGRA32, true).Extract(f)
	require.NoError(t, err)
	assert.Equal(t, []Color{{0, 0, 0}, {2, 0, 0}, {1, 0, 0}, {3, 0, 0}}, got)
}

func TestAdapterMapBGRAKeepsAlpha(t *testing.T) {
	tbl := mustTable(t, FamilyRGB, MetricSquared, Color{255, 255, 255})
	a := mustAdapter(t, FormatBGRA32, false)

	src := mustFrame(t, FormatBGRA32, 2, 1)
	setBGRA(src, 0, 0, Color{30, 20, 10}, 77)
	setBGRA(src, 1, 0, Color{1, 2, 3}, 0)
	dst := mustFrame(t, FormatBGRA32, 2, 1)
	require.NoError(t, a.Map(src, dst, tbl))

	c, alpha := getBGRA(dst, 0, 0)
	assert.Equal(t, Color{255, 255, 255}, c)
	assert.Equal(t, byte(77), alpha)
	_, alpha = getBGRA(dst, 1, 0)
	assert.Equal(t, byte(0), alpha)
}

func TestAdapterMapBGR24(t *testing.T) {
	tbl := mustTable(t, FamilyRGB, MetricSquared, Color{0, 0, 0}, Color{255, 0, 0})
	src := mustFrame(t, FormatBGR24, 2, 1)
	copy(src.Plane(PlaneY).Row(0), []byte{10, 10, 200, 5, 5, 5}) // (200,10,10), (5,5,5)
	dst := mustFrame(t, FormatBGR24, 2, 1)
	require.NoError(t, mustAdapter(t, FormatBGR24, false).Map(src, dst, tbl))
	assert.Equal(t, []byte{0, 0, 255, 0, 0, 0}, dst.Plane(PlaneY).Row(0))
}

func TestAdapterMapYUY2(t *testing.T) {
	tbl := mustTable(t, FamilyYUV, MetricSquared, Color{50, 60, 80}, Color{200, 128, 128})
	src := mustFrame(t, FormatYUY2, 4, 1)
	copy(src.Plane(PlaneY).Row(0), []byte{52, 61, 190, 79, 210, 130, 20, 120})
	dst := mustFrame(t, FormatYUY2, 4, 1)
	require.NoError(t, mustAdapter(t, FormatYUY2, false).Map(src, dst, tbl))

	// Keyed on the first luma; the mapped luma fills both slots.
	assert.Equal(t, []byte{50, 60, 50, 80, 200, 128, 200, 128}, dst.Plane(PlaneY).Row(0))
}

func TestAdapterMapYV12(t *testing.T) {
	tbl := mustTable(t, FamilyYUV, MetricSquared, Color{10, 20, 30}, Color{200, 100, 150})
	src := mustFrame(t, FormatYV12, 4, 2)
	luma := src.Plane(PlaneY)
	for y := range 2 {
		for x := range 4 {
			luma.Set(x, y, 255)
		}
	}
	luma.Set(0, 0, 12)
	luma.Set(2, 0, 190)
	src.Plane(PlaneU).Set(0, 0, 22)
	src.Plane(PlaneV).Set(0, 0, 28)
	src.Plane(PlaneU).Set(1, 0, 110)
	src.Plane(PlaneV).Set(1, 0, 140)

	dst := mustFrame(t, FormatYV12, 4, 2)
	require.NoError(t, mustAdapter(t, FormatYV12, false).Map(src, dst, tbl))

	out := dst.Plane(PlaneY)
	for y := range 2 {
		assert.Equal(t, []byte{10, 10, 200, 200}, out.Row(y))
	}
	assert.Equal(t, []byte{20, 100}, dst.Plane(PlaneU).Row(0))
	assert.Equal(t, []byte{30, 150}, dst.Plane(PlaneV).Row(0))
}

func TestAdapterMapY8(t *testing.T) {
	tbl := mustTable(t, FamilyYUV, MetricSquared, Color{0, 0, 0}, Color{255, 0, 0})
	src := mustFrame(t, FormatY8, 2, 1)
	copy(src.Plane(PlaneY).Row(0), []byte{100, 200})
	dst := mustFrame(t, FormatY8, 2, 1)
	require.NoError(t, mustAdapter(t, FormatY8, false).Map(src, dst, tbl))
	assert.Equal(t, []byte{0, 255}, dst.Plane(PlaneY).Row(0))
	assert.Len(t, dst.Planes, 1)
}

func TestAdapterMapIgnoresPitch(t *testing.T) {
	tbl := mustTable(t, FamilyYUV, MetricSquared, Color{16, 128, 128}, Color{235, 128, 128}, Color{81, 90, 240})
	a := mustAdapter(t, FormatYV16, false)

	var digests []string
	for _, align := range []int{1, 64} {
		src, err := NewFrameAligned(FormatYV16, 6, 2, align)
		require.NoError(t, err)
		for y := range 2 {
			for x := range 6 {
				src.Plane(PlaneY).Set(x, y, byte(40*x+y))
			}
			for x := range 3 {
				src.Plane(PlaneU).Set(x, y, byte(60*x))
				src.Plane(PlaneV).Set(x, y, byte(250-60*x))
			}
		}
		dst, err := NewFrameAligned(FormatYV16, 6, 2, align)
		require.NoError(t, err)
		require.NoError(t, a.Map(src, dst, tbl))
		digests = append(digests, dst.Digest())
	}
	assert.Equal(t, digests[0], digests[1])
}

func TestAdapterMapErrors(t *testing.T) {
	rgb := mustTable(t, FamilyRGB, MetricSquared, Color{1, 2, 3})
	a := mustAdapter(t, FormatYUY2, false)
	src := mustFrame(t, FormatYUY2, 2, 2)

	assert.ErrorIs(t, a.Map(src, mustFrame(t, FormatYUY2, 2, 2), rgb), ErrFormatMismatch)
	assert.ErrorIs(t, a.Map(src, mustFrame(t, FormatBGRA32, 2, 2), rgb), ErrFormatMismatch)

	yuv := mustTable(t, FamilyYUV, MetricSquared, Color{1, 2, 3})
	assert.ErrorIs(t, a.Map(src, mustFrame(t, FormatYUY2, 4, 2), yuv), ErrInvalidDimensions)

	_, err := NewAdapter(Format(99), false)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	assert.ErrorIs(t, mustAdapter(t, FormatYV12, true).CheckDimensions(4, 2), ErrInvalidDimensions)
}

func TestAdapterMapYV411(t *testing.T) {
	tbl := mustTable(t, FamilyYUV, MetricSquared, Color{40, 90, 160}, Color{220, 128, 128})
	src := mustFrame(t, FormatYV411, 8, 1)
	copy(src.Plane(PlaneY).Row(0), []byte{42, 250, 3, 99, 215, 0, 17, 255})
	copy(src.Plane(PlaneU).Row(0), []byte{92, 126})
	copy(src.Plane(PlaneV).Row(0), []byte{158, 131})

	// Poison the destination so unwritten samples show up.
	dst := mustFrame(t, FormatYV411, 8, 1)
	for i := range dst.Planes {
		for j := range dst.Planes[i].Pix {
			dst.Planes[i].Pix[j] = 0xaa
		}
	}
	require.NoError(t, mustAdapter(t, FormatYV411, false).Map(src, dst, tbl))

	// Blocks are keyed on their first luma and all four samples take the result.
	assert.Equal(t, []byte{40, 40, 40, 40, 220, 220, 220, 220}, dst.Plane(PlaneY).Row(0))
	assert.Equal(t, []byte{90, 128}, dst.Plane(PlaneU).Row(0))
	assert.Equal(t, []byte{160, 128}, dst.Plane(PlaneV).Row(0))
}

func TestAdapterRejectsMalformedFrames(t *testing.T) {
	yuv := mustTable(t, FamilyYUV, MetricSquared, Color{16, 128, 128})
	good := mustFrame(t, FormatYV12, 4, 4)
	lumaOnly := &Frame{Format: FormatYV12, Width: 4, Height: 4, Planes: good.Planes[:1]}
	a := mustAdapter(t, FormatYV12, false)

	_, err := a.Extract(lumaOnly)
	assert.ErrorIs(t, err, ErrInvalidDimensions)
	assert.ErrorIs(t, a.Map(lumaOnly, mustFrame(t, FormatYV12, 4, 4), yuv), ErrInvalidDimensions)
	assert.ErrorIs(t, a.Map(good, lumaOnly, yuv), ErrInvalidDimensions)

	// A packed plane narrower than the frame is refused, not truncated.
	rgb := mustTable(t, FamilyRGB, MetricSquared, Color{255, 255, 255})
	narrow := mustFrame(t, FormatBGRA32, 4, 1)
	narrow.Planes[PlaneY].Width = 2
	bgra := mustAdapter(t, FormatBGRA32, false)
	assert.ErrorIs(t, bgra.Map(narrow, mustFrame(t, FormatBGRA32, 4, 1), rgb), ErrInvalidDimensions)
	_, err = bgra.Extract(narrow)
	assert.ErrorIs(t, err, ErrInvalidDimensions)
}
