package clutmap

import "fmt"

// Color is one 8-bit component triple. The order follows the format
// family: {R, G, B} for RGB formats and {Y, U, V} for YUV formats.
type Color [3]uint8

// KeySpace is the number of distinct 24-bit keys.
const KeySpace = 1 << 24

// Pack forms the 24-bit key c[0]<<16 | c[1]<<8 | c[2].
func (c Color) Pack() uint32 {
	return uint32(c[0])<<16 | uint32(c[1])<<8 | uint32(c[2])
}

// Unpack is the inverse of Pack. Bits above 24 are ignored.
func Unpack(key uint32) Color {
	return Color{uint8(key >> 16), uint8(key >> 8), uint8(key)}
}

func (c Color) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c[0], c[1], c[2])
}
