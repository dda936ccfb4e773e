package texload

import (
	"github.com/vearutop/texload/internal/binio"
)

// palette holds colour map entries in on-disk B,G,R[,X] order.
type palette struct {
	data   []byte
	stride int
}

// put writes entry idx to dst as R,G,B.
func (p palette) put(dst []byte, idx byte) {
	c := int(idx) * p.stride
	dst[0] = p.data[c+2]
	dst[1] = p.data[c+1]
	dst[2] = p.data[c]
}

// bmpPixelBytes returns the size of the packed pixel stream for count pixels.
func bmpPixelBytes(bitCount, count int) int {
	switch bitCount {
	case 1:
		return (count + 7) / 8
	case 4:
		return (count + 1) / 2
	default:
		return count * (bitCount / 8)
	}
}

// decodeBMPPixels reads count packed pixels as one continuous stream and
// expands them into dst.
func decodeBMPPixels(r *binio.Reader, bitCount int, pal palette, count int, dst []byte) error {
	src, err := r.Next(bmpPixelBytes(bitCount, count))
	if err != nil {
		return ioError("read pixel data", err)
	}
	switch bitCount {
	case 1:
		unpack1(src, pal, count, dst)
	case 4:
		unpack4(src, pal, count, dst)
	case 8:
		unpack8(src, pal, count, dst)
	case 24:
		unpack24(src, count, dst)
	case 32:
		unpack32(src, count, dst)
	default:
		return unsupportedErrorf("%d-bit BMP", bitCount)
	}
	return nil
}

// unpack1 yields 8 pixels per byte, most significant bit first.
func unpack1(src []byte, pal palette, count int, dst []byte) {
	for i := 0; i < count; i++ {
		idx := (src[i/8] >> uint(7-i%8)) & 0x01
		pal.put(dst[i*3:], idx)
	}
}

// unpack4 yields 2 pixels per byte, high nibble first.
func unpack4(src []byte, pal palette, count int, dst []byte) {
	for i := 0; i < count; i++ {
		b := src[i/2]
		if i%2 == 0 {
			b >>= 4
		}
		pal.put(dst[i*3:], b&0x0f)
	}
}

func unpack8(src []byte, pal palette, count int, dst []byte) {
	for i := 0; i < count; i++ {
		pal.put(dst[i*3:], src[i])
	}
}

// unpack24 swaps B,G,R to R,G,B.
func unpack24(src []byte, count int, dst []byte) {
	for i := 0; i < count; i++ {
		s := src[i*3 : i*3+3]
		d := dst[i*3 : i*3+3]
		d[0], d[1], d[2] = s[2], s[1], s[0]
	}
}

// unpack32 swaps B,G,R,A to R,G,B,A.
func unpack32(src []byte, count int, dst []byte) {
	for i := 0; i < count; i++ {
		s := src[i*4 : i*4+4]
		d := dst[i*4 : i*4+4]
		d[0], d[1], d[2], d[3] = s[2], s[1], s[0], s[3]
	}
}
