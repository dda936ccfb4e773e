package texload

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"golang.org/x/image/bmp"
)

type bmpFixture struct {
	headerSize  uint32
	width       int32
	height      int32
	bitCount    uint16
	compression uint32
	csType      uint32
	gamma       [3]uint32
	palette     []byte
	pixels      []byte
}

func (f bmpFixture) bytes(t *testing.T) []byte {
	t.Helper()

	hs := f.headerSize
	if hs == 0 {
		hs = bmpInfoHeaderSize
	}
	off := uint32(bmpFileHeaderSize) + hs + uint32(len(f.palette))

	var buf bytes.Buffer
	write := func(v any) {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
	}

	write(bmpFileHeader{
		Type:    [2]byte{'B', 'M'},
		Size:    off + uint32(len(f.pixels)),
		OffBits: off,
	})

	info := bmpInfoHeader{
		Size:        hs,
		Width:       f.width,
		Height:      f.height,
		Planes:      1,
		BitCount:    f.bitCount,
		Compression: f.compression,
		SizeImage:   uint32(len(f.pixels)),
	}
	v4 := bmpV4Header{
		Info:       info,
		CSType:     f.csType,
		GammaRed:   f.gamma[0],
		GammaGreen: f.gamma[1],
		GammaBlue:  f.gamma[2],
	}
	switch hs {
	case bmpCoreHeaderSize:
		write(bmpCoreHeader{Size: hs, Width: uint16(f.width), Height: uint16(f.height), Planes: 1, BitCount: f.bitCount})
	case bmpInfoHeaderSize:
		write(info)
	case bmpV4HeaderSize:
		write(v4)
	case bmpV5HeaderSize:
		write(bmpV5Header{V4: v4})
	default:
		write(info)
		buf.Write(make([]byte, int(hs)-bmpInfoHeaderSize))
	}

	buf.Write(f.palette)
	buf.Write(f.pixels)
	return buf.Bytes()
}

// bgrxPalette builds a palette from R,G,B triples.
func bgrxPalette(n int, colors ...[3]byte) []byte {
	p := make([]byte, n*4)
	for i, c := range colors {
		p[i*4], p[i*4+1], p[i*4+2] = c[2], c[1], c[0]
	}
	return p
}

func decodeFixture(t *testing.T, f bmpFixture, opts ...func(o *DecodeOptions)) *Image {
	t.Helper()
	img, err := DecodeBMP(bytes.NewReader(f.bytes(t)), opts...)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return img
}

func TestDecodeBMP24(t *testing.T) {
	img := decodeFixture(t, bmpFixture{
		width:    2,
		height:   2,
		bitCount: 24,
		pixels: []byte{
			0, 0, 255, 0, 255, 0, // red, green
			255, 0, 0, 255, 255, 255, // blue, white
		},
	})

	if img.Width() != 2 || img.Height() != 2 {
		t.Fatalf("size mismatch: got %dx%d", img.Width(), img.Height())
	}
	if img.Format() != RGB8 {
		t.Fatalf("format mismatch: got %s", img.Format())
	}
	if img.RowOrder() != BottomUp {
		t.Fatalf("row order mismatch: got %s", img.RowOrder())
	}
	want := []byte{255, 0, 0, 0, 255, 0, 0, 0, 255, 255, 255, 255}
	if !bytes.Equal(img.Pix(), want) {
		t.Fatalf("pixels mismatch:\n got %v\nwant %v", img.Pix(), want)
	}
	if img.Exposure() != 1 || img.Gamma() != 1 {
		t.Fatalf("unexpected exposure/gamma %v/%v", img.Exposure(), img.Gamma())
	}
}

func TestDecodeBMPIndexed(t *testing.T) {
	black := [3]byte{0, 0, 0}
	white := [3]byte{255, 255, 255}
	red := [3]byte{200, 10, 20}

	tests := []struct {
		name string
		f    bmpFixture
		want [][3]byte
	}{
		{
			name: "1-bit",
			f: bmpFixture{
				width: 8, height: 1, bitCount: 1,
				palette: bgrxPalette(2, black, white),
				pixels:  []byte{0xB0},
			},
			want: [][3]byte{white, black, white, white, black, black, black, black},
		},
		{
			name: "4-bit",
			f: bmpFixture{
				width: 3, height: 1, bitCount: 4,
				palette: bgrxPalette(16, black, white, red),
				pixels:  []byte{0x12, 0x00},
			},
			want: [][3]byte{white, red, black},
		},
		{
			name: "8-bit",
			f: bmpFixture{
				width: 2, height: 2, bitCount: 8,
				palette: bgrxPalette(256, black, white, red),
				pixels:  []byte{2, 1, 0, 2},
			},
			want: [][3]byte{red, white, black, red},
		},
		{
			name: "core header",
			f: bmpFixture{
				headerSize: bmpCoreHeaderSize,
				width:      2, height: 1, bitCount: 1,
				palette: []byte{20, 10, 200, 255, 255, 255},
				pixels:  []byte{0x40},
			},
			want: [][3]byte{red, white},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			img := decodeFixture(t, tc.f)
			if img.Format() != RGB8 {
				t.Fatalf("format mismatch: got %s", img.Format())
			}
			pix := img.Pix()
			if len(pix) != len(tc.want)*3 {
				t.Fatalf("buffer length mismatch: got %d want %d", len(pix), len(tc.want)*3)
			}
			for i, c := range tc.want {
				got := [3]byte{pix[i*3], pix[i*3+1], pix[i*3+2]}
				if got != c {
					t.Fatalf("pixel %d mismatch: got %v want %v", i, got, c)
				}
			}
		})
	}
}

func TestDecodeBMP32(t *testing.T) {
	img := decodeFixture(t, bmpFixture{
		width: 1, height: 1, bitCount: 32,
		pixels: []byte{1, 2, 3, 4},
	})
	if img.Format() != RGBA8 {
		t.Fatalf("format mismatch: got %s", img.Format())
	}
	if want := []byte{3, 2, 1, 4}; !bytes.Equal(img.Pix(), want) {
		t.Fatalf("pixels mismatch: got %v want %v", img.Pix(), want)
	}
}

func TestDecodeBMPColorSpace(t *testing.T) {
	tests := []struct {
		name       string
		headerSize uint32
		bitCount   uint16
		csType     uint32
		want       PixelFormat
	}{
		{"v4 sRGB", bmpV4HeaderSize, 24, bmpColorSpaceSRGB, RGB8SRGB},
		{"v5 windows", bmpV5HeaderSize, 32, bmpColorSpaceWindows, RGBA8SRGB},
		{"v5 calibrated", bmpV5HeaderSize, 24, bmpColorSpaceCalibratedRGB, RGB8},
		{"info header", bmpInfoHeaderSize, 24, 0, RGB8},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			img := decodeFixture(t, bmpFixture{
				headerSize: tc.headerSize,
				width:      1, height: 1, bitCount: tc.bitCount,
				csType: tc.csType,
				pixels: make([]byte, tc.bitCount/8),
			})
			if img.Format() != tc.want {
				t.Fatalf("format mismatch: got %s want %s", img.Format(), tc.want)
			}
		})
	}
}

func TestDecodeBMPCalibratedGamma(t *testing.T) {
	const two = 2 << 16

	f := bmpFixture{
		headerSize: bmpV4HeaderSize,
		width:      3, height: 1, bitCount: 24,
		csType: bmpColorSpaceCalibratedRGB,
		gamma:  [3]uint32{two, two, two},
		pixels: []byte{64, 64, 64, 0, 0, 0, 255, 255, 255},
	}

	img := decodeFixture(t, f)
	// 255 * sqrt(64/255) = 127.75, truncated.
	want := []byte{127, 127, 127, 0, 0, 0, 255, 255, 255}
	if !bytes.Equal(img.Pix(), want) {
		t.Fatalf("gamma mismatch: got %v want %v", img.Pix(), want)
	}

	t.Run("skip gamma", func(t *testing.T) {
		img := decodeFixture(t, f, func(o *DecodeOptions) { o.SkipGamma = true })
		if !bytes.Equal(img.Pix(), f.pixels) {
			t.Fatalf("pixels changed: got %v", img.Pix())
		}
	})

	t.Run("zero channel gamma", func(t *testing.T) {
		f := f
		f.gamma = [3]uint32{two, 0, two}
		img := decodeFixture(t, f)
		if !bytes.Equal(img.Pix(), f.pixels) {
			t.Fatalf("pixels changed: got %v", img.Pix())
		}
	})
}

func TestDecodeBMPTopDown(t *testing.T) {
	img := decodeFixture(t, bmpFixture{
		width: 1, height: -2, bitCount: 24,
		pixels: []byte{0, 0, 255, 255, 0, 0},
	})
	if img.RowOrder() != TopDown {
		t.Fatalf("row order mismatch: got %s", img.RowOrder())
	}
	if img.Height() != 2 {
		t.Fatalf("height mismatch: got %d", img.Height())
	}
	r, _, b, _ := img.At(0, 0).RGBA()
	if r != 0xffff || b != 0 {
		t.Fatalf("top row mismatch: r=%x b=%x", r, b)
	}
}

func TestDecodeBMPErrors(t *testing.T) {
	valid := bmpFixture{width: 2, height: 1, bitCount: 24, pixels: make([]byte, 6)}

	tests := []struct {
		name string
		data func(t *testing.T) []byte
		opts []func(o *DecodeOptions)
		want error
	}{
		{
			name: "bad magic",
			data: func(t *testing.T) []byte { return []byte("XX") },
			want: ErrFormat,
		},
		{
			name: "bad magic full header",
			data: func(t *testing.T) []byte {
				b := valid.bytes(t)
				b[0] = 'X'
				return b
			},
			want: ErrFormat,
		},
		{
			name: "short file header",
			data: func(t *testing.T) []byte { return []byte("BM\x00\x00") },
			want: ErrIO,
		},
		{
			name: "truncated pixels",
			data: func(t *testing.T) []byte {
				b := valid.bytes(t)
				return b[:len(b)-1]
			},
			want: io.ErrUnexpectedEOF,
		},
		{
			name: "unknown header size",
			data: func(t *testing.T) []byte {
				f := valid
				f.headerSize = 64
				return f.bytes(t)
			},
			want: ErrFormat,
		},
		{
			name: "bitfields",
			data: func(t *testing.T) []byte {
				f := valid
				f.compression = bmpCompressionBitfields
				return f.bytes(t)
			},
			want: ErrUnsupported,
		},
		{
			name: "16-bit",
			data: func(t *testing.T) []byte {
				f := valid
				f.bitCount = 16
				f.pixels = make([]byte, 4)
				return f.bytes(t)
			},
			want: ErrUnsupported,
		},
		{
			name: "rle8 with 4-bit depth",
			data: func(t *testing.T) []byte {
				f := valid
				f.bitCount = 4
				f.compression = bmpCompressionRLE8
				f.palette = bgrxPalette(16)
				return f.bytes(t)
			},
			want: ErrFormat,
		},
		{
			name: "zero width",
			data: func(t *testing.T) []byte {
				f := valid
				f.width = 0
				return f.bytes(t)
			},
			want: ErrFormat,
		},
		{
			name: "pixel limit",
			data: func(t *testing.T) []byte { return valid.bytes(t) },
			opts: []func(o *DecodeOptions){func(o *DecodeOptions) { o.MaxPixels = 1 }},
			want: ErrOutOfMemory,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			img, err := DecodeBMP(bytes.NewReader(tc.data(t)), tc.opts...)
			if err == nil {
				t.Fatalf("expected error, got %dx%d image", img.Width(), img.Height())
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("error mismatch: got %v want %v", err, tc.want)
			}
		})
	}

	if _, err := DecodeBMP(nil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("nil reader: got %v", err)
	}
}

// Rows of 4 pixels are 4-byte aligned at 8 and 24 bits, so the continuous
// stream matches the padded layout of golang.org/x/image/bmp.
func TestDecodeBMPMatchesReferenceDecoder(t *testing.T) {
	pal := make([]byte, 256*4)
	for i := 0; i < 256; i++ {
		pal[i*4], pal[i*4+1], pal[i*4+2] = byte(i), byte(255-i), byte(i*7)
	}
	pixels8 := make([]byte, 4*3)
	for i := range pixels8 {
		pixels8[i] = byte(i * 19)
	}
	pixels24 := make([]byte, 4*3*3)
	for i := range pixels24 {
		pixels24[i] = byte(i * 37)
	}

	fixtures := map[string]bmpFixture{
		"8-bit":  {width: 4, height: 3, bitCount: 8, palette: pal, pixels: pixels8},
		"24-bit": {width: 4, height: 3, bitCount: 24, pixels: pixels24},
	}
	for name, f := range fixtures {
		t.Run(name, func(t *testing.T) {
			data := f.bytes(t)
			ref, err := bmp.Decode(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("reference decode: %v", err)
			}
			img, err := DecodeBMP(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if img.Bounds() != ref.Bounds() {
				t.Fatalf("bounds mismatch: got %v want %v", img.Bounds(), ref.Bounds())
			}
			for y := 0; y < 3; y++ {
				for x := 0; x < 4; x++ {
					r1, g1, b1, a1 := img.At(x, y).RGBA()
					r2, g2, b2, a2 := ref.At(x, y).RGBA()
					if r1 != r2 || g1 != g2 || b1 != b2 || a1 != a2 {
						t.Fatalf("pixel (%d,%d) mismatch: got %x,%x,%x,%x want %x,%x,%x,%x",
							x, y, r1, g1, b1, a1, r2, g2, b2, a2)
					}
				}
			}
		})
	}
}

func TestImageClone(t *testing.T) {
	img := decodeFixture(t, bmpFixture{width: 1, height: 1, bitCount: 24, pixels: []byte{1, 2, 3}})
	img.key = 42

	c := img.Clone()
	c.pix[0] = 99
	if img.Pix()[0] != 3 {
		t.Fatalf("clone shares pixel buffer")
	}
	if !c.SameSource(img) {
		t.Fatalf("clone should keep source key")
	}

	other := img.Clone()
	other.key = 7
	if other.SameSource(img) {
		t.Fatalf("different keys reported as same source")
	}
}
