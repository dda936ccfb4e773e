package texload

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/sirupsen/logrus"
)

// PixelFormat identifies the layout of Image pixels.
type PixelFormat int

const (
	FormatUnknown PixelFormat = iota
	RGB8
	RGB8SRGB
	RGBA8
	RGBA8SRGB
	RGBFloat32
)

// Channels returns the number of channels per pixel.
func (f PixelFormat) Channels() int {
	switch f {
	case RGB8, RGB8SRGB, RGBFloat32:
		return 3
	case RGBA8, RGBA8SRGB:
		return 4
	default:
		return 0
	}
}

// BytesPerPixel returns the storage size of one pixel.
func (f PixelFormat) BytesPerPixel() int {
	if f == RGBFloat32 {
		return 12
	}
	return f.Channels()
}

// IsSRGB reports whether 8-bit samples are sRGB encoded.
func (f PixelFormat) IsSRGB() bool {
	return f == RGB8SRGB || f == RGBA8SRGB
}

func (f PixelFormat) String() string {
	switch f {
	case RGB8:
		return "RGB8"
	case RGB8SRGB:
		return "RGB8_sRGB"
	case RGBA8:
		return "RGBA8"
	case RGBA8SRGB:
		return "RGBA8_sRGB"
	case RGBFloat32:
		return "RGBFloat32"
	default:
		return "unknown"
	}
}

// RowOrder tells which picture row is stored first in Pix.
type RowOrder int

const (
	// BottomUp means row 0 of Pix is the bottom row of the picture.
	BottomUp RowOrder = iota
	// TopDown means row 0 of Pix is the top row of the picture.
	TopDown
)

func (o RowOrder) String() string {
	if o == TopDown {
		return "top-down"
	}
	return "bottom-up"
}

// ColorSpace identifies what the channels of a float image hold.
type ColorSpace int

const (
	ColorSpaceRGB ColorSpace = iota
	ColorSpaceXYZ
)

func (c ColorSpace) String() string {
	if c == ColorSpaceXYZ {
		return "XYZ"
	}
	return "RGB"
}

// DecodeOptions controls decoding.
type DecodeOptions struct {
	// Logger receives failure details and informational header lines.
	// Defaults to logrus.StandardLogger().
	Logger logrus.FieldLogger
	// MaxPixels limits width*height; larger images fail with ErrOutOfMemory.
	MaxPixels int
	// SkipGamma disables BMP calibrated gamma and HDR inverse gamma.
	SkipGamma bool
	// ConvertXYZ converts XYZE pixels to linear RGB after float conversion.
	ConvertXYZ bool
	// TargetGamut is the RGB gamut used by ConvertXYZ, GamutBT709 by default.
	TargetGamut Gamut
}

func newDecodeOptions(opts []func(o *DecodeOptions)) DecodeOptions {
	opt := DecodeOptions{
		Logger:    logrus.StandardLogger(),
		MaxPixels: defaultMaxPixels,
	}
	for _, applyOpt := range opts {
		applyOpt(&opt)
	}
	if opt.Logger == nil {
		opt.Logger = logrus.StandardLogger()
	}
	if opt.MaxPixels <= 0 {
		opt.MaxPixels = defaultMaxPixels
	}
	return opt
}

// Image is a decoded picture that exclusively owns its pixel buffer.
// Pixels are row-major with channel order R,G,B[,A].
type Image struct {
	width, height int
	format        PixelFormat
	order         RowOrder
	space         ColorSpace
	exposure      float32
	gamma         float32
	key           uint32
	pix           []byte
}

// allocImage checks the geometry against the pixel limit and allocates a
// zeroed buffer.
func allocImage(width, height int, format PixelFormat, maxPixels int) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, formatErrorf("invalid dimensions %dx%d", width, height)
	}
	if width > maxPixels/height {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrOutOfMemory, width, height, maxPixels)
	}
	size := width * height
	bpp := format.BytesPerPixel()
	if bpp == 0 {
		return nil, fmt.Errorf("%w: unknown pixel format", ErrInvalidArgument)
	}
	if size > math.MaxInt/bpp {
		return nil, fmt.Errorf("%w: pixel buffer size overflows", ErrOutOfMemory)
	}
	return &Image{
		width:    width,
		height:   height,
		format:   format,
		exposure: 1,
		gamma:    1,
		pix:      make([]byte, size*bpp),
	}, nil
}

// Width returns the image width in pixels.
func (m *Image) Width() int { return m.width }

// Height returns the image height in pixels.
func (m *Image) Height() int { return m.height }

// Format returns the pixel format.
func (m *Image) Format() PixelFormat { return m.format }

// RowOrder returns the order of rows in Pix.
func (m *Image) RowOrder() RowOrder { return m.order }

// ColorSpace returns the colour space of the channels.
func (m *Image) ColorSpace() ColorSpace { return m.space }

// Exposure returns the EXPOSURE header value of HDR sources, 1 otherwise.
func (m *Image) Exposure() float32 { return m.exposure }

// Gamma returns the GAMMA header value of HDR sources, 1 otherwise.
func (m *Image) Gamma() float32 { return m.gamma }

// SourceKey returns the CRC-32 of the source path, or 0 for stream decodes.
func (m *Image) SourceKey() uint32 { return m.key }

// SameSource reports whether both images were decoded from the same path.
func (m *Image) SameSource(other *Image) bool {
	if m == other {
		return true
	}
	if other == nil || m.key == 0 {
		return false
	}
	return m.key == other.key
}

// Pix returns the pixel buffer. It must not be modified.
func (m *Image) Pix() []byte { return m.pix }

// Clone returns a deep copy.
func (m *Image) Clone() *Image {
	c := *m
	c.pix = append([]byte(nil), m.pix...)
	return &c
}

// Float32s returns the samples of an RGBFloat32 image.
func (m *Image) Float32s() []float32 {
	if m.format != RGBFloat32 {
		return nil
	}
	out := make([]float32, len(m.pix)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(m.pix[i*4:]))
	}
	return out
}

func (m *Image) setFloat(i int, v float32) {
	binary.LittleEndian.PutUint32(m.pix[i*4:], math.Float32bits(v))
}

func (m *Image) float(i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(m.pix[i*4:]))
}

// Bounds implements image.Image.
func (m *Image) Bounds() image.Rectangle { return image.Rect(0, 0, m.width, m.height) }

// ColorModel implements image.Image.
func (m *Image) ColorModel() color.Model {
	if m.format == RGBFloat32 {
		return color.RGBA64Model
	}
	return color.NRGBAModel
}

// At implements image.Image. Row y=0 is the top of the picture regardless of
// RowOrder. Float samples are clamped to [0, 1].
func (m *Image) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return color.NRGBA{}
	}
	i := m.pixelIndex(x, y)
	switch m.format {
	case RGBFloat32:
		return color.RGBA64{
			R: toUint16(m.float(i * 3)),
			G: toUint16(m.float(i*3 + 1)),
			B: toUint16(m.float(i*3 + 2)),
			A: 0xFFFF,
		}
	case RGBA8, RGBA8SRGB:
		p := m.pix[i*4 : i*4+4]
		return color.NRGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
	default:
		p := m.pix[i*3 : i*3+3]
		return color.NRGBA{R: p[0], G: p[1], B: p[2], A: 0xFF}
	}
}

// pixelIndex maps picture coordinates to a pixel index into Pix.
func (m *Image) pixelIndex(x, y int) int {
	if m.order == BottomUp {
		y = m.height - 1 - y
	}
	return y*m.width + x
}

func toUint16(v float32) uint16 {
	return uint16(clamp01(v)*65535.0 + 0.5)
}
