package texload

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/vearutop/texload/internal/binio"
)

type bmpFileHeader struct {
	Type      [2]byte
	Size      uint32
	Reserved1 uint16
	Reserved2 uint16
	OffBits   uint32
}

// bmpCoreHeader is the OS/2 BITMAPCOREHEADER.
type bmpCoreHeader struct {
	Size     uint32
	Width    uint16
	Height   uint16
	Planes   uint16
	BitCount uint16
}

// bmpInfoHeader is the Windows BITMAPINFOHEADER.
type bmpInfoHeader struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
}

type bmpV4Header struct {
	Info       bmpInfoHeader
	RedMask    uint32
	GreenMask  uint32
	BlueMask   uint32
	AlphaMask  uint32
	CSType     uint32
	Endpoints  [9]int32
	GammaRed   uint32
	GammaGreen uint32
	GammaBlue  uint32
}

type bmpV5Header struct {
	V4          bmpV4Header
	Intent      uint32
	ProfileData uint32
	ProfileSize uint32
	Reserved    uint32
}

// bmpHeader is the variant-independent view of the headers.
type bmpHeader struct {
	offBits       uint32
	headerSize    uint32
	width         int
	height        int
	topDown       bool
	bitCount      int
	compression   uint32
	paletteStride int
	isSRGB        bool
	calibrated    bool
	gamma         [3]float64
}

func readBMPHeader(r *binio.Reader) (*bmpHeader, error) {
	if magic, err := r.Peek(2); err == nil && string(magic) != "BM" {
		return nil, formatErrorf("bad BMP magic %q", magic)
	}
	var fh bmpFileHeader
	if err := r.ReadStruct(binary.LittleEndian, &fh); err != nil {
		return nil, ioError("read file header", err)
	}

	b, err := r.Peek(4)
	if err != nil {
		return nil, ioError("read info header size", err)
	}
	h := &bmpHeader{
		offBits:       fh.OffBits,
		headerSize:    binary.LittleEndian.Uint32(b),
		paletteStride: 4,
	}

	var info bmpInfoHeader
	switch h.headerSize {
	case bmpCoreHeaderSize:
		var ch bmpCoreHeader
		if err := r.ReadStruct(binary.LittleEndian, &ch); err != nil {
			return nil, ioError("read core header", err)
		}
		h.width = int(ch.Width)
		h.height = int(ch.Height)
		h.bitCount = int(ch.BitCount)
		h.compression = bmpCompressionRGB
		h.paletteStride = 3
		return h, validateBMPGeometry(h)
	case bmpInfoHeaderSize:
		if err := r.ReadStruct(binary.LittleEndian, &info); err != nil {
			return nil, ioError("read info header", err)
		}
	case bmpV4HeaderSize:
		var v4 bmpV4Header
		if err := r.ReadStruct(binary.LittleEndian, &v4); err != nil {
			return nil, ioError("read v4 header", err)
		}
		info = v4.Info
		h.setColorSpace(v4.CSType, v4.GammaRed, v4.GammaGreen, v4.GammaBlue)
	case bmpV5HeaderSize:
		var v5 bmpV5Header
		if err := r.ReadStruct(binary.LittleEndian, &v5); err != nil {
			return nil, ioError("read v5 header", err)
		}
		info = v5.V4.Info
		h.setColorSpace(v5.V4.CSType, v5.V4.GammaRed, v5.V4.GammaGreen, v5.V4.GammaBlue)
	default:
		return nil, formatErrorf("unrecognized BMP info header size %d", h.headerSize)
	}

	h.width = int(info.Width)
	h.height = int(info.Height)
	if h.height < 0 {
		h.height = -h.height
		h.topDown = true
	}
	h.bitCount = int(info.BitCount)
	h.compression = info.Compression
	return h, validateBMPGeometry(h)
}

// setColorSpace applies the v4/v5 colour-space policy: calibrated gamma is
// used only when all three channel gammas are set.
func (h *bmpHeader) setColorSpace(csType, gammaR, gammaG, gammaB uint32) {
	h.isSRGB = csType == bmpColorSpaceSRGB || csType == bmpColorSpaceWindows
	h.calibrated = csType == bmpColorSpaceCalibratedRGB && gammaR > 0 && gammaG > 0 && gammaB > 0
	// 16.16 fixed point.
	h.gamma = [3]float64{
		float64(gammaR) / 65536,
		float64(gammaG) / 65536,
		float64(gammaB) / 65536,
	}
}

func validateBMPGeometry(h *bmpHeader) error {
	if h.width <= 0 || h.height <= 0 {
		return formatErrorf("invalid BMP dimensions %dx%d", h.width, h.height)
	}
	return nil
}

// checkBMPEncoding verifies that the compression and bit depth pair is decodable.
func checkBMPEncoding(h *bmpHeader) error {
	switch h.compression {
	case bmpCompressionRGB:
		switch h.bitCount {
		case 1, 4, 8, 24, 32:
			return nil
		default:
			return unsupportedErrorf("%d-bit BMP", h.bitCount)
		}
	case bmpCompressionRLE8, bmpCompressionRLE4:
		want := 8
		if h.compression == bmpCompressionRLE4 {
			want = 4
		}
		if h.bitCount != want {
			return formatErrorf("RLE%d BMP with bit depth %d", want, h.bitCount)
		}
		if h.topDown {
			return formatErrorf("top-down RLE BMP")
		}
		return nil
	case bmpCompressionBitfields:
		return unsupportedErrorf("BI_BITFIELDS compression")
	default:
		return unsupportedErrorf("BMP compression %d", h.compression)
	}
}

// readPalette reads 2^bitCount entries kept in on-disk B,G,R[,X] order.
func readPalette(r *binio.Reader, bitCount, stride int) (palette, error) {
	data, err := r.Next((1 << bitCount) * stride)
	if err != nil {
		return palette{}, ioError("read palette", err)
	}
	return palette{data: data, stride: stride}, nil
}

// DecodeBMP decodes a BMP stream. Rows are kept in on-disk order, see
// Image.RowOrder.
func DecodeBMP(r io.Reader, opts ...func(o *DecodeOptions)) (*Image, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil reader", ErrInvalidArgument)
	}
	return decodeBMP(binio.NewReader(r), newDecodeOptions(opts))
}

func decodeBMP(r *binio.Reader, opt DecodeOptions) (*Image, error) {
	h, err := readBMPHeader(r)
	if err != nil {
		return nil, err
	}
	if err := checkBMPEncoding(h); err != nil {
		return nil, err
	}

	var pal palette
	if h.bitCount <= 8 {
		if pal, err = readPalette(r, h.bitCount, h.paletteStride); err != nil {
			return nil, err
		}
	}

	format := RGB8
	if h.bitCount == 32 {
		format = RGBA8
	}
	if h.isSRGB {
		format = srgbVariant(format)
	}
	img, err := allocImage(h.width, h.height, format, opt.MaxPixels)
	if err != nil {
		return nil, err
	}
	if h.topDown {
		img.order = TopDown
	}

	if err := r.Seek(int64(h.offBits)); err != nil {
		return nil, ioError("seek to pixel data", err)
	}

	switch h.compression {
	case bmpCompressionRLE8:
		err = decodeRLE8(r, pal, h.width, h.height, img.pix, opt.Logger)
	case bmpCompressionRLE4:
		err = decodeRLE4(r, pal, h.width, h.height, img.pix, opt.Logger)
	default:
		err = decodeBMPPixels(r, h.bitCount, pal, h.width*h.height, img.pix)
	}
	if err != nil {
		return nil, err
	}

	if h.calibrated && !opt.SkipGamma {
		opt.Logger.WithField("gamma", h.gamma).Debug("applying BMP calibrated gamma")
		applyBMPGamma(img.pix, format.Channels(), h.gamma)
	}
	return img, nil
}

func srgbVariant(f PixelFormat) PixelFormat {
	switch f {
	case RGB8:
		return RGB8SRGB
	case RGBA8:
		return RGBA8SRGB
	default:
		return f
	}
}

// applyBMPGamma maps every R,G,B sample through pow(v/255, 1/gamma) and
// requantizes by truncation. Alpha is left untouched.
func applyBMPGamma(pix []byte, channels int, gamma [3]float64) {
	inv := [3]float64{1 / gamma[0], 1 / gamma[1], 1 / gamma[2]}
	for i := 0; i+channels <= len(pix); i += channels {
		for c := 0; c < 3; c++ {
			v := math.Pow(float64(pix[i+c])/255.0, inv[c])
			pix[i+c] = uint8(v * 255.0)
		}
	}
}
