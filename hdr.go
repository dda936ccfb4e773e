package texload

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/vearutop/texload/internal/binio"
)

// ScanlineOrientation is the resolution line of a Radiance file: the sign and
// axis of the major (scanline) direction followed by the minor one.
type ScanlineOrientation int

const (
	OrientationNYPX ScanlineOrientation = iota // -Y +X
	OrientationNYNX                            // -Y -X
	OrientationPYPX                            // +Y +X
	OrientationPYNX                            // +Y -X
	OrientationNXPY                            // -X +Y
	OrientationNXNY                            // -X -Y
	OrientationPXPY                            // +X +Y
	OrientationPXNY                            // +X -Y
)

var orientationNames = [...]string{"-Y +X", "-Y -X", "+Y +X", "+Y -X", "-X +Y", "-X -Y", "+X +Y", "+X -Y"}

func (o ScanlineOrientation) String() string {
	if o < 0 || int(o) >= len(orientationNames) {
		return "unknown"
	}
	return orientationNames[o]
}

// Supported reports whether scanlines of this orientation can be decoded.
func (o ScanlineOrientation) Supported() bool {
	return o == OrientationNYPX || o == OrientationPYPX
}

type hdrHeader struct {
	space       ColorSpace
	exposure    float32
	gamma       float32
	orientation ScanlineOrientation
	width       int
	height      int
}

func readHDRHeader(r *binio.Reader, log logrus.FieldLogger) (*hdrHeader, error) {
	line, err := readHDRLine(r)
	if err != nil {
		return nil, err
	}
	if line != hdrMagic {
		return nil, formatErrorf("bad Radiance magic %q", line)
	}

	h := &hdrHeader{exposure: defaultExposure, gamma: defaultGamma}
	for {
		line, err := readHDRLine(r)
		if err != nil {
			return nil, err
		}
		if line == "" {
			continue
		}

		switch line[0] {
		case '#':
		case 'F':
			switch strings.TrimSpace(strings.TrimPrefix(line, "FORMAT=")) {
			case hdrFormatRGBE:
				h.space = ColorSpaceRGB
			case hdrFormatXYZE:
				h.space = ColorSpaceXYZ
			default:
				return nil, formatErrorf("unsupported Radiance pixel format %q", line)
			}
		case 'E':
			if v, ok := parseHeaderFloat(line, "EXPOSURE="); ok {
				h.exposure = v
			}
		case 'G':
			v, ok := parseHeaderFloat(line, "GAMMA=")
			if ok && v > 0 {
				h.gamma = v
			} else if ok {
				log.WithField("gamma", v).Warn("ignoring non-positive Radiance gamma")
			}
		case 'S':
			log.WithField("software", strings.TrimPrefix(line, "SOFTWARE=")).Info("radiance header")
		case 'C', 'P', 'V':
			// COLORCORR, PIXASPECT, PRIMARIES and VIEW are not supported.
			log.WithField("line", line).Debug("ignoring radiance header directive")
		case '-', '+':
			if len(line) > 1 && (line[1] == 'Y' || line[1] == 'X') {
				if err := h.parseResolution(line); err != nil {
					return nil, err
				}
				if !h.orientation.Supported() {
					return nil, unsupportedErrorf("scanline orientation %s", h.orientation)
				}
				return h, nil
			}
		}
	}
}

func readHDRLine(r *binio.Reader) (string, error) {
	line, err := r.ReadLine(hdrMaxLineLength)
	if err != nil {
		if errors.Is(err, binio.ErrLineTooLong) {
			return "", formatErrorf("radiance header line longer than %d bytes", hdrMaxLineLength)
		}
		return "", ioError("read radiance header", err)
	}
	return line, nil
}

func parseHeaderFloat(line, prefix string) (float32, bool) {
	if !strings.HasPrefix(line, prefix) {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(line[len(prefix):]), 32)
	if err != nil {
		return 0, false
	}
	return float32(v), true
}

// parseResolution reads "[-+]Y h [-+]X w" or "[-+]X w [-+]Y h".
func (h *hdrHeader) parseResolution(line string) error {
	f := strings.Fields(line)
	if len(f) != 4 || len(f[0]) != 2 || len(f[2]) != 2 {
		return formatErrorf("malformed resolution line %q", line)
	}
	major, minor := f[0], f[2]
	if major[1] == minor[1] || !isSign(major[0]) || !isSign(minor[0]) ||
		(minor[1] != 'X' && minor[1] != 'Y') {
		return formatErrorf("malformed resolution line %q", line)
	}
	n1, err1 := strconv.Atoi(f[1])
	n2, err2 := strconv.Atoi(f[3])
	if err1 != nil || err2 != nil || n1 <= 0 || n2 <= 0 {
		return formatErrorf("malformed resolution line %q", line)
	}

	base := OrientationNYPX
	h.height, h.width = n1, n2
	if major[1] == 'X' {
		base = OrientationNXPY
		h.width, h.height = n1, n2
	}
	switch {
	case major[0] == '-' && minor[0] == '+':
		h.orientation = base
	case major[0] == '-' && minor[0] == '-':
		h.orientation = base + 1
	case major[0] == '+' && minor[0] == '+':
		h.orientation = base + 2
	default:
		h.orientation = base + 3
	}
	return nil
}

func isSign(b byte) bool { return b == '-' || b == '+' }

// RGBEImage holds undecoded Radiance pixels, four bytes per pixel
// (R,G,B,E or X,Y,Z,E). Row 0 is the bottom row of the picture.
type RGBEImage struct {
	Width       int
	Height      int
	Exposure    float32
	Gamma       float32
	ColorSpace  ColorSpace
	Orientation ScanlineOrientation
	Pix         []byte

	key uint32
}

// SourceKey returns the CRC-32 of the source path, or 0 for stream decodes.
func (m *RGBEImage) SourceKey() uint32 { return m.key }

// DecodeRGBE decodes a Radiance HDR stream without float conversion.
func DecodeRGBE(r io.Reader, opts ...func(o *DecodeOptions)) (*RGBEImage, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil reader", ErrInvalidArgument)
	}
	return decodeRGBE(binio.NewReader(r), newDecodeOptions(opts))
}

// DecodeHDR decodes a Radiance HDR stream into an RGBFloat32 image with the
// header gamma removed.
func DecodeHDR(r io.Reader, opts ...func(o *DecodeOptions)) (*Image, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil reader", ErrInvalidArgument)
	}
	return decodeHDRFloat(binio.NewReader(r), newDecodeOptions(opts))
}

func decodeRGBE(r *binio.Reader, opt DecodeOptions) (*RGBEImage, error) {
	h, err := readHDRHeader(r, opt.Logger)
	if err != nil {
		return nil, err
	}
	if h.width > opt.MaxPixels/h.height {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrOutOfMemory, h.width, h.height, opt.MaxPixels)
	}
	if h.width*h.height > math.MaxInt/4 {
		return nil, fmt.Errorf("%w: RGBE buffer size overflows", ErrOutOfMemory)
	}

	m := &RGBEImage{
		Width:       h.width,
		Height:      h.height,
		Exposure:    h.exposure,
		Gamma:       h.gamma,
		ColorSpace:  h.space,
		Orientation: h.orientation,
		Pix:         make([]byte, h.width*h.height*4),
	}

	stride := h.width * 4
	for k := 0; k < h.height; k++ {
		// Rows are stored bottom row first: a -Y file starts at the top.
		y := k
		if h.orientation == OrientationNYPX {
			y = h.height - 1 - k
		}
		if err := readScanline(r, m.Pix[y*stride:(y+1)*stride]); err != nil {
			return nil, fmt.Errorf("scanline %d: %w", k, err)
		}
	}
	return m, nil
}
