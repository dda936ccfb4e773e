package texload

import (
	"fmt"

	"github.com/chewxy/math32"
)

// RGBEToFloat expands one shared-exponent pixel to linear floats:
// c * 2^(e-136). A zero exponent yields black.
func RGBEToFloat(r, g, b, e byte) (float32, float32, float32) {
	if e == 0 {
		return 0, 0, 0
	}
	f := math32.Ldexp(1, int(e)-rgbeExponentShift)
	return float32(r) * f, float32(g) * f, float32(b) * f
}

// Float converts the pixels to an RGBFloat32 image. Unless SkipGamma is set,
// every channel is raised to 1/Gamma. With ConvertXYZ, XYZE pixels are
// converted to TargetGamut RGB.
func (m *RGBEImage) Float(opts ...func(o *DecodeOptions)) (*Image, error) {
	return m.float(newDecodeOptions(opts))
}

func (m *RGBEImage) float(opt DecodeOptions) (*Image, error) {
	img, err := allocImage(m.Width, m.Height, RGBFloat32, opt.MaxPixels)
	if err != nil {
		return nil, err
	}
	count := m.Width * m.Height
	if len(m.Pix) != count*4 {
		return nil, fmt.Errorf("%w: %d RGBE bytes for %dx%d", ErrInvalidArgument, len(m.Pix), m.Width, m.Height)
	}

	img.exposure = m.Exposure
	img.gamma = m.Gamma
	img.space = m.ColorSpace
	img.key = m.key

	applyGamma := !opt.SkipGamma && m.Gamma > 0 && m.Gamma != 1
	invGamma := 1 / m.Gamma
	toRGB := opt.ConvertXYZ && m.ColorSpace == ColorSpaceXYZ
	if toRGB {
		img.space = ColorSpaceRGB
	}

	for i := 0; i < count; i++ {
		p := m.Pix[i*4 : i*4+4]
		r, g, b := RGBEToFloat(p[0], p[1], p[2], p[3])
		if applyGamma {
			r = math32.Pow(r, invGamma)
			g = math32.Pow(g, invGamma)
			b = math32.Pow(b, invGamma)
		}
		if toRGB {
			c := xyzToRGB(r, g, b, opt.TargetGamut)
			r, g, b = c.r, c.g, c.b
		}
		img.setFloat(i*3, r)
		img.setFloat(i*3+1, g)
		img.setFloat(i*3+2, b)
	}
	return img, nil
}
