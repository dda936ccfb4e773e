package texload

import (
	"fmt"
	"image"
	"image/color"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/hdrcolor"
	"github.com/mdouchement/hdr/tmo"
)

// ToneMapOperator selects how float images are reduced to 8 bits for preview.
type ToneMapOperator int

const (
	ToneMapLinear ToneMapOperator = iota
	ToneMapLogarithmic
	ToneMapDrago03
	ToneMapReinhard05
)

var toneMapNames = map[string]ToneMapOperator{
	"linear":     ToneMapLinear,
	"log":        ToneMapLogarithmic,
	"drago03":    ToneMapDrago03,
	"reinhard05": ToneMapReinhard05,
}

// ParseToneMapOperator maps linear, log, drago03 or reinhard05 to an operator.
func ParseToneMapOperator(name string) (ToneMapOperator, error) {
	if name == "" {
		return ToneMapReinhard05, nil
	}
	if op, ok := toneMapNames[name]; ok {
		return op, nil
	}
	return ToneMapLinear, fmt.Errorf("%w: unknown tone mapping operator %q", ErrInvalidArgument, name)
}

type toneMapper interface {
	Perform() image.Image
}

// HDR exposes an RGBFloat32 image as an hdr.Image with the top row first.
// XYZ images become *hdr.XYZ, RGB images *hdr.RGB.
func (m *Image) HDR() (hdr.Image, error) {
	if m.format != RGBFloat32 {
		return nil, fmt.Errorf("%w: %s is not a float image", ErrInvalidArgument, m.format)
	}

	rect := image.Rect(0, 0, m.width, m.height)
	if m.space == ColorSpaceXYZ {
		out := hdr.NewXYZ(rect)
		for y := 0; y < m.height; y++ {
			for x := 0; x < m.width; x++ {
				i := m.pixelIndex(x, y) * 3
				out.SetXYZ(x, y, hdrcolor.XYZ{
					X: float64(m.float(i)),
					Y: float64(m.float(i + 1)),
					Z: float64(m.float(i + 2)),
				})
			}
		}
		return out, nil
	}

	out := hdr.NewRGB(rect)
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			i := m.pixelIndex(x, y) * 3
			out.SetRGB(x, y, hdrcolor.RGB{
				R: float64(m.float(i)),
				G: float64(m.float(i + 1)),
				B: float64(m.float(i + 2)),
			})
		}
	}
	return out, nil
}

// ToneMap renders img for display with the top row first. Float images go
// through op, 8-bit images are copied to NRGBA unchanged.
func ToneMap(img *Image, op ToneMapOperator) (image.Image, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInvalidArgument)
	}
	if img.format != RGBFloat32 {
		return toNRGBA(img), nil
	}

	m, err := img.HDR()
	if err != nil {
		return nil, err
	}

	var t toneMapper
	switch op {
	case ToneMapLinear:
		t = tmo.NewLinear(m)
	case ToneMapLogarithmic:
		t = tmo.NewLogarithmic(m)
	case ToneMapDrago03:
		t = tmo.NewDefaultDrago03(m)
	case ToneMapReinhard05:
		t = tmo.NewDefaultReinhard05(m)
	default:
		return nil, fmt.Errorf("%w: tone mapping operator %d", ErrInvalidArgument, op)
	}
	return t.Perform(), nil
}

func toNRGBA(m *Image) *image.NRGBA {
	out := image.NewNRGBA(m.Bounds())
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			out.SetNRGBA(x, y, m.At(x, y).(color.NRGBA))
		}
	}
	return out
}
