package texload

import (
	"fmt"
	"image"

	"github.com/nfnt/resize"
)

// ResizeOptions controls preview resizing.
type ResizeOptions struct {
	// Interpolation selects the resampling kernel, InterpolationNearest by default.
	Interpolation Interpolation
}

// Interpolation selects the resampling kernel.
type Interpolation int

const (
	// InterpolationNearest is nearest-neighbor sampling.
	InterpolationNearest Interpolation = iota
	// InterpolationBilinear is linear sampling.
	InterpolationBilinear
	// InterpolationBicubic is cubic sampling.
	InterpolationBicubic
	// InterpolationMitchellNetravali is Mitchell-Netravali sampling.
	InterpolationMitchellNetravali
	// InterpolationLanczos2 is Lanczos sampling with a=2.
	InterpolationLanczos2
	// InterpolationLanczos3 is Lanczos sampling with a=3.
	InterpolationLanczos3
)

var interpolationNames = map[string]Interpolation{
	"nearest":  InterpolationNearest,
	"bilinear": InterpolationBilinear,
	"bicubic":  InterpolationBicubic,
	"mitchell": InterpolationMitchellNetravali,
	"lanczos2": InterpolationLanczos2,
	"lanczos3": InterpolationLanczos3,
}

// ParseInterpolation maps a CLI name (nearest, bilinear, bicubic, mitchell,
// lanczos2, lanczos3) to an Interpolation.
func ParseInterpolation(name string) (Interpolation, error) {
	if name == "" {
		return InterpolationNearest, nil
	}
	if v, ok := interpolationNames[name]; ok {
		return v, nil
	}
	return InterpolationNearest, fmt.Errorf("%w: unknown interpolation %q", ErrInvalidArgument, name)
}

func (i Interpolation) kernel() resize.InterpolationFunction {
	switch i {
	case InterpolationBilinear:
		return resize.Bilinear
	case InterpolationBicubic:
		return resize.Bicubic
	case InterpolationMitchellNetravali:
		return resize.MitchellNetravali
	case InterpolationLanczos2:
		return resize.Lanczos2
	case InterpolationLanczos3:
		return resize.Lanczos3
	default:
		return resize.NearestNeighbor
	}
}

// Resize scales img to width x height. A zero dimension keeps the aspect
// ratio; both zero returns img unchanged.
func Resize(img image.Image, width, height uint, opts ...func(o *ResizeOptions)) image.Image {
	if width == 0 && height == 0 {
		return img
	}

	opt := ResizeOptions{Interpolation: InterpolationNearest}
	for _, applyOpt := range opts {
		applyOpt(&opt)
	}

	return resize.Resize(width, height, img, opt.Interpolation.kernel())
}
