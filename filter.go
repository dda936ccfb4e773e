package texload

import (
	"fmt"
	"math"

	"github.com/knetic/govaluate"
)

// ChannelFilter is a per-channel colour expression. It sees the variables
// v (the channel being computed), r, g, b (the pixel), l (BT.709 luminance)
// and c (channel index 0..2). 8-bit samples are normalised to [0, 1].
// Functions: pow, min, max, clamp, and linear/srgb for the sRGB transfer curve.
type ChannelFilter struct {
	expr *govaluate.EvaluableExpression
}

func filterFunctions() map[string]govaluate.ExpressionFunction {
	return map[string]govaluate.ExpressionFunction{
		"pow": func(args ...interface{}) (interface{}, error) {
			x, y, err := twoArgs("pow", args)
			if err != nil {
				return nil, err
			}
			return math.Pow(x, y), nil
		},
		"min": func(args ...interface{}) (interface{}, error) {
			x, y, err := twoArgs("min", args)
			if err != nil {
				return nil, err
			}
			return math.Min(x, y), nil
		},
		"max": func(args ...interface{}) (interface{}, error) {
			x, y, err := twoArgs("max", args)
			if err != nil {
				return nil, err
			}
			return math.Max(x, y), nil
		},
		"clamp": func(args ...interface{}) (interface{}, error) {
			x, err := oneArg("clamp", args)
			if err != nil {
				return nil, err
			}
			return math.Max(0, math.Min(1, x)), nil
		},
		"linear": func(args ...interface{}) (interface{}, error) {
			x, err := oneArg("linear", args)
			if err != nil {
				return nil, err
			}
			return float64(SRGBToLinear(float32(x))), nil
		},
		"srgb": func(args ...interface{}) (interface{}, error) {
			x, err := oneArg("srgb", args)
			if err != nil {
				return nil, err
			}
			return float64(LinearToSRGB(float32(x))), nil
		},
	}
}

func oneArg(name string, args []interface{}) (float64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%s expects 1 argument, got %d", name, len(args))
	}
	x, ok := args[0].(float64)
	if !ok {
		return 0, fmt.Errorf("%s: argument must be numeric", name)
	}
	return x, nil
}

func twoArgs(name string, args []interface{}) (float64, float64, error) {
	if len(args) != 2 {
		return 0, 0, fmt.Errorf("%s expects 2 arguments, got %d", name, len(args))
	}
	x, ok1 := args[0].(float64)
	y, ok2 := args[1].(float64)
	if !ok1 || !ok2 {
		return 0, 0, fmt.Errorf("%s: arguments must be numeric", name)
	}
	return x, y, nil
}

// NewChannelFilter compiles expr, for example "pow(v, 1/2.2)" or "l".
func NewChannelFilter(expr string) (*ChannelFilter, error) {
	e, err := govaluate.NewEvaluableExpressionWithFunctions(expr, filterFunctions())
	if err != nil {
		return nil, fmt.Errorf("%w: filter %q: %w", ErrInvalidArgument, expr, err)
	}
	return &ChannelFilter{expr: e}, nil
}

// Apply evaluates the filter for the R, G and B channel of every pixel and
// returns the result as a new image. Alpha is copied. 8-bit results are
// clamped to [0, 1] and rounded.
func (f *ChannelFilter) Apply(img *Image) (*Image, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInvalidArgument)
	}

	out := img.Clone()
	channels := img.format.Channels()
	isFloat := img.format == RGBFloat32
	params := map[string]interface{}{}

	for i := 0; i < img.width*img.height; i++ {
		var px [3]float64
		for c := range px {
			if isFloat {
				px[c] = float64(img.float(i*3 + c))
			} else {
				px[c] = float64(img.pix[i*channels+c]) / 255
			}
		}

		lum := px[1]
		if img.space == ColorSpaceRGB {
			_, y, _ := rgbToXYZ(rgb{r: float32(px[0]), g: float32(px[1]), b: float32(px[2])}, GamutBT709)
			lum = float64(y)
		}
		params["r"], params["g"], params["b"], params["l"] = px[0], px[1], px[2], lum

		for c := range px {
			params["v"] = px[c]
			params["c"] = float64(c)
			res, err := f.expr.Evaluate(params)
			if err != nil {
				return nil, fmt.Errorf("%w: evaluate filter: %w", ErrInvalidArgument, err)
			}
			v, ok := res.(float64)
			if !ok {
				return nil, fmt.Errorf("%w: filter returned %T, want number", ErrInvalidArgument, res)
			}

			if isFloat {
				out.setFloat(i*3+c, float32(v))
			} else {
				out.pix[i*channels+c] = uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
			}
		}
	}
	return out, nil
}
