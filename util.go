package texload

import "github.com/chewxy/math32"

// SRGBToLinear applies the inverse sRGB transfer function to v in [0, 1].
func SRGBToLinear(v float32) float32 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return math32.Pow((v+0.055)/1.055, 2.4)
}

// LinearToSRGB applies the sRGB transfer function to v in [0, 1].
func LinearToSRGB(v float32) float32 {
	if v <= 0.0031308 {
		return 12.92 * v
	}
	return 1.055*math32.Pow(v, 1.0/2.4) - 0.055
}

// clamp01 maps NaN to 0.
func clamp01(v float32) float32 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
