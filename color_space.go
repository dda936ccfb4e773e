package texload

// Gamut is a set of linear RGB primaries with a D65 white point.
type Gamut int

const (
	GamutBT709 Gamut = iota
	GamutDisplayP3
	GamutAdobeRGB
)

func (g Gamut) String() string {
	switch g {
	case GamutDisplayP3:
		return "display-p3"
	case GamutAdobeRGB:
		return "adobe-rgb"
	default:
		return "bt709"
	}
}

// ParseGamut maps a gamut name as printed by String back to its value.
func ParseGamut(s string) (Gamut, bool) {
	for _, g := range []Gamut{GamutBT709, GamutDisplayP3, GamutAdobeRGB} {
		if g.String() == s {
			return g, true
		}
	}
	return GamutBT709, false
}

type rgb struct {
	r, g, b float32
}

func rgbToXYZ(v rgb, from Gamut) (float32, float32, float32) {
	switch from {
	case GamutDisplayP3:
		return 0.48657095*v.r + 0.2656677*v.g + 0.19821729*v.b,
			0.22897457*v.r + 0.69173855*v.g + 0.07928691*v.b,
			0.04511338*v.g + 1.0439444*v.b
	case GamutAdobeRGB:
		return 0.5767309*v.r + 0.185554*v.g + 0.1881852*v.b,
			0.2973769*v.r + 0.6273491*v.g + 0.0752741*v.b,
			0.0270343*v.r + 0.0706872*v.g + 0.9911085*v.b
	default:
		return 0.4123908*v.r + 0.35758433*v.g + 0.1804808*v.b,
			0.212639*v.r + 0.71516865*v.g + 0.07219232*v.b,
			0.019330818*v.r + 0.11919478*v.g + 0.95053214*v.b
	}
}

func xyzToRGB(x, y, z float32, to Gamut) rgb {
	switch to {
	case GamutDisplayP3:
		return rgb{
			r: 2.493497*x - 0.9313836*y - 0.4027108*z,
			g: -0.829489*x + 1.7626641*y + 0.023624685*z,
			b: 0.03584583*x - 0.07617239*y + 0.9568845*z,
		}
	case GamutAdobeRGB:
		return rgb{
			r: 2.041369*x - 0.5649464*y - 0.3446944*z,
			g: -0.969266*x + 1.8760108*y + 0.041556*z,
			b: 0.0134474*x - 0.1183897*y + 1.0154096*z,
		}
	default:
		return rgb{
			r: 3.24097*x - 1.5373832*y - 0.49861076*z,
			g: -0.96924365*x + 1.8759675*y + 0.041555058*z,
			b: 0.05563008*x - 0.20397696*y + 1.0569715*z,
		}
	}
}
