package texload

const (
	defaultMaxPixels = 1 << 28
	defaultGamma     = 1.0
	defaultExposure  = 1.0
)

const (
	bmpFileHeaderSize = 14

	bmpCoreHeaderSize = 12
	bmpInfoHeaderSize = 40
	bmpV4HeaderSize   = 108
	bmpV5HeaderSize   = 124
)

// BMP compression kinds.
const (
	bmpCompressionRGB       = 0
	bmpCompressionRLE8      = 1
	bmpCompressionRLE4      = 2
	bmpCompressionBitfields = 3
)

// BMP v4/v5 colour-space types.
const (
	bmpColorSpaceCalibratedRGB = 0x00000000
	bmpColorSpaceSRGB          = 0x73524742 // 'sRGB'
	bmpColorSpaceWindows       = 0x57696e20 // 'Win '
)

const (
	hdrMagic          = "#?RADIANCE"
	hdrFormatRGBE     = "32-bit_rle_rgbe"
	hdrFormatXYZE     = "32-bit_rle_xyze"
	hdrMaxLineLength  = 4096
	hdrMinRLEWidth    = 8
	hdrMaxRLEWidth    = 0x7fff
	rgbeExponentShift = 128 + 8
)
