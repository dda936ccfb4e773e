package texload

import (
	"fmt"
	"image"
	"io"

	"golang.org/x/image/tiff"
)

// EncodeTIFF writes img as a deflate-compressed TIFF.
func EncodeTIFF(w io.Writer, img image.Image) error {
	if img == nil {
		return fmt.Errorf("%w: nil image", ErrInvalidArgument)
	}
	if err := tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
		return fmt.Errorf("encode tiff: %w", err)
	}
	return nil
}
