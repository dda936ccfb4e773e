package texload

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/mdouchement/hdr"
	"golang.org/x/image/tiff"
)

func gradientHDR(t *testing.T, w, h int) *Image {
	t.Helper()
	px := make([]byte, 0, w*h*4)
	for i := 0; i < w*h; i++ {
		v := byte(16 + i*8)
		px = append(px, v, v/2, v/4, byte(128+i%3))
	}
	m := &RGBEImage{Width: w, Height: h, Gamma: 1, Pix: px}
	img, err := m.Float()
	if err != nil {
		t.Fatalf("float: %v", err)
	}
	return img
}

func TestImageHDR(t *testing.T) {
	img := gradientHDR(t, 3, 2)
	m, err := img.HDR()
	if err != nil {
		t.Fatalf("hdr: %v", err)
	}
	rgbImg, ok := m.(*hdr.RGB)
	if !ok {
		t.Fatalf("unexpected type %T", m)
	}

	// Row 0 of the picture is the last row of the bottom-up buffer.
	i := img.pixelIndex(0, 0) * 3
	r, _, _, _ := rgbImg.HDRAt(0, 0).HDRRGBA()
	if float32(r) != img.float(i) {
		t.Fatalf("top-left mismatch: got %v want %v", r, img.float(i))
	}

	img.space = ColorSpaceXYZ
	if m, err = img.HDR(); err != nil {
		t.Fatalf("hdr: %v", err)
	}
	if _, ok := m.(*hdr.XYZ); !ok {
		t.Fatalf("unexpected type %T", m)
	}

	ldr := decodeFixture(t, bmpFixture{width: 1, height: 1, bitCount: 24, pixels: []byte{1, 2, 3}})
	if _, err := ldr.HDR(); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("8-bit image: got %v", err)
	}
}

func TestToneMap(t *testing.T) {
	img := gradientHDR(t, 4, 3)
	for _, name := range []string{"linear", "log", "drago03", "reinhard05"} {
		t.Run(name, func(t *testing.T) {
			op, err := ParseToneMapOperator(name)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			out, err := ToneMap(img, op)
			if err != nil {
				t.Fatalf("tone map: %v", err)
			}
			if out.Bounds() != img.Bounds() {
				t.Fatalf("bounds mismatch: got %v", out.Bounds())
			}
		})
	}

	if _, err := ParseToneMapOperator("filmic"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("unknown operator: got %v", err)
	}
	if _, err := ToneMap(nil, ToneMapLinear); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("nil image: got %v", err)
	}
}

func TestToneMapLDR(t *testing.T) {
	img := decodeFixture(t, bmpFixture{
		width: 1, height: 2, bitCount: 24,
		pixels: []byte{0, 0, 255, 255, 0, 0},
	})
	out, err := ToneMap(img, ToneMapReinhard05)
	if err != nil {
		t.Fatalf("tone map: %v", err)
	}
	nrgba, ok := out.(*image.NRGBA)
	if !ok {
		t.Fatalf("unexpected type %T", out)
	}
	// Bottom-up source: the second stored row (blue) is the top.
	if got := nrgba.NRGBAAt(0, 0); got != (color.NRGBA{B: 255, A: 255}) {
		t.Fatalf("top pixel mismatch: %v", got)
	}
	if got := nrgba.NRGBAAt(0, 1); got != (color.NRGBA{R: 255, A: 255}) {
		t.Fatalf("bottom pixel mismatch: %v", got)
	}
}

func TestEncodeTIFF(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	src.SetNRGBA(1, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	var buf bytes.Buffer
	if err := EncodeTIFF(&buf, src); err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := tiff.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Bounds() != src.Bounds() {
		t.Fatalf("bounds mismatch: got %v", out.Bounds())
	}
	r, g, b, _ := out.At(1, 1).RGBA()
	if r>>8 != 10 || g>>8 != 20 || b>>8 != 30 {
		t.Fatalf("pixel mismatch: %d %d %d", r>>8, g>>8, b>>8)
	}

	if err := EncodeTIFF(&buf, nil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("nil image: got %v", err)
	}
}
