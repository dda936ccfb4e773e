package texload

import (
	"errors"
	"io"
)

func readScanByte(r io.ByteReader) (byte, error) {
	b, err := r.ReadByte()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return 0, ioError("read scanline", err)
	}
	return b, nil
}

func readScanPixel(r io.ByteReader, px []byte) error {
	for i := range px[:4] {
		b, err := readScanByte(r)
		if err != nil {
			return err
		}
		px[i] = b
	}
	return nil
}

// readScanline decodes len(line)/4 RGBE pixels. Widths in [8, 0x7fff] may
// use per-channel run-length encoding announced by a (2, 2, hi, lo) pixel
// whose length matches the width; anything else is a flat scanline.
func readScanline(r io.ByteReader, line []byte) error {
	width := len(line) / 4
	if width < hdrMinRLEWidth || width > hdrMaxRLEWidth {
		return readFlatScanline(r, line, nil)
	}

	var head [4]byte
	if err := readScanPixel(r, head[:]); err != nil {
		return err
	}
	if head[0] != 2 || head[1] != 2 || int(head[2])<<8|int(head[3]) != width {
		return readFlatScanline(r, line, head[:])
	}

	for ch := 0; ch < 4; ch++ {
		for x := 0; x < width; {
			code, err := readScanByte(r)
			if err != nil {
				return err
			}
			if code > 128 {
				n := int(code & 127)
				if x+n > width {
					return formatErrorf("run of %d overflows scanline at %d", n, x)
				}
				v, err := readScanByte(r)
				if err != nil {
					return err
				}
				for ; n > 0; n-- {
					line[x*4+ch] = v
					x++
				}
				continue
			}

			n := int(code)
			if x+n > width {
				return formatErrorf("literal of %d overflows scanline at %d", n, x)
			}
			for ; n > 0; n-- {
				v, err := readScanByte(r)
				if err != nil {
					return err
				}
				line[x*4+ch] = v
				x++
			}
		}
	}
	return nil
}

// readFlatScanline reads raw RGBE pixels. A (1, 1, 1, n) pixel repeats the
// previous one n<<shift times; consecutive repeats add 8 bits to shift so
// counts above 255 can be expressed. first, if set, is the first pixel.
func readFlatScanline(r io.ByteReader, line []byte, first []byte) error {
	width := len(line) / 4
	shift := uint(0)
	var px [4]byte

	for x := 0; x < width; {
		if first != nil {
			copy(px[:], first)
			first = nil
		} else if err := readScanPixel(r, px[:]); err != nil {
			return err
		}

		if px[0] != 1 || px[1] != 1 || px[2] != 1 {
			copy(line[x*4:], px[:])
			x++
			shift = 0
			continue
		}

		if x == 0 {
			return formatErrorf("repeat with no previous pixel")
		}
		if shift > 16 {
			return formatErrorf("repeat count overflows scanline at %d", x)
		}
		n := int(px[3]) << shift
		if x+n > width {
			return formatErrorf("repeat of %d overflows scanline at %d", n, x)
		}
		prev := line[(x-1)*4 : x*4]
		for ; n > 0; n-- {
			copy(line[x*4:], prev)
			x++
		}
		shift += 8
	}
	return nil
}
