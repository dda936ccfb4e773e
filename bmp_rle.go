package texload

import (
	"errors"
	"io"

	"github.com/sirupsen/logrus"
)

// rleCursor writes palette colours sequentially into an RGB buffer.
type rleCursor struct {
	dst   []byte
	pal   palette
	pos   int // pixel index
	total int
	width int
}

func (c *rleCursor) done() bool { return c.pos >= c.total }

func (c *rleCursor) put(idx byte) error {
	if c.pos >= c.total {
		return formatErrorf("RLE data past end of bitmap at pixel %d", c.pos)
	}
	c.pal.put(c.dst[c.pos*3:], idx)
	c.pos++
	return nil
}

// delta moves the cursor dy rows and dx pixels forward.
func (c *rleCursor) delta(dx, dy byte) error {
	next := c.pos + int(dy)*c.width + int(dx)
	if next > c.total {
		return formatErrorf("RLE delta (%d, %d) moves past end of bitmap", dx, dy)
	}
	c.pos = next
	return nil
}

func readRLEByte(r io.ByteReader) (byte, error) {
	b, err := r.ReadByte()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return 0, ioError("read RLE data", err)
	}
	return b, nil
}

func readRLEPair(r io.ByteReader) (byte, byte, error) {
	b1, err := readRLEByte(r)
	if err != nil {
		return 0, 0, err
	}
	b2, err := readRLEByte(r)
	if err != nil {
		return 0, 0, err
	}
	return b1, b2, nil
}

// skipRLEPad consumes a word-alignment byte. Running out of data is tolerated
// once the bitmap is complete.
func skipRLEPad(r io.ByteReader, c *rleCursor) error {
	if _, err := readRLEByte(r); err != nil && !c.done() {
		return err
	}
	return nil
}

// logEndOfBitmap records an early (0,1) code, which is ignored.
func logEndOfBitmap(log logrus.FieldLogger, c *rleCursor) {
	log.WithFields(logrus.Fields{"pixel": c.pos, "total": c.total}).Debug("ignoring RLE end of bitmap code")
}

// decodeRLE8 decodes BI_RLE8 data until width*height pixels are produced.
// Codes (0,0) and (0,1) produce nothing and decoding continues.
func decodeRLE8(r io.ByteReader, pal palette, width, height int, dst []byte, log logrus.FieldLogger) error {
	c := &rleCursor{dst: dst, pal: pal, total: width * height, width: width}

	for !c.done() {
		b1, b2, err := readRLEPair(r)
		if err != nil {
			return err
		}

		if b1 != 0 {
			for i := 0; i < int(b1); i++ {
				if err := c.put(b2); err != nil {
					return err
				}
			}
			continue
		}

		switch {
		case b2 > 2:
			for i := 0; i < int(b2); i++ {
				idx, err := readRLEByte(r)
				if err != nil {
					return err
				}
				if err := c.put(idx); err != nil {
					return err
				}
			}
			if b2%2 == 1 {
				if err := skipRLEPad(r, c); err != nil {
					return err
				}
			}
		case b2 == 1:
			logEndOfBitmap(log, c)
		case b2 == 2:
			dx, dy, err := readRLEPair(r)
			if err != nil {
				return err
			}
			if err := c.delta(dx, dy); err != nil {
				return err
			}
		}
	}
	return nil
}

// decodeRLE4 decodes BI_RLE4 data. The pad after an absolute run is decided
// by the parity of all command and data bytes consumed so far.
func decodeRLE4(r io.ByteReader, pal palette, width, height int, dst []byte, log logrus.FieldLogger) error {
	c := &rleCursor{dst: dst, pal: pal, total: width * height, width: width}
	byteRead := 0

	for !c.done() {
		b1, b2, err := readRLEPair(r)
		if err != nil {
			return err
		}
		byteRead += 2

		if b1 != 0 {
			for i := 0; i < int(b1); i++ {
				idx := b2 >> 4
				if i%2 == 1 {
					idx = b2 & 0x0f
				}
				if err := c.put(idx); err != nil {
					return err
				}
			}
			continue
		}

		switch {
		case b2 > 2:
			var data byte
			for i := 0; i < int(b2); i++ {
				var idx byte
				if i%2 == 1 {
					idx = data & 0x0f
				} else {
					if data, err = readRLEByte(r); err != nil {
						return err
					}
					byteRead++
					idx = data >> 4
				}
				if err := c.put(idx); err != nil {
					return err
				}
			}
			if byteRead%2 == 1 {
				if err := skipRLEPad(r, c); err != nil {
					return err
				}
				byteRead++
			}
		case b2 == 1:
			logEndOfBitmap(log, c)
		case b2 == 2:
			// Delta bytes do not count towards the pad parity.
			dx, dy, err := readRLEPair(r)
			if err != nil {
				return err
			}
			if err := c.delta(dx, dy); err != nil {
				return err
			}
		}
	}
	return nil
}
