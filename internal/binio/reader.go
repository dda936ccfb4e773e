// Package binio provides a sequential binary reader for image file decoders.
package binio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

// ErrLineTooLong is returned by ReadLine when a line exceeds the limit.
var ErrLineTooLong = errors.New("line too long")

// ErrBackwardSeek is returned by Seek on a non-seekable source.
var ErrBackwardSeek = errors.New("backward seek on non-seekable stream")

// Reader reads fixed-size values, bytes and text lines from a stream while
// tracking the absolute offset. Premature end of stream is always reported
// as io.ErrUnexpectedEOF.
type Reader struct {
	src    io.Reader
	br     *bufio.Reader
	base   int64
	offset int64
}

// NewReader wraps r. Offsets are relative to the position of r at the time
// of the call. If r implements io.Seeker, Seek is able to move backwards.
func NewReader(r io.Reader) *Reader {
	rd := &Reader{src: r, br: bufio.NewReader(r)}
	if s, ok := r.(io.Seeker); ok {
		if pos, err := s.Seek(0, io.SeekCurrent); err == nil {
			rd.base = pos
		}
	}
	return rd
}

// Offset returns the number of bytes consumed from the start of the stream.
func (r *Reader) Offset() int64 { return r.offset }

// ReadByte reads a single byte.
func (r *Reader) ReadByte() (byte, error) {
	b, err := r.br.ReadByte()
	if err != nil {
		return 0, unexpected(err)
	}
	r.offset++
	return b, nil
}

// ReadFull fills buf completely.
func (r *Reader) ReadFull(buf []byte) error {
	n, err := io.ReadFull(r.br, buf)
	r.offset += int64(n)
	if err != nil {
		return unexpected(err)
	}
	return nil
}

// Next reads n bytes into a new slice.
func (r *Reader) Next(n int) ([]byte, error) {
	if n < 0 {
		return nil, errors.New("negative read size")
	}
	buf := make([]byte, n)
	if err := r.ReadFull(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadStruct decodes a fixed-size value using encoding/binary.
func (r *Reader) ReadStruct(order binary.ByteOrder, v any) error {
	size := binary.Size(v)
	if size < 0 {
		return errors.New("value is not fixed-size")
	}
	buf := make([]byte, size)
	if err := r.ReadFull(buf); err != nil {
		return err
	}
	return binary.Read(bytes.NewReader(buf), order, v)
}

// Uint16 reads a 16-bit value in the given byte order.
func (r *Reader) Uint16(order binary.ByteOrder) (uint16, error) {
	var buf [2]byte
	if err := r.ReadFull(buf[:]); err != nil {
		return 0, err
	}
	return order.Uint16(buf[:]), nil
}

// Uint32 reads a 32-bit value in the given byte order.
func (r *Reader) Uint32(order binary.ByteOrder) (uint32, error) {
	var buf [4]byte
	if err := r.ReadFull(buf[:]); err != nil {
		return 0, err
	}
	return order.Uint32(buf[:]), nil
}

// Peek returns the next n bytes without consuming them.
// The slice is only valid until the next read.
func (r *Reader) Peek(n int) ([]byte, error) {
	b, err := r.br.Peek(n)
	if err != nil {
		return nil, unexpected(err)
	}
	return b, nil
}

// More reports whether at least one more byte can be read.
func (r *Reader) More() bool {
	_, err := r.br.Peek(1)
	return err == nil
}

// ReadLine reads up to and including the next LF and returns the line with
// trailing CR and LF characters removed. Lines longer than max bytes fail
// with ErrLineTooLong.
func (r *Reader) ReadLine(max int) (string, error) {
	var line []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if b == '\n' {
			break
		}
		if len(line) >= max {
			return "", ErrLineTooLong
		}
		line = append(line, b)
	}
	for len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
	}
	return string(line), nil
}

// Seek moves to an absolute offset from the start of the stream.
func (r *Reader) Seek(offset int64) error {
	if offset < 0 {
		return errors.New("negative seek offset")
	}
	if offset >= r.offset && offset-r.offset <= int64(r.br.Buffered()) {
		n, err := r.br.Discard(int(offset - r.offset))
		r.offset += int64(n)
		return unexpected(err)
	}
	if s, ok := r.src.(io.Seeker); ok {
		if _, err := s.Seek(r.base+offset, io.SeekStart); err != nil {
			return err
		}
		r.br.Reset(r.src)
		r.offset = offset
		return nil
	}
	if offset < r.offset {
		return ErrBackwardSeek
	}
	n, err := io.CopyN(io.Discard, r.br, offset-r.offset)
	r.offset += n
	return unexpected(err)
}

func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
