package texload

import (
	"errors"
	"fmt"
	"io"

	"github.com/vearutop/texload/internal/binio"
)

// FileFormat is a container format recognised by DetectFormat.
type FileFormat int

const (
	FileUnknown FileFormat = iota
	FileBMP
	FileHDR
)

func (f FileFormat) String() string {
	switch f {
	case FileBMP:
		return "bmp"
	case FileHDR:
		return "hdr"
	default:
		return "unknown"
	}
}

// DetectFormat performs a streaming check of the leading magic bytes without
// loading the image. Streams too short to hold a magic are FileUnknown.
func DetectFormat(r io.Reader) (FileFormat, error) {
	if r == nil {
		return FileUnknown, fmt.Errorf("%w: nil reader", ErrInvalidArgument)
	}
	return detect(binio.NewReader(r))
}

// detect peeks at the magic, leaving r positioned at the start of the file.
func detect(r *binio.Reader) (FileFormat, error) {
	magic, err := r.Peek(2)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return FileUnknown, nil
		}
		return FileUnknown, ioError("detect format", err)
	}
	switch string(magic) {
	case "BM":
		return FileBMP, nil
	case "#?":
		return FileHDR, nil
	default:
		return FileUnknown, nil
	}
}
