package texload

import (
	"errors"
	"fmt"
)

// Error kinds reported by the decoders. Use errors.Is to classify a failure.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrIO              = errors.New("i/o error")
	ErrFormat          = errors.New("invalid format")
	ErrUnsupported     = errors.New("unsupported format")
	ErrOutOfMemory     = errors.New("out of memory")
)

func formatErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFormat, fmt.Sprintf(format, args...))
}

func unsupportedErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnsupported, fmt.Sprintf(format, args...))
}

// ioError keeps the underlying error in the chain, so both ErrIO and
// io.ErrUnexpectedEOF match.
func ioError(stage string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrIO, stage, err)
}
