package texload

import (
	"bytes"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/sirupsen/logrus"
	"github.com/vearutop/texload/internal/binio"
)

// SourceKey returns the identity key images decoded from path carry.
func SourceKey(path string) uint32 {
	return crc32.ChecksumIEEE([]byte(path))
}

// openSource opens path for decoding. Files ending in .zst or .lz4 are
// decompressed into memory first.
func openSource(path string) (io.ReadCloser, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidArgument)
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, ioError("open", err)
	}

	var dec io.Reader
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst":
		zr, err := zstd.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, ioError("open zstd stream", err)
		}
		defer zr.Close()
		dec = zr
	case ".lz4":
		dec = lz4.NewReader(f)
	default:
		return f, nil
	}
	defer f.Close()

	data, err := io.ReadAll(dec)
	if err != nil {
		return nil, ioError("decompress", err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

type fileDecoder func(r *binio.Reader, opt DecodeOptions) (*Image, error)

func decodePath(path string, opts []func(o *DecodeOptions), decode fileDecoder) (*Image, error) {
	opt := newDecodeOptions(opts)
	log := opt.Logger.WithField("path", path)

	src, err := openSource(path)
	if err != nil {
		log.WithError(err).Error("failed to open image")
		return nil, err
	}
	defer src.Close()

	img, err := decode(binio.NewReader(src), opt)
	if err != nil {
		log.WithError(err).Error("failed to decode image")
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	img.key = SourceKey(path)
	log.WithFields(logrus.Fields{
		"width":  img.width,
		"height": img.height,
		"format": img.format.String(),
	}).Debug("decoded image")
	return img, nil
}

// DecodeFile decodes a BMP or Radiance HDR file, chosen by its content.
func DecodeFile(path string, opts ...func(o *DecodeOptions)) (*Image, error) {
	return decodePath(path, opts, func(r *binio.Reader, opt DecodeOptions) (*Image, error) {
		f, err := detect(r)
		if err != nil {
			return nil, err
		}
		switch f {
		case FileBMP:
			return decodeBMP(r, opt)
		case FileHDR:
			return decodeHDRFloat(r, opt)
		default:
			return nil, unsupportedErrorf("unrecognized image format")
		}
	})
}

// DecodeBMPFile decodes the BMP file at path.
func DecodeBMPFile(path string, opts ...func(o *DecodeOptions)) (*Image, error) {
	return decodePath(path, opts, decodeBMP)
}

// DecodeHDRFile decodes the Radiance HDR file at path to RGBFloat32.
func DecodeHDRFile(path string, opts ...func(o *DecodeOptions)) (*Image, error) {
	return decodePath(path, opts, decodeHDRFloat)
}

// DecodeRGBEFile decodes the Radiance HDR file at path without float conversion.
func DecodeRGBEFile(path string, opts ...func(o *DecodeOptions)) (*RGBEImage, error) {
	opt := newDecodeOptions(opts)
	log := opt.Logger.WithField("path", path)

	src, err := openSource(path)
	if err != nil {
		log.WithError(err).Error("failed to open image")
		return nil, err
	}
	defer src.Close()

	m, err := decodeRGBE(binio.NewReader(src), opt)
	if err != nil {
		log.WithError(err).Error("failed to decode image")
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.key = SourceKey(path)
	return m, nil
}

func decodeHDRFloat(r *binio.Reader, opt DecodeOptions) (*Image, error) {
	m, err := decodeRGBE(r, opt)
	if err != nil {
		return nil, err
	}
	return m.float(opt)
}
