package compression

import (
	"errors"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
)

// Static precompression runs once per build, so the defaults favour ratio
// over speed.
const (
	DefaultGzipLevel   = gzip.BestCompression
	DefaultBrotliLevel = brotli.BestCompression
)

// ErrInvalidLevel reports a compression level outside the format's range.
var ErrInvalidLevel = errors.New("invalid compression level")

// DefaultLevel returns the level used when configuration leaves it unset.
func DefaultLevel(f Format) int {
	switch f {
	case FormatGzip:
		return DefaultGzipLevel
	case FormatBrotli:
		return DefaultBrotliLevel
	default:
		return 0
	}
}

// ValidateLevel checks that level is usable for f.
func ValidateLevel(f Format, level int) error {
	switch f {
	case FormatGzip:
		if level < gzip.BestSpeed || level > gzip.BestCompression {
			return fmt.Errorf("%w: gzip level %d outside %d..%d", ErrInvalidLevel, level, gzip.BestSpeed, gzip.BestCompression)
		}
	case FormatBrotli:
		if level < brotli.BestSpeed || level > brotli.BestCompression {
			return fmt.Errorf("%w: brotli level %d outside %d..%d", ErrInvalidLevel, level, brotli.BestSpeed, brotli.BestCompression)
		}
	default:
		return fmt.Errorf("unsupported compression format: %s", f)
	}
	return nil
}

// NewWriter returns an encoder that writes f-compressed data to w. Closing the
// encoder flushes the stream but does not close w.
func NewWriter(f Format, w io.Writer, level int) (io.WriteCloser, error) {
	if err := ValidateLevel(f, level); err != nil {
		return nil, err
	}
	switch f {
	case FormatGzip:
		zw, err := gzip.NewWriterLevel(w, level)
		if err != nil {
			return nil, fmt.Errorf("gzip writer: %w", err)
		}
		return zw, nil
	case FormatBrotli:
		return brotli.NewWriterLevel(w, level), nil
	default:
		return nil, fmt.Errorf("unsupported compression format: %s", f)
	}
}

// NewReader returns a decoder for f-compressed data read from r.
func NewReader(f Format, r io.Reader) (io.ReadCloser, error) {
	switch f {
	case FormatGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		return zr, nil
	case FormatBrotli:
		return io.NopCloser(brotli.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("unsupported compression format: %s", f)
	}
}
