package compressor

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"

	"assetpress/internal/compression"
	"assetpress/internal/fileutil"
	"assetpress/internal/services"
)

// compressFile streams source through the f encoder into dest. It returns
// bytes read, bytes written, and the source digest.
func compressFile(ctx context.Context, source, dest string, f compression.Format, level int) (int64, int64, string, error) {
	src, err := os.Open(source)
	if err != nil {
		return 0, 0, "", services.Wrap(services.ErrNotFound, "compress", "open source", source, err)
	}
	defer src.Close()

	var (
		read    int64
		hasher  = blake3.New()
		counter = &countingWriter{}
	)
	err = fileutil.WriteAtomic(dest, 0o644, func(w io.Writer) error {
		counter.w = w
		encoder, err := compression.NewWriter(f, counter, level)
		if err != nil {
			return fmt.Errorf("create encoder: %w", err)
		}
		read, err = io.Copy(encoder, io.TeeReader(&contextReader{ctx: ctx, r: src}, hasher))
		if err != nil {
			encoder.Close()
			return fmt.Errorf("encode: %w", err)
		}
		if err := encoder.Close(); err != nil {
			return fmt.Errorf("flush encoder: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, 0, "", services.Wrap(services.ErrCompression, "compress", "write artifact", dest, err)
	}
	return read, counter.n, hex.EncodeToString(hasher.Sum(nil)), nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// contextReader stops a copy once ctx is cancelled.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, fmt.Errorf("read cancelled: %w", err)
	}
	return c.r.Read(p)
}
