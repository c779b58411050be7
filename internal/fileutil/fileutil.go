package fileutil

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrExists is returned by ExportFile when the destination is present and
// overwriting was not requested.
var ErrExists = errors.New("destination already exists")

// CopyFileVerified streams src to dst and checks size and SHA-256 of what was
// written. dst is removed on any failure. The copy stops early when ctx is
// cancelled.
func CopyFileVerified(ctx context.Context, src, dst string) (int64, error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return 0, fmt.Errorf("stat source: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	written, err := copyHashed(ctx, out, in, srcInfo.Size())
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dst)
		return 0, err
	}
	return written, nil
}

// ExportFile copies src into dst through a hidden temp file in the same
// directory and renames it into place.
func ExportFile(ctx context.Context, src, dst string, overwrite bool) (int64, error) {
	if !overwrite {
		if _, err := os.Stat(dst); err == nil {
			return 0, fmt.Errorf("%s: %w", dst, ErrExists)
		} else if !errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("check destination: %w", err)
		}
	}
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create destination directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()

	written, err := CopyFileVerified(ctx, src, tmpPath)
	if err != nil {
		_ = os.Remove(tmpPath)
		return 0, err
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("finalize export: %w", err)
	}
	return written, nil
}

func copyHashed(ctx context.Context, dst io.Writer, src io.Reader, want int64) (int64, error) {
	srcHasher := sha256.New()
	dstHasher := sha256.New()
	tee := io.TeeReader(&contextReader{ctx: ctx, r: src}, srcHasher)
	multi := io.MultiWriter(dst, dstHasher)

	written, err := io.Copy(multi, tee)
	if err != nil {
		return written, err
	}
	if written != want {
		return written, fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", want, written)
	}
	if !bytes.Equal(srcHasher.Sum(nil), dstHasher.Sum(nil)) {
		return written, errors.New("copy hash mismatch: file corrupted during copy")
	}
	return written, nil
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
