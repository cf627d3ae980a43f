package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression is the archive encoding chosen by file extension.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionZstd Compression = "zstd"
	CompressionGzip Compression = "gzip"
)

// CompressionFor picks the encoding from a path's extension: .zst, .zstd and
// .gz are compressed, anything else is plain.
func CompressionFor(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst", ".zstd":
		return CompressionZstd
	case ".gz":
		return CompressionGzip
	default:
		return CompressionNone
	}
}

// Encode returns the indented deterministic JSON for v.
func Encode(v interface{}) ([]byte, error) {
	return DeterministicEncodeIndented(v, "  ")
}

// Write encodes v to w, compressed as requested.
func Write(w io.Writer, v interface{}, c Compression) error {
	data, err := Encode(v)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	switch c {
	case CompressionZstd:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			return err
		}
		if _, err := enc.Write(data); err != nil {
			enc.Close()
			return err
		}
		return enc.Close()
	case CompressionGzip:
		enc := gzip.NewWriter(w)
		if _, err := enc.Write(data); err != nil {
			enc.Close()
			return err
		}
		return enc.Close()
	default:
		_, err := w.Write(data)
		return err
	}
}

// WriteFile writes v to path, compressing by extension. The file is written
// to a temporary sibling and renamed into place.
func WriteFile(path string, v interface{}) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, v, CompressionFor(path)); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ReadFile returns the JSON stored at path, decompressing by extension.
func ReadFile(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(raw, CompressionFor(path))
}

// Decode undoes the given compression.
func Decode(raw []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return dec.DecodeAll(raw, nil)
	case CompressionGzip:
		r, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	default:
		return raw, nil
	}
}
