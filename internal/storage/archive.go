package storage

import (
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// ArchiveLearnFile writes a zstd-compressed copy of the learn file at src
// to dst. Learn tables are mostly empty slots and compress well.
func ArchiveLearnFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, errors.Wrap(err, "open learn file")
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, errors.Wrap(err, "create archive")
	}

	enc, err := zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		out.Close()
		return 0, errors.Wrap(err, "create zstd encoder")
	}

	n, err := io.Copy(enc, in)
	if err != nil {
		enc.Close()
		out.Close()
		return n, errors.Wrap(err, "compress learn file")
	}
	if err := enc.Close(); err != nil {
		out.Close()
		return n, errors.Wrap(err, "finish archive")
	}
	return n, errors.Wrap(out.Close(), "close archive")
}

// RestoreLearnFile decompresses an archive written by ArchiveLearnFile
// into dst, replacing it.
func RestoreLearnFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, errors.Wrap(err, "open archive")
	}
	defer in.Close()

	dec, err := zstd.NewReader(in)
	if err != nil {
		return 0, errors.Wrap(err, "create zstd decoder")
	}
	defer dec.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, errors.Wrap(err, "create learn file")
	}

	n, err := io.Copy(out, dec)
	if err != nil {
		out.Close()
		return n, errors.Wrap(err, "decompress archive")
	}
	return n, errors.Wrap(out.Close(), "close learn file")
}
