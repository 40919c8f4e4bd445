package engine

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/hailam/chessmemo/internal/board"
)

// Learn file format: no header, no checksum. Records of LearnEntrySize
// bytes, White[n] then Black[n] for n = 0..mask:
//   0-7   key   (little-endian uint64)
//   8-9   value (little-endian int16)
//   10-15 zero
// A file is only meaningful to a build with the same table size and
// key seed, which is why its name carries the version.

// LearnFileName returns the learn file name for a build version.
func LearnFileName(version string) string {
	return "learn-" + version + ".bin"
}

// WriteTo streams both tables in index order, interleaving the sides.
func (lt *LearnTable) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var rec [LearnEntrySize]byte
	var written int64

	for n := uint64(0); n < lt.size; n++ {
		for c := board.White; c <= board.Black; c++ {
			e := lt.entries[c][n]
			binary.LittleEndian.PutUint64(rec[0:8], e.Key)
			binary.LittleEndian.PutUint16(rec[8:10], uint16(e.Value))

			k, err := bw.Write(rec[:])
			written += int64(k)
			if err != nil {
				return written, errors.Wrap(err, "write learn record")
			}
		}
	}

	if err := bw.Flush(); err != nil {
		return written, errors.Wrap(err, "flush learn records")
	}
	return written, nil
}

// ReadFrom fills both tables from a stream written by WriteTo. A stream
// shorter than the table leaves the remaining slots empty; the record
// count read is reported through the byte count.
func (lt *LearnTable) ReadFrom(r io.Reader) (int64, error) {
	lt.Clear()

	br := bufio.NewReader(r)
	var rec [LearnEntrySize]byte
	var read int64

	for n := uint64(0); n < lt.size; n++ {
		for c := board.White; c <= board.Black; c++ {
			k, err := io.ReadFull(br, rec[:])
			read += int64(k)
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return read, nil
			}
			if err != nil {
				return read, errors.Wrap(err, "read learn record")
			}

			lt.entries[c][n] = LearnEntry{
				Key:   binary.LittleEndian.Uint64(rec[0:8]),
				Value: int16(binary.LittleEndian.Uint16(rec[8:10])),
			}
		}
	}
	return read, nil
}

// SaveFile writes the table to path, replacing any previous file.
func (lt *LearnTable) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create learn file")
	}

	if _, err := lt.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "close learn file")
	}

	lt.log.Debug().Str("path", path).Msg("saved learn file")
	return nil
}

// LoadFile reads the table from path. A missing file is not an error:
// the current (empty) table is written there first and then read back,
// so a first run takes the same path as every later one.
func (lt *LearnTable) LoadFile(path string) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := lt.SaveFile(path); err != nil {
			return err
		}
		lt.log.Info().Str("path", path).Msg("created empty learn file")
		f, err = os.Open(path)
	}
	if err != nil {
		return errors.Wrap(err, "open learn file")
	}
	defer f.Close()

	n, err := lt.ReadFrom(f)
	if err != nil {
		return errors.Wrapf(err, "load %s", path)
	}

	if want := int64(lt.Bytes()); n != want {
		lt.log.Warn().
			Str("path", path).
			Int64("bytes", n).
			Int64("expected", want).
			Msg("learn file size does not match table size")
	}

	s := lt.Summary()
	lt.log.Info().
		Str("path", path).
		Int("positions", s.Positions).
		Int("highest", s.Highest).
		Msg("loaded learn file")
	return nil
}
