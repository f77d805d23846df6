package logstore

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/dflemstr/sparkey-go/sparkeyerr"
)

const (
	logMagic        uint32 = 0x49b39c95
	logMajorVersion uint32 = 1
	logMinorVersion uint32 = 0
	logHeaderSize   uint32 = 84
)

// CompressionType identifies how entries are packed into blocks.
type CompressionType uint32

const (
	CompressionNone   CompressionType = 0
	CompressionSnappy CompressionType = 1
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionSnappy:
		return "snappy"
	default:
		return "unknown"
	}
}

// header is the 84-byte prelude at offset 0 of a .spl file. Field order and
// widths are part of the on-disk format; do not reorder or resize.
type header struct {
	Magic                uint32
	Major                uint32
	Minor                uint32
	FileIdentifier       uint32
	NumPuts              uint64
	NumDeletes           uint64
	DataEnd              uint64
	MaxKeyLen            uint64
	MaxValueLen          uint64
	DeleteSize           uint64
	CompressionType      uint32
	CompressionBlockSize uint32
	PutSize              uint64
	MaxEntriesPerBlock   uint32
}

func loadHeader(path string, f *os.File) (header, error) {
	var h header
	buf := make([]byte, logHeaderSize)
	if _, err := io.ReadFull(f, buf); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return header{}, sparkeyerr.WithPath(sparkeyerr.LogTooSmall, path, nil)
		}
		return header{}, sparkeyerr.WithPath(sparkeyerr.IO, path, err)
	}
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &h); err != nil {
		return header{}, sparkeyerr.WithPath(sparkeyerr.IO, path, err)
	}

	if h.Magic != logMagic {
		return header{}, sparkeyerr.WithPath(sparkeyerr.WrongLogMagicNumber, path, nil)
	}
	if h.Major != logMajorVersion {
		return header{}, sparkeyerr.WithPath(sparkeyerr.WrongLogMajorVersion, path, nil)
	}
	if h.Minor > logMinorVersion {
		return header{}, sparkeyerr.WithPath(sparkeyerr.UnsupportedLogMinorVersion, path, nil)
	}
	if h.CompressionType != uint32(CompressionNone) && h.CompressionType != uint32(CompressionSnappy) {
		return header{}, sparkeyerr.WithPath(sparkeyerr.InvalidCompressionType, path, nil)
	}
	if h.CompressionType == uint32(CompressionSnappy) && h.CompressionBlockSize < 10 {
		return header{}, sparkeyerr.WithPath(sparkeyerr.InvalidCompressionBlockSize, path, nil)
	}
	if h.DataEnd < uint64(logHeaderSize) {
		return header{}, sparkeyerr.WithPath(sparkeyerr.LogHeaderCorrupt, path, nil)
	}
	if h.NumPuts > h.DataEnd || h.NumDeletes > h.DataEnd {
		return header{}, sparkeyerr.WithPath(sparkeyerr.LogHeaderCorrupt, path, nil)
	}

	return h, nil
}

func (h header) store(f *os.File) error {
	var buf bytes.Buffer
	buf.Grow(int(logHeaderSize))
	if err := binary.Write(&buf, binary.LittleEndian, &h); err != nil {
		return sparkeyerr.Newf(sparkeyerr.IO, "encoding log header: %w", err)
	}
	if _, err := f.WriteAt(buf.Bytes(), 0); err != nil {
		return sparkeyerr.Newf(sparkeyerr.IO, "writing log header: %w", err)
	}
	return nil
}

func (h header) compression() CompressionType {
	return CompressionType(h.CompressionType)
}
