package hashstore

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/dflemstr/sparkey-go/sparkeyerr"
)

const (
	hashMagic        uint32 = 0x9a11318f
	hashMajorVersion uint32 = 1
	hashMinorVersion uint32 = 1
	hashHeaderSize   uint32 = 112
)

// header is the 112-byte prelude at offset 0 of a .spi file.
type header struct {
	Magic             uint32
	Major             uint32
	Minor             uint32
	FileIdentifier    uint32
	HashSeed          uint32
	DataEnd           uint64
	MaxKeyLen         uint64
	MaxValueLen       uint64
	NumPuts           uint64
	GarbageSize       uint64
	NumEntries        uint64
	AddressSize       uint32
	HashSize          uint32
	HashCapacity      uint64
	MaxDisplacement   uint64
	EntryBlockBits    uint32
	HashCollisions    uint64
	TotalDisplacement uint64
}

func loadHeader(path string, f *os.File) (header, error) {
	var h header
	buf := make([]byte, hashHeaderSize)
	if _, err := io.ReadFull(f, buf); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return header{}, sparkeyerr.WithPath(sparkeyerr.HashTooSmall, path, nil)
		}
		return header{}, sparkeyerr.WithPath(sparkeyerr.IO, path, err)
	}
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &h); err != nil {
		return header{}, sparkeyerr.WithPath(sparkeyerr.IO, path, err)
	}

	if h.Magic != hashMagic {
		return header{}, sparkeyerr.WithPath(sparkeyerr.WrongHashMagicNumber, path, nil)
	}
	if h.Major != hashMajorVersion {
		return header{}, sparkeyerr.WithPath(sparkeyerr.WrongHashMajorVersion, path, nil)
	}
	if h.Minor > hashMinorVersion {
		return header{}, sparkeyerr.WithPath(sparkeyerr.UnsupportedHashMinorVersion, path, nil)
	}
	if h.HashSize != 4 && h.HashSize != 8 {
		return header{}, sparkeyerr.WithPath(sparkeyerr.InvalidHashSize, path, nil)
	}
	if h.AddressSize != 4 && h.AddressSize != 8 {
		return header{}, sparkeyerr.WithPath(sparkeyerr.InvalidAddressSize, path, nil)
	}
	slotWidth := uint64(h.HashSize + h.AddressSize)
	if h.DataEnd != uint64(hashHeaderSize)+h.HashCapacity*slotWidth {
		return header{}, sparkeyerr.WithPath(sparkeyerr.HashHeaderCorrupt, path, nil)
	}

	return h, nil
}

func (h header) encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(int(hashHeaderSize))
	if err := binary.Write(&buf, binary.LittleEndian, &h); err != nil {
		return nil, sparkeyerr.Newf(sparkeyerr.IO, "encoding hash header: %w", err)
	}
	return buf.Bytes(), nil
}

func (h header) slotWidth() uint64 { return uint64(h.HashSize + h.AddressSize) }
