package hashstore

import (
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/dflemstr/sparkey-go/logstore"
	"github.com/dflemstr/sparkey-go/sparkeyerr"
)

// Reader is a read-only, memory-mapped view of a .spi file paired with the
// logstore.Reader it indexes. It does not own the log reader's lifecycle;
// the caller closes both.
type Reader struct {
	path    string
	file    *os.File
	mapping mmap.MMap
	header  header
	log     *logstore.Reader
	closed  bool
}

// Open loads the hash header at hashPath, checks that its file_identifier
// matches log's, and memory-maps the slot table.
func Open(hashPath string, log *logstore.Reader) (*Reader, error) {
	f, err := os.Open(hashPath)
	if err != nil {
		return nil, sparkeyerr.WithPath(sparkeyerr.IO, hashPath, err)
	}
	h, err := loadHeader(hashPath, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	if h.FileIdentifier != log.FileIdentifier() {
		f.Close()
		return nil, sparkeyerr.WithPath(sparkeyerr.FileIdentifierMismatch, hashPath, nil)
	}

	var m mmap.MMap
	if h.DataEnd > uint64(hashHeaderSize) {
		m, err = mmap.MapRegion(f, int(h.DataEnd), mmap.RDONLY, 0, 0)
		if err != nil {
			f.Close()
			return nil, sparkeyerr.WithPath(sparkeyerr.MmapFailed, hashPath, err)
		}
	} else {
		m = mmap.MMap{}
	}

	return &Reader{path: hashPath, file: f, mapping: m, header: h, log: log}, nil
}

// Close unmaps the slot table and closes the underlying file. It does not
// close the paired log reader.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	var err error
	if len(r.mapping) > 0 {
		if uerr := r.mapping.Unmap(); uerr != nil {
			err = sparkeyerr.WithPath(sparkeyerr.MmapFailed, r.path, uerr)
		}
	}
	if cerr := r.file.Close(); cerr != nil && err == nil {
		err = sparkeyerr.WithPath(sparkeyerr.IO, r.path, cerr)
	}
	return err
}

// FileIdentifier is the identifier shared with the paired log.
func (r *Reader) FileIdentifier() uint32 { return r.header.FileIdentifier }

// HashSeed is the seed used to compute every stored slot hash.
func (r *Reader) HashSeed() uint32 { return r.header.HashSeed }

// NumEntries is the number of live puts indexed.
func (r *Reader) NumEntries() uint64 { return r.header.NumEntries }

// Capacity is the number of slots in the table.
func (r *Reader) Capacity() uint64 { return r.header.HashCapacity }

// MaxDisplacement is the largest probe distance any slot required during
// build; a lookup that would probe further can stop immediately.
func (r *Reader) MaxDisplacement() uint64 { return r.header.MaxDisplacement }

// TotalDisplacement is the sum of every insertion's probe distance during
// build, exposed for diagnostics.
func (r *Reader) TotalDisplacement() uint64 { return r.header.TotalDisplacement }

// HashCollisions is the number of probes during build that landed on a
// slot whose stored hash equaled the incoming hash, including collisions
// detected mid Robin-Hood swap.
func (r *Reader) HashCollisions() uint64 { return r.header.HashCollisions }

// Get implements the probe-based lookup of 4.9: walk slots from the key's
// ideal slot, terminating on an empty slot, a displacement the table could
// never have produced (Robin-Hood's bound), or a matching key.
func (r *Reader) Get(key []byte) ([]byte, bool, error) {
	if r.closed {
		return nil, false, sparkeyerr.New(sparkeyerr.HashClosed)
	}
	capacity := r.header.HashCapacity
	if capacity == 0 {
		return nil, false, nil
	}
	algorithm := algorithmForHashSize(r.header.HashSize)
	h := algorithm.hash(key, r.header.HashSeed)
	slot := h % capacity
	var displacement uint64

	for displacement <= r.header.MaxDisplacement+1 {
		if isEmptySlot(r.mapping, slot, r.header.HashSize, r.header.AddressSize) {
			return nil, false, nil
		}
		storedHash, encodedPos := readSlot(r.mapping, slot, r.header.HashSize, r.header.AddressSize)
		occIdeal := storedHash % capacity
		occDisplacement := (capacity + slot - occIdeal) % capacity
		if occDisplacement < displacement {
			return nil, false, nil
		}
		if storedHash == h {
			blockStart, entryIndex := decodePosition(encodedPos, r.header.EntryBlockBits)
			entry, err := fetchEntry(r.log, blockStart, entryIndex)
			if err != nil {
				return nil, false, err
			}
			if string(entry.Key) == string(key) {
				return entry.Value, true, nil
			}
		}
		slot = (slot + 1) % capacity
		displacement++
	}
	return nil, false, sparkeyerr.New(sparkeyerr.HashHeaderCorrupt)
}

// fetchEntry follows an encoded index position into the log: seek to the
// block it names and discard entryIndex entries before decoding the
// target one.
func fetchEntry(log *logstore.Reader, blockStart uint64, entryIndex uint32) (logstore.Entry, error) {
	it := log.EntriesAt(blockStart)
	for i := uint32(0); i < entryIndex; i++ {
		if err := it.Skip(); err != nil {
			return logstore.Entry{}, err
		}
	}
	e, ok, err := it.Next()
	if err != nil {
		return logstore.Entry{}, err
	}
	if !ok {
		return logstore.Entry{}, sparkeyerr.New(sparkeyerr.LogTooSmall)
	}
	return e, nil
}
