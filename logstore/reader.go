package logstore

import (
	"io"
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/dflemstr/sparkey-go/sparkeyerr"
)

// Reader is a read-only, memory-mapped view of a .spl file.
type Reader struct {
	path    string
	file    *os.File
	mapping mmap.MMap
	header  header
	closed  bool
}

// Open loads the header of the log at path and memory-maps its payload
// region [0, data_end).
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, sparkeyerr.WithPath(sparkeyerr.IO, path, err)
	}
	h, err := loadHeader(path, f)
	if err != nil {
		f.Close()
		return nil, err
	}

	var m mmap.MMap
	if h.DataEnd > uint64(logHeaderSize) {
		m, err = mmap.MapRegion(f, int(h.DataEnd), mmap.RDONLY, 0, 0)
		if err != nil {
			f.Close()
			return nil, sparkeyerr.WithPath(sparkeyerr.MmapFailed, path, err)
		}
	} else {
		// Nothing but the header has ever been written; there is no
		// payload region to map.
		m = mmap.MMap{}
	}

	return &Reader{path: path, file: f, mapping: m, header: h}, nil
}

// Close unmaps the payload region and closes the underlying file. Entries
// iterators obtained from this Reader must not be used afterwards.
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

// FileIdentifier is the random identifier assigned when this log was
// created; a paired .spi must carry the same value.
func (r *Reader) FileIdentifier() uint32 { return r.header.FileIdentifier }

// DataEnd is the file offset immediately after the last flushed byte.
func (r *Reader) DataEnd() uint64 { return r.header.DataEnd }

// NumPuts is the running tally of put entries ever appended (including ones
// later superseded).
func (r *Reader) NumPuts() uint64 { return r.header.NumPuts }

// NumDeletes is the running tally of delete (tombstone) entries appended.
func (r *Reader) NumDeletes() uint64 { return r.header.NumDeletes }

// MaxKeyLen is the longest key ever appended to this log.
func (r *Reader) MaxKeyLen() uint64 { return r.header.MaxKeyLen }

// MaxValueLen is the longest value ever appended to this log.
func (r *Reader) MaxValueLen() uint64 { return r.header.MaxValueLen }

// MaxEntriesPerBlock is the largest entry count produced in any finalized
// block; it sizes the entry-index bitfield of an index built over this log.
func (r *Reader) MaxEntriesPerBlock() uint32 { return r.header.MaxEntriesPerBlock }

// Compression reports whether this log's payload is Snappy-framed.
func (r *Reader) Compression() CompressionType { return r.header.compression() }

// HeaderSize returns the conceptual start of the block region: header_size
// for an uncompressed log, and the first framed block's offset for Snappy.
// Both are simply logHeaderSize; the distinction is only in how the bytes
// after it are interpreted.
func (r *Reader) HeaderSize() uint64 { return uint64(logHeaderSize) }

// Entries returns an iterator over every entry in insertion order, starting
// from the beginning of the log.
func (r *Reader) Entries() *EntryIter {
	return &EntryIter{cursor: newBlockCursor(r, uint64(logHeaderSize)), reader: r}
}

// EntriesAt seeds an iterator at a specific block start offset. The caller
// (normally the index builder or an index lookup) is responsible for
// supplying a valid block boundary; a mismatched offset yields corrupt
// decodes surfaced as UnexpectedEOF/LogTooSmall errors, never undefined
// behavior.
func (r *Reader) EntriesAt(blockStart uint64) *EntryIter {
	return &EntryIter{cursor: newBlockCursor(r, blockStart), reader: r}
}

// EntryIter walks entries one at a time. Key/Value slices returned by Next
// borrow from the Reader's mapping (or, for a Snappy log, from a per-block
// decompression buffer) and must not outlive the Reader.
type EntryIter struct {
	cursor *blockCursor
	reader *Reader
}

// Next decodes and returns the next entry. It returns (Entry{}, false, nil)
// once the log is exhausted.
func (it *EntryIter) Next() (Entry, bool, error) {
	if it.reader.closed {
		return Entry{}, false, sparkeyerr.New(sparkeyerr.LogIteratorClosed)
	}
	e, err := it.cursor.next()
	if err == io.EOF {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

// Position returns the (blockStart, entryIndex) of the entry most recently
// returned by Next, in the form the hashstore index builder stores.
func (it *EntryIter) Position() (blockStart uint64, entryIndex uint32) {
	return it.cursor.position()
}

// Skip advances past the next entry without returning it. It is used by
// index lookups to discard entries preceding the target entry index within
// a block.
func (it *EntryIter) Skip() error {
	_, _, err := it.Next()
	return err
}
