package logstore

import (
	"math/rand"
	"os"

	"github.com/golang/snappy"

	"github.com/dflemstr/sparkey-go/sparkeyerr"
	"github.com/dflemstr/sparkey-go/vlq"
)

// Writer appends put/delete entries to a .spl file. A Writer is a single
// owner of its file; callers must Close it (Close flushes first).
type Writer struct {
	path   string
	file   *os.File
	header header
	closed bool

	blockBuf        []byte
	blockEntryCount uint32
}

// Create truncates (or creates) the log at path, writes a provisional
// header with a freshly chosen file identifier, and returns a Writer ready
// to accept Put/Delete calls.
//
// blockSize is ignored (and should be 0) when compression is
// CompressionNone; for CompressionSnappy it is the maximum decompressed
// size of each framed block and must be at least 10.
func Create(path string, compression CompressionType, blockSize uint32) (*Writer, error) {
	if compression == CompressionSnappy && blockSize < 10 {
		return nil, sparkeyerr.WithPath(sparkeyerr.InvalidCompressionBlockSize, path, nil)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, sparkeyerr.WithPath(sparkeyerr.IO, path, err)
	}

	h := header{
		Magic:                logMagic,
		Major:                logMajorVersion,
		Minor:                logMinorVersion,
		FileIdentifier:       rand.Uint32(),
		DataEnd:              uint64(logHeaderSize),
		CompressionType:      uint32(compression),
		CompressionBlockSize: blockSize,
	}
	if err := h.store(f); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.Seek(int64(logHeaderSize), 0); err != nil {
		f.Close()
		return nil, sparkeyerr.WithPath(sparkeyerr.IO, path, err)
	}

	return &Writer{path: path, file: f, header: h}, nil
}

// Append opens an existing log for continued writing, positioned at its
// recorded data_end.
func Append(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, sparkeyerr.WithPath(sparkeyerr.IO, path, err)
	}
	h, err := loadHeader(path, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.Seek(int64(h.DataEnd), 0); err != nil {
		f.Close()
		return nil, sparkeyerr.WithPath(sparkeyerr.IO, path, err)
	}

	w := &Writer{path: path, file: f, header: h}
	if h.compression() == CompressionNone {
		// The whole payload is one conceptual block; resume its entry
		// count instead of starting a new one, or a later Flush would
		// shrink max_entries_per_block back down to just this session's
		// entries.
		w.blockEntryCount = h.MaxEntriesPerBlock
	}
	return w, nil
}

// FileIdentifier is the identifier stamped into the log at Create time; an
// index built over this log must record the same value.
func (w *Writer) FileIdentifier() uint32 { return w.header.FileIdentifier }

// Put appends a put entry, encoding it into the pending block.
func (w *Writer) Put(key, value []byte) error {
	if w.closed {
		return sparkeyerr.New(sparkeyerr.LogClosed)
	}
	if err := w.stageEntry(Put, key, value); err != nil {
		return err
	}
	w.header.NumPuts++
	w.header.PutSize += uint64(entryEncodedLen(Put, key, value))
	if uint64(len(key)) > w.header.MaxKeyLen {
		w.header.MaxKeyLen = uint64(len(key))
	}
	if uint64(len(value)) > w.header.MaxValueLen {
		w.header.MaxValueLen = uint64(len(value))
	}
	return nil
}

// Delete appends a tombstone for key.
func (w *Writer) Delete(key []byte) error {
	if w.closed {
		return sparkeyerr.New(sparkeyerr.LogClosed)
	}
	if err := w.stageEntry(Delete, key, nil); err != nil {
		return err
	}
	w.header.NumDeletes++
	w.header.DeleteSize += uint64(entryEncodedLen(Delete, key, nil))
	if uint64(len(key)) > w.header.MaxKeyLen {
		w.header.MaxKeyLen = uint64(len(key))
	}
	return nil
}

func (w *Writer) stageEntry(kind EntryKind, key, value []byte) error {
	if w.header.compression() == CompressionSnappy {
		entryLen := entryEncodedLen(kind, key, value)
		if len(w.blockBuf) > 0 && uint32(len(w.blockBuf)+entryLen) > w.header.CompressionBlockSize {
			if err := w.finalizeBlock(); err != nil {
				return err
			}
		}
	}
	w.blockBuf = appendEntry(w.blockBuf, kind, key, value)
	w.blockEntryCount++
	return nil
}

// finalizeBlock writes the pending block to disk: raw bytes for an
// uncompressed log, a VLQ-framed Snappy chunk otherwise.
//
// An uncompressed log has no block boundaries at all: the entire payload
// region is one conceptual block (spec.md §3), so max_entries_per_block
// must end up counting every entry ever written, not just the ones staged
// since the last Flush. A Snappy log really does cut independent blocks,
// so there max_entries_per_block is the largest single finalized chunk.
func (w *Writer) finalizeBlock() error {
	if len(w.blockBuf) == 0 {
		return nil
	}
	if w.header.compression() == CompressionSnappy {
		compressed := snappy.Encode(nil, w.blockBuf)
		out := vlq.Append(nil, uint64(len(compressed)))
		out = append(out, compressed...)
		if _, err := w.file.Write(out); err != nil {
			return sparkeyerr.WithPath(sparkeyerr.IO, w.path, err)
		}
		w.header.DataEnd += uint64(len(out))
		if w.blockEntryCount > w.header.MaxEntriesPerBlock {
			w.header.MaxEntriesPerBlock = w.blockEntryCount
		}
		w.blockBuf = w.blockBuf[:0]
		w.blockEntryCount = 0
		return nil
	}

	if _, err := w.file.Write(w.blockBuf); err != nil {
		return sparkeyerr.WithPath(sparkeyerr.IO, w.path, err)
	}
	w.header.DataEnd += uint64(len(w.blockBuf))
	w.header.MaxEntriesPerBlock = w.blockEntryCount
	w.blockBuf = w.blockBuf[:0]
	return nil
}

// Flush finalizes the pending block, fsyncs the file, and rewrites the
// header with up-to-date counters. Entries become visible to readers that
// open the file only after Flush returns.
func (w *Writer) Flush() error {
	if w.closed {
		return sparkeyerr.New(sparkeyerr.LogClosed)
	}
	if err := w.finalizeBlock(); err != nil {
		return err
	}
	if err := w.file.Sync(); err != nil {
		return sparkeyerr.WithPath(sparkeyerr.IO, w.path, err)
	}
	if err := w.header.store(w.file); err != nil {
		return err
	}
	return nil
}

// Close flushes pending data and closes the file. Close is idempotent; a
// failure during the implicit flush is returned, not silently discarded.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	flushErr := w.Flush()
	w.closed = true
	if err := w.file.Close(); err != nil {
		if flushErr == nil {
			return sparkeyerr.WithPath(sparkeyerr.IO, w.path, err)
		}
	}
	return flushErr
}
