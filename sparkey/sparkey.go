// Package sparkey pairs a hashstore index with its logstore log behind a
// single Writer/Reader API, the way original_source/src/lib.rs combines the
// two halves of the format into one crate-level interface.
package sparkey

import (
	"math/rand"
	"strings"

	"github.com/dflemstr/sparkey-go/hashstore"
	"github.com/dflemstr/sparkey-go/logstore"
)

// WriterOptions configures a Writer.
type WriterOptions struct {
	Compression          logstore.CompressionType
	CompressionBlockSize uint32
	// AutoIndex rebuilds the .spi index from the just-written .spl on
	// every Close, mirroring the original CLI's `put --auto-index` flag.
	AutoIndex bool
	Algorithm hashstore.Algorithm
	// Seed is the hash_seed to build with when AutoIndex is set. Zero
	// means "pick a random one", matching original_source/src/hash.rs's
	// treatment of an absent --hash-seed.
	Seed uint32
}

// IndexPath derives the conventional .spi path for a .spl at logPath: a
// trailing .spl is replaced by .spi, and any other path gets .spi appended.
func IndexPath(logPath string) string {
	return strings.TrimSuffix(logPath, ".spl") + ".spi"
}

// Writer appends entries to a log and optionally reindexes it on Close.
type Writer struct {
	log  *logstore.Writer
	path string
	opts WriterOptions
}

// Create starts a new log at path ready to accept Put/Delete calls.
func Create(path string, opts WriterOptions) (*Writer, error) {
	w, err := logstore.Create(path, opts.Compression, opts.CompressionBlockSize)
	if err != nil {
		return nil, err
	}
	return &Writer{log: w, path: path, opts: opts}, nil
}

// Append resumes writing an existing log at path.
func Append(path string, opts WriterOptions) (*Writer, error) {
	w, err := logstore.Append(path)
	if err != nil {
		return nil, err
	}
	return &Writer{log: w, path: path, opts: opts}, nil
}

func (w *Writer) Put(key, value []byte) error { return w.log.Put(key, value) }
func (w *Writer) Delete(key []byte) error     { return w.log.Delete(key) }
func (w *Writer) Flush() error                { return w.log.Flush() }
func (w *Writer) FileIdentifier() uint32      { return w.log.FileIdentifier() }

// Close flushes the log and, if AutoIndex was requested, rebuilds the
// paired .spi from the just-closed log.
func (w *Writer) Close() error {
	if err := w.log.Close(); err != nil {
		return err
	}
	if !w.opts.AutoIndex {
		return nil
	}
	logReader, err := logstore.Open(w.path)
	if err != nil {
		return err
	}
	defer logReader.Close()

	seed := w.opts.Seed
	if seed == 0 {
		seed = rand.Uint32()
	}
	return hashstore.Build(logReader, IndexPath(w.path), hashstore.BuildOptions{
		Algorithm: w.opts.Algorithm,
		Seed:      seed,
	})
}

// Index builds (or rebuilds) the .spi for an existing log without
// reopening it for writing; the index CLI subcommand uses this.
func Index(logPath string, algorithm hashstore.Algorithm, seed uint32) error {
	logReader, err := logstore.Open(logPath)
	if err != nil {
		return err
	}
	defer logReader.Close()
	if seed == 0 {
		seed = rand.Uint32()
	}
	return hashstore.Build(logReader, IndexPath(logPath), hashstore.BuildOptions{Algorithm: algorithm, Seed: seed})
}

// Reader pairs an open index with its log and serves lookups and full
// scans over the live key set.
type Reader struct {
	log *logstore.Reader
	idx *hashstore.Reader
}

// Open opens the log at logPath and the index at IndexPath(logPath),
// validating that the pair's file identifiers match (spec.md §4.9).
func Open(logPath string) (*Reader, error) {
	logReader, err := logstore.Open(logPath)
	if err != nil {
		return nil, err
	}
	idxReader, err := hashstore.Open(IndexPath(logPath), logReader)
	if err != nil {
		logReader.Close()
		return nil, err
	}
	return &Reader{log: logReader, idx: idxReader}, nil
}

// Close closes both the index and the log.
func (r *Reader) Close() error {
	idxErr := r.idx.Close()
	logErr := r.log.Close()
	if idxErr != nil {
		return idxErr
	}
	return logErr
}

// Get looks up key, returning (nil, false, nil) if it has no live entry.
func (r *Reader) Get(key []byte) ([]byte, bool, error) { return r.idx.Get(key) }

// NumEntries is the number of live puts this reader serves.
func (r *Reader) NumEntries() uint64 { return r.idx.NumEntries() }

// NumCollisions is the hash_collisions counter recorded at build time.
func (r *Reader) NumCollisions() uint64 { return r.idx.HashCollisions() }

// MaxDisplacement is the largest Robin-Hood probe distance recorded at
// build time.
func (r *Reader) MaxDisplacement() uint64 { return r.idx.MaxDisplacement() }

// Entries implements spec.md §4.10's full scan: walk the log directly,
// folding to the most recent occurrence per key, and yield each surviving
// put exactly once in first-occurrence order. fn is called for each; a
// non-nil return from fn aborts the scan and is returned from Entries.
func (r *Reader) Entries(fn func(key, value []byte) error) error {
	type slot struct {
		idx   int
		value []byte
		live  bool
	}
	seen := make(map[string]*slot)
	var order []string

	it := r.log.Entries()
	for {
		e, ok, err := it.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		key := string(e.Key)
		if s, exists := seen[key]; exists {
			s.live = e.Kind == logstore.Put
			if s.live {
				s.value = append([]byte(nil), e.Value...)
			}
			continue
		}
		s := &slot{idx: len(order), live: e.Kind == logstore.Put}
		if s.live {
			s.value = append([]byte(nil), e.Value...)
		}
		seen[key] = s
		order = append(order, key)
	}

	for _, key := range order {
		s := seen[key]
		if !s.live {
			continue
		}
		if err := fn([]byte(key), s.value); err != nil {
			return err
		}
	}
	return nil
}

// Keys projects Entries onto just the key.
func (r *Reader) Keys(fn func(key []byte) error) error {
	return r.Entries(func(key, _ []byte) error { return fn(key) })
}

// Values projects Entries onto just the value.
func (r *Reader) Values(fn func(value []byte) error) error {
	return r.Entries(func(_, value []byte) error { return fn(value) })
}

// Prune reads every live entry of the log at logPath and writes a fresh,
// tombstone-free log to outPath, building its index on close when
// opts.AutoIndex is set — the original
// CLI's `prune` subcommand expressed over the primitives built here.
func Prune(logPath, outPath string, opts WriterOptions) error {
	reader, err := Open(logPath)
	if err != nil {
		return err
	}
	defer reader.Close()

	writer, err := Create(outPath, opts)
	if err != nil {
		return err
	}

	if err := reader.Entries(func(key, value []byte) error {
		return writer.Put(key, value)
	}); err != nil {
		writer.Close()
		return err
	}

	return writer.Close()
}
