// Package hashstore implements the open-addressed hash table (.spi file)
// that maps keys to positions in a paired .spl log: the index builder
// (this file) folds a log into a live key set and emits a Robin-Hood
// hash table, and the reader (reader.go) serves lookups against it.
package hashstore

import (
	"sort"

	"github.com/google/renameio"

	"github.com/dflemstr/sparkey-go/logstore"
	"github.com/dflemstr/sparkey-go/sparkeyerr"
)

// targetLoadFactor is the index builder's chosen occupancy ratio. spec.md
// §9 leaves this undetermined within [0.5, 0.8]; 0.7 keeps average probe
// length low without wasting much space. See DESIGN.md.
const targetLoadFactor = 0.7

// BuildOptions configures an index build.
type BuildOptions struct {
	Algorithm Algorithm
	// Seed is the hash_seed stamped into the header and used for every
	// probe. Build never chooses one on the caller's behalf: reproducible
	// tests need a fixed seed, and the sparkey facade package supplies a
	// random one when a caller doesn't care.
	Seed uint32
}

type foldedEntry struct {
	key        string
	blockStart uint64
	entryIndex uint32
	isPut      bool
}

// Build scans log sequentially, folds duplicate keys (last write wins,
// deletes become tombstones), sizes a table for the live put count, and
// writes a complete .spi to hashPath via a temp file plus atomic rename.
func Build(log *logstore.Reader, hashPath string, opts BuildOptions) error {
	folded, err := foldLog(log)
	if err != nil {
		return err
	}

	live := folded[:0:0]
	for _, f := range folded {
		if f.isPut {
			live = append(live, f)
		}
	}
	// Sort by log position so the fill phase has a fixed, reproducible
	// insertion order: which of two entries with equal displacement keeps
	// a contested slot depends on which was inserted first, so iterating
	// a Go map directly would vary the slot table and the
	// max_displacement/total_displacement/hash_collisions counters from
	// run to run. This keeps Build's whole output reproducible.
	sort.Slice(live, func(i, j int) bool {
		if live[i].blockStart != live[j].blockStart {
			return live[i].blockStart < live[j].blockStart
		}
		return live[i].entryIndex < live[j].entryIndex
	})

	addressSize := uint32(4)
	if log.DataEnd() >= 1<<32 {
		addressSize = 8
	}
	hashSize := opts.Algorithm.hashSize()
	entryBlockBits := entryBlockBitsFor(log.MaxEntriesPerBlock())

	capacity := sizeTable(uint64(len(live)))

	table := make([]byte, capacity*uint64(hashSize+addressSize))
	var stats buildStats
	for _, f := range live {
		h := opts.Algorithm.hash([]byte(f.key), opts.Seed)
		pos := encodePosition(f.blockStart, f.entryIndex, entryBlockBits)
		insertRobinHood(table, capacity, hashSize, addressSize, h, pos, &stats)
	}

	h := header{
		Magic:             hashMagic,
		Major:             hashMajorVersion,
		Minor:             hashMinorVersion,
		FileIdentifier:    log.FileIdentifier(),
		HashSeed:          opts.Seed,
		DataEnd:           uint64(hashHeaderSize) + capacity*uint64(hashSize+addressSize),
		MaxKeyLen:         log.MaxKeyLen(),
		MaxValueLen:       log.MaxValueLen(),
		NumPuts:           log.NumPuts(),
		GarbageSize:       0,
		NumEntries:        uint64(len(live)),
		AddressSize:       addressSize,
		HashSize:          hashSize,
		HashCapacity:      capacity,
		MaxDisplacement:   stats.maxDisplacement,
		EntryBlockBits:    entryBlockBits,
		HashCollisions:    stats.hashCollisions,
		TotalDisplacement: stats.totalDisplacement,
	}

	return writeHashFile(hashPath, h, table)
}

// foldLog performs Phase 1: a sequential scan that keeps only the most
// recent occurrence of each key, recording whether it was a put or a
// delete tombstone.
func foldLog(log *logstore.Reader) ([]foldedEntry, error) {
	index := make(map[string]int)
	var folded []foldedEntry

	it := log.Entries()
	for {
		e, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		blockStart, entryIndex := it.Position()
		key := string(e.Key)
		fe := foldedEntry{
			key:        key,
			blockStart: blockStart,
			entryIndex: entryIndex,
			isPut:      e.Kind == logstore.Put,
		}
		if i, exists := index[key]; exists {
			folded[i] = fe
		} else {
			index[key] = len(folded)
			folded = append(folded, fe)
		}
	}
	return folded, nil
}

// sizeTable implements Phase 2: pick a capacity that keeps occupancy at or
// below targetLoadFactor, rounded up to a power of two (see DESIGN.md).
func sizeTable(liveCount uint64) uint64 {
	if liveCount == 0 {
		return 1
	}
	need := uint64(float64(liveCount)/targetLoadFactor) + 1
	capacity := uint64(1)
	for capacity < need {
		capacity <<= 1
	}
	return capacity
}

type buildStats struct {
	maxDisplacement   uint64
	totalDisplacement uint64
	hashCollisions    uint64
}

// insertRobinHood implements Phase 3's probe sequence: walk slots from the
// ideal slot forward, swapping the incoming entry in whenever the occupant
// has a smaller displacement than the one currently being placed.
func insertRobinHood(table []byte, capacity uint64, hashSize, addressSize uint32, hash, pos uint64, stats *buildStats) {
	slot := hash % capacity
	curHash, curPos := hash, pos
	var displacement uint64

	for {
		if isEmptySlot(table, slot, hashSize, addressSize) {
			writeSlot(table, slot, hashSize, addressSize, curHash, curPos)
			recordDisplacement(stats, displacement)
			return
		}

		occHash, occPos := readSlot(table, slot, hashSize, addressSize)
		if occHash == curHash {
			stats.hashCollisions++
		}
		occIdeal := occHash % capacity
		occDisplacement := (capacity + slot - occIdeal) % capacity

		if occDisplacement < displacement {
			writeSlot(table, slot, hashSize, addressSize, curHash, curPos)
			recordDisplacement(stats, displacement)
			curHash, curPos = occHash, occPos
			displacement = occDisplacement
		}

		slot = (slot + 1) % capacity
		displacement++
	}
}

func recordDisplacement(stats *buildStats, displacement uint64) {
	if displacement > stats.maxDisplacement {
		stats.maxDisplacement = displacement
	}
	stats.totalDisplacement += displacement
}

func writeHashFile(path string, h header, table []byte) error {
	headerBytes, err := h.encode()
	if err != nil {
		return err
	}

	f, err := renameio.TempFile("", path)
	if err != nil {
		return sparkeyerr.WithPath(sparkeyerr.IO, path, err)
	}
	defer f.Cleanup()

	if _, err := f.Write(headerBytes); err != nil {
		return sparkeyerr.WithPath(sparkeyerr.IO, path, err)
	}
	if _, err := f.Write(table); err != nil {
		return sparkeyerr.WithPath(sparkeyerr.IO, path, err)
	}
	if err := f.CloseAtomicallyReplace(); err != nil {
		return sparkeyerr.WithPath(sparkeyerr.IO, path, err)
	}
	return nil
}
