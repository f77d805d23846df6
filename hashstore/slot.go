package hashstore

import "encoding/binary"

// entryBlockBitsFor returns ceil(log2(maxEntriesPerBlock+1)), the number of
// low bits of an encoded position spent on the in-block entry ordinal.
func entryBlockBitsFor(maxEntriesPerBlock uint32) uint32 {
	n := uint64(maxEntriesPerBlock) + 1
	var bits uint32
	for uint64(1)<<bits < n {
		bits++
	}
	return bits
}

// encodePosition packs a block start offset and an in-block entry ordinal
// into the single 64-bit value stored per index slot.
func encodePosition(blockStart uint64, entryIndex uint32, entryBlockBits uint32) uint64 {
	return (blockStart << entryBlockBits) | uint64(entryIndex)
}

// decodePosition is the inverse of encodePosition.
func decodePosition(encoded uint64, entryBlockBits uint32) (blockStart uint64, entryIndex uint32) {
	mask := (uint64(1) << entryBlockBits) - 1
	return encoded >> entryBlockBits, uint32(encoded & mask)
}

func getUintLE(src []byte, width uint32) uint64 {
	if width == 4 {
		return uint64(binary.LittleEndian.Uint32(src))
	}
	return binary.LittleEndian.Uint64(src)
}

func putUintLE(dst []byte, v uint64, width uint32) {
	if width == 4 {
		binary.LittleEndian.PutUint32(dst, uint32(v))
	} else {
		binary.LittleEndian.PutUint64(dst, v)
	}
}

// readSlot decodes the (storedHash, encodedPosition) tuple at slot index i
// within a mapped slot table.
func readSlot(table []byte, i uint64, hashSize, addressSize uint32) (storedHash, encodedPosition uint64) {
	width := uint64(hashSize + addressSize)
	off := i * width
	storedHash = getUintLE(table[off:off+uint64(hashSize)], hashSize)
	encodedPosition = getUintLE(table[off+uint64(hashSize):off+width], addressSize)
	return
}

func writeSlot(table []byte, i uint64, hashSize, addressSize uint32, storedHash, encodedPosition uint64) {
	width := uint64(hashSize + addressSize)
	off := i * width
	putUintLE(table[off:off+uint64(hashSize)], storedHash, hashSize)
	putUintLE(table[off+uint64(hashSize):off+width], encodedPosition, addressSize)
}

// isEmptySlot reports whether the slot at i holds no entry. An all-zero
// slot is empty because block 0 is always the header and can never be a
// valid entry position.
func isEmptySlot(table []byte, i uint64, hashSize, addressSize uint32) bool {
	storedHash, encodedPosition := readSlot(table, i, hashSize, addressSize)
	return storedHash == 0 && encodedPosition == 0
}
