package logstore

import (
	"io"

	"github.com/golang/snappy"

	"github.com/dflemstr/sparkey-go/sparkeyerr"
	"github.com/dflemstr/sparkey-go/vlq"
)

// blockCursor decodes a sequential run of entries starting at a given file
// offset. For an uncompressed log the "block" is the whole payload region
// and the cursor just walks the mapping directly. For a Snappy log the
// cursor decodes one framed, independently-compressed block at a time and
// hops to the next frame once the current one is exhausted.
type blockCursor struct {
	r *Reader

	// uncompressed mode
	pos uint64

	// snappy mode
	blockStart   uint64
	content      []byte
	contentOff   int
	blockFileEnd uint64
	loaded       bool

	// position of the entry most recently returned by next(), used by the
	// index builder to record where each entry lives.
	ordinal        uint32
	lastBlockStart uint64
	lastEntryIndex uint32
}

// newBlockCursor seeds a cursor at blockStart, which the caller guarantees
// is the start of a block (the whole payload, for uncompressed logs; a
// framed Snappy chunk boundary, for compressed ones).
func newBlockCursor(r *Reader, blockStart uint64) *blockCursor {
	if r.header.compression() == CompressionNone {
		return &blockCursor{r: r, pos: blockStart}
	}
	return &blockCursor{r: r, blockStart: blockStart}
}

// next decodes and returns the next entry, advancing the cursor. It returns
// io.EOF once the payload region is exhausted.
func (c *blockCursor) next() (Entry, error) {
	if c.r.header.compression() == CompressionNone {
		return c.nextUncompressed()
	}
	return c.nextSnappy()
}

func (c *blockCursor) nextUncompressed() (Entry, error) {
	dataEnd := c.r.header.DataEnd
	if c.pos >= dataEnd {
		return Entry{}, io.EOF
	}
	e, n, err := decodeEntry(c.r.mapping[c.pos:dataEnd])
	if err != nil {
		return Entry{}, err
	}
	c.lastBlockStart = uint64(logHeaderSize)
	c.lastEntryIndex = c.ordinal
	c.ordinal++
	c.pos += uint64(n)
	return e, nil
}

func (c *blockCursor) nextSnappy() (Entry, error) {
	if !c.loaded || c.contentOff >= len(c.content) {
		if c.loaded {
			c.blockStart = c.blockFileEnd
		}
		if c.blockStart >= c.r.header.DataEnd {
			return Entry{}, io.EOF
		}
		if err := c.loadBlock(); err != nil {
			return Entry{}, err
		}
	}
	e, n, err := decodeEntry(c.content[c.contentOff:])
	if err != nil {
		return Entry{}, err
	}
	c.lastBlockStart = c.blockStart
	c.lastEntryIndex = c.ordinal
	c.ordinal++
	c.contentOff += n
	return e, nil
}

// position returns the (blockStart, entryIndex) of the entry most recently
// returned by next().
func (c *blockCursor) position() (uint64, uint32) {
	return c.lastBlockStart, c.lastEntryIndex
}

func (c *blockCursor) loadBlock() error {
	dataEnd := c.r.header.DataEnd
	if c.blockStart >= uint64(len(c.r.mapping)) || c.blockStart >= dataEnd {
		return sparkeyerr.New(sparkeyerr.LogTooSmall)
	}
	compressedSize, vlqLen, err := vlq.Read(c.r.mapping[c.blockStart:dataEnd])
	if err != nil {
		return err
	}
	payloadStart := c.blockStart + uint64(vlqLen)
	payloadEnd := payloadStart + compressedSize
	if payloadEnd > dataEnd || payloadEnd > uint64(len(c.r.mapping)) {
		return sparkeyerr.New(sparkeyerr.LogTooSmall)
	}
	content, err := snappy.Decode(nil, c.r.mapping[payloadStart:payloadEnd])
	if err != nil {
		return sparkeyerr.Newf(sparkeyerr.IO, "decompressing block at %d: %w", c.blockStart, err)
	}
	c.content = content
	c.contentOff = 0
	c.blockFileEnd = payloadEnd
	c.loaded = true
	c.ordinal = 0
	return nil
}
