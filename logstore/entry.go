package logstore

import (
	"github.com/dflemstr/sparkey-go/sparkeyerr"
	"github.com/dflemstr/sparkey-go/vlq"
)

// EntryKind distinguishes a put from a delete (tombstone) record.
type EntryKind int

const (
	Put EntryKind = iota
	Delete
)

func (k EntryKind) String() string {
	if k == Put {
		return "put"
	}
	return "delete"
}

// Entry is one put or delete record. For a Delete, Value is nil. Key and
// Value may borrow directly from a reader's memory mapping: they must not
// be retained past the Reader's Close.
type Entry struct {
	Kind  EntryKind
	Key   []byte
	Value []byte
}

// appendEntry encodes an entry of the given kind onto dst and returns the
// extended slice. Folding the
// "is this a delete" tag into the first VLQ (a==0 means delete) avoids a
// separate tag byte.
func appendEntry(dst []byte, kind EntryKind, key, value []byte) []byte {
	if kind == Delete {
		dst = vlq.Append(dst, 0)
		dst = vlq.Append(dst, uint64(len(key)))
		dst = append(dst, key...)
		return dst
	}
	dst = vlq.Append(dst, uint64(len(key))+1)
	dst = vlq.Append(dst, uint64(len(value)))
	dst = append(dst, key...)
	dst = append(dst, value...)
	return dst
}

func entryEncodedLen(kind EntryKind, key, value []byte) int {
	if kind == Delete {
		return vlq.Len(0) + vlq.Len(uint64(len(key))) + len(key)
	}
	return vlq.Len(uint64(len(key))+1) + vlq.Len(uint64(len(value))) + len(key) + len(value)
}

// decodeEntry reads one entry starting at buf[0:] and returns it (with Key
// and Value borrowing from buf) along with the number of bytes consumed.
func decodeEntry(buf []byte) (Entry, int, error) {
	a, n1, err := vlq.Read(buf)
	if err != nil {
		return Entry{}, 0, err
	}
	b, n2, err := vlq.Read(buf[n1:])
	if err != nil {
		return Entry{}, 0, err
	}
	off := n1 + n2

	if a == 0 {
		keyLen := int(b)
		if off+keyLen > len(buf) {
			return Entry{}, 0, sparkeyerr.New(sparkeyerr.UnexpectedEOF)
		}
		return Entry{Kind: Delete, Key: buf[off : off+keyLen]}, off + keyLen, nil
	}

	keyLen := int(a - 1)
	valueLen := int(b)
	if off+keyLen+valueLen > len(buf) {
		return Entry{}, 0, sparkeyerr.New(sparkeyerr.UnexpectedEOF)
	}
	return Entry{
		Kind:  Put,
		Key:   buf[off : off+keyLen],
		Value: buf[off+keyLen : off+keyLen+valueLen],
	}, off + keyLen + valueLen, nil
}
