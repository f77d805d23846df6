// Package vlq implements the little-endian base-128 variable-length
// quantity encoding used to frame log entries: each byte carries 7 value
// bits, with the high bit set on every byte but the last.
package vlq

import (
	"github.com/dflemstr/sparkey-go/sparkeyerr"
)

// MaxLen is the largest number of bytes a VLQ can occupy; it bounds the
// full 64-bit range (64/7 rounded up).
const MaxLen = 10

// Read decodes a single VLQ from the front of buf, returning the decoded
// value and the number of bytes it consumed.
//
// Read returns sparkeyerr.VLQUnderrun if buf runs out before a terminator
// byte (one with the high bit clear), and sparkeyerr.VLQOverflow if no
// terminator appears within MaxLen bytes.
func Read(buf []byte) (value uint64, n int, err error) {
	for i := 0; i < MaxLen; i++ {
		if i >= len(buf) {
			return 0, 0, sparkeyerr.New(sparkeyerr.VLQUnderrun)
		}
		b := buf[i]
		value |= uint64(b&0x7f) << (uint(i) * 7)
		if b&0x80 == 0 {
			return value, i + 1, nil
		}
	}
	return 0, 0, sparkeyerr.New(sparkeyerr.VLQOverflow)
}

// Append encodes v as a VLQ and appends it to buf, returning the extended
// slice.
func Append(buf []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			buf = append(buf, b|0x80)
		} else {
			buf = append(buf, b)
			return buf
		}
	}
}

// Len returns the number of bytes Append would produce for v, without
// allocating.
func Len(v uint64) int {
	n := 1
	for v >>= 7; v != 0; v >>= 7 {
		n++
	}
	return n
}
