package vlq

import (
	"testing"

	"github.com/dflemstr/sparkey-go/sparkeyerr"
	"github.com/google/go-cmp/cmp"
)

func TestReadBoundaries(t *testing.T) {
	cases := []struct {
		name  string
		bytes []byte
		value uint64
		n     int
	}{
		{"1_min", []byte{0b00000000}, 0, 1},
		{"1_max", []byte{0b01111111}, 127, 1},
		{"2_min", []byte{0b10000000, 0b00000001}, 128, 2},
		{"2_max", []byte{0b11111111, 0b01111111}, 16383, 2},
		{"3_min", []byte{0b10000000, 0b10000000, 0b00000001}, 16384, 3},
		{"3_max", []byte{0b11111111, 0b11111111, 0b01111111}, 2097151, 3},
		{"4_min", []byte{0b10000000, 0b10000000, 0b10000000, 0b00000001}, 2097152, 4},
		{"4_max", []byte{0b11111111, 0b11111111, 0b11111111, 0b01111111}, 268435455, 4},
		{"spec_s6_a", []byte{0x80, 0x80, 0x01}, 16384, 3},
		{"spec_s6_b", []byte{0xFF, 0xFF, 0x7F}, 2097151, 3},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			value, n, err := Read(c.bytes)
			if err != nil {
				t.Fatalf("Read(%v): %v", c.bytes, err)
			}
			if value != c.value || n != c.n {
				t.Errorf("Read(%v) = (%d, %d), want (%d, %d)", c.bytes, value, n, c.value, c.n)
			}
		})
	}
}

func TestReadUnderrun(t *testing.T) {
	_, _, err := Read([]byte{0b10000000})
	if !sparkeyerr.Is(err, sparkeyerr.VLQUnderrun) {
		t.Fatalf("Read single continuation byte: got %v, want VLQUnderrun", err)
	}
}

func TestReadOverflow(t *testing.T) {
	buf := make([]byte, 10)
	for i := range buf {
		buf[i] = 0x80
	}
	_, _, err := Read(buf)
	if !sparkeyerr.Is(err, sparkeyerr.VLQOverflow) {
		t.Fatalf("Read 10-byte all-continuation: got %v, want VLQOverflow", err)
	}
}

func TestRoundTrip(t *testing.T) {
	values := []uint64{
		0, 127, 128, 16383, 16384, 2097151, 2097152,
		1<<32 - 1, 1 << 63, 1<<64 - 1,
	}
	for _, v := range values {
		buf := Append(nil, v)
		if got := Len(v); got != len(buf) {
			t.Errorf("Len(%d) = %d, want %d", v, got, len(buf))
		}
		gotValue, n, err := Read(buf)
		if err != nil {
			t.Fatalf("Read(Append(%d)): %v", v, err)
		}
		if diff := cmp.Diff(v, gotValue); diff != "" {
			t.Errorf("round-trip %d mismatch (-want +got):\n%s", v, diff)
		}
		if n != len(buf) {
			t.Errorf("Read consumed %d bytes, want %d", n, len(buf))
		}
	}
}
