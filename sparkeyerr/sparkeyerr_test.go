package sparkeyerr

import (
	"errors"
	"testing"

	"golang.org/x/xerrors"
)

func TestIsMatchesKind(t *testing.T) {
	err := WithPath(LogHeaderCorrupt, "/tmp/x.spl", nil)
	if !Is(err, LogHeaderCorrupt) {
		t.Fatal("Is did not match the wrapped kind")
	}
	if Is(err, HashHeaderCorrupt) {
		t.Fatal("Is matched an unrelated kind")
	}
}

func TestIsFollowsChain(t *testing.T) {
	inner := New(VLQOverflow)
	outer := Newf(UnexpectedEOF, "decoding entry: %w", inner)
	if !Is(outer, UnexpectedEOF) {
		t.Fatal("Is did not match the outer kind")
	}
	if !Is(outer, VLQOverflow) {
		t.Fatal("Is did not follow the chain to the wrapped kind")
	}
}

func TestErrorMessageIncludesPathAndCause(t *testing.T) {
	cause := errors.New("boom")
	err := WithPath(IO, "/tmp/y.spi", cause)
	msg := err.Error()
	if !xerrors.Is(err, cause) {
		t.Fatalf("Unwrap chain broken: %v does not contain %v", err, cause)
	}
	if want := "i/o error: /tmp/y.spi: boom"; msg != want {
		t.Fatalf("Error() = %q, want %q", msg, want)
	}
}

func TestKindStringUnknown(t *testing.T) {
	var k Kind = 9999
	if k.String() == "" {
		t.Fatal("String() returned empty for unknown kind")
	}
}
