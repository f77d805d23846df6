// Package sparkeyerr defines the closed set of failure kinds that the
// logstore, hashstore and sparkey packages can report, and a concrete error
// type that carries one of those kinds through a causal chain.
package sparkeyerr

import (
	"fmt"

	"golang.org/x/xerrors"
)

// Kind enumerates the stable, user-visible failure categories a caller can
// switch on. New values are only ever appended.
type Kind int

const (
	// Internal is used for conditions that indicate a bug in this package
	// rather than bad input or a storage failure.
	Internal Kind = iota

	// Framing
	VLQUnderrun
	VLQOverflow
	UnexpectedEOF
	LogTooSmall
	HashTooSmall

	// Log format
	WrongLogMagicNumber
	WrongLogMajorVersion
	UnsupportedLogMinorVersion
	LogHeaderCorrupt
	InvalidCompressionType
	InvalidCompressionBlockSize

	// Hash format
	WrongHashMagicNumber
	WrongHashMajorVersion
	UnsupportedHashMinorVersion
	HashHeaderCorrupt
	InvalidHashSize
	InvalidAddressSize

	// Pairing
	FileIdentifierMismatch

	// Programmer misuse / lifecycle
	LogClosed
	LogIteratorInactive
	LogIteratorMismatch
	LogIteratorClosed
	HashClosed

	// Storage
	MmapFailed
	IO
)

var names = map[Kind]string{
	Internal:                    "internal error",
	VLQUnderrun:                 "vlq underrun",
	VLQOverflow:                 "vlq overflow",
	UnexpectedEOF:               "unexpected end-of-file",
	LogTooSmall:                 "log too small",
	HashTooSmall:                "hash too small",
	WrongLogMagicNumber:         "wrong log magic number",
	WrongLogMajorVersion:        "wrong log major version",
	UnsupportedLogMinorVersion:  "unsupported log minor version",
	LogHeaderCorrupt:            "log header corrupt",
	InvalidCompressionType:      "invalid compression type",
	InvalidCompressionBlockSize: "invalid compression block size",
	WrongHashMagicNumber:        "wrong hash magic number",
	WrongHashMajorVersion:       "wrong hash major version",
	UnsupportedHashMinorVersion: "unsupported hash minor version",
	HashHeaderCorrupt:           "hash header corrupt",
	InvalidHashSize:             "invalid hash size",
	InvalidAddressSize:          "invalid address size",
	FileIdentifierMismatch:      "file identifier mismatch",
	LogClosed:                   "log closed",
	LogIteratorInactive:         "log iterator inactive",
	LogIteratorMismatch:         "log iterator mismatch",
	LogIteratorClosed:           "log iterator closed",
	HashClosed:                  "hash closed",
	MmapFailed:                  "failed to mmap",
	IO:                          "i/o error",
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return fmt.Sprintf("sparkeyerr.Kind(%d)", int(k))
}

// Error pairs a stable Kind with the context that was available at the
// point of failure and, usually, a wrapped cause.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		if e.Err == nil {
			return e.Kind.String()
		}
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Path)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether err carries the given Kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	var se *Error
	for err != nil {
		if xerrors.As(err, &se) {
			if se.Kind == kind {
				return true
			}
			err = se.Err
			continue
		}
		return false
	}
	return false
}

// New builds an Error with no further context.
func New(kind Kind) error {
	return &Error{Kind: kind}
}

// Newf builds an Error whose cause is formatted from format/args using
// xerrors.Errorf, so %w-wrapped arguments keep participating in the chain.
func Newf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Err: xerrors.Errorf(format, args...)}
}

// WithPath builds an Error of the given kind carrying path, with err (if
// non-nil) as its wrapped cause.
func WithPath(kind Kind, path string, err error) error {
	if err == nil {
		return &Error{Kind: kind, Path: path}
	}
	return &Error{Kind: kind, Path: path, Err: err}
}
