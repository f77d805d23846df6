package sparkey

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// Format is the CLI-boundary text encoding for keys and values, the Go
// equivalent of the original CLI's Format enum in src/bin/sparkey.rs. The
// core packages never see this type; it exists only to turn command-line
// strings into bytes and back.
type Format int

const (
	UTF8 Format = iota
	Hex
	Base64
)

func (f Format) String() string {
	switch f {
	case UTF8:
		return "utf8"
	case Hex:
		return "hex"
	case Base64:
		return "base64"
	default:
		return "unknown"
	}
}

// ParseFormat maps a CLI flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "utf8", "":
		return UTF8, nil
	case "hex":
		return Hex, nil
	case "base64":
		return Base64, nil
	default:
		return 0, fmt.Errorf("unknown format %q", s)
	}
}

// DecodeString turns a command-line argument into raw bytes per f.
func DecodeString(f Format, s string) ([]byte, error) {
	switch f {
	case UTF8:
		return []byte(s), nil
	case Hex:
		return hex.DecodeString(s)
	case Base64:
		return base64.StdEncoding.DecodeString(s)
	default:
		return nil, fmt.Errorf("unknown format %d", f)
	}
}

// EncodeString turns raw bytes into a displayable string per f.
func EncodeString(f Format, b []byte) (string, error) {
	switch f {
	case UTF8:
		return string(b), nil
	case Hex:
		return hex.EncodeToString(b), nil
	case Base64:
		return base64.StdEncoding.EncodeToString(b), nil
	default:
		return "", fmt.Errorf("unknown format %d", f)
	}
}
