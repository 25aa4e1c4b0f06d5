package primitive

import (
	"bytes"
	"strings"

	"github.com/FishAndRips/ringhopper-sub000/endian"
	"github.com/FishAndRips/ringhopper-sub000/errs"
)

const String32Size = 32

// String32 is a 32-byte NUL-terminated string holding at most 31 bytes of
// UTF-8 content. The trailing bytes are always zero.
type String32 struct {
	data [String32Size]byte
}

// String32FromString converts a Go string.
//
// Returns ErrString32SizeLimitExceeded if the string is longer than 31 bytes.
func String32FromString(s string) (String32, error) {
	var out String32
	if len(s) >= String32Size {
		return out, errs.ErrString32SizeLimitExceeded
	}
	copy(out.data[:], s)
	return out, nil
}

// String32FromBytesLossy converts 32 raw bytes, truncating at the first NUL
// and replacing invalid UTF-8 sequences with '_'.
func String32FromBytesLossy(raw *[String32Size]byte) String32 {
	length := bytes.IndexByte(raw[:], 0)
	if length < 0 {
		length = String32Size - 1
	}

	cleaned := strings.ToValidUTF8(string(raw[:length]), "_")
	if len(cleaned) >= String32Size {
		cleaned = cleaned[:String32Size-1]
	}

	var out String32
	copy(out.data[:], cleaned)
	return out
}

// String returns the content up to the first NUL.
func (s *String32) String() string {
	length := bytes.IndexByte(s.data[:], 0)
	if length < 0 {
		length = String32Size - 1
	}
	return string(s.data[:length])
}

// Bytes returns the full 32-byte image.
func (s *String32) Bytes() [String32Size]byte {
	return s.data
}

func (s *String32) Read(_ endian.EndianEngine, data []byte, at, structEnd int) error {
	if err := ReadPadding(String32Size, data, at, structEnd); err != nil {
		return err
	}
	var raw [String32Size]byte
	copy(raw[:], data[at:at+String32Size])
	*s = String32FromBytesLossy(&raw)
	return nil
}

func (s *String32) Write(_ endian.EndianEngine, data []byte, at, structEnd int) {
	writeBounds(String32Size, at, structEnd, len(data))
	copy(data[at:at+String32Size], s.data[:])
}
