package primitive

import (
	"github.com/FishAndRips/ringhopper-sub000/endian"
)

// FourCC is a four-byte identifier stored as a big-endian u32.
type FourCC uint32

const FourCCSize = 4

// String renders the FourCC as its four characters, substituting '?' for
// non-printable bytes.
func (f FourCC) String() string {
	b := [4]byte{byte(f >> 24), byte(f >> 16), byte(f >> 8), byte(f)}
	for i, c := range b {
		if c < 0x20 || c > 0x7E {
			b[i] = '?'
		}
	}
	return string(b[:])
}

func (f *FourCC) Read(e endian.EndianEngine, data []byte, at, structEnd int) error {
	v, err := ReadU32(e, data, at, structEnd)
	if err != nil {
		return err
	}
	*f = FourCC(v)
	return nil
}

func (f FourCC) Write(e endian.EndianEngine, data []byte, at, structEnd int) {
	WriteU32(e, uint32(f), data, at, structEnd)
}
