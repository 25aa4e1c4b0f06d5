package primitive

import (
	"fmt"

	"github.com/FishAndRips/ringhopper-sub000/endian"
)

// Index is a 16-bit index into a tag array or reflexive. 0xFFFF means none.
type Index = uint16

// NullIndex is the "no index" sentinel for Index fields.
const NullIndex Index = 0xFFFF

// ID identifies a tag inside a cache file. It packs a 16-bit index with a
// 16-bit salt as (((salt ^ index) << 16) | index). The all-ones value is null.
type ID uint32

// NullID is the null tag ID.
const NullID ID = 0xFFFFFFFF

// IDFromIndex constructs an ID from an index and salt.
func IDFromIndex(index Index, salt uint16) ID {
	return ID((uint32(salt^index) << 16) | uint32(index))
}

// IsNull reports whether the ID is the null sentinel.
func (id ID) IsNull() bool {
	return id == NullID
}

// Index returns the index component, or ok=false if the ID is null.
func (id ID) Index() (Index, bool) {
	if id.IsNull() {
		return 0, false
	}
	return Index(id & 0xFFFF), true
}

// Salt returns the salt component, or ok=false if the ID is null.
func (id ID) Salt() (uint16, bool) {
	index, ok := id.Index()
	if !ok {
		return 0, false
	}
	return uint16((uint32(id) ^ (uint32(index) << 16)) >> 16), true
}

func (id ID) String() string {
	index, ok := id.Index()
	if !ok {
		return "(id=null, salt=null)"
	}
	salt, _ := id.Salt()
	return fmt.Sprintf("(id=%d, salt=%d)", index, salt)
}

const IDSize = 4

func (id *ID) Read(e endian.EndianEngine, data []byte, at, structEnd int) error {
	v, err := ReadU32(e, data, at, structEnd)
	if err != nil {
		return err
	}
	*id = ID(v)
	return nil
}

func (id ID) Write(e endian.EndianEngine, data []byte, at, structEnd int) {
	WriteU32(e, uint32(id), data, at, structEnd)
}
