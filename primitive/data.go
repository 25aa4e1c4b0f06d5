package primitive

import (
	"fmt"

	"github.com/FishAndRips/ringhopper-sub000/endian"
)

// Address is an address inside a cache file's memory image.
type Address uint32

const AddressSize = 4

func (a Address) String() string {
	return fmt.Sprintf("0x%08X", uint32(a))
}

func (a *Address) Read(e endian.EndianEngine, data []byte, at, structEnd int) error {
	v, err := ReadU32(e, data, at, structEnd)
	if err != nil {
		return err
	}
	*a = Address(v)
	return nil
}

func (a Address) Write(e endian.EndianEngine, data []byte, at, structEnd int) {
	WriteU32(e, uint32(a), data, at, structEnd)
}

// ReflexiveDescriptor is the 12-byte on-disk descriptor of a reflexive:
// {count, address, 4 bytes padding}. The element images follow in the
// payload region; the address is only meaningful inside cache images.
type ReflexiveDescriptor struct {
	Count   uint32
	Address Address
}

const ReflexiveDescriptorSize = 12

func (r *ReflexiveDescriptor) Read(e endian.EndianEngine, data []byte, at, structEnd int) error {
	var err error
	if r.Count, err = ReadU32(e, data, at, structEnd); err != nil {
		return err
	}
	return r.Address.Read(e, data, at+4, structEnd)
}

func (r ReflexiveDescriptor) Write(e endian.EndianEngine, data []byte, at, structEnd int) {
	WriteU32(e, r.Count, data, at, structEnd)
	r.Address.Write(e, data, at+4, structEnd)
	WritePadding(4, data, at+8, structEnd)
}

// DataDescriptor is the 20-byte on-disk descriptor of a data blob:
// {size, external, file offset, 4 bytes padding, address}. The raw bytes
// follow in the payload region.
type DataDescriptor struct {
	Size       uint32
	External   uint32
	FileOffset uint32
	Address    Address
}

const DataDescriptorSize = 20

func (d *DataDescriptor) Read(e endian.EndianEngine, data []byte, at, structEnd int) error {
	var err error
	if d.Size, err = ReadU32(e, data, at, structEnd); err != nil {
		return err
	}
	if d.External, err = ReadU32(e, data, at+4, structEnd); err != nil {
		return err
	}
	if d.FileOffset, err = ReadU32(e, data, at+8, structEnd); err != nil {
		return err
	}
	return d.Address.Read(e, data, at+16, structEnd)
}

func (d DataDescriptor) Write(e endian.EndianEngine, data []byte, at, structEnd int) {
	WriteU32(e, d.Size, data, at, structEnd)
	WriteU32(e, d.External, data, at+4, structEnd)
	WriteU32(e, d.FileOffset, data, at+8, structEnd)
	WritePadding(4, data, at+12, structEnd)
	d.Address.Write(e, data, at+16, structEnd)
}

// TagReferenceDescriptor is the 16-byte on-disk descriptor of a tag
// reference: {group FourCC, path address, path length, tag ID}. A set
// reference is followed in the payload region by the path string plus a NUL.
type TagReferenceDescriptor struct {
	TagGroup    FourCC
	PathAddress Address
	PathLength  uint32
	TagID       ID
}

const TagReferenceDescriptorSize = 16

func (t *TagReferenceDescriptor) Read(e endian.EndianEngine, data []byte, at, structEnd int) error {
	if err := t.TagGroup.Read(e, data, at, structEnd); err != nil {
		return err
	}
	if err := t.PathAddress.Read(e, data, at+4, structEnd); err != nil {
		return err
	}
	var err error
	if t.PathLength, err = ReadU32(e, data, at+8, structEnd); err != nil {
		return err
	}
	id, err := ReadU32(e, data, at+12, structEnd)
	if err != nil {
		return err
	}
	// A zeroed ID field also means null here; some tools write 0 instead of
	// the all-ones sentinel.
	if id == 0 {
		t.TagID = NullID
	} else {
		t.TagID = ID(id)
	}
	return nil
}

func (t TagReferenceDescriptor) Write(e endian.EndianEngine, data []byte, at, structEnd int) {
	t.TagGroup.Write(e, data, at, structEnd)
	t.PathAddress.Write(e, data, at+4, structEnd)
	WriteU32(e, t.PathLength, data, at+8, structEnd)
	t.TagID.Write(e, data, at+12, structEnd)
}
