// Package tagfile implements the outer envelope of tag files: the 64-byte
// header, the CRC-32 gate, and the glue between raw bytes and the
// schema-driven codec.
package tagfile

import (
	"hash/crc32"

	"github.com/FishAndRips/ringhopper-sub000/endian"
	"github.com/FishAndRips/ringhopper-sub000/errs"
	"github.com/FishAndRips/ringhopper-sub000/primitive"
	"github.com/FishAndRips/ringhopper-sub000/schema"
)

// HeaderSize is the fixed size of the tag file header.
const HeaderSize = 0x40

// BlamFourCC is the literal "blam" that terminates every header.
const BlamFourCC = 0x626C616D

// IgnoredCRC32 disables checksum verification when stored in the header.
const IgnoredCRC32 = 0xFFFFFFFF

// ParseStrictness selects how checksum mismatches are treated.
type ParseStrictness int

const (
	// Strict refuses data whose CRC32 does not match.
	Strict ParseStrictness = iota

	// Relaxed parses anyway and reports the mismatch alongside the result.
	Relaxed
)

// Tag is an in-memory tag: a principal struct plus its group.
type Tag struct {
	Group primitive.TagGroup
	Data  *schema.Struct
}

// Clone deep-copies the tag.
func (t *Tag) Clone() *Tag {
	return &Tag{Group: t.Group, Data: t.Data.Clone()}
}

// NewTag creates a default-valued tag of the given group.
//
// Returns ErrTagGroupUnimplemented if the group has no schema.
func NewTag(group primitive.TagGroup) (*Tag, error) {
	def, ok := schema.Lookup(group)
	if !ok {
		return nil, errs.ErrTagGroupUnimplemented
	}
	return &Tag{Group: group, Data: schema.NewStruct(def.Struct)}, nil
}

// Header is the 64-byte tag file header.
type Header struct {
	ID                  primitive.ID
	Name                primitive.String32
	FourCC              primitive.FourCC
	CRC32               uint32
	HeaderSize          uint32
	Version             uint16
	TwoHundredFiftyFive uint16
	BlamFourCC          uint32
}

// Read parses the header from the first 64 bytes of data.
func (h *Header) Read(data []byte) error {
	e := endian.GetBigEndianEngine()
	if err := h.ID.Read(e, data, 0x00, HeaderSize); err != nil {
		return err
	}
	if err := h.Name.Read(e, data, 0x04, HeaderSize); err != nil {
		return err
	}
	if err := h.FourCC.Read(e, data, 0x24, HeaderSize); err != nil {
		return err
	}
	var err error
	if h.CRC32, err = primitive.ReadU32(e, data, 0x28, HeaderSize); err != nil {
		return err
	}
	if h.HeaderSize, err = primitive.ReadU32(e, data, 0x2C, HeaderSize); err != nil {
		return err
	}
	if h.Version, err = primitive.ReadU16(e, data, 0x38, HeaderSize); err != nil {
		return err
	}
	if h.TwoHundredFiftyFive, err = primitive.ReadU16(e, data, 0x3A, HeaderSize); err != nil {
		return err
	}
	h.BlamFourCC, err = primitive.ReadU32(e, data, 0x3C, HeaderSize)
	return err
}

// Write serializes the header into the first 64 bytes of data.
func (h *Header) Write(data []byte) {
	e := endian.GetBigEndianEngine()
	h.ID.Write(e, data, 0x00, HeaderSize)
	h.Name.Write(e, data, 0x04, HeaderSize)
	h.FourCC.Write(e, data, 0x24, HeaderSize)
	primitive.WriteU32(e, h.CRC32, data, 0x28, HeaderSize)
	primitive.WriteU32(e, h.HeaderSize, data, 0x2C, HeaderSize)
	primitive.WritePadding(8, data, 0x30, HeaderSize)
	primitive.WriteU16(e, h.Version, data, 0x38, HeaderSize)
	primitive.WriteU16(e, h.TwoHundredFiftyFive, data, 0x3A, HeaderSize)
	primitive.WriteU32(e, h.BlamFourCC, data, 0x3C, HeaderSize)
}

// valid255 tolerates both encodings of the header's constant: the u16 0x00FF,
// and the single byte 0xFF some writers store in the high byte instead.
func valid255(value uint16) bool {
	return value == 0x00FF || value == 0xFF00
}

// File is the result of reading a tag file.
type File struct {
	Tag *Tag

	// HeaderCRC32 is the checksum stored in the header.
	HeaderCRC32 uint32

	// ActualCRC32 is the checksum computed over the body. Unset when the
	// header carries the ignore sentinel.
	ActualCRC32 uint32

	// CRC32Computed reports whether ActualCRC32 is meaningful.
	CRC32Computed bool
}

// CRC32Matches reports whether the stored and computed checksums agree, or
// ok=false when verification was disabled by the sentinel.
func (f *File) CRC32Matches() (matches, ok bool) {
	if !f.CRC32Computed {
		return false, false
	}
	return f.ActualCRC32 == f.HeaderCRC32, true
}

// Read parses a tag file of any implemented group, inferring the group from
// the header FourCC.
func Read(data []byte, strictness ParseStrictness) (*File, error) {
	return read(data, strictness, nil)
}

// ReadExpect parses a tag file and additionally requires a specific group,
// failing with ErrTagHeaderGroupTypeMismatch otherwise.
func ReadExpect(data []byte, group primitive.TagGroup, strictness ParseStrictness) (*File, error) {
	return read(data, strictness, &group)
}

func read(data []byte, strictness ParseStrictness, expected *primitive.TagGroup) (*File, error) {
	if len(data) < HeaderSize {
		return nil, errs.TagParseFailuref("file is smaller than the header (%d bytes)", len(data))
	}

	var header Header
	if err := header.Read(data); err != nil {
		return nil, err
	}
	if header.HeaderSize != HeaderSize {
		return nil, errs.TagParseFailuref("invalid header size 0x%X", header.HeaderSize)
	}
	if header.BlamFourCC != BlamFourCC {
		return nil, errs.TagParseFailuref("missing blam FourCC")
	}
	if !valid255(header.TwoHundredFiftyFive) {
		return nil, errs.TagParseFailuref("invalid header constant 0x%04X", header.TwoHundredFiftyFive)
	}

	group, err := primitive.TagGroupFromFourCC(header.FourCC)
	if err != nil {
		return nil, err
	}
	if expected != nil && group != *expected {
		return nil, errs.ErrTagHeaderGroupTypeMismatch
	}
	def, ok := schema.Lookup(group)
	if !ok {
		return nil, errs.ErrTagGroupUnimplemented
	}
	if header.Version != def.Version {
		return nil, errs.ErrTagHeaderGroupVersionMismatch
	}

	body := data[HeaderSize:]
	file := &File{HeaderCRC32: header.CRC32}
	if header.CRC32 != IgnoredCRC32 {
		file.ActualCRC32 = crc32.ChecksumIEEE(body)
		file.CRC32Computed = true
		if strictness == Strict && file.ActualCRC32 != header.CRC32 {
			return nil, errs.ErrChecksumMismatch
		}
	}

	extra := def.Struct.Size
	parsed, err := schema.ReadStructFromTagFile(def.Struct, body, 0, def.Struct.Size, &extra)
	if err != nil {
		return nil, err
	}

	file.Tag = &Tag{Group: group, Data: parsed}
	return file, nil
}

// Write serializes a tag into tag file bytes: reserved header, big-endian
// struct image, then the depth-first payload concatenation, with the CRC-32
// of the body stamped into the header.
func Write(tag *Tag) ([]byte, error) {
	def, ok := schema.Lookup(tag.Group)
	if !ok {
		return nil, errs.ErrTagGroupUnimplemented
	}

	data := make([]byte, HeaderSize+def.Struct.Size)
	if err := schema.WriteStructToTagFile(tag.Data, &data, HeaderSize, HeaderSize+def.Struct.Size); err != nil {
		return nil, err
	}

	header := Header{
		FourCC:              tag.Group.FourCC(),
		CRC32:               crc32.ChecksumIEEE(data[HeaderSize:]),
		HeaderSize:          HeaderSize,
		Version:             def.Version,
		TwoHundredFiftyFive: 0x00FF,
		BlamFourCC:          BlamFourCC,
	}
	header.Write(data)
	return data, nil
}
