package cachemap

import (
	"github.com/FishAndRips/ringhopper-sub000/endian"
	"github.com/FishAndRips/ringhopper-sub000/primitive"
)

// TagDataHeader sits at the base of the tag data region.
type TagDataHeader struct {
	// TagArrayAddress is the in-memory address of the tag array.
	TagArrayAddress primitive.Address // byte offset 0-3

	// ScenarioTag identifies the map's scenario.
	ScenarioTag primitive.ID // byte offset 4-7

	// TagFileChecksums is the combined checksum of the source tags.
	TagFileChecksums uint32 // byte offset 8-11

	// TagCount is the number of tag array entries.
	TagCount uint32 // byte offset 12-15

	// ModelPartCount counts model parts in the vertex/triangle regions.
	ModelPartCount uint32 // byte offset 16-19

	// ModelDataFileOffset is where model data begins in the file.
	ModelDataFileOffset uint32 // byte offset 20-23

	// ModelPartCountPC repeats the part count on PC layouts.
	ModelPartCountPC uint32 // byte offset 24-27

	// ModelTriangleOffset is where triangles start within model data.
	ModelTriangleOffset uint32 // byte offset 28-31

	// ModelDataSize is the total size of the model data region.
	ModelDataSize uint32 // byte offset 32-35

	// Signature is the literal "tags".
	Signature primitive.FourCC // byte offset 36-39
}

// TagDataHeaderSize is the PC tag data header size.
const TagDataHeaderSize = 40

const tagsFourCC primitive.FourCC = 0x74616773 // "tags"

// Parse reads the header from a little-endian byte slice.
func (h *TagDataHeader) Parse(data []byte) error {
	e := endian.GetLittleEndianEngine()
	end := TagDataHeaderSize

	if err := h.TagArrayAddress.Read(e, data, 0, end); err != nil {
		return err
	}
	if err := h.ScenarioTag.Read(e, data, 4, end); err != nil {
		return err
	}
	var err error
	if h.TagFileChecksums, err = primitive.ReadU32(e, data, 8, end); err != nil {
		return err
	}
	if h.TagCount, err = primitive.ReadU32(e, data, 12, end); err != nil {
		return err
	}
	if h.ModelPartCount, err = primitive.ReadU32(e, data, 16, end); err != nil {
		return err
	}
	if h.ModelDataFileOffset, err = primitive.ReadU32(e, data, 20, end); err != nil {
		return err
	}
	if h.ModelPartCountPC, err = primitive.ReadU32(e, data, 24, end); err != nil {
		return err
	}
	if h.ModelTriangleOffset, err = primitive.ReadU32(e, data, 28, end); err != nil {
		return err
	}
	if h.ModelDataSize, err = primitive.ReadU32(e, data, 32, end); err != nil {
		return err
	}
	return h.Signature.Read(e, data, 36, end)
}

// Bytes serializes the header.
func (h *TagDataHeader) Bytes() []byte {
	e := endian.GetLittleEndianEngine()
	b := make([]byte, TagDataHeaderSize)
	end := TagDataHeaderSize

	h.TagArrayAddress.Write(e, b, 0, end)
	h.ScenarioTag.Write(e, b, 4, end)
	primitive.WriteU32(e, h.TagFileChecksums, b, 8, end)
	primitive.WriteU32(e, h.TagCount, b, 12, end)
	primitive.WriteU32(e, h.ModelPartCount, b, 16, end)
	primitive.WriteU32(e, h.ModelDataFileOffset, b, 20, end)
	primitive.WriteU32(e, h.ModelPartCountPC, b, 24, end)
	primitive.WriteU32(e, h.ModelTriangleOffset, b, 28, end)
	primitive.WriteU32(e, h.ModelDataSize, b, 32, end)
	h.Signature.Write(e, b, 36, end)
	return b
}

// CacheFileTag is one tag array entry.
type CacheFileTag struct {
	PrimaryGroup   primitive.FourCC  // byte offset 0-3
	SecondaryGroup primitive.FourCC  // byte offset 4-7
	TertiaryGroup  primitive.FourCC  // byte offset 8-11
	ID             primitive.ID      // byte offset 12-15
	PathAddress    primitive.Address // byte offset 16-19
	DataAddress    primitive.Address // byte offset 20-23
	External       uint32            // byte offset 24-27
}

// CacheFileTagSize is the size of one tag array entry.
const CacheFileTagSize = 32

// Parse reads the entry from a little-endian byte slice.
func (t *CacheFileTag) Parse(data []byte) error {
	e := endian.GetLittleEndianEngine()
	end := CacheFileTagSize

	if err := t.PrimaryGroup.Read(e, data, 0, end); err != nil {
		return err
	}
	if err := t.SecondaryGroup.Read(e, data, 4, end); err != nil {
		return err
	}
	if err := t.TertiaryGroup.Read(e, data, 8, end); err != nil {
		return err
	}
	if err := t.ID.Read(e, data, 12, end); err != nil {
		return err
	}
	if err := t.PathAddress.Read(e, data, 16, end); err != nil {
		return err
	}
	if err := t.DataAddress.Read(e, data, 20, end); err != nil {
		return err
	}
	var err error
	t.External, err = primitive.ReadU32(e, data, 24, end)
	return err
}

// Group resolves the primary group FourCC.
func (t *CacheFileTag) Group() (primitive.TagGroup, error) {
	return primitive.TagGroupFromFourCC(t.PrimaryGroup)
}

// Bytes serializes the entry.
func (t *CacheFileTag) Bytes() []byte {
	e := endian.GetLittleEndianEngine()
	b := make([]byte, CacheFileTagSize)
	end := CacheFileTagSize

	t.PrimaryGroup.Write(e, b, 0, end)
	t.SecondaryGroup.Write(e, b, 4, end)
	t.TertiaryGroup.Write(e, b, 8, end)
	t.ID.Write(e, b, 12, end)
	t.PathAddress.Write(e, b, 16, end)
	t.DataAddress.Write(e, b, 20, end)
	primitive.WriteU32(e, t.External, b, 24, end)
	return b
}

// BSPCompiledHeader sits at the start of every BSP region inside a map.
type BSPCompiledHeader struct {
	// Pointer is the in-memory address of the BSP's principal struct.
	Pointer primitive.Address // byte offset 0-3

	// Signature is the literal "sbsp".
	Signature primitive.FourCC // byte offset 20-23
}

// BSPCompiledHeaderSize is the compiled BSP header size.
const BSPCompiledHeaderSize = 24

const sbspFourCC primitive.FourCC = 0x73627370 // "sbsp"

// Parse reads the header from a little-endian byte slice.
func (h *BSPCompiledHeader) Parse(data []byte) error {
	e := endian.GetLittleEndianEngine()
	if err := h.Pointer.Read(e, data, 0, BSPCompiledHeaderSize); err != nil {
		return err
	}
	return h.Signature.Read(e, data, 20, BSPCompiledHeaderSize)
}

// Bytes serializes the header.
func (h *BSPCompiledHeader) Bytes() []byte {
	e := endian.GetLittleEndianEngine()
	b := make([]byte, BSPCompiledHeaderSize)
	h.Pointer.Write(e, b, 0, BSPCompiledHeaderSize)
	h.Signature.Write(e, b, 20, BSPCompiledHeaderSize)
	return b
}
