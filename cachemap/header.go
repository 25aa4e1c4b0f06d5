// Package cachemap reads cache map files: engine identification,
// decompression, domain carving, the tag index, resource map binding, and
// per-BSP address fixups.
package cachemap

import (
	"github.com/FishAndRips/ringhopper-sub000/endian"
	"github.com/FishAndRips/ringhopper-sub000/engines"
	"github.com/FishAndRips/ringhopper-sub000/errs"
	"github.com/FishAndRips/ringhopper-sub000/primitive"
)

// CacheFileHeaderSize is the fixed header size of every cache file layout.
const CacheFileHeaderSize = 0x800

const (
	headFourCC primitive.FourCC = 0x68656164 // "head"
	footFourCC primitive.FourCC = 0x666F6F74 // "foot"

	headFourCCDemo primitive.FourCC = 0x45686564 // "Ehed"
	footFourCCDemo primitive.FourCC = 0x47666F74 // "Gfot"
)

// ScenarioType mirrors the scenario type enum stored in headers.
type ScenarioType uint16

const (
	ScenarioTypeSingleplayer ScenarioType = iota
	ScenarioTypeMultiplayer
	ScenarioTypeUserInterface
)

func (s ScenarioType) String() string {
	switch s {
	case ScenarioTypeSingleplayer:
		return "singleplayer"
	case ScenarioTypeMultiplayer:
		return "multiplayer"
	case ScenarioTypeUserInterface:
		return "user interface"
	default:
		return "unknown"
	}
}

// ParsedCacheFileHeader carries the fields shared by both header layouts,
// normalized.
type ParsedCacheFileHeader struct {
	// Name is the scenario name. It may not correspond to the actual
	// scenario tag.
	Name primitive.String32

	// Build identifies the engine build on engines that stamp it.
	Build primitive.String32

	// CacheVersion selects the engine table slot.
	CacheVersion uint32

	// TagDataOffset/TagDataSize locate the tag data region.
	TagDataOffset int
	TagDataSize   int

	// MapType is the declared scenario type.
	MapType ScenarioType

	// CRC32 is the checksum stored in the header.
	CRC32 uint32

	// DecompressedSize is the whole-file size after decompression; zero on
	// uncompressed engines.
	DecompressedSize int

	// CompressionPadding is the byte count to drop from the end of the
	// compressed stream.
	CompressionPadding int

	// Demo reports which layout the header used.
	Demo bool
}

// retail layout offsets.
const (
	retailOffHead               = 0x000
	retailOffCacheVersion       = 0x004
	retailOffDecompressedSize   = 0x008
	retailOffCompressionPadding = 0x00C
	retailOffTagDataOffset      = 0x010
	retailOffTagDataSize        = 0x014
	retailOffName               = 0x020
	retailOffBuild              = 0x040
	retailOffMapType            = 0x060
	retailOffCRC32              = 0x064
	retailOffFoot               = 0x7FC
)

// demo layout offsets. The demo executable shuffled the header and renamed
// the head/foot sentinels.
const (
	demoOffMapType          = 0x002
	demoOffHead             = 0x2C0
	demoOffTagDataSize      = 0x2C4
	demoOffBuild            = 0x2C8
	demoOffCacheVersion     = 0x2E8
	demoOffName             = 0x2EC
	demoOffCRC32            = 0x310
	demoOffDecompressedSize = 0x314
	demoOffTagDataOffset    = 0x5E8
	demoOffFoot             = 0x5EC
)

func readScenarioType(raw uint16) (ScenarioType, error) {
	if raw > uint16(ScenarioTypeUserInterface) {
		return 0, errs.MapParseFailuref("invalid scenario type %d", raw)
	}
	return ScenarioType(raw), nil
}

// ReadCacheFileHeader identifies and parses the first 0x800 bytes of a map,
// trying both known layouts.
func ReadCacheFileHeader(mapData []byte) (*ParsedCacheFileHeader, error) {
	if len(mapData) < CacheFileHeaderSize {
		return nil, errs.MapParseFailuref("can't read the cache file header (too small to be a cache file)")
	}
	header := mapData[:CacheFileHeaderSize]
	e := endian.GetLittleEndianEngine()

	u32 := func(offset int) uint32 {
		v, _ := primitive.ReadU32(e, header, offset, CacheFileHeaderSize)
		return v
	}
	u16 := func(offset int) uint16 {
		v, _ := primitive.ReadU16(e, header, offset, CacheFileHeaderSize)
		return v
	}
	str32 := func(offset int) primitive.String32 {
		var s primitive.String32
		_ = s.Read(e, header, offset, CacheFileHeaderSize)
		return s
	}

	if primitive.FourCC(u32(retailOffHead)) == headFourCC && primitive.FourCC(u32(retailOffFoot)) == footFourCC {
		mapType, err := readScenarioType(u16(retailOffMapType))
		if err != nil {
			return nil, err
		}
		return &ParsedCacheFileHeader{
			Name:               str32(retailOffName),
			Build:              str32(retailOffBuild),
			CacheVersion:       u32(retailOffCacheVersion),
			TagDataOffset:      int(u32(retailOffTagDataOffset)),
			TagDataSize:        int(u32(retailOffTagDataSize)),
			MapType:            mapType,
			CRC32:              u32(retailOffCRC32),
			DecompressedSize:   int(u32(retailOffDecompressedSize)),
			CompressionPadding: int(u32(retailOffCompressionPadding)),
		}, nil
	}

	if primitive.FourCC(u32(demoOffHead)) == headFourCCDemo && primitive.FourCC(u32(demoOffFoot)) == footFourCCDemo {
		mapType, err := readScenarioType(u16(demoOffMapType))
		if err != nil {
			return nil, err
		}
		return &ParsedCacheFileHeader{
			Name:             str32(demoOffName),
			Build:            str32(demoOffBuild),
			CacheVersion:     u32(demoOffCacheVersion),
			TagDataOffset:    int(u32(demoOffTagDataOffset)),
			TagDataSize:      int(u32(demoOffTagDataSize)),
			MapType:          mapType,
			CRC32:            u32(demoOffCRC32),
			DecompressedSize: int(u32(demoOffDecompressedSize)),
			Demo:             true,
		}, nil
	}

	return nil, errs.MapParseFailuref("can't read the cache file header (not in retail or pc demo format)")
}

// MatchEngine resolves the header against the engine table.
func (h *ParsedCacheFileHeader) MatchEngine() (*engines.Engine, error) {
	engine, ok := engines.Match(h.CacheVersion, h.Build.String())
	if !ok {
		return nil, errs.MapParseFailuref("unable to identify the map's engine (unknown engine)")
	}
	return engine, nil
}
