package cachemap

import (
	"bytes"
	"unicode/utf8"

	"github.com/FishAndRips/ringhopper-sub000/endian"
	"github.com/FishAndRips/ringhopper-sub000/errs"
	"github.com/FishAndRips/ringhopper-sub000/primitive"
)

// ResourceMapHeader heads a bitmaps/sounds/loc companion file.
type ResourceMapHeader struct {
	Type           uint32 // byte offset 0-3
	PathDataOffset uint32 // byte offset 4-7
	ArrayOffset    uint32 // byte offset 8-11
	Count          uint32 // byte offset 12-15
}

// ResourceMapHeaderSize is the resource map header size.
const ResourceMapHeaderSize = 16

// ResourceMapResourceSize is the size of one resource array entry:
// {path offset, data size, data offset}.
const ResourceMapResourceSize = 12

// ResourceMap is a parsed companion resource file. Entries are resolved
// eagerly so later lookups are bounds-check free.
type ResourceMap struct {
	resources []resourceItem
	data      []byte
}

type resourceItem struct {
	path       string
	dataOffset int
	dataSize   int
}

// Resource is a single entry in a ResourceMap.
type Resource struct {
	path       string
	data       []byte
	dataOffset int
}

// Path returns the entry's path.
func (r Resource) Path() string { return r.path }

// Data returns the entry's bytes.
func (r Resource) Data() []byte { return r.data }

// DataOffset returns where the entry's bytes live in the resource file.
func (r Resource) DataOffset() int { return r.dataOffset }

// ReadResourceMap parses a resource map, taking ownership of data.
func ReadResourceMap(data []byte) (*ResourceMap, error) {
	e := endian.GetLittleEndianEngine()

	if len(data) < ResourceMapHeaderSize {
		return nil, errs.MapParseFailuref("resource map parse failure: can't read resource map header")
	}
	var header ResourceMapHeader
	header.Type, _ = primitive.ReadU32(e, data, 0, ResourceMapHeaderSize)
	header.PathDataOffset, _ = primitive.ReadU32(e, data, 4, ResourceMapHeaderSize)
	header.ArrayOffset, _ = primitive.ReadU32(e, data, 8, ResourceMapHeaderSize)
	header.Count, _ = primitive.ReadU32(e, data, 12, ResourceMapHeaderSize)

	pathDataOffset := int(header.PathDataOffset)
	if pathDataOffset < 0 || pathDataOffset > len(data) {
		return nil, errs.MapParseFailuref("resource map parse failure: path data offset 0x%08X is out-of-bounds", pathDataOffset)
	}
	pathData := data[pathDataOffset:]

	count := int(header.Count)
	offset := int(header.ArrayOffset)
	resources := make([]resourceItem, 0, count)

	for i := 0; i < count; i++ {
		end, err := primitive.Fits(ResourceMapResourceSize, offset, len(data))
		if err != nil {
			return nil, errs.MapParseFailuref("resource map parse failure: array index %d: %v", i, err)
		}

		pathOffset, _ := primitive.ReadU32(e, data, offset, end)
		dataSize, _ := primitive.ReadU32(e, data, offset+4, end)
		dataOffset, _ := primitive.ReadU32(e, data, offset+8, end)
		offset = end

		if int(pathOffset) > len(pathData) {
			return nil, errs.MapParseFailuref("resource map parse failure: array index %d: 0x%08X out-of-bounds in path data", i, pathOffset)
		}
		pathBytes := pathData[pathOffset:]
		nul := bytes.IndexByte(pathBytes, 0)
		if nul < 0 {
			return nil, errs.MapParseFailuref("resource map parse failure: array index %d: 0x%08X has no C string", i, pathOffset)
		}
		if !utf8.Valid(pathBytes[:nul]) {
			return nil, errs.MapParseFailuref("resource map parse failure: array index %d: path is not valid UTF-8", i)
		}

		dataStart := int(dataOffset)
		dataEnd, err := errs.AddCheck(dataStart, int(dataSize))
		if err != nil || dataEnd > len(data) {
			return nil, errs.MapParseFailuref("resource map parse failure: array index %d: 0x%08X[0x%08X] out-of-bounds", i, dataOffset, dataSize)
		}

		resources = append(resources, resourceItem{
			path:       string(pathBytes[:nul]),
			dataOffset: dataStart,
			dataSize:   int(dataSize),
		})
	}

	return &ResourceMap{resources: resources, data: data}, nil
}

// Data returns the whole resource file.
func (m *ResourceMap) Data() []byte { return m.data }

// Len returns the entry count.
func (m *ResourceMap) Len() int { return len(m.resources) }

// Get returns the entry at an index, or ok=false when out of range.
func (m *ResourceMap) Get(index int) (Resource, bool) {
	if index < 0 || index >= len(m.resources) {
		return Resource{}, false
	}
	return m.resource(index), true
}

// GetByPath returns the entry with the given path.
func (m *ResourceMap) GetByPath(path string) (Resource, bool) {
	for i, item := range m.resources {
		if item.path == path {
			return m.resource(i), true
		}
	}
	return Resource{}, false
}

func (m *ResourceMap) resource(index int) Resource {
	item := m.resources[index]
	return Resource{
		path:       item.path,
		data:       m.data[item.dataOffset : item.dataOffset+item.dataSize],
		dataOffset: item.dataOffset,
	}
}
