package primitive

import (
	"fmt"
	"unicode/utf8"
)

// ResourceMapKind names the companion resource files a cache file may index
// into.
type ResourceMapKind int

const (
	ResourceMapBitmaps ResourceMapKind = iota
	ResourceMapSounds
	ResourceMapLoc
)

func (r ResourceMapKind) String() string {
	switch r {
	case ResourceMapBitmaps:
		return "bitmaps"
	case ResourceMapSounds:
		return "sounds"
	case ResourceMapLoc:
		return "loc"
	default:
		return "unknown"
	}
}

// DomainKind discriminates Domain.
type DomainKind int

const (
	// DomainMapData is the whole map file (0x0 = cache file header).
	DomainMapData DomainKind = iota

	// DomainTagData is the main tag data region (0x0 = tag data header).
	DomainTagData

	// DomainBSP is the BSP data for a given BSP (0x0 = BSP main struct).
	DomainBSP

	// DomainBSPVertices is the external vertex data for a given BSP.
	DomainBSPVertices

	// DomainResourceMapFile is a whole resource map file.
	DomainResourceMapFile

	// DomainResourceMapEntry is a single entry in a resource map.
	DomainResourceMapEntry

	// DomainModelVertexData is the model vertex region.
	DomainModelVertexData

	// DomainModelTriangleData is the model triangle region.
	DomainModelTriangleData
)

// Domain is an addressable region inside a map. Domains are comparable values
// and may key maps.
type Domain struct {
	Kind DomainKind

	// Index is the BSP index for DomainBSP/DomainBSPVertices.
	Index int

	// Resource is the resource map for DomainResourceMapFile/Entry.
	Resource ResourceMapKind

	// Path is the entry path for DomainResourceMapEntry.
	Path string
}

func (d Domain) String() string {
	switch d.Kind {
	case DomainMapData:
		return "map data"
	case DomainTagData:
		return "tag data"
	case DomainBSP:
		return fmt.Sprintf("bsp #%d", d.Index)
	case DomainBSPVertices:
		return fmt.Sprintf("bsp #%d vertices", d.Index)
	case DomainResourceMapFile:
		return fmt.Sprintf("%v resource map", d.Resource)
	case DomainResourceMapEntry:
		return fmt.Sprintf("%v resource map entry %s", d.Resource, d.Path)
	case DomainModelVertexData:
		return "model vertex data"
	case DomainModelTriangleData:
		return "model triangle data"
	default:
		return "unknown domain"
	}
}

// TagDataDomain is the main tag data domain.
var TagDataDomain = Domain{Kind: DomainTagData}

// MapDataDomain is the whole-file domain.
var MapDataDomain = Domain{Kind: DomainMapData}

// Map is the read-side view of a loaded cache file that the codec needs:
// domain resolution, addressed byte access, and tag identity lookups.
type Map interface {
	// Name returns the scenario name of the map.
	Name() string

	// Domain returns the byte slice and base address for a domain, or
	// ok=false if the map has no such domain.
	Domain(domain Domain) (data []byte, base int, ok bool)

	// DataAtAddress resolves an addressed window inside a domain. For BSP
	// domains an out-of-range window is retried against tag data, since BSPs
	// may reference shared tag-data structures.
	DataAtAddress(address int, domain Domain, size int) ([]byte, bool)

	// CStringAtAddress reads a NUL-terminated UTF-8 string at an address,
	// with the same BSP fallback as DataAtAddress.
	CStringAtAddress(address int, domain Domain) (string, bool)

	// TagPathForID maps a cache tag ID to its path.
	TagPathForID(id ID) (TagPath, bool)
}

// DataAtAddress implements Map.DataAtAddress given a domain lookup function.
// Map implementations delegate here so the BSP-to-tag-data fallback behaves
// identically everywhere.
func DataAtAddress(m Map, address int, domain Domain, size int) ([]byte, bool) {
	data, base, ok := m.Domain(domain)
	if ok {
		offset := address - base
		if offset >= 0 && size >= 0 && offset+size <= len(data) && offset+size >= offset {
			return data[offset : offset+size], true
		}
	}
	if domain.Kind == DomainBSP {
		return m.DataAtAddress(address, TagDataDomain, size)
	}
	return nil, false
}

// CStringAtAddress implements Map.CStringAtAddress in terms of Domain.
func CStringAtAddress(m Map, address int, domain Domain) (string, bool) {
	data, base, ok := m.Domain(domain)
	if ok {
		offset := address - base
		if offset >= 0 && offset <= len(data) {
			window := data[offset:]
			for i, b := range window {
				if b == 0 {
					if !utf8.Valid(window[:i]) {
						return "", false
					}
					return string(window[:i]), true
				}
			}
		}
	}
	if domain.Kind == DomainBSP {
		return m.CStringAtAddress(address, TagDataDomain)
	}
	return "", false
}
