// Package engines holds the table of known engine targets. Each descriptor
// records how to identify the engine from a cache file header and the
// constraints its cache files obey.
//
// The table is embedded TOML parsed at package init; a malformed table is a
// build defect and panics.
package engines

import (
	_ "embed"
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/FishAndRips/ringhopper-sub000/compress"
)

//go:embed engines.toml
var enginesTOML []byte

// Build describes how an engine's build string participates in matching.
type Build struct {
	// String is the canonical build string.
	String string `toml:"string"`

	// Fallback lists build strings of past releases that still identify this
	// engine.
	Fallback []string `toml:"fallback"`

	// Enforced forbids non-exact matches from falling through to the cache
	// default.
	Enforced bool `toml:"enforced"`
}

// BaseMemoryAddress is where the tag data region is mapped in engine memory.
type BaseMemoryAddress struct {
	Address uint64 `toml:"address"`

	// Inferred means the address is not fixed; it is recovered from the tag
	// data header when reading a map.
	Inferred bool `toml:"inferred"`
}

// ResourceMaps describes the engine's companion resource map files.
type ResourceMaps struct {
	// ExternallyIndexedTags permits tags whose data lives in the companion
	// maps.
	ExternallyIndexedTags bool `toml:"externally_indexed_tags"`

	// Loc indicates a loc.map companion exists in addition to bitmaps/sounds.
	Loc bool `toml:"loc"`
}

// BitmapOptions captures per-engine bitmap storage quirks.
type BitmapOptions struct {
	Swizzled                     bool `toml:"swizzled"`
	Alignment                    int  `toml:"alignment"`
	TextureDimensionMustModulo   bool `toml:"texture_dimension_must_modulo_block_size"`
	CubemapFacesStoredSeparately bool `toml:"cubemap_faces_stored_separately"`
}

// MaxCacheFileSize is the size ceiling per scenario type.
type MaxCacheFileSize struct {
	Singleplayer  uint64 `toml:"singleplayer"`
	Multiplayer   uint64 `toml:"multiplayer"`
	UserInterface uint64 `toml:"user_interface"`
}

// RequiredTags lists tags every cache file of this engine must include.
type RequiredTags struct {
	All           []string `toml:"all"`
	Singleplayer  []string `toml:"singleplayer"`
	Multiplayer   []string `toml:"multiplayer"`
	UserInterface []string `toml:"user_interface"`
}

// Engine is one engine descriptor.
type Engine struct {
	Name        string `toml:"name"`
	DisplayName string `toml:"display_name"`
	Version     string `toml:"version"`

	Build *Build `toml:"build"`

	CacheFileVersion uint32 `toml:"cache_file_version"`

	// BuildTarget marks engines that maps can be built for, not just read.
	BuildTarget bool `toml:"build_target"`

	// CacheDefault makes this engine win its (cache version) slot when no
	// build string matches outright.
	CacheDefault bool `toml:"cache_default"`

	BaseMemoryAddress BaseMemoryAddress `toml:"base_memory_address"`
	MaxTagSpace       uint64            `toml:"max_tag_space"`
	MaxCacheFileSize  MaxCacheFileSize  `toml:"max_cache_file_size"`

	CompressionTypeName string `toml:"compression_type"`

	ExternalBSPs     bool `toml:"external_bsps"`
	ExternalModels   bool `toml:"external_models"`
	CompressedModels bool `toml:"compressed_models"`

	ResourceMaps *ResourceMaps `toml:"resource_maps"`

	BitmapOptions BitmapOptions `toml:"bitmap_options"`
	DataAlignment int           `toml:"data_alignment"`

	RequiredTags RequiredTags `toml:"required_tags"`

	compressionType compress.Type
}

// CompressionType returns the engine's cache compression scheme.
func (e *Engine) CompressionType() compress.Type {
	return e.compressionType
}

type engineFile struct {
	Engines []*Engine `toml:"engines"`
}

var allEngines []*Engine

// All returns every known engine in declaration order.
func All() []*Engine {
	return allEngines
}

// ByName returns the engine with the given name.
func ByName(name string) (*Engine, bool) {
	for _, engine := range allEngines {
		if engine.Name == name {
			return engine, true
		}
	}
	return nil, false
}

// Match identifies the engine for a header's cache version and build string.
//
// The cache version must match exactly. If the candidate declares a build
// string, an exact or fallback-list match wins outright; an enforced
// candidate drops out on mismatch. Otherwise the candidate marked as cache
// default for the slot wins.
func Match(cacheVersion uint32, build string) (*Engine, bool) {
	var best *Engine
	for _, engine := range allEngines {
		if engine.CacheFileVersion != cacheVersion {
			continue
		}

		if b := engine.Build; b != nil {
			if b.String == build {
				return engine, true
			}
			matched := false
			for _, fallback := range b.Fallback {
				if fallback == build {
					matched = true
					break
				}
			}
			if matched {
				return engine, true
			}
			if b.Enforced {
				continue
			}
		}

		if engine.CacheDefault && best == nil {
			best = engine
		}
	}
	if best == nil {
		return nil, false
	}
	return best, true
}

func init() {
	var file engineFile
	if err := toml.Unmarshal(enginesTOML, &file); err != nil {
		panic(fmt.Sprintf("engines: parsing table: %v", err))
	}
	if len(file.Engines) == 0 {
		panic("engines: empty table")
	}

	defaults := map[uint32]string{}
	for _, engine := range file.Engines {
		compressionType, err := compress.TypeFromName(engine.CompressionTypeName)
		if err != nil {
			panic(fmt.Sprintf("engines: %s: %v", engine.Name, err))
		}
		engine.compressionType = compressionType

		if engine.CacheDefault {
			if prior, dup := defaults[engine.CacheFileVersion]; dup {
				panic(fmt.Sprintf("engines: both %s and %s are cache defaults for version %d", prior, engine.Name, engine.CacheFileVersion))
			}
			defaults[engine.CacheFileVersion] = engine.Name
		}
	}
	allEngines = file.Engines
}
