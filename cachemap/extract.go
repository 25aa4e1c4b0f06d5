package cachemap

import (
	"github.com/FishAndRips/ringhopper-sub000/errs"
	"github.com/FishAndRips/ringhopper-sub000/extract"
	"github.com/FishAndRips/ringhopper-sub000/primitive"
	"github.com/FishAndRips/ringhopper-sub000/schema"
	"github.com/FishAndRips/ringhopper-sub000/tagfile"
)

// ExtractTag parses a tag out of the map and applies its group's extraction
// fixups, yielding a tag indistinguishable from one read off disk.
func (m *CacheFile) ExtractTag(path primitive.TagPath) (*tagfile.Tag, error) {
	entry, ok := m.GetTag(path)
	if !ok {
		return nil, errs.ErrFileNotFound
	}

	def, ok := schema.Lookup(path.Group())
	if !ok {
		return nil, errs.ErrTagGroupUnimplemented
	}

	data, err := schema.ReadStructFromMap(def.Struct, m, entry.Address, entry.Domain)
	if err != nil {
		return nil, err
	}

	tag := &tagfile.Tag{Group: path.Group(), Data: data}
	ctx := &extract.Context{
		Map:                m,
		Scenario:           m.scenarioData,
		Singleplayer:       m.header.MapType == ScenarioTypeSingleplayer,
		TagPatchesDisabled: m.tagPatchesDisabled(),
		CompressedModels:   m.engine.CompressedModels,
	}
	if err := extract.FixTag(tag, path, ctx); err != nil {
		return nil, err
	}
	return tag, nil
}

// tagPatchesDisabled reports whether the scenario opts out of first-party tag
// patches.
func (m *CacheFile) tagPatchesDisabled() bool {
	if m.scenarioData == nil {
		return false
	}
	flagsValue, ok := m.scenarioData.Get("flags")
	if !ok {
		return false
	}
	flagsDef, _ := m.scenarioData.FieldDef("flags")
	bit, found := flagsDef.BitfieldDef().Bit("disable_tag_patches")
	if !found {
		return false
	}
	return flagsValue.(uint32)&(1<<bit) != 0
}
