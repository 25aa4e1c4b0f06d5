// Package extract undoes the engine-side storage differences between a tag
// parsed out of a cache image and its authoring form. Each fixup is
// idempotent and runs exactly once, after a tag is parsed from a map and
// never after a tag file read.
package extract

import (
	"github.com/FishAndRips/ringhopper-sub000/primitive"
	"github.com/FishAndRips/ringhopper-sub000/schema"
	"github.com/FishAndRips/ringhopper-sub000/tagfile"
)

// Context carries what fixups need to know about the map a tag came from.
type Context struct {
	// Map grants access to the map's domains for out-of-line payloads.
	Map primitive.Map

	// Scenario is the map's parsed scenario principal struct.
	Scenario *schema.Struct

	// Singleplayer reports whether the map's scenario type is singleplayer.
	Singleplayer bool

	// TagPatchesDisabled is set when the scenario opts out of first-party
	// campaign tag patches.
	TagPatchesDisabled bool

	// CompressedModels is set for engines storing compressed model vertices.
	CompressedModels bool
}

// FixTag applies the group's fixup to a freshly map-parsed tag, if the group
// has one.
func FixTag(tag *tagfile.Tag, path primitive.TagPath, ctx *Context) error {
	switch tag.Group {
	case primitive.TagGroupModel, primitive.TagGroupGBXModel:
		return fixModel(tag, ctx)
	case primitive.TagGroupBitmap:
		return fixBitmap(tag, ctx)
	case primitive.TagGroupSound:
		return fixSound(tag, ctx)
	case primitive.TagGroupScenario:
		return fixScenario(tag)
	case primitive.TagGroupModelAnimations:
		return fixModelAnimations(tag)
	case primitive.TagGroupDamageEffect:
		return fixDamageEffect(tag)
	case primitive.TagGroupContinuousDamageEffect:
		return fixContinuousDamageEffect(tag)
	case primitive.TagGroupProjectile:
		return fixProjectile(tag)
	case primitive.TagGroupActorVariant:
		return fixActorVariant(tag)
	case primitive.TagGroupPointPhysics:
		return fixPointPhysics(tag)
	case primitive.TagGroupLight:
		return fixLight(tag)
	case primitive.TagGroupWeapon:
		return fixWeapon(tag, path, ctx)
	default:
		if isObjectGroup(tag.Group) {
			return fixObjectBase(objectBaseOf(tag))
		}
		return nil
	}
}

func isObjectGroup(group primitive.TagGroup) bool {
	return group.MatchesGroup(primitive.TagGroupObject)
}

// objectBaseOf returns the embedded object base struct of an object-family
// tag, or the principal struct itself when it is the base.
func objectBaseOf(tag *tagfile.Tag) *schema.Struct {
	if object, ok := tag.Data.GetStruct("object"); ok {
		return object
	}
	return tag.Data
}
