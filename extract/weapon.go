package extract

import (
	"github.com/FishAndRips/ringhopper-sub000/primitive"
	"github.com/FishAndRips/ringhopper-sub000/tagfile"
)

// triggerErrorPatch restores a first-party campaign balance patch the engine
// applies at map build: trigger error angle bounds for specific shipped
// weapons. minimumErrorDegrees is optional; entries without it leave the
// field untouched.
type triggerErrorPatch struct {
	path                string
	trigger             int
	minimumErrorDegrees *float32
	errorAngleDegrees   [2]float32
}

func degrees(v float32) *float32 { return &v }

// campaignTriggerPatches lists the known first-party patches, keyed by the
// tag's internal path.
var campaignTriggerPatches = []triggerErrorPatch{
	{path: `weapons\pistol\pistol`, trigger: 0, minimumErrorDegrees: degrees(0.0), errorAngleDegrees: [2]float32{0.2, 2.0}},
	{path: `weapons\plasma rifle\plasma rifle`, trigger: 0, errorAngleDegrees: [2]float32{0.5, 5.0}},
}

// fixWeapon re-applies known campaign trigger patches for singleplayer maps
// whose scenario has not opted out, then runs the object-base fixup.
func fixWeapon(tag *tagfile.Tag, path primitive.TagPath, ctx *Context) error {
	if ctx.Singleplayer && !ctx.TagPatchesDisabled {
		applyCampaignPatches(tag, path)
	}
	return fixObjectBase(objectBaseOf(tag))
}

func applyCampaignPatches(tag *tagfile.Tag, path primitive.TagPath) {
	for _, patch := range campaignTriggerPatches {
		if path.Path() != patch.path {
			continue
		}
		triggers, ok := tag.Data.GetReflexive("triggers")
		if !ok || patch.trigger >= triggers.Len() {
			continue
		}
		trigger := triggers.At(patch.trigger)
		if patch.minimumErrorDegrees != nil {
			trigger.Set("minimum_error", primitive.AngleFromDegrees(*patch.minimumErrorDegrees)) //nolint:errcheck
		}
		trigger.Set("error_angle", []any{ //nolint:errcheck
			primitive.AngleFromDegrees(patch.errorAngleDegrees[0]),
			primitive.AngleFromDegrees(patch.errorAngleDegrees[1]),
		})
	}
}
