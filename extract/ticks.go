package extract

import (
	"github.com/FishAndRips/ringhopper-sub000/tagfile"
)

// The damage family, projectile, actor variant, point physics, and light
// fixups share the same shape: convert the specific per-tick or pre-scaled
// fields back to authoring form, then nudge exactly those fields.

func fixDamageEffect(tag *tagfile.Tag) error {
	scaleFloat(tag.Data, "camera_shaking_wobble_function_period", 1.0/TickRate)
	nudgeField(tag.Data, "camera_shaking_wobble_function_period")
	return nil
}

func fixContinuousDamageEffect(tag *tagfile.Tag) error {
	scaleFloat(tag.Data, "camera_shaking_wobble_function_period", 1.0/TickRate)
	nudgeField(tag.Data, "camera_shaking_wobble_function_period")
	return nil
}

func fixProjectile(tag *tagfile.Tag) error {
	// Velocities are stored per tick; authoring form is per second.
	scaleFloat(tag.Data, "minimum_velocity", TickRate)
	scaleFloat(tag.Data, "initial_velocity", TickRate)
	scaleFloat(tag.Data, "final_velocity", TickRate)
	nudgeField(tag.Data, "minimum_velocity")
	nudgeField(tag.Data, "initial_velocity")
	nudgeField(tag.Data, "final_velocity")

	if responses, ok := tag.Data.GetReflexive("material_responses"); ok {
		for _, response := range responses.Items() {
			scaleFloat(response, "and", TickRate)
			nudgeField(response, "and")
		}
	}

	return fixObjectBase(objectBaseOf(tag))
}

func fixActorVariant(tag *tagfile.Tag) error {
	scaleFloat(tag.Data, "grenade_velocity", TickRate)
	nudgeField(tag.Data, "grenade_velocity")
	return nil
}

func fixPointPhysics(tag *tagfile.Tag) error {
	// Frictions are pre-scaled by a large constant at cache build.
	scaleFloat(tag.Data, "air_friction", 1.0/10000.0)
	scaleFloat(tag.Data, "water_friction", 1.0/10000.0)
	nudgeField(tag.Data, "air_friction")
	nudgeField(tag.Data, "water_friction")
	return nil
}

func fixLight(tag *tagfile.Tag) error {
	scaleFloat(tag.Data, "duration", 1.0/TickRate)
	nudgeField(tag.Data, "duration")
	return nil
}
