package extract

import (
	"github.com/FishAndRips/ringhopper-sub000/errs"
	"github.com/FishAndRips/ringhopper-sub000/schema"
)

// allSameTolerance is how far a weight's proportion may stray from an even
// split before the change-color is no longer considered uniform.
const allSameTolerance = 0.001

// fixObjectBase converts change-color permutation weights from the engine's
// cumulative form (partial weights in 0..1) back to the additive
// per-permutation weights tags store, then nudges them, resetting a uniform
// spread to all-ones.
func fixObjectBase(object *schema.Struct) error {
	changeColors, ok := object.GetReflexive("change_colors")
	if !ok {
		return nil
	}

	for _, changeColor := range changeColors.Items() {
		permutations, _ := changeColor.GetReflexive("permutations")

		getWeight := func(i int) float32 {
			value, _ := permutations.At(i).Get("weight")
			return value.(float32)
		}
		setWeight := func(i int, weight float32) {
			permutations.At(i).Set("weight", weight) //nolint:errcheck
		}

		switch count := permutations.Len(); count {
		case 0:

		case 1:
			setWeight(0, 1.0)

		default:
			// Weights aren't actually weights in a cache file but partial
			// weights from 0.0 - 1.0; reject chains that aren't monotonic
			// and bounded rather than guessing.
			last := float32(0)
			for i := 0; i < count; i++ {
				weight := getWeight(i)
				if weight < last || weight > 1.0 {
					return errs.InvalidTagDataf("change colors has invalid weights")
				}
				last = weight
			}

			// Walk backwards so each subtraction still sees the previous
			// cumulative weight rather than an already-converted one.
			for i := count - 1; i >= 1; i-- {
				setWeight(i, getWeight(i)-getWeight(i-1))
			}
		}

		nudgeChangeColor(permutations)
	}
	return nil
}

// nudgeChangeColor nudges every permutation weight, and when the weights sit
// within tolerance of an even split across the permutations, resets them all
// to 1.0.
func nudgeChangeColor(permutations *schema.Reflexive) {
	count := permutations.Len()
	if count == 0 {
		return
	}

	for _, permutation := range permutations.Items() {
		nudgeField(permutation, "weight")
	}

	ratio := 1.0 / float64(count)
	allSame := true
	for _, permutation := range permutations.Items() {
		value, _ := permutation.Get("weight")
		weight := float64(value.(float32))
		proportion := weight/ratio - 1.0
		if weight < 0 || proportion > allSameTolerance {
			allSame = false
			break
		}
	}

	if allSame {
		for _, permutation := range permutations.Items() {
			permutation.Set("weight", float32(1.0)) //nolint:errcheck
		}
	}
}
