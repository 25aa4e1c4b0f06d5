package extract

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/FishAndRips/ringhopper-sub000/errs"
	"github.com/FishAndRips/ringhopper-sub000/primitive"
	"github.com/FishAndRips/ringhopper-sub000/schema"
	"github.com/FishAndRips/ringhopper-sub000/tagfile"
)

func TestNudge(t *testing.T) {
	t.Run("Collapses zero runs", func(t *testing.T) {
		require.Equal(t, float32(1.5), Nudge(1.5000001))
	})

	t.Run("Rounds up nine runs", func(t *testing.T) {
		require.Equal(t, float32(2), Nudge(1.9999999))
		require.Equal(t, float32(0.3), Nudge(0.29999998))
	})

	t.Run("Leaves exact values alone", func(t *testing.T) {
		require.Equal(t, float32(0), Nudge(0))
		require.Equal(t, float32(0.5), Nudge(0.5))
		require.Equal(t, float32(123.25), Nudge(123.25))
	})

	t.Run("Clamp range", func(t *testing.T) {
		require.Equal(t, float32(40000.0004), Nudge(40000.0004))
	})
}

func TestSwap16(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5}
	swap16(data)
	require.Equal(t, []byte{2, 1, 4, 3, 5}, data)
}

func newChangeColor(t *testing.T, cumulative []float32) (*schema.Struct, *schema.Reflexive) {
	t.Helper()
	object := schema.NewStruct(schema.MustStruct("ObjectBase"))
	changeColors, _ := object.GetReflexive("change_colors")
	changeColors.InsertDefault(0)
	permutations, _ := changeColors.At(0).GetReflexive("permutations")
	for i, weight := range cumulative {
		permutations.InsertDefault(i)
		require.NoError(t, permutations.At(i).Set("weight", weight))
	}
	return object, permutations
}

func TestObjectChangeColorWeights(t *testing.T) {
	weights := func(permutations *schema.Reflexive) []float32 {
		out := make([]float32, permutations.Len())
		for i := range out {
			value, _ := permutations.At(i).Get("weight")
			out[i] = value.(float32)
		}
		return out
	}

	t.Run("Partial weights become per-permutation", func(t *testing.T) {
		object, permutations := newChangeColor(t, []float32{0.25, 0.5, 1.0})
		require.NoError(t, fixObjectBase(object))

		// Each weight subtracts the previous cumulative weight.
		expected := []float32{0.25, 0.25, 0.5}
		for i, want := range expected {
			require.InDelta(t, want, weights(permutations)[i], 1e-6, "permutation %d", i)
		}
	})

	t.Run("Single permutation is forced to one", func(t *testing.T) {
		object, permutations := newChangeColor(t, []float32{0.125})
		require.NoError(t, fixObjectBase(object))
		require.Equal(t, []float32{1.0}, weights(permutations))
	})

	t.Run("Even spread resets to all ones", func(t *testing.T) {
		object, permutations := newChangeColor(t, []float32{0.5, 1.0})
		require.NoError(t, fixObjectBase(object))
		require.Equal(t, []float32{1.0, 1.0}, weights(permutations))
	})

	t.Run("Non-monotonic weights are rejected", func(t *testing.T) {
		object, _ := newChangeColor(t, []float32{0.5, 0.25})
		require.ErrorIs(t, fixObjectBase(object), errs.ErrInvalidTagData)
	})

	t.Run("Out-of-range weights are rejected", func(t *testing.T) {
		object, _ := newChangeColor(t, []float32{0.5, 1.5})
		require.ErrorIs(t, fixObjectBase(object), errs.ErrInvalidTagData)
	})
}

func TestWidenNodeIndex(t *testing.T) {
	require.Equal(t, primitive.NullIndex, widenNodeIndex(0xFF, nil))
	require.Equal(t, primitive.Index(7), widenNodeIndex(7, nil))

	local := []primitive.Index{10, 20, 30}
	require.Equal(t, primitive.Index(30), widenNodeIndex(2, local))
}

func TestDecompressVertices(t *testing.T) {
	compressedDef := schema.MustStruct("ModelVertexCompressed")
	uncompressedDef := schema.MustStruct("ModelVertexUncompressed")

	compressed := schema.NewReflexive(compressedDef)
	uncompressed := schema.NewReflexive(uncompressedDef)

	vertex := schema.NewStruct(compressedDef)
	require.NoError(t, vertex.Set("position", primitive.Vector3D{X: 1, Y: 2, Z: 3}))
	require.NoError(t, vertex.Set("normal", uint32(primitive.CompressVector3D(primitive.Vector3D{Z: 1}))))
	require.NoError(t, vertex.Set("texture_coordinate_u", int16(16384)))
	require.NoError(t, vertex.Set("node0_index", uint8(1)))
	require.NoError(t, vertex.Set("node1_index", uint8(0xFF)))
	require.NoError(t, vertex.Set("node0_weight", uint16(32767)))
	compressed.InsertMoved(0, vertex)

	decompressVertices(compressed, uncompressed, nil)

	require.Equal(t, 0, compressed.Len())
	require.Equal(t, 1, uncompressed.Len())
	out := uncompressed.At(0)

	position, _ := out.Get("position")
	require.Equal(t, primitive.Vector3D{X: 1, Y: 2, Z: 3}, position)

	normalValue, _ := out.Get("normal")
	normal := normalValue.(primitive.Vector3D)
	require.InDelta(t, 1.0, float64(normal.Z), 0.01)

	texValue, _ := out.Get("texture_coords")
	require.InDelta(t, 0.5, float64(texValue.(primitive.Vector2D).X), 0.001)

	node0, _ := out.Get("node0_index")
	require.Equal(t, primitive.Index(1), node0)
	node1, _ := out.Get("node1_index")
	require.Equal(t, primitive.NullIndex, node1)

	weight0, _ := out.Get("node0_weight")
	require.InDelta(t, 1.0, float64(weight0.(float32)), 0.001)
	weight1, _ := out.Get("node1_weight")
	require.InDelta(t, 0.0, float64(weight1.(float32)), 0.001)
}

func TestSpriteSequenceFix(t *testing.T) {
	tag, err := tagfile.NewTag(primitive.TagGroupBitmap)
	require.NoError(t, err)
	require.NoError(t, tag.Data.Set("type", uint16(bitmapTypeSprites)))

	sequences, _ := tag.Data.GetReflexive("sequences")

	// Sequence 0: two sprites with indices 3 and 1.
	sequences.InsertDefault(0)
	sprites, _ := sequences.At(0).GetReflexive("sprites")
	sprites.InsertDefault(0)
	require.NoError(t, sprites.At(0).Set("bitmap_index", uint16(3)))
	sprites.InsertDefault(1)
	require.NoError(t, sprites.At(1).Set("bitmap_index", uint16(1)))

	// Sequence 1: a single sprite.
	sequences.InsertDefault(1)
	single, _ := sequences.At(1).GetReflexive("sprites")
	single.InsertDefault(0)
	require.NoError(t, single.At(0).Set("bitmap_index", uint16(5)))

	require.NoError(t, fixSpriteSequences(tag))

	first, _ := sequences.At(0).Get("first_bitmap_index")
	require.Equal(t, uint16(1), first)
	count, _ := sequences.At(0).Get("bitmap_count")
	require.Equal(t, uint16(0), count)

	first, _ = sequences.At(1).Get("first_bitmap_index")
	require.Equal(t, uint16(5), first)
	count, _ = sequences.At(1).Get("bitmap_count")
	require.Equal(t, uint16(1), count)
}

func TestTickConversions(t *testing.T) {
	t.Run("Projectile velocities scale to per-second", func(t *testing.T) {
		tag, err := tagfile.NewTag(primitive.TagGroupProjectile)
		require.NoError(t, err)
		require.NoError(t, tag.Data.Set("initial_velocity", float32(2.0)))

		require.NoError(t, fixProjectile(tag))

		value, _ := tag.Data.Get("initial_velocity")
		require.Equal(t, float32(60), value)
	})

	t.Run("Wobble period converts from ticks", func(t *testing.T) {
		tag, err := tagfile.NewTag(primitive.TagGroupDamageEffect)
		require.NoError(t, err)
		require.NoError(t, tag.Data.Set("camera_shaking_wobble_function_period", float32(30)))

		require.NoError(t, fixDamageEffect(tag))

		value, _ := tag.Data.Get("camera_shaking_wobble_function_period")
		require.Equal(t, float32(1), value)
	})

	t.Run("Grenade velocity scales and nudges", func(t *testing.T) {
		tag, err := tagfile.NewTag(primitive.TagGroupActorVariant)
		require.NoError(t, err)
		require.NoError(t, tag.Data.Set("grenade_velocity", float32(0.5)))

		require.NoError(t, fixActorVariant(tag))

		value, _ := tag.Data.Get("grenade_velocity")
		require.Equal(t, float32(15), value)
	})

	t.Run("Untouched floats stay untouched", func(t *testing.T) {
		tag, err := tagfile.NewTag(primitive.TagGroupDamageEffect)
		require.NoError(t, err)
		// A rounding artifact in a field the damage effect fixup does not
		// nudge must survive as-is.
		require.NoError(t, tag.Data.Set("camera_shaking_random_translation", float32(1.5000001)))

		require.NoError(t, fixDamageEffect(tag))

		value, _ := tag.Data.Get("camera_shaking_random_translation")
		require.Equal(t, float32(1.5000001), value)
	})
}
