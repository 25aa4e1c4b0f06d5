package schema

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/FishAndRips/ringhopper-sub000/endian"
	"github.com/FishAndRips/ringhopper-sub000/primitive"
)

func TestSchemaLoaded(t *testing.T) {
	t.Run("Core groups present", func(t *testing.T) {
		for _, group := range []primitive.TagGroup{
			primitive.TagGroupUnicodeStringList,
			primitive.TagGroupBitmap,
			primitive.TagGroupSound,
			primitive.TagGroupScenario,
			primitive.TagGroupScenarioStructureBSP,
			primitive.TagGroupGBXModel,
			primitive.TagGroupModel,
			primitive.TagGroupModelAnimations,
			primitive.TagGroupWeapon,
		} {
			_, ok := Lookup(group)
			require.True(t, ok, "group %v should have a schema", group)
		}
	})

	t.Run("Unimplemented group absent", func(t *testing.T) {
		_, ok := Lookup(primitive.TagGroupGlobals)
		require.False(t, ok)
	})

	t.Run("Pinned struct sizes", func(t *testing.T) {
		require.Equal(t, 12, MustStruct("UnicodeStringList").Size)
		require.Equal(t, 164, MustStruct("Sound").Size)
		require.Equal(t, 1456, MustStruct("Scenario").Size)
		require.Equal(t, 232, MustStruct("GBXModel").Size)
		require.Equal(t, 108, MustStruct("Bitmap").Size)
	})
}

func TestStructRoundTripTagFile(t *testing.T) {
	def := MustStruct("UnicodeStringList")

	// Build a two-string list, serialize, and parse it back.
	s := NewStruct(def)
	strings, ok := s.GetReflexive("strings")
	require.True(t, ok)
	strings.InsertDefault(0)
	strings.InsertDefault(1)

	first, _ := strings.At(0).GetData("string")
	first.Bytes = []byte{'h', 0, 'i', 0, 0, 0}
	second, _ := strings.At(1).GetData("string")
	second.Bytes = []byte{'y', 0, 0, 0}

	data := make([]byte, def.Size)
	require.NoError(t, WriteStructToTagFile(s, &data, 0, def.Size))

	extra := def.Size
	parsed, err := ReadStructFromTagFile(def, data, 0, def.Size, &extra)
	require.NoError(t, err)
	require.Equal(t, len(data), extra)

	parsedStrings, _ := parsed.GetReflexive("strings")
	require.Equal(t, 2, parsedStrings.Len())
	firstParsed, _ := parsedStrings.At(0).GetData("string")
	require.Equal(t, first.Bytes, firstParsed.Bytes)

	// A second serialization is byte-identical.
	again := make([]byte, def.Size)
	require.NoError(t, WriteStructToTagFile(parsed, &again, 0, def.Size))
	require.Equal(t, data, again)
}

func TestReferenceRoundTrip(t *testing.T) {
	def := MustStruct("Weapon")
	s := NewStruct(def)

	object, ok := s.GetStruct("object")
	require.True(t, ok)

	path, err := primitive.NewTagPath(`weapons\pistol\pistol`, primitive.TagGroupGBXModel)
	require.NoError(t, err)
	require.NoError(t, object.Set("model", primitive.SetReference(path)))

	data := make([]byte, def.Size)
	require.NoError(t, WriteStructToTagFile(s, &data, 0, def.Size))

	extra := def.Size
	parsed, err := ReadStructFromTagFile(def, data, 0, def.Size, &extra)
	require.NoError(t, err)

	parsedObject, _ := parsed.GetStruct("object")
	model, ok := parsedObject.GetReference("model")
	require.True(t, ok)
	parsedPath, set := model.TagPath()
	require.True(t, set)
	require.Equal(t, path, parsedPath)
}

func TestReferencePathValidation(t *testing.T) {
	def := MustStruct("TagCollectionTag")

	// A set reference whose payload lacks the trailing NUL must fail.
	data := make([]byte, def.Size)
	desc := primitive.TagReferenceDescriptor{
		TagGroup:   primitive.TagGroupBitmap.FourCC(),
		PathLength: 3,
		TagID:      primitive.NullID,
	}
	desc.Write(endian.GetBigEndianEngine(), data, 0, def.Size)
	data = append(data, 'a', 'b', 'c', 'x')

	extra := def.Size
	_, err := ReadStructFromTagFile(def, data, 0, def.Size, &extra)
	require.Error(t, err)
}

func TestReflexiveInsertion(t *testing.T) {
	def := MustStruct("SoundPitchRange")
	reflexive := &Reflexive{elem: def}

	for i := 0; i < 3; i++ {
		reflexive.InsertDefault(i)
		name, err := primitive.String32FromString(string(rune('a' + i)))
		require.NoError(t, err)
		require.NoError(t, reflexive.At(i).Set("name", name))
	}

	inserted := NewStruct(def)
	name, _ := primitive.String32FromString("inserted")
	require.NoError(t, inserted.Set("name", name))
	reflexive.InsertCopy(1, inserted)

	require.Equal(t, 4, reflexive.Len())
	getName := func(i int) string {
		v, _ := reflexive.At(i).Get("name")
		s := v.(primitive.String32)
		return s.String()
	}
	require.Equal(t, "a", getName(0))
	require.Equal(t, "inserted", getName(1))
	require.Equal(t, "b", getName(2))
	require.Equal(t, "c", getName(3))

	t.Run("Insert at end", func(t *testing.T) {
		reflexive.InsertDefault(reflexive.Len())
		require.Equal(t, 5, reflexive.Len())
	})

	t.Run("Out of range panics", func(t *testing.T) {
		require.Panics(t, func() { reflexive.InsertDefault(99) })
	})
}

func TestDefaults(t *testing.T) {
	s := NewStruct(MustStruct("SoundPitchRange"))
	pitch, ok := s.Get("natural_pitch")
	require.True(t, ok)
	require.Equal(t, float32(1.0), pitch)

	sound := NewStruct(MustStruct("Sound"))
	bounds, ok := sound.Get("random_pitch_bounds")
	require.True(t, ok)
	elements := bounds.([]any)
	require.Equal(t, float32(1.0), elements[0])
	require.Equal(t, float32(1.0), elements[1])
}

func TestAllowedGroups(t *testing.T) {
	def := MustStruct("ObjectAttachment")
	var field *FieldDef
	for _, f := range def.Fields {
		if f.Name == "type" {
			field = f
		}
	}
	require.NotNil(t, field)

	require.True(t, field.AllowsGroup(primitive.TagGroupLight))
	require.True(t, field.AllowsGroup(primitive.TagGroupEffect))
	require.False(t, field.AllowsGroup(primitive.TagGroupBitmap))

	t.Run("Wildcard", func(t *testing.T) {
		collection := MustStruct("TagCollectionTag")
		require.True(t, collection.Fields[0].AllowsGroup(primitive.TagGroupBitmap))
		require.True(t, collection.Fields[0].AllowsGroup(primitive.TagGroupWind))
	})

	t.Run("Supergroup matching", func(t *testing.T) {
		trigger := MustStruct("WeaponTrigger")
		var projectile *FieldDef
		for _, f := range trigger.Fields {
			if f.Name == "projectile" {
				projectile = f
			}
		}
		require.NotNil(t, projectile)
		// The allow-list names `object`; any object subgroup qualifies.
		require.True(t, projectile.AllowsGroup(primitive.TagGroupProjectile))
		require.True(t, projectile.AllowsGroup(primitive.TagGroupWeapon))
		require.False(t, projectile.AllowsGroup(primitive.TagGroupSound))
	})
}

func TestEnumView(t *testing.T) {
	s := NewStruct(MustStruct("Sound"))
	require.NoError(t, s.SetEnumByName("sample_rate", "44100_hz"))

	value, def, ok := s.EnumValue("sample_rate")
	require.True(t, ok)
	require.Equal(t, uint16(1), value)
	require.Equal(t, "SoundSampleRate", def.Name)

	require.Error(t, s.SetEnumByName("sample_rate", "96000_hz"))
	_, _, ok = s.EnumValue("minimum_distance")
	require.False(t, ok)
}

func TestEnumValidation(t *testing.T) {
	def := MustStruct("Bitmap")
	data := make([]byte, def.Size)
	// Type enum out of range.
	data[0] = 0xFF
	data[1] = 0xFF

	extra := def.Size
	_, err := ReadStructFromTagFile(def, data, 0, def.Size, &extra)
	require.Error(t, err)
}
