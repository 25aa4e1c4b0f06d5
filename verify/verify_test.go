package verify

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/FishAndRips/ringhopper-sub000/primitive"
	"github.com/FishAndRips/ringhopper-sub000/tagfile"
	"github.com/FishAndRips/ringhopper-sub000/tagtree"
)

func mustPath(t *testing.T, path string) primitive.TagPath {
	t.Helper()
	parsed, err := primitive.TagPathFromPath(path)
	require.NoError(t, err)
	return parsed
}

func newDir(t *testing.T) *tagtree.VirtualTagsDirectory {
	t.Helper()
	dir, err := tagtree.NewVirtualTagsDirectory([]string{t.TempDir()})
	require.NoError(t, err)
	return dir
}

func write(t *testing.T, dir *tagtree.VirtualTagsDirectory, path primitive.TagPath, tag *tagfile.Tag) {
	t.Helper()
	_, err := dir.WriteTag(path, tag)
	require.NoError(t, err)
}

func TestSchemaLevelChecks(t *testing.T) {
	t.Run("Clean tag verifies ok", func(t *testing.T) {
		dir := newDir(t)
		path := mustPath(t, `env\wind.wind`)
		tag, err := tagfile.NewTag(primitive.TagGroupWind)
		require.NoError(t, err)
		write(t, dir, path, tag)

		verifier := NewVerifier(dir, 1)
		result := verifier.Verify(path)
		require.True(t, result.Ok())
		require.Empty(t, result.Issues)
	})

	t.Run("NaN float is an error", func(t *testing.T) {
		dir := newDir(t)
		path := mustPath(t, `env\wind.wind`)
		tag, err := tagfile.NewTag(primitive.TagGroupWind)
		require.NoError(t, err)
		require.NoError(t, tag.Data.Set("damping", float32(math.NaN())))
		write(t, dir, path, tag)

		verifier := NewVerifier(dir, 1)
		result := verifier.Verify(path)
		require.False(t, result.Ok())
	})

	t.Run("Missing dependency is an error", func(t *testing.T) {
		dir := newDir(t)
		path := mustPath(t, `weapons\a\a.weapon`)
		tag, err := tagfile.NewTag(primitive.TagGroupWeapon)
		require.NoError(t, err)
		object, _ := tag.Data.GetStruct("object")
		model, _ := primitive.NewTagPath(`weapons\a\a`, primitive.TagGroupGBXModel)
		require.NoError(t, object.Set("model", primitive.SetReference(model)))
		write(t, dir, path, tag)

		verifier := NewVerifier(dir, 1)
		result := verifier.Verify(path)
		require.False(t, result.Ok())
	})

	t.Run("Satisfied dependency verifies once", func(t *testing.T) {
		dir := newDir(t)
		weaponPath := mustPath(t, `weapons\a\a.weapon`)
		modelPath := mustPath(t, `weapons\a\a.gbxmodel`)

		weapon, err := tagfile.NewTag(primitive.TagGroupWeapon)
		require.NoError(t, err)
		object, _ := weapon.Data.GetStruct("object")
		model, _ := primitive.NewTagPath(`weapons\a\a`, primitive.TagGroupGBXModel)
		require.NoError(t, object.Set("model", primitive.SetReference(model)))
		write(t, dir, weaponPath, weapon)

		gbx, err := tagfile.NewTag(primitive.TagGroupGBXModel)
		require.NoError(t, err)
		write(t, dir, modelPath, gbx)

		verifier := NewVerifier(dir, 1)
		result := verifier.Verify(weaponPath)
		require.True(t, result.Ok())

		// Idempotent: a second verification returns identical results.
		again := verifier.Verify(weaponPath)
		require.Same(t, result, again)
	})
}

func TestSoundChecks(t *testing.T) {
	newSound := func(t *testing.T) *tagfile.Tag {
		tag, err := tagfile.NewTag(primitive.TagGroupSound)
		require.NoError(t, err)
		return tag
	}

	t.Run("Odd PCM payload", func(t *testing.T) {
		dir := newDir(t)
		path := mustPath(t, `sfx\beep.sound`)
		tag := newSound(t)

		pitchRanges, _ := tag.Data.GetReflexive("pitch_ranges")
		pitchRanges.InsertDefault(0)
		permutations, _ := pitchRanges.At(0).GetReflexive("permutations")
		permutations.InsertDefault(0)
		samples, _ := permutations.At(0).GetData("samples")
		samples.Bytes = []byte{1, 2, 3} // not a whole 16-bit mono frame
		write(t, dir, path, tag)

		verifier := NewVerifier(dir, 1)
		require.False(t, verifier.Verify(path).Ok())
	})

	t.Run("Permutation chain cycle", func(t *testing.T) {
		dir := newDir(t)
		path := mustPath(t, `sfx\loop.sound`)
		tag := newSound(t)

		pitchRanges, _ := tag.Data.GetReflexive("pitch_ranges")
		pitchRanges.InsertDefault(0)
		pitchRange := pitchRanges.At(0)
		require.NoError(t, pitchRange.Set("actual_permutation_count", uint16(1)))

		permutations, _ := pitchRange.GetReflexive("permutations")
		for i := 0; i < 2; i++ {
			permutations.InsertDefault(i)
		}
		// 0 -> 1 -> 0 never terminates.
		require.NoError(t, permutations.At(0).Set("next_permutation_index", uint16(1)))
		require.NoError(t, permutations.At(1).Set("next_permutation_index", uint16(0)))
		write(t, dir, path, tag)

		verifier := NewVerifier(dir, 1)
		require.False(t, verifier.Verify(path).Ok())
	})
}

func TestBitmapChecks(t *testing.T) {
	dir := newDir(t)
	path := mustPath(t, `ui\hud.bitmap`)
	tag, err := tagfile.NewTag(primitive.TagGroupBitmap)
	require.NoError(t, err)

	sequences, _ := tag.Data.GetReflexive("sequences")
	sequences.InsertDefault(0)
	require.NoError(t, sequences.At(0).Set("first_bitmap_index", uint16(0)))
	require.NoError(t, sequences.At(0).Set("bitmap_count", uint16(2)))
	// Only zero bitmap data entries exist.
	write(t, dir, path, tag)

	verifier := NewVerifier(dir, 1)
	require.False(t, verifier.Verify(path).Ok())
}

func TestUnicodeStringListChecks(t *testing.T) {
	dir := newDir(t)
	path := mustPath(t, `ui\strings.unicode_string_list`)
	tag, err := tagfile.NewTag(primitive.TagGroupUnicodeStringList)
	require.NoError(t, err)

	strings, _ := tag.Data.GetReflexive("strings")
	strings.InsertDefault(0)
	blob, _ := strings.At(0).GetData("string")
	terminated := make([]byte, 4)
	binary.LittleEndian.PutUint16(terminated, 'x')
	blob.Bytes = terminated
	write(t, dir, path, tag)

	verifier := NewVerifier(dir, 1)
	require.True(t, verifier.Verify(path).Ok())

	t.Run("Unterminated string", func(t *testing.T) {
		bad, err := tagfile.NewTag(primitive.TagGroupUnicodeStringList)
		require.NoError(t, err)
		strings, _ := bad.Data.GetReflexive("strings")
		strings.InsertDefault(0)
		blob, _ := strings.At(0).GetData("string")
		// A single non-NUL code unit: no terminator.
		blob.Bytes = []byte{1, 1}
		badPath := mustPath(t, `ui\bad.unicode_string_list`)
		write(t, dir, badPath, bad)

		verifier := NewVerifier(dir, 1)
		require.False(t, verifier.Verify(badPath).Ok())
	})
}

func TestVerifyAllParallel(t *testing.T) {
	dir := newDir(t)
	for _, name := range []string{"a", "b", "c", "d"} {
		tag, err := tagfile.NewTag(primitive.TagGroupWind)
		require.NoError(t, err)
		write(t, dir, mustPath(t, `env\`+name+`.wind`), tag)
	}

	verifier := NewVerifier(dir, 4)
	results := verifier.VerifyAll(nil)
	require.Len(t, results, 4)
	for _, result := range results {
		require.True(t, result.Ok())
	}
}
