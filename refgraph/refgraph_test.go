package refgraph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/FishAndRips/ringhopper-sub000/errs"
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

// newWeaponTag builds a weapon referencing the given model path.
func newWeaponTag(t *testing.T, modelPath string) *tagfile.Tag {
	t.Helper()
	tag, err := tagfile.NewTag(primitive.TagGroupWeapon)
	require.NoError(t, err)
	if modelPath != "" {
		object, _ := tag.Data.GetStruct("object")
		path, err := primitive.NewTagPath(modelPath, primitive.TagGroupGBXModel)
		require.NoError(t, err)
		require.NoError(t, object.Set("model", primitive.SetReference(path)))
	}
	return tag
}

func newModelTag(t *testing.T, shaderPath string) *tagfile.Tag {
	t.Helper()
	tag, err := tagfile.NewTag(primitive.TagGroupGBXModel)
	require.NoError(t, err)
	if shaderPath != "" {
		shaders, _ := tag.Data.GetReflexive("shaders")
		shaders.InsertDefault(0)
		path, err := primitive.NewTagPath(shaderPath, primitive.TagGroupShader)
		require.NoError(t, err)
		require.NoError(t, shaders.At(0).Set("shader", primitive.SetReference(path)))
	}
	return tag
}

func write(t *testing.T, dir *tagtree.VirtualTagsDirectory, path primitive.TagPath, tag *tagfile.Tag) {
	t.Helper()
	_, err := dir.WriteTag(path, tag)
	require.NoError(t, err)
}

func TestDirectDependencies(t *testing.T) {
	tag := newWeaponTag(t, `weapons\a\a`)
	deps := DirectDependencies(tag)
	require.Len(t, deps, 1)
	require.Equal(t, `weapons\a\a`, deps[0].Path())
	require.Equal(t, primitive.TagGroupGBXModel, deps[0].Group())

	t.Run("Reflexive elements are scanned", func(t *testing.T) {
		model := newModelTag(t, `shaders\metal`)
		deps := DirectDependencies(model)
		require.Len(t, deps, 1)
		require.Equal(t, primitive.TagGroupShader, deps[0].Group())
	})
}

func TestForwardClosure(t *testing.T) {
	dir := newDir(t)
	weaponPath := mustPath(t, `weapons\a\a.weapon`)
	modelPath := mustPath(t, `weapons\a\a.gbxmodel`)

	write(t, dir, weaponPath, newWeaponTag(t, `weapons\a\a`))
	write(t, dir, modelPath, newModelTag(t, ""))

	closure, failures := ForwardClosure(dir, weaponPath)
	require.Empty(t, failures)
	require.Len(t, closure, 2)
	require.Contains(t, closure, weaponPath)
	require.Contains(t, closure, modelPath)

	// The closure is the fixed point of one-step dependencies.
	require.Equal(t, []primitive.TagPath{modelPath}, closure[weaponPath])
	require.Empty(t, closure[modelPath])
}

func TestForwardClosureMissingDependency(t *testing.T) {
	dir := newDir(t)
	weaponPath := mustPath(t, `weapons\a\a.weapon`)
	write(t, dir, weaponPath, newWeaponTag(t, `weapons\a\missing`))

	closure, failures := ForwardClosure(dir, weaponPath)
	require.Len(t, closure, 1)
	require.Len(t, failures, 1)
}

func TestReverseClosure(t *testing.T) {
	dir := newDir(t)
	weaponPath := mustPath(t, `weapons\a\a.weapon`)
	otherWeaponPath := mustPath(t, `weapons\b\b.weapon`)
	modelPath := mustPath(t, `weapons\a\a.gbxmodel`)

	write(t, dir, weaponPath, newWeaponTag(t, `weapons\a\a`))
	write(t, dir, otherWeaponPath, newWeaponTag(t, `weapons\a\a`))
	write(t, dir, modelPath, newModelTag(t, ""))

	reverse, failures := ReverseClosure(dir)
	require.Empty(t, failures)
	require.Equal(t, []primitive.TagPath{weaponPath, otherWeaponPath}, reverse[modelPath])
}

func TestRefactorPathsDryRunPreflight(t *testing.T) {
	dir := newDir(t)
	weaponPath := mustPath(t, `weapons\a\a.weapon`)
	modelPath := mustPath(t, `weapons\a\a.gbxmodel`)
	write(t, dir, weaponPath, newWeaponTag(t, `weapons\a\a`))
	write(t, dir, modelPath, newModelTag(t, ""))

	// No-move requires the destinations to exist already; they do not, so
	// the refactor must fail before touching anything.
	_, err := RefactorPaths(dir, &RefactorPathsOptions{
		Find:    `weapons\a\`,
		Replace: `weapons\b\`,
		Mode:    ReplaceStartOnly,
		NoMove:  true,
	})
	require.ErrorIs(t, err, errs.ErrOther)

	require.True(t, dir.Contains(weaponPath))
	require.True(t, dir.Contains(modelPath))
	require.False(t, dir.Contains(mustPath(t, `weapons\b\a.weapon`)))
}

func TestRefactorPathsMove(t *testing.T) {
	dir := newDir(t)
	weaponPath := mustPath(t, `weapons\a\a.weapon`)
	modelPath := mustPath(t, `weapons\a\a.gbxmodel`)
	write(t, dir, weaponPath, newWeaponTag(t, `weapons\a\a`))
	write(t, dir, modelPath, newModelTag(t, ""))

	result, err := RefactorPaths(dir, &RefactorPathsOptions{
		Find:    `weapons\a\`,
		Replace: `weapons\b\`,
		Mode:    ReplaceStartOnly,
	})
	require.NoError(t, err)
	require.Len(t, result.Renames, 2)

	newWeaponPath := mustPath(t, `weapons\b\a.weapon`)
	newModelPath := mustPath(t, `weapons\b\a.gbxmodel`)
	require.True(t, dir.Contains(newWeaponPath))
	require.True(t, dir.Contains(newModelPath))
	require.False(t, dir.Contains(weaponPath))

	// The moved weapon now references the moved model.
	tag, err := dir.GetTag(newWeaponPath)
	require.NoError(t, err)
	deps := DirectDependencies(tag)
	require.Len(t, deps, 1)
	require.Equal(t, `weapons\b\a`, deps[0].Path())
}

func TestRefactorPathsCollision(t *testing.T) {
	dir := newDir(t)
	write(t, dir, mustPath(t, `weapons\a\a.weapon`), newWeaponTag(t, ""))
	write(t, dir, mustPath(t, `weapons\b\a.weapon`), newWeaponTag(t, ""))

	_, err := RefactorPaths(dir, &RefactorPathsOptions{
		Find:    `weapons\a\`,
		Replace: `weapons\b\`,
		Mode:    ReplaceStartOnly,
	})
	require.Error(t, err)
}

func TestRefactorGroups(t *testing.T) {
	dir := newDir(t)

	// A weapon whose model reference points at a `model` tag, with a
	// gbxmodel of the same path available.
	weaponPath := mustPath(t, `weapons\a\a.weapon`)
	weapon, err := tagfile.NewTag(primitive.TagGroupWeapon)
	require.NoError(t, err)
	object, _ := weapon.Data.GetStruct("object")
	oldModel, err := primitive.NewTagPath(`weapons\a\a`, primitive.TagGroupModel)
	require.NoError(t, err)
	require.NoError(t, object.Set("model", primitive.SetReference(oldModel)))
	write(t, dir, weaponPath, weapon)

	gbx, err := tagfile.NewTag(primitive.TagGroupGBXModel)
	require.NoError(t, err)
	write(t, dir, mustPath(t, `weapons\a\a.gbxmodel`), gbx)

	result, err := RefactorGroups(dir, primitive.TagGroupModel, primitive.TagGroupGBXModel, nil)
	require.NoError(t, err)
	require.Equal(t, []primitive.TagPath{weaponPath}, result.TagsChanged)

	reread, err := dir.GetTag(weaponPath)
	require.NoError(t, err)
	deps := DirectDependencies(reread)
	require.Len(t, deps, 1)
	require.Equal(t, primitive.TagGroupGBXModel, deps[0].Group())
}
