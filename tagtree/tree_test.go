package tagtree

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/FishAndRips/ringhopper-sub000/errs"
	"github.com/FishAndRips/ringhopper-sub000/primitive"
	"github.com/FishAndRips/ringhopper-sub000/tagfile"
)

func mustPath(t *testing.T, path string) primitive.TagPath {
	t.Helper()
	parsed, err := primitive.TagPathFromPath(path)
	require.NoError(t, err)
	return parsed
}

func newWindTag(t *testing.T, damping float32) *tagfile.Tag {
	t.Helper()
	tag, err := tagfile.NewTag(primitive.TagGroupWind)
	require.NoError(t, err)
	require.NoError(t, tag.Data.Set("damping", damping))
	return tag
}

func writeTagFile(t *testing.T, root string, path primitive.TagPath, tag *tagfile.Tag) {
	t.Helper()
	data, err := tagfile.Write(tag)
	require.NoError(t, err)
	location := filepath.Join(root, path.ToNativePath())
	require.NoError(t, os.MkdirAll(filepath.Dir(location), 0o755))
	require.NoError(t, os.WriteFile(location, data, 0o644))
}

func TestVirtualTagsDirectory(t *testing.T) {
	t.Run("Invalid directory", func(t *testing.T) {
		_, err := NewVirtualTagsDirectory([]string{"/nonexistent/path"})
		require.ErrorIs(t, err, errs.ErrInvalidTagsDirectory)
	})

	t.Run("Layered lookup prefers the first root", func(t *testing.T) {
		upper := t.TempDir()
		lower := t.TempDir()
		path := mustPath(t, `weather\wind\wind.wind`)
		writeTagFile(t, upper, path, newWindTag(t, 1))
		writeTagFile(t, lower, path, newWindTag(t, 2))

		tree, err := NewVirtualTagsDirectory([]string{upper, lower})
		require.NoError(t, err)

		tag, err := tree.GetTag(path)
		require.NoError(t, err)
		damping, _ := tag.Data.Get("damping")
		require.Equal(t, float32(1), damping)
	})

	t.Run("Enumeration merges and dedupes", func(t *testing.T) {
		upper := t.TempDir()
		lower := t.TempDir()
		writeTagFile(t, upper, mustPath(t, `a\one.wind`), newWindTag(t, 1))
		writeTagFile(t, lower, mustPath(t, `a\one.wind`), newWindTag(t, 2))
		writeTagFile(t, lower, mustPath(t, `a\two.wind`), newWindTag(t, 3))
		writeTagFile(t, lower, mustPath(t, `b\three.wind`), newWindTag(t, 4))
		require.NoError(t, os.WriteFile(filepath.Join(lower, "a", "notes.txt"), []byte("x"), 0o644))

		tree, err := NewVirtualTagsDirectory([]string{upper, lower})
		require.NoError(t, err)

		all := AllTags(tree, nil)
		require.Len(t, all, 3)

		items, ok := tree.FilesInPath("a")
		require.True(t, ok)
		// notes.txt is ignored; one.wind appears once.
		require.Len(t, items, 2)
	})

	t.Run("Write goes to the owning root then root zero", func(t *testing.T) {
		upper := t.TempDir()
		lower := t.TempDir()
		path := mustPath(t, `weap\thing.wind`)
		writeTagFile(t, lower, path, newWindTag(t, 1))

		tree, err := NewVirtualTagsDirectory([]string{upper, lower})
		require.NoError(t, err)

		// The file lives in the lower root, so updates land there.
		changed, err := tree.WriteTag(path, newWindTag(t, 9))
		require.NoError(t, err)
		require.True(t, changed)
		_, err = os.Stat(filepath.Join(lower, "weap", "thing.wind"))
		require.NoError(t, err)
		_, err = os.Stat(filepath.Join(upper, "weap", "thing.wind"))
		require.Error(t, err)

		// Unchanged writes are detected.
		changed, err = tree.WriteTag(path, newWindTag(t, 9))
		require.NoError(t, err)
		require.False(t, changed)

		// New tags land in root zero.
		fresh := mustPath(t, `weap\fresh.wind`)
		changed, err = tree.WriteTag(fresh, newWindTag(t, 5))
		require.NoError(t, err)
		require.True(t, changed)
		_, err = os.Stat(filepath.Join(upper, "weap", "fresh.wind"))
		require.NoError(t, err)
	})
}

func TestTagFilter(t *testing.T) {
	require.True(t, IsFilter(`weapons\*`))
	require.False(t, IsFilter(`weapons\pistol\pistol`))

	pistol := mustPath(t, `weapons\pistol\pistol.weapon`)
	rifle := mustPath(t, `weapons\rifle\rifle.weapon`)
	bitmap := mustPath(t, `weapons\pistol\pistol.bitmap`)

	all := NewTagFilter("*", nil)
	require.True(t, all.Passes(pistol))
	require.True(t, all.Passes(bitmap))

	weaponsOnly := NewTagFilter(`weapons\pistol\*`, nil)
	require.True(t, weaponsOnly.Passes(pistol))
	require.False(t, weaponsOnly.Passes(rifle))

	group := primitive.TagGroupWeapon
	grouped := NewTagFilter("*", &group)
	require.True(t, grouped.Passes(pistol))
	require.False(t, grouped.Passes(bitmap))
}

func TestCachingTagTree(t *testing.T) {
	setup := func(t *testing.T, strategy WriteStrategy) (*CachingTagTree, *VirtualTagsDirectory, primitive.TagPath) {
		root := t.TempDir()
		path := mustPath(t, `env\wind.wind`)
		writeTagFile(t, root, path, newWindTag(t, 1))
		delegate, err := NewVirtualTagsDirectory([]string{root})
		require.NoError(t, err)
		return NewCachingTagTree(delegate, strategy), delegate, path
	}

	t.Run("GetTag returns independent copies", func(t *testing.T) {
		tree, _, path := setup(t, WriteInstant)

		first, err := tree.GetTag(path)
		require.NoError(t, err)
		second, err := tree.GetTag(path)
		require.NoError(t, err)

		require.NoError(t, first.Data.Set("damping", float32(42)))
		damping, _ := second.Data.Get("damping")
		require.Equal(t, float32(1), damping)
	})

	t.Run("Shared handle is singular", func(t *testing.T) {
		tree, _, path := setup(t, WriteInstant)

		first, err := tree.OpenTagShared(path)
		require.NoError(t, err)
		second, err := tree.OpenTagShared(path)
		require.NoError(t, err)
		require.Same(t, first, second)
	})

	t.Run("Manual strategy defers writes", func(t *testing.T) {
		tree, delegate, path := setup(t, WriteManual)

		_, err := tree.WriteTag(path, newWindTag(t, 7))
		require.NoError(t, err)

		// Delegate still has the old value.
		fromDisk, err := delegate.GetTag(path)
		require.NoError(t, err)
		damping, _ := fromDisk.Data.Get("damping")
		require.Equal(t, float32(1), damping)

		// The cache serves the new value.
		cached, err := tree.GetTag(path)
		require.NoError(t, err)
		damping, _ = cached.Data.Get("damping")
		require.Equal(t, float32(7), damping)

		// Commit flushes it.
		require.NoError(t, tree.Commit(path))
		fromDisk, err = delegate.GetTag(path)
		require.NoError(t, err)
		damping, _ = fromDisk.Data.Get("damping")
		require.Equal(t, float32(7), damping)
	})

	t.Run("Instant strategy writes through", func(t *testing.T) {
		tree, delegate, path := setup(t, WriteInstant)

		_, err := tree.WriteTag(path, newWindTag(t, 3))
		require.NoError(t, err)

		fromDisk, err := delegate.GetTag(path)
		require.NoError(t, err)
		damping, _ := fromDisk.Data.Get("damping")
		require.Equal(t, float32(3), damping)
	})

	t.Run("CommitAll collects errors", func(t *testing.T) {
		tree, _, path := setup(t, WriteManual)
		_, err := tree.WriteTag(path, newWindTag(t, 2))
		require.NoError(t, err)
		require.Empty(t, tree.CommitAll())
	})
}
