package cachemap

import (
	"strings"

	"github.com/FishAndRips/ringhopper-sub000/errs"
	"github.com/FishAndRips/ringhopper-sub000/primitive"
	"github.com/FishAndRips/ringhopper-sub000/tagfile"
	"github.com/FishAndRips/ringhopper-sub000/tagtree"
)

// MapTagTree exposes a loaded cache file as a read-only tag tree: reads
// extract tags, writes are rejected, and enumeration is synthesized from the
// tag index.
type MapTagTree struct {
	m *CacheFile
}

var _ tagtree.TagTree = (*MapTagTree)(nil)

// Tree wraps the map as a tag tree.
func (m *CacheFile) Tree() *MapTagTree {
	return &MapTagTree{m: m}
}

// Map returns the underlying cache file.
func (t *MapTagTree) Map() *CacheFile { return t.m }

func (t *MapTagTree) GetTag(path primitive.TagPath) (*tagfile.Tag, error) {
	return t.m.ExtractTag(path)
}

func (t *MapTagTree) OpenTagShared(path primitive.TagPath) (*tagtree.SharedTag, error) {
	tag, err := t.m.ExtractTag(path)
	if err != nil {
		return nil, err
	}
	return &tagtree.SharedTag{Tag: tag}, nil
}

func (t *MapTagTree) WriteTag(path primitive.TagPath, tag *tagfile.Tag) (bool, error) {
	return false, errs.Otherf("cannot write %v: cache files are read-only", path)
}

func (t *MapTagTree) FilesInPath(dir string) ([]tagtree.Item, bool) {
	prefix := dir
	if prefix != "" {
		prefix += string(primitive.PathSeparator)
	}

	var items []tagtree.Item
	seen := map[string]struct{}{}
	found := dir == ""

	for _, path := range t.m.AllTags() {
		internal := path.ToInternalPath()
		if !strings.HasPrefix(internal, prefix) {
			continue
		}
		found = true
		rest := internal[len(prefix):]

		if separator := strings.IndexByte(rest, primitive.PathSeparator); separator >= 0 {
			name := rest[:separator]
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			items = append(items, tagtree.NewDirectoryItem(t, prefix+name))
		} else {
			if _, dup := seen[rest]; dup {
				continue
			}
			seen[rest] = struct{}{}
			items = append(items, tagtree.NewTagItem(t, internal, path.Group()))
		}
	}

	if !found {
		return nil, false
	}
	return items, true
}

func (t *MapTagTree) Contains(path primitive.TagPath) bool {
	_, ok := t.m.GetTag(path)
	return ok
}

func (t *MapTagTree) Root() tagtree.Item {
	return tagtree.NewDirectoryItem(t, "")
}

func (t *MapTagTree) IsReadOnly() bool { return true }

func (t *MapTagTree) TreeType() tagtree.TreeType { return tagtree.TreeTypeCacheFile }
