// Package tagtree provides a uniform read/write/enumerate interface over
// collections of tags: loose tag directories, read-only cache file views, and
// a caching decorator that adds shared handles and deferred write-back.
package tagtree

import (
	"sort"
	"strings"
	"sync"

	"github.com/FishAndRips/ringhopper-sub000/primitive"
	"github.com/FishAndRips/ringhopper-sub000/tagfile"
)

// TreeType discriminates tag tree implementations.
type TreeType int

const (
	TreeTypeVirtualDirectory TreeType = iota
	TreeTypeCacheFile
)

// SharedTag is a mutex-guarded shared tag handle. Callers lock it around any
// access to Tag.
type SharedTag struct {
	sync.Mutex

	// Tag is the shared instance. Replacing the pointer (rather than
	// mutating in place) is allowed while holding the lock.
	Tag *tagfile.Tag
}

// TagTree is the contract shared by every tag tree.
type TagTree interface {
	// GetTag returns an owned copy of the tag at the path.
	GetTag(path primitive.TagPath) (*tagfile.Tag, error)

	// OpenTagShared returns a shared handle to the tag. Only the caching
	// tree guarantees a single instance per path; for other trees each call
	// returns a fresh handle.
	OpenTagShared(path primitive.TagPath) (*SharedTag, error)

	// WriteTag stores the tag, returning whether bytes changed on the
	// underlying store. Read-only trees reject writes.
	WriteTag(path primitive.TagPath, tag *tagfile.Tag) (bool, error)

	// FilesInPath enumerates the items directly inside a directory given in
	// internal form (backslash-separated, "" for the root). ok=false means
	// the directory does not exist.
	FilesInPath(dir string) ([]Item, bool)

	// Contains reports whether a tag exists at the path.
	Contains(path primitive.TagPath) bool

	// Root returns the root directory item.
	Root() Item

	// IsReadOnly reports whether writes are rejected.
	IsReadOnly() bool

	// TreeType identifies the implementation family.
	TreeType() TreeType
}

// Item is an entry in a tag tree: a tag leaf or a subdirectory.
type Item struct {
	tree  TagTree
	path  string // internal form, including the extension for tags
	isDir bool
	group primitive.TagGroup
}

// NewTagItem constructs a tag leaf item.
func NewTagItem(tree TagTree, path string, group primitive.TagGroup) Item {
	return Item{tree: tree, path: path, group: group}
}

// NewDirectoryItem constructs a directory item.
func NewDirectoryItem(tree TagTree, path string) Item {
	return Item{tree: tree, path: path, isDir: true}
}

// IsTag reports whether the item is a tag leaf.
func (i Item) IsTag() bool { return !i.isDir }

// IsDirectory reports whether the item is a directory.
func (i Item) IsDirectory() bool { return i.isDir }

// PathString returns the item's path in internal form.
func (i Item) PathString() string { return i.path }

// Group returns the tag group, or ok=false for directories.
func (i Item) Group() (primitive.TagGroup, bool) {
	if i.isDir {
		return primitive.TagGroupUnset, false
	}
	return i.group, true
}

// TagPath returns the item as a tag path, or ok=false for directories.
func (i Item) TagPath() (primitive.TagPath, bool) {
	if i.isDir {
		return primitive.TagPath{}, false
	}
	path, err := primitive.TagPathFromPath(i.path)
	if err != nil {
		return primitive.TagPath{}, false
	}
	return path, true
}

// Files returns the children of a directory item, or ok=false if the item is
// not a directory or no longer exists.
func (i Item) Files() ([]Item, bool) {
	if !i.isDir {
		return nil, false
	}
	return i.tree.FilesInPath(i.path)
}

// AllTags walks the tree and returns every tag passing the filter (nil
// matches everything), sorted by internal path for deterministic output.
func AllTags(tree TagTree, filter *TagFilter) []primitive.TagPath {
	var result []primitive.TagPath
	var walk func(dir string)
	walk = func(dir string) {
		items, ok := tree.FilesInPath(dir)
		if !ok {
			return
		}
		for _, item := range items {
			if item.IsDirectory() {
				walk(item.PathString())
				continue
			}
			path, ok := item.TagPath()
			if !ok {
				continue
			}
			if filter == nil || filter.Passes(path) {
				result = append(result, path)
			}
		}
	}
	walk("")
	sort.Slice(result, func(i, j int) bool {
		return result[i].ToInternalPath() < result[j].ToInternalPath()
	})
	return result
}

// joinInternal joins internal path components, skipping empty prefixes.
func joinInternal(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + string(primitive.PathSeparator) + name
}

// baseName returns the final component of an internal path.
func baseName(path string) string {
	if i := strings.LastIndexByte(path, primitive.PathSeparator); i >= 0 {
		return path[i+1:]
	}
	return path
}
