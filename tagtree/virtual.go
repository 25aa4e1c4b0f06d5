package tagtree

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/FishAndRips/ringhopper-sub000/errs"
	"github.com/FishAndRips/ringhopper-sub000/primitive"
	"github.com/FishAndRips/ringhopper-sub000/tagfile"
)

// VirtualTagsDirectory is a layered view over an ordered list of tag
// directory roots. Earlier roots shadow later ones: lookups pick the first
// root containing the file, and new tags are written to root #0.
type VirtualTagsDirectory struct {
	roots      []string
	strictness tagfile.ParseStrictness
}

// NewVirtualTagsDirectory validates that every root exists and builds the
// layered directory.
func NewVirtualTagsDirectory(roots []string) (*VirtualTagsDirectory, error) {
	if len(roots) == 0 {
		return nil, errs.ErrInvalidTagsDirectory
	}
	cleaned := make([]string, len(roots))
	for i, root := range roots {
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			return nil, errs.ErrInvalidTagsDirectory
		}
		cleaned[i] = filepath.Clean(root)
	}
	return &VirtualTagsDirectory{roots: cleaned}, nil
}

// SetStrictness selects the checksum strictness used when parsing tags.
func (v *VirtualTagsDirectory) SetStrictness(strictness tagfile.ParseStrictness) {
	v.strictness = strictness
}

// pathForTag returns the on-disk location of a tag, searching roots in order.
func (v *VirtualTagsDirectory) pathForTag(path primitive.TagPath) (string, bool) {
	native := path.ToNativePath()
	for _, root := range v.roots {
		candidate := filepath.Join(root, native)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, true
		}
	}
	return "", false
}

func (v *VirtualTagsDirectory) GetTag(path primitive.TagPath) (*tagfile.Tag, error) {
	location, ok := v.pathForTag(path)
	if !ok {
		return nil, errs.ErrFileNotFound
	}
	data, err := os.ReadFile(location)
	if err != nil {
		return nil, errs.FailedToReadFilef(location, err)
	}
	file, err := tagfile.ReadExpect(data, path.Group(), v.strictness)
	if err != nil {
		return nil, err
	}
	return file.Tag, nil
}

func (v *VirtualTagsDirectory) OpenTagShared(path primitive.TagPath) (*SharedTag, error) {
	tag, err := v.GetTag(path)
	if err != nil {
		return nil, err
	}
	return &SharedTag{Tag: tag}, nil
}

func (v *VirtualTagsDirectory) WriteTag(path primitive.TagPath, tag *tagfile.Tag) (bool, error) {
	data, err := tagfile.Write(tag)
	if err != nil {
		return false, err
	}

	location, exists := v.pathForTag(path)
	if !exists {
		location = filepath.Join(v.roots[0], path.ToNativePath())
	} else if existing, err := os.ReadFile(location); err == nil && bytes.Equal(existing, data) {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(location), 0o755); err != nil {
		return false, errs.FailedToWriteFilef(location, err)
	}

	// Write-then-rename so an interrupted write never leaves a torn tag.
	temp := location + ".tmp"
	if err := os.WriteFile(temp, data, 0o644); err != nil {
		return false, errs.FailedToWriteFilef(location, err)
	}
	if err := os.Rename(temp, location); err != nil {
		os.Remove(temp)
		return false, errs.FailedToWriteFilef(location, err)
	}
	return true, nil
}

func (v *VirtualTagsDirectory) FilesInPath(dir string) ([]Item, bool) {
	native := strings.ReplaceAll(dir, string(primitive.PathSeparator), string(filepath.Separator))

	var result []Item
	seen := map[string]struct{}{}
	success := false

	for _, root := range v.roots {
		entries, err := os.ReadDir(filepath.Join(root, native))
		if err != nil {
			continue
		}
		success = true

		for _, entry := range entries {
			name := entry.Name()
			if _, dup := seen[name]; dup {
				continue
			}

			if entry.IsDir() {
				seen[name] = struct{}{}
				result = append(result, NewDirectoryItem(v, joinInternal(dir, name)))
				continue
			}

			// Non-tag files are ignored.
			ext := filepath.Ext(name)
			if ext == "" {
				continue
			}
			group, err := primitive.TagGroupFromName(ext[1:])
			if err != nil {
				continue
			}
			seen[name] = struct{}{}
			result = append(result, NewTagItem(v, joinInternal(dir, name), group))
		}
	}

	if !success {
		return nil, false
	}
	return result, true
}

func (v *VirtualTagsDirectory) Contains(path primitive.TagPath) bool {
	_, ok := v.pathForTag(path)
	return ok
}

func (v *VirtualTagsDirectory) Root() Item {
	return NewDirectoryItem(v, "")
}

func (v *VirtualTagsDirectory) IsReadOnly() bool { return false }

func (v *VirtualTagsDirectory) TreeType() TreeType { return TreeTypeVirtualDirectory }

// RenameTag moves a tag file on disk from one path to another within the root
// where it currently lives. Used by path refactoring.
func (v *VirtualTagsDirectory) RenameTag(from, to primitive.TagPath) error {
	source, ok := v.pathForTag(from)
	if !ok {
		return errs.ErrFileNotFound
	}

	// Keep the tag in its current root so layering stays stable.
	root := v.roots[0]
	for _, candidate := range v.roots {
		if strings.HasPrefix(source, candidate+string(filepath.Separator)) {
			root = candidate
			break
		}
	}

	destination := filepath.Join(root, to.ToNativePath())
	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return errs.FailedToWriteFilef(destination, err)
	}
	if err := os.Rename(source, destination); err != nil {
		return errs.FailedToWriteFilef(destination, err)
	}
	return nil
}
