package primitive

import (
	"path/filepath"
	"strings"

	"github.com/FishAndRips/ringhopper-sub000/errs"
)

// PathSeparator is the separator used inside tags, regardless of host OS.
const PathSeparator = '\\'

// TagPath identifies a tag by its path and group. The path is stored in
// internal form (backslash-separated, no extension); the group doubles as the
// file extension. TagPath is a comparable value type and can key maps.
type TagPath struct {
	path  string
	group TagGroup
}

// NewTagPath constructs a tag path from separate path and group components.
// Both internal (backslash) and native separators are accepted; the stored
// form is always internal.
func NewTagPath(path string, group TagGroup) (TagPath, error) {
	if path == "" {
		return TagPath{}, errs.ErrInvalidTagPath
	}

	var builder strings.Builder
	builder.Grow(len(path))
	for _, c := range path {
		switch {
		case c == PathSeparator || c == filepath.Separator:
			builder.WriteByte(PathSeparator)
		case c == '/' || c == ':' || c == '*' || c == '?' || c == '"' || c == '<' || c == '>' || c == '|':
			return TagPath{}, errs.ErrInvalidTagPath
		case c < 0x20 || c == 0x7F:
			return TagPath{}, errs.ErrInvalidTagPath
		default:
			builder.WriteRune(c)
		}
	}

	return TagPath{path: builder.String(), group: group}, nil
}

// TagPathFromPath parses a full path with extension, e.g.
// "weapons\myweapon\myweapon.weapon". The extension after the last dot names
// the group.
func TagPathFromPath(path string) (TagPath, error) {
	dot := strings.LastIndexByte(path, '.')
	if dot < 0 {
		return TagPath{}, errs.ErrInvalidTagPath
	}

	group, err := TagGroupFromName(path[dot+1:])
	if err != nil {
		return TagPath{}, errs.ErrInvalidTagPath
	}
	return NewTagPath(path[:dot], group)
}

// Path returns the path component in internal form, without the extension.
func (p TagPath) Path() string {
	return p.path
}

// Group returns the group component.
func (p TagPath) Group() TagGroup {
	return p.group
}

// IsEmpty reports whether the path is the zero value.
func (p TagPath) IsEmpty() bool {
	return p.path == ""
}

// ToInternalPath returns the path with extension in internal form, as stored
// inside tags.
func (p TagPath) ToInternalPath() string {
	return p.path + "." + p.group.String()
}

// ToNativePath returns the path with extension using the host separator,
// suitable for filesystem access.
func (p TagPath) ToNativePath() string {
	return strings.ReplaceAll(p.ToInternalPath(), string(PathSeparator), string(filepath.Separator))
}

// String renders the native form.
func (p TagPath) String() string {
	return p.ToNativePath()
}

// TagReference is a typed link to another tag: either set to a path, or a
// typed null. Even a null reference carries a group.
type TagReference struct {
	path  string
	group TagGroup
	set   bool
}

// NullReference constructs a null reference of the given group.
func NullReference(group TagGroup) TagReference {
	return TagReference{group: group}
}

// SetReference constructs a reference to the given path.
func SetReference(path TagPath) TagReference {
	return TagReference{path: path.path, group: path.group, set: true}
}

// IsNull reports whether the reference is null.
func (r TagReference) IsNull() bool {
	return !r.set
}

// IsSet reports whether the reference is set to a path.
func (r TagReference) IsSet() bool {
	return r.set
}

// Group returns the reference's group, present even when null.
func (r TagReference) Group() TagGroup {
	return r.group
}

// TagPath returns the referenced path, or ok=false if the reference is null.
func (r TagReference) TagPath() (TagPath, bool) {
	if !r.set {
		return TagPath{}, false
	}
	return TagPath{path: r.path, group: r.group}, true
}

func (r TagReference) String() string {
	if !r.set {
		return "(null " + r.group.String() + ")"
	}
	path, _ := r.TagPath()
	return path.String()
}
