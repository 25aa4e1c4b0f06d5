package tagtree

import (
	"strings"

	"github.com/FishAndRips/ringhopper-sub000/primitive"
)

// TagFilter matches tag paths against a glob-like expression. A `*` in the
// expression matches any run of characters, including path separators; an
// optional group restricts matches to one tag group.
type TagFilter struct {
	expression string
	group      primitive.TagGroup
	hasGroup   bool
}

// IsFilter reports whether the string is a filter expression rather than an
// exact tag path.
func IsFilter(s string) bool {
	return strings.ContainsRune(s, '*')
}

// NewTagFilter builds a filter from an expression in internal or native form.
func NewTagFilter(expression string, group *primitive.TagGroup) *TagFilter {
	normalized := strings.ReplaceAll(expression, "/", string(primitive.PathSeparator))
	filter := &TagFilter{expression: normalized}
	if group != nil {
		filter.group = *group
		filter.hasGroup = true
	}
	return filter
}

// Passes reports whether the path matches the filter.
func (f *TagFilter) Passes(path primitive.TagPath) bool {
	if f.hasGroup && path.Group() != f.group {
		return false
	}
	target := path.Path()
	if !f.hasGroup && strings.ContainsRune(f.expression, '.') {
		target = path.ToInternalPath()
	}
	return globMatch(f.expression, target)
}

// globMatch matches pattern against s where `*` matches any run of
// characters.
func globMatch(pattern, s string) bool {
	// Iterative star backtracking.
	pi, si := 0, 0
	star, match := -1, 0
	for si < len(s) {
		switch {
		case pi < len(pattern) && (pattern[pi] == s[si]):
			pi++
			si++
		case pi < len(pattern) && pattern[pi] == '*':
			star = pi
			match = si
			pi++
		case star >= 0:
			pi = star + 1
			match++
			si = match
		default:
			return false
		}
	}
	for pi < len(pattern) && pattern[pi] == '*' {
		pi++
	}
	return pi == len(pattern)
}
