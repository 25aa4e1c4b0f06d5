// Package refgraph builds services on top of the codec and tag trees that
// reason about the reference graph between tags: dependency enumeration,
// recursive closure, and bulk refactoring.
package refgraph

import (
	"sort"

	"github.com/FishAndRips/ringhopper-sub000/internal/hash"
	"github.com/FishAndRips/ringhopper-sub000/primitive"
	"github.com/FishAndRips/ringhopper-sub000/schema"
	"github.com/FishAndRips/ringhopper-sub000/tagfile"
	"github.com/FishAndRips/ringhopper-sub000/tagtree"
)

// DirectDependencies collects every set tag reference in the tag, in field
// order, preserving duplicates. Reflexive elements are scanned recursively.
func DirectDependencies(tag *tagfile.Tag) []primitive.TagPath {
	var result []primitive.TagPath
	collectReferences(tag.Data, &result)
	return result
}

func collectReferences(s *schema.Struct, out *[]primitive.TagPath) {
	for _, name := range s.FieldNames() {
		value, _ := s.Get(name)
		collectValueReferences(value, out)
	}
}

func collectValueReferences(value any, out *[]primitive.TagPath) {
	switch v := value.(type) {
	case primitive.TagReference:
		if path, set := v.TagPath(); set {
			*out = append(*out, path)
		}
	case *schema.Struct:
		collectReferences(v, out)
	case *schema.Reflexive:
		for _, item := range v.Items() {
			collectReferences(item, out)
		}
	case []any:
		for _, element := range v {
			collectValueReferences(element, out)
		}
	}
}

// ForwardClosure walks the dependency graph breadth-first from a starting
// path, opening each frontier tag through the tree. The result maps every
// visited path to its direct dependency set. Tags that fail to open are
// reported in the error map but do not stop the traversal.
func ForwardClosure(tree tagtree.TagTree, start primitive.TagPath) (map[primitive.TagPath][]primitive.TagPath, map[primitive.TagPath]error) {
	result := map[primitive.TagPath][]primitive.TagPath{}
	failures := map[primitive.TagPath]error{}
	visited := map[uint64]struct{}{}

	queue := []primitive.TagPath{start}
	visited[pathID(start)] = struct{}{}

	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]

		tag, err := tree.GetTag(path)
		if err != nil {
			failures[path] = err
			continue
		}

		dependencies := DirectDependencies(tag)
		result[path] = dependencies
		for _, dependency := range dependencies {
			id := pathID(dependency)
			if _, seen := visited[id]; seen {
				continue
			}
			visited[id] = struct{}{}
			queue = append(queue, dependency)
		}
	}
	return result, failures
}

// pathID hashes a tag path for compact visited sets.
func pathID(path primitive.TagPath) uint64 {
	return hash.ID(path.ToInternalPath())
}

// ReverseClosure computes, for every tag in the tree snapshot, the set of
// tags referencing it: target to sorted sources.
func ReverseClosure(tree tagtree.TagTree) (map[primitive.TagPath][]primitive.TagPath, map[primitive.TagPath]error) {
	reverse := map[primitive.TagPath]map[primitive.TagPath]struct{}{}
	failures := map[primitive.TagPath]error{}

	for _, source := range tagtree.AllTags(tree, nil) {
		tag, err := tree.GetTag(source)
		if err != nil {
			failures[source] = err
			continue
		}
		for _, target := range DirectDependencies(tag) {
			set, ok := reverse[target]
			if !ok {
				set = map[primitive.TagPath]struct{}{}
				reverse[target] = set
			}
			set[source] = struct{}{}
		}
	}

	result := make(map[primitive.TagPath][]primitive.TagPath, len(reverse))
	for target, sources := range reverse {
		sorted := make([]primitive.TagPath, 0, len(sources))
		for source := range sources {
			sorted = append(sorted, source)
		}
		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i].ToInternalPath() < sorted[j].ToInternalPath()
		})
		result[target] = sorted
	}
	return result, failures
}

// rewriteReferences applies fn to every set reference in the struct,
// replacing it when fn returns a new reference. Returns whether anything
// changed.
func rewriteReferences(s *schema.Struct, fn func(field *schema.FieldDef, ref primitive.TagReference) (primitive.TagReference, bool)) bool {
	changed := false
	for _, name := range s.FieldNames() {
		field, _ := s.FieldDef(name)
		value, _ := s.Get(name)
		switch v := value.(type) {
		case primitive.TagReference:
			if replacement, replace := fn(field, v); replace {
				s.Set(name, replacement) //nolint:errcheck
				changed = true
			}
		case *schema.Struct:
			changed = rewriteReferences(v, fn) || changed
		case *schema.Reflexive:
			for _, item := range v.Items() {
				changed = rewriteReferences(item, fn) || changed
			}
		case []any:
			for i, element := range v {
				if ref, ok := element.(primitive.TagReference); ok {
					if replacement, replace := fn(field, ref); replace {
						v[i] = replacement
						changed = true
					}
				} else if inner, ok := element.(*schema.Struct); ok {
					changed = rewriteReferences(inner, fn) || changed
				}
			}
		}
	}
	return changed
}
