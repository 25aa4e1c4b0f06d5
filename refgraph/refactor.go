package refgraph

import (
	"runtime"
	"strings"
	"sync"

	"github.com/FishAndRips/ringhopper-sub000/errs"
	"github.com/FishAndRips/ringhopper-sub000/primitive"
	"github.com/FishAndRips/ringhopper-sub000/schema"
	"github.com/FishAndRips/ringhopper-sub000/tagtree"
)

// RefactorGroupsResult reports what a group refactor touched.
type RefactorGroupsResult struct {
	// TagsChanged lists the tags whose references were rewritten.
	TagsChanged []primitive.TagPath
}

// RefactorGroups rewrites references of one group to another across every
// tag matched by the filter. A reference is rewritten only when the field's
// allow-list accepts the destination group and the rewritten path actually
// exists in the tree; everything else is left alone.
func RefactorGroups(tree tagtree.TagTree, from, to primitive.TagGroup, filter *tagtree.TagFilter) (*RefactorGroupsResult, error) {
	result := &RefactorGroupsResult{}

	for _, path := range tagtree.AllTags(tree, filter) {
		tag, err := tree.GetTag(path)
		if err != nil {
			return nil, err
		}

		changed := rewriteReferences(tag.Data, func(field *schema.FieldDef, ref primitive.TagReference) (primitive.TagReference, bool) {
			refPath, set := ref.TagPath()
			if !set || refPath.Group() != from {
				return ref, false
			}
			if !field.AllowsGroup(to) {
				return ref, false
			}
			rewritten, err := primitive.NewTagPath(refPath.Path(), to)
			if err != nil || !tree.Contains(rewritten) {
				return ref, false
			}
			return primitive.SetReference(rewritten), true
		})

		if changed {
			if _, err := tree.WriteTag(path, tag); err != nil {
				return nil, err
			}
			result.TagsChanged = append(result.TagsChanged, path)
		}
	}
	return result, nil
}

// PathReplaceMode selects how the find string is applied to tag paths.
type PathReplaceMode int

const (
	// ReplaceStartOnly replaces the find string only at the start of a path.
	ReplaceStartOnly PathReplaceMode = iota

	// ReplaceAll replaces every occurrence.
	ReplaceAll
)

// RefactorPathsOptions configures a path refactor.
type RefactorPathsOptions struct {
	Find    string
	Replace string
	Mode    PathReplaceMode

	// NoMove rewrites references only; the destination tags must already
	// exist and no files are renamed.
	NoMove bool
}

// RefactorPathsResult reports what a path refactor did.
type RefactorPathsResult struct {
	// Renames maps old paths to new paths.
	Renames map[primitive.TagPath]primitive.TagPath

	// TagsChanged lists tags whose references were rewritten.
	TagsChanged []primitive.TagPath
}

// renamedPath applies the find/replace to one path, or ok=false when it does
// not match.
func renamedPath(path primitive.TagPath, opts *RefactorPathsOptions) (primitive.TagPath, bool) {
	find := strings.ReplaceAll(opts.Find, "/", string(primitive.PathSeparator))
	replace := strings.ReplaceAll(opts.Replace, "/", string(primitive.PathSeparator))

	source := path.Path()
	var renamed string
	switch opts.Mode {
	case ReplaceStartOnly:
		if !strings.HasPrefix(source, find) {
			return primitive.TagPath{}, false
		}
		renamed = replace + source[len(find):]
	default:
		if !strings.Contains(source, find) {
			return primitive.TagPath{}, false
		}
		renamed = strings.ReplaceAll(source, find, replace)
	}
	if renamed == source {
		return primitive.TagPath{}, false
	}

	newPath, err := primitive.NewTagPath(renamed, path.Group())
	if err != nil {
		return primitive.TagPath{}, false
	}
	return newPath, true
}

// RefactorPaths renames tags and rewrites every reference to them.
//
// The rename plan is validated up front: moving requires every destination to
// be free, while NoMove requires every destination to already exist. File
// renames are applied through an undo stack so a mid-run failure rolls back
// all completed renames. Reference rewriting then runs concurrently over the
// whole tree through a shared manual-commit cache, which is committed at the
// end.
func RefactorPaths(dir *tagtree.VirtualTagsDirectory, opts *RefactorPathsOptions) (*RefactorPathsResult, error) {
	renames := map[primitive.TagPath]primitive.TagPath{}
	targets := map[primitive.TagPath]primitive.TagPath{}

	for _, path := range tagtree.AllTags(dir, nil) {
		newPath, ok := renamedPath(path, opts)
		if !ok {
			continue
		}

		if prior, collision := targets[newPath]; collision {
			return nil, errs.Otherf("both %v and %v rename to %v", prior, path, newPath)
		}
		targets[newPath] = path

		if opts.NoMove {
			if !dir.Contains(newPath) {
				return nil, errs.Otherf("cannot refactor %v: destination %v does not exist (required with no-move)", path, newPath)
			}
		} else if dir.Contains(newPath) {
			return nil, errs.Otherf("cannot refactor %v: destination %v already exists", path, newPath)
		}
		renames[path] = newPath
	}

	if len(renames) == 0 {
		return nil, errs.Otherf("no tags matched `%s`", opts.Find)
	}

	if !opts.NoMove {
		if err := renameWithUndo(dir, renames); err != nil {
			return nil, err
		}
	}

	changed, err := rewriteAllReferences(dir, renames)
	if err != nil {
		return nil, err
	}
	return &RefactorPathsResult{Renames: renames, TagsChanged: changed}, nil
}

// renameWithUndo performs the filesystem renames, rolling back everything
// done so far if one fails.
func renameWithUndo(dir *tagtree.VirtualTagsDirectory, renames map[primitive.TagPath]primitive.TagPath) error {
	type completed struct {
		from primitive.TagPath
		to   primitive.TagPath
	}
	var undo []completed

	for from, to := range renames {
		if err := dir.RenameTag(from, to); err != nil {
			for i := len(undo) - 1; i >= 0; i-- {
				// Failures during rollback are unrecoverable either way.
				dir.RenameTag(undo[i].to, undo[i].from) //nolint:errcheck
			}
			return err
		}
		undo = append(undo, completed{from: from, to: to})
	}
	return nil
}

// rewriteAllReferences rewrites references across every tag concurrently
// through a shared cache, then commits the changed tags.
func rewriteAllReferences(dir *tagtree.VirtualTagsDirectory, renames map[primitive.TagPath]primitive.TagPath) ([]primitive.TagPath, error) {
	cache := tagtree.NewCachingTagTree(dir, tagtree.WriteManual)
	paths := tagtree.AllTags(cache, nil)

	workerCount := runtime.NumCPU()
	if workerCount < 1 {
		workerCount = 1
	}

	var (
		mu       sync.Mutex
		changed  []primitive.TagPath
		firstErr error
	)
	queue := make(chan primitive.TagPath)
	var wg sync.WaitGroup

	for worker := 0; worker < workerCount; worker++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range queue {
				shared, err := cache.OpenTagShared(path)
				if err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					continue
				}

				shared.Lock()
				didChange := rewriteReferences(shared.Tag.Data, func(_ *schema.FieldDef, ref primitive.TagReference) (primitive.TagReference, bool) {
					refPath, set := ref.TagPath()
					if !set {
						return ref, false
					}
					newPath, renamed := renames[refPath]
					if !renamed {
						return ref, false
					}
					return primitive.SetReference(newPath), true
				})
				shared.Unlock()

				if didChange {
					mu.Lock()
					changed = append(changed, path)
					mu.Unlock()
				}
			}
		}()
	}

	for _, path := range paths {
		queue <- path
	}
	close(queue)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	for _, path := range changed {
		if err := cache.Commit(path); err != nil {
			return nil, err
		}
	}
	return changed, nil
}
