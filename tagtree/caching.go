package tagtree

import (
	"sort"
	"sync"

	"github.com/FishAndRips/ringhopper-sub000/errs"
	"github.com/FishAndRips/ringhopper-sub000/primitive"
	"github.com/FishAndRips/ringhopper-sub000/tagfile"
)

// WriteStrategy selects when the caching tree commits writes to its delegate.
type WriteStrategy int

const (
	// WriteInstant commits every write to the delegate immediately.
	WriteInstant WriteStrategy = iota

	// WriteManual defers writes until Commit/CommitAll.
	WriteManual
)

// CachingTagTree wraps a delegate with a tag cache. It guarantees at most one
// shared in-memory instance per path for its lifetime, and under WriteManual
// it batches writes for an explicit commit.
//
// The cache mutex guards only the map itself; parsing and delegate I/O happen
// outside the lock.
type CachingTagTree struct {
	delegate TagTree
	strategy WriteStrategy

	mu    sync.Mutex
	cache map[primitive.TagPath]*SharedTag
}

// NewCachingTagTree wraps a delegate tree.
func NewCachingTagTree(delegate TagTree, strategy WriteStrategy) *CachingTagTree {
	return &CachingTagTree{
		delegate: delegate,
		strategy: strategy,
		cache:    map[primitive.TagPath]*SharedTag{},
	}
}

// Delegate returns the wrapped tree.
func (c *CachingTagTree) Delegate() TagTree { return c.delegate }

func (c *CachingTagTree) lookup(path primitive.TagPath) (*SharedTag, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	shared, ok := c.cache[path]
	return shared, ok
}

// open returns the single shared handle for the path, populating it from the
// delegate on first access.
func (c *CachingTagTree) open(path primitive.TagPath) (*SharedTag, error) {
	if shared, ok := c.lookup(path); ok {
		return shared, nil
	}

	tag, err := c.delegate.GetTag(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Another goroutine may have populated the entry while we were reading;
	// its instance wins so handles stay unique.
	if shared, ok := c.cache[path]; ok {
		return shared, nil
	}
	shared := &SharedTag{Tag: tag}
	c.cache[path] = shared
	return shared, nil
}

func (c *CachingTagTree) GetTag(path primitive.TagPath) (*tagfile.Tag, error) {
	shared, err := c.open(path)
	if err != nil {
		return nil, err
	}
	shared.Lock()
	defer shared.Unlock()
	return shared.Tag.Clone(), nil
}

func (c *CachingTagTree) OpenTagShared(path primitive.TagPath) (*SharedTag, error) {
	return c.open(path)
}

func (c *CachingTagTree) WriteTag(path primitive.TagPath, tag *tagfile.Tag) (bool, error) {
	changed := true
	if c.strategy == WriteInstant {
		var err error
		if changed, err = c.delegate.WriteTag(path, tag); err != nil {
			return false, err
		}
	}

	clone := tag.Clone()
	c.mu.Lock()
	shared, ok := c.cache[path]
	if !ok {
		c.cache[path] = &SharedTag{Tag: clone}
		c.mu.Unlock()
		return changed, nil
	}
	c.mu.Unlock()

	shared.Lock()
	shared.Tag = clone
	shared.Unlock()
	return changed, nil
}

// Commit writes one cached tag to the delegate.
//
// Returns ErrFileNotFound if the path is not cached.
func (c *CachingTagTree) Commit(path primitive.TagPath) error {
	shared, ok := c.lookup(path)
	if !ok {
		return errs.ErrFileNotFound
	}
	shared.Lock()
	defer shared.Unlock()
	_, err := c.delegate.WriteTag(path, shared.Tag)
	return err
}

// CommitError pairs a path with the error its commit produced.
type CommitError struct {
	Path primitive.TagPath
	Err  error
}

// CommitAll writes every cached tag to the delegate, collecting per-path
// errors instead of stopping at the first.
func (c *CachingTagTree) CommitAll() []CommitError {
	c.mu.Lock()
	paths := make([]primitive.TagPath, 0, len(c.cache))
	for path := range c.cache {
		paths = append(paths, path)
	}
	c.mu.Unlock()

	sort.Slice(paths, func(i, j int) bool {
		return paths[i].ToInternalPath() < paths[j].ToInternalPath()
	})

	var failures []CommitError
	for _, path := range paths {
		if err := c.Commit(path); err != nil {
			failures = append(failures, CommitError{Path: path, Err: err})
		}
	}
	return failures
}

// Evict removes a tag from the cache, returning the evicted handle if any.
func (c *CachingTagTree) Evict(path primitive.TagPath) (*SharedTag, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	shared, ok := c.cache[path]
	if ok {
		delete(c.cache, path)
	}
	return shared, ok
}

func (c *CachingTagTree) FilesInPath(dir string) ([]Item, bool) {
	return c.delegate.FilesInPath(dir)
}

func (c *CachingTagTree) Contains(path primitive.TagPath) bool {
	if _, ok := c.lookup(path); ok {
		return true
	}
	return c.delegate.Contains(path)
}

func (c *CachingTagTree) Root() Item { return NewDirectoryItem(c, "") }

func (c *CachingTagTree) IsReadOnly() bool { return c.delegate.IsReadOnly() }

func (c *CachingTagTree) TreeType() TreeType { return c.delegate.TreeType() }
