// Package verify checks tags for integrity: schema-agnostic float and
// reference checks applied to every tag, plus per-group checks that cross
// into depended tags. Verification runs under a worker pool and memoizes
// results so shared dependencies are verified once.
package verify

import (
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/FishAndRips/ringhopper-sub000/primitive"
	"github.com/FishAndRips/ringhopper-sub000/schema"
	"github.com/FishAndRips/ringhopper-sub000/tagfile"
	"github.com/FishAndRips/ringhopper-sub000/tagtree"
)

// Severity grades an issue.
type Severity int

const (
	// SeverityWarning marks something suspicious that does not break the tag.
	SeverityWarning Severity = iota

	// SeverityError marks a defect that makes the tag unusable.
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Issue is one finding on one tag.
type Issue struct {
	Severity Severity
	Detail   string
}

// Result is the verification outcome of one tag.
type Result struct {
	Path   primitive.TagPath
	Issues []Issue

	// OpenError is set when the tag could not be opened at all.
	OpenError error
}

// Ok reports whether the tag has no errors (warnings are allowed).
func (r *Result) Ok() bool {
	if r.OpenError != nil {
		return false
	}
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return false
		}
	}
	return true
}

func (r *Result) errorf(format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Severity: SeverityError, Detail: fmt.Sprintf(format, args...)})
}

func (r *Result) warnf(format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Severity: SeverityWarning, Detail: fmt.Sprintf(format, args...)})
}

type state int

const (
	stateUnverified state = iota
	stateInProgress
	stateDone
)

// Verifier runs verification over a tree.
type Verifier struct {
	tree    tagtree.TagTree
	workers int

	mu      sync.Mutex
	states  map[primitive.TagPath]state
	results map[primitive.TagPath]*Result
}

// NewVerifier builds a verifier with the given worker count; zero or less
// selects the available parallelism.
func NewVerifier(tree tagtree.TagTree, workers int) *Verifier {
	if workers <= 0 {
		workers = runtime.NumCPU()
		if workers < 1 {
			workers = 1
		}
	}
	return &Verifier{
		tree:    tree,
		workers: workers,
		states:  map[primitive.TagPath]state{},
		results: map[primitive.TagPath]*Result{},
	}
}

// reserve attempts to claim a path for verification. It returns the finished
// result if one exists, busy=true if another worker currently owns the path,
// and claimed=true when the caller must verify it.
func (v *Verifier) reserve(path primitive.TagPath) (result *Result, busy, claimed bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	switch v.states[path] {
	case stateDone:
		return v.results[path], false, false
	case stateInProgress:
		return nil, true, false
	default:
		v.states[path] = stateInProgress
		return nil, false, true
	}
}

func (v *Verifier) finish(path primitive.TagPath, result *Result) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.states[path] = stateDone
	v.results[path] = result
}

// release returns a claimed path to the unverified state (used when a
// dependency is busy and the tag must be retried).
func (v *Verifier) release(path primitive.TagPath) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.states[path] == stateInProgress {
		v.states[path] = stateUnverified
	}
}

// VerifyAll verifies every tag matching the filter and returns results by
// path. Verification of the same verifier instance is cumulative: tags
// already verified (for example as dependencies) are not recomputed.
func (v *Verifier) VerifyAll(filter *tagtree.TagFilter) map[primitive.TagPath]*Result {
	paths := tagtree.AllTags(v.tree, filter)

	// A shared deque of remaining paths. A path owned by another worker is
	// pushed back and retried later, so no worker ever waits on another.
	var queueMu sync.Mutex
	queue := append([]primitive.TagPath(nil), paths...)
	var remaining atomic.Int64
	remaining.Store(int64(len(paths)))

	var wg sync.WaitGroup
	for worker := 0; worker < v.workers; worker++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for remaining.Load() > 0 {
				queueMu.Lock()
				if len(queue) == 0 {
					queueMu.Unlock()
					runtime.Gosched()
					continue
				}
				path := queue[0]
				queue = queue[1:]
				queueMu.Unlock()

				requeue := func() {
					queueMu.Lock()
					queue = append(queue, path)
					queueMu.Unlock()
				}
				if done := v.verifyOrRequeue(path, requeue); done {
					remaining.Add(-1)
				}
			}
		}()
	}
	wg.Wait()

	v.mu.Lock()
	defer v.mu.Unlock()
	out := make(map[primitive.TagPath]*Result, len(paths))
	for _, path := range paths {
		if result, ok := v.results[path]; ok {
			out[path] = result
		}
	}
	return out
}

// verifyOrRequeue verifies a path, or requeues it when it (or a dependency)
// is owned by another worker. Returns whether the path reached a terminal
// state.
func (v *Verifier) verifyOrRequeue(path primitive.TagPath, requeue func()) bool {
	_, busy, claimed := v.reserve(path)
	if busy {
		requeue()
		return false
	}
	if !claimed {
		return true
	}
	if retry := v.verifyClaimed(path); retry {
		v.release(path)
		requeue()
		return false
	}
	return true
}

// Verify verifies a single tag (and, transitively, its dependencies),
// returning its result. Verifying the same path twice returns the memoized
// result.
func (v *Verifier) Verify(path primitive.TagPath) *Result {
	for {
		result, busy, claimed := v.reserve(path)
		if result != nil {
			return result
		}
		if busy {
			// Another worker owns it; yield and retry. Progress is
			// guaranteed because owners never wait on busy paths.
			runtime.Gosched()
			continue
		}
		if claimed {
			if retry := v.verifyClaimed(path); retry {
				v.release(path)
				continue
			}
			v.mu.Lock()
			result := v.results[path]
			v.mu.Unlock()
			return result
		}
	}
}

// verifyClaimed runs the actual checks for a path the caller has claimed.
// It returns retry=true when a dependency was busy and the path must be
// re-attempted later; otherwise the result has been recorded.
func (v *Verifier) verifyClaimed(path primitive.TagPath) (retry bool) {
	result := &Result{Path: path}

	tag, err := v.tree.GetTag(path)
	if err != nil {
		result.OpenError = err
		v.finish(path, result)
		return false
	}

	verifySchemaLevel(tag, result)

	if busy := v.verifyDependencies(tag, result); busy {
		return true
	}

	if busy := verifyGroup(v, tag, path, result); busy {
		return true
	}

	v.finish(path, result)
	return false
}

// verifyDependencies verifies each direct dependency once; a failed
// dependency becomes an error on the dependent.
func (v *Verifier) verifyDependencies(tag *tagfile.Tag, result *Result) (busy bool) {
	seen := map[primitive.TagPath]struct{}{}
	var walk func(s *schema.Struct) bool
	walk = func(s *schema.Struct) bool {
		for _, name := range s.FieldNames() {
			value, _ := s.Get(name)
			if b := v.walkDependencyValue(value, seen, result); b {
				return true
			}
		}
		return false
	}
	return walk(tag.Data)
}

func (v *Verifier) walkDependencyValue(value any, seen map[primitive.TagPath]struct{}, result *Result) (busy bool) {
	switch inner := value.(type) {
	case primitive.TagReference:
		path, set := inner.TagPath()
		if !set {
			return false
		}
		if _, dup := seen[path]; dup {
			return false
		}
		seen[path] = struct{}{}
		if path == result.Path {
			return false
		}

		dependency, depBusy, claimed := v.reserve(path)
		if depBusy {
			return true
		}
		if claimed {
			if retry := v.verifyClaimed(path); retry {
				v.release(path)
				return true
			}
			v.mu.Lock()
			dependency = v.results[path]
			v.mu.Unlock()
		}
		if dependency != nil && !dependency.Ok() {
			result.errorf("dependency %v failed verification", path)
		}
	case *schema.Struct:
		for _, name := range inner.FieldNames() {
			fieldValue, _ := inner.Get(name)
			if v.walkDependencyValue(fieldValue, seen, result) {
				return true
			}
		}
	case *schema.Reflexive:
		for _, item := range inner.Items() {
			if v.walkDependencyValue(item, seen, result) {
				return true
			}
		}
	case []any:
		for _, element := range inner {
			if v.walkDependencyValue(element, seen, result) {
				return true
			}
		}
	}
	return false
}

// verifySchemaLevel applies the checks every tag gets: NaN floats, color
// component ranges, and reference legality against field allow-lists.
func verifySchemaLevel(tag *tagfile.Tag, result *Result) {
	var walk func(s *schema.Struct, prefix string)
	walk = func(s *schema.Struct, prefix string) {
		for _, name := range s.FieldNames() {
			field, _ := s.FieldDef(name)
			value, _ := s.Get(name)
			checkValue(field, value, prefix+name, result)
		}
	}

	walk(tag.Data, "")
}

func checkValue(field *schema.FieldDef, value any, label string, result *Result) {
	switch v := value.(type) {
	case float32:
		if math.IsNaN(float64(v)) {
			result.errorf("%s is NaN", label)
		}
	case primitive.Angle:
		if math.IsNaN(float64(v)) {
			result.errorf("%s is NaN", label)
		}
	case primitive.ColorARGBFloat:
		checkNaNs(label, result, v.Alpha, v.Red, v.Green, v.Blue)
		if !v.InRange() {
			result.warnf("%s has out-of-range color components", label)
		}
	case primitive.ColorRGBFloat:
		checkNaNs(label, result, v.Red, v.Green, v.Blue)
		if !v.InRange() {
			result.warnf("%s has out-of-range color components", label)
		}
	case primitive.Vector2D:
		checkNaNs(label, result, v.X, v.Y)
	case primitive.Vector3D:
		checkNaNs(label, result, v.X, v.Y, v.Z)
	case primitive.Quaternion:
		checkNaNs(label, result, v.X, v.Y, v.Z, v.W)
	case primitive.TagReference:
		if path, set := v.TagPath(); set {
			if field != nil && !field.AllowsGroup(path.Group()) {
				result.errorf("%s references %v, which is not an allowed group", label, path)
			}
		}
	case *schema.Struct:
		for _, name := range v.FieldNames() {
			innerField, _ := v.FieldDef(name)
			innerValue, _ := v.Get(name)
			checkValue(innerField, innerValue, label+"."+name, result)
		}
	case *schema.Reflexive:
		for i, item := range v.Items() {
			for _, name := range item.FieldNames() {
				innerField, _ := item.FieldDef(name)
				innerValue, _ := item.Get(name)
				checkValue(innerField, innerValue, fmt.Sprintf("%s[%d].%s", label, i, name), result)
			}
		}
	case []any:
		for i, element := range v {
			checkValue(field, element, fmt.Sprintf("%s[%d]", label, i), result)
		}
	}
}

func checkNaNs(label string, result *Result, values ...float32) {
	for _, v := range values {
		if math.IsNaN(float64(v)) {
			result.errorf("%s is NaN", label)
			return
		}
	}
}
