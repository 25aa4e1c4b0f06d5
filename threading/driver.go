// Package threading runs a per-tag function over a filter expansion with a
// worker pool, shared progress counters, and a closing aggregate report.
package threading

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/FishAndRips/ringhopper-sub000/errs"
	"github.com/FishAndRips/ringhopper-sub000/logger"
	"github.com/FishAndRips/ringhopper-sub000/primitive"
	"github.com/FishAndRips/ringhopper-sub000/tagtree"
)

// Outcome is what a per-tag function reports.
type Outcome int

const (
	// Success counts toward the processed total and prints "Saved".
	Success Outcome = iota

	// Skipped counts toward the total but performed no work; prints the
	// reason.
	Skipped

	// Ignored means the tag is out of scope for the operation and does not
	// count toward the total.
	Ignored
)

// Status pairs an outcome with an optional skip reason.
type Status struct {
	Outcome Outcome
	Reason  string
}

// Ok builds a Success status.
func Ok() Status { return Status{Outcome: Success} }

// Skip builds a Skipped status with a reason.
func Skip(reason string) Status { return Status{Outcome: Skipped, Reason: reason} }

// Ignore builds an Ignored status.
func Ignore() Status { return Status{Outcome: Ignored} }

// WrapWriteResult converts a tag tree write result into a status: unchanged
// bytes become a skip.
func WrapWriteResult(changed bool, err error) (Status, error) {
	if err != nil {
		return Status{}, err
	}
	if !changed {
		return Skip("file on disk matches tag"), nil
	}
	return Ok(), nil
}

// DisplayMode selects how much the driver prints.
type DisplayMode int

const (
	// ShowAll prints every processed tag.
	ShowAll DisplayMode = iota

	// Silent prints only the error summary.
	Silent
)

// Context is handed to the per-tag function.
type Context[U any] struct {
	// Tree is the tag tree the batch runs over.
	Tree tagtree.TagTree

	// UserData is the worker's copy of the caller's data.
	UserData U
}

// ProcessFunction is invoked once per tag. Returning an error records a
// failure for that tag without aborting the batch.
type ProcessFunction[U any] func(ctx *Context[U], path primitive.TagPath, log logger.Logger) (Status, error)

// Options configures a batch run.
type Options[U any] struct {
	Tree tagtree.TagTree

	// Filter is either an exact tag path or a filter expression; Group
	// optionally restricts it (and supplies the group for extensionless
	// exact paths).
	Filter string
	Group  *primitive.TagGroup

	UserData U
	Function ProcessFunction[U]

	DisplayMode DisplayMode
	Logger      logger.Logger

	// Verb names the operation in failure lines, e.g. "extract".
	Verb string

	// Workers overrides the worker count; zero selects the available
	// parallelism (minimum 1).
	Workers int
}

// Summary is the aggregate outcome of a batch.
type Summary struct {
	// Total is the number of processed tags, excluding ignored ones.
	Total    uint64
	Success  uint64
	Ignored  uint64
	Failures uint64
	Elapsed  time.Duration
}

// Failed reports whether any tag failed.
func (s *Summary) Failed() bool { return s.Failures > 0 }

type counters struct {
	total   atomic.Uint64
	success atomic.Uint64
	ignored atomic.Uint64
	failure atomic.Uint64
}

// Run expands the filter, processes every matched tag under the worker pool,
// and prints the closing aggregate. Per-tag errors are recorded and logged
// but never abort the batch; the returned summary tells the verb whether to
// exit nonzero.
func Run[U any](opts *Options[U]) (*Summary, error) {
	start := time.Now()
	var c counters

	if !tagtree.IsFilter(opts.Filter) {
		path, err := exactPath(opts.Filter, opts.Group)
		if err != nil {
			return nil, errs.Otherf("invalid tag path `%s`", opts.Filter)
		}
		context := &Context[U]{Tree: opts.Tree, UserData: opts.UserData}
		processOne(opts, context, path, &c)
	} else {
		filter := tagtree.NewTagFilter(opts.Filter, opts.Group)
		paths := tagtree.AllTags(opts.Tree, filter)

		workerCount := opts.Workers
		if workerCount <= 0 {
			workerCount = runtime.NumCPU()
			if workerCount < 1 {
				workerCount = 1
			}
		}

		if workerCount == 1 {
			context := &Context[U]{Tree: opts.Tree, UserData: opts.UserData}
			for _, path := range paths {
				processOne(opts, context, path, &c)
			}
		} else {
			// Workers pop from a shared deque; the lock is held only for the
			// pop itself.
			var mu sync.Mutex
			var wg sync.WaitGroup
			for worker := 0; worker < workerCount; worker++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					context := &Context[U]{Tree: opts.Tree, UserData: opts.UserData}
					for {
						mu.Lock()
						if len(paths) == 0 {
							mu.Unlock()
							return
						}
						path := paths[0]
						paths = paths[1:]
						mu.Unlock()
						processOne(opts, context, path, &c)
					}
				}()
			}
			wg.Wait()
		}
	}

	summary := &Summary{
		Success:  c.success.Load(),
		Ignored:  c.ignored.Load(),
		Failures: c.failure.Load(),
		Total:    c.total.Load() - c.ignored.Load(),
		Elapsed:  time.Since(start),
	}

	if summary.Total == 0 {
		return nil, errs.Otherf("no viable tags matched `%s`", opts.Filter)
	}

	report(opts, summary)
	return summary, nil
}

func exactPath(input string, group *primitive.TagGroup) (primitive.TagPath, error) {
	if group != nil {
		return primitive.NewTagPath(input, *group)
	}
	return primitive.TagPathFromPath(input)
}

func processOne[U any](opts *Options[U], context *Context[U], path primitive.TagPath, c *counters) {
	log := opts.Logger
	c.total.Add(1)

	status, err := opts.Function(context, path, log)
	switch {
	case err != nil:
		c.failure.Add(1)
		log.Error(fmt.Sprintf("Failed to %s %v: %v", opts.Verb, path, err))
		log.Flush()
	case status.Outcome == Success:
		c.success.Add(1)
		if opts.DisplayMode == ShowAll {
			log.Success(fmt.Sprintf("Saved %v", path))
			log.Flush()
		}
	case status.Outcome == Skipped:
		if opts.DisplayMode == ShowAll {
			log.Neutral(fmt.Sprintf("Skipped %v: %s", path, status.Reason))
			log.Flush()
		}
	default:
		c.ignored.Add(1)
	}
}

func report[U any](opts *Options[U], summary *Summary) {
	log := opts.Logger
	plural := func(n uint64) string {
		if n == 1 {
			return ""
		}
		return "s"
	}

	if opts.DisplayMode == Silent {
		if summary.Failures > 0 {
			log.Error(fmt.Sprintf("Failed to process %d tag%s", summary.Failures, plural(summary.Failures)))
			log.Flush()
		}
		return
	}

	if summary.Total > 1 {
		processed := fmt.Sprintf("Saved %d / %d tags in %d ms", summary.Success, summary.Total, summary.Elapsed.Milliseconds())
		if summary.Failures > 0 {
			log.Warning(fmt.Sprintf("%s, with %d error%s", processed, summary.Failures, plural(summary.Failures)))
		} else {
			log.Success(processed)
		}
		log.Flush()
	}
}
