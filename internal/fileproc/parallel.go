// Package fileproc provides concurrent file processing utilities.
package fileproc

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/sourcegraph/conc/pool"
)

// ProcessingError represents an error that occurred while processing a file.
type ProcessingError struct {
	Index int
	Path  string
	Err   error
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e ProcessingError) Unwrap() error {
	return e.Err
}

// ProcessingErrors collects multiple file processing errors.
type ProcessingErrors struct {
	Errors []ProcessingError
	mu     sync.Mutex
}

// Add appends an error to the collection (thread-safe).
func (e *ProcessingErrors) Add(index int, path string, err error) {
	e.mu.Lock()
	e.Errors = append(e.Errors, ProcessingError{Index: index, Path: path, Err: err})
	e.mu.Unlock()
}

// HasErrors returns true if any errors were collected.
func (e *ProcessingErrors) HasErrors() bool {
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors) > 0
}

// Error implements the error interface.
func (e *ProcessingErrors) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d files failed to process (first: %v)", len(e.Errors), e.Errors[0])
}

// sort orders errors by input index so that output is independent of scheduling.
func (e *ProcessingErrors) sort() {
	sort.Slice(e.Errors, func(i, j int) bool { return e.Errors[i].Index < e.Errors[j].Index })
}

// DefaultWorkerMultiplier is the multiplier applied to NumCPU for worker count.
// 2x is optimal for mixed I/O and CGO workloads.
const DefaultWorkerMultiplier = 2

// ProgressFunc is called after each file is processed.
type ProgressFunc func()

// Options tune a parallel run.
type Options struct {
	// Workers caps concurrency. Zero or less means 2x NumCPU.
	Workers int
	// OnProgress, if set, is called once per file whether it succeeded or not.
	OnProgress ProgressFunc
}

func (o Options) workers(files int) int {
	n := o.Workers
	if n <= 0 {
		n = runtime.NumCPU() * DefaultWorkerMultiplier
	}
	if n > files {
		n = files
	}
	return n
}

func (o Options) tick() {
	if o.OnProgress != nil {
		o.OnProgress()
	}
}

// Map processes files in parallel. results[i] holds the value for files[i];
// entries for failed files are left as the zero value and reported in the
// returned *ProcessingErrors, which is nil when every file succeeded.
// The final error is non-nil only when ctx was cancelled.
func Map[T any](ctx context.Context, files []string, opts Options, fn func(context.Context, string) (T, error)) ([]T, *ProcessingErrors, error) {
	return MapWithResource(ctx, files, opts,
		func() (struct{}, error) { return struct{}{}, nil },
		nil,
		func(ctx context.Context, _ struct{}, path string) (T, error) { return fn(ctx, path) },
	)
}

// MapWithResource processes files in parallel, handing fn a per-worker
// resource (e.g. a parser, which is not safe for concurrent use).
// initResource is called once per worker before any file is processed; a
// failure there aborts the run. closeResource releases every resource after
// all workers are done.
func MapWithResource[T any, R any](
	ctx context.Context,
	files []string,
	opts Options,
	initResource func() (R, error),
	closeResource func(R),
	fn func(context.Context, R, string) (T, error),
) ([]T, *ProcessingErrors, error) {
	if len(files) == 0 {
		return nil, nil, ctx.Err()
	}

	maxWorkers := opts.workers(len(files))
	resourcePool := make(chan R, maxWorkers)
	release := func() {
		close(resourcePool)
		for r := range resourcePool {
			if closeResource != nil {
				closeResource(r)
			}
		}
	}
	for i := 0; i < maxWorkers; i++ {
		r, err := initResource()
		if err != nil {
			release()
			return nil, nil, fmt.Errorf("init worker resource: %w", err)
		}
		resourcePool <- r
	}

	results := make([]T, len(files))
	errs := &ProcessingErrors{}

	p := pool.New().WithMaxGoroutines(maxWorkers).WithContext(ctx)
	for i, path := range files {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}

			r := <-resourcePool
			defer func() { resourcePool <- r }()

			v, err := fn(ctx, r, path)
			if err != nil {
				errs.Add(i, path, err)
			} else {
				results[i] = v
			}
			opts.tick()
			return nil
		})
	}
	_ = p.Wait() // only ctx errors are returned by tasks
	release()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if !errs.HasErrors() {
		return results, nil, nil
	}
	errs.sort()
	return results, errs, nil
}
