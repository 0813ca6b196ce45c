package compiler

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"floc/internal/flo"
	"floc/internal/polyfill"
)

// FileResult is the outcome of compiling one input file.
type FileResult struct {
	// Path is the input file.
	Path string

	// Object is the compiled object, nil when Err is set.
	Object *flo.Object

	// Timings holds the stage durations for this file.
	Timings Timings

	// Err is the failure for this file, if any. One file failing does
	// not stop the others.
	Err error
}

// CompileAll compiles the given files in parallel, each with its own
// context, pass pipeline, and output object. At most jobs files compile
// at once; jobs <= 0 means one per available CPU. A non-nil polyfills
// map replaces the built-in mappings in every per-file compiler.
// Results come back in sorted path order regardless of completion
// order.
func CompileAll(ctx context.Context, paths []string, jobs int, polyfills *polyfill.Map) ([]FileResult, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.Strings(sorted)

	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]FileResult, len(sorted))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(sorted)))

	for i, path := range sorted {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			obj, timings, err := compileFile(path, polyfills)
			results[i] = FileResult{Path: path, Object: obj, Err: err}
			if timings != nil {
				results[i].Timings = *timings
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
