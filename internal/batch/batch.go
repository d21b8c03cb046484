// Package batch runs a per-directory job over many experiment
// directories. A failing directory never stops the others.
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Job processes one experiment directory.
type Job func(ctx context.Context, dir string) error

// Result is the outcome of a job for one directory.
type Result struct {
	Dir      string
	Err      error
	Duration time.Duration
}

// Run executes job for every directory using up to workers goroutines
// and returns the results in the order of dirs. Directories not yet
// started when ctx is cancelled report ctx.Err(). A panicking job is
// recorded as that directory's error.
func Run(ctx context.Context, dirs []string, workers int, job Job) []Result {
	if workers < 1 {
		workers = 1
	}
	results := make([]Result, len(dirs))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers && w < len(dirs); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = runOne(ctx, dirs[i], job)
			}
		}()
	}

	for i, dir := range dirs {
		if ctx.Err() != nil {
			results[i] = Result{Dir: dir, Err: ctx.Err()}
			continue
		}
		select {
		case jobs <- i:
		case <-ctx.Done():
			results[i] = Result{Dir: dir, Err: ctx.Err()}
		}
	}
	close(jobs)
	wg.Wait()
	return results
}

func runOne(ctx context.Context, dir string, job Job) (res Result) {
	start := time.Now()
	res.Dir = dir
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("panic recovered: %v", r)
		}
		res.Duration = time.Since(start)
	}()
	res.Err = job(ctx, dir)
	return res
}

// Failed returns the results carrying an error.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}
