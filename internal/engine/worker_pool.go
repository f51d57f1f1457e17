package engine

import (
	"context"
	"runtime"
	"sync"
	"time"

	rerrors "github.com/quantframe/walkeval/internal/errors"
	"github.com/quantframe/walkeval/internal/stitch"
	"github.com/quantframe/walkeval/pkg/types"
)

// windowJob is a single window's fit/predict task.
type windowJob struct {
	Ord    int
	Window types.Window
}

// windowResult is the outcome of one window job. Part carries the window's
// OOS scores (possibly all-NaN after a recovered failure); Err is set only
// for failures that must abort the run.
type windowResult struct {
	Ord      int
	Part     stitch.WindowScores
	Diags    []Diagnostic
	Err      *rerrors.RunError
	Duration time.Duration
}

// windowPool runs window jobs across a fixed set of workers. Windows are
// mutually independent, so the only coordination is the job and result
// channels; results are merged by the collector after each window completes
// in full, never mid-flight.
type windowPool struct {
	workerCount int
	jobs        chan windowJob
	results     chan windowResult
	wg          sync.WaitGroup
}

func newWindowPool(workerCount int) *windowPool {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	return &windowPool{
		workerCount: workerCount,
		jobs:        make(chan windowJob),
		results:     make(chan windowResult),
	}
}

// start launches the workers. Each worker drains the job channel and exits
// when it closes; an in-flight job always produces a result.
func (p *windowPool) start(process func(windowJob) windowResult) {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				p.results <- process(job)
			}
		}()
	}
	go func() {
		p.wg.Wait()
		close(p.results)
	}()
}

// dispatch feeds windows to the workers until done or the context is
// cancelled. Cancellation stops new dispatches at window granularity;
// already-dispatched windows run to completion.
func (p *windowPool) dispatch(ctx context.Context, windows []types.Window) {
	go func() {
		defer close(p.jobs)
		for ord, w := range windows {
			select {
			case <-ctx.Done():
				return
			case p.jobs <- windowJob{Ord: ord, Window: w}:
			}
		}
	}()
}
