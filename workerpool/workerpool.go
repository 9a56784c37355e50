// Package workerpool provides a small context-cancellable pool of
// goroutines draining a job channel, generalized from a channel-based
// worker-pool idiom to typed job payloads instead of side-effecting
// closures.
package workerpool

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// Job is a unit of work submitted to the pool.
type Job func() any

// Pool runs a fixed number of worker goroutines, each ranging over a
// shared job channel until the pool is stopped or its context is
// cancelled.
type Pool struct {
	jobs    chan Job
	wg      sync.WaitGroup
	workers int
	closed  atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// New builds a Pool with the given worker count. A count <= 0 defaults
// to runtime.GOMAXPROCS(0), matching the teacher's worker-pool default.
func New(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	cctx, cancel := context.WithCancel(ctx)
	p := &Pool{
		jobs:    make(chan Job, workers*2),
		workers: workers,
		ctx:     cctx,
		cancel:  cancel,
	}
	p.start()
	return p
}

func (p *Pool) start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-p.ctx.Done():
					return
				case job, ok := <-p.jobs:
					if !ok {
						return
					}
					job()
				}
			}
		}()
	}
}

// Submit enqueues job and returns false without running it if the pool
// is closed or its context is done.
func (p *Pool) Submit(job Job) bool {
	if p.closed.Load() || p.ctx.Err() != nil {
		return false
	}
	select {
	case p.jobs <- job:
		return true
	case <-p.ctx.Done():
		return false
	}
}

// Run submits one job per item and blocks until every result is
// collected, preserving input order. This is the shape Phase-A road
// updates use: fan the items out to the pool, wait for all of them,
// then proceed serially.
func (p *Pool) Run(jobs []Job) []any {
	results := make([]any, len(jobs))
	var wg sync.WaitGroup
	wg.Add(len(jobs))
	for i, job := range jobs {
		i, job := i, job
		submitted := p.Submit(func() any {
			defer wg.Done()
			results[i] = job()
			return nil
		})
		if !submitted {
			wg.Done()
		}
	}
	wg.Wait()
	return results
}

// Stop cancels the pool's context, closes the job channel, and waits
// for every worker to return. Safe to call more than once.
func (p *Pool) Stop() {
	if !p.closed.CompareAndSwap(false, true) {
		return
	}
	p.cancel()
	close(p.jobs)
	p.wg.Wait()
}
