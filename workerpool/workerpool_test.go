package workerpool

import (
	"context"
	"sync/atomic"
	"testing"
)

func TestRunPreservesInputOrder(t *testing.T) {
	p := New(context.Background(), 4)
	defer p.Stop()

	jobs := make([]Job, 20)
	for i := 0; i < len(jobs); i++ {
		i := i
		jobs[i] = func() any { return i * i }
	}

	results := p.Run(jobs)
	for i, r := range results {
		if r.(int) != i*i {
			t.Fatalf("result %d out of order: got %v, want %v", i, r, i*i)
		}
	}
}

func TestSubmitAfterStopReturnsFalse(t *testing.T) {
	p := New(context.Background(), 2)
	p.Stop()

	if p.Submit(func() any { return nil }) {
		t.Fatalf("expected Submit to fail after Stop")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	p := New(context.Background(), 2)
	p.Stop()
	p.Stop() // must not panic or block a second time
}

func TestContextCancellationStopsWorkersWithoutExplicitStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := New(ctx, 2)
	cancel()

	var ran atomic.Bool
	p.Run([]Job{func() any { ran.Store(true); return nil }})
	// Either the job ran before cancellation landed or it was dropped; the
	// call must simply return rather than hang.
	_ = ran.Load()
}
