package game

import (
	"sync/atomic"
	"testing"
)

func TestParallelRunCoversRange(t *testing.T) {
	tests := []struct {
		name      string
		workers   int
		threshold int
		n         int
	}{
		{"inline below threshold", 4, 100, 50},
		{"single worker", 1, 0, 37},
		{"pooled even split", 4, 0, 400},
		{"pooled uneven split", 3, 0, 10},
		{"fewer agents than workers", 8, 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newParallelState(tt.workers, tt.threshold)
			defer p.stopWorkers()

			// Two runs reuse the same pool.
			for range 2 {
				hits := make([]atomic.Int32, tt.n)
				p.run(tt.n, func(i0, i1 int, scratch *workerScratch) {
					if scratch == nil {
						t.Error("nil scratch")
					}
					for i := i0; i < i1; i++ {
						hits[i].Add(1)
					}
				})
				for i := range hits {
					if got := hits[i].Load(); got != 1 {
						t.Fatalf("index %d visited %d times", i, got)
					}
				}
			}
		})
	}
}

func TestParallelStopIdempotent(t *testing.T) {
	p := newParallelState(2, 0)
	p.stopWorkers()
	p.run(10, func(int, int, *workerScratch) {})
	p.stopWorkers()
	p.stopWorkers()

	// The pool restarts after a stop.
	var total atomic.Int32
	p.run(10, func(i0, i1 int, _ *workerScratch) { total.Add(int32(i1 - i0)) })
	p.stopWorkers()
	if total.Load() != 10 {
		t.Errorf("processed %d indices after restart, want 10", total.Load())
	}
}
