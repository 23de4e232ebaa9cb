package game

import (
	"sync"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flock/systems"
)

// agentSnapshot captures read-only state for the parallel phases.
type agentSnapshot struct {
	Entity  ecs.Entity
	ID      uint32
	Pos     r2.Vec
	Vel     r2.Vec
	Heading float64
	Wander  r2.Vec // drawn in snapshot order so results ignore worker count
}

// intent captures computed outputs to apply after the parallel phases.
type intent struct {
	Acc     r2.Vec
	Vel     r2.Vec
	Pos     r2.Vec
	Heading float64
}

// workerScratch holds per-worker reusable buffers.
type workerScratch struct {
	neighbors []systems.Entry
}

// chunkFunc processes snapshot indices [i0, i1).
type chunkFunc func(i0, i1 int, scratch *workerScratch)

type workChunk struct {
	start, end int
	fn         chunkFunc
}

// parallelState owns the per-tick buffers and a persistent worker pool.
// Workers start on the first run that is large enough to split.
type parallelState struct {
	snapshots  []agentSnapshot
	intents    []intent
	entries    []systems.Entry
	scratches  []workerScratch
	numWorkers int
	threshold  int // below this agent count chunks run inline

	jobs    chan workChunk // nil while no workers are running
	workers sync.WaitGroup
	pending sync.WaitGroup // chunks of the current run
}

func newParallelState(numWorkers, threshold int) *parallelState {
	numWorkers = max(1, numWorkers)
	scratches := make([]workerScratch, numWorkers)
	for i := range scratches {
		scratches[i].neighbors = make([]systems.Entry, 0, 64)
	}
	return &parallelState{
		numWorkers: numWorkers,
		threshold:  threshold,
		scratches:  scratches,
		snapshots:  make([]agentSnapshot, 0, 512),
		intents:    make([]intent, 0, 512),
		entries:    make([]systems.Entry, 0, 512),
	}
}

func (p *parallelState) startWorkers() {
	if p.jobs != nil {
		return
	}
	p.jobs = make(chan workChunk, p.numWorkers)
	for i := range p.numWorkers {
		p.workers.Add(1)
		go func(scratch *workerScratch) {
			defer p.workers.Done()
			for c := range p.jobs {
				c.fn(c.start, c.end, scratch)
				p.pending.Done()
			}
		}(&p.scratches[i])
	}
}

// stopWorkers closes the pool and waits for every worker to exit. Safe to
// call more than once.
func (p *parallelState) stopWorkers() {
	if p.jobs == nil {
		return
	}
	close(p.jobs)
	p.workers.Wait()
	p.jobs = nil
}

// run applies fn to [0, n) in contiguous chunks and returns once all are
// done. Small populations and single-worker pools run inline.
func (p *parallelState) run(n int, fn chunkFunc) {
	if n == 0 {
		return
	}
	if n < p.threshold || p.numWorkers == 1 {
		fn(0, n, &p.scratches[0])
		return
	}

	p.startWorkers()
	size := (n + p.numWorkers - 1) / p.numWorkers
	for start := 0; start < n; start += size {
		p.pending.Add(1)
		p.jobs <- workChunk{start: start, end: min(start+size, n), fn: fn}
	}
	p.pending.Wait()
}

// resize prepares the intent buffer for n agents.
func (p *parallelState) resize(n int) {
	if cap(p.intents) < n {
		p.intents = make([]intent, n)
	}
	p.intents = p.intents[:n]
}
