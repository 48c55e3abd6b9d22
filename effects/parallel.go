package effects

import (
	"runtime"
	"sync"
)

// defaultParallelThreshold is the minimum instance count to use the worker
// pool. Below this, updating on the calling goroutine is faster.
const defaultParallelThreshold = 16

// workChunk is a range of instances for a worker to update.
type workChunk struct {
	start, end int
	dt         float32
}

// parallelState holds the persistent worker pool. Workers only touch the
// effects in their chunk; every effect owns its stores, random source and
// pools, so chunks share no mutable state.
type parallelState struct {
	effects    []*Effect
	numWorkers int
	threshold  int

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

func newParallelState(workers, threshold int) *parallelState {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if threshold <= 0 {
		threshold = defaultParallelThreshold
	}
	return &parallelState{
		numWorkers: workers,
		threshold:  threshold,
		effects:    make([]*Effect, 0, 64),
	}
}

// startWorkers launches persistent worker goroutines.
func (p *parallelState) startWorkers() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (p *parallelState) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *parallelState) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			p.updateChunk(chunk.start, chunk.end, chunk.dt)
			p.doneChan <- struct{}{}
		}
	}
}

func (p *parallelState) updateChunk(i0, i1 int, dt float32) {
	for _, e := range p.effects[i0:i1] {
		e.Update(dt)
	}
}

// update advances the snapshot, serially for small populations.
func (p *parallelState) update(dt float32) {
	n := len(p.effects)
	if n == 0 {
		return
	}
	if n < p.threshold || p.numWorkers == 1 {
		p.updateChunk(0, n, dt)
		return
	}

	if !p.running {
		p.startWorkers()
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers

	// Dispatch chunks to workers
	chunksDispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		p.workChan <- workChunk{start: start, end: end, dt: dt}
		chunksDispatched++
	}

	// Wait for all chunks to complete
	for i := 0; i < chunksDispatched; i++ {
		<-p.doneChan
	}
}
