package sim

import (
	"runtime"
	"sync"

	"github.com/pthm-cable/murmur/spatial"
)

// parallelThreshold is the minimum agent count to use parallel
// processing. Below this, single-threaded is faster due to goroutine
// overhead.
const parallelThreshold = 64

// workChunk represents a range of agents for a worker to process.
type workChunk struct {
	start, end int
}

// pool runs the data-parallel tick phases over index ranges on
// persistent worker goroutines. Exactly one phase runs at a time; run
// returns only after every chunk completed, which is the barrier
// between phases.
type pool struct {
	numWorkers int
	scratches  [][]spatial.Neighbor // per-worker neighbor buffers

	fn func(start, end, worker int) // current phase; set while workers are idle

	workChan chan workChunk
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

func newPool(workers int) *pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	scratches := make([][]spatial.Neighbor, workers)
	for i := range scratches {
		scratches[i] = make([]spatial.Neighbor, 0, 64)
	}
	return &pool{
		numWorkers: workers,
		scratches:  scratches,
	}
}

// start launches the persistent worker goroutines.
func (p *pool) start() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// stop signals all workers to exit and waits for them.
func (p *pool) stop() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker processes chunks until stopped.
func (p *pool) worker(workerID int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			p.fn(chunk.start, chunk.end, workerID)
			p.doneChan <- struct{}{}
		}
	}
}

// run executes fn over [0, n) and blocks until all writes are done.
// Small populations run on the calling goroutine.
func (p *pool) run(n int, fn func(start, end, worker int)) {
	if n == 0 {
		return
	}
	if n < parallelThreshold {
		fn(0, n, 0)
		return
	}

	if !p.running {
		p.start()
	}
	p.fn = fn

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers
	dispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}
		p.workChan <- workChunk{start: start, end: end}
		dispatched++
	}

	// Barrier: wait for every chunk before the next phase may start.
	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}
	p.fn = nil
}
