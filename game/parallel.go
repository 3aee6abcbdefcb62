package game

import (
	"sync"
)

// defaultMinChunk is the minimum particle count to use parallel processing.
// Below this, single-threaded is faster due to goroutine overhead.
const defaultMinChunk = 2048

// workChunk represents a range of particles for a worker to process.
type workChunk struct {
	index      int // chunk slot, used to store per-chunk results
	start, end int
}

// workerPool runs index-range jobs on persistent goroutines.
// Chunk boundaries depend only on the particle count and worker count,
// so results are identical for any scheduling order.
type workerPool struct {
	numWorkers int
	minChunk   int

	job func(chunk, start, end int)

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

func newWorkerPool(numWorkers, minChunk int) *workerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if minChunk < 1 {
		minChunk = defaultMinChunk
	}
	return &workerPool{
		numWorkers: numWorkers,
		minChunk:   minChunk,
	}
}

// startWorkers launches persistent worker goroutines.
func (p *workerPool) startWorkers() {
	if p.running || p.numWorkers < 2 {
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
func (p *workerPool) stopWorkers() {
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
func (p *workerPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			p.job(chunk.index, chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

// chunkCount returns how many chunks run splits n items into.
func (p *workerPool) chunkCount(n int) int {
	if n <= 0 {
		return 0
	}
	if !p.running || n < p.minChunk {
		return 1
	}
	chunkSize := (n + p.numWorkers - 1) / p.numWorkers
	return (n + chunkSize - 1) / chunkSize
}

// run calls job on disjoint ranges covering [0, n) and returns once all
// ranges are done. It returns the number of chunks used.
func (p *workerPool) run(n int, job func(chunk, start, end int)) int {
	chunks := p.chunkCount(n)
	if chunks <= 1 {
		if n > 0 {
			job(0, 0, n)
		}
		return chunks
	}

	// The channel send orders this write before any worker reads it.
	p.job = job

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers
	sent := 0
	for i := 0; i < chunks; i++ {
		start := i * chunkSize
		end := min(start+chunkSize, n)
		p.workChan <- workChunk{index: i, start: start, end: end}
		sent++
	}

	for i := 0; i < sent; i++ {
		<-p.doneChan
	}
	p.job = nil
	return chunks
}
