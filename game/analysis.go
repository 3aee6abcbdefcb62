package game

import (
	"sync"
	"sync/atomic"

	"github.com/pthm-cable/particlevision/vision"
)

// asyncAnalyzer runs edge detection and motion estimation off the tick.
// At most one frame is in flight; frames submitted while the worker is
// busy are dropped, never queued, and the tick keeps using the most
// recent completed analysis.
type asyncAnalyzer struct {
	analyzer *vision.Analyzer

	requests chan struct{}
	busy     atomic.Bool
	pending  vision.Frame // owned copy of the submitted frame
	pendGen  uint64

	// gen is bumped by Reset; results from older generations are discarded.
	gen atomic.Uint64

	mu        sync.Mutex
	latest    vision.Analysis
	latestGen uint64
	hasLatest bool

	stop chan struct{}
	wg   sync.WaitGroup
}

func newAsyncAnalyzer(smoothing float32) *asyncAnalyzer {
	return &asyncAnalyzer{
		analyzer: vision.NewAnalyzer(smoothing),
		requests: make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}
}

// start launches the worker goroutine.
func (a *asyncAnalyzer) start() {
	a.wg.Add(1)
	go a.run()
}

// close stops the worker and waits for it.
func (a *asyncAnalyzer) close() {
	close(a.stop)
	a.wg.Wait()
}

// submit hands f to the worker. It returns false, without copying, when
// an analysis is already in flight. A resized frame starts a new
// generation even when it is dropped, so the next accepted frame is never
// diffed against one sampled at the old aspect.
func (a *asyncAnalyzer) submit(f *vision.Frame) bool {
	if f.Resized {
		a.reset()
	}
	if !a.busy.CompareAndSwap(false, true) {
		return false
	}
	a.pending.Width = f.Width
	a.pending.Height = f.Height
	a.pending.Aspect = f.Aspect
	a.pending.Resized = f.Resized
	a.pending.Pix = append(a.pending.Pix[:0], f.Pix...)
	a.pendGen = a.gen.Load()
	a.requests <- struct{}{}
	return true
}

func (a *asyncAnalyzer) run() {
	defer a.wg.Done()

	var analyzedGen uint64
	for {
		select {
		case <-a.stop:
			return
		case <-a.requests:
			if a.pendGen != analyzedGen {
				a.analyzer.Reset()
				analyzedGen = a.pendGen
			}
			res := a.analyzer.Analyze(&a.pending)

			a.mu.Lock()
			if a.pendGen == a.gen.Load() {
				res.Clone(&a.latest)
				a.latestGen = a.pendGen
				a.hasLatest = true
			}
			a.mu.Unlock()

			a.busy.Store(false)
		}
	}
}

// latestInto copies the most recent analysis of the current generation
// into dst. It returns false if none has completed yet.
func (a *asyncAnalyzer) latestInto(dst *vision.Analysis) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.hasLatest || a.latestGen != a.gen.Load() {
		return false
	}
	a.latest.Clone(dst)
	return true
}

// reset discards the motion history and the latest analysis.
func (a *asyncAnalyzer) reset() {
	a.mu.Lock()
	a.gen.Add(1)
	a.hasLatest = false
	a.mu.Unlock()
}
