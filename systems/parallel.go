package systems

import (
	"runtime"
	"sync"
)

// parallelThreshold is the minimum cell count to split the field pass
// across workers. Below this, a single goroutine is faster.
const parallelThreshold = 4096

// rowChunk is a half-open range of field rows for one worker.
type rowChunk struct {
	y0, y1 int
}

// rowPool runs a row kernel across persistent worker goroutines.
type rowPool struct {
	numWorkers int
	kernel     func(y0, y1 int)

	workChan chan rowChunk  // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool
}

// newRowPool creates a pool. workers <= 0 uses GOMAXPROCS.
func newRowPool(workers int, kernel func(y0, y1 int)) *rowPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &rowPool{numWorkers: workers, kernel: kernel}
}

func (p *rowPool) start() {
	if p.running {
		return
	}

	p.workChan = make(chan rowChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// stop signals all workers to exit and waits for them.
func (p *rowPool) stop() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

func (p *rowPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			p.kernel(chunk.y0, chunk.y1)
			p.doneChan <- struct{}{}
		}
	}
}

// run applies the kernel to rows [0, rows) and blocks until every chunk is done.
// Small grids and single-worker pools run inline.
func (p *rowPool) run(rows, cells int) {
	if p.numWorkers <= 1 || cells < parallelThreshold || rows < 2 {
		p.kernel(0, rows)
		return
	}

	p.start()

	chunkSize := (rows + p.numWorkers - 1) / p.numWorkers
	dispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		y0 := w * chunkSize
		y1 := y0 + chunkSize
		if y1 > rows {
			y1 = rows
		}
		if y0 >= y1 {
			continue
		}
		p.workChan <- rowChunk{y0: y0, y1: y1}
		dispatched++
	}

	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}
}
