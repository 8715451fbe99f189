package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// ErrNoDecoder is reported for jobs run by a pool without a decoder.
var ErrNoDecoder = errors.New("no decoder configured")

// Pool is a long-lived set of decode workers fed through Submit.
// Results arrive on Results in completion order.
type Pool struct {
	workers int
	jobs    chan Job
	results chan *JobResult
	dec     Decoder
	log     *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed atomic.Bool
	// mu orders sends on jobs against its close; stop wakes blocked senders.
	mu   sync.RWMutex
	stop chan struct{}

	submitted atomic.Uint64
	completed atomic.Uint64
	failed    atomic.Uint64
	busy      atomic.Int64
}

// NewPool starts workers goroutines. A non-positive count means NumCPU.
// The pool stops taking work when ctx is cancelled.
func NewPool(ctx context.Context, dec Decoder, workers int, log *zap.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(ctx)

	p := &Pool{
		workers: workers,
		jobs:    make(chan Job, workers*2),
		results: make(chan *JobResult, workers*2),
		dec:     dec,
		log:     log.Named("pool"),
		ctx:     ctx,
		cancel:  cancel,
		stop:    make(chan struct{}),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

// Submit queues a job, blocking while the queue is full. It returns false
// once the pool is closed or its context is done.
func (p *Pool) Submit(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed.Load() {
		return false
	}
	select {
	case <-p.stop:
		return false
	case <-p.ctx.Done():
		return false
	case p.jobs <- job:
		p.submitted.Add(1)
		return true
	}
}

// TrySubmit queues a job without blocking.
func (p *Pool) TrySubmit(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed.Load() {
		return false
	}
	select {
	case <-p.stop:
		return false
	case <-p.ctx.Done():
		return false
	case p.jobs <- job:
		p.submitted.Add(1)
		return true
	default:
		return false
	}
}

// Results returns the result channel. It is closed by Close or CloseAndWait.
func (p *Pool) Results() <-chan *JobResult {
	return p.results
}

// Close stops the pool and discards results nobody has read.
func (p *Pool) Close() {
	if p.closed.Swap(true) {
		return
	}
	p.cancel()
	p.closeJobs()

	done := make(chan struct{})
	go func() {
		for range p.results {
		}
		close(done)
	}()
	p.wg.Wait()
	close(p.results)
	<-done
}

// CloseAndWait stops accepting jobs, lets queued jobs finish and returns
// every result not yet read from Results.
func (p *Pool) CloseAndWait() *BatchResult {
	if p.closed.Swap(true) {
		return &BatchResult{}
	}
	p.closeJobs()

	go func() {
		p.wg.Wait()
		close(p.results)
		p.cancel()
	}()

	br := &BatchResult{}
	for r := range p.results {
		br.Results = append(br.Results, r)
		br.TotalDuration += r.Duration
	}
	br.TotalJobs = int(p.submitted.Load())
	br.CompletedJobs = int(p.completed.Load())
	br.FailedJobs = int(p.failed.Load())
	return br
}

// closeJobs releases blocked submitters, then closes the queue once no
// send is in flight.
func (p *Pool) closeJobs() {
	close(p.stop)
	p.mu.Lock()
	close(p.jobs)
	p.mu.Unlock()
}

// PoolStats is a snapshot of pool counters.
type PoolStats struct {
	Workers       int
	Busy          int
	JobsSubmitted uint64
	JobsCompleted uint64
	JobsFailed    uint64
}

// Stats returns the current counters.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Workers:       p.workers,
		Busy:          int(p.busy.Load()),
		JobsSubmitted: p.submitted.Load(),
		JobsCompleted: p.completed.Load(),
		JobsFailed:    p.failed.Load(),
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for job := range p.jobs {
		if p.ctx.Err() != nil {
			return
		}
		r := p.process(job)

		select {
		case <-p.ctx.Done():
			return
		case p.results <- r:
		}
	}
}

func (p *Pool) process(job Job) *JobResult {
	p.busy.Add(1)
	defer p.busy.Add(-1)

	r := runJob(p.dec, job)
	p.completed.Add(1)
	if r.Err != nil {
		p.failed.Add(1)
		p.log.Debug("Job failed", zap.String("job", job.ID), zap.Error(r.Err))
	}
	return r
}
