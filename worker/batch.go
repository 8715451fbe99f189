package worker

import (
	"context"
	"runtime"
	"sync"

	"go.uber.org/zap"
)

// BatchDecoder decodes a fixed set of documents in parallel and returns the
// results in submission order. Each document gets its own decode call, so a
// failure in one never affects another.
type BatchDecoder struct {
	dec     Decoder
	workers int
	log     *zap.Logger
}

// NewBatchDecoder creates a batch decoder. A non-positive worker count
// means NumCPU.
func NewBatchDecoder(dec Decoder, workers int, log *zap.Logger) *BatchDecoder {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &BatchDecoder{dec: dec, workers: workers, log: log.Named("batch")}
}

// DecodeBatch decodes every job. Cancellation is observed between
// documents: jobs not yet started when ctx is done are reported with the
// context error and a nil Result.
func (bd *BatchDecoder) DecodeBatch(ctx context.Context, jobs []Job) *BatchResult {
	br := &BatchResult{
		Results:   make([]*JobResult, len(jobs)),
		TotalJobs: len(jobs),
	}
	if len(jobs) == 0 {
		return br
	}

	workers := bd.workers
	if workers > len(jobs) {
		workers = len(jobs)
	}
	if workers == 1 {
		bd.sequential(ctx, jobs, br)
	} else {
		bd.parallel(ctx, jobs, workers, br)
	}

	for i, r := range br.Results {
		if r == nil {
			br.Results[i] = &JobResult{ID: jobs[i].ID, Err: context.Cause(ctx)}
			br.FailedJobs++
			continue
		}
		if r.Result != nil {
			br.CompletedJobs++
			br.TotalDuration += r.Duration
		}
		if r.Err != nil {
			br.FailedJobs++
		}
	}

	bd.log.Debug("Batch finished",
		zap.Int("jobs", br.TotalJobs),
		zap.Int("completed", br.CompletedJobs),
		zap.Int("failed", br.FailedJobs),
		zap.Duration("duration", br.TotalDuration))
	return br
}

func (bd *BatchDecoder) sequential(ctx context.Context, jobs []Job, br *BatchResult) {
	for i, job := range jobs {
		if ctx.Err() != nil {
			return
		}
		br.Results[i] = runJob(bd.dec, job)
	}
}

func (bd *BatchDecoder) parallel(ctx context.Context, jobs []Job, workers int, br *BatchResult) {
	indexes := make(chan int)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range indexes {
				// Each worker writes only its own slots.
				br.Results[i] = runJob(bd.dec, jobs[i])
			}
		}()
	}

feed:
	for i := range jobs {
		select {
		case <-ctx.Done():
			break feed
		case indexes <- i:
		}
	}
	close(indexes)
	wg.Wait()
}
