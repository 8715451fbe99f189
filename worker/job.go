package worker

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/multierr"

	fx "github.com/gofhir/fhirxml"
	"github.com/gofhir/fhirxml/element"
)

// Decoder is what the pool needs from a decoder. *engine.Decoder satisfies it.
type Decoder interface {
	Decode(r io.Reader) (*element.Node, error)
}

// issuer is implemented by errors that know their OperationOutcome issue,
// such as *engine.ParseError.
type issuer interface {
	Issue() fx.Issue
}

// Job is one XML document to decode.
type Job struct {
	// ID identifies the job in results, typically a file name.
	ID string
	// Data holds the raw XML document.
	Data []byte
}

// JobResult is the outcome of one Job.
type JobResult struct {
	ID string
	// Result is nil only when the job was never started. It comes from the
	// result pool; callers done with it may hand it back with Release.
	Result *fx.Result
	// Err is the decode error, or the context error for skipped jobs.
	Err      error
	Duration time.Duration
}

// BatchResult aggregates the results of a batch in submission order.
type BatchResult struct {
	Results       []*JobResult
	TotalJobs     int
	CompletedJobs int
	FailedJobs    int
	TotalDuration time.Duration
}

// HasErrors reports whether any job failed or was skipped.
func (br *BatchResult) HasErrors() bool {
	for _, r := range br.Results {
		if r != nil && r.Err != nil {
			return true
		}
	}
	return false
}

// ErrorCount returns the number of error issues across all results.
func (br *BatchResult) ErrorCount() int {
	n := 0
	for _, r := range br.Results {
		if r != nil && r.Result != nil {
			n += r.Result.ErrorCount()
		}
	}
	return n
}

// AverageDuration returns the mean time per completed job.
func (br *BatchResult) AverageDuration() time.Duration {
	if br.CompletedJobs == 0 {
		return 0
	}
	return br.TotalDuration / time.Duration(br.CompletedJobs)
}

// Err combines every job error, each prefixed with its job ID.
func (br *BatchResult) Err() error {
	var err error
	for _, r := range br.Results {
		if r != nil && r.Err != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", r.ID, r.Err))
		}
	}
	return err
}

// runJob decodes one job into a result record.
func runJob(dec Decoder, job Job) *JobResult {
	if dec == nil {
		return &JobResult{ID: job.ID, Err: ErrNoDecoder}
	}
	start := time.Now()
	res := fx.AcquireResult()
	res.Source = job.ID

	n, err := dec.Decode(bytes.NewReader(job.Data))
	if err != nil {
		res.AddIssue(issueFor(err))
	} else {
		res.Resource = n
		res.ResourceType = n.TypeName()
	}
	return &JobResult{
		ID:       job.ID,
		Result:   res,
		Err:      err,
		Duration: time.Since(start),
	}
}

func issueFor(err error) fx.Issue {
	var is issuer
	if errors.As(err, &is) {
		return is.Issue()
	}
	return fx.Error(fx.IssueTypeException).Diagnostics(err.Error()).Build()
}
