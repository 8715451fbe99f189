package fhirxml

import (
	"sync"

	"github.com/gofhir/fhirxml/element"
)

// Result is the outcome of decoding one document in a batch or from the CLI.
// Use Release() to return it to the pool when done.
type Result struct {
	// Source identifies the document (file name or job ID)
	Source string `json:"source,omitempty"`

	// ResourceType is the root resource type, when known
	ResourceType string `json:"resourceType,omitempty"`

	// OK is true if the document decoded without errors
	OK bool `json:"ok"`

	// Issues describes why the document was rejected
	Issues []Issue `json:"issues,omitempty"`

	// Resource is the decoded value; nil when decoding failed
	Resource *element.Node `json:"-"`

	mu sync.Mutex
}

var resultPool = sync.Pool{
	New: func() any {
		return &Result{
			Issues: make([]Issue, 0, 4),
		}
	},
}

// AcquireResult gets a Result from the pool.
// The result starts as OK with no issues.
func AcquireResult() *Result {
	r := resultPool.Get().(*Result)
	r.Reset()
	return r
}

// Release returns the Result to the pool.
// After calling Release, the Result should not be used.
func (r *Result) Release() {
	if r == nil {
		return
	}
	if cap(r.Issues) <= 1024 {
		r.Resource = nil
		resultPool.Put(r)
	}
}

// Reset clears the result for reuse.
func (r *Result) Reset() {
	r.OK = true
	r.Issues = r.Issues[:0]
	r.Source = ""
	r.ResourceType = ""
	r.Resource = nil
}

// AddIssue adds an issue to the result.
// This method is thread-safe.
func (r *Result) AddIssue(issue Issue) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Issues = append(r.Issues, issue)
	if issue.IsError() {
		r.OK = false
	}
}

// HasErrors returns true if there are any error or fatal issues.
func (r *Result) HasErrors() bool {
	return r.ErrorCount() > 0
}

// ErrorCount returns the number of error and fatal issues.
func (r *Result) ErrorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, issue := range r.Issues {
		if issue.IsError() {
			count++
		}
	}
	return count
}

// Errors returns all error and fatal issues.
func (r *Result) Errors() []Issue {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []Issue
	for _, issue := range r.Issues {
		if issue.IsError() {
			errs = append(errs, issue)
		}
	}
	return errs
}

// Clone creates a copy of the result (not pooled). The decoded resource is
// shared, since nodes are immutable.
func (r *Result) Clone() *Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := &Result{
		Source:       r.Source,
		ResourceType: r.ResourceType,
		OK:           r.OK,
		Issues:       make([]Issue, len(r.Issues)),
		Resource:     r.Resource,
	}
	copy(clone.Issues, r.Issues)
	return clone
}

// NewResult creates a new (non-pooled) result.
func NewResult() *Result {
	return &Result{
		OK:     true,
		Issues: make([]Issue, 0, 4),
	}
}
