package fhirxml

import (
	"sync"
	"testing"
)

func TestResult_Basic(t *testing.T) {
	r := NewResult()

	if !r.OK {
		t.Error("New result should be OK")
	}
	if len(r.Issues) != 0 {
		t.Errorf("len(Issues) = %d; want 0", len(r.Issues))
	}
	if r.HasErrors() {
		t.Error("New result should have no errors")
	}
}

func TestResult_AddIssue(t *testing.T) {
	r := NewResult()

	r.AddIssue(Warning(IssueTypeProcessing).Diagnostics("skipped").Build())
	if !r.OK {
		t.Error("Warnings should not clear OK")
	}

	r.AddIssue(Error(IssueTypeStructure).Diagnostics("out of order").Build())
	if r.OK {
		t.Error("Errors should clear OK")
	}
	if r.ErrorCount() != 1 {
		t.Errorf("ErrorCount() = %d; want 1", r.ErrorCount())
	}
	if errs := r.Errors(); len(errs) != 1 || errs[0].Diagnostics != "out of order" {
		t.Errorf("Errors() = %v; want the structure error", errs)
	}
}

func TestResult_Clone(t *testing.T) {
	r := NewResult()
	r.Source = "a.xml"
	r.ResourceType = "CodeSystem"
	r.AddIssue(Error(IssueTypeStructure).Build())

	c := r.Clone()
	r.AddIssue(Error(IssueTypeValue).Build())

	if c.Source != "a.xml" || c.ResourceType != "CodeSystem" {
		t.Errorf("Clone = %s/%s; want a.xml/CodeSystem", c.Source, c.ResourceType)
	}
	if len(c.Issues) != 1 {
		t.Errorf("len(Clone.Issues) = %d; want 1", len(c.Issues))
	}
	if c.OK {
		t.Error("Clone should keep OK = false")
	}
}

func TestResult_Pool(t *testing.T) {
	r := AcquireResult()
	r.Source = "job-1"
	r.AddIssue(Error(IssueTypeStructure).Build())
	r.Release()

	r2 := AcquireResult()
	defer r2.Release()

	if !r2.OK {
		t.Error("Acquired result should be OK")
	}
	if len(r2.Issues) != 0 {
		t.Errorf("len(Issues) = %d; want 0", len(r2.Issues))
	}
	if r2.Source != "" {
		t.Errorf("Source = %q; want empty", r2.Source)
	}
}

func TestResult_Pool_NilRelease(t *testing.T) {
	var r *Result
	r.Release()
}

func TestResult_Concurrent(t *testing.T) {
	r := NewResult()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.AddIssue(Error(IssueTypeStructure).Build())
		}()
	}
	wg.Wait()

	if r.ErrorCount() != 100 {
		t.Errorf("ErrorCount() = %d; want 100", r.ErrorCount())
	}
}

func BenchmarkResult_Pool(b *testing.B) {
	for i := 0; i < b.N; i++ {
		r := AcquireResult()
		r.AddIssue(Error(IssueTypeStructure).Build())
		r.Release()
	}
}
