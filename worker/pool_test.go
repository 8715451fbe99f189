package worker

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	fx "github.com/gofhir/fhirxml"
	"github.com/gofhir/fhirxml/element"
	"github.com/gofhir/fhirxml/engine"
)

const (
	goodDoc = `<CodeSystem xmlns="http://hl7.org/fhir"><status value="active"/><content value="complete"/></CodeSystem>`
	badDoc  = `<CodeSystem xmlns="http://hl7.org/fhir"><content value="complete"/><status value="active"/></CodeSystem>`
)

func newEngine(t *testing.T) *engine.Decoder {
	t.Helper()
	d, err := engine.New(fx.R4, fx.WithLogger(zaptest.NewLogger(t)))
	if err != nil {
		t.Fatalf("engine.New failed: %v", err)
	}
	return d
}

// countingDecoder counts calls and optionally runs a hook first.
type countingDecoder struct {
	calls atomic.Int32
	hook  func(call int32)
	err   error
}

func (c *countingDecoder) Decode(r io.Reader) (*element.Node, error) {
	n := c.calls.Add(1)
	if c.hook != nil {
		c.hook(n)
	}
	if _, err := io.ReadAll(r); err != nil {
		return nil, err
	}
	if c.err != nil {
		return nil, c.err
	}
	b := element.NewFactory(false).NewResource("Basic")
	v, err := b.Build()
	if err != nil {
		return nil, err
	}
	return v.(*element.Node), nil
}

func receive(t *testing.T, p *Pool) *JobResult {
	t.Helper()
	select {
	case r := <-p.Results():
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for result")
		return nil
	}
}

func TestPool_DefaultWorkers(t *testing.T) {
	p := NewPool(context.Background(), &countingDecoder{}, 0, nil)
	defer p.Close()

	if p.Stats().Workers <= 0 {
		t.Errorf("Workers = %d; want > 0", p.Stats().Workers)
	}
}

func TestPool_SubmitAndReceive(t *testing.T) {
	p := NewPool(context.Background(), newEngine(t), 2, zaptest.NewLogger(t))
	defer p.Close()

	if !p.Submit(Job{ID: "cs.xml", Data: []byte(goodDoc)}) {
		t.Fatal("Submit returned false")
	}
	r := receive(t, p)

	if r.ID != "cs.xml" {
		t.Errorf("ID = %q; want cs.xml", r.ID)
	}
	if r.Err != nil {
		t.Fatalf("Err = %v; want nil", r.Err)
	}
	if !r.Result.OK || r.Result.ResourceType != "CodeSystem" || r.Result.Source != "cs.xml" {
		t.Errorf("Result = %+v; want OK CodeSystem from cs.xml", r.Result)
	}
	if r.Result.Resource == nil {
		t.Error("Result.Resource should be set")
	}
}

func TestPool_DecodeErrorBecomesIssue(t *testing.T) {
	p := NewPool(context.Background(), newEngine(t), 1, zaptest.NewLogger(t))
	defer p.Close()

	p.Submit(Job{ID: "bad.xml", Data: []byte(badDoc)})
	r := receive(t, p)

	if !errors.Is(r.Err, engine.ErrOrdering) {
		t.Fatalf("Err = %v; want ErrOrdering", r.Err)
	}
	if r.Result.OK || r.Result.ErrorCount() != 1 {
		t.Fatalf("Result OK=%v errors=%d; want failed with 1 error", r.Result.OK, r.Result.ErrorCount())
	}
	is := r.Result.Issues[0]
	if is.Code != fx.IssueTypeStructure || is.Kind != "ordering" {
		t.Errorf("Issue = %s/%s; want structure/ordering", is.Code, is.Kind)
	}
	if len(is.Expression) != 1 || is.Expression[0] != "CodeSystem" {
		t.Errorf("Issue.Expression = %v; want [CodeSystem]", is.Expression)
	}
}

func TestPool_ForeignErrorBecomesException(t *testing.T) {
	p := NewPool(context.Background(), &countingDecoder{err: io.ErrUnexpectedEOF}, 1, nil)
	defer p.Close()

	p.Submit(Job{ID: "x"})
	r := receive(t, p)

	if r.Result.ErrorCount() != 1 || r.Result.Issues[0].Code != fx.IssueTypeException {
		t.Errorf("Issues = %v; want one exception issue", r.Result.Issues)
	}
}

func TestPool_SubmitAfterClose(t *testing.T) {
	p := NewPool(context.Background(), &countingDecoder{}, 2, nil)
	p.Close()
	p.Close()

	if p.Submit(Job{ID: "late"}) {
		t.Error("Submit after Close should return false")
	}
	if p.TrySubmit(Job{ID: "late"}) {
		t.Error("TrySubmit after Close should return false")
	}
}

func TestPool_NilDecoder(t *testing.T) {
	p := NewPool(context.Background(), nil, 1, nil)
	defer p.Close()

	p.Submit(Job{ID: "nil"})
	if r := receive(t, p); !errors.Is(r.Err, ErrNoDecoder) {
		t.Errorf("Err = %v; want ErrNoDecoder", r.Err)
	}
}

func TestPool_CloseAndWait(t *testing.T) {
	p := NewPool(context.Background(), newEngine(t), 3, zaptest.NewLogger(t))

	for i := 0; i < 6; i++ {
		data := goodDoc
		if i%3 == 0 {
			data = badDoc
		}
		if !p.Submit(Job{ID: string(rune('a' + i)), Data: []byte(data)}) {
			t.Fatalf("Submit %d returned false", i)
		}
	}
	br := p.CloseAndWait()

	if br.TotalJobs != 6 || br.CompletedJobs != 6 {
		t.Errorf("Total/Completed = %d/%d; want 6/6", br.TotalJobs, br.CompletedJobs)
	}
	if br.FailedJobs != 2 {
		t.Errorf("FailedJobs = %d; want 2", br.FailedJobs)
	}
	if len(br.Results) != 6 {
		t.Errorf("len(Results) = %d; want 6", len(br.Results))
	}
	if !br.HasErrors() || br.ErrorCount() != 2 {
		t.Errorf("HasErrors/ErrorCount = %v/%d; want true/2", br.HasErrors(), br.ErrorCount())
	}

	stats := p.Stats()
	if stats.JobsSubmitted != 6 || stats.JobsFailed != 2 || stats.Busy != 0 {
		t.Errorf("Stats = %+v; want 6 submitted, 2 failed, none busy", stats)
	}
}

func TestPool_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPool(ctx, &countingDecoder{}, 1, nil)

	cancel()
	select {
	case <-p.ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("pool context should follow its parent")
	}

	done := make(chan struct{})
	go func() {
		p.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close hung after cancellation")
	}
}

func TestPool_CloseReleasesBlockedSubmit(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	dec := &countingDecoder{hook: func(call int32) {
		if call == 1 {
			close(entered)
			<-release
		}
	}}
	p := NewPool(context.Background(), dec, 1, zaptest.NewLogger(t))

	if !p.Submit(Job{ID: "a", Data: []byte(goodDoc)}) {
		t.Fatal("Submit a returned false")
	}
	<-entered
	for _, id := range []string{"b", "c"} {
		if !p.Submit(Job{ID: id, Data: []byte(goodDoc)}) {
			t.Fatalf("Submit %s returned false", id)
		}
	}

	type outcome struct {
		ok    bool
		panic any
	}
	submitted := make(chan outcome, 1)
	go func() {
		var o outcome
		defer func() {
			o.panic = recover()
			submitted <- o
		}()
		o.ok = p.Submit(Job{ID: "d", Data: []byte(goodDoc)})
	}()
	time.Sleep(20 * time.Millisecond)

	closed := make(chan *BatchResult, 1)
	go func() { closed <- p.CloseAndWait() }()

	select {
	case o := <-submitted:
		if o.panic != nil {
			t.Fatalf("Submit panicked: %v", o.panic)
		}
		if o.ok {
			t.Errorf("Submit = %v; want false on a full queue of a closing pool", o.ok)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Submit still blocked after CloseAndWait")
	}
	close(release)

	select {
	case br := <-closed:
		if br.TotalJobs != 3 || len(br.Results) != 3 {
			t.Errorf("TotalJobs/len(Results) = %d/%d; want 3/3", br.TotalJobs, len(br.Results))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("CloseAndWait hung")
	}
}
