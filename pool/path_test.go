package pool

import (
	"sync"
	"testing"
)

func TestPathBuilder_AppendWithDot(t *testing.T) {
	pb := AcquirePathBuilder()
	defer pb.Release()

	pb.AppendWithDot("CodeSystem")
	pb.AppendWithDot("concept")
	pb.AppendIndex(2)
	pb.AppendWithDot("display")

	if got := pb.String(); got != "CodeSystem.concept[2].display" {
		t.Errorf("String() = %q; want %q", got, "CodeSystem.concept[2].display")
	}

	pb.Reset()
	if pb.Len() != 0 {
		t.Errorf("Len() after Reset = %d; want 0", pb.Len())
	}
}

func TestPathBuilder_NilRelease(t *testing.T) {
	var pb *PathBuilder
	pb.Release() // Should not panic
}

func TestTracker_String(t *testing.T) {
	tests := []struct {
		name     string
		segments []Segment
		want     string
	}{
		{"empty", nil, ""},
		{"root only", []Segment{{"CodeSystem", NoIndex}}, "CodeSystem"},
		{"repeat index", []Segment{{"Bundle", NoIndex}, {"entry", 1}, {"resource", NoIndex}}, "Bundle.entry[1].resource"},
		{"zero index", []Segment{{"ValueSet", NoIndex}, {"compose", NoIndex}, {"include", 0}}, "ValueSet.compose.include[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := AcquireTracker()
			defer ReleaseTracker(tr)
			for _, s := range tt.segments {
				tr.Push(s.Name, s.Index)
			}
			if got := tr.String(); got != tt.want {
				t.Errorf("String() = %q; want %q", got, tt.want)
			}
			if tr.Depth() != len(tt.segments) {
				t.Errorf("Depth() = %d; want %d", tr.Depth(), len(tt.segments))
			}
		})
	}
}

func TestTracker_PushPopSymmetry(t *testing.T) {
	tr := AcquireTracker()
	defer ReleaseTracker(tr)

	tr.Push("Bundle", NoIndex)
	tr.Push("entry", 0)
	tr.Pop()
	tr.Push("entry", 1)

	if got := tr.String(); got != "Bundle.entry[1]" {
		t.Errorf("String() = %q; want %q", got, "Bundle.entry[1]")
	}

	tr.Pop()
	tr.Pop()
	tr.Pop() // extra pop is a no-op

	if tr.Depth() != 0 {
		t.Errorf("Depth() = %d; want 0", tr.Depth())
	}
}

func TestTracker_SegmentsIsCopy(t *testing.T) {
	tr := AcquireTracker()
	defer ReleaseTracker(tr)

	tr.Push("Parameters", NoIndex)
	snap := tr.Segments()
	tr.Push("parameter", 0)

	if len(snap) != 1 {
		t.Fatalf("len(Segments()) = %d; want 1", len(snap))
	}
	snap[0].Name = "changed"
	if got := tr.String(); got != "Parameters.parameter[0]" {
		t.Errorf("String() = %q; want %q", got, "Parameters.parameter[0]")
	}
}

func TestTracker_AcquireIsEmpty(t *testing.T) {
	tr := AcquireTracker()
	tr.Push("ConceptMap", NoIndex)
	ReleaseTracker(tr)

	again := AcquireTracker()
	defer ReleaseTracker(again)
	if again.Depth() != 0 {
		t.Errorf("Depth() of acquired tracker = %d; want 0", again.Depth())
	}
}

func TestTracker_Concurrent(t *testing.T) {
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tr := AcquireTracker()
			tr.Push("Bundle", NoIndex)
			tr.Push("entry", i)
			_ = tr.String()
			ReleaseTracker(tr)
		}(i)
	}

	wg.Wait()
}

func BenchmarkTracker_String(b *testing.B) {
	tr := AcquireTracker()
	defer ReleaseTracker(tr)
	tr.Push("Bundle", NoIndex)
	tr.Push("entry", 0)
	tr.Push("resource", NoIndex)
	tr.Push("CodeSystem", NoIndex)
	tr.Push("concept", 3)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = tr.String()
	}
}
