// Package pool provides sync.Pool wrappers for reducing GC pressure and the
// breadcrumb tracker used to locate decode errors.
package pool

import (
	"strconv"
	"sync"
)

// PathBuilder builds dotted element paths in a reusable byte buffer.
type PathBuilder struct {
	buf []byte
}

var pathBuilderPool = sync.Pool{
	New: func() any {
		return &PathBuilder{
			buf: make([]byte, 0, 256),
		}
	},
}

// AcquirePathBuilder gets a PathBuilder from the pool.
// Call Release() when done to return it to the pool.
func AcquirePathBuilder() *PathBuilder {
	pb := pathBuilderPool.Get().(*PathBuilder)
	pb.Reset()
	return pb
}

// Release returns the PathBuilder to the pool.
func (b *PathBuilder) Release() {
	if b == nil {
		return
	}
	// Don't return oversized buffers to the pool
	if cap(b.buf) <= 4096 {
		pathBuilderPool.Put(b)
	}
}

// Reset clears the buffer without deallocating.
func (b *PathBuilder) Reset() {
	b.buf = b.buf[:0]
}

// Len returns the current length of the path.
func (b *PathBuilder) Len() int {
	return len(b.buf)
}

// AppendWithDot appends a segment with a leading dot if buffer is not empty.
func (b *PathBuilder) AppendWithDot(part string) {
	if len(b.buf) > 0 {
		b.buf = append(b.buf, '.')
	}
	b.buf = append(b.buf, part...)
}

// AppendIndex appends a repeat index in brackets [n].
func (b *PathBuilder) AppendIndex(index int) {
	b.buf = append(b.buf, '[')
	b.buf = strconv.AppendInt(b.buf, int64(index), 10)
	b.buf = append(b.buf, ']')
}

// String returns the built path as a string.
func (b *PathBuilder) String() string {
	return string(b.buf)
}

// NoIndex marks a breadcrumb segment that belongs to a singular field.
const NoIndex = -1

// Segment is one open element frame: the element name and, for repeatable
// fields, its zero-based repeat index.
type Segment struct {
	Name  string
	Index int
}

// Tracker is the breadcrumb of currently open element frames.
// A Tracker belongs to exactly one decode call and is not safe for
// concurrent use.
type Tracker struct {
	segments []Segment
}

var trackerPool = sync.Pool{
	New: func() any {
		return &Tracker{segments: make([]Segment, 0, 32)}
	},
}

// AcquireTracker gets an empty Tracker from the pool.
func AcquireTracker() *Tracker {
	t := trackerPool.Get().(*Tracker)
	t.Reset()
	return t
}

// ReleaseTracker returns a Tracker to the pool.
func ReleaseTracker(t *Tracker) {
	if t == nil {
		return
	}
	if cap(t.segments) <= 1024 {
		t.Reset()
		trackerPool.Put(t)
	}
}

// Push opens a frame. Use NoIndex for singular fields.
func (t *Tracker) Push(name string, index int) {
	t.segments = append(t.segments, Segment{Name: name, Index: index})
}

// Pop closes the innermost frame. Popping an empty tracker is a no-op.
func (t *Tracker) Pop() {
	if len(t.segments) == 0 {
		return
	}
	t.segments[len(t.segments)-1] = Segment{}
	t.segments = t.segments[:len(t.segments)-1]
}

// Depth returns the number of open frames.
func (t *Tracker) Depth() int {
	return len(t.segments)
}

// Reset drops all frames.
func (t *Tracker) Reset() {
	clear(t.segments)
	t.segments = t.segments[:0]
}

// Segments returns a copy of the open frames, outermost first.
func (t *Tracker) Segments() []Segment {
	out := make([]Segment, len(t.segments))
	copy(out, t.segments)
	return out
}

// String renders the breadcrumb, e.g. "Bundle.entry[1].resource".
func (t *Tracker) String() string {
	if len(t.segments) == 0 {
		return ""
	}
	pb := AcquirePathBuilder()
	defer pb.Release()
	for _, s := range t.segments {
		pb.AppendWithDot(s.Name)
		if s.Index >= 0 {
			pb.AppendIndex(s.Index)
		}
	}
	return pb.String()
}
