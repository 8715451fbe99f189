package fhirxml

import (
	"runtime"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if !opts.StrictUnknownElements {
		t.Error("StrictUnknownElements should be true by default")
	}
	if !opts.ApplyBuilderValidation {
		t.Error("ApplyBuilderValidation should be true by default")
	}
	if opts.MaxDepth != DefaultMaxDepth {
		t.Errorf("MaxDepth = %d; want %d", opts.MaxDepth, DefaultMaxDepth)
	}
	if opts.WorkerCount != runtime.NumCPU() {
		t.Errorf("WorkerCount = %d; want %d", opts.WorkerCount, runtime.NumCPU())
	}
	if opts.ExpressionCacheSize != 2000 {
		t.Errorf("ExpressionCacheSize = %d; want 2000", opts.ExpressionCacheSize)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a no-op logger")
	}
	if opts.Metrics != nil {
		t.Error("Metrics should be nil by default")
	}
}

func TestWithStrictUnknownElements(t *testing.T) {
	opts := DefaultOptions()

	WithStrictUnknownElements(false)(opts)
	if opts.StrictUnknownElements {
		t.Error("WithStrictUnknownElements(false) should enable lenient mode")
	}

	WithStrictUnknownElements(true)(opts)
	if !opts.StrictUnknownElements {
		t.Error("WithStrictUnknownElements(true) should enable strict mode")
	}
}

func TestWithBuilderValidation(t *testing.T) {
	opts := DefaultOptions()

	WithBuilderValidation(false)(opts)
	if opts.ApplyBuilderValidation {
		t.Error("WithBuilderValidation(false) should disable validation")
	}
}

func TestWithMaxDepth(t *testing.T) {
	opts := DefaultOptions()

	WithMaxDepth(10)(opts)
	if opts.MaxDepth != 10 {
		t.Errorf("MaxDepth = %d; want 10", opts.MaxDepth)
	}

	WithMaxDepth(0)(opts)
	if opts.MaxDepth != 0 {
		t.Errorf("MaxDepth = %d; want 0 (disabled)", opts.MaxDepth)
	}

	// Negative should not change
	WithMaxDepth(-1)(opts)
	if opts.MaxDepth != 0 {
		t.Errorf("MaxDepth = %d; want 0 (unchanged)", opts.MaxDepth)
	}
}

func TestWithWorkerCount(t *testing.T) {
	opts := DefaultOptions()

	WithWorkerCount(4)(opts)
	if opts.WorkerCount != 4 {
		t.Errorf("WorkerCount = %d; want 4", opts.WorkerCount)
	}

	// Zero should not change
	WithWorkerCount(0)(opts)
	if opts.WorkerCount != 4 {
		t.Errorf("WorkerCount = %d; want 4 (unchanged)", opts.WorkerCount)
	}

	// Negative should not change
	WithWorkerCount(-1)(opts)
	if opts.WorkerCount != 4 {
		t.Errorf("WorkerCount = %d; want 4 (unchanged)", opts.WorkerCount)
	}
}

func TestWithExpressionCacheSize(t *testing.T) {
	opts := DefaultOptions()

	WithExpressionCacheSize(50)(opts)
	if opts.ExpressionCacheSize != 50 {
		t.Errorf("ExpressionCacheSize = %d; want 50", opts.ExpressionCacheSize)
	}

	WithExpressionCacheSize(0)(opts)
	if opts.ExpressionCacheSize != 50 {
		t.Error("Zero should not change ExpressionCacheSize")
	}
}

func TestWithLogger(t *testing.T) {
	opts := DefaultOptions()
	log := zaptest.NewLogger(t)

	WithLogger(log)(opts)
	if opts.Logger != log {
		t.Error("WithLogger should set the logger")
	}

	WithLogger(nil)(opts)
	if opts.Logger == nil {
		t.Error("WithLogger(nil) should install a no-op logger")
	}
}

func TestWithMetrics(t *testing.T) {
	opts := DefaultOptions()
	m := NewMetrics()

	WithMetrics(m)(opts)
	if opts.Metrics != m {
		t.Error("WithMetrics should share the given metrics")
	}
}

func TestApply(t *testing.T) {
	opts := Apply(WithMaxDepth(3), WithLogger(zap.NewNop()), WithStrictUnknownElements(false))

	if opts.MaxDepth != 3 {
		t.Errorf("MaxDepth = %d; want 3", opts.MaxDepth)
	}
	if opts.StrictUnknownElements {
		t.Error("StrictUnknownElements = true; want false")
	}
	if !opts.ApplyBuilderValidation {
		t.Error("untouched defaults should survive Apply")
	}
}

func TestPresets(t *testing.T) {
	tests := []struct {
		name       string
		preset     []Option
		strict     bool
		validation bool
	}{
		{"lenient", LenientOptions(), false, true},
		{"fast", FastOptions(), true, false},
		{"strict", StrictOptions(), true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := Apply(tt.preset...)
			if opts.StrictUnknownElements != tt.strict {
				t.Errorf("StrictUnknownElements = %v; want %v", opts.StrictUnknownElements, tt.strict)
			}
			if opts.ApplyBuilderValidation != tt.validation {
				t.Errorf("ApplyBuilderValidation = %v; want %v", opts.ApplyBuilderValidation, tt.validation)
			}
		})
	}
}
