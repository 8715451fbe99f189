package fhirxml

import (
	"runtime"

	"go.uber.org/zap"
)

// DefaultMaxDepth is the default nesting limit. Real FHIR documents stay far
// below it; recursive backbones (CodeSystem.concept, Parameters.parameter.part)
// are the deepest structures in practice.
const DefaultMaxDepth = 512

// Option configures the Decoder.
type Option func(*Options)

// Options holds all configuration for the Decoder.
type Options struct {
	// Decoding policy
	StrictUnknownElements  bool
	ApplyBuilderValidation bool
	MaxDepth               int

	// Batch
	WorkerCount int

	// Cache sizes
	ExpressionCacheSize int

	// Observability
	Logger  *zap.Logger
	Metrics *Metrics
}

// DefaultOptions returns the default configuration.
func DefaultOptions() *Options {
	return &Options{
		StrictUnknownElements:  true,
		ApplyBuilderValidation: true,
		MaxDepth:               DefaultMaxDepth,

		WorkerCount: runtime.NumCPU(),

		ExpressionCacheSize: 2000,

		Logger: zap.NewNop(),
	}
}

// Apply returns DefaultOptions with opts applied in order.
func Apply(opts ...Option) *Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// --- Decoding Options ---

// WithStrictUnknownElements controls unrecognized elements. When true they
// fail the decode, when false their subtree is skipped.
func WithStrictUnknownElements(strict bool) Option {
	return func(o *Options) {
		o.StrictUnknownElements = strict
	}
}

// WithBuilderValidation forwards the validation flag to element builders.
func WithBuilderValidation(enable bool) Option {
	return func(o *Options) {
		o.ApplyBuilderValidation = enable
	}
}

// WithMaxDepth sets the nesting limit. Use 0 to disable it.
func WithMaxDepth(depth int) Option {
	return func(o *Options) {
		if depth >= 0 {
			o.MaxDepth = depth
		}
	}
}

// --- Performance Options ---

// WithWorkerCount sets the number of workers for batch decoding.
// Defaults to runtime.NumCPU().
func WithWorkerCount(count int) Option {
	return func(o *Options) {
		if count > 0 {
			o.WorkerCount = count
		}
	}
}

// WithExpressionCacheSize sets the size of the compiled FHIRPath cache.
func WithExpressionCacheSize(size int) Option {
	return func(o *Options) {
		if size > 0 {
			o.ExpressionCacheSize = size
		}
	}
}

// --- Observability Options ---

// WithLogger sets the logger. A nil logger is replaced by a no-op one.
func WithLogger(log *zap.Logger) Option {
	return func(o *Options) {
		if log == nil {
			log = zap.NewNop()
		}
		o.Logger = log
	}
}

// WithMetrics shares a metrics sink between decoders.
func WithMetrics(m *Metrics) Option {
	return func(o *Options) {
		o.Metrics = m
	}
}

// --- Preset Configurations ---

// LenientOptions skips unknown content instead of failing.
func LenientOptions() []Option {
	return []Option{
		WithStrictUnknownElements(false),
	}
}

// FastOptions disables builder validation for trusted input.
func FastOptions() []Option {
	return []Option{
		WithBuilderValidation(false),
	}
}

// StrictOptions enables every check.
func StrictOptions() []Option {
	return []Option{
		WithStrictUnknownElements(true),
		WithBuilderValidation(true),
		WithMaxDepth(DefaultMaxDepth),
	}
}
