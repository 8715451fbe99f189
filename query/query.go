// Package query evaluates FHIRPath expressions over decoded element trees.
//
// Nodes are rendered to FHIR JSON and handed to the fhirpath engine.
// Compiled expressions are kept in an LRU cache shared by all callers.
package query

import (
	"errors"
	"fmt"

	"github.com/gofhir/fhirpath"
	"go.uber.org/zap"

	fx "github.com/gofhir/fhirxml"
	"github.com/gofhir/fhirxml/cache"
	"github.com/gofhir/fhirxml/element"
)

var (
	// ErrCompile wraps FHIRPath syntax errors.
	ErrCompile = errors.New("fhirpath compile error")
	// ErrEvaluate wraps failures while evaluating a compiled expression.
	ErrEvaluate = errors.New("fhirpath evaluation error")
)

// Evaluator runs FHIRPath expressions against element nodes.
// It is safe for concurrent use.
type Evaluator struct {
	exprs   *cache.Cache[string, *fhirpath.Expression]
	metrics *fx.Metrics
	log     *zap.Logger
}

// New creates an Evaluator sized and instrumented from the options.
func New(opts ...fx.Option) *Evaluator {
	o := fx.Apply(opts...)
	e := &Evaluator{
		exprs:   cache.New[string, *fhirpath.Expression](o.ExpressionCacheSize),
		metrics: o.Metrics,
		log:     o.Logger,
	}
	if e.metrics == nil {
		e.metrics = fx.NewMetrics()
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	e.log = e.log.Named("query")
	return e
}

// Compile returns the compiled form of expr, from cache when possible.
func (e *Evaluator) Compile(expr string) (*fhirpath.Expression, error) {
	compiled, hit, err := e.exprs.GetOrLoad(expr, func() (*fhirpath.Expression, error) {
		return fhirpath.Compile(expr)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrCompile, expr, err)
	}
	if hit {
		e.metrics.RecordCacheHit()
	} else {
		e.metrics.RecordCacheMiss()
		e.log.Debug("Compiled expression", zap.String("expression", expr))
	}
	return compiled, nil
}

// Evaluate runs expr against n and returns the raw result collection.
func (e *Evaluator) Evaluate(n *element.Node, expr string) (fhirpath.Collection, error) {
	if n == nil {
		return nil, fmt.Errorf("%w: nil node", ErrEvaluate)
	}
	compiled, err := e.Compile(expr)
	if err != nil {
		return nil, err
	}
	data, err := n.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("%w: rendering %s: %v", ErrEvaluate, n.TypeName(), err)
	}
	result, err := compiled.Evaluate(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrEvaluate, expr, err)
	}
	return result, nil
}

// Test evaluates expr with FHIRPath truthiness: an empty result is false, a
// single boolean is its value, anything else non-empty is true.
func (e *Evaluator) Test(n *element.Node, expr string) (bool, error) {
	result, err := e.Evaluate(n, expr)
	if err != nil {
		return false, err
	}
	if result.Empty() {
		return false, nil
	}
	if b, err := result.ToBoolean(); err == nil {
		return b, nil
	}
	return true, nil
}

// Strings evaluates expr and formats every item of the result.
func (e *Evaluator) Strings(n *element.Node, expr string) ([]string, error) {
	result, err := e.Evaluate(n, expr)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(result))
	for _, v := range result {
		out = append(out, fmt.Sprint(v))
	}
	return out, nil
}

// CacheStats reports the compiled-expression cache counters.
func (e *Evaluator) CacheStats() cache.Stats {
	return e.exprs.Stats()
}

// Metrics returns the metrics the evaluator records cache lookups into.
func (e *Evaluator) Metrics() *fx.Metrics {
	return e.metrics
}
