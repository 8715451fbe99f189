// Package engine provides the schema-driven FHIR XML decoder.
package engine

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	fx "github.com/gofhir/fhirxml"
	"github.com/gofhir/fhirxml/element"
	"github.com/gofhir/fhirxml/resource"
	"github.com/gofhir/fhirxml/schema"
)

// Decoder turns FHIR XML documents into element trees.
// The catalogue and dispatcher are immutable and every call gets its own
// decode state, so a Decoder may be shared across goroutines.
type Decoder struct {
	version fx.FHIRVersion
	options *fx.Options

	catalogue  *schema.Catalogue
	dispatcher *resource.Dispatcher
	factory    *element.Factory

	log     *zap.Logger
	metrics *fx.Metrics
}

// New creates a Decoder for the given FHIR version.
func New(version fx.FHIRVersion, opts ...fx.Option) (*Decoder, error) {
	if err := version.CheckDecodable(); err != nil {
		return nil, err
	}
	cat, err := schema.R4()
	if err != nil {
		return nil, fmt.Errorf("loading %s catalogue: %w", version, err)
	}
	return NewWithCatalogue(version, cat, resource.R4Registry(), opts...)
}

// NewWithCatalogue creates a Decoder over a custom catalogue and registry.
func NewWithCatalogue(version fx.FHIRVersion, cat *schema.Catalogue, reg *resource.Registry, opts ...fx.Option) (*Decoder, error) {
	options := fx.Apply(opts...)

	disp, err := resource.NewDispatcher(cat, reg)
	if err != nil {
		return nil, fmt.Errorf("building dispatcher: %w", err)
	}

	d := &Decoder{
		version:    version,
		options:    options,
		catalogue:  cat,
		dispatcher: disp,
		factory:    element.NewFactory(options.ApplyBuilderValidation),
		log:        options.Logger,
		metrics:    options.Metrics,
	}
	if d.log == nil {
		d.log = zap.NewNop()
	}
	d.log = d.log.Named("decoder")
	if d.metrics == nil {
		d.metrics = fx.NewMetrics()
	}

	d.log.Debug("Decoder ready",
		zap.Stringer("version", version),
		zap.Int("resources", len(disp.Supported())),
		zap.Bool("strict", options.StrictUnknownElements),
		zap.Bool("validate", options.ApplyBuilderValidation),
		zap.Int("maxDepth", options.MaxDepth))
	return d, nil
}

// Decode reads one complete resource document.
func (d *Decoder) Decode(r io.Reader) (*element.Node, error) {
	return d.DecodeTokens(NewTokenSource(r))
}

// DecodeBytes decodes a document held in memory.
func (d *Decoder) DecodeBytes(data []byte) (*element.Node, error) {
	return d.Decode(bytes.NewReader(data))
}

// DecodeString decodes a document held in a string.
func (d *Decoder) DecodeString(s string) (*element.Node, error) {
	return d.Decode(strings.NewReader(s))
}

// DecodeTokens decodes a resource document from an already open token source.
func (d *Decoder) DecodeTokens(src TokenSource) (*element.Node, error) {
	v, err := d.run(src, "")
	if err != nil {
		return nil, err
	}
	return v.(*element.Node), nil
}

// DecodeType decodes a document whose root element holds a value of the
// named catalogue type, e.g. an Extension. The root element name itself is
// not checked against typeName.
func (d *Decoder) DecodeType(r io.Reader, typeName string) (element.Value, error) {
	return d.run(NewTokenSource(r), typeName)
}

// Version returns the FHIR version.
func (d *Decoder) Version() fx.FHIRVersion {
	return d.version
}

// Options returns the decoder options.
func (d *Decoder) Options() *fx.Options {
	return d.options
}

// Metrics returns the decoder metrics.
func (d *Decoder) Metrics() *fx.Metrics {
	return d.metrics
}

// Catalogue returns the schema catalogue.
func (d *Decoder) Catalogue() *schema.Catalogue {
	return d.catalogue
}

// Dispatcher returns the resource dispatcher.
func (d *Decoder) Dispatcher() *resource.Dispatcher {
	return d.dispatcher
}

func (d *Decoder) run(src TokenSource, typeName string) (element.Value, error) {
	start := time.Now()
	st := newState(d, src)
	defer st.release()

	v, err := st.document(typeName)
	d.metrics.RecordElements(st.elements)
	d.metrics.RecordSkipped(st.skipped)
	if err != nil {
		line, col := src.InputPos()
		pe := normalize(err, st.path.String(), line, col)
		kind := pe.Kind()
		d.metrics.RecordError(kind.String())
		d.metrics.RecordDecode(time.Since(start), false)
		d.log.Debug("Decode failed",
			zap.Stringer("kind", kind),
			zap.String("path", pe.Path),
			zap.Int("line", pe.Line),
			zap.Int("column", pe.Column),
			zap.Error(err))
		return nil, pe
	}
	d.metrics.RecordDecode(time.Since(start), true)
	return v, nil
}
