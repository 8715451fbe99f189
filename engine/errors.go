package engine

import (
	"errors"
	"strconv"
	"strings"

	fx "github.com/gofhir/fhirxml"
	"github.com/gofhir/fhirxml/element"
	"github.com/gofhir/fhirxml/resource"
	"github.com/gofhir/fhirxml/schema"
)

// Error kinds. Every error returned by a Decoder matches exactly one of these
// with errors.Is.
var (
	ErrStream                  = errors.New("stream error")
	ErrNamespace               = errors.New("namespace error")
	ErrOrdering                = errors.New("ordering error")
	ErrUnrecognizedElement     = errors.New("unrecognized element")
	ErrUnsupportedElement      = errors.New("unsupported element")
	ErrUnsupportedResourceType = resource.ErrUnsupportedResourceType
	ErrInvalidResourceType     = resource.ErrInvalidResourceType
	ErrSchemaNotFound          = schema.ErrSchemaNotFound
	ErrDepthExceeded           = errors.New("depth exceeded")
	ErrBuild                   = errors.New("build failed")
)

// Kind classifies a decode failure.
type Kind uint8

// Decode failure kinds.
const (
	KindStream Kind = iota + 1
	KindNamespace
	KindOrdering
	KindUnrecognizedElement
	KindUnsupportedElement
	KindUnsupportedResourceType
	KindInvalidResourceType
	KindSchemaNotFound
	KindDepthExceeded
	KindBuild
)

var kindNames = [...]string{
	KindStream:                  "stream",
	KindNamespace:               "namespace",
	KindOrdering:                "ordering",
	KindUnrecognizedElement:     "unrecognized-element",
	KindUnsupportedElement:      "unsupported-element",
	KindUnsupportedResourceType: "unsupported-resource-type",
	KindInvalidResourceType:     "invalid-resource-type",
	KindSchemaNotFound:          "schema-not-found",
	KindDepthExceeded:           "depth-exceeded",
	KindBuild:                   "build",
}

var kindSentinels = [...]error{
	KindStream:                  ErrStream,
	KindNamespace:               ErrNamespace,
	KindOrdering:                ErrOrdering,
	KindUnrecognizedElement:     ErrUnrecognizedElement,
	KindUnsupportedElement:      ErrUnsupportedElement,
	KindUnsupportedResourceType: ErrUnsupportedResourceType,
	KindInvalidResourceType:     ErrInvalidResourceType,
	KindSchemaNotFound:          ErrSchemaNotFound,
	KindDepthExceeded:           ErrDepthExceeded,
	KindBuild:                   ErrBuild,
}

// String returns the kind name used in logs and metrics.
func (k Kind) String() string {
	if k == 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Sentinel returns the error value matched by errors.Is for this kind.
func (k Kind) Sentinel() error {
	if k == 0 || int(k) >= len(kindSentinels) {
		return nil
	}
	return kindSentinels[k]
}

// IssueType maps the kind to an OperationOutcome issue code.
func (k Kind) IssueType() fx.IssueType {
	switch k {
	case KindStream, KindNamespace, KindOrdering, KindUnrecognizedElement, KindDepthExceeded:
		return fx.IssueTypeStructure
	case KindUnsupportedElement, KindUnsupportedResourceType:
		return fx.IssueTypeNotSupported
	case KindSchemaNotFound:
		return fx.IssueTypeException
	default:
		return fx.IssueTypeInvalid
	}
}

// DecodeError is raised inside the engine. It records where the failure
// happened; the top-level entry wraps it into a ParseError.
type DecodeError struct {
	Kind Kind
	// Path is the breadcrumb at the time of the failure.
	Path string
	// Element is the local name of the offending element, if any.
	Element string
	Msg     string
	Line    int
	Column  int
	Err     error
}

func (e *DecodeError) message() string {
	if e.Err == nil {
		return e.Msg
	}
	if e.Msg == "" {
		return e.Err.Error()
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *DecodeError) Error() string {
	if e.Path == "" {
		return e.message()
	}
	return e.message() + " at " + e.Path
}

// Unwrap exposes both the kind sentinel and the cause.
func (e *DecodeError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s := e.Kind.Sentinel(); s != nil {
		errs = append(errs, s)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// ParseError is the only error type returned by the Decoder's entry points.
type ParseError struct {
	Message string
	Path    string
	Line    int
	Column  int
	Cause   error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("fhirxml: ")
	b.WriteString(e.Message)
	if e.Path != "" {
		b.WriteString(" at ")
		b.WriteString(e.Path)
	}
	if e.Line > 0 {
		b.WriteString(" (line ")
		b.WriteString(strconv.Itoa(e.Line))
		b.WriteString(", column ")
		b.WriteString(strconv.Itoa(e.Column))
		b.WriteString(")")
	}
	return b.String()
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Kind returns the failure kind, or 0 when the cause is not a DecodeError.
func (e *ParseError) Kind() Kind {
	var de *DecodeError
	if errors.As(e.Cause, &de) {
		return de.Kind
	}
	return 0
}

// Issue renders the failure as an OperationOutcome issue. Builder failures
// are refined to value or invariant codes when the cause says so.
func (e *ParseError) Issue() fx.Issue {
	kind := e.Kind()
	code := kind.IssueType()
	if kind == KindBuild {
		switch {
		case errors.Is(e.Cause, element.ErrInvalidValue):
			code = fx.IssueTypeValue
		case errors.Is(e.Cause, element.ErrConstraint), errors.Is(e.Cause, element.ErrEmptyElement):
			code = fx.IssueTypeInvariant
		}
	}
	return fx.Error(code).
		Diagnostics(e.Message).
		At(e.Path).
		Position(e.Line, e.Column).
		Kind(kind.String()).
		Build()
}

// normalize converts any error escaping the engine into a ParseError.
func normalize(err error, path string, line, col int) *ParseError {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe
	}
	var de *DecodeError
	if !errors.As(err, &de) {
		de = &DecodeError{Kind: KindStream, Path: path, Line: line, Column: col, Err: err}
	}
	return &ParseError{
		Message: de.message(),
		Path:    de.Path,
		Line:    de.Line,
		Column:  de.Column,
		Cause:   de,
	}
}
