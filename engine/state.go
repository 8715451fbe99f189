package engine

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/gofhir/fhirxml/element"
	"github.com/gofhir/fhirxml/pool"
	"github.com/gofhir/fhirxml/resource"
	"github.com/gofhir/fhirxml/schema"
)

// decodeState is the per-call decode context. It is never shared.
type decodeState struct {
	d   *Decoder
	src TokenSource

	path     *pool.Tracker
	strict   bool
	maxDepth int
	depth    int

	elements int
	skipped  int
}

// frame tracks ordering inside one open element.
type frame struct {
	schema     *schema.ElementSchema
	last       int
	lastField  *schema.FieldDescriptor
	lastSuffix string
	counts     []int
}

func newState(d *Decoder, src TokenSource) *decodeState {
	return &decodeState{
		d:        d,
		src:      src,
		path:     pool.AcquireTracker(),
		strict:   d.options.StrictUnknownElements,
		maxDepth: d.options.MaxDepth,
	}
}

func (st *decodeState) release() {
	pool.ReleaseTracker(st.path)
}

func (st *decodeState) fail(kind Kind, elem string, cause error, format string, args ...any) *DecodeError {
	line, col := st.src.InputPos()
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &DecodeError{
		Kind:    kind,
		Path:    st.path.String(),
		Element: elem,
		Msg:     msg,
		Line:    line,
		Column:  col,
		Err:     cause,
	}
}

// next reads one token. Running out of input is always a stream error since
// callers only read while a frame is open.
func (st *decodeState) next() (xml.Token, error) {
	tok, err := st.src.Token()
	if err == nil {
		return tok, nil
	}
	var syn *xml.SyntaxError
	if errors.Is(err, io.EOF) || (errors.As(err, &syn) && syn.Msg == "unexpected EOF") {
		return nil, st.fail(KindStream, "", err, "unexpected end of stream")
	}
	return nil, st.fail(KindStream, "", err, "malformed XML")
}

// enter opens a frame and enforces the depth limit.
func (st *decodeState) enter(name string, index int) error {
	st.path.Push(name, index)
	st.depth++
	if st.maxDepth > 0 && st.depth > st.maxDepth {
		err := st.fail(KindDepthExceeded, name, nil, "nesting deeper than %d", st.maxDepth)
		st.leave()
		return err
	}
	return nil
}

func (st *decodeState) leave() {
	st.depth--
	st.path.Pop()
}

// document advances to the root element, decodes it and checks that nothing
// but whitespace, comments and processing instructions follows.
func (st *decodeState) document(typeName string) (element.Value, error) {
	root, err := st.root()
	if err != nil {
		return nil, err
	}
	name := root.Name.Local
	if root.Name.Space != FHIRNamespace {
		return nil, st.fail(KindNamespace, name, nil, "root element %q has namespace %q, want %q", name, root.Name.Space, FHIRNamespace)
	}

	var s *schema.ElementSchema
	var b element.Builder
	if typeName == "" {
		s, b, err = st.resource(name)
	} else {
		s, b, err = st.structural(typeName)
	}
	if err != nil {
		return nil, err
	}

	v, err := st.element(root, s, b, name, pool.NoIndex)
	if err != nil {
		return nil, err
	}
	if err := st.trailer(); err != nil {
		return nil, err
	}
	return v, nil
}

func (st *decodeState) root() (xml.StartElement, error) {
	for {
		tok, err := st.src.Token()
		if errors.Is(err, io.EOF) {
			return xml.StartElement{}, st.fail(KindStream, "", nil, "no root element")
		}
		if err != nil {
			return xml.StartElement{}, st.fail(KindStream, "", err, "malformed XML")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return t, nil
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return xml.StartElement{}, st.fail(KindStream, "", nil, "text before root element")
			}
		case xml.EndElement:
			return xml.StartElement{}, st.fail(KindStream, t.Name.Local, nil, "unexpected end element")
		}
	}
}

func (st *decodeState) trailer() error {
	for {
		tok, err := st.src.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return st.fail(KindStream, "", err, "malformed XML after root element")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return st.fail(KindStream, t.Name.Local, nil, "content after root element")
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return st.fail(KindStream, "", nil, "text after root element")
			}
		}
	}
}

// resource resolves a resource element name through the dispatcher.
func (st *decodeState) resource(name string) (*schema.ElementSchema, element.Builder, error) {
	s, err := st.d.dispatcher.Dispatch(name)
	if err != nil {
		kind := KindInvalidResourceType
		if errors.Is(err, resource.ErrUnsupportedResourceType) {
			kind = KindUnsupportedResourceType
		}
		return nil, nil, st.fail(kind, name, err, "")
	}
	return s, st.d.factory.NewResource(name), nil
}

// structural resolves a catalogue type for a DecodeType root.
func (st *decodeState) structural(typeName string) (*schema.ElementSchema, element.Builder, error) {
	s, err := st.schemaFor(typeName)
	if err != nil {
		return nil, nil, err
	}
	switch {
	case st.d.dispatcher.Status(typeName) == resource.Supported:
		return s, st.d.factory.NewResource(typeName), nil
	case s.IsPrimitive():
		return s, st.d.factory.NewPrimitive(typeName), nil
	default:
		return s, st.d.factory.NewComplex(typeName), nil
	}
}

func (st *decodeState) schemaFor(typeName string) (*schema.ElementSchema, error) {
	s, err := st.d.catalogue.SchemaFor(typeName)
	if err != nil {
		return nil, st.fail(KindSchemaNotFound, typeName, err, "")
	}
	return s, nil
}

// element decodes one structural element whose start tag has been read.
func (st *decodeState) element(start xml.StartElement, s *schema.ElementSchema, b element.Builder, name string, index int) (element.Value, error) {
	if err := st.enter(name, index); err != nil {
		return nil, err
	}
	defer st.leave()
	st.elements++

	for _, a := range start.Attr {
		if a.Name.Space != "" || !s.HasAttribute(a.Name.Local) {
			continue
		}
		if err := b.SetAttribute(a.Name.Local, a.Value); err != nil {
			return nil, st.fail(KindBuild, name, err, "")
		}
	}

	f := frame{schema: s, last: -1}
	for {
		tok, err := st.next()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := st.child(&f, t, b); err != nil {
				return nil, err
			}
		case xml.EndElement:
			if t.Name.Local != start.Name.Local {
				return nil, st.fail(KindStream, t.Name.Local, nil, "end element %q does not close %q", t.Name.Local, start.Name.Local)
			}
			v, err := b.Build()
			if err != nil {
				return nil, st.fail(KindBuild, name, err, "")
			}
			return v, nil
		case xml.CharData:
			if len(bytes.TrimSpace(t)) == 0 {
				continue
			}
			if st.strict {
				return nil, st.fail(KindUnrecognizedElement, name, nil, "unexpected text content in %s", s.TypeName)
			}
			st.skipped++
			st.d.log.Debug("Skipping text content", zap.String("path", st.path.String()))
		}
	}
}

// child resolves, checks and decodes one nested element of frame f.
// Ordering is checked before the child's frame is pushed, so errors point
// at the parent.
func (st *decodeState) child(f *frame, t xml.StartElement, b element.Builder) error {
	local := t.Name.Local
	m := f.schema.Lookup(local)

	want := FHIRNamespace
	if m.Kind == schema.MatchField && m.Rule.Kind == schema.RuleXhtml {
		want = XHTMLNamespace
	}
	if t.Name.Space != want {
		return st.fail(KindNamespace, local, nil, "element %q has namespace %q, want %q", local, t.Name.Space, want)
	}

	switch m.Kind {
	case schema.MatchUnsupported:
		return st.fail(KindUnsupportedElement, local, nil, "choice type %q of %s.%s[x] is not supported", m.Suffix, f.schema.TypeName, m.Field.Name)
	case schema.MatchNone:
		if st.strict {
			return st.fail(KindUnrecognizedElement, local, nil, "unrecognized element %q in %s", local, f.schema.TypeName)
		}
		st.d.log.Debug("Skipping unrecognized element",
			zap.String("element", local),
			zap.String("path", st.path.String()))
		st.skipped++
		return st.skip()
	}

	fd := m.Field
	if fd.Order < f.last || (fd.Order == f.last && !(fd.Repeatable && f.lastField == fd && f.lastSuffix == m.Suffix)) {
		return st.fail(KindOrdering, local, nil, "element %q out of order in %s", local, f.schema.TypeName)
	}

	index := pool.NoIndex
	if fd.Repeatable {
		if f.counts == nil {
			f.counts = make([]int, len(f.schema.Fields))
		}
		index = f.counts[fd.Order]
	}

	v, err := st.value(t, m.Rule, local, index)
	if err != nil {
		return err
	}
	if fd.Repeatable {
		f.counts[fd.Order]++
	}
	f.last, f.lastField, f.lastSuffix = fd.Order, fd, m.Suffix

	if err := b.Set(local, fd.Repeatable, v); err != nil {
		return st.fail(KindBuild, local, err, "")
	}
	return nil
}

// value decodes a matched child according to its rule.
func (st *decodeState) value(t xml.StartElement, rule schema.DecodeRule, name string, index int) (element.Value, error) {
	switch rule.Kind {
	case schema.RulePrimitive:
		s, err := st.schemaFor(rule.Type)
		if err != nil {
			return nil, err
		}
		return st.element(t, s, st.d.factory.NewPrimitive(rule.Type), name, index)
	case schema.RuleComplex:
		s, err := st.schemaFor(rule.Type)
		if err != nil {
			return nil, err
		}
		return st.element(t, s, st.d.factory.NewComplex(rule.Type), name, index)
	case schema.RuleResource:
		return st.wrapper(t, name, index)
	case schema.RuleXhtml:
		return st.xhtml(t, name, index)
	default:
		return nil, st.fail(KindSchemaNotFound, name, nil, "field %q has no decode rule", name)
	}
}

// wrapper decodes a contained-resource wrapper holding exactly one resource.
func (st *decodeState) wrapper(start xml.StartElement, name string, index int) (element.Value, error) {
	if err := st.enter(name, index); err != nil {
		return nil, err
	}
	defer st.leave()

	var v element.Value
	for {
		tok, err := st.next()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			local := t.Name.Local
			if v != nil {
				return nil, st.fail(KindOrdering, local, nil, "more than one resource in %s", name)
			}
			if t.Name.Space != FHIRNamespace {
				return nil, st.fail(KindNamespace, local, nil, "resource %q has namespace %q, want %q", local, t.Name.Space, FHIRNamespace)
			}
			s, b, err := st.resource(local)
			if err != nil {
				return nil, err
			}
			st.d.log.Debug("Dispatching contained resource",
				zap.String("resourceType", local),
				zap.String("path", st.path.String()))
			// The wrapper frame already names the position, so the resource
			// shares it and its nesting level.
			st.path.Pop()
			st.depth--
			v, err = st.element(t, s, b, name, index)
			st.depth++
			st.path.Push(name, index)
			if err != nil {
				return nil, err
			}
		case xml.EndElement:
			if t.Name.Local != start.Name.Local {
				return nil, st.fail(KindStream, t.Name.Local, nil, "end element %q does not close %q", t.Name.Local, start.Name.Local)
			}
			if v == nil {
				return nil, st.fail(KindStream, name, nil, "empty resource wrapper %q", name)
			}
			return v, nil
		case xml.CharData:
			if len(bytes.TrimSpace(t)) == 0 {
				continue
			}
			if st.strict {
				return nil, st.fail(KindUnrecognizedElement, name, nil, "unexpected text content in %s", name)
			}
			st.skipped++
		}
	}
}

// skip discards the subtree of a start element that was just read.
func (st *decodeState) skip() error {
	for open := 1; open > 0; {
		tok, err := st.next()
		if err != nil {
			return err
		}
		switch tok.(type) {
		case xml.StartElement:
			open++
		case xml.EndElement:
			open--
		}
	}
	return nil
}
