package engine

import (
	"encoding/xml"

	"github.com/beevik/etree"

	"github.com/gofhir/fhirxml/element"
)

// xhtml captures a narrative div subtree into an etree document and stores
// its serialization as an xhtml primitive. The XHTML namespace is declared
// on the captured root; every descendant must be in the same namespace.
func (st *decodeState) xhtml(start xml.StartElement, name string, index int) (element.Value, error) {
	if err := st.enter(name, index); err != nil {
		return nil, err
	}
	defer st.leave()
	st.elements++

	doc := etree.NewDocument()
	root := etree.NewElement(start.Name.Local)
	root.CreateAttr("xmlns", XHTMLNamespace)
	if err := st.copyAttrs(root, start.Attr); err != nil {
		return nil, err
	}
	doc.SetRoot(root)

	cur := root
	nested := 0
	defer func() { st.depth -= nested }()
	for cur != nil {
		tok, err := st.next()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != XHTMLNamespace {
				return nil, st.fail(KindNamespace, t.Name.Local, nil, "narrative element %q has namespace %q, want %q", t.Name.Local, t.Name.Space, XHTMLNamespace)
			}
			nested++
			st.depth++
			if st.maxDepth > 0 && st.depth > st.maxDepth {
				return nil, st.fail(KindDepthExceeded, t.Name.Local, nil, "nesting deeper than %d", st.maxDepth)
			}
			cur = cur.CreateElement(t.Name.Local)
			if err := st.copyAttrs(cur, t.Attr); err != nil {
				return nil, err
			}
		case xml.EndElement:
			if cur == root {
				cur = nil
				break
			}
			nested--
			st.depth--
			cur = cur.Parent()
		case xml.CharData:
			cur.CreateText(string(t))
		case xml.Comment:
			cur.CreateComment(string(t))
		}
	}

	s, err := doc.WriteToString()
	if err != nil {
		return nil, st.fail(KindBuild, name, err, "serializing narrative")
	}
	b := st.d.factory.NewPrimitive("xhtml")
	if err := b.SetAttribute("value", s); err != nil {
		return nil, st.fail(KindBuild, name, err, "")
	}
	v, err := b.Build()
	if err != nil {
		return nil, st.fail(KindBuild, name, err, "")
	}
	return v, nil
}

// copyAttrs copies XHTML attributes. Namespace declarations are dropped
// because the serializer declares the XHTML namespace itself; xml:lang and
// friends keep their prefix. Attributes in any other namespace are rejected.
func (st *decodeState) copyAttrs(e *etree.Element, attrs []xml.Attr) error {
	for _, a := range attrs {
		switch {
		case a.Name.Space == "xmlns", a.Name.Space == "" && a.Name.Local == "xmlns":
			continue
		case a.Name.Space == "":
			e.CreateAttr(a.Name.Local, a.Value)
		case a.Name.Space == xmlNamespace:
			e.CreateAttr("xml:"+a.Name.Local, a.Value)
		default:
			return st.fail(KindNamespace, e.Tag, nil, "narrative attribute %q has namespace %q", a.Name.Local, a.Name.Space)
		}
	}
	return nil
}
