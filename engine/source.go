package engine

import (
	"encoding/xml"
	"io"

	"golang.org/x/net/html/charset"
)

// FHIR and XHTML namespaces.
const (
	FHIRNamespace  = "http://hl7.org/fhir"
	XHTMLNamespace = "http://www.w3.org/1999/xhtml"
	xmlNamespace   = "http://www.w3.org/XML/1998/namespace"
)

// TokenSource is a pull-based XML event source. *xml.Decoder satisfies it.
// Names must be namespace-resolved: Name.Space holds the namespace URI.
type TokenSource interface {
	Token() (xml.Token, error)
	InputPos() (line, column int)
}

// NewTokenSource wraps r in a strict xml.Decoder. Encodings other than UTF-8
// declared in the XML prolog are converted on the fly.
func NewTokenSource(r io.Reader) *xml.Decoder {
	d := xml.NewDecoder(r)
	d.Strict = true
	d.CharsetReader = charset.NewReaderLabel
	return d
}
