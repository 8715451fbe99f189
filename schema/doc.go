// Package schema holds the declarative description of FHIR structural types
// that drives the XML decoder.
//
// A Catalogue maps every structural type name (primitive, datatype, backbone
// element or resource) to an ElementSchema: its attributes and its ordered
// fields. Each field carries a declaration order index, a repeatable flag and
// a DecodeRule telling the decoder how to read the nested element. Choice
// fields ("value[x]") group several concrete alternatives under one order
// index; alternatives that FHIR allows but the catalogue deliberately does not
// model are kept as unsupported so they fail loudly instead of being mistaken
// for unknown elements.
//
// Catalogues are immutable once built and safe to share between goroutines.
//
//	cat := schema.R4()
//	s, err := cat.SchemaFor("CodeSystem")
//	m := s.Lookup("valueCoding")
package schema
