// Package element holds decoded FHIR values and the builders that produce
// them.
//
// Builders accumulate attributes and field values in the order a decoder
// feeds them and construct an immutable Node or Primitive in a single Build
// call. When validation is enabled, Build checks primitive lexical forms and
// the element-level invariants ele-1 and ext-1.
//
// Nodes render as FHIR JSON through MarshalJSON and convert to the typed
// structs of github.com/gofhir/fhir/r4 through ToR4.
package element
