// Package fhirxml decodes FHIR XML documents into typed, schema-checked
// element trees.
//
// The decoder is driven by a declarative per-type schema: it walks the XML
// token stream once, enforces field order and cardinality, resolves choice
// ([x]) fields, recurses into contained resources and reports every failure
// with the breadcrumb path of the offending element.
//
// # Quick Start
//
//	import (
//	    fx "github.com/gofhir/fhirxml"
//	    "github.com/gofhir/fhirxml/engine"
//	)
//
//	dec, err := engine.New(fx.R4)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	node, err := dec.Decode(f)
//	if err != nil {
//	    var pe *engine.ParseError
//	    if errors.As(err, &pe) {
//	        fmt.Println(pe.Path, pe.Line, pe.Message)
//	    }
//	}
//	out, _ := node.MarshalJSON()
//
// # Functional Options
//
//	dec, err := engine.New(fx.R4,
//	    fx.WithStrictUnknownElements(false),
//	    fx.WithBuilderValidation(true),
//	    fx.WithMaxDepth(128),
//	    fx.WithLogger(logger),
//	)
//
// # Packages
//
//   - schema: element schemas, choice resolution and the R4 catalogue
//   - resource: resource type registry and dispatcher
//   - element: builders, decoded nodes, FHIR JSON rendering
//   - engine: the decoder
//   - query: FHIRPath selection over decoded resources
//   - worker: concurrent batch decoding
//   - cache: generic LRU used for compiled expressions
//   - config, pkg/logger: configuration and logging for the fhirxml command
package fhirxml
