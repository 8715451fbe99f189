package schema

import "sync"

// FHIR R4 resources decoded by this module. Backbone elements are named by
// their path ("CodeSystem.concept") so recursive members can refer to them.

// baseResource declares a Resource: id, meta, implicitRules, language.
func baseResource(name string, fields ...*FieldDescriptor) *ElementSchema {
	base := []*FieldDescriptor{
		One("id", pID),
		One("meta", Complex("Meta")),
		One("implicitRules", pURI),
		One("language", pCode),
	}
	return Type(name, nil, append(base, fields...)...)
}

// domainResource declares a DomainResource: Resource plus narrative,
// contained resources and extensions.
func domainResource(name string, fields ...*FieldDescriptor) *ElementSchema {
	base := []*FieldDescriptor{
		One("id", pID),
		One("meta", Complex("Meta")),
		One("implicitRules", pURI),
		One("language", pCode),
		One("text", Complex("Narrative")),
		Many("contained", Resource()),
		extensions(),
		Many("modifierExtension", Complex("Extension")),
	}
	return Type(name, nil, append(base, fields...)...)
}

func resourceSchemas() []*ElementSchema {
	return []*ElementSchema{
		baseResource("Bundle",
			One("identifier", Complex("Identifier")),
			One("type", pCode),
			One("timestamp", pInstant),
			One("total", pUnsignedInt),
			Many("link", Complex("Bundle.link")),
			Many("entry", Complex("Bundle.entry")),
			One("signature", Complex("Signature")),
		),
		domainResource("CodeSystem",
			One("url", pURI),
			Many("identifier", Complex("Identifier")),
			One("version", pString),
			One("name", pString),
			One("title", pString),
			One("status", pCode),
			One("experimental", pBoolean),
			One("date", pDateTime),
			One("publisher", pString),
			Many("contact", Complex("ContactDetail")),
			One("description", pMarkdown),
			Many("useContext", Complex("UsageContext")),
			Many("jurisdiction", Complex("CodeableConcept")),
			One("purpose", pMarkdown),
			One("copyright", pMarkdown),
			One("caseSensitive", pBoolean),
			One("valueSet", pCanonical),
			One("hierarchyMeaning", pCode),
			One("compositional", pBoolean),
			One("versionNeeded", pBoolean),
			One("content", pCode),
			One("supplements", pCanonical),
			One("count", pUnsignedInt),
			Many("filter", Complex("CodeSystem.filter")),
			Many("property", Complex("CodeSystem.property")),
			Many("concept", Complex("CodeSystem.concept")),
		),
		domainResource("ValueSet",
			One("url", pURI),
			Many("identifier", Complex("Identifier")),
			One("version", pString),
			One("name", pString),
			One("title", pString),
			One("status", pCode),
			One("experimental", pBoolean),
			One("date", pDateTime),
			One("publisher", pString),
			Many("contact", Complex("ContactDetail")),
			One("description", pMarkdown),
			Many("useContext", Complex("UsageContext")),
			Many("jurisdiction", Complex("CodeableConcept")),
			One("immutable", pBoolean),
			One("purpose", pMarkdown),
			One("copyright", pMarkdown),
			One("compose", Complex("ValueSet.compose")),
			One("expansion", Complex("ValueSet.expansion")),
		),
		domainResource("ConceptMap",
			One("url", pURI),
			One("identifier", Complex("Identifier")),
			One("version", pString),
			One("name", pString),
			One("title", pString),
			One("status", pCode),
			One("experimental", pBoolean),
			One("date", pDateTime),
			One("publisher", pString),
			Many("contact", Complex("ContactDetail")),
			One("description", pMarkdown),
			Many("useContext", Complex("UsageContext")),
			Many("jurisdiction", Complex("CodeableConcept")),
			One("purpose", pMarkdown),
			One("copyright", pMarkdown),
			Choice("source", Alt("Uri", pURI), Alt("Canonical", pCanonical)),
			Choice("target", Alt("Uri", pURI), Alt("Canonical", pCanonical)),
			Many("group", Complex("ConceptMap.group")),
		),
		baseResource("Parameters",
			Many("parameter", Complex("Parameters.parameter")),
		),
		domainResource("OperationOutcome",
			Many("issue", Complex("OperationOutcome.issue")),
		),
		domainResource("NamingSystem",
			One("name", pString),
			One("status", pCode),
			One("kind", pCode),
			One("date", pDateTime),
			One("publisher", pString),
			Many("contact", Complex("ContactDetail")),
			One("responsible", pString),
			One("type", Complex("CodeableConcept")),
			One("description", pMarkdown),
			Many("useContext", Complex("UsageContext")),
			Many("jurisdiction", Complex("CodeableConcept")),
			One("usage", pString),
			Many("uniqueId", Complex("NamingSystem.uniqueId")),
		),
		domainResource("Basic",
			Many("identifier", Complex("Identifier")),
			One("code", Complex("CodeableConcept")),
			One("subject", Complex("Reference")),
			One("created", pDate),
			One("author", Complex("Reference")),
		),
	}
}

func backboneSchemas() []*ElementSchema {
	return []*ElementSchema{
		backbone("Bundle.link",
			One("relation", pString),
			One("url", pURI),
		),
		backbone("Bundle.entry",
			Many("link", Complex("Bundle.link")),
			One("fullUrl", pURI),
			One("resource", Resource()),
			One("search", Complex("Bundle.entry.search")),
			One("request", Complex("Bundle.entry.request")),
			One("response", Complex("Bundle.entry.response")),
		),
		backbone("Bundle.entry.search",
			One("mode", pCode),
			One("score", pDecimal),
		),
		backbone("Bundle.entry.request",
			One("method", pCode),
			One("url", pURI),
			One("ifNoneMatch", pString),
			One("ifModifiedSince", pInstant),
			One("ifMatch", pString),
			One("ifNoneExist", pString),
		),
		backbone("Bundle.entry.response",
			One("status", pString),
			One("location", pURI),
			One("etag", pString),
			One("lastModified", pInstant),
			One("outcome", Resource()),
		),

		backbone("CodeSystem.filter",
			One("code", pCode),
			One("description", pString),
			Many("operator", pCode),
			One("value", pString),
		),
		backbone("CodeSystem.property",
			One("code", pCode),
			One("uri", pURI),
			One("description", pString),
			One("type", pCode),
		),
		backbone("CodeSystem.concept",
			One("code", pCode),
			One("display", pString),
			One("definition", pString),
			Many("designation", Complex("CodeSystem.concept.designation")),
			Many("property", Complex("CodeSystem.concept.property")),
			Many("concept", Complex("CodeSystem.concept")),
		),
		backbone("CodeSystem.concept.designation",
			One("language", pCode),
			One("use", Complex("Coding")),
			One("value", pString),
		),
		backbone("CodeSystem.concept.property",
			One("code", pCode),
			Choice("value", concat(
				PrimitiveAlts("code"),
				[]Alternative{Alt("Coding", Complex("Coding"))},
				PrimitiveAlts("string", "integer", "boolean", "dateTime", "decimal"),
			)...),
		),

		backbone("ValueSet.compose",
			One("lockedDate", pDate),
			One("inactive", pBoolean),
			Many("include", Complex("ValueSet.compose.include")),
			Many("exclude", Complex("ValueSet.compose.include")),
		),
		backbone("ValueSet.compose.include",
			One("system", pURI),
			One("version", pString),
			Many("concept", Complex("ValueSet.compose.include.concept")),
			Many("filter", Complex("ValueSet.compose.include.filter")),
			Many("valueSet", pCanonical),
		),
		backbone("ValueSet.compose.include.concept",
			One("code", pCode),
			One("display", pString),
			Many("designation", Complex("ValueSet.compose.include.concept.designation")),
		),
		backbone("ValueSet.compose.include.concept.designation",
			One("language", pCode),
			One("use", Complex("Coding")),
			One("value", pString),
		),
		backbone("ValueSet.compose.include.filter",
			One("property", pCode),
			One("op", pCode),
			One("value", pString),
		),
		backbone("ValueSet.expansion",
			One("identifier", pURI),
			One("timestamp", pDateTime),
			One("total", pInteger),
			One("offset", pInteger),
			Many("parameter", Complex("ValueSet.expansion.parameter")),
			Many("contains", Complex("ValueSet.expansion.contains")),
		),
		backbone("ValueSet.expansion.parameter",
			One("name", pString),
			Choice("value", PrimitiveAlts("string", "boolean", "integer", "decimal", "uri", "code", "dateTime")...),
		),
		backbone("ValueSet.expansion.contains",
			One("system", pURI),
			One("abstract", pBoolean),
			One("inactive", pBoolean),
			One("version", pString),
			One("code", pCode),
			One("display", pString),
			Many("designation", Complex("ValueSet.compose.include.concept.designation")),
			Many("contains", Complex("ValueSet.expansion.contains")),
		),

		backbone("ConceptMap.group",
			One("source", pURI),
			One("sourceVersion", pString),
			One("target", pURI),
			One("targetVersion", pString),
			Many("element", Complex("ConceptMap.group.element")),
			One("unmapped", Complex("ConceptMap.group.unmapped")),
		),
		backbone("ConceptMap.group.element",
			One("code", pCode),
			One("display", pString),
			Many("target", Complex("ConceptMap.group.element.target")),
		),
		backbone("ConceptMap.group.element.target",
			One("code", pCode),
			One("display", pString),
			One("equivalence", pCode),
			One("comment", pString),
			Many("dependsOn", Complex("ConceptMap.group.element.target.dependsOn")),
			Many("product", Complex("ConceptMap.group.element.target.dependsOn")),
		),
		backbone("ConceptMap.group.element.target.dependsOn",
			One("property", pURI),
			One("system", pCanonical),
			One("value", pString),
			One("display", pString),
		),
		backbone("ConceptMap.group.unmapped",
			One("mode", pCode),
			One("code", pCode),
			One("display", pString),
			One("url", pCanonical),
		),

		backbone("Parameters.parameter",
			One("name", pString),
			Choice("value", openTypeAlts()...),
			One("resource", Resource()),
			Many("part", Complex("Parameters.parameter")),
		),

		backbone("OperationOutcome.issue",
			One("severity", pCode),
			One("code", pCode),
			One("details", Complex("CodeableConcept")),
			One("diagnostics", pString),
			Many("location", pString),
			Many("expression", pString),
		),

		backbone("NamingSystem.uniqueId",
			One("type", pCode),
			One("value", pString),
			One("preferred", pBoolean),
			One("comment", pString),
			One("period", Complex("Period")),
		),
	}
}

// R4Version is the FHIR version string of the R4 catalogue.
const R4Version = "4.0.1"

var r4Catalogue = sync.OnceValues(func() (*Catalogue, error) {
	types := primitiveSchemas()
	types = append(types, datatypeSchemas()...)
	types = append(types, backboneSchemas()...)
	return NewCatalogue(R4Version, types, resourceSchemas())
})

// R4 returns the shared FHIR R4 catalogue. It is built once per process.
func R4() (*Catalogue, error) {
	return r4Catalogue()
}
