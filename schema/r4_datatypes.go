package schema

// FHIR R4 primitive and general-purpose datatypes.

var (
	elementAttrs   = []string{"id"}
	primitiveAttrs = []string{"id", "value"}
	extensionAttrs = []string{"id", "url"}
)

// r4PrimitiveTypes lists the R4 primitive type codes.
var r4PrimitiveTypes = []string{
	"base64Binary",
	"boolean",
	"canonical",
	"code",
	"date",
	"dateTime",
	"decimal",
	"id",
	"instant",
	"integer",
	"markdown",
	"oid",
	"positiveInt",
	"string",
	"time",
	"unsignedInt",
	"uri",
	"url",
	"uuid",
}

var (
	pBase64      = Primitive("base64Binary")
	pBoolean     = Primitive("boolean")
	pCanonical   = Primitive("canonical")
	pCode        = Primitive("code")
	pDate        = Primitive("date")
	pDateTime    = Primitive("dateTime")
	pDecimal     = Primitive("decimal")
	pID          = Primitive("id")
	pInstant     = Primitive("instant")
	pInteger     = Primitive("integer")
	pMarkdown    = Primitive("markdown")
	pPositiveInt = Primitive("positiveInt")
	pString      = Primitive("string")
	pUnsignedInt = Primitive("unsignedInt")
	pURI         = Primitive("uri")
	pURL         = Primitive("url")
)

func extensions() *FieldDescriptor {
	return Many("extension", Complex("Extension"))
}

// datatype declares an Element-derived type: id attribute, then extensions.
func datatype(name string, fields ...*FieldDescriptor) *ElementSchema {
	return Type(name, elementAttrs, append([]*FieldDescriptor{extensions()}, fields...)...)
}

// backbone declares a BackboneElement: extensions then modifier extensions.
func backbone(name string, fields ...*FieldDescriptor) *ElementSchema {
	base := []*FieldDescriptor{
		extensions(),
		Many("modifierExtension", Complex("Extension")),
	}
	return Type(name, elementAttrs, append(base, fields...)...)
}

func primitiveSchemas() []*ElementSchema {
	out := make([]*ElementSchema, len(r4PrimitiveTypes))
	for i, code := range r4PrimitiveTypes {
		out[i] = Type(code, primitiveAttrs, extensions())
	}
	return out
}

// openTypeAlts lists the R4 open type ("*") used by Extension.value[x] and
// Parameters.parameter.value[x].
func openTypeAlts() []Alternative {
	return concat(
		PrimitiveAlts(r4PrimitiveTypes...),
		[]Alternative{
			Alt("Address", Complex("Address")),
			Alt("Age", Complex("Quantity")),
			Alt("Annotation", Complex("Annotation")),
			Alt("Attachment", Complex("Attachment")),
			Alt("CodeableConcept", Complex("CodeableConcept")),
			Alt("Coding", Complex("Coding")),
			Alt("ContactPoint", Complex("ContactPoint")),
			Alt("Count", Complex("Quantity")),
			Alt("Distance", Complex("Quantity")),
			Alt("Duration", Complex("Quantity")),
			Alt("HumanName", Complex("HumanName")),
			Alt("Identifier", Complex("Identifier")),
			Alt("Money", Complex("Money")),
			Alt("Period", Complex("Period")),
			Alt("Quantity", Complex("Quantity")),
			Alt("Range", Complex("Range")),
			Alt("Ratio", Complex("Ratio")),
			Alt("Reference", Complex("Reference")),
			Alt("Signature", Complex("Signature")),
			Alt("ContactDetail", Complex("ContactDetail")),
			Alt("UsageContext", Complex("UsageContext")),
			Alt("Meta", Complex("Meta")),
		},
		UnsupportedAlts(
			"SampledData",
			"Timing",
			"Contributor",
			"DataRequirement",
			"Expression",
			"ParameterDefinition",
			"RelatedArtifact",
			"TriggerDefinition",
			"Dosage",
		),
	)
}

func datatypeSchemas() []*ElementSchema {
	return []*ElementSchema{
		Type("Extension", extensionAttrs,
			extensions(),
			Choice("value", openTypeAlts()...),
		),
		datatype("Coding",
			One("system", pURI),
			One("version", pString),
			One("code", pCode),
			One("display", pString),
			One("userSelected", pBoolean),
		),
		datatype("CodeableConcept",
			Many("coding", Complex("Coding")),
			One("text", pString),
		),
		datatype("Identifier",
			One("use", pCode),
			One("type", Complex("CodeableConcept")),
			One("system", pURI),
			One("value", pString),
			One("period", Complex("Period")),
			One("assigner", Complex("Reference")),
		),
		datatype("Period",
			One("start", pDateTime),
			One("end", pDateTime),
		),
		datatype("Quantity",
			One("value", pDecimal),
			One("comparator", pCode),
			One("unit", pString),
			One("system", pURI),
			One("code", pCode),
		),
		datatype("Range",
			One("low", Complex("Quantity")),
			One("high", Complex("Quantity")),
		),
		datatype("Ratio",
			One("numerator", Complex("Quantity")),
			One("denominator", Complex("Quantity")),
		),
		datatype("Reference",
			One("reference", pString),
			One("type", pURI),
			One("identifier", Complex("Identifier")),
			One("display", pString),
		),
		datatype("Meta",
			One("versionId", pID),
			One("lastUpdated", pInstant),
			One("source", pURI),
			Many("profile", pCanonical),
			Many("security", Complex("Coding")),
			Many("tag", Complex("Coding")),
		),
		datatype("Narrative",
			One("status", pCode),
			One("div", Xhtml()),
		),
		datatype("ContactPoint",
			One("system", pCode),
			One("value", pString),
			One("use", pCode),
			One("rank", pPositiveInt),
			One("period", Complex("Period")),
		),
		datatype("ContactDetail",
			One("name", pString),
			Many("telecom", Complex("ContactPoint")),
		),
		datatype("UsageContext",
			One("code", Complex("Coding")),
			Choice("value",
				Alt("CodeableConcept", Complex("CodeableConcept")),
				Alt("Quantity", Complex("Quantity")),
				Alt("Range", Complex("Range")),
				Alt("Reference", Complex("Reference")),
			),
		),
		datatype("Attachment",
			One("contentType", pCode),
			One("language", pCode),
			One("data", pBase64),
			One("url", pURL),
			One("size", pUnsignedInt),
			One("hash", pBase64),
			One("title", pString),
			One("creation", pDateTime),
		),
		datatype("HumanName",
			One("use", pCode),
			One("text", pString),
			One("family", pString),
			Many("given", pString),
			Many("prefix", pString),
			Many("suffix", pString),
			One("period", Complex("Period")),
		),
		datatype("Address",
			One("use", pCode),
			One("type", pCode),
			One("text", pString),
			Many("line", pString),
			One("city", pString),
			One("district", pString),
			One("state", pString),
			One("postalCode", pString),
			One("country", pString),
			One("period", Complex("Period")),
		),
		datatype("Money",
			One("value", pDecimal),
			One("currency", pCode),
		),
		datatype("Annotation",
			Choice("author",
				Alt("Reference", Complex("Reference")),
				Alt("String", pString),
			),
			One("time", pDateTime),
			One("text", pMarkdown),
		),
		datatype("Signature",
			Many("type", Complex("Coding")),
			One("when", pInstant),
			One("who", Complex("Reference")),
			One("onBehalfOf", Complex("Reference")),
			One("targetFormat", pCode),
			One("sigFormat", pCode),
			One("data", pBase64),
		),
	}
}
