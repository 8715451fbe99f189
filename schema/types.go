package schema

// RuleKind selects how a field's element is decoded.
type RuleKind uint8

// Decode rule kinds.
const (
	// RulePrimitive reads a FHIR primitive: value/id attributes plus extensions.
	RulePrimitive RuleKind = iota + 1
	// RuleComplex recurses into a datatype or backbone element.
	RuleComplex
	// RuleResource reads a wrapper element holding exactly one resource.
	RuleResource
	// RuleXhtml captures an XHTML fragment in the XHTML namespace.
	RuleXhtml
)

// String returns the rule kind name.
func (k RuleKind) String() string {
	switch k {
	case RulePrimitive:
		return "primitive"
	case RuleComplex:
		return "complex"
	case RuleResource:
		return "resource"
	case RuleXhtml:
		return "xhtml"
	default:
		return "unknown"
	}
}

// DecodeRule tells the decoder how to read one element.
type DecodeRule struct {
	Kind RuleKind
	// Type is the catalogue type name for primitive and complex rules.
	Type string
}

// Primitive returns a rule decoding the named primitive type.
func Primitive(typeName string) DecodeRule {
	return DecodeRule{Kind: RulePrimitive, Type: typeName}
}

// Complex returns a rule decoding the named datatype or backbone element.
func Complex(typeName string) DecodeRule {
	return DecodeRule{Kind: RuleComplex, Type: typeName}
}

// Resource returns a rule decoding a contained-resource wrapper.
func Resource() DecodeRule {
	return DecodeRule{Kind: RuleResource}
}

// Xhtml returns a rule capturing narrative XHTML.
func Xhtml() DecodeRule {
	return DecodeRule{Kind: RuleXhtml, Type: "xhtml"}
}

// Alternative is one concrete type of a choice field.
type Alternative struct {
	// Suffix is appended to the field name to form the element name,
	// e.g. "Boolean" for valueBoolean.
	Suffix string
	Rule   DecodeRule
	// Unsupported marks an alternative FHIR allows but this catalogue does
	// not decode.
	Unsupported bool
}

// FieldDescriptor describes one named member of a structural type.
// A descriptor with a non-empty Choice list is a choice group.
type FieldDescriptor struct {
	Name       string
	Order      int
	Repeatable bool
	Rule       DecodeRule
	Choice     []Alternative

	alternatives map[string]*Alternative
}

// IsChoice reports whether the descriptor is a choice group.
func (f *FieldDescriptor) IsChoice() bool {
	return len(f.Choice) > 0
}

// AttributeDescriptor describes an XML attribute read from the start tag.
type AttributeDescriptor struct {
	Name string
}

// ElementSchema is the ordered field layout of one structural type.
type ElementSchema struct {
	TypeName   string
	Attributes []AttributeDescriptor
	Fields     []*FieldDescriptor

	byName   map[string]*FieldDescriptor
	byChoice map[string]*FieldDescriptor
	attrs    map[string]struct{}
}

// HasAttribute reports whether the schema declares the attribute.
func (s *ElementSchema) HasAttribute(name string) bool {
	_, ok := s.attrs[name]
	return ok
}

// IsPrimitive reports whether the schema describes a primitive type.
// FHIR names primitives in lower camel case and every other type in upper.
func (s *ElementSchema) IsPrimitive() bool {
	return s.TypeName != "" && s.TypeName[0] >= 'a' && s.TypeName[0] <= 'z'
}

// Field returns the descriptor with the given field name, or nil.
// Choice groups are found by their base name (e.g. "value").
func (s *ElementSchema) Field(name string) *FieldDescriptor {
	return s.byName[name]
}

// MatchKind is the outcome of resolving an element name against a schema.
type MatchKind uint8

// Match kinds.
const (
	// MatchNone means the name is not a member of the schema.
	MatchNone MatchKind = iota
	// MatchField means the name resolved to a decodable field or alternative.
	MatchField
	// MatchUnsupported means the name is a modeled-unsupported choice alternative.
	MatchUnsupported
)

// Match is the result of ElementSchema.Lookup.
type Match struct {
	Kind  MatchKind
	Field *FieldDescriptor
	// Rule is the rule to decode with; for choices it is the alternative's rule.
	Rule DecodeRule
	// Suffix is set for choice matches.
	Suffix string
}

// Lookup resolves an element local name against the schema's fields and
// choice groups. Both lookups are single map probes.
func (s *ElementSchema) Lookup(localName string) Match {
	if f, ok := s.byName[localName]; ok && !f.IsChoice() {
		return Match{Kind: MatchField, Field: f, Rule: f.Rule}
	}
	if group, ok := s.byChoice[localName]; ok {
		return ResolveChoice(group, localName)
	}
	return Match{Kind: MatchNone}
}
