package schema

import (
	"errors"
	"testing"
)

func TestR4_CatalogueIsConsistent(t *testing.T) {
	cat, err := R4()
	if err != nil {
		t.Fatalf("R4() error: %v", err)
	}
	if err := cat.Check(); err != nil {
		t.Errorf("Check() = %v; want nil", err)
	}
	if cat.Version() != R4Version {
		t.Errorf("Version() = %q; want %q", cat.Version(), R4Version)
	}

	again, err := R4()
	if err != nil {
		t.Fatalf("R4() second call error: %v", err)
	}
	if again != cat {
		t.Error("R4() should return the shared catalogue")
	}
}

func TestR4_Resources(t *testing.T) {
	cat, err := R4()
	if err != nil {
		t.Fatalf("R4() error: %v", err)
	}
	want := []string{"Basic", "Bundle", "CodeSystem", "ConceptMap", "NamingSystem", "OperationOutcome", "Parameters", "ValueSet"}
	got := cat.Resources()
	if len(got) != len(want) {
		t.Fatalf("Resources() = %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Resources()[%d] = %q; want %q", i, got[i], want[i])
		}
	}
}

func TestCatalogue_SchemaFor(t *testing.T) {
	cat, err := R4()
	if err != nil {
		t.Fatalf("R4() error: %v", err)
	}

	for _, name := range []string{"CodeSystem", "CodeSystem.concept", "Extension", "boolean", "Narrative"} {
		s, err := cat.SchemaFor(name)
		if err != nil {
			t.Errorf("SchemaFor(%q) error: %v", name, err)
			continue
		}
		if s.TypeName != name {
			t.Errorf("SchemaFor(%q).TypeName = %q", name, s.TypeName)
		}
	}

	if _, err := cat.SchemaFor("Patient"); !errors.Is(err, ErrSchemaNotFound) {
		t.Errorf("SchemaFor(Patient) error = %v; want ErrSchemaNotFound", err)
	}
}

func TestDomainResource_FieldOrder(t *testing.T) {
	cat, err := R4()
	if err != nil {
		t.Fatalf("R4() error: %v", err)
	}
	cs, err := cat.SchemaFor("CodeSystem")
	if err != nil {
		t.Fatalf("SchemaFor error: %v", err)
	}

	prefix := []string{"id", "meta", "implicitRules", "language", "text", "contained", "extension", "modifierExtension", "url"}
	for i, name := range prefix {
		if cs.Fields[i].Name != name {
			t.Errorf("Fields[%d] = %q; want %q", i, cs.Fields[i].Name, name)
		}
		if cs.Fields[i].Order != i {
			t.Errorf("Fields[%d].Order = %d; want %d", i, cs.Fields[i].Order, i)
		}
	}

	status := cs.Field("status")
	content := cs.Field("content")
	if status == nil || content == nil {
		t.Fatal("CodeSystem should declare status and content")
	}
	if status.Order >= content.Order {
		t.Errorf("status.Order = %d; want < content.Order %d", status.Order, content.Order)
	}
	if !cs.Field("concept").Repeatable {
		t.Error("CodeSystem.concept should be repeatable")
	}
	if cs.Field("contained").Rule.Kind != RuleResource {
		t.Errorf("contained rule = %v; want %v", cs.Field("contained").Rule.Kind, RuleResource)
	}
}

func TestElementSchema_Lookup(t *testing.T) {
	cat, err := R4()
	if err != nil {
		t.Fatalf("R4() error: %v", err)
	}
	ext, err := cat.SchemaFor("Extension")
	if err != nil {
		t.Fatalf("SchemaFor error: %v", err)
	}

	tests := []struct {
		name       string
		wantKind   MatchKind
		wantField  string
		wantType   string
		wantSuffix string
	}{
		{"extension", MatchField, "extension", "Extension", ""},
		{"valueBoolean", MatchField, "value", "boolean", "Boolean"},
		{"valueDateTime", MatchField, "value", "dateTime", "DateTime"},
		{"valueCodeableConcept", MatchField, "value", "CodeableConcept", "CodeableConcept"},
		{"valueAge", MatchField, "value", "Quantity", "Age"},
		{"valueDosage", MatchUnsupported, "value", "", "Dosage"},
		{"valueTiming", MatchUnsupported, "value", "", "Timing"},
		{"value", MatchNone, "", "", ""},
		{"valueboolean", MatchNone, "", "", ""},
		{"valuePatient", MatchNone, "", "", ""},
		{"url", MatchNone, "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ext.Lookup(tt.name)
			if m.Kind != tt.wantKind {
				t.Fatalf("Lookup(%q).Kind = %d; want %d", tt.name, m.Kind, tt.wantKind)
			}
			if tt.wantKind == MatchNone {
				return
			}
			if m.Field.Name != tt.wantField {
				t.Errorf("Field = %q; want %q", m.Field.Name, tt.wantField)
			}
			if m.Rule.Type != tt.wantType {
				t.Errorf("Rule.Type = %q; want %q", m.Rule.Type, tt.wantType)
			}
			if m.Suffix != tt.wantSuffix {
				t.Errorf("Suffix = %q; want %q", m.Suffix, tt.wantSuffix)
			}
		})
	}
}

func TestResolveChoice(t *testing.T) {
	group := Choice("source", Alt("Uri", pURI), Alt("Canonical", pCanonical))
	s := Type("Test", nil, group)

	if m := ResolveChoice(s.Field("source"), "sourceUri"); m.Kind != MatchField || m.Rule.Type != "uri" {
		t.Errorf("ResolveChoice(sourceUri) = %+v; want uri match", m)
	}
	if m := ResolveChoice(s.Field("source"), "sourceString"); m.Kind != MatchNone {
		t.Errorf("ResolveChoice(sourceString).Kind = %d; want MatchNone", m.Kind)
	}
	if m := ResolveChoice(One("code", pCode), "codeUri"); m.Kind != MatchNone {
		t.Errorf("ResolveChoice on non-choice = %d; want MatchNone", m.Kind)
	}
	if m := ResolveChoice(nil, "sourceUri"); m.Kind != MatchNone {
		t.Errorf("ResolveChoice(nil) = %d; want MatchNone", m.Kind)
	}
	if got := ElementName(s.Field("source"), "Canonical"); got != "sourceCanonical" {
		t.Errorf("ElementName = %q; want %q", got, "sourceCanonical")
	}
}

func TestChoiceAlternativesShareOrder(t *testing.T) {
	cat, err := R4()
	if err != nil {
		t.Fatalf("R4() error: %v", err)
	}
	cm, err := cat.SchemaFor("ConceptMap")
	if err != nil {
		t.Fatalf("SchemaFor error: %v", err)
	}
	a := cm.Lookup("sourceUri")
	b := cm.Lookup("sourceCanonical")
	if a.Field != b.Field {
		t.Error("sourceUri and sourceCanonical should resolve to one choice group")
	}
	if c := cm.Lookup("targetUri"); c.Field.Order <= a.Field.Order {
		t.Errorf("target order %d; want > source order %d", c.Field.Order, a.Field.Order)
	}
}

func TestNewCatalogue_Errors(t *testing.T) {
	t.Run("duplicate", func(t *testing.T) {
		_, err := NewCatalogue("x", []*ElementSchema{
			Type("string", primitiveAttrs),
			Type("string", primitiveAttrs),
		}, nil)
		if err == nil {
			t.Error("NewCatalogue with duplicate types should fail")
		}
	})

	t.Run("dangling rule", func(t *testing.T) {
		_, err := NewCatalogue("x", []*ElementSchema{
			Type("Thing", nil, One("name", Primitive("string"))),
		}, nil)
		if !errors.Is(err, ErrSchemaNotFound) {
			t.Errorf("NewCatalogue error = %v; want ErrSchemaNotFound", err)
		}
	})

	t.Run("unsupported alternative needs no schema", func(t *testing.T) {
		_, err := NewCatalogue("x", []*ElementSchema{
			Type("Thing", nil, Choice("value", UnsupportedAlts("Timing")...)),
		}, nil)
		if err != nil {
			t.Errorf("NewCatalogue error = %v; want nil", err)
		}
	})

	t.Run("empty type name", func(t *testing.T) {
		if _, err := NewCatalogue("x", []*ElementSchema{Type("", nil)}, nil); err == nil {
			t.Error("NewCatalogue with empty type name should fail")
		}
	})
}

func TestRuleKind_String(t *testing.T) {
	tests := []struct {
		k    RuleKind
		want string
	}{
		{RulePrimitive, "primitive"},
		{RuleComplex, "complex"},
		{RuleResource, "resource"},
		{RuleXhtml, "xhtml"},
		{RuleKind(0), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.k.String(); got != tt.want {
			t.Errorf("%d.String() = %q; want %q", tt.k, got, tt.want)
		}
	}
}

func TestPrimitiveSchemas(t *testing.T) {
	cat, err := R4()
	if err != nil {
		t.Fatalf("R4() error: %v", err)
	}
	for _, code := range r4PrimitiveTypes {
		s, err := cat.SchemaFor(code)
		if err != nil {
			t.Errorf("SchemaFor(%q) error: %v", code, err)
			continue
		}
		if !s.IsPrimitive() {
			t.Errorf("%s.IsPrimitive() = false; want true", code)
		}
		if !s.HasAttribute("value") || !s.HasAttribute("id") {
			t.Errorf("%s should declare id and value attributes", code)
		}
		if m := s.Lookup("extension"); m.Kind != MatchField {
			t.Errorf("%s should accept extension children", code)
		}
	}
}

func TestIsPrimitive_Structural(t *testing.T) {
	cat, err := R4()
	if err != nil {
		t.Fatalf("R4() error: %v", err)
	}
	for _, name := range []string{"Extension", "CodeSystem", "CodeSystem.concept", "Coding"} {
		s, err := cat.SchemaFor(name)
		if err != nil {
			t.Fatalf("SchemaFor(%q) error: %v", name, err)
		}
		if s.IsPrimitive() {
			t.Errorf("%s.IsPrimitive() = true; want false", name)
		}
	}
}

func BenchmarkElementSchema_Lookup(b *testing.B) {
	cat, err := R4()
	if err != nil {
		b.Fatal(err)
	}
	ext, _ := cat.SchemaFor("Extension")
	names := []string{"extension", "valueBoolean", "valueCodeableConcept", "unknown"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ext.Lookup(names[i%len(names)])
	}
}
