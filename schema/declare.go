package schema

// Declaration helpers. Order indexes are assigned from argument order by Type,
// so a schema reads top to bottom exactly as the FHIR definition lists it.

// One declares a singular field.
func One(name string, rule DecodeRule) *FieldDescriptor {
	return &FieldDescriptor{Name: name, Rule: rule}
}

// Many declares a repeatable field.
func Many(name string, rule DecodeRule) *FieldDescriptor {
	return &FieldDescriptor{Name: name, Repeatable: true, Rule: rule}
}

// Choice declares a singular choice group with the given alternatives.
func Choice(name string, alts ...Alternative) *FieldDescriptor {
	return &FieldDescriptor{Name: name, Choice: alts}
}

// Alt declares a decodable choice alternative.
func Alt(suffix string, rule DecodeRule) Alternative {
	return Alternative{Suffix: suffix, Rule: rule}
}

// PrimitiveAlts declares alternatives for primitive type codes; the suffix is
// the code with its first letter upper-cased ("dateTime" -> "DateTime").
func PrimitiveAlts(codes ...string) []Alternative {
	alts := make([]Alternative, len(codes))
	for i, code := range codes {
		alts[i] = Alternative{Suffix: upperFirst(code), Rule: Primitive(code)}
	}
	return alts
}

// UnsupportedAlts declares modeled-unsupported alternatives.
func UnsupportedAlts(suffixes ...string) []Alternative {
	alts := make([]Alternative, len(suffixes))
	for i, s := range suffixes {
		alts[i] = Alternative{Suffix: s, Unsupported: true}
	}
	return alts
}

// Type builds an ElementSchema. Fields get order indexes in argument order.
func Type(name string, attrs []string, fields ...*FieldDescriptor) *ElementSchema {
	s := &ElementSchema{
		TypeName: name,
		Fields:   fields,
		byName:   make(map[string]*FieldDescriptor, len(fields)),
		byChoice: make(map[string]*FieldDescriptor),
		attrs:    make(map[string]struct{}, len(attrs)),
	}
	for _, a := range attrs {
		s.Attributes = append(s.Attributes, AttributeDescriptor{Name: a})
		s.attrs[a] = struct{}{}
	}
	for i, f := range fields {
		f.Order = i
		s.byName[f.Name] = f
		if !f.IsChoice() {
			continue
		}
		f.alternatives = make(map[string]*Alternative, len(f.Choice))
		for j := range f.Choice {
			alt := &f.Choice[j]
			f.alternatives[alt.Suffix] = alt
			s.byChoice[f.Name+alt.Suffix] = f
		}
	}
	return s
}

// concat flattens alternative lists.
func concat(lists ...[]Alternative) []Alternative {
	var out []Alternative
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}
