package schema

import "strings"

// ResolveChoice resolves an element name against one choice group.
// "valueBoolean" against group "value" yields the Boolean alternative;
// an alternative flagged unsupported yields MatchUnsupported; anything else
// is MatchNone.
func ResolveChoice(group *FieldDescriptor, localName string) Match {
	if group == nil || !group.IsChoice() {
		return Match{Kind: MatchNone}
	}
	suffix, ok := strings.CutPrefix(localName, group.Name)
	if !ok || suffix == "" {
		return Match{Kind: MatchNone}
	}
	alt, ok := group.alternatives[suffix]
	if !ok {
		return Match{Kind: MatchNone}
	}
	if alt.Unsupported {
		return Match{Kind: MatchUnsupported, Field: group, Suffix: suffix}
	}
	return Match{Kind: MatchField, Field: group, Rule: alt.Rule, Suffix: suffix}
}

// ElementName returns the XML element name of a choice alternative,
// e.g. "value" + "Coding".
func ElementName(group *FieldDescriptor, suffix string) string {
	return group.Name + suffix
}

// upperFirst turns a primitive type code into its choice suffix.
func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
