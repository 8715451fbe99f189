package schema

import (
	"errors"
	"fmt"
	"slices"
)

// ErrSchemaNotFound is returned when a type name has no schema. It always
// points at a catalogue defect, never at bad input.
var ErrSchemaNotFound = errors.New("schema not found")

// Catalogue is an immutable table of element schemas for one FHIR version.
type Catalogue struct {
	version   string
	types     map[string]*ElementSchema
	resources []string
}

// NewCatalogue indexes the given schemas and verifies that every rule refers
// to a type present in the catalogue. Resource schemas are those registered
// through the resources argument.
func NewCatalogue(version string, types []*ElementSchema, resources []*ElementSchema) (*Catalogue, error) {
	c := &Catalogue{
		version: version,
		types:   make(map[string]*ElementSchema, len(types)+len(resources)),
	}
	for _, s := range types {
		if err := c.add(s); err != nil {
			return nil, err
		}
	}
	for _, s := range resources {
		if err := c.add(s); err != nil {
			return nil, err
		}
		c.resources = append(c.resources, s.TypeName)
	}
	slices.Sort(c.resources)
	if err := c.Check(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalogue) add(s *ElementSchema) error {
	if s == nil || s.TypeName == "" {
		return fmt.Errorf("schema without type name")
	}
	if _, dup := c.types[s.TypeName]; dup {
		return fmt.Errorf("duplicate schema %q", s.TypeName)
	}
	c.types[s.TypeName] = s
	return nil
}

// Version returns the FHIR version the catalogue describes.
func (c *Catalogue) Version() string {
	return c.version
}

// SchemaFor returns the schema of a structural type.
func (c *Catalogue) SchemaFor(typeName string) (*ElementSchema, error) {
	if s, ok := c.types[typeName]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrSchemaNotFound, typeName)
}

// Resources returns the sorted names of resource schemas in the catalogue.
func (c *Catalogue) Resources() []string {
	return slices.Clone(c.resources)
}

// Len returns the number of schemas.
func (c *Catalogue) Len() int {
	return len(c.types)
}

// Check verifies that every primitive and complex rule, including choice
// alternatives, names a schema in the catalogue.
func (c *Catalogue) Check() error {
	var errs []error
	for _, s := range c.types {
		for _, f := range s.Fields {
			if f.IsChoice() {
				for _, alt := range f.Choice {
					if alt.Unsupported {
						continue
					}
					if err := c.checkRule(s.TypeName, f.Name+alt.Suffix, alt.Rule); err != nil {
						errs = append(errs, err)
					}
				}
				continue
			}
			if err := c.checkRule(s.TypeName, f.Name, f.Rule); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (c *Catalogue) checkRule(owner, field string, r DecodeRule) error {
	switch r.Kind {
	case RulePrimitive, RuleComplex:
		if _, ok := c.types[r.Type]; !ok {
			return fmt.Errorf("%s.%s: %w: %q", owner, field, ErrSchemaNotFound, r.Type)
		}
	case RuleResource, RuleXhtml:
	default:
		return fmt.Errorf("%s.%s: invalid rule kind %d", owner, field, r.Kind)
	}
	return nil
}
