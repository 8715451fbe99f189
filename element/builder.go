package element

import (
	"errors"
	"fmt"
	"strings"
)

// Builder errors. Build failures wrap one of these.
var (
	ErrDuplicateField   = errors.New("singular field set more than once")
	ErrUnknownAttribute = errors.New("unknown attribute")
	ErrUnknownField     = errors.New("unknown field")
	ErrInvalidValue     = errors.New("invalid primitive value")
	ErrEmptyElement     = errors.New("element must have a value or children")
	ErrConstraint       = errors.New("constraint violated")
	ErrBuilt            = errors.New("builder already built")
)

// Builder accumulates one element and constructs it once.
type Builder interface {
	// SetAttribute records an attribute from the start tag.
	SetAttribute(name, value string) error
	// Set feeds a decoded field value. Singular fields accept one call,
	// repeatable fields append in call order.
	Set(name string, repeatable bool, v Value) error
	// Build constructs the value. It must be called exactly once.
	Build() (Value, error)
}

// Factory creates builders. Validation is applied in Build when enabled.
// A Factory has no mutable state and may be shared.
type Factory struct {
	validate bool
}

// NewFactory creates a builder factory.
func NewFactory(validate bool) *Factory {
	return &Factory{validate: validate}
}

// Validating reports whether builders check values on Build.
func (f *Factory) Validating() bool {
	return f.validate
}

// NewPrimitive returns a builder for a primitive of the given type code.
func (f *Factory) NewPrimitive(typeName string) Builder {
	return &primitiveBuilder{validate: f.validate, p: Primitive{typ: typeName}}
}

// NewComplex returns a builder for a datatype or backbone element.
func (f *Factory) NewComplex(typeName string) Builder {
	return &nodeBuilder{validate: f.validate, n: Node{typ: typeName}}
}

// NewResource returns a builder for a resource.
func (f *Factory) NewResource(typeName string) Builder {
	return &nodeBuilder{validate: f.validate, n: Node{typ: typeName, resource: true}}
}

type primitiveBuilder struct {
	validate bool
	built    bool
	idSet    bool
	p        Primitive
}

func (b *primitiveBuilder) SetAttribute(name, value string) error {
	switch name {
	case "id":
		if b.idSet {
			return fmt.Errorf("%w: @id", ErrDuplicateField)
		}
		b.p.id, b.idSet = value, true
	case "value":
		if b.p.hasValue {
			return fmt.Errorf("%w: @value", ErrDuplicateField)
		}
		b.p.value, b.p.hasValue = value, true
	default:
		return fmt.Errorf("%w: %s on %s", ErrUnknownAttribute, name, b.p.typ)
	}
	return nil
}

func (b *primitiveBuilder) Set(name string, _ bool, v Value) error {
	ext, ok := v.(*Node)
	if name != "extension" || !ok {
		return fmt.Errorf("%w: %s on %s", ErrUnknownField, name, b.p.typ)
	}
	b.p.extensions = append(b.p.extensions, ext)
	return nil
}

func (b *primitiveBuilder) Build() (Value, error) {
	if b.built {
		return nil, ErrBuilt
	}
	b.built = true
	if b.validate {
		if !b.p.hasValue && len(b.p.extensions) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrEmptyElement, b.p.typ)
		}
		if b.p.hasValue {
			if err := ValidatePrimitive(b.p.typ, b.p.value); err != nil {
				return nil, err
			}
		}
	}
	p := b.p
	return &p, nil
}

type nodeBuilder struct {
	validate bool
	built    bool
	n        Node
}

func (b *nodeBuilder) SetAttribute(name, value string) error {
	if _, dup := b.n.Attr(name); dup {
		return fmt.Errorf("%w: @%s", ErrDuplicateField, name)
	}
	b.n.attrs = append(b.n.attrs, Attribute{Name: name, Value: value})
	return nil
}

func (b *nodeBuilder) Set(name string, repeatable bool, v Value) error {
	if f := b.n.Field(name); f != nil {
		if !f.Repeatable || !repeatable {
			return fmt.Errorf("%w: %s.%s", ErrDuplicateField, b.n.typ, name)
		}
		f.Values = append(f.Values, v)
		return nil
	}
	b.n.fields = append(b.n.fields, Field{Name: name, Repeatable: repeatable, Values: []Value{v}})
	return nil
}

func (b *nodeBuilder) Build() (Value, error) {
	if b.built {
		return nil, ErrBuilt
	}
	b.built = true
	if b.validate {
		if err := b.check(); err != nil {
			return nil, err
		}
	}
	n := b.n
	return &n, nil
}

// check enforces ele-1 on non-resource elements and ext-1 plus the
// mandatory url on extensions.
func (b *nodeBuilder) check() error {
	if b.n.resource {
		return nil
	}
	if len(b.n.fields) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyElement, b.n.typ)
	}
	if b.n.typ != "Extension" {
		return nil
	}
	if url, ok := b.n.Attr("url"); !ok || url == "" {
		return fmt.Errorf("%w: Extension.url is required", ErrConstraint)
	}
	hasValue := false
	for _, f := range b.n.fields {
		if strings.HasPrefix(f.Name, "value") {
			hasValue = true
		}
	}
	if hasValue && b.n.Field("extension") != nil {
		return fmt.Errorf("%w: ext-1: must have either extensions or value[x], not both", ErrConstraint)
	}
	return nil
}
