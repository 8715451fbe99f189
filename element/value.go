package element

// Value is a decoded element: *Node or *Primitive.
type Value interface {
	TypeName() string
}

// Attribute is an XML attribute kept on a complex element (id, url).
type Attribute struct {
	Name  string
	Value string
}

// Field is one named member of a Node with its values in document order.
// Choice members are named by their concrete element name ("valueBoolean").
type Field struct {
	Name       string
	Repeatable bool
	Values     []Value
}

// Node is a decoded resource, datatype or backbone element.
// A Node is immutable once built; callers must not modify the slices it
// returns.
type Node struct {
	typ      string
	resource bool
	attrs    []Attribute
	fields   []Field
}

// TypeName returns the structural type name, e.g. "CodeSystem" or "Coding".
func (n *Node) TypeName() string {
	return n.typ
}

// IsResource reports whether the node is a resource.
func (n *Node) IsResource() bool {
	return n.resource
}

// Attr returns an attribute value.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Attrs returns the attributes in document order.
func (n *Node) Attrs() []Attribute {
	return n.attrs
}

// Fields returns the populated fields in document order.
func (n *Node) Fields() []Field {
	return n.fields
}

// Field returns the named field, or nil when it is absent.
func (n *Node) Field(name string) *Field {
	for i := range n.fields {
		if n.fields[i].Name == name {
			return &n.fields[i]
		}
	}
	return nil
}

// Values returns the values of a field; nil when absent.
func (n *Node) Values(name string) []Value {
	if f := n.Field(name); f != nil {
		return f.Values
	}
	return nil
}

// Child returns the first value of a field as a Node.
func (n *Node) Child(name string) *Node {
	for _, v := range n.Values(name) {
		if c, ok := v.(*Node); ok {
			return c
		}
	}
	return nil
}

// Children returns all Node values of a field.
func (n *Node) Children(name string) []*Node {
	values := n.Values(name)
	out := make([]*Node, 0, len(values))
	for _, v := range values {
		if c, ok := v.(*Node); ok {
			out = append(out, c)
		}
	}
	return out
}

// Primitive returns the first value of a field as a Primitive.
func (n *Node) Primitive(name string) *Primitive {
	for _, v := range n.Values(name) {
		if p, ok := v.(*Primitive); ok {
			return p
		}
	}
	return nil
}

// String returns the lexical value of a primitive field.
func (n *Node) String(name string) (string, bool) {
	if p := n.Primitive(name); p != nil {
		return p.Value()
	}
	return "", false
}

// Primitive is a decoded FHIR primitive: an optional value, an optional id
// and extensions.
type Primitive struct {
	typ        string
	id         string
	value      string
	hasValue   bool
	extensions []*Node
}

// TypeName returns the primitive type code, e.g. "dateTime".
func (p *Primitive) TypeName() string {
	return p.typ
}

// ID returns the element id, empty when absent.
func (p *Primitive) ID() string {
	return p.id
}

// Value returns the lexical value and whether one was present.
func (p *Primitive) Value() (string, bool) {
	return p.value, p.hasValue
}

// Extensions returns the primitive's extensions.
func (p *Primitive) Extensions() []*Node {
	return p.extensions
}
