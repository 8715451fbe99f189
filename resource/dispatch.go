package resource

import (
	"errors"
	"fmt"

	"github.com/gofhir/fhirxml/schema"
)

var (
	// ErrUnsupportedResourceType is returned for a valid resource type that
	// this build does not decode.
	ErrUnsupportedResourceType = errors.New("unsupported resource type")
	// ErrInvalidResourceType is returned for a name that is not a resource
	// type at all.
	ErrInvalidResourceType = errors.New("invalid resource type")
)

// Status is the partition a resource type name falls into.
type Status uint8

// Partition members. Every name has exactly one.
const (
	Unknown Status = iota
	Supported
	Unsupported
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case Supported:
		return "supported"
	case Unsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// Dispatcher maps resource element names to catalogue schemas.
// It is immutable after construction and safe for concurrent use.
type Dispatcher struct {
	registry  *Registry
	supported map[string]*schema.ElementSchema
}

// NewDispatcher builds the partition from a catalogue's resource schemas.
// Every catalogue resource must also be known to the registry.
func NewDispatcher(cat *schema.Catalogue, reg *Registry) (*Dispatcher, error) {
	d := &Dispatcher{
		registry:  reg,
		supported: make(map[string]*schema.ElementSchema),
	}
	for _, name := range cat.Resources() {
		if !reg.IsKnownResourceType(name) {
			return nil, fmt.Errorf("catalogue resource %q: %w", name, ErrInvalidResourceType)
		}
		s, err := cat.SchemaFor(name)
		if err != nil {
			return nil, err
		}
		d.supported[name] = s
	}
	return d, nil
}

// Status classifies a resource type name.
func (d *Dispatcher) Status(name string) Status {
	if _, ok := d.supported[name]; ok {
		return Supported
	}
	if d.registry.IsKnownResourceType(name) {
		return Unsupported
	}
	return Unknown
}

// Dispatch returns the schema of a supported resource type, or an error
// wrapping ErrUnsupportedResourceType or ErrInvalidResourceType.
func (d *Dispatcher) Dispatch(name string) (*schema.ElementSchema, error) {
	switch d.Status(name) {
	case Supported:
		return d.supported[name], nil
	case Unsupported:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedResourceType, name)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidResourceType, name)
	}
}

// Supported returns the sorted names of decodable resource types.
func (d *Dispatcher) Supported() []string {
	out := make([]string, 0, len(d.supported))
	for _, n := range d.registry.Names() {
		if _, ok := d.supported[n]; ok {
			out = append(out, n)
		}
	}
	return out
}
