package element

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofhir/fhir/r4"
)

// ErrWrongResourceType is returned when a node is converted to a struct of a
// different resource type.
var ErrWrongResourceType = errors.New("wrong resource type")

// ToR4 converts a node to a typed r4 struct through its FHIR JSON form.
func ToR4[T any](n *Node) (*T, error) {
	if n == nil {
		return nil, fmt.Errorf("convert nil node")
	}
	data, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", n.typ, err)
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", n.typ, err)
	}
	return &out, nil
}

// CodeSystem converts a decoded CodeSystem resource.
func CodeSystem(n *Node) (*r4.CodeSystem, error) {
	if err := expectResource(n, "CodeSystem"); err != nil {
		return nil, err
	}
	return ToR4[r4.CodeSystem](n)
}

// ValueSet converts a decoded ValueSet resource.
func ValueSet(n *Node) (*r4.ValueSet, error) {
	if err := expectResource(n, "ValueSet"); err != nil {
		return nil, err
	}
	return ToR4[r4.ValueSet](n)
}

func expectResource(n *Node, typeName string) error {
	if n == nil || !n.resource || n.typ != typeName {
		got := "<nil>"
		if n != nil {
			got = n.typ
		}
		return fmt.Errorf("%w: got %s, want %s", ErrWrongResourceType, got, typeName)
	}
	return nil
}
