package fhirxml

import (
	"errors"
	"fmt"
)

// FHIRVersion represents a FHIR specification version.
type FHIRVersion string

// Known FHIR versions.
const (
	// R4 is FHIR Release 4 (4.0.1)
	R4 FHIRVersion = "R4"
	// R4B is FHIR Release 4B (4.3.0)
	R4B FHIRVersion = "R4B"
	// R5 is FHIR Release 5 (5.0.0)
	R5 FHIRVersion = "R5"
)

// ErrVersionNotSupported is returned when no schema catalogue exists for a
// FHIR version.
var ErrVersionNotSupported = errors.New("FHIR version not supported")

// String returns the version string.
func (v FHIRVersion) String() string {
	return string(v)
}

// IsValid returns true if this is a known FHIR version.
func (v FHIRVersion) IsValid() bool {
	_, ok := versionConfigs[v]
	return ok
}

// Number returns the full version number, e.g. "4.0.1".
func (v FHIRVersion) Number() string {
	return versionConfigs[v].number
}

// HasCatalogue reports whether this module ships decode schemas for v.
func (v FHIRVersion) HasCatalogue() bool {
	return versionConfigs[v].catalogue
}

// CheckDecodable returns an error wrapping ErrVersionNotSupported unless v
// has a schema catalogue.
func (v FHIRVersion) CheckDecodable() error {
	if !v.HasCatalogue() {
		return fmt.Errorf("%w: %q", ErrVersionNotSupported, string(v))
	}
	return nil
}

type versionConfig struct {
	// number is the version string used in StructureDefinitions
	number string
	// catalogue is set when schema data exists for the version
	catalogue bool
}

var versionConfigs = map[FHIRVersion]versionConfig{
	R4:  {number: "4.0.1", catalogue: true},
	R4B: {number: "4.3.0"},
	R5:  {number: "5.0.0"},
}
