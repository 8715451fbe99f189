package fhirxml

import (
	"encoding/json"
	"strconv"
)

// IssueSeverity represents the severity of a decode issue.
// Maps to OperationOutcome.issue.severity in FHIR.
type IssueSeverity string

const (
	// SeverityFatal indicates processing could not continue.
	SeverityFatal IssueSeverity = "fatal"
	// SeverityError indicates the document was rejected.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a potential problem that should be reviewed.
	SeverityWarning IssueSeverity = "warning"
	// SeverityInformation indicates informational feedback.
	SeverityInformation IssueSeverity = "information"
)

// IssueType represents the type of a decode issue.
// Maps to OperationOutcome.issue.code in FHIR.
type IssueType string

const (
	// IssueTypeInvalid indicates the content is invalid.
	IssueTypeInvalid IssueType = "invalid"
	// IssueTypeStructure indicates a structural issue: order, namespace,
	// unknown elements, malformed XML.
	IssueTypeStructure IssueType = "structure"
	// IssueTypeValue indicates an invalid primitive value.
	IssueTypeValue IssueType = "value"
	// IssueTypeInvariant indicates an invariant violation (ele-1, ext-1).
	IssueTypeInvariant IssueType = "invariant"
	// IssueTypeProcessing indicates a processing error.
	IssueTypeProcessing IssueType = "processing"
	// IssueTypeNotSupported indicates content this decoder does not handle.
	IssueTypeNotSupported IssueType = "not-supported"
	// IssueTypeException indicates an internal defect.
	IssueTypeException IssueType = "exception"
	// IssueTypeInformational indicates informational content.
	IssueTypeInformational IssueType = "informational"
)

// Issue represents a single decode issue.
// It maps to OperationOutcome.issue in FHIR.
type Issue struct {
	// Severity of the issue (error, warning, information)
	Severity IssueSeverity `json:"severity"`

	// Code identifying the type of issue
	Code IssueType `json:"code"`

	// Diagnostics contains human-readable details about the issue
	Diagnostics string `json:"diagnostics,omitempty"`

	// Expression holds the breadcrumb path of the element in error
	Expression []string `json:"expression,omitempty"`

	// Line and Column locate the issue in the XML input
	Line   int `json:"line,omitempty"`
	Column int `json:"column,omitempty"`

	// Kind is the decoder error kind, e.g. "ordering"
	Kind string `json:"kind,omitempty"`
}

// IsError returns true if this is an error or fatal issue.
func (i Issue) IsError() bool {
	return i.Severity == SeverityError || i.Severity == SeverityFatal
}

// IsWarning returns true if this is a warning.
func (i Issue) IsWarning() bool {
	return i.Severity == SeverityWarning
}

// String returns a human-readable representation of the issue.
func (i Issue) String() string {
	s := string(i.Severity) + ": " + i.Diagnostics
	if len(i.Expression) > 0 {
		s += " at " + i.Expression[0]
	}
	if i.Line > 0 {
		s += " (line " + strconv.Itoa(i.Line) + ", column " + strconv.Itoa(i.Column) + ")"
	}
	return s
}

// IssueBuilder provides a fluent API for building issues.
type IssueBuilder struct {
	issue Issue
}

// NewIssue creates a new IssueBuilder.
func NewIssue(severity IssueSeverity, code IssueType) *IssueBuilder {
	return &IssueBuilder{
		issue: Issue{
			Severity: severity,
			Code:     code,
		},
	}
}

// Error creates an error issue.
func Error(code IssueType) *IssueBuilder {
	return NewIssue(SeverityError, code)
}

// Warning creates a warning issue.
func Warning(code IssueType) *IssueBuilder {
	return NewIssue(SeverityWarning, code)
}

// Info creates an informational issue.
func Info(code IssueType) *IssueBuilder {
	return NewIssue(SeverityInformation, code)
}

// Diagnostics sets the diagnostic message.
func (b *IssueBuilder) Diagnostics(msg string) *IssueBuilder {
	b.issue.Diagnostics = msg
	return b
}

// At sets the expression path. An empty path is ignored.
func (b *IssueBuilder) At(path string) *IssueBuilder {
	if path != "" {
		b.issue.Expression = []string{path}
	}
	return b
}

// Position sets the source position.
func (b *IssueBuilder) Position(line, column int) *IssueBuilder {
	b.issue.Line = line
	b.issue.Column = column
	return b
}

// Kind sets the decoder error kind.
func (b *IssueBuilder) Kind(kind string) *IssueBuilder {
	b.issue.Kind = kind
	return b
}

// Build returns the constructed issue.
func (b *IssueBuilder) Build() Issue {
	return b.issue
}

// Standard OperationOutcome extensions carrying the source position.
const (
	ExtIssueLine   = "http://hl7.org/fhir/StructureDefinition/operationoutcome-issue-line"
	ExtIssueColumn = "http://hl7.org/fhir/StructureDefinition/operationoutcome-issue-col"
)

type outcome struct {
	ResourceType string         `json:"resourceType"`
	Issue        []outcomeIssue `json:"issue"`
}

type outcomeIssue struct {
	Extension   []intExtension `json:"extension,omitempty"`
	Severity    IssueSeverity  `json:"severity"`
	Code        IssueType      `json:"code"`
	Diagnostics string         `json:"diagnostics,omitempty"`
	Expression  []string       `json:"expression,omitempty"`
}

type intExtension struct {
	URL          string `json:"url"`
	ValueInteger int    `json:"valueInteger"`
}

// OperationOutcome renders issues as a FHIR JSON OperationOutcome.
// Positions are carried in the standard issue-line and issue-col extensions.
// An empty issue list renders a single informational "ok" issue, since
// OperationOutcome.issue is mandatory.
func OperationOutcome(issues []Issue) ([]byte, error) {
	oo := outcome{ResourceType: "OperationOutcome"}
	for _, is := range issues {
		oi := outcomeIssue{
			Severity:    is.Severity,
			Code:        is.Code,
			Diagnostics: is.Diagnostics,
			Expression:  is.Expression,
		}
		if is.Line > 0 {
			oi.Extension = []intExtension{
				{URL: ExtIssueLine, ValueInteger: is.Line},
				{URL: ExtIssueColumn, ValueInteger: is.Column},
			}
		}
		oo.Issue = append(oo.Issue, oi)
	}
	if len(oo.Issue) == 0 {
		oo.Issue = []outcomeIssue{{
			Severity:    SeverityInformation,
			Code:        IssueTypeInformational,
			Diagnostics: "ok",
		}}
	}
	return json.Marshal(oo)
}
