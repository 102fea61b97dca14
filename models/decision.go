package models

// SectionName identifies a structural division of a decision
type SectionName string

const (
	SectionPreamble  SectionName = "PREAMBLE"
	SectionDecision  SectionName = "DECISION"
	SectionSyllabus  SectionName = "SYLLABUS"
	SectionFacts     SectionName = "FACTS"
	SectionIssues    SectionName = "ISSUES"
	SectionRuling    SectionName = "RULING"
	SectionWherefore SectionName = "WHEREFORE"
	SectionFullText  SectionName = "FULL_TEXT"
)

// CaseMetadata holds the identifying fields derived from a decision's text
type CaseMetadata struct {
	CaseNo   *string `json:"case_no,omitempty"`
	Division *string `json:"division,omitempty"`
	Title    *string `json:"title,omitempty"`
}

// Section is a named span of a decision's text
type Section struct {
	Name SectionName `json:"name"`
	Text string      `json:"text"`
}
