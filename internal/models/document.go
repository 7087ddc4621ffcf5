// Package models defines core data structures for document states, repair
// results, refinement directives, and export outcomes.
package models

import "time"

// DocumentState is an immutable snapshot of a generated document. Every edit,
// manual or AI-driven, produces a new DocumentState; none is mutated in place.
type DocumentState struct {
	Markup         string    `json:"markup"`          // inner HTML-like body, no outer wrapper
	DigitalSummary string    `json:"digital_summary"` // short-form companion profile text
	CreatedAt      time.Time `json:"created_at"`
}

// NewDocumentState builds a snapshot stamped with the current time.
func NewDocumentState(markup, summary string) DocumentState {
	return DocumentState{
		Markup:         markup,
		DigitalSummary: summary,
		CreatedAt:      time.Now().UTC(),
	}
}

// SanitizationResult is the output of one repair pass over untrusted markup.
// Produced fresh on every invocation and never persisted standalone.
type SanitizationResult struct {
	HTML         string   `json:"html"`          // repaired markup wrapped in the print container
	InnerHTML    string   `json:"inner_html"`    // repaired markup without the wrapper
	Warnings     []string `json:"warnings"`      // human-readable notes on defects found
	FixesApplied int      `json:"fixes_applied"` // count of structural corrections made
}

// HealthLevel classifies a document's structural soundness.
type HealthLevel string

const (
	HealthHealthy  HealthLevel = "healthy"
	HealthWarning  HealthLevel = "warning"
	HealthCritical HealthLevel = "critical"
)

// HealthVerdict is derived from markup each time it is needed, never stored.
type HealthVerdict struct {
	Level      HealthLevel `json:"level"`
	Signatures int         `json:"signatures"` // total anomaly instances detected
	Anomalies  []string    `json:"anomalies"`  // descriptions of detected anomalies
}

// Critical reports whether high-fidelity rendering should be skipped.
func (v HealthVerdict) Critical() bool { return v.Level == HealthCritical }
