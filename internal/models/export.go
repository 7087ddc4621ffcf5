package models

import "time"

// ExportOutcome records one export attempt for observability. Purely
// diagnostic; it never affects control flow.
type ExportOutcome struct {
	Succeeded    bool      `json:"succeeded"`
	Degraded     bool      `json:"degraded"` // fallback artifacts produced instead of high-fidelity
	FixesApplied int       `json:"fixes_applied"`
	WarningCount int       `json:"warning_count"`
	Reason       string    `json:"reason,omitempty"` // failure reason when not succeeded
	Timestamp    time.Time `json:"timestamp"`
}

// OutcomeRing is a bounded ring buffer of the most recent export outcomes.
type OutcomeRing struct {
	outcomes []ExportOutcome
	capacity int
}

// NewOutcomeRing creates a ring keeping the last capacity outcomes.
// A non-positive capacity defaults to 10.
func NewOutcomeRing(capacity int) *OutcomeRing {
	if capacity <= 0 {
		capacity = 10
	}
	return &OutcomeRing{capacity: capacity}
}

// Append records an outcome, evicting the oldest when full.
func (r *OutcomeRing) Append(o ExportOutcome) {
	r.outcomes = append(r.outcomes, o)
	if len(r.outcomes) > r.capacity {
		r.outcomes = r.outcomes[len(r.outcomes)-r.capacity:]
	}
}

// All returns the retained outcomes, oldest first.
func (r *OutcomeRing) All() []ExportOutcome {
	out := make([]ExportOutcome, len(r.outcomes))
	copy(out, r.outcomes)
	return out
}

// Len returns the number of retained outcomes.
func (r *OutcomeRing) Len() int { return len(r.outcomes) }
