// Package health classifies a document's structural soundness. The verdict
// is a heuristic triage gate deciding whether high-fidelity rendering is
// worth attempting, not a guarantee of correctness.
package health

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Jamesybdp/VetaCV-AI/internal/models"
)

// Thresholds are tunable scoring constants. They are empirical, not derived;
// deployments can recalibrate them via configuration.
type Thresholds struct {
	// WarningSignatures is the minimum signature count for a warning verdict.
	WarningSignatures int
	// CriticalSignatures is the count above which the verdict is critical.
	CriticalSignatures int
	// LongLineLength is the minimum line length considered for truncation checks.
	LongLineLength int
	// MaxHyphenLines is how many long hyphen-terminated lines are tolerated
	// before they count as a truncation signature.
	MaxHyphenLines int
}

// DefaultThresholds returns the default scoring constants.
func DefaultThresholds() Thresholds {
	return Thresholds{
		WarningSignatures:  1,
		CriticalSignatures: 3,
		LongLineLength:     50,
		MaxHyphenLines:     2,
	}
}

// ApplyDefaults fills zero fields with defaults.
func (t *Thresholds) ApplyDefaults() {
	d := DefaultThresholds()
	if t.WarningSignatures <= 0 {
		t.WarningSignatures = d.WarningSignatures
	}
	if t.CriticalSignatures <= 0 {
		t.CriticalSignatures = d.CriticalSignatures
	}
	if t.LongLineLength <= 0 {
		t.LongLineLength = d.LongLineLength
	}
	if t.MaxHyphenLines <= 0 {
		t.MaxHyphenLines = d.MaxHyphenLines
	}
}

// signatureCheck is one independent anomaly detector.
type signatureCheck struct {
	name  string
	count func(markup string) (int, []string)
}

// Scorer aggregates independent signature checks into a health verdict.
type Scorer struct {
	thresholds Thresholds
	checks     []signatureCheck
}

// NewScorer creates a Scorer. A nil thresholds pointer uses defaults.
func NewScorer(t *Thresholds) *Scorer {
	th := DefaultThresholds()
	if t != nil {
		th = *t
		th.ApplyDefaults()
	}
	s := &Scorer{thresholds: th}
	s.checks = []signatureCheck{
		{"corruption", countCorruption},
		{"truncation", s.countTruncation},
		{"tag-balance", countTagImbalance},
	}
	return s
}

// Score runs all checks over markup and aggregates. Zero signatures is
// healthy; up to CriticalSignatures is a warning; more is critical.
// Score is total: it never fails for any input.
func (s *Scorer) Score(markup string) models.HealthVerdict {
	total := 0
	var anomalies []string
	for _, c := range s.checks {
		n, notes := c.count(markup)
		total += n
		anomalies = append(anomalies, notes...)
	}

	level := models.HealthHealthy
	switch {
	case total > s.thresholds.CriticalSignatures:
		level = models.HealthCritical
	case total >= s.thresholds.WarningSignatures:
		level = models.HealthWarning
	}
	return models.HealthVerdict{Level: level, Signatures: total, Anomalies: anomalies}
}

// alternatingCase matches a lower-upper-lower-upper run in a 4-character
// window, symptomatic of encoding corruption.
var alternatingCase = regexp.MustCompile(`[a-z][A-Z][a-z][A-Z]`)

func countCorruption(markup string) (int, []string) {
	n := len(alternatingCase.FindAllString(markup, -1))
	if n == 0 {
		return 0, nil
	}
	return n, []string{fmt.Sprintf("%d alternating-case runs detected", n)}
}

func (s *Scorer) countTruncation(markup string) (int, []string) {
	hyphenLines := 0
	for _, line := range strings.Split(markup, "\n") {
		line = strings.TrimRight(line, " \t")
		if len(line) > s.thresholds.LongLineLength && strings.HasSuffix(line, "-") {
			hyphenLines++
		}
	}
	if hyphenLines <= s.thresholds.MaxHyphenLines {
		return 0, nil
	}
	return hyphenLines, []string{fmt.Sprintf("%d long lines end in a hyphen (possible truncation)", hyphenLines)}
}

// blockTags are the block-container tags whose open/close counts must agree.
var blockTags = []string{"p", "ul", "ol", "li", "div"}

func countTagImbalance(markup string) (int, []string) {
	total := 0
	var notes []string
	for _, tag := range blockTags {
		open := countOpenTags(markup, tag)
		closed := strings.Count(markup, "</"+tag+">")
		if open != closed {
			diff := open - closed
			if diff < 0 {
				diff = -diff
			}
			total += diff
			notes = append(notes, fmt.Sprintf("<%s> imbalance: %d open vs %d closed", tag, open, closed))
		}
	}
	return total, notes
}

var openTagPatterns = map[string]*regexp.Regexp{}

func init() {
	for _, tag := range blockTags {
		openTagPatterns[tag] = regexp.MustCompile(`<` + tag + `[\s>]`)
	}
}

func countOpenTags(markup, tag string) int {
	return len(openTagPatterns[tag].FindAllString(markup, -1))
}
