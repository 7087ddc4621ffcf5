// Package repair detects and fixes structural defects in AI-generated markup.
//
// The input is frequently not well-formed enough for a strict parser to
// accept, so every repair is a linear text scan: an ordered pipeline of
// independent string transforms. Order matters; later passes assume earlier
// ones have normalized the common cases.
package repair

import (
	"fmt"
	"strings"

	"github.com/Jamesybdp/VetaCV-AI/internal/models"
)

// report accumulates warnings and the fix count across passes.
type report struct {
	warnings []string
	fixes    int
}

func (r *report) warnf(format string, args ...interface{}) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

// pass is one named repair transform. Each pass is total: it returns the
// input unchanged when it has nothing to fix.
type pass struct {
	name  string
	apply func(html string, rep *report) string
}

// Repairer runs the fixed repair pipeline over untrusted markup.
type Repairer struct {
	passes      []pass
	corrections []Correction
}

// Option configures a Repairer.
type Option func(*Repairer)

// WithCorrections appends extra garbled-word corrections to the default table.
func WithCorrections(extra []Correction) Option {
	return func(r *Repairer) {
		r.corrections = append(r.corrections, extra...)
	}
}

// New creates a Repairer with the default pass pipeline and correction table.
func New(opts ...Option) *Repairer {
	r := &Repairer{corrections: DefaultCorrections()}
	for _, opt := range opts {
		opt(r)
	}
	r.passes = []pass{
		{"heading-fusion", fixHeadingFusion},
		{"token-concatenation", fixTokenConcatenation},
		{"list-item-fusion", fixListItemFusion},
		{"list-closure", fixListClosure},
		{"whitespace", normalizeWhitespace},
		{"residual-markdown", convertResidualMarkdown},
		{"garbled-words", r.recoverGarbledWords},
		{"minimum-structure", ensureMinimumStructure},
	}
	return r
}

// Repair runs all passes over raw markup. It is total: it never fails and in
// the worst case returns the input wrapped with accumulated warnings and zero
// fixes. The returned HTML is wrapped in the print container; InnerHTML is
// the repaired body alone.
func (r *Repairer) Repair(raw string) models.SanitizationResult {
	rep := &report{}
	html := raw

	detectDefects(html, rep)
	for _, p := range r.passes {
		html = p.apply(html, rep)
	}

	return models.SanitizationResult{
		HTML:         Wrap(html),
		InnerHTML:    html,
		Warnings:     rep.warnings,
		FixesApplied: rep.fixes,
	}
}

// detectDefects records advisory warnings before any transform runs.
func detectDefects(html string, rep *report) {
	if len(strings.TrimSpace(html)) < 50 {
		rep.warnf("markup content is too short or empty")
	}
	if n := len(concatPattern.FindAllString(html, -1)); n > 0 {
		rep.warnf("found %d concatenated headings", n)
	}
}
