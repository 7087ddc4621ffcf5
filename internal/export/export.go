// Package export drives a repaired document through rendering and, when
// rendering is not possible or fails, through a deterministic ladder of
// degraded output formats. The orchestrator is a small state machine; every
// run ends in exactly one terminal phase.
package export

import (
	"context"
	"fmt"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/Jamesybdp/VetaCV-AI/internal/health"
	"github.com/Jamesybdp/VetaCV-AI/internal/models"
	"github.com/Jamesybdp/VetaCV-AI/internal/repair"
)

// Phase is one state of the export state machine.
type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseRepairing      Phase = "repairing"
	PhaseHealthChecking Phase = "health_checking"
	PhaseRendering      Phase = "rendering"
	PhaseSucceeded      Phase = "succeeded"
	PhaseDegrading      Phase = "degrading"
	PhaseFallback1      Phase = "fallback_plain_text"
	PhaseFallback2      Phase = "fallback_legacy_doc"
	PhaseFailed         Phase = "failed"
)

// ArtifactKind identifies the produced file format.
type ArtifactKind string

const (
	ArtifactPDF  ArtifactKind = "pdf"
	ArtifactText ArtifactKind = "text"
	ArtifactDoc  ArtifactKind = "doc"
)

// Artifact is one exported file.
type Artifact struct {
	Kind     ArtifactKind
	FileName string
	MIME     string
	Data     []byte
}

// Result is the full outcome of one export run: the artifact (nil when the
// run failed), the recorded outcome, and the ordered phases traversed.
type Result struct {
	Artifact *Artifact
	Outcome  models.ExportOutcome
	Trace    []Phase
}

// ExportError is returned when every tier of the ladder failed.
type ExportError struct {
	Reason string
	Err    error
}

func (e *ExportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("export failed: %s: %v", e.Reason, e.Err)
	}
	return "export failed: " + e.Reason
}

func (e *ExportError) Unwrap() error { return e.Err }

// Orchestrator runs the repair, health-check, render, fallback sequence.
type Orchestrator struct {
	repairer *repair.Repairer
	scorer   *health.Scorer
	renderer Renderer
	policy   *bluemonday.Policy
	outcomes *models.OutcomeRing
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithScorer overrides the default health scorer.
func WithScorer(s *health.Scorer) Option {
	return func(o *Orchestrator) { o.scorer = s }
}

// WithRepairer overrides the default repairer.
func WithRepairer(r *repair.Repairer) Option {
	return func(o *Orchestrator) { o.repairer = r }
}

// WithOutcomeHistory sets how many recent outcomes are retained.
func WithOutcomeHistory(n int) Option {
	return func(o *Orchestrator) { o.outcomes = models.NewOutcomeRing(n) }
}

// NewOrchestrator creates an Orchestrator rendering through the given
// Renderer.
func NewOrchestrator(renderer Renderer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		repairer: repair.New(),
		scorer:   health.NewScorer(nil),
		renderer: renderer,
		policy:   newMarkupPolicy(),
		outcomes: models.NewOutcomeRing(0),
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// newMarkupPolicy builds the sanitization policy applied after repair and
// before any markup leaves the pipeline. Only document-structure tags
// survive; scripts, styles, and event handlers do not.
func newMarkupPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("h1", "h2", "h3", "h4", "h5", "h6", "p", "ul", "ol", "li", "strong", "em", "b", "i", "br", "div", "span")
	p.AllowAttrs("class").OnElements("div", "span", "p")
	return p
}

// Export runs the full ladder for the given document state. The returned
// error is non-nil only when every tier failed; a degraded-but-successful
// run reports through Result.Outcome instead.
//
// The ladder is deterministic: the same markup and the same renderer
// behavior always traverse the same phases and produce the same artifact
// kind.
func (o *Orchestrator) Export(ctx context.Context, state models.DocumentState, baseName string) (*Result, error) {
	res := &Result{Trace: []Phase{PhaseIdle}}
	step := func(p Phase) {
		res.Trace = append(res.Trace, p)
		o.logger.Debug("export phase", zap.String("phase", string(p)))
	}

	step(PhaseRepairing)
	repaired := o.repairer.Repair(state.Markup)
	inner := o.policy.Sanitize(repaired.InnerHTML)

	step(PhaseHealthChecking)
	verdict := o.scorer.Score(inner)

	outcome := models.ExportOutcome{
		FixesApplied: repaired.FixesApplied,
		WarningCount: len(repaired.Warnings),
		Timestamp:    o.now(),
	}

	if verdict.Critical() {
		// A critically unhealthy document never reaches the renderer:
		// the high-fidelity output would be garbage with nice fonts.
		o.logger.Warn("document critical, skipping render",
			zap.Int("signatures", verdict.Signatures))
		outcome.Reason = fmt.Sprintf("document health critical (%d signatures)", verdict.Signatures)
		return o.degrade(ctx, res, step, inner, baseName, outcome)
	}

	step(PhaseRendering)
	pdf, err := o.renderer.RenderPDF(ctx, repair.Wrap(inner))
	if err == nil {
		step(PhaseSucceeded)
		outcome.Succeeded = true
		res.Artifact = &Artifact{
			Kind:     ArtifactPDF,
			FileName: baseName + ".pdf",
			MIME:     "application/pdf",
			Data:     pdf,
		}
		res.Outcome = outcome
		o.outcomes.Append(outcome)
		return res, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	o.logger.Warn("render failed, degrading", zap.Error(err))
	outcome.Reason = "render failed: " + err.Error()
	return o.degrade(ctx, res, step, inner, baseName, outcome)
}

func (o *Orchestrator) degrade(ctx context.Context, res *Result, step func(Phase), inner, baseName string, outcome models.ExportOutcome) (*Result, error) {
	step(PhaseDegrading)

	step(PhaseFallback1)
	if text, err := renderPlainText(inner); err == nil {
		outcome.Succeeded = true
		outcome.Degraded = true
		res.Artifact = &Artifact{
			Kind:     ArtifactText,
			FileName: baseName + ".txt",
			MIME:     "text/plain; charset=utf-8",
			Data:     text,
		}
		res.Outcome = outcome
		o.outcomes.Append(outcome)
		return res, nil
	} else {
		o.logger.Warn("plain text fallback failed", zap.Error(err))
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	step(PhaseFallback2)
	if doc, err := renderLegacyDoc(inner); err == nil {
		outcome.Succeeded = true
		outcome.Degraded = true
		res.Artifact = &Artifact{
			Kind:     ArtifactDoc,
			FileName: baseName + ".doc",
			MIME:     "application/msword",
			Data:     doc,
		}
		res.Outcome = outcome
		o.outcomes.Append(outcome)
		return res, nil
	} else {
		o.logger.Error("legacy doc fallback failed", zap.Error(err))
	}

	step(PhaseFailed)
	outcome.Succeeded = false
	outcome.Degraded = true
	res.Outcome = outcome
	o.outcomes.Append(outcome)
	return res, &ExportError{Reason: outcome.Reason}
}

// Outcomes returns the recent outcome history, oldest first.
func (o *Orchestrator) Outcomes() []models.ExportOutcome {
	return o.outcomes.All()
}
