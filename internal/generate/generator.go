// Package generate wraps the generative model behind a small interface so
// the refinement pipeline can run against the real Gemini backend or an
// in-process fake.
package generate

import (
	"context"
	"fmt"

	"github.com/Jamesybdp/VetaCV-AI/internal/models"
)

// Generator produces and refines documents.
type Generator interface {
	// Draft produces an initial document from extracted source text and the
	// user's career goals.
	Draft(ctx context.Context, sourceText string, goals models.CareerGoals) (*models.RefinementResult, error)
	// Refine applies a compiled refinement prompt to the current document.
	Refine(ctx context.Context, prompt string) (*models.RefinementResult, error)
}

// GenerationError wraps a failure from the generative backend or from
// response validation. Callers match it with errors.As.
type GenerationError struct {
	Op     string // "draft", "refine", "parse"
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation %s failed: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("generation %s failed: %s", e.Op, e.Reason)
}

func (e *GenerationError) Unwrap() error { return e.Err }
