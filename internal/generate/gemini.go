package generate

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/Jamesybdp/VetaCV-AI/internal/models"
	"github.com/Jamesybdp/VetaCV-AI/pkg/utils"
)

// DefaultModel is used when the configuration leaves the model blank.
const DefaultModel = "gemini-2.0-flash"

// maxSourceText bounds how much extracted source text is embedded in a draft
// prompt.
const maxSourceText = 8000

// GeminiGenerator is the production Generator backed by the Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// NewGeminiGenerator dials the Gemini API.
func NewGeminiGenerator(ctx context.Context, apiKey, model string, logger *zap.Logger) (*GeminiGenerator, error) {
	if model == "" {
		model = DefaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model, logger: logger}, nil
}

// Draft builds the initial-generation prompt and runs it through the model.
func (g *GeminiGenerator) Draft(ctx context.Context, sourceText string, goals models.CareerGoals) (*models.RefinementResult, error) {
	prompt := buildDraftPrompt(sourceText, goals)
	text, err := g.generate(ctx, prompt)
	if err != nil {
		return nil, &GenerationError{Op: "draft", Reason: "model call failed", Err: err}
	}
	return parseResult(text)
}

// Refine runs an already-compiled refinement prompt through the model.
func (g *GeminiGenerator) Refine(ctx context.Context, prompt string) (*models.RefinementResult, error) {
	text, err := g.generate(ctx, prompt)
	if err != nil {
		return nil, &GenerationError{Op: "refine", Reason: "model call failed", Err: err}
	}
	return parseResult(text)
}

func (g *GeminiGenerator) generate(ctx context.Context, prompt string) (string, error) {
	g.logger.Debug("calling generative model",
		zap.String("model", g.model),
		zap.Int("prompt_len", len(prompt)))
	contents := genai.Text(prompt)
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

func buildDraftPrompt(sourceText string, goals models.CareerGoals) string {
	prompt := "You are a CV authoring engine. Write a complete, truthful CV as clean semantic HTML from the source material below.\n\n"
	prompt += "SOURCE MATERIAL:\n" + utils.Truncate(sourceText, maxSourceText) + "\n\n"
	prompt += "CAREER GOALS:\n"
	prompt += "- Target Role: " + goals.TargetRole + "\n"
	if goals.Industry != "" {
		prompt += "- Industry: " + goals.Industry + "\n"
	}
	if goals.JobDescription != "" {
		prompt += "- Job Description:\n" + utils.Truncate(goals.JobDescription, 2000) + "\n"
	}
	if goals.RecipientContext != "" {
		prompt += "- Recipient Context: " + goals.RecipientContext + "\n"
	}
	if goals.LocationPref != "" {
		prompt += "- Location Preference: " + goals.LocationPref + "\n"
	}
	prompt += outputContract
	prompt += qualityRules
	return prompt
}

const outputContract = `
OUTPUT FORMAT (JSON ONLY):
{
  "markup": "Full HTML document body using h1/h2/h3, p, ul/li tags only",
  "digital_summary": "1-2 sentence summary of the candidate's positioning",
  "change_log": ["What was emphasized and why"],
  "suggestions": ["2-3 suggestions the candidate could act on"]
}
`

const qualityRules = `
QUALITY REQUIREMENTS:
1. NEVER invent employers, dates, titles, or qualifications.
2. NEVER use placeholders like [Phone Number] - use actual data or omit.
3. Keep HTML clean and semantic - no markdown, proper closing tags.
`
