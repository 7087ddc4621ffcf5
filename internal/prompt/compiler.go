// Package prompt compiles parsed directives into a generation prompt. The
// compiler is deterministic: the same directives and document always produce
// the same prompt text.
package prompt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Jamesybdp/VetaCV-AI/internal/models"
	"github.com/Jamesybdp/VetaCV-AI/pkg/utils"
)

// maxEmbeddedMarkup bounds how much of the current document is inlined into
// the prompt. The digital summary carries the rest of the context.
const maxEmbeddedMarkup = 3000

// Compiler renders directives into prompt text.
type Compiler struct {
	maxMarkup int
}

// NewCompiler creates a Compiler with the default embed budget.
func NewCompiler() *Compiler {
	return &Compiler{maxMarkup: maxEmbeddedMarkup}
}

// Compile builds the full refinement prompt: current document context, the
// raw request, the numbered directive list, per-directive canned
// instructions, the output contract, and the non-regression rules.
// Directives are ordered high priority first; none are dropped.
func (c *Compiler) Compile(directives []models.Directive, state models.DocumentState, request string, ctx models.RefinementContext) string {
	ordered := make([]models.Directive, len(directives))
	copy(ordered, directives)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	var b strings.Builder
	b.WriteString("You are a CV refinement engine. Transform the document according to the directives below.\n\n")

	b.WriteString("CURRENT DOCUMENT SUMMARY:\n")
	b.WriteString(state.DigitalSummary)
	b.WriteString("\n\n")

	b.WriteString("CURRENT DOCUMENT MARKUP:\n")
	b.WriteString(utils.Truncate(state.Markup, c.maxMarkup))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "USER'S ORIGINAL REQUEST: %q\n\n", request)

	b.WriteString("DIRECTIVES TO APPLY:\n")
	for i, d := range ordered {
		fmt.Fprintf(&b, "%d. [%s] %s\n", i+1, d.Priority, describe(d))
	}
	b.WriteString("\n")

	if ctx.TargetRole != "" || ctx.TargetIndustry != "" {
		b.WriteString("ADDITIONAL CONTEXT:\n")
		if ctx.TargetRole != "" {
			fmt.Fprintf(&b, "- Target Role: %s\n", ctx.TargetRole)
		}
		if ctx.TargetIndustry != "" {
			fmt.Fprintf(&b, "- Target Industry: %s\n", ctx.TargetIndustry)
		}
		b.WriteString("\n")
	}

	b.WriteString("APPLY THESE TRANSFORMATIONS:\n")
	for _, d := range ordered {
		b.WriteString(instructionsFor(d))
	}

	b.WriteString(outputContract)
	b.WriteString(nonRegressionRules)
	return b.String()
}

// describe renders a one-line human-readable form of a directive for the
// numbered list.
func describe(d models.Directive) string {
	switch d.Kind {
	case models.DirectiveTone:
		return fmt.Sprintf("Change tone to %s (intensity %d/5)", d.Value, d.Intensity)
	case models.DirectiveFocus:
		return fmt.Sprintf("Focus on %s: %s", d.Target, d.Value)
	case models.DirectiveStructure:
		if d.Action == "page-limit" {
			return fmt.Sprintf("Structural change: limit to %d pages", d.PageLimit)
		}
		if d.Target != "" {
			return fmt.Sprintf("Structural change: %s - %s", d.Action, d.Target)
		}
		return fmt.Sprintf("Structural change: %s", d.Action)
	case models.DirectiveQuantify:
		return "Add quantification and metrics to all achievements"
	case models.DirectiveFormat:
		return fmt.Sprintf("Generate additional format: %s", d.Value)
	case models.DirectiveFreeform:
		return fmt.Sprintf("Custom request: %s", d.Utterance)
	default:
		return string(d.Kind)
	}
}

func instructionsFor(d models.Directive) string {
	switch d.Kind {
	case models.DirectiveTone:
		return toneInstructions(d.Value, d.Intensity)
	case models.DirectiveFocus:
		return focusInstructions(d.Target, d.Value)
	case models.DirectiveStructure:
		return structureInstructions(d)
	case models.DirectiveQuantify:
		return quantifyInstructions
	case models.DirectiveFormat:
		return formatInstructions(d.Value)
	case models.DirectiveFreeform:
		return fmt.Sprintf("\nCUSTOM REQUEST:\nApply the user's request verbatim: %s\n", d.Utterance)
	default:
		return ""
	}
}

func toneInstructions(tone string, intensity int) string {
	table := map[string]string{
		"aggressive":   "Use action verbs: Engineered, Architected, Spearheaded.\nStart bullet points with strong verbs.\nRemove weak language like \"Assisted with\" or \"Helped\".\nQuantify everything possible.",
		"professional": "Use corporate language: Implemented, Managed, Coordinated, Oversaw.\nFocus on business impact.\nFormal sentence structure, no contractions.",
		"concise":      "Cut all fluff words.\nMaximum 2 lines per bullet point.\nRemove redundant information.\nTarget 30% reduction in word count.",
		"technical":    "Add technical specifications: tools, languages, frameworks.\nUse precise technical terminology.\nAdd a \"Technical Skills\" section if missing.",
		"confident":    "Show ownership of outcomes.\nAvoid passive voice.\nQuantify achievements assertively.",
		"friendly":     "Use collaborative language: Partnered, Collaborated, Supported.\nInclude team achievements.\nWarm, approachable tone.",
	}
	body, ok := table[tone]
	if !ok {
		body = "Adjust tone as requested."
	}
	return fmt.Sprintf("\nTONE ADJUSTMENT (%s, intensity %d/5):\n%s\n", tone, intensity, body)
}

func focusInstructions(target, value string) string {
	table := map[string]string{
		"leadership":     "Emphasize management experience, team size, mentoring, strategy.\nAdd leadership-specific metrics.\nHighlight decision-making authority and budget responsibility.",
		"technical":      "Expand the technical skills section.\nAdd specific technologies, certifications, projects.\nShow implementation details, not just management.",
		"quantification": "Find and add metrics to every achievement.\nUse %, $, counts, and time reductions.\nAdd before/after comparisons where possible.",
		"projects":       "Add a \"Key Projects\" section.\nDescribe scope, technologies, outcomes.\nInclude portfolio projects if relevant.",
		"soft-skills":    "Surface communication, collaboration, and mentoring evidence.\nPair each soft skill with a concrete situation.",
		"market-region":  "Adapt spelling, terminology, and emphasis for the " + value + " market.",
		"role":           "Tailor content toward the role: " + value + ".\nReorder skills and achievements by relevance to it.",
		"industry":       "Tailor for the " + value + " industry: " + industryKeywords(value) + ".\nUse industry-specific metrics and terminology.",
	}
	body, ok := table[target]
	if !ok {
		body = "Focus on " + value + " as requested."
	}
	return fmt.Sprintf("\nFOCUS ADJUSTMENT (%s):\n%s\n", target, body)
}

func industryKeywords(industry string) string {
	table := map[string]string{
		"tech":       "scalability, agile, deployment, stack, architecture",
		"fintech":    "compliance, risk management, regulation, payments",
		"startup":    "MVP, lean, growth, scalability, funding",
		"corporate":  "governance, compliance, stakeholder management, enterprise",
		"consulting": "client deliverables, stakeholder management, strategy, implementation",
	}
	if kw, ok := table[industry]; ok {
		return kw
	}
	return "industry-specific terminology"
}

func structureInstructions(d models.Directive) string {
	switch d.Action {
	case "add-section":
		return fmt.Sprintf("\nSTRUCTURE: Add %q section\nCreate the new section titled %q.\nPopulate it with relevant content from existing experience.\nPlace it in the logical flow of the document.\n", d.Target, strings.ToUpper(d.Target))
	case "remove-section":
		return fmt.Sprintf("\nSTRUCTURE: Remove %q section\nRemove the section entirely and do not reference it elsewhere.\nMaintain the flow of the remaining sections.\n", d.Target)
	case "reorder":
		return "\nSTRUCTURE: Reorder sections\nPrioritize the most relevant sections first.\nTypical order: Contact, Summary, Skills, Experience, Education, Other.\n"
	case "page-limit":
		return fmt.Sprintf("\nSTRUCTURE: Limit to %d pages\nAdjust content density to fit.\nRemove the least relevant information and condense verbose sections.\n", d.PageLimit)
	case "simplify":
		return "\nSTRUCTURE: Simplify\nRemove redundant information.\nCombine similar bullet points.\nUse clearer, simpler language.\n"
	case "expand":
		return "\nSTRUCTURE: Expand\nAdd detail, context, and outcomes to each bullet point.\nAdd more metrics and examples.\n"
	default:
		return ""
	}
}

const quantifyInstructions = `
QUANTIFICATION: Add metrics to all achievements
For each bullet point, add at least one number:
- Percentage: Increased by 40%
- Amount: Saved $50k
- Time reduction: Reduced from 2 weeks to 3 days
- Volume: Managed 250+ clients
If exact numbers are unknown, use "approximately" or "over".
`

func formatInstructions(format string) string {
	table := map[string]string{
		"interview-points":     "Generate 3-5 bullet points for interview preparation.\nEach highlights a key achievement in STAR format.\nMake them conversational for verbal delivery.",
		"linkedin-post":        "Write a social post about the career journey.\nProfessional but personal.\nMention specific achievements and end with a call to action.",
		"elevator-pitch":       "Create a 30-45 second verbal summary.\nInclude 2-3 key achievements.\nEnd with what they are looking for next.",
		"cover-letter-bullets": "Generate 3-5 bullet points for a cover letter.\nShow how their skills solve the employer's problems.",
	}
	body, ok := table[format]
	if !ok {
		body = "Generate " + format + " content."
	}
	return fmt.Sprintf("\nFORMAT GENERATION (%s):\n%s\n", format, body)
}

const outputContract = `
OUTPUT FORMAT (JSON ONLY):
{
  "markup": "Full updated HTML document with ALL changes applied",
  "digital_summary": "Brief 1-2 sentence summary of the changes made",
  "derived_artifacts": {
    "interview_points": ["..."],
    "social_post": "...",
    "elevator_pitch": "...",
    "cover_letter_bullets": ["..."]
  },
  "change_log": ["List each major change applied"],
  "suggestions": ["2-3 suggestions for further improvement"]
}
`

const nonRegressionRules = `
QUALITY REQUIREMENTS:
1. NEVER use placeholders like [Phone Number] - use actual data or omit.
2. Maintain consistency - do not change unrelated sections.
3. Preserve all original information unless explicitly asked to remove it.
4. Use STAR format for achievements: Accomplished [X] as measured by [Y] by doing [Z].
5. Keep HTML clean and semantic - no markdown, proper closing tags.
`
