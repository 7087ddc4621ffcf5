// Package intent turns a free-text refinement request into structured
// directives using rule tables. Parsing is multi-label: a single utterance
// can yield several directives, and always yields at least one (a freeform
// directive carrying the raw text when nothing else matches).
package intent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Jamesybdp/VetaCV-AI/internal/models"
)

type tonePattern struct {
	re        *regexp.Regexp
	value     string
	intensity int
}

type focusPattern struct {
	re     *regexp.Regexp
	target string
}

type structurePattern struct {
	re     *regexp.Regexp
	action string
}

type formatPattern struct {
	re     *regexp.Regexp
	format string
}

// Parser holds the compiled rule tables. Safe for concurrent use.
type Parser struct {
	tones      []tonePattern
	focuses    []focusPattern
	structures []structurePattern
	formats    []formatPattern
	quantify   *regexp.Regexp
	industry   *regexp.Regexp
}

// NewParser compiles the default rule tables.
func NewParser() *Parser {
	return &Parser{
		tones: []tonePattern{
			{regexp.MustCompile(`more aggressive|punchier|hard-hitting|bold`), "aggressive", 4},
			{regexp.MustCompile(`more professional|formal|corporate`), "professional", 3},
			{regexp.MustCompile(`more concise|shorter|brief|tighten`), "concise", 4},
			{regexp.MustCompile(`more technical|technical depth|add tech`), "technical", 4},
			{regexp.MustCompile(`more confident|assertive|authoritative`), "confident", 3},
			{regexp.MustCompile(`more friendly|approachable|warm`), "friendly", 2},
		},
		focuses: []focusPattern{
			{regexp.MustCompile(`focus on (leadership|management)`), "leadership"},
			{regexp.MustCompile(`emphasize (technical|tech skills)`), "technical"},
			{regexp.MustCompile(`highlight (quantifiable|metrics|numbers|data)`), "quantification"},
			{regexp.MustCompile(`show (projects|portfolio work)`), "projects"},
			{regexp.MustCompile(`prioritize (soft skills|communication)`), "soft-skills"},
			{regexp.MustCompile(`target (us|uk|european|global)`), "market-region"},
		},
		structures: []structurePattern{
			{regexp.MustCompile(`add (.*?) section`), "add-section"},
			{regexp.MustCompile(`remove (.*?) section`), "remove-section"},
			{regexp.MustCompile(`reorder|rearrange`), "reorder"},
			{regexp.MustCompile(`make it (\d+) pages?`), "page-limit"},
			{regexp.MustCompile(`simplify|streamline`), "simplify"},
			{regexp.MustCompile(`expand|elaborate|add detail`), "expand"},
		},
		formats: []formatPattern{
			{regexp.MustCompile(`interview (points|prep|questions)`), "interview-points"},
			{regexp.MustCompile(`linkedin (post|update|article)`), "linkedin-post"},
			{regexp.MustCompile(`elevator (pitch|summary)`), "elevator-pitch"},
			{regexp.MustCompile(`cover letter (bullet|points)`), "cover-letter-bullets"},
		},
		quantify: regexp.MustCompile(`add (more )?numbers|quantify|add metrics|add data`),
		industry: regexp.MustCompile(`for (tech|fintech|startup|corporate|consulting)`),
	}
}

// Parse derives all directives present in the utterance, then folds in the
// ambient context. The result is never empty.
func (p *Parser) Parse(utterance string, ctx models.RefinementContext) []models.Directive {
	lower := strings.ToLower(utterance)
	var out []models.Directive

	for _, t := range p.tones {
		if t.re.MatchString(lower) {
			out = append(out, models.Directive{
				Kind:      models.DirectiveTone,
				Priority:  models.PriorityHigh,
				Value:     t.value,
				Intensity: t.intensity,
			})
		}
	}

	for _, f := range p.focuses {
		if m := f.re.FindStringSubmatch(lower); m != nil {
			out = append(out, models.Directive{
				Kind:     models.DirectiveFocus,
				Priority: models.PriorityHigh,
				Target:   f.target,
				Value:    m[1],
			})
		}
	}

	for _, s := range p.structures {
		m := s.re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		d := models.Directive{
			Kind:     models.DirectiveStructure,
			Priority: models.PriorityMedium,
			Action:   s.action,
		}
		switch s.action {
		case "add-section", "remove-section":
			d.Target = strings.TrimSpace(m[1])
		case "page-limit":
			d.PageLimit, _ = strconv.Atoi(m[1])
		}
		out = append(out, d)
	}

	if p.quantify.MatchString(lower) {
		out = append(out, models.Directive{
			Kind:      models.DirectiveQuantify,
			Priority:  models.PriorityHigh,
			Intensity: 5,
		})
	}

	for _, f := range p.formats {
		if f.re.MatchString(lower) {
			out = append(out, models.Directive{
				Kind:     models.DirectiveFormat,
				Priority: models.PriorityMedium,
				Value:    f.format,
			})
		}
	}

	if m := p.industry.FindStringSubmatch(lower); m != nil {
		out = append(out, models.Directive{
			Kind:     models.DirectiveFocus,
			Priority: models.PriorityHigh,
			Target:   "industry",
			Value:    m[1],
		})
	}

	// Total coverage: an unmatched request still reaches the generator
	// verbatim instead of being dropped.
	if len(out) == 0 {
		out = append(out, models.Directive{
			Kind:      models.DirectiveFreeform,
			Priority:  models.PriorityMedium,
			Utterance: utterance,
		})
	}

	if ctx.TargetRole != "" {
		out = append(out, models.Directive{
			Kind:     models.DirectiveFocus,
			Priority: models.PriorityHigh,
			Target:   "role",
			Value:    ctx.TargetRole,
		})
	}
	if ctx.TargetIndustry != "" {
		out = append(out, models.Directive{
			Kind:     models.DirectiveFocus,
			Priority: models.PriorityHigh,
			Target:   "industry",
			Value:    ctx.TargetIndustry,
		})
	}

	return out
}
