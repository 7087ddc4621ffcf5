package models

// DirectiveKind identifies the category of a refinement directive.
type DirectiveKind string

const (
	DirectiveTone      DirectiveKind = "tone"
	DirectiveFocus     DirectiveKind = "focus"
	DirectiveStructure DirectiveKind = "structure"
	DirectiveQuantify  DirectiveKind = "quantify"
	DirectiveFormat    DirectiveKind = "formatRequest"
	DirectiveFreeform  DirectiveKind = "freeform"
)

// Priority orders directives inside the compiled prompt. No directive is ever
// dropped on priority grounds.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
)

// String returns the priority label used in prompts and JSON.
func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	default:
		return "low"
	}
}

// Directive is one structured instruction derived from a free-text utterance.
// Only the fields relevant to Kind are set.
type Directive struct {
	Kind     DirectiveKind `json:"kind"`
	Priority Priority      `json:"priority"`

	// Tone: Value is the tone name, Intensity is 1..5 prompt emphasis.
	Value     string `json:"value,omitempty"`
	Intensity int    `json:"intensity,omitempty"`

	// Focus and structure: Target names the theme, section, or action object.
	Target string `json:"target,omitempty"`

	// Structure: Action is one of add-section, remove-section, reorder,
	// page-limit, simplify, expand. PageLimit is set for page-limit only.
	Action    string `json:"action,omitempty"`
	PageLimit int    `json:"page_limit,omitempty"`

	// Freeform: Utterance carries the raw user request verbatim.
	Utterance string `json:"utterance,omitempty"`
}

// RefinementContext carries ambient targeting folded into parsed directives
// even when not mentioned in the utterance.
type RefinementContext struct {
	TargetRole     string `json:"target_role,omitempty"`
	TargetIndustry string `json:"target_industry,omitempty"`
}

// CareerGoals describes the target the initial document is generated against.
type CareerGoals struct {
	TargetRole       string `json:"target_role"`
	Industry         string `json:"industry,omitempty"`
	JobDescription   string `json:"job_description"`
	RecipientContext string `json:"recipient_context,omitempty"`
	LocationPref     string `json:"location_preference,omitempty"`
}

// DerivedArtifacts are optional extra outputs a refinement may request:
// they are additional artifacts, not edits to the primary document.
type DerivedArtifacts struct {
	InterviewPoints    []string `json:"interview_points,omitempty"`
	SocialPost         string   `json:"social_post,omitempty"`
	ElevatorPitch      string   `json:"elevator_pitch,omitempty"`
	CoverLetterBullets []string `json:"cover_letter_bullets,omitempty"`
}

// RefinementResult is the validated shape of a generative refinement response.
// Markup and DigitalSummary are required; everything else is optional.
type RefinementResult struct {
	Markup           string            `json:"markup"`
	DigitalSummary   string            `json:"digital_summary"`
	DerivedArtifacts *DerivedArtifacts `json:"derived_artifacts,omitempty"`
	ChangeLog        []string          `json:"change_log,omitempty"`
	Suggestions      []string          `json:"suggestions,omitempty"`
}
