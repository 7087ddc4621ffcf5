package repair

import (
	"strings"
	"testing"
)

func TestRepairHeadingFusion(t *testing.T) {
	r := New()
	res := r.Repair("<h1>Jane Doe<h2>PROFILE</h2>")

	if !strings.Contains(res.InnerHTML, "<h1>Jane Doe</h1>") {
		t.Errorf("missing closed h1, got %q", res.InnerHTML)
	}
	if !strings.Contains(res.InnerHTML, "<h2>PROFILE</h2>") {
		t.Errorf("missing h2, got %q", res.InnerHTML)
	}
	if strings.Index(res.InnerHTML, "<h1>Jane Doe</h1>") > strings.Index(res.InnerHTML, "<h2>PROFILE</h2>") {
		t.Errorf("h1 should precede h2, got %q", res.InnerHTML)
	}
	if res.FixesApplied < 1 {
		t.Errorf("FixesApplied = %d, want >= 1", res.FixesApplied)
	}
}

func TestRepairTokenConcatenation(t *testing.T) {
	r := New()
	res := r.Repair("Junior Accountant and Financial Analyst##PROFESSIONAL PROFILE follows here")

	if strings.Contains(res.InnerHTML, "Analyst##PROFESSIONAL") {
		t.Errorf("concatenation not split, got %q", res.InnerHTML)
	}
	if !strings.Contains(res.InnerHTML, "</h2>\n<h2>PROFESSIONAL") {
		t.Errorf("expected closed heading boundary before PROFESSIONAL, got %q", res.InnerHTML)
	}
	if res.FixesApplied < 1 {
		t.Errorf("FixesApplied = %d, want >= 1", res.FixesApplied)
	}
}

func TestRepairListClosure(t *testing.T) {
	r := New()
	input := "<h2>SKILLS</h2><ul><li>Leadership</li><ul><li>Budgeting</li></ul>"
	res := r.Repair(input)

	if open, closed := strings.Count(res.InnerHTML, "<ul>"), strings.Count(res.InnerHTML, "</ul>"); open != closed {
		t.Errorf("ul tags unbalanced: %d open vs %d closed", open, closed)
	}
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "</ul>") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a warning about the added </ul>, got %v", res.Warnings)
	}
}

func TestRepairListItemFusion(t *testing.T) {
	r := New()
	long := strings.Repeat("reduced average handling time by fifteen percent ", 2)
	res := r.Repair("<ul><li>" + long + "<li>second item</li></ul>")

	if strings.Count(res.InnerHTML, "</li>") < 2 {
		t.Errorf("expected inserted </li>, got %q", res.InnerHTML)
	}
}

func TestRepairResidualMarkdown(t *testing.T) {
	r := New()
	res := r.Repair("# Jane Doe\n## EXPERIENCE\n### Call Centre Agent\nbody text")

	for _, want := range []string{"<h1>Jane Doe</h1>", "<h2>EXPERIENCE</h2>", "<h3>Call Centre Agent</h3>"} {
		if !strings.Contains(res.InnerHTML, want) {
			t.Errorf("missing %q in %q", want, res.InnerHTML)
		}
	}
}

func TestRepairGarbledRecovery(t *testing.T) {
	r := New()
	res := r.Repair("inancial Operations Specialist with an ACCA dvanced iploma and bnalyst experience")

	for _, want := range []string{"Financial", "Advanced", "Diploma", "Analyst"} {
		if !strings.Contains(res.InnerHTML, want) {
			t.Errorf("missing recovered word %q in %q", want, res.InnerHTML)
		}
	}
	if res.FixesApplied < 4 {
		t.Errorf("FixesApplied = %d, want >= 4", res.FixesApplied)
	}
}

func TestRepairLeavesValidWordsAlone(t *testing.T) {
	r := New()
	res := r.Repair("<p>Seasoned financial analyst covering cloud accounting workflows in depth today</p>")

	if !strings.Contains(res.InnerHTML, "financial analyst") {
		t.Errorf("valid lowercase words rewritten: %q", res.InnerHTML)
	}
}

func TestRepairMinimumStructure(t *testing.T) {
	r := New()
	input := "Results-driven professional with a decade of experience.\nLed teams across three regional markets and delivered growth."
	res := r.Repair(input)

	if !strings.Contains(res.InnerHTML, "<p>") {
		t.Errorf("expected paragraph wrapping, got %q", res.InnerHTML)
	}
}

func TestRepairTotality(t *testing.T) {
	r := New()
	inputs := []string{
		"",
		"   ",
		"\x00\x01\x02",
		strings.Repeat("\n", 500),
		"<<<<>>>>",
		"<ul><ol><li>",
	}
	for _, in := range inputs {
		res := r.Repair(in) // must not panic
		if res.HTML == "" {
			t.Errorf("Repair(%q) returned empty wrapped HTML", in)
		}
	}
}

func TestRepairIdempotence(t *testing.T) {
	r := New()
	inputs := []string{
		"<h1>Jane Doe<h2>PROFILE</h2>",
		"Junior Accountant and Financial Analyst##PROFESSIONAL PROFILE follows here",
		"# Jane Doe\n## EXPERIENCE\nbody",
		"<h2>SKILLS</h2><ul><li>Leadership</li>",
		"inancial Operations Specialist with an ACCA dvanced iploma and analyst experience",
		"plain text with no structure at all but quite a lot of words to wrap into paragraphs here",
	}
	for _, in := range inputs {
		first := r.Repair(in)
		second := r.Repair(first.InnerHTML)
		if second.InnerHTML != first.InnerHTML {
			t.Errorf("repair not idempotent for %q:\nfirst:  %q\nsecond: %q", in, first.InnerHTML, second.InnerHTML)
		}
	}
}

func TestRepairWrapping(t *testing.T) {
	r := New()
	res := r.Repair("<h1>Jane Doe</h1>")

	if !strings.HasPrefix(res.HTML, "<!DOCTYPE html>") {
		t.Errorf("wrapped HTML missing doctype")
	}
	if !strings.Contains(res.HTML, "veta-doc") {
		t.Errorf("wrapped HTML missing print container")
	}
	if !strings.Contains(res.HTML, res.InnerHTML) {
		t.Errorf("wrapped HTML does not embed inner markup")
	}
}

func TestWithCorrections(t *testing.T) {
	r := New(WithCorrections([]Correction{MustCorrection(`(?i)\bngineer\b`, "Engineer")}))
	res := r.Repair("<p>Senior Software ngineer with platform background</p>")

	if !strings.Contains(res.InnerHTML, "Engineer") {
		t.Errorf("extra correction not applied: %q", res.InnerHTML)
	}
}
