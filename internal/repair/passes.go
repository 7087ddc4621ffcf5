package repair

import (
	"regexp"
	"strings"
)

// headingFusionFixes repairs a closing-tag-less heading immediately followed
// by a new block tag. Covers h1→h2, h1→p, h2→h3, h2→p, h2→ul, h3→p.
var headingFusionFixes = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`<h1>([^<]+)<h2>`), "<h1>${1}</h1>\n<h2>"},
	{regexp.MustCompile(`<h1>([^<]+)<p>`), "<h1>${1}</h1>\n<p>"},
	{regexp.MustCompile(`<h2>([^<]+)<h3>`), "<h2>${1}</h2>\n<h3>"},
	{regexp.MustCompile(`<h2>([^<]+)<p>`), "<h2>${1}</h2>\n<p>"},
	{regexp.MustCompile(`<h2>([^<]+)<ul>`), "<h2>${1}</h2>\n<ul>"},
	{regexp.MustCompile(`<h3>([^<]+)<p>`), "<h3>${1}</h3>\n<p>"},
}

func fixHeadingFusion(html string, rep *report) string {
	for _, f := range headingFusionFixes {
		if n := len(f.re.FindAllString(html, -1)); n > 0 {
			rep.fixes += n
			html = f.re.ReplaceAllString(html, f.repl)
		}
	}
	return html
}

// concatPattern is the signature of markdown-header leakage fused onto the
// prior sentence: word characters, two-or-more '#', then a capitalized word.
var concatPattern = regexp.MustCompile(`([a-zA-Z0-9\s&]+)(#{2,})([A-Z][a-zA-Z\s]+)`)

func fixTokenConcatenation(html string, rep *report) string {
	if n := len(concatPattern.FindAllString(html, -1)); n > 0 {
		rep.fixes += n
		html = concatPattern.ReplaceAllString(html, "${1}</h2>\n<h2>${3}")
	}
	return html
}

// listItemFusion: a long inline run inside a list item directly followed by
// another <li> with no intervening close.
var listItemFusionPattern = regexp.MustCompile(`<li>([^<]{50,})<li>`)

func fixListItemFusion(html string, rep *report) string {
	if n := len(listItemFusionPattern.FindAllString(html, -1)); n > 0 {
		rep.fixes += n
		html = listItemFusionPattern.ReplaceAllString(html, "<li>${1}</li>\n<li>")
	}
	return html
}

func fixListClosure(html string, rep *report) string {
	for _, tag := range []string{"ul", "ol"} {
		open := strings.Count(html, "<"+tag+">")
		closed := strings.Count(html, "</"+tag+">")
		for i := closed; i < open; i++ {
			html += "</" + tag + ">"
			rep.fixes++
			rep.warnf("added missing </%s> tag", tag)
		}
	}
	return html
}

var (
	excessNewlines = regexp.MustCompile(`\n{3,}`)
	// Tag-boundary trimming removes spaces and tabs only. Newlines are kept
	// so line-anchored passes and repeated repair runs see the same text.
	spaceBeforeTag   = regexp.MustCompile(`[ \t]+<`)
	spaceAfterTag    = regexp.MustCompile(`>[ \t]+`)
	adjacentHeadings = regexp.MustCompile(`(</h[1-6]>)(<h[1-6]>)`)
)

func normalizeWhitespace(html string, rep *report) string {
	html = excessNewlines.ReplaceAllString(html, "\n\n")
	html = spaceBeforeTag.ReplaceAllString(html, "<")
	html = spaceAfterTag.ReplaceAllString(html, ">")
	if n := len(adjacentHeadings.FindAllString(html, -1)); n > 0 {
		rep.fixes += n
		html = adjacentHeadings.ReplaceAllString(html, "${1}\n${2}")
	}
	return html
}

// residualMarkdown converts markdown headers that survived tag generation.
var residualMarkdown = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`(?m)^#\s+(.+)$`), "<h1>${1}</h1>"},
	{regexp.MustCompile(`(?m)^##\s+(.+)$`), "<h2>${1}</h2>"},
	{regexp.MustCompile(`(?m)^###\s+(.+)$`), "<h3>${1}</h3>"},
}

func convertResidualMarkdown(html string, rep *report) string {
	for _, f := range residualMarkdown {
		if n := len(f.re.FindAllString(html, -1)); n > 0 {
			rep.fixes += n
			html = f.re.ReplaceAllString(html, f.repl)
		}
	}
	return html
}

// recoverGarbledWords applies the correction table. Matches that already
// equal the replacement (ignoring case) are left alone, so valid words never
// get rewritten and the pass is a fixpoint after one application.
func (r *Repairer) recoverGarbledWords(html string, rep *report) string {
	changed := 0
	for _, c := range r.corrections {
		html = c.Pattern.ReplaceAllStringFunc(html, func(m string) string {
			if strings.EqualFold(m, c.Replacement) {
				return m
			}
			changed++
			return c.Replacement
		})
	}
	if changed > 0 {
		rep.fixes += changed
		rep.warnf("garbled text detected - applied %d corrections", changed)
	}
	return html
}

// ensureMinimumStructure guarantees the renderer always receives at least
// paragraph-level structure when no heading or paragraph tag survived.
func ensureMinimumStructure(html string, rep *report) string {
	if strings.Contains(html, "<h") || strings.Contains(html, "<p") {
		return html
	}
	if len(html) <= 100 {
		return html
	}
	rep.warnf("adding minimal paragraph structure")
	rep.fixes++
	var b strings.Builder
	for _, line := range strings.Split(html, "\n") {
		line = strings.TrimSpace(line)
		if len(line) <= 10 {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("<p>" + line + "</p>")
	}
	return b.String()
}
