package repair

import "regexp"

// Correction is one targeted garbled-word pattern and its replacement. The
// table exists because the generative service occasionally truncates or
// mangles the first character of common CV nouns. It is best-effort and
// inherently incomplete; callers can extend it via WithCorrections.
type Correction struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// MustCorrection builds a Correction from a pattern string, panicking on a
// bad pattern. Intended for table literals and config-supplied entries
// validated at startup.
func MustCorrection(pattern, replacement string) Correction {
	return Correction{Pattern: regexp.MustCompile(pattern), Replacement: replacement}
}

// DefaultCorrections returns the built-in CV vocabulary correction table.
// Each pattern matches the stem with a dropped or mangled leading letter;
// matches already equal to the replacement are never rewritten.
func DefaultCorrections() []Correction {
	return []Correction{
		MustCorrection(`(?i)\b[a-z]?inancial\b`, "Financial"),
		MustCorrection(`(?i)\b[a-z]?perations\b`, "Operations"),
		MustCorrection(`(?i)\b[a-z]?ccounting\b`, "Accounting"),
		MustCorrection(`(?i)\b[a-z]?dvanced\b`, "Advanced"),
		MustCorrection(`(?i)\b[a-z]?iploma\b`, "Diploma"),
		MustCorrection(`(?i)\bmpecialist\b`, "Specialist"),
		MustCorrection(`(?i)\b[a-z]?nalyst\b`, "Analyst"),
		MustCorrection(`(?i)\boud\b`, "Cloud"),
		MustCorrection(`(?i)\b[a-z]?orkflows\b`, "Workflows"),
	}
}
