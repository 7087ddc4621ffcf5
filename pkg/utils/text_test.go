package utils

import "testing"

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"shorter than limit", "hello", 10, "hello"},
		{"exactly at limit", "hello", 5, "hello"},
		{"truncated", "hello world", 5, "hello..."},
		{"zero limit returns unchanged", "hello", 0, "hello"},
		{"negative limit returns unchanged", "hello", -1, "hello"},
		{"empty string", "", 5, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestStripTags(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text unchanged", "just text", "just text"},
		{"tags removed", "<h1>Jane Doe</h1><p>Engineer</p>", "Jane Doe Engineer"},
		{"adjacent tags", "before<h2>after", "before after"},
		{"whitespace collapsed", "<p>a</p>\n\n<p>b</p>", "a b"},
		{"empty input", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripTags(tt.input); got != tt.want {
				t.Errorf("StripTags(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFirstNonEmptyLine(t *testing.T) {
	if got := FirstNonEmptyLine("\n\n  first line  \nsecond"); got != "first line" {
		t.Errorf("FirstNonEmptyLine = %q, want %q", got, "first line")
	}
	if got := FirstNonEmptyLine("\n   \n"); got != "" {
		t.Errorf("FirstNonEmptyLine on blank input = %q, want empty", got)
	}
}
