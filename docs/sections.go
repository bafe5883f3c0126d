package docs

import "strings"

// Sections returns the slugs of the reference's "## " headings in
// document order.
func Sections() []string {
	var out []string
	for _, heading := range headings() {
		out = append(out, slug(heading))
	}
	return out
}

// Section returns the text of one reference section, heading included.
// The topic matches a heading slug, case insensitively; "bitmaps" and
// "Bitmaps" both find "## Bitmaps".
func Section(topic string) (string, bool) {
	want := slug(topic)
	lines := strings.Split(LangGuide, "\n")
	start := -1
	for i, line := range lines {
		heading, ok := strings.CutPrefix(line, "## ")
		if !ok {
			continue
		}
		if start >= 0 {
			return strings.Join(lines[start:i], "\n") + "\n", true
		}
		if slug(heading) == want {
			start = i
		}
	}
	if start >= 0 {
		return strings.Join(lines[start:], "\n"), true
	}
	return "", false
}

func headings() []string {
	var out []string
	for _, line := range strings.Split(LangGuide, "\n") {
		if heading, ok := strings.CutPrefix(line, "## "); ok {
			out = append(out, heading)
		}
	}
	return out
}

// slug normalizes a heading or topic for lookup: lowercase with
// hyphens for spaces, so "Pass by value" and "pass-by-value" agree.
func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, " ", "-")
}
