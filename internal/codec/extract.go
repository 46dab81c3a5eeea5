package codec

import (
	"regexp"
	"strings"
)

var (
	fenceRe = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*\\n?(.*?)\\n?```")
	// First line that starts a TOML document: a table header or a key.
	tomlStartRe = regexp.MustCompile(`(?m)^\s*(\[\[?[\w."-]+\]?\]|[\w-]+\s*=)`)
)

// candidates returns the plausible structured payloads inside raw model
// output, most direct first: the trimmed text itself, the contents of any
// fenced code block, and the text from the first structured-looking line
// onward (tolerating leading prose).
func candidates(raw string) []string {
	out := []string{strings.TrimSpace(raw)}

	if m := fenceRe.FindStringSubmatch(raw); len(m) > 1 {
		out = append(out, strings.TrimSpace(m[1]))
	}

	if loc := tomlStartRe.FindStringIndex(raw); loc != nil && loc[0] > 0 {
		out = append(out, strings.TrimSpace(raw[loc[0]:]))
	}
	return out
}
