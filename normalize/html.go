// Package normalize converts protocol-native text encodings — markup tags,
// packed color values, HTML-escaped text, inline asset patterns — into the
// canonical fragment model. Every converter degrades gracefully: malformed
// input yields literal text, never an error.
package normalize

import "regexp"

// escapePattern matches the HTML entities sock-style backends emit plus
// whitespace-delimited line-break markers.
var escapePattern = regexp.MustCompile(`&lt;|&gt;|&amp;|\s<br/?>\s`)

// HTML decodes &lt; &gt; &amp; entities and collapses whitespace-delimited
// <br/> markers into a single newline. Run this before markup parsing so
// markup tags are not themselves mangled by entity decoding.
func HTML(s string) string {
	return escapePattern.ReplaceAllStringFunc(s, func(m string) string {
		switch m {
		case "&lt;":
			return "<"
		case "&gt;":
			return ">"
		case "&amp;":
			return "&"
		default:
			return "\n"
		}
	})
}
