package normalize

import (
	"strings"

	"github.com/saikuru0/oshatori/domain"
)

// maxTagDepth bounds markup recursion. Content nested deeper is flattened to
// literal text so adversarial input cannot recurse unboundedly.
const maxTagDepth = 8

// BBCode parses backend markup into an ordered fragment sequence. Recognized
// tags (img/image, video, audio, url) become media/link fragments; unknown or
// malformed tags degrade to the literal text they wrap. The parse never
// fails.
func BBCode(input string) []domain.Fragment {
	return nodesToFragments(parseNodes(input, 0))
}

// node is one parsed markup element: either raw text or a tag with children.
type node struct {
	raw      string
	tag      string
	val      string
	children []node
}

func (n node) isRaw() bool { return n.tag == "" }

func parseNodes(input string, depth int) []node {
	if depth >= maxTagDepth {
		if input == "" {
			return nil
		}
		return []node{{raw: input}}
	}

	var nodes []node
	var plain strings.Builder

	flush := func() {
		if plain.Len() > 0 {
			nodes = append(nodes, node{raw: plain.String()})
			plain.Reset()
		}
	}

	i := 0
	for i < len(input) {
		if input[i] != '[' {
			plain.WriteByte(input[i])
			i++
			continue
		}

		name, val, bodyStart, ok := parseOpenTag(input[i:])
		if !ok {
			plain.WriteByte('[')
			i++
			continue
		}

		end := findCloseTag(input, i+bodyStart, name)
		if end < 0 {
			// Unclosed tag: keep the bracket literal.
			plain.WriteByte('[')
			i++
			continue
		}

		flush()
		body := input[i+bodyStart : end]
		nodes = append(nodes, node{
			tag:      strings.ToLower(name),
			val:      val,
			children: parseNodes(body, depth+1),
		})
		i = end + len(name) + 3 // "[/" + name + "]"
	}
	flush()
	return nodes
}

// parseOpenTag reads "[name]" or "[name=value]" at the start of s. Returns
// the tag name, optional value and the offset of the tag body.
func parseOpenTag(s string) (name, val string, bodyStart int, ok bool) {
	close := strings.IndexByte(s, ']')
	if close < 2 {
		return "", "", 0, false
	}
	inner := s[1:close]
	if inner == "" || inner[0] == '/' {
		return "", "", 0, false
	}
	if eq := strings.IndexByte(inner, '='); eq >= 0 {
		name, val = inner[:eq], inner[eq+1:]
	} else {
		name = inner
	}
	if name == "" || strings.ContainsAny(name, "[] \t\n") {
		return "", "", 0, false
	}
	return name, val, close + 1, true
}

// findCloseTag locates the matching "[/name]" for a tag whose body starts at
// from, skipping over nested tags of the same name. Returns -1 when the tag
// is never closed.
func findCloseTag(input string, from int, name string) int {
	open := "[" + strings.ToLower(name)
	closing := "[/" + strings.ToLower(name) + "]"
	depth := 0
	lower := strings.ToLower(input)

	for i := from; i < len(lower); {
		idx := strings.IndexByte(lower[i:], '[')
		if idx < 0 {
			return -1
		}
		i += idx
		if strings.HasPrefix(lower[i:], closing) {
			if depth == 0 {
				return i
			}
			depth--
			i += len(closing)
			continue
		}
		if strings.HasPrefix(lower[i:], open) {
			rest := lower[i+len(open):]
			if len(rest) > 0 && (rest[0] == ']' || rest[0] == '=') {
				depth++
			}
		}
		i++
	}
	return -1
}

func nodesToFragments(nodes []node) []domain.Fragment {
	var out []domain.Fragment
	for _, n := range nodes {
		if n.isRaw() {
			if n.raw != "" {
				out = append(out, domain.TextFragment{Text: n.raw})
			}
			continue
		}

		switch n.tag {
		case "img", "image":
			if url, ok := soleRaw(n.children); ok {
				url = absolutize(url)
				out = append(out, domain.ImageFragment{URL: url, MIME: mimeFromExtension(url)})
			} else {
				out = append(out, nodesToFragments(n.children)...)
			}
		case "video":
			if url, ok := soleRaw(n.children); ok {
				url = absolutize(url)
				out = append(out, domain.VideoFragment{URL: url, MIME: mimeFromExtension(url)})
			} else {
				out = append(out, nodesToFragments(n.children)...)
			}
		case "audio":
			if url, ok := soleRaw(n.children); ok {
				url = absolutize(url)
				out = append(out, domain.AudioFragment{URL: url, MIME: mimeFromExtension(url)})
			} else {
				out = append(out, nodesToFragments(n.children)...)
			}
		case "url":
			href := n.val
			if href == "" {
				href, _ = soleRaw(n.children)
			}
			if href != "" {
				out = append(out, domain.URLFragment{URL: absolutize(href)})
			} else {
				out = append(out, nodesToFragments(n.children)...)
			}
		default:
			// Unrecognized tag: keep the wrapped content.
			out = append(out, nodesToFragments(n.children)...)
		}
	}
	return out
}

// soleRaw returns the text of a tag body consisting of exactly one raw node.
func soleRaw(nodes []node) (string, bool) {
	if len(nodes) == 1 && nodes[0].isRaw() {
		return nodes[0].raw, true
	}
	return "", false
}

// absolutize upgrades protocol-relative URLs to https.
func absolutize(url string) string {
	if strings.HasPrefix(url, "//") {
		return "https:" + url
	}
	return url
}

func mimeFromExtension(url string) string {
	ext := ""
	if dot := strings.LastIndexByte(url, '.'); dot >= 0 {
		ext = strings.ToLower(url[dot+1:])
	}
	switch ext {
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "mp4":
		return "video/mp4"
	case "webm":
		return "video/webm"
	case "ogv":
		return "video/ogg"
	case "mp3":
		return "audio/mpeg"
	case "wav":
		return "audio/wav"
	case "flac":
		return "audio/flac"
	case "oga", "ogg":
		return "audio/ogg"
	}
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return "application/octet-stream"
	}
	return "text/plain"
}
