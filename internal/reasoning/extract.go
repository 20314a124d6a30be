package reasoning

import "strings"

// ExtractReasoning splits every <tag>...</tag> block out of text. It returns
// the remaining content and the concatenated reasoning. An unterminated
// block runs to the end of text.
func ExtractReasoning(text, tag string) (content, reasoning string) {
	if tag == "" {
		return text, ""
	}
	open, closing := "<"+tag+">", "</"+tag+">"

	var out, thoughts strings.Builder
	rest := text
	for {
		start := strings.Index(rest, open)
		if start < 0 {
			out.WriteString(rest)
			break
		}
		out.WriteString(rest[:start])
		rest = rest[start+len(open):]

		end := strings.Index(rest, closing)
		if end < 0 {
			appendThought(&thoughts, rest)
			break
		}
		appendThought(&thoughts, rest[:end])
		rest = rest[end+len(closing):]
	}

	return strings.TrimSpace(out.String()), thoughts.String()
}

func appendThought(b *strings.Builder, s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	if b.Len() > 0 {
		b.WriteString("\n\n")
	}
	b.WriteString(s)
}
