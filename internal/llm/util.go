package llm

import "strings"

// CleanJSONBlock removes markdown code block wrappers from a reply.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	// Skip a language identifier on the first line
	if idx := strings.Index(text, "\n"); idx >= 0 {
		first := text[:idx]
		if len(first) < 20 && !strings.ContainsAny(first, " {[") {
			text = text[idx+1:]
		}
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

// ExtractJSON returns the first balanced JSON object or array in a reply,
// dropping code fences, preamble and trailing chatter. Text without one is
// returned cleaned but otherwise unchanged so the caller's decoder reports it.
func ExtractJSON(text string) string {
	text = CleanJSONBlock(text)
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return text
	}
	if end := balancedEnd(text[start:]); end > 0 {
		return text[start : start+end]
	}
	return text
}

// balancedEnd returns the length of the bracketed value at the start of s,
// or 0 when it never closes.
func balancedEnd(s string) int {
	depth := 0
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return 0
}
