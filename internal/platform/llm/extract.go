package llm

import "strings"

// ExtractJSONObject returns the first balanced {...} object in text.
// Braces inside string literals are skipped, with backslash escapes honoured,
// so prose before or after the object (and markdown fences) is tolerated.
func ExtractJSONObject(text string) (string, bool) {
	candidates := JSONObjectCandidates(text)
	if len(candidates) == 0 {
		return "", false
	}
	return candidates[0], true
}

// JSONObjectCandidates returns every balanced {...} span in text, in order of
// their opening brace. Spans are not validated as JSON.
func JSONObjectCandidates(text string) []string {
	var out []string
	start := strings.IndexByte(text, '{')
	for start >= 0 {
		if end, ok := scanObject(text, start); ok {
			out = append(out, text[start:end+1])
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return out
}

// scanObject returns the index of the brace closing the object at start.
func scanObject(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
