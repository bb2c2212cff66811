package filter

import "strings"

// ExtractObject returns the first complete JSON object found in text, or ""
// when none exists. The scan is balance-aware: braces inside string values
// do not terminate the object early.
func ExtractObject(text string) string {
	if start := strings.IndexByte(text, '{'); start >= 0 {
		return extractBalanced(text[start:], '{', '}')
	}
	return ""
}

// ExtractArray returns the first complete JSON array found in text, or "".
func ExtractArray(text string) string {
	if start := strings.IndexByte(text, '['); start >= 0 {
		return extractBalanced(text[start:], '[', ']')
	}
	return ""
}

// extractBalanced extracts the first span with balanced delimiters,
// tracking string literals and escape sequences.
func extractBalanced(input string, open, close rune) string {
	if len(input) == 0 {
		return ""
	}

	depth := 0
	inString := false
	escape := false
	start := 0

	for i, ch := range input {
		if escape {
			escape = false
			continue
		}

		if ch == '\\' {
			escape = true
			continue
		}

		if ch == '"' {
			inString = !inString
			continue
		}

		if inString {
			continue
		}

		if ch == open {
			if depth == 0 {
				start = i
			}
			depth++
		} else if ch == close {
			depth--
			if depth == 0 {
				return input[start : i+1]
			}
		}
	}

	return ""
}
