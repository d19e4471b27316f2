package annotation

import "unicode"

// span marks one comma separated item; eq is the offset of its first top
// level '=' or -1.
type span struct {
	start int
	end   int
	eq    int
}

// splitItems splits text on commas that are outside quotes and brackets.
// Empty items are dropped, so trailing commas are accepted.
func splitItems(text string) []span {
	var (
		spans []span
		depth int
		quote byte
		start int
		eq    = -1
	)

	flush := func(end int) {
		if s, e := trimSpan(text, start, end); s < e {
			spans = append(spans, span{start: start, end: end, eq: eq})
		}
		start = end + 1
		eq = -1
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		if quote != 0 {
			switch {
			case c == '\\' && quote == '"':
				i++
			case c == quote:
				quote = 0
			}
			continue
		}

		switch c {
		case '"', '`':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		case '=':
			if depth == 0 && eq < 0 {
				eq = i
			}
		case ',':
			if depth == 0 {
				flush(i)
			}
		}
	}
	flush(len(text))
	return spans
}

func trimSpan(text string, start, end int) (int, int) {
	for start < end && unicode.IsSpace(rune(text[start])) {
		start++
	}
	for end > start && unicode.IsSpace(rune(text[end-1])) {
		end--
	}
	return start, end
}
