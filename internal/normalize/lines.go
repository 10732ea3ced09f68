package normalize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	minLineLen  = 10
	maxLineLen  = 500
	longLineLen = 20
)

var (
	listMarkerPattern = regexp.MustCompile(`^(?:["•*\-]+|\d+[.)])\s*`)
	trailingPattern   = regexp.MustCompile(`["\s]*,?\s*["]*$`)
)

// Lines выбирает до n фактов из текста построчно: строки-пункты списка
// или достаточно длинные строки, очищенные от маркеров и цитат.
func Lines(text string, n int) []string {
	facts := make([]string, 0, n)

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "```") {
			continue
		}
		if !looksLikeItem(line) && utf8.RuneCountInString(line) <= longLineLen {
			continue
		}

		line = listMarkerPattern.ReplaceAllString(line, "")
		line = citationPattern.ReplaceAllString(line, "")
		line = trailingPattern.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)

		length := utf8.RuneCountInString(line)
		if length <= minLineLen || length >= maxLineLen {
			continue
		}

		facts = append(facts, line)
		if n > 0 && len(facts) == n {
			break
		}
	}

	return facts
}

func looksLikeItem(line string) bool {
	switch c := line[0]; {
	case c == '"' || c == '-' || c == '*':
		return true
	case c >= '0' && c <= '9':
		return true
	}
	return strings.HasPrefix(line, "•")
}
