package normalize

import (
	"regexp"
	"strings"
)

var (
	codeFencePattern = regexp.MustCompile("(?i)```(?:json)?[ \t]*")
	citationPattern  = regexp.MustCompile(`\[\d+\]`)
)

// Clean убирает markdown-ограждения и маркеры цитирования вида [1].
func Clean(text string) string {
	cleaned := codeFencePattern.ReplaceAllString(text, "")
	cleaned = citationPattern.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

// ExtractObject возвращает жадный фрагмент от первой '{' до последней '}'.
func ExtractObject(text string) string {
	return greedySpan(Clean(text), '{', '}')
}

// ExtractArray возвращает жадный фрагмент от первой '[' до последней ']'.
func ExtractArray(text string) string {
	return greedySpan(Clean(text), '[', ']')
}

func greedySpan(text string, open, close byte) string {
	start := strings.IndexByte(text, open)
	end := strings.LastIndexByte(text, close)
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return text[start : end+1]
}

// balancedSpan возвращает первый сбалансированный фрагмент с учетом строк.
// Нужен, когда после JSON модель добавляет текст с фигурными скобками.
func balancedSpan(text string, open, close byte) string {
	start := strings.IndexByte(text, open)
	if start == -1 {
		return ""
	}

	depth := 0
	var quote byte
	for i := start; i < len(text); i++ {
		c := text[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}

		switch c {
		case '"', '\'':
			quote = c
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}

	return ""
}

func candidates(text string, open, close byte) []string {
	cleaned := Clean(text)
	out := make([]string, 0, 2)

	if greedy := greedySpan(cleaned, open, close); greedy != "" {
		out = append(out, greedy)
	}
	if balanced := balancedSpan(cleaned, open, close); balanced != "" && (len(out) == 0 || balanced != out[0]) {
		out = append(out, balanced)
	}

	return out
}
