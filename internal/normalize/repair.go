package normalize

import "strings"

// Repair исправляет типичные ошибки JSON от модели: висячие запятые перед
// закрывающей скобкой, ключи без кавычек, строки в одинарных кавычках и
// переводы строк или табуляции внутри значений.
func Repair(payload string) string {
	var b strings.Builder
	b.Grow(len(payload) + 16)

	var prev byte
	for i := 0; i < len(payload); i++ {
		c := payload[i]

		switch {
		case c == '"':
			end := writeDoubleQuoted(&b, payload, i)
			i = end
			prev = '"'
		case c == '\'':
			end := writeSingleQuoted(&b, payload, i)
			i = end
			prev = '"'
		case c == ',':
			next := nextSignificant(payload, i+1)
			if next < len(payload) && (payload[next] == '}' || payload[next] == ']') {
				continue
			}
			b.WriteByte(c)
			prev = c
		case isIdentStart(c) && (prev == '{' || prev == ','):
			end := identEnd(payload, i)
			ident := payload[i:end]
			next := nextSignificant(payload, end)
			if next < len(payload) && payload[next] == ':' {
				b.WriteByte('"')
				b.WriteString(ident)
				b.WriteByte('"')
			} else {
				b.WriteString(ident)
			}
			i = end - 1
			prev = 'a'
		case c == '\n' || c == '\r' || c == '\t':
			b.WriteByte(' ')
		default:
			b.WriteByte(c)
			if c != ' ' {
				prev = c
			}
		}
	}

	return b.String()
}

func writeDoubleQuoted(b *strings.Builder, s string, start int) int {
	b.WriteByte('"')
	for i := start + 1; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			b.WriteByte(c)
			if i+1 < len(s) {
				i++
				b.WriteByte(s[i])
			}
		case '"':
			b.WriteByte(c)
			return i
		case '\n', '\r', '\t':
			b.WriteByte(' ')
		default:
			b.WriteByte(c)
		}
	}
	return len(s)
}

func writeSingleQuoted(b *strings.Builder, s string, start int) int {
	b.WriteByte('"')
	for i := start + 1; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			if i+1 < len(s) && s[i+1] == '\'' {
				i++
				b.WriteByte('\'')
				continue
			}
			b.WriteByte(c)
			if i+1 < len(s) {
				i++
				b.WriteByte(s[i])
			}
		case '"':
			b.WriteString(`\"`)
		case '\'':
			b.WriteByte('"')
			return i
		case '\n', '\r', '\t':
			b.WriteByte(' ')
		default:
			b.WriteByte(c)
		}
	}
	return len(s)
}

func nextSignificant(s string, from int) int {
	for i := from; i < len(s); i++ {
		switch s[i] {
		case ' ', '\n', '\r', '\t':
			continue
		default:
			return i
		}
	}
	return len(s)
}

func identEnd(s string, from int) int {
	i := from
	for i < len(s) && isIdentPart(s[i]) {
		i++
	}
	return i
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
