package lang

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

const tabSize = 8

// ErrInvalidEscape reports a \x, \u or \U escape without enough hex digits,
// or one naming an invalid code point.
var ErrInvalidEscape = errors.New("truncated or invalid escape")

// literal is a string literal split into its lowercased prefix and the text
// between its quotes.
type literal struct {
	prefix string
	body   string
}

func splitLiteral(lit string) (literal, bool) {
	i := 0
	for i < len(lit) && strings.IndexByte("rRuUbBfFtT", lit[i]) >= 0 {
		i++
	}
	prefix := strings.ToLower(lit[:i])

	rest := lit[i:]
	if len(rest) < 2 || (rest[0] != '"' && rest[0] != '\'') {
		return literal{}, false
	}
	quote := rest[:1]
	triple := strings.Repeat(quote, 3)

	switch {
	case len(rest) >= 6 && strings.HasPrefix(rest, triple) && strings.HasSuffix(rest, triple):
		return literal{prefix: prefix, body: rest[3 : len(rest)-3]}, true
	case strings.HasSuffix(rest, quote):
		return literal{prefix: prefix, body: rest[1 : len(rest)-1]}, true
	}
	return literal{}, false
}

func (l literal) has(flag string) bool { return strings.Contains(l.prefix, flag) }

// DecodeStringLiteral returns the value of a Python string literal, given its
// full source text including prefix and quotes. ok is false for bytes
// literals, f-strings, t-strings, literals with invalid escapes and anything
// that is not a string literal.
func DecodeStringLiteral(lit string) (value string, ok bool) {
	l, ok := splitLiteral(lit)
	if !ok || strings.ContainsAny(l.prefix, "bft") {
		return "", false
	}
	if l.has("r") {
		return l.body, true
	}
	value, err := unescape(l.body, false)
	if err != nil {
		return "", false
	}
	return value, true
}

// CheckEscapes returns an error wrapping ErrInvalidEscape when a non-raw
// literal holds an escape the Python tokenizer rejects. Bytes literals only
// know \x; f-string bodies are not checked.
func CheckEscapes(lit string) error {
	l, ok := splitLiteral(lit)
	if !ok || l.has("r") || l.has("f") || l.has("t") {
		return nil
	}
	_, err := unescape(l.body, l.has("b"))
	return err
}

func unescape(s string, bytesLit bool) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch e := s[i]; e {
		case '\n':
		case '\\', '\'', '"':
			b.WriteByte(e)
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'v':
			b.WriteByte('\v')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			n, _ := strconv.ParseUint(s[i:j], 8, 32)
			b.WriteRune(rune(n))
			i = j - 1
		case 'x', 'u', 'U':
			if e != 'x' && bytesLit {
				b.WriteByte('\\')
				b.WriteByte(e)
				continue
			}
			width := 2
			switch e {
			case 'u':
				width = 4
			case 'U':
				width = 8
			}
			if i+1+width > len(s) {
				return "", fmt.Errorf(`%w: \%c`, ErrInvalidEscape, e)
			}
			digits := s[i+1 : i+1+width]
			n, err := strconv.ParseUint(digits, 16, 32)
			if err != nil || !utf8.ValidRune(rune(n)) {
				return "", fmt.Errorf(`%w: \%c%s`, ErrInvalidEscape, e, digits)
			}
			b.WriteRune(rune(n))
			i += width
		default:
			// Unknown escapes, including \N{...}, are kept verbatim.
			b.WriteByte('\\')
			b.WriteByte(e)
		}
	}
	return b.String(), nil
}

// CleanDoc normalizes docstring indentation the way inspect.cleandoc does:
// tabs are expanded, the first line is left-trimmed, the common indentation
// of the remaining lines is removed, and leading and trailing blank lines
// are dropped.
func CleanDoc(doc string) string {
	lines := strings.Split(expandTabs(doc), "\n")

	margin := -1
	for _, line := range lines[1:] {
		content := len(strings.TrimLeft(line, " "))
		if content == 0 {
			continue
		}
		if indent := len(line) - content; margin < 0 || indent < margin {
			margin = indent
		}
	}

	lines[0] = strings.TrimLeft(lines[0], " ")
	if margin > 0 {
		for i := 1; i < len(lines); i++ {
			if len(lines[i]) > margin {
				lines[i] = lines[i][margin:]
			} else {
				lines[i] = ""
			}
		}
	}

	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	return strings.Join(lines, "\n")
}

func expandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	var b strings.Builder
	col := 0
	for _, r := range s {
		switch r {
		case '\t':
			n := tabSize - col%tabSize
			b.WriteString(strings.Repeat(" ", n))
			col += n
		case '\n', '\r':
			b.WriteRune(r)
			col = 0
		default:
			b.WriteRune(r)
			col++
		}
	}
	return b.String()
}
