package parse

import (
	"errors"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/unicode/runenames"
)

var (
	errBadLiteral = errors.New("malformed string literal")
	// errUnrepresentable marks literals whose value a Go string cannot hold,
	// such as lone surrogates, or that name an unknown character.
	errUnrepresentable = errors.New("string value cannot be represented")
)

// runesByName maps upper-case Unicode character names to runes. It is built
// on first use of a \N{...} escape.
var runesByName = sync.OnceValue(func() map[string]rune {
	names := make(map[string]rune, 1<<15)
	for r := rune(0); r <= utf8.MaxRune; r++ {
		if r >= 0xD800 && r <= 0xDFFF {
			continue
		}
		name := runenames.Name(r)
		if name == "" || strings.HasPrefix(name, "<") {
			continue
		}
		if _, dup := names[name]; !dup {
			names[name] = r
		}
	}
	return names
})

func lookupName(name string) (rune, bool) {
	r, ok := runesByName()[strings.ToUpper(strings.TrimSpace(name))]
	return r, ok
}

type literal struct {
	value     string
	bytes     bool
	formatted bool
}

// decodeString evaluates a single Python string literal, prefix and quotes
// included. Formatted literals are flagged and left undecoded.
func decodeString(text string) (literal, error) {
	i := 0
	for i < len(text) && strings.IndexByte("rRbBuUfFtT", text[i]) >= 0 {
		i++
	}
	prefix := strings.ToLower(text[:i])
	body := text[i:]

	var quote string
	switch {
	case strings.HasPrefix(body, `"""`), strings.HasPrefix(body, `'''`):
		quote = body[:3]
	case strings.HasPrefix(body, `"`), strings.HasPrefix(body, `'`):
		quote = body[:1]
	default:
		return literal{}, errBadLiteral
	}
	if len(body) < 2*len(quote) || !strings.HasSuffix(body, quote) {
		return literal{}, errBadLiteral
	}
	content := body[len(quote) : len(body)-len(quote)]

	lit := literal{
		bytes:     strings.Contains(prefix, "b"),
		formatted: strings.ContainsAny(prefix, "ft"),
	}
	switch {
	case lit.formatted:
	case strings.Contains(prefix, "r"):
		lit.value = content
	default:
		v, err := unescape(content, lit.bytes)
		if err != nil {
			return literal{}, err
		}
		lit.value = v
	}
	return lit, nil
}

// unescape resolves backslash escapes. Unknown escapes are kept verbatim,
// as Python does. Surrogate code points and unknown character names yield
// errUnrepresentable.
func unescape(s string, isBytes bool) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}

	var b strings.Builder
	b.Grow(len(s))

	writeCode := func(code uint64) {
		if isBytes {
			b.WriteByte(byte(code))
		} else {
			b.WriteRune(rune(code))
		}
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		e := s[i]
		switch e {
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
			end := i + 1
			for end < len(s) && end < i+3 && s[end] >= '0' && s[end] <= '7' {
				end++
			}
			code, _ := strconv.ParseUint(s[i:end], 8, 32)
			writeCode(code)
			i = end - 1
		case 'N':
			if isBytes {
				b.WriteString(`\N`)
				continue
			}
			end := strings.IndexByte(s[i:], '}')
			if i+1 >= len(s) || s[i+1] != '{' || end < 0 {
				return "", errBadLiteral
			}
			r, ok := lookupName(s[i+2 : i+end])
			if !ok {
				return "", errUnrepresentable
			}
			b.WriteRune(r)
			i += end
		case 'x', 'u', 'U':
			width := map[byte]int{'x': 2, 'u': 4, 'U': 8}[e]
			if isBytes && e != 'x' {
				b.WriteByte('\\')
				b.WriteByte(e)
				continue
			}
			if i+1+width > len(s) {
				return "", errBadLiteral
			}
			code, err := strconv.ParseUint(s[i+1:i+1+width], 16, 32)
			if err != nil {
				return "", errBadLiteral
			}
			if !isBytes && !utf8.ValidRune(rune(code)) {
				return "", errUnrepresentable
			}
			writeCode(code)
			i += width
		default:
			b.WriteByte('\\')
			b.WriteByte(e)
		}
	}
	return b.String(), nil
}
