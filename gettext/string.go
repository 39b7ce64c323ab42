package gettext

import (
	"strings"
)

// String is a string literal as it appears on disk (Raw, including
// the surrounding double quotes) together with its logical Value.
type String struct {
	Raw   string
	Value string
}

// StringFromRaw unescapes the double-quoted literal raw.
func StringFromRaw(raw string) (String, error) {
	if len(raw) < 2 || raw[0] != '"' || raw[len(raw)-1] != '"' {
		return String{}, errLine(raw, ErrMalformedString)
	}
	v, err := unescape(raw[1 : len(raw)-1])
	if err != nil {
		return String{}, errLine(raw, err)
	}
	return String{Raw: raw, Value: v}, nil
}

// StringFromValue escapes v into a double-quoted literal.
// Escaping never fails.
func StringFromValue(v string) String {
	var b strings.Builder
	b.Grow(len(v) + 2)
	b.WriteByte('"')
	for i := 0; i < len(v); i++ {
		c := v[i]
		switch c {
		case '\a':
			b.WriteString(`\a`)
		case '\b':
			b.WriteString(`\b`)
		case 0x1b:
			b.WriteString(`\e`)
		case '\f':
			b.WriteString(`\f`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\v':
			b.WriteString(`\v`)
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		default:
			if c < 0x20 || c == 0x7f {
				const hex = "0123456789abcdef"
				b.WriteString(`\x`)
				b.WriteByte(hex[c>>4])
				b.WriteByte(hex[c&0xf])
				continue
			}
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return String{Raw: b.String(), Value: v}
}

func unescape(s string) (string, error) {
	if strings.IndexByte(s, '\\') == -1 {
		if strings.IndexByte(s, '"') != -1 {
			return "", ErrMalformedString
		}
		return s, nil
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' {
			return "", ErrMalformedString
		}
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			return "", ErrMalformedString
		}
		switch c = s[i]; c {
		case 'a':
			b.WriteByte('\a')
		case 'b':
			b.WriteByte('\b')
		case 'e':
			b.WriteByte(0x1b)
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
		case '\\', '\'', '"', '?':
			b.WriteByte(c)
		case 'x':
			var n, digits int
			for digits < 2 && i+1 < len(s) && isHex(s[i+1]) {
				i++
				n = n<<4 | hexVal(s[i])
				digits++
			}
			if digits == 0 {
				return "", ErrUnknownEscape
			}
			b.WriteByte(byte(n))
		case '0', '1', '2', '3', '4', '5', '6', '7':
			n := int(c - '0')
			for digits := 1; digits < 3 && i+1 < len(s) && isOctal(s[i+1]); digits++ {
				i++
				n = n<<3 | int(s[i]-'0')
			}
			if n > 0xff {
				return "", ErrUnknownEscape
			}
			b.WriteByte(byte(n))
		default:
			return "", ErrUnknownEscape
		}
	}
	return b.String(), nil
}

func isOctal(c byte) bool { return c >= '0' && c <= '7' }

func isHex(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

func hexVal(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	}
	return int(c-'A') + 10
}
