// Package fmtplaceholder handles positional placeholders like {0} and {1:N2}
// in translation templates. Braces are escaped by doubling them: {{ and }}.
package fmtplaceholder

import (
	"regexp"
	"strconv"
	"strings"
)

// Escaped braces are matched first so that "{{0}}" is never a placeholder.
var regexpPlaceholders = regexp.MustCompile(`\{\{|\}\}|\{(\d+)(?::([^{}]*))?\}`)

// Placeholder is a positional placeholder such as {1:N2}.
type Placeholder struct {
	Raw    string // "{1:N2}"
	Index  int    // 1
	Format string // "N2"
}

func fromMatch(s string, m []int) (Placeholder, bool) {
	if m[2] == -1 {
		return Placeholder{}, false
	}
	index, err := strconv.Atoi(s[m[2]:m[3]])
	if err != nil {
		return Placeholder{}, false
	}
	p := Placeholder{Raw: s[m[0]:m[1]], Index: index}
	if m[4] != -1 {
		p.Format = s[m[4]:m[5]]
	}
	return p, true
}

// Extract returns all placeholders in s.
func Extract(s string) []Placeholder {
	var out []Placeholder
	for _, m := range regexpPlaceholders.FindAllStringSubmatchIndex(s, -1) {
		if p, ok := fromMatch(s, m); ok {
			out = append(out, p)
		}
	}
	return out
}

// MaxIndex returns the highest placeholder index in s, or -1 if s has none.
func MaxIndex(s string) int {
	n := -1
	for _, p := range Extract(s) {
		n = max(n, p.Index)
	}
	return n
}

// Format replaces the placeholders in s with the values returned by arg
// and unescapes doubled braces. Placeholders arg reports false for are kept.
func Format(s string, arg func(Placeholder) (string, bool)) string {
	matches := regexpPlaceholders.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	last := 0
	for _, m := range matches {
		b.WriteString(s[last:m[0]])
		last = m[1]
		p, ok := fromMatch(s, m)
		if !ok {
			if m[2] == -1 {
				b.WriteByte(s[m[0]]) // Escaped brace.
			} else {
				b.WriteString(s[m[0]:m[1]])
			}
			continue
		}
		if v, ok := arg(p); ok {
			b.WriteString(v)
		} else {
			b.WriteString(p.Raw)
		}
	}
	b.WriteString(s[last:])
	return b.String()
}

// Numeric returns true if v is of an integer or floating point type.
func Numeric(v any) bool {
	_, ok := Float(v)
	return ok
}

// Float converts numeric values to float64.
func Float(v any) (float64, bool) {
	switch v := v.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}
