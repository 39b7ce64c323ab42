package localize

import (
	"fmt"
	"strconv"

	"github.com/vrckit/localize/internal/fmtplaceholder"
	"github.com/vrckit/localize/plural"
)

// Format replaces the positional placeholders of template with args
// formatted for the culture of l.
//
// Numbers are formatted by the locale's translator. The format "N<digits>"
// sets the number of fraction digits and "D" formats integers.
// Placeholders without an argument are kept.
func (l *Locale) Format(template string, args ...any) string {
	return fmtplaceholder.Format(template, func(p fmtplaceholder.Placeholder) (string, bool) {
		if p.Index >= len(args) {
			return "", false
		}
		return l.formatArg(args[p.Index], p.Format), true
	})
}

func (l *Locale) formatArg(arg any, format string) string {
	n, ok := fmtplaceholder.Float(arg)
	if !ok {
		return fmt.Sprint(arg)
	}
	digits := plural.OperandsFromFloat(n).V
	switch {
	case format == "D" || format == "d":
		digits = 0
	case len(format) > 1 && (format[0] == 'N' || format[0] == 'n'):
		if d, err := strconv.Atoi(format[1:]); err == nil && d >= 0 {
			digits = d
		}
	case format == "N" || format == "n" || format == "":
	default:
		return fmt.Sprint(arg)
	}
	return l.FormatNumber(n, digits)
}

// FormatNumber formats n with the given number of fraction digits.
func (l *Locale) FormatNumber(n float64, digits int) string {
	if l.translator == nil {
		return strconv.FormatFloat(n, 'f', digits, 64)
	}
	return l.translator.FmtNumber(n, uint64(digits))
}
