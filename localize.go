// Package localize provides gettext catalogs with CLDR plural rules,
// locale selection with fallback to the native locale and locale
// synchronization between independently loaded catalogs.
package localize

import (
	"errors"

	"github.com/vrckit/localize/plural"
)

var (
	ErrUnsupportedLocale = errors.New("unsupported locale")
	ErrDuplicateLocale   = errors.New("duplicate locale")
	ErrLocaleMismatch    = errors.New("document doesn't match locale")
	ErrNoDocument        = errors.New("missing document")
)

// Forms defines the native text of a plural message for each form.
//
// For more information, see CLDR documentation:
// https://cldr.unicode.org/index/cldr-spec/plural-rules
type Forms struct {
	// Zero defines the plural form used when the quantity is zero,
	// as required by some languages or requested by WithSpecialZero.
	Zero string

	// One defines the plural form used when the quantity is exactly one,
	// which is the singular form in most languages.
	// It's the msgid of the plural entry.
	One string

	// Two defines the dual form used in some languages.
	Two string

	// Few defines the paucal form used in some languages.
	Few string

	// Many is used for fractions in some languages
	// if they have a separate class.
	Many string

	// Other is the general plural form used for all languages and
	// must always be defined. It's the msgid_plural of the plural entry.
	Other string
}

// For returns the text of form f, or Other if f has no text.
func (f Forms) For(form plural.Form) string {
	var s string
	switch form {
	case plural.Zero, plural.SpecialZero:
		s = f.Zero
	case plural.One:
		s = f.One
	case plural.Two:
		s = f.Two
	case plural.Few:
		s = f.Few
	case plural.Many:
		s = f.Many
	}
	if s == "" {
		return f.Other
	}
	return s
}
