package localize

import (
	"errors"
	"fmt"

	"github.com/go-playground/locales"
	"golang.org/x/text/language"

	"github.com/vrckit/localize/internal/cldr"
	"github.com/vrckit/localize/plural"
)

var ErrUnknownCulture = errors.New("no CLDR data for culture")

// Locale is a culture together with its cardinal plural rules.
//
// Locales are compared by culture only, see Equal.
type Locale struct {
	tag            language.Tag
	rules          *plural.Rules
	useSpecialZero bool
	translator     locales.Translator
}

type LocaleOption func(*Locale)

// WithSpecialZero makes the locale use a dedicated zero form for n = 0
// when its plural rules don't define one. The zero form is stored
// after all other plural values.
func WithSpecialZero() LocaleOption {
	return func(l *Locale) { l.useSpecialZero = true }
}

// WithTranslator sets the go-playground translator used for number formatting.
func WithTranslator(t locales.Translator) LocaleOption {
	return func(l *Locale) { l.translator = t }
}

// NewLocale creates a new locale. A nil rules is treated as a language
// without plural forms.
func NewLocale(tag language.Tag, rules *plural.Rules, opts ...LocaleOption) *Locale {
	if rules == nil {
		rules = plural.MustRules(plural.Definition{})
	}
	l := &Locale{tag: tag, rules: rules}
	for _, o := range opts {
		o(l)
	}
	return l
}

// CLDRLocale creates a locale with the CLDR plural rules and the
// go-playground translator of tag, or of its base language if tag
// has no data of its own.
func CLDRLocale(tag language.Tag, opts ...LocaleOption) (*Locale, error) {
	data, ok := cldr.ByTagOrBase(tag)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCulture, tag)
	}
	rules, err := plural.NewRules(data.Plural)
	if err != nil {
		return nil, fmt.Errorf("compiling plural rules of %s: %w", tag, err)
	}
	opts = append([]LocaleOption{WithTranslator(data.NewTranslator())}, opts...)
	return NewLocale(tag, rules, opts...), nil
}

// MustCLDRLocale is like CLDRLocale but panics on error.
func MustCLDRLocale(tag language.Tag, opts ...LocaleOption) *Locale {
	l, err := CLDRLocale(tag, opts...)
	if err != nil {
		panic(err)
	}
	return l
}

// Tag returns the culture of the locale.
func (l *Locale) Tag() language.Tag { return l.tag }

// Culture returns the BCP 47 culture identifier like "en" or "de-CH".
func (l *Locale) Culture() string { return l.tag.String() }

func (l *Locale) Rules() *plural.Rules { return l.rules }

func (l *Locale) UseSpecialZero() bool { return l.useSpecialZero }

// Translator returns the go-playground translator, which may be nil.
func (l *Locale) Translator() locales.Translator { return l.translator }

// PluralCount returns the number of plural values a translation has.
func (l *Locale) PluralCount() int {
	if l.useSpecialZero {
		return l.rules.Count() + 1
	}
	return l.rules.Count()
}

// PluralForms returns the plural forms in the order of plural values.
func (l *Locale) PluralForms() []plural.Form {
	forms := l.rules.Forms()
	if l.useSpecialZero {
		forms = append(forms, plural.SpecialZero)
	}
	return forms
}

// PluralForm returns the form of a number with operands o.
// The Zero rule is checked first, then the special zero, then all other rules.
func (l *Locale) PluralForm(o plural.Operands) plural.Form {
	f := l.rules.Evaluate(o)
	if f != plural.Zero && l.useSpecialZero && o.N == 0 {
		return plural.SpecialZero
	}
	return f
}

// PluralIndex returns the plural value index of form f.
func (l *Locale) PluralIndex(f plural.Form) (int, bool) {
	if f == plural.SpecialZero {
		return l.rules.Count(), l.useSpecialZero
	}
	return l.rules.Index(f)
}

// Equal reports whether l and o have the same culture.
// Plural rules are not compared.
func (l *Locale) Equal(o *Locale) bool {
	if l == nil || o == nil {
		return l == o
	}
	return l.tag.String() == o.tag.String()
}

// SameRules reports whether l and o share the same plural configuration.
func (l *Locale) SameRules(o *Locale) bool {
	return l.rules.Equal(o.rules) && l.useSpecialZero == o.useSpecialZero
}

func (l *Locale) String() string { return l.tag.String() }
