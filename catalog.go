package localize

import (
	"fmt"
	"strings"
	"sync/atomic"

	"golang.org/x/text/language"

	"github.com/vrckit/localize/gettext"
	"github.com/vrckit/localize/plural"
)

// LocalizedDocument is a translation document of a single locale.
type LocalizedDocument struct {
	Locale   *Locale
	Document *gettext.Document
}

// Catalog translates native texts into the selected locale.
//
// A catalog holds a fixed set of documents. Selecting the native locale,
// or a locale that has no document, makes lookups return the native text.
// Lookups never fail: missing and empty translations fall back to the native text.
// Catalog is safe for concurrent use.
type Catalog struct {
	native    *Locale
	documents []LocalizedDocument
	selected  atomic.Pointer[LocalizedDocument] // nil selects native.
}

// NewCatalog creates a catalog with native selected.
func NewCatalog(native *Locale, documents ...LocalizedDocument) (*Catalog, error) {
	if native == nil {
		return nil, fmt.Errorf("%w: native locale is nil", ErrUnsupportedLocale)
	}
	c := &Catalog{native: native, documents: make([]LocalizedDocument, 0, len(documents))}
	for _, d := range documents {
		if d.Locale == nil || d.Document == nil {
			return nil, fmt.Errorf("%w for locale %v", ErrNoDocument, d.Locale)
		}
		for _, x := range c.documents {
			if x.Locale.Equal(d.Locale) {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateLocale, d.Locale)
			}
		}
		c.documents = append(c.documents, d)
	}
	return c, nil
}

// NativeLocale returns the locale of the native texts.
func (c *Catalog) NativeLocale() *Locale { return c.native }

// SelectedLocale returns the currently selected locale.
func (c *Catalog) SelectedLocale() *Locale {
	if d := c.selected.Load(); d != nil {
		return d.Locale
	}
	return c.native
}

// SupportedLocales returns the native locale followed by
// the locales of all documents.
func (c *Catalog) SupportedLocales() []*Locale {
	l := make([]*Locale, 0, len(c.documents)+1)
	l = append(l, c.native)
	for _, d := range c.documents {
		if !d.Locale.Equal(c.native) {
			l = append(l, d.Locale)
		}
	}
	return l
}

// Documents returns the documents of the catalog.
func (c *Catalog) Documents() []LocalizedDocument {
	return append([]LocalizedDocument(nil), c.documents...)
}

// Supports reports whether l can be selected.
func (c *Catalog) Supports(l *Locale) bool {
	_, ok := c.resolve(l)
	return ok
}

// resolve returns the document for l, nil for native.
func (c *Catalog) resolve(l *Locale) (*LocalizedDocument, bool) {
	for i := range c.documents {
		if c.documents[i].Locale.Equal(l) {
			return &c.documents[i], true
		}
	}
	if c.native.Equal(l) {
		return nil, true
	}
	return nil, false
}

// LocaleByCulture returns the supported locale of culture tag.
func (c *Catalog) LocaleByCulture(tag language.Tag) (*Locale, bool) {
	for _, l := range c.SupportedLocales() {
		if l.Tag().String() == tag.String() {
			return l, true
		}
	}
	return nil, false
}

// Match returns the supported locale best matching any of tags
// and the confidence of the match.
func (c *Catalog) Match(tags ...language.Tag) (*Locale, language.Confidence) {
	supported := c.SupportedLocales()
	available := make([]language.Tag, len(supported))
	for i, l := range supported {
		available[i] = l.Tag()
	}
	matcher := language.NewMatcher(available)
	_, index, conf := matcher.Match(tags...)
	return supported[index], conf
}

func (c *Catalog) unsupported(culture string) error {
	supported := c.SupportedLocales()
	names := make([]string, len(supported))
	for i, s := range supported {
		names[i] = s.Culture()
	}
	return fmt.Errorf("%w: %s (supported: %s)",
		ErrUnsupportedLocale, culture, strings.Join(names, ", "))
}

// SelectLocale selects l or returns an error wrapping
// ErrUnsupportedLocale that lists all supported locales.
func (c *Catalog) SelectLocale(l *Locale) error {
	if !c.TrySelectLocale(l) {
		return c.unsupported(l.String())
	}
	return nil
}

// TrySelectLocale selects l if supported.
func (c *Catalog) TrySelectLocale(l *Locale) bool {
	d, ok := c.resolve(l)
	if !ok {
		return false
	}
	c.selected.Store(d)
	return true
}

// SelectCulture selects the supported locale of culture tag.
func (c *Catalog) SelectCulture(tag language.Tag) error {
	l, ok := c.LocaleByCulture(tag)
	if !ok {
		return c.unsupported(tag.String())
	}
	return c.SelectLocale(l)
}

// SelectLocaleOrNative selects the first supported candidate,
// or the native locale if none is supported. It returns the selected locale.
func (c *Catalog) SelectLocaleOrNative(candidates ...*Locale) *Locale {
	for _, l := range candidates {
		if l != nil && c.TrySelectLocale(l) {
			return c.SelectedLocale()
		}
	}
	c.selected.Store(nil)
	return c.native
}

// T translates id.
// Args replace the positional placeholders {0}, {1}, ...
func (c *Catalog) T(id string, args ...any) string {
	return c.singular(gettext.NewKey(id), args)
}

// TC is like T but looks up the translation of id in context.
func (c *Catalog) TC(context, id string, args ...any) string {
	return c.singular(gettext.NewContextKey(context, id), args)
}

// TN translates a plural message. The form is selected by count,
// which replaces {0}. Args replace {1}, {2}, ...
func (c *Catalog) TN(forms Forms, count float64, args ...any) string {
	return c.plural(gettext.NewKey(forms.One), forms, count, args)
}

// TCN is like TN but looks up the translation in context.
func (c *Catalog) TCN(context string, forms Forms, count float64, args ...any) string {
	return c.plural(gettext.NewContextKey(context, forms.One), forms, count, args)
}

func (c *Catalog) singular(key gettext.Key, args []any) string {
	locale, text := c.native, key.ID
	if d := c.selected.Load(); d != nil {
		locale = d.Locale
		e, ok := d.Document.Lookup(key)
		if ok && !e.IsObsolete && !e.IsPlural() && e.Value != "" {
			text = e.Value
		}
	}
	if len(args) == 0 {
		return text
	}
	return locale.Format(text, args...)
}

func (c *Catalog) plural(key gettext.Key, forms Forms, count float64, args []any) string {
	operands := plural.OperandsFromFloat(count)
	args = append([]any{count}, args...)

	if d := c.selected.Load(); d != nil {
		// The form is chosen by the selected locale even when
		// falling back to the native text.
		form := d.Locale.PluralForm(operands)
		if text, ok := pluralValue(d, key, forms.Other, form); ok {
			return d.Locale.Format(text, args...)
		}
		return d.Locale.Format(forms.For(form), args...)
	}
	return c.native.Format(forms.For(c.native.PluralForm(operands)), args...)
}

// pluralValue returns the translation of form. The entry is only used
// if it has exactly as many values as the locale has plural forms.
func pluralValue(
	d *LocalizedDocument, key gettext.Key, pluralID string, form plural.Form,
) (string, bool) {
	e, ok := d.Document.Lookup(key)
	if !ok || e.IsObsolete || e.PluralID != pluralID ||
		len(e.PluralValues) != d.Locale.PluralCount() {
		return "", false
	}
	i, ok := d.Locale.PluralIndex(form)
	if !ok || e.PluralValues[i] == "" {
		return "", false
	}
	return e.PluralValues[i], true
}
