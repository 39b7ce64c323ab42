package localize

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/vrckit/localize/gettext"
	"github.com/vrckit/localize/internal/writepo"
)

// DefaultTemplateName is the file name of the template without extension.
const DefaultTemplateName = "messages"

// Reference is a source location of a localized text.
type Reference struct {
	Path string
	Line int
}

func (r Reference) String() string {
	if r.Path == "" {
		return ""
	}
	return gettext.FmtReference(filepath.ToSlash(r.Path), r.Line)
}

// CatalogBuilder maintains the documents of a catalog directory:
// one "<culture>.po" per locale and a "<name>.pot" template.
//
// AddEntry, NewSession and Prune are safe for concurrent use.
// Save must only be called once all concurrent work has completed.
type CatalogBuilder struct {
	dir          string
	templateName string
	native       *Locale
	template     *gettext.DocumentBuilder
	targets      []buildTarget
	logger       *slog.Logger
}

type buildTarget struct {
	locale  *Locale
	path    string
	builder *gettext.DocumentBuilder
}

type CatalogBuilderOption func(*CatalogBuilder)

// WithTemplateName sets the template file name, "messages" by default.
func WithTemplateName(name string) CatalogBuilderOption {
	return func(b *CatalogBuilder) { b.templateName = name }
}

func WithBuilderLogger(l *slog.Logger) CatalogBuilderOption {
	return func(b *CatalogBuilder) { b.logger = l }
}

// NewCatalogBuilder loads the documents of locales from dir.
// Missing documents are created with a fresh header.
// Existing documents must match their locale, see VerifyLocaleMatches.
func NewCatalogBuilder(
	dir string, native *Locale, locales []*Locale, opts ...CatalogBuilderOption,
) (*CatalogBuilder, error) {
	b := &CatalogBuilder{
		dir:          dir,
		templateName: DefaultTemplateName,
		native:       native,
		logger:       slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(b)
	}

	tmpl, err := b.load(b.TemplatePath(), nil, writepo.Header{
		Template: true, Forms: native.PluralForms(),
	})
	if err != nil {
		return nil, err
	}
	b.template = gettext.NewDocumentBuilder(tmpl)

	registered := []*Locale{native}
	for _, l := range locales {
		if l == nil {
			return nil, fmt.Errorf("%w: nil locale", ErrUnsupportedLocale)
		}
		if err := checkRegistered(registered, l); err != nil {
			if errors.Is(err, ErrDuplicateLocale) {
				continue
			}
			return nil, err
		}
		registered = append(registered, l)

		path := filepath.Join(dir, l.Culture()+".po")
		doc, err := b.load(path, l, writepo.Header{
			Language: l.Tag(), Forms: l.PluralForms(),
		})
		if err != nil {
			return nil, err
		}
		b.targets = append(b.targets, buildTarget{
			locale:  l,
			path:    path,
			builder: gettext.NewDocumentBuilder(doc, gettext.WithPluralCount(l.PluralCount())),
		})
	}
	return b, nil
}

// checkRegistered returns ErrDuplicateLocale if l is registered already
// and ErrLocaleMismatch if its culture is registered with other rules.
func checkRegistered(registered []*Locale, l *Locale) error {
	for _, r := range registered {
		if !r.Equal(l) {
			continue
		}
		if !r.SameRules(l) {
			return fmt.Errorf("%w: %s is registered with different plural rules",
				ErrLocaleMismatch, l)
		}
		return ErrDuplicateLocale
	}
	return nil
}

func (b *CatalogBuilder) load(
	path string, l *Locale, h writepo.Header,
) (*gettext.Document, error) {
	doc, err := gettext.LoadFrom(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		b.logger.Info("creating document", slog.String("path", path))
		return writepo.NewDocument(h)
	case err != nil:
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	if l != nil {
		if err := VerifyLocaleMatches(doc, l); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return doc, nil
}

// VerifyLocaleMatches checks that the Language header of doc is the
// culture of l and that every plural entry has as many values as l has
// plural forms. Obsolete entries are not checked.
func VerifyLocaleMatches(doc *gettext.Document, l *Locale) error {
	tag, err := doc.Language()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLocaleMismatch, err)
	}
	if tag.String() != l.Culture() {
		return fmt.Errorf("%w: document language %s, locale %s",
			ErrLocaleMismatch, tag, l)
	}
	for _, e := range doc.Entries() {
		if e.IsObsolete || !e.IsPlural() {
			continue
		}
		if len(e.PluralValues) != l.PluralCount() {
			return fmt.Errorf("%w: entry %s has %d plural values, %s has %d plural forms",
				ErrLocaleMismatch, e.Key(), len(e.PluralValues), l, l.PluralCount())
		}
	}
	return nil
}

// Dir returns the catalog directory.
func (b *CatalogBuilder) Dir() string { return b.dir }

// TemplatePath returns the path of the .pot template.
func (b *CatalogBuilder) TemplatePath() string {
	return filepath.Join(b.dir, b.templateName+".pot")
}

// NativeLocale returns the locale of the msgid texts.
func (b *CatalogBuilder) NativeLocale() *Locale { return b.native }

// Locales returns the locales that have a document.
func (b *CatalogBuilder) Locales() []*Locale {
	l := make([]*Locale, len(b.targets))
	for i, t := range b.targets {
		l[i] = t.locale
	}
	return l
}

// AddEntry adds an occurrence of a text at ref to the template and
// all documents. pluralID is empty for singular texts.
func (b *CatalogBuilder) AddEntry(key gettext.Key, pluralID string, ref Reference) error {
	r := ref.String()
	errs := []error{b.template.AddEntry(key, pluralID, r)}
	for _, t := range b.targets {
		if err := t.builder.AddEntry(key, pluralID, r); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.path, err))
		}
	}
	return errors.Join(errs...)
}

// NewSession starts a new extraction session in all documents.
func (b *CatalogBuilder) NewSession() {
	b.template.NewSession()
	for _, t := range b.targets {
		t.builder.NewSession()
	}
}

// Prune marks all entries not added during the session obsolete.
func (b *CatalogBuilder) Prune() error {
	errs := []error{b.template.Prune()}
	for _, t := range b.targets {
		if err := t.builder.Prune(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.path, err))
		}
	}
	return errors.Join(errs...)
}

// SortEntries sorts all documents. A nil compare uses gettext.DefaultEntryOrder.
func (b *CatalogBuilder) SortEntries(compare func(a, b gettext.Entry) int) {
	if compare == nil {
		compare = gettext.DefaultEntryOrder
	}
	b.template.SortEntries(compare)
	for _, t := range b.targets {
		t.builder.SortEntries(compare)
	}
}

// Template builds the template document.
func (b *CatalogBuilder) Template() (*gettext.Document, error) {
	return b.template.Build()
}

// Documents builds the documents of all locales.
func (b *CatalogBuilder) Documents() ([]LocalizedDocument, error) {
	docs := make([]LocalizedDocument, len(b.targets))
	for i, t := range b.targets {
		doc, err := t.builder.Build()
		if err != nil {
			return nil, fmt.Errorf("building %s: %w", t.path, err)
		}
		docs[i] = LocalizedDocument{Locale: t.locale, Document: doc}
	}
	return docs, nil
}

// Catalog builds a catalog of the current state with native selected.
func (b *CatalogBuilder) Catalog() (*Catalog, error) {
	docs, err := b.Documents()
	if err != nil {
		return nil, err
	}
	return NewCatalog(b.native, docs...)
}

// Save writes the template and all documents.
func (b *CatalogBuilder) Save() error {
	tmpl, err := b.Template()
	if err != nil {
		return fmt.Errorf("building template: %w", err)
	}
	if err := tmpl.Save(b.TemplatePath()); err != nil {
		return err
	}
	docs, err := b.Documents()
	if err != nil {
		return err
	}
	for i, d := range docs {
		path := b.targets[i].path
		if err := d.Document.Save(path); err != nil {
			return err
		}
		b.logger.Debug("saved document",
			slog.String("path", path), slog.Int("entries", d.Document.Len()-1))
	}
	return nil
}
