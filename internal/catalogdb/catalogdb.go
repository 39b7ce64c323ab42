// Package catalogdb loads catalog documents from disk and keeps them cached
// until their content changes.
//
// A document that turns invalid doesn't break the catalogs using it:
// the failure is logged and the last valid version stays in use.
package catalogdb

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/cespare/xxhash"

	"github.com/vrckit/localize"
	"github.com/vrckit/localize/gettext"
)

// DB caches parsed documents by path.
// Create one per process and share it between all catalogs.
type DB struct {
	lock    sync.Mutex
	entries map[string]*entry
	logger  *slog.Logger
}

type entry struct {
	hash uint64
	doc  *gettext.Document // Last valid document, nil if never valid.
	err  error             // Error of the current content.
}

type Option func(*DB)

func WithLogger(l *slog.Logger) Option {
	return func(db *DB) { db.logger = l }
}

func New(opts ...Option) *DB {
	db := &DB{entries: map[string]*entry{}, logger: slog.New(slog.DiscardHandler)}
	for _, o := range opts {
		o(db)
	}
	return db
}

// Document returns the document at path, parsing it only if its content
// changed since the last call. If the file is invalid, the last valid
// version is returned. An error is returned only if there is none.
func (db *DB) Document(path string) (*gettext.Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	h := xxhash.Sum64(b)

	db.lock.Lock()
	defer db.lock.Unlock()
	e, ok := db.entries[path]
	if ok && e.hash == h {
		if e.doc == nil {
			return nil, e.err
		}
		return e.doc, nil
	}
	if !ok {
		e = &entry{}
		db.entries[path] = e
	}
	e.hash = h

	doc, err := gettext.ParseString(string(b))
	if err != nil {
		e.err = fmt.Errorf("parsing %s: %w", path, err)
		if e.doc == nil {
			return nil, e.err
		}
		db.logger.Warn("keeping last valid document",
			slog.String("path", path), slog.Any("err", err))
		return e.doc, nil
	}
	db.logger.Debug("loaded document", slog.String("path", path),
		slog.String("hash", fmt.Sprintf("%016x", h)))
	e.doc, e.err = doc, nil
	return doc, nil
}

// Err returns the error of the current content of path, nil if it's
// valid or unknown.
func (db *DB) Err(path string) error {
	db.lock.Lock()
	defer db.lock.Unlock()
	if e, ok := db.entries[path]; ok {
		return e.err
	}
	return nil
}

// Paths returns the paths of all cached documents.
func (db *DB) Paths() []string {
	db.lock.Lock()
	defer db.lock.Unlock()
	paths := make([]string, 0, len(db.entries))
	for p := range db.entries {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// Forget drops the cached document of path.
func (db *DB) Forget(path string) {
	db.lock.Lock()
	defer db.lock.Unlock()
	delete(db.entries, path)
}

// Catalog assembles a catalog with the documents "<dir>/<culture>.po"
// of locales. Locales without a valid document, or whose document doesn't
// match, are logged and left out.
func (db *DB) Catalog(
	dir string, native *localize.Locale, locales []*localize.Locale,
) (*localize.Catalog, error) {
	docs := db.documents(dir, locales)
	return localize.NewCatalog(native, docs...)
}

func (db *DB) documents(dir string, locales []*localize.Locale) []localize.LocalizedDocument {
	docs := make([]localize.LocalizedDocument, 0, len(locales))
	for _, l := range locales {
		path := filepath.Join(dir, l.Culture()+".po")
		doc, err := db.Document(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			db.logger.Debug("no document", slog.String("path", path))
			continue
		case err != nil:
			db.logger.Error("loading document",
				slog.String("path", path), slog.Any("err", err))
			continue
		}
		if err := localize.VerifyLocaleMatches(doc, l); err != nil {
			db.logger.Error("document doesn't match locale",
				slog.String("path", path), slog.Any("err", err))
			continue
		}
		docs = append(docs, localize.LocalizedDocument{Locale: l, Document: doc})
	}
	return docs
}

// Refresh replaces the catalog of ref if the set of valid documents
// in dir changed and reports whether it did.
// The selected locale is kept if still supported.
func (db *DB) Refresh(
	ref *localize.CatalogReference, dir string, locales []*localize.Locale,
) (bool, error) {
	current := ref.Catalog()
	docs := db.documents(dir, locales)
	if slices.EqualFunc(docs, current.Documents(), func(a, b localize.LocalizedDocument) bool {
		return a.Document == b.Document && a.Locale.Equal(b.Locale)
	}) {
		return false, nil
	}
	c, err := localize.NewCatalog(current.NativeLocale(), docs...)
	if err != nil {
		return false, err
	}
	ref.UpdateCatalog(c)
	return true, nil
}
