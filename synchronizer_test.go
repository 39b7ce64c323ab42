package localize_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/vrckit/localize"
	"github.com/vrckit/localize/internal/prefs"
)

func newReference(t *testing.T) *localize.CatalogReference {
	t.Helper()
	c, _, _ := newCatalog(t)
	return localize.NewCatalogReference(c)
}

func nativeOnlyReference(t *testing.T) *localize.CatalogReference {
	t.Helper()
	c, err := localize.NewCatalog(localize.MustCLDRLocale(language.English))
	require.NoError(t, err)
	return localize.NewCatalogReference(c)
}

func TestSyncRegistrySeed(t *testing.T) {
	t.Parallel()

	f := func(
		t *testing.T, expect string, persisted string, hint language.Tag,
	) {
		t.Helper()
		store := prefs.NewMemoryStore()
		if persisted != "" {
			require.NoError(t, store.Save("ui", persisted))
		}
		r := localize.NewSyncRegistry(
			localize.WithPreferenceStore(store),
			localize.WithLanguageHint(hint),
		)
		ref := newReference(t)
		s := r.Register("ui", ref)
		require.Equal(t, expect, s.SelectedLocale().Culture())
		require.Equal(t, expect, ref.Catalog().SelectedLocale().Culture())
	}

	f(t, "en", "", language.Und)
	f(t, "ja", "", language.Japanese)
	f(t, "ja", "", language.MustParse("ja-JP"))
	f(t, "en", "", language.German)
	f(t, "ja", "ja", language.English)
	f(t, "en", "en", language.Japanese)
	f(t, "ja", "de", language.Japanese) // Unsupported preference is ignored.
	f(t, "en", "invalid tag!", language.Und)
}

func TestSynchronizerSelectLocale(t *testing.T) {
	t.Parallel()

	store := prefs.NewMemoryStore()
	r := localize.NewSyncRegistry(localize.WithPreferenceStore(store))
	a, b := newReference(t), nativeOnlyReference(t)
	s := r.Register("ui", a)
	require.Same(t, s, r.Register("ui", b))
	require.Same(t, s, r.Register("ui", b), "registering twice is a no-op")
	require.Len(t, s.Subscribers(), 2)

	var retranslated []string
	b.Subscribe(func(c *localize.Catalog) {
		retranslated = append(retranslated, c.SelectedLocale().Culture())
	})

	ja := japaneseZero(t)
	require.NoError(t, s.SelectLocale(ja))
	require.Equal(t, "ja", s.SelectedLocale().Culture())
	require.Equal(t, "bar", a.T("foo"))
	require.Equal(t, "foo", b.T("foo"), "b falls back to native")
	require.Equal(t, []string{"en"}, retranslated)

	persisted, ok, err := store.Load("ui")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "ja", persisted)

	de := localize.MustCLDRLocale(language.German)
	require.ErrorIs(t, s.SelectLocale(de), localize.ErrUnsupportedLocale)
	require.False(t, s.TrySelectLocale(de))
	require.Equal(t, "ja", s.SelectedLocale().Culture(), "failed selections change nothing")
	require.Equal(t, "bar", a.T("foo"))

	require.ErrorIs(t, s.SelectCulture(language.German), localize.ErrUnsupportedLocale)
	require.NoError(t, s.SelectCulture(language.English))
	require.Equal(t, "en", s.SelectedLocale().Culture())
	require.Equal(t, "foo", a.T("foo"))
	require.True(t, s.TrySelectLocale(ja))
	require.Equal(t, "bar", a.T("foo"))
}

func TestSynchronizerFirstAdoptingSubscriber(t *testing.T) {
	t.Parallel()

	r := localize.NewSyncRegistry()
	native, a := nativeOnlyReference(t), newReference(t)
	s := r.Register("ui", native)
	r.Register("ui", a)
	require.Equal(t, "en", s.SelectedLocale().Culture())

	ja := japaneseZero(t)
	require.NoError(t, s.SelectLocale(ja))
	require.Equal(t, "ja", s.SelectedLocale().Culture())
	require.Same(t, a.Catalog().SelectedLocale(), s.SelectedLocale(),
		"the locale adopted by the second subscriber")
	require.NotSame(t, ja, s.SelectedLocale())
	require.Equal(t, "en", native.Catalog().SelectedLocale().Culture())

	require.NoError(t, s.SelectCulture(language.Japanese))
	require.Same(t, a.Catalog().SelectedLocale(), s.SelectedLocale())
}

func TestSynchronizerReentrantSubscriber(t *testing.T) {
	t.Parallel()

	r := localize.NewSyncRegistry()
	a := newReference(t)
	s := r.Register("ui", a)

	var seen []string
	a.Subscribe(func(c *localize.Catalog) {
		seen = append(seen, s.SelectedLocale().Culture()+"/"+c.SelectedLocale().Culture())
		_ = s.Subscribers()
	})

	ja, late := japaneseZero(t), newReference(t)
	var errs []error
	done := make(chan struct{})
	go func() {
		defer close(done)
		errs = append(errs, s.SelectLocale(ja), s.SelectCulture(language.English))
		s.SelectLocaleOrNative(localize.MustCLDRLocale(language.German))
		r.Register("ui", late)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("subscriber reading the synchronizer blocked")
	}
	require.NoError(t, errors.Join(errs...))
	require.Equal(t, []string{"ja/ja", "en/en", "en/en"}, seen)
}

func TestSynchronizerSelectLocaleOrNative(t *testing.T) {
	t.Parallel()

	r := localize.NewSyncRegistry()
	a, b := newReference(t), nativeOnlyReference(t)
	s := r.Register("ui", a)
	r.Register("ui", b)

	de := localize.MustCLDRLocale(language.German)
	fr := localize.MustCLDRLocale(language.French)
	ja := japaneseZero(t)

	require.Equal(t, "ja", s.SelectLocaleOrNative(de, ja).Culture())
	require.Equal(t, "bar", a.T("foo"))

	require.Equal(t, "en", s.SelectLocaleOrNative(de, fr).Culture())
	require.Equal(t, "foo", a.T("foo"))
	require.Equal(t, "en", a.Catalog().SelectedLocale().Culture())
	require.Equal(t, "en", b.Catalog().SelectedLocale().Culture())
}

func TestSynchronizerLateRegistration(t *testing.T) {
	t.Parallel()

	r := localize.NewSyncRegistry()
	s := r.Register("ui", newReference(t))
	require.NoError(t, s.SelectLocale(japaneseZero(t)))

	late := newReference(t)
	r.Register("ui", late)
	require.Equal(t, "bar", late.T("foo"))

	native := nativeOnlyReference(t)
	r.Register("ui", native)
	require.Equal(t, "en", native.Catalog().SelectedLocale().Culture())
	require.Equal(t, "ja", s.SelectedLocale().Culture())

	// Other keys are independent.
	other := r.Register("tooltips", newReference(t))
	require.Equal(t, "en", other.SelectedLocale().Culture())
	require.Equal(t, []string{"tooltips", "ui"}, r.Keys())
}

func TestSynchronizerUnsubscribe(t *testing.T) {
	t.Parallel()

	r := localize.NewSyncRegistry()
	a, b := newReference(t), newReference(t)
	s := r.Register("ui", a)
	r.Register("ui", b)

	s.Unsubscribe(b)
	require.NoError(t, s.SelectLocale(japaneseZero(t)))
	require.Equal(t, "bar", a.T("foo"))
	require.Equal(t, "foo", b.T("foo"))

	got, ok := r.Synchronizer("ui")
	require.True(t, ok)
	require.Same(t, s, got)

	r.Close()
	_, ok = r.Synchronizer("ui")
	require.False(t, ok)
	require.Empty(t, s.Subscribers())
	require.Empty(t, r.Keys())
}

type failingStore struct{}

var errStore = errors.New("store unavailable")

func (failingStore) Load(string) (string, bool, error) { return "", false, errStore }
func (failingStore) Save(string, string) error         { return errStore }

func TestSynchronizerStoreFailure(t *testing.T) {
	t.Parallel()

	var log bytes.Buffer
	r := localize.NewSyncRegistry(
		localize.WithPreferenceStore(failingStore{}),
		localize.WithLanguageHint(language.Japanese),
		localize.WithRegistryLogger(slog.New(slog.NewTextHandler(&log, nil))),
	)
	s := r.Register("ui", newReference(t))
	require.Equal(t, "ja", s.SelectedLocale().Culture(), "hint is used")
	require.NoError(t, s.SelectCulture(language.English))
	require.Contains(t, log.String(), "loading locale preference")
	require.Contains(t, log.String(), "saving locale preference")
	require.Contains(t, log.String(), "store unavailable")
}
