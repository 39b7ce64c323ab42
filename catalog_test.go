package localize_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/vrckit/localize"
	"github.com/vrckit/localize/gettext"
)

func TestCatalogT(t *testing.T) {
	t.Parallel()

	c, en, ja := newCatalog(t)
	require.True(t, en.Equal(c.SelectedLocale()))

	require.NoError(t, c.SelectLocale(en))
	require.Equal(t, "foo", c.T("foo"))

	require.NoError(t, c.SelectLocale(ja))
	require.Equal(t, "bar", c.T("foo"))
	require.True(t, ja.Equal(c.SelectedLocale()))
}

func TestCatalogTFallback(t *testing.T) {
	t.Parallel()

	c, _, ja := newCatalog(t)
	require.NoError(t, c.SelectLocale(ja))

	f := func(t *testing.T, expect, id string) {
		t.Helper()
		require.Equal(t, expect, c.T(id))
	}
	f(t, "missing", "missing")
	f(t, "untranslated", "untranslated")
	f(t, "gone", "gone")
	f(t, "File", "File") // Only exists in context.
	f(t, "{0} item", "{0} item")
}

func TestCatalogTC(t *testing.T) {
	t.Parallel()

	c, _, ja := newCatalog(t)
	require.Equal(t, "File", c.TC("menu", "File"))
	require.NoError(t, c.SelectLocale(ja))
	require.Equal(t, "ファイル", c.TC("menu", "File"))
	require.Equal(t, "File", c.TC("toolbar", "File"))
	require.Equal(t, "foo", c.TC("menu", "foo"))
}

func TestCatalogTFormat(t *testing.T) {
	t.Parallel()

	c, _, ja := newCatalog(t)
	require.Equal(t, "Hello Bob", c.T("Hello {0}", "Bob"))
	require.Equal(t, "Hello {0}", c.T("Hello {0}"))
	require.NoError(t, c.SelectLocale(ja))
	require.Equal(t, "こんにちは Bob", c.T("Hello {0}", "Bob"))
}

func TestCatalogTNNative(t *testing.T) {
	t.Parallel()

	c, _, _ := newCatalog(t)

	f := func(t *testing.T, expect string, forms localize.Forms, count float64) {
		t.Helper()
		require.Equal(t, expect, c.TN(forms, count))
	}
	f(t, "no items", itemForms, 0)
	f(t, "1 item", itemForms, 1)
	f(t, "2 items", itemForms, 2)
	f(t, "1,000 items", itemForms, 1000)
	f(t, "1.5 items", itemForms, 1.5)

	withoutZero := localize.Forms{One: "{0} item", Other: "{0} items"}
	f(t, "0 items", withoutZero, 0)
}

func TestCatalogTNZeroOverride(t *testing.T) {
	t.Parallel()

	c, _, ja := newCatalog(t)
	require.NoError(t, c.SelectLocale(ja))

	// The stored zero translation wins over the native zero text.
	require.Equal(t, "アイテムなし", c.TN(itemForms, 0))
	require.Equal(t, "1 個", c.TN(itemForms, 1))
	require.Equal(t, "3 個", c.TN(itemForms, 3))
}

func TestCatalogTNFallback(t *testing.T) {
	t.Parallel()

	en := localize.MustCLDRLocale(language.English)
	ja := localize.NewLocale(language.Japanese, nil)
	doc, err := gettext.ParseString(japaneseDocument)
	require.NoError(t, err)
	c, err := localize.NewCatalog(en, localize.LocalizedDocument{Locale: ja, Document: doc})
	require.NoError(t, err)
	require.NoError(t, c.SelectLocale(ja))

	// The entry has 2 values but the locale has a single plural form.
	// The native text of the form chosen by the Japanese rules is used.
	require.Equal(t, "1 items", c.TN(itemForms, 1))
	require.Equal(t, "2 items", c.TN(itemForms, 2))
	require.Equal(t, "0 items", c.TN(itemForms, 0))

	apples := localize.Forms{One: "{0} apple", Other: "{0} apples"}
	require.Equal(t, "1 apples", c.TN(apples, 1), "missing entry")

	// A plural id that doesn't match the entry is missing.
	other := localize.Forms{One: "{0} item", Other: "{0} things"}
	require.Equal(t, "2 things", c.TN(other, 2))
}

func TestCatalogTNArgs(t *testing.T) {
	t.Parallel()

	c, _, _ := newCatalog(t)
	forms := localize.Forms{One: "{1} has {0} apple", Other: "{1} has {0} apples"}
	require.Equal(t, "Ann has 1 apple", c.TN(forms, 1, "Ann"))
	require.Equal(t, "Ann has 4 apples", c.TCN("fruit", forms, 4, "Ann"))
}

func TestCatalogSelectLocaleErr(t *testing.T) {
	t.Parallel()

	c, _, ja := newCatalog(t)
	require.NoError(t, c.SelectLocale(ja))

	de := localize.MustCLDRLocale(language.German)
	err := c.SelectLocale(de)
	require.ErrorIs(t, err, localize.ErrUnsupportedLocale)
	require.ErrorContains(t, err, "de")
	require.ErrorContains(t, err, "supported: en, ja")
	require.True(t, ja.Equal(c.SelectedLocale()), "selection unchanged")
	require.False(t, c.TrySelectLocale(de))

	require.ErrorIs(t, c.SelectCulture(language.French), localize.ErrUnsupportedLocale)
	require.NoError(t, c.SelectCulture(language.English))
	require.Equal(t, "en", c.SelectedLocale().Culture())
}

func TestCatalogSelectLocaleOrNative(t *testing.T) {
	t.Parallel()

	c, en, ja := newCatalog(t)
	de := localize.MustCLDRLocale(language.German)
	fr := localize.MustCLDRLocale(language.French)

	require.True(t, ja.Equal(c.SelectLocaleOrNative(de, ja, en)))
	require.Equal(t, "bar", c.T("foo"))

	// None supported.
	require.True(t, en.Equal(c.SelectLocaleOrNative(de, fr)))
	require.Equal(t, "foo", c.T("foo"))

	require.True(t, en.Equal(c.SelectLocaleOrNative()))
}

func TestCatalogSupportedLocales(t *testing.T) {
	t.Parallel()

	c, _, _ := newCatalog(t)
	var cultures []string
	for _, l := range c.SupportedLocales() {
		cultures = append(cultures, l.Culture())
	}
	require.Equal(t, []string{"en", "ja"}, cultures)

	l, ok := c.LocaleByCulture(language.Japanese)
	require.True(t, ok)
	require.Equal(t, "ja", l.Culture())
	_, ok = c.LocaleByCulture(language.German)
	require.False(t, ok)

	l, conf := c.Match(language.MustParse("ja-JP"))
	require.Equal(t, "ja", l.Culture())
	require.NotEqual(t, language.No, conf)
}

func TestNewCatalogErr(t *testing.T) {
	t.Parallel()

	en := localize.MustCLDRLocale(language.English)
	ja := localize.NewLocale(language.Japanese, nil)
	doc, err := gettext.ParseString(japaneseDocument)
	require.NoError(t, err)

	_, err = localize.NewCatalog(en,
		localize.LocalizedDocument{Locale: ja, Document: doc},
		localize.LocalizedDocument{Locale: ja, Document: doc},
	)
	require.ErrorIs(t, err, localize.ErrDuplicateLocale)

	_, err = localize.NewCatalog(en, localize.LocalizedDocument{Locale: ja})
	require.ErrorIs(t, err, localize.ErrNoDocument)

	_, err = localize.NewCatalog(nil)
	require.ErrorIs(t, err, localize.ErrUnsupportedLocale)
}

func TestCatalogConcurrent(t *testing.T) {
	t.Parallel()

	c, en, ja := newCatalog(t)
	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				c.SelectLocaleOrNative(ja)
			} else {
				c.SelectLocaleOrNative(en)
			}
			_ = c.T("foo")
			_ = c.TN(itemForms, float64(i))
		}()
	}
	wg.Wait()
	require.Contains(t, []string{"foo", "bar"}, c.T("foo"))
}
