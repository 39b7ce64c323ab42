package localize_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vrckit/localize"
)

type label struct {
	text     string
	children []localize.Element
}

func (l *label) Text() string                 { return l.text }
func (l *label) SetText(text string)          { l.text = text }
func (l *label) Children() []localize.Element { return l.children }

func TestElementLocalizer(t *testing.T) {
	t.Parallel()

	c, en, ja := newCatalog(t)
	ref := localize.NewCatalogReference(c)
	require.NoError(t, ref.SelectLocale(ja))

	greeting := &label{text: "loc:foo"}
	plain := &label{text: "foo"}
	missing := &label{text: "loc:missing"}
	root := &label{children: []localize.Element{greeting, plain, missing}}

	l := localize.NewElementLocalizer(ref)
	l.Localize(root)
	require.Equal(t, "bar", greeting.text)
	require.Equal(t, "foo", plain.text)
	require.Equal(t, "missing", missing.text)

	key, ok := l.Key(greeting)
	require.True(t, ok)
	require.Equal(t, "foo", key)
	_, ok = l.Key(plain)
	require.False(t, ok)

	require.NoError(t, ref.SelectLocale(en))
	require.Equal(t, "foo", greeting.text)
	require.NoError(t, ref.SelectLocale(ja))
	require.Equal(t, "bar", greeting.text)

	l.Forget(root)
	require.NoError(t, ref.SelectLocale(en))
	require.Equal(t, "bar", greeting.text, "forgotten trees are not retranslated")

	l.Localize(root)
	require.Equal(t, "bar", greeting.text, "the translation is no key anymore")

	l.Close()
}
