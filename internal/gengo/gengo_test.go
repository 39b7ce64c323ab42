package gengo_test

import (
	"bytes"
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/vrckit/localize"
	"github.com/vrckit/localize/internal/gengo"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	en := localize.MustCLDRLocale(language.English)
	src, err := gengo.Generate(gengo.Config{
		Package:     "locales",
		HeadComment: []string{"Copyright 2026 The Authors."},
		Native:      en,
		Locales: []*localize.Locale{
			en, // Skipped, it's native.
			localize.MustCLDRLocale(language.German, localize.WithSpecialZero()),
			localize.MustCLDRLocale(language.MustParse("de-CH")),
			localize.MustCLDRLocale(language.Japanese),
		},
	})
	require.NoError(t, err)

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "locales_gen.go", src, parser.ParseComments)
	require.NoError(t, err, string(src))
	require.Equal(t, "locales", f.Name.Name)
	require.True(t, ast.IsGenerated(f))

	var imports []string
	for _, s := range f.Imports {
		p, err := strconv.Unquote(s.Path.Value)
		require.NoError(t, err)
		imports = append(imports, p)
	}
	require.Equal(t, []string{
		"errors",
		"fmt",
		"io/fs",
		"path/filepath",
		"github.com/go-playground/locales/de",
		"github.com/go-playground/locales/en",
		"github.com/go-playground/locales/ja",
		"golang.org/x/text/language",
		"github.com/vrckit/localize",
		"github.com/vrckit/localize/gettext",
		"github.com/vrckit/localize/plural",
	}, imports)

	var decls []string
	for _, d := range f.Decls {
		switch d := d.(type) {
		case *ast.GenDecl:
			for _, s := range d.Specs {
				if v, ok := s.(*ast.ValueSpec); ok {
					decls = append(decls, v.Names[0].Name)
				}
			}
		case *ast.FuncDecl:
			decls = append(decls, d.Name.Name+"()")
		}
	}
	require.Equal(t, []string{
		"TemplateName",
		"Native",
		"LocaleDe",
		"LocaleDeCH",
		"LocaleJa",
		"Locales()",
		"LoadCatalog()",
	}, decls)

	require.Contains(t, string(src), `const TemplateName = "messages"`)
	require.Contains(t, string(src), `// Copyright 2026 The Authors.`)
	require.Contains(t, string(src), `language.MustParse("de-CH")`)
	require.Contains(t, string(src), `localize.WithTranslator(localesde.New())`)
	require.Equal(t, 1, bytes.Count(src, []byte("localize.WithSpecialZero()")))
	require.Contains(t, string(src), `"i = 1 and v = 0 @integer 1"`)
}

func TestGenerateErr(t *testing.T) {
	t.Parallel()

	en := localize.MustCLDRLocale(language.English)
	_, err := gengo.Generate(gengo.Config{Native: en})
	require.ErrorIs(t, err, gengo.ErrNoPackage)

	_, err = gengo.Generate(gengo.Config{Package: "x"})
	require.ErrorIs(t, err, localize.ErrUnsupportedLocale)

	de := localize.MustCLDRLocale(language.German)
	_, err = gengo.Generate(gengo.Config{
		Package: "x", Native: en, Locales: []*localize.Locale{de, de},
	})
	require.ErrorIs(t, err, localize.ErrDuplicateLocale)
}

func TestWrite(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := gengo.Write(&buf, gengo.Config{
		Package:      "x",
		TemplateName: "tools",
		Native:       localize.MustCLDRLocale(language.Japanese),
	})
	require.NoError(t, err)
	require.Contains(t, buf.String(), `const TemplateName = "tools"`)
	require.NotContains(t, buf.String(), "localize.WithSpecialZero()")
}
