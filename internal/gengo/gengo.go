// Package gengo provides the Go code generator.
//
// The generated file declares the locales of a catalog together with their
// plural rules, so applications don't depend on the CLDR data bundled
// with this module at runtime.
package gengo

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/template"

	"mvdan.cc/gofumpt/format"

	"github.com/vrckit/localize"
	"github.com/vrckit/localize/internal/cldr"
	"github.com/vrckit/localize/internal/writepo"
)

//go:embed template.gotmpl
var templateGotmpl string

var tmpl = template.Must(template.New("gen").Funcs(template.FuncMap{
	"quote": strconv.Quote,
}).Parse(templateGotmpl))

var ErrNoPackage = errors.New("missing package name")

// Config describes the file to generate.
type Config struct {
	Package      string
	TemplateName string
	HeadComment  []string
	Native       *localize.Locale
	Locales      []*localize.Locale
}

type rule struct {
	Form string // Field name in plural.Definition.
	Rule string
}

type localeInfo struct {
	Name        string
	Culture     string
	Rules       []rule
	Translator  string // Import alias, empty if there is none.
	SpecialZero bool
}

type translatorImport struct {
	Alias string
	// Pkg is the subpackage name of the repository
	// "github.com/go-playground/locales".
	Pkg string
}

type tmplInfo struct {
	Generator    string
	HeadComment  []string
	Package      string
	TemplateName string
	TemplateFile string
	Native       localeInfo
	Locales      []localeInfo
	Translators  []translatorImport
}

// Write writes the generated and formatted Go file to w.
func Write(w io.Writer, c Config) error {
	src, err := Generate(c)
	if err != nil {
		return err
	}
	_, err = w.Write(src)
	return err
}

// Generate returns the generated and formatted Go file.
func Generate(c Config) ([]byte, error) {
	if c.Package == "" {
		return nil, ErrNoPackage
	}
	if c.Native == nil {
		return nil, fmt.Errorf("%w: native locale is nil", localize.ErrUnsupportedLocale)
	}
	if c.TemplateName == "" {
		c.TemplateName = localize.DefaultTemplateName
	}
	info := tmplInfo{
		Generator:    writepo.Generator,
		HeadComment:  c.HeadComment,
		Package:      c.Package,
		TemplateName: c.TemplateName,
		TemplateFile: c.TemplateName + ".pot",
	}

	imports := map[string]bool{}
	newLocaleInfo := func(l *localize.Locale, name string) localeInfo {
		li := localeInfo{
			Name:        name,
			Culture:     l.Culture(),
			SpecialZero: l.UseSpecialZero(),
		}
		def := l.Rules().Definition()
		for _, r := range []rule{
			{"Zero", def.Zero}, {"One", def.One}, {"Two", def.Two},
			{"Few", def.Few}, {"Many", def.Many}, {"Other", def.Other},
		} {
			if strings.TrimSpace(r.Rule) != "" {
				li.Rules = append(li.Rules, r)
			}
		}
		if l.Translator() != nil {
			if data, ok := cldr.ByTagOrBase(l.Tag()); ok {
				pkg := goPlaygroundLocalesPkg(data.Tag.String())
				li.Translator = "locales" + strings.ReplaceAll(pkg, "_", "")
				if !imports[pkg] {
					imports[pkg] = true
					info.Translators = append(info.Translators, translatorImport{
						Alias: li.Translator, Pkg: pkg,
					})
				}
			}
		}
		return li
	}

	info.Native = newLocaleInfo(c.Native, "Native")
	names := map[string]bool{}
	for _, l := range c.Locales {
		if l.Equal(c.Native) {
			continue
		}
		name := localeVarName(l.Culture())
		if names[name] {
			return nil, fmt.Errorf("%w: %s", localize.ErrDuplicateLocale, l)
		}
		names[name] = true
		info.Locales = append(info.Locales, newLocaleInfo(l, name))
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, info); err != nil {
		return nil, fmt.Errorf("rendering template: %w", err)
	}
	formatted, err := format.Source(buf.Bytes(), format.Options{})
	if err != nil {
		return nil, fmt.Errorf("formatting generated code: %w", err)
	}
	return formatted, nil
}

// localeVarName turns "de-CH" into "LocaleDeCH".
func localeVarName(culture string) string {
	s := strings.ReplaceAll(culture, "-", "_")

	// Capitalize each segment to form CamelCase.
	parts := strings.Split(s, "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}

	return "Locale" + strings.Join(parts, "")
}

func goPlaygroundLocalesPkg(culture string) string {
	return strings.ReplaceAll(culture, "-", "_")
}
