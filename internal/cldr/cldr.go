// Package cldr provides CLDR cardinal plural rules and go-playground
// culture translators for the languages supported out of the box.
//
// The rule strings are copied from the CLDR supplemental plurals.xml:
// https://unicode.org/cldr/charts/latest/supplemental/language_plural_rules.html
package cldr

import (
	"cmp"
	"slices"

	"github.com/go-playground/locales"
	"github.com/go-playground/locales/ar"
	"github.com/go-playground/locales/de"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/es"
	"github.com/go-playground/locales/fr"
	"github.com/go-playground/locales/ja"
	"github.com/go-playground/locales/ko"
	"github.com/go-playground/locales/nl"
	"github.com/go-playground/locales/pl"
	"github.com/go-playground/locales/ru"
	"github.com/go-playground/locales/sv"
	"github.com/go-playground/locales/uk"
	"github.com/go-playground/locales/zh"
	"golang.org/x/text/language"

	"github.com/vrckit/localize/plural"
)

// Language is the CLDR data of a single language.
type Language struct {
	Tag    language.Tag
	Plural plural.Definition

	// NewTranslator creates the go-playground translator
	// used for number formatting.
	NewTranslator func() locales.Translator
}

const (
	otherDecimals = "@decimal 0.0~1.5, 10.0, 100.0, 1000.0, 10000.0, 100000.0, 1000000.0, …"

	// "one" is i = 1 and v = 0.
	oneIntegerOne = "i = 1 and v = 0 @integer 1"

	// Languages with many for multiples of a million, written in compact notation.
	manyMillion = "e = 0 and i != 0 and i % 1000000 = 0 and v = 0 or e != 0..5 " +
		"@integer 1000000, 1c6, 2c6, 3c6, 4c6, 5c6, 6c6, … " +
		"@decimal 1.0000001c6, 1.1c6, 2.0000001c6, 2.1c6, 3.0000001c6, 3.1c6, …"
)

var (
	germanic = plural.Definition{
		One: oneIntegerOne,
		Other: " @integer 0, 2~16, 100, 1000, 10000, 100000, 1000000, … " +
			otherDecimals,
	}
	noPlural = plural.Definition{
		Other: " @integer 0~15, 100, 1000, 10000, 100000, 1000000, … " + otherDecimals,
	}
	eastSlavic = plural.Definition{
		One: "v = 0 and i % 10 = 1 and i % 100 != 11 " +
			"@integer 1, 21, 31, 41, 51, 61, 71, 81, 101, 1001, …",
		Few: "v = 0 and i % 10 = 2..4 and i % 100 != 12..14 " +
			"@integer 2~4, 22~24, 32~34, 42~44, 52~54, 62, 102, 1002, …",
		Many: "v = 0 and i % 10 = 0 or v = 0 and i % 10 = 5..9 or " +
			"v = 0 and i % 100 = 11..14 " +
			"@integer 0, 5~19, 100, 1000, 10000, 100000, 1000000, …",
		Other: "   " + otherDecimals,
	}
)

var languages = []Language{
	{Tag: language.English, Plural: germanic, NewTranslator: en.New},
	{Tag: language.German, Plural: germanic, NewTranslator: de.New},
	{Tag: language.Dutch, Plural: germanic, NewTranslator: nl.New},
	{Tag: language.Swedish, Plural: germanic, NewTranslator: sv.New},
	{Tag: language.Japanese, Plural: noPlural, NewTranslator: ja.New},
	{Tag: language.Chinese, Plural: noPlural, NewTranslator: zh.New},
	{Tag: language.Korean, Plural: noPlural, NewTranslator: ko.New},
	{
		Tag: language.French,
		Plural: plural.Definition{
			One:  "i = 0,1 @integer 0, 1 @decimal 0.0~1.5",
			Many: manyMillion,
			Other: " @integer 2~16, 100, 1000, 10000, 100000, 1c6, 2c6, 3c6, 4c6, 5c6, 6c6, … " +
				"@decimal 2.0~3.5, 10.0, 100.0, 1000.0, 10000.0, 100000.0, 1000000.0, …",
		},
		NewTranslator: fr.New,
	},
	{
		Tag: language.Spanish,
		Plural: plural.Definition{
			One:  "n = 1 @integer 1 @decimal 1.0, 1.00, 1.000, 1.0000",
			Many: manyMillion,
			Other: " @integer 0, 2~16, 100, 1000, 10000, 100000, 1c6, 2c6, 3c6, 4c6, 5c6, 6c6, … " +
				"@decimal 0.0~0.9, 1.1~1.6, 10.0, 100.0, 1000.0, 10000.0, 100000.0, 1000000.0, …",
		},
		NewTranslator: es.New,
	},
	{Tag: language.Russian, Plural: eastSlavic, NewTranslator: ru.New},
	{Tag: language.Ukrainian, Plural: eastSlavic, NewTranslator: uk.New},
	{
		Tag: language.Polish,
		Plural: plural.Definition{
			One: oneIntegerOne,
			Few: "v = 0 and i % 10 = 2..4 and i % 100 != 12..14 " +
				"@integer 2~4, 22~24, 32~34, 42~44, 52~54, 62, 102, 1002, …",
			Many: "v = 0 and i != 1 and i % 10 = 0..1 or v = 0 and i % 10 = 5..9 or " +
				"v = 0 and i % 100 = 12..14 " +
				"@integer 0, 5~19, 100, 1000, 10000, 100000, 1000000, …",
			Other: "   " + otherDecimals,
		},
		NewTranslator: pl.New,
	},
	{
		Tag: language.Arabic,
		Plural: plural.Definition{
			Zero: "n = 0 @integer 0 @decimal 0.0, 0.00, 0.000, 0.0000",
			One:  "n = 1 @integer 1 @decimal 1.0, 1.00, 1.000, 1.0000",
			Two:  "n = 2 @integer 2 @decimal 2.0, 2.00, 2.000, 2.0000",
			Few: "n % 100 = 3..10 @integer 3~10, 103~110, 1003, … " +
				"@decimal 3.0, 4.0, 5.0, 6.0, 7.0, 8.0, 9.0, 10.0, 103.0, 1003.0, …",
			Many: "n % 100 = 11..99 @integer 11~26, 111, 1011, … " +
				"@decimal 11.0, 12.0, 13.0, 14.0, 15.0, 16.0, 17.0, 18.0, 111.0, 1011.0, …",
			Other: " @integer 100~102, 200~202, 300~302, 400~402, 500~502, 600, " +
				"1000, 10000, 100000, 1000000, … " +
				"@decimal 0.1~0.9, 1.1~1.7, 10.1, 100.0, 1000.0, 10000.0, 100000.0, 1000000.0, …",
		},
		NewTranslator: ar.New,
	},
}

var (
	byTag  = make(map[string]int, len(languages))
	byBase = make(map[language.Base]int, len(languages))
)

func init() {
	for i, l := range languages {
		byTag[l.Tag.String()] = i
		b, _ := l.Tag.Base()
		if _, ok := byBase[b]; !ok {
			byBase[b] = i
		}
	}
}

// ByTag returns the data for exactly tag.
func ByTag(tag language.Tag) (Language, bool) {
	i, ok := byTag[tag.String()]
	if !ok {
		return Language{}, false
	}
	return languages[i], true
}

// ByBase returns the data for the base language.
func ByBase(base language.Base) (Language, bool) {
	i, ok := byBase[base]
	if !ok {
		return Language{}, false
	}
	return languages[i], true
}

// ByTagOrBase returns the data for tag and falls back to its base language,
// so "de-CH" resolves to "de".
func ByTagOrBase(tag language.Tag) (Language, bool) {
	if l, ok := ByTag(tag); ok {
		return l, true
	}
	base, conf := tag.Base()
	if conf == language.No {
		return Language{}, false
	}
	return ByBase(base)
}

// Tags returns the tags of all supported languages sorted alphabetically.
func Tags() []language.Tag {
	tags := make([]language.Tag, len(languages))
	for i, l := range languages {
		tags[i] = l.Tag
	}
	slices.SortFunc(tags, func(a, b language.Tag) int {
		return cmp.Compare(a.String(), b.String())
	})
	return tags
}
