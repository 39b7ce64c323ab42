// Package manifest loads the extraction manifest (localize.yaml)
// and the environment configuration of the localize CLI.
package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/vrckit/localize"
	"github.com/vrckit/localize/internal/extract"
)

// DefaultFileName is the manifest file name looked up by the CLI.
const DefaultFileName = "localize.yaml"

var ErrInvalid = errors.New("invalid manifest")

// Manifest lists the extraction targets of a project.
type Manifest struct {
	// Workers limits the number of files parsed in parallel,
	// 0 means runtime.NumCPU().
	Workers int `yaml:"workers"`

	// Sync parses files one after another.
	Sync bool `yaml:"sync"`

	// Preferences is the path of the locale preference file.
	Preferences string `yaml:"preferences"`

	Targets []Target `yaml:"targets"`

	// dir is the directory of the manifest file.
	// Relative paths are resolved against it.
	dir string
}

// Target is a set of source directories sharing a catalog.
type Target struct {
	Name     string   `yaml:"name"`
	Sources  []string `yaml:"sources"`
	Catalog  string   `yaml:"catalog"`
	Template string   `yaml:"template"`
	Native   Locale   `yaml:"native"`
	Locales  []Locale `yaml:"locales"`

	// Methods maps method names to one of singular, context,
	// plural or plural_context. Defaults to T, TC, TN and TCN.
	Methods      map[string]string `yaml:"methods"`
	IncludeTests bool              `yaml:"include_tests"`
}

// Locale is either a culture like "de" or an object
// {culture: de, special_zero: true}.
type Locale struct {
	Culture     string `yaml:"culture"`
	SpecialZero bool   `yaml:"special_zero"`
}

func (l *Locale) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		return n.Decode(&l.Culture)
	}
	type plain Locale
	return n.Decode((*plain)(l))
}

// Locale creates the CLDR locale.
func (l Locale) Locale() (*localize.Locale, error) {
	tag, err := language.Parse(l.Culture)
	if err != nil {
		return nil, fmt.Errorf("parsing culture %q: %w", l.Culture, err)
	}
	var opts []localize.LocaleOption
	if l.SpecialZero {
		opts = append(opts, localize.WithSpecialZero())
	}
	return localize.CLDRLocale(tag, opts...)
}

// Defaults returns the defaults applied to unset fields.
func Defaults() Manifest {
	return Manifest{
		Preferences: ".localize/preferences.yaml",
	}
}

func (m Manifest) withDefaults() Manifest {
	d := Defaults()
	if m.Preferences == "" {
		m.Preferences = d.Preferences
	}
	for i := range m.Targets {
		t := &m.Targets[i]
		if t.Template == "" {
			t.Template = localize.DefaultTemplateName
		}
		if t.Native.Culture == "" {
			t.Native.Culture = "en"
		}
	}
	return m
}

// Validate checks that all required fields are set and valid.
func (m *Manifest) Validate() error {
	if m.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0", ErrInvalid)
	}
	if len(m.Targets) == 0 {
		return fmt.Errorf("%w: no targets", ErrInvalid)
	}
	names := map[string]struct{}{}
	for i, t := range m.Targets {
		if t.Name == "" {
			return fmt.Errorf("%w: targets[%d].name is required", ErrInvalid, i)
		}
		if _, ok := names[t.Name]; ok {
			return fmt.Errorf("%w: duplicate target %q", ErrInvalid, t.Name)
		}
		names[t.Name] = struct{}{}
		if len(t.Sources) == 0 {
			return fmt.Errorf("%w: target %q has no sources", ErrInvalid, t.Name)
		}
		if t.Catalog == "" {
			return fmt.Errorf("%w: target %q has no catalog", ErrInvalid, t.Name)
		}
		for _, l := range append([]Locale{t.Native}, t.Locales...) {
			if _, err := l.Locale(); err != nil {
				return fmt.Errorf("%w: target %q: %w", ErrInvalid, t.Name, err)
			}
		}
		if _, err := t.ExtractMethods(); err != nil {
			return fmt.Errorf("%w: target %q: %w", ErrInvalid, t.Name, err)
		}
	}
	return nil
}

// Parse parses a manifest. Relative paths are resolved against dir.
func Parse(b []byte, dir string) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	m = m.withDefaults()
	m.dir = dir
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load reads the manifest at path.
func Load(path string) (*Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return Parse(b, filepath.Dir(path))
}

// Path resolves p relative to the manifest directory.
func (m *Manifest) Path(p string) string {
	if filepath.IsAbs(p) || m.dir == "" {
		return p
	}
	return filepath.Join(m.dir, p)
}

// Target returns the target with the given name.
func (m *Manifest) Target(name string) (Target, bool) {
	for _, t := range m.Targets {
		if t.Name == name {
			return t, true
		}
	}
	return Target{}, false
}

// CLDRLocales creates the native locale and the translation locales.
func (t Target) CLDRLocales() (native *localize.Locale, locales []*localize.Locale, err error) {
	if native, err = t.Native.Locale(); err != nil {
		return nil, nil, err
	}
	for _, l := range t.Locales {
		loc, err := l.Locale()
		if err != nil {
			return nil, nil, err
		}
		locales = append(locales, loc)
	}
	return native, locales, nil
}

// ExtractMethods returns the methods to extract.
func (t Target) ExtractMethods() (map[string]extract.Kind, error) {
	if len(t.Methods) == 0 {
		return extract.DefaultMethods(), nil
	}
	m := make(map[string]extract.Kind, len(t.Methods))
	for name, kind := range t.Methods {
		k, err := extract.ParseKind(kind)
		if err != nil {
			return nil, fmt.Errorf("method %s: %w", name, err)
		}
		m[name] = k
	}
	return m, nil
}

// Env is the configuration read from environment variables.
// It overrides the manifest.
type Env struct {
	Manifest string `env:"LOCALIZE_MANIFEST" envDefault:"localize.yaml"`
	Workers  int    `env:"LOCALIZE_WORKERS" envDefault:"-1"` // Negative keeps the manifest value.
	Sync     bool   `env:"LOCALIZE_SYNC"`
	LogLevel string `env:"LOCALIZE_LOG_LEVEL" envDefault:"info"`
}

// LoadEnv loads the given .env files, if they exist, into the process
// environment without overriding variables that are set already,
// then parses the environment.
func LoadEnv(dotenvFiles ...string) (Env, error) {
	for _, f := range dotenvFiles {
		err := godotenv.Load(f)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Env{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return ParseEnv(env.Options{})
}

// ParseEnv parses the environment, or opts.Environment if set.
func ParseEnv(opts env.Options) (Env, error) {
	e, err := env.ParseAsWithOptions[Env](opts)
	if err != nil {
		return Env{}, fmt.Errorf("parsing environment: %w", err)
	}
	return e, nil
}

// Apply overrides the fields of m that are set in e.
// LOCALIZE_SYNC can only enable synchronous parsing.
func (e Env) Apply(m *Manifest) {
	if e.Workers >= 0 {
		m.Workers = e.Workers
	}
	if e.Sync {
		m.Sync = true
	}
}
