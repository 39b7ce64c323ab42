package manifest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/require"

	"github.com/vrckit/localize/internal/extract"
	"github.com/vrckit/localize/internal/manifest"
)

const valid = `
workers: 4
targets:
  - name: ui
    sources: [./ui, ./widgets]
    catalog: ./locales/ui
    locales:
      - ja
      - culture: de
        special_zero: true
  - name: tools
    sources: [./tools]
    catalog: /abs/locales
    native: de
    template: tools
    include_tests: true
    methods:
      Tr: singular
      Trn: plural
`

func TestParse(t *testing.T) {
	t.Parallel()

	m, err := manifest.Parse([]byte(valid), "/project")
	require.NoError(t, err)
	require.Equal(t, 4, m.Workers)
	require.False(t, m.Sync)
	require.Equal(t, manifest.Defaults().Preferences, m.Preferences)
	require.Len(t, m.Targets, 2)

	ui, ok := m.Target("ui")
	require.True(t, ok)
	require.Equal(t, "messages", ui.Template)
	require.Equal(t, "en", ui.Native.Culture)
	require.Equal(t, []manifest.Locale{
		{Culture: "ja"},
		{Culture: "de", SpecialZero: true},
	}, ui.Locales)
	require.Equal(t, filepath.Join("/project", "locales", "ui"), m.Path(ui.Catalog))

	native, locales, err := ui.CLDRLocales()
	require.NoError(t, err)
	require.Equal(t, "en", native.Culture())
	require.Len(t, locales, 2)
	require.True(t, locales[1].UseSpecialZero())
	require.Equal(t, 3, locales[1].PluralCount())

	methods, err := ui.ExtractMethods()
	require.NoError(t, err)
	require.Equal(t, extract.DefaultMethods(), methods)

	tools, ok := m.Target("tools")
	require.True(t, ok)
	require.Equal(t, "/abs/locales", m.Path(tools.Catalog))
	require.True(t, tools.IncludeTests)
	methods, err = tools.ExtractMethods()
	require.NoError(t, err)
	require.Equal(t, map[string]extract.Kind{
		"Tr":  extract.KindSingular,
		"Trn": extract.KindPlural,
	}, methods)

	_, ok = m.Target("missing")
	require.False(t, ok)
}

func TestParseErr(t *testing.T) {
	t.Parallel()

	f := func(t *testing.T, input string) {
		t.Helper()
		_, err := manifest.Parse([]byte(input), "")
		require.ErrorIs(t, err, manifest.ErrInvalid)
	}

	f(t, "targets: [")
	f(t, "workers: 1")
	f(t, "workers: -1\ntargets: [{name: a, sources: [x], catalog: y}]")
	f(t, "targets: [{sources: [x], catalog: y}]")
	f(t, "targets: [{name: a, catalog: y}]")
	f(t, "targets: [{name: a, sources: [x]}]")
	f(t, "targets: [{name: a, sources: [x], catalog: y}, {name: a, sources: [x], catalog: y}]")
	f(t, "targets: [{name: a, sources: [x], catalog: y, locales: [tlh]}]")
	f(t, "targets: [{name: a, sources: [x], catalog: y, locales: ['not a tag!']}]")
	f(t, "targets: [{name: a, sources: [x], catalog: y, methods: {T: ordinal}}]")
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, manifest.DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(valid), 0o644))
	m, err := manifest.Load(path)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "ui"), m.Path("ui"))

	_, err = manifest.Load(filepath.Join(dir, "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseEnv(t *testing.T) {
	t.Parallel()

	e, err := manifest.ParseEnv(env.Options{Environment: map[string]string{}})
	require.NoError(t, err)
	require.Equal(t, manifest.Env{
		Manifest: "localize.yaml",
		Workers:  -1,
		LogLevel: "info",
	}, e)

	m := manifest.Manifest{Workers: 3}
	e.Apply(&m)
	require.Equal(t, 3, m.Workers)
	require.False(t, m.Sync)

	e, err = manifest.ParseEnv(env.Options{Environment: map[string]string{
		"LOCALIZE_MANIFEST":  "other.yaml",
		"LOCALIZE_WORKERS":   "0",
		"LOCALIZE_SYNC":      "true",
		"LOCALIZE_LOG_LEVEL": "debug",
	}})
	require.NoError(t, err)
	e.Apply(&m)
	require.Equal(t, 0, m.Workers)
	require.True(t, m.Sync)
	require.Equal(t, "other.yaml", e.Manifest)
	require.Equal(t, "debug", e.LogLevel)

	_, err = manifest.ParseEnv(env.Options{Environment: map[string]string{
		"LOCALIZE_WORKERS": "many",
	}})
	require.Error(t, err)
}

func TestLoadEnvDotenv(t *testing.T) {
	// Modifies the process environment.
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("LOCALIZE_LOG_LEVEL=warn\n"), 0o644))
	t.Setenv("LOCALIZE_LOG_LEVEL", "")
	require.NoError(t, os.Unsetenv("LOCALIZE_LOG_LEVEL"))

	e, err := manifest.LoadEnv(path, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	require.Equal(t, "warn", e.LogLevel)
}
