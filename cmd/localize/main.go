package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"golang.org/x/text/language"

	"github.com/vrckit/localize"
	"github.com/vrckit/localize/gettext"
	"github.com/vrckit/localize/internal/catalogdb"
	"github.com/vrckit/localize/internal/extract"
	"github.com/vrckit/localize/internal/gengo"
	"github.com/vrckit/localize/internal/manifest"
	"github.com/vrckit/localize/internal/prefs"
	"github.com/vrckit/localize/internal/workqueue"
)

func main() {
	if err := run(os.Args, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "ERR:", err)
		os.Exit(1)
	}
}

var (
	ErrSourceErrors   = errors.New("source code contains errors")
	ErrNoCommand      = errors.New("no command")
	ErrUnknownCommand = errors.New("unknown command")
	ErrCheckFailed    = errors.New("catalog check failed")
	ErrUnknownTarget  = errors.New("unknown target")
)

const commands = "[extract,check,generate,prefs]"

func run(osArgs []string, w io.Writer) error {
	if len(osArgs) < 2 {
		return fmt.Errorf("%w, use either of: %s", ErrNoCommand, commands)
	}
	env, err := manifest.LoadEnv(".env")
	if err != nil {
		return err
	}
	switch osArgs[1] {
	case "extract":
		return runExtract(osArgs, env, w)
	case "check":
		return runCheck(osArgs, env, w)
	case "generate":
		return runGenerate(osArgs, env, w)
	case "prefs":
		return runPrefs(osArgs, env, w)
	}
	return fmt.Errorf("%w %q, use either of: %s",
		ErrUnknownCommand, osArgs[1], commands)
}

// Config holds the flags shared by all commands.
type Config struct {
	ManifestPath string
	Target       string
	QuietMode    bool
	VerboseMode  bool
}

func (c *Config) register(cli *flag.FlagSet, env manifest.Env) {
	cli.StringVar(&c.ManifestPath, "m", env.Manifest, "manifest file path")
	cli.StringVar(&c.Target, "t", "", "target name, all targets if empty")
	cli.BoolVar(&c.QuietMode, "q", false, "disable all console logging")
	cli.BoolVar(&c.VerboseMode, "v", false, "enables verbose console logging")
}

// logger creates the console logger. -q and -v take precedence
// over LOCALIZE_LOG_LEVEL.
func (c *Config) logger(w io.Writer, env manifest.Env) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(env.LogLevel)); err != nil {
		return nil, fmt.Errorf("LOCALIZE_LOG_LEVEL: %w", err)
	}
	switch {
	case c.QuietMode:
		return slog.New(slog.DiscardHandler), nil
	case c.VerboseMode:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

func (c *Config) targets(m *manifest.Manifest) ([]manifest.Target, error) {
	if c.Target == "" {
		return m.Targets, nil
	}
	t, ok := m.Target(c.Target)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownTarget, c.Target)
	}
	return []manifest.Target{t}, nil
}

func parse(
	cli *flag.FlagSet, osArgs []string, c *Config, env manifest.Env, w io.Writer,
) (*manifest.Manifest, *slog.Logger, error) {
	cli.SetOutput(w)
	if err := cli.Parse(osArgs[2:]); err != nil {
		return nil, nil, fmt.Errorf("parsing arguments: %w", err)
	}
	log, err := c.logger(w, env)
	if err != nil {
		return nil, nil, err
	}
	m, err := manifest.Load(c.ManifestPath)
	if err != nil {
		return nil, nil, err
	}
	env.Apply(m)
	return m, log, nil
}

type ConfigExtract struct {
	Config
	Sync   bool
	Strict bool
}

func runExtract(osArgs []string, env manifest.Env, w io.Writer) error {
	var c ConfigExtract
	cli := flag.NewFlagSet(osArgs[0]+" extract", flag.ContinueOnError)
	c.register(cli, env)
	cli.BoolVar(&c.Sync, "sync", false, "parse files one after another")
	cli.BoolVar(&c.Strict, "strict", false, "fail if any call can't be extracted")
	m, log, err := parse(cli, osArgs, &c.Config, env, w)
	if err != nil {
		return err
	}
	targets, err := c.targets(m)
	if err != nil {
		return err
	}

	start := time.Now()
	opts := []workqueue.Option{workqueue.WithSynchronous(m.Sync || c.Sync)}
	if m.Workers > 0 {
		opts = append(opts, workqueue.WithLimit(m.Workers))
	}
	q := workqueue.New(opts...)

	var warnings []extract.Warning
	var files int64
	for _, t := range targets {
		e, err := extractTarget(m, t, q, log)
		if err != nil {
			return fmt.Errorf("target %s: %w", t.Name, err)
		}
		warnings = append(warnings, e.Warnings()...)
		files += e.Stats().FilesTraversed.Load()
	}

	if len(warnings) > 0 {
		fmt.Fprintf(w, "SOURCE ERRORS (%d):\n", len(warnings))
		for _, e := range warnings {
			fmt.Fprintf(w, " %s\n", e.Error())
		}
		if c.Strict {
			return ErrSourceErrors
		}
	}
	if !c.QuietMode {
		fmt.Fprintf(w, "files scanned: %d\n", files)
		fmt.Fprintf(w, "time total: %s\n", time.Since(start).String())
	}
	return nil
}

func extractTarget(
	m *manifest.Manifest, t manifest.Target, q *workqueue.Queue, log *slog.Logger,
) (*extract.Extractor, error) {
	log = log.With(slog.String("target", t.Name))
	native, locales, err := t.CLDRLocales()
	if err != nil {
		return nil, err
	}
	methods, err := t.ExtractMethods()
	if err != nil {
		return nil, err
	}
	b, err := localize.NewCatalogBuilder(m.Path(t.Catalog), native, locales,
		localize.WithTemplateName(t.Template),
		localize.WithBuilderLogger(log))
	if err != nil {
		return nil, err
	}
	b.NewSession()

	e := extract.New(b, q,
		extract.WithMethods(methods),
		extract.WithTests(t.IncludeTests),
		extract.WithBaseDir(m.Path(".")),
		extract.WithLogger(log))
	for _, src := range t.Sources {
		if err := e.Dir(m.Path(src)); err != nil {
			return nil, fmt.Errorf("walking %s: %w", src, err)
		}
	}
	if err := q.Wait(); err != nil {
		return nil, err
	}
	if err := b.Prune(); err != nil {
		return nil, err
	}
	b.SortEntries(nil)
	if err := b.Save(); err != nil {
		return nil, err
	}

	stats := e.Stats()
	log.Info("extracted",
		slog.Int64("singular", stats.SingularTotal.Load()),
		slog.Int64("context", stats.ContextTotal.Load()),
		slog.Int64("plural", stats.PluralTotal.Load()),
		slog.Int64("plural_context", stats.PluralContextTotal.Load()),
		slog.Int64("files", stats.FilesTraversed.Load()))
	return e, nil
}

func runCheck(osArgs []string, env manifest.Env, w io.Writer) error {
	var c Config
	cli := flag.NewFlagSet(osArgs[0]+" check", flag.ContinueOnError)
	c.register(cli, env)
	m, log, err := parse(cli, osArgs, &c, env, w)
	if err != nil {
		return err
	}
	targets, err := c.targets(m)
	if err != nil {
		return err
	}

	db := catalogdb.New(catalogdb.WithLogger(log))
	failed := false
	for _, t := range targets {
		native, locales, err := t.CLDRLocales()
		if err != nil {
			return err
		}
		dir := m.Path(t.Catalog)
		for _, l := range locales {
			path := filepath.Join(dir, l.Culture()+".po")
			doc, err := db.Document(path)
			if err == nil {
				err = localize.VerifyLocaleMatches(doc, l)
			}
			if err != nil {
				failed = true
				fmt.Fprintf(w, "%s %s: %v\n", t.Name, l, err)
				continue
			}
			translated, total := progress(doc)
			fmt.Fprintf(w, "%s %s: %d/%d translated\n", t.Name, l, translated, total)
		}
		if _, err := db.Catalog(dir, native, locales); err != nil {
			failed = true
			fmt.Fprintf(w, "%s: %v\n", t.Name, err)
		}
	}
	if failed {
		return ErrCheckFailed
	}
	return nil
}

// progress counts the non-obsolete entries and those fully translated.
func progress(doc *gettext.Document) (translated, total int) {
	for _, e := range doc.Entries()[1:] {
		if e.IsObsolete {
			continue
		}
		total++
		if e.IsPlural() {
			if !slices.Contains(e.PluralValues, "") {
				translated++
			}
		} else if e.Value != "" {
			translated++
		}
	}
	return translated, total
}

type ConfigGenerate struct {
	Config
	GoPkgName string
	OutGoPath string
}

func runGenerate(osArgs []string, env manifest.Env, w io.Writer) error {
	var c ConfigGenerate
	cli := flag.NewFlagSet(osArgs[0]+" generate", flag.ContinueOnError)
	c.register(cli, env)
	cli.StringVar(&c.GoPkgName, "pkg", "locales", "generated Go package name")
	cli.StringVar(&c.OutGoPath, "o", "./locales/locales_gen.go",
		"generated Go file output path")
	m, log, err := parse(cli, osArgs, &c.Config, env, w)
	if err != nil {
		return err
	}
	targets, err := c.targets(m)
	if err != nil {
		return err
	}
	if len(targets) != 1 {
		return fmt.Errorf("%w: choose one of %d targets using -t",
			ErrUnknownTarget, len(targets))
	}
	t := targets[0]
	native, locales, err := t.CLDRLocales()
	if err != nil {
		return err
	}
	src, err := gengo.Generate(gengo.Config{
		Package:      c.GoPkgName,
		TemplateName: t.Template,
		Native:       native,
		Locales:      locales,
	})
	if err != nil {
		return fmt.Errorf("generating Go code: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.OutGoPath), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(c.OutGoPath, src, 0o644); err != nil {
		return fmt.Errorf("writing Go code: %w", err)
	}
	log.Info("generated", slog.String("target", t.Name), slog.String("path", c.OutGoPath))
	return nil
}

// runPrefs lists the stored locale preferences, or with
// "prefs set <target> <culture>" selects culture for target.
func runPrefs(osArgs []string, env manifest.Env, w io.Writer) error {
	var c Config
	cli := flag.NewFlagSet(osArgs[0]+" prefs", flag.ContinueOnError)
	c.register(cli, env)
	m, log, err := parse(cli, osArgs, &c, env, w)
	if err != nil {
		return err
	}
	store := prefs.NewFileStore(m.Path(m.Preferences))

	args := cli.Args()
	if len(args) == 0 {
		all, err := store.All()
		if err != nil {
			return err
		}
		keys := make([]string, 0, len(all))
		for k := range all {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "%s: %s\n", k, all[k])
		}
		return nil
	}
	if len(args) != 3 || args[0] != "set" {
		return fmt.Errorf("%w: use prefs set <target> <culture>", ErrUnknownCommand)
	}

	t, ok := m.Target(args[1])
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownTarget, args[1])
	}
	tag, err := language.Parse(args[2])
	if err != nil {
		return fmt.Errorf("parsing culture: %w", err)
	}
	native, locales, err := t.CLDRLocales()
	if err != nil {
		return err
	}
	catalog, err := catalogdb.New(catalogdb.WithLogger(log)).
		Catalog(m.Path(t.Catalog), native, locales)
	if err != nil {
		return err
	}

	registry := localize.NewSyncRegistry(
		localize.WithPreferenceStore(store),
		localize.WithRegistryLogger(log),
	)
	defer registry.Close()
	s := registry.Register(t.Name, localize.NewCatalogReference(catalog))
	if err := s.SelectCulture(tag); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s: %s\n", t.Name, s.SelectedLocale())
	return nil
}
