// Package extract scans Go source files for calls of translation methods
// and adds the translated texts to a catalog builder.
package extract

import (
	"cmp"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/tools/go/ast/inspector"

	"github.com/vrckit/localize"
	"github.com/vrckit/localize/gettext"
	"github.com/vrckit/localize/internal/fmtplaceholder"
	"github.com/vrckit/localize/internal/workqueue"
)

// Kind defines the signature of a translation method.
type Kind int8

const (
	KindSingular      Kind = iota // T(id, args...)
	KindContext                   // TC(context, id, args...)
	KindPlural                    // TN(forms, count, args...)
	KindPluralContext             // TCN(context, forms, count, args...)
)

var kindNames = [...]string{"singular", "context", "plural", "plural_context"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// ParseKind parses the names returned by Kind.String.
func ParseKind(s string) (Kind, error) {
	for i, n := range kindNames {
		if n == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown method kind %q", s)
}

// DefaultMethods are the methods of localize.Catalog and localize.CatalogReference.
func DefaultMethods() map[string]Kind {
	return map[string]Kind{
		"T":   KindSingular,
		"TC":  KindContext,
		"TN":  KindPlural,
		"TCN": KindPluralContext,
	}
}

var (
	ErrSource          = errors.New("source code contains errors")
	ErrSourceTextEmpty = errors.New("text empty")
	ErrSourceArgType   = errors.New(
		"non-literal argument (only string literals and constants are supported)",
	)
	ErrMissingPluralForm          = errors.New("missing required plural form")
	ErrMissingQuantityPlaceholder = errors.New(
		`missing quantity placeholder "{0}" in plural form Other`,
	)
	ErrMissingArgument = errors.New("placeholder without argument")
)

// Warning is a problem found at a call that doesn't abort the extraction.
type Warning struct {
	token.Position
	Err error
}

func (w Warning) Error() string { return w.Position.String() + ": " + w.Err.Error() }

// Sink receives the extracted texts. It's implemented by localize.CatalogBuilder.
type Sink interface {
	AddEntry(key gettext.Key, pluralID string, ref localize.Reference) error
}

type Statistics struct {
	SingularTotal      atomic.Int64
	ContextTotal       atomic.Int64
	PluralTotal        atomic.Int64
	PluralContextTotal atomic.Int64
	FilesTraversed     atomic.Int64
}

// Total returns the number of extracted calls.
func (s *Statistics) Total() int64 {
	return s.SingularTotal.Load() + s.ContextTotal.Load() +
		s.PluralTotal.Load() + s.PluralContextTotal.Load()
}

// Extractor feeds the texts of Go source files into a Sink.
// Files are processed on a work queue, call Wait on the queue
// before using the sink.
type Extractor struct {
	sink         Sink
	queue        *workqueue.Queue
	methods      map[string]Kind
	includeTests bool
	baseDir      string
	logger       *slog.Logger
	stats        Statistics

	lock     sync.Mutex
	warnings []Warning
}

type Option func(*Extractor)

// WithMethods replaces DefaultMethods.
func WithMethods(m map[string]Kind) Option {
	return func(e *Extractor) { e.methods = m }
}

// WithTests includes _test.go files.
func WithTests(enabled bool) Option {
	return func(e *Extractor) { e.includeTests = enabled }
}

// WithBaseDir makes references relative to dir instead of
// the directory passed to Dir.
func WithBaseDir(dir string) Option {
	return func(e *Extractor) { e.baseDir = dir }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

func New(sink Sink, queue *workqueue.Queue, opts ...Option) *Extractor {
	e := &Extractor{
		sink:    sink,
		queue:   queue,
		methods: DefaultMethods(),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Extractor) Stats() *Statistics { return &e.stats }

// Warnings returns all warnings ordered by position.
func (e *Extractor) Warnings() []Warning {
	e.lock.Lock()
	defer e.lock.Unlock()
	w := slices.Clone(e.warnings)
	slices.SortFunc(w, func(a, b Warning) int {
		return cmp.Or(
			cmp.Compare(a.Filename, b.Filename),
			cmp.Compare(a.Line, b.Line),
			cmp.Compare(a.Column, b.Column),
		)
	})
	return w
}

func (e *Extractor) warn(pos token.Position, err error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.warnings = append(e.warnings, Warning{Position: pos, Err: err})
}

// Dir queues every Go file below root. References are relative to root
// unless WithBaseDir is set.
// Hidden directories, directories starting with "_", testdata and
// vendor are skipped.
func (e *Extractor) Dir(root string) error {
	base := root
	if e.baseDir != "" {
		base = e.baseDir
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && (strings.HasPrefix(name, ".") ||
				strings.HasPrefix(name, "_") ||
				name == "testdata" || name == "vendor") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(name, ".go") ||
			(!e.includeTests && strings.HasSuffix(name, "_test.go")) {
			return nil
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		e.queue.Go(func() error { return e.File(path, filepath.ToSlash(rel)) })
		return nil
	})
}

// File extracts the texts of the file at path,
// referencing them as displayPath.
func (e *Extractor) File(path, displayPath string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading source file: %w", err)
	}
	return e.Source(displayPath, src)
}

// Source extracts the texts of src.
func (e *Extractor) Source(displayPath string, src []byte) error {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, displayPath, src, parser.SkipObjectResolution)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSource, err)
	}
	e.stats.FilesTraversed.Add(1)

	insp := inspector.New([]*ast.File{file})
	consts := stringConstants(insp)

	var firstErr error
	insp.Preorder([]ast.Node{(*ast.CallExpr)(nil)}, func(n ast.Node) {
		if firstErr != nil {
			return
		}
		call := n.(*ast.CallExpr)
		kind, ok := e.methods[calleeName(call)]
		if !ok {
			return
		}
		c := extractCall{
			e: e, consts: consts, call: call, kind: kind,
			pos: fset.Position(call.Pos()),
		}
		firstErr = c.run()
	})
	return firstErr
}

func calleeName(call *ast.CallExpr) string {
	switch f := call.Fun.(type) {
	case *ast.SelectorExpr:
		return f.Sel.Name
	case *ast.Ident:
		return f.Name
	}
	return ""
}

// stringConstants collects all untyped and string constants
// initialized with literals.
func stringConstants(insp *inspector.Inspector) map[string]string {
	consts := map[string]string{}
	insp.Preorder([]ast.Node{(*ast.GenDecl)(nil)}, func(n ast.Node) {
		decl := n.(*ast.GenDecl)
		if decl.Tok != token.CONST {
			return
		}
		for _, spec := range decl.Specs {
			vs := spec.(*ast.ValueSpec)
			for i, name := range vs.Names {
				if i >= len(vs.Values) {
					break
				}
				if v, ok := evalString(consts, vs.Values[i]); ok {
					consts[name.Name] = v
				}
			}
		}
	})
	return consts
}

// evalString evaluates string literals, constants and their concatenation.
func evalString(consts map[string]string, expr ast.Expr) (string, bool) {
	switch x := expr.(type) {
	case *ast.BasicLit:
		if x.Kind != token.STRING {
			return "", false
		}
		s, err := strconv.Unquote(x.Value)
		return s, err == nil
	case *ast.Ident:
		s, ok := consts[x.Name]
		return s, ok
	case *ast.ParenExpr:
		return evalString(consts, x.X)
	case *ast.BinaryExpr:
		if x.Op != token.ADD {
			return "", false
		}
		a, ok := evalString(consts, x.X)
		if !ok {
			return "", false
		}
		b, ok := evalString(consts, x.Y)
		return a + b, ok
	}
	return "", false
}

type extractCall struct {
	e      *Extractor
	consts map[string]string
	call   *ast.CallExpr
	kind   Kind
	pos    token.Position
}

func (c extractCall) run() error {
	args := c.call.Args
	var (
		context    string
		hasContext bool
	)
	if c.kind == KindContext || c.kind == KindPluralContext {
		if len(args) < 2 {
			return nil
		}
		var ok bool
		if context, ok = c.text(args[0]); !ok {
			return nil
		}
		hasContext = true
		args = args[1:]
	}

	var (
		id, pluralID string
		templates    []string
		argc         int
	)
	switch c.kind {
	case KindSingular, KindContext:
		if len(args) < 1 {
			return nil
		}
		var ok bool
		if id, ok = c.text(args[0]); !ok {
			return nil
		}
		if id == "" {
			c.e.warn(c.pos, ErrSourceTextEmpty)
			return nil
		}
		templates, argc = []string{id}, len(args)-1
	default:
		if len(args) < 2 {
			return nil
		}
		forms, ok := c.forms(args[0])
		if !ok {
			return nil
		}
		id, pluralID = forms.One, forms.Other
		templates = []string{forms.Zero, forms.One, forms.Two, forms.Few, forms.Many, forms.Other}
		argc = len(args) - 1 // The count is {0}.
		if !strings.Contains(forms.Other, "{0}") {
			c.e.warn(c.pos, ErrMissingQuantityPlaceholder)
		}
	}
	if c.call.Ellipsis == token.NoPos {
		for _, t := range templates {
			if n := fmtplaceholder.MaxIndex(t); n >= argc {
				c.e.warn(c.pos, fmt.Errorf("%w: {%d} in %q", ErrMissingArgument, n, t))
				break
			}
		}
	}

	switch c.kind {
	case KindSingular:
		c.e.stats.SingularTotal.Add(1)
	case KindContext:
		c.e.stats.ContextTotal.Add(1)
	case KindPlural:
		c.e.stats.PluralTotal.Add(1)
	case KindPluralContext:
		c.e.stats.PluralContextTotal.Add(1)
	}
	c.e.logger.Debug("found text",
		slog.String("pos", c.pos.String()), slog.String("kind", c.kind.String()))

	key := gettext.NewKey(id)
	if hasContext {
		key = gettext.NewContextKey(context, id)
	}
	ref := localize.Reference{Path: c.pos.Filename, Line: c.pos.Line}
	if err := c.e.sink.AddEntry(key, pluralID, ref); err != nil {
		return fmt.Errorf("%s: adding entry %s: %w", c.pos, key, err)
	}
	return nil
}

// text evaluates a string argument, warning if it isn't constant.
func (c extractCall) text(expr ast.Expr) (string, bool) {
	s, ok := evalString(c.consts, expr)
	if !ok {
		c.e.warn(c.pos, fmt.Errorf("%w: %s", ErrSourceArgType, typeKind(expr)))
	}
	return s, ok
}

var formFields = [...]string{"Zero", "One", "Two", "Few", "Many", "Other"}

// forms evaluates a localize.Forms composite literal.
func (c extractCall) forms(expr ast.Expr) (forms localize.Forms, ok bool) {
	cl, isLit := expr.(*ast.CompositeLit)
	if !isLit {
		c.e.warn(c.pos, fmt.Errorf("%w: %s", ErrSourceArgType, typeKind(expr)))
		return forms, false
	}
	for i, elt := range cl.Elts {
		field, value := "", elt
		if kv, isKV := elt.(*ast.KeyValueExpr); isKV {
			ident, isIdent := kv.Key.(*ast.Ident)
			if !isIdent {
				continue
			}
			field, value = ident.Name, kv.Value
		} else if i < len(formFields) {
			field = formFields[i]
		}
		s, isText := c.text(value)
		if !isText {
			return forms, false
		}
		switch field {
		case "Zero":
			forms.Zero = s
		case "One":
			forms.One = s
		case "Two":
			forms.Two = s
		case "Few":
			forms.Few = s
		case "Many":
			forms.Many = s
		case "Other":
			forms.Other = s
		}
	}
	if forms.One == "" || forms.Other == "" {
		c.e.warn(c.pos, fmt.Errorf("%w: One and Other are required", ErrMissingPluralForm))
		return forms, false
	}
	return forms, true
}

func typeKind(e ast.Expr) string { return fmt.Sprintf("%T", e) }
