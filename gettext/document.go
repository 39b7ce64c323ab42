// Package gettext provides a line-preserving model of GNU gettext `.po` and
// `.pot` files together with an incremental, merge-aware document builder.
//
// Documents are immutable snapshots. Every physical line of the input belongs to
// exactly one entry, so writing a parsed document reproduces its input.
package gettext

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/text/language"
)

var ErrNoLanguage = errors.New("header has no Language")

// Document is an ordered, immutable collection of entries.
// The first entry is always the header entry.
type Document struct {
	entries []Entry
	index   map[Key]int
}

// NewDocument validates entries and returns them as a document.
func NewDocument(entries []Entry) (*Document, error) {
	return newDocument(slices.Clone(entries), nil)
}

func newDocument(entries []Entry, starts []int) (*Document, error) {
	if len(entries) == 0 || !entries[0].IsHeader() {
		raw := ""
		if len(entries) > 0 {
			raw = rawLines(entries[0].Lines)
		}
		return nil, &Error{Raw: raw, Err: ErrMissingHeader}
	}
	index := make(map[Key]int, len(entries))
	for i, e := range entries {
		k := e.Key()
		if j, ok := index[k]; ok {
			err := &Error{Err: ErrDuplicateEntry}
			if starts != nil {
				err.Line = starts[i]
				err.Raw = fmt.Sprintf("%s (line %d) and %s (line %d)",
					entries[j].Key(), starts[j], k, starts[i])
			} else {
				err.Raw = fmt.Sprintf("%s (entry %d) and %s (entry %d)",
					entries[j].Key(), j, k, i)
			}
			return nil, err
		}
		index[k] = i
	}
	return &Document{entries: entries, index: index}, nil
}

// Parse reads a document from r.
func Parse(r io.Reader) (*Document, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var lines []Line
	for n := 1; sc.Scan(); n++ {
		l, err := ParseLine(sc.Text())
		if err != nil {
			var perr *Error
			if errors.As(err, &perr) {
				perr.Line = n
			}
			return nil, err
		}
		lines = append(lines, l)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading lines: %w", err)
	}
	return parseLines(lines)
}

// ParseString is like Parse but reads from s.
func ParseString(s string) (*Document, error) { return Parse(strings.NewReader(s)) }

// LoadFrom parses the document stored at path.
func LoadFrom(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	d, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return d, nil
}

// parseLines groups lines into entries.
//
// Comments accumulate until the next content line and then belong to it.
// A blank line after accumulated comments hands them to the previous entry.
// A new entry starts at each msgctxt and at each msgid not directly
// preceded by an unconsumed msgctxt.
func parseLines(lines []Line) (*Document, error) {
	var (
		groups       [][]Line
		starts       []int
		current      []Line
		currentStart int
		pending      []Line
		pendingStart int
		awaitingID   bool
		sawContent   bool
	)
	flush := func() {
		if current != nil {
			groups = append(groups, current)
			starts = append(starts, currentStart)
		}
		current = nil
	}
	begin := func(n int, l Line) {
		flush()
		currentStart = n
		if len(pending) > 0 {
			currentStart = pendingStart
		}
		current = append(pending, l)
		pending = nil
	}
	hold := func(n int, l Line) {
		if len(pending) == 0 {
			pendingStart = n
		}
		pending = append(pending, l)
	}

	for i, l := range lines {
		n := i + 1
		eff, err := l.Unwrapped()
		if err != nil {
			return nil, &Error{Line: n, Raw: l.Raw, Err: ErrMalformedLine}
		}

		switch {
		case l.IsWhitespace():
			if current == nil {
				hold(n, l)
				continue
			}
			current = append(current, pending...)
			current = append(current, l)
			pending = nil
			continue
		case eff.IsCommentOrWhitespace():
			hold(n, l)
			continue
		}

		k := eff.Keyword
		if !sawContent {
			sawContent = true
			if k.Name != KeywordMsgid || k.Indexed {
				return nil, &Error{Line: n, Raw: l.Raw, Err: ErrMissingHeader}
			}
		}

		switch {
		case k.Name == KeywordMsgctxt && !k.Indexed:
			if awaitingID {
				return nil, &Error{Line: n, Raw: l.Raw, Err: ErrMsgctxtSequence}
			}
			begin(n, l)
			awaitingID = true
		case k.Name == KeywordMsgid && !k.Indexed:
			if awaitingID {
				current = append(current, pending...)
				current = append(current, l)
				pending = nil
			} else {
				begin(n, l)
			}
			awaitingID = false
		default:
			current = append(current, pending...)
			current = append(current, l)
			pending = nil
			if !k.IsZero() {
				awaitingID = false
			}
		}
	}
	if current == nil {
		return nil, &Error{Raw: rawLines(pending), Err: ErrMissingHeader}
	}
	current = append(current, pending...)
	flush()

	entries := make([]Entry, len(groups))
	for i, g := range groups {
		e, err := ParseEntry(g)
		if err != nil {
			var perr *Error
			if errors.As(err, &perr) {
				perr.Line = starts[i]
				for j, l := range g {
					if l.Raw == perr.Raw {
						perr.Line = starts[i] + j
						break
					}
				}
			}
			return nil, err
		}
		entries[i] = e
	}
	if entries[0].ID != "" {
		return nil, &Error{Line: starts[0], Raw: rawLines(entries[0].Lines), Err: ErrMissingHeader}
	}
	return newDocument(entries, starts)
}

// Len returns the number of entries including the header.
func (d *Document) Len() int { return len(d.entries) }

// Entry returns the i-th entry.
func (d *Document) Entry(i int) Entry { return d.entries[i] }

// Entries returns a copy of all entries in order.
func (d *Document) Entries() []Entry { return slices.Clone(d.entries) }

// Header returns the header entry.
func (d *Document) Header() Entry { return d.entries[0] }

// Lookup finds the entry identified by k.
func (d *Document) Lookup(k Key) (Entry, bool) {
	i, ok := d.index[k]
	if !ok {
		return Entry{}, false
	}
	return d.entries[i], true
}

// HeaderValue returns the value of the "name: value" line in the header msgstr.
func (d *Document) HeaderValue(name string) (string, bool) {
	for _, line := range strings.Split(d.Header().Value, "\n") {
		n, v, ok := strings.Cut(line, ":")
		if ok && strings.EqualFold(strings.TrimSpace(n), name) {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

// Language parses the Language header.
func (d *Document) Language() (language.Tag, error) {
	v, ok := d.HeaderValue("Language")
	if !ok || v == "" {
		return language.Und, ErrNoLanguage
	}
	return language.Parse(v)
}

// WriteTo writes every line of every entry followed by a line break.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var total int64
	for _, e := range d.entries {
		for _, l := range e.Lines {
			n, err := bw.WriteString(l.Raw)
			total += int64(n)
			if err != nil {
				return total, err
			}
			if err := bw.WriteByte('\n'); err != nil {
				return total, err
			}
			total++
		}
	}
	return total, bw.Flush()
}

func (d *Document) String() string {
	var b bytes.Buffer
	_, _ = d.WriteTo(&b)
	return b.String()
}

// Save writes the document to path, replacing the file atomically.
// A new file is created with mode 0644, an existing file keeps its mode.
func (d *Document) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	defer func() { _ = os.Remove(f.Name()) }()
	if _, err := d.WriteTo(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	mode := os.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}
	if err := f.Chmod(mode); err != nil {
		_ = f.Close()
		return fmt.Errorf("setting mode of %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}
