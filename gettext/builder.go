package gettext

import (
	"cmp"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
)

// DocumentBuilder incrementally builds a document across extraction passes.
//
// The first AddEntry for a key in a session replaces the entry's references,
// later calls only append missing ones. Prune marks untouched entries obsolete.
// All methods are safe for concurrent use; concurrent updates are applied with
// compare-and-swap on an immutable snapshot, in no particular order.
type DocumentBuilder struct {
	state       atomic.Pointer[builderState]
	pluralCount int
}

type builderState struct {
	entries []Entry
	index   map[Key]int
	touched map[Key]struct{}
}

type BuilderOption func(*DocumentBuilder)

// WithPluralCount sets the number of msgstr[n] lines created for new plural entries.
func WithPluralCount(n int) BuilderOption {
	return func(b *DocumentBuilder) { b.pluralCount = n }
}

// NewDocumentBuilder starts a build session on top of doc.
func NewDocumentBuilder(doc *Document, opts ...BuilderOption) *DocumentBuilder {
	b := &DocumentBuilder{pluralCount: 2}
	for _, o := range opts {
		o(b)
	}
	b.state.Store(&builderState{
		entries: slices.Clone(doc.entries),
		index:   maps.Clone(doc.index),
		touched: map[Key]struct{}{},
	})
	return b
}

// PluralCount returns the number of plural values of new plural entries.
func (b *DocumentBuilder) PluralCount() int { return b.pluralCount }

// NewSession forgets which entries were touched, starting a new session.
func (b *DocumentBuilder) NewSession() {
	_ = b.update(func(s *builderState) (*builderState, error) {
		next := *s
		next.touched = map[Key]struct{}{}
		return &next, nil
	})
}

// AddEntry records an occurrence of the entry identified by key at reference.
// An empty reference records the entry without touching its references.
func (b *DocumentBuilder) AddEntry(key Key, pluralID, reference string) error {
	return b.update(func(s *builderState) (*builderState, error) {
		i, exists := s.index[key]
		_, touched := s.touched[key]

		var lines []Line
		switch {
		case !exists:
			lines = newEntryLines(key, pluralID, reference, b.pluralCount)
		case !touched:
			e := s.entries[i]
			lines = e.Lines
			if e.IsObsolete {
				var err error
				if lines, err = reviveLines(lines); err != nil {
					return nil, err
				}
			}
			if reference != "" || len(e.Header.References) > 0 {
				lines = setReferences(lines, refList(reference))
			}
			lines = reshape(e, lines, pluralID, b.pluralCount)
		default:
			e := s.entries[i]
			if e.PluralID == pluralID && (reference == "" || e.Header.HasReference(reference)) {
				return s, nil
			}
			lines = e.Lines
			if reference != "" && !e.Header.HasReference(reference) {
				lines = addReference(lines, reference)
			}
			lines = reshape(e, lines, pluralID, b.pluralCount)
		}

		e, err := ParseEntry(lines)
		if err != nil {
			return nil, err
		}
		next := &builderState{
			entries: slices.Clone(s.entries),
			index:   s.index,
			touched: maps.Clone(s.touched),
		}
		next.touched[key] = struct{}{}
		if exists {
			next.entries[i] = e
		} else {
			next.index = maps.Clone(s.index)
			next.index[key] = len(next.entries)
			next.entries = append(next.entries, e)
		}
		return next, nil
	})
}

// Prune marks every entry not touched during the session as obsolete,
// except for the header and entries flagged "keep".
func (b *DocumentBuilder) Prune() error {
	return b.update(func(s *builderState) (*builderState, error) {
		var next *builderState
		for i, e := range s.entries {
			if _, ok := s.touched[e.Key()]; ok ||
				e.IsHeader() || e.IsObsolete || e.Header.HasFlag(FlagKeep) {
				continue
			}
			pruned, err := ParseEntry(obsoleteLines(e.Lines))
			if err != nil {
				return nil, err
			}
			if next == nil {
				next = &builderState{
					entries: slices.Clone(s.entries),
					index:   s.index,
					touched: s.touched,
				}
			}
			next.entries[i] = pruned
		}
		if next == nil {
			return s, nil
		}
		return next, nil
	})
}

// SortEntries reorders all entries but the header which always stays first.
func (b *DocumentBuilder) SortEntries(compare func(a, b Entry) int) {
	_ = b.update(func(s *builderState) (*builderState, error) {
		entries := slices.Clone(s.entries)
		slices.SortStableFunc(entries[1:], compare)
		index := make(map[Key]int, len(entries))
		for i, e := range entries {
			index[e.Key()] = i
		}
		return &builderState{entries: entries, index: index, touched: s.touched}, nil
	})
}

// Lookup returns the current state of the entry identified by k.
func (b *DocumentBuilder) Lookup(k Key) (Entry, bool) {
	s := b.state.Load()
	i, ok := s.index[k]
	if !ok {
		return Entry{}, false
	}
	return s.entries[i], true
}

// Entries returns a snapshot of the current entries.
func (b *DocumentBuilder) Entries() []Entry { return slices.Clone(b.state.Load().entries) }

// Build returns the current state as a document.
// Entries are separated by exactly the blank lines they carry,
// a blank line is added where an entry is directly followed by another.
func (b *DocumentBuilder) Build() (*Document, error) {
	s := b.state.Load()
	entries := slices.Clone(s.entries)
	for i := range entries {
		lines := entries[i].Lines
		if i == len(entries)-1 {
			for len(lines) > 1 && lines[len(lines)-1].IsWhitespace() {
				lines = lines[:len(lines)-1]
			}
		} else if len(lines) == 0 || !lines[len(lines)-1].IsWhitespace() {
			lines = append(slices.Clip(lines), BlankLine())
		}
		entries[i].Lines = lines
	}
	return newDocument(entries, nil)
}

func (b *DocumentBuilder) update(
	fn func(s *builderState) (*builderState, error),
) error {
	for {
		old := b.state.Load()
		next, err := fn(old)
		if err != nil {
			return err
		}
		if next == old || b.state.CompareAndSwap(old, next) {
			return nil
		}
	}
}

// DefaultEntryOrder orders entries by reference count descending,
// then by first reference path and line, then by key.
func DefaultEntryOrder(a, b Entry) int {
	if c := cmp.Compare(len(b.Header.References), len(a.Header.References)); c != 0 {
		return c
	}
	if len(a.Header.References) > 0 {
		pa, la := splitReference(a.Header.References[0])
		pb, lb := splitReference(b.Header.References[0])
		if c := cmp.Or(cmp.Compare(pa, pb), cmp.Compare(la, lb)); c != 0 {
			return c
		}
	}
	return cmp.Or(
		cmp.Compare(a.Context, b.Context),
		cmp.Compare(a.ID, b.ID),
	)
}

// FmtReference formats a reference comment value.
func FmtReference(path string, line int) string {
	return path + ":" + strconv.Itoa(line)
}

func splitReference(ref string) (path string, line int) {
	i := strings.LastIndexByte(ref, ':')
	if i == -1 {
		return ref, 0
	}
	n, err := strconv.Atoi(ref[i+1:])
	if err != nil {
		return ref, 0
	}
	return ref[:i], n
}

func refList(ref string) []string {
	if ref == "" {
		return nil
	}
	return []string{ref}
}

func newEntryLines(key Key, pluralID, reference string, pluralCount int) []Line {
	var lines []Line
	if reference != "" {
		lines = append(lines, referenceLine(reference))
	}
	var plurals []string
	if pluralID != "" {
		plurals = make([]string, pluralCount)
	}
	return append(lines, contentLines(key, pluralID, "", plurals)...)
}

func referenceLine(ref string) Line { return CommentLine(": " + ref) }

// contentLines renders the keyword lines of an entry.
func contentLines(key Key, pluralID, value string, plurals []string) []Line {
	var lines []Line
	if key.HasContext {
		lines = append(lines, valueLines(Keyword{Name: KeywordMsgctxt}, key.Context)...)
	}
	lines = append(lines, valueLines(Keyword{Name: KeywordMsgid}, key.ID)...)
	if pluralID == "" {
		return append(lines, valueLines(Keyword{Name: KeywordMsgstr}, value)...)
	}
	lines = append(lines, valueLines(Keyword{Name: KeywordMsgidPlural}, pluralID)...)
	for i, v := range plurals {
		k := Keyword{Name: KeywordMsgstr, Index: i, Indexed: true}
		lines = append(lines, valueLines(k, v)...)
	}
	return lines
}

// valueLines renders a keyword and its value, splitting multi-line
// values after each line break the way msgmerge does.
func valueLines(k Keyword, v string) []Line {
	keywordLine := func(v string) Line {
		if k.Indexed {
			return IndexedKeywordLine(k.Name, k.Index, v)
		}
		return KeywordLine(k.Name, v)
	}
	i := strings.IndexByte(v, '\n')
	if i == -1 || i == len(v)-1 {
		return []Line{keywordLine(v)}
	}
	lines := []Line{keywordLine("")}
	for v != "" {
		i := strings.IndexByte(v, '\n')
		if i == -1 {
			lines = append(lines, StringLine(v))
			break
		}
		lines = append(lines, StringLine(v[:i+1]))
		v = v[i+1:]
	}
	return lines
}

// leadLen returns the length of the leading comment block.
func leadLen(lines []Line) int {
	i := 0
	for i < len(lines) && lines[i].IsCommentOrWhitespace() && !lines[i].IsMarkedObsolete() {
		i++
	}
	return i
}

func isReferenceLine(l Line) bool {
	return l.IsComment() && strings.HasPrefix(l.Comment, ":")
}

func isFlagLine(l Line) bool {
	return l.IsComment() && strings.HasPrefix(l.Comment, ",")
}

// setReferences replaces all reference comments in the leading block.
// References are placed before the flags comment if any.
func setReferences(lines []Line, refs []string) []Line {
	n := leadLen(lines)
	out := make([]Line, 0, len(lines)+len(refs))
	inserted := false
	insert := func() {
		for _, r := range refs {
			out = append(out, referenceLine(r))
		}
		inserted = true
	}
	for _, l := range lines[:n] {
		if isReferenceLine(l) {
			continue
		}
		if !inserted && isFlagLine(l) {
			insert()
		}
		out = append(out, l)
	}
	if !inserted {
		insert()
	}
	return append(out, lines[n:]...)
}

// addReference inserts ref after the last reference comment,
// or where setReferences would put it.
func addReference(lines []Line, ref string) []Line {
	n := leadLen(lines)
	at := -1
	for i := n - 1; i >= 0; i-- {
		if isReferenceLine(lines[i]) {
			at = i + 1
			break
		}
	}
	if at == -1 {
		return setReferences(lines, []string{ref})
	}
	out := make([]Line, 0, len(lines)+1)
	out = append(out, lines[:at]...)
	out = append(out, referenceLine(ref))
	return append(out, lines[at:]...)
}

// reviveLines unwraps all obsolete lines.
func reviveLines(lines []Line) ([]Line, error) {
	out := make([]Line, len(lines))
	for i, l := range lines {
		if !l.IsMarkedObsolete() {
			out[i] = l
			continue
		}
		w, err := l.Obsolete()
		if err != nil {
			return nil, err
		}
		if out[i], err = ParseLine(strings.TrimLeft(w.Raw, " \t")); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// obsoleteLines wraps all content lines into "#~" comments.
func obsoleteLines(lines []Line) []Line {
	out := make([]Line, len(lines))
	for i, l := range lines {
		if l.IsCommentOrWhitespace() {
			out[i] = l
			continue
		}
		out[i] = ObsoleteLine(l)
	}
	return out
}

// reshape rewrites the content lines of e when its plural id changes.
func reshape(e Entry, lines []Line, pluralID string, pluralCount int) []Line {
	if e.PluralID == pluralID {
		return lines
	}
	var plurals []string
	switch {
	case pluralID == "":
	case e.IsPlural():
		plurals = e.PluralValues
	default:
		plurals = make([]string, pluralCount)
	}
	value := ""
	if pluralID == "" && !e.IsPlural() {
		value = e.Value
	}

	n := leadLen(lines)
	end := len(lines)
	for end > n && lines[end-1].IsWhitespace() {
		end--
	}
	out := slices.Clone(lines[:n])
	out = append(out, contentLines(e.Key(), pluralID, value, plurals)...)
	return append(out, lines[end:]...)
}
