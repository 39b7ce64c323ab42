package gettext

import (
	"slices"
	"strconv"
	"strings"
)

// Key identifies an entry within a document.
// An absent context (HasContext false) differs from an empty one.
type Key struct {
	Context    string
	HasContext bool
	ID         string
}

// NewKey returns the key of an entry without context.
func NewKey(id string) Key { return Key{ID: id} }

// NewContextKey returns the key of an entry with context.
func NewContextKey(context, id string) Key {
	return Key{Context: context, HasContext: true, ID: id}
}

// HeaderKey is the key of the document header entry.
var HeaderKey = Key{}

func (k Key) String() string {
	if !k.HasContext {
		return "msgid " + strconv.Quote(k.ID)
	}
	return "msgctxt " + strconv.Quote(k.Context) + " msgid " + strconv.Quote(k.ID)
}

// EntryHeader is the metadata found in the leading comment block of an entry.
type EntryHeader struct {
	References []string // "#: path:line"
	Flags      []string // "#, keep, fuzzy"
}

const FlagKeep = "keep"

func (h EntryHeader) HasFlag(flag string) bool { return slices.Contains(h.Flags, flag) }

func (h EntryHeader) HasReference(ref string) bool {
	return slices.Contains(h.References, ref)
}

// Entry is a parsed logical entry of a document.
// Lines are the source of truth, all other fields are derived from them.
type Entry struct {
	Header     EntryHeader
	IsObsolete bool

	Context    string
	HasContext bool
	ID         string
	PluralID   string

	Value        string
	PluralValues []string

	Lines []Line
}

func (e Entry) Key() Key { return Key{Context: e.Context, HasContext: e.HasContext, ID: e.ID} }

func (e Entry) IsPlural() bool { return len(e.PluralValues) > 0 }

func (e Entry) IsHeader() bool { return !e.HasContext && e.ID == "" }

// ParseEntry parses the lines belonging to a single entry.
func ParseEntry(lines []Line) (Entry, error) {
	e := Entry{
		Lines:  lines,
		Header: ExtractEntryHeader(lines),
	}

	var (
		context, id, pluralID, value strings.Builder
		discard                      strings.Builder
		current                      *strings.Builder
		seen                         = make(map[string]bool, 4)
		// Usually 7 or less: six CLDR forms and the special zero.
		plurals     = make(map[int]*strings.Builder, 7)
		maxIndex    = -1
		obsolete    bool
		live        bool
		unsupported []string
	)

	for _, line := range lines {
		switch {
		case line.IsMarkedObsolete():
			l, err := line.Obsolete()
			if err != nil {
				return Entry{}, errLine(line.Raw, ErrMalformedLine)
			}
			if l.IsCommentOrWhitespace() {
				continue
			}
			obsolete, line = true, l
		case line.IsCommentOrWhitespace():
			continue
		default:
			live = true
		}

		if k := line.Keyword; !k.IsZero() {
			switch {
			case k.Indexed && k.Name == KeywordMsgstr:
				if _, ok := plurals[k.Index]; ok {
					return Entry{}, errLine(line.Raw, ErrDuplicateKeyword)
				}
				current = new(strings.Builder)
				plurals[k.Index] = current
				maxIndex = max(maxIndex, k.Index)
			case k.Indexed:
				unsupported = append(unsupported, k.String())
				current = &discard
			default:
				switch k.Name {
				case KeywordMsgctxt:
					current, e.HasContext = &context, true
				case KeywordMsgid:
					current = &id
				case KeywordMsgidPlural:
					current = &pluralID
				case KeywordMsgstr:
					current = &value
				default:
					unsupported = append(unsupported, k.Name)
					current = &discard
				}
				if seen[k.Name] {
					return Entry{}, errLine(line.Raw, ErrDuplicateKeyword)
				}
				seen[k.Name] = true
			}
		}

		if line.HasStr {
			if current == nil {
				return Entry{}, errLine(line.Raw, ErrOrphanString)
			}
			current.WriteString(line.Str.Value)
		}
	}

	raw := func() string { return rawLines(lines) }
	switch {
	case obsolete && live:
		return Entry{}, errLine(raw(), ErrObsoleteMix)
	case len(unsupported) > 0:
		return Entry{}, errLine(strings.Join(unsupported, ", "), ErrUnsupportedKeyword)
	case !seen[KeywordMsgid]:
		return Entry{}, errLine(raw(), ErrMissingMsgid)
	case len(plurals) != maxIndex+1:
		return Entry{}, errLine(raw(), ErrPluralIndexGap)
	case seen[KeywordMsgidPlural] && len(plurals) == 0,
		!seen[KeywordMsgidPlural] && len(plurals) > 0:
		return Entry{}, errLine(raw(), ErrPluralMismatch)
	case seen[KeywordMsgstr] && len(plurals) > 0:
		return Entry{}, errLine(raw(), ErrMixedValues)
	}

	e.IsObsolete = obsolete
	e.Context = context.String()
	e.ID = id.String()
	e.PluralID = pluralID.String()
	e.Value = value.String()
	if len(plurals) > 0 {
		e.PluralValues = make([]string, len(plurals))
		for i := range e.PluralValues {
			e.PluralValues[i] = plurals[i].String()
		}
	}
	return e, nil
}

// ExtractEntryHeader collects references and flags from the
// leading comment block of lines.
func ExtractEntryHeader(lines []Line) (h EntryHeader) {
	for _, l := range lines {
		if l.IsWhitespace() {
			continue
		}
		if !l.IsComment() || l.IsMarkedObsolete() {
			break
		}
		switch {
		case strings.HasPrefix(l.Comment, ":"):
			if ref := strings.TrimSpace(l.Comment[1:]); ref != "" {
				h.References = append(h.References, ref)
			}
		case strings.HasPrefix(l.Comment, ","):
			for _, f := range strings.Split(l.Comment[1:], ",") {
				if f = strings.TrimSpace(f); f != "" {
					h.Flags = append(h.Flags, f)
				}
			}
		}
	}
	return h
}

func rawLines(lines []Line) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(l.Raw)
	}
	return b.String()
}
