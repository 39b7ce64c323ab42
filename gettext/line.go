package gettext

import (
	"errors"
	"strconv"
	"strings"
)

const (
	KeywordMsgctxt     = "msgctxt"
	KeywordMsgid       = "msgid"
	KeywordMsgidPlural = "msgid_plural"
	KeywordMsgstr      = "msgstr"
)

// Keyword is a line keyword such as msgid or msgstr[1].
// The zero value means no keyword.
type Keyword struct {
	Name    string
	Index   int
	Indexed bool
}

func (k Keyword) IsZero() bool { return k.Name == "" }

func (k Keyword) String() string {
	if !k.Indexed {
		return k.Name
	}
	return k.Name + "[" + strconv.Itoa(k.Index) + "]"
}

// Line is the atomic parse unit of a document: one physical line.
type Line struct {
	Raw        string
	Keyword    Keyword
	Str        String
	HasStr     bool
	Comment    string // Text after '#'.
	HasComment bool
}

// IsWhitespace reports whether the line has no keyword, string nor comment.
func (l Line) IsWhitespace() bool {
	return l.Keyword.IsZero() && !l.HasStr && !l.HasComment
}

// IsComment reports whether the line consists of a comment only.
func (l Line) IsComment() bool {
	return l.Keyword.IsZero() && !l.HasStr && l.HasComment
}

func (l Line) IsCommentOrWhitespace() bool {
	return l.Keyword.IsZero() && !l.HasStr
}

// IsMarkedObsolete reports whether the line is a "#~" comment
// wrapping a deprecated line.
func (l Line) IsMarkedObsolete() bool {
	return l.IsComment() && strings.HasPrefix(l.Comment, "~")
}

// Obsolete parses the line wrapped by a "#~" comment.
// It must only be called when IsMarkedObsolete is true.
func (l Line) Obsolete() (Line, error) {
	return ParseLine(l.Comment[1:])
}

// Unwrapped returns the wrapped line for obsolete lines and l otherwise.
func (l Line) Unwrapped() (Line, error) {
	if !l.IsMarkedObsolete() {
		return l, nil
	}
	return l.Obsolete()
}

func (l Line) String() string { return l.Raw }

// ParseLine parses a single physical line without its line break.
func ParseLine(raw string) (Line, error) {
	l := Line{Raw: raw}
	s := raw
	i := skipSpace(s, 0)

	if i < len(s) && isKeywordStart(s[i]) {
		start := i
		for i < len(s) && isKeywordChar(s[i]) {
			i++
		}
		l.Keyword.Name = s[start:i]
		if i < len(s) && s[i] == '[' {
			end := strings.IndexByte(s[i:], ']')
			if end == -1 {
				return Line{}, errLine(raw, ErrMalformedLine)
			}
			idx, err := strconv.Atoi(s[i+1 : i+end])
			if err != nil || idx < 0 {
				return Line{}, errLine(raw, ErrMalformedLine)
			}
			l.Keyword.Index, l.Keyword.Indexed = idx, true
			i += end + 1
		}
		i = skipSpace(s, i)
		if i >= len(s) || s[i] != '"' {
			// A keyword always carries a string.
			return Line{}, errLine(raw, ErrMalformedLine)
		}
	}

	if i < len(s) && s[i] == '"' {
		end := closingQuote(s, i)
		if end == -1 {
			return Line{}, errLine(raw, ErrMalformedString)
		}
		str, err := StringFromRaw(s[i : end+1])
		if err != nil {
			var perr *Error
			if errors.As(err, &perr) {
				return Line{}, errLine(raw, perr.Err)
			}
			return Line{}, err
		}
		l.Str, l.HasStr = str, true
		i = skipSpace(s, end+1)
	}

	if i < len(s) {
		if s[i] != '#' {
			return Line{}, errLine(raw, ErrMalformedLine)
		}
		l.Comment, l.HasComment = s[i+1:], true
	}
	return l, nil
}

// MustParseLine is like ParseLine but panics on error.
func MustParseLine(raw string) Line {
	l, err := ParseLine(raw)
	if err != nil {
		panic(err)
	}
	return l
}

// KeywordLine returns `name "value"`.
func KeywordLine(name, value string) Line {
	str := StringFromValue(value)
	return Line{
		Raw:     name + " " + str.Raw,
		Keyword: Keyword{Name: name},
		Str:     str,
		HasStr:  true,
	}
}

// IndexedKeywordLine returns `name[index] "value"`.
func IndexedKeywordLine(name string, index int, value string) Line {
	str := StringFromValue(value)
	k := Keyword{Name: name, Index: index, Indexed: true}
	return Line{
		Raw:     k.String() + " " + str.Raw,
		Keyword: k,
		Str:     str,
		HasStr:  true,
	}
}

// StringLine returns a continuation line holding only a string.
func StringLine(value string) Line {
	str := StringFromValue(value)
	return Line{Raw: str.Raw, Str: str, HasStr: true}
}

// CommentLine returns "#"+text.
func CommentLine(text string) Line {
	return Line{Raw: "#" + text, Comment: text, HasComment: true}
}

func BlankLine() Line { return Line{} }

// ObsoleteLine wraps l into a "#~ " comment.
func ObsoleteLine(l Line) Line {
	return CommentLine("~ " + strings.TrimLeft(l.Raw, " \t"))
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\r') {
		i++
	}
	return i
}

func isKeywordStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_'
}

func isKeywordChar(c byte) bool { return isKeywordStart(c) || c >= '0' && c <= '9' }

// closingQuote returns the index of the quote terminating the literal
// opened at s[open], or -1.
func closingQuote(s string, open int) int {
	for i := open + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}
