package gettext

import (
	"errors"
	"fmt"
)

// Error is a structural parse error.
// It always matches ErrInvalidFormat with errors.Is.
type Error struct {
	// Line is the 1-based physical line number, 0 if unknown.
	Line int
	// Raw is the offending raw content.
	Raw string
	Err error
}

func (e *Error) Error() string {
	err := e.Err
	if err == nil {
		err = ErrInvalidFormat
	}
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s", e.Line, err.Error(), e.Raw)
	}
	if e.Raw == "" {
		return err.Error()
	}
	return fmt.Sprintf("%s: %s", err.Error(), e.Raw)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == ErrInvalidFormat }

var (
	ErrInvalidFormat = errors.New("invalid gettext format")

	ErrMalformedString    = errors.New("malformed string literal")
	ErrUnknownEscape      = errors.New("unknown escape sequence")
	ErrMalformedLine      = errors.New("malformed line")
	ErrUnsupportedKeyword = errors.New("unsupported keyword")
	ErrDuplicateKeyword   = errors.New("keyword has already appeared in the entry")
	ErrOrphanString       = errors.New("string line without a prior keyword")
	ErrPluralIndexGap     = errors.New("plural indexes must be contiguous from 0")
	ErrPluralMismatch     = errors.New("msgid_plural and msgstr[n] must appear together")
	ErrMixedValues        = errors.New("entry has both msgstr and msgstr[n]")
	ErrObsoleteMix        = errors.New("entry mixes obsolete and non-obsolete lines")
	ErrMissingMsgid       = errors.New("entry has no msgid")
	ErrMissingHeader      = errors.New("document must start with the header entry (msgid \"\")")
	ErrMsgctxtSequence    = errors.New("msgctxt must be followed by msgid")
	ErrDuplicateEntry     = errors.New("duplicate entry")
)

func errLine(raw string, err error) *Error { return &Error{Raw: raw, Err: err} }
