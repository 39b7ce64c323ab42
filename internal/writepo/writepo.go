// Package writepo writes the header entry of new gettext .po and .pot files.
package writepo

import (
	"bytes"
	"fmt"
	"io"
	"iter"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/vrckit/localize/gettext"
	"github.com/vrckit/localize/plural"
)

// Generator is written to the X-Generator header.
const Generator = "github.com/vrckit/localize/cmd/localize"

// Header describes the header entry of a new document.
type Header struct {
	// Language is ignored for templates.
	Language language.Tag
	Template bool

	// Forms lists the plural forms in msgstr[n] order.
	// It's written as a hint for translators, plural rules are never
	// derived from it.
	Forms []plural.Form

	CopyrightNotice string
	Translator      string
	BugsReportEmail string
	Revision        time.Time
}

// WriteHeader writes the header entry.
func WriteHeader(w io.Writer, h Header) error {
	var b bytes.Buffer
	if h.CopyrightNotice != "" {
		for l := range iterateLines(h.CopyrightNotice) {
			_, _ = fmt.Fprintf(&b, "# %s\n", l)
		}
		_, _ = fmt.Fprintln(&b, "#")
	}

	// Metadata block
	_, _ = fmt.Fprintln(&b, `msgid ""`)
	_, _ = fmt.Fprintln(&b, `msgstr ""`)
	if !h.Revision.IsZero() {
		formatted := h.Revision.Format(time.RFC3339)
		_, _ = fmt.Fprintf(&b, "\"PO-Revision-Date: %s\\n\"\n", formatted)
	}
	if h.Template {
		_, _ = fmt.Fprint(&b, "\"Last-Translator: \\n\"\n")
	} else if h.Translator != "" {
		writeValue(&b, "Last-Translator", h.Translator)
	}
	if h.BugsReportEmail != "" {
		writeValue(&b, "Report-Msgid-Bugs-To", "<"+h.BugsReportEmail+">")
	}
	if h.Template {
		_, _ = fmt.Fprint(&b, "\"Language: \\n\"\n")
	} else {
		_, _ = fmt.Fprintf(&b, "\"Language: %s\\n\"\n", h.Language)
	}
	_, _ = fmt.Fprintln(&b, "\"MIME-Version: 1.0\\n\"")
	_, _ = fmt.Fprintln(&b, "\"Content-Type: text/plain; charset=UTF-8\\n\"")
	_, _ = fmt.Fprintln(&b, "\"Content-Transfer-Encoding: 8bit\\n\"")
	if len(h.Forms) > 0 {
		names := make([]string, len(h.Forms))
		for i, f := range h.Forms {
			names[i] = f.String()
		}
		writeValue(&b, "X-Plural-Forms-CLDR", strings.Join(names, ", "))
	}
	writeValue(&b, "X-Generator", Generator)

	_, err := b.WriteTo(w)
	return err
}

// NewDocument returns a document that consists of the header entry only.
func NewDocument(h Header) (*gettext.Document, error) {
	var b bytes.Buffer
	if err := WriteHeader(&b, h); err != nil {
		return nil, err
	}
	return gettext.Parse(&b)
}

func writeValue(w io.Writer, name, value string) {
	_, _ = fmt.Fprintln(w, gettext.StringFromValue(name+": "+value+"\n").Raw)
}

func iterateLines(s string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for {
			i := strings.IndexByte(s, '\n')
			if i == -1 {
				if !yield(s) {
					break
				}
				return
			}
			if !yield(s[:i]) {
				break
			}
			s = s[i+1:]
		}
	}
}
