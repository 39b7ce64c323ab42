// Package plural implements CLDR cardinal plural rules.
//
// For more information, see CLDR documentation:
// https://cldr.unicode.org/index/cldr-spec/plural-rules
package plural

import "fmt"

// Form is a CLDR plural form.
type Form int8

const (
	Zero Form = iota
	One
	Two
	Few
	Many
	Other

	// SpecialZero is the form used for zero by locales that have no zero
	// rule of their own but want a dedicated zero translation.
	SpecialZero
)

func (f Form) String() string {
	switch f {
	case Zero:
		return "zero"
	case One:
		return "one"
	case Two:
		return "two"
	case Few:
		return "few"
	case Many:
		return "many"
	case Other:
		return "other"
	case SpecialZero:
		return "special_zero"
	}
	return fmt.Sprintf("Form(%d)", int8(f))
}

// Definition holds the CLDR rule strings of a rule set.
// An empty rule string means the language has no such form,
// except for Other which always exists.
type Definition struct {
	Zero, One, Two, Few, Many, Other string
}

func (d Definition) rule(f Form) string {
	switch f {
	case Zero:
		return d.Zero
	case One:
		return d.One
	case Two:
		return d.Two
	case Few:
		return d.Few
	case Many:
		return d.Many
	case Other:
		return d.Other
	}
	return ""
}

// Rules is a compiled rule set.
type Rules struct {
	def        Definition
	conditions [Other]*Condition // nil for forms the language doesn't have.
	forms      []Form
}

// NewRules compiles all rules of d. Each rule is validated against its samples.
func NewRules(d Definition) (*Rules, error) {
	r := &Rules{def: d}
	for f := Zero; f <= Other; f++ {
		rule := d.rule(f)
		if rule == "" && f != Other {
			continue
		}
		c, err := Compile(rule)
		if err != nil {
			return nil, fmt.Errorf("compiling %s: %w", f, err)
		}
		if f != Other {
			r.conditions[f] = c
		}
		r.forms = append(r.forms, f)
	}
	return r, nil
}

// MustRules is like NewRules but panics on error.
func MustRules(d Definition) *Rules {
	r, err := NewRules(d)
	if err != nil {
		panic(err)
	}
	return r
}

// Definition returns the rule strings r was compiled from.
func (r *Rules) Definition() Definition { return r.def }

// Count returns the number of forms including Other.
func (r *Rules) Count() int { return len(r.forms) }

// Forms returns the forms of the rule set in evaluation order.
func (r *Rules) Forms() []Form { return append([]Form(nil), r.forms...) }

// Has reports whether the rule set defines f.
func (r *Rules) Has(f Form) bool {
	if f == Other {
		return true
	}
	return f >= Zero && f < Other && r.conditions[f] != nil
}

// Index returns the position of f among the forms of the rule set,
// which is the msgstr[n] index of f in gettext documents.
func (r *Rules) Index(f Form) (int, bool) {
	for i, x := range r.forms {
		if x == f {
			return i, true
		}
	}
	return 0, false
}

// Evaluate returns the first form in the order
// Zero, One, Two, Few, Many whose rule matches o, or Other.
func (r *Rules) Evaluate(o Operands) Form {
	for f, c := range r.conditions {
		if c != nil && c.Match(o) {
			return Form(f)
		}
	}
	return Other
}

// Equal reports whether r and o were compiled from the same rule strings.
func (r *Rules) Equal(o *Rules) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.def == o.def
}
