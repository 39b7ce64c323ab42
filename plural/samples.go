package plural

import (
	"fmt"
	"strconv"
	"strings"
)

// maxSampleSteps limits how many values of a sample range are checked.
// Longer ranges are only checked at their bounds.
const maxSampleSteps = 10_000

// Sample is a single value or a range of values from a rule's sample list.
type Sample struct {
	From string
	To   string // Empty for single values.
}

func (s Sample) IsRange() bool { return s.To != "" }

func (s Sample) String() string {
	if s.To == "" {
		return s.From
	}
	return s.From + "~" + s.To
}

// parseSamples parses the sample lists starting at rule[start:].
func parseSamples(rule string, start int) (integer, decimal []Sample, err error) {
	if start >= len(rule) {
		return nil, nil, nil
	}
	var seenInteger, seenDecimal bool
	offset := start
	for _, section := range strings.Split(rule[start+1:], "@") {
		offset++ // '@'
		name, list, _ := strings.Cut(section, " ")
		var target *[]Sample
		switch name {
		case "integer":
			if seenInteger {
				return nil, nil, &Error{Rule: rule, Offset: offset - 1, Err: ErrRedundantSample, Detail: name}
			}
			seenInteger, target = true, &integer
		case "decimal":
			if seenDecimal {
				return nil, nil, &Error{Rule: rule, Offset: offset - 1, Err: ErrRedundantSample, Detail: name}
			}
			seenDecimal, target = true, &decimal
		default:
			return nil, nil, &Error{
				Rule: rule, Offset: offset - 1, Err: ErrSyntax,
				Detail: fmt.Sprintf("unknown sample list %q", "@"+name),
			}
		}
		for _, item := range strings.Split(list, ",") {
			item = strings.TrimSpace(item)
			if item == "…" || item == "..." {
				break
			}
			if item == "" {
				continue
			}
			from, to, _ := strings.Cut(item, "~")
			*target = append(*target, Sample{From: from, To: to})
		}
		offset += len(section)
	}
	return integer, decimal, nil
}

func (c *Condition) validate() error {
	check := func(kind string, samples []Sample) error {
		for _, s := range samples {
			// Compact exponent samples like 1c6 need operand c/e.
			if strings.ContainsAny(s.String(), "ce") {
				continue
			}
			values, err := expandSample(s)
			if err != nil {
				return &Error{Rule: c.rule, Offset: -1, Err: err, Detail: kind + " " + s.String()}
			}
			for _, v := range values {
				o, err := OperandsFromString(v)
				if err != nil {
					return &Error{Rule: c.rule, Offset: -1, Err: err, Detail: kind + " " + s.String()}
				}
				if !c.eval(o) {
					return &Error{
						Rule: c.rule, Offset: -1, Err: ErrSampleMismatch,
						Detail: kind + " " + v,
					}
				}
			}
		}
		return nil
	}
	if err := check("@integer", c.integer); err != nil {
		return err
	}
	return check("@decimal", c.decimal)
}

// expandSample returns the values of s to check.
// Ranges step by one unit of their last visible digit, so 0.0~1.5
// expands to 0.0, 0.1, ..., 1.5.
func expandSample(s Sample) ([]string, error) {
	if !s.IsRange() {
		return []string{s.From}, nil
	}
	fromInt, fromV, err := scaled(s.From)
	if err != nil {
		return nil, err
	}
	toInt, toV, err := scaled(s.To)
	if err != nil {
		return nil, err
	}
	if fromV != toV || toInt < fromInt {
		return nil, fmt.Errorf("%w: range %s", ErrInvalidNumber, s)
	}
	if toInt-fromInt > maxSampleSteps {
		return []string{s.From, s.To}, nil
	}
	values := make([]string, 0, toInt-fromInt+1)
	for x := fromInt; x <= toInt; x++ {
		values = append(values, unscaled(x, fromV))
	}
	return values, nil
}

// scaled returns s as an integer scaled by its number of fraction digits.
func scaled(s string) (n int64, v int, err error) {
	intPart, frac, _ := strings.Cut(s, ".")
	n, err = strconv.ParseInt(intPart+frac, 10, 64)
	if err != nil || n < 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	return n, len(frac), nil
}

func unscaled(n int64, v int) string {
	s := strconv.FormatInt(n, 10)
	if v == 0 {
		return s
	}
	if len(s) <= v {
		s = strings.Repeat("0", v-len(s)+1) + s
	}
	return s[:len(s)-v] + "." + s[len(s)-v:]
}
