package plural

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrSyntax          = errors.New("syntax error")
	ErrUnknownOperand  = errors.New("unknown operand")
	ErrSampleMismatch  = errors.New("sample doesn't match the condition")
	ErrInvalidNumber   = errors.New("invalid decimal number")
	ErrRedundantSample = errors.New("sample list defined twice")
)

// Error is a plural rule compilation error.
type Error struct {
	Rule   string
	Offset int // Byte offset into Rule, -1 if not applicable.
	Err    error
	Detail string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("plural rule ")
	b.WriteString(strconv.Quote(e.Rule))
	if e.Offset >= 0 {
		b.WriteString(" at offset ")
		b.WriteString(strconv.Itoa(e.Offset))
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Condition is a compiled CLDR plural rule condition.
type Condition struct {
	rule      string
	condition string
	eval      func(Operands) bool
	integer   []Sample
	decimal   []Sample
}

// Compile parses a CLDR plural rule such as
//
//	i = 1 and v = 0 @integer 1
//
// and validates the compiled condition against its @integer and @decimal
// samples. An empty condition always matches.
func Compile(rule string) (*Condition, error) {
	condEnd := strings.IndexByte(rule, '@')
	if condEnd == -1 {
		condEnd = len(rule)
	}
	p := &parser{rule: rule, src: rule[:condEnd]}
	eval, err := p.parse()
	if err != nil {
		return nil, err
	}
	c := &Condition{
		rule:      rule,
		condition: strings.TrimSpace(rule[:condEnd]),
		eval:      eval,
	}
	if c.integer, c.decimal, err = parseSamples(rule, condEnd); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(rule string) *Condition {
	c, err := Compile(rule)
	if err != nil {
		panic(err)
	}
	return c
}

// Match reports whether o satisfies the condition.
func (c *Condition) Match(o Operands) bool { return c.eval(o) }

// Rule returns the rule the condition was compiled from.
func (c *Condition) Rule() string { return c.rule }

// String returns the condition without samples.
func (c *Condition) String() string { return c.condition }

// IntegerSamples returns the @integer samples of the rule.
func (c *Condition) IntegerSamples() []Sample { return c.integer }

// DecimalSamples returns the @decimal samples of the rule.
func (c *Condition) DecimalSamples() []Sample { return c.decimal }

type predicate = func(Operands) bool

type tokenKind int8

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokMod
	tokEq
	tokNotEq
	tokComma
	tokRange
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of condition"
	case tokIdent:
		return "identifier"
	case tokNumber:
		return "number"
	case tokMod:
		return "'%'"
	case tokEq:
		return "'='"
	case tokNotEq:
		return "'!='"
	case tokComma:
		return "','"
	case tokRange:
		return "'..'"
	}
	return "token(" + strconv.Itoa(int(k)) + ")"
}

type token struct {
	kind   tokenKind
	text   string
	offset int
}

// parser is a recursive descent parser of the grammar
//
//	condition     = and_condition ('or' and_condition)*
//	and_condition = relation ('and' relation)*
//	relation      = expr ('=' | '!=') range_list
//	expr          = operand ('%' value)?
//	range_list    = (range | value) (',' (range | value))*
//	range         = value '..' value
type parser struct {
	rule string
	src  string
	pos  int
	tok  token
}

func (p *parser) errAt(offset int, err error, detail string) *Error {
	return &Error{Rule: p.rule, Offset: offset, Err: err, Detail: detail}
}

func (p *parser) unexpected(expected string) *Error {
	return p.errAt(p.tok.offset, ErrSyntax,
		fmt.Sprintf("expected %s, got %s %q", expected, p.tok.kind, p.tok.text))
}

func (p *parser) next() error {
	s := p.src
	for p.pos < len(s) && (s[p.pos] == ' ' || s[p.pos] == '\t') {
		p.pos++
	}
	start := p.pos
	if p.pos >= len(s) {
		p.tok = token{kind: tokEOF, offset: start}
		return nil
	}
	switch c := s[p.pos]; {
	case c >= 'a' && c <= 'z':
		for p.pos < len(s) && s[p.pos] >= 'a' && s[p.pos] <= 'z' {
			p.pos++
		}
		p.tok = token{kind: tokIdent, text: s[start:p.pos], offset: start}
	case c >= '0' && c <= '9':
		for p.pos < len(s) && s[p.pos] >= '0' && s[p.pos] <= '9' {
			p.pos++
		}
		p.tok = token{kind: tokNumber, text: s[start:p.pos], offset: start}
	case c == '%':
		p.pos++
		p.tok = token{kind: tokMod, text: "%", offset: start}
	case c == '=':
		p.pos++
		p.tok = token{kind: tokEq, text: "=", offset: start}
	case c == ',':
		p.pos++
		p.tok = token{kind: tokComma, text: ",", offset: start}
	case c == '!' && strings.HasPrefix(s[p.pos:], "!="):
		p.pos += 2
		p.tok = token{kind: tokNotEq, text: "!=", offset: start}
	case c == '.' && strings.HasPrefix(s[p.pos:], ".."):
		p.pos += 2
		p.tok = token{kind: tokRange, text: "..", offset: start}
	default:
		return p.errAt(start, ErrSyntax, fmt.Sprintf("unexpected character %q", c))
	}
	return nil
}

func (p *parser) parse() (predicate, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	if p.tok.kind == tokEOF {
		return func(Operands) bool { return true }, nil
	}
	pred, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, p.unexpected("'and', 'or' or end of condition")
	}
	return pred, nil
}

func (p *parser) parseOr() (predicate, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokIdent && p.tok.text == "or" {
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		l := left
		left = func(o Operands) bool { return l(o) || right(o) }
	}
	return left, nil
}

func (p *parser) parseAnd() (predicate, error) {
	left, err := p.parseRelation()
	if err != nil {
		return nil, err
	}
	for p.tok.kind == tokIdent && p.tok.text == "and" {
		if err := p.next(); err != nil {
			return nil, err
		}
		right, err := p.parseRelation()
		if err != nil {
			return nil, err
		}
		l := left
		left = func(o Operands) bool { return l(o) && right(o) }
	}
	return left, nil
}

func (p *parser) parseRelation() (predicate, error) {
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	var negate bool
	switch p.tok.kind {
	case tokEq:
	case tokNotEq:
		negate = true
	default:
		return nil, p.unexpected("'=' or '!='")
	}
	if err := p.next(); err != nil {
		return nil, err
	}

	in, err := p.parseRangeList()
	if err != nil {
		return nil, err
	}
	if negate {
		return func(o Operands) bool { return !in(expr(o)) }, nil
	}
	return func(o Operands) bool { return in(expr(o)) }, nil
}

func (p *parser) parseExpr() (func(Operands) float64, error) {
	if p.tok.kind != tokIdent {
		return nil, p.unexpected("operand")
	}
	if len(p.tok.text) != 1 || !strings.Contains("nivwftce", p.tok.text) {
		return nil, p.errAt(p.tok.offset, ErrUnknownOperand, p.tok.text)
	}
	operand := p.tok.text[0]
	if err := p.next(); err != nil {
		return nil, err
	}
	if p.tok.kind != tokMod {
		return func(o Operands) float64 { return o.value(operand) }, nil
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	offset := p.tok.offset
	mod, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	if mod == 0 {
		return nil, p.errAt(offset, ErrSyntax, "modulo by zero")
	}
	return func(o Operands) float64 { return math.Mod(o.value(operand), mod) }, nil
}

func (p *parser) parseValue() (float64, error) {
	if p.tok.kind != tokNumber {
		return 0, p.unexpected("number")
	}
	v, err := strconv.ParseFloat(p.tok.text, 64)
	if err != nil {
		return 0, p.errAt(p.tok.offset, ErrSyntax, err.Error())
	}
	return v, p.next()
}

// parseRangeList returns a predicate over the value of an expression.
// Values only match inside a range if they're integral.
func (p *parser) parseRangeList() (func(float64) bool, error) {
	var items []func(float64) bool
	for {
		from, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		if p.tok.kind == tokRange {
			if err := p.next(); err != nil {
				return nil, err
			}
			offset := p.tok.offset
			to, err := p.parseValue()
			if err != nil {
				return nil, err
			}
			if to < from {
				return nil, p.errAt(offset, ErrSyntax,
					fmt.Sprintf("empty range %v..%v", from, to))
			}
			items = append(items, func(x float64) bool {
				return x == math.Trunc(x) && x >= from && x <= to
			})
		} else {
			items = append(items, func(x float64) bool { return x == from })
		}
		if p.tok.kind != tokComma {
			break
		}
		if err := p.next(); err != nil {
			return nil, err
		}
	}
	if len(items) == 1 {
		return items[0], nil
	}
	return func(x float64) bool {
		for _, in := range items {
			if in(x) {
				return true
			}
		}
		return false
	}, nil
}
