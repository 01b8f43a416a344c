// Package mathexpr evaluates arithmetic expressions over a deliberately
// restricted grammar: decimal numbers, + - * /, unary minus, and
// parentheses. Nothing else parses, which keeps caller-influenced input
// from reaching anything resembling general evaluation.
//
//	expr   = term { ("+" | "-") term }
//	term   = factor { ("*" | "/") factor }
//	factor = number | "-" factor | "(" expr ")"
package mathexpr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ErrDivisionByZero is returned when an expression divides by zero.
var ErrDivisionByZero = errors.New("mathexpr: division by zero")

// Eval parses and evaluates an arithmetic expression.
func Eval(expr string) (float64, error) {
	p := &parser{input: expr}

	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}

	p.skipSpaces()
	if p.pos < len(p.input) {
		return 0, fmt.Errorf("mathexpr: unexpected %q at position %d", p.input[p.pos], p.pos)
	}

	return v, nil
}

type parser struct {
	input string
	pos   int
}

func (p *parser) parseExpr() (float64, error) {
	v, err := p.parseTerm()
	if err != nil {
		return 0, err
	}

	for {
		op, ok := p.peekOp("+-")
		if !ok {
			return v, nil
		}
		p.pos++

		rhs, err := p.parseTerm()
		if err != nil {
			return 0, err
		}

		if op == '+' {
			v += rhs
		} else {
			v -= rhs
		}
	}
}

func (p *parser) parseTerm() (float64, error) {
	v, err := p.parseFactor()
	if err != nil {
		return 0, err
	}

	for {
		op, ok := p.peekOp("*/")
		if !ok {
			return v, nil
		}
		p.pos++

		rhs, err := p.parseFactor()
		if err != nil {
			return 0, err
		}

		if op == '*' {
			v *= rhs
		} else {
			if rhs == 0 {
				return 0, ErrDivisionByZero
			}
			v /= rhs
		}
	}
}

func (p *parser) parseFactor() (float64, error) {
	p.skipSpaces()

	if p.pos >= len(p.input) {
		return 0, errors.New("mathexpr: unexpected end of expression")
	}

	switch c := p.input[p.pos]; {
	case c == '-':
		p.pos++
		v, err := p.parseFactor()
		if err != nil {
			return 0, err
		}
		return -v, nil

	case c == '(':
		p.pos++
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}

		p.skipSpaces()
		if p.pos >= len(p.input) || p.input[p.pos] != ')' {
			return 0, errors.New("mathexpr: missing closing parenthesis")
		}
		p.pos++

		return v, nil

	case c >= '0' && c <= '9' || c == '.':
		return p.parseNumber()

	default:
		return 0, fmt.Errorf("mathexpr: unexpected %q at position %d", c, p.pos)
	}
}

func (p *parser) parseNumber() (float64, error) {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c >= '0' && c <= '9' || c == '.' {
			p.pos++
			continue
		}
		break
	}

	lit := p.input[start:p.pos]
	if strings.Count(lit, ".") > 1 {
		return 0, fmt.Errorf("mathexpr: invalid number %q", lit)
	}

	v, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return 0, fmt.Errorf("mathexpr: invalid number %q", lit)
	}

	return v, nil
}

// peekOp skips spaces and, if the next character is one of ops, returns it
// without consuming.
func (p *parser) peekOp(ops string) (byte, bool) {
	p.skipSpaces()

	if p.pos >= len(p.input) {
		return 0, false
	}

	c := p.input[p.pos]
	if strings.IndexByte(ops, c) < 0 {
		return 0, false
	}

	return c, true
}

func (p *parser) skipSpaces() {
	for p.pos < len(p.input) && unicode.IsSpace(rune(p.input[p.pos])) {
		p.pos++
	}
}
