package parser

import (
	"strconv"
	"strings"

	"github.com/funvibe/pipevo/internal/config"
	"github.com/funvibe/pipevo/internal/evaluator"
)

const symbolChars = "_+-*/<>|&^%$@=?"

// Parser reads s-expressions from a string.
type Parser struct {
	src string
	pos int
}

func New(src string) *Parser {
	return &Parser{src: src}
}

// Parse reads the first form of src. An empty source yields nil.
func Parse(src string) (evaluator.Object, error) {
	return New(src).Next()
}

// ParseAll reads every form of src.
func ParseAll(src string) ([]evaluator.Object, error) {
	p := New(src)
	var forms []evaluator.Object
	for {
		form, err := p.Next()
		if err != nil {
			return nil, err
		}
		if form == nil {
			return forms, nil
		}
		forms = append(forms, form)
	}
}

// Offset is the position of the next unread character.
func (p *Parser) Offset() int { return p.pos }

// Next reads one form. It returns nil once the input is exhausted.
func (p *Parser) Next() (evaluator.Object, error) {
	p.skipSpace()
	if !p.more() {
		return nil, nil
	}
	return p.parse()
}

func (p *Parser) parse() (evaluator.Object, error) {
	p.skipSpace()
	if !p.more() {
		return nil, p.incomplete("Unexpected end of input")
	}
	switch c := p.peek(); {
	case c == '(':
		p.pos++
		return p.parseList(true, false)
	case c == ')':
		return nil, p.fail("Unexpected ')'")
	case c == '"':
		return p.parseString()
	case p.isNumber():
		n, err := p.parseNumber()
		if err != nil {
			return nil, err
		}
		if p.more() && !p.isDelimiter() {
			return nil, p.fail("Unexpected character after number")
		}
		return n, nil
	case strings.HasPrefix(p.src[p.pos:], config.TrueLiteral):
		p.pos += len(config.TrueLiteral)
		return evaluator.True, nil
	case c == '\'':
		p.pos++
		quoted, err := p.parse()
		if err != nil {
			return nil, err
		}
		return evaluator.List(evaluator.Symbol(config.QuoteForm), quoted), nil
	}
	return p.parseSymbol()
}

func (p *Parser) parseSymbol() (evaluator.Object, error) {
	start := p.pos
	for p.more() && isSymbolChar(p.peek()) {
		p.pos++
	}
	if p.more() && !p.isDelimiter() {
		return nil, p.fail("Unexpected end of symbol")
	}
	if start == p.pos {
		return nil, p.fail("Invalid expression")
	}
	return evaluator.Symbol(p.src[start:p.pos]), nil
}

func (p *Parser) parseString() (evaluator.Object, error) {
	start := p.pos
	p.pos++
	var sb strings.Builder
	for p.more() {
		c := p.peek()
		p.pos++
		switch c {
		case '\\':
			if !p.more() {
				p.pos = start
				return nil, p.incomplete("Could not find end of string")
			}
			sb.WriteByte(p.peek())
			p.pos++
		case '"':
			return evaluator.String(sb.String()), nil
		default:
			sb.WriteByte(c)
		}
	}
	p.pos = start
	return nil, p.incomplete("Could not find end of string")
}

func (p *Parser) parseNumber() (evaluator.Object, error) {
	start := p.pos
	if p.peek() == '-' {
		p.pos++
	}
	wholeStart := p.pos
	p.digits()
	wholeEnd := p.pos
	isReal := false
	if p.more() && p.peek() == '.' {
		isReal = true
		p.pos++
		fracStart := p.pos
		p.digits()
		if wholeStart == wholeEnd && fracStart == p.pos {
			return nil, p.fail("Number expected, not found: " + p.src[start:p.pos])
		}
	}
	if p.more() && (p.peek() == 'e' || p.peek() == 'E') {
		isReal = true
		p.pos++
		if p.more() && (p.peek() == '-' || p.peek() == '+') {
			p.pos++
		}
		expStart := p.pos
		p.digits()
		if expStart == p.pos {
			return nil, p.fail("Number expected, not found: " + p.src[start:p.pos])
		}
	}
	text := p.src[start:p.pos]
	if !isReal {
		if wholeStart == wholeEnd {
			return nil, p.fail("Number expected, not found: " + text)
		}
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, p.fail("Invalid number: " + text)
		}
		return evaluator.FixNum(n), nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, p.fail("Invalid number: " + text)
	}
	return evaluator.Real(f), nil
}

// parseList reads the rest of a list after '(' or after an element.
// atStart is set right after the '('; afterDot while reading the cdr of a
// dotted pair.
func (p *Parser) parseList(atStart, afterDot bool) (evaluator.Object, error) {
	p.skipSpace()
	if !p.more() {
		return nil, p.incomplete("Missing ')'")
	}
	if p.peek() == ')' {
		if afterDot {
			return nil, p.fail("Cannot follow '.' with ')'")
		}
		p.pos++
		return evaluator.Null, nil
	}
	if p.peek() == '.' && p.pos+1 < len(p.src) && isSpace(p.src[p.pos+1]) {
		p.pos++
		if afterDot {
			return nil, p.fail("Multiple '.' in list")
		}
		if atStart {
			cdr, err := p.parseList(false, true)
			if err != nil {
				return nil, err
			}
			return evaluator.NewCons(evaluator.Null, cdr), nil
		}
		return p.parseList(false, true)
	}
	if p.peek() == '.' && p.pos+1 >= len(p.src) {
		return nil, p.incomplete("Missing ')'")
	}
	if afterDot {
		cdr, err := p.parse()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if !p.more() {
			return nil, p.incomplete("Missing ')'")
		}
		if p.peek() != ')' {
			return nil, p.fail("List with '.' had multiple cdr items")
		}
		p.pos++
		return cdr, nil
	}
	car, err := p.parse()
	if err != nil {
		return nil, err
	}
	cdr, err := p.parseList(false, false)
	if err != nil {
		return nil, err
	}
	return evaluator.NewCons(car, cdr), nil
}

func (p *Parser) more() bool { return p.pos < len(p.src) }
func (p *Parser) peek() byte { return p.src[p.pos] }

func (p *Parser) digits() {
	for p.more() && isDigit(p.peek()) {
		p.pos++
	}
}

func (p *Parser) isNumber() bool {
	c := p.peek()
	if c == '-' {
		if p.pos+1 >= len(p.src) {
			return false
		}
		c = p.src[p.pos+1]
		return isDigit(c) || c == '.'
	}
	return isDigit(c) || c == '.'
}

func (p *Parser) isDelimiter() bool {
	c := p.peek()
	return isSpace(c) || c == '(' || c == ')'
}

func (p *Parser) skipSpace() {
	for p.more() {
		c := p.peek()
		switch {
		case c == ';':
			for p.more() && p.peek() != '\n' && p.peek() != '\r' {
				p.pos++
			}
		case isSpace(c):
			p.pos++
		default:
			return
		}
	}
}

func (p *Parser) fail(reason string) error {
	return NewParseError(reason, p.pos, false)
}

func (p *Parser) incomplete(reason string) error {
	return NewParseError(reason, p.pos, true)
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' }

func isSymbolChar(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || isDigit(c) || strings.IndexByte(symbolChars, c) >= 0
}
