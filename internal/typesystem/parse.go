package typesystem

import (
	"strings"
	"unicode"

	"github.com/funvibe/pipevo/internal/config"
)

// Parse reads the text form of a type:
//
//	FixNum Real Symbol String True Null Bool
//	(Maybe T) (Cons A B) (List T) (-> R A1 A2 ...)
//	'a
//
// Parameters with the same name within one call are the same Parameter.
func Parse(text string) (Type, error) {
	p := &typeParser{text: text, params: make(map[string]*Parameter)}
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos < len(p.text) {
		return nil, NewTypeSyntaxError(text, p.pos, "trailing input")
	}
	return t, nil
}

// MustParse is Parse for types known to be well formed.
func MustParse(text string) Type {
	t, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return t
}

type typeParser struct {
	text   string
	pos    int
	params map[string]*Parameter
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.text) && unicode.IsSpace(rune(p.text[p.pos])) {
		p.pos++
	}
}

func (p *typeParser) word() string {
	start := p.pos
	for p.pos < len(p.text) {
		c := p.text[p.pos]
		if c == '(' || c == ')' || unicode.IsSpace(rune(c)) {
			break
		}
		p.pos++
	}
	return p.text[start:p.pos]
}

func (p *typeParser) fail(reason string) error {
	return NewTypeSyntaxError(p.text, p.pos, reason)
}

func (p *typeParser) parseType() (Type, error) {
	p.skipSpace()
	if p.pos >= len(p.text) {
		return nil, p.fail("unexpected end of type")
	}
	switch p.text[p.pos] {
	case '(':
		p.pos++
		return p.parseCompound()
	case ')':
		return nil, p.fail("unexpected ')'")
	case '\'':
		p.pos++
		name := p.word()
		if name == "" {
			return nil, p.fail("missing parameter name")
		}
		param, ok := p.params[name]
		if !ok {
			param = NewParameter()
			p.params[name] = param
		}
		return param, nil
	}
	start := p.pos
	name := p.word()
	if name == config.BoolTypeName {
		return Bool, nil
	}
	for _, base := range BaseTypes {
		if base.name == name {
			return base, nil
		}
	}
	p.pos = start
	return nil, p.fail("unknown type " + name)
}

func (p *typeParser) parseCompound() (Type, error) {
	p.skipSpace()
	head := p.word()
	var args []Type
	for {
		p.skipSpace()
		if p.pos >= len(p.text) {
			return nil, p.fail("missing ')'")
		}
		if p.text[p.pos] == ')' {
			p.pos++
			break
		}
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		args = append(args, t)
	}
	switch strings.TrimSpace(head) {
	case config.MaybeTypeName:
		if len(args) != 1 {
			return nil, p.fail("Maybe takes one type")
		}
		return NewMaybe(args[0]), nil
	case config.ConsTypeName:
		if len(args) != 2 {
			return nil, p.fail("Cons takes two types")
		}
		return NewCons(args[0], args[1]), nil
	case config.ListTypeName:
		if len(args) != 1 {
			return nil, p.fail("List takes one type")
		}
		return NewList(args[0]), nil
	case config.FunctionTypeName:
		if len(args) < 1 {
			return nil, p.fail("function type needs a return type")
		}
		return NewFunction(args[0], args[1:]...), nil
	}
	return nil, p.fail("unknown type constructor " + head)
}
