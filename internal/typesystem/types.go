package typesystem

import (
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/funvibe/pipevo/internal/config"
)

// Type is the closed set of type variants: *Base, *Maybe, *Cons, *List,
// *Function and *Parameter.
type Type interface {
	String() string
	// Match matches the receiver as a pattern against other. Only Parameters
	// of the receiver are bound.
	Match(other Type) Match
	// Involves reports whether p occurs anywhere inside the type.
	Involves(p *Parameter) bool
	IsParameterized() bool
	// Substitute replaces mapped Parameters. The receiver itself is returned
	// when nothing changed.
	Substitute(mappings []Mapping) Type
	Equal(other Type) bool

	collectParameters(c *collector)
}

// Base is an atom type distinguished by its name.
type Base struct {
	name string
}

var (
	FixNum = &Base{name: config.FixNumTypeName}
	Real   = &Base{name: config.RealTypeName}
	Symbol = &Base{name: config.SymbolTypeName}
	String = &Base{name: config.StringTypeName}
	True   = &Base{name: config.TrueTypeName}
	Null   = &Base{name: config.NullTypeName}

	// Bool is either True or Null.
	Bool = NewMaybe(True)
)

// BaseTypes lists every atom type in declaration order.
var BaseTypes = []*Base{FixNum, Real, Symbol, String, True, Null}

func (t *Base) Name() string   { return t.name }
func (t *Base) String() string { return t.name }

func (t *Base) Match(other Type) Match {
	if o, ok := other.(*Base); ok && o.name == t.name {
		return Matched
	}
	return NoMatch
}

func (t *Base) Involves(*Parameter) bool         { return false }
func (t *Base) IsParameterized() bool            { return false }
func (t *Base) Substitute(mappings []Mapping) Type { return t }
func (t *Base) collectParameters(*collector)     {}

func (t *Base) Equal(other Type) bool {
	o, ok := other.(*Base)
	return ok && o.name == t.name
}

// Maybe is a value of the inner type or Null.
type Maybe struct {
	inner Type
}

// NewMaybe wraps inner. A Maybe of a Maybe collapses to the inner Maybe and
// Maybe(Null) is just Null.
func NewMaybe(inner Type) Type {
	switch inner := inner.(type) {
	case *Maybe:
		return inner
	case *Base:
		if inner == Null {
			return Null
		}
	}
	return &Maybe{inner: inner}
}

func (t *Maybe) Inner() Type { return t.inner }

func (t *Maybe) String() string {
	if t.inner.Equal(True) {
		return config.BoolTypeName
	}
	return "(" + config.MaybeTypeName + " " + t.inner.String() + ")"
}

func (t *Maybe) Match(other Type) Match {
	if o, ok := other.(*Maybe); ok {
		return t.inner.Match(o.inner)
	}
	if other.Equal(Null) {
		return Matched
	}
	return t.inner.Match(other)
}

func (t *Maybe) Involves(p *Parameter) bool { return t.inner.Involves(p) }
func (t *Maybe) IsParameterized() bool      { return t.inner.IsParameterized() }

func (t *Maybe) Substitute(mappings []Mapping) Type {
	inner := t.inner.Substitute(mappings)
	if inner == t.inner {
		return t
	}
	return NewMaybe(inner)
}

func (t *Maybe) Equal(other Type) bool {
	o, ok := other.(*Maybe)
	return ok && t.inner.Equal(o.inner)
}

func (t *Maybe) collectParameters(c *collector) { t.inner.collectParameters(c) }

// Cons is the type of a pair.
type Cons struct {
	car Type
	cdr Type
}

func NewCons(car, cdr Type) *Cons { return &Cons{car: car, cdr: cdr} }

func (t *Cons) Car() Type { return t.car }
func (t *Cons) Cdr() Type { return t.cdr }

func (t *Cons) String() string {
	return "(" + config.ConsTypeName + " " + t.car.String() + " " + t.cdr.String() + ")"
}

func (t *Cons) Match(other Type) Match {
	o, ok := other.(*Cons)
	if !ok {
		return NoMatch
	}
	car := t.car.Match(o.car)
	if !car.Matches() {
		return car
	}
	cdr := t.cdr.Match(o.cdr)
	if !cdr.Matches() {
		return cdr
	}
	return car.Combine(cdr)
}

func (t *Cons) Involves(p *Parameter) bool { return t.car.Involves(p) || t.cdr.Involves(p) }
func (t *Cons) IsParameterized() bool      { return t.car.IsParameterized() || t.cdr.IsParameterized() }

func (t *Cons) Substitute(mappings []Mapping) Type {
	car := t.car.Substitute(mappings)
	cdr := t.cdr.Substitute(mappings)
	if car == t.car && cdr == t.cdr {
		return t
	}
	return NewCons(car, cdr)
}

func (t *Cons) Equal(other Type) bool {
	o, ok := other.(*Cons)
	return ok && t.car.Equal(o.car) && t.cdr.Equal(o.cdr)
}

func (t *Cons) collectParameters(c *collector) {
	t.car.collectParameters(c)
	t.cdr.collectParameters(c)
}

// List is a proper list of one element type.
type List struct {
	element Type
}

func NewList(element Type) *List { return &List{element: element} }

func (t *List) Element() Type { return t.element }

func (t *List) String() string {
	return "(" + config.ListTypeName + " " + t.element.String() + ")"
}

func (t *List) Match(other Type) Match {
	if o, ok := other.(*List); ok {
		return t.element.Match(o.element)
	}
	return NoMatch
}

func (t *List) Involves(p *Parameter) bool { return t.element.Involves(p) }
func (t *List) IsParameterized() bool      { return t.element.IsParameterized() }

func (t *List) Substitute(mappings []Mapping) Type {
	element := t.element.Substitute(mappings)
	if element == t.element {
		return t
	}
	return NewList(element)
}

func (t *List) Equal(other Type) bool {
	o, ok := other.(*List)
	return ok && t.element.Equal(o.element)
}

func (t *List) collectParameters(c *collector) { t.element.collectParameters(c) }

// Function is the type of a callable with fixed arity.
type Function struct {
	ret  Type
	args []Type
}

func NewFunction(ret Type, args ...Type) *Function {
	return &Function{ret: ret, args: args}
}

func (t *Function) Return() Type      { return t.ret }
func (t *Function) Arguments() []Type { return t.args }
func (t *Function) Arity() int        { return len(t.args) }

func (t *Function) String() string {
	var sb strings.Builder
	sb.WriteString("(")
	sb.WriteString(config.FunctionTypeName)
	sb.WriteString(" ")
	sb.WriteString(t.ret.String())
	for _, arg := range t.args {
		sb.WriteString(" ")
		sb.WriteString(arg.String())
	}
	sb.WriteString(")")
	return sb.String()
}

func (t *Function) Match(other Type) Match {
	o, ok := other.(*Function)
	if !ok || len(o.args) != len(t.args) {
		return NoMatch
	}
	result := t.ret.Match(o.ret)
	if !result.Matches() {
		return NoMatch
	}
	args := Matched
	for i, arg := range t.args {
		args = args.Combine(arg.Match(o.args[i]))
		if !args.Matches() {
			break
		}
	}
	return result.Combine(args)
}

func (t *Function) Involves(p *Parameter) bool {
	if t.ret.Involves(p) {
		return true
	}
	for _, arg := range t.args {
		if arg.Involves(p) {
			return true
		}
	}
	return false
}

func (t *Function) IsParameterized() bool {
	if t.ret.IsParameterized() {
		return true
	}
	for _, arg := range t.args {
		if arg.IsParameterized() {
			return true
		}
	}
	return false
}

func (t *Function) Substitute(mappings []Mapping) Type {
	ret := t.ret.Substitute(mappings)
	changed := ret != t.ret
	args := make([]Type, len(t.args))
	for i, arg := range t.args {
		args[i] = arg.Substitute(mappings)
		if args[i] != arg {
			changed = true
		}
	}
	if !changed {
		return t
	}
	return NewFunction(ret, args...)
}

func (t *Function) Equal(other Type) bool {
	o, ok := other.(*Function)
	if !ok || len(o.args) != len(t.args) || !t.ret.Equal(o.ret) {
		return false
	}
	for i, arg := range t.args {
		if !arg.Equal(o.args[i]) {
			return false
		}
	}
	return true
}

func (t *Function) collectParameters(c *collector) {
	t.ret.collectParameters(c)
	for _, arg := range t.args {
		arg.collectParameters(c)
	}
}

var parameterIDs atomic.Uint64

// Parameter is a type variable. Parameters are equal only to themselves.
type Parameter struct {
	id uint64
}

func NewParameter() *Parameter {
	return &Parameter{id: parameterIDs.Add(1)}
}

func (t *Parameter) ID() uint64 { return t.id }

func (t *Parameter) String() string {
	return "'t" + strconv.FormatUint(t.id, 10)
}

func (t *Parameter) Match(other Type) Match {
	if other == Type(t) {
		return Matched
	}
	return Map(t, other)
}

func (t *Parameter) Involves(p *Parameter) bool { return t == p }
func (t *Parameter) IsParameterized() bool      { return true }

func (t *Parameter) Substitute(mappings []Mapping) Type {
	for _, m := range mappings {
		if m.Parameter == t {
			return m.Type
		}
	}
	return t
}

func (t *Parameter) Equal(other Type) bool {
	o, ok := other.(*Parameter)
	return ok && o == t
}

func (t *Parameter) collectParameters(c *collector) { c.add(t) }
