package evaluator

import (
	"math"
	"strconv"
	"strings"
)

// Object is a value or an expression of the language. Compile resolves what
// can be resolved ahead of time; Eval reduces the result.
type Object interface {
	Eval(env *Environment) (Object, error)
	Compile(env *Environment) (Object, error)
	String() string
}

type FixNum int64

func (o FixNum) Eval(*Environment) (Object, error)    { return o, nil }
func (o FixNum) Compile(*Environment) (Object, error) { return o, nil }
func (o FixNum) String() string                       { return strconv.FormatInt(int64(o), 10) }

type Real float64

func (o Real) Eval(*Environment) (Object, error)    { return o, nil }
func (o Real) Compile(*Environment) (Object, error) { return o, nil }

func (o Real) String() string {
	f := float64(o)
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

type String string

func (o String) Eval(*Environment) (Object, error)    { return o, nil }
func (o String) Compile(*Environment) (Object, error) { return o, nil }

func (o String) String() string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range string(o) {
		if r == '"' || r == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	sb.WriteByte('"')
	return sb.String()
}

type Symbol string

func (o Symbol) Eval(env *Environment) (Object, error) {
	return env.Lookup(string(o))
}

// Compile replaces a bound symbol with its value when that value evaluates
// to itself. Shadowed names stay symbols.
func (o Symbol) Compile(env *Environment) (Object, error) {
	value, ok := env.Get(string(o))
	if !ok {
		return o, nil
	}
	switch value.(type) {
	case Symbol, *Cons:
		return o, nil
	}
	return value, nil
}

func (o Symbol) String() string { return string(o) }

// NullValue is the empty list and the false value.
type NullValue struct{}

var Null Object = NullValue{}

func (NullValue) Eval(*Environment) (Object, error)    { return Null, nil }
func (NullValue) Compile(*Environment) (Object, error) { return Null, nil }
func (NullValue) String() string                       { return "()" }

// TrueValue is the canonical true value.
type TrueValue struct{}

var True Object = TrueValue{}

func (TrueValue) Eval(*Environment) (Object, error)    { return True, nil }
func (TrueValue) Compile(*Environment) (Object, error) { return True, nil }
func (TrueValue) String() string                       { return "#t" }

func IsNull(o Object) bool {
	_, ok := o.(NullValue)
	return ok
}

// Bool converts a Go boolean into True or Null.
func Bool(b bool) Object {
	if b {
		return True
	}
	return Null
}

type Cons struct {
	Car Object
	Cdr Object
}

func NewCons(car, cdr Object) *Cons { return &Cons{Car: car, Cdr: cdr} }

// List builds a proper list of items.
func List(items ...Object) Object {
	var result Object = Null
	for i := len(items) - 1; i >= 0; i-- {
		result = NewCons(items[i], result)
	}
	return result
}

// ListToSlice returns the items of a proper list. ok is false for an
// improper list.
func ListToSlice(list Object) (items []Object, ok bool) {
	for {
		switch l := list.(type) {
		case NullValue:
			return items, true
		case *Cons:
			items = append(items, l.Car)
			list = l.Cdr
		default:
			return items, false
		}
	}
}

func (c *Cons) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	sb.WriteString(c.Car.String())
	rest := c.Cdr
	for {
		if next, ok := rest.(*Cons); ok {
			sb.WriteByte(' ')
			sb.WriteString(next.Car.String())
			rest = next.Cdr
			continue
		}
		if !IsNull(rest) {
			sb.WriteString(" . ")
			sb.WriteString(rest.String())
		}
		break
	}
	sb.WriteByte(')')
	return sb.String()
}

// Compile resolves the head and the arguments. Special forms compile their
// own arguments.
func (c *Cons) Compile(env *Environment) (Object, error) {
	head, err := c.Car.Compile(env)
	if err != nil {
		return nil, err
	}
	if form, ok := head.(*SpecialForm); ok {
		return form.compile(env, c.Cdr)
	}
	args, err := compileList(env, c.Cdr)
	if err != nil {
		return nil, err
	}
	return NewCons(head, args), nil
}

func compileList(env *Environment, list Object) (Object, error) {
	switch l := list.(type) {
	case NullValue:
		return l, nil
	case *Cons:
		car, err := l.Car.Compile(env)
		if err != nil {
			return nil, err
		}
		cdr, err := compileList(env, l.Cdr)
		if err != nil {
			return nil, err
		}
		return NewCons(car, cdr), nil
	}
	return nil, NewSyntaxError("list", "Malformed list")
}
