package evaluator

import (
	"fmt"
	"strings"
)

// Function is a closure: parameters, an optional rest parameter, a body
// of statements and the environment it was created in.
type Function struct {
	Name    string
	Params  []string
	Rest    string
	Body    *Statements
	closure *Environment
}

func (f *Function) Eval(*Environment) (Object, error)    { return f, nil }
func (f *Function) Compile(*Environment) (Object, error) { return f, nil }

func (f *Function) String() string {
	if f.Name == "" {
		return fmt.Sprintf("lambda@%p", f)
	}
	return f.Name
}

func (f *Function) displayName() string {
	if f.Name == "" {
		return "lambda"
	}
	return f.Name
}

// shadowParams returns a compile frame in which the parameters are unbound.
func shadowParams(env *Environment, name string, params []string, rest string) *Environment {
	frame := NewEnclosedEnvironment(env)
	frame.name = name
	for _, p := range params {
		frame.Shadow(p)
	}
	if rest != "" {
		frame.Shadow(rest)
	}
	return frame
}

// invoke evaluates args in the caller's environment, binds them in a new
// frame over the closure and runs the body. The result may be pending.
func (f *Function) invoke(caller *Environment, args Object) (Object, error) {
	frame := newCallFrame(f.closure, caller, f.displayName())
	argsIn := args
	for _, name := range f.Params {
		cons, ok := args.(*Cons)
		if !ok {
			if IsNull(args) {
				return nil, NewInvocationError(f.displayName(), "Insufficient Arguments", argsIn)
			}
			return nil, NewInvocationError(f.displayName(), "Malformed expression", argsIn)
		}
		value, err := cons.Car.Eval(caller)
		if err != nil {
			return nil, err
		}
		frame.Set(name, value)
		args = cons.Cdr
	}
	if f.Rest != "" {
		rest, err := evalList(caller, f.displayName(), args)
		if err != nil {
			return nil, err
		}
		frame.Set(f.Rest, rest)
	} else if !IsNull(args) {
		return nil, NewInvocationError(f.displayName(), "Too many arguments", argsIn)
	}
	if err := caller.enter(f.displayName()); err != nil {
		return nil, err
	}
	defer caller.leave()
	return f.Body.Invoke(frame)
}

func evalList(env *Environment, name string, list Object) (Object, error) {
	var items []Object
	for {
		switch l := list.(type) {
		case NullValue:
			return List(items...), nil
		case *Cons:
			value, err := l.Car.Eval(env)
			if err != nil {
				return nil, err
			}
			items = append(items, value)
			list = l.Cdr
		default:
			return nil, NewInvocationError(name, "Malformed expression", list)
		}
	}
}

// BuiltinFunc implements a built-in over already evaluated arguments. env
// is the caller's environment.
type BuiltinFunc func(env *Environment, args []Object) (Object, error)

// Builtin is a function implemented in Go. Variadic builtins accept any
// number of arguments beyond Arity.
type Builtin struct {
	Name     string
	Arity    int
	Variadic bool
	Fn       BuiltinFunc
}

func (b *Builtin) Eval(*Environment) (Object, error)    { return b, nil }
func (b *Builtin) Compile(*Environment) (Object, error) { return b, nil }
func (b *Builtin) String() string                       { return b.Name }

func (b *Builtin) invoke(caller *Environment, args Object) (Object, error) {
	values, ok := []Object(nil), true
	argsIn := args
	for {
		if IsNull(args) {
			break
		}
		cons, isCons := args.(*Cons)
		if !isCons {
			ok = false
			break
		}
		value, err := cons.Car.Eval(caller)
		if err != nil {
			return nil, err
		}
		values = append(values, value)
		args = cons.Cdr
	}
	if !ok {
		return nil, NewInvocationError(b.Name, "Malformed expression", argsIn)
	}
	return b.call(caller, values, argsIn)
}

func (b *Builtin) call(env *Environment, values []Object, argsIn Object) (Object, error) {
	if len(values) < b.Arity {
		return nil, NewInvocationError(b.Name, "Insufficient Arguments", argsIn)
	}
	if len(values) > b.Arity && !b.Variadic {
		return nil, NewInvocationError(b.Name, "Too many arguments", argsIn)
	}
	return b.Fn(env, values)
}

// Statements is a body: every statement is evaluated in order and the
// last one gives the result.
type Statements struct {
	Body []Object
}

func (s *Statements) compile(env *Environment) (*Statements, error) {
	compiled := make([]Object, len(s.Body))
	for i, stmt := range s.Body {
		c, err := stmt.Compile(env)
		if err != nil {
			return nil, err
		}
		compiled[i] = c
	}
	return &Statements{Body: compiled}, nil
}

// Invoke runs the statements in env. When tail calls are enabled the last
// statement is left pending for the caller's evaluation loop.
func (s *Statements) Invoke(env *Environment) (Object, error) {
	if len(s.Body) == 0 {
		return nil, NewSyntaxError("body", "Malformed statements")
	}
	last := len(s.Body) - 1
	for _, stmt := range s.Body[:last] {
		if _, err := stmt.Eval(env); err != nil {
			return nil, err
		}
	}
	return evalTail(s.Body[last], env)
}

func (s *Statements) String() string {
	parts := make([]string, len(s.Body))
	for i, stmt := range s.Body {
		parts[i] = stmt.String()
	}
	return strings.Join(parts, " ")
}

func parseStatements(form string, body Object) (*Statements, error) {
	items, ok := ListToSlice(body)
	if !ok || len(items) == 0 {
		return nil, NewSyntaxError(form, "Malformed body")
	}
	return &Statements{Body: items}, nil
}

// parseParams reads a parameter list: symbols, optionally ending in a
// dotted rest symbol.
func parseParams(form string, params Object) ([]string, string, error) {
	var names []string
	for {
		switch p := params.(type) {
		case *Cons:
			sym, ok := p.Car.(Symbol)
			if !ok {
				return nil, "", NewSyntaxError(form, "Malformed parameters")
			}
			names = append(names, string(sym))
			params = p.Cdr
			continue
		case Symbol:
			return names, string(p), nil
		case NullValue:
			return names, "", nil
		}
		return nil, "", NewSyntaxError(form, "Malformed parameters")
	}
}

// Apply calls fn with already evaluated arguments and drains any pending
// tail call.
func Apply(env *Environment, fn Object, args ...Object) (Object, error) {
	quoted := make([]Object, len(args))
	for i, arg := range args {
		quoted[i] = quote(arg)
	}
	return NewCons(fn, List(quoted...)).Eval(env)
}

func quote(o Object) Object {
	switch o.(type) {
	case Symbol, *Cons:
		return List(quoteForm, o)
	}
	return o
}
