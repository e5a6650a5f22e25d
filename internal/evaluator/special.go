package evaluator

import (
	"strings"

	"github.com/funvibe/pipevo/internal/config"
)

// SpecialForm receives its arguments unevaluated. Forms with a builder turn
// their arguments into an expression node, compiled ahead of time or built
// on the fly when invoked; the others operate on the argument list directly.
type SpecialForm struct {
	Name    string
	build   func(env *Environment, args Object, compile bool) (Object, error)
	apply   func(env *Environment, args Object) (Object, error)
	rawArgs bool
}

func (s *SpecialForm) Eval(*Environment) (Object, error)    { return s, nil }
func (s *SpecialForm) Compile(*Environment) (Object, error) { return s, nil }
func (s *SpecialForm) String() string                       { return s.Name }

func (s *SpecialForm) compile(env *Environment, args Object) (Object, error) {
	if s.build != nil {
		return s.build(env, args, true)
	}
	if s.rawArgs {
		return NewCons(s, args), nil
	}
	compiled, err := compileList(env, args)
	if err != nil {
		return nil, err
	}
	return NewCons(s, compiled), nil
}

func (s *SpecialForm) invoke(env *Environment, args Object) (Object, error) {
	if s.build != nil {
		node, err := s.build(env, args, false)
		if err != nil {
			return nil, err
		}
		return evalTail(node, env)
	}
	return s.apply(env, args)
}

var (
	ifForm     = &SpecialForm{Name: config.IfForm, build: buildIf}
	condForm   = &SpecialForm{Name: config.CondForm, build: buildCond}
	letForm    = &SpecialForm{Name: config.LetForm, build: letBuilder(false)}
	letStar    = &SpecialForm{Name: config.LetStar, build: letBuilder(true)}
	labelsForm = &SpecialForm{Name: config.LabelsForm, build: buildLabels}
	defineForm = &SpecialForm{Name: config.DefineForm, build: buildDefine}
	lambdaForm = &SpecialForm{Name: config.LambdaForm, build: buildLambda}
	quoteForm  = &SpecialForm{Name: config.QuoteForm, apply: applyQuote, rawArgs: true}
	andForm    = &SpecialForm{Name: config.AndForm, apply: applyAnd}
	orForm     = &SpecialForm{Name: config.OrForm, apply: applyOr}
)

// SpecialForms lists every special form in installation order.
func SpecialForms() []*SpecialForm {
	return []*SpecialForm{condForm, ifForm, lambdaForm, quoteForm, letForm, letStar, labelsForm, defineForm, andForm, orForm}
}

// drain reduces a pending result outside of a tail position.
func drain(result Object, err error) (Object, error) {
	if err != nil {
		return nil, err
	}
	if p, ok := result.(*pending); ok {
		return p.expr.Eval(p.env)
	}
	return result, nil
}

func compileAll(compile bool, env *Environment, objs ...*Object) error {
	if !compile {
		return nil
	}
	for _, o := range objs {
		c, err := (*o).Compile(env)
		if err != nil {
			return err
		}
		*o = c
	}
	return nil
}

type ifExpr struct {
	pred, then, els Object
}

func buildIf(env *Environment, args Object, compile bool) (Object, error) {
	items, ok := ListToSlice(args)
	if !ok || len(items) < 2 {
		return nil, NewSyntaxError(config.IfForm, "Malformed if")
	}
	if len(items) > 3 {
		return nil, NewSyntaxError(config.IfForm, "Malformed else clause")
	}
	expr := &ifExpr{pred: items[0], then: items[1], els: Null}
	if len(items) == 3 {
		expr.els = items[2]
	}
	if err := compileAll(compile, env, &expr.pred, &expr.then, &expr.els); err != nil {
		return nil, err
	}
	return expr, nil
}

func (e *ifExpr) branch(env *Environment) (Object, error) {
	p, err := e.pred.Eval(env)
	if err != nil {
		return nil, err
	}
	if IsNull(p) {
		return e.els, nil
	}
	return e.then, nil
}

func (e *ifExpr) Eval(env *Environment) (Object, error) {
	b, err := e.branch(env)
	if err != nil {
		return nil, err
	}
	return b.Eval(env)
}

func (e *ifExpr) evalTail(env *Environment) (Object, error) {
	b, err := e.branch(env)
	if err != nil {
		return nil, err
	}
	return evalTail(b, env)
}

func (e *ifExpr) Compile(*Environment) (Object, error) { return e, nil }

func (e *ifExpr) String() string {
	return "(if " + e.pred.String() + " " + e.then.String() + " " + e.els.String() + ")"
}

type condClause struct {
	pred, result Object
}

type condExpr struct {
	clauses []condClause
}

func buildCond(env *Environment, args Object, compile bool) (Object, error) {
	items, ok := ListToSlice(args)
	if !ok {
		return nil, NewSyntaxError(config.CondForm, "Malformed clauses")
	}
	expr := &condExpr{}
	for _, item := range items {
		parts, ok := ListToSlice(item)
		if !ok || len(parts) != 2 {
			return nil, NewSyntaxError(config.CondForm, "Malformed clause")
		}
		clause := condClause{pred: parts[0], result: parts[1]}
		if err := compileAll(compile, env, &clause.pred, &clause.result); err != nil {
			return nil, err
		}
		expr.clauses = append(expr.clauses, clause)
	}
	return expr, nil
}

func (e *condExpr) choose(env *Environment) (Object, error) {
	for _, clause := range e.clauses {
		p, err := clause.pred.Eval(env)
		if err != nil {
			return nil, err
		}
		if !IsNull(p) {
			return clause.result, nil
		}
	}
	return Null, nil
}

func (e *condExpr) Eval(env *Environment) (Object, error) {
	r, err := e.choose(env)
	if err != nil {
		return nil, err
	}
	return r.Eval(env)
}

func (e *condExpr) evalTail(env *Environment) (Object, error) {
	r, err := e.choose(env)
	if err != nil {
		return nil, err
	}
	return evalTail(r, env)
}

func (e *condExpr) Compile(*Environment) (Object, error) { return e, nil }

func (e *condExpr) String() string {
	var sb strings.Builder
	sb.WriteString("(cond")
	for _, c := range e.clauses {
		sb.WriteString(" (" + c.pred.String() + " " + c.result.String() + ")")
	}
	sb.WriteString(")")
	return sb.String()
}

type letExpr struct {
	sequential bool
	names      []string
	values     []Object
	body       *Statements
}

func letBuilder(sequential bool) func(*Environment, Object, bool) (Object, error) {
	form := config.LetForm
	if sequential {
		form = config.LetStar
	}
	return func(env *Environment, args Object, compile bool) (Object, error) {
		cons, ok := args.(*Cons)
		if !ok {
			return nil, NewSyntaxError(form, "Malformed let")
		}
		bindings, ok := ListToSlice(cons.Car)
		if !ok {
			return nil, NewSyntaxError(form, "Malformed let clause")
		}
		expr := &letExpr{sequential: sequential}
		letEnv := NewEnclosedEnvironment(env)
		for _, binding := range bindings {
			parts, ok := ListToSlice(binding)
			if !ok {
				return nil, NewSyntaxError(form, "Malformed let clauses")
			}
			if len(parts) != 2 {
				return nil, NewSyntaxError(form, "Malformed let clause")
			}
			sym, ok := parts[0].(Symbol)
			if !ok {
				return nil, NewSyntaxError(form, "Symbol expected")
			}
			value := parts[1]
			if compile {
				letEnv.Shadow(string(sym))
				valueEnv := env
				if sequential {
					valueEnv = letEnv
				}
				var err error
				if value, err = value.Compile(valueEnv); err != nil {
					return nil, err
				}
			}
			expr.names = append(expr.names, string(sym))
			expr.values = append(expr.values, value)
		}
		body, err := parseStatements(form, cons.Cdr)
		if err != nil {
			return nil, err
		}
		if compile {
			if body, err = body.compile(letEnv); err != nil {
				return nil, err
			}
		}
		expr.body = body
		return expr, nil
	}
}

func (e *letExpr) bind(env *Environment) (*Environment, error) {
	letEnv := NewEnclosedEnvironment(env)
	valueEnv := env
	if e.sequential {
		valueEnv = letEnv
	}
	for i, name := range e.names {
		v, err := e.values[i].Eval(valueEnv)
		if err != nil {
			return nil, err
		}
		letEnv.Set(name, v)
	}
	return letEnv, nil
}

func (e *letExpr) Eval(env *Environment) (Object, error) {
	letEnv, err := e.bind(env)
	if err != nil {
		return nil, err
	}
	return drain(e.body.Invoke(letEnv))
}

func (e *letExpr) evalTail(env *Environment) (Object, error) {
	letEnv, err := e.bind(env)
	if err != nil {
		return nil, err
	}
	return e.body.Invoke(letEnv)
}

func (e *letExpr) Compile(*Environment) (Object, error) { return e, nil }

func (e *letExpr) String() string {
	var sb strings.Builder
	sb.WriteString("(")
	if e.sequential {
		sb.WriteString(config.LetStar)
	} else {
		sb.WriteString(config.LetForm)
	}
	sb.WriteString(" (")
	for i, name := range e.names {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString("(" + name + " " + e.values[i].String() + ")")
	}
	sb.WriteString(") " + e.body.String() + ")")
	return sb.String()
}

type labelsExpr struct {
	functions []*Function
	body      *Statements
}

func buildLabels(env *Environment, args Object, compile bool) (Object, error) {
	cons, ok := args.(*Cons)
	if !ok {
		return nil, NewSyntaxError(config.LabelsForm, "Malformed labels")
	}
	clauses, ok := ListToSlice(cons.Car)
	if !ok {
		return nil, NewSyntaxError(config.LabelsForm, "Malformed labels clauses")
	}
	expr := &labelsExpr{}
	labelsEnv := NewEnclosedEnvironment(env)
	for _, clause := range clauses {
		fn, ok := clause.(*Cons)
		if !ok {
			return nil, NewSyntaxError(config.LabelsForm, "Malformed labels clauses")
		}
		name, ok := fn.Car.(Symbol)
		if !ok {
			return nil, NewSyntaxError(config.LabelsForm, "Symbol expected")
		}
		rest, ok := fn.Cdr.(*Cons)
		if !ok {
			return nil, NewSyntaxError(config.LabelsForm, "Malformed labels clause")
		}
		f, err := buildFunction(config.LabelsForm, string(name), rest.Car, rest.Cdr)
		if err != nil {
			return nil, err
		}
		if compile {
			labelsEnv.Shadow(string(name))
		}
		expr.functions = append(expr.functions, f)
	}
	if compile {
		for i, f := range expr.functions {
			compiled, err := f.compileBody(labelsEnv)
			if err != nil {
				return nil, err
			}
			expr.functions[i] = compiled
		}
	}
	body, err := parseStatements(config.LabelsForm, cons.Cdr)
	if err != nil {
		return nil, err
	}
	if compile {
		if body, err = body.compile(labelsEnv); err != nil {
			return nil, err
		}
	}
	expr.body = body
	return expr, nil
}

func (e *labelsExpr) bind(env *Environment) *Environment {
	labelsEnv := NewEnclosedEnvironment(env)
	for _, f := range e.functions {
		labelsEnv.Set(f.Name, f.closeOver(labelsEnv))
	}
	return labelsEnv
}

func (e *labelsExpr) Eval(env *Environment) (Object, error) {
	return drain(e.body.Invoke(e.bind(env)))
}

func (e *labelsExpr) evalTail(env *Environment) (Object, error) {
	return e.body.Invoke(e.bind(env))
}

func (e *labelsExpr) Compile(*Environment) (Object, error) { return e, nil }

func (e *labelsExpr) String() string {
	var sb strings.Builder
	sb.WriteString("(labels (")
	for i, f := range e.functions {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString("(" + f.Name + " " + f.paramString() + " " + f.Body.String() + ")")
	}
	sb.WriteString(") " + e.body.String() + ")")
	return sb.String()
}

// buildFunction reads a parameter list and body into a function template.
func buildFunction(form, name string, params, body Object) (*Function, error) {
	names, rest, err := parseParams(form, params)
	if err != nil {
		return nil, err
	}
	statements, err := parseStatements(form, body)
	if err != nil {
		return nil, err
	}
	return &Function{Name: name, Params: names, Rest: rest, Body: statements}, nil
}

func (f *Function) compileBody(env *Environment) (*Function, error) {
	body, err := f.Body.compile(shadowParams(env, f.displayName(), f.Params, f.Rest))
	if err != nil {
		return nil, err
	}
	c := *f
	c.Body = body
	return &c, nil
}

func (f *Function) closeOver(env *Environment) *Function {
	c := *f
	c.closure = env
	return &c
}

func (f *Function) paramString() string {
	var sb strings.Builder
	sb.WriteString("(")
	sb.WriteString(strings.Join(f.Params, " "))
	if f.Rest != "" {
		if len(f.Params) > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(". " + f.Rest)
	}
	sb.WriteString(")")
	return sb.String()
}

type lambdaExpr struct {
	fn *Function
}

func buildLambda(env *Environment, args Object, compile bool) (Object, error) {
	cons, ok := args.(*Cons)
	if !ok {
		return nil, NewSyntaxError(config.LambdaForm, "Malformed lambda")
	}
	fn, err := buildFunction(config.LambdaForm, "", cons.Car, cons.Cdr)
	if err != nil {
		return nil, err
	}
	if compile {
		if fn, err = fn.compileBody(env); err != nil {
			return nil, err
		}
	}
	return &lambdaExpr{fn: fn}, nil
}

func (e *lambdaExpr) Eval(env *Environment) (Object, error) { return e.fn.closeOver(env), nil }
func (e *lambdaExpr) Compile(*Environment) (Object, error)  { return e, nil }

func (e *lambdaExpr) String() string {
	return "(lambda " + e.fn.paramString() + " " + e.fn.Body.String() + ")"
}

// defineExpr binds a function or a value in the environment it is
// evaluated in and yields the bound name.
type defineExpr struct {
	name  string
	fn    *Function
	value Object
}

func buildDefine(env *Environment, args Object, compile bool) (Object, error) {
	cons, ok := args.(*Cons)
	if !ok {
		return nil, NewSyntaxError(config.DefineForm, "Malformed define")
	}
	switch target := cons.Car.(type) {
	case *Cons:
		name, ok := target.Car.(Symbol)
		if !ok {
			return nil, NewSyntaxError(config.DefineForm, "Malformed define")
		}
		fn, err := buildFunction(config.DefineForm, string(name), target.Cdr, cons.Cdr)
		if err != nil {
			return nil, err
		}
		if compile {
			self := NewEnclosedEnvironment(env)
			self.Shadow(string(name))
			if fn, err = fn.compileBody(self); err != nil {
				return nil, err
			}
		}
		return &defineExpr{name: string(name), fn: fn}, nil
	case Symbol:
		rest, ok := cons.Cdr.(*Cons)
		if !ok || !IsNull(rest.Cdr) {
			return nil, NewSyntaxError(config.DefineForm, "Malformed define")
		}
		value := rest.Car
		if compile {
			var err error
			if value, err = value.Compile(env); err != nil {
				return nil, err
			}
		}
		return &defineExpr{name: string(target), value: value}, nil
	}
	return nil, NewSyntaxError(config.DefineForm, "Malformed define")
}

func (e *defineExpr) Eval(env *Environment) (Object, error) {
	if e.fn != nil {
		env.Set(e.name, e.fn.closeOver(env))
		return Symbol(e.name), nil
	}
	v, err := e.value.Eval(env)
	if err != nil {
		return nil, err
	}
	env.Set(e.name, v)
	return Symbol(e.name), nil
}

func (e *defineExpr) Compile(*Environment) (Object, error) { return e, nil }

func (e *defineExpr) String() string {
	if e.fn != nil {
		head := strings.TrimSpace(e.name + " " + strings.TrimSuffix(strings.TrimPrefix(e.fn.paramString(), "("), ")"))
		return "(define (" + head + ") " + e.fn.Body.String() + ")"
	}
	return "(define " + e.name + " " + e.value.String() + ")"
}

// IsDefinition reports whether a compiled form is a define.
func IsDefinition(o Object) bool {
	_, ok := o.(*defineExpr)
	return ok
}

func applyQuote(env *Environment, args Object) (Object, error) {
	cons, ok := args.(*Cons)
	if !ok {
		return nil, NewSyntaxError(config.QuoteForm, "Cons expected")
	}
	return cons.Car, nil
}

func applyAnd(env *Environment, args Object) (Object, error) {
	for {
		cons, ok := args.(*Cons)
		if !ok {
			return nil, NewSyntaxError(config.AndForm, "Malformed and")
		}
		next, err := cons.Car.Eval(env)
		if err != nil {
			return nil, err
		}
		if IsNull(next) {
			return Null, nil
		}
		if IsNull(cons.Cdr) {
			return True, nil
		}
		args = cons.Cdr
	}
}

func applyOr(env *Environment, args Object) (Object, error) {
	for {
		cons, ok := args.(*Cons)
		if !ok {
			return nil, NewSyntaxError(config.OrForm, "Malformed or")
		}
		next, err := cons.Car.Eval(env)
		if err != nil {
			return nil, err
		}
		if !IsNull(next) {
			return True, nil
		}
		if IsNull(cons.Cdr) {
			return Null, nil
		}
		args = cons.Cdr
	}
}
