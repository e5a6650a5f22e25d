package evaluator

// pending is a tail call left for the enclosing evaluation loop.
type pending struct {
	expr *Cons
	env  *Environment
}

func (p *pending) Eval(*Environment) (Object, error)    { return p.expr.Eval(p.env) }
func (p *pending) Compile(*Environment) (Object, error) { return p, nil }
func (p *pending) String() string                       { return "#<pending " + p.expr.String() + ">" }

// tailEvaluator is an expression that can leave its result expression
// pending.
type tailEvaluator interface {
	evalTail(env *Environment) (Object, error)
}

// evalTail evaluates expr in tail position. With tail calls enabled a
// combination is returned as pending instead of being evaluated.
func evalTail(expr Object, env *Environment) (Object, error) {
	if !env.state.tails {
		return expr.Eval(env)
	}
	switch e := expr.(type) {
	case *Cons:
		return &pending{expr: e, env: env}, nil
	case tailEvaluator:
		return e.evalTail(env)
	}
	return expr.Eval(env)
}

// Eval applies the head of the combination to the rest. Pending tail calls
// returned by the callee are reduced here, so a chain of tail calls runs in
// constant stack. A head that is neither a function nor a special form
// makes the combination evaluate to itself.
func (c *Cons) Eval(env *Environment) (Object, error) {
	expr := c
	for {
		if err := env.checkAbort(); err != nil {
			return nil, err
		}
		head, err := expr.Car.Eval(env)
		if err != nil {
			return nil, err
		}
		var result Object
		switch fn := head.(type) {
		case *Function:
			result, err = fn.invoke(env, expr.Cdr)
		case *Builtin:
			result, err = fn.invoke(env, expr.Cdr)
		case *SpecialForm:
			result, err = fn.invoke(env, expr.Cdr)
		default:
			return expr, nil
		}
		if err != nil {
			return nil, err
		}
		p, ok := result.(*pending)
		if !ok {
			return result, nil
		}
		expr, env = p.expr, p.env
	}
}

// EvalForms compiles and evaluates each form in turn and returns the last
// result.
func EvalForms(env *Environment, forms []Object) (Object, error) {
	var result Object = Null
	for _, form := range forms {
		compiled, err := form.Compile(env)
		if err != nil {
			return nil, err
		}
		result, err = compiled.Eval(env)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}
