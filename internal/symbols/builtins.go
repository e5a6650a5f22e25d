package symbols

import (
	"github.com/funvibe/pipevo/internal/config"
	"github.com/funvibe/pipevo/internal/typesystem"
)

// NewBaseRegistry returns a registry of the built-in functions and the list
// library, matching evaluator.NewBaseEnvironment.
func NewBaseRegistry() *Registry {
	r := NewRegistry()
	RegisterBuiltins(r)
	RegisterLibrary(r)
	return r
}

// RegisterBuiltins adds the primitive numeric, logic, list and type
// predicate functions.
func RegisterBuiltins(r *Registry) {
	registerNumeric(r)
	registerLogic(r)
	registerList(r)
	registerTypes(r)
}

func registerNumeric(r *Registry) {
	for _, name := range []string{"+", "-", "*", "/"} {
		r.Add(name, typesystem.NewFunction(typesystem.FixNum, typesystem.FixNum, typesystem.FixNum))
		r.Add(name, typesystem.NewFunction(typesystem.Real, typesystem.Real, typesystem.Real))
		r.Add(name, typesystem.NewFunction(typesystem.Real, typesystem.Real, typesystem.FixNum))
		r.Add(name, typesystem.NewFunction(typesystem.Real, typesystem.FixNum, typesystem.Real))
	}
	for _, name := range []string{">", "<", "<=", ">=", "=", "!="} {
		r.Add(name, typesystem.NewFunction(typesystem.Bool, typesystem.FixNum, typesystem.FixNum))
		r.Add(name, typesystem.NewFunction(typesystem.Bool, typesystem.Real, typesystem.Real))
		r.Add(name, typesystem.NewFunction(typesystem.Bool, typesystem.FixNum, typesystem.Real))
		r.Add(name, typesystem.NewFunction(typesystem.Bool, typesystem.Real, typesystem.FixNum))
	}

	r.Add("PI", typesystem.Real)
	r.Add("E", typesystem.Real)
	for _, name := range []string{"sin", "cos", "tan", "asin", "acos", "atan"} {
		r.Add(name, typesystem.NewFunction(typesystem.Real, typesystem.Real))
	}
	r.Add("atan2", typesystem.NewFunction(typesystem.Real, typesystem.Real, typesystem.Real))
	r.Add("pow", typesystem.NewFunction(typesystem.Real, typesystem.Real, typesystem.Real))

	r.Add("abs", typesystem.NewFunction(typesystem.Real, typesystem.Real))
	r.Add("max", typesystem.NewFunction(typesystem.Real, typesystem.Real, typesystem.Real))
	r.Add("min", typesystem.NewFunction(typesystem.Real, typesystem.Real, typesystem.Real))
	r.Add("abs", typesystem.NewFunction(typesystem.FixNum, typesystem.FixNum))
	r.Add("max", typesystem.NewFunction(typesystem.FixNum, typesystem.FixNum, typesystem.FixNum))
	r.Add("min", typesystem.NewFunction(typesystem.FixNum, typesystem.FixNum, typesystem.FixNum))

	r.Add("floor", typesystem.NewFunction(typesystem.FixNum, typesystem.Real))
	r.Add("ciel", typesystem.NewFunction(typesystem.FixNum, typesystem.Real))
	r.Add("round", typesystem.NewFunction(typesystem.FixNum, typesystem.Real))
}

func anyBool() typesystem.Type { return typesystem.NewMaybe(typesystem.NewParameter()) }

func registerLogic(r *Registry) {
	r.Add(config.AndForm, typesystem.NewFunction(typesystem.Bool, anyBool(), anyBool()))
	r.Add(config.OrForm, typesystem.NewFunction(typesystem.Bool, anyBool(), anyBool()))
	r.Add(config.NotFuncName, typesystem.NewFunction(typesystem.Bool, anyBool()))

	p := typesystem.NewParameter()
	r.Add(config.IfForm, typesystem.NewFunction(p, anyBool(), p, p))
}

func registerList(r *Registry) {
	p, q := typesystem.NewParameter(), typesystem.NewParameter()
	r.Add(config.ConsFuncName, typesystem.NewFunction(typesystem.NewCons(p, q), p, q))

	p, q = typesystem.NewParameter(), typesystem.NewParameter()
	r.Add(config.CarFuncName, typesystem.NewFunction(p, typesystem.NewCons(p, q)))

	p, q = typesystem.NewParameter(), typesystem.NewParameter()
	r.Add(config.CdrFuncName, typesystem.NewFunction(q, typesystem.NewCons(p, q)))

	r.Add("isList?", typesystem.NewFunction(typesystem.Bool, typesystem.NewParameter()))

	// list is variadic; each arity up to nine is a separate entry.
	for arity := 0; arity < 10; arity++ {
		p := typesystem.NewParameter()
		args := make([]typesystem.Type, arity)
		for i := range args {
			args[i] = p
		}
		r.Add(config.ListFuncName, typesystem.NewFunction(typesystem.NewList(p), args...))
	}
}

func registerTypes(r *Registry) {
	for _, name := range []string{"isCons?", "isSym?", "isString?", "isFn?", "isMacro?", "isNull?", "isFixNum?", "isReal?"} {
		r.Add(name, typesystem.NewFunction(typesystem.Bool, typesystem.NewParameter()))
	}
}

// RegisterLibrary adds the list utilities.
func RegisterLibrary(r *Registry) {
	r.Add("length", typesystem.NewFunction(typesystem.FixNum, typesystem.NewList(typesystem.NewParameter())))
	for _, name := range []string{"first", "second", "third", "last"} {
		p := typesystem.NewParameter()
		r.Add(name, typesystem.NewFunction(p, typesystem.NewList(p)))
	}
	p := typesystem.NewParameter()
	r.Add("nth", typesystem.NewFunction(p, typesystem.NewList(p), typesystem.FixNum))
	p = typesystem.NewParameter()
	r.Add("append", typesystem.NewFunction(typesystem.NewList(p), typesystem.NewList(p), p))
	p = typesystem.NewParameter()
	r.Add("remove", typesystem.NewFunction(typesystem.NewList(p), typesystem.NewList(p), typesystem.NewFunction(typesystem.Bool, p)))
	p = typesystem.NewParameter()
	r.Add("reverse", typesystem.NewFunction(typesystem.NewList(p), typesystem.NewList(p)))

	p, q := typesystem.NewParameter(), typesystem.NewParameter()
	r.Add("map", typesystem.NewFunction(typesystem.NewList(q), typesystem.NewFunction(q, p), typesystem.NewList(p)))
	p, q = typesystem.NewParameter(), typesystem.NewParameter()
	r.Add("reduce", typesystem.NewFunction(q, typesystem.NewFunction(q, p, q), typesystem.NewList(p), q))
}
