package evaluator

import (
	"math"

	"github.com/funvibe/pipevo/internal/config"
)

// NewBaseEnvironment returns a root environment holding the special forms
// and every built-in function.
func NewBaseEnvironment() *Environment {
	env := NewEnvironment()
	for _, form := range SpecialForms() {
		env.Set(form.Name, form)
	}
	installList(env)
	installTypes(env)
	installNumeric(env)
	installLibrary(env)
	return env
}

func define(env *Environment, name string, arity int, fn BuiltinFunc) {
	env.Set(name, &Builtin{Name: name, Arity: arity, Fn: fn})
}

func installList(env *Environment) {
	define(env, config.ConsFuncName, 2, func(_ *Environment, args []Object) (Object, error) {
		return NewCons(args[0], args[1]), nil
	})
	define(env, config.CarFuncName, 1, func(_ *Environment, args []Object) (Object, error) {
		if c, ok := args[0].(*Cons); ok {
			return c.Car, nil
		}
		return nil, NewInvocationError(config.CarFuncName, "Cons expected", args[0])
	})
	define(env, config.CdrFuncName, 1, func(_ *Environment, args []Object) (Object, error) {
		if c, ok := args[0].(*Cons); ok {
			return c.Cdr, nil
		}
		return nil, NewInvocationError(config.CdrFuncName, "Cons expected", args[0])
	})
	define(env, "isList?", 1, func(_ *Environment, args []Object) (Object, error) {
		_, ok := ListToSlice(args[0])
		return Bool(ok), nil
	})
	env.Set(config.ListFuncName, &Builtin{Name: config.ListFuncName, Variadic: true, Fn: func(_ *Environment, args []Object) (Object, error) {
		return List(args...), nil
	}})
}

func installTypes(env *Environment) {
	predicate := func(name string, test func(Object) bool) {
		define(env, name, 1, func(_ *Environment, args []Object) (Object, error) {
			return Bool(test(args[0])), nil
		})
	}
	predicate("isCons?", func(o Object) bool { _, ok := o.(*Cons); return ok })
	predicate("isSym?", func(o Object) bool { _, ok := o.(Symbol); return ok })
	predicate("isString?", func(o Object) bool { _, ok := o.(String); return ok })
	predicate("isFn?", func(o Object) bool {
		switch o.(type) {
		case *Function, *Builtin:
			return true
		}
		return false
	})
	predicate("isMacro?", func(o Object) bool { _, ok := o.(*SpecialForm); return ok })
	predicate("isNull?", IsNull)
	predicate("isFixNum?", func(o Object) bool { _, ok := o.(FixNum); return ok })
	predicate("isReal?", func(o Object) bool { _, ok := o.(Real); return ok })
}

// numericOp is a binary operation on two fixnums or, when either operand
// is real, on two reals.
type numericOp struct {
	fix  func(a, b int64) (Object, error)
	real func(a, b float64) Object
}

func defineNumeric(env *Environment, name string, op numericOp) {
	define(env, name, 2, func(_ *Environment, args []Object) (Object, error) {
		a, b := args[0], args[1]
		if x, ok := a.(FixNum); ok {
			if y, ok := b.(FixNum); ok {
				return op.fix(int64(x), int64(y))
			}
		}
		x, okA := toReal(a)
		y, okB := toReal(b)
		if !okA || !okB {
			return nil, NewInvocationError(name, "Invalid types", List(a, b))
		}
		return op.real(x, y), nil
	})
}

func toReal(o Object) (float64, bool) {
	switch n := o.(type) {
	case FixNum:
		return float64(n), true
	case Real:
		return float64(n), true
	}
	return 0, false
}

// toFixNum truncates toward zero, saturating at the FixNum range.
func toFixNum(f float64) FixNum {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return FixNum(int64(f))
}

func relational(fix func(a, b int64) bool, real func(a, b float64) bool) numericOp {
	return numericOp{
		fix:  func(a, b int64) (Object, error) { return Bool(fix(a, b)), nil },
		real: func(a, b float64) Object { return Bool(real(a, b)) },
	}
}

func arithmetic(fix func(a, b int64) int64, real func(a, b float64) float64) numericOp {
	return numericOp{
		fix:  func(a, b int64) (Object, error) { return FixNum(fix(a, b)), nil },
		real: func(a, b float64) Object { return Real(real(a, b)) },
	}
}

func installNumeric(env *Environment) {
	define(env, config.NotFuncName, 1, func(_ *Environment, args []Object) (Object, error) {
		return Bool(IsNull(args[0])), nil
	})
	defineNumeric(env, "!=", relational(func(a, b int64) bool { return a != b }, func(a, b float64) bool { return a != b }))
	defineNumeric(env, "=", relational(func(a, b int64) bool { return a == b }, func(a, b float64) bool { return a == b }))
	defineNumeric(env, ">", relational(func(a, b int64) bool { return a > b }, func(a, b float64) bool { return a > b }))
	defineNumeric(env, ">=", relational(func(a, b int64) bool { return a >= b }, func(a, b float64) bool { return a >= b }))
	defineNumeric(env, "<", relational(func(a, b int64) bool { return a < b }, func(a, b float64) bool { return a < b }))
	defineNumeric(env, "<=", relational(func(a, b int64) bool { return a <= b }, func(a, b float64) bool { return a <= b }))
	defineNumeric(env, "+", arithmetic(func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b }))
	defineNumeric(env, "-", arithmetic(func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b }))
	defineNumeric(env, "*", arithmetic(func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b }))
	defineNumeric(env, "/", numericOp{
		fix: func(a, b int64) (Object, error) {
			if b == 0 {
				return nil, NewInvocationError("/", "division by zero", List(FixNum(a), FixNum(b)))
			}
			return FixNum(a / b), nil
		},
		real: func(a, b float64) Object { return Real(a / b) },
	})
	defineNumeric(env, "min", arithmetic(func(a, b int64) int64 { return min(a, b) }, math.Min))
	defineNumeric(env, "max", arithmetic(func(a, b int64) int64 { return max(a, b) }, math.Max))

	define(env, "abs", 1, func(_ *Environment, args []Object) (Object, error) {
		switch n := args[0].(type) {
		case FixNum:
			if n < 0 {
				return -n, nil
			}
			return n, nil
		case Real:
			return Real(math.Abs(float64(n))), nil
		}
		return nil, NewInvocationError("abs", "Invalid type", args[0])
	})

	realFunc := func(name string, fn func(float64) float64) {
		define(env, name, 1, func(_ *Environment, args []Object) (Object, error) {
			x, ok := toReal(args[0])
			if !ok {
				return nil, NewInvocationError(name, "Invalid type", args[0])
			}
			return Real(fn(x)), nil
		})
	}
	realFunc2 := func(name string, fn func(float64, float64) float64) {
		define(env, name, 2, func(_ *Environment, args []Object) (Object, error) {
			x, okX := toReal(args[0])
			y, okY := toReal(args[1])
			if !okX || !okY {
				return nil, NewInvocationError(name, "Invalid types", List(args[0], args[1]))
			}
			return Real(fn(x, y)), nil
		})
	}
	toFix := func(name string, fn func(float64) float64) {
		define(env, name, 1, func(_ *Environment, args []Object) (Object, error) {
			if n, ok := args[0].(FixNum); ok {
				return n, nil
			}
			x, ok := toReal(args[0])
			if !ok {
				return nil, NewInvocationError(name, "Invalid type", args[0])
			}
			return toFixNum(fn(x)), nil
		})
	}

	realFunc("sin", math.Sin)
	realFunc("cos", math.Cos)
	realFunc("tan", math.Tan)
	realFunc("asin", math.Asin)
	realFunc("acos", math.Acos)
	realFunc("atan", math.Atan)
	realFunc2("atan2", math.Atan2)
	realFunc2("pow", math.Pow)
	env.Set("PI", Real(math.Pi))
	env.Set("E", Real(math.E))

	round := func(x float64) float64 { return math.Floor(x + 0.5) }
	toFix("ciel", math.Ceil)
	toFix("ceil", math.Ceil)
	toFix("floor", math.Floor)
	toFix("round", round)
	toFix("trunc", math.Trunc)
}
