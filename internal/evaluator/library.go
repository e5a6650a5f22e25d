package evaluator

// installLibrary adds list utilities built on the primitives.
func installLibrary(env *Environment) {
	list := func(name string, o Object) ([]Object, error) {
		items, ok := ListToSlice(o)
		if !ok {
			return nil, NewInvocationError(name, "List expected", o)
		}
		return items, nil
	}
	nth := func(name string, index int) BuiltinFunc {
		return func(_ *Environment, args []Object) (Object, error) {
			items, err := list(name, args[0])
			if err != nil {
				return nil, err
			}
			i := index
			if i < 0 {
				i = len(items) - 1
			}
			if i < 0 || i >= len(items) {
				return nil, NewInvocationError(name, "Index out of range", args[0])
			}
			return items[i], nil
		}
	}

	define(env, "length", 1, func(_ *Environment, args []Object) (Object, error) {
		items, err := list("length", args[0])
		if err != nil {
			return nil, err
		}
		return FixNum(len(items)), nil
	})
	define(env, "first", 1, nth("first", 0))
	define(env, "second", 1, nth("second", 1))
	define(env, "third", 1, nth("third", 2))
	define(env, "last", 1, nth("last", -1))
	define(env, "nth", 2, func(env *Environment, args []Object) (Object, error) {
		index, ok := args[1].(FixNum)
		if !ok {
			return nil, NewInvocationError("nth", "FixNum expected", args[1])
		}
		return nth("nth", int(index))(env, args[:1])
	})
	define(env, "append", 2, func(_ *Environment, args []Object) (Object, error) {
		items, err := list("append", args[0])
		if err != nil {
			return nil, err
		}
		return List(append(items, args[1])...), nil
	})
	define(env, "reverse", 1, func(_ *Environment, args []Object) (Object, error) {
		items, err := list("reverse", args[0])
		if err != nil {
			return nil, err
		}
		var result Object = Null
		for _, item := range items {
			result = NewCons(item, result)
		}
		return result, nil
	})
	define(env, "remove", 2, func(env *Environment, args []Object) (Object, error) {
		items, err := list("remove", args[0])
		if err != nil {
			return nil, err
		}
		var kept []Object
		for _, item := range items {
			drop, err := Apply(env, args[1], item)
			if err != nil {
				return nil, err
			}
			if IsNull(drop) {
				kept = append(kept, item)
			}
		}
		return List(kept...), nil
	})
	define(env, "map", 2, func(env *Environment, args []Object) (Object, error) {
		items, err := list("map", args[1])
		if err != nil {
			return nil, err
		}
		mapped := make([]Object, len(items))
		for i, item := range items {
			if mapped[i], err = Apply(env, args[0], item); err != nil {
				return nil, err
			}
		}
		return List(mapped...), nil
	})
	define(env, "reduce", 3, func(env *Environment, args []Object) (Object, error) {
		items, err := list("reduce", args[1])
		if err != nil {
			return nil, err
		}
		acc := args[2]
		for _, item := range items {
			if acc, err = Apply(env, args[0], item, acc); err != nil {
				return nil, err
			}
		}
		return acc, nil
	})
}
