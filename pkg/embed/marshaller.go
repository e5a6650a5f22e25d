package pipevo

import (
	"fmt"
	"reflect"

	"github.com/funvibe/pipevo/internal/evaluator"
	"github.com/funvibe/pipevo/internal/typesystem"
)

// Marshaller handles conversion between Go and interpreter values.
type Marshaller struct{}

func NewMarshaller() *Marshaller {
	return &Marshaller{}
}

var objectType = reflect.TypeOf((*evaluator.Object)(nil)).Elem()

// ToValue converts a Go value to an interpreter Object. Integers become
// FixNum, floats Real, false and nil the empty list, slices lists.
func (m *Marshaller) ToValue(val any) (evaluator.Object, error) {
	if val == nil {
		return evaluator.Null, nil
	}
	if obj, ok := val.(evaluator.Object); ok {
		return obj, nil
	}

	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return evaluator.FixNum(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return evaluator.FixNum(int64(v.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return evaluator.Real(v.Float()), nil
	case reflect.Bool:
		return evaluator.Bool(v.Bool()), nil
	case reflect.String:
		return evaluator.String(v.String()), nil
	case reflect.Slice, reflect.Array:
		return m.sliceToList(v)
	default:
		return nil, fmt.Errorf("cannot convert %T to a value", val)
	}
}

// FromValue converts an Object to a Go value. targetType is optional; if
// provided, the result is converted to it.
func (m *Marshaller) FromValue(obj evaluator.Object, targetType reflect.Type) (any, error) {
	if targetType == objectType {
		return obj, nil
	}
	if targetType != nil && targetType.Kind() == reflect.Bool {
		return !evaluator.IsNull(obj), nil
	}

	var val any
	switch o := obj.(type) {
	case evaluator.FixNum:
		val = int64(o)
	case evaluator.Real:
		val = float64(o)
	case evaluator.String:
		val = string(o)
	case evaluator.Symbol:
		val = string(o)
	case *evaluator.Cons:
		return m.listToSlice(o, targetType)
	default:
		switch {
		case evaluator.IsNull(obj):
			if targetType != nil && targetType.Kind() == reflect.Slice {
				return reflect.MakeSlice(targetType, 0, 0).Interface(), nil
			}
			return nil, nil
		case obj == evaluator.True:
			return true, nil
		}
		return nil, fmt.Errorf("cannot convert %s to a Go value", obj)
	}
	if targetType == nil {
		return val, nil
	}
	rv := reflect.ValueOf(val)
	isString := rv.Kind() == reflect.String
	if isString != (targetType.Kind() == reflect.String) || !rv.CanConvert(targetType) {
		return nil, fmt.Errorf("cannot convert %s to %s", obj, targetType)
	}
	return rv.Convert(targetType).Interface(), nil
}

func (m *Marshaller) sliceToList(v reflect.Value) (evaluator.Object, error) {
	elements := make([]evaluator.Object, v.Len())
	for i := 0; i < v.Len(); i++ {
		val, err := m.ToValue(v.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		elements[i] = val
	}
	return evaluator.List(elements...), nil
}

func (m *Marshaller) listToSlice(list *evaluator.Cons, targetType reflect.Type) (any, error) {
	items, ok := evaluator.ListToSlice(list)
	if !ok {
		return nil, fmt.Errorf("cannot convert pair %s to a Go value", list)
	}
	if targetType == nil || targetType.Kind() != reflect.Slice {
		out := make([]any, len(items))
		for i, item := range items {
			val, err := m.FromValue(item, nil)
			if err != nil {
				return nil, err
			}
			out[i] = val
		}
		return out, nil
	}
	out := reflect.MakeSlice(targetType, len(items), len(items))
	for i, item := range items {
		val, err := m.FromValue(item, targetType.Elem())
		if err != nil {
			return nil, err
		}
		out.Index(i).Set(reflect.ValueOf(val))
	}
	return out.Interface(), nil
}

// TypeOf maps a Go type to the type the evolved programs see.
func TypeOf(t reflect.Type) (typesystem.Type, error) {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return typesystem.FixNum, nil
	case reflect.Float32, reflect.Float64:
		return typesystem.Real, nil
	case reflect.Bool:
		return typesystem.Bool, nil
	case reflect.String:
		return typesystem.String, nil
	case reflect.Slice, reflect.Array:
		elem, err := TypeOf(t.Elem())
		if err != nil {
			return nil, err
		}
		return typesystem.NewList(elem), nil
	}
	return nil, fmt.Errorf("no type for Go type %s", t)
}
