package mscript

import (
	"context"
	"fmt"
	"reflect"

	"github.com/funvibe/mscript/internal/vm"
)

var (
	valueType   = reflect.TypeOf(vm.Value{})
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
)

// Marshaller handles conversion between Go and script values.
type Marshaller struct{}

func NewMarshaller() *Marshaller {
	return &Marshaller{}
}

// ToValue converts a Go value to a script Value. Integers, floats, bools
// and strings map to the matching primitives, slices and arrays to arrays,
// structs to objects of their exported fields in order. Anything else is
// passed through as an opaque voidptr.
func (m *Marshaller) ToValue(val interface{}) (Value, error) {
	if val == nil {
		return vm.PointerVal(nil), nil
	}
	if v, ok := val.(Value); ok {
		return v, nil
	}
	return m.toValue(reflect.ValueOf(val))
}

func (m *Marshaller) toValue(v reflect.Value) (Value, error) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return vm.IntVal(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := v.Uint()
		if u > 1<<63-1 {
			return vm.VoidVal(), fmt.Errorf("%d overflows int", u)
		}
		return vm.IntVal(int64(u)), nil
	case reflect.Float32, reflect.Float64:
		return vm.FloatVal(v.Float()), nil
	case reflect.Bool:
		return vm.BoolVal(v.Bool()), nil
	case reflect.String:
		return vm.StringVal(v.String()), nil
	case reflect.Slice, reflect.Array:
		elems := make([]Value, v.Len())
		for i := range elems {
			e, err := m.toValue(v.Index(i))
			if err != nil {
				return vm.VoidVal(), fmt.Errorf("element %d: %w", i, err)
			}
			elems[i] = e
		}
		return vm.ArrayVal(elems...), nil
	case reflect.Struct:
		if v.Type() == valueType {
			return v.Interface().(Value), nil
		}
		return m.structToObject(v)
	case reflect.Interface:
		if v.IsNil() {
			return vm.PointerVal(nil), nil
		}
		return m.toValue(v.Elem())
	default:
		// Pointers, maps, funcs, channels: an opaque host handle
		if !v.CanInterface() {
			return vm.VoidVal(), fmt.Errorf("cannot convert unexported %s", v.Type())
		}
		return vm.PointerVal(v.Interface()), nil
	}
}

func (m *Marshaller) structToObject(v reflect.Value) (Value, error) {
	t := v.Type()
	var fields []Value
	for i := 0; i < t.NumField(); i++ {
		if !t.Field(i).IsExported() {
			continue
		}
		f, err := m.toValue(v.Field(i))
		if err != nil {
			return vm.VoidVal(), fmt.Errorf("field %s: %w", t.Field(i).Name, err)
		}
		fields = append(fields, f)
	}
	return vm.ObjectVal(fields...), nil
}

// FromValue converts a script Value to a Go value of targetType. A nil
// targetType (or an empty interface) selects the natural representation:
// int64, float64, bool, string, []interface{} for arrays and objects, or
// the host pointer itself.
func (m *Marshaller) FromValue(v Value, targetType reflect.Type) (interface{}, error) {
	rv, err := m.fromValue(v, targetType)
	if err != nil {
		return nil, err
	}
	if !rv.IsValid() {
		return nil, nil
	}
	return rv.Interface(), nil
}

func (m *Marshaller) fromValue(v Value, t reflect.Type) (reflect.Value, error) {
	if t == nil || (t.Kind() == reflect.Interface && t.NumMethod() == 0) {
		return m.natural(v, t)
	}
	if t == valueType {
		return reflect.ValueOf(v), nil
	}

	mismatch := func() (reflect.Value, error) {
		return reflect.Value{}, fmt.Errorf("cannot convert %s to %s", v.Type, t)
	}

	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if v.Type != vm.ValInt {
			return mismatch()
		}
		out := reflect.New(t).Elem()
		if out.OverflowInt(v.AsInt()) {
			return reflect.Value{}, fmt.Errorf("%d overflows %s", v.AsInt(), t)
		}
		out.SetInt(v.AsInt())
		return out, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if v.Type != vm.ValInt {
			return mismatch()
		}
		out := reflect.New(t).Elem()
		if v.AsInt() < 0 || out.OverflowUint(uint64(v.AsInt())) {
			return reflect.Value{}, fmt.Errorf("%d overflows %s", v.AsInt(), t)
		}
		out.SetUint(uint64(v.AsInt()))
		return out, nil
	case reflect.Float32, reflect.Float64:
		if v.Type != vm.ValFloat {
			return mismatch()
		}
		out := reflect.New(t).Elem()
		out.SetFloat(v.AsFloat())
		return out, nil
	case reflect.Bool:
		if v.Type != vm.ValBool {
			return mismatch()
		}
		return reflect.ValueOf(v.AsBool()).Convert(t), nil
	case reflect.String:
		if v.Type != vm.ValString {
			return mismatch()
		}
		return reflect.ValueOf(v.AsString()).Convert(t), nil
	case reflect.Slice:
		if v.Type != vm.ValArray {
			return mismatch()
		}
		elems := v.Elems()
		out := reflect.MakeSlice(t, len(elems), len(elems))
		for i, e := range elems {
			ev, err := m.fromValue(e, t.Elem())
			if err != nil {
				return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			out.Index(i).Set(ev)
		}
		return out, nil
	case reflect.Struct:
		if v.Type != vm.ValObject {
			return mismatch()
		}
		return m.objectToStruct(v, t)
	}

	// Everything else travels as a voidptr.
	if v.Type != vm.ValPointer {
		return mismatch()
	}
	p := v.AsPointer()
	if p == nil {
		return reflect.Zero(t), nil
	}
	pv := reflect.ValueOf(p)
	if !pv.Type().AssignableTo(t) {
		return reflect.Value{}, fmt.Errorf("host pointer %s is not assignable to %s", pv.Type(), t)
	}
	return pv, nil
}

func (m *Marshaller) objectToStruct(v Value, t reflect.Type) (reflect.Value, error) {
	out := reflect.New(t).Elem()
	fields := v.Elems()
	next := 0
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		if next >= len(fields) {
			return reflect.Value{}, fmt.Errorf("object has %d members, %s needs more", len(fields), t)
		}
		fv, err := m.fromValue(fields[next], sf.Type)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("field %s: %w", sf.Name, err)
		}
		out.Field(i).Set(fv)
		next++
	}
	if next != len(fields) {
		return reflect.Value{}, fmt.Errorf("object has %d members, %s has %d", len(fields), t, next)
	}
	return out, nil
}

func (m *Marshaller) natural(v Value, t reflect.Type) (reflect.Value, error) {
	var out interface{}
	switch v.Type {
	case vm.ValVoid:
		if t == nil {
			return reflect.Value{}, nil
		}
		return reflect.Zero(t), nil
	case vm.ValInt:
		out = v.AsInt()
	case vm.ValFloat:
		out = v.AsFloat()
	case vm.ValBool:
		out = v.AsBool()
	case vm.ValString:
		out = v.AsString()
	case vm.ValPointer:
		out = v.AsPointer()
	case vm.ValObject, vm.ValArray:
		elems := v.Elems()
		list := make([]interface{}, len(elems))
		for i, e := range elems {
			ev, err := m.FromValue(e, nil)
			if err != nil {
				return reflect.Value{}, err
			}
			list[i] = ev
		}
		out = list
	}
	if out == nil {
		if t == nil {
			return reflect.Value{}, nil
		}
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(out)
	if t != nil {
		rv = rv.Convert(t)
	}
	return rv, nil
}

// wrapGoFunc adapts a Go function to a NativeFunc. An optional leading
// context.Context receives the run's context; an optional trailing error
// result fails the native.
func (m *Marshaller) wrapGoFunc(fn interface{}, arity int, returnsValue bool) (NativeFunc, error) {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func {
		return nil, fmt.Errorf("expected a function, got %T", fn)
	}
	ft := fv.Type()
	if ft.IsVariadic() {
		return nil, fmt.Errorf("variadic functions cannot be bound")
	}

	offset := 0
	if ft.NumIn() > 0 && ft.In(0) == contextType {
		offset = 1
	}
	if ft.NumIn()-offset != arity {
		return nil, fmt.Errorf("function takes %d argument(s), prototype declares %d", ft.NumIn()-offset, arity)
	}

	hasErr := ft.NumOut() > 0 && ft.Out(ft.NumOut()-1) == errorType
	values := ft.NumOut()
	if hasErr {
		values--
	}
	if values > 1 || (returnsValue && values != 1) || (!returnsValue && values != 0) {
		return nil, fmt.Errorf("function results %s do not match the prototype", ft)
	}

	return func(ctx context.Context, args []Value) (Value, error) {
		in := make([]reflect.Value, 0, ft.NumIn())
		if offset == 1 {
			in = append(in, reflect.ValueOf(&ctx).Elem())
		}
		for i, arg := range args {
			rv, err := m.fromValue(arg, ft.In(offset+i))
			if err != nil {
				return vm.VoidVal(), fmt.Errorf("argument %d: %w", i+1, err)
			}
			in = append(in, rv)
		}

		out := fv.Call(in)
		if hasErr {
			if err, _ := out[len(out)-1].Interface().(error); err != nil {
				return vm.VoidVal(), err
			}
		}
		if !returnsValue {
			return vm.VoidVal(), nil
		}
		return m.toValue(out[0])
	}, nil
}
