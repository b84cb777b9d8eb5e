package proxy

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"
)

// Instance is a materialized proxy. It owns the resolved implementation and,
// when configured, its own interceptor.
type Instance struct {
	id          uuid.UUID
	typ         *Type
	target      reflect.Value
	interceptor Interceptor
}

func newInstance(t *Type) *Instance {
	return &Instance{id: uuid.New(), typ: t}
}

func (inst *Instance) ID() uuid.UUID { return inst.id }

func (inst *Instance) Proxy() *Type { return inst.typ }

// Target returns the wrapped implementation instance.
func (inst *Instance) Target() any { return inst.target.Interface() }

// Invoke calls a forwarded method with plain Go arguments. Trailing
// arguments of a variadic method are collected into its slice parameter.
func (inst *Instance) Invoke(name string, args ...any) ([]any, error) {
	f, err := inst.lookup(name)
	if err != nil {
		return nil, err
	}

	in, err := f.arguments(args)
	if err != nil {
		return nil, err
	}

	out, err := inst.forward(f, in)
	if err != nil {
		return nil, err
	}

	results := make([]any, len(out))
	for i, rv := range out {
		results[i] = rv.Interface()
	}
	return results, nil
}

// MustInvoke is Invoke for callers without an error slot.
func (inst *Instance) MustInvoke(name string, args ...any) []any {
	out, err := inst.Invoke(name, args...)
	if err != nil {
		panic(err)
	}
	return out
}

// Call invokes a forwarded method with reflect values. A variadic
// parameter is passed as its slice.
func (inst *Instance) Call(name string, in []reflect.Value) ([]reflect.Value, error) {
	f, err := inst.lookup(name)
	if err != nil {
		return nil, err
	}

	if len(in) != len(f.In) {
		return nil, fmt.Errorf("proxy: %s expects %d arguments, got %d", name, len(f.In), len(in))
	}
	for i, rv := range in {
		if !rv.IsValid() || !rv.Type().AssignableTo(f.In[i]) {
			var got reflect.Type
			if rv.IsValid() {
				got = rv.Type()
			}
			return nil, &TypeMismatchError{Method: name, Want: f.In[i], Got: got}
		}
	}
	return inst.forward(f, in)
}

// Bind fills the func fields of the struct pointed to by table with typed
// forwarders. A field binds the method of the same name, or the name in its
// `proxy` tag; the field type must match the method signature exactly.
func (inst *Instance) Bind(table any) error {
	rv := reflect.ValueOf(table)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("proxy: Bind expects a non-nil pointer to struct, got %T", table)
	}

	rv = rv.Elem()
	rt := rv.Type()
	for i := range rt.NumField() {
		field := rt.Field(i)
		if !field.IsExported() || field.Type.Kind() != reflect.Func {
			continue
		}

		name := field.Name
		if tag, ok := field.Tag.Lookup("proxy"); ok {
			if tag == "-" {
				continue
			}
			name = tag
		}

		f, err := inst.lookup(name)
		if err != nil {
			return err
		}
		if sig := f.signature(); field.Type != sig {
			return &TypeMismatchError{Method: name, Want: sig, Got: field.Type}
		}

		rv.Field(i).Set(reflect.MakeFunc(field.Type, inst.bound(f)))
	}
	return nil
}

func (inst *Instance) bound(f *forwarder) func([]reflect.Value) []reflect.Value {
	return func(in []reflect.Value) []reflect.Value {
		out, err := inst.forward(f, in)
		if err == nil {
			return out
		}
		if f.ReturnsError() {
			return f.failed(err)
		}
		panic(err)
	}
}

func (inst *Instance) lookup(name string) (*forwarder, error) {
	f, ok := inst.typ.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrNoSuchMethod, inst.typ.name, name)
	}
	return f, nil
}

// forward runs the per-call protocol: before, then exactly one of the
// interceptor or the direct call, then after, then conversion of the result.
func (inst *Instance) forward(f *forwarder, in []reflect.Value) ([]reflect.Value, error) {
	var action Action
	if f.action != nil {
		var err error
		if action, err = f.action(); err != nil {
			return nil, &BindingConstructionError{Binding: "action", Err: err}
		}
		if action == nil {
			return nil, &BindingConstructionError{Binding: "action", Err: fmt.Errorf("factory for %s returned nil", f.Name)}
		}
	}

	var args []Value
	if action != nil || inst.interceptor != nil {
		args = boxAll(in)
	}

	var (
		result Value
		out    []reflect.Value
		err    error
	)
	if action != nil {
		action.Before(f.Name, args)
		result, out, err = inst.observed(action, f, in, args)
		action.After(f.Name, result)
	} else {
		result, out, err = inst.attempt(f, in, args, false)
	}

	if inst.interceptor == nil {
		return out, nil
	}

	if err != nil {
		if f.ReturnsError() {
			return f.failed(err), nil
		}
		return nil, err
	}
	return f.results(result)
}

// observed runs the call attempt and reports a panic to the action's After
// step before re-raising it.
func (inst *Instance) observed(action Action, f *forwarder, in []reflect.Value, args []Value) (result Value, out []reflect.Value, err error) {
	completed := false
	defer func() {
		if completed {
			return
		}
		r := recover()
		action.After(f.Name, FaultOf(fmt.Errorf("panic: %v", r)))
		panic(r)
	}()

	result, out, err = inst.attempt(f, in, args, true)
	completed = true
	return
}

func (inst *Instance) attempt(f *forwarder, in []reflect.Value, args []Value, box bool) (Value, []reflect.Value, error) {
	if inst.interceptor != nil {
		raw, err := inst.interceptor.Invoke(inst.target.Interface(), f.Name, args)
		if err != nil {
			return FaultOf(err), nil, err
		}
		return raw, nil, nil
	}

	recv := make([]reflect.Value, 0, len(in)+1)
	recv = append(recv, inst.target)
	recv = append(recv, in...)

	var out []reflect.Value
	if f.Variadic {
		out = f.fn.CallSlice(recv)
	} else {
		out = f.fn.Call(recv)
	}

	if !box {
		return Value{}, out, nil
	}
	return boxResults(out), out, nil
}

// arguments converts plain Go arguments to the parameter types of f.
func (f *forwarder) arguments(args []any) ([]reflect.Value, error) {
	fixed := len(f.In)
	if f.Variadic {
		fixed--
	}

	if len(args) < fixed || (!f.Variadic && len(args) != fixed) {
		return nil, fmt.Errorf("proxy: %s expects %d arguments, got %d", f.Name, len(f.In), len(args))
	}

	in := make([]reflect.Value, 0, len(f.In))
	for i := range fixed {
		rv, err := f.argument(args[i], f.In[i])
		if err != nil {
			return nil, err
		}
		in = append(in, rv)
	}

	if !f.Variadic {
		return in, nil
	}

	sliceType := f.In[fixed]
	rest := args[fixed:]
	if len(rest) == 1 && rest[0] != nil && reflect.TypeOf(rest[0]).AssignableTo(sliceType) {
		return append(in, reflect.ValueOf(rest[0])), nil
	}

	slice := reflect.MakeSlice(sliceType, 0, len(rest))
	for _, arg := range rest {
		rv, err := f.argument(arg, sliceType.Elem())
		if err != nil {
			return nil, err
		}
		slice = reflect.Append(slice, rv)
	}
	return append(in, slice), nil
}

func (f *forwarder) argument(arg any, t reflect.Type) (reflect.Value, error) {
	v := Box(arg)
	rv, ok := v.convert(t)
	if !ok {
		return reflect.Value{}, &TypeMismatchError{Method: f.Name, Want: t, Got: v.typ}
	}
	return exact(rv, t), nil
}

// results converts the boxed result of an interceptor to the declared outputs.
func (f *forwarder) results(v Value) ([]reflect.Value, error) {
	switch len(f.Out) {
	case 0:
		return nil, nil
	case 1:
		if v.kind == Tuple && v.Len() == 1 {
			v = v.Index(0)
		}
		rv, ok := v.convert(f.Out[0])
		if !ok {
			return nil, &TypeMismatchError{Method: f.Name, Want: f.Out[0], Got: v.typ}
		}
		return []reflect.Value{exact(rv, f.Out[0])}, nil
	}

	if v.kind == Fault && f.ReturnsError() {
		return f.failed(v.Err()), nil
	}

	if v.kind != Tuple {
		// (T, error) methods accept a bare T
		if len(f.Out) != 2 || !f.ReturnsError() || v.kind == Void {
			return nil, &TypeMismatchError{Method: f.Name, Want: reflect.FuncOf(nil, f.Out, false), Got: v.typ}
		}
		v = TupleOf(v, Box(nil))
	}

	if v.Len() != len(f.Out) {
		return nil, &TypeMismatchError{Method: f.Name, Want: reflect.FuncOf(nil, f.Out, false)}
	}

	out := make([]reflect.Value, len(f.Out))
	for i, t := range f.Out {
		item := v.Index(i)
		rv, ok := item.convert(t)
		if !ok {
			return nil, &TypeMismatchError{Method: f.Name, Want: t, Got: item.typ}
		}
		out[i] = exact(rv, t)
	}
	return out, nil
}

// failed returns zero results with err in the trailing error slot.
func (f *forwarder) failed(err error) []reflect.Value {
	out := make([]reflect.Value, len(f.Out))
	for i, t := range f.Out {
		out[i] = reflect.Zero(t)
	}
	if err != nil {
		ev := reflect.New(errorType).Elem()
		ev.Set(reflect.ValueOf(err))
		out[len(out)-1] = ev
	}
	return out
}

func exact(rv reflect.Value, t reflect.Type) reflect.Value {
	if rv.Type() == t {
		return rv
	}
	if t.Kind() == reflect.Interface {
		iv := reflect.New(t).Elem()
		iv.Set(rv)
		return iv
	}
	return rv.Convert(t)
}

// Arg returns out[i] as T, or the zero T when it is nil.
func Arg[T any](out []any, i int) T {
	t, _ := out[i].(T)
	return t
}
