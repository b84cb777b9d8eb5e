package proxy

import (
	"fmt"
	"math"
	"reflect"
	"strings"
)

// Kind tags the representation carried by a Value.
type Kind uint8

const (
	Void Kind = iota
	Nil
	Bool
	Int
	Uint
	Float
	Complex
	String
	Ref
	Tuple
	Fault
)

var kindNames = [...]string{
	Void:    "void",
	Nil:     "nil",
	Bool:    "bool",
	Int:     "int",
	Uint:    "uint",
	Float:   "float",
	Complex: "complex",
	String:  "string",
	Ref:     "ref",
	Tuple:   "tuple",
	Fault:   "fault",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Value is the uniform carrier for arguments and results crossing the
// interceptor and action boundary. It keeps the dynamic type of what it
// carries so it can be converted back without loss.
type Value struct {
	kind  Kind
	typ   reflect.Type
	raw   any
	items []Value
}

var errorType = reflect.TypeFor[error]()

// VoidValue represents the result of a method without results.
func VoidValue() Value { return Value{kind: Void} }

// TupleOf groups the results of a multi-result method.
func TupleOf(items ...Value) Value {
	return Value{kind: Tuple, items: append([]Value(nil), items...)}
}

// FaultOf carries an error raised by the call attempt.
func FaultOf(err error) Value {
	return Value{kind: Fault, typ: reflect.TypeOf(err), raw: err}
}

// Box wraps an arbitrary Go value.
func Box(x any) Value {
	if x == nil {
		return Value{kind: Nil}
	}
	return BoxValue(reflect.ValueOf(x))
}

// BoxValue wraps a reflect.Value. Interface values are boxed by their
// dynamic content; a nil interface keeps its static type.
func BoxValue(rv reflect.Value) Value {
	if !rv.IsValid() {
		return Value{kind: Nil}
	}

	if rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return Value{kind: Nil, typ: rv.Type()}
		}
		rv = rv.Elem()
	}

	v := Value{typ: rv.Type()}
	if rv.CanInterface() {
		v.raw = rv.Interface()
	}

	switch rv.Kind() {
	case reflect.Bool:
		v.kind = Bool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v.kind = Int
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		v.kind = Uint
	case reflect.Float32, reflect.Float64:
		v.kind = Float
	case reflect.Complex64, reflect.Complex128:
		v.kind = Complex
	case reflect.String:
		v.kind = String
	default:
		v.kind = Ref
	}
	return v
}

func (v Value) Kind() Kind { return v.kind }

// Type returns the dynamic type of the carried value, nil for Void, Tuple and untyped nil.
func (v Value) Type() reflect.Type { return v.typ }

// Interface returns the carried value. Tuples yield a []any of their items.
func (v Value) Interface() any {
	if v.kind == Tuple {
		out := make([]any, len(v.items))
		for i, item := range v.items {
			out[i] = item.Interface()
		}
		return out
	}
	return v.raw
}

func (v Value) IsVoid() bool { return v.kind == Void }

// Err returns the error carried by a Fault.
func (v Value) Err() error {
	if v.kind != Fault {
		return nil
	}
	err, _ := v.raw.(error)
	return err
}

func (v Value) Len() int { return len(v.items) }

func (v Value) Index(i int) Value { return v.items[i] }

func (v Value) String() string {
	switch v.kind {
	case Void:
		return "<void>"
	case Nil:
		return "<nil>"
	case Fault:
		return "fault(" + fmt.Sprint(v.raw) + ")"
	case Tuple:
		parts := make([]string, len(v.items))
		for i, item := range v.items {
			parts[i] = item.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	}
	return fmt.Sprint(v.raw)
}

// Unbox converts v to t. Assignable values pass through; numeric, string and
// bool values convert within their own family when no precision is lost.
func (v Value) Unbox(t reflect.Type) (reflect.Value, error) {
	if rv, ok := v.convert(t); ok {
		return rv, nil
	}
	return reflect.Value{}, &TypeMismatchError{Want: t, Got: v.typ}
}

// As unboxes v into T.
func As[T any](v Value) (t T, err error) {
	rv, err := v.Unbox(reflect.TypeFor[T]())
	if err != nil {
		return
	}
	t, _ = rv.Interface().(T)
	return
}

func (v Value) convert(t reflect.Type) (reflect.Value, bool) {
	if t == nil {
		return reflect.Value{}, false
	}

	switch v.kind {
	case Void, Tuple:
		return reflect.Value{}, false
	case Nil:
		if nillable(t) {
			return reflect.Zero(t), true
		}
		return reflect.Value{}, false
	}

	if v.typ == nil {
		return reflect.Value{}, false
	}

	rv := reflect.ValueOf(v.raw)
	if !rv.IsValid() {
		if nillable(t) {
			return reflect.Zero(t), true
		}
		return reflect.Value{}, false
	}

	if rv.Type().AssignableTo(t) {
		if t.Kind() == reflect.Interface {
			iv := reflect.New(t).Elem()
			iv.Set(rv)
			return iv, true
		}
		return rv, true
	}

	zero := reflect.Zero(t)
	switch v.kind {
	case Bool:
		if t.Kind() == reflect.Bool {
			return rv.Convert(t), true
		}
	case String:
		if t.Kind() == reflect.String {
			return rv.Convert(t), true
		}
	case Int:
		if isInt(t) && !zero.OverflowInt(rv.Int()) {
			return rv.Convert(t), true
		}
	case Uint:
		if isUint(t) && !zero.OverflowUint(rv.Uint()) {
			return rv.Convert(t), true
		}
	case Float:
		if isFloat(t) && !zero.OverflowFloat(rv.Float()) {
			cv := rv.Convert(t)
			if same(cv.Convert(rv.Type()).Float(), rv.Float()) {
				return cv, true
			}
		}
	case Complex:
		if isComplex(t) && !zero.OverflowComplex(rv.Complex()) {
			cv := rv.Convert(t)
			back := cv.Convert(rv.Type()).Complex()
			if same(real(back), real(rv.Complex())) && same(imag(back), imag(rv.Complex())) {
				return cv, true
			}
		}
	}
	return reflect.Value{}, false
}

// same reports a == b, with NaN equal to NaN.
func same(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}

func nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return true
	}
	return false
}

func isInt(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUint(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func isFloat(t reflect.Type) bool {
	return t.Kind() == reflect.Float32 || t.Kind() == reflect.Float64
}

func isComplex(t reflect.Type) bool {
	return t.Kind() == reflect.Complex64 || t.Kind() == reflect.Complex128
}

func boxAll(in []reflect.Value) []Value {
	values := make([]Value, len(in))
	for i, rv := range in {
		values[i] = BoxValue(rv)
	}
	return values
}

func boxResults(out []reflect.Value) Value {
	switch len(out) {
	case 0:
		return VoidValue()
	case 1:
		return BoxValue(out[0])
	}
	return TupleOf(boxAll(out)...)
}
