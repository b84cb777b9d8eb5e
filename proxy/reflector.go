package proxy

import (
	"reflect"
)

// ignoredMethods are the identity and introspection operations that are
// never forwarded: type-of, string conversion, hash code and equality.
var ignoredMethods = map[string]struct{}{
	"Type":   {},
	"String": {},
	"Hash":   {},
	"Equal":  {},
}

// Ignored reports whether a method of this name is excluded from forwarding.
func Ignored(name string) bool {
	_, ok := ignoredMethods[name]
	return ok
}

// Method describes one forwarded operation.
type Method struct {
	Name     string
	In       []reflect.Type
	Out      []reflect.Type
	Variadic bool

	fn reflect.Value // method expression on the implementation type
}

// NumIn returns the parameter arity.
func (m *Method) NumIn() int { return len(m.In) }

// ReturnsError reports whether the last result is an error.
func (m *Method) ReturnsError() bool {
	return len(m.Out) > 0 && m.Out[len(m.Out)-1] == errorType
}

func (m *Method) signature() reflect.Type {
	return reflect.FuncOf(m.In, m.Out, m.Variadic)
}

// Reflect enumerates the exported methods of impl that a proxy must forward.
func Reflect(impl reflect.Type) ([]*Method, error) {
	if impl == nil {
		return nil, &ReflectionError{Reason: "nil type"}
	}

	if impl.Kind() == reflect.Interface {
		return nil, &ReflectionError{Type: impl, Reason: "interface types are opaque"}
	}

	named := impl
	if named.Kind() == reflect.Pointer {
		named = named.Elem()
	}
	if named.Name() == "" {
		return nil, &ReflectionError{Type: impl, Reason: "unnamed types have no method set"}
	}

	methods := make([]*Method, 0, impl.NumMethod())
	for i := range impl.NumMethod() {
		rm := impl.Method(i)
		if !rm.IsExported() || Ignored(rm.Name) {
			continue
		}

		ft := rm.Type
		m := &Method{
			Name:     rm.Name,
			In:       make([]reflect.Type, 0, ft.NumIn()-1),
			Out:      make([]reflect.Type, 0, ft.NumOut()),
			Variadic: ft.IsVariadic(),
			fn:       rm.Func,
		}
		// receiver first
		for j := 1; j < ft.NumIn(); j++ {
			m.In = append(m.In, ft.In(j))
		}
		for j := range ft.NumOut() {
			m.Out = append(m.Out, ft.Out(j))
		}
		methods = append(methods, m)
	}
	return methods, nil
}

// TypeName returns the assembly identity and full name used to resolve t.
func TypeName(t reflect.Type) (assembly, fullName string) {
	named := t
	ptr := ""
	if named.Kind() == reflect.Pointer {
		named = named.Elem()
		ptr = "*"
	}
	if named.Name() == "" {
		return "", t.String()
	}
	assembly = named.PkgPath()
	if assembly == "" {
		return "", ptr + named.Name()
	}
	return assembly, ptr + assembly + "." + named.Name()
}
