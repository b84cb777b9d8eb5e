package proxy

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	ErrNotFound     = errors.New("proxy: implementation not found")
	ErrNoSuchMethod = errors.New("proxy: no such method")
	ErrNoProxy      = errors.New("proxy: no wrapper registered")
)

// ReflectionError reports an implementation type whose method surface cannot be enumerated.
type ReflectionError struct {
	Type   reflect.Type
	Reason string
}

func (e *ReflectionError) Error() string {
	return fmt.Sprintf("proxy: cannot reflect %s: %s", typeString(e.Type), e.Reason)
}

// BindingConstructionError reports an interceptor or action that cannot be built without arguments.
type BindingConstructionError struct {
	Binding string // "interceptor" or "action"
	Type    reflect.Type
	Err     error
}

func (e *BindingConstructionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("proxy: cannot construct %s %s: %v", e.Binding, typeString(e.Type), e.Err)
	}
	return fmt.Sprintf("proxy: cannot construct %s %s", e.Binding, typeString(e.Type))
}

func (e *BindingConstructionError) Unwrap() error { return e.Err }

// ResolutionError reports that the resolver did not produce a usable implementation instance.
type ResolutionError struct {
	Assembly string
	TypeName string
	Got      reflect.Type
	Err      error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("proxy: resolve %s (%s): %v", e.TypeName, e.Assembly, e.Err)
	}
	return fmt.Sprintf("proxy: resolve %s (%s): incompatible value of type %s", e.TypeName, e.Assembly, typeString(e.Got))
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// TypeMismatchError reports a boxed value that cannot be converted to the declared type.
type TypeMismatchError struct {
	Method string
	Want   reflect.Type
	Got    reflect.Type
}

func (e *TypeMismatchError) Error() string {
	if e.Method == "" {
		return fmt.Sprintf("proxy: cannot convert %s to %s", typeString(e.Got), typeString(e.Want))
	}
	return fmt.Sprintf("proxy: %s: cannot convert %s to %s", e.Method, typeString(e.Got), typeString(e.Want))
}

func typeString(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
