package dynproxy

import (
	"fmt"
	"reflect"
)

// Assert casts t to T and panics when it cannot.
func Assert[T any](t any) T {
	obj, err := AssertToError[T](t)
	if err != nil {
		panic(err)
	}
	return obj
}

func AssertToError[T any](t any) (T, error) {
	obj, ok := t.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("not %s: %T", reflect.TypeFor[T](), t)
	}
	return obj, nil
}
