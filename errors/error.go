// Package errors lets straight-line code short-circuit on the first error
// without an if err != nil after every step.
//
//	err := errors.Catch(func(s *errors.Scope) {
//		pkgs := errors.Try1(s, load)
//		errors.Try(s, func() error { return write(pkgs) })
//	})
package errors

import "fmt"

type thrown struct{ err error }

// Scope carries the error of the last failed step. A handler registered
// with On can swallow an error and let the scope continue.
type Scope struct {
	err     error
	handler func(err error) bool
}

func (s *Scope) Err() error { return s.err }

// On installs a handler; returning true from it suppresses the error.
func (s *Scope) On(handler func(err error) bool) *Scope {
	s.handler = handler
	return s
}

// Catch runs block and returns the error that stopped it. Panics that did
// not come from a Try are re-raised.
func Catch(block func(s *Scope)) (err error) {
	return CatchWith(nil, block)
}

func CatchWith(handler func(err error) bool, block func(s *Scope)) (err error) {
	s := &Scope{handler: handler}
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if t, ok := r.(thrown); ok {
			err = t.err
			return
		}
		panic(r)
	}()

	block(s)
	return nil
}

func (s *Scope) check() {
	if s.err == nil {
		return
	}
	if s.handler != nil && s.handler(s.err) {
		s.err = nil
		return
	}
	panic(thrown{s.err})
}

// Throw stops the scope with a formatted error.
func Throw(s *Scope, format string, args ...any) {
	s.err = fmt.Errorf(format, args...)
	s.check()
}

func Try(s *Scope, exec func() error) {
	s.err = exec()
	s.check()
}

func Try1[T any](s *Scope, exec func() (T, error)) (t T) {
	t, s.err = exec()
	s.check()
	return
}

func Try2[T, M any](s *Scope, exec func() (T, M, error)) (t T, m M) {
	t, m, s.err = exec()
	s.check()
	return
}

func Try3[T, M, E any](s *Scope, exec func() (T, M, E, error)) (t T, m M, e E) {
	t, m, e, s.err = exec()
	s.check()
	return
}
