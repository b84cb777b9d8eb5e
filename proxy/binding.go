package proxy

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// Interceptor replaces the invocation of a forwarded method. It receives the
// wrapped implementation and decides whether and how to call it.
type Interceptor interface {
	Invoke(target any, method string, args []Value) (Value, error)
}

// InterceptorFunc adapts a function to Interceptor.
type InterceptorFunc func(target any, method string, args []Value) (Value, error)

func (f InterceptorFunc) Invoke(target any, method string, args []Value) (Value, error) {
	return f(target, method, args)
}

// Proceed calls method on target with boxed arguments, as an interceptor
// does to let the call through. A variadic method takes its slice as the
// last argument.
func Proceed(target any, method string, args []Value) (Value, error) {
	m := reflect.ValueOf(target).MethodByName(method)
	if !m.IsValid() {
		return Value{}, fmt.Errorf("%w: %T.%s", ErrNoSuchMethod, target, method)
	}

	mt := m.Type()
	if len(args) != mt.NumIn() {
		return Value{}, fmt.Errorf("proxy: %s expects %d arguments, got %d", method, mt.NumIn(), len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, a := range args {
		rv, ok := a.convert(mt.In(i))
		if !ok {
			return Value{}, &TypeMismatchError{Method: method, Want: mt.In(i), Got: a.typ}
		}
		in[i] = exact(rv, mt.In(i))
	}

	if mt.IsVariadic() {
		return boxResults(m.CallSlice(in)), nil
	}
	return boxResults(m.Call(in)), nil
}

// Action observes a forwarded call without altering it.
type Action interface {
	Before(method string, args []Value)
	After(method string, result Value)
}

type (
	InterceptorFactory func() (Interceptor, error)
	ActionFactory      func() (Action, error)
)

// Binding describes how a single method is intercepted.
type Binding struct {
	Intercepted bool
	Action      bool
	// ActionScope is "method", "class" or empty.
	ActionScope string
}

// attributes declared against an implementation type
type attributes struct {
	interceptor reflect.Type
	action      reflect.Type
	methods     map[string]reflect.Type
}

type Attribute func(*attributes)

var (
	attrMu sync.RWMutex
	attrs  = make(map[reflect.Type]*attributes)
)

func InterceptorAttribute(t reflect.Type) Attribute {
	return func(a *attributes) { a.interceptor = t }
}

func ActionAttribute(t reflect.Type) Attribute {
	return func(a *attributes) { a.action = t }
}

func MethodActionAttribute(method string, t reflect.Type) Attribute {
	return func(a *attributes) { a.methods[method] = t }
}

// Annotate declares attributes on an implementation type. Pointer and value
// forms of a type share one declaration. Repeated calls merge.
func Annotate(impl reflect.Type, attributes ...Attribute) {
	key := attrKey(impl)
	attrMu.Lock()
	defer attrMu.Unlock()

	a, ok := attrs[key]
	if !ok {
		a = newAttributes()
		attrs[key] = a
	}
	for _, apply := range attributes {
		apply(a)
	}
}

// InterceptorAttributeOf returns the interceptor type declared on impl, if any.
func InterceptorAttributeOf(impl reflect.Type) reflect.Type {
	attrMu.RLock()
	defer attrMu.RUnlock()
	if a, ok := attrs[attrKey(impl)]; ok {
		return a.interceptor
	}
	return nil
}

// ActionAttributeOf returns the action type that applies to method: a
// method-level declaration first, then the class-level one.
func ActionAttributeOf(impl reflect.Type, method string) reflect.Type {
	t, _ := actionAttributeOf(impl, method)
	return t
}

func actionAttributeOf(impl reflect.Type, method string) (reflect.Type, string) {
	attrMu.RLock()
	defer attrMu.RUnlock()
	a, ok := attrs[attrKey(impl)]
	if !ok {
		return nil, ""
	}
	if t, ok := a.methods[method]; ok && t != nil {
		return t, "method"
	}
	if a.action != nil {
		return a.action, "class"
	}
	return nil, ""
}

func newAttributes() *attributes {
	return &attributes{methods: make(map[string]reflect.Type)}
}

func attrKey(t reflect.Type) reflect.Type {
	if t != nil && t.Kind() == reflect.Pointer {
		return t.Elem()
	}
	return t
}

// BindingOf builds a zero-argument factory for a binding type: each call
// yields a fresh zero value of t, or a pointer to a fresh zero value when t
// is a pointer type. Interface and func types have no usable zero value and
// are rejected.
func BindingOf[B any](t reflect.Type) (func() (B, error), error) {
	name := "action"
	if reflect.TypeFor[B]() == reflect.TypeFor[Interceptor]() {
		name = "interceptor"
	}

	if t == nil {
		return nil, &BindingConstructionError{Binding: name, Err: errors.New("nil type")}
	}

	base, ptr := t, false
	if t.Kind() == reflect.Pointer {
		base, ptr = t.Elem(), true
	}
	if base.Kind() == reflect.Interface || base.Kind() == reflect.Func {
		return nil, &BindingConstructionError{Binding: name, Type: t, Err: errors.New("no zero-argument construction for " + base.Kind().String())}
	}

	if !t.Implements(reflect.TypeFor[B]()) {
		return nil, &BindingConstructionError{Binding: name, Type: t, Err: errors.New("does not implement " + reflect.TypeFor[B]().String())}
	}

	return func() (B, error) {
		rv := reflect.New(base)
		if !ptr {
			rv = rv.Elem()
		}
		b, _ := rv.Interface().(B)
		return b, nil
	}, nil
}

// Option configures synthesis.
type Option func(*config)

type config struct {
	interceptor     InterceptorFactory
	interceptorType reflect.Type
	action          ActionFactory
	actionType      reflect.Type
	methodActions   map[string]ActionFactory
	resolver        ResolverFactory
}

func WithInterceptor(factory InterceptorFactory) Option {
	return func(c *config) { c.interceptor = factory }
}

func WithInterceptorType(t reflect.Type) Option {
	return func(c *config) { c.interceptorType = t }
}

// WithAction sets the class-level action for every method.
func WithAction(factory ActionFactory) Option {
	return func(c *config) { c.action = factory }
}

func WithActionType(t reflect.Type) Option {
	return func(c *config) { c.actionType = t }
}

func WithMethodAction(method string, factory ActionFactory) Option {
	return func(c *config) { c.methodActions[method] = factory }
}

func WithResolver(factory ResolverFactory) Option {
	return func(c *config) { c.resolver = factory }
}

func newConfig(opts []Option) *config {
	c := &config{methodActions: make(map[string]ActionFactory)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// interceptorFor picks the explicit interceptor over the declared attribute.
func (c *config) interceptorFor(impl reflect.Type) (InterceptorFactory, error) {
	if c.interceptor != nil {
		return c.interceptor, nil
	}

	t := c.interceptorType
	if t == nil {
		t = InterceptorAttributeOf(impl)
	}
	if t == nil {
		return nil, nil
	}

	factory, err := BindingOf[Interceptor](t)
	if err != nil {
		return nil, err
	}
	return InterceptorFactory(factory), nil
}

// actionFor resolves the action of one method. Method-level declarations
// replace class-level ones; explicit options win over attributes.
func (c *config) actionFor(impl reflect.Type, method string) (ActionFactory, string, error) {
	if factory, ok := c.methodActions[method]; ok && factory != nil {
		return factory, "method", nil
	}

	t, scope := actionAttributeOf(impl, method)
	if scope == "method" {
		return actionFactory(t, scope)
	}

	if c.action != nil {
		return c.action, "class", nil
	}
	if c.actionType != nil {
		return actionFactory(c.actionType, "class")
	}
	if t != nil {
		return actionFactory(t, scope)
	}
	return nil, "", nil
}

func actionFactory(t reflect.Type, scope string) (ActionFactory, string, error) {
	factory, err := BindingOf[Action](t)
	if err != nil {
		return nil, "", err
	}
	return ActionFactory(factory), scope, nil
}
