package proxy

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/iocgo/dynproxy/internal/logger"
)

// Mode selects how the proxy relates to its implementation.
type Mode int

const (
	// Realize builds a proxy satisfying an interface contract.
	Realize Mode = iota + 1
	// Inherit builds a proxy whose contract is the implementation type itself.
	Inherit
)

func (m Mode) String() string {
	switch m {
	case Realize:
		return "realize"
	case Inherit:
		return "inherit"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Type is a synthesized proxy type. It is immutable and can create any
// number of instances.
type Type struct {
	name     string
	mode     Mode
	contract reflect.Type
	impl     reflect.Type

	methods     []*forwarder
	index       map[string]*forwarder
	interceptor InterceptorFactory
	resolver    ResolverFactory
}

type forwarder struct {
	*Method
	action  ActionFactory
	binding Binding
}

// Synthesize builds the forwarding type for (contract, impl). In Inherit
// mode contract is ignored and impl is used as its own contract.
func Synthesize(mode Mode, contract, impl reflect.Type, opts ...Option) (*Type, error) {
	switch mode {
	case Inherit:
		contract = impl
	case Realize:
		if contract == nil || contract.Kind() != reflect.Interface {
			return nil, &ReflectionError{Type: contract, Reason: "contract must be an interface"}
		}
	default:
		return nil, fmt.Errorf("proxy: unknown mode %s", mode)
	}

	methods, err := Reflect(impl)
	if err != nil {
		return nil, err
	}

	if mode == Realize && !impl.Implements(contract) {
		return nil, &ReflectionError{Type: impl, Reason: "does not implement " + contract.String()}
	}

	cfg := newConfig(opts)
	interceptor, err := cfg.interceptorFor(impl)
	if err != nil {
		return nil, err
	}

	named := impl
	if named.Kind() == reflect.Pointer {
		named = named.Elem()
	}

	t := &Type{
		name:        named.Name() + "Proxy",
		mode:        mode,
		contract:    contract,
		impl:        impl,
		methods:     make([]*forwarder, 0, len(methods)),
		index:       make(map[string]*forwarder, len(methods)),
		interceptor: interceptor,
		resolver:    cfg.resolver,
	}
	if t.resolver == nil {
		t.resolver = DefaultResolver
	}

	for _, m := range methods {
		action, scope, err := cfg.actionFor(impl, m.Name)
		if err != nil {
			return nil, err
		}

		f := &forwarder{
			Method: m,
			action: action,
			binding: Binding{
				Intercepted: interceptor != nil,
				Action:      action != nil,
				ActionScope: scope,
			},
		}
		t.methods = append(t.methods, f)
		t.index[m.Name] = f
	}

	for name := range cfg.methodActions {
		if _, ok := t.index[name]; !ok {
			return nil, &ReflectionError{Type: impl, Reason: "action declared for unknown method " + name}
		}
	}

	logger.Debug("proxy synthesized", "type", t.name, "mode", mode, "methods", len(t.methods), "intercepted", interceptor != nil)
	return t, nil
}

func (t *Type) Name() string { return t.name }

func (t *Type) Mode() Mode { return t.mode }

func (t *Type) Contract() reflect.Type { return t.contract }

func (t *Type) Implementation() reflect.Type { return t.impl }

// Methods returns the forwarded methods in discovery order.
func (t *Type) Methods() []*Method {
	methods := make([]*Method, len(t.methods))
	for i, f := range t.methods {
		methods[i] = f.Method
	}
	return methods
}

func (t *Type) Method(name string) (*Method, bool) {
	f, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return f.Method, true
}

// Binding reports the interception applied to a method.
func (t *Type) Binding(name string) (Binding, bool) {
	f, ok := t.index[name]
	if !ok {
		return Binding{}, false
	}
	return f.binding, true
}

// New constructs an instance: the interceptor first, then the resolver,
// then the wrapped implementation. Errors from the interceptor factory and
// the resolver are returned as is.
func (t *Type) New() (*Instance, error) {
	inst := newInstance(t)

	if t.interceptor != nil {
		interceptor, err := t.interceptor()
		if err != nil {
			return nil, err
		}
		if interceptor == nil {
			return nil, &BindingConstructionError{Binding: "interceptor", Err: errors.New("factory returned nil")}
		}
		inst.interceptor = interceptor
	}

	assembly, name := TypeName(t.impl)
	resolver := t.resolver()
	if resolver == nil {
		return nil, &ResolutionError{Assembly: assembly, TypeName: name, Err: errors.New("nil resolver")}
	}

	obj, err := resolver.Resolve(assembly, name)
	if err != nil {
		return nil, &ResolutionError{Assembly: assembly, TypeName: name, Err: err}
	}

	target, ok := castTarget(obj, t.impl)
	if !ok {
		return nil, &ResolutionError{Assembly: assembly, TypeName: name, Got: reflect.TypeOf(obj)}
	}
	inst.target = target

	logger.Debug("proxy instance created", "type", t.name, "id", inst.id)
	return inst, nil
}

// castTarget accepts values assignable to impl, and pointers to impl when
// impl is not itself a pointer.
func castTarget(obj any, impl reflect.Type) (reflect.Value, bool) {
	if obj == nil {
		return reflect.Value{}, false
	}

	rv := reflect.ValueOf(obj)
	if rv.Type().AssignableTo(impl) {
		if rv.Kind() == reflect.Pointer && rv.IsNil() {
			return reflect.Value{}, false
		}
		return rv, true
	}

	if rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Type().Elem() == impl {
		return rv.Elem(), true
	}
	return reflect.Value{}, false
}

type cacheKey struct {
	mode            Mode
	contract, impl  reflect.Type
	interceptorType reflect.Type
	actionType      reflect.Type
}

var synthesized sync.Map

// cached returns the type synthesized earlier for the same inputs. Only
// requests configured purely by types and attributes are cached; the
// resolver is swapped per request.
func cached(mode Mode, contract, impl reflect.Type, opts []Option) (*Type, error) {
	cfg := newConfig(opts)
	if cfg.interceptor != nil || cfg.action != nil || len(cfg.methodActions) > 0 {
		return Synthesize(mode, contract, impl, opts...)
	}

	key := cacheKey{mode, contract, impl, cfg.interceptorType, cfg.actionType}
	if t, ok := synthesized.Load(key); ok {
		return t.(*Type).withResolver(cfg.resolver), nil
	}

	t, err := Synthesize(mode, contract, impl, opts...)
	if err != nil {
		return nil, err
	}
	synthesized.LoadOrStore(key, t)
	return t, nil
}

func (t *Type) withResolver(resolver ResolverFactory) *Type {
	if resolver == nil {
		resolver = DefaultResolver
	}
	c := *t
	c.resolver = resolver
	return &c
}

// CreateForInterface synthesizes a realization proxy and instantiates it.
func CreateForInterface(contract, impl reflect.Type, opts ...Option) (*Instance, error) {
	t, err := cached(Realize, contract, impl, opts)
	if err != nil {
		return nil, err
	}
	return t.New()
}

// CreateForInheritance synthesizes an inheritance proxy and instantiates it.
func CreateForInheritance(impl reflect.Type, opts ...Option) (*Instance, error) {
	t, err := cached(Inherit, nil, impl, opts)
	if err != nil {
		return nil, err
	}
	return t.New()
}

func Realization[C, I any](opts ...Option) (*Instance, error) {
	return CreateForInterface(reflect.TypeFor[C](), reflect.TypeFor[I](), opts...)
}

func Inheritance[I any](opts ...Option) (*Instance, error) {
	return CreateForInheritance(reflect.TypeFor[I](), opts...)
}
