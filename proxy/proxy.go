package proxy

import (
	"fmt"
	"reflect"
	"sync"
)

// Resolver looks up the implementation instance a proxy wraps.
type Resolver interface {
	Resolve(assembly, typeName string) (any, error)
}

// ResolverFactory constructs a resolver; the proxy constructor calls it without arguments.
type ResolverFactory func() Resolver

// Locator is an in-process Resolver keyed by full type name.
type Locator struct {
	mu        sync.RWMutex
	providers map[string]func() (any, error)
}

var (
	defaultLocator = NewLocator()

	wrapperMu      sync.RWMutex
	constructorMap = make(map[string]func(...Option) (any, error))
)

func NewLocator() *Locator {
	return &Locator{providers: make(map[string]func() (any, error))}
}

// Provide registers a provider for values of type t.
func (l *Locator) Provide(t reflect.Type, provider func() (any, error)) {
	_, name := TypeName(t)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.providers[name] = provider
}

func (l *Locator) Resolve(assembly, typeName string) (any, error) {
	l.mu.RLock()
	provider, ok := l.providers[typeName]
	l.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s (%s)", ErrNotFound, typeName, assembly)
	}
	return provider()
}

// Provide registers a provider of T on the default locator.
func Provide[T any](provider func() (T, error)) {
	defaultLocator.Provide(reflect.TypeFor[T](), func() (any, error) {
		return provider()
	})
}

// DefaultResolver is used when synthesis is given no resolver.
func DefaultResolver() Resolver {
	return defaultLocator
}

// Reg registers a typed wrapper constructor for the contract T.
func Reg[T any](constructor func(...Option) (T, error)) {
	n := generateServiceName[T]()
	wrapperMu.Lock()
	defer wrapperMu.Unlock()
	constructorMap[n] = func(opts ...Option) (any, error) {
		return constructor(opts...)
	}
}

// New builds the registered typed wrapper for T.
func New[T any](opts ...Option) (T, error) {
	n := generateServiceName[T]()
	wrapperMu.RLock()
	constructor, ok := constructorMap[n]
	wrapperMu.RUnlock()

	var zero T
	if !ok {
		return zero, fmt.Errorf("%w for %s", ErrNoProxy, n)
	}

	obj, err := constructor(opts...)
	if err != nil {
		return zero, err
	}
	return obj.(T), nil
}

func generateServiceName[T any]() string {
	_, name := TypeName(reflect.TypeFor[T]())
	return name
}
