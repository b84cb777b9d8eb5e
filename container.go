package dynproxy

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"reflect"
	run "runtime"
	"slices"
	"strings"
	"sync"

	"github.com/iocgo/dynproxy/internal/logger"
	"github.com/iocgo/dynproxy/proxy"
	"github.com/iocgo/dynproxy/runtime"
	"github.com/samber/do/v2"
)

type keys struct {
	g []string
}

type Initializer interface {
	Init(*Container) error
	Order() int
}

type singleInitializer struct {
	order int
	init  func(*Container) error
}

// Container is a service locator backed by samber/do. It resolves the
// implementations wrapped by proxies.
type Container struct {
	inject *do.RootScope
	init   []func() error

	mu     sync.RWMutex
	alias  map[string]string
	lookup map[string]func() (any, error)
	owners map[string]string
}

var (
	threadLocal = runtime.NewLocal(func() *keys {
		return &keys{}
	})

	_ proxy.Resolver = (*Container)(nil)
)

func (k *keys) push(key string) bool {
	if slices.Contains(k.g, key) {
		k.g = append(k.g, key)
		return false
	}
	k.g = append(k.g, key)
	return true
}

func (k *keys) pop() {
	if len(k.g) > 0 {
		k.g = k.g[:len(k.g)-1]
	}
}

func (i singleInitializer) Init(container *Container) error {
	if i.init == nil {
		return nil
	}
	return i.init(container)
}

func (i singleInitializer) Order() int {
	return i.order
}

func NewContainer() *Container {
	return &Container{
		inject: do.New(),
		alias:  make(map[string]string),
		lookup: make(map[string]func() (any, error)),
		owners: make(map[string]string),
	}
}

func InitializedWrapper(order int, init func(*Container) error) Initializer {
	return &singleInitializer{order, init}
}

func (c *Container) AddInitialized(i func() error) {
	c.init = append(c.init, i)
}

// Run executes every provided Initializer by ascending order, then the
// functions added with AddInitialized, and blocks until one of signals arrives.
func (c *Container) Run(signals ...os.Signal) (err error) {
	beans := ListInvokeAs[Initializer](c)
	beans = append(beans, &singleInitializer{999, func(*Container) error {
		for _, exec := range c.init {
			if err := exec(); err != nil {
				return err
			}
		}
		return nil
	}})

	slices.SortStableFunc(beans, func(a, b Initializer) int {
		return a.Order() - b.Order()
	})

	for _, bean := range beans {
		if err = bean.Init(c); err != nil {
			return
		}
	}

	if len(signals) > 0 {
		w := make(chan os.Signal, 1)
		signal.Notify(w, signals...)
		defer signal.Stop(w)
		sig := <-w
		logger.Info("container stopping", "signal", sig)
	}
	return
}

func (c *Container) Inject() *do.RootScope {
	return c.inject
}

// Alias makes name resolve to fullName. An alias can be declared once.
func (c *Container) Alias(name, fullName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n, ok := c.alias[name]; ok {
		panic("alias '" + name + "' already points to '" + n + "'")
	}
	c.alias[name] = fullName
}

func (c *Container) HealthLogger() string {
	injector := do.ExplainInjector(c.inject)
	return injector.String()
}

func (c *Container) Stop() error {
	if errs := c.inject.Shutdown(); errs != nil {
		return errs
	}
	return nil
}

// Resolve implements proxy.Resolver. typeName is the full name of a bean
// type, an explicit bean name or an alias of either.
func (c *Container) Resolve(assembly, typeName string) (any, error) {
	name := c.unalias(typeName)

	c.mu.RLock()
	get, ok := c.lookup[name]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s (%s)", proxy.ErrNotFound, typeName, assembly)
	}
	return get()
}

// Resolver returns a factory handing out this container.
func (c *Container) Resolver() proxy.ResolverFactory {
	return func() proxy.Resolver { return c }
}

func (c *Container) unalias(name string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for seen := 0; name != "" && seen <= len(c.alias); seen++ {
		n, ok := c.alias[name]
		if !ok {
			break
		}
		name = n
	}
	return name
}

func (c *Container) register(name string, get func() (any, error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lookup[name] = get
}

// registerType makes bean reachable under the full name of its type. The
// first bean of a type keeps that name.
func (c *Container) registerType(full, bean string, get func() (any, error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if owner, ok := c.owners[full]; ok && owner != bean {
		logger.Warn("bean type already provided", "type", full, "bean", owner, "ignored", bean)
		return
	}
	c.owners[full] = bean
	c.lookup[full] = get
}

func NameOf[T any]() string {
	return do.NameOf[T]()
}

func beanName[T any](name string) string {
	if name == "" {
		return do.NameOf[T]()
	}
	return name
}

func provide[T any](container *Container, name string) {
	get := func() (any, error) { return invoke[T](container, name) }
	_, full := proxy.TypeName(reflect.TypeFor[T]())
	container.register(name, get)
	if full != name {
		container.registerType(full, name, get)
	}
}

// ProvideBean registers a lazy singleton. An empty name uses the type name.
func ProvideBean[T any](container *Container, name string, provider func() (T, error)) {
	name = beanName[T](name)
	do.ProvideNamed[T](container.inject, name, func(i do.Injector) (T, error) {
		return provider()
	})
	provide[T](container, name)
}

func ProvideTransient[T any](container *Container, name string, provider func() (T, error)) {
	name = beanName[T](name)
	do.ProvideNamedTransient[T](container.inject, name, func(i do.Injector) (T, error) {
		return provider()
	})
	provide[T](container, name)
}

func OverrideBean[T any](container *Container, name string, provider func() (T, error)) {
	name = beanName[T](name)
	do.OverrideNamed[T](container.inject, name, func(i do.Injector) (T, error) {
		return provider()
	})
	provide[T](container, name)
}

// InvokeBean returns the bean named name. When a typed proxy is registered
// for T, the proxy is built with this container as its resolver instead.
func InvokeBean[T any](container *Container, name string) (t T, err error) {
	if px, pxErr := proxy.New[T](proxy.WithResolver(container.Resolver())); pxErr == nil {
		return px, nil
	} else if !errors.Is(pxErr, proxy.ErrNoProxy) {
		return t, pxErr
	}
	return invoke[T](container, name)
}

func invoke[T any](container *Container, name string) (t T, err error) {
	name = container.unalias(beanName[T](name))

	if !threadLocal.Exists() {
		defer threadLocal.Remove()
	}

	value := threadLocal.Load()
	if !value.push(name) {
		defer value.pop()
		return t, withCaller(fmt.Errorf("circular dependency occurs:\n%s", join(value.g, name)))
	}
	defer value.pop()

	logger.Debug("invoke bean", "name", name)
	return do.InvokeNamed[T](container.inject, name)
}

// ListInvokeAs returns every provided service whose type is exactly T.
func ListInvokeAs[T any](container *Container) (re []T) {
	services := container.inject.ListProvidedServices()
	for _, ser := range services {
		t, err := do.InvokeNamed[T](container.inject, ser.Service)
		if err == nil {
			re = append(re, t)
		}
	}
	return
}

// CreateForInterface builds a realization proxy of contract C over the
// implementation I provided to container.
func CreateForInterface[C, I any](container *Container, opts ...proxy.Option) (*proxy.Instance, error) {
	opts = append([]proxy.Option{proxy.WithResolver(container.Resolver())}, opts...)
	return proxy.Realization[C, I](opts...)
}

// CreateForInheritance builds an inheritance proxy over the implementation I provided to container.
func CreateForInheritance[I any](container *Container, opts ...proxy.Option) (*proxy.Instance, error) {
	opts = append([]proxy.Option{proxy.WithResolver(container.Resolver())}, opts...)
	return proxy.Inheritance[I](opts...)
}

// withCaller appends the location of the first caller outside this package.
func withCaller(err error) error {
	if err == nil {
		return nil
	}

	frame := runtime.CallerFrame(func(f run.Frame) bool {
		return !strings.HasPrefix(f.Function, "github.com/iocgo/dynproxy.") &&
			!strings.HasPrefix(f.Function, "github.com/samber/do")
	})
	if frame != nil {
		err = errors.Join(err, fmt.Errorf("in %s # %s:%d", frame.Function, frame.File, frame.Line))
	}
	return err
}

func join(slice []string, n string) (str string) {
	idx := -1
	last := len(slice) - 1
	for i, it := range slice {
		if idx == -1 && it == n {
			idx = i
		}

		switch i {
		case idx:
			str += "╭- " + it + "\n"
		case last:
			str += "╰> " + it + "\n"
		default:
			if idx == -1 {
				str += "   " + it + "\n"
			} else {
				str += "|  " + it + "\n"
			}
		}
	}
	return
}
