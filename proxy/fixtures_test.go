package proxy

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

type Greeter interface {
	Greet(name string) string
}

type greeterImpl struct {
	calls int
}

func (g *greeterImpl) Greet(name string) string {
	g.calls++
	return "Hello, " + name
}

func (g *greeterImpl) String() string { return "greeter" }

type Account struct {
	Owner   string
	Balance int64
}

type Ledger interface {
	Open(owner string) Account
	Total() int64
	Sum(base int, xs ...int) int
	Withdraw(amount int64) (int64, error)
	Reset()
	Explode()
}

type ledgerImpl struct {
	total int64
	reset int
}

func (l *ledgerImpl) Open(owner string) Account { return Account{Owner: owner, Balance: l.total} }

func (l *ledgerImpl) Total() int64 { return l.total }

func (l *ledgerImpl) Sum(base int, xs ...int) int {
	for _, x := range xs {
		base += x
	}
	return base
}

var errInsufficient = errors.New("insufficient funds")

func (l *ledgerImpl) Withdraw(amount int64) (int64, error) {
	if amount > l.total {
		return l.total, errInsufficient
	}
	l.total -= amount
	return l.total, nil
}

func (l *ledgerImpl) Reset() { l.reset++; l.total = 0 }

func (l *ledgerImpl) Explode() { panic("boom") }

func (l *ledgerImpl) Equal(other *ledgerImpl) bool { return l == other }

// recorder is shared by every action it is handed to.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type recordingAction struct {
	tag string
	rec *recorder
}

func (a *recordingAction) Before(method string, args []Value) {
	a.rec.add("%sbefore %s %v", a.tag, method, args)
}

func (a *recordingAction) After(method string, result Value) {
	a.rec.add("%safter %s %s %v", a.tag, method, result.Kind(), result)
}

func actionOf(tag string, rec *recorder) ActionFactory {
	return func() (Action, error) {
		return &recordingAction{tag: tag, rec: rec}, nil
	}
}

func resolverOf(impl any) ResolverFactory {
	locator := NewLocator()
	locator.Provide(reflect.TypeOf(impl), func() (any, error) { return impl, nil })
	return func() Resolver { return locator }
}

type resolverFunc func(assembly, typeName string) (any, error)

func (f resolverFunc) Resolve(assembly, typeName string) (any, error) { return f(assembly, typeName) }
