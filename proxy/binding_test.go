package proxy

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinger interface {
	Ping() string
	Pong() string
}

type annotatedImpl struct{}

func (annotatedImpl) Ping() string { return "ping" }
func (annotatedImpl) Pong() string { return "pong" }

type stampedImpl struct{ annotatedImpl }

type fixedStamp int

func (s fixedStamp) Invoke(_ any, method string, _ []Value) (Value, error) {
	return Box(fmt.Sprintf("%s:%d", method, int(s))), nil
}

type stampInterceptor struct{ calls int }

func (s *stampInterceptor) Invoke(_ any, method string, _ []Value) (Value, error) {
	s.calls++
	return Box("stamped:" + method), nil
}

var attrEvents = &recorder{}

type classAction struct{}

func (classAction) Before(method string, _ []Value) { attrEvents.add("class before %s", method) }
func (classAction) After(method string, result Value) {
	attrEvents.add("class after %s %v", method, result)
}

type methodAction struct{}

func (*methodAction) Before(method string, _ []Value) { attrEvents.add("method before %s", method) }
func (*methodAction) After(method string, result Value) {
	attrEvents.add("method after %s %v", method, result)
}

func init() {
	Annotate(reflect.TypeFor[annotatedImpl](),
		ActionAttribute(reflect.TypeFor[classAction]()),
		MethodActionAttribute("Ping", reflect.TypeFor[*methodAction]()),
	)
	Annotate(reflect.TypeFor[*stampedImpl](), InterceptorAttribute(reflect.TypeFor[*stampInterceptor]()))
}

func TestAttributeLookups(t *testing.T) {
	assert.Equal(t, reflect.TypeFor[*methodAction](), ActionAttributeOf(reflect.TypeFor[*annotatedImpl](), "Ping"))
	assert.Equal(t, reflect.TypeFor[classAction](), ActionAttributeOf(reflect.TypeFor[annotatedImpl](), "Pong"))
	assert.Nil(t, InterceptorAttributeOf(reflect.TypeFor[annotatedImpl]()))
	assert.Equal(t, reflect.TypeFor[*stampInterceptor](), InterceptorAttributeOf(reflect.TypeFor[stampedImpl]()))
	assert.Nil(t, ActionAttributeOf(reflect.TypeFor[*greeterImpl](), "Greet"))
}

func TestAttributePrecedence(t *testing.T) {
	attrEvents.events = nil

	inst, err := Realization[pinger, *annotatedImpl](WithResolver(resolverOf(&annotatedImpl{})))
	require.NoError(t, err)

	ping, _ := inst.Proxy().Binding("Ping")
	pong, _ := inst.Proxy().Binding("Pong")
	assert.Equal(t, "method", ping.ActionScope)
	assert.Equal(t, "class", pong.ActionScope)

	assert.Equal(t, "ping", inst.MustInvoke("Ping")[0])
	assert.Equal(t, "pong", inst.MustInvoke("Pong")[0])
	assert.Equal(t, []string{
		"method before Ping",
		"method after Ping ping",
		"class before Pong",
		"class after Pong pong",
	}, attrEvents.list())
}

func TestExplicitOptionsAgainstAttributes(t *testing.T) {
	rec := &recorder{}
	typ, err := Synthesize(Realize, reflect.TypeFor[pinger](), reflect.TypeFor[*annotatedImpl](),
		WithResolver(resolverOf(&annotatedImpl{})),
		WithAction(actionOf("explicit:", rec)),
	)
	require.NoError(t, err)

	// the method-level attribute still beats the explicit class-level action
	ping, _ := typ.Binding("Ping")
	assert.Equal(t, "method", ping.ActionScope)

	attrEvents.events = nil
	inst, err := typ.New()
	require.NoError(t, err)
	inst.MustInvoke("Pong")
	inst.MustInvoke("Ping")
	assert.Equal(t, []string{"explicit:before Pong []", "explicit:after Pong string pong"}, rec.list())
	assert.Equal(t, []string{"method before Ping", "method after Ping ping"}, attrEvents.list())

	typ, err = Synthesize(Realize, reflect.TypeFor[pinger](), reflect.TypeFor[*annotatedImpl](),
		WithResolver(resolverOf(&annotatedImpl{})),
		WithMethodAction("Ping", actionOf("explicit:", rec)),
	)
	require.NoError(t, err)
	ping, _ = typ.Binding("Ping")
	assert.Equal(t, Binding{Action: true, ActionScope: "method"}, ping)
}

func TestInterceptorAttribute(t *testing.T) {
	inst, err := Realization[pinger, *stampedImpl](WithResolver(resolverOf(&stampedImpl{})))
	require.NoError(t, err)

	assert.Equal(t, "stamped:Ping", inst.MustInvoke("Ping")[0])
	binding, _ := inst.Proxy().Binding("Pong")
	assert.True(t, binding.Intercepted)

	inst, err = Realization[pinger, *stampedImpl](
		WithResolver(resolverOf(&stampedImpl{})),
		WithInterceptor(func() (Interceptor, error) {
			return InterceptorFunc(func(any, string, []Value) (Value, error) { return Box("explicit"), nil }), nil
		}),
	)
	require.NoError(t, err)
	assert.Equal(t, "explicit", inst.MustInvoke("Ping")[0])
}

func TestBindingOf(t *testing.T) {
	factory, err := BindingOf[Action](reflect.TypeFor[classAction]())
	require.NoError(t, err)
	action, err := factory()
	require.NoError(t, err)
	assert.IsType(t, classAction{}, action)

	interceptors, err := BindingOf[Interceptor](reflect.TypeFor[*stampInterceptor]())
	require.NoError(t, err)
	a, _ := interceptors()
	b, _ := interceptors()
	assert.NotSame(t, a, b)

	var construction *BindingConstructionError
	_, err = BindingOf[Action](nil)
	assert.ErrorAs(t, err, &construction)

	_, err = BindingOf[Action](reflect.TypeFor[func()]())
	require.ErrorAs(t, err, &construction)
	assert.Equal(t, "action", construction.Binding)

	_, err = BindingOf[Interceptor](reflect.TypeFor[classAction]())
	require.ErrorAs(t, err, &construction)
	assert.Equal(t, "interceptor", construction.Binding)

	_, err = BindingOf[Action](reflect.TypeFor[Action]())
	assert.ErrorAs(t, err, &construction)

	_, err = BindingOf[Interceptor](reflect.TypeFor[InterceptorFunc]())
	assert.ErrorAs(t, err, &construction)

	stamps, err := BindingOf[Interceptor](reflect.TypeFor[fixedStamp]())
	require.NoError(t, err)
	stamp, err := stamps()
	require.NoError(t, err)
	v, err := stamp.Invoke(nil, "Ping", nil)
	require.NoError(t, err)
	assert.Equal(t, "Ping:0", v.Interface())

	// value receivers do not satisfy Action for *methodAction's value form
	_, err = BindingOf[Action](reflect.TypeFor[methodAction]())
	assert.ErrorAs(t, err, &construction)
}

func TestProceed(t *testing.T) {
	impl := &ledgerImpl{total: 10}

	v, err := Proceed(impl, "Sum", []Value{Box(int8(1)), Box([]int{2, 3})})
	require.NoError(t, err)
	assert.Equal(t, 6, v.Interface())

	v, err = Proceed(impl, "Withdraw", []Value{Box(int64(20))})
	require.NoError(t, err)
	require.Equal(t, Tuple, v.Kind())
	assert.Equal(t, int64(10), v.Index(0).Interface())
	assert.ErrorIs(t, v.Index(1).Interface().(error), errInsufficient)

	v, err = Proceed(impl, "Reset", nil)
	require.NoError(t, err)
	assert.True(t, v.IsVoid())
	assert.Equal(t, 1, impl.reset)

	_, err = Proceed(impl, "Missing", nil)
	assert.ErrorIs(t, err, ErrNoSuchMethod)

	_, err = Proceed(impl, "Open", []Value{Box(1)})
	var mismatch *TypeMismatchError
	assert.ErrorAs(t, err, &mismatch)

	_, err = Proceed(impl, "Open", nil)
	assert.ErrorContains(t, err, "expects 1 arguments")
}
