package proxy

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReflectSkipsIgnoredMethods(t *testing.T) {
	methods, err := Reflect(reflect.TypeFor[*ledgerImpl]())
	require.NoError(t, err)

	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = m.Name
	}
	assert.Equal(t, []string{"Explode", "Open", "Reset", "Sum", "Total", "Withdraw"}, names)

	for _, name := range []string{"Type", "String", "Hash", "Equal"} {
		assert.True(t, Ignored(name), name)
	}
	assert.False(t, Ignored("Greet"))
}

func TestReflectDescriptors(t *testing.T) {
	methods, err := Reflect(reflect.TypeFor[*ledgerImpl]())
	require.NoError(t, err)

	byName := make(map[string]*Method)
	for _, m := range methods {
		byName[m.Name] = m
	}

	sum := byName["Sum"]
	assert.True(t, sum.Variadic)
	assert.Equal(t, []reflect.Type{reflect.TypeFor[int](), reflect.TypeFor[[]int]()}, sum.In)
	assert.Equal(t, []reflect.Type{reflect.TypeFor[int]()}, sum.Out)

	assert.True(t, byName["Withdraw"].ReturnsError())
	assert.False(t, byName["Total"].ReturnsError())
	assert.Empty(t, byName["Reset"].Out)
}

func TestReflectErrors(t *testing.T) {
	var reflection *ReflectionError

	_, err := Reflect(nil)
	assert.ErrorAs(t, err, &reflection)

	_, err = Reflect(reflect.TypeFor[Greeter]())
	require.ErrorAs(t, err, &reflection)
	assert.Contains(t, err.Error(), "opaque")

	_, err = Reflect(reflect.TypeFor[struct{ A int }]())
	assert.ErrorAs(t, err, &reflection)
}

func TestTypeName(t *testing.T) {
	assembly, name := TypeName(reflect.TypeFor[*ledgerImpl]())
	assert.Equal(t, "github.com/iocgo/dynproxy/proxy", assembly)
	assert.Equal(t, "*github.com/iocgo/dynproxy/proxy.ledgerImpl", name)

	assembly, name = TypeName(reflect.TypeFor[Account]())
	assert.Equal(t, "github.com/iocgo/dynproxy/proxy", assembly)
	assert.Equal(t, "github.com/iocgo/dynproxy/proxy.Account", name)

	assembly, name = TypeName(reflect.TypeFor[int]())
	assert.Empty(t, assembly)
	assert.Equal(t, "int", name)

	_, name = TypeName(reflect.TypeFor[[]int]())
	assert.Equal(t, "[]int", name)
}
