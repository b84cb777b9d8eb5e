package runtime

import (
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoroutineID(t *testing.T) {
	id := GoroutineID()
	assert.Positive(t, id)
	assert.Equal(t, id, GoroutineID())

	other := make(chan int64)
	go func() { other <- GoroutineID() }()
	assert.NotEqual(t, id, <-other)
}

func TestLocalIsPerGoroutine(t *testing.T) {
	local := NewLocal(func() []string { return nil })
	assert.False(t, local.Exists())

	local.Store([]string{"main"})
	require.True(t, local.Exists())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.False(t, local.Exists())
		assert.Empty(t, local.Load())
		assert.True(t, local.Exists())
	}()
	wg.Wait()

	assert.Equal(t, []string{"main"}, local.Load())
	local.Remove()
	assert.False(t, local.Exists())
}

func TestCallerFrame(t *testing.T) {
	frame := CallerFrame(func(f runtime.Frame) bool {
		return strings.HasSuffix(f.Function, "TestCallerFrame")
	})
	require.NotNil(t, frame)
	assert.True(t, strings.HasSuffix(frame.File, "local_test.go"))

	assert.Nil(t, CallerFrame(func(runtime.Frame) bool { return false }))
}
