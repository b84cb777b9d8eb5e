package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/iocgo/dynproxy/proxy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Calculator interface {
	Add(a, b int) int
	Sum(xs ...float64) float64
	Div(a, b int) (int, error)
	Clear()
}

type calculator struct{ cleared bool }

func (*calculator) Add(a, b int) int { return a + b }

func (*calculator) Sum(xs ...float64) (total float64) {
	for _, x := range xs {
		total += x
	}
	return
}

func (*calculator) Div(a, b int) (int, error) {
	if b == 0 {
		return 0, errors.New("division by zero")
	}
	return a / b, nil
}

func (c *calculator) Clear() { c.cleared = true }

func newEngine(t *testing.T, opts ...proxy.Option) (*gin.Engine, *calculator) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	impl := &calculator{}
	locator := proxy.NewLocator()
	locator.Provide(reflect.TypeFor[*calculator](), func() (any, error) { return impl, nil })

	opts = append(opts, proxy.WithResolver(func() proxy.Resolver { return locator }))
	inst, err := proxy.Realization[Calculator, *calculator](opts...)
	require.NoError(t, err)

	r := gin.New()
	Mount(r, "/calc", inst)
	return r, impl
}

func do(r http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestInvoke(t *testing.T) {
	r, impl := newEngine(t)

	w, out := do(r, http.MethodPost, "/calc/Add", `[2, 3]`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{float64(5)}, out["results"])

	w, out = do(r, http.MethodPost, "/calc/Sum", `[1.5, 2, 3]`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{6.5}, out["results"])

	w, out = do(r, http.MethodPost, "/calc/Div", `[1, 0]`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{float64(0), "division by zero"}, out["results"])

	w, out = do(r, http.MethodPost, "/calc/Clear", ``)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{}, out["results"])
	assert.True(t, impl.cleared)
}

func TestInvokeErrors(t *testing.T) {
	r, _ := newEngine(t)

	w, _ := do(r, http.MethodPost, "/calc/Nope", `[]`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, out := do(r, http.MethodPost, "/calc/Add", `["a", 1]`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, out["error"], "argument 0")

	w, _ = do(r, http.MethodPost, "/calc/Add", `[1]`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(r, http.MethodPost, "/calc/Add", `{`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInterceptorFailureStatus(t *testing.T) {
	r, _ := newEngine(t, proxy.WithInterceptor(func() (proxy.Interceptor, error) {
		return proxy.InterceptorFunc(func(_ any, method string, _ []proxy.Value) (proxy.Value, error) {
			if method == "Add" {
				return proxy.Box("wrong"), nil
			}
			return proxy.Value{}, errors.New("unavailable")
		}), nil
	}))

	w, _ := do(r, http.MethodPost, "/calc/Add", `[1, 2]`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(r, http.MethodPost, "/calc/Sum", `[]`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w, out := do(r, http.MethodPost, "/calc/Div", `[4, 2]`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{float64(0), "unavailable"}, out["results"])
}

func TestDescribe(t *testing.T) {
	r, _ := newEngine(t)

	w, out := do(r, http.MethodGet, "/calc", ``)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "calculatorProxy", out["proxy"])
	assert.Equal(t, "realize", out["mode"])

	methods := out["methods"].([]any)
	require.Len(t, methods, 4)
	add := methods[0].(map[string]any)
	assert.Equal(t, "Add", add["name"])
	assert.Equal(t, []any{"int", "int"}, add["in"])
	sum := methods[3].(map[string]any)
	assert.Equal(t, true, sum["variadic"])
}
