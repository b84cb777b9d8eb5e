// Package router exposes a proxy instance over HTTP with gin. Every
// forwarded method becomes POST <prefix>/<Method> taking a JSON array of
// arguments; GET <prefix> describes the method surface.
package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"
	"github.com/iocgo/dynproxy/internal/logger"
	"github.com/iocgo/dynproxy/proxy"
)

type methodInfo struct {
	Name     string   `json:"name"`
	In       []string `json:"in"`
	Out      []string `json:"out"`
	Variadic bool     `json:"variadic,omitempty"`
}

var errorType = reflect.TypeFor[error]()

func Mount(r gin.IRouter, prefix string, inst *proxy.Instance) {
	g := r.Group(prefix)
	g.GET("", describe(inst))
	g.POST("/:method", invoke(inst))
}

func describe(inst *proxy.Instance) gin.HandlerFunc {
	methods := make([]methodInfo, 0)
	for _, m := range inst.Proxy().Methods() {
		methods = append(methods, methodInfo{
			Name:     m.Name,
			In:       typeNames(m.In),
			Out:      typeNames(m.Out),
			Variadic: m.Variadic,
		})
	}

	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"proxy":   inst.Proxy().Name(),
			"mode":    inst.Proxy().Mode().String(),
			"id":      inst.ID().String(),
			"methods": methods,
		})
	}
}

func invoke(inst *proxy.Instance) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("method")
		m, ok := inst.Proxy().Method(name)
		if !ok {
			abort(c, http.StatusNotFound, fmt.Errorf("%w: %s", proxy.ErrNoSuchMethod, name))
			return
		}

		var raw []json.RawMessage
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&raw); err != nil {
				abort(c, http.StatusBadRequest, err)
				return
			}
		}

		in, err := decode(m, raw)
		if err != nil {
			abort(c, http.StatusBadRequest, err)
			return
		}

		out, err := inst.Call(name, in)
		if err != nil {
			abort(c, status(err), err)
			return
		}

		results := make([]any, len(out))
		for i, rv := range out {
			results[i] = encode(rv)
		}
		c.JSON(http.StatusOK, gin.H{"results": results})
	}
}

// decode unmarshals each argument into its parameter type. Surplus
// arguments of a variadic method fill its slice.
func decode(m *proxy.Method, raw []json.RawMessage) ([]reflect.Value, error) {
	fixed := len(m.In)
	if m.Variadic {
		fixed--
	}
	if len(raw) < fixed || (!m.Variadic && len(raw) != fixed) {
		return nil, fmt.Errorf("%s expects %d arguments, got %d", m.Name, len(m.In), len(raw))
	}

	in := make([]reflect.Value, 0, len(m.In))
	for i := range fixed {
		rv, err := unmarshal(raw[i], m.In[i])
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		in = append(in, rv)
	}

	if m.Variadic {
		sliceType := m.In[fixed]
		slice := reflect.MakeSlice(sliceType, 0, len(raw)-fixed)
		for i := fixed; i < len(raw); i++ {
			rv, err := unmarshal(raw[i], sliceType.Elem())
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			slice = reflect.Append(slice, rv)
		}
		in = append(in, slice)
	}
	return in, nil
}

func unmarshal(raw json.RawMessage, t reflect.Type) (reflect.Value, error) {
	ptr := reflect.New(t)
	if err := json.Unmarshal(raw, ptr.Interface()); err != nil {
		return reflect.Value{}, err
	}
	return ptr.Elem(), nil
}

func encode(rv reflect.Value) any {
	if rv.Type() == errorType {
		if rv.IsNil() {
			return nil
		}
		return rv.Interface().(error).Error()
	}
	return rv.Interface()
}

func status(err error) int {
	var mismatch *proxy.TypeMismatchError
	switch {
	case errors.Is(err, proxy.ErrNoSuchMethod):
		return http.StatusNotFound
	case errors.As(err, &mismatch):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func abort(c *gin.Context, code int, err error) {
	if code >= http.StatusInternalServerError {
		logger.Error("proxy invocation failed", "path", c.Request.URL.Path, "err", err)
	}
	c.AbortWithStatusJSON(code, gin.H{"error": err.Error()})
}

func typeNames(types []reflect.Type) []string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return names
}
