package core

import (
	"fmt"
	"strings"

	"github.com/iocgo/dynproxy/gen/internal/meta"
)

// File is one generated source file holding a single wrapper.
type File struct {
	Path    string
	Package string
	Imports []meta.Import
	Proxy   Proxy
}

type Proxy struct {
	Name        string
	Constructor string
	Inherit     bool

	// Contract is empty when Inherit is set.
	Contract string
	Impl     string
	Field    string

	Provider    string
	ProviderErr bool

	Interceptor   string
	Action        string
	MethodActions []MethodAction

	Methods []Method
}

type MethodAction struct {
	Method string
	Type   string
}

// Registered is the type the wrapper constructor is registered under.
func (p Proxy) Registered() string {
	if p.Inherit {
		return "*" + p.Name
	}
	return p.Contract
}

func (p Proxy) Annotated() bool {
	return p.Interceptor != "" || p.Action != "" || len(p.MethodActions) > 0
}

type Param struct {
	Name string
	Type string
}

// Method is a wrapper method. Direct methods call the implementation
// without going through the instance.
type Method struct {
	Name     string
	Params   []Param
	Results  []string
	Variadic bool
	Direct   bool
}

func (m Method) ReturnsError() bool {
	return len(m.Results) > 0 && m.Results[len(m.Results)-1] == "error"
}

func (m Method) Signature() string {
	params := make([]string, len(m.Params))
	for i, p := range m.Params {
		params[i] = p.Name + " " + p.Type
	}

	sig := "(" + strings.Join(params, ", ") + ")"
	switch len(m.Results) {
	case 0:
	case 1:
		sig += " " + m.Results[0]
	default:
		sig += " (" + strings.Join(m.Results, ", ") + ")"
	}
	return sig
}

// CallArgs spreads a variadic parameter for a direct call.
func (m Method) CallArgs() string {
	names := m.names()
	if m.Variadic && len(names) > 0 {
		names[len(names)-1] += "..."
	}
	return strings.Join(names, ", ")
}

// InvokeArgs passes a variadic parameter as its slice.
func (m Method) InvokeArgs() string {
	var sb strings.Builder
	for _, name := range m.names() {
		sb.WriteString(", ")
		sb.WriteString(name)
	}
	return sb.String()
}

// Zeros lists the zero values returned ahead of a failed call's error.
func (m Method) Zeros() string {
	var sb strings.Builder
	for _, t := range m.Results[:len(m.Results)-1] {
		sb.WriteString("*new(" + t + "), ")
	}
	return sb.String()
}

func (m Method) Outs() string {
	outs := make([]string, len(m.Results))
	for i, t := range m.Results {
		outs[i] = fmt.Sprintf("proxy.Arg[%s](out, %d)", t, i)
	}
	return strings.Join(outs, ", ")
}

func (m Method) names() []string {
	names := make([]string, len(m.Params))
	for i, p := range m.Params {
		names[i] = p.Name
	}
	return names
}
