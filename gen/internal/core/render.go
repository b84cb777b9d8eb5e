package core

import (
	"bytes"
	"strings"
	"text/template"

	"golang.org/x/tools/imports"
)

var pxTemplate = template.Must(template.New("proxy").Parse(`// Code generated by proxygen. DO NOT EDIT.

package {{ .Package }}

import (
{{- if .Proxy.Annotated }}
	"reflect"
{{ end }}
	"github.com/iocgo/dynproxy/proxy"
{{- range .Imports }}
	{{ .String }}
{{- end }}
)
{{ with .Proxy }}
type {{ .Name }} struct {
{{- if .Inherit }}
	{{ .Impl }}
{{- end }}
	inst *proxy.Instance
}
{{ if not .Inherit }}
var _ {{ .Contract }} = (*{{ .Name }})(nil)
{{ end }}
func init() {
{{- if .Annotated }}
	proxy.Annotate(reflect.TypeFor[{{ .Impl }}](),
	{{- if .Interceptor }}
		proxy.InterceptorAttribute(reflect.TypeFor[{{ .Interceptor }}]()),
	{{- end }}
	{{- if .Action }}
		proxy.ActionAttribute(reflect.TypeFor[{{ .Action }}]()),
	{{- end }}
	{{- range .MethodActions }}
		proxy.MethodActionAttribute({{ printf "%q" .Method }}, reflect.TypeFor[{{ .Type }}]()),
	{{- end }}
	)
{{- end }}
{{- if .Provider }}
{{- if .ProviderErr }}
	proxy.Provide({{ .Provider }})
{{- else }}
	proxy.Provide(func() ({{ .Impl }}, error) { return {{ .Provider }}(), nil })
{{- end }}
{{- end }}
	proxy.Reg[{{ .Registered }}]({{ .Constructor }})
}

func {{ .Constructor }}(opts ...proxy.Option) ({{ .Registered }}, error) {
{{- if .Inherit }}
	inst, err := proxy.Inheritance[{{ .Impl }}](opts...)
	if err != nil {
		return nil, err
	}
	return &{{ .Name }}{ {{- .Field }}: inst.Target().({{ .Impl }}), inst: inst}, nil
{{- else }}
	inst, err := proxy.Realization[{{ .Contract }}, {{ .Impl }}](opts...)
	if err != nil {
		return nil, err
	}
	return &{{ .Name }}{inst: inst}, nil
{{- end }}
}

// Instance returns the proxy instance behind the wrapper.
func (p *{{ .Name }}) Instance() *proxy.Instance { return p.inst }
{{ range .Methods }}
func (p *{{ $.Proxy.Name }}) {{ .Name }}{{ .Signature }} {
{{- if .Direct }}
	{{ if .Results }}return {{ end }}p.inst.Target().({{ $.Proxy.Impl }}).{{ .Name }}({{ .CallArgs }})
{{- else if .ReturnsError }}
	out, err := p.inst.Invoke({{ printf "%q" .Name }}{{ .InvokeArgs }})
	if err != nil {
		return {{ .Zeros }}err
	}
	return {{ .Outs }}
{{- else if .Results }}
	out := p.inst.MustInvoke({{ printf "%q" .Name }}{{ .InvokeArgs }})
	return {{ .Outs }}
{{- else }}
	p.inst.MustInvoke({{ printf "%q" .Name }}{{ .InvokeArgs }})
{{- end }}
}
{{ end }}
{{- end }}`))

// Render executes the wrapper template for f and formats the result.
func Render(f File) ([]byte, error) {
	var buf bytes.Buffer
	if err := pxTemplate.Execute(&buf, f); err != nil {
		return nil, err
	}

	name := f.Path
	if name == "" {
		name = strings.ToLower(f.Proxy.Name) + ".go"
	}
	return imports.Process(name, buf.Bytes(), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
}
