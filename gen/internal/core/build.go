package core

import (
	"fmt"
	"go/types"
	"strings"
	"unicode"

	"github.com/iocgo/dynproxy/gen/annotation"
	"github.com/iocgo/dynproxy/gen/internal/meta"
	"github.com/iocgo/dynproxy/proxy"
)

// target is a constructor annotated with @Proxy.
type target struct {
	dir  string
	fn   string
	tag  annotation.Proxy
	path string
}

// methodAction is a method annotated with @Action.
type methodAction struct {
	dir      string
	receiver string
	method   string
	tag      annotation.Action
}

var (
	reservedImports = []string{"proxy", "reflect"}
	reservedParams  = map[string]bool{"p": true, "out": true, "err": true, "proxy": true, "reflect": true}
)

// build derives the wrapper of t from the type information of pkg.
func build(pkg *meta.Package, t target, actions []methodAction) (f File, err error) {
	sig, err := pkg.Func(t.fn)
	if err != nil {
		return
	}

	results := sig.Results()
	if results.Len() < 1 || results.Len() > 2 {
		err = fmt.Errorf("%s must return T or (T, error)", t.fn)
		return
	}
	if results.Len() == 2 && !isError(results.At(1).Type()) {
		err = fmt.Errorf("second result of %s must be error", t.fn)
		return
	}

	impl := results.At(0).Type()
	named := namedOf(impl)
	if named == nil || types.IsInterface(impl) {
		err = fmt.Errorf("%s must return a named concrete type, got %s", t.fn, impl)
		return
	}
	if named.TypeParams().Len() > 0 {
		err = fmt.Errorf("generic type %s is not supported", named)
		return
	}

	q := meta.NewQualifier(pkg.Types(), reservedImports...)
	implName := named.Obj().Name()
	px := Proxy{
		Name:        lowerFirst(implName) + "Proxy",
		Constructor: "new" + upperFirst(implName) + "Proxy",
		Inherit:     t.tag.Contract == "",
		Impl:        q.TypeString(impl),
		Field:       implName,
		Provider:    t.fn,
		ProviderErr: results.Len() == 2,
	}

	if px.Interceptor, err = typeExpr(pkg, q, t.tag.Interceptor); err != nil {
		return
	}
	if px.Action, err = typeExpr(pkg, q, t.tag.Action); err != nil {
		return
	}

	for _, a := range actions {
		if a.dir != t.dir || a.receiver != implName {
			continue
		}
		var expr string
		if expr, err = typeExpr(pkg, q, a.tag.Type); err != nil {
			return
		}
		px.MethodActions = append(px.MethodActions, MethodAction{Method: a.method, Type: expr})
	}

	if px.Inherit {
		px.Methods = inherited(q, impl)
	} else {
		var contract types.Type
		if contract, err = pkg.Lookup(t.tag.Contract); err != nil {
			return
		}
		if !types.IsInterface(contract) {
			err = fmt.Errorf("contract %s is not an interface", t.tag.Contract)
			return
		}
		if !types.Implements(impl, contract.Underlying().(*types.Interface)) {
			err = fmt.Errorf("%s does not implement %s", px.Impl, t.tag.Contract)
			return
		}
		px.Contract = q.TypeString(contract)
		px.Methods = realized(q, contract.Underlying().(*types.Interface))
	}

	for _, ma := range px.MethodActions {
		if !px.forwards(ma.Method) {
			err = fmt.Errorf("`@Action` on %s.%s which is not forwarded", implName, ma.Method)
			return
		}
	}

	f = File{
		Path:    t.path,
		Package: pkg.Name(),
		Imports: q.Imports(),
		Proxy:   px,
	}
	return
}

func (p Proxy) forwards(name string) bool {
	for _, m := range p.Methods {
		if m.Name == name {
			return !m.Direct
		}
	}
	return false
}

func realized(q *meta.Qualifier, iface *types.Interface) []Method {
	methods := make([]Method, 0, iface.NumMethods())
	for i := range iface.NumMethods() {
		fn := iface.Method(i)
		m := method(q, fn)
		m.Direct = !fn.Exported() || proxy.Ignored(fn.Name())
		methods = append(methods, m)
	}
	return methods
}

func inherited(q *meta.Qualifier, impl types.Type) []Method {
	set := types.NewMethodSet(impl)
	methods := make([]Method, 0, set.Len())
	for i := range set.Len() {
		fn := set.At(i).Obj().(*types.Func)
		if !fn.Exported() || proxy.Ignored(fn.Name()) {
			continue
		}
		methods = append(methods, method(q, fn))
	}
	return methods
}

func method(q *meta.Qualifier, fn *types.Func) Method {
	sig := fn.Type().(*types.Signature)
	m := Method{Name: fn.Name(), Variadic: sig.Variadic()}

	params := sig.Params()
	for i := range params.Len() {
		v := params.At(i)
		name := v.Name()
		if name == "" || name == "_" || reservedParams[name] {
			name = fmt.Sprintf("arg%d", i)
		}

		typ := q.TypeString(v.Type())
		if m.Variadic && i == params.Len()-1 {
			typ = "..." + q.TypeString(v.Type().(*types.Slice).Elem())
		}
		m.Params = append(m.Params, Param{Name: name, Type: typ})
	}

	results := sig.Results()
	for i := range results.Len() {
		m.Results = append(m.Results, q.TypeString(results.At(i).Type()))
	}
	return m
}

func typeExpr(pkg *meta.Package, q *meta.Qualifier, expr string) (string, error) {
	if expr == "" {
		return "", nil
	}
	t, err := pkg.Lookup(expr)
	if err != nil {
		return "", err
	}
	return q.TypeString(t), nil
}

func namedOf(t types.Type) *types.Named {
	if p, ok := t.(*types.Pointer); ok {
		t = p.Elem()
	}
	named, _ := t.(*types.Named)
	return named
}

func isError(t types.Type) bool {
	return types.Identical(t, types.Universe.Lookup("error").Type())
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// ToSnakeCase converts a Go identifier to a file name stem.
func ToSnakeCase(str string) string {
	var sb strings.Builder
	r := []rune(str)
	for i, c := range r {
		if unicode.IsUpper(c) {
			if i > 0 && (unicode.IsLower(r[i-1]) || (i+1 < len(r) && unicode.IsLower(r[i+1]))) {
				sb.WriteByte('_')
			}
			c = unicode.ToLower(c)
		}
		sb.WriteRune(c)
	}
	return sb.String()
}
