// Package meta resolves the Go types referenced by proxy annotations.
package meta

import (
	"fmt"
	"go/types"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/tools/go/packages"
)

const loadMode = packages.NeedName | packages.NeedTypes | packages.NeedTypesInfo |
	packages.NeedSyntax | packages.NeedImports

type Package struct {
	types *types.Package
}

func New(pkg *types.Package) *Package {
	return &Package{types: pkg}
}

// Load type-checks the package in dir. Type errors are tolerated since the
// package may still reference files that have not been generated yet.
func Load(dir string) (*Package, error) {
	pkgs, err := packages.Load(&packages.Config{Mode: loadMode, Dir: dir}, ".")
	if err != nil {
		return nil, err
	}
	if len(pkgs) != 1 {
		return nil, fmt.Errorf("expected 1 package in %s, got %d", dir, len(pkgs))
	}

	pkg := pkgs[0]
	for _, e := range pkg.Errors {
		if e.Kind != packages.TypeError {
			return nil, e
		}
	}
	if pkg.Types == nil {
		return nil, fmt.Errorf("no type information for %s", dir)
	}
	return New(pkg.Types), nil
}

func (p *Package) Types() *types.Package { return p.types }

func (p *Package) Name() string { return p.types.Name() }

// Func returns the signature of the package level function name.
func (p *Package) Func(name string) (*types.Signature, error) {
	fn, ok := p.types.Scope().Lookup(name).(*types.Func)
	if !ok {
		return nil, fmt.Errorf("function %s not found in %s", name, p.types.Path())
	}
	return fn.Type().(*types.Signature), nil
}

// Lookup resolves a type expression of the form [*][alias.]Name, where
// alias is the name of a package imported by this one.
func (p *Package) Lookup(expr string) (types.Type, error) {
	expr = strings.TrimSpace(expr)
	name, pointer := strings.CutPrefix(expr, "*")

	scope := p.types.Scope()
	if alias, sel, ok := strings.Cut(name, "."); ok {
		imported := p.imported(alias)
		if imported == nil {
			return nil, fmt.Errorf("package %s is not imported by %s", alias, p.types.Path())
		}
		scope, name = imported.Scope(), sel
	}

	obj, ok := scope.Lookup(name).(*types.TypeName)
	if !ok {
		return nil, fmt.Errorf("type %s not found", expr)
	}

	t := obj.Type()
	if named, ok := t.(*types.Named); ok && named.TypeParams().Len() > 0 {
		return nil, fmt.Errorf("generic type %s is not supported", expr)
	}
	if pointer {
		t = types.NewPointer(t)
	}
	return t, nil
}

func (p *Package) imported(alias string) *types.Package {
	for _, imp := range p.types.Imports() {
		if imp.Name() == alias {
			return imp
		}
	}
	return nil
}

type Import struct {
	Alias string
	Path  string
}

func (ip Import) String() string {
	if ip.Alias == "" {
		return strconv.Quote(ip.Path)
	}
	return ip.Alias + " " + strconv.Quote(ip.Path)
}

// Qualifier renders type names relative to a package and records the
// imports they need.
type Qualifier struct {
	self    *types.Package
	aliases map[string]string
	taken   map[string]string
}

// NewQualifier reserves the given package names for the generated file.
func NewQualifier(self *types.Package, reserved ...string) *Qualifier {
	q := &Qualifier{
		self:    self,
		aliases: make(map[string]string),
		taken:   make(map[string]string),
	}
	for _, name := range reserved {
		q.taken[name] = ""
	}
	return q
}

func (q *Qualifier) Qualify(pkg *types.Package) string {
	if pkg == nil || pkg == q.self || pkg.Path() == q.self.Path() {
		return ""
	}
	if alias, ok := q.aliases[pkg.Path()]; ok {
		return alias
	}

	alias := pkg.Name()
	for i := 2; ; i++ {
		if _, ok := q.taken[alias]; !ok {
			break
		}
		alias = pkg.Name() + strconv.Itoa(i)
	}
	q.aliases[pkg.Path()] = alias
	q.taken[alias] = pkg.Path()
	return alias
}

func (q *Qualifier) TypeString(t types.Type) string {
	return types.TypeString(t, q.Qualify)
}

// Imports lists the packages referenced so far, sorted by path.
func (q *Qualifier) Imports() []Import {
	imports := make([]Import, 0, len(q.aliases))
	for path, alias := range q.aliases {
		ip := Import{Path: path}
		if alias != lastElem(path) {
			ip.Alias = alias
		}
		imports = append(imports, ip)
	}
	sort.Slice(imports, func(i, j int) bool { return imports[i].Path < imports[j].Path })
	return imports
}

func lastElem(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}
