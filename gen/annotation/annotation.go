// Package annotation declares the source annotations proxygen understands.
package annotation

import (
	"go/ast"
)

// M is implemented by every annotation. As lets a custom annotation stand
// in for a built-in one; the chain ends at the annotation returning nil.
type M interface {
	Name() string
	Match(node ast.Node) error
	As() M
}

// Anon is embedded by alias annotations, which only implement As. The
// processor always resolves an annotation before using it.
type Anon struct {
}

func (Anon) Name() string { return "" }

func (Anon) Match(ast.Node) error { return nil }

func (Anon) As() M { return nil }

// Resolve follows the As chain of m.
func Resolve(m M) M {
	for {
		n := m.As()
		if n == nil {
			return m
		}
		m = n
	}
}

func MethodReceiver(decl *ast.FuncDecl) string {
	if decl.Recv == nil {
		return ""
	}

	for _, v := range decl.Recv.List {
		switch rv := v.Type.(type) {
		case *ast.Ident:
			return rv.Name
		case *ast.StarExpr:
			if id, ok := rv.X.(*ast.Ident); ok {
				return id.Name
			}
		}
	}
	return ""
}
