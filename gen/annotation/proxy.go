package annotation

import (
	"fmt"
	"go/ast"
)

// Proxy marks a constructor of an implementation type. With a contract the
// generated wrapper realizes that interface, otherwise it inherits the
// implementation.
//
//	// @Proxy(contract="Greeter", interceptor="*audit")
//	func NewGreeter() *greeter
type Proxy struct {
	Contract    string `annotation:"name=contract,default="`
	Interceptor string `annotation:"name=interceptor,default="`
	Action      string `annotation:"name=action,default="`
}

var _ M = (*Proxy)(nil)

func (p Proxy) Name() string {
	return "proxy"
}

func (p Proxy) Match(node ast.Node) (err error) {
	fd, ok := node.(*ast.FuncDecl)
	if !ok || MethodReceiver(fd) != "" {
		return fmt.Errorf("the position of the `@Proxy` annotation is incorrect, needed is a constructor function")
	}

	if fd.Type.TypeParams != nil && len(fd.Type.TypeParams.List) > 0 {
		return fmt.Errorf("`@Proxy` constructor %s must not be generic", fd.Name.Name)
	}
	if fd.Type.Params != nil && len(fd.Type.Params.List) > 0 {
		return fmt.Errorf("`@Proxy` constructor %s must not take arguments", fd.Name.Name)
	}

	results := 0
	if fd.Type.Results != nil {
		results = fd.Type.Results.NumFields()
	}
	if results != 1 && results != 2 {
		return fmt.Errorf("`@Proxy` constructor %s must return T or (T, error)", fd.Name.Name)
	}
	return
}

func (p Proxy) As() (_ M) {
	return
}
