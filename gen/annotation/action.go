package annotation

import (
	"fmt"
	"go/ast"
)

// Action declares a method level action on a method of a proxied type.
//
//	// @Action(type="*timer")
//	func (g *greeter) Greet(name string) string
type Action struct {
	Type string `annotation:"name=type,default="`
}

var _ M = (*Action)(nil)

func (a Action) Name() string {
	return "action"
}

func (a Action) Match(node ast.Node) (err error) {
	if a.Type == "" {
		return fmt.Errorf("please specify the action type")
	}

	if fd, ok := node.(*ast.FuncDecl); !ok || MethodReceiver(fd) == "" {
		err = fmt.Errorf("the position of the `@Action` annotation is incorrect, needed is a method")
	}
	return
}

func (a Action) As() (_ M) {
	return
}
