package core

import (
	"errors"
	"fmt"
	"go/ast"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	annotation "github.com/bincooo/go-annotation/pkg"
	perr "github.com/iocgo/dynproxy/errors"
	annotations "github.com/iocgo/dynproxy/gen/annotation"
	"github.com/iocgo/dynproxy/gen/internal/meta"
	"github.com/iocgo/dynproxy/internal/logger"
)

// Options configures a generation run.
type Options struct {
	Root   string
	Output string
	Suffix string
	DryRun bool
}

type Processor struct {
	opts    Options
	targets []target
	actions []methodAction

	generated map[string][]byte
	err       error
}

var _ annotation.AnnotationProcessor = (*Processor)(nil)

var proc = &Processor{}

func init() {
	annotation.Register[annotations.Proxy](proc)
	annotation.Register[annotations.Action](proc)
}

// Alias registers a custom annotation resolving to a built-in one.
func Alias[T annotations.M]() {
	annotation.Register[T](proc)
}

// Reset prepares the shared processor for a run over opts.Root.
func Reset(opts Options) *Processor {
	if opts.Suffix == "" {
		opts.Suffix = "_proxy.go"
	}
	*proc = Processor{opts: opts}
	return proc
}

// Result returns the files generated by the last run.
func Result() (map[string][]byte, error) {
	return proc.generated, proc.err
}

func (proc *Processor) Version() string {
	return "v1.0.0"
}

func (proc *Processor) Name() string {
	return "Proxy"
}

func (proc *Processor) Process(node annotation.Node) error {
	meta := node.Meta()
	if !proc.within(meta.Dir()) {
		return nil
	}

	return errors.Join(
		scanAnnotated(node, func(tag annotations.Proxy, decl *ast.FuncDecl) {
			proc.targets = append(proc.targets, target{
				dir: meta.Dir(),
				fn:  decl.Name.Name,
				tag: tag,
			})
		}),
		scanAnnotated(node, func(tag annotations.Action, decl *ast.FuncDecl) {
			proc.actions = append(proc.actions, methodAction{
				dir:      meta.Dir(),
				receiver: annotations.MethodReceiver(decl),
				method:   decl.Name.Name,
				tag:      tag,
			})
		}),
	)
}

// Output builds every recorded wrapper. Nothing is handed back for writing
// in a dry run; the files stay available through Result.
func (proc *Processor) Output() map[string][]byte {
	ops, err := proc.Generate(meta.Load)
	proc.generated, proc.err = ops, err
	if err != nil {
		logger.Error("proxy generation failed", "err", err)
		return map[string][]byte{}
	}

	if proc.opts.DryRun {
		return map[string][]byte{}
	}
	return ops
}

// Generate renders the wrappers of all recorded targets, loading each
// package directory once.
func (proc *Processor) Generate(load func(dir string) (*meta.Package, error)) (ops map[string][]byte, err error) {
	ops = make(map[string][]byte)
	byDir := make(map[string][]target)
	for _, t := range proc.targets {
		byDir[t.dir] = append(byDir[t.dir], t)
	}

	dirs := make([]string, 0, len(byDir))
	for dir := range byDir {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	err = perr.Catch(func(s *perr.Scope) {
		for _, dir := range dirs {
			pkg := perr.Try1(s, func() (*meta.Package, error) { return load(dir) })
			for _, t := range byDir[dir] {
				f := perr.Try1(s, func() (File, error) { return build(pkg, t, proc.actions) })
				f.Path = proc.path(dir, f.Proxy.Field)
				if _, ok := ops[f.Path]; ok {
					perr.Throw(s, "%s is generated twice", f.Path)
				}

				src := perr.Try1(s, func() ([]byte, error) { return Render(f) })
				ops[f.Path] = src
				logger.Info("proxy generated", "path", f.Path, "proxy", f.Proxy.Name)
			}
		}
	})
	return
}

func (proc *Processor) within(dir string) bool {
	rel, err := filepath.Rel(proc.opts.Root, dir)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// path places a generated file next to its package, or mirrors the source
// tree under the output directory.
func (proc *Processor) path(dir, implName string) string {
	name := ToSnakeCase(implName) + proc.opts.Suffix
	if proc.opts.Output == "" {
		return filepath.Join(dir, name)
	}

	rel, err := filepath.Rel(proc.opts.Root, dir)
	if err != nil {
		rel = filepath.Base(dir)
	}
	return filepath.Join(proc.opts.Output, rel, name)
}

// scanAnnotated calls then with the single annotation of type T on node.
func scanAnnotated[T annotations.M](node annotation.Node, then func(tag T, decl *ast.FuncDecl)) (err error) {
	slice := FindAnnotations[T](node.Annotations())
	if len(slice) == 0 {
		return
	}

	if len(slice) > 1 {
		var zero T
		return fmt.Errorf("expected 1 `%s` annotation, but got: %d", reflect.TypeOf(zero), len(slice))
	}

	tag := slice[0]
	goAst := node.ASTNode()
	if err = tag.Match(goAst); err != nil {
		meta := node.Meta()
		return fmt.Errorf("%s: %w", filepath.Join(meta.Dir(), meta.FileName()), err)
	}

	then(tag, goAst.(*ast.FuncDecl))
	return
}

// FindAnnotations returns the annotations resolving to T.
func FindAnnotations[T, A any](a []A) (found []T) {
	for _, it := range a {
		var v any = it
		if m, ok := v.(annotations.M); ok {
			v = annotations.Resolve(m)
		}
		if t, ok := v.(T); ok {
			found = append(found, t)
		}
	}
	return
}
