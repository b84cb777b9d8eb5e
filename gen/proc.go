// Package gen generates typed proxy wrappers for constructors annotated
// with @Proxy. Every wrapper registers itself with proxy.Reg, so
// proxy.New and the container return it in place of the bare instance.
package gen

import (
	"path/filepath"

	annotation "github.com/bincooo/go-annotation/pkg"
	gen "github.com/iocgo/dynproxy/gen/annotation"
	"github.com/iocgo/dynproxy/gen/internal/core"
)

type Options = core.Options

func Alias[T gen.M]() {
	core.Alias[T]()
}

// Process scans opts.Root and returns the generated files by path. They
// are written out unless opts.DryRun is set.
func Process(opts Options, logLv string) (map[string][]byte, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, err
	}
	opts.Root = root
	if opts.Output != "" {
		if opts.Output, err = filepath.Abs(opts.Output); err != nil {
			return nil, err
		}
	}

	core.Reset(opts)
	annotation.Process(root, annotationLevel(logLv))
	return core.Result()
}

func annotationLevel(level string) string {
	switch level {
	case "all", "debug", "info", "warn":
		return "w"
	case "close", "off":
		return "f"
	}
	return "e"
}
