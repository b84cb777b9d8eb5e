package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/fatih/color"
	"github.com/iocgo/dynproxy/cobra"
	"github.com/iocgo/dynproxy/env"
	"github.com/iocgo/dynproxy/gen"
	"github.com/iocgo/dynproxy/internal/logger"
)

var version = "dev"

type generate struct {
	Config string `cobra:"config" short:"c" usage:"config file (default proxygen.yaml)"`
	Output string `cobra:"output" short:"o" usage:"mirror generated files under this directory"`
	Suffix string `cobra:"suffix" usage:"generated file suffix"`
	Level  string `cobra:"log-level" short:"l" usage:"log level: debug, info, warn, error, close"`
	DryRun bool   `cobra:"dry-run" short:"n" usage:"print generated files instead of writing them"`
}

const descriptor = `{
	"Use": "proxygen [root]",
	"Short": "Generate typed proxy wrappers for @Proxy constructors",
	"Example": "proxygen ./internal --dry-run",
	"SilenceUsage": true,
	"Run": "Run"
}`

func (g *generate) Run(cmd *cobra.Command, args []string) error {
	e, err := env.Load(g.Config)
	if err != nil {
		return err
	}
	if err = e.BindFlags(cmd.Flags()); err != nil {
		return err
	}

	logger.SetOutput(os.Stderr)
	logger.SetLevel(e.LogLevel())

	root := e.Root()
	if len(args) > 0 {
		root = args[0]
	}

	files, err := gen.Process(gen.Options{
		Root:   root,
		Output: e.Output(),
		Suffix: e.Suffix(),
		DryRun: e.DryRun(),
	}, e.LogLevel())
	if err != nil {
		return err
	}

	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	out := cmd.OutOrStdout()
	base, _ := filepath.Abs(root)
	for _, path := range paths {
		shown := path
		if rel, err := filepath.Rel(base, path); err == nil {
			shown = rel
		}
		if e.DryRun() {
			color.New(color.FgCyan).Fprintf(out, "// %s\n", shown)
			fmt.Fprintln(out, string(files[path]))
			continue
		}
		color.New(color.FgGreen).Fprintf(out, "generated %s\n", shown)
	}

	if len(paths) == 0 {
		color.New(color.FgYellow).Fprintln(out, "no @Proxy constructors found")
	}
	return nil
}

func main() {
	c := cobra.MustWrap(&generate{}, descriptor)
	c.Command().Version = version
	if err := c.Command().Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
