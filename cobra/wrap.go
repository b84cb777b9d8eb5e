// Package cobra builds cobra commands from a struct: a JSON descriptor
// names the command and its run method, and `cobra` field tags declare
// flags bound straight to the fields.
//
//	type generate struct {
//		Output string `cobra:"output" short:"o" usage:"output directory"`
//		Debug  bool   `cobra:"debug,persistent"`
//	}
package cobra

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tidwall/gjson"
)

type Command = cobra.Command

type Commander interface {
	Command() *cobra.Command
}

type single struct {
	cmd *cobra.Command
}

func (c *single) Command() *cobra.Command {
	return c.cmd
}

type flagSpec struct {
	name, short, usage string
}

var durationType = reflect.TypeFor[time.Duration]()

func bindVar[T any](flags *pflag.FlagSet, value reflect.Value, spec flagSpec,
	plain func(*T, string, T, string),
	short func(*T, string, string, T, string),
) {
	p := value.Addr().Interface().(*T)
	if spec.short == "" {
		plain(p, spec.name, *p, spec.usage)
	} else {
		short(p, spec.name, spec.short, *p, spec.usage)
	}
}

func bindFlag(flags *pflag.FlagSet, value reflect.Value, spec flagSpec) bool {
	if value.Type() == durationType {
		bindVar(flags, value, spec, flags.DurationVar, flags.DurationVarP)
		return true
	}

	switch value.Interface().(type) {
	case int:
		bindVar(flags, value, spec, flags.IntVar, flags.IntVarP)
	case int32:
		bindVar(flags, value, spec, flags.Int32Var, flags.Int32VarP)
	case int64:
		bindVar(flags, value, spec, flags.Int64Var, flags.Int64VarP)
	case uint:
		bindVar(flags, value, spec, flags.UintVar, flags.UintVarP)
	case uint64:
		bindVar(flags, value, spec, flags.Uint64Var, flags.Uint64VarP)
	case float64:
		bindVar(flags, value, spec, flags.Float64Var, flags.Float64VarP)
	case string:
		bindVar(flags, value, spec, flags.StringVar, flags.StringVarP)
	case bool:
		bindVar(flags, value, spec, flags.BoolVar, flags.BoolVarP)
	case []string:
		bindVar(flags, value, spec, flags.StringSliceVar, flags.StringSliceVarP)
	default:
		return false
	}
	return true
}

// Wrap builds a command around instance, a pointer to struct. config is a
// JSON object with the cobra fields Use, Short, Long, Version and Example,
// and Run naming a method of instance. The method takes
// (*cobra.Command, []string) and may return an error.
func Wrap(instance any, config string, children ...Commander) (Commander, error) {
	value := reflect.ValueOf(instance)
	if value.Kind() != reflect.Pointer || value.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("cobra: expected pointer to struct, got %T", instance)
	}

	cmd := &cobra.Command{}
	for _, it := range children {
		cmd.AddCommand(it.Command())
	}

	parser := gjson.Parse(config)
	bindField(parser, "Use", func(value string) { cmd.Use = value })
	bindField(parser, "Short", func(value string) { cmd.Short = value })
	bindField(parser, "Long", func(value string) { cmd.Long = value })
	bindField(parser, "Version", func(value string) { cmd.Version = value })
	bindField(parser, "Example", func(value string) { cmd.Example = value })
	if result := parser.Get("SilenceUsage"); result.Exists() {
		cmd.SilenceUsage = result.Bool()
	}

	if err := bindMethod(parser, value, cmd); err != nil {
		return nil, err
	}
	if err := bindTags(cmd, value.Elem()); err != nil {
		return nil, err
	}
	return &single{cmd}, nil
}

func MustWrap(instance any, config string, children ...Commander) Commander {
	c, err := Wrap(instance, config, children...)
	if err != nil {
		panic(err)
	}
	return c
}

func bindField(parser gjson.Result, field string, f func(string)) {
	if result := parser.Get(field); result.Exists() {
		if field = result.String(); field != "" {
			f(field)
		}
	}
}

func bindMethod(parser gjson.Result, value reflect.Value, cmd *cobra.Command) error {
	name := parser.Get("Run").String()
	if name == "" {
		return nil
	}

	method := value.MethodByName(name)
	if !method.IsValid() {
		return fmt.Errorf("cobra: method `%s` does not exist on %s", name, value.Type())
	}

	switch run := method.Interface().(type) {
	case func(*cobra.Command, []string):
		cmd.Run = run
	case func(*cobra.Command, []string) error:
		cmd.RunE = run
	default:
		return fmt.Errorf("cobra: method `%s` has signature %s", name, method.Type())
	}
	return nil
}

func bindTags(cmd *cobra.Command, value reflect.Value) error {
	rt := value.Type()
	for i := range rt.NumField() {
		field := rt.Field(i)
		lookup, ok := field.Tag.Lookup("cobra")
		if !ok || lookup == "" {
			continue
		}

		name, scope, _ := strings.Cut(lookup, ",")
		name = strings.TrimSpace(name)
		if name == "" || !field.IsExported() {
			continue
		}

		flags := cmd.Flags()
		if strings.TrimSpace(scope) == "persistent" {
			flags = cmd.PersistentFlags()
		}

		spec := flagSpec{name: name, short: field.Tag.Get("short"), usage: field.Tag.Get("usage")}
		if !bindFlag(flags, value.Field(i), spec) {
			return fmt.Errorf("cobra: unsupported flag type %s for %s", field.Type, field.Name)
		}
	}
	return nil
}
