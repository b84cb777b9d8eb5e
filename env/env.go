// Package env loads proxygen settings from an optional yaml file and
// PROXYGEN_* environment variables.
package env

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	KeyRoot     = "root"
	KeyOutput   = "output"
	KeySuffix   = "suffix"
	KeyLogLevel = "log.level"
	KeyDryRun   = "dry-run"

	DefaultConfig = "proxygen.yaml"
)

type Environment struct {
	Config *viper.Viper
	path   string
}

// Load reads path when it exists. A missing file is only an error when it
// was asked for explicitly.
func Load(path string) (env *Environment, err error) {
	vip := viper.New()
	vip.SetDefault(KeyRoot, ".")
	vip.SetDefault(KeyOutput, "")
	vip.SetDefault(KeySuffix, "_proxy.go")
	vip.SetDefault(KeyLogLevel, "warn")
	vip.SetDefault(KeyDryRun, false)

	vip.SetEnvPrefix("PROXYGEN")
	vip.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	vip.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = DefaultConfig
	}

	vip.SetConfigFile(path)
	vip.SetConfigType("yaml")
	if err = vip.ReadInConfig(); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		err = nil
		path = ""
	}

	env = &Environment{
		path:   path,
		Config: vip,
	}
	return
}

var flagKeys = map[string]string{
	"output":    KeyOutput,
	"suffix":    KeySuffix,
	"log-level": KeyLogLevel,
	"dry-run":   KeyDryRun,
}

// BindFlags lets command line flags take precedence over the file and the
// environment. Flags missing from the set are skipped.
func (env *Environment) BindFlags(flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := env.Config.BindPFlag(key, flag); err != nil {
			return err
		}
	}
	return nil
}

// Path is the config file that was read, or "" when none was.
func (env *Environment) Path() string { return env.path }

func (env *Environment) Root() string { return env.Config.GetString(KeyRoot) }

// Output is the directory generated files go to; "" writes them next to
// their sources.
func (env *Environment) Output() string { return env.Config.GetString(KeyOutput) }

func (env *Environment) Suffix() string { return env.Config.GetString(KeySuffix) }

func (env *Environment) LogLevel() string { return env.Config.GetString(KeyLogLevel) }

func (env *Environment) DryRun() bool { return env.Config.GetBool(KeyDryRun) }
