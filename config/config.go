package config

import (
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/yuuki0xff/gocovtrace/info"
)

// Directory Layout
//   $dir/config.toml  - recorder settings
//
// config.toml
//   arcs = true
//   strict = false
//   include = ["*/myapp/*"]
//   omit = ["*_test.go"]
//
// 全ての設定は環境変数 (GOCOVTRACE_ARCS など) で上書きできる。

const (
	KeyArcs    = "arcs"
	KeyStrict  = "strict"
	KeyInclude = "include"
	KeyOmit    = "omit"
)

type Config struct {
	dir string
	v   *viper.Viper

	// true のときはアークを、false のときは行を記録する。
	Arcs bool
	// 内部エラーが発生したときに panic させる。
	Strict bool
	// トレース対象とするファイルのパターン。空のときは全て対象となる。
	Include []string
	// トレース対象から除外するファイルのパターン。Include より優先される。
	Omit []string
}

func NewConfig(dir string) *Config {
	if dir == "" {
		dir = info.DefaultConfigDir
	}

	v := viper.New()
	v.SetConfigName(info.DefaultConfigName)
	v.SetConfigType("toml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix(info.DefaultEnvPrefix)
	v.AutomaticEnv()
	v.SetDefault(KeyArcs, false)
	v.SetDefault(KeyStrict, false)
	v.SetDefault(KeyInclude, []string{})
	v.SetDefault(KeyOmit, []string{})

	return &Config{
		dir: dir,
		v:   v,
	}
}

// BindFlags overrides settings by the command line flags.
// Load() より前に呼び出すこと。
func (c *Config) BindFlags(flags *pflag.FlagSet) error {
	for _, key := range []string{KeyArcs, KeyStrict, KeyInclude, KeyOmit} {
		f := flags.Lookup(key)
		if f == nil {
			continue
		}
		if err := c.v.BindPFlag(key, f); err != nil {
			return errors.Wrapf(err, "failed to bind flag: %s", key)
		}
	}
	return nil
}

// Load reads the config file and the environment variables.
// 設定ファイルが存在しない場合はデフォルト値を使用する。
func (c *Config) Load() error {
	if err := c.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return errors.Wrapf(err, "failed to read config in %s", c.dir)
		}
	}

	c.Arcs = c.v.GetBool(KeyArcs)
	c.Strict = c.v.GetBool(KeyStrict)
	c.Include = c.v.GetStringSlice(KeyInclude)
	c.Omit = c.v.GetStringSlice(KeyOmit)

	for _, pattern := range append(append([]string{}, c.Include...), c.Omit...) {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return errors.Wrapf(err, "invalid pattern %q", pattern)
		}
	}
	return nil
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.dir
}

// Oracle returns a file matcher that built from Include and Omit.
func (c *Config) Oracle() *PatternOracle {
	return &PatternOracle{
		Include: c.Include,
		Omit:    c.Omit,
	}
}
