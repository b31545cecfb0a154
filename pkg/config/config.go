// Package config loads dispatchd settings from defaults, an optional YAML
// file and DISPATCH_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/sjc5/dispatch/pkg/dispatch"
	"github.com/sjc5/dispatch/pkg/envutil"
	"github.com/sjc5/dispatch/pkg/matcher"
	"github.com/sjc5/dispatch/pkg/mux"
	"github.com/sjc5/dispatch/pkg/response"
	"github.com/sjc5/dispatch/pkg/validate"
)

type Config struct {
	Addr      string        `yaml:"addr" json:"addr" validate:"required"`
	MountRoot string        `yaml:"mountRoot" json:"mountRoot"`
	LogErrors bool          `yaml:"logErrors" json:"logErrors"`
	GoHeader  string        `yaml:"goHeader" json:"goHeader" validate:"required"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout" validate:"min=0"`

	Metrics bool `yaml:"metrics" json:"metrics"`
	Tracing bool `yaml:"tracing" json:"tracing"`
	H2C     bool `yaml:"h2c" json:"h2c"`

	// SessionSecrets are base64 32-byte keys, newest first.
	SessionSecrets []string `yaml:"sessionSecrets" json:"sessionSecrets"`

	ParamPrefix          string `yaml:"paramPrefix" json:"paramPrefix" validate:"len=1"`
	OptionalSuffix       string `yaml:"optionalSuffix" json:"optionalSuffix" validate:"len=1"`
	PermissiveParamNames bool   `yaml:"permissiveParamNames" json:"permissiveParamNames"`

	// Source is the file the config was read from, if any.
	Source string `yaml:"-" json:"-"`
}

func Default() *Config {
	return &Config{
		Addr:           ":8080",
		GoHeader:       response.DefaultGoHeader,
		Timeout:        30 * time.Second,
		ParamPrefix:    ":",
		OptionalSuffix: "?",
	}
}

// Load applies the file at path (skipped when path is empty) and then the
// environment on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a YAML file", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	c.Source = path
	return nil
}

func (c *Config) applyEnv() {
	c.Addr = envutil.GetStr("DISPATCH_ADDR", c.Addr)
	c.MountRoot = envutil.GetStr("DISPATCH_MOUNT_ROOT", c.MountRoot)
	c.LogErrors = envutil.GetBool("DISPATCH_LOG_ERRORS", c.LogErrors)
	c.GoHeader = envutil.GetStr("DISPATCH_GO_HEADER", c.GoHeader)
	c.Timeout = envutil.GetDuration("DISPATCH_TIMEOUT", c.Timeout)
	c.Metrics = envutil.GetBool("DISPATCH_METRICS", c.Metrics)
	c.Tracing = envutil.GetBool("DISPATCH_TRACING", c.Tracing)
	c.H2C = envutil.GetBool("DISPATCH_H2C", c.H2C)
	if secrets := envutil.GetStr("DISPATCH_SESSION_SECRETS", ""); secrets != "" {
		c.SessionSecrets = strings.Split(secrets, ",")
	}
}

var ErrSameMarkers = errors.New("paramPrefix and optionalSuffix must differ")

func (c *Config) Validate() error {
	if err := validate.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.ParamPrefix == c.OptionalSuffix {
		return fmt.Errorf("invalid config: %w", ErrSameMarkers)
	}
	return nil
}

func (c *Config) MatcherOptions(log *slog.Logger) *matcher.Options {
	prefix, _ := utf8.DecodeRuneInString(c.ParamPrefix)
	suffix, _ := utf8.DecodeRuneInString(c.OptionalSuffix)
	return &matcher.Options{
		ParamPrefixRune:      prefix,
		OptionalSuffixRune:   suffix,
		PermissiveParamNames: c.PermissiveParamNames,
		Logger:               log,
	}
}

func (c *Config) DispatchOptions(log *slog.Logger) *dispatch.Options {
	return &dispatch.Options{
		Matcher:   c.MatcherOptions(log),
		LogErrors: c.LogErrors,
		Logger:    log,
		GoHeader:  c.GoHeader,
	}
}

func (c *Config) MuxOptions(log *slog.Logger) *mux.Options {
	return &mux.Options{
		MountRoot: c.MountRoot,
		Timeout:   c.Timeout,
		Logger:    log,
	}
}
