// Package config layers defaults, an optional YAML file, ZREWRITE_ environment
// variables, and command line flags into a single Config.
package config

import (
	"regexp"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/michaelscutari/zrewrite/internal/pathutil"
	"github.com/michaelscutari/zrewrite/internal/rewrite"
	"github.com/michaelscutari/zrewrite/internal/scan"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "ZREWRITE_"

// Config holds the settings of a rewrite run.
type Config struct {
	Path      string   `koanf:"path"`
	StateFile string   `koanf:"rewritten-paths-file"`
	DryRun    bool     `koanf:"dry-run"`
	Command   []string `koanf:"command"`
	Exclude   []string `koanf:"exclude"`
	Xdev      bool     `koanf:"xdev"`
	Workers   int      `koanf:"workers"`
	Journal   string   `koanf:"journal"`
	TUI       bool     `koanf:"tui"`
	Log       string   `koanf:"log"`
	Verbose   int      `koanf:"verbose"`

	excludes []*regexp.Regexp
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"command": rewrite.DefaultArgv,
		"workers": scan.DefaultOptions().Workers,
		"xdev":    false,
		"dry-run": false,
		"tui":     false,
		"verbose": 0,
	}
}

// BindFlags registers the run flags on fs.
func BindFlags(fs *pflag.FlagSet) {
	fs.StringP("path", "p", "", "Path to the folder which should be recursively rewritten")
	fs.StringP("rewritten-paths-file", "r", "", "File listing already rewritten paths; new paths are appended to it")
	fs.BoolP("dry-run", "d", false, "Perform a dry run without actually rewriting files")
	fs.StringSlice("command", rewrite.DefaultArgv, "Rewrite command; the file path is appended as the last argument")
	fs.StringSliceP("exclude", "e", nil, "Regular expression of paths to skip (repeatable)")
	fs.Bool("xdev", false, "Do not cross filesystem boundaries")
	fs.Int("workers", scan.DefaultOptions().Workers, "Number of directory reader goroutines")
	fs.String("journal", "", "SQLite run journal path (empty disables)")
	fs.Bool("tui", false, "Show a live progress view")
	fs.StringP("config", "c", "", "YAML config file")
	fs.StringP("log", "l", "", "Log file")
	fs.CountP("verbose", "v", "Verbose level")
}

// Load builds a Config. Later sources override earlier ones: defaults, the
// YAML file at configFile (if non-empty), the environment, then flags that
// were set explicitly.
func Load(fs *pflag.FlagSet, configFile string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, errors.Wrap(err, "load defaults")
	}

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "load config file %s", configFile)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, errors.Wrap(err, "load environment")
	}

	if fs != nil {
		if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
			return nil, errors.Wrap(err, "load flags")
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	return cfg, nil
}

// envKey maps ZREWRITE_REWRITTEN_PATHS_FILE to rewritten-paths-file.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", "-")
}

// Validate checks required settings, normalizes paths, and compiles exclude patterns.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Path) == "" {
		return errors.New("path is required")
	}
	if strings.TrimSpace(c.StateFile) == "" {
		return errors.New("rewritten-paths-file is required")
	}
	if len(c.Command) == 0 || strings.TrimSpace(c.Command[0]) == "" {
		return errors.New("command must not be empty")
	}
	if c.Workers < 1 {
		return errors.Errorf("workers must be at least 1, got %d", c.Workers)
	}

	c.Path = pathutil.Normalize(c.Path)
	c.StateFile = pathutil.Normalize(c.StateFile)
	c.Journal = pathutil.Normalize(c.Journal)
	c.Log = pathutil.Normalize(c.Log)

	c.excludes = c.excludes[:0]
	for _, pattern := range c.Exclude {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return errors.Wrapf(err, "invalid exclude pattern %q", pattern)
		}
		c.excludes = append(c.excludes, re)
	}
	return nil
}

// ScanOptions returns traversal options for this config. Validate must have succeeded.
func (c *Config) ScanOptions() *scan.ScanOptions {
	opts := scan.DefaultOptions().WithWorkers(c.Workers).WithXdev(c.Xdev)
	opts.ExcludePatterns = append(opts.ExcludePatterns, c.excludes...)
	return opts
}
