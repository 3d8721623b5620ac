package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("zrewrite", pflag.ContinueOnError)
	BindFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "zrewrite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newFlags(t), "")
	require.NoError(t, err)

	assert.Equal(t, []string{"zfs", "rewrite"}, cfg.Command)
	assert.Equal(t, 4, cfg.Workers)
	assert.False(t, cfg.DryRun)
	assert.False(t, cfg.Xdev)
	assert.Empty(t, cfg.Path)
	assert.Equal(t, 0, cfg.Verbose)
}

func TestLoadPrecedence(t *testing.T) {
	file := writeConfig(t, `
path: /from/file
rewritten-paths-file: /from/file/state.txt
workers: 2
journal: /from/file/journal.db
exclude:
  - "\\.tmp$"
`)

	cfg, err := Load(newFlags(t), file)
	require.NoError(t, err)
	assert.Equal(t, "/from/file", cfg.Path)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, []string{`\.tmp$`}, cfg.Exclude)

	t.Setenv("ZREWRITE_PATH", "/from/env")
	t.Setenv("ZREWRITE_REWRITTEN_PATHS_FILE", "/from/env/state.txt")
	t.Setenv("ZREWRITE_DRY_RUN", "true")

	cfg, err = Load(newFlags(t), file)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.Path)
	assert.Equal(t, "/from/env/state.txt", cfg.StateFile)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, "/from/file/journal.db", cfg.Journal)

	cfg, err = Load(newFlags(t, "-p", "/from/flag", "--workers", "8", "-vv"), file)
	require.NoError(t, err)
	assert.Equal(t, "/from/flag", cfg.Path)
	assert.Equal(t, "/from/env/state.txt", cfg.StateFile)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, 2, cfg.Verbose)
}

func TestLoadCommandFromEnv(t *testing.T) {
	t.Setenv("ZREWRITE_COMMAND", "echo,rewrite")

	cfg, err := Load(newFlags(t), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"echo", "rewrite"}, cfg.Command)

	cfg, err = Load(newFlags(t, "--command", "true"), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"true"}, cfg.Command)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(newFlags(t), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Path:      "/tank/data/",
			StateFile: "/var/lib/zrewrite/state.txt",
			Command:   []string{"zfs", "rewrite"},
			Workers:   4,
		}
	}

	cfg := valid()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "/tank/data", cfg.Path)

	cases := map[string]func(*Config){
		"missing path":    func(c *Config) { c.Path = "" },
		"missing state":   func(c *Config) { c.StateFile = " " },
		"empty command":   func(c *Config) { c.Command = nil },
		"blank command":   func(c *Config) { c.Command = []string{""} },
		"zero workers":    func(c *Config) { c.Workers = 0 },
		"invalid exclude": func(c *Config) { c.Exclude = []string{"("} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestScanOptionsIncludesExcludes(t *testing.T) {
	cfg := &Config{
		Path:      "/tank",
		StateFile: "/state",
		Command:   []string{"zfs", "rewrite"},
		Workers:   3,
		Xdev:      true,
		Exclude:   []string{`\.tmp$`},
	}
	require.NoError(t, cfg.Validate())

	opts := cfg.ScanOptions()
	assert.Equal(t, 3, opts.Workers)
	assert.True(t, opts.Xdev)
	assert.True(t, opts.ShouldExclude("/tank/a.tmp"))
	assert.True(t, opts.ShouldExclude("/tank/.zfs/snapshot"))
	assert.False(t, opts.ShouldExclude("/tank/a.txt"))
}
