package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", "/home/tester")
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("XDG_DATA_DIRS", "")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "/home/tester/.habitlens", cfg.DataDir)
	assert.Equal(t, "/home/tester/.habitlens/habitlens.db", cfg.DBPath())
	assert.Equal(t, 10*time.Second, cfg.QueryTimeout)
	assert.True(t, cfg.LaunchCountSupported)
	assert.True(t, cfg.CategoriesSupported)
	assert.Equal(t, "127.0.0.1:7777", cfg.Serve.Addr)
	assert.Equal(t, []string{
		"/home/tester/.local/share/applications",
		"/usr/local/share/applications",
		"/usr/share/applications",
	}, cfg.DesktopDirs)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	path := filepath.Join(dir, "habitlens", FileName)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(`
query_timeout: 3s
launch_count_supported: false
serve:
  addr: 127.0.0.1:9000
log:
  level: debug
`), 0644))
	t.Setenv("HABITLENS_SERVE_ADDR", "127.0.0.1:9100")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.QueryTimeout)
	assert.False(t, cfg.LaunchCountSupported)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "127.0.0.1:9100", cfg.Serve.Addr)
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_RejectsNegativeTimeout(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HABITLENS_QUERY_TIMEOUT", "-1s")
	_, err := Load(viper.New(), "")
	assert.Error(t, err)
}

func TestWriteDefault_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "habitlens", FileName)
	require.NoError(t, WriteDefault(path, false))
	assert.Error(t, WriteDefault(path, false))
	require.NoError(t, WriteDefault(path, true))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	def, err := Default()
	require.NoError(t, err)
	assert.Equal(t, def.QueryTimeout, cfg.QueryTimeout)
	assert.Equal(t, def.DesktopDirs, cfg.DesktopDirs)
	assert.Equal(t, def.TUI.Interval, cfg.TUI.Interval)
}
