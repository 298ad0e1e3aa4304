package cli

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/bedrock/descriptor"
	"github.com/drblury/bedrock/jsonutil"
	"github.com/drblury/bedrock/router"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "bedrock.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
contextPath: http://example.test/app/
timeout: 1500ms
log:
  format: json
serve:
  baseUrl: /docs
  probeUrls:
    - http://example.test/static/
  router:
    hideHeaders: [Authorization]
`)

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "http://example.test/app/", cfg.ContextPath)
	assert.Equal(t, 1500*time.Millisecond, cfg.Timeout)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level, "keys missing from the file keep their defaults")
	assert.Equal(t, ":8090", cfg.Serve.Addr)
	assert.Equal(t, "/docs", cfg.Serve.BaseURL)
	assert.Equal(t, []string{"http://example.test/static/"}, cfg.Serve.ProbeURLs)
	assert.Equal(t, []string{"Authorization"}, cfg.Serve.Router.HideHeaders)
	assert.Equal(t, router.DefaultTimeout, cfg.Serve.Router.Timeout)
	assert.Equal(t, []string{"/healthz", "/readyz"}, cfg.Serve.Router.QuietdownRoutes)
}

func TestLoadConfigFileErrors(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	path := writeConfig(t, "timeout: [not, a, duration]\n")
	_, err = LoadConfigFile(path)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, path, cfgErr.Path)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvContextPath: "http://env.test/",
		EnvTimeout:     "2s",
		EnvLogLevel:    "debug",
		EnvLogFormat:   "",
	}
	lookup := func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}

	cfg := DefaultConfig()
	require.NoError(t, applyEnv(&cfg, lookup))
	assert.Equal(t, "http://env.test/", cfg.ContextPath)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format, "empty variables are ignored")

	env[EnvTimeout] = "soon"
	var cfgErr *ConfigError
	require.ErrorAs(t, applyEnv(&cfg, lookup), &cfgErr)
	assert.Equal(t, EnvTimeout, cfgErr.Path)
}

// Flags beat the environment, which beats the configuration file.
func TestSettingsPrecedence(t *testing.T) {
	fromFile := newGreeter(t, "FromFile")
	fromEnv := newGreeter(t, "FromEnv")
	fromFlag := newGreeter(t, "FromFlag")

	path := writeConfig(t, "contextPath: "+fromFile.ContextPath()+"\n")

	specName := func(t *testing.T, env map[string]string, args ...string) string {
		t.Helper()

		for _, name := range []string{EnvConfig, EnvContextPath, EnvTimeout, EnvLogLevel, EnvLogFormat} {
			t.Setenv(name, env[name])
		}
		var stdout bytes.Buffer
		cmd := NewRootCommand()
		cmd.SetOut(&stdout)
		cmd.SetErr(io.Discard)
		cmd.SetArgs(append([]string{"spec"}, args...))
		require.NoError(t, cmd.Execute())

		var spec descriptor.Specification
		require.NoError(t, jsonutil.Unmarshal(stdout.Bytes(), &spec))
		return spec.Name
	}

	assert.Equal(t, "FromFile", specName(t, nil, "--config", path))
	assert.Equal(t, "FromFile", specName(t, map[string]string{EnvConfig: path}))
	assert.Equal(t, "FromEnv", specName(t, map[string]string{EnvContextPath: fromEnv.URL}, "--config", path))
	assert.Equal(t, "FromFlag", specName(t,
		map[string]string{EnvConfig: path, EnvContextPath: fromEnv.URL},
		"--context-path", fromFlag.URL,
	))
}

func TestResolveRejectsInvalidSettings(t *testing.T) {
	_, err := run(t, "spec", "--timeout", "0s")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout must be positive")

	_, err = run(t, "spec", "--config", writeConfig(t, "contextPath: [\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestNormalizeContextPath(t *testing.T) {
	assert.Equal(t, "http://host/app/", normalizeContextPath("http://host/app"))
	assert.Equal(t, "http://host/app/", normalizeContextPath("http://host/app/"))
	assert.Equal(t, "", normalizeContextPath(""))
}

func TestParseLevelAndFormat(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))

	assert.Equal(t, FormatJSON, ParseFormat("JSON"))
	assert.Equal(t, FormatText, ParseFormat("yaml"))
}

func TestNewLoggerHonoursLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LogConfig{Level: "warn", Format: "json"})

	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	var record map[string]any
	require.NoError(t, jsonutil.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "shown", record["msg"])
	assert.Equal(t, "value", record["key"])
}
