package configutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	ListenPort int    `json:"listen_port"`
	Strategy   string `json:"strategy"`
	Nested     struct {
		Enabled bool `json:"enabled"`
		Size    int  `json:"size"`
	} `json:"nested"`
}

func writeFile(t testing.TB, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestReadConfigMergesLocal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json5"), `{
		// comments and trailing commas are fine
		listen_port: 8000,
		strategy: "graphql",
		nested: {size: 4},
	}`)
	writeFile(t, filepath.Join(dir, "config.local.json5"), `{strategy: "html", nested: {enabled: true}}`)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, 8000, cfg.ListenPort)
	require.Equal(t, "html", cfg.Strategy)
	require.True(t, cfg.Nested.Enabled)
	require.Equal(t, 4, cfg.Nested.Size)
}

func TestReadConfigLocalOnly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.local.json5"), `{listen_port: 9000}`)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, 9000, cfg.ListenPort)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "config.json5"))
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func TestReadConfigInvalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.json5"), `{listen_port: `)

	_, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.Error(t, err)
	require.False(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	writeFile(t, path, "HEPHIX_TEST_FROM_FILE=file\nHEPHIX_TEST_PRESET=file\n")

	t.Setenv("HEPHIX_TEST_PRESET", "process")
	t.Setenv("HEPHIX_TEST_FROM_FILE", "")
	require.NoError(t, os.Unsetenv("HEPHIX_TEST_FROM_FILE"))

	require.NoError(t, LoadEnv(path, filepath.Join(dir, "missing.env")))
	require.Equal(t, "file", os.Getenv("HEPHIX_TEST_FROM_FILE"))
	require.Equal(t, "process", os.Getenv("HEPHIX_TEST_PRESET"))

	require.Equal(t, "fallback", EnvOr("HEPHIX_TEST_UNSET", "fallback"))
	require.Equal(t, "process", EnvOr("HEPHIX_TEST_PRESET", "fallback"))
}
