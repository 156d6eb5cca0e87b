package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVersion(t *testing.T) {
	stdout, _, err := executeCLI(t, "version")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", stdout)
}

func TestConfigPrintsPolicies(t *testing.T) {
	t.Setenv("PRODUCTS_BASE_URL", "http://catalog.internal")

	stdout, _, err := executeCLI(t, "config")
	require.NoError(t, err)
	assert.Contains(t, stdout, "store: memory")
	assert.Contains(t, stdout, "baseURL: http://catalog.internal")
	assert.Contains(t, stdout, "maxConcurrent: 2")
	assert.Contains(t, stdout, "maxQueued: 40")
}

func TestConfigReadsEnvFile(t *testing.T) {
	t.Setenv("SERVER_ADDR", "")
	require.NoError(t, os.Unsetenv("SERVER_ADDR"))
	path := filepath.Join(t.TempDir(), "orders.env")
	require.NoError(t, os.WriteFile(path, []byte("SERVER_ADDR=:7070\n"), 0o600))

	stdout, _, err := executeCLI(t, "--env-file", path, "config")
	require.NoError(t, err)
	assert.Contains(t, stdout, ":7070")
}

func TestConfigRejectsInvalidBackend(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "disk")

	_, _, err := executeCLI(t, "config")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache backend")
}

func TestMigrateRequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, _, err := executeCLI(t, "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dsn")
}

func TestPrinterWithoutTerminal(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)
	p.Success("done %d", 3)
	p.Warning("careful")
	assert.Equal(t, "✓ done 3\n⚠ careful\n", buf.String())
	assert.Equal(t, "plain", p.Colorize("plain", ColorRed))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "< 1s", formatDuration(200*time.Millisecond))
	assert.Equal(t, "42s", formatDuration(42*time.Second))
	assert.Equal(t, "2m5s", formatDuration(125*time.Second))
	assert.Equal(t, "1h30m", formatDuration(90*time.Minute))
}
