package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/formpilot-cli/internal/credentials"
)

const validKey = "AIzaSyD-0123456789abcdefghijklmnop"

// execute runs a fresh command tree with args and an isolated credentials file.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("FORMPILOT_CREDENTIALS_PATH", filepath.Join(dir, "credentials.json"))
	t.Setenv(credentials.EnvKeys, "")
	t.Setenv("FORMPILOT_LOGGER_LEVEL", "error")

	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionFlag(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", out)
}

func TestGetConfigFromContext_Missing(t *testing.T) {
	_, err := getConfigFromContext(context.Background())
	assert.Error(t, err)
}

func TestInvalidConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formpilot.yaml")
	require.NoError(t, os.WriteFile(path, []byte("filler:\n  max_retries: 0\n"), 0o600))
	_, err := execute(t, "--config", path, "keys", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_retries")
}

func TestSimulate(t *testing.T) {
	t.Run("demo form offline", func(t *testing.T) {
		outFile := filepath.Join(t.TempDir(), "filled.html")
		out, err := execute(t, "simulate", "--demo", "--speed", "fast", "--out", outFile)
		require.NoError(t, err)
		assert.Contains(t, out, "Filling")
		assert.Contains(t, out, "Filled")
		assert.Contains(t, out, "Filled page written to")

		html, err := os.ReadFile(outFile)
		require.NoError(t, err)
		assert.Contains(t, string(html), "data-fp-ref")
	})

	t.Run("local file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "form.html")
		require.NoError(t, os.WriteFile(path, []byte(`<html><body><form>
<fieldset class="form-group"><legend>Which city were you born in?</legend><input type="text" name="city" id="city"></fieldset>
</form></body></html>`), 0o600))
		out, err := execute(t, "simulate", path)
		require.NoError(t, err)
		assert.Contains(t, out, "Filled 1 of 1 questions")
	})

	t.Run("requires a source", func(t *testing.T) {
		_, err := execute(t, "simulate")
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := execute(t, "simulate", filepath.Join(t.TempDir(), "nope.html"))
		assert.Error(t, err)
	})
}

func TestKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.json")
	run := func(args ...string) (string, error) {
		t.Helper()
		t.Setenv("FORMPILOT_CREDENTIALS_PATH", path)
		t.Setenv(credentials.EnvKeys, "")
		root := NewRootCommand()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetErr(&out)
		root.SetArgs(args)
		err := root.ExecuteContext(context.Background())
		return out.String(), err
	}

	out, err := run("keys", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No API keys configured.")

	_, err = run("keys", "add", "not-a-key")
	assert.Error(t, err)

	out, err = run("keys", "add", validKey)
	require.NoError(t, err)
	assert.Contains(t, out, "Added "+credentials.Mask(validKey))

	out, err = run("keys", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "1. "+credentials.Mask(validKey))
	assert.NotContains(t, out, validKey)

	_, err = run("keys", "clear")
	require.NoError(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	_, err = run("keys", "test")
	assert.Error(t, err)
}
