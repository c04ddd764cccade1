package app

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/project-tracker/internal/config"
)

const cliSecret = "cli-signing-secret-0123456789abcdef"

// writeEnv creates an env file so load never picks up a stray ./.env.
func writeEnv(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearDBEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"STORE_DRIVER", "DB_USER", "DB_PASS", "DB_HOST", "DB_PORT", "DB_NAME", "DB_MIGRATE", "APP_PORT"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestOptionsLoad_FlagsOverrideEnvironment(t *testing.T) {
	clearDBEnv(t)
	t.Setenv("JWT_SECRET", cliSecret)
	env := writeEnv(t, "")

	o, err := parseFlags("task", []string{"--env-file", env, "--port=9000", "--store", "memory", "--no-migrate"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, env, o.envFile)

	cfg, err := o.load(config.Task)
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "memory", cfg.DB.Driver)
	assert.False(t, cfg.DB.Migrate)
}

func TestOptionsLoad_MemoryStoreWithoutDBEnv(t *testing.T) {
	clearDBEnv(t)
	t.Setenv("JWT_SECRET", cliSecret)

	o, err := parseFlags("project", []string{"--env-file", writeEnv(t, ""), "--store", "memory"}, io.Discard)
	require.NoError(t, err)

	cfg, err := o.load(config.Project)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.DB.Driver)
	assert.Equal(t, "8082", cfg.Port)
}

func TestOptionsLoad_StoreFlagIsValidated(t *testing.T) {
	clearDBEnv(t)
	t.Setenv("JWT_SECRET", cliSecret)
	env := writeEnv(t, "STORE_DRIVER=memory\n")

	o, err := parseFlags("project", []string{"--env-file", env, "--store", "mysql"}, io.Discard)
	require.NoError(t, err)
	_, err = o.load(config.Project)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_USER")

	o, err = parseFlags("project", []string{"--env-file", env, "--store", "bogus"}, io.Discard)
	require.NoError(t, err)
	_, err = o.load(config.Project)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}

func TestOptionsLoad_MemoryStoreSkipsDBKeys(t *testing.T) {
	clearDBEnv(t)
	t.Setenv("JWT_SECRET", "")

	// only the secret is missing; DB_* keys are not required for memory
	o, err := parseFlags("project", []string{"--env-file", writeEnv(t, ""), "--store", "memory"}, io.Discard)
	require.NoError(t, err)
	_, err = o.load(config.Project)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.NotContains(t, err.Error(), "DB_USER")
	assert.NotContains(t, err.Error(), "DB_HOST")
}

func TestParseFlags_Unknown(t *testing.T) {
	_, err := parseFlags("task", []string{"--bogus"}, io.Discard)
	assert.Error(t, err)
}
