package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which is unavailable before Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TELEGRAM_API_TOKEN", "token")
	t.Setenv("DATABASE_URL", "postgres://localhost/exam")
	t.Setenv("API_TOKEN", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "token", cfg.TelegramAPIToken)
	assert.Equal(t, "secret", cfg.API.Token)
	assert.Equal(t, 10*time.Minute, cfg.Cache.StatsMaxAge)
	assert.Equal(t, 10, cfg.Quiz.BatchSize)
	assert.Equal(t, "*/5 * * * *", cfg.Sync.Schedule)

	dsn, err := cfg.DB.DSN()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/exam", dsn)
}

func TestLoad_MissingToken(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TELEGRAM_API_TOKEN", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/exam")

	_, err := Load()
	assert.ErrorIs(t, err, ErrMissingEnvironmentVariables)
}

func TestDB_DSNEmpty(t *testing.T) {
	_, err := DB{}.DSN()
	assert.ErrorIs(t, err, ErrMissingEnvironmentVariables)
}
