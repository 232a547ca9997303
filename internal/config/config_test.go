package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fakeEnv(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestLoadDefaults(t *testing.T) {
	c, err := load(fakeEnv(nil))
	require.NoError(t, err)
	require.Equal(t, "8080", c.Port)
	require.Equal(t, []string{"localhost:9092"}, c.KafkaBrokers)
	require.Equal(t, "postgres", c.StoreBackend)
	require.Equal(t, "minimax", c.BotAgent)
	require.Equal(t, 4, c.BotDepth)
	require.Equal(t, 2*time.Second, c.BotBudget)
	require.Equal(t, 10*time.Second, c.MatchTimeout)
	require.Equal(t, 30*time.Second, c.ReconnectWindow)
	require.True(t, c.LogPretty)
}

func TestLoadOverrides(t *testing.T) {
	c, err := load(fakeEnv(map[string]string{
		"KAFKA_BROKERS": "k1:9092, k2:9092",
		"STORE_BACKEND": "badger",
		"BADGER_DIR":    "/tmp/c4",
		"BOT_DEPTH":     "6",
		"BOT_BUDGET_MS": "250",
		"MATCH_TIMEOUT": "3s",
		"LOG_PRETTY":    "false",
	}))
	require.NoError(t, err)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, c.KafkaBrokers)
	require.Equal(t, "/tmp/c4", c.StoreTarget())
	require.Equal(t, 6, c.AgentSettings().Depth)
	require.Equal(t, 250*time.Millisecond, c.BotBudget)
	require.Equal(t, 3*time.Second, c.MatchTimeout)
	require.False(t, c.LogPretty)
}

func TestLoadErrors(t *testing.T) {
	for key, value := range map[string]string{
		"BOT_DEPTH":     "deep",
		"MATCH_TIMEOUT": "soon",
		"STORE_BACKEND": "sqlite",
		"LOG_PRETTY":    "maybe",
	} {
		_, err := load(fakeEnv(map[string]string{key: value}))
		require.Error(t, err, key)
		require.Contains(t, err.Error(), key)
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\nC4_TEST_NEW=\"fresh\"\nC4_TEST_SET=file\nnot a pair\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("C4_TEST_SET", "env")
	t.Setenv("C4_TEST_NEW", "")
	os.Unsetenv("C4_TEST_NEW")

	require.NoError(t, LoadEnvFile(path))
	require.Equal(t, "fresh", os.Getenv("C4_TEST_NEW"))
	require.Equal(t, "env", os.Getenv("C4_TEST_SET"))

	require.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing")))
}
