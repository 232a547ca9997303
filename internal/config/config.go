// Package config reads the server settings from the environment.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/connect-four/agent/internal/agent"
	"github.com/connect-four/agent/internal/storage"
)

type Config struct {
	Port            string
	DatabaseURL     string
	KafkaBrokers    []string
	StoreBackend    string
	BadgerDir       string
	LogLevel        string
	LogPretty       bool
	BotAgent        string
	BotDepth        int
	BotBudget       time.Duration
	MatchTimeout    time.Duration
	ReconnectWindow time.Duration
}

// AgentSettings is the bot configuration in the form agent.New takes
func (c Config) AgentSettings() agent.Settings {
	return agent.Settings{
		Seed:   uint64(time.Now().UnixNano()),
		Depth:  c.BotDepth,
		Budget: c.BotBudget,
	}
}

// StoreTarget is the DSN or directory the chosen backend opens
func (c Config) StoreTarget() string {
	if c.StoreBackend == storage.BackendBadger {
		return c.BadgerDir
	}
	return c.DatabaseURL
}

// Load reads the environment, falling back to defaults for unset variables
func Load() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	env := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	c := Config{
		Port:         env("PORT", "8080"),
		DatabaseURL:  env("DATABASE_URL", storage.DefaultPostgresURL),
		KafkaBrokers: strings.Split(env("KAFKA_BROKERS", "localhost:9092"), ","),
		StoreBackend: env("STORE_BACKEND", storage.BackendPostgres),
		BadgerDir:    env("BADGER_DIR", storage.DefaultBadgerDir),
		LogLevel:     env("LOG_LEVEL", "info"),
		BotAgent:     env("BOT_AGENT", agent.KindMinimax),
	}
	for i, b := range c.KafkaBrokers {
		c.KafkaBrokers[i] = strings.TrimSpace(b)
	}

	var err error
	if c.LogPretty, err = strconv.ParseBool(env("LOG_PRETTY", "true")); err != nil {
		return c, fmt.Errorf("LOG_PRETTY: %w", err)
	}
	if c.BotDepth, err = strconv.Atoi(env("BOT_DEPTH", strconv.Itoa(agent.DefaultDepth))); err != nil {
		return c, fmt.Errorf("BOT_DEPTH: %w", err)
	}
	budget, err := strconv.Atoi(env("BOT_BUDGET_MS", strconv.Itoa(int(agent.DefaultBudget/time.Millisecond))))
	if err != nil {
		return c, fmt.Errorf("BOT_BUDGET_MS: %w", err)
	}
	c.BotBudget = time.Duration(budget) * time.Millisecond
	if c.MatchTimeout, err = time.ParseDuration(env("MATCH_TIMEOUT", "10s")); err != nil {
		return c, fmt.Errorf("MATCH_TIMEOUT: %w", err)
	}
	if c.ReconnectWindow, err = time.ParseDuration(env("RECONNECT_WINDOW", "30s")); err != nil {
		return c, fmt.Errorf("RECONNECT_WINDOW: %w", err)
	}

	switch c.StoreBackend {
	case storage.BackendPostgres, storage.BackendBadger, storage.BackendMemory:
	default:
		return c, fmt.Errorf("STORE_BACKEND: unknown backend %q", c.StoreBackend)
	}
	return c, nil
}

// LoadEnvFile sets variables from a KEY=VALUE file. Variables already set in
// the environment win; a missing file is not an error.
func LoadEnvFile(filename string) error {
	file, err := os.Open(filename)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if _, set := os.LookupEnv(key); !set {
			os.Setenv(key, value)
		}
	}
	return scanner.Err()
}
