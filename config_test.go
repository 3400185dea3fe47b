package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func validConfig() *Config {
	return &Config{
		codeLength:    6,
		codeRetries:   64,
		gameTimeout:   30 * time.Minute,
		maxPlayers:    12,
		maxRooms:      1000,
		minPlayers:    4,
		playerTimeout: 5 * time.Minute,
		port:          8080,
		rateBurst:     20,
		rateLimit:     10,
		reapInterval:  time.Minute,
	}
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, validConfig().validate())

	cfg := validConfig()
	cfg.port = 0
	cfg.tlsCert = "cert.pem"
	cfg.maxPlayers = 2
	cfg.reapInterval = 0

	err := cfg.validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 4)
	assert.ErrorContains(t, err, "--tls-key")
	assert.ErrorContains(t, err, "--reap-interval")
}

func TestConfig_Limits(t *testing.T) {
	assert.Equal(t, defaultRoomLimits(), validConfig().limits())
}

func TestConfig_Scheme(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "http", cfg.scheme())

	cfg.tlsCert, cfg.tlsKey = "cert.pem", "key.pem"
	assert.Equal(t, "https", cfg.scheme())
}

func TestNewCmd_Defaults(t *testing.T) {
	cfg := &Config{}
	newCmd(cfg)

	assert.Equal(t, 8080, cfg.port)
	assert.Equal(t, 5*time.Minute, cfg.playerTimeout)
	assert.Equal(t, 30*time.Minute, cfg.gameTimeout)
	assert.Equal(t, ".env", cfg.envFile)
	assert.NoError(t, cfg.validate())
}

func TestNewCmd_EnvOverrides(t *testing.T) {
	t.Setenv("WORDPARTY_PORT", "9999")
	t.Setenv("WORDPARTY_MAX_ROOMS", "5")
	t.Setenv("WORDPARTY_TRUST_CLIENT_GUESSES", "true")

	cfg := &Config{}
	newCmd(cfg)

	assert.Equal(t, 9999, cfg.port)
	assert.Equal(t, 5, cfg.maxRooms)
	assert.True(t, cfg.trustClientGuesses)
}

func TestLoadEnvFile(t *testing.T) {
	const key = "WORDPARTY_TEST_LOADED_FROM_FILE"
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=yes\n"), 0o600))

	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "yes", os.Getenv(key))

	assert.NoError(t, loadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
	assert.NoError(t, loadEnvFile(""))
}
