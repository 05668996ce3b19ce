package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	SessionConfig
	BackendConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type SessionConfig interface {
	GetSessionBackend() SessionBackend
	GetSessionNamespace() string
	GetSessionSQLitePath() string
	GetRedisURL() string
	GetSessionTTL() time.Duration
	GetSessionIdleTTL() time.Duration
}

type BackendConfig interface {
	GetBackendURL() string
	GetBackendTimeout() time.Duration
	GetProfileCheckTimeout() time.Duration
}

type mainConfig struct {
	EnvVars
	Sessions
	Backend
	Security
}

// New loads a .env file when one is present and then parses the process
// environment. Unset variables fall back to their envDefault values.
func New() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv parses the process environment without touching .env files.
func FromEnv() (Config, error) {
	var c mainConfig
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("[config FromEnv] parse env: %w", err)
	}
	if err := c.Sessions.validate(); err != nil {
		return nil, fmt.Errorf("[config FromEnv] %w", err)
	}
	return c, nil
}
