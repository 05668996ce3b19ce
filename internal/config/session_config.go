package config

import (
	"fmt"
	"time"
)

// SessionBackend selects where session state is persisted between requests and restarts.
type SessionBackend string

const (
	SessionBackendMemory SessionBackend = "memory"
	SessionBackendSQLite SessionBackend = "sqlite"
	SessionBackendRedis  SessionBackend = "redis"
)

type Sessions struct {
	Backend    SessionBackend `env:"SESSION_BACKEND" envDefault:"sqlite"`
	Namespace  string         `env:"SESSION_NAMESPACE" envDefault:"auth-storage"`
	SQLitePath string         `env:"SESSION_SQLITE_PATH" envDefault:"./data/sessions.db"`
	RedisURL   string         `env:"REDIS_URL"`
	TTL        time.Duration  `env:"SESSION_TTL" envDefault:"720h"`
	IdleTTL    time.Duration  `env:"SESSION_IDLE_TTL" envDefault:"30m"`
}

var _ SessionConfig = Sessions{}

func (s Sessions) validate() error {
	switch s.Backend {
	case SessionBackendMemory, SessionBackendSQLite:
	case SessionBackendRedis:
		if s.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when SESSION_BACKEND=redis")
		}
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", s.Backend)
	}
	return nil
}

func (s Sessions) GetSessionBackend() SessionBackend {
	return s.Backend
}

func (s Sessions) GetSessionNamespace() string {
	return s.Namespace
}

func (s Sessions) GetSessionSQLitePath() string {
	return s.SQLitePath
}

func (s Sessions) GetRedisURL() string {
	return s.RedisURL
}

// GetSessionTTL is how long persisted session state and its cookie live.
func (s Sessions) GetSessionTTL() time.Duration {
	return s.TTL
}

// GetSessionIdleTTL is how long an unused store stays in memory before it is evicted.
// Evicted stores are rehydrated from the persister on next access.
func (s Sessions) GetSessionIdleTTL() time.Duration {
	return s.IdleTTL
}
