package config

import (
	"strings"
	"time"
)

type Backend struct {
	URL                 string        `env:"BACKEND_URL" envDefault:"https://ai-counsellor-backend-jyfb.onrender.com"`
	Timeout             time.Duration `env:"BACKEND_TIMEOUT" envDefault:"30s"`
	ProfileCheckTimeout time.Duration `env:"PROFILE_CHECK_TIMEOUT" envDefault:"10s"`
}

var _ BackendConfig = Backend{}

// GetBackendURL returns the counsellor backend base URL without a trailing slash
func (b Backend) GetBackendURL() string {
	return strings.TrimRight(b.URL, "/")
}

func (b Backend) GetBackendTimeout() time.Duration {
	return b.Timeout
}

// GetProfileCheckTimeout bounds the access gate's profile reconciliation call.
// A timeout counts as a failed check.
func (b Backend) GetProfileCheckTimeout() time.Duration {
	return b.ProfileCheckTimeout
}
