package config

type SecurityConfig interface {
	GetCookieSecure() bool
	GetMaxGatePasses() int
}

type Security struct {
	CookieSecure  bool `env:"COOKIE_SECURE" envDefault:"false"`
	MaxGatePasses int  `env:"GATE_MAX_PASSES" envDefault:"3"`
}

var _ SecurityConfig = Security{}

// GetCookieSecure forces the Secure flag on cookies even when TLS terminates upstream
func (s Security) GetCookieSecure() bool {
	return s.CookieSecure
}

// GetMaxGatePasses bounds how many times a superseded gate evaluation is retried within one request
func (s Security) GetMaxGatePasses() int {
	if s.MaxGatePasses < 1 {
		return 1
	}
	return s.MaxGatePasses
}
