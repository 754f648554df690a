package authgate

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvConfig is the environment backed Config implementation. The signing
// secret is deliberately not required at load time: its absence is
// reported per-request as a server misconfiguration by the Verifier.
type EnvConfig struct {
	SigningKey   string        `env:"JWT_SECRET_KEY"`
	ContextKey   string        `env:"AUTH_CONTEXT_KEY" envDefault:"user"`
	AuthScheme   string        `env:"AUTH_SCHEME" envDefault:"Bearer"`
	StoreTimeout time.Duration `env:"AUTH_STORE_TIMEOUT" envDefault:"5s"`

	Addr string `env:"ADDR" envDefault:":8721"`
	DSN  string `env:"DSN" envDefault:"file:authgate.db?cache=shared"`

	EmailUser string `env:"EMAIL_USER"`
	EmailPass string `env:"EMAIL_PASS"`
	SMTPHost  string `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	SMTPPort  string `env:"SMTP_PORT" envDefault:"587"`

	LineAccessToken string `env:"LINE_ACCESS_TOKEN"`
	LineGroupID     string `env:"LINE_GROUP_ID"`
}

var _ Config = (*EnvConfig)(nil)

// LoadConfig reads configuration from the process environment.
func LoadConfig() (*EnvConfig, error) {
	cfg := &EnvConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *EnvConfig) GetSigningKey() string {
	return c.SigningKey
}

func (c *EnvConfig) GetContextKey() string {
	return c.ContextKey
}

func (c *EnvConfig) GetAuthScheme() string {
	return c.AuthScheme
}

func (c *EnvConfig) GetStoreTimeout() time.Duration {
	return c.StoreTimeout
}
