package authgate

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// TokenValidator validates a raw token string and extracts claims without
// tying callers to a specific verification implementation.
type TokenValidator interface {
	Validate(tokenString string) (*Claims, error)
}

// TokenValidatorFunc adapts a function into a TokenValidator.
type TokenValidatorFunc func(tokenString string) (*Claims, error)

// Validate satisfies the TokenValidator interface.
func (f TokenValidatorFunc) Validate(tokenString string) (*Claims, error) {
	if f == nil {
		return nil, ErrUnableToDecodeToken
	}
	return f(tokenString)
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetContextKey() string
	GetAuthScheme() string
	GetStoreTimeout() time.Duration
}

// Mailer delivers a rendered message to a single recipient. The concrete
// transport is constructed once at process start and injected.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Notifier pushes a plain text message to an external chat channel.
type Notifier interface {
	PushText(ctx context.Context, text string) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTHGATE "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTHGATE "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTHGATE "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTHGATE "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
