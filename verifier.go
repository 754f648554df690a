package authgate

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// Verifier validates HMAC-signed identity tokens against a shared
// secret. Verification is a pure function of (token, secret, now); the
// time source is injectable for tests.
type Verifier struct {
	signingKey []byte
	timeFunc   func() time.Time
	logger     Logger
}

var _ TokenValidator = (*Verifier)(nil)

type VerifierOption func(*Verifier)

// WithVerifierLogger overrides the default logger.
func WithVerifierLogger(logger Logger) VerifierOption {
	return func(v *Verifier) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithTimeFunc pins the clock used for expiry checks.
func WithTimeFunc(fn func() time.Time) VerifierOption {
	return func(v *Verifier) {
		v.timeFunc = fn
	}
}

// NewVerifier creates a Verifier for the given signing key. An empty key
// is legal at construction time; Validate reports it as a server
// misconfiguration so hosts fail per-request with a 500, not a 401.
func NewVerifier(signingKey []byte, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		signingKey: signingKey,
		logger:     defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// Validate parses and verifies a token string, returning the decoded
// claims including any open-ended payload keys.
func (v *Verifier) Validate(tokenString string) (*Claims, error) {
	if len(v.signingKey) == 0 {
		return nil, ErrSecretNotConfigured
	}

	parserOptions := make([]jwt.ParserOption, 0, 1)
	if v.timeFunc != nil {
		parserOptions = append(parserOptions, jwt.WithTimeFunc(v.timeFunc))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			v.logger.Error("Verifier encountered unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, err.Error()).
			WithCode(goerrors.CodeUnauthorized).
			WithTextCode("TOKEN_INVALID")
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	v.logger.Error("Verifier could not decode or validate claims")
	return nil, ErrUnableToDecodeToken
}
