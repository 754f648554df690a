// Package gateware guards protected routes: it extracts the bearer
// token from the Authorization header, verifies it, and attaches the
// decoded claims to the request before handing control to the next
// pipeline stage. Rejected requests never reach the protected handler;
// their classified error goes to the configured error handler.
package gateware

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"

	"github.com/pchalerm/authgate"
)

type Config struct {
	// Filter skips the gate entirely when it returns true.
	Filter func(router.Context) bool

	// SuccessHandler runs after the claims are attached; defaults to
	// continuing the pipeline.
	SuccessHandler router.HandlerFunc

	// ErrorHandler receives every classified failure. The default emits
	// the raw verification message with the classified status code.
	ErrorHandler router.ErrorHandler

	// Verifier validates the extracted token. Required unless KeyFunc or
	// JWKSetURLs provide key material.
	Verifier authgate.TokenValidator

	// ContextKey is the router locals key the claims are stored under.
	ContextKey string

	// Policy selects the header parsing strictness; the gate defaults to
	// the strict Bearer shape.
	Policy authgate.ExtractPolicy

	// KeyFunc resolves verification keys for externally issued tokens.
	KeyFunc jwt.Keyfunc

	// JWKSetURLs builds a refreshing KeyFunc from remote JWK sets.
	JWKSetURLs []string

	// ContextEnricher propagates claims to the standard Go context. If
	// provided, it is called after successful token validation.
	ContextEnricher func(c context.Context, claims *authgate.Claims) context.Context
}

// New returns the gate middleware for the given configuration.
func New(config ...Config) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		cfg := GetDefaultConfig(config...)
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			header := ctx.GetString(router.HeaderAuthorization, "")

			token, err := authgate.ExtractBearerToken(header, cfg.Policy)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			claims, err := cfg.Verifier.Validate(token)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			ctx.Locals(cfg.ContextKey, claims)

			if cfg.ContextEnricher != nil {
				ctx.SetContext(cfg.ContextEnricher(ctx.Context(), claims))
			}

			return cfg.SuccessHandler(ctx)
		}
	}
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(ctx router.Context) error {
			return ctx.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultErrorHandler
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "user"
	}

	if cfg.Verifier == nil {
		if cfg.KeyFunc == nil && len(cfg.JWKSetURLs) == 0 {
			panic("AUTHGATE: gate middleware configuration: one of Verifier, KeyFunc, or JWKSetURLs is required.")
		}

		keyFn := cfg.KeyFunc
		if keyFn == nil {
			var err error
			keyFn, err = multiKeyfunc(cfg.JWKSetURLs)
			if err != nil {
				panic("Failed to create keyfunc from JWK Set URL: " + err.Error())
			}
		}
		cfg.Verifier = NewKeyfuncValidator(keyFn)
	}

	return cfg
}

// NewKeyfuncValidator adapts a jwt.Keyfunc into a TokenValidator so the
// gate can verify tokens signed by external key sets.
func NewKeyfuncValidator(keyFn jwt.Keyfunc) authgate.TokenValidator {
	return authgate.TokenValidatorFunc(func(tokenString string) (*authgate.Claims, error) {
		token, err := jwt.ParseWithClaims(tokenString, &authgate.Claims{}, keyFn)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return nil, authgate.ErrTokenExpired
			}
			return nil, goerrors.Wrap(err, goerrors.CategoryAuth, err.Error()).
				WithCode(goerrors.CodeUnauthorized).
				WithTextCode("TOKEN_INVALID")
		}

		if claims, ok := token.Claims.(*authgate.Claims); ok && token.Valid {
			return claims, nil
		}

		return nil, authgate.ErrUnableToDecodeToken
	})
}

// defaultErrorHandler applies the pass-through message policy: the
// underlying verification error's own message with the classified
// status code.
func defaultErrorHandler(c router.Context, err error) error {
	status := http.StatusUnauthorized

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.Code != 0 {
		status = richErr.Code
	}

	return c.JSON(status, map[string]any{
		"success": false,
		"message": authgate.RawVerificationMessage(err),
	})
}

func multiKeyfunc(jwkSetURLs []string) (jwt.Keyfunc, error) {
	opts := keyfunc.Options{
		RefreshErrorHandler: func(err error) {
			log.Printf("failed to do a background refresh of JWK set: %s", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	}

	m := make(map[string]keyfunc.Options, len(jwkSetURLs))
	for _, url := range jwkSetURLs {
		m[url] = opts
	}

	multi, err := keyfunc.GetMultiple(m, keyfunc.MultipleOptions{
		KeySelector: keyfunc.KeySelectorFirst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get JWK set URLs: %w", err)
	}

	return multi.Keyfunc, nil
}
