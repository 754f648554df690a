package authgate

import (
	"errors"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// TextCodeTokenExpired identifies expired token failures to API clients.
const TextCodeTokenExpired = "TOKEN_EXPIRED"

// ErrNoToken is returned when the Authorization header is absent.
var ErrNoToken = goerrors.New("No token provided", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode("NO_TOKEN")

// ErrInvalidTokenFormat is the strict extractor failure: anything other
// than exactly "Bearer <token>".
var ErrInvalidTokenFormat = goerrors.New("Invalid token format", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode("INVALID_TOKEN_FORMAT")

// ErrMalformedToken is the lenient extractor failure: fewer than two
// header parts or an empty token.
var ErrMalformedToken = goerrors.New("Malformed token", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode("MALFORMED_TOKEN")

// ErrTokenExpired carries the fixed localized message the login and
// verify endpoints surface when a token is past its expiry.
var ErrTokenExpired = goerrors.New("token หมดอายุ", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode(TextCodeTokenExpired)

// ErrSecretNotConfigured is a server side condition, not a client error;
// it short-circuits before any cryptographic verification happens.
var ErrSecretNotConfigured = goerrors.New("JWT secret not configured", goerrors.CategoryInternal).
	WithCode(goerrors.CodeInternal).
	WithTextCode("SECRET_NOT_CONFIGURED")

// ErrUnableToDecodeToken means the token parsed but claims could not be mapped.
var ErrUnableToDecodeToken = goerrors.New("unable to decode token claims", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized).
	WithTextCode("TOKEN_UNDECODABLE")

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrMalformedToken) || errors.Is(err, ErrInvalidTokenFormat) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed")
}

// FixedVerificationError renders the fixed message policy applied by the
// login and verify endpoints: every verification failure, expired or not,
// surfaces the localized expired-token message with a 401. The missing
// secret stays a server side 500. The route gate's default handler uses
// RawVerificationMessage instead; call sites pick one of the two.
func FixedVerificationError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrSecretNotConfigured) {
		return err
	}
	if errors.Is(err, ErrTokenExpired) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryAuth, ErrTokenExpired.Message).
		WithCode(goerrors.CodeUnauthorized).
		WithTextCode(TextCodeTokenExpired)
}

// RawVerificationMessage renders the pass-through message policy: the
// innermost cause of a verification failure, as produced by the token
// library. Call sites that want the fixed localized policy use the
// classified error's own message instead.
func RawVerificationMessage(err error) string {
	if err == nil {
		return ""
	}
	cause := err
	for {
		next := errors.Unwrap(cause)
		if next == nil {
			break
		}
		cause = next
	}
	return cause.Error()
}
