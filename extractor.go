package authgate

import "strings"

// ExtractPolicy selects how strictly the Authorization header is parsed.
type ExtractPolicy int

const (
	// ExtractStrict requires exactly two space-separated parts with a
	// literal, case-sensitive "Bearer" scheme. Used by the route gate.
	ExtractStrict ExtractPolicy = iota
	// ExtractLenient accepts two or more parts and ignores the scheme
	// word. Used by the login and verify endpoints.
	ExtractLenient
)

// BearerScheme is the only auth scheme the strict policy accepts.
const BearerScheme = "Bearer"

// ExtractBearerToken parses an Authorization header value into the raw
// token string. The token is returned verbatim, no trimming beyond the
// space split.
func ExtractBearerToken(header string, policy ExtractPolicy) (string, error) {
	if header == "" {
		return "", ErrNoToken
	}

	parts := strings.Split(header, " ")

	if policy == ExtractLenient {
		if len(parts) < 2 || parts[1] == "" {
			return "", ErrMalformedToken
		}
		return parts[1], nil
	}

	if len(parts) != 2 || parts[0] != BearerScheme {
		return "", ErrInvalidTokenFormat
	}

	return parts[1], nil
}
