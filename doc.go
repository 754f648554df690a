// Package authgate verifies bearer identity tokens and lazily provisions
// local user records for externally authenticated identities.
//
// The package is organized around a small set of collaborators:
//
//   - Verifier decodes and checks a signed token against a shared secret,
//     returning Claims or a classified error.
//   - ExtractBearerToken parses the Authorization header in either a
//     strict or lenient shape.
//   - LoginReconciler runs the login flow: verify the inbound token, then
//     find-or-create the local user keyed by the claims email.
//   - AuthController exposes the HTTP surface (login, verify, user list)
//     on top of go-router, with a centralized JSON error responder.
//   - middleware/gateware guards protected routes, attaching the decoded
//     claims to the request context.
//
// Token issuance, password storage, and session management are outside
// this package; tokens are minted by an upstream identity step and only
// verified here.
package authgate
