package authgate

import (
	"context"
	"encoding/json"
	"time"
)

const defaultStoreTimeout = 5 * time.Second

// LoginReconciler runs the login flow: it verifies an externally issued
// token and lazily provisions the matching local user. The inbound token
// is already a trusted identity assertion from an upstream auth step;
// no credential check happens here.
type LoginReconciler struct {
	verifier     TokenValidator
	repo         RepositoryManager
	logger       Logger
	storeTimeout time.Duration
}

type LoginReconcilerOption func(*LoginReconciler)

// WithReconcilerLogger overrides the default logger.
func WithReconcilerLogger(logger Logger) LoginReconcilerOption {
	return func(r *LoginReconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithStoreTimeout bounds the reconciliation's store access.
func WithStoreTimeout(d time.Duration) LoginReconcilerOption {
	return func(r *LoginReconciler) {
		if d > 0 {
			r.storeTimeout = d
		}
	}
}

func NewLoginReconciler(verifier TokenValidator, repo RepositoryManager, opts ...LoginReconcilerOption) *LoginReconciler {
	r := &LoginReconciler{
		verifier:     verifier,
		repo:         repo,
		logger:       defLogger{},
		storeTimeout: defaultStoreTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Login extracts and verifies the bearer token from the Authorization
// header value, then finds-or-creates the local user keyed by the claims
// email. Extraction failures propagate unchanged; verification failures
// render with the fixed localized message. No store access happens
// before the token checks out.
func (r *LoginReconciler) Login(ctx context.Context, authHeader string) (*LoginResult, error) {
	token, err := ExtractBearerToken(authHeader, ExtractLenient)
	if err != nil {
		return nil, err
	}

	claims, err := r.verifier.Validate(token)
	if err != nil {
		return nil, FixedVerificationError(err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.storeTimeout)
	defer cancel()

	user, err := r.repo.Users().GetOrCreate(ctx, userFromClaims(claims))
	if err != nil {
		r.logger.Error("Login user reconciliation failed for %s: %v", claims.Email, err)
		return nil, err
	}

	return &LoginResult{Claims: claims, User: user}, nil
}

// LoginResult composes the response payload: the raw claims flattened,
// overlaid with the persisted record. The persisted id wins through the
// explicit userId key; claim fields otherwise pass through unmodified.
type LoginResult struct {
	Claims *Claims
	User   *User
}

func (r *LoginResult) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(r.Claims)
	if err != nil {
		return nil, err
	}

	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}

	out["userId"] = r.User.ID
	out["dbUser"] = r.User

	return json.Marshal(out)
}

func userFromClaims(claims *Claims) *User {
	return &User{
		ID:        claims.SubjectID,
		Email:     claims.Email,
		FirstName: nonEmpty(claims.FirstName),
		LastName:  nonEmpty(claims.LastName),
		Avatar:    nonEmpty(claims.Avatar),
	}
}

// nonEmpty maps falsy claim values to NULL rather than empty strings.
func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
