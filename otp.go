package authgate

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

// OTPSubject is the localized subject line of the one-time code mail.
const OTPSubject = "ยืนยันการสมัครสมาชิก - OTP Code"

// otpTTL is how long an issued code stays valid.
const otpTTL = 5 * time.Minute

type OTPRequestMessage struct {
	Email string `json:"email"`
}

func (e OTPRequestMessage) Type() string { return "auth.otp.request" }

// OTPRequestHandler issues a one-time code for an email address and
// mails it. The code record's id derives deterministically from the
// address, so a repeated request replaces the previous code instead of
// accumulating rows.
type OTPRequestHandler struct {
	repo     RepositoryManager
	mailer   Mailer
	renderer *OTPEmailRenderer
	logger   Logger
	now      func() time.Time
	codeFn   func() (string, error)
}

var _ OTPDispatcher = (*OTPRequestHandler)(nil)

type OTPRequestHandlerOption func(*OTPRequestHandler)

func WithOTPLogger(logger Logger) OTPRequestHandlerOption {
	return func(h *OTPRequestHandler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithOTPClock pins the clock used for expiry stamps.
func WithOTPClock(now func() time.Time) OTPRequestHandlerOption {
	return func(h *OTPRequestHandler) {
		if now != nil {
			h.now = now
		}
	}
}

// WithOTPCodeFunc overrides code generation.
func WithOTPCodeFunc(fn func() (string, error)) OTPRequestHandlerOption {
	return func(h *OTPRequestHandler) {
		if fn != nil {
			h.codeFn = fn
		}
	}
}

func NewOTPRequestHandler(repo RepositoryManager, mailer Mailer, renderer *OTPEmailRenderer, opts ...OTPRequestHandlerOption) *OTPRequestHandler {
	h := &OTPRequestHandler{
		repo:     repo,
		mailer:   mailer,
		renderer: renderer,
		logger:   defLogger{},
		now:      time.Now,
		codeFn:   generateOTPCode,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

func (h *OTPRequestHandler) Execute(ctx context.Context, event OTPRequestMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during OTP request")
	default:
		return h.execute(ctx, event)
	}
}

func (h *OTPRequestHandler) execute(ctx context.Context, event OTPRequestMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	code, err := h.codeFn()
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate one-time code")
	}

	id, err := hashid.NewUUID(event.Email)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to derive code record id")
	}

	expiresAt := h.now().Add(otpTTL)
	record := &OneTimeCode{
		ID:        id,
		Email:     event.Email,
		Code:      code,
		ExpiresAt: &expiresAt,
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		codes := h.repo.OneTimeCodes()

		if _, err := codes.GetByID(ctx, id.String()); err != nil {
			if !repository.IsRecordNotFound(err) {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up one-time code")
			}
			_, err := codes.Create(ctx, record)
			return err
		}

		_, err := codes.Update(ctx, record, repository.UpdateByID(id.String()))
		return err
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist one-time code")
	}

	body, err := h.renderer.Render(code)
	if err != nil {
		return err
	}

	if err := h.mailer.Send(ctx, event.Email, OTPSubject, body); err != nil {
		h.logger.Error("OTP mail delivery failed", "email", event.Email, "error", err)
		return err
	}

	h.logger.Info("OTP issued", "email", event.Email, "expires_at", expiresAt)
	return nil
}

func generateOTPCode() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}

	code := n.String()
	for len(code) < 6 {
		code = "0" + code
	}
	return code, nil
}
