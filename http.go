package authgate

import (
	"context"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// OTPDispatcher issues a one-time code for a prospective registrant.
type OTPDispatcher interface {
	Execute(ctx context.Context, msg OTPRequestMessage) error
}

type AuthControllerRoutes struct {
	Login    string
	Verify   string
	Register string
	Users    string
}

// AuthController exposes the authentication HTTP surface on top of
// go-router. All failures flow through the configured ErrorHandler; the
// handlers never write error bodies inline.
type AuthController struct {
	Logger       Logger
	Repo         RepositoryManager
	Reconciler   *LoginReconciler
	Verifier     TokenValidator
	OTP          OTPDispatcher
	Notifier     Notifier
	Routes       *AuthControllerRoutes
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithRepositoryManager(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithReconciler(r *LoginReconciler) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Reconciler = r
		return c
	}
}

func WithVerifier(v TokenValidator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Verifier = v
		return c
	}
}

func WithOTPDispatcher(d OTPDispatcher) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.OTP = d
		return c
	}
}

func WithNotifier(n Notifier) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Notifier = n
		return c
	}
}

func WithErrorHandler(h router.ErrorHandler) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if h != nil {
			c.ErrorHandler = h
		}
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Login:    "/auth/login",
			Verify:   "/auth/verify",
			Register: "/auth/register",
			Users:    "/get-user",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.ErrorHandler == nil {
		c.ErrorHandler = JSONErrorHandler(c.Logger)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Reconciler == nil {
		panic("Missing LoginReconciler in auth controller...")
	}

	if c.Verifier == nil {
		panic("Missing TokenValidator in auth controller...")
	}

	return c
}

func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {
	controller := NewAuthController(opts...)

	app.
		Post(controller.Routes.Login, controller.LoginPost).
		SetName("auth-login.post")

	app.
		Post(controller.Routes.Verify, controller.VerifyPost).
		SetName("auth-verify.post")

	app.
		Get(controller.Routes.Users, controller.UsersList).
		SetName("users.get")

	if controller.OTP != nil {
		app.
			Post(controller.Routes.Register, controller.RegisterPost).
			SetName("auth-register.post")
	}
}

// LoginPost handles POST /auth/login: verify the externally issued
// bearer token and find-or-create the local user.
func (c *AuthController) LoginPost(ctx router.Context) error {
	header := ctx.GetString(router.HeaderAuthorization, "")

	result, err := c.Reconciler.Login(ctx.Context(), header)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, result)
}

// VerifyPost handles POST /auth/verify: verify the bearer token and echo
// the decoded claims as the full response body.
func (c *AuthController) VerifyPost(ctx router.Context) error {
	header := ctx.GetString(router.HeaderAuthorization, "")

	token, err := ExtractBearerToken(header, ExtractLenient)
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	claims, err := c.Verifier.Validate(token)
	if err != nil {
		return c.ErrorHandler(ctx, FixedVerificationError(err))
	}

	return ctx.JSON(http.StatusOK, claims)
}

// UsersList handles GET /get-user and returns every provisioned user.
func (c *AuthController) UsersList(ctx router.Context) error {
	records, err := c.Repo.Users().List(ctx.Context())
	if err != nil {
		return c.ErrorHandler(ctx, err)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"success": true,
		"data":    records,
	})
}

// RegisterPost handles POST /auth/register: validate the payload and
// mail a one-time code. The chat notification is best effort and never
// fails the request.
func (c *AuthController) RegisterPost(ctx router.Context) error {
	payload := &RegisterPayload{}
	if err := ctx.Bind(payload); err != nil {
		return c.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid request body").
			WithCode(goerrors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return c.ErrorHandler(ctx, err)
	}

	if err := c.OTP.Execute(ctx.Context(), OTPRequestMessage{Email: payload.Email}); err != nil {
		return c.ErrorHandler(ctx, err)
	}

	if c.Notifier != nil {
		if err := c.Notifier.PushText(ctx.Context(), "New registration request: "+payload.Email); err != nil {
			c.Logger.Warn("registration notification failed", "error", err)
		}
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"success": true,
	})
}

// JSONErrorHandler is the centralized responder: it maps a classified
// error to its status code and emits a JSON body carrying the message
// and nothing else.
func JSONErrorHandler(logger Logger) router.ErrorHandler {
	if logger == nil {
		logger = defLogger{}
	}

	return func(c router.Context, err error) error {
		var richErr *goerrors.Error
		if !goerrors.As(err, &richErr) {
			richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
				WithCode(goerrors.CodeInternal)
		}

		status := richErr.Code
		if status == 0 {
			status = http.StatusInternalServerError
		}

		logger.Info(
			"Request error",
			"status", status,
			"error", richErr.Message,
			"category", richErr.Category,
			"details", print.MaybePrettyJSON(richErr.Metadata),
		)

		return c.JSON(status, map[string]any{
			"success": false,
			"message": richErr.Message,
		})
	}
}
