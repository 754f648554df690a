package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/pchalerm/authgate"
	"github.com/pchalerm/authgate/middleware/gateware"
	"github.com/pchalerm/authgate/notify"
)

func main() {
	ctx := context.Background()

	cfg, err := authgate.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DSN)
	if err != nil {
		log.Fatal(err)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	defer db.Close()

	if err := createSchema(ctx, db); err != nil {
		log.Fatal(err)
	}

	repo := authgate.NewRepositoryManager(db)
	repo.MustValidate()

	verifier := authgate.NewVerifier([]byte(cfg.GetSigningKey()))

	reconciler := authgate.NewLoginReconciler(verifier, repo,
		authgate.WithStoreTimeout(cfg.GetStoreTimeout()),
	)

	renderer, err := authgate.NewOTPEmailRenderer("views")
	if err != nil {
		log.Fatal(err)
	}

	mailer := authgate.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.EmailUser, cfg.EmailPass, nil)
	otp := authgate.NewOTPRequestHandler(repo, mailer, renderer)

	line := notify.NewLineClient(cfg.LineAccessToken, cfg.LineGroupID)

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:  true,
			StrictRouting: false,
		}))
	})

	authgate.RegisterAuthRoutes(srv.Router(),
		authgate.WithRepositoryManager(repo),
		authgate.WithReconciler(reconciler),
		authgate.WithVerifier(verifier),
		authgate.WithOTPDispatcher(otp),
		authgate.WithNotifier(line),
	)

	gate := gateware.New(gateware.Config{
		Verifier:   verifier,
		ContextKey: cfg.GetContextKey(),
		ContextEnricher: func(c context.Context, claims *authgate.Claims) context.Context {
			return authgate.WithClaimsContext(c, claims)
		},
	})

	srv.Router().Get("/me", func(ctx router.Context) error {
		claims, ok := authgate.GetRouterClaims(ctx, cfg.GetContextKey())
		if !ok {
			return ctx.Status(http.StatusUnauthorized).SendString("missing identity")
		}
		return ctx.JSON(http.StatusOK, claims)
	}, gate)

	srv.Serve(cfg.Addr)

	waitExitSignal()
}

func waitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}

func createSchema(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*authgate.User)(nil),
		(*authgate.OneTimeCode)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}

	return nil
}
