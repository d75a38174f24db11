package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"journal/auth"
	"journal/config"
	"journal/crypto"
	"journal/db"
	"journal/handlers"
	"journal/i18n"
	"journal/logging"

	"github.com/gorilla/csrf"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON config file")
	flag.Parse()

	logger := logging.NewText(os.Stderr, slog.LevelInfo)
	ctx := context.Background()

	if err := run(ctx, *configPath, logger); err != nil {
		logger.Error(ctx, "journal stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, logger *logging.SlogLogger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.GeneratedSecret {
		logger.Warn(ctx, "AUTH_SECRET not set, using a random key; tickets will not survive a restart")
	}
	if cfg.AuthUsername == "" || cfg.AuthPassword == "" {
		logger.Warn(ctx, "AUTH_USERNAME or AUTH_PASSWORD not set, nobody can log in")
	}

	store, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(ctx, logger.StdLogger(slog.LevelInfo)); err != nil {
		return err
	}

	app, err := newApp(cfg, store, logger)
	if err != nil {
		return err
	}
	handler, err := newHandler(cfg, app, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		ErrorLog:     logger.StdLogger(slog.LevelError),
		Handler:      handler,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		s := <-sigint

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		logger.Info(ctx, "shutting down", "signal", s.String())
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error(ctx, "http server shutdown", "err", err)
		}
		close(idleConnsClosed)
	}()

	logger.Info(ctx, "journal listening", "addr", cfg.Addr(), "app", cfg.AppName, "dialect", string(store.Dialect()))
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	<-idleConnsClosed
	return nil
}

// newApp builds the journal handlers for cfg on top of store.
func newApp(cfg config.Config, store *db.DB, logger *logging.SlogLogger) (*handlers.App, error) {
	gate, err := auth.NewGate(cfg.AuthSecret, auth.NewChecker(cfg.Credentials()), auth.GateOptions{
		MaxAge: cfg.SessionMaxAge,
		Secure: cfg.SecureCookies,
	})
	if err != nil {
		return nil, err
	}

	catalog, err := i18n.Load()
	if err != nil {
		return nil, err
	}

	return handlers.New(handlers.Options{
		AppName:   cfg.AppName,
		Store:     store,
		Gate:      gate,
		Catalog:   catalog,
		Logger:    logger,
		AccessLog: logger.StdLogger(slog.LevelInfo),
	})
}

// newHandler puts CSRF protection in front of app.
func newHandler(cfg config.Config, app http.Handler, logger logging.Logger) (http.Handler, error) {
	csrfKey, err := crypto.DeriveCSRFKey(cfg.AuthSecret)
	if err != nil {
		return nil, err
	}
	protect := csrf.Protect(csrfKey,
		csrf.Secure(cfg.SecureCookies),
		csrf.Path("/"),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Warn(r.Context(), "csrf check failed", "path", r.URL.Path, "reason", csrf.FailureReason(r))
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		})),
	)

	handler := protect(app)
	if !cfg.SecureCookies {
		handler = plaintextHTTP(handler)
	}
	return handler, nil
}

// plaintextHTTP marks requests as served over plain HTTP so the CSRF
// origin checks do not demand TLS.
func plaintextHTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
	})
}
