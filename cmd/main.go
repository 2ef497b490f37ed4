// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Shivanand-hulikatti/eventsphere/internal/auth"
	"github.com/Shivanand-hulikatti/eventsphere/internal/config"
	"github.com/Shivanand-hulikatti/eventsphere/internal/database"
	"github.com/Shivanand-hulikatti/eventsphere/internal/handler"
	"github.com/Shivanand-hulikatti/eventsphere/internal/logger"
	"github.com/Shivanand-hulikatti/eventsphere/internal/notify"
	"github.com/Shivanand-hulikatti/eventsphere/internal/repository"
	"github.com/Shivanand-hulikatti/eventsphere/internal/service"
	"github.com/Shivanand-hulikatti/eventsphere/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "eventsphere: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	// ── 1. Connect to PostgreSQL ──────────────────────────────────────────
	pool, err := database.NewPool(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	log.Info("connected to postgres", zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.DBName))

	// ── 2. Notifications ─────────────────────────────────────────────────
	var mailer notify.Mailer = notify.NewLogMailer(log)
	if cfg.Mail.SMTPHost != "" {
		smtp, err := notify.NewSMTPMailer(notify.SMTPConfig{
			Host:        cfg.Mail.SMTPHost,
			Port:        cfg.Mail.SMTPPort,
			Username:    cfg.Mail.SMTPUser,
			Password:    cfg.Mail.SMTPPassword,
			ImplicitTLS: cfg.Mail.SMTPTLS,
			From:        cfg.Mail.From,
		})
		if err != nil {
			return fmt.Errorf("mailer: %w", err)
		}
		mailer = smtp
	} else {
		log.Warn("SMTP_HOST not set, notifications will only be logged")
	}
	dispatcher := notify.NewDispatcher(mailer, log, cfg.Mail.SendTimeout)

	// ── 3. Wire up layers ────────────────────────────────────────────────
	store := repository.NewStore(pool)
	eventRepo := repository.NewEventRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	regRepo := repository.NewRegistrationRepository(pool)

	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	cookies := auth.Cookies{Name: cfg.Auth.CookieName, Secure: cfg.Auth.CookieSecure}

	regSvc := service.NewRegistrationService(store, eventRepo, userRepo, regRepo, dispatcher, log)
	eventSvc := service.NewEventService(store, eventRepo, regRepo)
	userSvc := service.NewUserService(userRepo, auth.BcryptHasher{Cost: bcrypt.DefaultCost}, tokens, regSvc, log)
	analyticsSvc := service.NewAnalyticsService(eventRepo, regRepo)

	router := handler.NewRouter(handler.Routes{
		Auth:        auth.NewAuthenticator(tokens, cookies, handler.WriteError),
		Events:      handler.NewEventHandler(eventSvc, regSvc, log),
		Users:       handler.NewUserHandler(userSvc, cookies, tokens.TTL(), log),
		Analytics:   handler.NewAnalyticsHandler(analyticsSvc, eventSvc, log),
		CORSOrigins: cfg.CORSOrigins,
		Log:         log,
	})

	// ── 4. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
	dispatcher.Wait()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("tracer shutdown", zap.Error(err))
	}
	log.Info("server stopped")
	return nil
}
