// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hotelops/frontdesk/internal/api/handover"
	"github.com/hotelops/frontdesk/internal/api/orders"
	"github.com/hotelops/frontdesk/internal/api/rooms"
	"github.com/hotelops/frontdesk/internal/api/staff"
	"github.com/hotelops/frontdesk/internal/billing"
	"github.com/hotelops/frontdesk/internal/config"
	"github.com/hotelops/frontdesk/internal/db"
	"github.com/hotelops/frontdesk/internal/email"
	"github.com/hotelops/frontdesk/internal/scheduler"
)

const shutdownTimeout = 30 * time.Second

func setupLogger(environment string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func configPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "config.yaml"
}

func main() {
	cfg, err := config.Load(configPath())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogger(cfg.App.Environment)

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer database.Close()

	var mailSender email.Sender
	if cfg.Email.Enabled() {
		client, err := email.NewSESClient(
			cfg.Email.AccessKeyID,
			cfg.Email.SecretAccessKey,
			cfg.Email.Region,
			cfg.Email.Sender,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize SES client")
		}
		mailSender = client
		log.Info().Str("region", cfg.Email.Region).Msg("SES email delivery enabled")
	} else {
		log.Info().Msg("Email delivery not configured; report emailing disabled")
	}

	orders.InitHandlers(database.Queries)
	rooms.InitHandlers(database.Queries)
	staff.InitHandlers(database.Queries)
	handover.InitHandlers(database, billing.Config{
		RetainedCash: cfg.Handover.RetainedCashAmount(),
	}, mailSender, cfg.Email.Recipient)

	if err := scheduler.Init(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize scheduler")
	}
	if err := scheduler.RegisterSnapshotAudit(cfg.Handover.AuditCron, database.Queries); err != nil {
		log.Fatal().Err(err).Msg("Failed to register snapshot audit job")
	}
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	server := newServer(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Int("port", cfg.App.Port).Str("app", cfg.App.Name).Msg("Starting server")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.Info().Msg("Shutting down server")
		if err := scheduler.Stop(); err != nil {
			log.Error().Err(err).Msg("Scheduler shutdown error")
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		os.Exit(1)
	}
}
