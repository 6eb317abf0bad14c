package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ledgerfeed/internal/amqp"
	"ledgerfeed/internal/backend"
	"ledgerfeed/internal/config"
	"ledgerfeed/internal/core"
	"ledgerfeed/internal/ingest"
	"ledgerfeed/internal/ledger"
	"ledgerfeed/internal/log"
	"ledgerfeed/internal/parser"
)

// idleSource is the default polled source: it never produces records, so
// ingestion is driven entirely by AMQP alerts. Deployments with a bank
// aggregator replace this with their own ingest.PolledSource.
type idleSource struct{}

func (idleSource) FetchRecent(ctx context.Context) ([]core.TransactionRecord, error) {
	return nil, nil
}

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Component: log.ComponentApp,
	})
	log.SetDefault(logger)

	logger.Info("Starting ledgerfeed-ingest")

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Archive backend (none | sqlite | sheets)
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid archive backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	archive, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize archive backend", log.FieldError, err)
		os.Exit(1)
	}
	if archive.Cleanup != nil {
		defer func() {
			if err := archive.Cleanup(); err != nil {
				logger.Error("Archive cleanup failed", log.FieldError, err)
			}
		}()
	}

	p, err := parser.New(parser.Config{
		DateFallback: parser.DateFallback(cfg.DateFallback),
	})
	if err != nil {
		logger.Error("Failed to initialize parser", log.FieldError, err)
		os.Exit(1)
	}

	book := ledger.New()

	supervisor, err := ingest.NewSupervisor(ingest.Config{
		PollInterval:      cfg.PollInterval,
		RestartBackoff:    cfg.RestartBackoff,
		RestartBackoffMax: cfg.RestartBackoffMax,
		MaxRestarts:       cfg.MaxRestarts,
	}, idleSource{}, p, book, archive.Writer)
	if err != nil {
		logger.Error("Failed to initialize ingestion supervisor", log.FieldError, err)
		os.Exit(1)
	}

	if err := supervisor.Start(ctx); err != nil {
		logger.Error("Failed to start ingestion supervisor", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Ingestion supervisor started",
		"poll_interval", cfg.PollInterval.String(),
		log.FieldBackend, cfg.ArchiveBackend)

	// AMQP alert consumption (optional): raw SMS/email text routed to the
	// supervisor's synchronous handlers.
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		go func() {
			err := amqpClient.ConsumeAlerts(ctx, func(msg *amqp.AlertMessage) error {
				switch msg.Channel {
				case amqp.ChannelSMS:
					supervisor.HandleSMS(msg.Text)
				case amqp.ChannelEmail:
					supervisor.HandleEmail(msg.Text)
				}
				return nil
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Alert consumption failed", log.FieldError, err)
				cancel()
			}
		}()
		logger.Info("Consuming bank alerts",
			log.FieldExchange, cfg.AMQPExchange,
			log.FieldQueue, cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	logger.Info("Stopping ingestion supervisor...")
	if err := supervisor.Stop(shutdownCtx); err != nil {
		logger.Warn("Supervisor stop did not complete cleanly", log.FieldError, err)
	}
	cancel()

	logger.Info("Shutdown complete",
		"transactions", book.Len(),
		log.FieldRestarts, supervisor.Restarts())
}
