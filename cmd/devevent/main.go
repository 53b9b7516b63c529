// Command devevent manages the event catalog and booking ledger.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"devevent/config"
	"devevent/internal/adapters/email"
	"devevent/internal/adapters/feed"
	"devevent/internal/domain"
	"devevent/internal/repository/cache"
	"devevent/internal/repository/mongodb"
	"devevent/internal/repository/postgres"
	"devevent/internal/services"
	"devevent/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := realMain(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "devevent:", err)
		os.Exit(exitCode(err))
	}
}

func realMain(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "help" {
		usage(os.Stderr)
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := config.NewLogger()

	a, cleanup, err := wire(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	return a.run(ctx, args)
}

// wire builds the app for cfg. The returned cleanup releases store and cache handles.
func wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, func(), error) {
	var (
		eventRepo   domain.EventRepository
		bookingRepo domain.BookingRepository
		migrate     func(context.Context) error
		closers     []func() error
	)

	switch cfg.StoreDriver {
	case config.DriverMongo:
		conn := store.NewMongoConnector(cfg.MongoURI)
		eventRepo = mongodb.NewEventRepository(conn, cfg.MongoDatabase)
		bookingRepo = mongodb.NewBookingRepository(conn, cfg.MongoDatabase)
		migrate = func(ctx context.Context) error { return mongodb.EnsureIndexes(ctx, conn, cfg.MongoDatabase) }
		closers = append(closers, conn.Close)
	default:
		conn := store.NewPostgresConnector(cfg.DBUrl)
		eventRepo = postgres.NewEventRepository(conn)
		bookingRepo = postgres.NewBookingRepository(conn)
		migrate = func(ctx context.Context) error { return postgres.Migrate(ctx, conn) }
		closers = append(closers, conn.Close)
	}
	logger.Debug("store configured", "driver", cfg.StoreDriver)

	if cfg.Redis.Addr != "" {
		rdb, err := cache.NewRedisClient(ctx, cache.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Warn("slug cache disabled", "error", err)
		} else {
			eventRepo = cache.NewEventCache(eventRepo, rdb, cfg.Redis.TTL, logger)
			closers = append(closers, rdb.Close)
		}
	}

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn("close failed", "error", err)
			}
		}
	}

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:             cfg.Email.AWSRegion,
			AccessKeyID:        cfg.Email.AWSAccessKeyID,
			SecretAccessKey:    cfg.Email.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.Email.SESInsecureSkipVerify,
		},
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("create mailer: %w", err)
	}
	renderer, err := email.NewTemplateRenderer()
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("load email templates: %w", err)
	}
	emailService := services.NewEmailService(mailer, renderer)

	a := &app{
		events:   services.NewEventService(eventRepo, logger, cfg.ContextTimeout),
		bookings: services.NewBookingService(bookingRepo, eventRepo, emailService, logger, cfg.ContextTimeout),
		fileFeed: feed.NewFileFeed(),
		httpFeed: feed.NewHTTPFeed(&http.Client{Timeout: 30 * time.Second}),
		migrate:  migrate,
		out:      os.Stdout,
		logger:   logger,
		now:      time.Now,
	}
	return a, cleanup, nil
}
