package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"country_fetcher/internal/artifact"
	"country_fetcher/internal/config"
	"country_fetcher/internal/enrich"
	"country_fetcher/internal/httpapi"
	"country_fetcher/internal/publisher"
	"country_fetcher/internal/render"
	"country_fetcher/internal/service"
	"country_fetcher/internal/source/erapi"
	"country_fetcher/internal/source/restcountries"
	"country_fetcher/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := postgres.Migrate(ctx, cfg.Database.DSN(), logger); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	logger.Info("connected to database",
		"host", cfg.Database.Host,
		"dbname", cfg.Database.DBName,
		"max_open_conns", cfg.Database.MaxOpenConns,
	)

	artifacts, closeArtifacts, err := newArtifactStore(ctx, cfg.Artifact, logger)
	if err != nil {
		return err
	}
	defer closeArtifacts()

	var pub service.Publisher
	if cfg.RabbitMQ.Enabled {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			return fmt.Errorf("connect to rabbitmq: %w", err)
		}
		defer rabbitMQ.Close()
		pub = rabbitMQ
	}

	countryStore := postgres.NewCountryStore(db)
	statusStore := postgres.NewStatusStore(db)
	txManager := postgres.NewTransactionManager(db)

	countrySource := restcountries.New(restcountries.Config{
		BaseURL: cfg.Sources.Countries.BaseURL,
		Timeout: cfg.Sources.Countries.Timeout,
	}, logger)
	rateSource := erapi.New(erapi.Config{
		BaseURL: cfg.Sources.Rates.BaseURL,
		Timeout: cfg.Sources.Rates.Timeout,
	}, logger)

	enricher := enrich.NewSeeded(enrich.Config{
		MultiplierMin: cfg.Enrichment.MultiplierMin,
		MultiplierMax: cfg.Enrichment.MultiplierMax,
	}, cfg.Enrichment.Seed)

	refreshService := service.NewRefreshService(service.RefreshDeps{
		CountrySource: countrySource,
		RateSource:    rateSource,
		Enricher:      enricher,
		Countries:     countryStore,
		Status:        statusStore,
		TxManager:     txManager,
		Renderer:      render.NewRasterizer(),
		Artifacts:     artifacts,
		Publisher:     pub,
	}, logger)

	countryService := service.NewCountryService(countryStore, statusStore, artifacts, logger)

	server := httpapi.NewServer(httpapi.Config{
		Addr:            cfg.Server.Addr,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, refreshService, countryService, db, logger)

	logger.Info("starting country fetcher",
		"addr", cfg.Server.Addr,
		"countries_source", countrySource.Name(),
		"rates_source", rateSource.Name(),
		"artifact_backend", cfg.Artifact.Backend,
		"rabbitmq", cfg.RabbitMQ.Enabled,
	)

	return server.Run(ctx)
}

func newArtifactStore(ctx context.Context, cfg config.ArtifactConfig, logger *slog.Logger) (artifact.Store, func(), error) {
	switch cfg.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("using redis artifact store", "addr", cfg.RedisAddr, "key", cfg.RedisKey)
		return artifact.NewRedisStore(client, cfg.RedisKey), func() { client.Close() }, nil
	default:
		logger.Info("using file artifact store", "path", cfg.Path)
		return artifact.NewFileStore(cfg.Path), func() {}, nil
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
