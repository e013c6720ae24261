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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bankpulse/review-insights/internal/aggregate"
	"github.com/bankpulse/review-insights/internal/api"
	"github.com/bankpulse/review-insights/internal/cache"
	"github.com/bankpulse/review-insights/internal/config"
	"github.com/bankpulse/review-insights/internal/dedup"
	"github.com/bankpulse/review-insights/internal/engine"
	"github.com/bankpulse/review-insights/internal/ingest"
	"github.com/bankpulse/review-insights/internal/keywords"
	"github.com/bankpulse/review-insights/internal/metrics"
	"github.com/bankpulse/review-insights/internal/sentiment"
	"github.com/bankpulse/review-insights/internal/services"
	"github.com/bankpulse/review-insights/internal/store"
	"github.com/bankpulse/review-insights/internal/themes"
	"github.com/bankpulse/review-insights/internal/utils"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting insights-engine", slog.String("address", cfg.Server.Address))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	var cacheProvider cache.Provider = cache.NoopProvider{}
	if cfg.Cache.Enabled && cfg.Cache.Addr != "" {
		provider, err := cache.NewValkeyProvider(cache.ValkeyConfig{
			Addr:         cfg.Cache.Addr,
			Username:     cfg.Cache.Username,
			Password:     cfg.Cache.Password,
			DB:           cfg.Cache.DB,
			DialTimeout:  cfg.Cache.DialTimeout.Std(),
			ReadTimeout:  cfg.Cache.ReadTimeout.Std(),
			WriteTimeout: cfg.Cache.WriteTimeout.Std(),
			MaxRetries:   cfg.Cache.MaxRetries,
			TLS:          cfg.Cache.TLS,
		})
		if err != nil {
			logger.Warn("valkey cache unavailable", slog.Any("error", err))
		} else {
			cacheProvider = provider
			defer provider.Close()
		}
	}

	taxonomy, err := themes.LoadTaxonomy(cfg.Taxonomy.Path)
	if err != nil {
		logger.Error("failed to load theme taxonomy", slog.Any("error", err))
		os.Exit(1)
	}
	mapper := themes.NewMapper(taxonomy, themes.Thresholds{
		NegativeMedium: cfg.Severity.NegativeMedium,
		NegativeHigh:   cfg.Severity.NegativeHigh,
		FrequencyHigh:  cfg.Severity.FrequencyHigh,
	}, cfg.Pipeline.Representatives)

	strategies, err := sentiment.FromNames(cfg.Sentiment.Strategies, cfg.Sentiment.ModelURL, cfg.Sentiment.Timeout.Std())
	if err != nil {
		logger.Error("failed to build sentiment strategies", slog.Any("error", err))
		os.Exit(1)
	}
	cascade, err := sentiment.NewCascade(logger, strategies...)
	if err != nil {
		logger.Error("failed to build sentiment cascade", slog.Any("error", err))
		os.Exit(1)
	}

	reviewStore, err := store.Open(cfg.Store.Path, logger)
	if err != nil {
		logger.Error("failed to open review store", slog.Any("error", err))
		os.Exit(1)
	}
	defer reviewStore.Close()

	ingestClient := ingest.NewClient(
		cfg.Clients.Ingest.BaseURL,
		cfg.Clients.Ingest.ReviewsPath,
		cfg.Clients.Ingest.PageSize,
		cfg.Clients.Ingest.Timeout.Std(),
		cacheProvider,
		cfg.Cache.IngestTTL.Std(),
		logger,
	)

	pipeline := engine.NewPipeline(
		logger,
		dedup.New(logger, cfg.Pipeline.CaseSensitiveDedup),
		cascade,
		keywords.New(cfg.Pipeline.KeywordTopN, cfg.Pipeline.GroupKeywordTopN, cfg.Pipeline.MinTokens),
		mapper,
		aggregate.New(mapper),
		reviewStore,
		cfg.Pipeline.Workers,
	)

	service := services.NewInsightService(logger, pipeline, ingestClient, reviewStore)
	server := api.NewServer(logger, service)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	apiServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}
	go func() {
		logger.Info("api server listening", slog.String("address", cfg.Server.Address))
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server exited", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout.Std())
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("api server shutdown", slog.Any("error", err))
	}

	if metricsServer != nil {
		metricsCtx, cancelMetrics := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(metricsCtx); err != nil {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancelMetrics()
	}

	logger.Info("insights-engine stopped")
}
