// cmd/search-server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"apartment-search/internal/alerts"
	"apartment-search/internal/common/aws"
	"apartment-search/internal/common/config"
	"apartment-search/internal/common/database"
	"apartment-search/internal/common/llama"
	"apartment-search/internal/common/logger"
	"apartment-search/internal/common/observability"
	"apartment-search/internal/httpapi"
	"apartment-search/internal/search/enhancer"
	"apartment-search/internal/search/interpreter"
	"apartment-search/internal/search/pipeline"
	"apartment-search/internal/search/ranking"
	"apartment-search/internal/storage/listings"
	"apartment-search/internal/storage/profiles"
	"apartment-search/internal/storage/searches"
	"apartment-search/internal/storage/tours"
)

const alertInterval = time.Hour

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting search server...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("search-server")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redisClient.Close()
	zapLog.Info("Redis connected successfully")

	// --- Search pipeline ---
	llamaClient := llama.NewClient(cfg.Llama)

	interpCfg := interpreter.LoadConfig()
	interpCfg.Timeout = config.GetDuration(cfg.Llama.Timeout)
	interp := interpreter.NewHandler(interpCfg, llamaClient, log)

	enhCfg := enhancer.LoadConfig()
	enhCfg.Timeout = config.GetDuration(cfg.Llama.Timeout)
	enh := enhancer.NewHandler(enhCfg, llamaClient, log)

	rankCfg := ranking.LoadConfig()
	if cfg.Ranking.PriceOverageCutoff > 0 {
		rankCfg.PriceOverageCutoff = cfg.Ranking.PriceOverageCutoff
	}
	if cfg.Ranking.MaxResults > 0 {
		rankCfg.MaxResults = cfg.Ranking.MaxResults
	}
	ranker := ranking.NewRanker(log)

	profileRepo := profiles.NewRepository(pg.DB, redisClient.Client,
		time.Duration(cfg.Search.ProfileCacheTTL)*time.Second, log)
	listingRepo := listings.NewRepository(esClient.Client, pg.DB,
		cfg.Search.ListingIndex, cfg.Search.MaxCandidates, rankCfg.PriceOverageCutoff, log)
	searchRepo := searches.NewRepository(pg.DB, log)
	tourRepo := tours.NewRepository(pg.DB, log)

	searchPipeline := pipeline.New(interp, enh, profileRepo, listingRepo, searchRepo, ranker,
		redisClient.Client, rankCfg.MaxResults, time.Duration(cfg.Search.FilterCacheTTL)*time.Second, log)

	// --- Saved-search alerts ---
	if cfg.Alerts.Email.Enabled || cfg.Alerts.SMS.Enabled {
		sesClient, err := aws.NewSES(ctx, cfg.Alerts.AWS.Region)
		if err != nil {
			zapLog.Fatal("SES client failed", zap.Error(err))
		}
		snsClient, err := aws.NewSNS(ctx, cfg.Alerts.AWS.Region)
		if err != nil {
			zapLog.Fatal("SNS client failed", zap.Error(err))
		}

		alertCfg := alerts.LoadConfig(cfg.Alerts)
		notifier := alerts.NewNotifier(alertCfg, pg.DB, sesClient, snsClient, log)
		evaluator := alerts.NewEvaluator(alertCfg, searchRepo, profileRepo, listingRepo, ranker, notifier, log)

		go func() {
			ticker := time.NewTicker(alertInterval)
			defer ticker.Stop()
			for range ticker.C {
				if err := evaluator.Run(context.Background()); err != nil {
					zapLog.Error("alert run failed", zap.Error(err))
				}
			}
		}()
		zapLog.Info("Saved-search alerting enabled", zap.Duration("interval", alertInterval))
	} else {
		zapLog.Info("Saved-search alerting disabled")
	}

	// --- HTTP server ---
	readiness := []httpapi.ReadinessCheck{
		{Name: "postgres", Check: func() error { return pg.Ping(context.Background()) }},
		{Name: "elasticsearch", Check: func() error { return esClient.Ping() }},
		{Name: "redis", Check: func() error { return redisClient.Ping(context.Background()) }},
	}

	api := httpapi.NewServer(searchPipeline, profileRepo, searchRepo, tourRepo, readiness, log)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.Router(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	zapLog.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("http shutdown failed", zap.Error(err))
	}

	zapLog.Info("Shutdown complete")
}
