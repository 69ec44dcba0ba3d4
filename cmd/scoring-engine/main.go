// cmd/scoring-engine/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"retention-engine/internal/cache"
	"retention-engine/internal/common/aws"
	"retention-engine/internal/common/config"
	"retention-engine/internal/common/database"
	"retention-engine/internal/common/logger"
	"retention-engine/internal/common/observability"
	"retention-engine/internal/export"
	"retention-engine/internal/notify"
	"retention-engine/internal/pipeline"
	"retention-engine/internal/repository"
	"retention-engine/internal/scoring"
	"retention-engine/pkg/rulesets"
)

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
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting scoring engine...",
		zap.String("environment", cfg.App.Environment),
		zap.String("sourceKind", cfg.Database.Source.Kind),
	)

	obs := observability.New("scoring-engine")
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Resolve scoring rules (rulesets file overrides config) ---
	scoringCfg := cfg.Scoring
	if cfg.Rulesets.Path != "" {
		scoringCfg, err = rulesets.Resolve(cfg.Rulesets.Path, cfg.Rulesets.Profile, log)
		if err != nil {
			zapLog.Fatal("ruleset load failed", zap.Error(err))
		}
		zapLog.Info("Scoring profile loaded",
			zap.String("path", cfg.Rulesets.Path),
			zap.String("profile", cfg.Rulesets.Profile),
		)
	}

	engine, err := scoring.NewEngine(scoringCfg, log)
	if err != nil {
		zapLog.Fatal("scoring engine init failed", zap.Error(err))
	}

	// --- Init customer source ---
	var source pipeline.Source
	var sqlClient *database.SQLClient

	switch cfg.Database.Source.Kind {
	case "csv":
		source = repository.NewCSVStore(cfg.Database.Source.CSVPath, log)
		zapLog.Info("CSV source configured", zap.String("path", cfg.Database.Source.CSVPath))
	default:
		err = retryWithBackoff(func() error {
			var err error
			sqlClient, err = database.NewSQL(cfg.Database.Source)
			if err != nil {
				return err
			}
			// Test the connection with context
			return sqlClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Database connection")

		if err != nil {
			zapLog.Fatal("database failed after retries", zap.Error(err))
		}
		defer sqlClient.Close()
		zapLog.Info("Database connected successfully", zap.String("driver", sqlClient.Driver))

		source = repository.NewCustomerStore(sqlClient, cfg.Database.Source.Table, log)
	}

	// --- Init sinks ---
	sinks := []pipeline.Sink{
		export.NewJSONExporter(cfg.Export.ReportDir, log),
	}

	if sqlClient != nil {
		sinks = append(sinks, repository.NewScoredStore(sqlClient, cfg.Database.Scored.Table, log))
	}

	if cfg.Database.Elasticsearch.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			// Test the connection
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")

		sinks = append(sinks, export.NewESIndexer(esClient, cfg.Database.Elasticsearch.Index, log))
	}

	if cfg.Kafka.Enabled {
		publisher := export.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		defer publisher.Close()
		sinks = append(sinks, publisher)
		zapLog.Info("Kafka publisher configured", zap.Strings("brokers", cfg.Kafka.Brokers))
	}

	// --- Optional collaborators ---
	var opts []pipeline.Option

	if cfg.Database.Redis.Enabled {
		var redis *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			// Test the connection with context
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()
		zapLog.Info("Redis connected successfully")

		opts = append(opts, pipeline.WithCheckpointer(cache.New(redis, log)))
	}

	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		var sesClient notify.SESService
		var snsClient notify.SNSService

		if cfg.Notifications.Email.Enabled {
			sesClient, err = aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
			if err != nil {
				zapLog.Fatal("ses client failed", zap.Error(err))
			}
		}
		if cfg.Notifications.SMS.Enabled {
			snsClient, err = aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
			if err != nil {
				zapLog.Fatal("sns client failed", zap.Error(err))
			}
		}

		opts = append(opts, pipeline.WithAlerter(notify.New(cfg.Notifications, sesClient, snsClient, log)))
		zapLog.Info("Intervention alerting configured")
	}

	// --- Health & Metrics Server ---
	if cfg.Metrics.Enabled {
		go func() {
			http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "healthy",
					"time":   time.Now().Format(time.RFC3339),
				})
			})
			http.Handle("/metrics", promhttp.Handler())
			zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Metrics.Address))
			if err := http.ListenAndServe(cfg.Metrics.Address, nil); err != nil {
				zapLog.Error("Health/Metrics server failed", zap.Error(err))
			}
		}()
	}

	// --- Run the batch ---
	p := pipeline.New(engine, source, sinks, cfg.Pipeline, log, opts...)

	summary, err := p.Run(ctx)
	if err != nil {
		zapLog.Fatal("batch run failed", zap.Error(err))
	}

	obs.RecordBatchDuration(ctx, time.Duration(summary.DurationSeconds*float64(time.Second)), "success")

	zapLog.Info("Batch run complete",
		zap.String("runId", summary.RunID),
		zap.Int("total", summary.Total),
		zap.Int("scored", summary.Scored),
		zap.Int("rejected", summary.Rejected),
		zap.Float64("revenueAtRisk", summary.RevenueAtRisk),
		zap.Float64("seconds", summary.DurationSeconds),
	)

	for category, count := range summary.ByCategory {
		zapLog.Info("Category total", zap.String("category", string(category)), zap.Int("count", count))
	}
}
