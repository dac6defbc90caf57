package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lead-gateway/internal/ch"
	"lead-gateway/internal/config"
	ikafka "lead-gateway/internal/kafka"
	"lead-gateway/internal/model"
	"lead-gateway/internal/pipeline"
	"lead-gateway/internal/util"
	"lead-gateway/pkg/batcher"
)

const consumerGroup = "analytics-loader"

var (
	batchSizeHistogram = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "loader_batch_size",
		Help:    "Histogram of ClickHouse batch sizes",
		Buckets: []float64{1, 10, 50, 100, 250, 500, 1000, 2000},
	})
	insertDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "loader_insert_duration_seconds",
		Help:    "Duration of ClickHouse insert operations",
		Buckets: prometheus.DefBuckets,
	})
	insertErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "loader_insert_errors_total",
		Help: "Total ClickHouse insert failures",
	})
	skippedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loader_skipped_events_total",
		Help: "Analytics documents dropped before loading",
	}, []string{"reason"})
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", slog.String("err", err.Error()))
		os.Exit(1)
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client, err := ch.New(ctx, cfg.ClickHouseDSN)
	if err != nil {
		log.Error("clickhouse", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer client.Close()
	if err := client.EnsureSchema(ctx); err != nil {
		log.Error("ensure schema", slog.String("err", err.Error()))
		os.Exit(1)
	}

	reader := ikafka.NewReader(cfg.KafkaBrokers, cfg.Analytics.KafkaTopic, consumerGroup)
	defer reader.Close()

	flusher := func(ctx context.Context, rows []model.AnalyticsRow) error {
		return insertWithRetry(ctx, client, rows)
	}
	b := batcher.New[model.AnalyticsRow](ctx, cfg.BatchSize, cfg.BatchInterval, flusher)
	defer func() {
		if err := b.Close(); err != nil {
			log.Error("final flush", slog.String("err", err.Error()))
		}
	}()

	go serveMetrics(cfg.LoaderMetricsAddr, log)

	log.Info("loader started", slog.String("topic", cfg.Analytics.KafkaTopic), slog.Int("batch_size", cfg.BatchSize))
	for {
		m, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Warn("read analytics message", slog.String("err", err.Error()))
			time.Sleep(time.Second)
			continue
		}
		var doc map[string]any
		if err := json.Unmarshal(m.Value, &doc); err != nil {
			skippedEvents.WithLabelValues("decode").Inc()
			log.Warn("decode analytics document", slog.Int64("offset", m.Offset), slog.String("err", err.Error()))
			continue
		}
		if ua, _ := doc[model.FieldUserAgent].(string); util.IsBot(ua, cfg.BotUserAgents) {
			skippedEvents.WithLabelValues("bot").Inc()
			continue
		}
		row, err := pipeline.Enrich(doc, cfg.IPHashSalt)
		if err != nil {
			skippedEvents.WithLabelValues("enrich").Inc()
			log.Warn("enrich analytics document", slog.Int64("offset", m.Offset), slog.String("err", err.Error()))
			continue
		}
		if err := b.Add(row); err != nil {
			log.Error("batch add failed", slog.String("err", err.Error()))
		}
	}
	log.Info("loader shutdown complete")
}

func insertWithRetry(ctx context.Context, client *ch.Client, rows []model.AnalyticsRow) error {
	const maxAttempts = 5
	backoff := 200 * time.Millisecond
	start := time.Now()
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		insertCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := client.InsertBatch(insertCtx, rows)
		cancel()
		if err == nil {
			insertDuration.Observe(time.Since(start).Seconds())
			batchSizeHistogram.Observe(float64(len(rows)))
			return nil
		}
		insertErrors.Inc()
		if attempt == maxAttempts {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, 5*time.Second)
	}
	return nil
}

func serveMetrics(addr string, log *slog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("loader metrics server failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
}
