package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"lead-gateway/internal/analytics"
	"lead-gateway/internal/api"
	"lead-gateway/internal/capi"
	"lead-gateway/internal/config"
	"lead-gateway/internal/crm"
	"lead-gateway/internal/httpx"
	ikafka "lead-gateway/internal/kafka"
	"lead-gateway/internal/lead"
	"lead-gateway/internal/notify"
	"lead-gateway/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", slog.String("err", err.Error()))
		os.Exit(1)
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := telemetry.New(reg)
	client := httpx.NewHTTPClient(cfg.HTTPTimeout)

	forwarder := capi.NewForwarder(cfg.Facebook, client, log, metrics)
	if cfg.Facebook.AccessToken == "" {
		log.Warn("FACEBOOK_ACCESS_TOKEN is not set; conversion requests will fail")
	}

	deps := lead.Deps{
		Conversions: forwarder,
		Offers:      cfg.Offers,
		Log:         log,
		Metrics:     metrics,
	}
	if cfg.CAPILoopback {
		deps.Conversions = capi.NewLoopbackClient(client, cfg.CAPILoopbackBaseURL)
		if cfg.CAPILoopbackBaseURL == "" {
			log.Warn("CAPI_LOOPBACK_BASE_URL is not set; loopback target follows the request Host and X-Forwarded-Host headers")
		}
	}
	if cfg.CRM != nil {
		deps.CRM = crm.NewClient(*cfg.CRM, client)
	} else {
		log.Info("amoCRM credentials not set; crm stage disabled")
	}
	if cfg.Telegram != nil {
		deps.Notifier = notify.NewTelegram(*cfg.Telegram, client)
	} else {
		log.Info("telegram credentials not set; notify stage disabled")
	}

	sink := newSink(cfg, log)

	router := api.NewRouter(api.Deps{
		Forwarder:        forwarder,
		Leads:            lead.New(deps),
		Sink:             sink,
		Log:              log,
		Metrics:          metrics,
		Registerer:       reg,
		Gatherer:         reg,
		CORSAllowOrigins: cfg.CORSAllowOrigins,
		MaxBodyBytes:     cfg.Analytics.MaxBodyBytes,
	})

	server := &http.Server{
		Addr:              cfg.LeadAPIAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("starting lead API", slog.String("addr", cfg.LeadAPIAddr), slog.String("analytics_backend", sink.Backend()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("lead API server failed", slog.String("err", err.Error()))
			os.Exit(1)
		}
	}()

	graceful(server, sink, log)
}

func newSink(cfg config.Config, log *slog.Logger) analytics.Sink {
	if cfg.Analytics.Backend == config.BackendKafka {
		return analytics.NewKafkaSink(ikafka.NewWriter(cfg.KafkaBrokers, cfg.Analytics.KafkaTopic, cfg.HTTPTimeout))
	}
	if cfg.Analytics.MongoURI == "" {
		log.Warn("MONGODB_URI is not set; analytics writes will fail")
	}
	return analytics.NewMongoSink(cfg.Analytics)
}

func graceful(server *http.Server, sink analytics.Sink, log *slog.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("shutting down lead API")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("shutdown", slog.String("err", err.Error()))
	}
	if err := sink.Close(ctx); err != nil {
		log.Error("close analytics sink", slog.String("err", err.Error()))
	}
}
