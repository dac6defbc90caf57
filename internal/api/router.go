// Package api exposes the lead gateway endpoints over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lead-gateway/internal/analytics"
	"lead-gateway/internal/capi"
	"lead-gateway/internal/httpx"
	"lead-gateway/internal/lead"
	"lead-gateway/internal/model"
	"lead-gateway/internal/telemetry"
)

const (
	SubmitLeadPath     = "/api/submit-lead"
	AnalyticsPath      = "/api/analytics"
	LocalizedAnalytics = "/ru/api/analytics"

	defaultMaxBodyBytes = 64 << 10
	metricsServiceLabel = "lead_api"
)

// LeadSubmitter runs the lead intake stages.
type LeadSubmitter interface {
	Submit(ctx context.Context, sub model.LeadSubmission, meta model.RequestMeta) (lead.Outcome, error)
}

// Deps wires the router.
type Deps struct {
	Forwarder        lead.ConversionSender
	Leads            LeadSubmitter
	Sink             analytics.Sink
	Log              *slog.Logger
	Metrics          *telemetry.Collectors
	Registerer       prometheus.Registerer
	Gatherer         prometheus.Gatherer
	CORSAllowOrigins []string
	MaxBodyBytes     int64
}

type server struct {
	forwarder lead.ConversionSender
	leads     LeadSubmitter
	sink      analytics.Sink
	log       *slog.Logger
	metrics   *telemetry.Collectors
	maxBody   int64
	now       func() time.Time
}

// NewRouter builds the gin engine with the three public endpoints plus
// /healthz and /metrics.
func NewRouter(d Deps) *gin.Engine {
	if d.Registerer == nil {
		d.Registerer = prometheus.DefaultRegisterer
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.MaxBodyBytes <= 0 {
		d.MaxBodyBytes = defaultMaxBodyBytes
	}
	s := &server{
		forwarder: d.Forwarder,
		leads:     d.Leads,
		sink:      d.Sink,
		log:       d.Log,
		metrics:   d.Metrics,
		maxBody:   d.MaxBodyBytes,
		now:       time.Now,
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(httpx.NewHTTPMetrics(d.Registerer, metricsServiceLabel).Handler())
	router.Use(httpx.RequestLogger(d.Log))
	router.Use(httpx.CORSMiddleware(d.CORSAllowOrigins))
	router.NoMethod(httpx.MethodNotAllowed)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))

	register(router, capi.EndpointPath, s.handleConversion)
	register(router, SubmitLeadPath, s.handleSubmitLead)
	register(router, AnalyticsPath, s.handleAnalytics)
	register(router, LocalizedAnalytics, s.handleAnalytics)
	return router
}

func register(r gin.IRoutes, path string, h gin.HandlerFunc) {
	r.OPTIONS(path, httpx.Preflight)
	r.POST(path, h)
}

func requestMeta(c *gin.Context) model.RequestMeta {
	return model.RequestMeta{
		ClientIP:  httpx.ClientIP(c.Request),
		UserAgent: c.GetHeader("User-Agent"),
		Referer:   c.GetHeader("Referer"),
		BaseURL:   httpx.BaseURL(c.Request),
	}
}
