// Package telemetry holds the domain Prometheus collectors. A nil *Collectors
// is valid and records nothing.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Collectors struct {
	capiEvents      *prometheus.CounterVec
	leadStages      *prometheus.CounterVec
	analyticsStored *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Collectors {
	factory := promauto.With(reg)
	return &Collectors{
		capiEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "capi_events_total",
			Help: "Conversion events forwarded to the ad platform by outcome",
		}, []string{"outcome"}),
		leadStages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lead_stage_total",
			Help: "Lead intake stage results",
		}, []string{"stage", "status"}),
		analyticsStored: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "analytics_events_stored_total",
			Help: "Analytics documents handed to the store by backend and outcome",
		}, []string{"backend", "outcome"}),
	}
}

func (c *Collectors) CAPIOutcome(outcome string) {
	if c == nil {
		return
	}
	c.capiEvents.WithLabelValues(outcome).Inc()
}

func (c *Collectors) LeadStage(stage, status string) {
	if c == nil {
		return
	}
	c.leadStages.WithLabelValues(stage, status).Inc()
}

func (c *Collectors) AnalyticsStored(backend, outcome string) {
	if c == nil {
		return
	}
	c.analyticsStored.WithLabelValues(backend, outcome).Inc()
}
