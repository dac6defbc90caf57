// Package capi forwards conversion events to the Facebook Conversions API.
package capi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"lead-gateway/internal/apperr"
	"lead-gateway/internal/config"
	"lead-gateway/internal/httpx"
	"lead-gateway/internal/model"
	"lead-gateway/internal/telemetry"
)

const serviceName = "Facebook"

// Forwarder hashes and posts conversion events to the ad platform.
type Forwarder struct {
	cfg     config.FacebookConfig
	client  httpx.HTTPClient
	log     *slog.Logger
	metrics *telemetry.Collectors
	now     func() time.Time
}

// NewForwarder builds a Forwarder. metrics may be nil.
func NewForwarder(cfg config.FacebookConfig, client httpx.HTTPClient, log *slog.Logger, metrics *telemetry.Collectors) *Forwarder {
	if cfg.APIVersion == "" {
		cfg.APIVersion = config.FacebookAPIVersion
	}
	return &Forwarder{cfg: cfg, client: client, log: log, metrics: metrics, now: time.Now}
}

type eventsRequest struct {
	Data          []model.ConversionEvent `json:"data"`
	TestEventCode string                  `json:"test_event_code,omitempty"`
	AccessToken   string                  `json:"access_token"`
}

type eventsResponse struct {
	EventsReceived int             `json:"events_received"`
	FBTraceID      string          `json:"fbtrace_id"`
	Error          json.RawMessage `json:"error"`
}

// EventsURL is the Conversions API endpoint for the configured pixel.
func (f *Forwarder) EventsURL() string {
	return fmt.Sprintf("%s/%s/%s/events", f.cfg.GraphURL, f.cfg.APIVersion, f.cfg.PixelID)
}

// Forward validates req, hashes its user data and sends it as a single event.
func (f *Forwarder) Forward(ctx context.Context, req model.ConversionRequest, meta model.RequestMeta) (model.ConversionResult, error) {
	if f.cfg.AccessToken == "" {
		f.log.Error("facebook access token not configured")
		f.metrics.CAPIOutcome("config_error")
		return model.ConversionResult{}, apperr.Configuration("Server configuration error")
	}
	if req.EventName == "" || req.EventID == "" {
		f.metrics.CAPIOutcome("invalid")
		return model.ConversionResult{}, apperr.Validation("Missing required fields: event_name, event_id")
	}

	event := f.BuildEvent(req, meta)
	f.log.Info("sending conversion event",
		slog.String("event_name", event.EventName),
		slog.String("event_id", event.EventID),
		slog.String("client_ip", meta.ClientIP),
		slog.Bool("has_email", event.UserData.Em != ""),
		slog.Bool("has_phone", event.UserData.Ph != ""),
	)

	resp, err := httpx.PostJSON(ctx, f.client, f.EventsURL(), nil, eventsRequest{
		Data:          []model.ConversionEvent{event},
		TestEventCode: f.cfg.TestEventCode,
		AccessToken:   f.cfg.AccessToken,
	})
	if err != nil {
		f.metrics.CAPIOutcome("transport_error")
		f.log.Error("conversion event request failed", slog.String("event_id", event.EventID), slog.String("err", err.Error()))
		return model.ConversionResult{}, fmt.Errorf("post conversion event: %w", err)
	}

	var body eventsResponse
	decodeErr := json.Unmarshal(resp.Body, &body)
	if !resp.OK() || (decodeErr == nil && hasError(body.Error)) {
		f.metrics.CAPIOutcome("upstream_error")
		f.log.Error("conversion api error",
			slog.String("event_id", event.EventID),
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(resp.Body)),
		)
		return model.ConversionResult{}, &apperr.UpstreamError{Service: serviceName, StatusCode: resp.StatusCode, Body: resp.Body}
	}
	if decodeErr != nil {
		f.metrics.CAPIOutcome("upstream_error")
		return model.ConversionResult{}, fmt.Errorf("decode conversion api response: %w", decodeErr)
	}

	f.metrics.CAPIOutcome("success")
	f.log.Info("conversion event accepted",
		slog.String("event_name", event.EventName),
		slog.String("event_id", event.EventID),
		slog.Int("events_received", body.EventsReceived),
		slog.String("fbtrace_id", body.FBTraceID),
	)
	return model.ConversionResult{
		Success:        true,
		EventsReceived: body.EventsReceived,
		FBTraceID:      body.FBTraceID,
		EventID:        event.EventID,
	}, nil
}

// BuildEvent assembles the outbound event. event_data and utm are merged into
// custom_data with utm keys taking precedence.
func (f *Forwarder) BuildEvent(req model.ConversionRequest, meta model.RequestMeta) model.ConversionEvent {
	custom := make(map[string]any, len(req.EventData)+len(req.UTM))
	for k, v := range req.EventData {
		custom[k] = v
	}
	for k, v := range req.UTM {
		custom[k] = v
	}
	sourceURL, _ := req.EventData["page_url"].(string)
	if sourceURL == "" {
		sourceURL = meta.Referer
	}
	return model.ConversionEvent{
		EventName:      req.EventName,
		EventTime:      f.now().Unix(),
		EventID:        req.EventID,
		ActionSource:   model.ActionSourceWebsite,
		EventSourceURL: sourceURL,
		UserData:       HashUserData(req.UserData, meta),
		CustomData:     custom,
	}
}

func hasError(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

