package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"lead-gateway/internal/model"
	"lead-gateway/internal/util"
)

// Enrich transforms a stored analytics document into the ClickHouse-ready schema.
func Enrich(doc map[string]any, ipSalt string) (model.AnalyticsRow, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return model.AnalyticsRow{}, fmt.Errorf("encode payload: %w", err)
	}

	now := time.Now().UTC()
	eventTime := now
	if ts := str(doc, model.FieldServerTimestamp); ts != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			eventTime = parsed.UTC()
		}
	}
	eventDate := time.Date(eventTime.Year(), eventTime.Month(), eventTime.Day(), 0, 0, 0, 0, time.UTC)

	pageURL := str(doc, "page_url", "url", "page")
	utmSource, utmMedium, utmCampaign := parseUTM(doc, pageURL)

	eventName := str(doc, "event", "event_name", "type")
	if eventName == "" {
		eventName = "unknown"
	}

	ua := str(doc, model.FieldUserAgent)
	return model.AnalyticsRow{
		DocumentID:  str(doc, "_id"),
		EventTime:   eventTime,
		EventDate:   eventDate,
		EventName:   eventName,
		UserID:      str(doc, "user_id", "userId"),
		SessionID:   str(doc, "session_id", "sessionId"),
		PageURL:     pageURL,
		Language:    str(doc, "site_language", "language", "lang"),
		UTMSource:   utmSource,
		UTMMedium:   utmMedium,
		UTMCampaign: utmCampaign,
		DeviceType:  util.ParseDeviceType(ua),
		Browser:     util.ParseBrowser(ua),
		OS:          util.ParseOS(ua),
		IPHash:      hashIP(ipSalt, firstIP(str(doc, model.FieldIPAddress))),
		Payload:     string(payload),
		IngestedAt:  now,
	}, nil
}

// str returns the first non-empty string stored under one of keys.
func str(doc map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := doc[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// parseUTM prefers an explicit utm object or top-level utm_* fields and falls
// back to the page URL query.
func parseUTM(doc map[string]any, rawURL string) (source, medium, campaign string) {
	if nested, ok := doc["utm"].(map[string]any); ok {
		source, medium, campaign = str(nested, "utm_source", "source"), str(nested, "utm_medium", "medium"), str(nested, "utm_campaign", "campaign")
	}
	if source == "" {
		source = str(doc, "utm_source")
	}
	if medium == "" {
		medium = str(doc, "utm_medium")
	}
	if campaign == "" {
		campaign = str(doc, "utm_campaign")
	}
	if source != "" || medium != "" || campaign != "" {
		return source, medium, campaign
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", ""
	}
	values := u.Query()
	return values.Get("utm_source"), values.Get("utm_medium"), values.Get("utm_campaign")
}

func firstIP(forwarded string) string {
	first, _, _ := strings.Cut(forwarded, ",")
	return strings.TrimSpace(first)
}

func hashIP(salt, ip string) string {
	hasher := sha256.New()
	hasher.Write([]byte(salt))
	hasher.Write([]byte(ip))
	return hex.EncodeToString(hasher.Sum(nil))
}
