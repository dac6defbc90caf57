package pipeline_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lead-gateway/internal/pipeline"
)

func TestEnrichAddsMetadata(t *testing.T) {
	doc := map[string]any{
		"_id":              "9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d",
		"event":            "form_submit",
		"page_url":         "https://landing.example.com/de?utm_source=ads&utm_medium=cpc&utm_campaign=launch",
		"session_id":       "session-1",
		"user_id":          "user-1",
		"site_language":    "de",
		"server_timestamp": "2026-10-18T09:04:05.123Z",
		"ip_address":       "1.2.3.4, 10.0.0.1",
		"user_agent":       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0",
	}

	row, err := pipeline.Enrich(doc, "salt")
	require.NoError(t, err)
	require.Equal(t, "9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d", row.DocumentID)
	require.Equal(t, "form_submit", row.EventName)
	require.Equal(t, time.Date(2026, 10, 18, 9, 4, 5, 123000000, time.UTC), row.EventTime)
	require.Equal(t, time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC), row.EventDate)
	require.Equal(t, "ads", row.UTMSource)
	require.Equal(t, "cpc", row.UTMMedium)
	require.Equal(t, "launch", row.UTMCampaign)
	require.Equal(t, "de", row.Language)
	require.Equal(t, "chrome", row.Browser)
	require.Equal(t, "desktop", row.DeviceType)
	require.Equal(t, "windows", row.OS)
	require.Len(t, row.IPHash, 64)
	require.Equal(t, "user-1", row.UserID)
	require.Equal(t, "session-1", row.SessionID)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(row.Payload), &payload))
	require.Equal(t, "form_submit", payload["event"])
}

func TestEnrichPrefersExplicitUTM(t *testing.T) {
	doc := map[string]any{
		"type": "page_view",
		"url":  "https://landing.example.com/?utm_source=query",
		"utm":  map[string]any{"utm_source": "facebook", "utm_campaign": "spring"},
	}
	row, err := pipeline.Enrich(doc, "salt")
	require.NoError(t, err)
	require.Equal(t, "page_view", row.EventName)
	require.Equal(t, "facebook", row.UTMSource)
	require.Equal(t, "spring", row.UTMCampaign)
	require.Equal(t, "", row.UTMMedium)
}

func TestEnrichHashesFirstForwardedIP(t *testing.T) {
	a, err := pipeline.Enrich(map[string]any{"ip_address": "1.2.3.4, 10.0.0.1"}, "salt")
	require.NoError(t, err)
	b, err := pipeline.Enrich(map[string]any{"ip_address": "1.2.3.4"}, "salt")
	require.NoError(t, err)
	c, err := pipeline.Enrich(map[string]any{"ip_address": "1.2.3.4"}, "pepper")
	require.NoError(t, err)
	require.Equal(t, a.IPHash, b.IPHash)
	require.NotEqual(t, b.IPHash, c.IPHash)
	require.Equal(t, "unknown", a.EventName)
}
