package analytics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lead-gateway/internal/analytics"
)

func TestNewDocumentAttachesServerFields(t *testing.T) {
	at := time.Date(2026, 10, 18, 11, 4, 5, 123000000, time.FixedZone("CEST", 2*60*60))
	event := map[string]any{"foo": "bar", "ip_address": "spoofed"}
	doc := analytics.NewDocument(event, "203.0.113.7", "UA/1", at)

	require.Equal(t, "bar", doc["foo"])
	require.Equal(t, "203.0.113.7", doc["ip_address"])
	require.Equal(t, "UA/1", doc["user_agent"])
	require.Equal(t, "2026-10-18T09:04:05.123Z", doc["server_timestamp"])

	parsed, err := time.Parse(time.RFC3339Nano, doc.String("server_timestamp"))
	require.NoError(t, err)
	require.True(t, parsed.Equal(at))

	require.Equal(t, "spoofed", event["ip_address"], "input map is not modified")
}
