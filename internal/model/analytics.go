package model

import "time"

// Server-side fields attached to every stored analytics document.
const (
	FieldServerTimestamp = "server_timestamp"
	FieldIPAddress       = "ip_address"
	FieldUserAgent       = "user_agent"
)

// AnalyticsRow is the denormalized analytics document ready for ClickHouse ingestion.
type AnalyticsRow struct {
	DocumentID  string    `json:"document_id"`
	EventTime   time.Time `json:"event_time"`
	EventDate   time.Time `json:"event_date"`
	EventName   string    `json:"event_name"`
	UserID      string    `json:"user_id"`
	SessionID   string    `json:"session_id"`
	PageURL     string    `json:"page_url"`
	Language    string    `json:"language"`
	UTMSource   string    `json:"utm_source"`
	UTMMedium   string    `json:"utm_medium"`
	UTMCampaign string    `json:"utm_campaign"`
	DeviceType  string    `json:"device_type"`
	Browser     string    `json:"browser"`
	OS          string    `json:"os"`
	IPHash      string    `json:"ip_hash"`
	Payload     string    `json:"payload"`
	IngestedAt  time.Time `json:"_ingested_at"`
}
