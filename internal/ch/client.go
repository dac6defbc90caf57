package ch

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"

	"lead-gateway/internal/model"
)

// Client wraps a ClickHouse connection.
type Client struct {
	db *sql.DB
}

// New creates a ClickHouse client from a DSN.
func New(ctx context.Context, dsn string) (*Client, error) {
	db, err := sql.Open("clickhouse", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxIdleConns(5)
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Client{db: db}, nil
}

// Close releases database resources.
func (c *Client) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// EnsureSchema creates the analytics_events table if it does not exist.
// ReplacingMergeTree on document_id collapses redelivered Kafka messages.
func (c *Client) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS analytics_events
(
  document_id      String,
  event_time       DateTime64(3, 'UTC'),
  event_date       Date,
  event_name       LowCardinality(String),
  user_id          String,
  session_id       String,
  page_url         String,
  language         LowCardinality(String),
  utm_source       LowCardinality(String),
  utm_medium       LowCardinality(String),
  utm_campaign     LowCardinality(String),
  device_type      LowCardinality(String),
  browser          LowCardinality(String),
  os               LowCardinality(String),
  ip_hash          FixedString(64),
  payload          String,
  _ingested_at     DateTime64(3, 'UTC')
)
ENGINE = ReplacingMergeTree(_ingested_at)
PARTITION BY toYYYYMM(event_date)
ORDER BY (event_date, event_name, document_id)`
	_, err := c.db.ExecContext(ctx, ddl)
	return err
}

// InsertBatch writes a batch of rows with a single prepared statement.
func (c *Client) InsertBatch(ctx context.Context, rows []model.AnalyticsRow) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO analytics_events (
	document_id, event_time, event_date, event_name, user_id, session_id,
	page_url, language, utm_source, utm_medium, utm_campaign,
	device_type, browser, os, ip_hash, payload, _ingested_at
) VALUES (
	?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(
			ctx,
			row.DocumentID,
			row.EventTime,
			row.EventDate,
			row.EventName,
			row.UserID,
			row.SessionID,
			row.PageURL,
			row.Language,
			row.UTMSource,
			row.UTMMedium,
			row.UTMCampaign,
			row.DeviceType,
			row.Browser,
			row.OS,
			row.IPHash,
			row.Payload,
			row.IngestedAt,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// CountEvents returns the total rows, useful for smoke checks.
func (c *Client) CountEvents(ctx context.Context) (int64, error) {
	row := c.db.QueryRowContext(ctx, `SELECT count() FROM analytics_events`)
	var total int64
	if err := row.Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// Ping ensures the database is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return fmt.Errorf("clickhouse ping: %w", err)
	}
	return nil
}
