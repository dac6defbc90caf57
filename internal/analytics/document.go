// Package analytics stores browser analytics events, one immutable document
// per submission.
package analytics

import (
	"context"
	"time"

	"lead-gateway/internal/model"
)

// TimestampLayout matches JavaScript's Date.prototype.toISOString.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Document is a client event plus the server-side fields.
type Document map[string]any

// NewDocument copies event and attaches server_timestamp, ip_address and
// user_agent. Server fields replace client fields of the same name.
func NewDocument(event map[string]any, ip, userAgent string, at time.Time) Document {
	doc := make(Document, len(event)+3)
	for k, v := range event {
		doc[k] = v
	}
	doc[model.FieldServerTimestamp] = at.UTC().Format(TimestampLayout)
	doc[model.FieldIPAddress] = ip
	doc[model.FieldUserAgent] = userAgent
	return doc
}

// String returns the string value stored under key, or "".
func (d Document) String(key string) string {
	s, _ := d[key].(string)
	return s
}

// Sink persists documents and returns the id the store assigned.
type Sink interface {
	Store(ctx context.Context, doc Document) (string, error)
	Backend() string
	Close(ctx context.Context) error
}
