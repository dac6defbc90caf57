package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"lead-gateway/internal/apperr"
	"lead-gateway/internal/config"
	"lead-gateway/pkg/lazy"
)

// ErrNotConfigured is returned for every write when no connection string is set.
var ErrNotConfigured = errors.New("analytics storage not configured: MONGODB_URI is not set")

// MongoSink inserts documents into a MongoDB collection. The client is
// connected on first use and shared by all requests.
type MongoSink struct {
	cfg    config.AnalyticsConfig
	client *lazy.Value[*mongo.Client]
}

func NewMongoSink(cfg config.AnalyticsConfig) *MongoSink {
	s := &MongoSink{cfg: cfg}
	s.client = lazy.New(s.connect)
	return s
}

func (s *MongoSink) Backend() string { return config.BackendMongo }

func (s *MongoSink) connect(ctx context.Context) (*mongo.Client, error) {
	if s.cfg.MongoURI == "" {
		return nil, ErrNotConfigured
	}
	opts := options.Client().
		ApplyURI(s.cfg.MongoURI).
		SetConnectTimeout(5 * time.Second).
		SetServerSelectionTimeout(5 * time.Second)
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return client, nil
}

// Store inserts doc and returns the generated ObjectID in hex.
func (s *MongoSink) Store(ctx context.Context, doc Document) (string, error) {
	client, err := s.client.Get(ctx)
	if err != nil {
		return "", &apperr.StorageError{Op: "open analytics store", Err: err}
	}
	coll := client.Database(s.cfg.MongoDatabase).Collection(s.cfg.MongoCollection)
	res, err := coll.InsertOne(ctx, bson.M(doc))
	if err != nil {
		return "", &apperr.StorageError{Op: "insert analytics event", Err: err}
	}
	return insertedID(res.InsertedID), nil
}

// Close disconnects the shared client if one was opened.
func (s *MongoSink) Close(ctx context.Context) error {
	client, ok := s.client.Reset()
	if !ok {
		return nil
	}
	return client.Disconnect(ctx)
}

func insertedID(id any) string {
	switch v := id.(type) {
	case bson.ObjectID:
		return v.Hex()
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
