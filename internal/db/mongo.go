package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"carbon-offset/offset-portal/offset-portal-backend/internal/config"
)

// ErrDocumentStoreDisabled means no MongoDB URI is configured
var ErrDocumentStoreDisabled = errors.New("document store is not configured")

const mongoConnectTimeout = 10 * time.Second

// OpenMongo connects to the configured document store and pings it.
// The caller disconnects the returned client.
func OpenMongo(ctx context.Context, cfg config.DocumentStoreConfig) (*mongo.Client, *mongo.Database, error) {
	if cfg.URI == "" {
		return nil, nil, ErrDocumentStoreDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to document store: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping document store: %w", err)
	}
	return client, client.Database(cfg.Database), nil
}
