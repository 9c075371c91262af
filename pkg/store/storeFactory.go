package store

import (
	"context"
	"database/sql"
	"fmt"

	"cloud.google.com/go/spanner"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rutalog/dispatch-outbox/pkg/config"

	_ "github.com/lib/pq" // PostgreSQL driver
)

var sqlOpen = sql.Open

var NewSpannerStoreFactory = func(client *spanner.Client) OutboxStore {
	return &SpannerStore{client: client}
}

func NewStore(ctx context.Context, cfg config.DbSettings) (OutboxStore, error) {
	switch cfg.Type {
	case "postgres":
		db, err := sqlOpen("postgres", cfg.DSN)
		if err != nil {
			return nil, err
		}
		return &PostgresStore{db: db}, nil
	case "spanner":
		client, err := spanner.NewClient(ctx, cfg.URI)
		if err != nil {
			return nil, err
		}
		return NewSpannerStoreFactory(client), nil
	case "mongo":
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
		if err != nil {
			return nil, err
		}
		return &MongoStore{db: client.Database(cfg.DBName)}, nil
	default:
		return nil, fmt.Errorf("unsupported DB type: %s", cfg.Type)
	}
}
