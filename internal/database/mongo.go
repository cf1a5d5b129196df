package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Mongo подключение к MongoDB и выбранная база.
type Mongo struct {
	Client *mongo.Client
	DB     *mongo.Database
	Logger *zap.Logger
}

// NewMongo подключается к MongoDB по uri и проверяет соединение.
func NewMongo(ctx context.Context, uri, dbName string, logger *zap.Logger) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	m := &Mongo{Client: client, DB: client.Database(dbName), Logger: logger}
	if err := m.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	logger.Info("MongoDB is connected", zap.String("database", dbName))
	return m, nil
}

// Ping проверяет соединение с MongoDB
func (m *Mongo) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return m.Client.Ping(ctx, readpref.Primary())
}

// Close отключается от MongoDB
func (m *Mongo) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.Client.Disconnect(ctx); err != nil {
		m.Logger.Warn("mongo disconnect", zap.Error(err))
	}
}
