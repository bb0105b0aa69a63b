package config

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	mongoConnectTimeout = 10 * time.Second
	mongoMaxRetries     = 5
	mongoRetryDelay     = 3 * time.Second
)

// ConnectMongo dials mongo with retries and verifies the connection with a
// ping before handing it out.
func ConnectMongo(cfg Config) (*mongo.Client, *mongo.Database, error) {
	var lastErr error
	for attempt := 1; attempt <= mongoMaxRetries; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err == nil {
			err = client.Ping(ctx, readpref.Primary())
		}
		cancel()
		if err == nil {
			log.Printf("connected to mongo database %q", cfg.MongoDB)
			return client, client.Database(cfg.MongoDB), nil
		}
		lastErr = err
		log.Printf("mongo connect attempt %d/%d failed: %v", attempt, mongoMaxRetries, err)
		time.Sleep(mongoRetryDelay)
	}
	return nil, nil, fmt.Errorf("connect to mongo after %d attempts: %w", mongoMaxRetries, lastErr)
}
