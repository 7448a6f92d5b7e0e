package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const auditCollection = "analysis_audit"

// MongoAuditStore writes audit records to the analysis_audit collection.
type MongoAuditStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoAuditStore connects and pings MongoDB, then ensures the completed_at index.
func NewMongoAuditStore(ctx context.Context, uri, dbName string) (*MongoAuditStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	collection := client.Database(dbName).Collection(auditCollection)
	_, err = collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "completed_at", Value: 1}},
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create audit index: %w", err)
	}

	log.Println("✅ Connected to MongoDB successfully!")
	return &MongoAuditStore{client: client, collection: collection}, nil
}

// Record inserts one audit record.
func (s *MongoAuditStore) Record(ctx context.Context, rec AuditRecord) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := s.collection.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("failed to insert audit record: %w", err)
	}
	return nil
}

// Prune deletes records older than cutoff.
func (s *MongoAuditStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	filter := bson.M{"completed_at": bson.M{"$lt": cutoff.UTC()}}
	res, err := s.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to prune audit records: %w", err)
	}
	return res.DeletedCount, nil
}

// Close closes MongoDB connection
func (s *MongoAuditStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil {
		return err
	}
	log.Println("MongoDB connection closed")
	return nil
}
