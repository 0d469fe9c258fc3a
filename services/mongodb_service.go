package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pnodewatch/config"
	"pnodewatch/models"
)

// MongoDBService persists periodic snapshots for trend queries. When
// MongoDB is disabled the service degrades to no-ops so the rest of the
// pipeline never has to care.
type MongoDBService struct {
	client  *mongo.Client
	db      *mongo.Database
	enabled bool
}

const (
	CollectionNetworkSnapshots = "network_snapshots"
	CollectionNodeSnapshots    = "node_snapshots"
	CollectionAlertEvents      = "alert_events"
)

func NewMongoDBService(cfg *config.Config) (*MongoDBService, error) {
	if !cfg.MongoDB.Enabled {
		log.Println("MongoDB is disabled in configuration")
		return &MongoDBService{enabled: false}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.MongoDB.URI)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(cfg.MongoDB.Database)

	service := &MongoDBService{
		client:  client,
		db:      db,
		enabled: true,
	}

	if err := service.createIndexes(ctx); err != nil {
		log.Printf("Warning: Failed to create indexes: %v", err)
	}

	log.Printf("MongoDB connected successfully to database: %s", cfg.MongoDB.Database)
	return service, nil
}

func (m *MongoDBService) Enabled() bool {
	return m.enabled
}

func (m *MongoDBService) createIndexes(ctx context.Context) error {
	if !m.enabled {
		return nil
	}

	_, err := m.db.Collection(CollectionNetworkSnapshots).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "network", Value: 1}, {Key: "timestamp", Value: -1}},
		Options: options.Index().SetName("network_timestamp"),
	})
	if err != nil {
		return err
	}

	_, err = m.db.Collection(CollectionNodeSnapshots).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "node_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("node_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("timestamp_desc"),
		},
	})
	if err != nil {
		return err
	}

	_, err = m.db.Collection(CollectionAlertEvents).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "timestamp", Value: -1}},
		Options: options.Index().SetName("timestamp_desc"),
	})

	return err
}

func (m *MongoDBService) Close() error {
	if !m.enabled || m.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

// ============================================
// INSERT METHODS
// ============================================

func (m *MongoDBService) InsertNetworkSnapshot(ctx context.Context, snapshot *models.NetworkSnapshot) error {
	if !m.enabled {
		return nil
	}
	_, err := m.db.Collection(CollectionNetworkSnapshots).InsertOne(ctx, snapshot)
	return err
}

func (m *MongoDBService) InsertNodeSnapshots(ctx context.Context, snapshots []*models.NodeSnapshot) error {
	if !m.enabled || len(snapshots) == 0 {
		return nil
	}

	docs := make([]interface{}, len(snapshots))
	for i, s := range snapshots {
		docs[i] = s
	}

	_, err := m.db.Collection(CollectionNodeSnapshots).InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	return err
}

func (m *MongoDBService) InsertAlertEvent(ctx context.Context, event *models.AlertEvent) error {
	if !m.enabled {
		return nil
	}
	_, err := m.db.Collection(CollectionAlertEvents).InsertOne(ctx, event)
	return err
}

// ============================================
// QUERY METHODS
// ============================================

// GetNetworkSnapshots returns snapshots for a network within the lookback
// window, oldest first.
func (m *MongoDBService) GetNetworkSnapshots(ctx context.Context, network string, since time.Time) ([]models.NetworkSnapshot, error) {
	if !m.enabled {
		return nil, fmt.Errorf("MongoDB not enabled")
	}

	filter := bson.M{
		"timestamp": bson.M{"$gte": since},
	}
	if network != "" && network != "all" {
		filter["network"] = network
	}

	cursor, err := m.db.Collection(CollectionNetworkSnapshots).Find(ctx, filter,
		options.Find().SetSort(bson.M{"timestamp": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []models.NetworkSnapshot
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}

	return results, nil
}

// GetNodeSnapshots returns snapshots for one node within the lookback
// window, oldest first.
func (m *MongoDBService) GetNodeSnapshots(ctx context.Context, nodeID string, since time.Time) ([]models.NodeSnapshot, error) {
	if !m.enabled {
		return nil, fmt.Errorf("MongoDB not enabled")
	}

	cursor, err := m.db.Collection(CollectionNodeSnapshots).Find(ctx, bson.M{
		"node_id":   nodeID,
		"timestamp": bson.M{"$gte": since},
	}, options.Find().SetSort(bson.M{"timestamp": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []models.NodeSnapshot
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}

	return results, nil
}

// GetRecentAlertEvents returns the newest alert events up to limit.
func (m *MongoDBService) GetRecentAlertEvents(ctx context.Context, limit int64) ([]models.AlertEvent, error) {
	if !m.enabled {
		return nil, fmt.Errorf("MongoDB not enabled")
	}

	cursor, err := m.db.Collection(CollectionAlertEvents).Find(ctx, bson.M{},
		options.Find().SetSort(bson.M{"timestamp": -1}).SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []models.AlertEvent
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}

	return results, nil
}

// PruneSnapshots deletes snapshots older than the retention window.
func (m *MongoDBService) PruneSnapshots(ctx context.Context, retention time.Duration) error {
	if !m.enabled {
		return nil
	}

	cutoff := time.Now().Add(-retention)
	filter := bson.M{"timestamp": bson.M{"$lt": cutoff}}

	for _, collection := range []string{CollectionNetworkSnapshots, CollectionNodeSnapshots} {
		res, err := m.db.Collection(collection).DeleteMany(ctx, filter)
		if err != nil {
			return err
		}
		if res.DeletedCount > 0 {
			log.Printf("Pruned %d documents from %s", res.DeletedCount, collection)
		}
	}

	return nil
}
