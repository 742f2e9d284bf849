// Package activity provides the MongoDB sink for the activity log.
package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/assetflow/backend/internal/domain/activity"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// entryDocument is the stored shape of an activity entry. IDs are kept as
// strings so the collection stays readable from the mongo shell.
type entryDocument struct {
	ID         string         `bson:"_id"`
	ActorID    string         `bson:"actor_id"`
	Action     string         `bson:"action"`
	EntityType string         `bson:"entity_type"`
	EntityID   string         `bson:"entity_id"`
	Summary    string         `bson:"summary"`
	Details    map[string]any `bson:"details,omitempty"`
	CreatedAt  time.Time      `bson:"created_at"`
}

func toDocument(e *activity.Entry) entryDocument {
	return entryDocument{
		ID:         e.ID.String(),
		ActorID:    e.ActorID.String(),
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID.String(),
		Summary:    e.Summary,
		Details:    e.Details,
		CreatedAt:  e.CreatedAt.UTC(),
	}
}

func (d entryDocument) toDomain() activity.Entry {
	return activity.Entry{
		ID:         uuid.MustParse(d.ID),
		ActorID:    parseOrNil(d.ActorID),
		Action:     d.Action,
		EntityType: d.EntityType,
		EntityID:   parseOrNil(d.EntityID),
		Summary:    d.Summary,
		Details:    d.Details,
		CreatedAt:  d.CreatedAt,
	}
}

func parseOrNil(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// MongoStore implements activity.Store on a MongoDB collection
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// Connect opens a client, verifies it with a ping and ensures the indexes
func Connect(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second).
		SetMaxPoolSize(20)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("create mongo client: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	store := NewMongoStore(client, client.Database(database).Collection(collection))
	if err := store.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return store, nil
}

// NewMongoStore wraps an existing collection
func NewMongoStore(client *mongo.Client, collection *mongo.Collection) *MongoStore {
	return &MongoStore{client: client, collection: collection}
}

// EnsureIndexes creates the lookup indexes used by FindAll
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "entity_type", Value: 1}, {Key: "entity_id", Value: 1}}},
		{Keys: bson.D{{Key: "actor_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create activity indexes: %w", err)
	}
	return nil
}

// Record inserts an entry
func (s *MongoStore) Record(ctx context.Context, e *activity.Entry) error {
	_, err := s.collection.InsertOne(ctx, toDocument(e))
	return err
}

// FindAll lists entries, newest first
func (s *MongoStore) FindAll(ctx context.Context, filter activity.Filter) ([]activity.Entry, int64, error) {
	query := buildQuery(filter)

	total, err := s.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(filter.Offset())).
		SetLimit(int64(filter.Limit()))
	cursor, err := s.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var docs []entryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, err
	}
	entries := make([]activity.Entry, len(docs))
	for i, d := range docs {
		entries[i] = d.toDomain()
	}
	return entries, total, nil
}

func buildQuery(filter activity.Filter) bson.M {
	query := bson.M{}
	if filter.ActorID != nil {
		query["actor_id"] = filter.ActorID.String()
	}
	if filter.EntityType != "" {
		query["entity_type"] = filter.EntityType
	}
	if filter.EntityID != nil {
		query["entity_id"] = filter.EntityID.String()
	}
	if filter.Since != nil {
		query["created_at"] = bson.M{"$gte": filter.Since.UTC()}
	}
	return query
}

// Close disconnects the client
func (s *MongoStore) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

var _ activity.Store = (*MongoStore)(nil)
