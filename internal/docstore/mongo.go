package docstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/huongkhe/schoolsite/internal/infrastructure/config"
)

// mongoDocument is the stored shape. Body keeps the JSON record as an
// embedded document so it stays queryable from the mongo shell.
type mongoDocument struct {
	ID         string    `bson:"_id"`
	SortKey    time.Time `bson:"sort_key"`
	Body       bson.Raw  `bson:"body"`
	SearchText string    `bson:"search_text"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

// MongoStore keeps each content collection in a MongoDB collection of the
// same name.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	now    func() time.Time
}

// ConnectMongo dials MongoDB and verifies the connection.
//
// Parameters:
//   - ctx: Bounds the initial connect and ping
//   - cfg: Mongo section of the store configuration
//
// Returns:
//   - *MongoStore: Connected store
//   - error: If the URI is invalid or the server is unreachable
func ConnectMongo(ctx context.Context, cfg config.MongoConfig) (*MongoStore, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background()) //nolint:errcheck // best effort on error path
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}

	return &MongoStore{
		client: client,
		db:     client.Database(cfg.Database),
		now:    time.Now,
	}, nil
}

// Name implements Store.
func (s *MongoStore) Name() string { return "mongo" }

// EnsureIndexes creates the listing index on each collection.
func (s *MongoStore) EnsureIndexes(ctx context.Context, collections ...string) error {
	for _, name := range collections {
		_, err := s.db.Collection(name).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: "sort_key", Value: -1}},
		})
		if err != nil {
			return fmt.Errorf("creating index on %s: %w", name, err)
		}
	}
	return nil
}

// Find implements Store.
func (s *MongoStore) Find(ctx context.Context, collection string, q Query) ([]Document, error) {
	filter := bson.D{}
	if q.Search != "" {
		filter = bson.D{{Key: "search_text", Value: bson.D{
			{Key: "$regex", Value: regexp.QuoteMeta(q.Search)},
			{Key: "$options", Value: "i"},
		}}}
	}

	dir := -1
	if q.Ascending {
		dir = 1
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "sort_key", Value: dir},
		{Key: "_id", Value: dir},
	})
	if q.Offset > 0 {
		opts.SetSkip(int64(q.Offset))
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cursor, err := s.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", collection, err)
	}

	var stored []mongoDocument
	if err := cursor.All(ctx, &stored); err != nil {
		return nil, fmt.Errorf("reading %s: %w", collection, err)
	}

	docs := make([]Document, 0, len(stored))
	for _, m := range stored {
		doc, err := m.toDocument()
		if err != nil {
			return nil, fmt.Errorf("decoding %s/%s: %w", collection, m.ID, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Get implements Store.
func (s *MongoStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	var m mongoDocument
	err := s.db.Collection(collection).FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting %s/%s: %w", collection, id, err)
	}
	doc, err := m.toDocument()
	if err != nil {
		return nil, fmt.Errorf("decoding %s/%s: %w", collection, id, err)
	}
	return &doc, nil
}

// Insert implements Store.
func (s *MongoStore) Insert(ctx context.Context, collection string, doc Document) error {
	m, err := s.fromDocument(doc)
	if err != nil {
		return err
	}
	if _, err := s.db.Collection(collection).InsertOne(ctx, m); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return rejected("a document with this id already exists", err)
		}
		return fmt.Errorf("inserting %s/%s: %w", collection, doc.ID, err)
	}
	return nil
}

// Replace implements Store.
func (s *MongoStore) Replace(ctx context.Context, collection string, doc Document) error {
	m, err := s.fromDocument(doc)
	if err != nil {
		return err
	}
	res, err := s.db.Collection(collection).ReplaceOne(ctx, bson.D{{Key: "_id", Value: doc.ID}}, m)
	if err != nil {
		return fmt.Errorf("replacing %s/%s: %w", collection, doc.ID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete implements Store.
func (s *MongoStore) Delete(ctx context.Context, collection, id string) error {
	res, err := s.db.Collection(collection).DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("deleting %s/%s: %w", collection, id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// HealthCheck implements Store.
func (s *MongoStore) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongo health check failed: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnecting mongo: %w", err)
	}
	return nil
}

func (s *MongoStore) fromDocument(doc Document) (*mongoDocument, error) {
	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	var body bson.D
	if err := bson.UnmarshalExtJSON(doc.Body, false, &body); err != nil {
		return nil, rejected("document body must be a JSON object", err)
	}
	raw, err := bson.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding body: %w", err)
	}
	text, err := searchText(doc.Body)
	if err != nil {
		return nil, rejected("document body is not valid JSON", err)
	}

	return &mongoDocument{
		ID:         doc.ID,
		SortKey:    doc.SortKey.UTC(),
		Body:       raw,
		SearchText: text,
		UpdatedAt:  s.now().UTC(),
	}, nil
}

func (m mongoDocument) toDocument() (Document, error) {
	body, err := bson.MarshalExtJSON(m.Body, false, false)
	if err != nil {
		return Document{}, err
	}
	return Document{ID: m.ID, SortKey: m.SortKey, Body: body}, nil
}
