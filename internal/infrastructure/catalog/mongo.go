package catalog

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/recommender/backend/internal/domain"
)

// productDocument mirrors the products collection schema
type productDocument struct {
	ProductID    string   `bson:"product_id"`
	Name         string   `bson:"name"`
	Category     string   `bson:"category"`
	Price        float64  `bson:"price"`
	Description  string   `bson:"description"`
	Features     []string `bson:"features"`
	Rating       float64  `bson:"rating"`
	ReviewsCount int      `bson:"reviews_count"`
}

func (d productDocument) toDomain() domain.CatalogItem {
	return domain.CatalogItem{
		ProductID:    d.ProductID,
		Name:         d.Name,
		Category:     d.Category,
		Price:        d.Price,
		Description:  d.Description,
		Features:     d.Features,
		Rating:       d.Rating,
		ReviewsCount: d.ReviewsCount,
	}
}

// MongoConfig holds document store connection settings
type MongoConfig struct {
	URI            string
	Database       string
	Collection     string
	ConnectTimeout time.Duration
}

// MongoStore reads catalog records from a MongoDB collection
type MongoStore struct {
	collection *mongo.Collection
}

// NewMongoStore wraps an existing collection handle
func NewMongoStore(collection *mongo.Collection) *MongoStore {
	return &MongoStore{collection: collection}
}

// ConnectMongo dials MongoDB, verifies the connection and returns the store
// together with the client so the caller can disconnect on shutdown.
func ConnectMongo(ctx context.Context, cfg MongoConfig) (*MongoStore, *mongo.Client, error) {
	timeout := cfg.ConnectTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	collection := client.Database(cfg.Database).Collection(cfg.Collection)
	return NewMongoStore(collection), client, nil
}

// FindByProductIDs issues a single $in query for all ids
func (s *MongoStore) FindByProductIDs(ctx context.Context, ids []string) (map[string]domain.CatalogItem, error) {
	unique := dedupe(ids)
	if len(unique) == 0 {
		return map[string]domain.CatalogItem{}, nil
	}

	cursor, err := s.collection.Find(ctx, productIDFilter(unique))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	defer cursor.Close(ctx)

	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: failed to decode products: %v", domain.ErrCatalogUnavailable, err)
	}

	result := make(map[string]domain.CatalogItem, len(docs))
	for _, doc := range docs {
		result[doc.ProductID] = doc.toDomain()
	}
	return result, nil
}

func productIDFilter(ids []string) bson.M {
	return bson.M{"product_id": bson.M{"$in": ids}}
}

// dedupe drops empty and repeated ids, keeping first-seen order
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

var _ domain.CatalogRepository = (*MongoStore)(nil)
