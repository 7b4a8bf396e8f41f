// mongodb.go - MongoDB-backed country configuration source

package storage

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bosocmputer/document_gateway/internal/countries"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CountryConfigDocument is one row of the country configuration collection.
type CountryConfigDocument struct {
	CountryCode       string             `bson:"country_code"`
	UniqueIDFieldName string             `bson:"unique_id_field_name"`
	CommonFields      []string           `bson:"common_fields"`
	FieldMapping      map[string]*string `bson:"field_mapping"`
	OCRSchema         map[string]string  `bson:"gemini_ocr_schema"`
	IsDelete          bool               `bson:"isdelete"`
}

// MongoSource loads country configuration from a MongoDB collection.
// The connection is opened once and reused for every reload.
type MongoSource struct {
	client     *mongo.Client
	db         string
	collection string
}

// ConnectMongoSource connects to MongoDB and verifies the connection
func ConnectMongoSource(ctx context.Context, uri, dbName, collection string) (*MongoSource, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Println("✅ Connected to MongoDB successfully!")
	return &MongoSource{client: client, db: dbName, collection: collection}, nil
}

// Load reads every active document and builds a validated Registry.
func (s *MongoSource) Load(ctx context.Context) (*countries.Registry, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	coll := s.client.Database(s.db).Collection(s.collection)
	cursor, err := coll.Find(ctx, bson.M{"isdelete": bson.M{"$ne": true}})
	if err != nil {
		return nil, fmt.Errorf("failed to query country configs: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []CountryConfigDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode country configs: %w", err)
	}

	entries, err := EntriesFromDocuments(docs)
	if err != nil {
		return nil, err
	}
	return countries.NewRegistry(entries)
}

// Describe names the source for logs and health output.
func (s *MongoSource) Describe() string {
	return fmt.Sprintf("mongodb:%s.%s", s.db, s.collection)
}

// Close closes the MongoDB connection
func (s *MongoSource) Close() {
	if s.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil {
		log.Printf("⚠️  MongoDB disconnect: %v", err)
		return
	}
	log.Println("MongoDB connection closed")
}

// EntriesFromDocuments converts collection rows into registry entries.
// Deleted rows are skipped; a blank or repeated country code is an error.
func EntriesFromDocuments(docs []CountryConfigDocument) (map[string]countries.CountryConfig, error) {
	entries := make(map[string]countries.CountryConfig, len(docs))
	for i, doc := range docs {
		if doc.IsDelete {
			continue
		}
		code := strings.ToLower(strings.TrimSpace(doc.CountryCode))
		if code == "" {
			return nil, fmt.Errorf("country config document %d has no country_code", i)
		}
		if _, dup := entries[code]; dup {
			return nil, fmt.Errorf("country %q appears in more than one document", code)
		}
		entries[code] = countries.CountryConfig{
			UniqueIDFieldName: doc.UniqueIDFieldName,
			CommonFields:      doc.CommonFields,
			FieldMapping:      doc.FieldMapping,
			OCRSchema:         doc.OCRSchema,
		}
	}
	return entries, nil
}
