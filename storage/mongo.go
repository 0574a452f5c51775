package storage

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	currency "github.com/malusev998/currency-converter"
)

type (
	mongoObject struct {
		Key          string    `bson:"_id"`
		Body         []byte    `bson:"body,omitempty"`
		Size         int64     `bson:"size"`
		LastModified time.Time `bson:"lastModified"`
	}

	mongoStorage struct {
		client     *mongo.Client
		collection *mongo.Collection
	}
)

// NewMongoStorage connects to MongoDB and keeps one document per key, with the
// key as the document id.
func NewMongoStorage(c MongoDBConfig) (currency.Storage, error) {
	ctx := contextOrBackground(c.Ctx)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(c.ConnectionString))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, unreachable("ping", c.Database, err)
	}

	db := client.Database(c.Database)

	if c.Migrate {
		names, err := db.ListCollectionNames(ctx, bson.M{"name": c.Collection})
		if err == nil && len(names) == 0 {
			err = db.CreateCollection(ctx, c.Collection)
		}

		if err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
	}

	return NewMongoStorageFromCollection(client, db.Collection(c.Collection)), nil
}

// NewMongoStorageFromCollection wraps an existing collection. A nil client is
// allowed; Close then leaves the connection alone.
func NewMongoStorageFromCollection(client *mongo.Client, collection *mongo.Collection) currency.Storage {
	return &mongoStorage{
		client:     client,
		collection: collection,
	}
}

func (m *mongoStorage) List(ctx context.Context, prefix string) ([]currency.Object, error) {
	filter := bson.M{
		"_id": bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)},
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetProjection(bson.M{"body": 0})

	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, unreachable("list", prefix, err)
	}

	defer cursor.Close(ctx)

	objects := make([]currency.Object, 0)

	for cursor.Next(ctx) {
		var doc mongoObject

		if err := cursor.Decode(&doc); err != nil {
			return nil, unreachable("list", prefix, err)
		}

		objects = append(objects, currency.Object{
			Key:          doc.Key,
			Size:         doc.Size,
			LastModified: doc.LastModified,
		})
	}

	if err := cursor.Err(); err != nil {
		return nil, unreachable("list", prefix, err)
	}

	return objects, nil
}

func (m *mongoStorage) Get(ctx context.Context, key string) ([]byte, error) {
	var doc mongoObject

	if err := m.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound(key)
		}

		return nil, unreachable("get", key, err)
	}

	return doc.Body, nil
}

func (m *mongoStorage) Put(ctx context.Context, key string, body []byte) error {
	doc := mongoObject{
		Key:          key,
		Body:         body,
		Size:         int64(len(body)),
		LastModified: time.Now().UTC(),
	}

	_, err := m.collection.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return unreachable("put", key, err)
	}

	return nil
}

func (m *mongoStorage) Delete(ctx context.Context, key string) error {
	if _, err := m.collection.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return unreachable("delete", key, err)
	}

	return nil
}

func (m *mongoStorage) GetStorageProviderName() string {
	return string(MongoDB)
}

func (m *mongoStorage) Close() error {
	if m.client == nil {
		return nil
	}

	return m.client.Disconnect(context.Background())
}
