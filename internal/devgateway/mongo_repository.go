package devgateway

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const cartsCollection = "carts"

// MongoCartRepository persists carts in MongoDB, keyed by session id. Used
// when the development gateway should survive restarts.
type MongoCartRepository struct {
	collection *mongo.Collection
}

// NewMongoCartRepository creates a repository on the given database.
func NewMongoCartRepository(db *mongo.Database) *MongoCartRepository {
	return &MongoCartRepository{collection: db.Collection(cartsCollection)}
}

// Connect opens a MongoDB connection for the development gateway.
func Connect(ctx context.Context, uri, databaseName string) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client.Database(databaseName), nil
}

// Get implements CartRepository.
func (r *MongoCartRepository) Get(ctx context.Context, sessionID string) (*StoredCart, error) {
	var cart StoredCart
	err := r.collection.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// Save implements CartRepository.
func (r *MongoCartRepository) Save(ctx context.Context, cart *StoredCart) error {
	cart.UpdatedAt = time.Now()
	_, err := r.collection.ReplaceOne(
		ctx,
		bson.M{"_id": cart.SessionID},
		cart,
		options.Replace().SetUpsert(true),
	)
	return err
}

// Delete implements CartRepository.
func (r *MongoCartRepository) Delete(ctx context.Context, sessionID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": sessionID})
	return err
}
