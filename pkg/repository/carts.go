package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/reshoe/pkg/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CartRepository struct {
	coll *mongo.Collection
}

func NewCartRepository(m *MongoRepository) *CartRepository {
	return &CartRepository{coll: m.database.Collection(collCarts)}
}

// EnsureCart returns the user's cart, creating an empty one on first
// access. The upsert keeps concurrent first accesses from racing two
// documents into existence.
func (r *CartRepository) EnsureCart(ctx context.Context, userID string) (*models.Cart, error) {
	now := time.Now()
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var cart models.Cart
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"user_id": userID},
		bson.M{"$setOnInsert": bson.M{
			"_id":        uuid.NewString(),
			"user_id":    userID,
			"items":      []models.CartItem{},
			"created_at": now,
			"updated_at": now,
		}},
		opts,
	).Decode(&cart)
	if err != nil {
		return nil, fmt.Errorf("ensure cart: %w", err)
	}
	return &cart, nil
}

// AddItem pushes a listing onto the cart unless it is already there.
// Returns false when the item was already present.
func (r *CartRepository) AddItem(ctx context.Context, userID, listingID string) (bool, error) {
	if _, err := r.EnsureCart(ctx, userID); err != nil {
		return false, err
	}

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"user_id": userID, "items.listing_id": bson.M{"$ne": listingID}},
		bson.M{
			"$push": bson.M{"items": models.CartItem{ListingID: listingID, AddedAt: time.Now()}},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return false, fmt.Errorf("add cart item: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

// RemoveItem is idempotent: pulling an absent listing changes nothing.
func (r *CartRepository) RemoveItem(ctx context.Context, userID, listingID string) (*models.Cart, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var cart models.Cart
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"user_id": userID},
		bson.M{
			"$pull": bson.M{"items": bson.M{"listing_id": listingID}},
			"$set":  bson.M{"updated_at": time.Now()},
		},
		opts,
	).Decode(&cart)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return r.EnsureCart(ctx, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("remove cart item: %w", err)
	}
	return &cart, nil
}
