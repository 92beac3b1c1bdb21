package repository

import (
	"context"
	"fmt"

	"github.com/example/reshoe/pkg/errs"
	"github.com/example/reshoe/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ReviewRepository struct {
	coll *mongo.Collection
}

func NewReviewRepository(m *MongoRepository) *ReviewRepository {
	return &ReviewRepository{coll: m.database.Collection(collReviews)}
}

// Insert relies on the unique (user_id, listing_id) index to reject a
// second review from the same buyer.
func (r *ReviewRepository) Insert(ctx context.Context, review *models.Review) error {
	_, err := r.coll.InsertOne(ctx, review)
	if mongo.IsDuplicateKeyError(err) {
		return errs.Conflict("you have already reviewed this listing")
	}
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func (r *ReviewRepository) ListByListing(ctx context.Context, listingID string, page, limit int64) ([]models.Review, int64, error) {
	q := bson.M{"listing_id": listingID}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := r.coll.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer cursor.Close(ctx)

	var reviews []models.Review
	if err = cursor.All(ctx, &reviews); err != nil {
		return nil, 0, fmt.Errorf("decode reviews: %w", err)
	}

	total, err := r.coll.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}
	return reviews, total, nil
}
