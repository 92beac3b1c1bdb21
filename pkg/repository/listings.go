package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/reshoe/pkg/errs"
	"github.com/example/reshoe/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ListingRepository struct {
	coll *mongo.Collection
}

func NewListingRepository(m *MongoRepository) *ListingRepository {
	return &ListingRepository{coll: m.database.Collection(collListings)}
}

// ListingFilter is the public browse query. Zero values mean "no
// constraint".
type ListingFilter struct {
	Status    models.ListingStatus
	SellerID  string
	Category  models.Category
	Brand     string
	Condition models.Condition
	Size      float64
	MinPrice  int64
	MaxPrice  int64
	Search    string
	Sort      string
	Page      int64
	Limit     int64
}

func (f ListingFilter) query() bson.M {
	q := bson.M{}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.SellerID != "" {
		q["seller_id"] = f.SellerID
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.Condition != "" {
		q["condition"] = f.Condition
	}
	if f.Brand != "" {
		q["brand"] = primitive.Regex{Pattern: f.Brand, Options: "i"}
	}
	if f.Size > 0 {
		q["size"] = f.Size
	}
	if f.MinPrice > 0 || f.MaxPrice > 0 {
		price := bson.M{}
		if f.MinPrice > 0 {
			price["$gte"] = f.MinPrice
		}
		if f.MaxPrice > 0 {
			price["$lte"] = f.MaxPrice
		}
		q["price"] = price
	}
	if f.Search != "" {
		re := primitive.Regex{Pattern: f.Search, Options: "i"}
		q["$or"] = bson.A{
			bson.M{"title": re},
			bson.M{"brand": re},
			bson.M{"description": re},
		}
	}
	return q
}

func (r *ListingRepository) Insert(ctx context.Context, listing *models.Listing) error {
	_, err := r.coll.InsertOne(ctx, listing)
	if err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	return nil
}

func (r *ListingRepository) FindByID(ctx context.Context, id string) (*models.Listing, error) {
	var listing models.Listing
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&listing)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.NotFound("listing not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find listing: %w", err)
	}
	return &listing, nil
}

// FindByIDAndCountView returns the listing and atomically increments
// its view counter.
func (r *ListingRepository) FindByIDAndCountView(ctx context.Context, id string) (*models.Listing, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var listing models.Listing
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"views": 1}},
		opts,
	).Decode(&listing)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.NotFound("listing not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find listing: %w", err)
	}
	return &listing, nil
}

func (r *ListingRepository) Search(ctx context.Context, f ListingFilter) ([]models.Listing, int64, error) {
	q := f.query()

	sort := bson.D{{Key: "created_at", Value: -1}}
	switch f.Sort {
	case "price":
		sort = bson.D{{Key: "price", Value: 1}}
	case "-price":
		sort = bson.D{{Key: "price", Value: -1}}
	case "created_at":
		sort = bson.D{{Key: "created_at", Value: 1}}
	}

	opts := options.Find().
		SetSort(sort).
		SetSkip((f.Page - 1) * f.Limit).
		SetLimit(f.Limit)

	cursor, err := r.coll.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("search listings: %w", err)
	}
	defer cursor.Close(ctx)

	var listings []models.Listing
	if err = cursor.All(ctx, &listings); err != nil {
		return nil, 0, fmt.Errorf("decode listings: %w", err)
	}

	total, err := r.coll.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("count listings: %w", err)
	}
	return listings, total, nil
}

// Patch applies the non-nil fields and returns the updated document.
// The filter excludes sold listings, so an edit racing a settlement
// cannot mutate a just-sold document; that case returns (nil, nil) and
// the caller tells "gone" from "sold" itself.
func (r *ListingRepository) Patch(ctx context.Context, id string, patch models.ListingPatch) (*models.Listing, error) {
	set := bson.M{"updated_at": time.Now()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Brand != nil {
		set["brand"] = *patch.Brand
	}
	if patch.Size != nil {
		set["size"] = *patch.Size
	}
	if patch.Condition != nil {
		set["condition"] = *patch.Condition
	}
	if patch.Price != nil {
		set["price"] = *patch.Price
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Images != nil {
		set["images"] = patch.Images
	}
	if patch.Category != nil {
		set["category"] = *patch.Category
	}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}
	if patch.RejectionReason != nil {
		set["rejection_reason"] = *patch.RejectionReason
	}

	filter := bson.M{"_id": id, "status": bson.M{"$ne": models.ListingSold}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var listing models.Listing
	err := r.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&listing)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update listing: %w", err)
	}
	return &listing, nil
}

// Review decides a pending listing in one conditional update. The
// pending-approval guard makes a second review of the same listing
// match nothing; that case returns (nil, nil) so the caller can tell
// "gone" from "already decided".
func (r *ListingRepository) Review(ctx context.Context, id string, status models.ListingStatus, reason string) (*models.Listing, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var listing models.Listing
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": models.ListingPendingApproval},
		bson.M{"$set": bson.M{
			"status":           status,
			"rejection_reason": reason,
			"updated_at":       time.Now(),
		}},
		opts,
	).Decode(&listing)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("review listing: %w", err)
	}
	return &listing, nil
}

// ReserveForSale flips an approved listing to sold in a single
// conditional update. The status guard in the filter is what makes two
// racing buyers serialize: exactly one update matches.
func (r *ListingRepository) ReserveForSale(ctx context.Context, id string) (bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.ListingApproved},
		bson.M{"$set": bson.M{"status": models.ListingSold, "updated_at": time.Now()}},
	)
	if err != nil {
		return false, fmt.Errorf("reserve listing: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	if res.DeletedCount == 0 {
		return errs.NotFound("listing not found")
	}
	return nil
}

func (r *ListingRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*models.Listing, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find listings: %w", err)
	}
	defer cursor.Close(ctx)

	var listings []models.Listing
	if err = cursor.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("decode listings: %w", err)
	}
	byID := make(map[string]*models.Listing, len(listings))
	for i := range listings {
		byID[listings[i].ID] = &listings[i]
	}
	return byID, nil
}

func (r *ListingRepository) CountByStatus(ctx context.Context) (map[models.ListingStatus]int64, error) {
	cursor, err := r.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("count listings by status: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status models.ListingStatus `bson:"_id"`
		Count  int64                `bson:"count"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode listing counts: %w", err)
	}
	counts := make(map[models.ListingStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
