package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/reshoe/pkg/errs"
	"github.com/example/reshoe/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type OrderRepository struct {
	coll     *mongo.Collection
	listings *mongo.Collection
}

func NewOrderRepository(m *MongoRepository) *OrderRepository {
	return &OrderRepository{
		coll:     m.database.Collection(collOrders),
		listings: m.database.Collection(collListings),
	}
}

type OrderFilter struct {
	BuyerID  string
	SellerID string
	Status   models.OrderStatus
	Page     int64
	Limit    int64
}

func (f OrderFilter) query() bson.M {
	q := bson.M{}
	if f.BuyerID != "" {
		q["buyer_id"] = f.BuyerID
	}
	if f.SellerID != "" {
		q["seller_id"] = f.SellerID
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	return q
}

func (r *OrderRepository) Insert(ctx context.Context, order *models.Order) error {
	_, err := r.coll.InsertOne(ctx, order)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.NotFound("order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find order: %w", err)
	}
	return &order, nil
}

func (r *OrderRepository) List(ctx context.Context, f OrderFilter) ([]models.Order, int64, error) {
	q := f.query()
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((f.Page - 1) * f.Limit).
		SetLimit(f.Limit)

	cursor, err := r.coll.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err = cursor.All(ctx, &orders); err != nil {
		return nil, 0, fmt.Errorf("decode orders: %w", err)
	}

	total, err := r.coll.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}
	return orders, total, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var order models.Order
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}},
		opts,
	).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.NotFound("order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	return &order, nil
}

func (r *OrderRepository) CountByStatus(ctx context.Context) (map[models.OrderStatus]int64, error) {
	cursor, err := r.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("count orders by status: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status models.OrderStatus `bson:"_id"`
		Count  int64              `bson:"count"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode order counts: %w", err)
	}
	counts := make(map[models.OrderStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// DailyVolume is one calendar-day bucket of order volume.
type DailyVolume struct {
	Day        string `bson:"_id" json:"day"`
	TotalSales int64  `bson:"total_sales" json:"total_sales"`
	OrderCount int64  `bson:"order_count" json:"order_count"`
}

// SalesOverTime buckets order volume per calendar day since the given
// cutoff.
func (r *OrderRepository) SalesOverTime(ctx context.Context, since time.Time) ([]DailyVolume, error) {
	cursor, err := r.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"created_at": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{
			"_id":         bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$created_at"}},
			"total_sales": bson.M{"$sum": "$amount"},
			"order_count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("sales over time: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []DailyVolume
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode sales over time: %w", err)
	}
	return rows, nil
}

// SoldWithoutOrder finds listings marked sold that no order references.
// A non-empty result means a settlement died between the listing
// reserve and the order insert and needs manual reconciliation.
func (r *OrderRepository) SoldWithoutOrder(ctx context.Context) ([]string, error) {
	cursor, err := r.listings.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": models.ListingSold}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         collOrders,
			"localField":   "_id",
			"foreignField": "listing_id",
			"as":           "orders",
		}}},
		{{Key: "$match", Value: bson.M{"orders": bson.M{"$size": 0}}}},
		{{Key: "$project", Value: bson.M{"_id": 1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("reconcile query: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID string `bson:"_id"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode reconcile rows: %w", err)
	}
	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	return ids, nil
}
