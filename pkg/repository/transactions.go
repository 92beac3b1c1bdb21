package repository

import (
	"context"
	"fmt"

	"github.com/example/reshoe/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type TransactionRepository struct {
	coll *mongo.Collection
}

func NewTransactionRepository(m *MongoRepository) *TransactionRepository {
	return &TransactionRepository{coll: m.database.Collection(collTransactions)}
}

type TransactionFilter struct {
	SellerID     string
	PayoutStatus models.PayoutStatus
	Page         int64
	Limit        int64
}

func (f TransactionFilter) query() bson.M {
	q := bson.M{}
	if f.SellerID != "" {
		q["seller_id"] = f.SellerID
	}
	if f.PayoutStatus != "" {
		q["payout_status"] = f.PayoutStatus
	}
	return q
}

func (r *TransactionRepository) Insert(ctx context.Context, txn *models.Transaction) error {
	_, err := r.coll.InsertOne(ctx, txn)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepository) List(ctx context.Context, f TransactionFilter) ([]models.Transaction, int64, error) {
	q := f.query()
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((f.Page - 1) * f.Limit).
		SetLimit(f.Limit)

	cursor, err := r.coll.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer cursor.Close(ctx)

	var txns []models.Transaction
	if err = cursor.All(ctx, &txns); err != nil {
		return nil, 0, fmt.Errorf("decode transactions: %w", err)
	}

	total, err := r.coll.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}
	return txns, total, nil
}

// LedgerTotals are the aggregate sums over a transaction filter.
type LedgerTotals struct {
	TotalAmount         int64 `bson:"total_amount" json:"total_amount"`
	TotalCommission     int64 `bson:"total_commission" json:"total_commission"`
	TotalSellerEarnings int64 `bson:"total_seller_earnings" json:"total_seller_earnings"`
	PendingPayouts      int64 `bson:"pending_payouts" json:"pending_payouts"`
}

func (r *TransactionRepository) Totals(ctx context.Context, f TransactionFilter) (*LedgerTotals, error) {
	cursor, err := r.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: f.query()}},
		{{Key: "$group", Value: bson.M{
			"_id":                   nil,
			"total_amount":          bson.M{"$sum": "$amount"},
			"total_commission":      bson.M{"$sum": "$commission"},
			"total_seller_earnings": bson.M{"$sum": "$seller_earnings"},
			"pending_payouts": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$payout_status", models.PayoutPending}},
				"$seller_earnings",
				0,
			}}},
		}}},
	})
	if err != nil {
		return nil, fmt.Errorf("ledger totals: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []LedgerTotals
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode ledger totals: %w", err)
	}
	if len(rows) == 0 {
		return &LedgerTotals{}, nil
	}
	return &rows[0], nil
}

// TopSeller is one row of the top-sellers rollup.
type TopSeller struct {
	SellerID      string          `bson:"_id" json:"seller_id"`
	TotalSales    int64           `bson:"total_sales" json:"total_sales"`
	TotalEarnings int64           `bson:"total_earnings" json:"total_earnings"`
	OrderCount    int64           `bson:"order_count" json:"order_count"`
	Seller        *models.UserRef `bson:"seller,omitempty" json:"seller,omitempty"`
}

func (r *TransactionRepository) TopSellers(ctx context.Context, limit int64) ([]TopSeller, error) {
	cursor, err := r.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":            "$seller_id",
			"total_sales":    bson.M{"$sum": "$amount"},
			"total_earnings": bson.M{"$sum": "$seller_earnings"},
			"order_count":    bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.M{"total_sales": -1}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$lookup", Value: bson.M{
			"from":         collUsers,
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "seller",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$seller", "preserveNullAndEmptyArrays": true}}},
	})
	if err != nil {
		return nil, fmt.Errorf("top sellers: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []TopSeller
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode top sellers: %w", err)
	}
	return rows, nil
}
