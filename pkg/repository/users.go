package repository

import (
	"context"
	"fmt"

	"github.com/example/reshoe/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(m *MongoRepository) *UserRepository {
	return &UserRepository{coll: m.database.Collection(collUsers)}
}

func (r *UserRepository) Insert(ctx context.Context, user *models.User) error {
	_, err := r.coll.InsertOne(ctx, user)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindRefsByIDs(ctx context.Context, ids []string) (map[string]*models.UserRef, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cursor.Close(ctx)

	var refs []models.UserRef
	if err = cursor.All(ctx, &refs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	byID := make(map[string]*models.UserRef, len(refs))
	for i := range refs {
		byID[refs[i].ID] = &refs[i]
	}
	return byID, nil
}

type UserFilter struct {
	Role  models.Role
	Page  int64
	Limit int64
}

func (r *UserRepository) List(ctx context.Context, f UserFilter) ([]models.User, int64, error) {
	q := bson.M{}
	if f.Role != "" {
		q["role"] = f.Role
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((f.Page - 1) * f.Limit).
		SetLimit(f.Limit)

	cursor, err := r.coll.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, 0, fmt.Errorf("decode users: %w", err)
	}

	total, err := r.coll.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	return users, total, nil
}

func (r *UserRepository) CountByRole(ctx context.Context) (map[models.Role]int64, error) {
	cursor, err := r.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$role", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("count users by role: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Role  models.Role `bson:"_id"`
		Count int64       `bson:"count"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode user counts: %w", err)
	}
	counts := make(map[models.Role]int64, len(rows))
	for _, row := range rows {
		counts[row.Role] = row.Count
	}
	return counts, nil
}
