package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/example/reshoe/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// The settings document is a singleton with a fixed id, so concurrent
// lazy creations collapse into one upsert.
const settingsDocID = "platform"

type SettingsRepository struct {
	coll *mongo.Collection
}

func NewSettingsRepository(m *MongoRepository) *SettingsRepository {
	return &SettingsRepository{coll: m.database.Collection(collSettings)}
}

// GetOrCreate returns the settings singleton, creating it with
// defaults on first access.
func (r *SettingsRepository) GetOrCreate(ctx context.Context) (*models.PlatformSettings, error) {
	now := time.Now()
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var settings models.PlatformSettings
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": settingsDocID},
		bson.M{"$setOnInsert": bson.M{
			"commission_rate": models.DefaultCommissionRate,
			"platform_name":   models.DefaultPlatformName,
			"contact_email":   models.DefaultContactEmail,
			"created_at":      now,
			"updated_at":      now,
		}},
		opts,
	).Decode(&settings)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return &settings, nil
}

func (r *SettingsRepository) Update(ctx context.Context, set bson.M) (*models.PlatformSettings, error) {
	if _, err := r.GetOrCreate(ctx); err != nil {
		return nil, err
	}
	set["updated_at"] = time.Now()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var settings models.PlatformSettings
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": settingsDocID},
		bson.M{"$set": set},
		opts,
	).Decode(&settings)
	if err != nil {
		return nil, fmt.Errorf("update settings: %w", err)
	}
	return &settings, nil
}
