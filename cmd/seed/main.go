// Command seed populates demo users, listings and default platform
// settings, and prints bearer credentials for each demo user.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/example/reshoe/pkg/auth"
	"github.com/example/reshoe/pkg/config"
	"github.com/example/reshoe/pkg/models"
	"github.com/example/reshoe/pkg/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	mongo, err := repository.NewMongoRepository(&cfg.MongoDB)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer mongo.Close(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	userRepo := repository.NewUserRepository(mongo)
	listingRepo := repository.NewListingRepository(mongo)
	settingsRepo := repository.NewSettingsRepository(mongo)
	verifier := auth.NewTokenVerifier(cfg.Auth.TokenSecret)

	if _, err := settingsRepo.GetOrCreate(ctx); err != nil {
		logger.Fatal("Failed to seed settings", zap.Error(err))
	}

	now := time.Now()
	demoUsers := []models.User{
		{ID: uuid.NewString(), Name: "Admin", Email: "admin@reshoe.test", Role: models.RoleAdmin},
		{ID: uuid.NewString(), Name: "Sana Seller", Email: "sana@reshoe.test", Role: models.RoleSeller},
		{ID: uuid.NewString(), Name: "Ravi Seller", Email: "ravi@reshoe.test", Role: models.RoleSeller},
		{ID: uuid.NewString(), Name: "Chloe Customer", Email: "chloe@reshoe.test", Role: models.RoleCustomer},
	}
	for i := range demoUsers {
		demoUsers[i].CreatedAt = now
		demoUsers[i].UpdatedAt = now
		if err := userRepo.Insert(ctx, &demoUsers[i]); err != nil {
			logger.Fatal("Failed to seed user", zap.String("email", demoUsers[i].Email), zap.Error(err))
		}
		token := verifier.Issue(demoUsers[i].ID, demoUsers[i].Role, 30*24*time.Hour)
		fmt.Printf("%-8s %s\n  token: %s\n", demoUsers[i].Role, demoUsers[i].Email, token)
	}

	seller := demoUsers[1]
	demoListings := []models.Listing{
		{
			Title: "Air Max 90", Brand: "Nike", Size: 9, Condition: models.ConditionGood,
			Price: 749900, Description: "Lightly worn Air Max 90, original box included.",
			Category: models.CategoryMen, Status: models.ListingApproved,
		},
		{
			Title: "Gel-Kayano 28", Brand: "Asics", Size: 8, Condition: models.ConditionLikeNew,
			Price: 559900, Description: "Worn twice indoors, practically new.",
			Category: models.CategoryWomen, Status: models.ListingApproved,
		},
		{
			Title: "Chuck Taylor All Star", Brand: "Converse", Size: 7, Condition: models.ConditionFair,
			Price: 129900, Description: "Classic high tops with honest wear on the soles.",
			Category: models.CategoryUnisex, Status: models.ListingPendingApproval,
		},
	}
	for i := range demoListings {
		demoListings[i].ID = uuid.NewString()
		demoListings[i].SellerID = seller.ID
		demoListings[i].Images = []string{"https://images.reshoe.test/demo/" + demoListings[i].ID + ".jpg"}
		demoListings[i].CreatedAt = now
		demoListings[i].UpdatedAt = now
		if err := listingRepo.Insert(ctx, &demoListings[i]); err != nil {
			logger.Fatal("Failed to seed listing", zap.String("title", demoListings[i].Title), zap.Error(err))
		}
	}

	logger.Info("Seed complete",
		zap.Int("users", len(demoUsers)),
		zap.Int("listings", len(demoListings)))
}
