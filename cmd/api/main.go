package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/reshoe/gateway"
	"github.com/example/reshoe/pkg/analytics"
	"github.com/example/reshoe/pkg/auth"
	"github.com/example/reshoe/pkg/cart"
	"github.com/example/reshoe/pkg/catalog"
	"github.com/example/reshoe/pkg/config"
	"github.com/example/reshoe/pkg/images"
	"github.com/example/reshoe/pkg/ledger"
	"github.com/example/reshoe/pkg/orders"
	"github.com/example/reshoe/pkg/payment"
	"github.com/example/reshoe/pkg/repository"
	"github.com/example/reshoe/pkg/reviews"
	"github.com/example/reshoe/pkg/settlement"
	"go.uber.org/zap"
)

func main() {
	// Load config
	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Setup logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting marketplace API",
		zap.String("name", cfg.Server.Name),
		zap.Int("port", cfg.Server.Port))

	// Storage
	mongo, err := repository.NewMongoRepository(&cfg.MongoDB)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer mongo.Close(context.Background())

	indexCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := mongo.EnsureIndexes(indexCtx); err != nil {
		logger.Warn("Failed to ensure indexes", zap.Error(err))
	}
	cancel()

	redisRepo := repository.NewRedisRepository(&cfg.Redis)
	defer redisRepo.Close()

	listingRepo := repository.NewListingRepository(mongo)
	cartRepo := repository.NewCartRepository(mongo)
	orderRepo := repository.NewOrderRepository(mongo)
	txnRepo := repository.NewTransactionRepository(mongo)
	settingsRepo := repository.NewSettingsRepository(mongo)
	userRepo := repository.NewUserRepository(mongo)
	reviewRepo := repository.NewReviewRepository(mongo)

	// External collaborators
	razorpay := payment.NewRazorpayClient(&cfg.Razorpay)
	imageStore := images.NewHTTPStore(&cfg.Images)
	verifier := auth.NewTokenVerifier(cfg.Auth.TokenSecret)

	// Services
	catalogSvc := catalog.NewService(listingRepo, imageStore, logger)
	cartSvc := cart.NewService(cartRepo, listingRepo)
	bridge := payment.NewBridge(razorpay, listingRepo, cfg.Razorpay.Currency, logger)
	engine := settlement.NewEngine(listingRepo, orderRepo, txnRepo, settingsRepo, userRepo, mongo, logger)
	orderSvc := orders.NewService(orderRepo, userRepo, listingRepo, logger)
	ledgerSvc := ledger.NewService(txnRepo)
	reviewSvc := reviews.NewService(reviewRepo, orderRepo, userRepo, logger)
	analyticsSvc := analytics.NewService(userRepo, listingRepo, orderRepo, txnRepo, redisRepo, logger)

	gw := gateway.NewGateway(cfg, logger, gateway.Deps{
		Verifier:  verifier,
		Catalog:   catalogSvc,
		Cart:      cartSvc,
		Bridge:    bridge,
		Engine:    engine,
		Orders:    orderSvc,
		Ledger:    ledgerSvc,
		Reviews:   reviewSvc,
		Analytics: analyticsSvc,
		Settings:  settingsRepo,
		Mongo:     mongo,
		Redis:     redisRepo,
	})
	gw.SetupRoutes()

	// Start gateway in goroutine
	gwErr := make(chan error, 1)
	go func() {
		if err := gw.Start(); err != nil {
			gwErr <- err
		}
	}()

	logger.Info("API started successfully")

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case err := <-gwErr:
		logger.Fatal("API error", zap.Error(err))
	}

	logger.Info("API stopped")
}
