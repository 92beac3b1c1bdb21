// Package gateway is the HTTP surface of the marketplace. Handlers
// stay thin: bind, call a service, translate the error kind to a
// status code.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/example/reshoe/pkg/analytics"
	"github.com/example/reshoe/pkg/auth"
	"github.com/example/reshoe/pkg/cart"
	"github.com/example/reshoe/pkg/catalog"
	"github.com/example/reshoe/pkg/config"
	"github.com/example/reshoe/pkg/errs"
	"github.com/example/reshoe/pkg/ledger"
	"github.com/example/reshoe/pkg/metric"
	"github.com/example/reshoe/pkg/models"
	"github.com/example/reshoe/pkg/orders"
	"github.com/example/reshoe/pkg/payment"
	"github.com/example/reshoe/pkg/repository"
	"github.com/example/reshoe/pkg/reviews"
	"github.com/example/reshoe/pkg/settlement"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// SettingsStore is the slice of the settings repository the admin
// handlers use directly.
type SettingsStore interface {
	GetOrCreate(ctx context.Context) (*models.PlatformSettings, error)
	Update(ctx context.Context, set bson.M) (*models.PlatformSettings, error)
}

// MongoStore covers the direct database calls the gateway makes
// outside any service: the health ping and the audit trail read.
type MongoStore interface {
	Ping(ctx context.Context) error
	GetAuditLogs(ctx context.Context, entityID string, limit int64) ([]*repository.AuditLog, error)
}

// CachePinger reports cache liveness for the health endpoint.
type CachePinger interface {
	Ping(ctx context.Context) error
}

type Gateway struct {
	config     *config.Config
	logger     *zap.Logger
	router     *gin.Engine
	verifier   auth.Verifier
	catalog    *catalog.Service
	cart       *cart.Service
	bridge     *payment.Bridge
	engine     *settlement.Engine
	orders     *orders.Service
	ledger     *ledger.Service
	reviews    *reviews.Service
	analytics  *analytics.Service
	settings   SettingsStore
	mongo      MongoStore
	redisCache CachePinger
}

type Deps struct {
	Verifier  auth.Verifier
	Catalog   *catalog.Service
	Cart      *cart.Service
	Bridge    *payment.Bridge
	Engine    *settlement.Engine
	Orders    *orders.Service
	Ledger    *ledger.Service
	Reviews   *reviews.Service
	Analytics *analytics.Service
	Settings  SettingsStore
	Mongo     MongoStore
	Redis     CachePinger
}

func NewGateway(cfg *config.Config, logger *zap.Logger, deps Deps) *Gateway {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(logger))
	router.Use(metricsMiddleware())

	return &Gateway{
		config:     cfg,
		logger:     logger,
		router:     router,
		verifier:   deps.Verifier,
		catalog:    deps.Catalog,
		cart:       deps.Cart,
		bridge:     deps.Bridge,
		engine:     deps.Engine,
		orders:     deps.Orders,
		ledger:     deps.Ledger,
		reviews:    deps.Reviews,
		analytics:  deps.Analytics,
		settings:   deps.Settings,
		mongo:      deps.Mongo,
		redisCache: deps.Redis,
	}
}

func (g *Gateway) SetupRoutes() {
	g.router.GET("/health", g.health)
	g.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := g.router.Group("/api/v1")
	{
		// Public catalog
		v1.GET("/listings", g.browseListings)
		v1.GET("/listings/:id", g.getListing)
		v1.GET("/listings/:id/reviews", g.listListingReviews)

		authed := v1.Group("", g.authMiddleware())
		{
			authed.POST("/listings", g.createListing)
			authed.PUT("/listings/:id", g.updateListing)
			authed.DELETE("/listings/:id", g.deleteListing)
			authed.GET("/seller/listings", g.myListings)

			authed.GET("/cart", g.getCart)
			authed.POST("/cart", g.addToCart)
			authed.DELETE("/cart/:listingId", g.removeFromCart)

			authed.POST("/payments/orders", g.initiateCharge)
			authed.POST("/payments/verify", g.confirmCharge)

			authed.POST("/orders", g.checkout)
			authed.GET("/orders", g.listOrders)
			authed.GET("/orders/:id", g.getOrder)
			authed.PUT("/orders/:id/status", g.updateOrderStatus)

			authed.POST("/reviews", g.createReview)

			authed.GET("/transactions", g.listTransactions)

			admin := authed.Group("/admin", g.requireRole(models.RoleAdmin))
			{
				admin.GET("/listings", g.adminListings)
				admin.POST("/listings/:id/review", g.reviewListing)
				admin.GET("/users", g.listUsers)
				admin.GET("/settings", g.getSettings)
				admin.PUT("/settings", g.updateSettings)
				admin.GET("/analytics", g.getAnalytics)
				admin.GET("/settlements/reconcile", g.reconcileSettlements)
				admin.GET("/audit/:entityId", g.getAuditTrail)
			}
		}
	}
}

func (g *Gateway) Start() error {
	addr := fmt.Sprintf("%s:%d", g.config.Server.Host, g.config.Server.Port)
	g.logger.Info("API starting", zap.String("address", addr))
	return g.router.Run(addr)
}

// Router exposes the underlying engine for tests.
func (g *Gateway) Router() *gin.Engine { return g.router }

func (g *Gateway) health(c *gin.Context) {
	ctx := c.Request.Context()
	if err := g.mongo.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "mongo": err.Error()})
		return
	}
	if g.redisCache != nil {
		if err := g.redisCache.Ping(ctx); err != nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "cache": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

const principalKey = "principal"

func (g *Gateway) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer credential"})
			return
		}
		principal, err := g.verifier.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credential"})
			return
		}
		c.Set(principalKey, principal)
		c.Next()
	}
}

func (g *Gateway) requireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := currentPrincipal(c)
		if p.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			return
		}
		c.Next()
	}
}

func currentPrincipal(c *gin.Context) auth.Principal {
	v, _ := c.Get(principalKey)
	p, _ := v.(auth.Principal)
	return p
}

// fail translates a service error into an HTTP response. Client-kind
// errors carry their reason; server-kind errors stay generic and get
// logged in full.
func (g *Gateway) fail(c *gin.Context, err error) {
	kind := errs.KindOf(err)
	switch kind {
	case errs.KindValidation, errs.KindPaymentVerification:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": kind.String()})
	case errs.KindUnauthorized:
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "kind": kind.String()})
	case errs.KindForbidden:
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "kind": kind.String()})
	case errs.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "kind": kind.String()})
	case errs.KindConflict:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "kind": kind.String()})
	case errs.KindPartialSettlement:
		// Enough detail to reconcile by hand, but not the raw cause.
		var e *errs.Error
		msg := "settlement partially completed"
		if errors.As(err, &e) {
			msg = e.Msg
		}
		g.logger.Error("partial settlement", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg, "kind": kind.String()})
	default:
		g.logger.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metric.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
