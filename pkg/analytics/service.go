// Package analytics computes the read-only rollups behind the admin
// dashboard. Everything here is derived data; nothing is written back.
package analytics

import (
	"context"
	"time"

	"github.com/example/reshoe/pkg/auth"
	"github.com/example/reshoe/pkg/errs"
	"github.com/example/reshoe/pkg/models"
	"github.com/example/reshoe/pkg/repository"
	"go.uber.org/zap"
)

const (
	dashboardCacheKey = "analytics:dashboard"
	dashboardCacheTTL = 60 * time.Second
	topSellerLimit    = 5
	recentOrderLimit  = 10
	trailingWindow    = 30 * 24 * time.Hour
)

type UserStats interface {
	CountByRole(ctx context.Context) (map[models.Role]int64, error)
	List(ctx context.Context, f repository.UserFilter) ([]models.User, int64, error)
}

type ListingStats interface {
	CountByStatus(ctx context.Context) (map[models.ListingStatus]int64, error)
}

type OrderStats interface {
	CountByStatus(ctx context.Context) (map[models.OrderStatus]int64, error)
	List(ctx context.Context, f repository.OrderFilter) ([]models.Order, int64, error)
	SalesOverTime(ctx context.Context, since time.Time) ([]repository.DailyVolume, error)
}

type LedgerStats interface {
	Totals(ctx context.Context, f repository.TransactionFilter) (*repository.LedgerTotals, error)
	TopSellers(ctx context.Context, limit int64) ([]repository.TopSeller, error)
}

// Cache is the snapshot cache; the Redis repository implements it.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type Service struct {
	users    UserStats
	listings ListingStats
	orders   OrderStats
	txns     LedgerStats
	cache    Cache
	logger   *zap.Logger
}

func NewService(users UserStats, listings ListingStats, orders OrderStats,
	txns LedgerStats, cache Cache, logger *zap.Logger) *Service {
	return &Service{
		users:    users,
		listings: listings,
		orders:   orders,
		txns:     txns,
		cache:    cache,
		logger:   logger,
	}
}

type Dashboard struct {
	Users     map[models.Role]int64          `json:"users"`
	Listings  map[models.ListingStatus]int64 `json:"listings"`
	Orders    map[models.OrderStatus]int64   `json:"orders"`
	Financial *repository.LedgerTotals       `json:"financial"`
	Recent    []models.Order                 `json:"recent_orders"`
	Top       []repository.TopSeller         `json:"top_sellers"`
	Daily     []repository.DailyVolume       `json:"sales_over_time"`
}

// Dashboard assembles the full admin rollup, serving a cached snapshot
// when one is fresh enough. refresh drops the snapshot first.
func (s *Service) Dashboard(ctx context.Context, p auth.Principal, refresh bool) (*Dashboard, error) {
	if p.Role != models.RoleAdmin {
		return nil, errs.Forbidden("admin only")
	}

	if refresh && s.cache != nil {
		if err := s.cache.Del(ctx, dashboardCacheKey); err != nil {
			s.logger.Warn("analytics cache invalidation failed", zap.Error(err))
		}
	}

	if s.cache != nil {
		var cached Dashboard
		hit, err := s.cache.GetJSON(ctx, dashboardCacheKey, &cached)
		if err != nil {
			s.logger.Warn("analytics cache read failed", zap.Error(err))
		} else if hit {
			return &cached, nil
		}
	}

	d := &Dashboard{}
	var err error

	if d.Users, err = s.users.CountByRole(ctx); err != nil {
		return nil, errs.Internal("failed to count users", err)
	}
	if d.Listings, err = s.listings.CountByStatus(ctx); err != nil {
		return nil, errs.Internal("failed to count listings", err)
	}
	if d.Orders, err = s.orders.CountByStatus(ctx); err != nil {
		return nil, errs.Internal("failed to count orders", err)
	}
	if d.Financial, err = s.txns.Totals(ctx, repository.TransactionFilter{}); err != nil {
		return nil, errs.Internal("failed to aggregate ledger", err)
	}
	if d.Recent, _, err = s.orders.List(ctx, repository.OrderFilter{Page: 1, Limit: recentOrderLimit}); err != nil {
		return nil, errs.Internal("failed to fetch recent orders", err)
	}
	if d.Top, err = s.txns.TopSellers(ctx, topSellerLimit); err != nil {
		return nil, errs.Internal("failed to rank sellers", err)
	}
	if d.Daily, err = s.orders.SalesOverTime(ctx, time.Now().Add(-trailingWindow)); err != nil {
		return nil, errs.Internal("failed to bucket order volume", err)
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, dashboardCacheKey, d, dashboardCacheTTL); err != nil {
			s.logger.Warn("analytics cache write failed", zap.Error(err))
		}
	}
	return d, nil
}

// Users is the admin account directory, optionally narrowed to one
// role.
func (s *Service) Users(ctx context.Context, p auth.Principal, role models.Role, page, limit int64) ([]models.User, int64, error) {
	if p.Role != models.RoleAdmin {
		return nil, 0, errs.Forbidden("admin only")
	}
	if role != "" && !role.Valid() {
		return nil, 0, errs.Validation("unknown role")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	users, total, err := s.users.List(ctx, repository.UserFilter{Role: role, Page: page, Limit: limit})
	if err != nil {
		return nil, 0, errs.Internal("failed to list users", err)
	}
	return users, total, nil
}
