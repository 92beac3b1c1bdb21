package analytics

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/example/reshoe/pkg/auth"
	"github.com/example/reshoe/pkg/errs"
	"github.com/example/reshoe/pkg/models"
	"github.com/example/reshoe/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStats struct {
	userCalls int
}

func (f *fakeStats) CountByRole(context.Context) (map[models.Role]int64, error) {
	f.userCalls++
	return map[models.Role]int64{models.RoleCustomer: 40, models.RoleSeller: 12, models.RoleAdmin: 1}, nil
}

func (f *fakeStats) List(_ context.Context, filter repository.UserFilter) ([]models.User, int64, error) {
	users := []models.User{
		{ID: "u1", Role: models.RoleSeller},
		{ID: "u2", Role: models.RoleCustomer},
		{ID: "u3", Role: models.RoleCustomer},
	}
	if filter.Role == "" {
		return users, int64(len(users)), nil
	}
	var out []models.User
	for _, u := range users {
		if u.Role == filter.Role {
			out = append(out, u)
		}
	}
	return out, int64(len(out)), nil
}

type fakeListingStats struct{}

func (fakeListingStats) CountByStatus(context.Context) (map[models.ListingStatus]int64, error) {
	return map[models.ListingStatus]int64{models.ListingApproved: 7, models.ListingSold: 3}, nil
}

type fakeOrderStats struct{}

func (fakeOrderStats) CountByStatus(context.Context) (map[models.OrderStatus]int64, error) {
	return map[models.OrderStatus]int64{models.OrderPending: 2, models.OrderDelivered: 1}, nil
}

func (fakeOrderStats) List(context.Context, repository.OrderFilter) ([]models.Order, int64, error) {
	return []models.Order{{ID: "o1"}, {ID: "o2"}}, 2, nil
}

func (fakeOrderStats) SalesOverTime(context.Context, time.Time) ([]repository.DailyVolume, error) {
	return []repository.DailyVolume{{Day: "2026-08-28", TotalSales: 15000, OrderCount: 2}}, nil
}

type fakeLedgerStats struct{}

func (fakeLedgerStats) Totals(context.Context, repository.TransactionFilter) (*repository.LedgerTotals, error) {
	return &repository.LedgerTotals{TotalAmount: 15000, TotalCommission: 1500, TotalSellerEarnings: 13500}, nil
}

func (fakeLedgerStats) TopSellers(context.Context, int64) ([]repository.TopSeller, error) {
	return []repository.TopSeller{{SellerID: "seller-1", TotalSales: 15000, OrderCount: 2}}, nil
}

type memCache struct {
	entries map[string][]byte
}

func newMemCache() *memCache { return &memCache{entries: map[string][]byte{}} }

func (c *memCache) GetJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	data, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (c *memCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = data
	return nil
}

func (c *memCache) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(c.entries, key)
	}
	return nil
}

func TestDashboard(t *testing.T) {
	users := &fakeStats{}
	svc := NewService(users, fakeListingStats{}, fakeOrderStats{}, fakeLedgerStats{}, newMemCache(), zap.NewNop())

	d, err := svc.Dashboard(context.Background(), auth.Principal{UserID: "admin-1", Role: models.RoleAdmin}, false)
	require.NoError(t, err)
	assert.Equal(t, int64(12), d.Users[models.RoleSeller])
	assert.Equal(t, int64(7), d.Listings[models.ListingApproved])
	assert.Equal(t, int64(2), d.Orders[models.OrderPending])
	assert.Equal(t, int64(1500), d.Financial.TotalCommission)
	assert.Len(t, d.Recent, 2)
	assert.Len(t, d.Top, 1)
	assert.Len(t, d.Daily, 1)
}

func TestDashboard_AdminOnly(t *testing.T) {
	svc := NewService(&fakeStats{}, fakeListingStats{}, fakeOrderStats{}, fakeLedgerStats{}, newMemCache(), zap.NewNop())

	for _, role := range []models.Role{models.RoleCustomer, models.RoleSeller} {
		_, err := svc.Dashboard(context.Background(), auth.Principal{UserID: "u1", Role: role}, false)
		assert.Equal(t, errs.KindForbidden, errs.KindOf(err))
	}
}

func TestDashboard_ServesCachedSnapshot(t *testing.T) {
	users := &fakeStats{}
	svc := NewService(users, fakeListingStats{}, fakeOrderStats{}, fakeLedgerStats{}, newMemCache(), zap.NewNop())
	admin := auth.Principal{UserID: "admin-1", Role: models.RoleAdmin}

	first, err := svc.Dashboard(context.Background(), admin, false)
	require.NoError(t, err)
	second, err := svc.Dashboard(context.Background(), admin, false)
	require.NoError(t, err)

	assert.Equal(t, 1, users.userCalls)
	assert.Equal(t, first.Financial, second.Financial)
}

func TestDashboard_RefreshBustsCache(t *testing.T) {
	users := &fakeStats{}
	svc := NewService(users, fakeListingStats{}, fakeOrderStats{}, fakeLedgerStats{}, newMemCache(), zap.NewNop())
	admin := auth.Principal{UserID: "admin-1", Role: models.RoleAdmin}

	_, err := svc.Dashboard(context.Background(), admin, false)
	require.NoError(t, err)
	_, err = svc.Dashboard(context.Background(), admin, true)
	require.NoError(t, err)

	assert.Equal(t, 2, users.userCalls)
}

func TestDashboard_NilCache(t *testing.T) {
	svc := NewService(&fakeStats{}, fakeListingStats{}, fakeOrderStats{}, fakeLedgerStats{}, nil, zap.NewNop())

	_, err := svc.Dashboard(context.Background(), auth.Principal{UserID: "admin-1", Role: models.RoleAdmin}, false)
	require.NoError(t, err)
}

func TestUsers(t *testing.T) {
	svc := NewService(&fakeStats{}, fakeListingStats{}, fakeOrderStats{}, fakeLedgerStats{}, nil, zap.NewNop())
	admin := auth.Principal{UserID: "admin-1", Role: models.RoleAdmin}

	users, total, err := svc.Users(context.Background(), admin, models.RoleCustomer, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, users, 2)

	_, _, err = svc.Users(context.Background(), auth.Principal{UserID: "s1", Role: models.RoleSeller}, "", 1, 20)
	assert.Equal(t, errs.KindForbidden, errs.KindOf(err))

	_, _, err = svc.Users(context.Background(), admin, models.Role("wizard"), 1, 20)
	assert.Equal(t, errs.KindValidation, errs.KindOf(err))
}
