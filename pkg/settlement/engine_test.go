package settlement

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/example/reshoe/pkg/errs"
	"github.com/example/reshoe/pkg/models"
	"github.com/example/reshoe/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeListings struct {
	mu       sync.Mutex
	listings map[string]*models.Listing
}

func (f *fakeListings) FindByID(_ context.Context, id string) (*models.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.listings[id]
	if !ok {
		return nil, errs.NotFound("listing not found")
	}
	cp := *l
	return &cp, nil
}

func (f *fakeListings) ReserveForSale(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.listings[id]
	if !ok || l.Status != models.ListingApproved {
		return false, nil
	}
	l.Status = models.ListingSold
	return true, nil
}

type fakeOrders struct {
	mu        sync.Mutex
	orders    []*models.Order
	insertErr error
}

func (f *fakeOrders) Insert(_ context.Context, o *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	cp := *o
	f.orders = append(f.orders, &cp)
	return nil
}

func (f *fakeOrders) SoldWithoutOrder(context.Context) ([]string, error) { return nil, nil }

type fakeTxns struct {
	mu        sync.Mutex
	txns      []*models.Transaction
	insertErr error
}

func (f *fakeTxns) Insert(_ context.Context, t *models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	cp := *t
	f.txns = append(f.txns, &cp)
	return nil
}

type fakeSettings struct{ rate float64 }

func (f *fakeSettings) GetOrCreate(context.Context) (*models.PlatformSettings, error) {
	return &models.PlatformSettings{CommissionRate: f.rate}, nil
}

type fakeUsers struct{}

func (fakeUsers) FindRefsByIDs(_ context.Context, ids []string) (map[string]*models.UserRef, error) {
	refs := make(map[string]*models.UserRef, len(ids))
	for _, id := range ids {
		refs[id] = &models.UserRef{ID: id, Name: "user " + id}
	}
	return refs, nil
}

type fakeAudit struct{}

func (fakeAudit) CreateAuditLog(context.Context, *repository.AuditLog) error { return nil }

func validAddress() ShippingAddressInput {
	return ShippingAddressInput{
		FullName: "Chloe Customer",
		Address:  "12 Lake View Road",
		City:     "Pune",
		State:    "MH",
		ZipCode:  "411001",
		Country:  "IN",
		Phone:    "(098) 765-4321",
	}
}

func newTestEngine(listings *fakeListings, orders *fakeOrders, txns *fakeTxns, rate float64) *Engine {
	return NewEngine(listings, orders, txns, &fakeSettings{rate: rate}, fakeUsers{}, fakeAudit{}, zap.NewNop())
}

func approvedListing(id, sellerID string, price int64) *models.Listing {
	return &models.Listing{
		ID:       id,
		SellerID: sellerID,
		Title:    "Air Max 90",
		Price:    price,
		Status:   models.ListingApproved,
	}
}

func TestSettlePurchase_Success(t *testing.T) {
	listings := &fakeListings{listings: map[string]*models.Listing{
		"l1": approvedListing("l1", "seller-1", 7499),
	}}
	orders := &fakeOrders{}
	txns := &fakeTxns{}
	engine := newTestEngine(listings, orders, txns, 10)

	order, err := engine.SettlePurchase(context.Background(), "buyer-1", "l1", "pay_1", validAddress())
	require.NoError(t, err)

	assert.Equal(t, models.ListingSold, listings.listings["l1"].Status)

	require.Len(t, orders.orders, 1)
	assert.Equal(t, int64(7499), order.Amount)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, "seller-1", order.SellerID)
	assert.Equal(t, "pay_1", order.PaymentID)
	assert.Equal(t, "0987654321", order.ShippingAddress.Phone)

	require.Len(t, txns.txns, 1)
	txn := txns.txns[0]
	assert.Equal(t, order.ID, txn.OrderID)
	assert.Equal(t, int64(7499), txn.Amount)
	assert.Equal(t, int64(750), txn.Commission)
	assert.Equal(t, int64(6749), txn.SellerEarnings)
	assert.Equal(t, 10.0, txn.CommissionRate)
	assert.Equal(t, models.PayoutPending, txn.PayoutStatus)

	require.NotNil(t, order.Buyer)
	require.NotNil(t, order.Seller)
	require.NotNil(t, order.Listing)
}

func TestSettlePurchase_SelfPurchase(t *testing.T) {
	listings := &fakeListings{listings: map[string]*models.Listing{
		"l1": approvedListing("l1", "seller-1", 1000),
	}}
	engine := newTestEngine(listings, &fakeOrders{}, &fakeTxns{}, 10)

	_, err := engine.SettlePurchase(context.Background(), "seller-1", "l1", "pay_1", validAddress())
	require.Error(t, err)
	assert.Equal(t, errs.KindForbidden, errs.KindOf(err))
	assert.Equal(t, models.ListingApproved, listings.listings["l1"].Status)
}

func TestSettlePurchase_ListingNotApproved(t *testing.T) {
	for _, status := range []models.ListingStatus{
		models.ListingPendingApproval,
		models.ListingRejected,
		models.ListingSold,
	} {
		l := approvedListing("l1", "seller-1", 1000)
		l.Status = status
		listings := &fakeListings{listings: map[string]*models.Listing{"l1": l}}
		engine := newTestEngine(listings, &fakeOrders{}, &fakeTxns{}, 10)

		_, err := engine.SettlePurchase(context.Background(), "buyer-1", "l1", "pay_1", validAddress())
		require.Error(t, err, "status %s", status)
		assert.Equal(t, errs.KindConflict, errs.KindOf(err), "status %s", status)
	}
}

func TestSettlePurchase_ListingNotFound(t *testing.T) {
	engine := newTestEngine(&fakeListings{listings: map[string]*models.Listing{}}, &fakeOrders{}, &fakeTxns{}, 10)

	_, err := engine.SettlePurchase(context.Background(), "buyer-1", "missing", "pay_1", validAddress())
	require.Error(t, err)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestSettlePurchase_InvalidShipping(t *testing.T) {
	listings := &fakeListings{listings: map[string]*models.Listing{
		"l1": approvedListing("l1", "seller-1", 1000),
	}}
	orders := &fakeOrders{}
	engine := newTestEngine(listings, orders, &fakeTxns{}, 10)

	addr := validAddress()
	addr.City = ""
	_, err := engine.SettlePurchase(context.Background(), "buyer-1", "l1", "pay_1", addr)
	require.Error(t, err)
	assert.Equal(t, errs.KindValidation, errs.KindOf(err))

	addr = validAddress()
	addr.Phone = "12345"
	_, err = engine.SettlePurchase(context.Background(), "buyer-1", "l1", "pay_1", addr)
	require.Error(t, err)
	assert.Equal(t, errs.KindValidation, errs.KindOf(err))

	// Validation failures must abort before any write.
	assert.Empty(t, orders.orders)
	assert.Equal(t, models.ListingApproved, listings.listings["l1"].Status)
}

// Two concurrent settlements of the same listing: exactly one wins,
// the loser sees a conflict, and only one order and one ledger entry
// exist afterwards.
func TestSettlePurchase_ConcurrentBuyers(t *testing.T) {
	listings := &fakeListings{listings: map[string]*models.Listing{
		"l1": approvedListing("l1", "seller-1", 5000),
	}}
	orders := &fakeOrders{}
	txns := &fakeTxns{}
	engine := newTestEngine(listings, orders, txns, 10)

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for _, buyer := range []string{"buyer-1", "buyer-2"} {
		wg.Add(1)
		go func(buyer string) {
			defer wg.Done()
			_, err := engine.SettlePurchase(context.Background(), buyer, "l1", "pay_"+buyer, validAddress())
			results <- err
		}(buyer)
	}
	wg.Wait()
	close(results)

	var succeeded, conflicted int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errs.Is(err, errs.KindConflict):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, conflicted)
	assert.Len(t, orders.orders, 1)
	assert.Len(t, txns.txns, 1)
}

func TestSettlePurchase_PartialAfterReserve(t *testing.T) {
	listings := &fakeListings{listings: map[string]*models.Listing{
		"l1": approvedListing("l1", "seller-1", 5000),
	}}
	orders := &fakeOrders{insertErr: errors.New("write timeout")}
	engine := newTestEngine(listings, orders, &fakeTxns{}, 10)

	_, err := engine.SettlePurchase(context.Background(), "buyer-1", "l1", "pay_1", validAddress())
	require.Error(t, err)
	assert.Equal(t, errs.KindPartialSettlement, errs.KindOf(err))

	// The listing stays sold: that is the documented inconsistency
	// window Reconcile exists to report.
	assert.Equal(t, models.ListingSold, listings.listings["l1"].Status)
}

func TestSettlePurchase_PartialAfterOrder(t *testing.T) {
	listings := &fakeListings{listings: map[string]*models.Listing{
		"l1": approvedListing("l1", "seller-1", 5000),
	}}
	orders := &fakeOrders{}
	txns := &fakeTxns{insertErr: errors.New("write timeout")}
	engine := newTestEngine(listings, orders, txns, 10)

	_, err := engine.SettlePurchase(context.Background(), "buyer-1", "l1", "pay_1", validAddress())
	require.Error(t, err)
	assert.Equal(t, errs.KindPartialSettlement, errs.KindOf(err))
	assert.Len(t, orders.orders, 1)
	assert.Empty(t, txns.txns)
}

func TestComputeSplit_AdditiveInvariant(t *testing.T) {
	cases := []struct {
		amount     int64
		rate       float64
		commission int64
	}{
		{7499, 10, 750},
		{7499, 0, 0},
		{7499, 100, 7499},
		{1, 10, 0},
		{5, 10, 1},
		{999, 12.5, 125},
		{100000, 7.25, 7250},
	}
	for _, tc := range cases {
		split := ComputeSplit(tc.amount, tc.rate)
		assert.Equal(t, tc.commission, split.Commission, "amount=%d rate=%v", tc.amount, tc.rate)
		assert.Equal(t, tc.amount, split.Commission+split.SellerEarnings, "amount=%d rate=%v", tc.amount, tc.rate)
	}

	// The invariant must hold for every minor unit, not just round
	// numbers.
	for amount := int64(0); amount < 1000; amount++ {
		split := ComputeSplit(amount, 10)
		assert.Equal(t, amount, split.Commission+split.SellerEarnings, "amount=%d", amount)
	}
}

func TestNormalizePhone(t *testing.T) {
	digits, err := NormalizePhone("(098) 765-4321")
	require.NoError(t, err)
	assert.Equal(t, "0987654321", digits)

	_, err = NormalizePhone("12345")
	assert.Equal(t, errs.KindValidation, errs.KindOf(err))

	_, err = NormalizePhone("123456789012")
	assert.Equal(t, errs.KindValidation, errs.KindOf(err))
}
