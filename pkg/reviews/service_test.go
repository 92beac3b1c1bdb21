package reviews

import (
	"context"
	"fmt"
	"testing"

	"github.com/example/reshoe/pkg/auth"
	"github.com/example/reshoe/pkg/errs"
	"github.com/example/reshoe/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeReviews struct {
	reviews []*models.Review
}

func (f *fakeReviews) Insert(_ context.Context, review *models.Review) error {
	for _, r := range f.reviews {
		if r.UserID == review.UserID && r.ListingID == review.ListingID {
			return errs.Conflict("you have already reviewed this listing")
		}
	}
	f.reviews = append(f.reviews, review)
	return nil
}

func (f *fakeReviews) ListByListing(_ context.Context, listingID string, page, limit int64) ([]models.Review, int64, error) {
	var out []models.Review
	for _, r := range f.reviews {
		if r.ListingID == listingID {
			out = append(out, *r)
		}
	}
	return out, int64(len(out)), nil
}

type fakeOrders struct {
	orders map[string]*models.Order
}

func (f *fakeOrders) FindByID(_ context.Context, id string) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, errs.NotFound("order not found")
	}
	cp := *o
	return &cp, nil
}

type fakeUsers struct{}

func (fakeUsers) FindRefsByIDs(_ context.Context, ids []string) (map[string]*models.UserRef, error) {
	refs := make(map[string]*models.UserRef, len(ids))
	for _, id := range ids {
		refs[id] = &models.UserRef{ID: id, Name: "User " + id}
	}
	return refs, nil
}

var buyer = auth.Principal{UserID: "buyer-1", Role: models.RoleCustomer}

func newTestService() (*Service, *fakeReviews, *fakeOrders) {
	store := &fakeReviews{}
	ords := &fakeOrders{orders: map[string]*models.Order{}}
	svc := NewService(store, ords, fakeUsers{}, zap.NewNop())
	return svc, store, ords
}

func seedOrder(ords *fakeOrders, id, buyerID, listingID string, status models.OrderStatus) {
	ords.orders[id] = &models.Order{
		ID:        id,
		BuyerID:   buyerID,
		SellerID:  "seller-1",
		ListingID: listingID,
		Status:    status,
	}
}

func validInput() CreateReviewInput {
	return CreateReviewInput{
		ListingID: "l1",
		OrderID:   "o1",
		Rating:    4,
		Comment:   "Great condition, exactly as described.",
	}
}

func TestCreate(t *testing.T) {
	svc, store, ords := newTestService()
	seedOrder(ords, "o1", "buyer-1", "l1", models.OrderDelivered)

	review, err := svc.Create(context.Background(), buyer, validInput())
	require.NoError(t, err)
	assert.NotEmpty(t, review.ID)
	assert.Equal(t, "buyer-1", review.UserID)
	assert.Equal(t, 4, review.Rating)
	require.Len(t, store.reviews, 1)
}

func TestCreate_Guards(t *testing.T) {
	svc, _, ords := newTestService()
	seedOrder(ords, "o1", "buyer-1", "l1", models.OrderDelivered)
	seedOrder(ords, "o2", "buyer-2", "l2", models.OrderDelivered)
	seedOrder(ords, "o3", "buyer-1", "l3", models.OrderShipped)

	cases := map[string]struct {
		principal auth.Principal
		mutate    func(*CreateReviewInput)
		kind      errs.Kind
	}{
		"order not found": {
			principal: buyer,
			mutate:    func(in *CreateReviewInput) { in.OrderID = "missing" },
			kind:      errs.KindNotFound,
		},
		"someone else's order": {
			principal: buyer,
			mutate:    func(in *CreateReviewInput) { in.OrderID = "o2"; in.ListingID = "l2" },
			kind:      errs.KindForbidden,
		},
		"order for another listing": {
			principal: buyer,
			mutate:    func(in *CreateReviewInput) { in.ListingID = "l2" },
			kind:      errs.KindValidation,
		},
		"not delivered yet": {
			principal: buyer,
			mutate:    func(in *CreateReviewInput) { in.OrderID = "o3"; in.ListingID = "l3" },
			kind:      errs.KindValidation,
		},
		"rating out of range": {
			principal: buyer,
			mutate:    func(in *CreateReviewInput) { in.Rating = 6 },
			kind:      errs.KindValidation,
		},
		"comment too short": {
			principal: buyer,
			mutate:    func(in *CreateReviewInput) { in.Comment = "meh" },
			kind:      errs.KindValidation,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)
			_, err := svc.Create(context.Background(), tc.principal, in)
			assert.Equal(t, tc.kind, errs.KindOf(err))
		})
	}
}

func TestCreate_OncePerListing(t *testing.T) {
	svc, _, ords := newTestService()
	seedOrder(ords, "o1", "buyer-1", "l1", models.OrderDelivered)

	_, err := svc.Create(context.Background(), buyer, validInput())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), buyer, validInput())
	assert.Equal(t, errs.KindConflict, errs.KindOf(err))
}

func TestListForListing(t *testing.T) {
	svc, store, ords := newTestService()
	for i := 1; i <= 3; i++ {
		orderID := fmt.Sprintf("o%d", i)
		buyerID := fmt.Sprintf("buyer-%d", i)
		seedOrder(ords, orderID, buyerID, "l1", models.OrderDelivered)
		_, err := svc.Create(context.Background(),
			auth.Principal{UserID: buyerID, Role: models.RoleCustomer},
			CreateReviewInput{ListingID: "l1", OrderID: orderID, Rating: i + 2, Comment: "Held up well after a month."},
		)
		require.NoError(t, err)
	}
	store.reviews = append(store.reviews, &models.Review{
		ID: "r-other", ListingID: "l2", UserID: "buyer-9", Rating: 1,
	})

	list, total, err := svc.ListForListing(context.Background(), "l1", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, list, 3)
	for _, r := range list {
		assert.Equal(t, "l1", r.ListingID)
		require.NotNil(t, r.User)
		assert.Equal(t, r.UserID, r.User.ID)
	}
}
