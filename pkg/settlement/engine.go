// Package settlement converts a confirmed payment into a sold listing,
// an order record and a commission ledger entry.
//
// The write sequence is reserve -> order -> ledger. The reserve is a
// single conditional update guarded on the listing still being
// approved, so two racing buyers can never both succeed. The two
// inserts that follow are separate writes: if one fails the listing
// stays sold with no matching order, which Reconcile reports for
// manual repair.
package settlement

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/example/reshoe/pkg/errs"
	"github.com/example/reshoe/pkg/metric"
	"github.com/example/reshoe/pkg/models"
	"github.com/example/reshoe/pkg/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

type ListingStore interface {
	FindByID(ctx context.Context, id string) (*models.Listing, error)
	ReserveForSale(ctx context.Context, id string) (bool, error)
}

type OrderStore interface {
	Insert(ctx context.Context, order *models.Order) error
	SoldWithoutOrder(ctx context.Context) ([]string, error)
}

type TransactionStore interface {
	Insert(ctx context.Context, txn *models.Transaction) error
}

type SettingsStore interface {
	GetOrCreate(ctx context.Context) (*models.PlatformSettings, error)
}

type UserStore interface {
	FindRefsByIDs(ctx context.Context, ids []string) (map[string]*models.UserRef, error)
}

type AuditStore interface {
	CreateAuditLog(ctx context.Context, log *repository.AuditLog) error
}

type Engine struct {
	listings ListingStore
	orders   OrderStore
	txns     TransactionStore
	settings SettingsStore
	users    UserStore
	audit    AuditStore
	validate *validator.Validate
	logger   *zap.Logger
}

func NewEngine(listings ListingStore, orders OrderStore, txns TransactionStore,
	settings SettingsStore, users UserStore, audit AuditStore, logger *zap.Logger) *Engine {
	return &Engine{
		listings: listings,
		orders:   orders,
		txns:     txns,
		settings: settings,
		users:    users,
		audit:    audit,
		validate: validator.New(),
		logger:   logger,
	}
}

type ShippingAddressInput struct {
	FullName string `json:"full_name" validate:"required"`
	Address  string `json:"address" validate:"required"`
	City     string `json:"city" validate:"required"`
	State    string `json:"state" validate:"required"`
	ZipCode  string `json:"zip_code" validate:"required"`
	Country  string `json:"country" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
}

// NormalizePhone strips everything but digits and requires exactly ten
// of them.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) != 10 {
		return "", errs.Validation("phone must contain exactly 10 digits")
	}
	return digits, nil
}

// Split is the commission arithmetic for one sale, in minor currency
// units. Commission rounds half up; earnings are the remainder, so
// Commission + SellerEarnings == Amount always holds.
type Split struct {
	Amount         int64
	Commission     int64
	SellerEarnings int64
	Rate           float64
}

func ComputeSplit(amount int64, rate float64) Split {
	commission := int64(math.Round(float64(amount) * rate / 100))
	return Split{
		Amount:         amount,
		Commission:     commission,
		SellerEarnings: amount - commission,
		Rate:           rate,
	}
}

// SettlePurchase runs the full settlement for a confirmed payment:
// validate, snapshot the commission rate, reserve the listing, record
// the order, post the ledger entry, and return the order joined with
// buyer, seller and listing.
func (e *Engine) SettlePurchase(ctx context.Context, buyerID, listingID, paymentID string, addr ShippingAddressInput) (*models.PopulatedOrder, error) {
	if paymentID == "" {
		return nil, errs.Validation("payment id is required")
	}
	if err := e.validate.Struct(addr); err != nil {
		return nil, errs.Wrap(errs.KindValidation, "invalid shipping address", err)
	}
	phone, err := NormalizePhone(addr.Phone)
	if err != nil {
		return nil, err
	}

	listing, err := e.listings.FindByID(ctx, listingID)
	if err != nil {
		metric.SettlementsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}
	if listing.Status != models.ListingApproved {
		metric.SettlementsTotal.WithLabelValues("conflict").Inc()
		return nil, errs.Conflict("listing is not available for purchase")
	}
	if listing.SellerID == buyerID {
		metric.SettlementsTotal.WithLabelValues("rejected").Inc()
		return nil, errs.Forbidden("cannot buy your own listing")
	}

	settings, err := e.settings.GetOrCreate(ctx)
	if err != nil {
		return nil, errs.Internal("failed to load platform settings", err)
	}
	split := ComputeSplit(listing.Price, settings.CommissionRate)

	// The conditional update is the serialization point: of any number
	// of concurrent attempts on this listing, exactly one reserve
	// matches.
	reserved, err := e.listings.ReserveForSale(ctx, listingID)
	if err != nil {
		return nil, errs.Internal("failed to reserve listing", err)
	}
	if !reserved {
		metric.SettlementsTotal.WithLabelValues("conflict").Inc()
		return nil, errs.Conflict("listing is no longer available")
	}

	now := time.Now()
	order := &models.Order{
		ID:        uuid.NewString(),
		BuyerID:   buyerID,
		SellerID:  listing.SellerID,
		ListingID: listing.ID,
		PaymentID: paymentID,
		Amount:    listing.Price,
		Status:    models.OrderPending,
		ShippingAddress: models.ShippingAddress{
			FullName: addr.FullName,
			Address:  addr.Address,
			City:     addr.City,
			State:    addr.State,
			ZipCode:  addr.ZipCode,
			Country:  addr.Country,
			Phone:    phone,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.orders.Insert(ctx, order); err != nil {
		metric.SettlementsTotal.WithLabelValues("partial").Inc()
		e.logger.Error("settlement failed after listing reserve",
			zap.String("listing_id", listingID),
			zap.String("buyer_id", buyerID),
			zap.Error(err))
		return nil, errs.PartialSettlement("listing was reserved but the order could not be recorded", err)
	}

	txn := &models.Transaction{
		ID:             uuid.NewString(),
		SellerID:       listing.SellerID,
		OrderID:        order.ID,
		Amount:         split.Amount,
		Commission:     split.Commission,
		CommissionRate: split.Rate,
		SellerEarnings: split.SellerEarnings,
		PayoutStatus:   models.PayoutPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := e.txns.Insert(ctx, txn); err != nil {
		metric.SettlementsTotal.WithLabelValues("partial").Inc()
		e.logger.Error("settlement failed after order insert",
			zap.String("order_id", order.ID),
			zap.Error(err))
		return nil, errs.PartialSettlement("order was recorded but the ledger entry could not be posted", err)
	}

	metric.SettlementsTotal.WithLabelValues("settled").Inc()
	metric.CommissionPosted.Add(float64(split.Commission))

	go e.audit.CreateAuditLog(context.Background(), &repository.AuditLog{
		ID:       uuid.NewString(),
		Action:   "settle_purchase",
		EntityID: order.ID,
		ActorID:  buyerID,
		Data: bson.M{
			"listing_id": listing.ID,
			"amount":     split.Amount,
			"commission": split.Commission,
			"rate":       split.Rate,
		},
	})

	return e.populate(ctx, order, listing), nil
}

func (e *Engine) populate(ctx context.Context, order *models.Order, listing *models.Listing) *models.PopulatedOrder {
	populated := &models.PopulatedOrder{Order: *order, Listing: listing}
	refs, err := e.users.FindRefsByIDs(ctx, []string{order.BuyerID, order.SellerID})
	if err != nil {
		e.logger.Warn("failed to join order parties", zap.Error(err))
		return populated
	}
	populated.Buyer = refs[order.BuyerID]
	populated.Seller = refs[order.SellerID]
	return populated
}

// Reconcile reports listings stuck in the inconsistency window: sold
// with no matching order. An empty slice means the ledger is whole.
func (e *Engine) Reconcile(ctx context.Context) ([]string, error) {
	ids, err := e.orders.SoldWithoutOrder(ctx)
	if err != nil {
		return nil, errs.Internal("reconciliation query failed", err)
	}
	if len(ids) > 0 {
		e.logger.Error("settlement invariant violated: sold listings without orders",
			zap.Strings("listing_ids", ids))
	}
	return ids, nil
}
