package payment

import (
	"context"

	"github.com/example/reshoe/pkg/errs"
	"github.com/example/reshoe/pkg/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ListingFinder is the slice of the catalog store the bridge needs.
type ListingFinder interface {
	FindByID(ctx context.Context, id string) (*models.Listing, error)
}

// Bridge requests charges from the gateway and validates its signed
// confirmations before settlement runs.
type Bridge struct {
	gateway  Gateway
	listings ListingFinder
	currency string
	logger   *zap.Logger
}

func NewBridge(gateway Gateway, listings ListingFinder, currency string, logger *zap.Logger) *Bridge {
	if currency == "" {
		currency = "INR"
	}
	return &Bridge{gateway: gateway, listings: listings, currency: currency, logger: logger}
}

// ChargeHandle is returned to the client so it can run the hosted
// payment flow.
type ChargeHandle struct {
	GatewayOrderID string `json:"gateway_order_id"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	KeyID          string `json:"key_id"`
}

// InitiateCharge asks the gateway for a charge against an approved
// listing. Sellers cannot charge their own listings.
func (b *Bridge) InitiateCharge(ctx context.Context, buyerID, listingID string) (*ChargeHandle, error) {
	listing, err := b.listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.Status != models.ListingApproved {
		return nil, errs.Conflict("listing is not available for purchase")
	}
	if listing.SellerID == buyerID {
		return nil, errs.Forbidden("cannot buy your own listing")
	}

	order, err := b.gateway.CreateOrder(ctx, CreateOrderParams{
		Amount:   listing.Price,
		Currency: b.currency,
		Receipt:  "listing_" + uuid.NewString(),
		Notes: map[string]string{
			"listing_id": listing.ID,
			"buyer_id":   buyerID,
			"title":      listing.Title,
		},
	})
	if err != nil {
		return nil, errs.Internal("failed to create gateway order", err)
	}

	return &ChargeHandle{
		GatewayOrderID: order.ID,
		Amount:         listing.Price,
		Currency:       order.Currency,
		KeyID:          b.gateway.KeyID(),
	}, nil
}

// Confirmation is what a verified charge looks like to callers.
type Confirmation struct {
	PaymentID string   `json:"payment_id"`
	OrderID   string   `json:"order_id"`
	Payment   *Payment `json:"payment,omitempty"`
}

// ConfirmCharge checks the gateway's signature over the order/payment
// pair. A mismatch of any sort is a verification failure, never a
// server error. The enrichment fetch is best effort: a verified
// signature stands even if the gateway is unreachable afterwards.
func (b *Bridge) ConfirmCharge(ctx context.Context, gatewayOrderID, gatewayPaymentID, signature string) (*Confirmation, error) {
	if gatewayOrderID == "" || gatewayPaymentID == "" || signature == "" {
		return nil, errs.PaymentVerification("payment verification failed")
	}
	if !b.gateway.VerifySignature(gatewayOrderID, gatewayPaymentID, signature) {
		return nil, errs.PaymentVerification("payment verification failed")
	}

	conf := &Confirmation{PaymentID: gatewayPaymentID, OrderID: gatewayOrderID}

	payment, err := b.gateway.FetchPayment(ctx, gatewayPaymentID)
	if err != nil {
		b.logger.Warn("payment enrichment fetch failed",
			zap.String("payment_id", gatewayPaymentID),
			zap.Error(err))
		return conf, nil
	}
	conf.Payment = payment
	return conf, nil
}
