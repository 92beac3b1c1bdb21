package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/example/reshoe/pkg/config"
	"github.com/example/reshoe/pkg/errs"
	"github.com/example/reshoe/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	client := NewRazorpayClient(&config.RazorpayConfig{
		KeyID:     "rzp_test_key",
		KeySecret: "s3cret",
	})

	valid := sign("s3cret", "order_1", "pay_1")
	assert.True(t, client.VerifySignature("order_1", "pay_1", valid))

	// Flipping a single hex character must fail the comparison.
	flipped := []byte(valid)
	if flipped[0] == 'a' {
		flipped[0] = 'b'
	} else {
		flipped[0] = 'a'
	}
	assert.False(t, client.VerifySignature("order_1", "pay_1", string(flipped)))

	assert.False(t, client.VerifySignature("order_1", "pay_1", ""))
	assert.False(t, client.VerifySignature("order_1", "pay_1", "not-hex-at-all"))
	assert.False(t, client.VerifySignature("order_2", "pay_1", valid))
	assert.False(t, client.VerifySignature("order_1", "pay_2", valid))

	wrongSecret := sign("other", "order_1", "pay_1")
	assert.False(t, client.VerifySignature("order_1", "pay_1", wrongSecret))
}

type fakeGateway struct {
	secret      string
	createErr   error
	fetchErr    error
	lastCreate  CreateOrderParams
	fetchResult *Payment
}

func (f *fakeGateway) CreateOrder(_ context.Context, params CreateOrderParams) (*GatewayOrder, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.lastCreate = params
	return &GatewayOrder{
		ID:       "order_fake",
		Amount:   params.Amount,
		Currency: params.Currency,
		Receipt:  params.Receipt,
		Status:   "created",
	}, nil
}

func (f *fakeGateway) FetchPayment(_ context.Context, paymentID string) (*Payment, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if f.fetchResult != nil {
		return f.fetchResult, nil
	}
	return &Payment{ID: paymentID, Status: "captured", Method: "upi"}, nil
}

func (f *fakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return signature == sign(f.secret, orderID, paymentID)
}

func (f *fakeGateway) KeyID() string { return "rzp_test_key" }

type fakeFinder struct {
	listing *models.Listing
	err     error
}

func (f *fakeFinder) FindByID(context.Context, string) (*models.Listing, error) {
	return f.listing, f.err
}

func TestInitiateCharge(t *testing.T) {
	gw := &fakeGateway{secret: "s3cret"}
	finder := &fakeFinder{listing: &models.Listing{
		ID:       "l1",
		SellerID: "seller-1",
		Title:    "Jordan 1 Mid",
		Price:    12999,
		Status:   models.ListingApproved,
	}}
	bridge := NewBridge(gw, finder, "INR", zap.NewNop())

	handle, err := bridge.InitiateCharge(context.Background(), "buyer-1", "l1")
	require.NoError(t, err)
	assert.Equal(t, "order_fake", handle.GatewayOrderID)
	assert.Equal(t, int64(12999), handle.Amount)
	assert.Equal(t, "INR", handle.Currency)
	assert.Equal(t, "rzp_test_key", handle.KeyID)
	assert.Equal(t, "l1", gw.lastCreate.Notes["listing_id"])
}

func TestInitiateCharge_Guards(t *testing.T) {
	gw := &fakeGateway{secret: "s3cret"}

	sold := &models.Listing{ID: "l1", SellerID: "seller-1", Price: 100, Status: models.ListingSold}
	bridge := NewBridge(gw, &fakeFinder{listing: sold}, "INR", zap.NewNop())
	_, err := bridge.InitiateCharge(context.Background(), "buyer-1", "l1")
	assert.Equal(t, errs.KindConflict, errs.KindOf(err))

	approved := &models.Listing{ID: "l1", SellerID: "seller-1", Price: 100, Status: models.ListingApproved}
	bridge = NewBridge(gw, &fakeFinder{listing: approved}, "INR", zap.NewNop())
	_, err = bridge.InitiateCharge(context.Background(), "seller-1", "l1")
	assert.Equal(t, errs.KindForbidden, errs.KindOf(err))

	bridge = NewBridge(gw, &fakeFinder{err: errs.NotFound("listing not found")}, "INR", zap.NewNop())
	_, err = bridge.InitiateCharge(context.Background(), "buyer-1", "l1")
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))

	gwDown := &fakeGateway{secret: "s3cret", createErr: errors.New("connection refused")}
	bridge = NewBridge(gwDown, &fakeFinder{listing: approved}, "INR", zap.NewNop())
	_, err = bridge.InitiateCharge(context.Background(), "buyer-1", "l1")
	assert.Equal(t, errs.KindInternal, errs.KindOf(err))
}

func TestConfirmCharge(t *testing.T) {
	gw := &fakeGateway{secret: "s3cret"}
	bridge := NewBridge(gw, &fakeFinder{}, "INR", zap.NewNop())

	sig := sign("s3cret", "order_1", "pay_1")
	conf, err := bridge.ConfirmCharge(context.Background(), "order_1", "pay_1", sig)
	require.NoError(t, err)
	assert.Equal(t, "pay_1", conf.PaymentID)
	assert.Equal(t, "order_1", conf.OrderID)
	require.NotNil(t, conf.Payment)
	assert.Equal(t, "captured", conf.Payment.Status)
}

func TestConfirmCharge_BadSignature(t *testing.T) {
	gw := &fakeGateway{secret: "s3cret"}
	bridge := NewBridge(gw, &fakeFinder{}, "INR", zap.NewNop())

	_, err := bridge.ConfirmCharge(context.Background(), "order_1", "pay_1", "deadbeef")
	assert.Equal(t, errs.KindPaymentVerification, errs.KindOf(err))

	_, err = bridge.ConfirmCharge(context.Background(), "", "pay_1", "x")
	assert.Equal(t, errs.KindPaymentVerification, errs.KindOf(err))

	_, err = bridge.ConfirmCharge(context.Background(), "order_1", "", "x")
	assert.Equal(t, errs.KindPaymentVerification, errs.KindOf(err))

	_, err = bridge.ConfirmCharge(context.Background(), "order_1", "pay_1", "")
	assert.Equal(t, errs.KindPaymentVerification, errs.KindOf(err))
}

func TestConfirmCharge_EnrichmentFailureTolerated(t *testing.T) {
	gw := &fakeGateway{secret: "s3cret", fetchErr: errors.New("gateway timeout")}
	bridge := NewBridge(gw, &fakeFinder{}, "INR", zap.NewNop())

	sig := sign("s3cret", "order_1", "pay_1")
	conf, err := bridge.ConfirmCharge(context.Background(), "order_1", "pay_1", sig)
	require.NoError(t, err)
	assert.Equal(t, "pay_1", conf.PaymentID)
	assert.Nil(t, conf.Payment)
}
