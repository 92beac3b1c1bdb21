package models

import (
	"time"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// ShippingAddress is embedded in the order document. Phone holds the
// normalized 10-digit form.
type ShippingAddress struct {
	FullName string `bson:"full_name" json:"full_name"`
	Address  string `bson:"address" json:"address"`
	City     string `bson:"city" json:"city"`
	State    string `bson:"state" json:"state"`
	ZipCode  string `bson:"zip_code" json:"zip_code"`
	Country  string `bson:"country" json:"country"`
	Phone    string `bson:"phone" json:"phone"`
}

// Order records a completed purchase. Amount is the listing price
// captured at settlement time, in minor currency units, and never
// changes afterwards. SellerID is denormalized from the listing so
// later listing edits cannot rewrite history.
type Order struct {
	ID              string          `bson:"_id,omitempty" json:"id"`
	BuyerID         string          `bson:"buyer_id" json:"buyer_id"`
	SellerID        string          `bson:"seller_id" json:"seller_id"`
	ListingID       string          `bson:"listing_id" json:"listing_id"`
	PaymentID       string          `bson:"payment_id" json:"payment_id"`
	Amount          int64           `bson:"amount" json:"amount"`
	Status          OrderStatus     `bson:"status" json:"status"`
	ShippingAddress ShippingAddress `bson:"shipping_address" json:"shipping_address"`
	CreatedAt       time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `bson:"updated_at" json:"updated_at"`
}

// PopulatedOrder joins the buyer, seller and listing for display.
type PopulatedOrder struct {
	Order
	Buyer   *UserRef `json:"buyer,omitempty"`
	Seller  *UserRef `json:"seller,omitempty"`
	Listing *Listing `json:"listing,omitempty"`
}
