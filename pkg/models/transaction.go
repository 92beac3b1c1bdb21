package models

import (
	"time"
)

type PayoutStatus string

const (
	PayoutPending    PayoutStatus = "pending"
	PayoutProcessing PayoutStatus = "processing"
	PayoutCompleted  PayoutStatus = "completed"
	PayoutFailed     PayoutStatus = "failed"
)

func (s PayoutStatus) Valid() bool {
	switch s {
	case PayoutPending, PayoutProcessing, PayoutCompleted, PayoutFailed:
		return true
	}
	return false
}

// Transaction is the commission ledger entry, one per order.
// CommissionRate is snapshotted at sale time; later settings changes
// never touch existing rows. SellerEarnings + Commission == Amount
// holds exactly for every row.
type Transaction struct {
	ID             string       `bson:"_id,omitempty" json:"id"`
	SellerID       string       `bson:"seller_id" json:"seller_id"`
	OrderID        string       `bson:"order_id" json:"order_id"`
	Amount         int64        `bson:"amount" json:"amount"`
	Commission     int64        `bson:"commission" json:"commission"`
	CommissionRate float64      `bson:"commission_rate" json:"commission_rate"`
	SellerEarnings int64        `bson:"seller_earnings" json:"seller_earnings"`
	PayoutStatus   PayoutStatus `bson:"payout_status" json:"payout_status"`
	PayoutDate     *time.Time   `bson:"payout_date,omitempty" json:"payout_date,omitempty"`
	CreatedAt      time.Time    `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time    `bson:"updated_at" json:"updated_at"`
}
