package models

import (
	"time"
)

const (
	DefaultCommissionRate = 10.0
	DefaultPlatformName   = "ReShoe"
	DefaultContactEmail   = "support@reshoe.com"
)

// PlatformSettings is a singleton document, lazily created with
// defaults on first read. The commission rate is read at settlement
// time only to snapshot it into the transaction.
type PlatformSettings struct {
	ID             string    `bson:"_id,omitempty" json:"id"`
	CommissionRate float64   `bson:"commission_rate" json:"commission_rate"`
	PlatformName   string    `bson:"platform_name" json:"platform_name"`
	ContactEmail   string    `bson:"contact_email" json:"contact_email"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at" json:"updated_at"`
}
