package models

import (
	"time"
)

type CartItem struct {
	ListingID string    `bson:"listing_id" json:"listing_id"`
	AddedAt   time.Time `bson:"added_at" json:"added_at"`
}

// Cart is a per-user scratch list of candidate purchases, created
// lazily on first access. A listing appears at most once.
type Cart struct {
	ID        string     `bson:"_id,omitempty" json:"id"`
	UserID    string     `bson:"user_id" json:"user_id"`
	Items     []CartItem `bson:"items" json:"items"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}

// ResolvedCartItem carries the joined listing for display; entries
// whose listing no longer resolves are dropped at read time.
type ResolvedCartItem struct {
	Listing *Listing  `json:"listing"`
	AddedAt time.Time `json:"added_at"`
}
