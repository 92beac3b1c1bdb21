package models

import (
	"time"
)

// Review is a buyer's verdict on a purchased listing. One review per
// buyer per listing, anchored to the delivered order it came from.
type Review struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	ListingID string    `bson:"listing_id" json:"listing_id"`
	OrderID   string    `bson:"order_id" json:"order_id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	Rating    int       `bson:"rating" json:"rating"`
	Comment   string    `bson:"comment" json:"comment"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// PopulatedReview joins the reviewer for display.
type PopulatedReview struct {
	Review
	User *UserRef `json:"user,omitempty"`
}
