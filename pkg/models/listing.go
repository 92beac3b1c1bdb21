package models

import (
	"time"
)

// ListingStatus is the moderation lifecycle of a listing.
// pending-approval -> {approved, rejected}; rejected -> pending-approval
// (seller resubmission); approved -> sold; sold is terminal.
type ListingStatus string

const (
	ListingPendingApproval ListingStatus = "pending-approval"
	ListingApproved        ListingStatus = "approved"
	ListingRejected        ListingStatus = "rejected"
	ListingSold            ListingStatus = "sold"
)

func (s ListingStatus) Valid() bool {
	switch s {
	case ListingPendingApproval, ListingApproved, ListingRejected, ListingSold:
		return true
	}
	return false
}

type Condition string

const (
	ConditionNew     Condition = "new"
	ConditionLikeNew Condition = "like-new"
	ConditionGood    Condition = "good"
	ConditionFair    Condition = "fair"
	ConditionWorn    Condition = "worn"
)

func (c Condition) Valid() bool {
	switch c {
	case ConditionNew, ConditionLikeNew, ConditionGood, ConditionFair, ConditionWorn:
		return true
	}
	return false
}

type Category string

const (
	CategoryMen    Category = "men"
	CategoryWomen  Category = "women"
	CategoryUnisex Category = "unisex"
	CategoryKids   Category = "kids"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryMen, CategoryWomen, CategoryUnisex, CategoryKids:
		return true
	}
	return false
}

// ListingPatch is a partial update; nil fields are left untouched.
// Status and RejectionReason are only ever set by the moderation and
// settlement paths, never bound from client input.
type ListingPatch struct {
	Title           *string
	Brand           *string
	Size            *float64
	Condition       *Condition
	Price           *int64
	Description     *string
	Images          []string
	Category        *Category
	Status          *ListingStatus
	RejectionReason *string
}

// Listing is a single pair of shoes offered for sale.
// Price is in minor currency units (paise).
type Listing struct {
	ID              string        `bson:"_id,omitempty" json:"id"`
	SellerID        string        `bson:"seller_id" json:"seller_id"`
	Title           string        `bson:"title" json:"title"`
	Brand           string        `bson:"brand" json:"brand"`
	Size            float64       `bson:"size" json:"size"`
	Condition       Condition     `bson:"condition" json:"condition"`
	Price           int64         `bson:"price" json:"price"`
	Description     string        `bson:"description" json:"description"`
	Images          []string      `bson:"images" json:"images"`
	Category        Category      `bson:"category" json:"category"`
	Status          ListingStatus `bson:"status" json:"status"`
	RejectionReason string        `bson:"rejection_reason" json:"rejection_reason,omitempty"`
	Views           int64         `bson:"views" json:"views"`
	CreatedAt       time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `bson:"updated_at" json:"updated_at"`
}
