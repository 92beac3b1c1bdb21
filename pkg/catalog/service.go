// Package catalog owns listings and their moderation lifecycle:
// pending-approval -> {approved, rejected}, rejected -> pending-approval
// on seller resubmission, approved -> sold via settlement only.
package catalog

import (
	"context"
	"time"

	"github.com/example/reshoe/pkg/auth"
	"github.com/example/reshoe/pkg/errs"
	"github.com/example/reshoe/pkg/images"
	"github.com/example/reshoe/pkg/models"
	"github.com/example/reshoe/pkg/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ListingStore is the persistence contract the service needs.
type ListingStore interface {
	Insert(ctx context.Context, listing *models.Listing) error
	FindByID(ctx context.Context, id string) (*models.Listing, error)
	FindByIDAndCountView(ctx context.Context, id string) (*models.Listing, error)
	Search(ctx context.Context, f repository.ListingFilter) ([]models.Listing, int64, error)
	Patch(ctx context.Context, id string, patch models.ListingPatch) (*models.Listing, error)
	Review(ctx context.Context, id string, status models.ListingStatus, reason string) (*models.Listing, error)
	Delete(ctx context.Context, id string) error
}

type Service struct {
	listings ListingStore
	images   images.Store
	validate *validator.Validate
	logger   *zap.Logger
}

func NewService(listings ListingStore, imageStore images.Store, logger *zap.Logger) *Service {
	return &Service{
		listings: listings,
		images:   imageStore,
		validate: validator.New(),
		logger:   logger,
	}
}

type SubmitListingInput struct {
	Title       string   `json:"title" validate:"required,min=3"`
	Brand       string   `json:"brand" validate:"required,min=2"`
	Size        float64  `json:"size" validate:"required,gt=0,lte=20"`
	Condition   string   `json:"condition" validate:"required"`
	Price       int64    `json:"price" validate:"gte=0"`
	Description string   `json:"description" validate:"required,min=10"`
	Images      []string `json:"images" validate:"required,min=1"`
	Category    string   `json:"category" validate:"required"`
}

// Submit creates a listing in pending-approval. Only sellers may list.
func (s *Service) Submit(ctx context.Context, p auth.Principal, in SubmitListingInput) (*models.Listing, error) {
	if p.Role != models.RoleSeller {
		return nil, errs.Forbidden("only sellers can create listings")
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, errs.Wrap(errs.KindValidation, "invalid listing", err)
	}
	condition := models.Condition(in.Condition)
	if !condition.Valid() {
		return nil, errs.Validation("unknown condition")
	}
	category := models.Category(in.Category)
	if !category.Valid() {
		return nil, errs.Validation("unknown category")
	}

	urls, err := s.images.UploadAll(ctx, in.Images)
	if err != nil {
		return nil, errs.Internal("failed to store images", err)
	}

	now := time.Now()
	listing := &models.Listing{
		ID:          uuid.NewString(),
		SellerID:    p.UserID,
		Title:       in.Title,
		Brand:       in.Brand,
		Size:        in.Size,
		Condition:   condition,
		Price:       in.Price,
		Description: in.Description,
		Images:      urls,
		Category:    category,
		Status:      models.ListingPendingApproval,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.listings.Insert(ctx, listing); err != nil {
		return nil, errs.Internal("failed to create listing", err)
	}
	return listing, nil
}

type ReviewDecision string

const (
	DecisionApprove ReviewDecision = "approve"
	DecisionReject  ReviewDecision = "reject"
)

// Review approves or rejects a pending listing. Admin only; rejecting
// requires a reason. A listing that already left pending-approval
// cannot be reviewed again.
func (s *Service) Review(ctx context.Context, p auth.Principal, listingID string, decision ReviewDecision, reason string) (*models.Listing, error) {
	if p.Role != models.RoleAdmin {
		return nil, errs.Forbidden("only admins can review listings")
	}

	var status models.ListingStatus
	switch decision {
	case DecisionApprove:
		status, reason = models.ListingApproved, ""
	case DecisionReject:
		if reason == "" {
			return nil, errs.Validation("a rejection reason is required")
		}
		status = models.ListingRejected
	default:
		return nil, errs.Validation("decision must be approve or reject")
	}

	listing, err := s.listings.Review(ctx, listingID, status, reason)
	if err != nil {
		return nil, errs.Internal("failed to review listing", err)
	}
	if listing == nil {
		// No pending listing matched: either it never existed or it
		// was already decided.
		if _, err := s.listings.FindByID(ctx, listingID); err != nil {
			return nil, err
		}
		return nil, errs.Conflict("listing has already been reviewed")
	}

	s.logger.Info("listing reviewed",
		zap.String("listing_id", listingID),
		zap.String("decision", string(decision)),
		zap.String("admin_id", p.UserID))
	return listing, nil
}

type EditListingInput struct {
	Title       *string  `json:"title" validate:"omitempty,min=3"`
	Brand       *string  `json:"brand" validate:"omitempty,min=2"`
	Size        *float64 `json:"size" validate:"omitempty,gt=0,lte=20"`
	Condition   *string  `json:"condition"`
	Price       *int64   `json:"price" validate:"omitempty,gte=0"`
	Description *string  `json:"description" validate:"omitempty,min=10"`
	Images      []string `json:"images"`
	Category    *string  `json:"category"`
}

// Edit updates a listing. The owning seller or an admin may edit; a
// sold listing is immutable. When the seller edits a rejected listing
// it goes back to pending-approval with the reason cleared. This is
// the resubmission path.
func (s *Service) Edit(ctx context.Context, p auth.Principal, listingID string, in EditListingInput) (*models.Listing, error) {
	listing, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.SellerID != p.UserID && p.Role != models.RoleAdmin {
		return nil, errs.Forbidden("not authorized to update this listing")
	}
	if listing.Status == models.ListingSold {
		return nil, errs.Conflict("a sold listing cannot be edited")
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, errs.Wrap(errs.KindValidation, "invalid listing update", err)
	}

	patch := models.ListingPatch{
		Title:       in.Title,
		Brand:       in.Brand,
		Size:        in.Size,
		Price:       in.Price,
		Description: in.Description,
	}
	if in.Condition != nil {
		condition := models.Condition(*in.Condition)
		if !condition.Valid() {
			return nil, errs.Validation("unknown condition")
		}
		patch.Condition = &condition
	}
	if in.Category != nil {
		category := models.Category(*in.Category)
		if !category.Valid() {
			return nil, errs.Validation("unknown category")
		}
		patch.Category = &category
	}
	if len(in.Images) > 0 {
		urls, err := s.images.UploadAll(ctx, in.Images)
		if err != nil {
			return nil, errs.Internal("failed to store images", err)
		}
		patch.Images = urls
	}

	if listing.Status == models.ListingRejected && p.Role == models.RoleSeller {
		pending := models.ListingPendingApproval
		empty := ""
		patch.Status = &pending
		patch.RejectionReason = &empty
	}

	updated, err := s.listings.Patch(ctx, listingID, patch)
	if err != nil {
		return nil, errs.Internal("failed to update listing", err)
	}
	if updated == nil {
		// The earlier sold check raced a settlement, or the listing was
		// deleted between the read and the update.
		if _, err := s.listings.FindByID(ctx, listingID); err != nil {
			return nil, err
		}
		return nil, errs.Conflict("a sold listing cannot be edited")
	}
	return updated, nil
}

// Get returns one listing and counts the view.
func (s *Service) Get(ctx context.Context, listingID string) (*models.Listing, error) {
	return s.listings.FindByIDAndCountView(ctx, listingID)
}

// Browse is the public catalog: only approved listings, whatever else
// the filter asks for.
func (s *Service) Browse(ctx context.Context, f repository.ListingFilter) ([]models.Listing, int64, error) {
	f.Status = models.ListingApproved
	f.SellerID = ""
	return s.search(ctx, f)
}

// ListMine returns the caller's own listings in any status.
func (s *Service) ListMine(ctx context.Context, p auth.Principal, f repository.ListingFilter) ([]models.Listing, int64, error) {
	f.SellerID = p.UserID
	return s.search(ctx, f)
}

// AdminList lets an admin see listings in any status.
func (s *Service) AdminList(ctx context.Context, p auth.Principal, f repository.ListingFilter) ([]models.Listing, int64, error) {
	if p.Role != models.RoleAdmin {
		return nil, 0, errs.Forbidden("admin only")
	}
	return s.search(ctx, f)
}

func (s *Service) search(ctx context.Context, f repository.ListingFilter) ([]models.Listing, int64, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 12
	}
	listings, total, err := s.listings.Search(ctx, f)
	if err != nil {
		return nil, 0, errs.Internal("failed to fetch listings", err)
	}
	return listings, total, nil
}

// Delete removes a listing that has not sold. Owner or admin only.
func (s *Service) Delete(ctx context.Context, p auth.Principal, listingID string) error {
	listing, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		return err
	}
	if listing.SellerID != p.UserID && p.Role != models.RoleAdmin {
		return errs.Forbidden("not authorized to delete this listing")
	}
	if listing.Status == models.ListingSold {
		return errs.Conflict("a sold listing cannot be deleted")
	}
	return s.listings.Delete(ctx, listingID)
}
