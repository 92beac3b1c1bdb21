// Package reviews records buyer feedback on delivered purchases. A
// review is anchored to the order that proves the purchase, so only
// the buyer of a delivered order can rate the listing, once.
package reviews

import (
	"context"
	"time"

	"github.com/example/reshoe/pkg/auth"
	"github.com/example/reshoe/pkg/errs"
	"github.com/example/reshoe/pkg/models"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReviewStore interface {
	Insert(ctx context.Context, review *models.Review) error
	ListByListing(ctx context.Context, listingID string, page, limit int64) ([]models.Review, int64, error)
}

type OrderStore interface {
	FindByID(ctx context.Context, id string) (*models.Order, error)
}

type UserStore interface {
	FindRefsByIDs(ctx context.Context, ids []string) (map[string]*models.UserRef, error)
}

type Service struct {
	reviews  ReviewStore
	orders   OrderStore
	users    UserStore
	validate *validator.Validate
	logger   *zap.Logger
}

func NewService(reviews ReviewStore, orders OrderStore, users UserStore, logger *zap.Logger) *Service {
	return &Service{
		reviews:  reviews,
		orders:   orders,
		users:    users,
		validate: validator.New(),
		logger:   logger,
	}
}

type CreateReviewInput struct {
	ListingID string `json:"listing_id" validate:"required"`
	OrderID   string `json:"order_id" validate:"required"`
	Rating    int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment   string `json:"comment" validate:"required,min=10"`
}

// Create records a review. The named order must belong to the caller,
// cover the named listing and be delivered.
func (s *Service) Create(ctx context.Context, p auth.Principal, in CreateReviewInput) (*models.Review, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, errs.Wrap(errs.KindValidation, "invalid review", err)
	}

	order, err := s.orders.FindByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != p.UserID {
		return nil, errs.Forbidden("not authorized to review this order")
	}
	if order.ListingID != in.ListingID {
		return nil, errs.Validation("order does not cover this listing")
	}
	if order.Status != models.OrderDelivered {
		return nil, errs.Validation("only delivered orders can be reviewed")
	}

	review := &models.Review{
		ID:        uuid.NewString(),
		ListingID: in.ListingID,
		OrderID:   in.OrderID,
		UserID:    p.UserID,
		Rating:    in.Rating,
		Comment:   in.Comment,
		CreatedAt: time.Now(),
	}
	if err := s.reviews.Insert(ctx, review); err != nil {
		if errs.Is(err, errs.KindConflict) {
			return nil, err
		}
		return nil, errs.Internal("failed to record review", err)
	}

	s.logger.Info("review recorded",
		zap.String("review_id", review.ID),
		zap.String("listing_id", review.ListingID),
		zap.Int("rating", review.Rating))
	return review, nil
}

// ListForListing is the public review feed of one listing, reviewers
// joined in.
func (s *Service) ListForListing(ctx context.Context, listingID string, page, limit int64) ([]models.PopulatedReview, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	list, total, err := s.reviews.ListByListing(ctx, listingID, page, limit)
	if err != nil {
		return nil, 0, errs.Internal("failed to fetch reviews", err)
	}

	populated := make([]models.PopulatedReview, len(list))
	for i, r := range list {
		populated[i] = models.PopulatedReview{Review: r}
	}
	if len(list) == 0 {
		return populated, total, nil
	}

	userIDs := make([]string, len(list))
	for i, r := range list {
		userIDs[i] = r.UserID
	}
	users, err := s.users.FindRefsByIDs(ctx, userIDs)
	if err != nil {
		s.logger.Warn("failed to join reviewers", zap.Error(err))
		users = nil
	}
	for i := range populated {
		populated[i].User = users[populated[i].UserID]
	}
	return populated, total, nil
}
