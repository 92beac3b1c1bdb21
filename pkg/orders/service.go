// Package orders exposes read and status-update access to recorded
// purchases. Order creation itself belongs to the settlement engine.
package orders

import (
	"context"

	"github.com/example/reshoe/pkg/auth"
	"github.com/example/reshoe/pkg/errs"
	"github.com/example/reshoe/pkg/models"
	"github.com/example/reshoe/pkg/repository"
	"go.uber.org/zap"
)

type OrderStore interface {
	FindByID(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context, f repository.OrderFilter) ([]models.Order, int64, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error)
}

type UserStore interface {
	FindRefsByIDs(ctx context.Context, ids []string) (map[string]*models.UserRef, error)
}

type ListingStore interface {
	FindByIDs(ctx context.Context, ids []string) (map[string]*models.Listing, error)
}

type Service struct {
	orders   OrderStore
	users    UserStore
	listings ListingStore
	logger   *zap.Logger
}

func NewService(orders OrderStore, users UserStore, listings ListingStore, logger *zap.Logger) *Service {
	return &Service{orders: orders, users: users, listings: listings, logger: logger}
}

// List returns orders scoped by role: customers see their purchases,
// sellers their sales, admins everything.
func (s *Service) List(ctx context.Context, p auth.Principal, status models.OrderStatus, page, limit int64) ([]models.PopulatedOrder, int64, error) {
	if status != "" && !status.Valid() {
		return nil, 0, errs.Validation("unknown order status")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	f := repository.OrderFilter{Status: status, Page: page, Limit: limit}
	switch p.Role {
	case models.RoleCustomer:
		f.BuyerID = p.UserID
	case models.RoleSeller:
		f.SellerID = p.UserID
	case models.RoleAdmin:
		// admins see all orders
	}

	list, total, err := s.orders.List(ctx, f)
	if err != nil {
		return nil, 0, errs.Internal("failed to fetch orders", err)
	}
	return s.populateAll(ctx, list), total, nil
}

// Get returns one order; only the buyer, the seller or an admin may
// see it.
func (s *Service) Get(ctx context.Context, p auth.Principal, orderID string) (*models.PopulatedOrder, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if p.Role != models.RoleAdmin && order.BuyerID != p.UserID && order.SellerID != p.UserID {
		return nil, errs.Forbidden("not authorized to view this order")
	}
	populated := s.populateAll(ctx, []models.Order{*order})
	return &populated[0], nil
}

// UpdateStatus moves an order to a new fulfilment status. Only the
// order's seller or an admin may do so. No transition table is
// enforced; a move out of delivered is logged as an anomaly.
func (s *Service) UpdateStatus(ctx context.Context, p auth.Principal, orderID string, status models.OrderStatus) (*models.PopulatedOrder, error) {
	if !status.Valid() {
		return nil, errs.Validation("unknown order status")
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if p.Role != models.RoleAdmin && order.SellerID != p.UserID {
		return nil, errs.Forbidden("not authorized to update this order")
	}

	if order.Status == models.OrderDelivered && status != models.OrderDelivered {
		s.logger.Warn("order moved out of delivered",
			zap.String("order_id", orderID),
			zap.String("from", string(order.Status)),
			zap.String("to", string(status)),
			zap.String("actor_id", p.UserID))
	}

	updated, err := s.orders.UpdateStatus(ctx, orderID, status)
	if err != nil {
		if errs.Is(err, errs.KindNotFound) {
			return nil, err
		}
		return nil, errs.Internal("failed to update order status", err)
	}
	populated := s.populateAll(ctx, []models.Order{*updated})
	return &populated[0], nil
}

func (s *Service) populateAll(ctx context.Context, list []models.Order) []models.PopulatedOrder {
	userIDs := make([]string, 0, len(list)*2)
	listingIDs := make([]string, 0, len(list))
	for _, o := range list {
		userIDs = append(userIDs, o.BuyerID, o.SellerID)
		listingIDs = append(listingIDs, o.ListingID)
	}

	populated := make([]models.PopulatedOrder, len(list))
	for i, o := range list {
		populated[i] = models.PopulatedOrder{Order: o}
	}
	if len(list) == 0 {
		return populated
	}

	users, err := s.users.FindRefsByIDs(ctx, userIDs)
	if err != nil {
		s.logger.Warn("failed to join order parties", zap.Error(err))
		users = nil
	}
	listings, err := s.listings.FindByIDs(ctx, listingIDs)
	if err != nil {
		s.logger.Warn("failed to join order listings", zap.Error(err))
		listings = nil
	}
	for i := range populated {
		populated[i].Buyer = users[populated[i].BuyerID]
		populated[i].Seller = users[populated[i].SellerID]
		populated[i].Listing = listings[populated[i].ListingID]
	}
	return populated
}
