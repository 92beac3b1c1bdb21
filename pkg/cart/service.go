// Package cart keeps each buyer's scratch list of candidate purchases.
package cart

import (
	"context"

	"github.com/example/reshoe/pkg/errs"
	"github.com/example/reshoe/pkg/models"
)

type CartStore interface {
	EnsureCart(ctx context.Context, userID string) (*models.Cart, error)
	AddItem(ctx context.Context, userID, listingID string) (bool, error)
	RemoveItem(ctx context.Context, userID, listingID string) (*models.Cart, error)
}

type ListingStore interface {
	FindByID(ctx context.Context, id string) (*models.Listing, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]*models.Listing, error)
}

type Service struct {
	carts    CartStore
	listings ListingStore
}

func NewService(carts CartStore, listings ListingStore) *Service {
	return &Service{carts: carts, listings: listings}
}

// View is the cart as returned to clients, with listings joined in.
type View struct {
	ID        string                    `json:"id"`
	Items     []models.ResolvedCartItem `json:"items"`
	ItemCount int                       `json:"item_count"`
}

// Get returns the caller's cart, creating it on first access. Entries
// whose listing no longer exists are filtered out of the view but left
// in the stored document.
func (s *Service) Get(ctx context.Context, userID string) (*View, error) {
	c, err := s.carts.EnsureCart(ctx, userID)
	if err != nil {
		return nil, errs.Internal("failed to fetch cart", err)
	}
	return s.resolve(ctx, c)
}

// Add puts an approved listing that the caller does not own into the
// cart. Each failure mode is its own error so clients can react.
func (s *Service) Add(ctx context.Context, userID, listingID string) (*View, error) {
	listing, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.Status != models.ListingApproved {
		return nil, errs.Conflict("listing is not available for purchase")
	}
	if listing.SellerID == userID {
		return nil, errs.Forbidden("cannot add your own listing to cart")
	}

	added, err := s.carts.AddItem(ctx, userID, listingID)
	if err != nil {
		return nil, errs.Internal("failed to add item to cart", err)
	}
	if !added {
		return nil, errs.Conflict("item already in cart")
	}
	return s.Get(ctx, userID)
}

// Remove drops a listing from the cart. Removing an absent listing is
// not an error; the cart simply comes back unchanged.
func (s *Service) Remove(ctx context.Context, userID, listingID string) (*View, error) {
	c, err := s.carts.RemoveItem(ctx, userID, listingID)
	if err != nil {
		return nil, errs.Internal("failed to remove item from cart", err)
	}
	return s.resolve(ctx, c)
}

func (s *Service) resolve(ctx context.Context, c *models.Cart) (*View, error) {
	ids := make([]string, 0, len(c.Items))
	for _, item := range c.Items {
		ids = append(ids, item.ListingID)
	}

	resolved := make([]models.ResolvedCartItem, 0, len(c.Items))
	if len(ids) > 0 {
		byID, err := s.listings.FindByIDs(ctx, ids)
		if err != nil {
			return nil, errs.Internal("failed to resolve cart items", err)
		}
		for _, item := range c.Items {
			listing, ok := byID[item.ListingID]
			if !ok {
				continue // listing deleted since it was added
			}
			resolved = append(resolved, models.ResolvedCartItem{
				Listing: listing,
				AddedAt: item.AddedAt,
			})
		}
	}

	return &View{
		ID:        c.ID,
		Items:     resolved,
		ItemCount: len(resolved),
	}, nil
}
