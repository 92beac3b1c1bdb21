// Package ledger is the read surface over commission transactions.
package ledger

import (
	"context"

	"github.com/example/reshoe/pkg/auth"
	"github.com/example/reshoe/pkg/errs"
	"github.com/example/reshoe/pkg/models"
	"github.com/example/reshoe/pkg/repository"
)

type TransactionStore interface {
	List(ctx context.Context, f repository.TransactionFilter) ([]models.Transaction, int64, error)
	Totals(ctx context.Context, f repository.TransactionFilter) (*repository.LedgerTotals, error)
}

type Service struct {
	txns TransactionStore
}

func NewService(txns TransactionStore) *Service {
	return &Service{txns: txns}
}

type Page struct {
	Transactions []models.Transaction     `json:"transactions"`
	Total        int64                    `json:"total"`
	Totals       *repository.LedgerTotals `json:"totals"`
}

// List returns ledger entries. Sellers only ever see their own rows;
// admins see everything.
func (s *Service) List(ctx context.Context, p auth.Principal, payoutStatus models.PayoutStatus, page, limit int64) (*Page, error) {
	switch p.Role {
	case models.RoleSeller, models.RoleAdmin:
	default:
		return nil, errs.Forbidden("sellers and admins only")
	}
	if payoutStatus != "" && !payoutStatus.Valid() {
		return nil, errs.Validation("unknown payout status")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}

	f := repository.TransactionFilter{PayoutStatus: payoutStatus, Page: page, Limit: limit}
	if p.Role == models.RoleSeller {
		f.SellerID = p.UserID
	}

	txns, total, err := s.txns.List(ctx, f)
	if err != nil {
		return nil, errs.Internal("failed to fetch transactions", err)
	}
	totals, err := s.txns.Totals(ctx, f)
	if err != nil {
		return nil, errs.Internal("failed to aggregate transactions", err)
	}
	return &Page{Transactions: txns, Total: total, Totals: totals}, nil
}
