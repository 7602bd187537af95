package transaction

import (
	"context"
	"fmt"
	"time"

	"safarpay/internal/repositories"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Service is the read side over the ledger: paged history and statistics.
type Service interface {
	GetHistory(ctx context.Context, userID uint, limit, offset int) (*repositories.Page, error)
	GetStatistics(ctx context.Context, userID uint, start, end time.Time) (*repositories.TransactionStats, error)
}

type service struct {
	repo repositories.WalletRepository
}

// NewService creates the transaction read service.
func NewService(repo repositories.WalletRepository) Service {
	if repo == nil {
		panic("repo is required")
	}
	return &service{repo: repo}
}

func (s *service) GetHistory(ctx context.Context, userID uint, limit, offset int) (*repositories.Page, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	wallet, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	items, total, err := s.repo.GetTransactionHistory(ctx, wallet.ID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction history: %w", err)
	}
	return &repositories.Page{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *service) GetStatistics(ctx context.Context, userID uint, start, end time.Time) (*repositories.TransactionStats, error) {
	wallet, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if end.IsZero() {
		end = time.Now()
	}
	if start.IsZero() {
		start = end.AddDate(0, -1, 0)
	}
	return s.repo.GetTransactionStats(ctx, wallet.ID, start, end)
}
