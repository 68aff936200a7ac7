package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Srikanthmvtsc/doc-queue-plus/internal/common/apperrors"
	"github.com/Srikanthmvtsc/doc-queue-plus/internal/frontdesk/models"
	"github.com/Srikanthmvtsc/doc-queue-plus/internal/frontdesk/repository"
)

// TokenService hands out the daily consultation tokens. Every date has its
// own counter row starting at 1.
type TokenService struct {
	Store   repository.Store
	Clock   Clock
	Timeout time.Duration
}

func NewTokenService(store repository.Store, clock Clock, timeout time.Duration) *TokenService {
	return &TokenService{Store: store, Clock: clock, Timeout: timeout}
}

// NextToken issues today's next token in its own transaction.
func (s *TokenService) NextToken(ctx context.Context) (int, error) {
	date := s.Clock.Today()

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	var token int
	err := s.Store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		token, err = s.issue(ctx, tx, date)
		return err
	})
	if err != nil {
		return 0, apperrors.Storage("issue token", err)
	}
	return token, nil
}

// issue bumps the counter of date inside tx. The caller owns the transaction
// so the token is only kept if the rest of its work commits.
func (s *TokenService) issue(ctx context.Context, tx repository.Tx, date string) (int, error) {
	token, err := tx.NextToken(ctx, date)
	if err != nil {
		return 0, err
	}
	if token < 1 {
		return 0, fmt.Errorf("counter for %s returned non-positive token %d", date, token)
	}
	return token, nil
}

// Counter reports the last token issued on date (0 when none).
func (s *TokenService) Counter(ctx context.Context, date string) (models.TokenCounter, error) {
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	c, err := s.Store.GetTokenCounter(ctx, date)
	if err != nil {
		return c, apperrors.Storage("read token counter", err)
	}
	return c, nil
}
