// Package adapters provides in-process implementations of the withdrawal
// ports, backed by the sibling domain stores. They keep the lifecycle
// service decoupled from where identity proofs, accounts, and balances
// actually live; a split into separate services swaps these for RPC
// clients without touching the domain layer.
package adapters

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	bankmodels "cashout/internal/bankaccount/models"
	"cashout/internal/withdrawal/ports"
	id "cashout/pkg/domain"
	"cashout/pkg/platform/sentinel"
)

// MatchReader is the slice of the verify match store the gate needs.
type MatchReader interface {
	IsMatched(ctx context.Context, userID id.UserID) (bool, error)
}

// IdentityGateAdapter answers the real-name gate from recorded Matched
// results.
type IdentityGateAdapter struct {
	matches MatchReader
}

func NewIdentityGate(matches MatchReader) ports.IdentityGate {
	return &IdentityGateAdapter{matches: matches}
}

func (a *IdentityGateAdapter) RealNameMatched(ctx context.Context, userID id.UserID) (bool, error) {
	return a.matches.IsMatched(ctx, userID)
}

// AccountReader is the slice of the bank-account store ownership checks need.
type AccountReader interface {
	Get(ctx context.Context, accountID id.BankAccountID) (*bankmodels.BankAccount, error)
}

// AccountSourceAdapter answers ownership from the bank-account store. An
// unknown account is simply not owned, not an error.
type AccountSourceAdapter struct {
	accounts AccountReader
}

func NewAccountSource(accounts AccountReader) ports.AccountSource {
	return &AccountSourceAdapter{accounts: accounts}
}

func (a *AccountSourceAdapter) Owns(ctx context.Context, userID id.UserID, accountID id.BankAccountID) (bool, error) {
	account, err := a.accounts.Get(ctx, accountID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return account.UserID == userID, nil
}

// RedisBalanceSource reads available points from the balance keys the wider
// application maintains in Redis. A missing key is a zero balance.
type RedisBalanceSource struct {
	client *redis.Client
}

func NewRedisBalanceSource(client *redis.Client) ports.BalanceSource {
	return &RedisBalanceSource{client: client}
}

func balanceKey(userID id.UserID) string {
	return "points:balance:" + userID.String()
}

func (s *RedisBalanceSource) AvailablePoints(ctx context.Context, userID id.UserID) (int64, error) {
	n, err := s.client.Get(ctx, balanceKey(userID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("read points balance: %w", err)
	}
	return n, nil
}
