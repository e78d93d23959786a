// Package ports declares the external collaborators the withdrawal
// lifecycle depends on. User records and point ledgers are owned by the
// wider application; this subsystem sees them through interfaces only.
package ports

import (
	"context"

	id "cashout/pkg/domain"
)

// IdentityGate reports whether a user currently holds a Matched real-name
// verification result. Withdrawal creation is refused without it.
type IdentityGate interface {
	RealNameMatched(ctx context.Context, userID id.UserID) (bool, error)
}

// BalanceSource reports a user's available points balance. Consulted at
// creation and again at approval, since balances move between the two.
type BalanceSource interface {
	AvailablePoints(ctx context.Context, userID id.UserID) (int64, error)
}

// AccountSource answers whether a bank account exists and belongs to a user.
type AccountSource interface {
	Owns(ctx context.Context, userID id.UserID, accountID id.BankAccountID) (bool, error)
}
