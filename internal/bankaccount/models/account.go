// Package models holds the bank account record and the name-match policies
// used by micro-deposit verification.
package models

import (
	"strings"
	"time"

	id "cashout/pkg/domain"
	dErrors "cashout/pkg/domain-errors"
)

// BankAccount is a user's registered payout destination. IsVerified must be
// true before any withdrawal against the account may leave pending.
type BankAccount struct {
	ID            id.BankAccountID `json:"id"`
	UserID        id.UserID        `json:"user_id"`
	BankCode      string           `json:"bank_code"`
	AccountNumber string           `json:"account_number"`
	AccountHolder string           `json:"account_holder"`
	IsVerified    bool             `json:"is_verified"`
	VerifiedAt    *time.Time       `json:"verified_at,omitempty"`

	// PendingDepositor is the depositor name sent with an outstanding
	// micro-deposit, empty when none is in flight.
	PendingDepositor string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewBankAccount validates the registration inputs and returns an unverified
// account.
func NewBankAccount(userID id.UserID, bankCode, accountNumber, accountHolder string, now time.Time) (*BankAccount, error) {
	bankCode = strings.TrimSpace(bankCode)
	accountNumber = strings.TrimSpace(accountNumber)
	accountHolder = strings.TrimSpace(accountHolder)
	if bankCode == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "bank code is required")
	}
	if accountNumber == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "account number is required")
	}
	if accountHolder == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "account holder name is required")
	}
	return &BankAccount{
		ID:            id.NewBankAccountID(),
		UserID:        userID,
		BankCode:      bankCode,
		AccountNumber: accountNumber,
		AccountHolder: accountHolder,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// MarkVerified flips the account to verified and clears any in-flight
// micro-deposit.
func (a *BankAccount) MarkVerified(now time.Time) {
	a.IsVerified = true
	a.VerifiedAt = &now
	a.PendingDepositor = ""
	a.UpdatedAt = now
}
