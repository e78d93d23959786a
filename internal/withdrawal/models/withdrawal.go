// Package models defines the withdrawal request aggregate and its
// finite-state lifecycle.
package models

import (
	"time"

	id "cashout/pkg/domain"
	dErrors "cashout/pkg/domain-errors"
)

// Status is the lifecycle state of a withdrawal request.
type Status string

const (
	StatusPending         Status = "pending"
	StatusAccountVerified Status = "account_verified"
	StatusPendingApproval Status = "pending_approval"
	StatusApproved        Status = "approved"
	StatusCompleted       Status = "completed"
	StatusRejected        Status = "rejected"
	StatusFailed          Status = "failed"
)

// transitions enumerates every legal edge. Anything absent is a programming
// error, including every backward or skipping move.
var transitions = map[Status][]Status{
	StatusPending:         {StatusAccountVerified},
	StatusAccountVerified: {StatusPendingApproval},
	StatusPendingApproval: {StatusApproved, StatusRejected},
	StatusApproved:        {StatusCompleted, StatusRejected, StatusFailed},
	StatusCompleted:       {},
	StatusRejected:        {},
	StatusFailed:          {},
}

// CanTransitionTo reports whether the edge s -> next is legal.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition exists.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// TaxRatePermille is the withholding rate: 3.3% expressed in per-mille.
const TaxRatePermille int64 = 33

// ComputeTax returns the withheld tax for a points amount, floored.
func ComputeTax(pointsAmount int64) int64 {
	return pointsAmount * TaxRatePermille / 1000
}

// WithdrawalRequest is the aggregate root for one withdrawal.
//
// Invariants:
//   - TaxAmount = floor(PointsAmount * 0.033) and FinalAmount =
//     PointsAmount - TaxAmount, both computed once at creation and never
//     recomputed.
//   - Status only moves along the transitions table; the lifecycle service
//     is the sole writer of Status.
//   - CreatedAt is immutable after construction.
type WithdrawalRequest struct {
	ID            id.WithdrawalID  `json:"id"`
	UserID        id.UserID        `json:"user_id"`
	BankAccountID id.BankAccountID `json:"bank_account_id"`
	PointsAmount  int64            `json:"points_amount"`
	TaxAmount     int64            `json:"tax_amount"`
	FinalAmount   int64            `json:"final_amount"`
	Status        Status           `json:"status"`
	AdminNotes    string           `json:"admin_notes,omitempty"`
	ProcessedBy   *id.AdminID      `json:"processed_by,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	ProcessedAt   *time.Time       `json:"processed_at,omitempty"`
	CompletedAt   *time.Time       `json:"completed_at,omitempty"`
}

// NewWithdrawalRequest builds a pending request with the tax computed once.
func NewWithdrawalRequest(userID id.UserID, accountID id.BankAccountID, pointsAmount int64, now time.Time) (*WithdrawalRequest, error) {
	if pointsAmount <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "points amount must be positive")
	}
	tax := ComputeTax(pointsAmount)
	return &WithdrawalRequest{
		ID:            id.NewWithdrawalID(),
		UserID:        userID,
		BankAccountID: accountID,
		PointsAmount:  pointsAmount,
		TaxAmount:     tax,
		FinalAmount:   pointsAmount - tax,
		Status:        StatusPending,
		CreatedAt:     now,
	}, nil
}

// CanTransition checks the edge from the current status. Returns an
// invariant violation for anything outside the transitions table.
func (w *WithdrawalRequest) CanTransition(next Status) error {
	if !w.Status.CanTransitionTo(next) {
		return dErrors.Newf(dErrors.CodeInvariantViolation,
			"illegal withdrawal transition %s -> %s", w.Status, next)
	}
	return nil
}

// ApplyTransition moves the request to next, stamping processing metadata.
// Call CanTransition first; this method assumes the edge is legal.
func (w *WithdrawalRequest) ApplyTransition(next Status, actor *id.AdminID, note string, now time.Time) {
	w.Status = next
	if note != "" {
		w.AdminNotes = note
	}
	if actor != nil {
		w.ProcessedBy = actor
		w.ProcessedAt = &now
	}
	if next == StatusCompleted {
		w.CompletedAt = &now
	}
}
