// Package audit records who did what to verification and withdrawal state.
// Events are append-only; every lifecycle transition emits exactly one.
package audit

import (
	"time"

	id "cashout/pkg/domain"
)

// Action names an audited operation.
type Action string

const (
	ActionRealNameVerified       Action = "real_name_verified"
	ActionBankAccountRegistered  Action = "bank_account_registered"
	ActionOwnershipConfirmed     Action = "ownership_confirmed"
	ActionOwnershipMismatch      Action = "ownership_mismatch"
	ActionMicroDepositInitiated  Action = "micro_deposit_initiated"
	ActionMicroDepositConfirmed  Action = "micro_deposit_confirmed"
	ActionMicroDepositRejected   Action = "micro_deposit_rejected"
	ActionAdminOverrideVerified  Action = "admin_override_verified"
	ActionWithdrawalRequested    Action = "withdrawal_requested"
	ActionWithdrawalTransitioned Action = "withdrawal_transitioned"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
//
// Actor is the admin ID for operator actions, the user ID for user actions,
// or "system" for automatic transitions. Never put raw national IDs, key
// material, or ciphertexts in Detail.
type Event struct {
	Timestamp time.Time
	UserID    id.UserID
	Action    Action
	Actor     string
	Subject   string
	Detail    string
	Note      string
}
