// Package domain holds typed identifiers shared across modules.
//
// IDs are distinct uuid-backed types so a WithdrawalID can never be passed
// where a BankAccountID is expected. Parse functions are the trust boundary:
// they reject empty strings, malformed UUIDs, and the nil UUID.
package domain

import (
	"encoding/json"

	"github.com/google/uuid"

	dErrors "cashout/pkg/domain-errors"
)

type (
	// UserID identifies the account holder requesting verification or withdrawal.
	UserID uuid.UUID
	// AdminID identifies the operator performing a lifecycle transition.
	AdminID uuid.UUID
	// BankAccountID identifies a registered payout account.
	BankAccountID uuid.UUID
	// WithdrawalID identifies a withdrawal request.
	WithdrawalID uuid.UUID
)

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" id must not be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" id is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" id must not be the nil UUID")
	}
	return u, nil
}

// ParseUserID validates and converts a string into a UserID.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user")
	return UserID(u), err
}

// ParseAdminID validates and converts a string into an AdminID.
func ParseAdminID(s string) (AdminID, error) {
	u, err := parseUUID(s, "admin")
	return AdminID(u), err
}

// ParseBankAccountID validates and converts a string into a BankAccountID.
func ParseBankAccountID(s string) (BankAccountID, error) {
	u, err := parseUUID(s, "bank account")
	return BankAccountID(u), err
}

// ParseWithdrawalID validates and converts a string into a WithdrawalID.
func ParseWithdrawalID(s string) (WithdrawalID, error) {
	u, err := parseUUID(s, "withdrawal")
	return WithdrawalID(u), err
}

func (id UserID) String() string        { return uuid.UUID(id).String() }
func (id AdminID) String() string       { return uuid.UUID(id).String() }
func (id BankAccountID) String() string { return uuid.UUID(id).String() }
func (id WithdrawalID) String() string  { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id AdminID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id BankAccountID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id WithdrawalID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

// IDs travel as canonical UUID strings on the wire. Defined types do not
// inherit uuid.UUID's marshaling, so without these they would encode as
// raw 16-byte arrays no client could feed back into the Parse functions.

func (id UserID) MarshalJSON() ([]byte, error)        { return marshalID(uuid.UUID(id)) }
func (id AdminID) MarshalJSON() ([]byte, error)       { return marshalID(uuid.UUID(id)) }
func (id BankAccountID) MarshalJSON() ([]byte, error) { return marshalID(uuid.UUID(id)) }
func (id WithdrawalID) MarshalJSON() ([]byte, error)  { return marshalID(uuid.UUID(id)) }

func (id *UserID) UnmarshalJSON(data []byte) error {
	u, err := unmarshalID(data, "user")
	*id = UserID(u)
	return err
}

func (id *AdminID) UnmarshalJSON(data []byte) error {
	u, err := unmarshalID(data, "admin")
	*id = AdminID(u)
	return err
}

func (id *BankAccountID) UnmarshalJSON(data []byte) error {
	u, err := unmarshalID(data, "bank account")
	*id = BankAccountID(u)
	return err
}

func (id *WithdrawalID) UnmarshalJSON(data []byte) error {
	u, err := unmarshalID(data, "withdrawal")
	*id = WithdrawalID(u)
	return err
}

func marshalID(u uuid.UUID) ([]byte, error) {
	return json.Marshal(u.String())
}

func unmarshalID(data []byte, what string) (uuid.UUID, error) {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" id must be a UUID string")
	}
	return parseUUID(s, what)
}

// NewUserID generates a fresh random UserID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewAdminID generates a fresh random AdminID.
func NewAdminID() AdminID { return AdminID(uuid.New()) }

// NewBankAccountID generates a fresh random BankAccountID.
func NewBankAccountID() BankAccountID { return BankAccountID(uuid.New()) }

// NewWithdrawalID generates a fresh random WithdrawalID.
func NewWithdrawalID() WithdrawalID { return WithdrawalID(uuid.New()) }
