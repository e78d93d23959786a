package adapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bankmodels "cashout/internal/bankaccount/models"
	id "cashout/pkg/domain"
	"cashout/pkg/platform/sentinel"
)

type stubMatches struct {
	matched bool
	err     error
}

func (s *stubMatches) IsMatched(context.Context, id.UserID) (bool, error) {
	return s.matched, s.err
}

type stubAccounts struct {
	account *bankmodels.BankAccount
	err     error
}

func (s *stubAccounts) Get(context.Context, id.BankAccountID) (*bankmodels.BankAccount, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.account, nil
}

func TestIdentityGate_Passthrough(t *testing.T) {
	ctx := context.Background()

	gate := NewIdentityGate(&stubMatches{matched: true})
	ok, err := gate.RealNameMatched(ctx, id.NewUserID())
	require.NoError(t, err)
	assert.True(t, ok)

	boom := errors.New("store down")
	gate = NewIdentityGate(&stubMatches{err: boom})
	_, err = gate.RealNameMatched(ctx, id.NewUserID())
	assert.ErrorIs(t, err, boom)
}

func TestAccountSource_Owns(t *testing.T) {
	ctx := context.Background()
	owner := id.NewUserID()
	account := &bankmodels.BankAccount{
		ID:        id.NewBankAccountID(),
		UserID:    owner,
		CreatedAt: time.Now(),
	}

	src := NewAccountSource(&stubAccounts{account: account})

	owns, err := src.Owns(ctx, owner, account.ID)
	require.NoError(t, err)
	assert.True(t, owns)

	owns, err = src.Owns(ctx, id.NewUserID(), account.ID)
	require.NoError(t, err)
	assert.False(t, owns)
}

func TestAccountSource_UnknownAccountIsNotOwned(t *testing.T) {
	src := NewAccountSource(&stubAccounts{err: sentinel.ErrNotFound})

	owns, err := src.Owns(context.Background(), id.NewUserID(), id.NewBankAccountID())
	require.NoError(t, err)
	assert.False(t, owns)
}

func TestAccountSource_StoreErrorSurfaces(t *testing.T) {
	boom := errors.New("connection reset")
	src := NewAccountSource(&stubAccounts{err: boom})

	_, err := src.Owns(context.Background(), id.NewUserID(), id.NewBankAccountID())
	assert.ErrorIs(t, err, boom)
}
