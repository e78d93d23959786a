// Package service verifies bank-account ownership through the trust
// provider's direct holder check or the micro-deposit fallback, and is the
// only writer of an account's verified flag besides admin override.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"cashout/internal/audit"
	"cashout/internal/bankaccount/models"
	"cashout/internal/verify/provider"
	id "cashout/pkg/domain"
	dErrors "cashout/pkg/domain-errors"
	"cashout/pkg/platform/sentinel"
	"cashout/pkg/requestcontext"
)

// Store is the account persistence the verifier needs.
type Store interface {
	Create(ctx context.Context, a *models.BankAccount) error
	Get(ctx context.Context, accountID id.BankAccountID) (*models.BankAccount, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]*models.BankAccount, error)
	Update(ctx context.Context, a *models.BankAccount) error
}

// ProviderClient is the subset of the trust-provider client the direct
// holder check needs.
type ProviderClient interface {
	AcquireCredential(ctx context.Context) (provider.Credential, error)
	CheckAccountHolder(ctx context.Context, cred provider.Credential, req provider.AccountHolderRequest) (string, error)
}

// Transfer sends the 1-unit micro-deposit tagged with a depositor name.
type Transfer interface {
	SendMicroDeposit(ctx context.Context, bankCode, accountNumber, depositorName string) error
}

// Promoter advances withdrawal requests waiting on a newly verified account.
type Promoter interface {
	PromoteForAccount(ctx context.Context, accountID id.BankAccountID, actor string) error
}

type Service struct {
	store     Store
	provider  ProviderClient
	transfer  Transfer
	promoter  Promoter
	audit     *audit.Publisher
	logger    *slog.Logger
	depositor string
	policy    models.MatchPolicy
}

// New constructs the verifier. The policy defaults to containment matching
// when empty. Transfer may be nil when no gateway is configured; initiating
// a micro-deposit then reports the feature as unavailable.
func New(store Store, p ProviderClient, transfer Transfer, promoter Promoter, auditPub *audit.Publisher, logger *slog.Logger, depositorName string, policy models.MatchPolicy) (*Service, error) {
	if store == nil {
		return nil, errors.New("bank account store is required")
	}
	if p == nil {
		return nil, errors.New("provider client is required")
	}
	if promoter == nil {
		return nil, errors.New("withdrawal promoter is required")
	}
	if strings.TrimSpace(depositorName) == "" {
		return nil, errors.New("depositor name is required")
	}
	if policy == "" {
		policy = models.ContainmentMatch
	}
	if _, err := policy.Matches("x", "x"); err != nil {
		return nil, err
	}
	return &Service{
		store:     store,
		provider:  p,
		transfer:  transfer,
		promoter:  promoter,
		audit:     auditPub,
		logger:    logger,
		depositor: depositorName,
		policy:    policy,
	}, nil
}

// Register records a new, unverified payout account for the user.
func (s *Service) Register(ctx context.Context, userID id.UserID, bankCode, accountNumber, accountHolder string) (*models.BankAccount, error) {
	a, err := models.NewBankAccount(userID, bankCode, accountNumber, accountHolder, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, a); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "bank account is already registered")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "persist bank account", err)
	}
	s.emit(ctx, audit.Event{
		UserID:  userID,
		Action:  audit.ActionBankAccountRegistered,
		Actor:   userID.String(),
		Subject: a.ID.String(),
		Detail:  "bank_code=" + a.BankCode,
	})
	return a, nil
}

// Get returns one account, scoped to its owner.
func (s *Service) Get(ctx context.Context, userID id.UserID, accountID id.BankAccountID) (*models.BankAccount, error) {
	return s.getOwned(ctx, userID, accountID)
}

// ListByUser returns the user's registered accounts.
func (s *Service) ListByUser(ctx context.Context, userID id.UserID) ([]*models.BankAccount, error) {
	return s.store.ListByUser(ctx, userID)
}

// VerifyDirect runs the synchronous holder check against the trust provider.
// A provider answer other than confirmation is a mismatch carrying the
// provider's diagnostic code, not an outage.
func (s *Service) VerifyDirect(ctx context.Context, userID id.UserID, accountID id.BankAccountID) (*models.BankAccount, error) {
	a, err := s.getOwned(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	if a.IsVerified {
		return a, nil
	}

	cred, err := s.provider.AcquireCredential(ctx)
	if err != nil {
		return nil, s.providerFailure(ctx, "acquire credential", err)
	}
	code, err := s.provider.CheckAccountHolder(ctx, cred, provider.AccountHolderRequest{
		RequestID:     newRequestID(),
		BankCode:      a.BankCode,
		AccountNumber: a.AccountNumber,
		HolderName:    a.AccountHolder,
	})
	if err != nil {
		return nil, s.providerFailure(ctx, "check account holder", err)
	}

	if code != provider.HolderConfirmed {
		s.emit(ctx, audit.Event{
			UserID:  userID,
			Action:  audit.ActionOwnershipMismatch,
			Actor:   userID.String(),
			Subject: a.ID.String(),
			Detail:  "provider_code=" + code,
		})
		return nil, dErrors.Newf(dErrors.CodeValidation, "account holder does not match (provider code %s)", code)
	}

	return s.markVerified(ctx, a, userID.String(), audit.ActionOwnershipConfirmed, "direct holder check")
}

// CheckOwnership runs the direct holder check on raw account details. When
// the details match one of the user's registered accounts, that account is
// marked verified as a side effect; otherwise only the check result is
// returned.
func (s *Service) CheckOwnership(ctx context.Context, userID id.UserID, bankCode, accountNumber, holderName string) (bool, string, error) {
	bankCode = strings.TrimSpace(bankCode)
	accountNumber = strings.TrimSpace(accountNumber)
	holderName = strings.TrimSpace(holderName)
	if bankCode == "" || accountNumber == "" || holderName == "" {
		return false, "", dErrors.New(dErrors.CodeValidation, "bank code, account number, and holder name are required")
	}

	cred, err := s.provider.AcquireCredential(ctx)
	if err != nil {
		return false, "", s.providerFailure(ctx, "acquire credential", err)
	}
	code, err := s.provider.CheckAccountHolder(ctx, cred, provider.AccountHolderRequest{
		RequestID:     newRequestID(),
		BankCode:      bankCode,
		AccountNumber: accountNumber,
		HolderName:    holderName,
	})
	if err != nil {
		return false, "", s.providerFailure(ctx, "check account holder", err)
	}
	if code != provider.HolderConfirmed {
		s.emit(ctx, audit.Event{
			UserID: userID,
			Action: audit.ActionOwnershipMismatch,
			Actor:  userID.String(),
			Detail: "provider_code=" + code,
		})
		return false, code, nil
	}

	accounts, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list accounts after ownership check", "error", err)
		return true, code, nil
	}
	for _, a := range accounts {
		if a.BankCode == bankCode && a.AccountNumber == accountNumber && !a.IsVerified {
			if _, err := s.markVerified(ctx, a, userID.String(), audit.ActionOwnershipConfirmed, "direct holder check"); err != nil {
				s.logger.ErrorContext(ctx, "failed to mark account verified",
					"account_id", a.ID,
					"error", err,
				)
			}
		}
	}
	return true, code, nil
}

// InitiateMicroDeposit sends the 1-unit transfer and records the depositor
// name the owner must report back.
func (s *Service) InitiateMicroDeposit(ctx context.Context, userID id.UserID, accountID id.BankAccountID) (*models.BankAccount, error) {
	a, err := s.getOwned(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	if a.IsVerified {
		return nil, dErrors.New(dErrors.CodeConflict, "bank account is already verified")
	}
	if s.transfer == nil {
		return nil, dErrors.New(dErrors.CodeGatewayUnavailable, "micro-deposit transfers are not configured")
	}

	if err := s.transfer.SendMicroDeposit(ctx, a.BankCode, a.AccountNumber, s.depositor); err != nil {
		s.logger.ErrorContext(ctx, "micro-deposit transfer failed",
			"account_id", a.ID,
			"error", err,
		)
		return nil, dErrors.Wrap(dErrors.CodeGatewayUnavailable, "micro-deposit transfer failed", err)
	}

	a.PendingDepositor = s.depositor
	a.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.Update(ctx, a); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "record pending micro-deposit", err)
	}
	s.emit(ctx, audit.Event{
		UserID:  userID,
		Action:  audit.ActionMicroDepositInitiated,
		Actor:   userID.String(),
		Subject: a.ID.String(),
	})
	return a, nil
}

// ConfirmMicroDeposit checks the depositor name the owner reported against
// the one sent, under the configured match policy.
func (s *Service) ConfirmMicroDeposit(ctx context.Context, userID id.UserID, accountID id.BankAccountID, reportedName string) (*models.BankAccount, error) {
	a, err := s.getOwned(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	if a.IsVerified {
		return a, nil
	}
	if a.PendingDepositor == "" {
		return nil, dErrors.New(dErrors.CodeConflict, "no micro-deposit is in flight for this account")
	}

	matched, err := s.policy.Matches(a.PendingDepositor, reportedName)
	if err != nil {
		return nil, err
	}
	if !matched {
		s.emit(ctx, audit.Event{
			UserID:  userID,
			Action:  audit.ActionMicroDepositRejected,
			Actor:   userID.String(),
			Subject: a.ID.String(),
		})
		return nil, dErrors.New(dErrors.CodeValidation, "reported depositor name does not match")
	}

	return s.markVerified(ctx, a, userID.String(), audit.ActionMicroDepositConfirmed, "micro-deposit confirmed")
}

// AdminOverrideVerify marks an account verified without provider proof.
func (s *Service) AdminOverrideVerify(ctx context.Context, adminID id.AdminID, accountID id.BankAccountID, note string) (*models.BankAccount, error) {
	a, err := s.store.Get(ctx, accountID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	if a.IsVerified {
		return a, nil
	}
	return s.markVerified(ctx, a, adminID.String(), audit.ActionAdminOverrideVerified, note)
}

// markVerified persists the verified flag, audits it, and promotes any
// withdrawals waiting on the account. A promotion failure is logged, not
// returned: the verification itself already succeeded.
func (s *Service) markVerified(ctx context.Context, a *models.BankAccount, actor string, action audit.Action, note string) (*models.BankAccount, error) {
	a.MarkVerified(requestcontext.Now(ctx))
	if err := s.store.Update(ctx, a); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "persist verified account", err)
	}
	s.emit(ctx, audit.Event{
		UserID:  a.UserID,
		Action:  action,
		Actor:   actor,
		Subject: a.ID.String(),
		Note:    note,
	})
	if err := s.promoter.PromoteForAccount(ctx, a.ID, actor); err != nil {
		s.logger.ErrorContext(ctx, "failed to promote withdrawals after verification",
			"account_id", a.ID,
			"error", err,
		)
	}
	return a, nil
}

func (s *Service) getOwned(ctx context.Context, userID id.UserID, accountID id.BankAccountID) (*models.BankAccount, error) {
	a, err := s.store.Get(ctx, accountID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	if a.UserID != userID {
		return nil, dErrors.New(dErrors.CodeNotFound, "bank account not found")
	}
	return a, nil
}

func (s *Service) providerFailure(ctx context.Context, step string, err error) error {
	var ge *provider.GatewayError
	if errors.As(err, &ge) {
		s.logger.ErrorContext(ctx, "trust provider call failed",
			"step", step,
			"layer", string(ge.Layer),
			"provider_code", ge.Code,
		)
	} else {
		s.logger.ErrorContext(ctx, "trust provider call failed", "step", step, "error", err)
	}
	return dErrors.Wrap(dErrors.CodeGatewayUnavailable, "account verification service unavailable", err)
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}

func translateStoreErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "bank account not found")
	}
	return dErrors.Wrap(dErrors.CodeInternal, "bank account store failure", err)
}

// newRequestID produces the unique per-call request id the holder check
// consumes.
func newRequestID() string {
	return fmt.Sprintf("AC%s", strings.ReplaceAll(uuid.NewString(), "-", "")[:28])
}
