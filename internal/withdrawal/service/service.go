// Package service owns the withdrawal request lifecycle: creation gated on
// identity proof and balance, and the admin-driven state machine that
// releases funds.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cashout/internal/audit"
	"cashout/internal/withdrawal/metrics"
	"cashout/internal/withdrawal/models"
	"cashout/internal/withdrawal/ports"
	id "cashout/pkg/domain"
	dErrors "cashout/pkg/domain-errors"
	"cashout/pkg/platform/sentinel"
	"cashout/pkg/requestcontext"
)

// Store is the persistence the lifecycle needs. UpdateIfStatus must be a
// conditional write on the expected current status; it is the only
// serialization mechanism for concurrent admin actions.
type Store interface {
	Create(ctx context.Context, w *models.WithdrawalRequest) error
	Get(ctx context.Context, withdrawalID id.WithdrawalID) (*models.WithdrawalRequest, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]*models.WithdrawalRequest, error)
	ListByStatus(ctx context.Context, status models.Status) ([]*models.WithdrawalRequest, error)
	ListByAccountAndStatus(ctx context.Context, accountID id.BankAccountID, status models.Status) ([]*models.WithdrawalRequest, error)
	UpdateIfStatus(ctx context.Context, w *models.WithdrawalRequest, expected models.Status) error
}

// Service is the sole writer of withdrawal status.
type Service struct {
	store     Store
	identity  ports.IdentityGate
	balances  ports.BalanceSource
	accounts  ports.AccountSource
	audit     *audit.Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	minPoints int64
}

// New constructs the lifecycle service.
func New(store Store, identity ports.IdentityGate, balances ports.BalanceSource, accounts ports.AccountSource, auditPub *audit.Publisher, logger *slog.Logger, m *metrics.Metrics, minPoints int64) (*Service, error) {
	if store == nil {
		return nil, errors.New("withdrawal store is required")
	}
	if identity == nil || balances == nil || accounts == nil {
		return nil, errors.New("identity gate, balance source, and account source are required")
	}
	if minPoints <= 0 {
		return nil, errors.New("minimum withdrawal points must be positive")
	}
	return &Service{
		store:     store,
		identity:  identity,
		balances:  balances,
		accounts:  accounts,
		audit:     auditPub,
		logger:    logger,
		metrics:   m,
		minPoints: minPoints,
	}, nil
}

// Create validates the preconditions and opens a pending request. The tax is
// computed here, once, and never again.
func (s *Service) Create(ctx context.Context, userID id.UserID, accountID id.BankAccountID, pointsAmount int64) (*models.WithdrawalRequest, error) {
	matched, err := s.identity.RealNameMatched(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "check real-name status", err)
	}
	if !matched {
		s.refused("verification_required")
		return nil, dErrors.New(dErrors.CodeForbidden, "real-name verification is required before requesting a withdrawal")
	}

	if pointsAmount < s.minPoints {
		s.refused("below_minimum")
		return nil, dErrors.Newf(dErrors.CodeValidation, "withdrawal must be at least %d points", s.minPoints)
	}

	available, err := s.balances.AvailablePoints(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "read points balance", err)
	}
	if pointsAmount > available {
		s.refused("insufficient_balance")
		return nil, dErrors.New(dErrors.CodeValidation, "withdrawal amount exceeds available balance")
	}

	owns, err := s.accounts.Owns(ctx, userID, accountID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "check account ownership", err)
	}
	if !owns {
		return nil, dErrors.New(dErrors.CodeNotFound, "bank account not found")
	}

	w, err := models.NewWithdrawalRequest(userID, accountID, pointsAmount, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, w); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "persist withdrawal request", err)
	}

	if s.metrics != nil {
		s.metrics.Created.Inc()
	}
	s.emit(ctx, audit.Event{
		UserID:  userID,
		Action:  audit.ActionWithdrawalRequested,
		Actor:   userID.String(),
		Subject: w.ID.String(),
		Detail:  fmt.Sprintf("points=%d tax=%d final=%d", w.PointsAmount, w.TaxAmount, w.FinalAmount),
	})
	return w, nil
}

// Get returns one request, scoped to its owner.
func (s *Service) Get(ctx context.Context, userID id.UserID, withdrawalID id.WithdrawalID) (*models.WithdrawalRequest, error) {
	w, err := s.store.Get(ctx, withdrawalID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	if w.UserID != userID {
		return nil, dErrors.New(dErrors.CodeNotFound, "withdrawal not found")
	}
	return w, nil
}

// ListByUser returns a user's requests.
func (s *Service) ListByUser(ctx context.Context, userID id.UserID) ([]*models.WithdrawalRequest, error) {
	return s.store.ListByUser(ctx, userID)
}

// ListByStatus returns the admin review queue for a status.
func (s *Service) ListByStatus(ctx context.Context, status models.Status) ([]*models.WithdrawalRequest, error) {
	if !validStatus(status) {
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "unknown withdrawal status %q", string(status))
	}
	return s.store.ListByStatus(ctx, status)
}

// Approve moves pending_approval -> approved. The balance is re-validated:
// it can have shrunk since creation, and approving beyond it would move
// money that is not there. On shortfall the state is left untouched.
func (s *Service) Approve(ctx context.Context, adminID id.AdminID, withdrawalID id.WithdrawalID, note string) (*models.WithdrawalRequest, error) {
	return s.adminTransition(ctx, adminID, withdrawalID, models.StatusApproved, note, func(w *models.WithdrawalRequest) error {
		available, err := s.balances.AvailablePoints(ctx, w.UserID)
		if err != nil {
			return dErrors.Wrap(dErrors.CodeInternal, "read points balance", err)
		}
		if w.PointsAmount > available {
			s.refused("approval_balance_shortfall")
			return dErrors.New(dErrors.CodeConflict, "user balance no longer covers the requested amount")
		}
		return nil
	})
}

// Reject moves pending_approval or approved -> rejected.
func (s *Service) Reject(ctx context.Context, adminID id.AdminID, withdrawalID id.WithdrawalID, note string) (*models.WithdrawalRequest, error) {
	return s.adminTransition(ctx, adminID, withdrawalID, models.StatusRejected, note, nil)
}

// Complete marks funds as disbursed: approved -> completed.
func (s *Service) Complete(ctx context.Context, adminID id.AdminID, withdrawalID id.WithdrawalID, note string) (*models.WithdrawalRequest, error) {
	return s.adminTransition(ctx, adminID, withdrawalID, models.StatusCompleted, note, nil)
}

// Fail marks a disbursement failure: approved -> failed. No automatic retry.
func (s *Service) Fail(ctx context.Context, adminID id.AdminID, withdrawalID id.WithdrawalID, note string) (*models.WithdrawalRequest, error) {
	return s.adminTransition(ctx, adminID, withdrawalID, models.StatusFailed, note, nil)
}

func (s *Service) adminTransition(ctx context.Context, adminID id.AdminID, withdrawalID id.WithdrawalID, next models.Status, note string, guard func(*models.WithdrawalRequest) error) (*models.WithdrawalRequest, error) {
	w, err := s.store.Get(ctx, withdrawalID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	if err := w.CanTransition(next); err != nil {
		return nil, err
	}
	if guard != nil {
		if err := guard(w); err != nil {
			return nil, err
		}
	}

	from := w.Status
	now := requestcontext.Now(ctx)
	w.ApplyTransition(next, &adminID, note, now)
	if err := s.store.UpdateIfStatus(ctx, w, from); err != nil {
		return nil, translateStoreErr(err)
	}

	if s.metrics != nil {
		s.metrics.ObserveTransition(string(from), string(next))
	}
	s.emit(ctx, audit.Event{
		Timestamp: now,
		UserID:    w.UserID,
		Action:    audit.ActionWithdrawalTransitioned,
		Actor:     adminID.String(),
		Subject:   w.ID.String(),
		Detail:    fmt.Sprintf("%s -> %s", from, next),
		Note:      note,
	})
	return w, nil
}

// PromoteForAccount advances every request pending on the account through
// account_verified into pending_approval. Driven by micro-deposit
// confirmation or an admin override; users never trigger it directly.
// The conditional writes make a late confirmation harmless: a request that
// already left pending is skipped, not corrupted.
func (s *Service) PromoteForAccount(ctx context.Context, accountID id.BankAccountID, actor string) error {
	pending, err := s.store.ListByAccountAndStatus(ctx, accountID, models.StatusPending)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "list pending withdrawals", err)
	}
	now := requestcontext.Now(ctx)
	for _, w := range pending {
		if err := s.promote(ctx, w, models.StatusPending, models.StatusAccountVerified, actor, now); err != nil {
			if errors.Is(err, sentinel.ErrStateMismatch) {
				continue
			}
			return err
		}
		// Ownership confirmed means nothing is left to wait for; queue the
		// request for admin review immediately.
		if err := s.promote(ctx, w, models.StatusAccountVerified, models.StatusPendingApproval, actor, now); err != nil && !errors.Is(err, sentinel.ErrStateMismatch) {
			return err
		}
	}
	return nil
}

func (s *Service) promote(ctx context.Context, w *models.WithdrawalRequest, from, to models.Status, actor string, now time.Time) error {
	if err := w.CanTransition(to); err != nil {
		return err
	}
	w.ApplyTransition(to, nil, "", now)
	if err := s.store.UpdateIfStatus(ctx, w, from); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.ObserveTransition(string(from), string(to))
	}
	s.emit(ctx, audit.Event{
		Timestamp: now,
		UserID:    w.UserID,
		Action:    audit.ActionWithdrawalTransitioned,
		Actor:     actor,
		Subject:   w.ID.String(),
		Detail:    fmt.Sprintf("%s -> %s", from, to),
	})
	return nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}

func (s *Service) refused(reason string) {
	if s.metrics != nil {
		s.metrics.IncRefused(reason)
	}
}

func validStatus(status models.Status) bool {
	switch status {
	case models.StatusPending, models.StatusAccountVerified, models.StatusPendingApproval,
		models.StatusApproved, models.StatusCompleted, models.StatusRejected, models.StatusFailed:
		return true
	}
	return false
}

func translateStoreErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "withdrawal not found")
	case errors.Is(err, sentinel.ErrStateMismatch):
		return dErrors.New(dErrors.CodeConflict, "withdrawal was modified concurrently, reload and retry")
	default:
		return dErrors.Wrap(dErrors.CodeInternal, "withdrawal store failure", err)
	}
}
