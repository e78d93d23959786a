//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"cashout/internal/withdrawal/models"
	"cashout/internal/withdrawal/store"
	id "cashout/pkg/domain"
	"cashout/pkg/platform/sentinel"
	"cashout/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "withdrawal_requests"))
}

func (s *PostgresStoreSuite) newRequest() *models.WithdrawalRequest {
	w, err := models.NewWithdrawalRequest(id.NewUserID(), id.NewBankAccountID(), 10000, time.Now())
	s.Require().NoError(err)
	return w
}

func (s *PostgresStoreSuite) TestCreateAndGetRoundTrip() {
	ctx := context.Background()
	w := s.newRequest()

	s.Require().NoError(s.store.Create(ctx, w))

	got, err := s.store.Get(ctx, w.ID)
	s.Require().NoError(err)
	s.Equal(w.ID, got.ID)
	s.Equal(w.UserID, got.UserID)
	s.Equal(int64(10000), got.PointsAmount)
	s.Equal(int64(330), got.TaxAmount)
	s.Equal(int64(9670), got.FinalAmount)
	s.Equal(models.StatusPending, got.Status)
}

func (s *PostgresStoreSuite) TestCreateDuplicateIsConflict() {
	ctx := context.Background()
	w := s.newRequest()

	s.Require().NoError(s.store.Create(ctx, w))
	s.ErrorIs(s.store.Create(ctx, w), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestGetMissingIsNotFound() {
	_, err := s.store.Get(context.Background(), id.NewWithdrawalID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUpdateIfStatusRejectsStaleExpectation() {
	ctx := context.Background()
	w := s.newRequest()
	s.Require().NoError(s.store.Create(ctx, w))

	w.Status = models.StatusAccountVerified
	s.Require().NoError(s.store.UpdateIfStatus(ctx, w, models.StatusPending))

	// A second writer still expecting pending must be told the state moved.
	stale := *w
	stale.Status = models.StatusAccountVerified
	s.ErrorIs(s.store.UpdateIfStatus(ctx, &stale, models.StatusPending), sentinel.ErrStateMismatch)
}

// TestConcurrentTransitions verifies that two simultaneous conditional
// updates from the same expected state let exactly one writer through.
func (s *PostgresStoreSuite) TestConcurrentTransitions() {
	ctx := context.Background()
	w := s.newRequest()
	w.Status = models.StatusPendingApproval
	s.Require().NoError(s.store.Create(ctx, w))

	const writers = 20
	var wg sync.WaitGroup
	var successes, mismatches atomic.Int32

	for i := 0; i < writers; i++ {
		wg.Add(1)
		target := models.StatusApproved
		if i%2 == 1 {
			target = models.StatusRejected
		}
		go func(target models.Status) {
			defer wg.Done()
			updated := *w
			updated.Status = target
			err := s.store.UpdateIfStatus(ctx, &updated, models.StatusPendingApproval)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, sentinel.ErrStateMismatch):
				mismatches.Add(1)
			default:
				s.T().Errorf("unexpected error: %v", err)
			}
		}(target)
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load())
	s.Equal(int32(writers-1), mismatches.Load())

	got, err := s.store.Get(ctx, w.ID)
	s.Require().NoError(err)
	s.Contains([]models.Status{models.StatusApproved, models.StatusRejected}, got.Status)
}

func (s *PostgresStoreSuite) TestListByAccountAndStatus() {
	ctx := context.Background()
	accountID := id.NewBankAccountID()

	for i := 0; i < 3; i++ {
		w, err := models.NewWithdrawalRequest(id.NewUserID(), accountID, 10000, time.Now())
		s.Require().NoError(err)
		s.Require().NoError(s.store.Create(ctx, w))
	}
	other := s.newRequest()
	s.Require().NoError(s.store.Create(ctx, other))

	pending, err := s.store.ListByAccountAndStatus(ctx, accountID, models.StatusPending)
	s.Require().NoError(err)
	s.Len(pending, 3)
}

func (s *PostgresStoreSuite) TestProcessedMetadataRoundTrip() {
	ctx := context.Background()
	w := s.newRequest()
	w.Status = models.StatusPendingApproval
	s.Require().NoError(s.store.Create(ctx, w))

	adminID := id.NewAdminID()
	w.ApplyTransition(models.StatusApproved, &adminID, "looks good", time.Now())
	s.Require().NoError(s.store.UpdateIfStatus(ctx, w, models.StatusPendingApproval))

	got, err := s.store.Get(ctx, w.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got.ProcessedBy)
	s.Equal(adminID, *got.ProcessedBy)
	s.NotNil(got.ProcessedAt)
	s.Equal("looks good", got.AdminNotes)
}
