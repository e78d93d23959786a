package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashout/internal/platform/logger"
	"cashout/internal/withdrawal/models"
	id "cashout/pkg/domain"
	dErrors "cashout/pkg/domain-errors"
	"cashout/pkg/requestcontext"
)

type fakeService struct {
	created  *models.WithdrawalRequest
	err      error
	lastNote string
}

func (f *fakeService) Create(_ context.Context, userID id.UserID, accountID id.BankAccountID, points int64) (*models.WithdrawalRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	w, err := models.NewWithdrawalRequest(userID, accountID, points, time.Now())
	if err != nil {
		return nil, err
	}
	f.created = w
	return w, nil
}

func (f *fakeService) Get(context.Context, id.UserID, id.WithdrawalID) (*models.WithdrawalRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.created, nil
}

func (f *fakeService) ListByUser(context.Context, id.UserID) ([]*models.WithdrawalRequest, error) {
	return nil, f.err
}

func (f *fakeService) ListByStatus(context.Context, models.Status) ([]*models.WithdrawalRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.created == nil {
		return nil, nil
	}
	return []*models.WithdrawalRequest{f.created}, nil
}

func (f *fakeService) transition(note string, status models.Status) (*models.WithdrawalRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastNote = note
	f.created.Status = status
	return f.created, nil
}

func (f *fakeService) Approve(_ context.Context, _ id.AdminID, _ id.WithdrawalID, note string) (*models.WithdrawalRequest, error) {
	return f.transition(note, models.StatusApproved)
}

func (f *fakeService) Reject(_ context.Context, _ id.AdminID, _ id.WithdrawalID, note string) (*models.WithdrawalRequest, error) {
	return f.transition(note, models.StatusRejected)
}

func (f *fakeService) Complete(_ context.Context, _ id.AdminID, _ id.WithdrawalID, note string) (*models.WithdrawalRequest, error) {
	return f.transition(note, models.StatusCompleted)
}

func (f *fakeService) Fail(_ context.Context, _ id.AdminID, _ id.WithdrawalID, note string) (*models.WithdrawalRequest, error) {
	return f.transition(note, models.StatusFailed)
}

func newRouter(svc Service, userID id.UserID, adminID id.AdminID) chi.Router {
	h := New(svc, logger.New())
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := req.Context()
			if !userID.IsNil() {
				ctx = requestcontext.WithUserID(ctx, userID)
			}
			if !adminID.IsNil() {
				ctx = requestcontext.WithAdminID(ctx, adminID)
			}
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	h.Register(r)
	h.RegisterAdmin(r)
	return r
}

func TestHandleCreate(t *testing.T) {
	userID := id.NewUserID()
	svc := &fakeService{}
	router := newRouter(svc, userID, id.AdminID{})

	body, _ := json.Marshal(CreateRequest{
		BankAccountID: id.NewBankAccountID().String(),
		PointsAmount:  10000,
	})
	req := httptest.NewRequest(http.MethodPost, "/withdrawals", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	raw := rec.Body.String()
	var resp models.WithdrawalRequest
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	assert.Equal(t, int64(10000), resp.PointsAmount)
	assert.Equal(t, int64(330), resp.TaxAmount)
	assert.Equal(t, models.StatusPending, resp.Status)

	// Clients must be able to feed these IDs straight back into path
	// params and request bodies, so they go out as UUID strings.
	assert.Contains(t, raw, `"id":"`+svc.created.ID.String()+`"`)
	assert.Contains(t, raw, `"user_id":"`+userID.String()+`"`)
	assert.Contains(t, raw, `"bank_account_id":"`+svc.created.BankAccountID.String()+`"`)
}

func TestHandleCreate_InvalidAccountID(t *testing.T) {
	router := newRouter(&fakeService{}, id.NewUserID(), id.AdminID{})

	req := httptest.NewRequest(http.MethodPost, "/withdrawals",
		bytes.NewReader([]byte(`{"bank_account_id":"not-a-uuid","points_amount":10000}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCreate_RequiresUser(t *testing.T) {
	router := newRouter(&fakeService{}, id.UserID{}, id.AdminID{})

	req := httptest.NewRequest(http.MethodPost, "/withdrawals", bytes.NewReader([]byte(`{}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleCreate_RefusalPropagatesStatus(t *testing.T) {
	svc := &fakeService{err: dErrors.New(dErrors.CodeForbidden, "real-name verification is required before requesting a withdrawal")}
	router := newRouter(svc, id.NewUserID(), id.AdminID{})

	body, _ := json.Marshal(CreateRequest{BankAccountID: id.NewBankAccountID().String(), PointsAmount: 10000})
	req := httptest.NewRequest(http.MethodPost, "/withdrawals", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminTransitions(t *testing.T) {
	adminID := id.NewAdminID()
	for _, tc := range []struct {
		path string
		want models.Status
	}{
		{"approve", models.StatusApproved},
		{"reject", models.StatusRejected},
		{"complete", models.StatusCompleted},
		{"fail", models.StatusFailed},
	} {
		t.Run(tc.path, func(t *testing.T) {
			svc := &fakeService{}
			router := newRouter(svc, id.NewUserID(), adminID)
			w, err := models.NewWithdrawalRequest(id.NewUserID(), id.NewBankAccountID(), 10000, time.Now())
			require.NoError(t, err)
			svc.created = w

			req := httptest.NewRequest(http.MethodPost,
				"/admin/withdrawals/"+w.ID.String()+"/"+tc.path,
				bytes.NewReader([]byte(`{"note":"checked"}`)))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "checked", svc.lastNote)

			var resp models.WithdrawalRequest
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tc.want, resp.Status)
		})
	}
}

func TestAdminTransition_EmptyBodyAllowed(t *testing.T) {
	svc := &fakeService{}
	router := newRouter(svc, id.NewUserID(), id.NewAdminID())
	w, err := models.NewWithdrawalRequest(id.NewUserID(), id.NewBankAccountID(), 10000, time.Now())
	require.NoError(t, err)
	svc.created = w

	req := httptest.NewRequest(http.MethodPost, "/admin/withdrawals/"+w.ID.String()+"/approve", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminTransition_RequiresAdmin(t *testing.T) {
	router := newRouter(&fakeService{}, id.NewUserID(), id.AdminID{})

	req := httptest.NewRequest(http.MethodPost,
		"/admin/withdrawals/"+id.NewWithdrawalID().String()+"/approve", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminTransition_ConflictMapsTo409(t *testing.T) {
	svc := &fakeService{err: dErrors.New(dErrors.CodeConflict, "withdrawal was modified concurrently, reload and retry")}
	router := newRouter(svc, id.NewUserID(), id.NewAdminID())

	req := httptest.NewRequest(http.MethodPost,
		"/admin/withdrawals/"+id.NewWithdrawalID().String()+"/approve", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandleAdminList_RejectsUnknownStatus(t *testing.T) {
	svc := &fakeService{}
	router := newRouter(svc, id.NewUserID(), id.NewAdminID())

	req := httptest.NewRequest(http.MethodGet, "/admin/withdrawals?status=galloping", nil)
	rec := httptest.NewRecorder()

	// The fake does not validate; route through a real validation error.
	svc.err = dErrors.New(dErrors.CodeBadRequest, "unknown withdrawal status")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
