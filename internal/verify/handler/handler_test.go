package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashout/internal/platform/logger"
	"cashout/internal/verify"
	id "cashout/pkg/domain"
	dErrors "cashout/pkg/domain-errors"
	"cashout/pkg/requestcontext"
)

type fakeService struct {
	outcome verify.Outcome
	err     error
	gotName string
	gotID   string
}

func (f *fakeService) VerifyRealName(_ context.Context, _ id.UserID, name, nationalID string) (verify.Outcome, error) {
	f.gotName = name
	f.gotID = nationalID
	return f.outcome, f.err
}

func newRouter(svc Service, userID id.UserID) chi.Router {
	h := New(svc, logger.New())
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := req.Context()
			if !userID.IsNil() {
				ctx = requestcontext.WithUserID(ctx, userID)
			}
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	h.Register(r)
	return r
}

func post(router chi.Router, body any) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/verify/realname", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleVerifyRealName(t *testing.T) {
	svc := &fakeService{outcome: verify.OutcomeMatched}
	router := newRouter(svc, id.NewUserID())

	rec := post(router, VerifyRealNameRequest{Name: "홍길동", NationalID: "9001011234567"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp VerifyRealNameResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, string(verify.OutcomeMatched), resp.Outcome)
	assert.NotEmpty(t, resp.Message)
	assert.Equal(t, "홍길동", svc.gotName)
	assert.Equal(t, "9001011234567", svc.gotID)

	// The national id never appears in the response body.
	assert.NotContains(t, rec.Body.String(), "9001011234567")
}

func TestHandleVerifyRealName_MismatchIsStillOK(t *testing.T) {
	svc := &fakeService{outcome: verify.OutcomeMismatched}
	router := newRouter(svc, id.NewUserID())

	rec := post(router, VerifyRealNameRequest{Name: "홍길동", NationalID: "9001011234567"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp VerifyRealNameResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, string(verify.OutcomeMismatched), resp.Outcome)
}

func TestHandleVerifyRealName_RequiresUser(t *testing.T) {
	router := newRouter(&fakeService{outcome: verify.OutcomeMatched}, id.UserID{})

	rec := post(router, VerifyRealNameRequest{Name: "홍길동", NationalID: "9001011234567"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleVerifyRealName_ValidationError(t *testing.T) {
	svc := &fakeService{err: dErrors.New(dErrors.CodeValidation, "national id number must be exactly 13 digits")}
	router := newRouter(svc, id.NewUserID())

	rec := post(router, VerifyRealNameRequest{Name: "홍길동", NationalID: "123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleVerifyRealName_GatewayFailureHidesDiagnostics(t *testing.T) {
	svc := &fakeService{err: dErrors.New(dErrors.CodeGatewayUnavailable, "verification service unavailable")}
	router := newRouter(svc, id.NewUserID())

	rec := post(router, VerifyRealNameRequest{Name: "홍길동", NationalID: "9001011234567"})
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotContains(t, resp, "error_description")
}

func TestHandleVerifyRealName_MalformedBody(t *testing.T) {
	router := newRouter(&fakeService{}, id.NewUserID())

	req := httptest.NewRequest(http.MethodPost, "/verify/realname", bytes.NewReader([]byte("{")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
