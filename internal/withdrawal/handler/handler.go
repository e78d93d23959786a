// Package handler exposes the withdrawal request lifecycle over HTTP: user
// creation and listing, and the admin transition endpoints.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cashout/internal/withdrawal/models"
	id "cashout/pkg/domain"
	dErrors "cashout/pkg/domain-errors"
	"cashout/pkg/platform/httputil"
	"cashout/pkg/requestcontext"
)

// Service defines the interface for withdrawal lifecycle operations.
type Service interface {
	Create(ctx context.Context, userID id.UserID, accountID id.BankAccountID, pointsAmount int64) (*models.WithdrawalRequest, error)
	Get(ctx context.Context, userID id.UserID, withdrawalID id.WithdrawalID) (*models.WithdrawalRequest, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]*models.WithdrawalRequest, error)
	ListByStatus(ctx context.Context, status models.Status) ([]*models.WithdrawalRequest, error)
	Approve(ctx context.Context, adminID id.AdminID, withdrawalID id.WithdrawalID, note string) (*models.WithdrawalRequest, error)
	Reject(ctx context.Context, adminID id.AdminID, withdrawalID id.WithdrawalID, note string) (*models.WithdrawalRequest, error)
	Complete(ctx context.Context, adminID id.AdminID, withdrawalID id.WithdrawalID, note string) (*models.WithdrawalRequest, error)
	Fail(ctx context.Context, adminID id.AdminID, withdrawalID id.WithdrawalID, note string) (*models.WithdrawalRequest, error)
}

// Handler wires withdrawal endpoints to the lifecycle service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a withdrawal handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the user-facing endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/withdrawals", h.HandleCreate)
	r.Get("/withdrawals", h.HandleList)
	r.Get("/withdrawals/{withdrawalID}", h.HandleGet)
}

// RegisterAdmin mounts the admin endpoints on the router.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/withdrawals", h.HandleAdminList)
	r.Post("/admin/withdrawals/{withdrawalID}/approve", h.transition(Service.Approve, "approved"))
	r.Post("/admin/withdrawals/{withdrawalID}/reject", h.transition(Service.Reject, "rejected"))
	r.Post("/admin/withdrawals/{withdrawalID}/complete", h.transition(Service.Complete, "completed"))
	r.Post("/admin/withdrawals/{withdrawalID}/fail", h.transition(Service.Fail, "failed"))
}

// CreateRequest is the HTTP request body for POST /withdrawals.
type CreateRequest struct {
	BankAccountID string `json:"bank_account_id"`
	PointsAmount  int64  `json:"points_amount"`
}

// NoteRequest carries an optional admin note.
type NoteRequest struct {
	Note string `json:"note"`
}

// HandleCreate handles POST /withdrawals requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	accountID, err := id.ParseBankAccountID(req.BankAccountID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid bank_account_id"))
		return
	}

	created, err := h.service.Create(ctx, userID, accountID, req.PointsAmount)
	if err != nil {
		h.logger.WarnContext(ctx, "withdrawal request refused",
			"request_id", requestID,
			"user_id", userID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "withdrawal requested",
		"request_id", requestID,
		"user_id", userID,
		"withdrawal_id", created.ID,
		"points_amount", created.PointsAmount,
	)
	httputil.WriteJSON(w, http.StatusCreated, created)
}

// HandleList handles GET /withdrawals requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	requests, err := h.service.ListByUser(ctx, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if requests == nil {
		requests = []*models.WithdrawalRequest{}
	}
	httputil.WriteJSON(w, http.StatusOK, requests)
}

// HandleGet handles GET /withdrawals/{withdrawalID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	withdrawalID, err := id.ParseWithdrawalID(chi.URLParam(r, "withdrawalID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid withdrawal id"))
		return
	}

	found, err := h.service.Get(ctx, userID, withdrawalID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, found)
}

// HandleAdminList handles GET /admin/withdrawals?status=... requests. The
// status defaults to the review queue.
func (h *Handler) HandleAdminList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	adminID := requestcontext.AdminID(ctx)
	if adminID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "admin authentication required"))
		return
	}

	status := models.Status(r.URL.Query().Get("status"))
	if status == "" {
		status = models.StatusPendingApproval
	}

	requests, err := h.service.ListByStatus(ctx, status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if requests == nil {
		requests = []*models.WithdrawalRequest{}
	}
	httputil.WriteJSON(w, http.StatusOK, requests)
}

// transition builds the handler for one admin transition endpoint.
func (h *Handler) transition(op func(Service, context.Context, id.AdminID, id.WithdrawalID, string) (*models.WithdrawalRequest, error), name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := requestcontext.RequestID(ctx)

		adminID := requestcontext.AdminID(ctx)
		if adminID.IsNil() {
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "admin authentication required"))
			return
		}
		withdrawalID, err := id.ParseWithdrawalID(chi.URLParam(r, "withdrawalID"))
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid withdrawal id"))
			return
		}

		// The note is optional; an empty body is fine.
		var req NoteRequest
		if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil && !errors.Is(decodeErr, io.EOF) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed JSON body"))
			return
		}

		updated, err := op(h.service, ctx, adminID, withdrawalID, req.Note)
		if err != nil {
			h.logger.WarnContext(ctx, "withdrawal transition refused",
				"request_id", requestID,
				"admin_id", adminID,
				"withdrawal_id", withdrawalID,
				"transition", name,
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}

		h.logger.InfoContext(ctx, "withdrawal transitioned",
			"request_id", requestID,
			"admin_id", adminID,
			"withdrawal_id", updated.ID,
			"status", updated.Status,
		)
		httputil.WriteJSON(w, http.StatusOK, updated)
	}
}
