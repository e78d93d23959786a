package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"cashout/internal/verify"
	id "cashout/pkg/domain"
	dErrors "cashout/pkg/domain-errors"
	"cashout/pkg/platform/httputil"
	"cashout/pkg/requestcontext"
)

// Service defines the interface for real-name verification operations.
type Service interface {
	VerifyRealName(ctx context.Context, userID id.UserID, name, nationalID string) (verify.Outcome, error)
}

// Handler wires the real-name verification endpoint to the orchestrator.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a verification handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts verification endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verify/realname", h.HandleVerifyRealName)
}

// VerifyRealNameRequest is the HTTP request body for POST /verify/realname.
type VerifyRealNameRequest struct {
	Name       string `json:"name"`
	NationalID string `json:"national_id"`
}

// VerifyRealNameResponse reports the verification outcome. The raw national
// id is never echoed back.
type VerifyRealNameResponse struct {
	Outcome string `json:"outcome"`
	Message string `json:"message"`
}

// HandleVerifyRealName handles POST /verify/realname requests.
func (h *Handler) HandleVerifyRealName(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[VerifyRealNameRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	outcome, err := h.service.VerifyRealName(ctx, userID, req.Name, req.NationalID)
	if err != nil {
		h.logger.ErrorContext(ctx, "real-name verification failed",
			"request_id", requestID,
			"user_id", userID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "real-name verification completed",
		"request_id", requestID,
		"user_id", userID,
		"outcome", outcome,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, http.StatusOK, VerifyRealNameResponse{
		Outcome: string(outcome),
		Message: outcome.Message(),
	})
}
