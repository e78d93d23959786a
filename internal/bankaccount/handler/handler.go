// Package handler exposes bank-account registration and ownership
// verification over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cashout/internal/bankaccount/models"
	id "cashout/pkg/domain"
	dErrors "cashout/pkg/domain-errors"
	"cashout/pkg/platform/httputil"
	"cashout/pkg/requestcontext"
)

// Service defines the interface for bank-account operations.
type Service interface {
	Register(ctx context.Context, userID id.UserID, bankCode, accountNumber, accountHolder string) (*models.BankAccount, error)
	ListByUser(ctx context.Context, userID id.UserID) ([]*models.BankAccount, error)
	CheckOwnership(ctx context.Context, userID id.UserID, bankCode, accountNumber, holderName string) (bool, string, error)
	InitiateMicroDeposit(ctx context.Context, userID id.UserID, accountID id.BankAccountID) (*models.BankAccount, error)
	ConfirmMicroDeposit(ctx context.Context, userID id.UserID, accountID id.BankAccountID, reportedName string) (*models.BankAccount, error)
	AdminOverrideVerify(ctx context.Context, adminID id.AdminID, accountID id.BankAccountID, note string) (*models.BankAccount, error)
}

// Handler wires bank-account endpoints to the verifier service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a bank-account handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the user-facing endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verify/bank-account", h.HandleCheckOwnership)
	r.Post("/bank-accounts", h.HandleRegister)
	r.Get("/bank-accounts", h.HandleList)
	r.Post("/bank-accounts/{accountID}/micro-deposit", h.HandleInitiateMicroDeposit)
	r.Post("/bank-accounts/{accountID}/micro-deposit/confirm", h.HandleConfirmMicroDeposit)
}

// RegisterAdmin mounts the admin override endpoint on the router.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/bank-accounts/{accountID}/verify", h.HandleAdminOverrideVerify)
}

// RegisterAccountRequest is the HTTP request body for POST /bank-accounts.
type RegisterAccountRequest struct {
	BankCode      string `json:"bank_code"`
	AccountNumber string `json:"account_number"`
	AccountHolder string `json:"account_holder"`
}

// CheckOwnershipRequest is the HTTP request body for POST /verify/bank-account.
type CheckOwnershipRequest struct {
	BankCode      string `json:"bank_code"`
	AccountNumber string `json:"account_number"`
	HolderName    string `json:"holder_name"`
}

// CheckOwnershipResponse reports the direct holder-check result with the
// provider's domain code.
type CheckOwnershipResponse struct {
	Verified bool   `json:"verified"`
	Code     string `json:"code"`
}

// ConfirmMicroDepositRequest carries the depositor name the owner observed.
type ConfirmMicroDepositRequest struct {
	ReportedName string `json:"reported_name"`
}

// NoteRequest carries an optional admin note.
type NoteRequest struct {
	Note string `json:"note"`
}

// HandleRegister handles POST /bank-accounts requests.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[RegisterAccountRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	account, err := h.service.Register(ctx, userID, req.BankCode, req.AccountNumber, req.AccountHolder)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "bank account registered",
		"request_id", requestID,
		"user_id", userID,
		"account_id", account.ID,
	)
	httputil.WriteJSON(w, http.StatusCreated, account)
}

// HandleList handles GET /bank-accounts requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	accounts, err := h.service.ListByUser(ctx, userID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if accounts == nil {
		accounts = []*models.BankAccount{}
	}
	httputil.WriteJSON(w, http.StatusOK, accounts)
}

// HandleCheckOwnership handles POST /verify/bank-account requests.
func (h *Handler) HandleCheckOwnership(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[CheckOwnershipRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	verified, code, err := h.service.CheckOwnership(ctx, userID, req.BankCode, req.AccountNumber, req.HolderName)
	if err != nil {
		h.logger.ErrorContext(ctx, "ownership check failed",
			"request_id", requestID,
			"user_id", userID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "ownership check completed",
		"request_id", requestID,
		"user_id", userID,
		"verified", verified,
	)
	httputil.WriteJSON(w, http.StatusOK, CheckOwnershipResponse{Verified: verified, Code: code})
}

// HandleInitiateMicroDeposit handles POST /bank-accounts/{accountID}/micro-deposit.
func (h *Handler) HandleInitiateMicroDeposit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	accountID, err := id.ParseBankAccountID(chi.URLParam(r, "accountID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid account id"))
		return
	}

	account, err := h.service.InitiateMicroDeposit(ctx, userID, accountID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "micro-deposit initiated",
		"user_id", userID,
		"account_id", account.ID,
	)
	httputil.WriteJSON(w, http.StatusAccepted, account)
}

// HandleConfirmMicroDeposit handles POST /bank-accounts/{accountID}/micro-deposit/confirm.
func (h *Handler) HandleConfirmMicroDeposit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	accountID, err := id.ParseBankAccountID(chi.URLParam(r, "accountID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid account id"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[ConfirmMicroDepositRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	account, err := h.service.ConfirmMicroDeposit(ctx, userID, accountID, req.ReportedName)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "micro-deposit confirmed",
		"request_id", requestID,
		"user_id", userID,
		"account_id", account.ID,
	)
	httputil.WriteJSON(w, http.StatusOK, account)
}

// HandleAdminOverrideVerify handles POST /admin/bank-accounts/{accountID}/verify.
func (h *Handler) HandleAdminOverrideVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	adminID := requestcontext.AdminID(ctx)
	if adminID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "admin authentication required"))
		return
	}
	accountID, err := id.ParseBankAccountID(chi.URLParam(r, "accountID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid account id"))
		return
	}

	// The note is optional; an empty body is fine.
	var req NoteRequest
	if decodeErr := json.NewDecoder(r.Body).Decode(&req); decodeErr != nil && !errors.Is(decodeErr, io.EOF) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed JSON body"))
		return
	}

	account, err := h.service.AdminOverrideVerify(ctx, adminID, accountID, req.Note)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "bank account verified by override",
		"request_id", requestID,
		"admin_id", adminID,
		"account_id", account.ID,
	)
	httputil.WriteJSON(w, http.StatusOK, account)
}
