// Package verify orchestrates the multi-round real-name verification
// exchange with the trust provider.
package verify

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"cashout/internal/audit"
	"cashout/internal/verify/crypto"
	"cashout/internal/verify/metrics"
	"cashout/internal/verify/provider"
	id "cashout/pkg/domain"
	dErrors "cashout/pkg/domain-errors"
	"cashout/pkg/requestcontext"
)

// ProviderClient is the subset of the trust-provider client the
// orchestrator needs.
type ProviderClient interface {
	AcquireCredential(ctx context.Context) (provider.Credential, error)
	IssueCryptoSession(ctx context.Context, cred provider.Credential, req provider.CryptoSessionRequest) (*provider.CryptoSession, error)
	SubmitVerification(ctx context.Context, cred provider.Credential, req provider.VerificationRequest) (string, error)
}

// MatchStore records Matched results for the withdrawal module to gate on.
type MatchStore interface {
	RecordMatched(ctx context.Context, userID id.UserID, at time.Time) error
}

// AttemptLimiter guards the orchestration entry point.
type AttemptLimiter interface {
	Allow(ctx context.Context, userID id.UserID) error
}

// Service runs the verification protocol. It holds no state across
// invocations; every call owns a fresh crypto session and key material.
type Service struct {
	provider ProviderClient
	matches  MatchStore
	limiter  AttemptLimiter
	audit    *audit.Publisher
	logger   *slog.Logger
	metrics  *metrics.Metrics
	strength crypto.Strength
	now      func() time.Time
}

// New constructs the orchestrator. Limiter may be nil when Redis is not
// configured.
func New(p ProviderClient, matches MatchStore, limiter AttemptLimiter, auditPub *audit.Publisher, logger *slog.Logger, m *metrics.Metrics, strength crypto.Strength) (*Service, error) {
	if p == nil {
		return nil, errors.New("provider client is required")
	}
	if matches == nil {
		return nil, errors.New("match store is required")
	}
	if _, err := strength.KeySize(); err != nil {
		return nil, err
	}
	return &Service{
		provider: p,
		matches:  matches,
		limiter:  limiter,
		audit:    auditPub,
		logger:   logger,
		metrics:  m,
		strength: strength,
		now:      time.Now,
	}, nil
}

func encMode(s crypto.Strength) string {
	if s == crypto.StrengthStrong {
		return "2"
	}
	return "1"
}

func validNationalID(s string) bool {
	if len(s) != 13 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// newRequestID produces the unique per-call request id the provider
// requires. Every attempt consumes one; they are never reused.
func newRequestID() string {
	return "RN" + strings.ReplaceAll(uuid.NewString(), "-", "")[:28]
}

// VerifyRealName runs the full protocol once for the given subject.
//
// Validation happens before any network call. Provider-layer failures come
// back as gateway_unavailable domain errors with the provider diagnostics
// preserved in the chain for logging; domain outcomes (including Mismatched
// and FraudSuspected) are returned as values, not errors.
func (s *Service) VerifyRealName(ctx context.Context, userID id.UserID, name, nationalID string) (Outcome, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if !validNationalID(nationalID) {
		return "", dErrors.New(dErrors.CodeValidation, "national id number must be exactly 13 digits")
	}

	if s.limiter != nil {
		if err := s.limiter.Allow(ctx, userID); err != nil {
			return "", err
		}
	}

	start := s.now()

	cred, err := s.provider.AcquireCredential(ctx)
	if err != nil {
		return "", s.providerFailure(ctx, "acquire credential", err)
	}

	session, err := s.provider.IssueCryptoSession(ctx, cred, provider.CryptoSessionRequest{
		RequestDatetime: s.now().Format("20060102150405"),
		RequestID:       newRequestID(),
		EncMode:         encMode(s.strength),
	})
	if err != nil {
		return "", s.providerFailure(ctx, "issue crypto session", err)
	}

	material, err := crypto.Derive(session.RequestDatetime, session.RequestID, session.TokenValue, s.strength)
	if err != nil {
		return "", err
	}
	defer material.Zero()

	encryptedID, err := crypto.EncryptIDNumber(nationalID, material)
	if err != nil {
		return "", err
	}
	encryptedName, err := crypto.EncryptName(name, material)
	if err != nil {
		return "", err
	}
	integrity, err := crypto.IntegrityValue(session.TokenVersionID, encryptedID, encryptedName, material)
	if err != nil {
		return "", err
	}

	resultCode, err := s.provider.SubmitVerification(ctx, cred, provider.VerificationRequest{
		TokenVersionID: session.TokenVersionID,
		EncryptedID:    encryptedID,
		EncryptedName:  encryptedName,
		IntegrityValue: integrity,
	})
	if err != nil {
		return "", s.providerFailure(ctx, "submit verification", err)
	}

	outcome, err := mapResultCode(resultCode)
	if err != nil {
		return "", s.providerFailure(ctx, "map result code", err)
	}

	if s.metrics != nil {
		s.metrics.ObserveAttempt(string(outcome), start)
	}

	// Audit the terminal outcome only. Names, national IDs, and key
	// material never leave the protocol round-trip above.
	s.emit(ctx, audit.Event{
		UserID:  userID,
		Action:  audit.ActionRealNameVerified,
		Actor:   userID.String(),
		Subject: "identity",
		Detail:  "outcome=" + string(outcome),
	})

	if outcome == OutcomeMatched {
		if err := s.matches.RecordMatched(ctx, userID, requestcontext.Now(ctx)); err != nil {
			// Verification succeeded; a failed record write must not turn a
			// Matched answer into an error for the user. Withdrawal creation
			// will simply demand a re-verification.
			s.logger.ErrorContext(ctx, "failed to record matched result",
				"user_id", userID,
				"error", err,
			)
		}
	}
	return outcome, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}

// providerFailure logs the provider's diagnostics and folds the typed
// gateway error into the generic unavailable answer users see.
func (s *Service) providerFailure(ctx context.Context, step string, err error) error {
	var ge *provider.GatewayError
	if errors.As(err, &ge) {
		s.logger.ErrorContext(ctx, "trust provider call failed",
			"step", step,
			"layer", string(ge.Layer),
			"provider_code", ge.Code,
		)
		if s.metrics != nil {
			s.metrics.IncProviderFailure(string(ge.Layer))
		}
	} else {
		s.logger.ErrorContext(ctx, "trust provider call failed", "step", step, "error", err)
	}
	return dErrors.Wrap(dErrors.CodeGatewayUnavailable, "verification service unavailable", err)
}
