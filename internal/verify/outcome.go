package verify

import "cashout/internal/verify/provider"

// Outcome is the domain answer of a real-name verification attempt. Every
// value here is a legitimate business result, not a system failure; failures
// of the protocol itself surface as *provider.GatewayError.
type Outcome string

const (
	OutcomeMatched              Outcome = "matched"
	OutcomeMismatched           Outcome = "mismatched"
	OutcomeNotOnFile            Outcome = "not_on_file"
	OutcomeIdentityTheftBlocked Outcome = "identity_theft_blocked"
	OutcomeFraudSuspected       Outcome = "fraud_suspected"
)

// Message is the user-facing explanation for the outcome.
func (o Outcome) Message() string {
	switch o {
	case OutcomeMatched:
		return "identity verified"
	case OutcomeMismatched:
		return "name does not match the registered identity"
	case OutcomeNotOnFile:
		return "identity not on file with the trust provider"
	case OutcomeIdentityTheftBlocked:
		return "blocked by an identity-theft protection registration"
	case OutcomeFraudSuspected:
		return "fraud suspected — verification blocked"
	default:
		return "verification could not be completed"
	}
}

// mapResultCode translates the provider's domain result code. The mapping is
// exhaustive and exact; an unknown code becomes a domain-layer GatewayError
// carrying the raw code, never a silent Matched.
func mapResultCode(code string) (Outcome, error) {
	switch code {
	case "1":
		return OutcomeMatched, nil
	case "2":
		return OutcomeMismatched, nil
	case "3":
		return OutcomeNotOnFile, nil
	case "7":
		return OutcomeIdentityTheftBlocked, nil
	case "8":
		return OutcomeFraudSuspected, nil
	default:
		return "", provider.DomainError(code, "unrecognized verification result code")
	}
}
