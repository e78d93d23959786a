package models

import (
	"strings"

	dErrors "cashout/pkg/domain-errors"
)

// MatchPolicy decides whether a depositor name reported by the account owner
// matches the expected one. Policies are ordered from strict to lenient;
// swapping the policy never touches the withdrawal lifecycle.
type MatchPolicy string

const (
	// ExactMatch requires byte equality.
	ExactMatch MatchPolicy = "exact"
	// NormalizedMatch requires equality after stripping whitespace and
	// lowercasing.
	NormalizedMatch MatchPolicy = "normalized"
	// ContainmentMatch accepts normalized equality or either normalized
	// string containing the other.
	ContainmentMatch MatchPolicy = "containment"
)

// Matches reports whether reported satisfies the policy against expected.
// Empty reported names never match under any policy.
func (p MatchPolicy) Matches(expected, reported string) (bool, error) {
	if strings.TrimSpace(reported) == "" {
		return false, nil
	}
	switch p {
	case ExactMatch:
		return expected == reported, nil
	case NormalizedMatch:
		return normalizeName(expected) == normalizeName(reported), nil
	case ContainmentMatch:
		e, r := normalizeName(expected), normalizeName(reported)
		return e == r || strings.Contains(e, r) || strings.Contains(r, e), nil
	default:
		return false, dErrors.Newf(dErrors.CodeInternal, "unknown match policy %q", string(p))
	}
}

// normalizeName strips all whitespace, not only the edges: depositor name
// fields come back from banks with arbitrary internal spacing.
func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}
