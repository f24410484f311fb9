// Package policy is the top-level session spend authorization entry point.
// It sequences session-validity, adapter allow-list, spend-determinability
// and spend-cap checks into a single fail-closed verdict with a stable,
// machine-readable reason code.
package policy

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// Deny codes. Stable: clients branch on these, never on Message.
const (
	CodeSessionNotActive        = "SESSION_NOT_ACTIVE"
	CodeSessionExpiredOrRevoked = "SESSION_EXPIRED_OR_REVOKED"
	CodeAdapterNotAllowed       = "ADAPTER_NOT_ALLOWED"
	CodeUndeterminedSpend       = "POLICY_UNDETERMINED_SPEND"
	CodeExceeded                = "POLICY_EXCEEDED"
	CodeGuardRejected           = "POLICY_GUARD_REJECTED"
	CodePlanInvalid             = "PLAN_INVALID"
)

// Result is one authorization verdict. Allowed=true implies no Code. All
// large integers inside Details are decimal strings so nothing is ever
// forced through binary floating point on the wire.
type Result struct {
	Allowed bool           `json:"allowed"`
	Code    string         `json:"code,omitempty"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

func allowResult() *Result {
	return &Result{Allowed: true}
}

func denyResult(code, message string, details map[string]any) *Result {
	return &Result{Allowed: false, Code: code, Message: message, Details: details}
}

// ResultHash produces a deterministic SHA-256 hash of a verdict over its
// JCS-canonical JSON form, for binding into audit records.
func ResultHash(r *Result) (string, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("policy: result marshal failed: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("policy: result canonicalization failed: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}
