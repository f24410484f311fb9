package session

import (
	"fmt"
	"math/big"

	"github.com/golang-jwt/jwt/v5"
)

// StatusClaims is the signed session-status assertion a ledger gateway may
// hand out instead of a direct database read. Spend fields are decimal
// strings to survive JSON number precision.
type StatusClaims struct {
	jwt.RegisteredClaims
	Owner    string `json:"owner"`
	Executor string `json:"executor"`
	Status   string `json:"status"`
	MaxSpend string `json:"max_spend"`
	Spent    string `json:"spent"`
}

// AssertionVerifier validates signed status assertions and converts them
// into session snapshots. Verification failure is an upstream fault, never
// an implicit "not active".
type AssertionVerifier struct {
	keyFunc jwt.Keyfunc
	issuer  string
}

// NewAssertionVerifier creates a verifier. issuer, when non-empty, is
// enforced against the token's iss claim.
func NewAssertionVerifier(keyFunc jwt.Keyfunc, issuer string) *AssertionVerifier {
	return &AssertionVerifier{keyFunc: keyFunc, issuer: issuer}
}

// Verify parses and validates the assertion, returning the attested
// snapshot. The token's sub claim carries the session ID.
func (v *AssertionVerifier) Verify(tokenString string) (*Session, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "RS256", "EdDSA"})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &StatusClaims{}, v.keyFunc, opts...)
	if err != nil {
		return nil, fmt.Errorf("session: assertion rejected: %w", err)
	}
	claims, ok := token.Claims.(*StatusClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("session: assertion rejected: %w", jwt.ErrTokenSignatureInvalid)
	}

	maxSpend, ok := new(big.Int).SetString(claims.MaxSpend, 10)
	if !ok {
		return nil, fmt.Errorf("session: assertion has bad max_spend %q", claims.MaxSpend)
	}
	spent, ok := new(big.Int).SetString(claims.Spent, 10)
	if !ok {
		return nil, fmt.Errorf("session: assertion has bad spent %q", claims.Spent)
	}

	s := &Session{
		ID:       claims.Subject,
		Owner:    claims.Owner,
		Executor: claims.Executor,
		MaxSpend: maxSpend,
		Spent:    spent,
		Status:   Status(claims.Status),
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}
