// Package approval implements supervisor-approval tokens for high-value
// postings. A token is a signed claim binding one request_id to one
// supervisor; it cannot be replayed against a different posting.
package approval

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired    = errors.New("approval token expired")
	ErrTokenMalformed  = errors.New("approval token malformed")
	ErrRequestMismatch = errors.New("approval token issued for a different request")
	ErrNoSupervisor    = errors.New("approval token carries no supervisor")
)

// DefaultThresholdCents is the amount at which supervisor approval kicks in
// when no threshold is configured: $1,000.00.
const DefaultThresholdCents int64 = 100_000

// DefaultTokenTTL bounds how long an issued approval stays usable.
const DefaultTokenTTL = 15 * time.Minute

type approvalClaims struct {
	RequestID string `json:"request_id"`
	jwt.RegisteredClaims
}

// Gate issues and verifies approval tokens and decides when one is required.
type Gate struct {
	signingKey     []byte
	thresholdCents int64
	tokenTTL       time.Duration
}

func NewGate(signingKey []byte, thresholdCents int64, tokenTTL time.Duration) *Gate {
	if thresholdCents <= 0 {
		thresholdCents = DefaultThresholdCents
	}
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	return &Gate{
		signingKey:     signingKey,
		thresholdCents: thresholdCents,
		tokenTTL:       tokenTTL,
	}
}

// Required reports whether the amount needs supervisor approval.
func (g *Gate) Required(amountCents int64) bool {
	return amountCents >= g.thresholdCents
}

// Issue signs an approval for one request by one supervisor.
func (g *Gate) Issue(requestID, supervisorUserID string) (string, error) {
	if requestID == "" || supervisorUserID == "" {
		return "", errors.New("request_id and supervisor user id are required")
	}

	now := time.Now()
	claims := approvalClaims{
		RequestID: requestID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   supervisorUserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign approval token: %w", err)
	}
	return signed, nil
}

// Verify checks the token's signature, expiry, and request binding, and
// returns the approving supervisor's user ID. Every failure mode fails
// closed.
func (g *Gate) Verify(token, requestID string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &approvalClaims{}, func(t *jwt.Token) (any, error) {
		return g.signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	claims, ok := parsed.Claims.(*approvalClaims)
	if !ok || !parsed.Valid {
		return "", ErrTokenMalformed
	}
	if claims.RequestID != requestID {
		return "", ErrRequestMismatch
	}
	if claims.Subject == "" {
		return "", ErrNoSupervisor
	}

	return claims.Subject, nil
}
