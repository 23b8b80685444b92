package entity

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/oksasatya/go-ddd-user-credentials/internal/domain/domainerror"
)

const (
	EmailVerificationTTL = 24 * time.Hour
	PasswordResetTTL     = time.Hour

	// 256-bit tokens, hex encoded to 64 characters.
	tokenBytes = 32
)

// pendingToken keeps a one-time token and its absolute expiry together so the
// two are always set and cleared as a pair.
type pendingToken struct {
	value     string
	expiresAt time.Time
}

func issueToken(now time.Time, ttl time.Duration) (*pendingToken, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &pendingToken{value: hex.EncodeToString(b), expiresAt: now.Add(ttl)}, nil
}

// redeemable reports whether candidate matches and the token has not expired.
// A nil token never matches.
func (t *pendingToken) redeemable(candidate string, now time.Time) bool {
	if t == nil || candidate == "" {
		return false
	}
	if !tokensEqual(t.value, candidate) {
		return false
	}
	return !now.After(t.expiresAt)
}

func (t *pendingToken) fields() (*string, *time.Time) {
	if t == nil {
		return nil, nil
	}
	v, exp := t.value, t.expiresAt
	return &v, &exp
}

func restoreToken(field string, value *string, expiresAt *time.Time) (*pendingToken, error) {
	switch {
	case value == nil && expiresAt == nil:
		return nil, nil
	case value == nil || expiresAt == nil || *value == "":
		return nil, domainerror.Invariant(field + " token and expiry must be set together")
	}
	return &pendingToken{value: *value, expiresAt: *expiresAt}, nil
}

// tokensEqual hashes both sides before a constant-time compare so the time
// taken does not depend on where the inputs differ.
func tokensEqual(stored, candidate string) bool {
	a := sha256.Sum256([]byte(stored))
	b := sha256.Sum256([]byte(candidate))
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}
