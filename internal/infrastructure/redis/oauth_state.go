package redis

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-ddd-user-credentials/pkg/helpers"
)

var ErrStateNotFound = errors.New("oauth state not found or expired")

// OAuthState is what we remember between redirect and callback.
type OAuthState struct {
	RedirectTo string    `json:"redirect_to,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// OAuthStateStore keeps single-use OAuth state values.
type OAuthStateStore struct {
	rdb *goredis.Client
	ttl time.Duration
}

func NewOAuthStateStore(rdb *goredis.Client, ttl time.Duration) *OAuthStateStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &OAuthStateStore{rdb: rdb, ttl: ttl}
}

// Create stores st under a fresh random state token and returns the token.
func (s *OAuthStateStore) Create(ctx context.Context, st OAuthState) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(b)
	if st.CreatedAt.IsZero() {
		st.CreatedAt = time.Now().UTC()
	}
	if err := helpers.RedisSetJSON(ctx, s.rdb, helpers.KeyOAuthState(token), st, s.ttl); err != nil {
		return "", fmt.Errorf("store state: %w", err)
	}
	return token, nil
}

// Consume returns the state and deletes it, so a callback cannot be replayed.
func (s *OAuthStateStore) Consume(ctx context.Context, token string) (OAuthState, error) {
	var st OAuthState
	if token == "" {
		return st, ErrStateNotFound
	}
	found, err := helpers.RedisTakeJSON(ctx, s.rdb, helpers.KeyOAuthState(token), &st)
	if err != nil {
		return OAuthState{}, err
	}
	if !found {
		return OAuthState{}, ErrStateNotFound
	}
	return st, nil
}
