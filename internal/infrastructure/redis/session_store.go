package redis

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-ddd-user-credentials/internal/application"
	"github.com/oksasatya/go-ddd-user-credentials/pkg/helpers"
)

// SessionTTL is how long a session hash lives after login or refresh.
const SessionTTL = 24 * time.Hour

// updateIfExists only touches a live session; HSET keeps the key's TTL.
var updateIfExists = goredis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  redis.call('HSET', KEYS[1], 'name', ARGV[1], 'avatar_url', ARGV[2], 'updated_at', ARGV[3])
  return 1
end
return 0
`)

// SessionStore keeps one session hash per user at helpers.KeySession.
type SessionStore struct {
	rdb *goredis.Client
	ttl time.Duration
}

func NewSessionStore(rdb *goredis.Client) *SessionStore {
	return &SessionStore{rdb: rdb, ttl: SessionTTL}
}

func (s *SessionStore) Save(ctx context.Context, sess application.Session) error {
	key := helpers.KeySession(sess.UserID)
	created := sess.CreatedAt.UTC().Format(time.RFC3339Nano)
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, map[string]any{
		"user_id":    sess.UserID,
		"sid":        sess.SessionID,
		"role":       sess.Role,
		"email":      sess.Email,
		"name":       sess.Name,
		"avatar_url": sess.AvatarURL,
		"logged_in":  true,
		"created_at": created,
		"updated_at": created,
	})
	pipe.Expire(ctx, key, s.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *SessionStore) Get(ctx context.Context, userID string) (*application.Session, error) {
	data, err := s.rdb.HGetAll(ctx, helpers.KeySession(userID)).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || data["sid"] == "" {
		return nil, nil
	}
	sess := &application.Session{
		UserID:    userID,
		SessionID: data["sid"],
		Role:      data["role"],
		Email:     data["email"],
		Name:      data["name"],
		AvatarURL: data["avatar_url"],
	}
	if t, err := time.Parse(time.RFC3339Nano, data["created_at"]); err == nil {
		sess.CreatedAt = t
	}
	return sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, userID string) error {
	return helpers.RedisDel(ctx, s.rdb, helpers.KeySession(userID))
}

func (s *SessionStore) UpdateProfile(ctx context.Context, userID, name, avatarURL string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return updateIfExists.Run(ctx, s.rdb, []string{helpers.KeySession(userID)}, name, avatarURL, now).Err()
}

var _ application.SessionStore = (*SessionStore)(nil)
