package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/EldonT123/bs-reviews/internal/utils"
)

const (
	tokenPrefix = "sess:tok:"
	idPrefix    = "sess:id:"
)

// RedisStore keeps the registry in Redis so sessions survive a process
// restart.  Token and short-id keys carry the session TTL, so expiry is
// enforced by Redis itself; the expiry timestamp is also stored in the
// value to keep Verify results identical to the memory store.  All
// operations are best-effort: a Redis error is treated as "session absent"
// rather than failing the request.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 2*time.Second)
}

func (s *RedisStore) Create(email, kind string) (Session, error) {
	token, err := utils.NewSessionToken()
	if err != nil {
		return Session{}, err
	}
	sess := Session{
		Token:     token,
		Email:     utils.NormalizeEmail(email),
		Kind:      kind,
		ExpiresAt: time.Now().Add(s.ttl),
	}
	body, err := json.Marshal(sess)
	if err != nil {
		return Session{}, err
	}
	ctx, cancel := s.ctx()
	defer cancel()
	if err := s.rdb.Set(ctx, tokenPrefix+token, body, s.ttl).Err(); err != nil {
		return Session{}, err
	}
	return sess, nil
}

func (s *RedisStore) CreateID(email, kind string) (string, Session, error) {
	sess, err := s.Create(email, kind)
	if err != nil {
		return "", Session{}, err
	}
	ctx, cancel := s.ctx()
	defer cancel()
	for {
		id, err := utils.NewSessionID()
		if err != nil {
			return "", Session{}, err
		}
		// SETNX keeps the regenerate-until-unique loop atomic against
		// concurrent logins.
		ok, err := s.rdb.SetNX(ctx, idPrefix+id, sess.Token, s.ttl).Result()
		if err != nil {
			return "", Session{}, err
		}
		if ok {
			return id, sess, nil
		}
	}
}

func (s *RedisStore) Verify(token string) (Session, bool) {
	ctx, cancel := s.ctx()
	defer cancel()
	body, err := s.rdb.Get(ctx, tokenPrefix+token).Bytes()
	if err != nil {
		return Session{}, false
	}
	var sess Session
	if err := json.Unmarshal(body, &sess); err != nil {
		return Session{}, false
	}
	if !time.Now().Before(sess.ExpiresAt) {
		_ = s.rdb.Del(ctx, tokenPrefix+token).Err()
		return Session{}, false
	}
	sess.Token = token
	return sess, true
}

func (s *RedisStore) VerifyID(id string) (Session, bool) {
	ctx, cancel := s.ctx()
	defer cancel()
	token, err := s.rdb.Get(ctx, idPrefix+id).Result()
	if err != nil {
		return Session{}, false
	}
	sess, ok := s.Verify(token)
	if !ok {
		_ = s.rdb.Del(ctx, idPrefix+id).Err()
		return Session{}, false
	}
	return sess, true
}

func (s *RedisStore) Revoke(token string) bool {
	ctx, cancel := s.ctx()
	defer cancel()
	n, err := s.rdb.Del(ctx, tokenPrefix+token).Result()
	return err == nil && n > 0
}

func (s *RedisStore) RevokeID(id string) bool {
	ctx, cancel := s.ctx()
	defer cancel()
	token, err := s.rdb.Get(ctx, idPrefix+id).Result()
	if err != nil {
		return false
	}
	_ = s.rdb.Del(ctx, idPrefix+id).Err()
	n, err := s.rdb.Del(ctx, tokenPrefix+token).Result()
	return err == nil && n > 0
}

func (s *RedisStore) RevokeAll(email string) int {
	email = utils.NormalizeEmail(email)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	revoked := 0
	iter := s.rdb.Scan(ctx, 0, tokenPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		body, err := s.rdb.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}
		var sess Session
		if err := json.Unmarshal(body, &sess); err != nil {
			continue
		}
		if sess.Email == email {
			if s.rdb.Del(ctx, key).Err() == nil {
				revoked++
			}
		}
	}

	// Drop short ids whose token is gone.
	iter = s.rdb.Scan(ctx, 0, idPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		token, err := s.rdb.Get(ctx, key).Result()
		if err != nil {
			continue
		}
		n, err := s.rdb.Exists(ctx, tokenPrefix+token).Result()
		if err == nil && n == 0 {
			_ = s.rdb.Del(ctx, key).Err()
		}
	}
	return revoked
}

// Sweep is a no-op for the Redis store; key TTLs already expire sessions.
func (s *RedisStore) Sweep() int { return 0 }
