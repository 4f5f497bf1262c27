package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrDraftNotFound indicates the draft expired or never existed.
	ErrDraftNotFound = errors.New("draft not found")
	// ErrDraftLocked indicates another request holds the draft.
	ErrDraftLocked = errors.New("draft is being processed by another request")
)

// Store persists wizard state between requests.
type Store interface {
	Save(ctx context.Context, w *Wizard) error
	Load(ctx context.Context, id string) (*Wizard, error)
	Delete(ctx context.Context, id string) error
	Lock(ctx context.Context, id string, ttl time.Duration) (release func(), err error)
}

// RedisStore keeps drafts as JSON strings with a sliding TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisStore constructs a Redis backed draft store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl, prefix: "sms:draft:"}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

func (s *RedisStore) lockKey(id string) string {
	return s.prefix + id + ":lock"
}

// Save writes the wizard and refreshes its TTL.
func (s *RedisStore) Save(ctx context.Context, w *Wizard) error {
	payload, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	return s.client.Set(ctx, s.key(w.ID), payload, s.ttl).Err()
}

// Load reads a wizard by id.
func (s *RedisStore) Load(ctx context.Context, id string) (*Wizard, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrDraftNotFound
		}
		return nil, err
	}

	var w Wizard
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	if w.Errors == nil {
		w.Errors = map[string]string{}
	}
	return &w, nil
}

// Delete drops a draft.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}

// Lock takes an exclusive hold on a draft with SETNX. The hold expires after
// ttl so a crashed request cannot block the draft forever. Release only drops
// the key while it still carries this holder's token.
func (s *RedisStore) Lock(ctx context.Context, id string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()
	ok, err := s.client.SetNX(ctx, s.lockKey(id), token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("lock draft: %w", err)
	}
	if !ok {
		return nil, ErrDraftLocked
	}

	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, s.client, []string{s.lockKey(id)}, token).Err()
	}
	return release, nil
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)
