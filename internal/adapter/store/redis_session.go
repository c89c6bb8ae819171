package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arturoeanton/ghost-commit/internal/domain"
	"github.com/arturoeanton/ghost-commit/internal/port"
)

const (
	sessionKeyPrefix     = "ghostcommit:session:"
	sessionChannelPrefix = "ghostcommit:session-events:"
	maxUpdateRetries     = 5
)

// RedisConfig configures a RedisSessionStore.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration // zero keeps sessions until evicted by Redis
}

// RedisSessionStore keeps sessions in Redis so several server instances can
// share them. Updates use optimistic locking (WATCH/MULTI) and publish the new
// snapshot on a per-session channel.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
	watch  func(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error
}

// NewRedisSessionStore connects to Redis and verifies the connection.
func NewRedisSessionStore(ctx context.Context, cfg RedisConfig) (*RedisSessionStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return NewRedisSessionStoreFromClient(client, cfg.TTL), nil
}

// NewRedisSessionStoreFromClient wraps an existing client.
func NewRedisSessionStoreFromClient(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl, now: time.Now, watch: client.Watch}
}

// Close closes the Redis connection.
func (r *RedisSessionStore) Close() error {
	return r.client.Close()
}

// Get loads a session.
func (r *RedisSessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	return r.load(ctx, r.client, id)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *RedisSessionStore) load(ctx context.Context, g getter, id string) (*domain.Session, error) {
	data, err := g.Get(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", port.ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session %s: %w", id, err)
	}
	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	if s.Steps == nil {
		s.Steps = []domain.ResurrectionStep{}
	}
	return &s, nil
}

// Update applies mutate inside a WATCH transaction, retrying when another
// writer changed the session in between.
func (r *RedisSessionStore) Update(ctx context.Context, id string, mutate func(*domain.Session) error) (*domain.Session, error) {
	key := sessionKeyPrefix + id
	var result *domain.Session

	txf := func(tx *redis.Tx) error {
		loaded, loadErr := r.load(ctx, tx, id)
		s, data, err := r.prepare(id, loaded, loadErr, mutate)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.ttl)
			pipe.Publish(ctx, sessionChannelPrefix+id, data)
			return nil
		})
		if err == nil {
			result = s
		}
		return err
	}

	for range maxUpdateRetries {
		err := r.watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, fmt.Errorf("update session %s: too many concurrent writers", id)
}

// prepare applies mutate to the loaded session, starting a new one when the
// id is unknown, and encodes the result for storage.
func (r *RedisSessionStore) prepare(id string, s *domain.Session, loadErr error, mutate func(*domain.Session) error) (*domain.Session, []byte, error) {
	if errors.Is(loadErr, port.ErrSessionNotFound) {
		s = domain.NewSession(id, r.now())
	} else if loadErr != nil {
		return nil, nil, loadErr
	}
	if err := mutate(s); err != nil {
		return nil, nil, err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, nil, fmt.Errorf("encode session %s: %w", id, err)
	}
	return s, data, nil
}

// Watch subscribes to session updates. The channel is closed when ctx is done.
func (r *RedisSessionStore) Watch(ctx context.Context, id string) (<-chan domain.Session, error) {
	pubsub := r.client.Subscribe(ctx, sessionChannelPrefix+id)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe session %s: %w", id, err)
	}

	out := make(chan domain.Session, 10)
	go func() {
		defer close(out)
		defer pubsub.Close()
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var s domain.Session
				if err := json.Unmarshal([]byte(msg.Payload), &s); err != nil {
					slog.Warn("dropping malformed session event", "session_id", id, "error", err)
					continue
				}
				select {
				case out <- s:
				default:
				}
			}
		}
	}()
	return out, nil
}
