package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/miz-art/Micro-narrativesxHarms-June25/internal/narrative"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultSessionTTL = 24 * time.Hour
	defaultLockTTL    = 2 * time.Minute
)

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// renewScript extends the lock only while it still holds our token.
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisStore keeps sessions as JSON blobs with a sliding TTL.
type RedisStore struct {
	redis   *redis.Client
	tracer  trace.Tracer
	ttl     time.Duration
	lockTTL time.Duration
	// renewEvery is how often a held lease is extended back to lockTTL.
	renewEvery time.Duration
}

var _ narrative.Store = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client, ttl, lockTTL time.Duration) *RedisStore {
	if client == nil {
		panic("session: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}
	return &RedisStore{
		redis:      client,
		tracer:     otel.Tracer("narrative.internal.session"),
		ttl:        ttl,
		lockTTL:    lockTTL,
		renewEvery: lockTTL / 3,
	}
}

func (s *RedisStore) Load(ctx context.Context, id string) (*narrative.Session, error) {
	ctx, span := s.tracer.Start(ctx, "session.load")
	defer span.End()
	span.SetAttributes(attribute.String("narrative.session_id", id))

	data, err := s.redis.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", narrative.ErrSessionNotFound, id)
		}
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to load %s: %w", id, err)
	}

	var sess narrative.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to decode %s: %w", id, err)
	}
	return &sess, nil
}

func (s *RedisStore) Save(ctx context.Context, sess *narrative.Session) error {
	if sess == nil || strings.TrimSpace(sess.ID) == "" {
		return narrative.ErrMissingSessionIdentity
	}
	ctx, span := s.tracer.Start(ctx, "session.save")
	defer span.End()
	span.SetAttributes(
		attribute.String("narrative.session_id", sess.ID),
		attribute.String("narrative.phase", string(sess.Phase)),
	)

	data, err := json.Marshal(sess)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to marshal %s: %w", sess.ID, err)
	}
	if err := s.redis.Set(ctx, sessionKey(sess.ID), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to persist %s: %w", sess.ID, err)
	}
	return nil
}

// Lock takes a per-session lease. The lease is renewed while held, so a
// long turn keeps it; a crashed holder's lease expires after the lock TTL.
func (s *RedisStore) Lock(ctx context.Context, id string) (func(), error) {
	token := uuid.NewString()
	ok, err := s.redis.SetNX(ctx, lockKey(id), token, s.lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("session: failed to lock %s: %w", id, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", narrative.ErrSessionBusy, id)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go s.keepAlive(id, token, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			// Release on a fresh context so a cancelled request still frees the lease.
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = releaseScript.Run(releaseCtx, s.redis, []string{lockKey(id)}, token).Err()
		})
	}, nil
}

// keepAlive extends the lease until stop is closed or the token is no longer held.
func (s *RedisStore) keepAlive(id, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.renewEvery)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), s.renewEvery)
			held, err := renewScript.Run(ctx, s.redis, []string{lockKey(id)}, token, s.lockTTL.Milliseconds()).Int()
			cancel()
			if err == nil && held == 0 {
				return
			}
		}
	}
}

func sessionKey(id string) string {
	return fmt.Sprintf("narrative:session:%s", id)
}

func lockKey(id string) string {
	return fmt.Sprintf("narrative:lock:%s", id)
}
