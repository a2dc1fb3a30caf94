package middlewares

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	radix "github.com/mediocregopher/radix/v3"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const IdempotencyHeader = "Idempotency-Key"

// IdempotencyStore reserves a key for ttl. Reserve reports false when the key is already
// held.
type IdempotencyStore interface {
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type RedisIdempotencyStore struct {
	client radix.Client
}

func NewRedisIdempotencyStore(client radix.Client) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client}
}

func (s *RedisIdempotencyStore) Reserve(_ context.Context, key string, ttl time.Duration) (bool, error) {
	var reply string
	mn := radix.MaybeNil{Rcv: &reply}
	seconds := strconv.Itoa(int(ttl.Seconds()))
	if err := s.client.Do(radix.Cmd(&mn, "SET", key, "1", "NX", "EX", seconds)); err != nil {
		return false, errors.Wrap(err, "reserve idempotency key")
	}
	return !mn.Nil, nil
}

func (s *RedisIdempotencyStore) Release(_ context.Context, key string) error {
	return errors.Wrap(s.client.Do(radix.Cmd(nil, "DEL", key)), "release idempotency key")
}

// MemoryIdempotencyStore is a single-process store used when Redis is not configured.
type MemoryIdempotencyStore struct {
	mu   sync.Mutex
	keys map[string]time.Time
	now  func() time.Time
}

func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{keys: map[string]time.Time{}, now: time.Now}
}

func (s *MemoryIdempotencyStore) Reserve(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, expires := range s.keys {
		if !now.Before(expires) {
			delete(s.keys, k)
		}
	}
	if _, ok := s.keys[key]; ok {
		return false, nil
	}
	s.keys[key] = now.Add(ttl)
	return true, nil
}

func (s *MemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	return nil
}

// Idempotency rejects a repeated Idempotency-Key from the same caller with 409. A key is
// released again when the request fails, so the client may retry. Requests without the
// header pass through, and so do requests when the store is unavailable.
func Idempotency(store IdempotencyStore, ttl time.Duration) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		key := ctx.GetHeader(IdempotencyHeader)
		if key == "" {
			ctx.Next()
			return
		}
		scope := "anonymous"
		if caller := CallerFrom(ctx); caller != nil {
			scope = caller.ID
		}
		scoped := "idempotency:" + scope + ":" + ctx.FullPath() + ":" + key

		reserved, err := store.Reserve(ctx.Request.Context(), scoped, ttl)
		if err != nil {
			log.WithField("key", key).WithError(err).Warn("idempotency store unavailable")
			ctx.Next()
			return
		}
		if !reserved {
			ctx.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "Duplicate request"})
			return
		}

		ctx.Next()

		if ctx.Writer.Status() >= http.StatusBadRequest {
			if err := store.Release(context.WithoutCancel(ctx.Request.Context()), scoped); err != nil {
				log.WithField("key", key).WithError(err).Warn("failed to release idempotency key")
			}
		}
	}
}
