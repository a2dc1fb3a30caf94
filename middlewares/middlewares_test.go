package middlewares

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Kariqs/amexan-market/models"
	"github.com/Kariqs/amexan-market/utils"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func token(t *testing.T, id, role string) string {
	t.Helper()
	tok, err := utils.GenerateToken(secret, models.User{ID: id, Email: id + "@example.com", Role: role})
	require.NoError(t, err)
	return "Bearer " + tok
}

func serve(r *gin.Engine, method, path, auth string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	r := gin.New()
	r.GET("/me", RequireAuth(secret), func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"id": CallerFrom(ctx).ID})
	})

	t.Run("Success", func(t *testing.T) {
		w := serve(r, http.MethodGet, "/me", token(t, "u-1", models.RoleUser), nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":"u-1"}`, w.Body.String())
	})

	t.Run("Fail without token", func(t *testing.T) {
		w := serve(r, http.MethodGet, "/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
	})

	t.Run("Fail on bad token", func(t *testing.T) {
		w := serve(r, http.MethodGet, "/me", "Bearer nonsense", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestOptionalAuth(t *testing.T) {
	r := gin.New()
	r.GET("/who", OptionalAuth(secret), func(ctx *gin.Context) {
		caller := CallerFrom(ctx)
		if caller == nil {
			ctx.String(http.StatusOK, "anonymous")
			return
		}
		ctx.String(http.StatusOK, caller.ID)
	})

	assert.Equal(t, "anonymous", serve(r, http.MethodGet, "/who", "", nil).Body.String())
	assert.Equal(t, "anonymous", serve(r, http.MethodGet, "/who", "Bearer broken", nil).Body.String())
	assert.Equal(t, "u-7", serve(r, http.MethodGet, "/who", token(t, "u-7", models.RoleUser), nil).Body.String())
}

func TestRequireAdmin(t *testing.T) {
	r := gin.New()
	r.GET("/admin", RequireAuth(secret), RequireAdmin(), func(ctx *gin.Context) {
		ctx.Status(http.StatusNoContent)
	})
	r.GET("/no-auth", RequireAdmin(), func(ctx *gin.Context) {
		ctx.Status(http.StatusNoContent)
	})

	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/admin", token(t, "a-1", models.RoleAdmin), nil).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/admin", token(t, "s-1", models.RoleSeller), nil).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/no-auth", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/admin", token(t, "u-1", models.RoleUser), nil).Code)
}

type failingStore struct{}

func (failingStore) Reserve(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("redis down")
}

func (failingStore) Release(context.Context, string) error { return nil }

func TestIdempotency(t *testing.T) {
	newRouter := func(store IdempotencyStore, status *int) *gin.Engine {
		r := gin.New()
		r.POST("/order", RequireAuth(secret), Idempotency(store, time.Hour), func(ctx *gin.Context) {
			ctx.Status(*status)
		})
		return r
	}
	buyer := token(t, "b-1", models.RoleUser)
	key := map[string]string{IdempotencyHeader: "k-1"}

	t.Run("Repeated key is rejected", func(t *testing.T) {
		status := http.StatusCreated
		r := newRouter(NewMemoryIdempotencyStore(), &status)

		assert.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/order", buyer, key).Code)
		w := serve(r, http.MethodPost, "/order", buyer, key)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.JSONEq(t, `{"error":"Duplicate request"}`, w.Body.String())
	})

	t.Run("Keys are scoped per caller", func(t *testing.T) {
		status := http.StatusCreated
		r := newRouter(NewMemoryIdempotencyStore(), &status)

		assert.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/order", buyer, key).Code)
		assert.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/order", token(t, "b-2", models.RoleUser), key).Code)
	})

	t.Run("Failed request releases the key", func(t *testing.T) {
		status := http.StatusBadRequest
		r := newRouter(NewMemoryIdempotencyStore(), &status)

		assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodPost, "/order", buyer, key).Code)
		status = http.StatusCreated
		assert.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/order", buyer, key).Code)
	})

	t.Run("No header passes through", func(t *testing.T) {
		status := http.StatusCreated
		r := newRouter(NewMemoryIdempotencyStore(), &status)

		assert.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/order", buyer, nil).Code)
		assert.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/order", buyer, nil).Code)
	})

	t.Run("Store failure fails open", func(t *testing.T) {
		status := http.StatusCreated
		r := newRouter(failingStore{}, &status)

		assert.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/order", buyer, key).Code)
	})
}

func TestMemoryIdempotencyStoreExpiry(t *testing.T) {
	store := NewMemoryIdempotencyStore()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	ok, err := store.Reserve(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = store.Reserve(context.Background(), "k", time.Minute)
	assert.False(t, ok)

	now = now.Add(2 * time.Minute)
	ok, _ = store.Reserve(context.Background(), "k", time.Minute)
	assert.True(t, ok)
}

func TestMemoryIdempotencyStoreDropsExpiredKeys(t *testing.T) {
	store := NewMemoryIdempotencyStore()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	for _, key := range []string{"a", "b", "c"} {
		ok, err := store.Reserve(context.Background(), key, time.Minute)
		require.NoError(t, err)
		require.True(t, ok)
	}
	ok, err := store.Reserve(context.Background(), "long", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)

	now = now.Add(2 * time.Minute)
	ok, err = store.Reserve(context.Background(), "d", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Len(t, store.keys, 2)
	assert.Contains(t, store.keys, "long")
	assert.Contains(t, store.keys, "d")
}
