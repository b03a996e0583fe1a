package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/shelf_api/internal/models"
	"github.com/GTDGit/shelf_api/internal/service"
	"github.com/GTDGit/shelf_api/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newLimiter(limit int) *InvalidAuthRateLimiter {
	return &InvalidAuthRateLimiter{
		attempts: make(map[string]*attemptInfo),
		limit:    limit,
		window:   time.Minute,
		now:      time.Now,
	}
}

func protectedRouter(m *JWTMiddleware, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(LoggingMiddleware())
	handlers := append([]gin.HandlerFunc{m.Handle()}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		c.String(http.StatusOK, GetUserID(c))
	})
	r.GET("/me", handlers...)
	return r
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTMiddleware(t *testing.T) {
	tokens := utils.NewTokenIssuer("secret", time.Hour)
	r := protectedRouter(NewJWTMiddleware(tokens, newLimiter(100)))
	token, err := tokens.Generate("u1", "owner@shop.in")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := do(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())

	w = do(r, httptest.NewRequest(http.MethodGet, "/me?token="+token, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Token "+token)
	assert.Equal(t, http.StatusUnauthorized, do(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w = do(r, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
}

func TestJWTMiddlewareRateLimitsFailures(t *testing.T) {
	r := protectedRouter(NewJWTMiddleware(utils.NewTokenIssuer("secret", time.Hour), newLimiter(2)))

	codes := []int{}
	for i := 0; i < 3; i++ {
		codes = append(codes, do(r, httptest.NewRequest(http.MethodGet, "/me?token=bad", nil)).Code)
	}
	assert.Equal(t, []int{401, 401, 429}, codes)
}

func TestRateLimiterWindowResets(t *testing.T) {
	rl := newLimiter(1)
	now := time.Now()
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("1.1.1.1"))
	assert.False(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("2.2.2.2"))

	now = now.Add(2 * time.Minute)
	assert.True(t, rl.Allow("1.1.1.1"))
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"localhost:3000", "shop.example.com"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://shop.example.com:443")
	w := do(r, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://shop.example.com:443", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = do(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

type shopStore struct {
	shops map[string]models.Shop
}

func (s *shopStore) GetByOwner(_ context.Context, ownerID string) (*models.Shop, error) {
	shop, ok := s.shops[ownerID]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return &shop, nil
}

func (s *shopStore) Create(context.Context, *models.Shop) error { return nil }

func TestShopMiddleware(t *testing.T) {
	tokens := utils.NewTokenIssuer("secret", time.Hour)
	shops := service.NewShopService(&shopStore{shops: map[string]models.Shop{"u1": {ID: "shop-1", OwnerID: "u1"}}})
	sm := NewShopMiddleware(shops)

	r := gin.New()
	r.GET("/stock", NewJWTMiddleware(tokens, nil).Handle(), sm.Handle(), func(c *gin.Context) {
		c.String(http.StatusOK, GetShop(c).ID)
	})

	owner, _ := tokens.Generate("u1", "a@b.in")
	w := do(r, httptest.NewRequest(http.MethodGet, "/stock?token="+owner, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "shop-1", w.Body.String())

	newcomer, _ := tokens.Generate("u2", "c@d.in")
	w = do(r, httptest.NewRequest(http.MethodGet, "/stock?token="+newcomer, nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "SHOP_REQUIRED")
}
