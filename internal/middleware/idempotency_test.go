package middleware

import (
	"io"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cashcards/cashcards/internal/access"
	"github.com/cashcards/cashcards/internal/identity"
	"github.com/cashcards/cashcards/internal/logging"
)

func setupIdempotencyApp(t *testing.T) (*fiber.App, *int32) {
	t.Helper()
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	var calls int32
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(access.PrincipalKey, identity.Principal{Name: c.Get("X-Test-User")})
		return c.Next()
	})
	app.Use(Idempotency(cache, time.Minute, logging.Discard()))
	app.Post("/cashcards", func(c *fiber.Ctx) error {
		n := atomic.AddInt32(&calls, 1)
		c.Location("/cashcards/" + string(rune('0'+n)))
		return c.SendStatus(fiber.StatusCreated)
	})
	return app, &calls
}

func postCard(t *testing.T, app *fiber.App, user, key string) (int, string, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/cashcards", strings.NewReader(`{"amount":1}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set("X-Test-User", user)
	if key != "" {
		req.Header.Set(idempotencyKeyHeader, key)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, resp.Header.Get(fiber.HeaderLocation), string(body)
}

func TestIdempotencyWithoutHeaderPassesThrough(t *testing.T) {
	app, calls := setupIdempotencyApp(t)

	postCard(t, app, "sarah1", "")
	postCard(t, app, "sarah1", "")

	assert.Equal(t, int32(2), atomic.LoadInt32(calls), "handler runs for every request")
}

func TestIdempotencyReturnsCachedResponse(t *testing.T) {
	app, calls := setupIdempotencyApp(t)

	status, loc, body := postCard(t, app, "sarah1", "abc123")
	require.Equal(t, fiber.StatusCreated, status)

	status2, loc2, body2 := postCard(t, app, "sarah1", "abc123")
	assert.Equal(t, fiber.StatusCreated, status2)
	assert.Equal(t, loc, loc2)
	assert.Equal(t, body, body2)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls), "replay must not reach the handler")
}

func TestIdempotencyKeysAreScopedByPrincipal(t *testing.T) {
	app, calls := setupIdempotencyApp(t)

	_, sarahLoc, _ := postCard(t, app, "sarah1", "shared-key")
	_, kumarLoc, _ := postCard(t, app, "kumar2", "shared-key")

	assert.Equal(t, int32(2), atomic.LoadInt32(calls), "each principal reaches the handler")
	assert.NotEqual(t, sarahLoc, kumarLoc, "kumar2 received sarah1's stored response")
}

func TestIdempotencyRejectsOversizedKey(t *testing.T) {
	app, calls := setupIdempotencyApp(t)

	status, _, _ := postCard(t, app, "sarah1", strings.Repeat("k", 256))
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Zero(t, atomic.LoadInt32(calls))
}
