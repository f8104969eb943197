package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/portal-cidadao/domain"
	"github.com/fastygo/portal-cidadao/usecase/auth"
)

func okHandler(ctx *fasthttp.RequestCtx) {
	ctx.SetStatusCode(fasthttp.StatusOK)
}

func decode(t *testing.T, rc *fasthttp.RequestCtx) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rc.Response.Body(), &out))
	return out
}

func TestJWTAuth(t *testing.T) {
	tokens := auth.NewTokenIssuer("secret", "portal", time.Minute)
	token, _, err := tokens.Issue(&domain.User{ID: 42, Role: domain.RoleServiceProvider})
	require.NoError(t, err)

	var seenID int64
	var seenRole string
	h := JWTAuth(tokens, nil)(func(ctx *fasthttp.RequestCtx) {
		seenID = UserID(ctx)
		seenRole = string(ctx.Request.Header.Peek(HeaderUserRole))
	})

	t.Run("valid token", func(t *testing.T) {
		var rc fasthttp.RequestCtx
		rc.Request.Header.Set("Authorization", "Bearer "+token)
		h(&rc)
		assert.Equal(t, int64(42), seenID)
		assert.Equal(t, "service_provider", seenRole)
	})

	t.Run("missing token", func(t *testing.T) {
		var rc fasthttp.RequestCtx
		h(&rc)
		assert.Equal(t, fasthttp.StatusUnauthorized, rc.Response.StatusCode())
		assert.Equal(t, "UNAUTHORIZED", decode(t, &rc)["code"])
	})

	t.Run("forged headers are discarded", func(t *testing.T) {
		seenID = 0
		var rc fasthttp.RequestCtx
		rc.Request.Header.Set("Authorization", "Bearer nope")
		rc.Request.Header.Set(HeaderUserID, "1")
		h(&rc)
		assert.Equal(t, fasthttp.StatusUnauthorized, rc.Response.StatusCode())
		assert.Zero(t, seenID)
	})

	t.Run("token from another secret", func(t *testing.T) {
		other := auth.NewTokenIssuer("other", "portal", time.Minute)
		forged, _, err := other.Issue(&domain.User{ID: 1, Role: domain.RoleAdmin})
		require.NoError(t, err)
		var rc fasthttp.RequestCtx
		rc.Request.Header.Set("Authorization", "Bearer "+forged)
		h(&rc)
		assert.Equal(t, fasthttp.StatusUnauthorized, rc.Response.StatusCode())
	})
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(domain.RoleAdmin, domain.RoleDepartmentManager)(okHandler)

	var allowed fasthttp.RequestCtx
	allowed.Request.Header.Set(HeaderUserRole, "department_manager")
	h(&allowed)
	assert.Equal(t, fasthttp.StatusOK, allowed.Response.StatusCode())

	var denied fasthttp.RequestCtx
	denied.Request.Header.Set(HeaderUserRole, "citizen")
	h(&denied)
	assert.Equal(t, fasthttp.StatusForbidden, denied.Response.StatusCode())
	assert.Equal(t, "FORBIDDEN", decode(t, &denied)["code"])
}

type stubLimiter struct {
	keys  []string
	allow bool
	err   error
}

func (s *stubLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	s.keys = append(s.keys, key)
	return s.allow, 90 * time.Minute, s.err
}

func TestRateLimit(t *testing.T) {
	t.Run("allowed", func(t *testing.T) {
		lim := &stubLimiter{allow: true}
		var rc fasthttp.RequestCtx
		rc.Request.Header.Set(HeaderUserID, "7")
		RateLimit(lim, "occurrence:create", nil)(okHandler)(&rc)
		assert.Equal(t, fasthttp.StatusOK, rc.Response.StatusCode())
		assert.Equal(t, []string{"occurrence:create:7"}, lim.keys)
	})

	t.Run("exceeded", func(t *testing.T) {
		var rc fasthttp.RequestCtx
		rc.Request.Header.Set(HeaderUserID, "7")
		RateLimit(&stubLimiter{}, "occurrence:create", nil)(okHandler)(&rc)
		assert.Equal(t, fasthttp.StatusTooManyRequests, rc.Response.StatusCode())
		assert.Equal(t, "5400", string(rc.Response.Header.Peek("Retry-After")))
		body := decode(t, &rc)
		assert.Equal(t, "RATE_LIMITED", body["code"])
		assert.Equal(t, float64(5400), body["meta"].(map[string]interface{})["retry_after"])
	})

	t.Run("limiter error", func(t *testing.T) {
		var rc fasthttp.RequestCtx
		rc.Request.Header.Set(HeaderUserID, "7")
		RateLimit(&stubLimiter{err: errors.New("down")}, "x", nil)(okHandler)(&rc)
		assert.Equal(t, fasthttp.StatusInternalServerError, rc.Response.StatusCode())
	})

	t.Run("anonymous", func(t *testing.T) {
		var rc fasthttp.RequestCtx
		RateLimit(&stubLimiter{allow: true}, "x", nil)(okHandler)(&rc)
		assert.Equal(t, fasthttp.StatusUnauthorized, rc.Response.StatusCode())
	})

	t.Run("disabled", func(t *testing.T) {
		var rc fasthttp.RequestCtx
		RateLimit(nil, "x", nil)(okHandler)(&rc)
		assert.Equal(t, fasthttp.StatusOK, rc.Response.StatusCode())
	})
}

type recordingObserver struct {
	routes   []string
	statuses []int
	inFlight int
}

func (r *recordingObserver) ObserveRequest(route, _ string, status int, _ time.Duration) {
	r.routes = append(r.routes, route)
	r.statuses = append(r.statuses, status)
}

func (r *recordingObserver) TrackInFlight(string) func() {
	r.inFlight++
	return func() { r.inFlight-- }
}

func TestInstrumentAndRecover(t *testing.T) {
	obs := &recordingObserver{}
	h := Chain(func(*fasthttp.RequestCtx) { panic("boom") }, Instrument("/api/x", obs), Recover(nil))

	var rc fasthttp.RequestCtx
	assert.NotPanics(t, func() { h(&rc) })
	assert.Equal(t, fasthttp.StatusInternalServerError, rc.Response.StatusCode())
	assert.Equal(t, []string{"/api/x"}, obs.routes)
	assert.Equal(t, []int{fasthttp.StatusInternalServerError}, obs.statuses)
	assert.Zero(t, obs.inFlight)
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
			return func(ctx *fasthttp.RequestCtx) {
				order = append(order, name)
				next(ctx)
			}
		}
	}
	var rc fasthttp.RequestCtx
	Chain(okHandler, mw("a"), mw("b"), AccessLog(nil))(&rc)
	assert.Equal(t, []string{"a", "b"}, order)
}
