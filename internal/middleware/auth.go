package middleware

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/portal-cidadao/api/transport"
	"github.com/fastygo/portal-cidadao/domain"
	"github.com/fastygo/portal-cidadao/usecase/auth"
)

// Headers set by JWTAuth for downstream handlers.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

// Middleware wraps a handler.
type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

// JWTAuth verifies the bearer token and exposes the caller's id and role as
// request headers.
func JWTAuth(tokens *auth.TokenIssuer, logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			// Never trust identity headers sent by the client.
			ctx.Request.Header.Del(HeaderUserID)
			ctx.Request.Header.Del(HeaderUserRole)

			tokenString := extractToken(ctx)
			if tokenString == "" {
				reject(ctx, fasthttp.StatusUnauthorized, domain.ErrCodeUnauthorized, "missing bearer token", nil)
				return
			}

			claims, err := tokens.Parse(tokenString)
			if err != nil {
				logger.Debug("invalid jwt token", zap.Error(err))
				reject(ctx, fasthttp.StatusUnauthorized, domain.ErrCodeUnauthorized, "invalid or expired token", nil)
				return
			}

			ctx.Request.Header.Set(HeaderUserID, strconv.FormatInt(claims.UserID, 10))
			ctx.Request.Header.Set(HeaderUserRole, string(claims.Role))
			next(ctx)
		}
	}
}

// RequireRole lets only the listed roles through. It must run after JWTAuth.
func RequireRole(roles ...domain.Role) Middleware {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			role := domain.Role(ctx.Request.Header.Peek(HeaderUserRole))
			if _, ok := allowed[role]; !ok {
				reject(ctx, fasthttp.StatusForbidden, domain.ErrCodeForbidden, "insufficient permissions", nil)
				return
			}
			next(ctx)
		}
	}
}

// Chain applies middlewares so the first one listed runs first.
func Chain(h fasthttp.RequestHandler, mws ...Middleware) fasthttp.RequestHandler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// UserID returns the authenticated caller id, or 0.
func UserID(ctx *fasthttp.RequestCtx) int64 {
	id, err := strconv.ParseInt(string(ctx.Request.Header.Peek(HeaderUserID)), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek("Authorization")))
	if header == "" {
		return ""
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

func reject(ctx *fasthttp.RequestCtx, status int, code domain.ErrorCode, message string, meta interface{}) {
	body, _ := json.Marshal(transport.NewError(string(code), message, meta))
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}
