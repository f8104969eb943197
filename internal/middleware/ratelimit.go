package middleware

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/portal-cidadao/domain"
	"github.com/fastygo/portal-cidadao/repository"
)

// RateLimit counts requests per authenticated user under scope. A nil
// limiter disables the check.
func RateLimit(limiter repository.RateLimiter, scope string, logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		if limiter == nil {
			return next
		}
		return func(ctx *fasthttp.RequestCtx) {
			userID := UserID(ctx)
			if userID == 0 {
				reject(ctx, fasthttp.StatusUnauthorized, domain.ErrCodeUnauthorized, "missing user id", nil)
				return
			}

			stdCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			allowed, retryAfter, err := limiter.Allow(stdCtx, scope+":"+strconv.FormatInt(userID, 10))
			cancel()
			if err != nil {
				logger.Error("rate limiter unavailable", zap.String("scope", scope), zap.Error(err))
				reject(ctx, fasthttp.StatusInternalServerError, domain.ErrCodeInternal, "rate limiter unavailable", nil)
				return
			}
			if !allowed {
				seconds := int(math.Ceil(retryAfter.Seconds()))
				ctx.Response.Header.Set("Retry-After", strconv.Itoa(seconds))
				reject(ctx, fasthttp.StatusTooManyRequests, domain.ErrCodeRateLimited, domain.ErrRateLimited.Message,
					map[string]int{"retry_after": seconds})
				return
			}
			next(ctx)
		}
	}
}
