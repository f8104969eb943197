package middleware

import (
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/portal-cidadao/domain"
	"github.com/fastygo/portal-cidadao/pkg/httpcontext"
)

// RequestObserver records one finished request.
type RequestObserver interface {
	ObserveRequest(route, method string, status int, elapsed time.Duration)
	TrackInFlight(route string) func()
}

// Instrument reports every request served under route to obs.
func Instrument(route string, obs RequestObserver) Middleware {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		if obs == nil {
			return next
		}
		return func(ctx *fasthttp.RequestCtx) {
			done := obs.TrackInFlight(route)
			start := time.Now()
			next(ctx)
			done()
			obs.ObserveRequest(route, string(ctx.Method()), ctx.Response.StatusCode(), time.Since(start))
		}
	}
}

// Recover turns a handler panic into a 500 and logs it.
func Recover(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("handler panic",
						zap.Any("panic", rec),
						zap.String("path", string(ctx.Path())),
						zap.String("request_id", httpcontext.RequestID(ctx)),
					)
					reject(ctx, fasthttp.StatusInternalServerError, domain.ErrCodeInternal, "internal error", nil)
				}
			}()
			next(ctx)
		}
	}
}

// AccessLog writes one line per request.
func AccessLog(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			start := time.Now()
			next(ctx)
			status := ctx.Response.StatusCode()
			fields := []zap.Field{
				zap.String("method", string(ctx.Method())),
				zap.String("path", string(ctx.Path())),
				zap.Int("status", status),
				zap.Duration("elapsed", time.Since(start)),
				zap.String("request_id", httpcontext.RequestID(ctx)),
			}
			if status >= fasthttp.StatusInternalServerError {
				logger.Warn("request failed", fields...)
				return
			}
			logger.Debug("request served", fields...)
		}
	}
}
