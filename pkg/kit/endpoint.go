package kit

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/hazyhaar/lessico/pkg/dict"
)

// Endpoint is a transport-agnostic action function.
// Each table operation (check, add, finalize) is an Endpoint.
// HTTP handlers and MCP tools both dispatch to the same Endpoints.
type Endpoint func(ctx context.Context, request any) (response any, err error)

// Middleware wraps an Endpoint with cross-cutting concerns (logging, recovery).
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares so the first is outermost.
// Chain(a, b, c)(endpoint) == a(b(c(endpoint)))
func Chain(outer Middleware, others ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(others) - 1; i >= 0; i-- {
			next = others[i](next)
		}
		return outer(next)
	}
}

// Logging logs every call of the endpoint named name with its transport,
// request ID, duration and error kind.
func Logging(logger *slog.Logger, name string) Middleware {
	return func(next Endpoint) Endpoint {
		return func(ctx context.Context, request any) (any, error) {
			start := time.Now()
			resp, err := next(ctx, request)

			attrs := []slog.Attr{
				slog.String("endpoint", name),
				slog.String("transport", GetTransport(ctx)),
				slog.Duration("duration", time.Since(start)),
			}
			if id := GetRequestID(ctx); id != "" {
				attrs = append(attrs, slog.String("request_id", id))
			}
			level := slog.LevelDebug
			if err != nil {
				attrs = append(attrs, slog.String("kind", dict.KindName(err)), slog.String("error", err.Error()))
				level = slog.LevelWarn
				if dict.KindName(err) == "" || dict.KindName(err) == "IOError" {
					level = slog.LevelError
				}
			}
			logger.LogAttrs(ctx, level, "endpoint call", attrs...)
			return resp, err
		}
	}
}

// Recover turns a panic inside the endpoint into an error and logs the stack.
func Recover(logger *slog.Logger) Middleware {
	return func(next Endpoint) Endpoint {
		return func(ctx context.Context, request any) (resp any, err error) {
			defer func() {
				if p := recover(); p != nil {
					logger.ErrorContext(ctx, "panic recovered",
						slog.Any("error", p),
						slog.String("stack", string(debug.Stack())),
					)
					resp, err = nil, fmt.Errorf("internal error: %v", p)
				}
			}()
			return next(ctx, request)
		}
	}
}
