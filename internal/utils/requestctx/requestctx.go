package requestctx

import (
	"context"

	"github.com/labportal/server/internal/model"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	callerKey
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil {
		return context.WithValue(context.Background(), requestIDKey, requestID)
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v := ctx.Value(requestIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// WithCaller attaches the authenticated caller. Outbound adapters read the bearer
// token from here when forwarding requests on the caller's behalf.
func WithCaller(ctx context.Context, caller model.Caller) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, callerKey, caller)
}

// Caller returns the caller attached to ctx.
func Caller(ctx context.Context) (model.Caller, bool) {
	if ctx == nil {
		return model.Caller{}, false
	}
	c, ok := ctx.Value(callerKey).(model.Caller)
	return c, ok
}

// BearerToken returns the caller's token, or "".
func BearerToken(ctx context.Context) string {
	c, _ := Caller(ctx)
	return c.Token
}
