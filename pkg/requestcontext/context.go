// Package requestcontext carries request-scoped values (session cookie,
// client metadata, request id, pinned time) from the HTTP middleware into
// services that do not import net/http.
//
//	now := requestcontext.Now(ctx)
//	ctx = requestcontext.WithTime(ctx, fixed) // tests
package requestcontext

import (
	"context"
	"time"
)

type key int

const (
	sessionIDKey key = iota
	clientIPKey
	userAgentKey
	requestIDKey
	requestTimeKey
)

func str(ctx context.Context, k key) string {
	v, _ := ctx.Value(k).(string)
	return v
}

// SessionID is the provider session cookie value, or "".
func SessionID(ctx context.Context) string { return str(ctx, sessionIDKey) }

func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

func ClientIP(ctx context.Context) string { return str(ctx, clientIPKey) }

func UserAgent(ctx context.Context) string { return str(ctx, userAgentKey) }

// WithClientMetadata sets the client IP and User-Agent the audit
// publisher records.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey, clientIP)
	return context.WithValue(ctx, userAgentKey, userAgent)
}

func RequestID(ctx context.Context) string { return str(ctx, requestIDKey) }

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// Now is the time pinned by the RequestTime middleware. Outside a request
// (sweepers, workers) it is time.Now().
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey).(time.Time); ok {
		return t
	}
	return time.Now()
}

func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey, t)
}
