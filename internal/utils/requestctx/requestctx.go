package requestctx

import "context"

type ctxKey int

const (
	requestIDKey ctxKey = iota
	clientIPKey
	userAgentKey
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return withString(ctx, requestIDKey, requestID)
}

func RequestID(ctx context.Context) string {
	return stringFrom(ctx, requestIDKey)
}

// WithClient stores the caller's address and user agent for audit attribution.
func WithClient(ctx context.Context, ip, userAgent string) context.Context {
	ctx = withString(ctx, clientIPKey, ip)
	return withString(ctx, userAgentKey, userAgent)
}

func ClientIP(ctx context.Context) string {
	return stringFrom(ctx, clientIPKey)
}

func UserAgent(ctx context.Context) string {
	return stringFrom(ctx, userAgentKey)
}

func withString(ctx context.Context, key ctxKey, value string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, key, value)
}

func stringFrom(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	if v := ctx.Value(key); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
