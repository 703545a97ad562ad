package service

import "context"

type callerKey struct{}

// WithCaller attaches the authenticated caller's user ID to ctx. The mock
// API sets it from the verified JWT so the fixture backend can authorize
// the call.
func WithCaller(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, callerKey{}, userID)
}

// CallerFrom returns the user ID set by WithCaller.
func CallerFrom(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(callerKey{}).(int64)
	return id, ok && id > 0
}
