package ports

import "context"

// IdempotencyStore remembers which request a client-supplied key produced.
// A key is first reserved, then completed with the request id once the
// request exists, or released when creation fails.
type IdempotencyStore interface {
	// Reserve claims key. When another call already holds it, reserved is
	// false and requestID is the stored id, or "" while that call is still
	// creating the request.
	Reserve(ctx context.Context, scope, key string) (requestID string, reserved bool, err error)
	// Lookup returns the request id stored under key, or "" when the key is
	// unseen or still reserved.
	Lookup(ctx context.Context, scope, key string) (string, error)
	Complete(ctx context.Context, scope, key, requestID string) error
	Release(ctx context.Context, scope, key string) error
}
