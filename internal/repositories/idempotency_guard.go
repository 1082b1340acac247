package repositories

import "context"

// IdempotencyGuard ensures a repeated external event (e.g. a redelivered
// payment webhook) is applied at most once. Keys are provider event
// references; entries expire after the guard's TTL since providers stop
// redelivering long before then.
type IdempotencyGuard interface {
	// Acquire marks the key as seen. It returns true exactly once per key
	// within the TTL window; later calls return false.
	Acquire(ctx context.Context, key string) (bool, error)
	// Forget drops the key so a failed application can be retried by the
	// provider's redelivery mechanism.
	Forget(ctx context.Context, key string) error
}
