// internal/reminder/lease.go
package reminder

import (
	"context"
	"time"

	commonerrors "docflow-workers/internal/common/errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const leaseKey = "docflow:reminders:dispatch_lease"

// releaseScript deletes the lease only when the stored token matches, so a
// run whose lease expired cannot release a lease acquired by a newer run.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// RunLease is the single-flight guard for batch dispatch. Exactly one run may
// hold the lease at a time; the TTL bounds how long a crashed run can block
// the next one.
type RunLease struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRunLease(client *redis.Client, ttl time.Duration) *RunLease {
	return &RunLease{client: client, ttl: ttl}
}

// Acquire claims the lease and returns the release token. A held lease yields
// a DISPATCH_LEASE_HELD error carrying the current holder's token.
func (l *RunLease) Acquire(ctx context.Context) (string, error) {
	token := uuid.New().String()

	ok, err := l.client.SetNX(ctx, leaseKey, token, l.ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		holder, _ := l.client.Get(ctx, leaseKey).Result()
		return "", commonerrors.NewDispatchLeaseHeldError(holder)
	}
	return token, nil
}

// Release frees the lease if the token still owns it.
func (l *RunLease) Release(ctx context.Context, token string) error {
	return releaseScript.Run(ctx, l.client, []string{leaseKey}, token).Err()
}
