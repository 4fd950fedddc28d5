// internal/reminder/lease_test.go
package reminder

import (
	"context"
	"testing"
	"time"

	commonerrors "docflow-workers/internal/common/errors"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func newTestLease(t *testing.T, ttl time.Duration) (*RunLease, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRunLease(client, ttl), mr
}

// ==========================
// Run Lease Tests
// ==========================

func TestRunLease_AcquireAndRelease(t *testing.T) {
	lease, mr := newTestLease(t, 12*time.Hour)
	ctx := context.Background()

	token, err := lease.Acquire(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, mr.Exists(leaseKey))
	assert.Equal(t, 12*time.Hour, mr.TTL(leaseKey))

	require.NoError(t, lease.Release(ctx, token))
	assert.False(t, mr.Exists(leaseKey))
}

func TestRunLease_SecondAcquireRejected(t *testing.T) {
	lease, _ := newTestLease(t, 12*time.Hour)
	ctx := context.Background()

	first, err := lease.Acquire(ctx)
	require.NoError(t, err)

	_, err = lease.Acquire(ctx)
	var stdErr *commonerrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, commonerrors.ErrCodeDispatchLeaseHeld, stdErr.Code)
	assert.Equal(t, first, stdErr.Details, "error carries the holder token")
}

func TestRunLease_StaleTokenCannotRelease(t *testing.T) {
	lease, mr := newTestLease(t, 12*time.Hour)
	ctx := context.Background()

	_, err := lease.Acquire(ctx)
	require.NoError(t, err)

	require.NoError(t, lease.Release(ctx, "some-other-token"))
	assert.True(t, mr.Exists(leaseKey), "lease must survive a release with the wrong token")
}

func TestRunLease_ExpiryFreesTheLease(t *testing.T) {
	lease, mr := newTestLease(t, time.Minute)
	ctx := context.Background()

	_, err := lease.Acquire(ctx)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	token, err := lease.Acquire(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}
