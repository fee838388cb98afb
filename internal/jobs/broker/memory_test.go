package broker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryBroker_EnqueueClaimAck(t *testing.T) {
	b := NewMemoryBroker()
	ctx := context.Background()

	require.NoError(t, b.Enqueue(ctx, QueueGeocode, "job-1", []byte(`{"a":1}`), EnqueueOptions{}))

	unit, err := b.Claim(ctx, QueueGeocode, "worker-1", time.Second)
	require.NoError(t, err)
	require.Equal(t, "job-1", unit.JobKey)
	require.Equal(t, []byte(`{"a":1}`), unit.Payload)

	counts, err := b.JobCounts(ctx, QueueGeocode)
	require.NoError(t, err)
	require.Equal(t, 0, counts.Waiting)
	require.Equal(t, 1, counts.Active)

	require.NoError(t, b.Ack(ctx, QueueGeocode, unit.Token))

	counts, err = b.JobCounts(ctx, QueueGeocode)
	require.NoError(t, err)
	require.Equal(t, 0, counts.Active)
	require.Equal(t, 1, counts.Completed)
}

func TestMemoryBroker_ClaimTimesOutWhenEmpty(t *testing.T) {
	b := NewMemoryBroker()
	_, err := b.Claim(context.Background(), QueueScheduled, "worker-1", 10*time.Millisecond)
	require.ErrorIs(t, err, ErrClaimTimeout)
}

func TestMemoryBroker_RemoveEvictsUnclaimedJob(t *testing.T) {
	b := NewMemoryBroker()
	ctx := context.Background()
	require.NoError(t, b.Enqueue(ctx, QueueVoterImport, "job-2", []byte(`{}`), EnqueueOptions{}))
	require.NoError(t, b.Remove(ctx, QueueVoterImport, "job-2"))

	_, err := b.Claim(ctx, QueueVoterImport, "worker-1", 20*time.Millisecond)
	require.ErrorIs(t, err, ErrClaimTimeout)
}

func TestMemoryBroker_NackRequeueRedelivers(t *testing.T) {
	b := NewMemoryBroker()
	ctx := context.Background()
	require.NoError(t, b.Enqueue(ctx, QueueGeocode, "job-3", []byte(`{}`), EnqueueOptions{MaxRetries: 3}))

	unit, err := b.Claim(ctx, QueueGeocode, "worker-1", time.Second)
	require.NoError(t, err)
	require.NoError(t, b.Nack(ctx, QueueGeocode, unit.Token, true))

	redelivered, err := b.Claim(ctx, QueueGeocode, "worker-1", time.Second)
	require.NoError(t, err)
	require.Equal(t, "job-3", redelivered.JobKey)
}

func TestMemoryBroker_DelayedEnqueue(t *testing.T) {
	b := NewMemoryBroker()
	ctx := context.Background()
	require.NoError(t, b.Enqueue(ctx, QueueScheduled, "job-4", []byte(`{}`), EnqueueOptions{Delay: 30 * time.Millisecond}))

	_, err := b.Claim(ctx, QueueScheduled, "worker-1", 5*time.Millisecond)
	require.ErrorIs(t, err, ErrClaimTimeout)

	unit, err := b.Claim(ctx, QueueScheduled, "worker-1", 100*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, "job-4", unit.JobKey)
}
