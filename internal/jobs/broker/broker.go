package broker

import (
	"context"
	"errors"
	"time"
)

// Queue names the broker exposes, exactly per spec: three logical queues,
// no more, no less.
const (
	QueueVoterImport = "voter-import"
	QueueGeocode     = "geocode"
	QueueScheduled   = "scheduled"
)

// ErrClaimTimeout is returned by Claim when no unit became available before
// the deadline; callers treat it as "nothing to do this tick", not an error.
var ErrClaimTimeout = errors.New("broker: claim timed out")

// EnqueueOptions controls delayed delivery and retry policy for one unit.
type EnqueueOptions struct {
	Delay      time.Duration
	MaxRetries int
}

// Counts reports queue depth for observability (JobCounts).
type Counts struct {
	Waiting   int
	Active    int
	Completed int
	Failed    int
	Delayed   int
	Paused    int
}

// Unit is one claimed item of work: its job key (== the durable Job id),
// its opaque payload, and the token Ack/Nack use to release it.
type Unit struct {
	JobKey  string
	Payload []byte
	Token   string
}

// Broker is the queue contract (component B). jobKey equals the durable
// Job id everywhere, so Enqueue/Remove can de-dup and evict by job identity
// instead of a broker-assigned id. At-least-once delivery is the contract;
// idempotency is the Orchestrator's concern via the Start CAS.
type Broker interface {
	Enqueue(ctx context.Context, queue, jobKey string, payload []byte, opts EnqueueOptions) error
	Claim(ctx context.Context, queue, workerID string, timeout time.Duration) (*Unit, error)
	Ack(ctx context.Context, queue, token string) error
	Nack(ctx context.Context, queue, token string, requeue bool) error
	Remove(ctx context.Context, queue, jobKey string) error
	JobCounts(ctx context.Context, queue string) (Counts, error)
}
