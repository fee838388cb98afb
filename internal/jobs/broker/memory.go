package broker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memoryEnvelope is one in-flight unit of work. removed is set by Remove
// (Pause/Cancel evicting an unstarted job); Claim drops envelopes it finds
// already removed rather than delivering stale work.
type memoryEnvelope struct {
	jobKey     string
	payload    []byte
	maxRetries int
	attempts   int
	removed    bool
}

type memoryQueue struct {
	mu      sync.Mutex
	ready   chan *memoryEnvelope
	pending map[string]*memoryEnvelope // jobKey -> envelope, not yet claimed
	active  map[string]*memoryEnvelope // token -> envelope, claimed not yet acked
	counts  Counts
}

func newMemoryQueue() *memoryQueue {
	return &memoryQueue{
		ready:   make(chan *memoryEnvelope, 4096),
		pending: map[string]*memoryEnvelope{},
		active:  map[string]*memoryEnvelope{},
	}
}

// MemoryBroker is the default Broker: one buffered channel per queue plus a
// small in-process delay wheel (time.AfterFunc) for delayed delivery. It is
// the implementation exercised by tests; RedisBroker is the cross-process
// equivalent for production deployments with QUEUE_BROKER=redis.
type MemoryBroker struct {
	mu     sync.Mutex
	queues map[string]*memoryQueue
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{queues: map[string]*memoryQueue{}}
}

func (b *MemoryBroker) queue(name string) *memoryQueue {
	b.mu.Lock()
	defer b.mu.Unlock()
	q, ok := b.queues[name]
	if !ok {
		q = newMemoryQueue()
		b.queues[name] = q
	}
	return q
}

func (b *MemoryBroker) Enqueue(ctx context.Context, queue, jobKey string, payload []byte, opts EnqueueOptions) error {
	q := b.queue(queue)
	env := &memoryEnvelope{jobKey: jobKey, payload: payload, maxRetries: opts.MaxRetries}

	deliver := func() {
		q.mu.Lock()
		q.pending[jobKey] = env
		q.counts.Waiting++
		q.mu.Unlock()
		q.ready <- env
	}

	if opts.Delay > 0 {
		q.mu.Lock()
		q.counts.Delayed++
		q.mu.Unlock()
		time.AfterFunc(opts.Delay, func() {
			q.mu.Lock()
			q.counts.Delayed--
			q.mu.Unlock()
			deliver()
		})
		return nil
	}
	deliver()
	return nil
}

func (b *MemoryBroker) Claim(ctx context.Context, queue, workerID string, timeout time.Duration) (*Unit, error) {
	q := b.queue(queue)
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			// A unit already waiting is still handed out when the deadline
			// fires at the same time (always so for a zero timeout).
			if len(q.ready) > 0 {
				deadline.Reset(0)
				continue
			}
			return nil, ErrClaimTimeout
		case env := <-q.ready:
			q.mu.Lock()
			if cur, ok := q.pending[env.jobKey]; !ok || cur != env {
				// already removed/superseded between enqueue and delivery
				q.mu.Unlock()
				continue
			}
			delete(q.pending, env.jobKey)
			q.counts.Waiting--
			if env.removed {
				q.mu.Unlock()
				continue
			}
			token := uuid.NewString()
			env.attempts++
			q.active[token] = env
			q.counts.Active++
			q.mu.Unlock()
			return &Unit{JobKey: env.jobKey, Payload: env.payload, Token: token}, nil
		}
	}
}

func (b *MemoryBroker) Ack(ctx context.Context, queue, token string) error {
	q := b.queue(queue)
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.active[token]; ok {
		delete(q.active, token)
		q.counts.Active--
		q.counts.Completed++
	}
	return nil
}

func (b *MemoryBroker) Nack(ctx context.Context, queue, token string, requeue bool) error {
	q := b.queue(queue)
	q.mu.Lock()
	env, ok := q.active[token]
	if ok {
		delete(q.active, token)
		q.counts.Active--
	}
	q.mu.Unlock()
	if !ok {
		return nil
	}
	if requeue && !env.removed && (env.maxRetries <= 0 || env.attempts < env.maxRetries) {
		return b.Enqueue(ctx, queue, env.jobKey, env.payload, EnqueueOptions{})
	}
	q.mu.Lock()
	q.counts.Failed++
	q.mu.Unlock()
	return nil
}

func (b *MemoryBroker) Remove(ctx context.Context, queue, jobKey string) error {
	q := b.queue(queue)
	q.mu.Lock()
	defer q.mu.Unlock()
	if env, ok := q.pending[jobKey]; ok {
		env.removed = true
		delete(q.pending, jobKey)
		q.counts.Waiting--
	}
	return nil
}

func (b *MemoryBroker) JobCounts(ctx context.Context, queue string) (Counts, error) {
	q := b.queue(queue)
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.counts, nil
}
