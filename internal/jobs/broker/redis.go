package broker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// RedisBroker is the cross-process Broker, grounded on the teacher's
// clients/redis package: Redis as a side channel alongside Postgres as the
// system of record. Each queue is a list (ready units), a ZSET keyed by
// ready-time (delayed units), and a pair of hashes for payload storage and
// in-flight (active) claims.
type RedisBroker struct {
	rdb *goredis.Client
}

func NewRedisBroker(rdb *goredis.Client) *RedisBroker {
	return &RedisBroker{rdb: rdb}
}

func readyKey(queue string) string   { return fmt.Sprintf("jobqueue:%s:ready", queue) }
func delayedKey(queue string) string { return fmt.Sprintf("jobqueue:%s:delayed", queue) }
func payloadKey(queue string) string { return fmt.Sprintf("jobqueue:%s:payload", queue) }
func activeKey(queue string) string  { return fmt.Sprintf("jobqueue:%s:active", queue) }
func countsKey(queue string) string  { return fmt.Sprintf("jobqueue:%s:counts", queue) }

func (b *RedisBroker) Enqueue(ctx context.Context, queue, jobKey string, payload []byte, opts EnqueueOptions) error {
	if err := b.rdb.HSet(ctx, payloadKey(queue), jobKey, payload).Err(); err != nil {
		return err
	}
	if opts.Delay > 0 {
		score := float64(time.Now().Add(opts.Delay).UnixMilli())
		return b.rdb.ZAdd(ctx, delayedKey(queue), goredis.Z{Score: score, Member: jobKey}).Err()
	}
	return b.rdb.LPush(ctx, readyKey(queue), jobKey).Err()
}

// promoteDelayed moves any delayed entries whose ready-time has passed onto
// the ready list. Called opportunistically before every Claim rather than
// from a dedicated background loop, since pool workers already tick
// continuously.
func (b *RedisBroker) promoteDelayed(ctx context.Context, queue string) error {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	members, err := b.rdb.ZRangeByScore(ctx, delayedKey(queue), &goredis.ZRangeBy{Min: "-inf", Max: now}).Result()
	if err != nil || len(members) == 0 {
		return err
	}
	pipe := b.rdb.TxPipeline()
	for _, m := range members {
		pipe.LPush(ctx, readyKey(queue), m)
		pipe.ZRem(ctx, delayedKey(queue), m)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (b *RedisBroker) Claim(ctx context.Context, queue, workerID string, timeout time.Duration) (*Unit, error) {
	_ = b.promoteDelayed(ctx, queue)
	res, err := b.rdb.BRPop(ctx, timeout, readyKey(queue)).Result()
	if err == goredis.Nil {
		return nil, ErrClaimTimeout
	}
	if err != nil {
		return nil, err
	}
	jobKey := res[1]
	payload, err := b.rdb.HGet(ctx, payloadKey(queue), jobKey).Bytes()
	if err != nil && err != goredis.Nil {
		return nil, err
	}
	token := uuid.NewString()
	if err := b.rdb.HSet(ctx, activeKey(queue), token, jobKey).Err(); err != nil {
		return nil, err
	}
	return &Unit{JobKey: jobKey, Payload: payload, Token: token}, nil
}

func (b *RedisBroker) Ack(ctx context.Context, queue, token string) error {
	jobKey, err := b.rdb.HGet(ctx, activeKey(queue), token).Result()
	if err != nil && err != goredis.Nil {
		return err
	}
	pipe := b.rdb.TxPipeline()
	pipe.HDel(ctx, activeKey(queue), token)
	if jobKey != "" {
		pipe.HDel(ctx, payloadKey(queue), jobKey)
	}
	pipe.HIncrBy(ctx, countsKey(queue), "completed", 1)
	_, err = pipe.Exec(ctx)
	return err
}

func (b *RedisBroker) Nack(ctx context.Context, queue, token string, requeue bool) error {
	jobKey, err := b.rdb.HGet(ctx, activeKey(queue), token).Result()
	if err != nil && err != goredis.Nil {
		return err
	}
	if err := b.rdb.HDel(ctx, activeKey(queue), token).Err(); err != nil {
		return err
	}
	if requeue && jobKey != "" {
		return b.rdb.LPush(ctx, readyKey(queue), jobKey).Err()
	}
	return b.rdb.HIncrBy(ctx, countsKey(queue), "failed", 1).Err()
}

func (b *RedisBroker) Remove(ctx context.Context, queue, jobKey string) error {
	pipe := b.rdb.TxPipeline()
	pipe.LRem(ctx, readyKey(queue), 0, jobKey)
	pipe.ZRem(ctx, delayedKey(queue), jobKey)
	pipe.HDel(ctx, payloadKey(queue), jobKey)
	_, err := pipe.Exec(ctx)
	return err
}

func (b *RedisBroker) JobCounts(ctx context.Context, queue string) (Counts, error) {
	waiting, err := b.rdb.LLen(ctx, readyKey(queue)).Result()
	if err != nil {
		return Counts{}, err
	}
	delayed, err := b.rdb.ZCard(ctx, delayedKey(queue)).Result()
	if err != nil {
		return Counts{}, err
	}
	active, err := b.rdb.HLen(ctx, activeKey(queue)).Result()
	if err != nil {
		return Counts{}, err
	}
	completedStr, _ := b.rdb.HGet(ctx, countsKey(queue), "completed").Result()
	failedStr, _ := b.rdb.HGet(ctx, countsKey(queue), "failed").Result()
	return Counts{
		Waiting:   int(waiting),
		Active:    int(active),
		Delayed:   int(delayed),
		Completed: atoiOr(completedStr, 0),
		Failed:    atoiOr(failedStr, 0),
	}, nil
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
