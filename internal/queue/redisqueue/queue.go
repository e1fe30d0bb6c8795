package redisqueue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/geocoder89/assethub/internal/jobs"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrEmpty means no job became ready before the pop timed out.
	ErrEmpty = errors.New("queue empty")
	// ErrUndecodable means the popped entry was not a job; it has been moved
	// to the dead-letter list as is.
	ErrUndecodable = errors.New("undecodable job")
)

const promoteBatch = 100

// Queue keeps ready jobs in a list, retries in a sorted set scored by due
// time (unix ms), and exhausted jobs in a dead-letter list.
type Queue struct {
	rdb     *redis.Client
	ready   string
	delayed string
	dead    string
	now     func() time.Time

	onEnqueue func(jobType string, err error)
}

func New(rdb *redis.Client, prefix string) *Queue {
	if prefix == "" {
		prefix = "assethub:jobs"
	}
	return &Queue{
		rdb:     rdb,
		ready:   prefix,
		delayed: prefix + ":delayed",
		dead:    prefix + ":dead",
		now:     time.Now,
	}
}

// OnEnqueue registers a hook (metrics) called after every Enqueue.
func (q *Queue) OnEnqueue(fn func(jobType string, err error)) *Queue {
	q.onEnqueue = fn
	return q
}

// Enqueue makes j ready now, or parks it until RunAt.
func (q *Queue) Enqueue(ctx context.Context, j jobs.Job) error {
	err := q.enqueue(ctx, j)
	if q.onEnqueue != nil {
		q.onEnqueue(string(j.Type), err)
	}
	return err
}

func (q *Queue) enqueue(ctx context.Context, j jobs.Job) error {
	raw, err := jobs.Marshal(j)
	if err != nil {
		return err
	}

	if j.RunAt.After(q.now()) {
		return q.rdb.ZAdd(ctx, q.delayed, redis.Z{Score: score(j.RunAt), Member: raw}).Err()
	}
	return q.rdb.LPush(ctx, q.ready, raw).Err()
}

// Dequeue blocks up to timeout for the oldest ready job and marks it
// processing.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (jobs.Job, error) {
	res, err := q.rdb.BRPop(ctx, timeout, q.ready).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return jobs.Job{}, ErrEmpty
		}
		return jobs.Job{}, err
	}

	// BRPOP answers [key, value]
	if len(res) != 2 {
		return jobs.Job{}, fmt.Errorf("unexpected BRPOP reply of %d elements", len(res))
	}
	j, err := jobs.Unmarshal([]byte(res[1]))
	if err != nil {
		if dlErr := q.rdb.LPush(ctx, q.dead, res[1]).Err(); dlErr != nil {
			return jobs.Job{}, fmt.Errorf("dead-letter undecodable job: %w", dlErr)
		}
		return jobs.Job{}, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}

	j.Status = jobs.JobProcessing
	j.UpdatedAt = q.now().UTC()
	return j, nil
}

// Retry schedules j to run again after delay.
func (q *Queue) Retry(ctx context.Context, j jobs.Job, delay time.Duration) error {
	j.RunAt = q.now().Add(delay).UTC()
	j.Status = jobs.JobPending
	j.UpdatedAt = q.now().UTC()

	raw, err := jobs.Marshal(j)
	if err != nil {
		return err
	}
	return q.rdb.ZAdd(ctx, q.delayed, redis.Z{Score: score(j.RunAt), Member: raw}).Err()
}

func (q *Queue) DeadLetter(ctx context.Context, j jobs.Job) error {
	j.Status = jobs.JobFailed
	j.UpdatedAt = q.now().UTC()

	raw, err := jobs.Marshal(j)
	if err != nil {
		return err
	}
	return q.rdb.LPush(ctx, q.dead, raw).Err()
}

// PromoteDue moves delayed jobs whose time has come onto the ready list. It
// is safe to run from several workers: only the caller whose ZREM succeeds
// pushes the job.
func (q *Queue) PromoteDue(ctx context.Context) (int, error) {
	due, err := q.rdb.ZRangeByScore(ctx, q.delayed, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatFloat(score(q.now()), 'f', 0, 64),
		Count: promoteBatch,
	}).Result()
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, raw := range due {
		removed, err := q.rdb.ZRem(ctx, q.delayed, raw).Result()
		if err != nil {
			return moved, err
		}
		if removed == 0 {
			continue
		}
		if err := q.rdb.LPush(ctx, q.ready, raw).Err(); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}

type Stats struct {
	Ready   int64 `json:"ready"`
	Delayed int64 `json:"delayed"`
	Dead    int64 `json:"dead"`
}

func (q *Queue) Stats(ctx context.Context) (Stats, error) {
	pipe := q.rdb.Pipeline()
	ready := pipe.LLen(ctx, q.ready)
	delayed := pipe.ZCard(ctx, q.delayed)
	dead := pipe.LLen(ctx, q.dead)

	if _, err := pipe.Exec(ctx); err != nil {
		return Stats{}, err
	}
	return Stats{Ready: ready.Val(), Delayed: delayed.Val(), Dead: dead.Val()}, nil
}

func (q *Queue) Ping(ctx context.Context) error {
	return q.rdb.Ping(ctx).Err()
}

func score(t time.Time) float64 {
	return float64(t.UnixMilli())
}
