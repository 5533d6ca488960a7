package broker

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	r "github.com/redis/go-redis/v9"

	"github.com/danielpodrazka/wakaq/internal/queue"
)

// ErrEmpty is returned by Dequeue when no job arrived before the block timeout.
var ErrEmpty = errors.New("broker: no job available")

type RedisQ struct{ rdb r.UniversalClient }

func New(rdb r.UniversalClient) *RedisQ { return &RedisQ{rdb} }

// Enqueue pushes jobID onto the ready list of q, or parks it in the eta set
// when eta is in the future.
func (b *RedisQ) Enqueue(ctx context.Context, q queue.Definition, jobID string, eta time.Time) error {
	if time.Until(eta) > 0 {
		err := b.rdb.ZAdd(ctx, q.BrokerEtaKey(), r.Z{Score: float64(eta.Unix()), Member: jobID}).Err()
		return errors.Wrapf(err, "schedule %s on %s", jobID, q.BrokerEtaKey())
	}
	return errors.Wrapf(b.rdb.LPush(ctx, q.BrokerKey(), jobID).Err(), "push %s on %s", jobID, q.BrokerKey())
}

// Dequeue blocks until a job is ready on any of queues. Keys are polled in the
// order given, so callers pass queues sorted by priority.
func (b *RedisQ) Dequeue(ctx context.Context, queues []queue.Definition, block time.Duration) (queue.Definition, string, error) {
	if len(queues) == 0 {
		return queue.Definition{}, "", errors.New("broker: no queues to dequeue from")
	}
	keys := make([]string, len(queues))
	byKey := make(map[string]queue.Definition, len(queues))
	for i, q := range queues {
		keys[i] = q.BrokerKey()
		byKey[keys[i]] = q
	}

	res, err := b.rdb.BRPop(ctx, block, keys...).Result()
	if errors.Is(err, r.Nil) {
		return queue.Definition{}, "", ErrEmpty
	}
	if err != nil {
		return queue.Definition{}, "", errors.Wrap(err, "brpop")
	}
	if len(res) != 2 {
		return queue.Definition{}, "", ErrEmpty
	}
	return byKey[res[0]], res[1], nil
}

// MoveDue moves up to batch jobs whose eta is at or before now from the eta
// set of q onto its ready list and returns the ids it moved.
func (b *RedisQ) MoveDue(ctx context.Context, q queue.Definition, now time.Time, batch int64) ([]string, error) {
	ids, err := b.rdb.ZRangeByScore(ctx, q.BrokerEtaKey(), &r.ZRangeBy{
		Min: "-inf", Max: strconv.FormatInt(now.Unix(), 10), Offset: 0, Count: batch,
	}).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "scan %s", q.BrokerEtaKey())
	}
	if len(ids) == 0 {
		return nil, nil
	}
	pipe := b.rdb.TxPipeline()
	for _, id := range ids {
		pipe.LPush(ctx, q.BrokerKey(), id)
		pipe.ZRem(ctx, q.BrokerEtaKey(), id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "move due jobs to %s", q.BrokerKey())
	}
	return ids, nil
}

// Requeue pushes onto the ready list of q every id found in neither of its
// keys and returns how many were pushed.
func (b *RedisQ) Requeue(ctx context.Context, q queue.Definition, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	pipe := b.rdb.Pipeline()
	pos := make([]*r.IntCmd, len(ids))
	score := make([]*r.FloatCmd, len(ids))
	for i, id := range ids {
		pos[i] = pipe.LPos(ctx, q.BrokerKey(), id, r.LPosArgs{})
		score[i] = pipe.ZScore(ctx, q.BrokerEtaKey(), id)
	}
	// missing members come back as redis.Nil on the individual commands
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, r.Nil) {
		return 0, errors.Wrapf(err, "look up jobs on %s", q)
	}

	var missing []string
	for i, id := range ids {
		if errors.Is(pos[i].Err(), r.Nil) && errors.Is(score[i].Err(), r.Nil) {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return 0, nil
	}
	if err := b.rdb.LPush(ctx, q.BrokerKey(), toAny(missing)...).Err(); err != nil {
		return 0, errors.Wrapf(err, "requeue on %s", q.BrokerKey())
	}
	return len(missing), nil
}

func toAny(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

// Depth reports how many jobs are ready and how many are scheduled on q.
func (b *RedisQ) Depth(ctx context.Context, q queue.Definition) (ready, scheduled int64, err error) {
	pipe := b.rdb.Pipeline()
	readyCmd := pipe.LLen(ctx, q.BrokerKey())
	etaCmd := pipe.ZCard(ctx, q.BrokerEtaKey())
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, errors.Wrapf(err, "depth of %s", q)
	}
	return readyCmd.Val(), etaCmd.Val(), nil
}
