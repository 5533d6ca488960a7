// Package scheduler promotes due jobs from each queue's eta set to its ready
// list and keeps job rows in step with Redis.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/danielpodrazka/wakaq/internal/logging"
	"github.com/danielpodrazka/wakaq/internal/queue"
)

type Broker interface {
	MoveDue(ctx context.Context, q queue.Definition, now time.Time, batch int64) ([]string, error)
	Requeue(ctx context.Context, q queue.Definition, ids []string) (int, error)
}

type Store interface {
	MarkQueued(ctx context.Context, ids []string) error
	StaleJobs(ctx context.Context, q string, cutoff time.Time, batch int) ([]string, error)
}

type Scheduler struct {
	queues *queue.Registry
	broker Broker
	store  Store
	log    *zap.Logger

	// Batch caps the ids handled per queue and pass.
	Batch int64
	// Grace is how long a due job may sit untouched before it is reconciled.
	Grace time.Duration
}

func New(queues *queue.Registry, b Broker, store Store, log *zap.Logger) *Scheduler {
	return &Scheduler{queues: queues, broker: b, store: store, log: log, Batch: 200, Grace: time.Minute}
}

// Tick runs one pass over every known queue, highest priority first. A
// failing queue does not stop the others; all errors are returned together.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) error {
	var errs error
	for _, q := range s.queues.Definitions() {
		if err := s.moveDue(ctx, q, now); err != nil {
			s.log.Warn("move due", logging.Queue(q), zap.Error(err))
			errs = multierr.Append(errs, err)
		}
		if err := s.reconcile(ctx, q, now); err != nil {
			s.log.Warn("reconcile", logging.Queue(q), zap.Error(err))
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func (s *Scheduler) moveDue(ctx context.Context, q queue.Definition, now time.Time) error {
	ids, err := s.broker.MoveDue(ctx, q, now, s.Batch)
	if err != nil || len(ids) == 0 {
		return err
	}
	s.log.Debug("moved due jobs", logging.Queue(q), zap.Int("count", len(ids)))
	return s.store.MarkQueued(ctx, ids)
}

// reconcile re-pushes due jobs whose row says queued or scheduled but whose
// id is on neither Redis key, e.g. when the push after the insert failed.
func (s *Scheduler) reconcile(ctx context.Context, q queue.Definition, now time.Time) error {
	ids, err := s.store.StaleJobs(ctx, q.Name(), now.Add(-s.Grace), int(s.Batch))
	if err != nil || len(ids) == 0 {
		return err
	}
	n, err := s.broker.Requeue(ctx, q, ids)
	if err != nil {
		return err
	}
	if n > 0 {
		s.log.Info("requeued lost jobs", logging.Queue(q), zap.Int("count", n))
	}
	return s.store.MarkQueued(ctx, ids)
}
