package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/danielpodrazka/wakaq/internal/domain"
	"github.com/danielpodrazka/wakaq/internal/queue"
)

// ErrJobNotFound is returned by GetJob for unknown ids.
var ErrJobNotFound = errors.New("job not found")

type Store struct{ db *pgxpool.Pool }

func New(db *pgxpool.Pool) *Store { return &Store{db} }

type InsertJobParams struct {
	Queue   queue.Definition
	Payload []byte
	ETA     time.Time
}

// InsertJob persists job metadata (source of truth) and returns the stored job.
func (s *Store) InsertJob(ctx context.Context, p *InsertJobParams) (domain.Job, error) {
	j := newJob(uuid.NewString(), p, time.Now().UTC())
	_, err := s.db.Exec(ctx, `insert into jobs(
id, queue, prefix, priority, payload, eta, attempt, max_retries,
soft_timeout_sec, hard_timeout_sec, status, created_at, updated_at
) values ($1,$2,$3,$4,$5,$6,0,$7,$8,$9,$10,$11,$11)`,
		j.ID, j.Queue, j.Prefix, j.Priority, j.Payload, j.ETA, j.MaxRetries,
		seconds(j.SoftTimeout), seconds(j.HardTimeout), j.Status, j.CreatedAt,
	)
	if err != nil {
		return domain.Job{}, errors.Wrapf(err, "insert job on %s", j.Queue)
	}
	return j, nil
}

func (s *Store) GetJob(ctx context.Context, id string) (domain.Job, error) {
	var (
		j          domain.Job
		soft, hard *float64
	)
	err := s.db.QueryRow(ctx, `select id, queue, prefix, priority, payload, eta, attempt,
max_retries, soft_timeout_sec, hard_timeout_sec, status, error, created_at, updated_at
from jobs where id = $1`, id).Scan(
		&j.ID, &j.Queue, &j.Prefix, &j.Priority, &j.Payload, &j.ETA, &j.Attempt,
		&j.MaxRetries, &soft, &hard, &j.Status, &j.Error, &j.CreatedAt, &j.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Job{}, ErrJobNotFound
	}
	if err != nil {
		return domain.Job{}, errors.Wrapf(err, "get job %s", id)
	}
	j.SoftTimeout, j.HardTimeout = duration(soft), duration(hard)
	return j, nil
}

// MarkQueued flips scheduled jobs to queued once their ids are on the ready
// list. Queued rows are touched too, which restarts their reconcile grace.
func (s *Store) MarkQueued(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.Exec(ctx, `update jobs
   set status = $2, updated_at = now()
 where id = any($1) and status in ($2, $3)`, ids, domain.Queued, domain.Scheduled)
	return errors.Wrap(err, "mark jobs queued")
}

// StaleJobs lists queued or scheduled jobs on q that were due and untouched
// before cutoff. They are candidates for a Redis push that never landed.
func (s *Store) StaleJobs(ctx context.Context, q string, cutoff time.Time, batch int) ([]string, error) {
	rows, err := s.db.Query(ctx, `select id from jobs
 where queue = $1 and status in ($2, $3) and eta <= $4 and updated_at < $4
 order by created_at asc limit $5`, q, domain.Queued, domain.Scheduled, cutoff, batch)
	if err != nil {
		return nil, errors.Wrapf(err, "stale jobs on %s", q)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	return ids, errors.Wrapf(err, "stale jobs on %s", q)
}

// UpsertQueue mirrors a queue definition, keys included, for broker-side tooling.
func (s *Store) UpsertQueue(ctx context.Context, q queue.Definition) error {
	soft, hard, retries := limits(q)
	_, err := s.db.Exec(ctx, `insert into queues(
name, prefix, priority, broker_key, broker_eta_key, soft_timeout_sec, hard_timeout_sec, max_retries, updated_at
) values ($1,$2,$3,$4,$5,$6,$7,$8,now())
on conflict (name) do update set
  prefix = excluded.prefix,
  priority = excluded.priority,
  broker_key = excluded.broker_key,
  broker_eta_key = excluded.broker_eta_key,
  soft_timeout_sec = excluded.soft_timeout_sec,
  hard_timeout_sec = excluded.hard_timeout_sec,
  max_retries = excluded.max_retries,
  updated_at = now()`,
		q.Name(), q.Prefix(), q.Priority(), q.BrokerKey(), q.BrokerEtaKey(),
		seconds(soft), seconds(hard), retries,
	)
	return errors.Wrapf(err, "upsert queue %s", q.Name())
}

func newJob(id string, p *InsertJobParams, now time.Time) domain.Job {
	eta := p.ETA
	if eta.IsZero() {
		eta = now
	}
	status := domain.Queued
	if eta.After(now) {
		status = domain.Scheduled
	}
	soft, hard, retries := limits(p.Queue)
	return domain.Job{
		ID:          id,
		Queue:       p.Queue.Name(),
		Prefix:      p.Queue.Prefix(),
		Priority:    p.Queue.Priority(),
		Payload:     p.Payload,
		ETA:         eta.UTC(),
		MaxRetries:  retries,
		SoftTimeout: soft,
		HardTimeout: hard,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func limits(q queue.Definition) (soft, hard *time.Duration, retries *int) {
	if d, ok := q.SoftTimeout(); ok {
		soft = &d
	}
	if d, ok := q.HardTimeout(); ok {
		hard = &d
	}
	if n, ok := q.MaxRetries(); ok {
		retries = &n
	}
	return soft, hard, retries
}

func seconds(d *time.Duration) *float64 {
	if d == nil {
		return nil
	}
	s := d.Seconds()
	return &s
}

func duration(secs *float64) *time.Duration {
	if secs == nil {
		return nil
	}
	d := time.Duration(*secs * float64(time.Second))
	return &d
}
