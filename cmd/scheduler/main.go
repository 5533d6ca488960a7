package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	r "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/danielpodrazka/wakaq/internal/broker"
	"github.com/danielpodrazka/wakaq/internal/config"
	"github.com/danielpodrazka/wakaq/internal/logging"
	"github.com/danielpodrazka/wakaq/internal/scheduler"
	"github.com/danielpodrazka/wakaq/internal/storage"
)

// schedulerLockID is the pg advisory lock held by the active scheduler.
const schedulerLockID = 42

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	queues, err := config.LoadQueues(cfg.QueuesFile, cfg.QueuePrefix)
	if err != nil {
		log.Fatal("load queues", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// the advisory lock lives on its own session, job updates use the pool
	lockDB, err := sql.Open("pgx", cfg.PostgresDSN)
	if err != nil {
		log.Fatal("open postgres", zap.Error(err))
	}
	defer lockDB.Close()
	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("open postgres pool", zap.Error(err))
	}
	defer pool.Close()

	rdb := r.NewClient(&r.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	defer rdb.Close()

	sched := scheduler.New(queues, broker.New(rdb), storage.New(pool), log)
	sched.Batch = cfg.EtaBatch
	sched.Grace = cfg.ReconcileAfter

	leader := scheduler.NewLeader(scheduler.OpenPGLock(lockDB, schedulerLockID))
	defer leader.Release()

	tick := time.NewTicker(cfg.SchedTick)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("scheduler stopping")
			return
		case <-tick.C:
		}

		ok, err := leader.Acquire(ctx)
		if err != nil {
			log.Warn("leader election", zap.Error(err))
			continue
		}
		if !ok {
			continue
		}
		// per-queue failures are already logged by Tick
		_ = sched.Tick(ctx, time.Now())
	}
}
