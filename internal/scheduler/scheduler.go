// Package scheduler triggers recurring sync runs. One deployment holds a
// Redis lock per run so an instance cannot race itself when a run outlasts
// the interval.
package scheduler

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/devrihan/xeno-shopify/internal/logger"
	"github.com/devrihan/xeno-shopify/internal/metrics"
)

// Locker guards a run. TryLock returns false when another run is in flight.
type Locker interface {
	TryLock(ctx context.Context, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context) error
}

const lockKey = "xeno:sync:lock"

// RedisLocker is a SET NX lock with a TTL safety net: a crashed run frees
// itself once the TTL lapses.
type RedisLocker struct {
	rdb   *redis.Client
	token string
}

func NewRedisLocker(rdb *redis.Client, token string) *RedisLocker {
	return &RedisLocker{rdb: rdb, token: token}
}

var _ Locker = (*RedisLocker)(nil)

func (l *RedisLocker) TryLock(ctx context.Context, ttl time.Duration) (bool, error) {
	return l.rdb.SetNX(ctx, lockKey, l.token, ttl).Result()
}

func (l *RedisLocker) Unlock(ctx context.Context) error {
	// release only our own lock
	const script = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`
	return l.rdb.Eval(ctx, script, []string{lockKey}, l.token).Err()
}

// Scheduler fires run on a fixed interval.
type Scheduler struct {
	Interval time.Duration
	Locker   Locker
	Run      func(ctx context.Context) error
}

func New(interval time.Duration, locker Locker, run func(ctx context.Context) error) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{Interval: interval, Locker: locker, Run: run}
}

// Start blocks until ctx is cancelled, running one sync per tick. Ticks that
// find a run already in flight are skipped, not queued.
func (s *Scheduler) Start(ctx context.Context) error {
	tick := time.NewTicker(s.Interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
			s.Tick(ctx)
		}
	}
}

// Tick attempts one locked run.
func (s *Scheduler) Tick(ctx context.Context) {
	ok, err := s.Locker.TryLock(ctx, s.Interval)
	if err != nil {
		logger.Log.Warn("scheduler: lock attempt failed", zap.Error(err))
		return
	}
	if !ok {
		logger.Log.Info("scheduler: previous run still in flight, skipping tick")
		metrics.SyncRunsTotal.WithLabelValues("skipped").Inc()
		return
	}
	defer func() {
		if err := s.Locker.Unlock(ctx); err != nil {
			logger.Log.Warn("scheduler: unlock failed", zap.Error(err))
		}
	}()

	if err := s.Run(ctx); err != nil {
		logger.Log.Error("scheduler: sync run failed", zap.Error(err))
	}
}
