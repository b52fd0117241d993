// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	notificationstore "github.com/dalemusser/studyhub/internal/app/store/notifications"
	"github.com/dalemusser/studyhub/internal/app/system/dashstate"
	"github.com/dalemusser/studyhub/internal/app/system/ratelimit"
	"go.uber.org/zap"
)

// DashboardEvictionJob closes per-user dashboard aggregators that have been
// idle for ttl and have no open streams.
func DashboardEvictionJob(reg *dashstate.Registry, logger *zap.Logger, interval, ttl time.Duration) Job {
	return Job{
		Name:     "dashboard-eviction",
		Interval: interval,
		Run: func(ctx context.Context) error {
			if n := reg.Evict(ttl); n > 0 {
				logger.Info("evicted idle dashboards",
					zap.Int("count", n),
					zap.Int("remaining", reg.Len()))
			}
			return nil
		},
	}
}

// LoginLimiterSweepJob drops rate-limit buckets nobody has touched for idle.
func LoginLimiterSweepJob(ll *ratelimit.LoginLimiter, logger *zap.Logger, idle time.Duration) Job {
	return Job{
		Name:     "login-limiter-sweep",
		Interval: idle,
		Run: func(ctx context.Context) error {
			if n := ll.Sweep(idle); n > 0 {
				logger.Debug("swept login limiter buckets", zap.Int("count", n))
			}
			return nil
		},
	}
}

// NotificationPurgeJob deletes read notifications older than retention.
func NotificationPurgeJob(store *notificationstore.Store, logger *zap.Logger, retention time.Duration) Job {
	return Job{
		Name:     "notification-purge",
		Interval: 1 * time.Hour,
		Run: func(ctx context.Context) error {
			count, err := store.DeleteReadBefore(ctx, time.Now().UTC().Add(-retention))
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Info("purged read notifications", zap.Int64("count", count))
			}
			return nil
		},
	}
}
