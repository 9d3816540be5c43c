package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/metrics"
	"github.com/Skotchmaster/storefront/internal/middleware/ratelimit"
	"github.com/Skotchmaster/storefront/internal/repo"
)

// SessionPruner deletes sessions that can no longer be refreshed.
type SessionPruner struct {
	Repo    *repo.GormRepo
	Metrics *metrics.Metrics
	Now     func() time.Time
}

func (p *SessionPruner) Prune(ctx context.Context) (int64, error) {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	n, err := p.Repo.DeleteStaleSessions(ctx, now())
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	p.Metrics.SessionsPruned(n)
	return n, nil
}

// Start schedules the background jobs. An empty schedule disables session pruning.
func Start(l *slog.Logger, schedule string, pruner *SessionPruner, limiter *ratelimit.Limiter) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.Recover(cronLogger{l})))

	if schedule != "" && pruner != nil {
		if _, err := c.AddFunc(schedule, func() {
			ctx, cancel := context.WithTimeout(logging.IntoContext(context.Background(), l), time.Minute)
			defer cancel()
			n, err := pruner.Prune(ctx)
			if err != nil {
				l.Error("session_prune_failed", "error", err)
				return
			}
			l.Info("sessions_pruned", "deleted", n)
		}); err != nil {
			return nil, fmt.Errorf("session prune schedule %q: %w", schedule, err)
		}
	}

	if limiter != nil {
		if _, err := c.AddFunc("@every 10m", func() {
			if n := limiter.Cleanup(); n > 0 {
				l.Debug("rate_limiter_cleanup", "removed", n)
			}
		}); err != nil {
			return nil, err
		}
	}

	c.Start()
	return c, nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron_"+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("cron_"+msg, append(keysAndValues, "error", err)...)
}
