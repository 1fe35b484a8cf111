package app

import (
	"context"
	"time"

	"github.com/campaign-hub/core/internal/modules/notification"
	pkgcron "github.com/campaign-hub/core/internal/pkg/cron"
	"go.uber.org/zap"
)

// registerCronJobs registers all scheduled background jobs.
func registerCronJobs(sched *pkgcron.Scheduler, notificationSvc *notification.Service, logger *zap.Logger) {
	cronLogger := logger.Named("CronService")

	sched.Register(pkgcron.Job{
		Name:        "token_sweep",
		Description: "dry-run validate device tokens and prune dead ones",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			report, err := notificationSvc.Sweep(ctx)
			if err != nil {
				cronLogger.Warn("token sweep failed", zap.Error(err))
				return err
			}
			cronLogger.Info("token sweep finished",
				zap.Int("checked", report.Total),
				zap.Int("invalid", report.Failed),
				zap.Int("cleanedUp", report.CleanedUp))
			return nil
		},
	})
}
