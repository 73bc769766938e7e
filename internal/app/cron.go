package app

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/littlenest/core/internal/models"
	pkgcron "github.com/littlenest/core/internal/pkg/cron"
	"github.com/littlenest/core/internal/pkg/outbox"
)

func registerCronJobs(sched *pkgcron.Scheduler, db *gorm.DB, mails *outbox.Outbox, logger *zap.Logger) {
	sched.Register(pkgcron.Job{
		Name:        "mail_outbox_purge",
		Description: "Remove delivered mail entries older than two days",
		Interval:    12 * time.Hour,
		Fn: func(ctx context.Context) error {
			n, err := mails.PurgeDelivered(ctx, time.Now().Add(-48*time.Hour))
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("mail outbox purged", zap.Int("removed", n))
			}
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:        "schedule_deactivate",
		Description: "Deactivate room schedules for past dates",
		Interval:    time.Hour,
		Fn: func(ctx context.Context) error {
			today := time.Now().Format("2006-01-02")
			res := db.WithContext(ctx).Model(&models.ScheduleModel{}).
				Where("date < ? AND is_active = ?", today, true).
				Update("is_active", false)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				logger.Info("past schedules deactivated", zap.Int64("count", res.RowsAffected))
			}
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:        "dailyreport_autosubmit",
		Description: "Submit daily reports left open after their day ended",
		Interval:    time.Hour,
		Fn: func(ctx context.Context) error {
			today := time.Now().Format("2006-01-02")
			res := db.WithContext(ctx).Model(&models.DailyReportModel{}).
				Where("date < ? AND is_submitted = ?", today, false).
				Update("is_submitted", true)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				logger.Info("stale daily reports submitted", zap.Int64("count", res.RowsAffected))
			}
			return nil
		},
	})
}
