package db

import (
	"context"
	"time"

	"github.com/smith3v/vocab-trainer/pkg/logger"
	"gorm.io/gorm"
)

const SessionCleanupInterval = time.Hour

// CleanupExpiredSessions removes persisted training sessions whose expiry is at or
// before now.
func CleanupExpiredSessions(gdb *gorm.DB, now time.Time) (int64, error) {
	if gdb == nil {
		return 0, nil
	}
	res := gdb.Where("expires_at <= ?", now).Delete(&TrainingSession{})
	return res.RowsAffected, res.Error
}

func StartSessionCleanup(ctx context.Context, gdb *gorm.DB, interval time.Duration) {
	if interval <= 0 {
		interval = SessionCleanupInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := CleanupExpiredSessions(gdb, time.Now().UTC())
			if err != nil {
				logger.Error("failed to cleanup expired sessions", "error", err)
				continue
			}
			if deleted > 0 {
				logger.Info("expired training sessions removed", "count", deleted)
			}
		}
	}
}
