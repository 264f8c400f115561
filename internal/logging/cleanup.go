package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/reliability-backend/internal/models"
	"gorm.io/gorm"
)

// StartCleanup runs a daily goroutine that deletes system_logs and
// webhook_logs older than retention.
func StartCleanup(db *gorm.DB, retention time.Duration, done chan struct{}) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				Prune(context.Background(), db, time.Now().Add(-retention))
			case <-done:
				return
			}
		}
	}()
}

// Prune deletes log rows created before cutoff and returns how many went.
func Prune(ctx context.Context, db *gorm.DB, cutoff time.Time) int64 {
	var total int64

	result := db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	if result.Error != nil {
		slog.Error("system log cleanup failed", "error", result.Error)
	} else {
		total += result.RowsAffected
	}

	result = db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.WebhookLogEntry{})
	if result.Error != nil {
		slog.Error("webhook log cleanup failed", "error", result.Error)
	} else {
		total += result.RowsAffected
	}

	if total > 0 {
		slog.Info("log cleanup completed", "deleted", total)
	}
	return total
}
