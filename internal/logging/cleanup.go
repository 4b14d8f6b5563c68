package logging

import (
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/breeza-backend/internal/models"
	"gorm.io/gorm"
)

// StartCleanup purges system_logs older than retention once at startup and
// then daily, until done is closed.
func StartCleanup(db *gorm.DB, retention time.Duration, done <-chan struct{}) {
	purge := func() {
		n, err := PurgeBefore(db, time.Now().Add(-retention))
		switch {
		case err != nil:
			slog.Error("log cleanup failed", "error", err)
		case n > 0:
			slog.Info("log cleanup completed", "deleted", n, "retention", retention.String())
		}
	}

	go func() {
		purge()
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				purge()
			case <-done:
				return
			}
		}
	}()
}

// PurgeBefore deletes system log rows stamped before cutoff.
func PurgeBefore(db *gorm.DB, cutoff time.Time) (int64, error) {
	result := db.Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	return result.RowsAffected, result.Error
}
