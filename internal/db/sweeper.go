package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// StartSessionSweeper clears expired session tokens with interval
func StartSessionSweeper(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				res, err := db.ExecContext(ctx, `
                    UPDATE users
                       SET session_hash = NULL,
                           max_session_time = NULL
                     WHERE max_session_time < $1
                `, time.Now())
				if err != nil {
					log.Error("failed to sweep expired sessions", zap.Error(err))
					continue
				}
				if rows, _ := res.RowsAffected(); rows > 0 {
					log.Info("swept expired sessions", zap.Int64("cleared", rows))
				}
			}
		}
	}()
}
