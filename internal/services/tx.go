package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	dbpkg "github.com/yungbote/aletheia-backend/internal/data/db"
	"github.com/yungbote/aletheia-backend/internal/observability"
	"github.com/yungbote/aletheia-backend/internal/platform/errs"
	"github.com/yungbote/aletheia-backend/internal/platform/httpx"
	"github.com/yungbote/aletheia-backend/internal/platform/logger"
)

const (
	maxTxAttempts = 3
	txRetryBase   = 15 * time.Millisecond
	txRetryMax    = 200 * time.Millisecond
)

// WithRetry runs fn in a transaction and reruns it on a lost version
// compare-and-swap or a retryable driver error, up to three attempts.
// fn must be safe to rerun from scratch.
func WithRetry(ctx context.Context, db *gorm.DB, log *logger.Logger, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err = db.WithContext(ctx).Transaction(fn)
		if err == nil {
			return nil
		}
		if !errors.Is(err, errs.ErrConflict) && !dbpkg.IsRetryable(err) {
			return err
		}
		if log != nil {
			log.Debug("transaction retrying", "attempt", attempt+1, "error", err)
		}
		observability.Current().IncTxRetry(retryCause(err))
		if attempt < maxTxAttempts-1 {
			if serr := httpx.Sleep(ctx, httpx.JitterSleep(httpx.Backoff(attempt, txRetryBase, txRetryMax))); serr != nil {
				return serr
			}
		}
	}
	return err
}

func retryCause(err error) string {
	if errors.Is(err, errs.ErrConflict) {
		return "version_conflict"
	}
	return "driver"
}
