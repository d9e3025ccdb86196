package worker

import (
	"context"
	"time"

	"github.com/wardline/ward-api/internal/repository"
	"github.com/wardline/ward-api/pkg/logger"
)

// OutboxCleanupWorker purges processed outbox rows past the retention
// window so the shared table stays small.
type OutboxCleanupWorker struct {
	repo          repository.OutboxRepository
	retentionDays int
	interval      time.Duration
	logger        *logger.Logger
}

func NewOutboxCleanupWorker(repo repository.OutboxRepository, retentionDays int, interval time.Duration, log *logger.Logger) *OutboxCleanupWorker {
	if retentionDays <= 0 {
		retentionDays = 7
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &OutboxCleanupWorker{
		repo:          repo,
		retentionDays: retentionDays,
		interval:      interval,
		logger:        log,
	}
}

func (w *OutboxCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().AddDate(0, 0, -w.retentionDays)
			deleted, err := w.repo.DeleteProcessedBefore(ctx, cutoff)
			if err != nil {
				w.logger.Error(err, "outbox cleanup failed")
				continue
			}
			if deleted > 0 {
				w.logger.Info("purged processed outbox events", "deleted", deleted)
			}
		}
	}
}
