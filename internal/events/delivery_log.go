package events

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/medibook/backend/internal/models"
	"github.com/medibook/backend/internal/repository"
	"github.com/medibook/backend/internal/zlog"
)

const publishTimeout = 3 * time.Second

type publishingDeliveryLog struct {
	repository.DeliveryLog
	publisher Publisher
}

// WithPublishing decorates a delivery log so each recorded attempt is also
// published. Publishing is best effort: its failure never fails Record.
func WithPublishing(log repository.DeliveryLog, publisher Publisher) repository.DeliveryLog {
	if publisher == nil {
		return log
	}
	return &publishingDeliveryLog{DeliveryLog: log, publisher: publisher}
}

func (l *publishingDeliveryLog) Record(ctx context.Context, attempt *models.DeliveryAttempt) error {
	if err := l.DeliveryLog.Record(ctx, attempt); err != nil {
		return err
	}

	key, env := NewDeliveryEnvelope(attempt)
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := l.publisher.Publish(pubCtx, key, env); err != nil {
		zlog.Warn("Failed to publish delivery event",
			zap.String("key", key),
			zap.String("attempt_id", attempt.ID.String()),
			zap.Error(err))
	}
	return nil
}
