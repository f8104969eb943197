package services

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/fastygo/portal-cidadao/domain"
	"github.com/fastygo/portal-cidadao/internal/infrastructure/outbox"
	"github.com/fastygo/portal-cidadao/usecase"
)

// NotificationBridge queues lifecycle notifications in the durable outbox.
type NotificationBridge struct {
	store  *outbox.Store
	logger *zap.Logger
}

func NewNotificationBridge(store *outbox.Store, logger *zap.Logger) *NotificationBridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationBridge{store: store, logger: logger}
}

func (b *NotificationBridge) Enqueue(_ context.Context, n domain.Notification) error {
	if b == nil || b.store == nil {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	item := outbox.Item{
		Kind:     outbox.KindNotification,
		Payload:  payload,
		Priority: notificationPriority(n.Kind),
	}
	if err := b.store.Enqueue(item); err != nil {
		return err
	}
	b.logger.Debug("notification queued", zap.String("kind", n.Kind), zap.Int64("occurrence_id", n.OccurrenceID))
	return nil
}

// Escalations to admins go first.
func notificationPriority(kind string) int {
	switch kind {
	case domain.NotifyContested, domain.NotifyLowRating:
		return 1
	case domain.NotifyAssigned, domain.NotifyRejected:
		return 2
	default:
		return 3
	}
}

var _ usecase.NotificationSink = (*NotificationBridge)(nil)
