package usecase

import (
	"context"

	"github.com/fastygo/portal-cidadao/domain"
)

// NotificationSink accepts notifications produced by committed lifecycle changes.
type NotificationSink interface {
	Enqueue(ctx context.Context, notification domain.Notification) error
}

// TransitionObserver records the outcome of every lifecycle operation.
type TransitionObserver interface {
	ObserveTransition(event domain.Event, outcome string)
}

// PhotoStorage persists uploaded evidence files under a generated name.
type PhotoStorage interface {
	Save(ctx context.Context, filename string, content []byte) error
	Delete(ctx context.Context, filename string) error
}
