package repository

import (
	"context"

	"github.com/fastygo/portal-cidadao/domain"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	ListFor(ctx context.Context, user *domain.User, limit int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, user *domain.User, id int64) error
	MarkAllRead(ctx context.Context, user *domain.User) (int, error)
}
