package postgres

import (
	"context"

	"github.com/Masterminds/squirrel"

	"github.com/fastygo/portal-cidadao/domain"
	"github.com/fastygo/portal-cidadao/repository"
)

type notificationRepository struct {
	q Querier
}

// NewNotificationRepository returns a Postgres-backed notification repository.
func NewNotificationRepository(q Querier) repository.NotificationRepository {
	return &notificationRepository{q: q}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	if n == nil {
		return domain.ErrInvalidPayload
	}
	var role interface{}
	if n.Role != nil {
		role = string(*n.Role)
	}
	qb := builder().Insert("notifications").
		Columns("user_id", "department_id", "role", "occurrence_id", "kind", "message").
		Values(n.UserID, n.DepartmentID, role, n.OccurrenceID, n.Kind, n.Message).
		Suffix("RETURNING id, created_at")
	err := queryRow(ctx, r.q, qb).Scan(&n.ID, &n.CreatedAt)
	return wrapErr("notifications: create", err, nil)
}

func (r *notificationRepository) ListFor(ctx context.Context, user *domain.User, limit int) ([]domain.Notification, error) {
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	qb := builder().
		Select("id", "user_id", "department_id", "role", "occurrence_id", "kind", "message", "read_at", "created_at").
		From("notifications").
		Where(addressedTo(user)).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(clampLimit(limit)))

	rows, err := query(ctx, r.q, qb)
	if err != nil {
		return nil, wrapErr("notifications: list", err, nil)
	}
	defer rows.Close()

	notifications := []domain.Notification{}
	for rows.Next() {
		var (
			n    domain.Notification
			role *string
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.DepartmentID, &role, &n.OccurrenceID, &n.Kind, &n.Message, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, wrapErr("notifications: scan", err, nil)
		}
		if role != nil {
			rl := domain.Role(*role)
			n.Role = &rl
		}
		notifications = append(notifications, n)
	}
	return notifications, wrapErr("notifications: rows", rows.Err(), nil)
}

func (r *notificationRepository) MarkRead(ctx context.Context, user *domain.User, id int64) error {
	qb := builder().Update("notifications").
		Set("read_at", squirrel.Expr("COALESCE(read_at, NOW())")).
		Where(squirrel.Eq{"id": id}).
		Where(addressedTo(user))
	tag, err := exec(ctx, r.q, qb)
	if err != nil {
		return wrapErr("notifications: mark read", err, nil)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, user *domain.User) (int, error) {
	qb := builder().Update("notifications").
		Set("read_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"read_at": nil}).
		Where(addressedTo(user))
	tag, err := exec(ctx, r.q, qb)
	if err != nil {
		return 0, wrapErr("notifications: mark all read", err, nil)
	}
	return int(tag.RowsAffected()), nil
}

// addressedTo matches rows sent to the user directly or to the user's role,
// optionally scoped to the user's department.
func addressedTo(user *domain.User) squirrel.Sqlizer {
	broadcast := squirrel.And{
		squirrel.Eq{"user_id": nil},
		squirrel.Eq{"role": string(user.Role)},
	}
	if user.DepartmentID != nil {
		broadcast = append(broadcast, squirrel.Or{
			squirrel.Eq{"department_id": nil},
			squirrel.Eq{"department_id": *user.DepartmentID},
		})
	} else {
		broadcast = append(broadcast, squirrel.Eq{"department_id": nil})
	}
	return squirrel.Or{squirrel.Eq{"user_id": user.ID}, broadcast}
}
