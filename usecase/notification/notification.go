package notification

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/portal-cidadao/domain"
	"github.com/fastygo/portal-cidadao/repository"
)

// DefaultListLimit caps an inbox listing.
const DefaultListLimit = 50

// Inbox is a user's notification listing.
type Inbox struct {
	Items  []domain.Notification `json:"notifications"`
	Unread int                   `json:"unread_count"`
}

type UseCase struct {
	tx     repository.Transactor
	store  repository.Store
	logger *zap.Logger
}

func New(tx repository.Transactor, store repository.Store, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{tx: tx, store: store, logger: logger}
}

func (uc *UseCase) List(ctx context.Context, userID int64, limit int) (*Inbox, error) {
	user, err := uc.user(ctx, uc.store, userID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}
	all, err := uc.store.Notifications().ListFor(ctx, user, 0)
	if err != nil {
		return nil, err
	}
	inbox := &Inbox{Items: all}
	for i := range all {
		if !all[i].IsRead() {
			inbox.Unread++
		}
	}
	if len(inbox.Items) > limit {
		inbox.Items = inbox.Items[:limit]
	}
	return inbox, nil
}

func (uc *UseCase) MarkRead(ctx context.Context, userID, notificationID int64) error {
	user, err := uc.user(ctx, uc.store, userID)
	if err != nil {
		return err
	}
	return uc.store.Notifications().MarkRead(ctx, user, notificationID)
}

func (uc *UseCase) MarkAllRead(ctx context.Context, userID int64) (int, error) {
	user, err := uc.user(ctx, uc.store, userID)
	if err != nil {
		return 0, err
	}
	return uc.store.Notifications().MarkAllRead(ctx, user)
}

// Deliver persists a notification. Role broadcasts are expanded into one row
// per active recipient so read state is tracked per user.
func (uc *UseCase) Deliver(ctx context.Context, n domain.Notification) error {
	return uc.tx.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		if n.UserID != nil {
			if _, err := store.Users().GetByID(ctx, *n.UserID); err != nil {
				if domain.IsDomainError(err, domain.ErrCodeNotFound) {
					uc.logger.Warn("notification recipient missing", zap.Int64("user_id", *n.UserID), zap.String("kind", n.Kind))
					return nil
				}
				return err
			}
			single := n
			return store.Notifications().Create(ctx, &single)
		}
		if n.Role == nil {
			return domain.Invalidf("notification %q has no audience", n.Kind)
		}

		filter := repository.UserFilter{Roles: []domain.Role{*n.Role}, ActiveOnly: true}
		if n.DepartmentID != nil {
			filter.DepartmentID = *n.DepartmentID
		}
		recipients, err := store.Users().List(ctx, filter)
		if err != nil {
			return err
		}
		if len(recipients) == 0 {
			uc.logger.Debug("notification without recipients", zap.String("kind", n.Kind), zap.Int64("occurrence_id", n.OccurrenceID))
			return nil
		}
		for _, recipient := range recipients {
			row := n
			id := recipient.ID
			row.UserID = &id
			if err := store.Notifications().Create(ctx, &row); err != nil {
				return err
			}
		}
		return nil
	})
}

func (uc *UseCase) user(ctx context.Context, store repository.Store, userID int64) (*domain.User, error) {
	user, err := store.Users().GetByID(ctx, userID)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	return user, nil
}
