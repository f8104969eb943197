// Package occurrence implements the occurrence lifecycle: every state change
// runs in one transaction that locks the occurrence row, checks the caller's
// capabilities, applies the transition table and appends one timeline entry.
package occurrence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/portal-cidadao/domain"
	"github.com/fastygo/portal-cidadao/repository"
	"github.com/fastygo/portal-cidadao/usecase"
)

// Manager applies lifecycle operations.
type Manager struct {
	tx       repository.Transactor
	storage  usecase.PhotoStorage
	notifier usecase.NotificationSink
	observer usecase.TransitionObserver
	logger   *zap.Logger

	now           func() time.Time
	newName       func() string
	maxPhotoBytes int64
}

// Option customizes a Manager.
type Option func(*Manager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithMaxPhotoBytes caps the size of a single uploaded file.
func WithMaxPhotoBytes(n int64) Option {
	return func(m *Manager) { m.maxPhotoBytes = n }
}

// NewManager wires the lifecycle manager. storage, notifier and observer may be nil.
func NewManager(
	tx repository.Transactor,
	storage usecase.PhotoStorage,
	notifier usecase.NotificationSink,
	observer usecase.TransitionObserver,
	logger *zap.Logger,
	opts ...Option,
) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		tx:            tx,
		storage:       storage,
		notifier:      notifier,
		observer:      observer,
		logger:        logger,
		now:           time.Now,
		newName:       uuid.NewString,
		maxPhotoBytes: 16 << 20,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// change is the working state of one transition inside its transaction.
type change struct {
	store repository.Store
	actor *domain.User
	occ   *domain.Occurrence
	prev  domain.Status
	now   time.Time

	// readOnly skips the occurrence row update for events that only add
	// child records.
	readOnly bool
	notes    []domain.Notification
}

func (c *change) notify(n domain.Notification) {
	n.OccurrenceID = c.occ.ID
	c.notes = append(c.notes, n)
}

// step performs the event-specific checks and mutations and returns the
// timeline action and description.
type step func(ctx context.Context, c *change) (action, description string, err error)

func (m *Manager) run(ctx context.Context, event domain.Event, actorID, occurrenceID int64, fn step) (*domain.Occurrence, error) {
	var (
		result *domain.Occurrence
		notes  []domain.Notification
	)
	err := m.tx.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		actor, err := loadActor(ctx, store, actorID)
		if err != nil {
			return err
		}
		occ, err := store.Occurrences().GetForUpdate(ctx, occurrenceID)
		if err != nil {
			return err
		}

		c := &change{store: store, actor: actor, occ: occ, prev: occ.Status, now: m.now()}
		action, description, err := fn(ctx, c)
		if err != nil {
			return err
		}

		if !c.readOnly {
			if err := store.Occurrences().Update(ctx, occ); err != nil {
				return err
			}
		}

		oldStatus, newStatus := statusPair(event, c.prev, occ.Status)
		entry := domain.NewTimelineEntry(occ.ID, actor.ID, action, description, oldStatus, newStatus)
		if err := store.Timeline().Append(ctx, entry); err != nil {
			return err
		}

		result = occ
		notes = c.notes
		return nil
	})
	m.observe(event, err)
	if err != nil {
		return nil, err
	}

	m.dispatch(ctx, notes)
	return result, nil
}

// statusPair returns the status pair recorded on the timeline; events that
// never move the status record none.
func statusPair(event domain.Event, prev, next domain.Status) (domain.Status, domain.Status) {
	if event == domain.EventSetStatus {
		return prev, next
	}
	if t, ok := domain.TransitionFor(event); ok && t.To != "" {
		return prev, next
	}
	return "", ""
}

func loadActor(ctx context.Context, store repository.Store, actorID int64) (*domain.User, error) {
	if actorID == 0 {
		return nil, domain.ErrUnauthorized
	}
	actor, err := store.Users().GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	return actor, nil
}

func (m *Manager) observe(event domain.Event, err error) {
	if m.observer == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
		var dErr *domain.Error
		if errors.As(err, &dErr) {
			outcome = strings.ToLower(string(dErr.Code))
		}
	}
	m.observer.ObserveTransition(event, outcome)
}

// dispatch hands notifications to the sink. Delivery failures never undo a
// committed transition.
func (m *Manager) dispatch(ctx context.Context, notes []domain.Notification) {
	if m.notifier == nil {
		return
	}
	for _, n := range notes {
		if err := m.notifier.Enqueue(ctx, n); err != nil {
			m.logger.Warn("notification enqueue failed",
				zap.Int64("occurrence_id", n.OccurrenceID),
				zap.String("kind", n.Kind),
				zap.Error(err),
			)
		}
	}
}

func toUser(userID int64, kind, message string) domain.Notification {
	id := userID
	return domain.Notification{UserID: &id, Kind: kind, Message: message}
}

func toRole(role domain.Role, departmentID *int64, kind, message string) domain.Notification {
	r := role
	n := domain.Notification{Role: &r, Kind: kind, Message: message}
	if departmentID != nil {
		id := *departmentID
		n.DepartmentID = &id
	}
	return n
}

// canExecute reports whether the actor may work on the occurrence: the
// assignee, or any member of its department while it is unassigned. Admins
// may always execute.
func canExecute(actor *domain.User, occ *domain.Occurrence) bool {
	if actor.Role == domain.RoleAdmin {
		return true
	}
	if occ.IsAssignedTo(actor.ID) {
		return true
	}
	return occ.AssignedTo == nil && actor.InDepartment(occ.DepartmentID)
}
