package occurrence

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/portal-cidadao/domain"
	"github.com/fastygo/portal-cidadao/repository"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
	queueLimit     = 100
)

// ListQuery holds the public list filters.
type ListQuery struct {
	Status     domain.Status
	CategoryID int64
	Priority   domain.Priority
	CitizenID  int64
	Page       int
	PerPage    int
}

// Page is one page of occurrence views.
type Page struct {
	Items   []domain.OccurrenceView `json:"occurrences"`
	Total   int                     `json:"total"`
	Page    int                     `json:"page"`
	PerPage int                     `json:"per_page"`
	Pages   int                     `json:"pages"`
}

// Queries serves the read side: lists, detail and work queues.
type Queries struct {
	store  repository.Store
	logger *zap.Logger
}

// NewQueries builds the read service over an autocommit store.
func NewQueries(store repository.Store, logger *zap.Logger) *Queries {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queries{store: store, logger: logger}
}

// List returns a filtered page of occurrences, newest first.
func (q *Queries) List(ctx context.Context, lq ListQuery) (*Page, error) {
	if lq.Page < 1 {
		lq.Page = 1
	}
	if lq.PerPage < 1 {
		lq.PerPage = defaultPerPage
	}
	if lq.PerPage > maxPerPage {
		lq.PerPage = maxPerPage
	}

	filter := repository.OccurrenceFilter{
		CategoryID: lq.CategoryID,
		Priority:   lq.Priority,
		CitizenID:  lq.CitizenID,
		Sort:       repository.SortNewest,
		Limit:      lq.PerPage,
		Offset:     (lq.Page - 1) * lq.PerPage,
	}
	if lq.Status != "" {
		filter.Statuses = []domain.Status{lq.Status}
	}

	total, err := q.store.Occurrences().Count(ctx, filter)
	if err != nil {
		return nil, err
	}
	items, err := q.store.Occurrences().List(ctx, filter)
	if err != nil {
		return nil, err
	}
	views, err := q.views(ctx, items)
	if err != nil {
		return nil, err
	}

	return &Page{
		Items:   views,
		Total:   total,
		Page:    lq.Page,
		PerPage: lq.PerPage,
		Pages:   (total + lq.PerPage - 1) / lq.PerPage,
	}, nil
}

// Get returns one occurrence with its timeline.
func (q *Queries) Get(ctx context.Context, id int64) (*domain.OccurrenceView, error) {
	occ, err := q.store.Occurrences().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return q.View(ctx, occ, true)
}

// View builds the nested representation of one occurrence.
func (q *Queries) View(ctx context.Context, occ *domain.Occurrence, withTimeline bool) (*domain.OccurrenceView, error) {
	v := newViewer(q.store)
	view, err := v.view(ctx, occ)
	if err != nil {
		return nil, err
	}
	if withTimeline {
		if view.Timeline, err = q.store.Timeline().ListByOccurrence(ctx, occ.ID); err != nil {
			return nil, err
		}
	}
	return view, nil
}

// TriageQueue lists OPEN occurrences without a department, oldest first.
func (q *Queries) TriageQueue(ctx context.Context, actorID int64) ([]domain.OccurrenceView, error) {
	if _, err := q.authorize(ctx, actorID, domain.CapTriage); err != nil {
		return nil, err
	}
	return q.list(ctx, repository.OccurrenceFilter{
		Statuses:          []domain.Status{domain.StatusOpen},
		WithoutDepartment: true,
		Sort:              repository.SortOldest,
		Limit:             queueLimit,
	})
}

// DepartmentOccurrences lists the manager's department, most urgent first.
func (q *Queries) DepartmentOccurrences(ctx context.Context, actorID int64) ([]domain.OccurrenceView, error) {
	actor, err := q.authorize(ctx, actorID, domain.CapValidate)
	if err != nil {
		return nil, err
	}
	if actor.DepartmentID == nil {
		return nil, domain.Forbiddenf("user is not associated with a department")
	}
	return q.list(ctx, repository.OccurrenceFilter{
		DepartmentID: *actor.DepartmentID,
		Sort:         repository.SortPriority,
		Limit:        queueLimit,
	})
}

// MyAssignments lists active work assigned to the actor, or unassigned work
// of the actor's department.
func (q *Queries) MyAssignments(ctx context.Context, actorID int64) ([]domain.OccurrenceView, error) {
	actor, err := q.authorize(ctx, actorID, domain.CapExecute)
	if err != nil {
		return nil, err
	}
	filter := repository.OccurrenceFilter{
		Statuses: []domain.Status{domain.StatusInProgress, domain.StatusResolved},
		Sort:     repository.SortPriority,
		Limit:    queueLimit,
	}
	if actor.DepartmentID != nil {
		filter.AssignedOrDepartment = actor.ID
		filter.DepartmentID = *actor.DepartmentID
	} else {
		filter.AssignedTo = actor.ID
	}
	return q.list(ctx, filter)
}

// PendingValidation lists RESOLVED occurrences of the manager's department.
func (q *Queries) PendingValidation(ctx context.Context, actorID int64) ([]domain.OccurrenceView, error) {
	actor, err := q.authorize(ctx, actorID, domain.CapValidate)
	if err != nil {
		return nil, err
	}
	if actor.DepartmentID == nil {
		return nil, domain.Forbiddenf("user is not associated with a department")
	}
	return q.list(ctx, repository.OccurrenceFilter{
		Statuses:     []domain.Status{domain.StatusResolved},
		DepartmentID: *actor.DepartmentID,
		Sort:         repository.SortCompletedOldest,
		Limit:        queueLimit,
	})
}

// PendingEvaluations lists finished occurrences the citizen has not rated.
func (q *Queries) PendingEvaluations(ctx context.Context, actorID int64) ([]domain.OccurrenceView, error) {
	if _, err := q.authorize(ctx, actorID, domain.CapManage); err != nil {
		return nil, err
	}
	return q.list(ctx, repository.OccurrenceFilter{
		Statuses: []domain.Status{domain.StatusResolved, domain.StatusClosed},
		Unrated:  true,
		Sort:     repository.SortResolvedNewest,
		Limit:    queueLimit,
	})
}

// LowRated lists occurrences rated at or below the review threshold.
func (q *Queries) LowRated(ctx context.Context, actorID int64) ([]domain.OccurrenceView, error) {
	if _, err := q.authorize(ctx, actorID, domain.CapManage); err != nil {
		return nil, err
	}
	return q.list(ctx, repository.OccurrenceFilter{
		MaxRating: domain.LowRatingThreshold,
		Sort:      repository.SortEvaluatedNewest,
		Limit:     queueLimit,
	})
}

// Contested lists occurrences the reporter contested.
func (q *Queries) Contested(ctx context.Context, actorID int64) ([]domain.OccurrenceView, error) {
	if _, err := q.authorize(ctx, actorID, domain.CapManage); err != nil {
		return nil, err
	}
	return q.list(ctx, repository.OccurrenceFilter{
		Contested: true,
		Sort:      repository.SortContestedNewest,
		Limit:     queueLimit,
	})
}

// AssignableUsers lists active staff of a department for the triage dialog.
func (q *Queries) AssignableUsers(ctx context.Context, actorID, departmentID int64) ([]domain.UserSummary, error) {
	if _, err := q.authorize(ctx, actorID, domain.CapTriage); err != nil {
		return nil, err
	}
	if _, err := q.store.Departments().GetByID(ctx, departmentID); err != nil {
		return nil, err
	}
	users, err := q.store.Users().List(ctx, repository.UserFilter{
		Roles:        []domain.Role{domain.RoleServiceProvider, domain.RoleDepartmentManager, domain.RoleAdmin},
		DepartmentID: departmentID,
		ActiveOnly:   true,
		Limit:        maxPerPage,
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, domain.UserSummary{ID: u.ID, Name: u.Name, Role: u.Role})
	}
	return out, nil
}

func (q *Queries) authorize(ctx context.Context, actorID int64, capability domain.Capability) (*domain.User, error) {
	actor, err := loadActor(ctx, q.store, actorID)
	if err != nil {
		return nil, err
	}
	if err := domain.Authorize(actor.Actor(), capability).Err(); err != nil {
		return nil, err
	}
	return actor, nil
}

func (q *Queries) list(ctx context.Context, filter repository.OccurrenceFilter) ([]domain.OccurrenceView, error) {
	items, err := q.store.Occurrences().List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return q.views(ctx, items)
}

func (q *Queries) views(ctx context.Context, items []domain.Occurrence) ([]domain.OccurrenceView, error) {
	v := newViewer(q.store)
	out := make([]domain.OccurrenceView, 0, len(items))
	for i := range items {
		view, err := v.view(ctx, &items[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *view)
	}
	return out, nil
}
