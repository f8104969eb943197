package occurrence

import (
	"context"
	"errors"

	"github.com/fastygo/portal-cidadao/domain"
	"github.com/fastygo/portal-cidadao/repository"
)

// viewer composes occurrence views and memoizes reference lookups for the
// lifetime of one request.
type viewer struct {
	store       repository.Store
	categories  map[int64]*domain.Category
	departments map[int64]*domain.Department
	users       map[int64]*domain.User
}

func newViewer(store repository.Store) *viewer {
	return &viewer{
		store:       store,
		categories:  make(map[int64]*domain.Category),
		departments: make(map[int64]*domain.Department),
		users:       make(map[int64]*domain.User),
	}
}

func (v *viewer) view(ctx context.Context, occ *domain.Occurrence) (*domain.OccurrenceView, error) {
	view := &domain.OccurrenceView{Occurrence: occ}

	category, err := v.category(ctx, occ.CategoryID)
	if err != nil {
		return nil, err
	}
	if category != nil {
		view.Category = category
		view.CategoryName = category.Name
	}

	if occ.DepartmentID != nil {
		department, err := v.department(ctx, *occ.DepartmentID)
		if err != nil {
			return nil, err
		}
		if department != nil {
			view.DepartmentName = department.Name
		}
	}

	citizen, err := v.user(ctx, occ.CitizenID)
	if err != nil {
		return nil, err
	}
	if citizen != nil {
		view.Citizen = &domain.UserSummary{ID: citizen.ID, Name: citizen.Name, Email: citizen.Email, Phone: citizen.Phone}
	}

	if occ.AssignedTo != nil {
		assignee, err := v.user(ctx, *occ.AssignedTo)
		if err != nil {
			return nil, err
		}
		if assignee != nil {
			view.AssignedToUser = &domain.UserSummary{ID: assignee.ID, Name: assignee.Name, Email: assignee.Email, Role: assignee.Role}
			view.AssignedToName = assignee.Name
		}
	}

	if view.Photos, err = v.store.Photos().ListByOccurrence(ctx, occ.ID); err != nil {
		return nil, err
	}
	if view.SupportCount, err = v.store.Supports().CountByOccurrence(ctx, occ.ID); err != nil {
		return nil, err
	}
	return view, nil
}

func (v *viewer) category(ctx context.Context, id int64) (*domain.Category, error) {
	if c, ok := v.categories[id]; ok {
		return c, nil
	}
	c, err := v.store.Categories().GetByID(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrCategoryNotFound) {
		return nil, err
	}
	v.categories[id] = c
	return c, nil
}

func (v *viewer) department(ctx context.Context, id int64) (*domain.Department, error) {
	if d, ok := v.departments[id]; ok {
		return d, nil
	}
	d, err := v.store.Departments().GetByID(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrDepartmentNotFound) {
		return nil, err
	}
	v.departments[id] = d
	return d, nil
}

func (v *viewer) user(ctx context.Context, id int64) (*domain.User, error) {
	if u, ok := v.users[id]; ok {
		return u, nil
	}
	u, err := v.store.Users().GetByID(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}
	v.users[id] = u
	return u, nil
}
