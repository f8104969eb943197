package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/fastygo/portal-cidadao/domain"
	"github.com/fastygo/portal-cidadao/repository"
)

type timelineRepository struct{ s *session }

func (r *timelineRepository) Append(_ context.Context, entry *domain.TimelineEntry) error {
	st, release := r.s.acquire()
	defer release()
	entry.ID = st.nextID()
	entry.CreatedAt = r.s.db.now()
	st.timeline = append(st.timeline, *entry)
	return nil
}

func (r *timelineRepository) ListByOccurrence(_ context.Context, occurrenceID int64) ([]domain.TimelineEntry, error) {
	st, release := r.s.acquire()
	defer release()
	out := []domain.TimelineEntry{}
	for _, entry := range st.timeline {
		if entry.OccurrenceID != occurrenceID {
			continue
		}
		if entry.UserID != nil {
			if u, ok := st.users[*entry.UserID]; ok {
				entry.User = &domain.UserSummary{ID: u.ID, Name: u.Name, Role: u.Role}
			}
		}
		out = append(out, entry)
	}
	// Newest first, insertion order breaks ties.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

type photoRepository struct{ s *session }

func (r *photoRepository) Create(_ context.Context, photo *domain.Photo) error {
	st, release := r.s.acquire()
	defer release()
	photo.ID = st.nextID()
	photo.UploadedAt = r.s.db.now()
	photo.URL = domain.PhotoURL(photo.Filename)
	st.photos = append(st.photos, *photo)
	return nil
}

func (r *photoRepository) ListByOccurrence(_ context.Context, occurrenceID int64) ([]domain.Photo, error) {
	st, release := r.s.acquire()
	defer release()
	out := []domain.Photo{}
	for _, p := range st.photos {
		if p.OccurrenceID == occurrenceID {
			out = append(out, p)
		}
	}
	return out, nil
}

type supportRepository struct{ s *session }

func (r *supportRepository) Exists(_ context.Context, occurrenceID, citizenID int64) (bool, error) {
	st, release := r.s.acquire()
	defer release()
	return hasSupport(st, occurrenceID, citizenID), nil
}

func (r *supportRepository) Create(_ context.Context, support *domain.Support) error {
	st, release := r.s.acquire()
	defer release()
	if hasSupport(st, support.OccurrenceID, support.CitizenID) {
		return domain.ErrAlreadySupported
	}
	support.ID = st.nextID()
	support.CreatedAt = r.s.db.now()
	st.supports = append(st.supports, *support)
	return nil
}

func (r *supportRepository) CountByOccurrence(_ context.Context, occurrenceID int64) (int, error) {
	st, release := r.s.acquire()
	defer release()
	n := 0
	for _, s := range st.supports {
		if s.OccurrenceID == occurrenceID {
			n++
		}
	}
	return n, nil
}

func hasSupport(st *state, occurrenceID, citizenID int64) bool {
	for _, s := range st.supports {
		if s.OccurrenceID == occurrenceID && s.CitizenID == citizenID {
			return true
		}
	}
	return false
}

type evaluationRepository struct{ s *session }

func (r *evaluationRepository) GetByOccurrence(_ context.Context, occurrenceID int64) (*domain.Evaluation, error) {
	st, release := r.s.acquire()
	defer release()
	e, ok := st.evaluations[occurrenceID]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (r *evaluationRepository) Create(_ context.Context, evaluation *domain.Evaluation) error {
	st, release := r.s.acquire()
	defer release()
	if _, ok := st.evaluations[evaluation.OccurrenceID]; ok {
		return domain.ErrAlreadyEvaluated
	}
	evaluation.ID = st.nextID()
	evaluation.CreatedAt = r.s.db.now()
	st.evaluations[evaluation.OccurrenceID] = *evaluation
	return nil
}

type userRepository struct{ s *session }

func (r *userRepository) GetByID(_ context.Context, id int64) (*domain.User, error) {
	st, release := r.s.acquire()
	defer release()
	u, ok := st.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	st, release := r.s.acquire()
	defer release()
	for _, u := range st.users {
		if strings.EqualFold(u.Email, email) {
			u := u
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *userRepository) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	st, release := r.s.acquire()
	defer release()
	matched := matchUsers(st, filter)
	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []domain.User{}, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (r *userRepository) Count(_ context.Context, filter repository.UserFilter) (int, error) {
	st, release := r.s.acquire()
	defer release()
	return len(matchUsers(st, filter)), nil
}

func (r *userRepository) Create(_ context.Context, user *domain.User) error {
	st, release := r.s.acquire()
	defer release()
	if emailTaken(st, user.Email, 0) {
		return domain.ErrEmailTaken
	}
	user.ID = st.nextID()
	user.CreatedAt = r.s.db.now()
	st.users[user.ID] = *user
	return nil
}

func (r *userRepository) Update(_ context.Context, user *domain.User) error {
	st, release := r.s.acquire()
	defer release()
	if _, ok := st.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	if emailTaken(st, user.Email, user.ID) {
		return domain.ErrEmailTaken
	}
	st.users[user.ID] = *user
	return nil
}

func matchUsers(st *state, f repository.UserFilter) []domain.User {
	out := []domain.User{}
	for _, u := range st.users {
		if len(f.Roles) > 0 && !containsRole(f.Roles, u.Role) {
			continue
		}
		if f.DepartmentID != 0 && (u.DepartmentID == nil || *u.DepartmentID != f.DepartmentID) {
			continue
		}
		if f.ActiveOnly && !u.IsActive {
			continue
		}
		out = append(out, u)
	}
	sortByID(out, func(u domain.User) int64 { return u.ID })
	return out
}

func containsRole(list []domain.Role, role domain.Role) bool {
	for _, candidate := range list {
		if candidate == role {
			return true
		}
	}
	return false
}

func emailTaken(st *state, email string, exceptID int64) bool {
	for _, u := range st.users {
		if u.ID != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

type departmentRepository struct{ s *session }

func (r *departmentRepository) GetByID(_ context.Context, id int64) (*domain.Department, error) {
	st, release := r.s.acquire()
	defer release()
	d, ok := st.departments[id]
	if !ok {
		return nil, domain.ErrDepartmentNotFound
	}
	return &d, nil
}

func (r *departmentRepository) List(_ context.Context, activeOnly bool) ([]domain.Department, error) {
	st, release := r.s.acquire()
	defer release()
	out := []domain.Department{}
	for _, d := range st.departments {
		if activeOnly && !d.IsActive {
			continue
		}
		out = append(out, d)
	}
	sortByID(out, func(d domain.Department) int64 { return d.ID })
	return out, nil
}

func (r *departmentRepository) Create(_ context.Context, department *domain.Department) error {
	st, release := r.s.acquire()
	defer release()
	for _, d := range st.departments {
		if strings.EqualFold(d.Name, department.Name) {
			return domain.Conflictf("department %q already exists", department.Name)
		}
	}
	department.ID = st.nextID()
	department.CreatedAt = r.s.db.now()
	st.departments[department.ID] = *department
	return nil
}

type categoryRepository struct{ s *session }

func (r *categoryRepository) GetByID(_ context.Context, id int64) (*domain.Category, error) {
	st, release := r.s.acquire()
	defer release()
	c, ok := st.categories[id]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	withDepartment(st, &c)
	return &c, nil
}

func (r *categoryRepository) List(_ context.Context, activeOnly bool) ([]domain.Category, error) {
	st, release := r.s.acquire()
	defer release()
	out := []domain.Category{}
	for _, c := range st.categories {
		if activeOnly && !c.IsActive {
			continue
		}
		withDepartment(st, &c)
		out = append(out, c)
	}
	sortByID(out, func(c domain.Category) int64 { return c.ID })
	return out, nil
}

func (r *categoryRepository) Create(_ context.Context, category *domain.Category) error {
	st, release := r.s.acquire()
	defer release()
	for _, c := range st.categories {
		if strings.EqualFold(c.Name, category.Name) {
			return domain.Conflictf("category %q already exists", category.Name)
		}
	}
	category.ID = st.nextID()
	category.CreatedAt = r.s.db.now()
	st.categories[category.ID] = *category
	withDepartment(st, category)
	return nil
}

func withDepartment(st *state, c *domain.Category) {
	if d, ok := st.departments[c.DepartmentID]; ok {
		c.Department = &d
	}
}

type notificationRepository struct{ s *session }

func (r *notificationRepository) Create(_ context.Context, n *domain.Notification) error {
	st, release := r.s.acquire()
	defer release()
	n.ID = st.nextID()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = r.s.db.now()
	}
	st.notifications = append(st.notifications, *n)
	return nil
}

func (r *notificationRepository) ListFor(_ context.Context, user *domain.User, limit int) ([]domain.Notification, error) {
	st, release := r.s.acquire()
	defer release()
	out := []domain.Notification{}
	for i := len(st.notifications) - 1; i >= 0; i-- {
		n := st.notifications[i]
		if !n.AddressedTo(user) {
			continue
		}
		out = append(out, n)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *notificationRepository) MarkRead(_ context.Context, user *domain.User, id int64) error {
	st, release := r.s.acquire()
	defer release()
	for i := range st.notifications {
		n := &st.notifications[i]
		if n.ID != id || !n.AddressedTo(user) {
			continue
		}
		if n.ReadAt == nil {
			now := r.s.db.now()
			n.ReadAt = &now
		}
		return nil
	}
	return domain.ErrNotificationNotFound
}

func (r *notificationRepository) MarkAllRead(_ context.Context, user *domain.User) (int, error) {
	st, release := r.s.acquire()
	defer release()
	now := r.s.db.now()
	marked := 0
	for i := range st.notifications {
		n := &st.notifications[i]
		if n.ReadAt == nil && n.AddressedTo(user) {
			n.ReadAt = &now
			marked++
		}
	}
	return marked, nil
}

func sortByID[T any](list []T, id func(T) int64) {
	sort.Slice(list, func(i, j int) bool { return id(list[i]) < id(list[j]) })
}
