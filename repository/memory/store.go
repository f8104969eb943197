// Package memory is an in-process implementation of the repository ports.
// Transactions work on a copy of the data set that replaces the original on
// commit, so a failed transaction leaves no trace.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fastygo/portal-cidadao/domain"
	"github.com/fastygo/portal-cidadao/repository"
)

type state struct {
	occurrences   map[int64]*domain.Occurrence
	timeline      []domain.TimelineEntry
	photos        []domain.Photo
	supports      []domain.Support
	evaluations   map[int64]domain.Evaluation
	users         map[int64]domain.User
	departments   map[int64]domain.Department
	categories    map[int64]domain.Category
	notifications []domain.Notification
	seq           int64
}

func newState() *state {
	return &state{
		occurrences: make(map[int64]*domain.Occurrence),
		evaluations: make(map[int64]domain.Evaluation),
		users:       make(map[int64]domain.User),
		departments: make(map[int64]domain.Department),
		categories:  make(map[int64]domain.Category),
	}
}

func (s *state) clone() *state {
	c := &state{
		occurrences:   make(map[int64]*domain.Occurrence, len(s.occurrences)),
		timeline:      append([]domain.TimelineEntry(nil), s.timeline...),
		photos:        append([]domain.Photo(nil), s.photos...),
		supports:      append([]domain.Support(nil), s.supports...),
		evaluations:   make(map[int64]domain.Evaluation, len(s.evaluations)),
		users:         make(map[int64]domain.User, len(s.users)),
		departments:   make(map[int64]domain.Department, len(s.departments)),
		categories:    make(map[int64]domain.Category, len(s.categories)),
		notifications: append([]domain.Notification(nil), s.notifications...),
		seq:           s.seq,
	}
	for id, o := range s.occurrences {
		c.occurrences[id] = o.Clone()
	}
	for id, e := range s.evaluations {
		c.evaluations[id] = e
	}
	for id, u := range s.users {
		c.users[id] = u
	}
	for id, d := range s.departments {
		c.departments[id] = d
	}
	for id, cat := range s.categories {
		c.categories[id] = cat
	}
	return c
}

func (s *state) nextID() int64 {
	s.seq++
	return s.seq
}

// DB holds the data set and hands out sessions.
type DB struct {
	mu  sync.Mutex
	st  *state
	Now func() time.Time
}

// New returns an empty database.
func New() *DB {
	return &DB{st: newState(), Now: time.Now}
}

// WithinTx runs fn on a private copy and publishes it when fn succeeds.
// Transactions are serialized.
func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context, store repository.Store) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	work := db.st.clone()
	if err := fn(ctx, &session{db: db, st: work}); err != nil {
		return err
	}
	db.st = work
	return nil
}

// Store returns an autocommit session.
func (db *DB) Store() repository.Store {
	return &session{db: db, auto: true}
}

// Analytics returns the aggregate reader over the current data set.
func (db *DB) Analytics() repository.AnalyticsRepository {
	return &analyticsRepository{session{db: db, auto: true}}
}

func (db *DB) now() time.Time {
	if db.Now == nil {
		return time.Now()
	}
	return db.Now()
}

type session struct {
	db   *DB
	st   *state
	auto bool
}

// acquire returns the state to operate on and the matching release func.
func (s *session) acquire() (*state, func()) {
	if s.auto {
		s.db.mu.Lock()
		return s.db.st, s.db.mu.Unlock
	}
	return s.st, func() {}
}

func (s *session) Occurrences() repository.OccurrenceRepository { return &occurrenceRepository{s} }
func (s *session) Timeline() repository.TimelineRepository      { return &timelineRepository{s} }
func (s *session) Photos() repository.PhotoRepository           { return &photoRepository{s} }
func (s *session) Supports() repository.SupportRepository       { return &supportRepository{s} }
func (s *session) Evaluations() repository.EvaluationRepository { return &evaluationRepository{s} }
func (s *session) Users() repository.UserRepository             { return &userRepository{s} }
func (s *session) Departments() repository.DepartmentRepository { return &departmentRepository{s} }
func (s *session) Categories() repository.CategoryRepository    { return &categoryRepository{s} }
func (s *session) Notifications() repository.NotificationRepository {
	return &notificationRepository{s}
}

var (
	_ repository.Transactor = (*DB)(nil)
	_ repository.Store      = (*session)(nil)
)

// Seed helpers used by tests and local tooling. They bypass validation.

// AddUser stores a user, assigning an id when missing.
func (db *DB) AddUser(u domain.User) domain.User {
	db.mu.Lock()
	defer db.mu.Unlock()
	if u.ID == 0 {
		u.ID = db.st.nextID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = db.now()
	}
	db.st.users[u.ID] = u
	return u
}

// AddDepartment stores a department, assigning an id when missing.
func (db *DB) AddDepartment(d domain.Department) domain.Department {
	db.mu.Lock()
	defer db.mu.Unlock()
	if d.ID == 0 {
		d.ID = db.st.nextID()
	}
	db.st.departments[d.ID] = d
	return d
}

// AddCategory stores a category, assigning an id when missing.
func (db *DB) AddCategory(c domain.Category) domain.Category {
	db.mu.Lock()
	defer db.mu.Unlock()
	if c.ID == 0 {
		c.ID = db.st.nextID()
	}
	db.st.categories[c.ID] = c
	return c
}

// AddOccurrence stores an occurrence as-is, assigning an id when missing.
func (db *DB) AddOccurrence(o domain.Occurrence) *domain.Occurrence {
	db.mu.Lock()
	defer db.mu.Unlock()
	if o.ID == 0 {
		o.ID = db.st.nextID()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = db.now()
	}
	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = o.CreatedAt
	}
	db.st.occurrences[o.ID] = o.Clone()
	return o.Clone()
}

// Occurrence returns a copy of the stored occurrence, or nil.
func (db *DB) Occurrence(id int64) *domain.Occurrence {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.st.occurrences[id].Clone()
}

// AddTimelineEntry stores an entry as given, stamping it only when CreatedAt is zero.
func (db *DB) AddTimelineEntry(e domain.TimelineEntry) domain.TimelineEntry {
	db.mu.Lock()
	defer db.mu.Unlock()
	e.ID = db.st.nextID()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = db.now()
	}
	db.st.timeline = append(db.st.timeline, e)
	return e
}

// TimelineOf returns the stored timeline of an occurrence in insertion order.
func (db *DB) TimelineOf(occurrenceID int64) []domain.TimelineEntry {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []domain.TimelineEntry
	for _, e := range db.st.timeline {
		if e.OccurrenceID == occurrenceID {
			out = append(out, e)
		}
	}
	return out
}

// Notifications returns every stored notification.
func (db *DB) Notifications() []domain.Notification {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]domain.Notification(nil), db.st.notifications...)
}

func sortedOccurrences(st *state) []*domain.Occurrence {
	out := make([]*domain.Occurrence, 0, len(st.occurrences))
	for _, o := range st.occurrences {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
