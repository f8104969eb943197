package occurrence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/portal-cidadao/domain"
	"github.com/fastygo/portal-cidadao/repository"
	"github.com/fastygo/portal-cidadao/repository/memory"
)

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

type recordingSink struct {
	mu    sync.Mutex
	notes []domain.Notification
}

func (s *recordingSink) Enqueue(_ context.Context, n domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = append(s.notes, n)
	return nil
}

type recordingObserver struct {
	outcomes map[domain.Event][]string
}

func (o *recordingObserver) ObserveTransition(event domain.Event, outcome string) {
	if o.outcomes == nil {
		o.outcomes = make(map[domain.Event][]string)
	}
	o.outcomes[event] = append(o.outcomes[event], outcome)
}

type memoryPhotos struct {
	files  map[string][]byte
	failOn int
	calls  int
}

func (p *memoryPhotos) Save(_ context.Context, name string, content []byte) error {
	p.calls++
	if p.failOn != 0 && p.calls == p.failOn {
		return errors.New("disk full")
	}
	p.files[name] = content
	return nil
}

func (p *memoryPhotos) Delete(_ context.Context, name string) error {
	delete(p.files, name)
	return nil
}

type fixture struct {
	db       *memory.DB
	manager  *Manager
	sink     *recordingSink
	observer *recordingObserver
	photos   *memoryPhotos

	obras, limpeza                                  domain.Department
	category                                        domain.Category
	admin, citizen, neighbor, provider, mgr, outMgr domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := memory.New()
	db.Now = func() time.Time { return fixedNow }

	f := &fixture{
		db:       db,
		sink:     &recordingSink{},
		observer: &recordingObserver{},
		photos:   &memoryPhotos{files: make(map[string][]byte)},
	}
	f.obras = db.AddDepartment(domain.Department{Name: "Obras Públicas", IsActive: true})
	f.limpeza = db.AddDepartment(domain.Department{Name: "Limpeza Urbana", IsActive: true})
	f.category = db.AddCategory(domain.Category{Name: "Buraco na via", DepartmentID: f.obras.ID, IsActive: true})

	f.admin = db.AddUser(domain.User{Name: "Ana Admin", Email: "admin@example.com", Role: domain.RoleAdmin, IsActive: true})
	f.citizen = db.AddUser(domain.User{Name: "Carlos", Email: "carlos@example.com", Role: domain.RoleCitizen, IsActive: true})
	f.neighbor = db.AddUser(domain.User{Name: "Nina", Email: "nina@example.com", Role: domain.RoleCitizen, IsActive: true})
	f.provider = db.AddUser(domain.User{Name: "Paulo", Email: "paulo@example.com", Role: domain.RoleServiceProvider, DepartmentID: &f.obras.ID, IsActive: true})
	f.mgr = db.AddUser(domain.User{Name: "Marta", Email: "marta@example.com", Role: domain.RoleDepartmentManager, DepartmentID: &f.obras.ID, IsActive: true})
	f.outMgr = db.AddUser(domain.User{Name: "Otto", Email: "otto@example.com", Role: domain.RoleDepartmentManager, DepartmentID: &f.limpeza.ID, IsActive: true})

	f.manager = NewManager(db, f.photos, f.sink, f.observer, nil,
		WithClock(func() time.Time { return fixedNow }),
		WithMaxPhotoBytes(1024),
	)
	return f
}

// seed stores an occurrence of the reporting citizen in the given status,
// already triaged to Obras Públicas when past OPEN.
func (f *fixture) seed(status domain.Status, mutate ...func(*domain.Occurrence)) *domain.Occurrence {
	occ := domain.Occurrence{
		Title:       "Buraco na Rua A",
		Description: "Buraco grande",
		CategoryID:  f.category.ID,
		CitizenID:   f.citizen.ID,
		Address:     "Rua A, 100, Centro, Cidade-UF",
		Status:      status,
		Priority:    domain.PriorityMedium,
		CreatedAt:   fixedNow.Add(-48 * time.Hour),
	}
	if status != domain.StatusOpen {
		dept := f.obras.ID
		assignee := f.provider.ID
		occ.DepartmentID = &dept
		occ.AssignedTo = &assignee
	}
	if status == domain.StatusResolved || status == domain.StatusClosed {
		resolved := fixedNow.Add(-time.Hour)
		occ.ResolvedAt = &resolved
		occ.CompletedAt = &resolved
	}
	for _, fn := range mutate {
		fn(&occ)
	}
	return f.db.AddOccurrence(occ)
}

func assertUnchanged(t *testing.T, f *fixture, before *domain.Occurrence) {
	t.Helper()
	after := f.db.Occurrence(before.ID)
	assert.Equal(t, before, after)
	assert.Empty(t, f.db.TimelineOf(before.ID))
}

func TestScenarioCreateAndTriage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	occ, err := f.manager.Create(ctx, f.citizen.ID, CreateInput{
		Title:       "Buraco na Rua B",
		Description: "Cratera no asfalto",
		CategoryID:  f.category.ID,
		Latitude:    -23.5,
		Longitude:   -46.6,
		Address:     "Rua B, 20, Vila Nova, Cidade-UF",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOpen, occ.Status)
	assert.Equal(t, domain.PriorityMedium, occ.Priority)

	triaged, err := f.manager.Triage(ctx, f.admin.ID, occ.ID, TriageInput{DepartmentID: f.obras.ID, Priority: domain.PriorityHigh})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, triaged.Status)
	assert.Equal(t, domain.PriorityHigh, triaged.Priority)
	require.NotNil(t, triaged.DepartmentID)
	assert.Equal(t, f.obras.ID, *triaged.DepartmentID)
	assert.Nil(t, triaged.AssignedTo)
	require.NotNil(t, triaged.ApprovedByID)
	assert.Equal(t, f.admin.ID, *triaged.ApprovedByID)

	timeline := f.db.TimelineOf(occ.ID)
	require.Len(t, timeline, 2)
	assert.Equal(t, domain.ActionCreated, timeline[0].Action)
	assert.Nil(t, timeline[0].OldStatus)
	assert.Equal(t, domain.StatusOpen, *timeline[0].NewStatus)
	assert.Equal(t, domain.ActionTriaged, timeline[1].Action)
	assert.Equal(t, domain.StatusOpen, *timeline[1].OldStatus)
	assert.Equal(t, domain.StatusInProgress, *timeline[1].NewStatus)
	assert.Contains(t, timeline[1].Description, "Obras Públicas")
	assert.Contains(t, timeline[1].Description, "HIGH")

	require.Len(t, f.sink.notes, 2)
	assert.Equal(t, domain.NotifyOccurrenceCreated, f.sink.notes[0].Kind)
	assert.Equal(t, domain.NotifyAssigned, f.sink.notes[1].Kind)
	assert.Equal(t, domain.RoleServiceProvider, *f.sink.notes[1].Role)
	assert.Equal(t, f.obras.ID, *f.sink.notes[1].DepartmentID)
}

func TestScenarioCompleteExecution(t *testing.T) {
	f := newFixture(t)
	occ := f.seed(domain.StatusInProgress)

	got, err := f.manager.CompleteExecution(context.Background(), f.provider.ID, occ.ID, CompleteInput{ExecutionNotes: "fixed pothole"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusResolved, got.Status)
	require.NotNil(t, got.CompletedAt)
	require.NotNil(t, got.ResolvedAt)
	assert.Equal(t, "fixed pothole", got.ExecutionNotes)

	timeline := f.db.TimelineOf(occ.ID)
	require.Len(t, timeline, 1)
	assert.Equal(t, domain.ActionExecutionCompleted, timeline[0].Action)
	assert.Equal(t, domain.StatusInProgress, *timeline[0].OldStatus)
	assert.Equal(t, domain.StatusResolved, *timeline[0].NewStatus)
}

func TestScenarioApproveFromOtherDepartment(t *testing.T) {
	f := newFixture(t)
	occ := f.seed(domain.StatusResolved)

	_, err := f.manager.Approve(context.Background(), f.outMgr.ID, occ.ID)
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))
	assertUnchanged(t, f, occ)
	assert.Equal(t, []string{"forbidden"}, f.observer.outcomes[domain.EventApprove])
}

func TestScenarioContestClosed(t *testing.T) {
	f := newFixture(t)
	occ := f.seed(domain.StatusClosed)

	got, err := f.manager.Contest(context.Background(), f.citizen.ID, occ.ID, "not fixed")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOpen, got.Status)
	assert.True(t, got.NeedsReview)
	assert.Equal(t, "not fixed", got.ContestReason)
	require.NotNil(t, got.ContestedAt)

	timeline := f.db.TimelineOf(occ.ID)
	require.Len(t, timeline, 1)
	assert.Equal(t, domain.ActionContested, timeline[0].Action)
	assert.Equal(t, domain.StatusClosed, *timeline[0].OldStatus)
	assert.Equal(t, domain.StatusOpen, *timeline[0].NewStatus)
}

func TestScenarioLowRating(t *testing.T) {
	f := newFixture(t)
	occ := f.seed(domain.StatusResolved)

	got, err := f.manager.Rate(context.Background(), f.citizen.ID, occ.ID, 2, "ainda com problema")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, got.Status)
	require.NotNil(t, got.Rating)
	assert.Equal(t, 2, *got.Rating)
	assert.True(t, got.NeedsReview)

	require.Len(t, f.sink.notes, 1)
	assert.Equal(t, domain.NotifyLowRating, f.sink.notes[0].Kind)
}

func TestStartExecutionTwice(t *testing.T) {
	f := newFixture(t)
	occ := f.seed(domain.StatusInProgress)
	ctx := context.Background()

	first, err := f.manager.StartExecution(ctx, f.provider.ID, occ.ID)
	require.NoError(t, err)
	require.NotNil(t, first.StartedAt)

	_, err = f.manager.StartExecution(ctx, f.provider.ID, occ.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyStarted)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeConflict))
	assert.Len(t, f.db.TimelineOf(occ.ID), 1)
}

func TestProviderCannotApprove(t *testing.T) {
	f := newFixture(t)
	occ := f.seed(domain.StatusResolved)

	_, err := f.manager.Approve(context.Background(), f.provider.ID, occ.ID)
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))
	assertUnchanged(t, f, occ)
}

func TestRatingOutOfRange(t *testing.T) {
	f := newFixture(t)
	occ := f.seed(domain.StatusResolved)
	ctx := context.Background()

	for _, rating := range []int{0, 6, -1} {
		_, err := f.manager.Rate(ctx, f.citizen.ID, occ.ID, rating, "")
		assert.ErrorIs(t, err, domain.ErrInvalidRating)

		_, _, err = f.manager.Evaluate(ctx, f.citizen.ID, occ.ID, EvaluationInput{Rating: rating})
		assert.ErrorIs(t, err, domain.ErrInvalidRating)
	}
	_, _, err := f.manager.Evaluate(ctx, f.citizen.ID, occ.ID, EvaluationInput{Rating: 4, SpeedRating: 9})
	assert.ErrorIs(t, err, domain.ErrInvalidRating)

	assertUnchanged(t, f, occ)
	assert.Empty(t, f.observer.outcomes)
}

func TestTransitionsFromWrongStatus(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name   string
		status domain.Status
		call   func(f *fixture, id int64) error
	}{
		{"triage resolved", domain.StatusResolved, func(f *fixture, id int64) error {
			_, err := f.manager.Triage(ctx, f.admin.ID, id, TriageInput{DepartmentID: f.obras.ID, Priority: domain.PriorityLow})
			return err
		}},
		{"start closed", domain.StatusClosed, func(f *fixture, id int64) error {
			_, err := f.manager.StartExecution(ctx, f.provider.ID, id)
			return err
		}},
		{"complete resolved", domain.StatusResolved, func(f *fixture, id int64) error {
			_, err := f.manager.CompleteExecution(ctx, f.provider.ID, id, CompleteInput{})
			return err
		}},
		{"approve in progress", domain.StatusInProgress, func(f *fixture, id int64) error {
			_, err := f.manager.Approve(ctx, f.mgr.ID, id)
			return err
		}},
		{"reject closed", domain.StatusClosed, func(f *fixture, id int64) error {
			_, err := f.manager.Reject(ctx, f.mgr.ID, id, "incompleto")
			return err
		}},
		{"rate closed", domain.StatusClosed, func(f *fixture, id int64) error {
			_, err := f.manager.Rate(ctx, f.citizen.ID, id, 5, "")
			return err
		}},
		{"evaluate in progress", domain.StatusInProgress, func(f *fixture, id int64) error {
			_, _, err := f.manager.Evaluate(ctx, f.citizen.ID, id, EvaluationInput{Rating: 5})
			return err
		}},
		{"contest open", domain.StatusOpen, func(f *fixture, id int64) error {
			_, err := f.manager.Contest(ctx, f.citizen.ID, id, "x")
			return err
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			occ := f.seed(tc.status)

			err := tc.call(f, occ.ID)
			require.Error(t, err)
			assert.True(t, domain.IsDomainError(err, domain.ErrCodeConflict), "got %v", err)
			assertUnchanged(t, f, occ)
		})
	}
}

func TestDocumentedTransitions(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name   string
		from   domain.Status
		to     domain.Status
		action string
		call   func(f *fixture, id int64) error
	}{
		{"approve", domain.StatusResolved, domain.StatusClosed, domain.ActionValidationApproved, func(f *fixture, id int64) error {
			_, err := f.manager.Approve(ctx, f.mgr.ID, id)
			return err
		}},
		{"reject", domain.StatusResolved, domain.StatusInProgress, domain.ActionValidationRejected, func(f *fixture, id int64) error {
			_, err := f.manager.Reject(ctx, f.mgr.ID, id, "calçada não recomposta")
			return err
		}},
		{"rate", domain.StatusResolved, domain.StatusClosed, domain.ActionRated, func(f *fixture, id int64) error {
			_, err := f.manager.Rate(ctx, f.citizen.ID, id, 5, "ótimo")
			return err
		}},
		{"evaluate closed", domain.StatusClosed, domain.StatusClosed, domain.ActionEvaluated, func(f *fixture, id int64) error {
			_, _, err := f.manager.Evaluate(ctx, f.citizen.ID, id, EvaluationInput{Rating: 4})
			return err
		}},
		{"contest resolved", domain.StatusResolved, domain.StatusOpen, domain.ActionContested, func(f *fixture, id int64) error {
			_, err := f.manager.Contest(ctx, f.citizen.ID, id, "")
			return err
		}},
		{"admin set status", domain.StatusOpen, domain.StatusResolved, domain.ActionStatusChanged, func(f *fixture, id int64) error {
			_, err := f.manager.SetStatus(ctx, f.admin.ID, id, domain.StatusResolved, "")
			return err
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			occ := f.seed(tc.from)

			require.NoError(t, tc.call(f, occ.ID))

			stored := f.db.Occurrence(occ.ID)
			assert.Equal(t, tc.to, stored.Status)
			timeline := f.db.TimelineOf(occ.ID)
			require.Len(t, timeline, 1)
			assert.Equal(t, tc.action, timeline[0].Action)
			assert.Equal(t, tc.from, *timeline[0].OldStatus)
			assert.Equal(t, tc.to, *timeline[0].NewStatus)
		})
	}
}

func TestRejectClearsResolution(t *testing.T) {
	f := newFixture(t)
	occ := f.seed(domain.StatusResolved)

	got, err := f.manager.Reject(context.Background(), f.mgr.ID, occ.ID, "faltou sinalização")
	require.NoError(t, err)
	assert.Nil(t, got.ResolvedAt)
	assert.Nil(t, got.CompletedAt)
	assert.Equal(t, "faltou sinalização", got.RejectionReason)

	_, err = f.manager.Reject(context.Background(), f.mgr.ID, occ.ID, "  ")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func TestEvaluate(t *testing.T) {
	ctx := context.Background()

	t.Run("low rating flags review", func(t *testing.T) {
		f := newFixture(t)
		occ := f.seed(domain.StatusResolved)

		got, evaluation, err := f.manager.Evaluate(ctx, f.citizen.ID, occ.ID, EvaluationInput{Rating: 1, Feedback: "nada mudou"})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusClosed, got.Status)
		assert.True(t, got.NeedsReview)
		assert.False(t, evaluation.IsSatisfied)
		assert.Equal(t, 1, evaluation.QualityRating)
	})

	t.Run("needs rework flags review", func(t *testing.T) {
		f := newFixture(t)
		occ := f.seed(domain.StatusResolved)

		got, _, err := f.manager.Evaluate(ctx, f.citizen.ID, occ.ID, EvaluationInput{Rating: 4, NeedsRework: true})
		require.NoError(t, err)
		assert.True(t, got.NeedsReview)
	})

	t.Run("duplicate evaluation", func(t *testing.T) {
		f := newFixture(t)
		occ := f.seed(domain.StatusResolved)

		_, _, err := f.manager.Evaluate(ctx, f.citizen.ID, occ.ID, EvaluationInput{Rating: 5})
		require.NoError(t, err)
		_, _, err = f.manager.Evaluate(ctx, f.citizen.ID, occ.ID, EvaluationInput{Rating: 3})
		assert.ErrorIs(t, err, domain.ErrAlreadyEvaluated)
		assert.Len(t, f.db.TimelineOf(occ.ID), 1)
	})

	t.Run("only the reporter", func(t *testing.T) {
		f := newFixture(t)
		occ := f.seed(domain.StatusResolved)

		_, _, err := f.manager.Evaluate(ctx, f.neighbor.ID, occ.ID, EvaluationInput{Rating: 5})
		assert.ErrorIs(t, err, domain.ErrNotReporter)
		assertUnchanged(t, f, occ)
	})
}

func TestInactiveReporterCannotActOnOwnOccurrence(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	inactive := f.citizen
	inactive.IsActive = false
	require.NoError(t, f.db.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		return store.Users().Update(ctx, &inactive)
	}))

	resolved := f.seed(domain.StatusResolved)
	closed := f.seed(domain.StatusClosed)

	_, err := f.manager.Rate(ctx, f.citizen.ID, resolved.ID, 5, "")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))

	_, _, err = f.manager.Evaluate(ctx, f.citizen.ID, resolved.ID, EvaluationInput{Rating: 5})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))

	_, err = f.manager.Contest(ctx, f.citizen.ID, closed.ID, "not fixed")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))

	assertUnchanged(t, f, resolved)
	assertUnchanged(t, f, closed)
}

func TestSupport(t *testing.T) {
	f := newFixture(t)
	occ := f.seed(domain.StatusOpen)
	ctx := context.Background()

	_, err := f.manager.Support(ctx, f.citizen.ID, occ.ID)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))

	_, err = f.manager.Support(ctx, f.provider.ID, occ.ID)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))

	_, err = f.manager.Support(ctx, f.neighbor.ID, occ.ID)
	require.NoError(t, err)

	_, err = f.manager.Support(ctx, f.neighbor.ID, occ.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadySupported)

	timeline := f.db.TimelineOf(occ.ID)
	require.Len(t, timeline, 1)
	assert.Equal(t, domain.ActionSupported, timeline[0].Action)
	assert.Nil(t, timeline[0].OldStatus)
	assert.Equal(t, occ.UpdatedAt, f.db.Occurrence(occ.ID).UpdatedAt)
}

func TestExecutionAffiliation(t *testing.T) {
	ctx := context.Background()

	t.Run("other department provider", func(t *testing.T) {
		f := newFixture(t)
		outsider := f.db.AddUser(domain.User{Name: "Lia", Email: "lia@example.com", Role: domain.RoleServiceProvider, DepartmentID: &f.limpeza.ID, IsActive: true})
		occ := f.seed(domain.StatusInProgress)

		_, err := f.manager.StartExecution(ctx, outsider.ID, occ.ID)
		assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))
		assertUnchanged(t, f, occ)
	})

	t.Run("department member on unassigned occurrence", func(t *testing.T) {
		f := newFixture(t)
		occ := f.seed(domain.StatusInProgress, func(o *domain.Occurrence) { o.AssignedTo = nil })

		_, err := f.manager.StartExecution(ctx, f.mgr.ID, occ.ID)
		require.NoError(t, err)
	})

	t.Run("inactive provider", func(t *testing.T) {
		f := newFixture(t)
		idle := f.db.AddUser(domain.User{Name: "Ivo", Email: "ivo@example.com", Role: domain.RoleServiceProvider, DepartmentID: &f.obras.ID})
		occ := f.seed(domain.StatusInProgress, func(o *domain.Occurrence) { o.AssignedTo = &idle.ID })

		_, err := f.manager.StartExecution(ctx, idle.ID, occ.ID)
		assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))
	})
}

func TestSetStatusAndReassign(t *testing.T) {
	ctx := context.Background()

	t.Run("override sets resolution time and assigns admin", func(t *testing.T) {
		f := newFixture(t)
		occ := f.seed(domain.StatusOpen)

		got, err := f.manager.SetStatus(ctx, f.admin.ID, occ.ID, domain.StatusResolved, "resolvido em campo")
		require.NoError(t, err)
		require.NotNil(t, got.ResolvedAt)
		assert.True(t, got.ResolvedAt.Equal(fixedNow))
		require.NotNil(t, got.AssignedTo)
		assert.Equal(t, f.admin.ID, *got.AssignedTo)
		assert.Equal(t, "resolvido em campo", f.db.TimelineOf(occ.ID)[0].Description)
	})

	t.Run("non admin", func(t *testing.T) {
		f := newFixture(t)
		occ := f.seed(domain.StatusOpen)

		_, err := f.manager.SetStatus(ctx, f.mgr.ID, occ.ID, domain.StatusClosed, "")
		assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))
		assertUnchanged(t, f, occ)
	})

	t.Run("unknown status", func(t *testing.T) {
		f := newFixture(t)
		occ := f.seed(domain.StatusOpen)

		_, err := f.manager.SetStatus(ctx, f.admin.ID, occ.ID, domain.Status("archived"), "")
		assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
	})

	t.Run("reassign keeps status", func(t *testing.T) {
		f := newFixture(t)
		occ := f.seed(domain.StatusInProgress)

		got, err := f.manager.Reassign(ctx, f.admin.ID, occ.ID, &f.mgr.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusInProgress, got.Status)
		assert.Equal(t, f.mgr.ID, *got.AssignedTo)

		_, err = f.manager.Reassign(ctx, f.admin.ID, occ.ID, &f.citizen.ID)
		assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

		got, err = f.manager.Reassign(ctx, f.admin.ID, occ.ID, nil)
		require.NoError(t, err)
		assert.Nil(t, got.AssignedTo)
	})
}

func TestAddPhotos(t *testing.T) {
	ctx := context.Background()

	t.Run("before photos by reporter", func(t *testing.T) {
		f := newFixture(t)
		occ := f.seed(domain.StatusOpen)

		photos, err := f.manager.AddPhotos(ctx, f.citizen.ID, occ.ID, domain.PhotoBefore, []domain.PhotoUpload{
			{Filename: "buraco.JPG", Content: []byte("img")},
		})
		require.NoError(t, err)
		require.Len(t, photos, 1)
		assert.Regexp(t, `^[0-9a-f-]{36}\.jpg$`, photos[0].Filename)
		assert.Equal(t, domain.PhotoURL(photos[0].Filename), photos[0].URL)
		assert.Contains(t, f.photos.files, photos[0].Filename)
		assert.Equal(t, domain.ActionPhotosAdded, f.db.TimelineOf(occ.ID)[0].Action)
	})

	t.Run("after photo name", func(t *testing.T) {
		f := newFixture(t)
		occ := f.seed(domain.StatusInProgress)

		photos, err := f.manager.AddPhotos(ctx, f.provider.ID, occ.ID, domain.PhotoAfter, []domain.PhotoUpload{
			{Filename: "feito.png", Content: []byte("img")},
		})
		require.NoError(t, err)
		assert.Regexp(t, `^after_\d+_[0-9a-f-]{36}\.png$`, photos[0].Filename)
	})

	t.Run("rejected extension", func(t *testing.T) {
		f := newFixture(t)
		occ := f.seed(domain.StatusOpen)

		_, err := f.manager.AddPhotos(ctx, f.citizen.ID, occ.ID, domain.PhotoBefore, []domain.PhotoUpload{
			{Filename: "script.exe", Content: []byte("x")},
		})
		assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
	})

	t.Run("too large", func(t *testing.T) {
		f := newFixture(t)
		occ := f.seed(domain.StatusOpen)

		_, err := f.manager.AddPhotos(ctx, f.citizen.ID, occ.ID, domain.PhotoBefore, []domain.PhotoUpload{
			{Filename: "big.png", Content: make([]byte, 2048)},
		})
		assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
	})

	t.Run("storage failure rolls back", func(t *testing.T) {
		f := newFixture(t)
		f.photos.failOn = 2
		occ := f.seed(domain.StatusOpen)

		_, err := f.manager.AddPhotos(ctx, f.citizen.ID, occ.ID, domain.PhotoBefore, []domain.PhotoUpload{
			{Filename: "a.png", Content: []byte("a")},
			{Filename: "b.png", Content: []byte("b")},
		})
		require.Error(t, err)
		assert.Empty(t, f.photos.files)
		assert.Empty(t, f.db.TimelineOf(occ.ID))

		photos, err := f.db.Store().Photos().ListByOccurrence(ctx, occ.ID)
		require.NoError(t, err)
		assert.Empty(t, photos)
	})

	t.Run("evaluation photos only by reporter", func(t *testing.T) {
		f := newFixture(t)
		occ := f.seed(domain.StatusClosed)

		_, err := f.manager.AddPhotos(ctx, f.neighbor.ID, occ.ID, domain.PhotoEvaluation, []domain.PhotoUpload{
			{Filename: "a.png", Content: []byte("a")},
		})
		assert.ErrorIs(t, err, domain.ErrNotReporter)
	})
}

func TestUnknownActorAndOccurrence(t *testing.T) {
	f := newFixture(t)
	occ := f.seed(domain.StatusResolved)
	ctx := context.Background()

	_, err := f.manager.Approve(ctx, 9999, occ.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.manager.Approve(ctx, f.mgr.ID, 9999)
	assert.ErrorIs(t, err, domain.ErrOccurrenceNotFound)
}
