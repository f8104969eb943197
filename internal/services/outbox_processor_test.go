package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/portal-cidadao/domain"
	"github.com/fastygo/portal-cidadao/internal/infrastructure/outbox"
	"github.com/fastygo/portal-cidadao/repository/memory"
	"github.com/fastygo/portal-cidadao/usecase/notification"
)

type flakyDeliverer struct {
	mu        sync.Mutex
	failKinds map[string]error
	calls     map[string]int
	delivered []domain.Notification
}

func (d *flakyDeliverer) Deliver(_ context.Context, n domain.Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.calls == nil {
		d.calls = make(map[string]int)
	}
	d.calls[n.Kind]++
	if err := d.failKinds[n.Kind]; err != nil {
		return err
	}
	d.delivered = append(d.delivered, n)
	return nil
}

type offline struct{}

func (offline) IsOnline() bool { return false }

func openOutbox(t *testing.T) *outbox.Store {
	t.Helper()
	store, err := outbox.Open(filepath.Join(t.TempDir(), "outbox.db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newProcessor(t *testing.T, store *outbox.Store, d Deliverer, mon ConnectionHealth, onSize func(int)) *OutboxProcessor {
	t.Helper()
	p, err := NewOutboxProcessor(store, d, mon, onSize, nil, ProcessorConfig{
		Schedule:     "@every 1h",
		Concurrency:  2,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
	})
	require.NoError(t, err)
	return p
}

func TestDrainDeliversRetriesAndDrops(t *testing.T) {
	ctx := context.Background()
	store := openOutbox(t)
	bridge := NewNotificationBridge(store, nil)

	deliverer := &flakyDeliverer{failKinds: map[string]error{
		domain.NotifyContested: errors.New("database unavailable"),
		domain.NotifyLowRating: domain.Invalidf("notification has no audience"),
	}}
	var sizes []int
	p := newProcessor(t, store, deliverer, nil, func(n int) { sizes = append(sizes, n) })

	citizen := int64(5)
	require.NoError(t, bridge.Enqueue(ctx, domain.Notification{UserID: &citizen, Kind: domain.NotifyClosed, OccurrenceID: 1}))
	require.NoError(t, bridge.Enqueue(ctx, domain.Notification{Kind: domain.NotifyContested, OccurrenceID: 2}))
	require.NoError(t, bridge.Enqueue(ctx, domain.Notification{Kind: domain.NotifyLowRating, OccurrenceID: 3}))
	require.NoError(t, store.Enqueue(outbox.Item{Kind: "unknown"}))

	result, err := p.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, DrainResult{Delivered: 1, Retried: 1, Dropped: 2}, result)
	require.Len(t, deliverer.delivered, 1)
	assert.Equal(t, domain.NotifyClosed, deliverer.delivered[0].Kind)
	assert.Equal(t, 1+attemptsPerDrain, deliverer.calls[domain.NotifyContested])
	assert.Equal(t, 1, deliverer.calls[domain.NotifyLowRating])
	assert.Equal(t, 1, p.Size())

	result, err = p.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, DrainResult{Dropped: 1}, result)
	assert.Equal(t, 0, p.Size())
	assert.Equal(t, []int{1, 0}, sizes)
}

func TestDrainSkipsWhenOffline(t *testing.T) {
	ctx := context.Background()
	store := openOutbox(t)
	deliverer := &flakyDeliverer{}
	p := newProcessor(t, store, deliverer, offline{}, nil)

	citizen := int64(5)
	require.NoError(t, NewNotificationBridge(store, nil).Enqueue(ctx, domain.Notification{UserID: &citizen, Kind: domain.NotifyClosed}))

	result, err := p.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, DrainResult{}, result)
	assert.Equal(t, 1, p.Size())
}

func TestDrainIntoNotificationStore(t *testing.T) {
	ctx := context.Background()
	db := memory.New()
	dept := db.AddDepartment(domain.Department{Name: "Obras Públicas", IsActive: true})
	manager := db.AddUser(domain.User{Name: "Marta", Role: domain.RoleDepartmentManager, DepartmentID: &dept.ID, IsActive: true})

	store := openOutbox(t)
	p := newProcessor(t, store, notification.New(db, db.Store(), nil), nil, nil)

	role := domain.RoleDepartmentManager
	require.NoError(t, NewNotificationBridge(store, nil).Enqueue(ctx, domain.Notification{
		Role:         &role,
		DepartmentID: &dept.ID,
		Kind:         domain.NotifyAwaitingApproval,
		OccurrenceID: 9,
		Message:      "Ocorrência aguardando validação",
	}))

	result, err := p.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Delivered)

	stored := db.Notifications()
	require.Len(t, stored, 1)
	require.NotNil(t, stored[0].UserID)
	assert.Equal(t, manager.ID, *stored[0].UserID)
}

func TestInvalidSchedule(t *testing.T) {
	_, err := NewOutboxProcessor(openOutbox(t), &flakyDeliverer{}, nil, nil, nil, ProcessorConfig{Schedule: "not a schedule"})
	assert.Error(t, err)
}

func TestNotificationPriority(t *testing.T) {
	assert.Equal(t, 1, notificationPriority(domain.NotifyContested))
	assert.Equal(t, 2, notificationPriority(domain.NotifyAssigned))
	assert.Equal(t, 3, notificationPriority(domain.NotifyClosed))
}

func TestPurgeDropsExpiredItems(t *testing.T) {
	ctx := context.Background()
	store := openOutbox(t)
	bridge := NewNotificationBridge(store, nil)
	var last int
	p := newProcessor(t, store, &flakyDeliverer{}, nil, func(n int) { last = n })

	require.NoError(t, bridge.Enqueue(ctx, domain.Notification{Kind: domain.NotifyClosed, OccurrenceID: 1}))
	require.Equal(t, 1, p.Size())

	removed, err := p.Purge(time.Now())
	require.NoError(t, err)
	assert.Zero(t, removed)

	removed, err = p.Purge(time.Now().Add(73 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Zero(t, p.Size())
	assert.Zero(t, last)
}
