package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Check checks one dependency; nil means reachable.
type Check func(ctx context.Context) error

// OutboxSizer reports the number of pending outbox items.
type OutboxSizer interface {
	Size() (int, error)
}

// Checks groups the dependencies the monitor watches. A nil check reports the
// dependency as down.
type Checks struct {
	Postgres Check
	Redis    Check
	Outbox   OutboxSizer
}

type Monitor struct {
	checks    Checks
	onRefresh func(Status)

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

// New builds a monitor. onRefresh, when set, runs after every check.
func New(checks Checks, interval time.Duration, onRefresh func(Status), logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		checks:    checks,
		onRefresh: onRefresh,
		interval:  interval,
		stopCh:    make(chan struct{}),
		logger:    logger,
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// IsOnline reports whether Postgres and Redis answered the last check.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Healthy()
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Refresh(context.Background())
	for {
		select {
		case <-ticker.C:
			m.Refresh(context.Background())
		case <-m.stopCh:
			return
		}
	}
}

// Refresh runs every check once and stores the result.
func (m *Monitor) Refresh(ctx context.Context) Status {
	outboxOK, outboxSize := m.checkOutbox()
	status := Status{
		PostgreSQL: m.check(ctx, "postgresql", m.checks.Postgres, 3*time.Second),
		Redis:      m.check(ctx, "redis", m.checks.Redis, 2*time.Second),
		Outbox:     outboxOK,
		OutboxSize: outboxSize,
		LastCheck:  time.Now(),
	}

	m.mu.Lock()
	previous := m.status
	m.status = status
	m.mu.Unlock()

	if !previous.LastCheck.IsZero() && previous.Healthy() != status.Healthy() {
		m.logger.Warn("dependency health changed",
			zap.Bool("healthy", status.Healthy()),
			zap.Bool("postgresql", status.PostgreSQL),
			zap.Bool("redis", status.Redis))
	}
	if m.onRefresh != nil {
		m.onRefresh(status)
	}
	return status
}

func (m *Monitor) check(ctx context.Context, name string, checkFn Check, timeout time.Duration) bool {
	if checkFn == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := checkFn(ctx); err != nil {
		m.logger.Debug("dependency check failed", zap.String("dependency", name), zap.Error(err))
		return false
	}
	return true
}

func (m *Monitor) checkOutbox() (bool, int) {
	if m.checks.Outbox == nil {
		return false, 0
	}
	size, err := m.checks.Outbox.Size()
	if err != nil {
		m.logger.Warn("outbox size check failed", zap.Error(err))
		return false, size
	}
	return true, size
}
