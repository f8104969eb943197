package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fastygo/portal-cidadao/domain"
	"github.com/fastygo/portal-cidadao/internal/infrastructure/outbox"
)

// attemptsPerDrain bounds the in-drain retries of one item before it is
// pushed back to the outbox.
const attemptsPerDrain = 2

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// Deliverer persists one notification.
type Deliverer interface {
	Deliver(ctx context.Context, n domain.Notification) error
}

// ProcessorConfig controls how the outbox is drained.
type ProcessorConfig struct {
	Schedule     string
	BatchSize    int
	Concurrency  int
	MaxRetries   int
	RetryBackoff time.Duration
	DrainTimeout time.Duration
	// MaxAge drops items that sat in the outbox longer than this.
	MaxAge          time.Duration
	CleanupSchedule string
}

// DrainResult counts what one drain did.
type DrainResult struct {
	Delivered int
	Retried   int
	Dropped   int
}

// OutboxProcessor delivers queued notifications on a cron schedule.
type OutboxProcessor struct {
	store     *outbox.Store
	deliverer Deliverer
	monitor   ConnectionHealth
	onSize    func(int)
	logger    *zap.Logger
	cron      *cron.Cron
	cfg       ProcessorConfig
}

func NewOutboxProcessor(
	store *outbox.Store,
	deliverer Deliverer,
	monitor ConnectionHealth,
	onSize func(int),
	logger *zap.Logger,
	cfg ProcessorConfig,
) (*OutboxProcessor, error) {
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 5s"
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 200 * time.Millisecond
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 30 * time.Second
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 72 * time.Hour
	}
	if cfg.CleanupSchedule == "" {
		cfg.CleanupSchedule = "@every 1h"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &OutboxProcessor{
		store:     store,
		deliverer: deliverer,
		monitor:   monitor,
		onSize:    onSize,
		logger:    logger,
		cfg:       cfg,
		cron:      cron.New(cron.WithSeconds()),
	}

	if _, err := p.cron.AddFunc(cfg.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.DrainTimeout)
		defer cancel()
		if _, err := p.Drain(ctx); err != nil {
			p.logger.Error("outbox drain failed", zap.Error(err))
		}
	}); err != nil {
		return nil, fmt.Errorf("outbox schedule %q: %w", cfg.Schedule, err)
	}
	if _, err := p.cron.AddFunc(cfg.CleanupSchedule, func() {
		if _, err := p.Purge(time.Now()); err != nil {
			p.logger.Error("outbox cleanup failed", zap.Error(err))
		}
	}); err != nil {
		return nil, fmt.Errorf("outbox cleanup schedule %q: %w", cfg.CleanupSchedule, err)
	}

	return p, nil
}

// Start launches the cron scheduler.
func (p *OutboxProcessor) Start() {
	if p == nil || p.cron == nil {
		return
	}
	p.cron.Start()
	p.logger.Info("outbox processor started", zap.String("schedule", p.cfg.Schedule))
}

// Stop waits for a running drain to finish or ctx to expire.
func (p *OutboxProcessor) Stop(ctx context.Context) {
	if p == nil || p.cron == nil {
		return
	}
	stopCtx := p.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	p.logger.Info("outbox processor stopped")
}

// Purge drops items older than MaxAge relative to now.
func (p *OutboxProcessor) Purge(now time.Time) (int, error) {
	removed, err := p.store.Cleanup(now.Add(-p.cfg.MaxAge))
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		p.logger.Warn("expired outbox items dropped", zap.Int("count", removed))
		p.reportSize()
	}
	return removed, nil
}

// Drain delivers one batch. Items are processed concurrently up to the
// configured limit; failed items go back to the outbox until they exhaust
// their retries and are dropped.
func (p *OutboxProcessor) Drain(ctx context.Context) (DrainResult, error) {
	var result DrainResult
	if p == nil || p.store == nil {
		return result, nil
	}
	if p.monitor != nil && !p.monitor.IsOnline() {
		p.logger.Debug("skipping outbox drain (offline)")
		return result, nil
	}

	items, err := p.store.Peek(p.cfg.BatchSize)
	if err != nil {
		return result, err
	}

	var delivered, retried, dropped atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)
	for _, item := range items {
		item := item
		g.Go(func() error {
			err := p.deliver(gctx, item)
			switch {
			case err == nil:
				delivered.Add(1)
				return p.store.Remove(item)
			case isPermanent(err) || item.Retries+1 >= p.cfg.MaxRetries:
				p.logger.Warn("dropping outbox item",
					zap.String("item_id", item.ID),
					zap.Int("retries", item.Retries),
					zap.Error(err))
				dropped.Add(1)
				return p.store.Remove(item)
			default:
				p.logger.Info("outbox delivery failed, requeueing",
					zap.String("item_id", item.ID),
					zap.Int("retries", item.Retries+1),
					zap.Error(err))
				retried.Add(1)
				return p.store.Retry(item)
			}
		})
	}
	err = g.Wait()

	result = DrainResult{
		Delivered: int(delivered.Load()),
		Retried:   int(retried.Load()),
		Dropped:   int(dropped.Load()),
	}
	p.reportSize()
	if len(items) > 0 {
		p.logger.Debug("outbox drained",
			zap.Int("delivered", result.Delivered),
			zap.Int("retried", result.Retried),
			zap.Int("dropped", result.Dropped))
	}
	return result, err
}

// Size returns the number of pending items.
func (p *OutboxProcessor) Size() int {
	if p == nil || p.store == nil {
		return 0
	}
	size, err := p.store.Size()
	if err != nil {
		return 0
	}
	return size
}

func (p *OutboxProcessor) deliver(ctx context.Context, item outbox.Item) error {
	if item.Kind != outbox.KindNotification {
		return backoff.Permanent(fmt.Errorf("unsupported outbox kind %q", item.Kind))
	}
	var n domain.Notification
	if err := json.Unmarshal(item.Payload, &n); err != nil {
		return backoff.Permanent(fmt.Errorf("decode notification: %w", err))
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = p.cfg.RetryBackoff
	return backoff.Retry(func() error {
		err := p.deliverer.Deliver(ctx, n)
		if domain.IsDomainError(err, domain.ErrCodeInvalid) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(policy, attemptsPerDrain), ctx))
}

func (p *OutboxProcessor) reportSize() {
	if p.onSize != nil {
		p.onSize(p.Size())
	}
}

func isPermanent(err error) bool {
	var permanent *backoff.PermanentError
	return errors.As(err, &permanent) || domain.IsDomainError(err, domain.ErrCodeInvalid)
}
