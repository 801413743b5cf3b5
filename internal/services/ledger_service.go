package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"carbon/internal/core"
	"carbon/internal/log"
	"carbon/internal/observability"
	"carbon/internal/onboarding"
	"carbon/internal/sheets"
	"carbon/internal/storage"
)

// EventPublisher announces ledger changes. Implemented by *amqp.Client.
type EventPublisher interface {
	PublishActivityLogged(ctx context.Context, r core.ActivityRecord) error
	PublishLedgerCleared(ctx context.Context, removed int) error
}

// mirrorTimeout bounds one synchronous mirror append.
const mirrorTimeout = 5 * time.Second

// pinger is implemented by stores that can report reachability.
type pinger interface {
	Ping(ctx context.Context) error
}

// LedgerService reloads the ledger on every call, applies one change and
// writes it back. Outbound publishing and mirroring happen after the write
// succeeds and never fail the call.
type LedgerService struct {
	store     storage.LedgerStore
	publisher EventPublisher
	mirror    sheets.ActivityMirror
	mirrorTTL time.Duration
	closers   []io.Closer
	now       func() time.Time
	newID     func() string
	logger    *log.Logger
	events    *log.StructuredLogger
}

type Option func(*LedgerService)

func WithPublisher(p EventPublisher) Option {
	return func(s *LedgerService) { s.publisher = p }
}

func WithMirror(m sheets.ActivityMirror) Option {
	return func(s *LedgerService) { s.mirror = m }
}

// WithMirrorTimeout overrides how long one mirror append may take.
func WithMirrorTimeout(d time.Duration) Option {
	return func(s *LedgerService) { s.mirrorTTL = d }
}

// WithClock overrides time.Now, which decides record dates and periods.
func WithClock(now func() time.Time) Option {
	return func(s *LedgerService) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *LedgerService) { s.newID = newID }
}

func WithLogger(l *log.Logger) Option {
	return func(s *LedgerService) { s.logger = l }
}

// WithClosers registers resources released by Close, in order.
func WithClosers(c ...io.Closer) Option {
	return func(s *LedgerService) { s.closers = append(s.closers, c...) }
}

func NewLedgerService(store storage.LedgerStore, opts ...Option) *LedgerService {
	s := &LedgerService{
		store:     store,
		mirrorTTL: mirrorTimeout,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	if s.logger == nil {
		s.logger = log.Discard()
	}
	s.logger = s.logger.WithComponent(log.ComponentLedger)
	s.events = log.NewStructuredLogger(s.logger)
	return s
}

// Now is the service clock.
func (s *LedgerService) Now() time.Time { return s.now() }

// Today is the service clock as a ledger date.
func (s *LedgerService) Today() string { return core.FormatDate(s.now()) }

// AddActivity validates input, computes emissions and appends a record dated
// today. Invalid input never reaches the store.
func (s *LedgerService) AddActivity(ctx context.Context, in core.ActivityInput) (core.ActivityRecord, error) {
	r, err := core.NewRecord(in, s.newID(), s.Today())
	if err != nil {
		return core.ActivityRecord{}, err
	}
	if err := storage.Append(ctx, s.store, r); err != nil {
		return core.ActivityRecord{}, fmt.Errorf("save activity: %w", err)
	}

	s.afterAppend(ctx, r)
	return r, nil
}

func (s *LedgerService) afterAppend(ctx context.Context, records ...core.ActivityRecord) {
	for _, r := range records {
		observability.RecordActivityLogged(r.Category, r.Emissions, s.now())
		s.events.LogActivityLogged(ctx, r.ID, r.Category, r.Activity, r.Amount, r.Emissions, r.Date)

		if s.publisher != nil {
			if err := s.publisher.PublishActivityLogged(ctx, r); err != nil {
				// The record is already saved.
				s.events.LogError(ctx, "Failed to publish activity event", err, log.ComponentAMQP, log.OpPublish,
					log.NewFields().WithActivity(r.ID, r.Category, r.Activity, r.Amount, r.Emissions, r.Date))
			}
		}
		if s.mirror != nil {
			if err := s.appendMirror(ctx, r); err != nil {
				s.events.LogError(ctx, "Failed to mirror activity", err, log.ComponentSheets, log.OpMirror,
					log.NewFields().WithActivity(r.ID, r.Category, r.Activity, r.Amount, r.Emissions, r.Date))
			}
		}
	}
}

func (s *LedgerService) appendMirror(ctx context.Context, r core.ActivityRecord) error {
	ctx, cancel := context.WithTimeout(ctx, s.mirrorTTL)
	defer cancel()

	_, err := s.mirror.Append(ctx, r)
	return err
}

// Clear removes every activity and returns how many were dropped. The
// onboarding flag is kept.
func (s *LedgerService) Clear(ctx context.Context) (int, error) {
	removed, err := storage.Clear(ctx, s.store)
	if err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "Ledger cleared", log.FieldOperation, log.OpClear, log.FieldCount, removed)
	if s.publisher != nil {
		if err := s.publisher.PublishLedgerCleared(ctx, removed); err != nil {
			s.events.LogError(ctx, "Failed to publish clear event", err, log.ComponentAMQP, log.OpPublish, nil)
		}
	}
	return removed, nil
}

// History returns every record in insertion order.
func (s *LedgerService) History(ctx context.Context) []core.ActivityRecord {
	return s.store.Load(ctx).Activities
}

// Summary returns today/week/month/all totals and today's breakdown.
func (s *LedgerService) Summary(ctx context.Context) core.Summary {
	return core.Summarize(s.store.Load(ctx).Activities, s.now())
}

// Total returns the rounded emissions for one period.
func (s *LedgerService) Total(ctx context.Context, p core.Period) float64 {
	return core.TotalEmissions(core.FilterByPeriod(s.store.Load(ctx).Activities, p, s.now()))
}

// CategoryTotals ranks categories over the records of period p.
func (s *LedgerService) CategoryTotals(ctx context.Context, p core.Period) []core.CategoryAmount {
	records := core.FilterByPeriod(s.store.Load(ctx).Activities, p, s.now())
	return core.RankCategories(core.GroupByCategory(records))
}

// DailyEmissions returns the per-date series over the whole ledger.
func (s *LedgerService) DailyEmissions(ctx context.Context) []core.DailyTotal {
	return core.DailyEmissions(s.store.Load(ctx).Activities)
}

// Tips derives personalized tips from the whole ledger.
func (s *LedgerService) Tips(ctx context.Context) []string {
	return core.GenerateTips(s.store.Load(ctx).Activities)
}

func (s *LedgerService) OnboardingDone(ctx context.Context) bool {
	return s.store.Load(ctx).OnboardingDone
}

// CompleteOnboarding appends the draft's records and marks onboarding done
// in a single save.
func (s *LedgerService) CompleteOnboarding(ctx context.Context, d onboarding.Draft) ([]core.ActivityRecord, error) {
	records, err := d.Records(s.Today(), s.newID)
	if err != nil {
		return nil, err
	}

	if err := storage.CompleteOnboarding(ctx, s.store, records...); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Onboarding completed", log.FieldCount, len(records))
	s.afterAppend(ctx, records...)
	return records, nil
}

// Ready reports whether the store is reachable. Stores without a health
// check are always ready.
func (s *LedgerService) Ready(ctx context.Context) error {
	if p, ok := s.store.(pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close releases the registered resources.
func (s *LedgerService) Close() error {
	var errs []error
	for _, c := range s.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close ledger service: %w", err)
	}
	return nil
}
