package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/herald/internal/event"
	"github.com/linnemanlabs/herald/internal/lifecycle"
	"github.com/linnemanlabs/herald/internal/message"
	"github.com/linnemanlabs/herald/internal/routing"
)

// allEventsLookback is the query window for the unfiltered operator listing.
const allEventsLookback = 24 * time.Hour

// Source fetches the current set of unacknowledged problem events.
type Source interface {
	ActiveProblems(ctx context.Context, lookback time.Duration, minSeverity int) ([]event.RawEvent, error)
}

// Notifier delivers one rendered message to a destination chat.
type Notifier interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// Config holds the Service's polling parameters.
type Config struct {
	Lookback    time.Duration
	MinSeverity int
}

// Service wires the source, classifier policy, tracker, router, formatter
// and transport into the three recurring cycles plus the read-only operator
// queries.
type Service struct {
	source    Source
	notifier  Notifier
	tracker   *lifecycle.Tracker
	router    *routing.Engine
	formatter *message.Formatter
	policy    event.Policy
	cfg       Config
	logger    log.Logger
	metrics   *Metrics
	startedAt time.Time
}

// NewService creates the relay service.
func NewService(source Source, notifier Notifier, tracker *lifecycle.Tracker, router *routing.Engine, formatter *message.Formatter, policy event.Policy, cfg Config, logger log.Logger, metrics *Metrics) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Service{
		source:    source,
		notifier:  notifier,
		tracker:   tracker,
		router:    router,
		formatter: formatter,
		policy:    policy,
		cfg:       cfg,
		logger:    logger,
		metrics:   metrics,
		startedAt: time.Now(),
	}
}

// NotifyCheck runs one notify cycle: fetch, classify, advance lifecycle
// state, route the promoted batch and deliver per group. A fetch failure
// ends the cycle early; a delivery failure skips only its group.
func (s *Service) NotifyCheck(ctx context.Context) error {
	now := time.Now()

	events, err := s.fetch(ctx, s.cfg.Lookback, s.cfg.MinSeverity)
	if err != nil {
		return err
	}

	activeIDs := make(map[string]bool, len(events))
	var admitted []event.RawEvent
	for _, ev := range events {
		activeIDs[ev.EventID] = true

		d := event.Classify(ev, s.policy)
		if !d.Admit {
			s.metrics.EventsRejected.WithLabelValues(d.Reason).Inc()
			continue
		}
		admitted = append(admitted, ev)
	}

	promoted, err := s.tracker.Advance(ctx, now, admitted, activeIDs)
	s.updateGauges(ctx)
	if err != nil {
		return fmt.Errorf("advance lifecycle: %w", err)
	}
	s.metrics.PromotionsTotal.Add(float64(len(promoted)))

	if len(promoted) == 0 {
		return nil
	}

	for _, g := range s.router.Route(promoted) {
		text := s.formatter.ActiveBatch(g.Contract, g.Entries, now)
		s.deliver(ctx, "notify", g.Contract, g.Destination, g.Fallback, len(g.Entries), text)
	}
	return nil
}

// ResolvedCheck runs one resolution cycle: fetch, detect recovery signals,
// and deliver resolution notices. The allow policy is re-evaluated per event
// at resolution time, so one contract may split between its own chat and the
// fallback.
func (s *Service) ResolvedCheck(ctx context.Context) error {
	now := time.Now()

	events, err := s.fetch(ctx, s.cfg.Lookback, s.cfg.MinSeverity)
	if err != nil {
		return err
	}

	resolved, err := s.tracker.Resolve(ctx, now, events)
	s.updateGauges(ctx)
	if err != nil {
		return fmt.Errorf("resolve lifecycle: %w", err)
	}
	s.metrics.ResolutionsTotal.Add(float64(len(resolved)))
	if len(resolved) == 0 {
		return nil
	}

	type key struct {
		contract string
		dest     string
	}
	grouped := make(map[key][]lifecycle.ResolvedEvent)
	var order []key
	fallbacks := make(map[key]bool)
	for _, re := range resolved {
		dest, fb := s.router.Destination(re.Contract, re.Host)
		k := key{contract: re.Contract, dest: dest}
		if _, ok := grouped[k]; !ok {
			order = append(order, k)
			fallbacks[k] = fb
		}
		grouped[k] = append(grouped[k], re)
	}

	for _, k := range order {
		text := s.formatter.ResolvedBatch(k.contract, grouped[k])
		s.deliver(ctx, "resolve", k.contract, k.dest, fallbacks[k], len(grouped[k]), text)
	}
	return nil
}

// EvictStale removes notified entries past the eviction age.
func (s *Service) EvictStale(ctx context.Context) error {
	n, err := s.tracker.Evict(ctx, time.Now())
	s.updateGauges(ctx)
	if err != nil {
		return fmt.Errorf("evict lifecycle: %w", err)
	}
	s.metrics.EvictionsTotal.Add(float64(n))
	if n > 0 {
		s.logger.Info(ctx, "evicted stale notified entries", "count", n)
	}
	return nil
}

// ListActive returns the current unacknowledged events for the operator
// commands. With all=true the listing covers every severity over a wider
// window. Read-only: tracker state is never touched.
func (s *Service) ListActive(ctx context.Context, all bool) ([]event.RawEvent, error) {
	if all {
		return s.fetch(ctx, allEventsLookback, 0)
	}
	return s.fetch(ctx, s.cfg.Lookback, s.cfg.MinSeverity)
}

// Status is the read-only operator snapshot.
type Status struct {
	Pending     int
	Notified    int
	MinSeverity int
	Uptime      time.Duration
}

// CurrentStatus reports tracked entry counts and process uptime.
func (s *Service) CurrentStatus(ctx context.Context) (Status, error) {
	pending, notified, err := s.tracker.Counts(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("lifecycle counts: %w", err)
	}
	return Status{
		Pending:     pending,
		Notified:    notified,
		MinSeverity: s.cfg.MinSeverity,
		Uptime:      time.Since(s.startedAt),
	}, nil
}

func (s *Service) fetch(ctx context.Context, lookback time.Duration, minSeverity int) ([]event.RawEvent, error) {
	events, err := s.source.ActiveProblems(ctx, lookback, minSeverity)
	if err != nil {
		s.metrics.FetchesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("fetch active events: %w", err)
	}
	s.metrics.FetchesTotal.WithLabelValues("ok").Inc()
	s.metrics.EventsFetched.Add(float64(len(events)))
	return events, nil
}

// deliver sends one group's message, containing the failure so the
// remaining groups in the cycle still get their delivery attempt.
func (s *Service) deliver(ctx context.Context, kind, contract, dest string, fallback bool, count int, text string) {
	if err := s.notifier.SendMessage(ctx, dest, text); err != nil {
		s.metrics.DeliveriesTotal.WithLabelValues(kind, "error").Inc()
		s.logger.Error(ctx, err, "delivery failed",
			"kind", kind,
			"contract", contract,
			"destination", dest,
			"fallback", fallback,
			"events", count,
		)
		return
	}
	s.metrics.DeliveriesTotal.WithLabelValues(kind, "ok").Inc()
	s.logger.Info(ctx, "delivered grouped message",
		"kind", kind,
		"contract", contract,
		"destination", dest,
		"fallback", fallback,
		"events", count,
	)
}

func (s *Service) updateGauges(ctx context.Context) {
	pending, notified, err := s.tracker.Counts(ctx)
	if err != nil {
		return
	}
	s.metrics.PendingEvents.Set(float64(pending))
	s.metrics.NotifiedEvents.Set(float64(notified))
}
