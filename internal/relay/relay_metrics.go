package relay

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the relay subsystem.
type Metrics struct {
	FetchesTotal     *prometheus.CounterVec
	EventsFetched    prometheus.Counter
	EventsRejected   *prometheus.CounterVec
	PromotionsTotal  prometheus.Counter
	ResolutionsTotal prometheus.Counter
	EvictionsTotal   prometheus.Counter
	DeliveriesTotal  *prometheus.CounterVec
	PendingEvents    prometheus.Gauge
	NotifiedEvents   prometheus.Gauge
	CycleDuration    *prometheus.HistogramVec
	TicksSkipped     *prometheus.CounterVec
	CommandsTotal    *prometheus.CounterVec
}

// NewMetrics registers and returns relay metrics on the given registerer.
// A nil registerer leaves the metrics unregistered, which tests use.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		FetchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "herald_source_fetches_total",
			Help: "Total event source fetches by outcome.",
		}, []string{"outcome"}),
		EventsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "herald_source_events_total",
			Help: "Total raw event records returned by the source.",
		}),
		EventsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "herald_events_rejected_total",
			Help: "Events rejected by the classifier, by reason.",
		}, []string{"reason"}),
		PromotionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "herald_promotions_total",
			Help: "Pending entries promoted to notified.",
		}),
		ResolutionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "herald_resolutions_total",
			Help: "Notified entries announced as resolved.",
		}),
		EvictionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "herald_evictions_total",
			Help: "Notified entries removed by the age-based eviction sweep.",
		}),
		DeliveriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "herald_deliveries_total",
			Help: "Grouped message deliveries by kind and outcome.",
		}, []string{"kind", "outcome"}),
		PendingEvents: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "herald_pending_events",
			Help: "Events currently awaiting confirmation.",
		}),
		NotifiedEvents: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "herald_notified_events",
			Help: "Events currently tracked as notified.",
		}),
		CycleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "herald_cycle_duration_seconds",
			Help:    "Duration of scheduler task runs in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 0.1s .. ~51s
		}, []string{"task"}),
		TicksSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "herald_ticks_skipped_total",
			Help: "Scheduler ticks skipped because the previous run was still in flight.",
		}, []string{"task"}),
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "herald_operator_commands_total",
			Help: "Operator commands handled, by command and outcome.",
		}, []string{"command", "outcome"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.FetchesTotal,
			m.EventsFetched,
			m.EventsRejected,
			m.PromotionsTotal,
			m.ResolutionsTotal,
			m.EvictionsTotal,
			m.DeliveriesTotal,
			m.PendingEvents,
			m.NotifiedEvents,
			m.CycleDuration,
			m.TicksSkipped,
			m.CommandsTotal,
		)
	}

	return m
}
