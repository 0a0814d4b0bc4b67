// Package metrics exports reminder engine telemetry to Prometheus.
package metrics

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/balanza/internal/engine"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "balanza"

// Metrics holds the collectors shared by all engines in a process.
type Metrics struct {
	dispatchLag    *prometheus.HistogramVec
	dispatches     *prometheus.CounterVec
	refreshLatency *prometheus.HistogramVec
	refreshes      *prometheus.CounterVec
	adds           *prometheus.CounterVec
	queueDepth     *prometheus.GaugeVec
}

// New creates and registers the reminder engine collectors.
// Collectors already registered under the same names are reused, so New may
// be called more than once against one registry.
func New(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		dispatchLag: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_lag_seconds",
			Help:      "Delay between a reminder's trigger time and its dispatch.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 300},
		}, []string{"owner_id"}),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatches_total",
			Help:      "Reminders dispatched, by outcome.",
		}, []string{"owner_id", "outcome"}),
		refreshLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Latency of reloading reminders from the store.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"owner_id"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "Store refreshes, by outcome.",
		}, []string{"owner_id", "outcome"}),
		adds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_added_total",
			Help:      "Reminders accepted through the engine, by outcome.",
		}, []string{"owner_id", "outcome"}),
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_reminders",
			Help:      "Reminders waiting in the live set.",
		}, []string{"owner_id"}),
	}

	var err error
	if m.dispatchLag, err = register(reg, m.dispatchLag); err != nil {
		return nil, fmt.Errorf("register dispatch lag histogram: %w", err)
	}
	if m.dispatches, err = register(reg, m.dispatches); err != nil {
		return nil, fmt.Errorf("register dispatch counter: %w", err)
	}
	if m.refreshLatency, err = register(reg, m.refreshLatency); err != nil {
		return nil, fmt.Errorf("register refresh histogram: %w", err)
	}
	if m.refreshes, err = register(reg, m.refreshes); err != nil {
		return nil, fmt.Errorf("register refresh counter: %w", err)
	}
	if m.adds, err = register(reg, m.adds); err != nil {
		return nil, fmt.Errorf("register add counter: %w", err)
	}
	if m.queueDepth, err = register(reg, m.queueDepth); err != nil {
		return nil, fmt.Errorf("register queue depth gauge: %w", err)
	}
	return m, nil
}

// register registers c, returning the existing collector of the same type
// when one is already registered.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, err
}

// ForOwner returns an engine.Observer labelled with ownerID.
func (m *Metrics) ForOwner(ownerID int64) *Observer {
	return &Observer{m: m, owner: strconv.FormatInt(ownerID, 10)}
}

// Observer implements engine.Observer for one owner.
type Observer struct {
	m     *Metrics
	owner string
}

var _ engine.Observer = (*Observer)(nil)

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordDispatch tracks dispatch lag and outcome.
func (o *Observer) RecordDispatch(lag time.Duration, err error) {
	if o == nil {
		return
	}
	if lag < 0 {
		lag = 0
	}
	o.m.dispatchLag.WithLabelValues(o.owner).Observe(lag.Seconds())
	o.m.dispatches.WithLabelValues(o.owner, outcome(err)).Inc()
}

// RecordRefresh tracks refresh latency and outcome.
func (o *Observer) RecordRefresh(d time.Duration, err error) {
	if o == nil {
		return
	}
	o.m.refreshLatency.WithLabelValues(o.owner).Observe(d.Seconds())
	o.m.refreshes.WithLabelValues(o.owner, outcome(err)).Inc()
}

func (o *Observer) RecordAdd(err error) {
	if o == nil {
		return
	}
	o.m.adds.WithLabelValues(o.owner, outcome(err)).Inc()
}

func (o *Observer) RecordQueueDepth(n int) {
	if o == nil {
		return
	}
	o.m.queueDepth.WithLabelValues(o.owner).Set(float64(n))
}
