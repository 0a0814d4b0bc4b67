package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/balanza/internal/reminder"
)

// Store persists reminders. Implemented by store.Store (SQLite) and
// testutil.MemoryStore.
type Store interface {
	// InsertReminder persists r and returns the store-assigned ID.
	InsertReminder(ctx context.Context, r reminder.Reminder) (int64, error)

	// ListForOwner returns the owner's pending reminders.
	ListForOwner(ctx context.Context, ownerID int64) ([]reminder.Reminder, error)
}

// DispatchRecorder is an optional Store capability. When present, the engine
// marks each dispatched reminder so later loads no longer return it.
type DispatchRecorder interface {
	MarkDispatched(ctx context.Context, id int64, at time.Time) error
}

// TaskLookup is an optional Store capability used to describe a reminder's
// linked task in the notification body.
type TaskLookup interface {
	GetTask(ctx context.Context, id int64) (*reminder.Task, error)
}

// IdentityLookup resolves the notification recipient for an owner.
type IdentityLookup interface {
	EmailForOwner(ctx context.Context, ownerID int64) (string, error)
}

// Notifier delivers a notification (e-mail, message bus, log).
type Notifier interface {
	Send(ctx context.Context, n reminder.Notification) error
}

// Loop timing defaults.
const (
	// DefaultRefreshInterval is how stale the live set may get before the
	// loop or GetAllReminders reloads it from the Store.
	DefaultRefreshInterval = 30 * time.Second

	// EmptyQueuePollInterval bounds how long the loop waits when the live
	// set is empty.
	EmptyQueuePollInterval = time.Second

	// MaxDispatchWait caps a single wait for the next reminder, so the loop
	// reassesses at least once a minute.
	MaxDispatchWait = time.Minute

	// DefaultStoreTimeout bounds every Store and identity call.
	DefaultStoreTimeout = 5 * time.Second
)

// Engine schedules and dispatches one owner's reminders.
//
// Thread-safety model:
//   - AddReminder, GetAllReminders, RefreshData: safe from any goroutine
//   - Start, Stop, Running: safe from any goroutine
//   - RunOnce: must not run concurrently with a started loop
//
// INVARIANTS:
//   - Only persisted reminders enter the live set through AddReminder
//   - A reminder popped for dispatch is never re-admitted by a refresh
//   - A failed refresh leaves the live set untouched
type Engine struct {
	ownerID  int64
	store    Store
	identity IdentityLookup
	notifier Notifier
	clock    Clock
	observer Observer
	logger   *slog.Logger
	queue    *reminderQueue
	idGen    NotificationIDGenerator

	refreshInterval time.Duration
	emptyPoll       time.Duration
	maxWait         time.Duration
	storeTimeout    time.Duration

	// syncMu serializes persist-then-insert against load-then-replace.
	syncMu      sync.Mutex
	lastRefresh time.Time

	// lifeMu guards the loop lifecycle.
	lifeMu  sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	loopCtx context.Context
}

// Option allows configuration of engine parameters.
type Option func(*Engine)

// WithClock sets the time source. Default: SystemClock.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithRefreshInterval sets how often the live set is reloaded from the Store.
func WithRefreshInterval(d time.Duration) Option {
	return func(e *Engine) {
		e.refreshInterval = d
	}
}

// WithEmptyQueuePollInterval sets the wait used while the live set is empty.
func WithEmptyQueuePollInterval(d time.Duration) Option {
	return func(e *Engine) {
		e.emptyPoll = d
	}
}

// WithMaxDispatchWait caps a single wait for the next reminder.
func WithMaxDispatchWait(d time.Duration) Option {
	return func(e *Engine) {
		e.maxWait = d
	}
}

// WithStoreTimeout bounds each Store and identity call.
func WithStoreTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.storeTimeout = d
	}
}

// WithObserver attaches a telemetry observer (see internal/metrics).
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithNotificationIDGenerator overrides notification ID generation (for tests).
func WithNotificationIDGenerator(g NotificationIDGenerator) Option {
	return func(e *Engine) {
		if g != nil {
			e.idGen = g
		}
	}
}

// New creates an Engine for ownerID and performs the initial blocking load
// from the Store.
//
// A failed initial load does not fail construction: the engine starts with an
// empty live set and the error is logged. The next refresh will retry.
func New(
	ctx context.Context,
	ownerID int64,
	s Store,
	identity IdentityLookup,
	notifier Notifier,
	opts ...Option,
) *Engine {
	e := &Engine{
		ownerID:         ownerID,
		store:           s,
		identity:        identity,
		notifier:        notifier,
		clock:           SystemClock{},
		observer:        nopObserver{},
		logger:          slog.Default(),
		queue:           newReminderQueue(),
		idGen:           UUIDv7Generator{},
		refreshInterval: DefaultRefreshInterval,
		emptyPoll:       EmptyQueuePollInterval,
		maxWait:         MaxDispatchWait,
		storeTimeout:    DefaultStoreTimeout,
	}

	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "reminder-engine", "owner_id", ownerID)

	if err := e.RefreshData(ctx); err != nil {
		e.logger.Error("initial reminder load failed, starting empty", "error", err)
	}

	return e
}

// OwnerID returns the owner this engine schedules for.
func (e *Engine) OwnerID() int64 {
	return e.ownerID
}

// AddReminder validates r, persists it and inserts it into the live set.
//
// On success the store-assigned ID and the engine's owner are written back
// onto r. Returns a *reminder.ValidationError without touching the Store when
// validation fails, or a *PersistenceError (also logged) when the insert
// fails; in both cases nothing is queued.
func (e *Engine) AddReminder(ctx context.Context, r *reminder.Reminder) error {
	if err := reminder.Validate(*r, e.clock.Now()); err != nil {
		return err
	}

	e.syncMu.Lock()
	defer e.syncMu.Unlock()

	candidate := *r
	candidate.OwnerID = e.ownerID

	storeCtx, cancel := e.storeContext(ctx)
	id, err := e.store.InsertReminder(storeCtx, candidate)
	cancel()
	if err != nil {
		perr := &PersistenceError{Op: "insert", OwnerID: e.ownerID, Err: err}
		e.logger.Error("reminder insert failed", "title", r.Title, "error", err)
		e.observer.RecordAdd(perr)
		return perr
	}

	candidate.ID = id
	*r = candidate
	e.queue.Push(candidate)
	e.observer.RecordAdd(nil)
	e.observer.RecordQueueDepth(e.queue.Len())

	e.logger.Debug("reminder added", "reminder_id", id, "trigger_time", candidate.TriggerTime)
	return nil
}

// GetAllReminders returns a snapshot of the live set ordered by trigger time.
//
// If the refresh interval has elapsed since the last refresh, the set is
// reloaded from the Store first, so this call may block on a Store round-trip.
// A failed refresh is logged and the current set is returned.
func (e *Engine) GetAllReminders(ctx context.Context) []reminder.Reminder {
	if e.refreshDue() {
		if err := e.RefreshData(ctx); err != nil {
			e.logger.Warn("refresh before snapshot failed", "error", err)
		}
	}
	return e.queue.Snapshot()
}

// RefreshData unconditionally reloads the live set from the Store, replacing
// (not merging) the current contents. On Store error the previous set is kept
// and a *PersistenceError is returned.
func (e *Engine) RefreshData(ctx context.Context) error {
	e.syncMu.Lock()
	defer e.syncMu.Unlock()

	start := e.clock.Now()
	// Stamp the attempt even on failure so an unavailable store is retried
	// once per interval rather than on every loop pass.
	e.lastRefresh = start

	storeCtx, cancel := e.storeContext(ctx)
	rs, err := e.store.ListForOwner(storeCtx, e.ownerID)
	cancel()
	if err != nil {
		perr := &PersistenceError{Op: "refresh", OwnerID: e.ownerID, Err: err}
		e.observer.RecordRefresh(e.clock.Now().Sub(start), perr)
		return perr
	}

	n := e.queue.Replace(rs)
	e.observer.RecordRefresh(e.clock.Now().Sub(start), nil)
	e.observer.RecordQueueDepth(n)
	e.logger.Debug("reminders refreshed", "loaded", len(rs), "pending", n)
	return nil
}

// Start launches the background dispatch loop. Calling Start on a running
// engine is a no-op. The loop also stops when ctx is cancelled; a Start made
// after that waits for the old loop to exit and then launches a new one.
func (e *Engine) Start(ctx context.Context) {
	e.lifeMu.Lock()
	for e.cancel != nil {
		if e.loopCtx.Err() == nil {
			e.lifeMu.Unlock()
			return // Already running
		}
		stale := e.done
		e.lifeMu.Unlock()
		<-stale
		e.lifeMu.Lock()
	}
	defer e.lifeMu.Unlock()

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	e.cancel = cancel
	e.done = done
	e.loopCtx = loopCtx

	go func() {
		defer close(done)
		e.run(loopCtx)

		// Clear lifecycle state if the loop ended through ctx rather than Stop.
		e.lifeMu.Lock()
		if e.done == done {
			e.cancel = nil
			e.done = nil
			e.loopCtx = nil
		}
		e.lifeMu.Unlock()
		cancel()
	}()
}

// Stop signals the loop to exit and waits until it has. A dispatch already in
// progress completes first. Stop on a stopped engine is a no-op; the engine
// can be started again afterwards.
func (e *Engine) Stop() {
	e.lifeMu.Lock()
	cancel, done := e.cancel, e.done
	e.cancel = nil
	e.done = nil
	e.loopCtx = nil
	e.lifeMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the background loop is active. A loop whose
// context has been cancelled is not running, even before it has exited.
func (e *Engine) Running() bool {
	e.lifeMu.Lock()
	defer e.lifeMu.Unlock()
	return e.cancel != nil && e.loopCtx.Err() == nil
}

// refreshDue reports whether the refresh interval has elapsed.
func (e *Engine) refreshDue() bool {
	e.syncMu.Lock()
	last := e.lastRefresh
	e.syncMu.Unlock()
	return e.clock.Now().Sub(last) > e.refreshInterval
}

// storeContext derives a context bounded by the store timeout.
func (e *Engine) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.storeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.storeTimeout)
}
