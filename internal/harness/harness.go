package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/roach88/balanza/internal/engine"
	"github.com/roach88/balanza/internal/reminder"
	"github.com/roach88/balanza/internal/testutil"
)

// ErrInjected is the error returned by every injected fault.
var ErrInjected = errors.New("injected fault")

// Harness drives one engine through a scenario.
//
// The engine's background loop is never started: Harness calls RunOnce
// itself and moves the fake clock to each wake-up instant, so dispatches
// happen on the calling goroutine in a fixed order.
type Harness struct {
	scenario *Scenario
	store    *testutil.MemoryStore
	clock    *testutil.FakeClock
	notifier *traceNotifier
	engine   *engine.Engine
	result   *Result

	// titles maps reminder IDs to titles, in ID order.
	titles map[int64]string
	ids    []int64
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory store.
//
// Execution flow:
//  1. Seed owner, tasks and reminders into the store
//  2. Construct the engine (initial load happens here)
//  3. Execute steps in order
//  4. Capture the live set and store state
//  5. Evaluate assertions
//
// Run returns an error only when the scenario cannot be executed (an
// unresolvable time, an unknown title). Expectation and assertion failures
// are reported on the Result.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	h, err := newHarness(ctx, scenario)
	if err != nil {
		return nil, err
	}

	for i, step := range scenario.Steps {
		if err := h.execStep(ctx, step); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	h.finish(ctx)

	for _, msg := range EvaluateAssertions(h.result, scenario.Assertions) {
		h.result.AddError(msg)
	}
	return h.result, nil
}

func newHarness(ctx context.Context, scenario *Scenario) (*Harness, error) {
	start := DefaultStart
	if scenario.Start != "" {
		t, err := time.Parse(time.RFC3339, scenario.Start)
		if err != nil {
			return nil, fmt.Errorf("start: %w", err)
		}
		start = t
	}

	h := &Harness{
		scenario: scenario,
		store:    testutil.NewMemoryStore(),
		clock:    testutil.NewFakeClock(start),
		result:   NewResult(),
		titles:   make(map[int64]string),
	}
	h.notifier = &traceNotifier{h: h}

	if scenario.Owner.Email != "" {
		h.store.SetEmail(scenario.Owner.ID, scenario.Owner.Email)
	}

	for _, t := range scenario.Tasks {
		task, err := buildTask(scenario.Owner.ID, t)
		if err != nil {
			return nil, err
		}
		h.store.AddTask(task)
	}

	for i, in := range scenario.Reminders {
		r, err := h.buildReminder(in)
		if err != nil {
			return nil, fmt.Errorf("reminders[%d]: %w", i, err)
		}
		h.track(h.store.Seed(r))
	}

	opts := []engine.Option{
		engine.WithClock(h.clock),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		engine.WithNotificationIDGenerator(engine.NewFixedGenerator()),
	}
	settings, err := scenario.Settings.options()
	if err != nil {
		return nil, err
	}
	opts = append(opts, settings...)

	h.engine = engine.New(ctx, scenario.Owner.ID, h.store, h.store, h.notifier, opts...)
	return h, nil
}

func (s Settings) options() ([]engine.Option, error) {
	var opts []engine.Option
	for _, o := range []struct {
		value string
		apply func(time.Duration) engine.Option
	}{
		{s.RefreshInterval, engine.WithRefreshInterval},
		{s.EmptyPoll, engine.WithEmptyQueuePollInterval},
		{s.MaxDispatchWait, engine.WithMaxDispatchWait},
	} {
		if o.value == "" {
			continue
		}
		d, err := time.ParseDuration(o.value)
		if err != nil {
			return nil, fmt.Errorf("settings: %w", err)
		}
		opts = append(opts, o.apply(d))
	}
	return opts, nil
}

func buildTask(ownerID int64, in TaskInput) (reminder.Task, error) {
	amount := decimal.Zero
	if in.Amount != "" {
		d, err := decimal.NewFromString(in.Amount)
		if err != nil {
			return reminder.Task{}, fmt.Errorf("task %d: amount: %w", in.ID, err)
		}
		amount = d
	}
	status := reminder.TaskStatus(in.Status)
	if status == "" {
		status = reminder.TaskPending
	}
	return reminder.Task{
		ID:       in.ID,
		OwnerID:  ownerID,
		Title:    in.Title,
		Amount:   amount,
		Category: in.Category,
		Status:   status,
	}, nil
}

func (h *Harness) buildReminder(in ReminderInput) (reminder.Reminder, error) {
	at, err := resolveAt(in.At, h.clock.Now())
	if err != nil {
		return reminder.Reminder{}, err
	}
	return reminder.Reminder{
		OwnerID:     h.scenario.Owner.ID,
		Title:       in.Title,
		Description: in.Description,
		TriggerTime: at,
		TaskID:      in.Task,
	}, nil
}

func (h *Harness) track(r reminder.Reminder) {
	h.titles[r.ID] = r.Title
	h.ids = append(h.ids, r.ID)
}

// idForTitle returns the most recently created reminder with title.
func (h *Harness) idForTitle(title string) (int64, bool) {
	for i := len(h.ids) - 1; i >= 0; i-- {
		if h.titles[h.ids[i]] == title {
			return h.ids[i], true
		}
	}
	return 0, false
}

func (h *Harness) now() string {
	return h.clock.Now().UTC().Format(time.RFC3339)
}

func (h *Harness) execStep(ctx context.Context, step Step) error {
	switch {
	case step.Add != nil:
		return h.execAdd(ctx, *step.Add, step.Expect)
	case step.Seed != nil:
		r, err := h.buildReminder(*step.Seed)
		if err != nil {
			return err
		}
		r = h.store.Seed(r)
		h.track(r)
		h.result.addEvent(TraceEvent{At: h.now(), Kind: EventSeed, Title: r.Title, ReminderID: r.ID, Outcome: OutcomeOK})
		return nil
	case step.Delete != "":
		id, ok := h.idForTitle(step.Delete)
		if !ok {
			return fmt.Errorf("delete: unknown reminder %q", step.Delete)
		}
		h.store.Delete(id)
		h.result.addEvent(TraceEvent{At: h.now(), Kind: EventDelete, Title: step.Delete, ReminderID: id, Outcome: OutcomeOK})
		return nil
	case step.Refresh:
		outcome := OutcomeOK
		if err := h.engine.RefreshData(ctx); err != nil {
			outcome = OutcomePersistenceError
		}
		h.result.addEvent(TraceEvent{At: h.now(), Kind: EventRefresh, Outcome: outcome})
		h.expect("refresh", step.Expect, outcome)
		return nil
	case step.Advance != "":
		d, err := time.ParseDuration(step.Advance)
		if err != nil {
			return fmt.Errorf("advance: %w", err)
		}
		h.advance(ctx, d)
		return nil
	case step.Fail != "":
		return h.fault(step.Fail, ErrInjected)
	case step.Recover != "":
		return h.fault(step.Recover, nil)
	}
	return fmt.Errorf("step has no action")
}

func (h *Harness) execAdd(ctx context.Context, in ReminderInput, expect string) error {
	r, err := h.buildReminder(in)
	if err != nil {
		return err
	}

	event := TraceEvent{At: h.now(), Kind: EventAdd, Title: r.Title, Outcome: OutcomeOK}
	err = h.engine.AddReminder(ctx, &r)

	var verr *reminder.ValidationError
	var perr *engine.PersistenceError
	switch {
	case err == nil:
		event.ReminderID = r.ID
		h.track(r)
	case errors.As(err, &verr):
		event.Outcome = string(verr.Code)
	case errors.As(err, &perr):
		event.Outcome = OutcomePersistenceError
	default:
		return fmt.Errorf("add %q: %w", r.Title, err)
	}

	h.result.addEvent(event)
	h.expect(fmt.Sprintf("add %q", r.Title), expect, event.Outcome)
	return nil
}

func (h *Harness) expect(what, want, got string) {
	if want == "" {
		want = OutcomeOK
	}
	if want != got {
		h.result.AddError(fmt.Sprintf("%s: expected %s, got %s", what, want, got))
	}
}

// advance moves the clock forward by d, stopping at every instant the loop
// asks to be woken.
func (h *Harness) advance(ctx context.Context, d time.Duration) {
	target := h.clock.Now().Add(d)
	for {
		wake := h.engine.RunOnce(ctx)
		if wake.After(target) {
			break
		}
		h.clock.Set(wake)
	}
	h.clock.Set(target)
	h.engine.RunOnce(ctx)
}

func (h *Harness) fault(target string, err error) error {
	switch target {
	case FaultInsert:
		h.store.FailInserts(err)
	case FaultList:
		h.store.FailLists(err)
	case FaultLookup:
		h.store.FailLookups(err)
	case FaultSend:
		h.notifier.err = err
	default:
		return fmt.Errorf("unknown fault %q", target)
	}
	return nil
}

// finish records the final live set and the store's dispatch marks.
func (h *Harness) finish(ctx context.Context) {
	for _, r := range h.engine.GetAllReminders(ctx) {
		h.result.Pending = append(h.result.Pending, r.Title)
	}

	ids := append([]int64(nil), h.ids...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if h.store.Dispatched(id) {
			h.result.StoreDispatched = append(h.result.StoreDispatched, h.titles[id])
		}
	}
}

// traceNotifier records every send attempt as a dispatch event.
type traceNotifier struct {
	h   *Harness
	err error
}

func (n *traceNotifier) Send(_ context.Context, msg reminder.Notification) error {
	event := TraceEvent{
		At:         n.h.now(),
		Kind:       EventDispatch,
		Title:      n.h.titles[msg.ReminderID],
		ReminderID: msg.ReminderID,
		Outcome:    OutcomeOK,
		Recipient:  msg.Recipient,
		Body:       msg.Body,
	}
	if n.err != nil {
		event.Outcome = OutcomeSendFailed
	}
	n.h.result.addEvent(event)
	return n.err
}
