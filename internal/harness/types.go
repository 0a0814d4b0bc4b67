package harness

// Trace event kinds.
const (
	EventAdd      = "add"
	EventSeed     = "seed"
	EventDelete   = "delete"
	EventRefresh  = "refresh"
	EventDispatch = "dispatch"
)

// Outcomes recorded on trace events besides validation codes.
const (
	OutcomeOK               = "ok"
	OutcomePersistenceError = "persistence_error"
	OutcomeSendFailed       = "send_failed"
)

// TraceEvent is one observable step of a scenario run.
type TraceEvent struct {
	Seq        int    `json:"seq"`
	At         string `json:"at"` // fake clock, RFC 3339
	Kind       string `json:"kind"`
	Title      string `json:"title,omitempty"`
	ReminderID int64  `json:"reminder_id,omitempty"`
	Outcome    string `json:"outcome"`
	Recipient  string `json:"recipient,omitempty"`
	Body       string `json:"body,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace lists events in the order they happened.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation and assertion failures.
	Errors []string `json:"errors,omitempty"`

	// Pending is the engine's live set at the end of the run, by title.
	Pending []string `json:"pending"`

	// StoreDispatched lists, in ID order, the titles the store marked dispatched.
	StoreDispatched []string `json:"store_dispatched"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:            true,
		Trace:           []TraceEvent{},
		Errors:          []string{},
		Pending:         []string{},
		StoreDispatched: []string{},
	}
}

// AddError adds a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// addEvent appends e with the next sequence number.
func (r *Result) addEvent(e TraceEvent) {
	e.Seq = len(r.Trace) + 1
	r.Trace = append(r.Trace, e)
}

// Delivered returns the dispatch events whose send succeeded.
func (r *Result) Delivered() []TraceEvent {
	var out []TraceEvent
	for _, e := range r.Trace {
		if e.Kind == EventDispatch && e.Outcome == OutcomeOK {
			out = append(out, e)
		}
	}
	return out
}
