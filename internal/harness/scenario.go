package harness

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/balanza/internal/reminder"
)

// DefaultStart is the fake clock start when a scenario does not set one.
var DefaultStart = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// Scenario defines a scripted engine run.
type Scenario struct {
	// Name uniquely identifies this scenario (and its golden file).
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Start is the fake clock's initial reading (RFC 3339).
	Start string `yaml:"start,omitempty"`

	// Owner is the engine's owner and notification recipient.
	Owner Owner `yaml:"owner"`

	// Settings override engine timing.
	Settings Settings `yaml:"settings,omitempty"`

	// Tasks are financial tasks reminders may link to.
	Tasks []TaskInput `yaml:"tasks,omitempty"`

	// Reminders are in the store before the engine is constructed.
	Reminders []ReminderInput `yaml:"reminders,omitempty"`

	// Steps run in order after construction.
	Steps []Step `yaml:"steps"`

	// Assertions validate the trace and final state.
	Assertions []Assertion `yaml:"assertions"`
}

// Owner identifies who the engine schedules for.
type Owner struct {
	ID    int64  `yaml:"id"`
	Email string `yaml:"email"`
}

// Settings are optional engine timing overrides (Go durations).
type Settings struct {
	RefreshInterval string `yaml:"refresh_interval,omitempty"`
	EmptyPoll       string `yaml:"empty_poll,omitempty"`
	MaxDispatchWait string `yaml:"max_dispatch_wait,omitempty"`
}

// TaskInput describes a seeded financial task.
type TaskInput struct {
	ID       int64  `yaml:"id"`
	Title    string `yaml:"title"`
	Amount   string `yaml:"amount,omitempty"`
	Category string `yaml:"category,omitempty"`
	Status   string `yaml:"status,omitempty"`
}

// ReminderInput describes a reminder to add or seed.
type ReminderInput struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	At          string `yaml:"at"`
	Task        *int64 `yaml:"task,omitempty"`
}

// Step is one scenario action. Exactly one action field must be set.
type Step struct {
	Add     *ReminderInput `yaml:"add,omitempty"`
	Seed    *ReminderInput `yaml:"seed,omitempty"`
	Delete  string         `yaml:"delete,omitempty"`
	Refresh bool           `yaml:"refresh,omitempty"`
	Advance string         `yaml:"advance,omitempty"`
	Fail    string         `yaml:"fail,omitempty"`
	Recover string         `yaml:"recover,omitempty"`

	// Expect is the outcome of an add or refresh step (default ok).
	Expect string `yaml:"expect,omitempty"`
}

// Fault targets for fail and recover steps.
const (
	FaultInsert = "insert"
	FaultList   = "list"
	FaultLookup = "lookup"
	FaultSend   = "send"
)

// Assertion validates the trace or final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Titles is the expected sequence (dispatch_order, pending).
	Titles []string `yaml:"titles,omitempty"`

	// Title selects one reminder (dispatch_count, body_contains, store_dispatched).
	Title string `yaml:"title,omitempty"`

	// Count is the expected number of dispatches (dispatch_count).
	Count int `yaml:"count,omitempty"`

	// Text must appear in the notification body (body_contains).
	Text string `yaml:"text,omitempty"`
}

// Assertion type constants.
const (
	AssertDispatchOrder   = "dispatch_order"
	AssertDispatchCount   = "dispatch_count"
	AssertPending         = "pending"
	AssertBodyContains    = "body_contains"
	AssertStoreDispatched = "store_dispatched"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Owner.ID <= 0 {
		return fmt.Errorf("owner.id must be positive")
	}
	if s.Start != "" {
		if _, err := time.Parse(time.RFC3339, s.Start); err != nil {
			return fmt.Errorf("start: %w", err)
		}
	}
	for name, d := range map[string]string{
		"refresh_interval":  s.Settings.RefreshInterval,
		"empty_poll":        s.Settings.EmptyPoll,
		"max_dispatch_wait": s.Settings.MaxDispatchWait,
	} {
		if d == "" {
			continue
		}
		if v, err := time.ParseDuration(d); err != nil || v <= 0 {
			return fmt.Errorf("settings.%s: invalid duration %q", name, d)
		}
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, t := range s.Tasks {
		if t.ID <= 0 || t.Title == "" {
			return fmt.Errorf("tasks[%d]: id and title are required", i)
		}
		if t.Status != "" && !reminder.ValidTaskStatuses[reminder.TaskStatus(t.Status)] {
			return fmt.Errorf("tasks[%d]: invalid status %q", i, t.Status)
		}
	}
	for i, r := range s.Reminders {
		if err := validateReminderInput(r); err != nil {
			return fmt.Errorf("reminders[%d]: %w", i, err)
		}
	}
	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateReminderInput(r ReminderInput) error {
	if r.At == "" {
		return fmt.Errorf("at is required")
	}
	if _, err := resolveAt(r.At, DefaultStart); err != nil {
		return err
	}
	return nil
}

func validateStep(s Step) error {
	actions := 0
	for _, set := range []bool{s.Add != nil, s.Seed != nil, s.Delete != "", s.Refresh, s.Advance != "", s.Fail != "", s.Recover != ""} {
		if set {
			actions++
		}
	}
	if actions != 1 {
		return fmt.Errorf("exactly one action is required, got %d", actions)
	}
	if s.Expect != "" && s.Add == nil && !s.Refresh {
		return fmt.Errorf("expect is only valid on add and refresh steps")
	}

	switch {
	case s.Add != nil:
		return validateReminderInput(*s.Add)
	case s.Seed != nil:
		return validateReminderInput(*s.Seed)
	case s.Advance != "":
		d, err := time.ParseDuration(s.Advance)
		if err != nil || d < 0 {
			return fmt.Errorf("advance: invalid duration %q", s.Advance)
		}
	case s.Fail != "":
		return validateFault(s.Fail)
	case s.Recover != "":
		return validateFault(s.Recover)
	}
	return nil
}

func validateFault(f string) error {
	switch f {
	case FaultInsert, FaultList, FaultLookup, FaultSend:
		return nil
	default:
		return fmt.Errorf("unknown fault %q", f)
	}
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("type is required")
	case AssertDispatchOrder, AssertPending:
		if a.Titles == nil {
			return fmt.Errorf("titles is required for %s (use [] for none)", a.Type)
		}
	case AssertDispatchCount:
		if a.Count < 0 {
			return fmt.Errorf("count must be non-negative for dispatch_count")
		}
	case AssertBodyContains:
		if a.Title == "" || a.Text == "" {
			return fmt.Errorf("title and text are required for body_contains")
		}
	case AssertStoreDispatched:
		if a.Title == "" {
			return fmt.Errorf("title is required for store_dispatched")
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

// resolveAt parses an RFC 3339 instant or a signed offset from now.
func resolveAt(at string, now time.Time) (time.Time, error) {
	if strings.HasPrefix(at, "+") || strings.HasPrefix(at, "-") {
		d, err := time.ParseDuration(at)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid offset %q: %w", at, err)
		}
		return now.Add(d), nil
	}
	t, err := time.Parse(time.RFC3339, at)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", at, err)
	}
	return t, nil
}
