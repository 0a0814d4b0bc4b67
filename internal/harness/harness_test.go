package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

func TestRun_Scenarios(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			s, err := LoadScenario(file)
			require.NoError(t, err)

			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_StoreOutageTrace(t *testing.T) {
	result, err := Run(loadTestScenario(t, "store_outage"))
	require.NoError(t, err)
	require.True(t, result.Pass, "errors: %v", result.Errors)

	var kinds, outcomes []string
	for _, e := range result.Trace {
		kinds = append(kinds, e.Kind)
		outcomes = append(outcomes, e.Outcome)
	}
	assert.Equal(t,
		[]string{EventAdd, EventAdd, EventRefresh, EventSeed, EventDispatch, EventRefresh, EventDispatch},
		kinds)
	assert.Equal(t,
		[]string{OutcomeOK, OutcomePersistenceError, OutcomePersistenceError, OutcomeOK, OutcomeSendFailed, OutcomeOK, OutcomeOK},
		outcomes)

	failed := result.Trace[4]
	assert.Equal(t, "Electricity", failed.Title)
	assert.Equal(t, "2026-03-01T09:10:00Z", failed.At)

	delivered := result.Delivered()
	require.Len(t, delivered, 1)
	assert.Equal(t, "Internet", delivered[0].Title)
	assert.Equal(t, "2026-03-01T09:15:00Z", delivered[0].At)
	assert.Equal(t, "ops@example.com", delivered[0].Recipient)

	assert.Equal(t, []string{"Electricity", "Internet"}, result.StoreDispatched)
}

func TestRun_ExpectationMismatchFails(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: wrong_expectation
description: "An add expected to fail succeeds"
owner: { id: 1, email: owner@example.com }
steps:
  - add: { title: Valid title, at: "+1h" }
    expect: TRIGGER_IN_PAST
assertions:
  - type: pending
    titles: [Valid title]
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected TRIGGER_IN_PAST, got ok")
}

func TestRun_PastTriggerRejected(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: past_trigger
description: "A trigger before now is rejected and never queued"
owner: { id: 1, email: owner@example.com }
steps:
  - add: { title: Too late, at: "-1m" }
    expect: TRIGGER_IN_PAST
  - add: { title: Right now, at: "+0s" }
  - advance: 1s
assertions:
  - type: dispatch_order
    titles: [Right now]
  - type: pending
    titles: []
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_LookupFailureConsumesReminder(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: lookup_failure
description: "A reminder whose recipient cannot be resolved is dropped"
owner: { id: 1, email: owner@example.com }
steps:
  - add: { title: Lost reminder, at: "+1m" }
  - add: { title: Found reminder, at: "+3m" }
  - fail: lookup
  - advance: 2m
  - recover: lookup
  - advance: 2m
assertions:
  - type: dispatch_order
    titles: [Found reminder]
  - type: store_dispatched
    title: Lost reminder
  - type: pending
    titles: []
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_NoEmailMeansNoDelivery(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: no_email
description: "An owner without an e-mail never receives notifications"
owner: { id: 4 }
steps:
  - add: { title: Unreachable, at: "+1m" }
  - advance: 5m
assertions:
  - type: dispatch_count
    count: 0
  - type: pending
    titles: []
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_UnknownDeleteTitle(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: bad_delete
description: "Deleting an unknown title aborts the run"
owner: { id: 1, email: owner@example.com }
steps:
  - delete: Nothing here
assertions:
  - type: dispatch_count
    count: 0
`))
	require.NoError(t, err)

	_, err = Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown reminder")
}

func TestRun_Deterministic(t *testing.T) {
	s := loadTestScenario(t, "pay_rent")

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
}
