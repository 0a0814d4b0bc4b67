package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *Result {
	r := NewResult()
	r.addEvent(TraceEvent{Kind: EventAdd, Title: "Rent", ReminderID: 1, Outcome: OutcomeOK})
	r.addEvent(TraceEvent{Kind: EventDispatch, Title: "Gas", ReminderID: 2, Outcome: OutcomeSendFailed})
	r.addEvent(TraceEvent{Kind: EventDispatch, Title: "Rent", ReminderID: 1, Outcome: OutcomeOK, Body: "NOTIFICATION: Reminder: Rent"})
	r.Pending = []string{"Water"}
	r.StoreDispatched = []string{"Rent", "Gas"}
	return r
}

func TestEvaluateAssertions_Pass(t *testing.T) {
	errs := EvaluateAssertions(sampleResult(), []Assertion{
		{Type: AssertDispatchOrder, Titles: []string{"Rent"}},
		{Type: AssertDispatchCount, Count: 1},
		{Type: AssertDispatchCount, Title: "Gas", Count: 0},
		{Type: AssertPending, Titles: []string{"Water"}},
		{Type: AssertBodyContains, Title: "Rent", Text: "Reminder: Rent"},
		{Type: AssertStoreDispatched, Title: "Gas"},
	})
	assert.Empty(t, errs)
}

func TestEvaluateAssertions_Failures(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		want      string
	}{
		{"order", Assertion{Type: AssertDispatchOrder, Titles: []string{"Gas", "Rent"}}, `Expected: ["Gas" "Rent"]`},
		{"count", Assertion{Type: AssertDispatchCount, Title: "Rent", Count: 2}, `2 dispatches of "Rent"`},
		{"pending", Assertion{Type: AssertPending, Titles: []string{}}, `Actual: ["Water"]`},
		{"body mismatch", Assertion{Type: AssertBodyContains, Title: "Rent", Text: "Task:"}, `to contain "Task:"`},
		{"body missing", Assertion{Type: AssertBodyContains, Title: "Gas", Text: "x"}, "Actual: none"},
		{"store", Assertion{Type: AssertStoreDispatched, Title: "Water"}, `"Water" marked dispatched`},
		{"unknown", Assertion{Type: "bogus"}, `unknown assertion type "bogus"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(sampleResult(), []Assertion{tt.assertion})
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.want)
		})
	}
}

func TestAssertionError_IncludesTrace(t *testing.T) {
	err := &AssertionError{
		Type:     AssertPending,
		Expected: "[]",
		Actual:   `["Water"]`,
		Trace:    sampleResult().Trace,
	}
	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: pending")
	assert.Contains(t, msg, `[3]  dispatch ok "Rent"`)
}

func TestResult_AddError(t *testing.T) {
	r := NewResult()
	require.True(t, r.Pass)
	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}
