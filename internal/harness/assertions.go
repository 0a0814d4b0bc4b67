package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	// Full trace for context
	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s %s %s %q\n", event.Seq, event.At, event.Kind, event.Outcome, event.Title)
	}

	return buf.String()
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertDispatchOrder:
			err = assertDispatchOrder(result, assertion)
		case AssertDispatchCount:
			err = assertDispatchCount(result, assertion)
		case AssertPending:
			err = assertPending(result, assertion)
		case AssertBodyContains:
			err = assertBodyContains(result, assertion)
		case AssertStoreDispatched:
			err = assertStoreDispatched(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	return errs
}

func deliveredTitles(result *Result) []string {
	titles := []string{}
	for _, e := range result.Delivered() {
		titles = append(titles, e.Title)
	}
	return titles
}

// assertDispatchOrder checks the exact sequence of delivered titles.
func assertDispatchOrder(result *Result, a Assertion) error {
	got := deliveredTitles(result)
	if slices.Equal(got, a.Titles) {
		return nil
	}
	return &AssertionError{
		Type:     AssertDispatchOrder,
		Expected: fmt.Sprintf("%q", a.Titles),
		Actual:   fmt.Sprintf("%q", got),
		Trace:    result.Trace,
	}
}

// assertDispatchCount counts deliveries, optionally of one title.
func assertDispatchCount(result *Result, a Assertion) error {
	count := 0
	for _, title := range deliveredTitles(result) {
		if a.Title == "" || title == a.Title {
			count++
		}
	}
	if count == a.Count {
		return nil
	}

	expected := fmt.Sprintf("%d dispatches", a.Count)
	if a.Title != "" {
		expected += fmt.Sprintf(" of %q", a.Title)
	}
	return &AssertionError{
		Type:     AssertDispatchCount,
		Expected: expected,
		Actual:   fmt.Sprintf("%d", count),
		Trace:    result.Trace,
	}
}

// assertPending checks the final live set, in trigger order.
func assertPending(result *Result, a Assertion) error {
	if slices.Equal(result.Pending, a.Titles) {
		return nil
	}
	return &AssertionError{
		Type:     AssertPending,
		Expected: fmt.Sprintf("%q", a.Titles),
		Actual:   fmt.Sprintf("%q", result.Pending),
		Trace:    result.Trace,
	}
}

// assertBodyContains checks the first delivered notification for a title.
func assertBodyContains(result *Result, a Assertion) error {
	for _, e := range result.Delivered() {
		if e.Title != a.Title {
			continue
		}
		if strings.Contains(e.Body, a.Text) {
			return nil
		}
		return &AssertionError{
			Type:     AssertBodyContains,
			Expected: fmt.Sprintf("body of %q to contain %q", a.Title, a.Text),
			Actual:   fmt.Sprintf("%q", e.Body),
			Trace:    result.Trace,
		}
	}
	return &AssertionError{
		Type:     AssertBodyContains,
		Expected: fmt.Sprintf("a delivered notification for %q", a.Title),
		Actual:   "none",
		Trace:    result.Trace,
	}
}

// assertStoreDispatched checks the store marked a title dispatched.
func assertStoreDispatched(result *Result, a Assertion) error {
	if slices.Contains(result.StoreDispatched, a.Title) {
		return nil
	}
	return &AssertionError{
		Type:     AssertStoreDispatched,
		Expected: fmt.Sprintf("%q marked dispatched", a.Title),
		Actual:   fmt.Sprintf("%q", result.StoreDispatched),
		Trace:    result.Trace,
	}
}
