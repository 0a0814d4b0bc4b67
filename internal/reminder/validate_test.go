package reminder

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func TestValidate_TitleBoundaries(t *testing.T) {
	tests := []struct {
		name  string
		title string
		valid bool
	}{
		{"empty", "", false},
		{"length 2", "ab", false},
		{"length 3", "abc", true},
		{"length 50", strings.Repeat("x", 50), true},
		{"length 51", strings.Repeat("x", 51), false},
		{"multibyte counts characters", "ééé", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Reminder{Title: tt.title, TriggerTime: testNow.Add(time.Hour)}
			err := Validate(r, testNow)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, ErrCodeTitleLength, ve.Code)
			assert.Equal(t, "title", ve.Field)
		})
	}
}

func TestValidate_TriggerBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		trigger time.Time
		code    ValidationErrorCode
	}{
		{"equal to now accepted", testNow, ""},
		{"future accepted", testNow.Add(time.Second), ""},
		{"one second ago rejected", testNow.Add(-time.Second), ErrCodeTriggerInPast},
		{"zero rejected", time.Time{}, ErrCodeTriggerMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(Reminder{Title: "Pay rent", TriggerTime: tt.trigger}, testNow)
			if tt.code == "" {
				assert.NoError(t, err)
				assert.True(t, Valid(Reminder{Title: "Pay rent", TriggerTime: tt.trigger}, testNow))
				return
			}
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.code, ve.Code)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestTitleLength_NormalizesDecomposedForms(t *testing.T) {
	// "e" + combining acute accent composes to a single character under NFC.
	decomposed := "cafe\u0301"
	assert.Equal(t, 4, TitleLength(decomposed))
	assert.Equal(t, 4, TitleLength("caf\u00e9"))
}

func TestReminderString(t *testing.T) {
	r := Reminder{Title: "Pay rent", TriggerTime: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)}
	assert.Equal(t, "Reminder: Pay rent at 2026-03-01 09:30 UTC", r.String())
	assert.False(t, r.Persisted())
}

func TestTaskString(t *testing.T) {
	task := Task{Title: "Rent", Amount: mustDecimal(t, "1200"), Status: TaskPending}
	assert.Equal(t, "Rent - $1200.00 (PENDING)", task.String())
}
