package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, f.Success(map[string]int{"removed": 3}, func(io.Writer) {
		t.Fatal("text renderer must not run in json mode")
	}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
	assert.Contains(t, buf.String(), `"removed":3`)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, f.Success(nil, func(w io.Writer) {
		fmt.Fprintln(w, "Pruned 3")
	}))
	assert.Equal(t, "Pruned 3\n", buf.String())
}

func TestOutputFormatter_JSONErrorGoesToWriter(t *testing.T) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	f := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut}

	require.NoError(t, f.Error("TITLE_LENGTH", "reminder rejected", map[string]string{"field": "title"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "TITLE_LENGTH", resp.Error.Code)
	assert.Equal(t, "reminder rejected", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
	assert.Empty(t, errOut.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	tests := []struct {
		name        string
		verbose     bool
		wantDetails bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
			f := &OutputFormatter{Format: "text", Writer: out, ErrWriter: errOut, Verbose: tt.verbose}

			require.NoError(t, f.Error("TRIGGER_IN_PAST", "trigger in past", map[string]string{"field": "trigger_time"}))

			assert.Empty(t, out.String())
			assert.Contains(t, errOut.String(), "Error [TRIGGER_IN_PAST]: trigger in past")
			if tt.wantDetails {
				assert.Contains(t, errOut.String(), "Details:")
			} else {
				assert.NotContains(t, errOut.String(), "Details:")
			}
		})
	}
}

func TestOutputFormatter_TextErrorFallsBackToWriter(t *testing.T) {
	out := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: out}

	require.NoError(t, f.Error("NOT_FOUND", "owner not found", nil))
	assert.Contains(t, out.String(), "Error [NOT_FOUND]")
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad config")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))

	wrapped := fmt.Errorf("outer: %w", WrapExitError(ExitCommandError, "db", errors.New("locked")))
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
	assert.EqualError(t, WrapExitError(ExitFailure, "invalid reminder", errors.New("TITLE_LENGTH")), "invalid reminder: TITLE_LENGTH")
}
