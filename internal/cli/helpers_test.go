package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/balanza/internal/store"
)

// testDB creates a database with one user and returns its path and the user id.
func testDB(t *testing.T) (string, int64) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "balanza.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	id, err := st.InsertUser(context.Background(), "owner@example.com", "Owner")
	require.NoError(t, err)
	return path, id
}

// execute runs the root command with args and returns stdout and the error.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func ownerArg(id int64) string {
	return strconv.FormatInt(id, 10)
}
