package feed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanguard-load/vanguard/pkg/model"
)

func writeCSV(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestCSVFeeder_CyclesRoundRobin(t *testing.T) {
	path := writeCSV(t, "user,pass\nalice,a1\nbob,b2\n")
	f, err := NewCSVFeeder(path)
	require.NoError(t, err)

	r1 := f.Next()
	r2 := f.Next()
	r3 := f.Next()

	assert.Equal(t, "alice", r1["user"])
	assert.Equal(t, "bob", r2["user"])
	assert.Equal(t, "alice", r3["user"])
}

func TestCSVFeeder_RejectsEmptyData(t *testing.T) {
	path := writeCSV(t, "user,pass\n")
	_, err := NewCSVFeeder(path)
	assert.Error(t, err)
}

func TestCSVFeeder_RejectsEmptyHeaderField(t *testing.T) {
	path := writeCSV(t, "user,\nalice,a1\n")
	_, err := NewCSVFeeder(path)
	assert.Error(t, err)
}

func TestSet_ApplyNamespacesVariables(t *testing.T) {
	path := writeCSV(t, "user,pass\nalice,a1\n")
	set, err := Load([]model.DataSource{{Name: "creds", Path: path}})
	require.NoError(t, err)

	vars := map[string]string{}
	set.Apply(vars)
	assert.Equal(t, "alice", vars["creds.user"])
	assert.Equal(t, "a1", vars["creds.pass"])
}
