package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/forensiq/internal/store"
)

const ballisticsScript = `
scenario: module3
steps:
  - fire: [3, 1, 0]
  - fire: [0, 1, 0]
  - pose:
      bullet.test: {position: [2.15, 1, 0]}
      bullet.evidence: {position: [2.65, 1, 0]}
    wait: 200ms
  - press: image-1
  - press: both-images
  - press: image-2
  - press: match
expect:
  passed: true
  reason: completed
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv(store.DBEnvVar, "")

	resetFlags(rootCmd)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// resetFlags restores defaults since rootCmd keeps flag values between
// executions.
func resetFlags(c *cobra.Command) {
	for _, fs := range []*pflag.FlagSet{c.Flags(), c.PersistentFlags()} {
		fs.VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func TestValidate_Builtins(t *testing.T) {
	out, err := execute(t, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ module1: Crime Scene Photography, 3 tasks")
	assert.Contains(t, out, "✓ module3: Firearms Examination, 3 tasks")
}

func TestValidate_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: broken\ntasks: []\n"), 0o644))

	out, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 scenarios invalid")
	assert.Contains(t, out, "✗ "+path)
}

func TestRun_SavesSessionAndListsHistory(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "forensiq.db")
	script := filepath.Join(dir, "ballistics.yaml")
	require.NoError(t, os.WriteFile(script, []byte(ballisticsScript), 0o644))

	out, err := execute(t, "run", script, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Firearms Examination (completed)")
	assert.Contains(t, out, "Saved session")

	st, err := store.Open(db)
	require.NoError(t, err)
	sessions, err := st.ListSessions(context.Background(), store.QueryOpts{})
	require.NoError(t, err)
	require.NoError(t, st.Close())
	require.Len(t, sessions, 1)
	assert.True(t, sessions[0].Passed)

	out, err = execute(t, "history", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Firearms Examination")
	assert.Contains(t, out, sessions[0].ID)

	out, err = execute(t, "history", "show", sessions[0].ID, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "REPORT")
	assert.Contains(t, out, "Task1")

	out, err = execute(t, "history", "stats", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Firearms Examination")
}

func TestRun_UnmetExpectation(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "short.yaml")
	require.NoError(t, os.WriteFile(script, []byte("scenario: module3\nsteps:\n  - fire: [0, 1, 0]\nexpect:\n  passed: true\n"), 0o644))

	out, err := execute(t, "run", script, "--no-save")
	require.Error(t, err)
	assert.Contains(t, out, "Unmet expectations:")
	assert.Contains(t, out, "passed false, want true")
}

func TestLLMList_Empty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "forensiq.db")
	out, err := execute(t, "llm", "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No LLM requests found.")
}
