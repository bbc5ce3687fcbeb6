package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "ledgerkeep.yaml")
	content := "tenant_id: acme\nuser_id: user-1\nstore_path: " + filepath.Join(dir, "test.db") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRoot_RejectsInvalidFormat(t *testing.T) {
	_, err := execute(t, "--format", "xml", "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestStatus_FreshTenant(t *testing.T) {
	out, err := execute(t, "-c", tempConfig(t), "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Tenant: acme")
	assert.Contains(t, out, "No snapshot persisted yet.")
	assert.Contains(t, out, "Queued items: 0")
}

func TestStatus_JSONFormat(t *testing.T) {
	out, err := execute(t, "-c", tempConfig(t), "--format", "json", "status")
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestQueueList_Empty(t *testing.T) {
	out, err := execute(t, "-c", tempConfig(t), "queue", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Queue is empty.")
}

func TestQueuePrune_RequiresEntityShape(t *testing.T) {
	_, err := execute(t, "-c", tempConfig(t), "queue", "prune", "--entity", "malformed")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestReconcile_FailsWithoutRemote(t *testing.T) {
	_, err := execute(t, "-c", tempConfig(t), "reconcile")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no remote configured")
}

func TestExitError_Codes(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "boom")))
	assert.Equal(t, ExitFailure, GetExitCode(assert.AnError))
}
