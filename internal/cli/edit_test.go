package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cliEnv points every command at the same temp database and a config file
// that does not exist, so defaults apply.
type cliEnv struct {
	db     string
	config string
}

func newCLIEnv(t *testing.T) cliEnv {
	t.Helper()
	dir := t.TempDir()
	return cliEnv{
		db:     filepath.Join(dir, "data", "deckcfg.db"),
		config: filepath.Join(dir, "config.toml"),
	}
}

func (c cliEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(append([]string{"--db", c.db, "--config", c.config}, args...))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func (c cliEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, errOut, err := c.run(t, args...)
	require.NoError(t, err, "stdout: %s\nstderr: %s", out, errOut)
	return out
}

// decodeData unmarshals the data field of a JSON response into v.
func decodeData(t *testing.T, out string, v any) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	require.Equal(t, "ok", resp.Status)
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

func TestShow_Defaults(t *testing.T) {
	env := newCLIEnv(t)

	var view ShowView
	decodeData(t, env.mustRun(t, "--format", "json", "show"), &view)

	assert.Equal(t, SettingsView{Groups: 4, Slots: 6, Theme: "light", Variant: "default"}, view.Settings)
	require.Len(t, view.Groups, 4)
	assert.Equal(t, "Group 1", view.Groups[0].Key)
	assert.Empty(t, view.Groups[0].Members)
	assert.ElementsMatch(t, []string{"Chrome", "Spotify", "Discord", "Visual Studio", "OBS"}, view.Pool)
	assert.Len(t, view.Slots, 6)
	assert.Empty(t, view.Bindings)
}

func TestShow_Text(t *testing.T) {
	env := newCLIEnv(t)
	out := env.mustRun(t, "show")

	assert.Contains(t, out, "Settings: groups=4 slots=6 theme=light variant=default")
	assert.Contains(t, out, "Group 1: -")
	assert.Contains(t, out, "setting-1: -")
	assert.Contains(t, out, "(no bindings)")
}

func TestSettings_PersistAcrossRuns(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustRun(t, "settings", "--groups", "2", "--theme", "dark")
	assert.Contains(t, out, "groups=2 slots=6 theme=dark variant=default")

	var view SettingsView
	decodeData(t, env.mustRun(t, "--format", "json", "settings"), &view)
	assert.Equal(t, SettingsView{Groups: 2, Slots: 6, Theme: "dark", Variant: "default"}, view)
}

func TestSettings_Rejected(t *testing.T) {
	env := newCLIEnv(t)

	out, _, err := env.run(t, "--format", "json", "settings", "--groups", "11")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "OUT_OF_RANGE", resp.Error.Code)

	var view SettingsView
	decodeData(t, env.mustRun(t, "--format", "json", "settings"), &view)
	assert.Equal(t, 4, view.Groups)
}

func TestRenameAndMove(t *testing.T) {
	env := newCLIEnv(t)

	env.mustRun(t, "rename", "Group 2", "Streaming")
	env.mustRun(t, "move", "Spotify", "--to", "Group 2")

	var view ShowView
	decodeData(t, env.mustRun(t, "--format", "json", "show"), &view)
	assert.Equal(t, GroupView{Key: "Group 2", Name: "Streaming", Members: []string{"Spotify"}}, view.Groups[1])
	assert.NotContains(t, view.Pool, "Spotify")

	env.mustRun(t, "move", "Spotify", "--from", "Group 2", "--to", "pool")
	decodeData(t, env.mustRun(t, "--format", "json", "show"), &view)
	assert.Empty(t, view.Groups[1].Members)
	assert.Contains(t, view.Pool, "Spotify")
}

func TestRename_DuplicateName(t *testing.T) {
	env := newCLIEnv(t)

	_, _, err := env.run(t, "rename", "Group 2", "group 1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestBindSlotPress(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustRun(t, "bind", "add", "ctrl+k", "open_search")
	assert.Contains(t, out, "Ctrl+K")
	assert.Contains(t, out, "open_search")

	_, _, err := env.run(t, "bind", "add", "Ctrl+K", "other")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var slot SlotView
	decodeData(t, env.mustRun(t, "--format", "json", "slot", "1", "open_search"), &slot)
	assert.Equal(t, 1, slot.Ordinal)
	assert.Equal(t, "open_search", slot.Action)
	assert.NotEmpty(t, slot.Binding)

	var press PressResult
	decodeData(t, env.mustRun(t, "--format", "json", "press", "ctrl+k"), &press)
	assert.Equal(t, PressResult{Chord: "Ctrl+K", Action: "open_search", Fired: true}, press)

	assert.Equal(t, "ctrl+j: no binding\n", env.mustRun(t, "press", "ctrl+j"))

	env.mustRun(t, "bind", "rm", "open_search")
	assert.Equal(t, "(no bindings)\n", env.mustRun(t, "bind", "ls"))

	var view ShowView
	decodeData(t, env.mustRun(t, "--format", "json", "show"), &view)
	assert.Empty(t, view.Slots[0].Binding)
}

func TestSlot_InvalidOrdinal(t *testing.T) {
	env := newCLIEnv(t)

	_, _, err := env.run(t, "slot", "one")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, _, err = env.run(t, "slot", "9")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestHistory(t *testing.T) {
	env := newCLIEnv(t)

	assert.Equal(t, "(no revisions)\n", env.mustRun(t, "history"))

	env.mustRun(t, "settings", "--slots", "3")
	env.mustRun(t, "bind", "add", "alt+m", "mute")

	var view HistoryView
	decodeData(t, env.mustRun(t, "--format", "json", "history", "binds"), &view)
	require.Len(t, view, 1)
	assert.Equal(t, "binds", view[0].Document)
	assert.NotEmpty(t, view[0].Revision)
	assert.Positive(t, view[0].Size)

	decodeData(t, env.mustRun(t, "--format", "json", "history"), &view)
	assert.GreaterOrEqual(t, len(view), 2)

	_, _, err := env.run(t, "history", "other")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRename_ReportsGroup(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "move", "OBS", "--to", "Group 3")

	var group GroupView
	decodeData(t, env.mustRun(t, "--format", "json", "rename", "Group 3", "Capture"), &group)
	assert.Equal(t, GroupView{Key: "Group 3", Name: "Capture", Members: []string{"OBS"}}, group)
}
