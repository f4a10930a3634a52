package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/deckcfg/internal/model"
)

func TestScenarios_Golden(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)
			require.NoError(t, RunWithGolden(t, scenario))
		})
	}
}

func TestRun_UnexpectedErrorFails(t *testing.T) {
	scenario := &Scenario{
		Name:        "unexpected",
		Description: "rename of a missing group",
		Steps:       []Step{{Op: OpRename, Group: "Group 9", Name: "X"}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Steps, 1)
	assert.Equal(t, string(model.ReasonUnknownGroup), result.Steps[0].Reason)
	assert.Contains(t, result.Errors[0], "unexpected error")
}

func TestRun_ExpectedErrorThatDoesNotHappen(t *testing.T) {
	scenario := &Scenario{
		Name:        "missing_failure",
		Description: "a valid rename marked as failing",
		Steps:       []Step{{Op: OpRename, Group: "Group 1", Name: "Music", ExpectError: "DUPLICATE_NAME"}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "got success")
}

func TestRun_WrongReason(t *testing.T) {
	scenario := &Scenario{
		Name:        "wrong_reason",
		Description: "empty name reported as duplicate",
		Steps:       []Step{{Op: OpRename, Group: "Group 1", Name: " ", ExpectError: "DUPLICATE_NAME"}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expected DUPLICATE_NAME")
}

func TestRun_FailedAssertionIncludesSteps(t *testing.T) {
	scenario := &Scenario{
		Name:        "failing_assertion",
		Description: "pool is not what the assertion claims",
		Apps:        []string{"Spotify"},
		Steps:       []Step{{Op: OpMove, App: "Spotify", From: "pool", To: "Group 1"}},
		Assertions:  []Assertion{{Type: AssertPool, Apps: []string{"Spotify"}}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Assertion failed: pool")
	assert.Contains(t, result.Errors[0], "[0] move")
}

func TestRun_DocumentsOnlyForTouchedStreams(t *testing.T) {
	scenario := &Scenario{
		Name:        "bindings_only",
		Description: "adding a binding saves only the bindings document",
		Steps:       []Step{{Op: OpAddBinding, Combo: "alt+m", Action: "mute"}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.True(t, result.Pass, result.Errors)

	assert.Contains(t, result.Documents, model.DocBindings)
	assert.NotContains(t, result.Documents, model.DocConfiguration)
	assert.Contains(t, string(result.Documents[model.DocBindings]), `"combo": "Alt+M"`)
}

func TestSlotMatches(t *testing.T) {
	bindings := []model.Binding{{ID: "bind-1", Combo: "Ctrl+K", Action: "Open"}}

	assert.True(t, slotMatches(model.ActionSlot{Ordinal: 1}, "", bindings))
	assert.False(t, slotMatches(model.ActionSlot{Ordinal: 1, BindingID: "bind-1"}, "", bindings))
	assert.True(t, slotMatches(model.ActionSlot{Ordinal: 1, BindingID: "bind-1"}, "bind-1", bindings))
	assert.True(t, slotMatches(model.ActionSlot{Ordinal: 1, BindingID: "bind-1"}, "open", bindings))
	assert.False(t, slotMatches(model.ActionSlot{Ordinal: 1}, "open", bindings))
}

func TestSnapshot_Format(t *testing.T) {
	r := NewResult()
	r.Fired = []string{"a"}
	r.Documents[model.DocBindings] = []byte("[]")

	want := strings.Join([]string{
		"# demo",
		"## fired",
		"a",
		"## config",
		"(none)",
		"## binds",
		"[]",
		"",
	}, "\n")
	assert.Equal(t, want, string(r.Snapshot("demo")))
}
