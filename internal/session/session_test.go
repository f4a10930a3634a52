package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/deckcfg/internal/assign"
	"github.com/roach88/deckcfg/internal/chord"
	"github.com/roach88/deckcfg/internal/model"
	"github.com/roach88/deckcfg/internal/syncer"
	"github.com/roach88/deckcfg/internal/testutil"
)

type fixture struct {
	sess    *Session
	backend *testutil.MemoryBackend
	clock   *testutil.ManualClock
	fired   []model.Binding
}

func newFixture(t *testing.T, seed func(b *testutil.MemoryBackend)) *fixture {
	t.Helper()
	f := &fixture{backend: testutil.NewMemoryBackend(), clock: testutil.NewManualClock()}
	if seed != nil {
		seed(f.backend)
	}
	sess, err := New(f.backend,
		WithClock(f.clock),
		WithIDGenerator(model.NewSequenceGenerator()),
		WithInventory(testutil.StaticInventory{"Spotify", "Chrome", "Discord", "OBS"}),
		WithActionSink(func(b model.Binding) { f.fired = append(f.fired, b) }),
	)
	require.NoError(t, err)
	require.NoError(t, sess.Load(context.Background()))
	f.sess = sess
	return f
}

func (f *fixture) settle() {
	f.clock.Advance(syncer.DefaultWindow)
}

func (f *fixture) savedConfig(t *testing.T) map[string]any {
	t.Helper()
	data, ok := f.backend.Get(model.DocConfiguration)
	require.True(t, ok, "configuration was never saved")
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func TestLoad_EmptyBackendUsesDefaults(t *testing.T) {
	f := newFixture(t, nil)
	cfg := f.sess.Configuration()

	assert.Equal(t, 4, cfg.GroupCount)
	require.Len(t, cfg.Groups, 4)
	assert.Equal(t, "Group 1", cfg.Groups[0].Key)
	assert.Equal(t, "Group 4", cfg.Groups[3].DisplayName)
	assert.Len(t, cfg.Slots, 6)
	assert.Empty(t, f.sess.Bindings())
	assert.Empty(t, f.sess.Notices())
	assert.False(t, f.sess.Dirty())
	assert.Empty(t, f.backend.Saves(model.DocConfiguration), "load never saves")
	assert.Equal(t, []string{"Spotify", "Chrome", "Discord", "OBS"}, f.sess.Pool())
}

func TestLoad_ExistingDocuments(t *testing.T) {
	f := newFixture(t, func(b *testutil.MemoryBackend) {
		b.Put(model.DocConfiguration, []byte(`{
		  "numContainers": 2, "numDropdowns": 2, "theme": "dark",
		  "groups": {"Music": ["Spotify"], "Work": ["Chrome"]},
		  "group_names": {"Music": "Tunes"},
		  "settings": {"setting-1": "bind-a", "setting-2": "bind-missing"}
		}`))
		b.Put(model.DocBindings, []byte(`[{"id": "bind-a", "combo": "Ctrl+K", "action": "open_search"}]`))
	})
	cfg := f.sess.Configuration()

	assert.Equal(t, model.ThemeDark, cfg.Theme)
	assert.Equal(t, model.VariantDefault, cfg.DesignVariant)
	assert.Equal(t, "Tunes", cfg.Groups[0].DisplayName)
	assert.Equal(t, []model.ActionSlot{{Ordinal: 1, BindingID: "bind-a"}, {Ordinal: 2}}, cfg.Slots)
	assert.Equal(t, []string{"Discord", "OBS"}, f.sess.Pool())
	assert.Len(t, f.sess.Bindings(), 1)
}

func TestLoad_TransportErrorFallsBackWithNotice(t *testing.T) {
	f := newFixture(t, func(b *testutil.MemoryBackend) {
		b.FailLoad(model.DocConfiguration, errors.New("connection refused"))
		b.Put(model.DocBindings, []byte(`[{"id": "bind-a", "combo": "Ctrl+K", "action": "open_search"}]`))
	})

	assert.Len(t, f.sess.Configuration().Groups, 4)
	assert.Len(t, f.sess.Bindings(), 1)
	notices := f.sess.Notices()
	require.Len(t, notices, 1)
	assert.Equal(t, LevelError, notices[0].Level)
	assert.Contains(t, notices[0].Message, "connection refused")

	f.clock.Advance(DefaultNoticeTTL)
	assert.Empty(t, f.sess.Notices(), "notices auto-dismiss")
}

func TestLoad_CancelledContext(t *testing.T) {
	sess, err := New(testutil.NewMemoryBackend())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, sess.Load(ctx), context.Canceled)
}

func TestEdits_AreDebounced(t *testing.T) {
	f := newFixture(t, nil)

	require.NoError(t, f.sess.MoveApp("Spotify", assign.Pool, assign.InGroup("Group 1")))
	require.NoError(t, f.sess.MoveApp("Chrome", assign.Pool, assign.InGroup("Group 1")))
	require.NoError(t, f.sess.RenameGroup("Group 1", "Music"))
	assert.Empty(t, f.backend.Saves(model.DocConfiguration))
	assert.True(t, f.sess.Dirty())

	f.settle()

	require.Len(t, f.backend.Saves(model.DocConfiguration), 1)
	doc := f.savedConfig(t)
	assert.Equal(t, []any{"Spotify", "Chrome"}, doc["groups"].(map[string]any)["Group 1"])
	assert.Equal(t, "Music", doc["group_names"].(map[string]any)["Group 1"])
	assert.False(t, f.sess.Dirty())
}

func TestApplySettings_FlushesImmediately(t *testing.T) {
	f := newFixture(t, nil)
	next := f.sess.Settings()
	next.GroupCount = 2
	next.SlotCount = 3
	next.Theme = model.ThemeDark

	require.NoError(t, f.sess.ApplySettings(context.Background(), next))

	require.Len(t, f.backend.Saves(model.DocConfiguration), 1, "saved without waiting for the window")
	doc := f.savedConfig(t)
	assert.EqualValues(t, 2, doc["numContainers"])
	assert.Len(t, doc["groups"], 2)
	assert.Len(t, doc["settings"], 3)
	assert.False(t, f.sess.Dirty())
}

func TestApplySettings_ThemeOnlyAlsoFlushes(t *testing.T) {
	f := newFixture(t, nil)
	next := f.sess.Settings()
	next.DesignVariant = model.VariantMaterialYou

	require.NoError(t, f.sess.ApplySettings(context.Background(), next))

	assert.Equal(t, "material-you", f.savedConfig(t)["designSystem"])
}

func TestApplySettings_RejectsOutOfRange(t *testing.T) {
	f := newFixture(t, nil)
	next := f.sess.Settings()
	next.GroupCount = 11

	err := f.sess.ApplySettings(context.Background(), next)

	assert.Equal(t, model.ReasonOutOfRange, model.ReasonOf(err))
	assert.Equal(t, 4, f.sess.Configuration().GroupCount)
	assert.Empty(t, f.backend.Saves(model.DocConfiguration))
	assert.Len(t, f.sess.Notices(), 1)
}

func TestSaveFailure_NextSaveCarriesLatestState(t *testing.T) {
	f := newFixture(t, nil)
	f.backend.FailSaves(model.DocConfiguration, errors.New("503"))

	require.NoError(t, f.sess.MoveApp("Spotify", assign.Pool, assign.InGroup("Group 1")))
	f.settle()

	assert.Empty(t, f.backend.Saves(model.DocConfiguration))
	assert.True(t, f.sess.Dirty())
	assert.Equal(t, []string{"Spotify"}, f.sess.Configuration().Groups[0].Members, "no rollback")
	notices := f.sess.Notices()
	require.Len(t, notices, 1)
	assert.Contains(t, notices[0].Message, "503")

	require.NoError(t, f.sess.MoveApp("Chrome", assign.Pool, assign.InGroup("Group 2")))
	f.settle()

	doc := f.savedConfig(t)
	groups := doc["groups"].(map[string]any)
	assert.Equal(t, []any{"Spotify"}, groups["Group 1"])
	assert.Equal(t, []any{"Chrome"}, groups["Group 2"])
	assert.False(t, f.sess.Dirty())
}

func TestLateSaveDoesNotMarkNewerStateDurable(t *testing.T) {
	f := newFixture(t, nil)
	gate := f.backend.Block(model.DocConfiguration)

	require.NoError(t, f.sess.MoveApp("Spotify", assign.Pool, assign.InGroup("Group 1")))
	done := make(chan struct{})
	go func() {
		f.settle()
		close(done)
	}()
	<-gate.Entered()

	// Newer edit while the first save is in flight.
	require.NoError(t, f.sess.MoveApp("Chrome", assign.Pool, assign.InGroup("Group 1")))

	gate.Release()
	<-done
	assert.True(t, f.sess.Dirty(), "older payload does not vouch for newer state")

	f.settle()
	assert.False(t, f.sess.Dirty())
	assert.Len(t, f.backend.Saves(model.DocConfiguration), 2)
	assert.Equal(t, 1, f.backend.MaxInFlight(model.DocConfiguration))
}

func TestDragAndDrop(t *testing.T) {
	f := newFixture(t, nil)

	f.sess.StartDrag("Discord", assign.Pool)
	require.NoError(t, f.sess.Drop(assign.InGroup("Group 3")))
	cfg := f.sess.Configuration()
	assert.Equal(t, "Group 3", cfg.OwnerOf("Discord"))

	f.sess.StartDrag("Discord", assign.InGroup("Group 3"))
	f.sess.CancelDrag()
	assert.ErrorIs(t, f.sess.Drop(assign.Pool), assign.ErrNoDrag)

	f.sess.StartDrag("Discord", assign.InGroup("Group 3"))
	require.NoError(t, f.sess.Drop(assign.Pool))
	assert.Contains(t, f.sess.Pool(), "Discord")
}

func TestRenameGroup_RejectsDuplicate(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.sess.RenameGroup("Group 1", "Streaming"))

	err := f.sess.RenameGroup("Group 2", "STREAMING")

	assert.Equal(t, model.ReasonDuplicateName, model.ReasonOf(err))
	assert.Equal(t, "Group 2", f.sess.Configuration().Groups[1].DisplayName)
}

func recordChord(t *testing.T, sess *Session, events ...chord.KeyEvent) string {
	t.Helper()
	require.True(t, sess.StartRecording())
	var out KeyOutcome
	for _, ev := range events {
		out = sess.KeyDown(ev)
	}
	return out.Committed
}

func TestBindings_RecordAddAndReject(t *testing.T) {
	f := newFixture(t, nil)
	ctrlShift := chord.Modifiers{Ctrl: true, Shift: true}

	committed := recordChord(t, f.sess,
		chord.KeyEvent{Modifiers: chord.Modifiers{Ctrl: true}, Key: "Control"},
		chord.KeyEvent{Modifiers: ctrlShift, Key: "Shift"},
		chord.KeyEvent{Modifiers: ctrlShift, Key: "k"},
	)
	assert.Equal(t, "Ctrl+Shift+K", committed)

	b, err := f.sess.AddBinding("  open_search ")
	require.NoError(t, err)
	assert.Equal(t, model.Binding{ID: "bind-1", Combo: "Ctrl+Shift+K", Action: "open_search"}, b)
	state, display := f.sess.RecorderState()
	assert.Equal(t, chord.Idle, state)
	assert.Empty(t, display)

	_, err = f.sess.AddBinding("another")
	assert.Equal(t, model.ReasonNoChord, model.ReasonOf(err))

	_, err = f.sess.AddBindingCombo("ctrl+shift+k", "anything")
	assert.Equal(t, model.ReasonDuplicateCombo, model.ReasonOf(err))

	_, err = f.sess.AddBindingCombo("shift+k", "OPEN_SEARCH")
	assert.Equal(t, model.ReasonDuplicateAction, model.ReasonOf(err))

	assert.Len(t, f.sess.Bindings(), 1)
	assert.Len(t, f.sess.Notices(), 3)

	f.settle()
	data, ok := f.backend.Get(model.DocBindings)
	require.True(t, ok)
	assert.JSONEq(t, `[{"id":"bind-1","combo":"Ctrl+Shift+K","action":"open_search"}]`, string(data))
}

func TestDispatch_FiresAndStopsAfterDelete(t *testing.T) {
	f := newFixture(t, nil)
	b, err := f.sess.AddBindingCombo("ctrl+k", "open_search")
	require.NoError(t, err)
	require.NoError(t, f.sess.AssignSlot(2, b.ID))

	out, err := f.sess.Press("ctrl+k")
	require.NoError(t, err)
	require.NotNil(t, out.Fired)
	assert.True(t, out.PreventDefault)
	assert.Equal(t, "open_search", out.Fired.Action)

	// Held key: repeat events do not fire again.
	ev := chord.KeyEvent{Modifiers: chord.Modifiers{Ctrl: true}, Key: "k", Code: "KeyK"}
	assert.NotNil(t, f.sess.KeyDown(ev).Fired)
	ev.Repeat = true
	assert.Nil(t, f.sess.KeyDown(ev).Fired)
	f.sess.KeyUp(ev)
	require.Len(t, f.fired, 2)

	require.NoError(t, f.sess.DeleteBinding(b.ID))
	assert.Equal(t, model.ActionSlot{Ordinal: 2}, f.sess.Configuration().Slots[1])

	out, err = f.sess.Press("ctrl+k")
	require.NoError(t, err)
	assert.Nil(t, out.Fired)
	assert.False(t, out.PreventDefault)
	assert.Len(t, f.fired, 2)
}

func TestKeyDown_RecordingDoesNotDispatch(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.sess.AddBindingCombo("ctrl+k", "open_search")
	require.NoError(t, err)

	committed := recordChord(t, f.sess, chord.KeyEvent{Modifiers: chord.Modifiers{Ctrl: true}, Key: "k"})

	assert.Equal(t, "Ctrl+K", committed)
	assert.Empty(t, f.fired)
}

func TestAssignSlot_Validation(t *testing.T) {
	f := newFixture(t, nil)

	assert.Equal(t, model.ReasonUnknownSlot, model.ReasonOf(f.sess.AssignSlot(7, "")))
	assert.Equal(t, model.ReasonUnknownBinding, model.ReasonOf(f.sess.AssignSlot(1, "bind-404")))
}

func TestResolveBinding(t *testing.T) {
	f := newFixture(t, nil)
	b, err := f.sess.AddBindingCombo("alt+m", "Mute")
	require.NoError(t, err)

	got, ok := f.sess.ResolveBinding(b.ID)
	assert.True(t, ok)
	assert.Equal(t, b, got)

	got, ok = f.sess.ResolveBinding("mute")
	assert.True(t, ok)
	assert.Equal(t, b, got)

	_, ok = f.sess.ResolveBinding("nope")
	assert.False(t, ok)
}

func TestClose_FlushesPendingEdits(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.sess.RenameGroup("Group 1", "Music"))

	require.NoError(t, f.sess.Close(context.Background()))

	assert.Equal(t, "Music", f.savedConfig(t)["group_names"].(map[string]any)["Group 1"])
}

func TestResizeRoundTrip_PreservesSurvivors(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.sess.RenameGroup("Group 2", "Streaming"))
	require.NoError(t, f.sess.MoveApp("OBS", assign.Pool, assign.InGroup("Group 2")))

	shrink := f.sess.Settings()
	shrink.GroupCount = 2
	require.NoError(t, f.sess.ApplySettings(ctx, shrink))
	grow := f.sess.Settings()
	grow.GroupCount = 4
	require.NoError(t, f.sess.ApplySettings(ctx, grow))

	g := f.sess.Configuration().Groups[1]
	assert.Equal(t, model.Group{Key: "Group 2", DisplayName: "Streaming", Members: []string{"OBS"}}, g)

	shrink.GroupCount = 1
	require.NoError(t, f.sess.ApplySettings(ctx, shrink))
	require.NoError(t, f.sess.ApplySettings(ctx, grow))

	g = f.sess.Configuration().Groups[1]
	assert.Equal(t, "Group 2", g.DisplayName)
	assert.Empty(t, g.Members)
	assert.Contains(t, f.sess.Pool(), "OBS")
}
