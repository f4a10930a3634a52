package schema

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/deckcfg/internal/model"
)

const fullConfig = `{
  "numContainers": 3,
  "numDropdowns": 2,
  "theme": "dark",
  "designSystem": "windows-11",
  "groups": {
    "Zeta": ["Spotify", "Discord"],
    "Alpha": [],
    "Group 3_x1z": ["Chrome"]
  },
  "group_names": {
    "Zeta": "Music",
    "Gone": "Stale"
  },
  "settings": {
    "setting-2": "bind-2",
    "setting-1": ""
  }
}`

func decodeConfig(t *testing.T, doc string) (model.Configuration, []Defaulted) {
	t.Helper()
	return MustCodec().DecodeConfiguration([]byte(doc))
}

func fields(report []Defaulted) []string {
	out := make([]string, 0, len(report))
	for _, d := range report {
		out = append(out, d.Field)
	}
	return out
}

func TestDecodeConfiguration_Full(t *testing.T) {
	cfg, report := decodeConfig(t, fullConfig)
	assert.Empty(t, report)

	want := model.Configuration{
		GroupCount:    3,
		SlotCount:     2,
		Theme:         model.ThemeDark,
		DesignVariant: model.VariantWindows11,
		Groups: []model.Group{
			{Key: "Zeta", DisplayName: "Music", Members: []string{"Spotify", "Discord"}},
			{Key: "Alpha", DisplayName: "Alpha", Members: []string{}},
			{Key: "Group 3_x1z", DisplayName: "Group 3_x1z", Members: []string{"Chrome"}},
		},
		Slots: []model.ActionSlot{
			{Ordinal: 1},
			{Ordinal: 2, BindingID: "bind-2"},
		},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("decoded configuration mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeConfiguration_FieldsDefaultIndependently(t *testing.T) {
	cfg, report := decodeConfig(t, `{
	  "numContainers": 99,
	  "numDropdowns": 5,
	  "theme": "blue",
	  "designSystem": "material-you",
	  "groups": {"A": ["x"], "B": "not a list", "C": ["y", 3]},
	  "settings": {"setting-1": "b1", "bogus": "b2", "setting-0": "b3"}
	}`)

	assert.Equal(t, model.DefaultGroups, cfg.GroupCount)
	assert.Equal(t, 5, cfg.SlotCount)
	assert.Equal(t, model.ThemeLight, cfg.Theme)
	assert.Equal(t, model.VariantMaterialYou, cfg.DesignVariant)
	require.Len(t, cfg.Groups, 1)
	assert.Equal(t, "A", cfg.Groups[0].Key)
	assert.Equal(t, []model.ActionSlot{{Ordinal: 1, BindingID: "b1"}}, cfg.Slots)

	assert.ElementsMatch(t, []string{
		"numContainers", "theme", "groups.B", "groups.C", "settings.bogus", "settings.setting-0",
	}, fields(report))
}

func TestDecodeConfiguration_KeysKeptAsWritten(t *testing.T) {
	cfg, report := decodeConfig(t, `{
	  "groups": {"#def": ["b"], "_priv": ["a"], "$x": []},
	  "group_names": {"#def": "Hash"},
	  "settings": {"setting-1": "b1", "#setting-2": "b2"}
	}`)

	want := []model.Group{
		{Key: "#def", DisplayName: "Hash", Members: []string{"b"}},
		{Key: "_priv", DisplayName: "_priv", Members: []string{"a"}},
		{Key: "$x", DisplayName: "$x", Members: []string{}},
	}
	if diff := cmp.Diff(want, cfg.Groups); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []model.ActionSlot{{Ordinal: 1, BindingID: "b1"}}, cfg.Slots)
	assert.Equal(t, []string{"settings.#setting-2"}, fields(report))
}

func TestDecodeConfiguration_NonObjectCollections(t *testing.T) {
	cfg, report := decodeConfig(t, `{"groups": null, "group_names": [], "settings": "x"}`)
	assert.Empty(t, cfg.Groups)
	assert.Empty(t, cfg.Slots)
	assert.ElementsMatch(t, []string{"groups", "group_names", "settings"}, fields(report))
}

func TestDecodeConfiguration_UnusableDocument(t *testing.T) {
	for name, doc := range map[string]string{
		"not json": `{"numContainers": `,
		"array":    `[1, 2, 3]`,
		"string":   `"config"`,
	} {
		t.Run(name, func(t *testing.T) {
			cfg, report := decodeConfig(t, doc)
			assert.Equal(t, model.DefaultConfiguration(), cfg)
			require.Len(t, report, 1)
			assert.Equal(t, "document", report[0].Field)
		})
	}
}

func TestEncodeConfiguration_OrderAndNames(t *testing.T) {
	cfg := model.DefaultConfiguration()
	cfg.GroupCount = 2
	cfg.SlotCount = 10
	cfg.Groups = []model.Group{
		{Key: "Zeta", DisplayName: "Music", Members: []string{"Spotify"}},
		{Key: "Alpha", Members: nil},
	}
	for i := 1; i <= 10; i++ {
		cfg.Slots = append(cfg.Slots, model.ActionSlot{Ordinal: i})
	}
	cfg.Slots[9].BindingID = "bind-9"

	data, err := MustCodec().EncodeConfiguration(cfg)
	require.NoError(t, err)
	text := string(data)

	assert.Less(t, strings.Index(text, `"Zeta"`), strings.Index(text, `"Alpha"`))
	assert.Less(t, strings.Index(text, `"setting-2"`), strings.Index(text, `"setting-10"`))
	assert.Contains(t, text, `"Alpha": "Alpha"`)
	assert.Contains(t, text, `"Alpha": []`)
	assert.Contains(t, text, `"designSystem": "default"`)

	back, report := MustCodec().DecodeConfiguration(data)
	assert.Empty(t, report)
	cfg.Groups[1].DisplayName = "Alpha"
	cfg.Groups[1].Members = []string{}
	if diff := cmp.Diff(cfg, back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeConfiguration_UnusualKeysRoundTrip(t *testing.T) {
	cfg := model.DefaultConfiguration()
	cfg.GroupCount = 2
	cfg.SlotCount = 0
	cfg.Groups = []model.Group{
		{Key: "#def", DisplayName: "Hash", Members: []string{"b"}},
		{Key: "_priv", DisplayName: "_priv", Members: []string{"a"}},
	}

	data, err := MustCodec().EncodeConfiguration(cfg)
	require.NoError(t, err)

	back, report := MustCodec().DecodeConfiguration(data)
	assert.Empty(t, report)
	if diff := cmp.Diff(cfg.Groups, back.Groups); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestOrdered_UnmarshalJSON(t *testing.T) {
	var o Ordered[int]
	require.NoError(t, json.Unmarshal([]byte(`{"b": 1, "a": 2, "b": 3}`), &o))
	assert.Equal(t, Ordered[int]{{Key: "b", Value: 3}, {Key: "a", Value: 2}}, o)

	var empty Ordered[int]
	require.NoError(t, json.Unmarshal([]byte(`{}`), &empty))
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for _, bad := range []string{`null`, `[]`, `"x"`, `{"a": "x"}`} {
		var o Ordered[int]
		assert.Error(t, json.Unmarshal([]byte(bad), &o), bad)
	}
}

func TestEncodeConfiguration_RejectsOutOfRange(t *testing.T) {
	cfg := model.DefaultConfiguration()
	cfg.GroupCount = 0

	_, err := MustCodec().EncodeConfiguration(cfg)
	assert.Error(t, err)
}

func TestDecodeBindings(t *testing.T) {
	bindings, report := MustCodec().DecodeBindings([]byte(`[
	  {"id": "bind-1", "combo": "Ctrl+K", "action": "open_search"},
	  {"id": "bind-2", "combo": "", "action": "empty combo"},
	  {"id": "bind-3", "combo": "Alt+M", "action": "mute", "note": "extra"},
	  "garbage"
	]`))

	assert.Equal(t, []model.Binding{
		{ID: "bind-1", Combo: "Ctrl+K", Action: "open_search"},
		{ID: "bind-3", Combo: "Alt+M", Action: "mute"},
	}, bindings)
	assert.Equal(t, []string{"[1]", "[3]"}, fields(report))
}

func TestDecodeBindings_NotAList(t *testing.T) {
	bindings, report := MustCodec().DecodeBindings([]byte(`{"id": "bind-1"}`))

	assert.Empty(t, bindings)
	assert.NotNil(t, bindings)
	require.Len(t, report, 1)
}

func TestEncodeBindings(t *testing.T) {
	codec := MustCodec()

	data, err := codec.EncodeBindings(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))

	in := []model.Binding{{ID: "bind-1", Combo: "Ctrl+K", Action: "open_search"}}
	data, err = codec.EncodeBindings(in)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"bind-1","combo":"Ctrl+K","action":"open_search"}]`, string(data))

	out, report := codec.DecodeBindings(data)
	assert.Empty(t, report)
	assert.Equal(t, in, out)

	_, err = codec.EncodeBindings([]model.Binding{{ID: "bind-1"}})
	assert.Error(t, err)
}
