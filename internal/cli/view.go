package cli

import (
	"fmt"
	"strings"

	"github.com/roach88/deckcfg/internal/model"
	"github.com/roach88/deckcfg/internal/session"
)

// SettingsView is the JSON/text rendering of the controller settings.
type SettingsView struct {
	Groups  int    `json:"groups"`
	Slots   int    `json:"slots"`
	Theme   string `json:"theme"`
	Variant string `json:"variant"`
}

func (v SettingsView) String() string {
	return fmt.Sprintf("groups=%d slots=%d theme=%s variant=%s", v.Groups, v.Slots, v.Theme, v.Variant)
}

type GroupView struct {
	Key     string   `json:"key"`
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

type SlotView struct {
	Ordinal int    `json:"ordinal"`
	Binding string `json:"binding,omitempty"`
	Action  string `json:"action,omitempty"`
}

// BindingsView lists bindings; text output is one per line.
type BindingsView []model.Binding

func (v BindingsView) String() string {
	if len(v) == 0 {
		return "(no bindings)"
	}
	var b strings.Builder
	for i, binding := range v {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%-16s %-24s %s", binding.Combo, binding.Action, binding.ID)
	}
	return b.String()
}

// ShowView is the full editor state.
type ShowView struct {
	Settings SettingsView `json:"settings"`
	Groups   []GroupView  `json:"groups"`
	Pool     []string     `json:"pool"`
	Slots    []SlotView   `json:"slots"`
	Bindings BindingsView `json:"bindings"`
}

func newSettingsView(cfg model.Configuration) SettingsView {
	return SettingsView{
		Groups:  cfg.GroupCount,
		Slots:   cfg.SlotCount,
		Theme:   string(cfg.Theme),
		Variant: string(cfg.DesignVariant),
	}
}

func newShowView(sess *session.Session) ShowView {
	cfg := sess.Configuration()
	bindings := sess.Bindings()

	v := ShowView{
		Settings: newSettingsView(cfg),
		Groups:   make([]GroupView, 0, len(cfg.Groups)),
		Pool:     sess.Pool(),
		Slots:    make([]SlotView, 0, len(cfg.Slots)),
		Bindings: BindingsView(bindings),
	}
	if v.Pool == nil {
		v.Pool = []string{}
	}
	for _, g := range cfg.Groups {
		members := g.Members
		if members == nil {
			members = []string{}
		}
		v.Groups = append(v.Groups, GroupView{Key: g.Key, Name: g.DisplayName, Members: members})
	}
	for _, s := range cfg.Slots {
		sv := SlotView{Ordinal: s.Ordinal, Binding: s.BindingID}
		if i := model.FindBinding(bindings, s.BindingID); s.Bound() && i >= 0 {
			sv.Action = bindings[i].Action
		}
		v.Slots = append(v.Slots, sv)
	}
	return v
}

func (v ShowView) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Settings: %s\n", v.Settings)

	b.WriteString("\nGroups:\n")
	for _, g := range v.Groups {
		label := g.Key
		if g.Name != g.Key {
			label = fmt.Sprintf("%s (%s)", g.Name, g.Key)
		}
		fmt.Fprintf(&b, "  %s: %s\n", label, joinOrDash(g.Members))
	}
	fmt.Fprintf(&b, "\nPool: %s\n", joinOrDash(v.Pool))

	b.WriteString("\nSlots:\n")
	if len(v.Slots) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, s := range v.Slots {
		target := "-"
		if s.Binding != "" {
			target = s.Action
		}
		fmt.Fprintf(&b, "  %s: %s\n", model.SlotKey(s.Ordinal), target)
	}

	b.WriteString("\nBindings:\n")
	for _, line := range strings.Split(v.Bindings.String(), "\n") {
		fmt.Fprintf(&b, "  %s\n", line)
	}
	return strings.TrimRight(b.String(), "\n")
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
