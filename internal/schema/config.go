package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"cuelang.org/go/cue"

	"github.com/roach88/deckcfg/internal/model"
)

// ConfigDocument is the persisted shape of a Configuration.
type ConfigDocument struct {
	NumContainers int               `json:"numContainers"`
	NumDropdowns  int               `json:"numDropdowns"`
	Theme         string            `json:"theme"`
	DesignSystem  string            `json:"designSystem"`
	Groups        Ordered[[]string] `json:"groups"`
	GroupNames    Ordered[string]   `json:"group_names"`
	Settings      Ordered[string]   `json:"settings"`
}

// Defaulted names a document field that was missing or malformed and took
// its default during decode.
type Defaulted struct {
	Field  string
	Reason string
}

func (d Defaulted) String() string {
	return d.Field + ": " + d.Reason
}

const slotPrefix = "setting-"

// DecodeConfiguration decodes a configuration document. It never fails:
// an unparseable document or a non-object yields the default
// configuration, and each bad field takes its own default. The result is
// not yet reconciled; slot and group collections may disagree with the
// counts until the repair pass runs.
func (c *Codec) DecodeConfiguration(data []byte) (model.Configuration, []Defaulted) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cfg := model.DefaultConfiguration()
	var report []Defaulted

	doc, err := c.extract("config.json", data)
	if err != nil {
		return cfg, append(report, Defaulted{Field: "document", Reason: err.Error()})
	}
	if doc.Kind() != cue.StructKind {
		return cfg, append(report, Defaulted{Field: "document", Reason: "not an object"})
	}

	field := func(name string) (cue.Value, bool) {
		v := doc.LookupPath(cue.ParsePath(name))
		if !v.Exists() {
			return v, false
		}
		u, ok := conform(c.def("#Config."+name), v)
		if !ok {
			report = append(report, Defaulted{Field: name, Reason: "does not match schema"})
		}
		return u, ok
	}

	if u, ok := field("numContainers"); ok {
		if n, err := u.Int64(); err == nil {
			cfg.GroupCount = int(n)
		}
	}
	if u, ok := field("numDropdowns"); ok {
		if n, err := u.Int64(); err == nil {
			cfg.SlotCount = int(n)
		}
	}
	if u, ok := field("theme"); ok {
		if s, err := u.String(); err == nil {
			cfg.Theme = model.Theme(s)
		}
	}
	if u, ok := field("designSystem"); ok {
		if s, err := u.String(); err == nil {
			cfg.DesignVariant = model.DesignVariant(s)
		}
	}

	// Object-valued fields are read key by key from the JSON itself so that
	// every key survives as written, whatever CUE would make of its label.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return cfg, append(report, Defaulted{Field: "document", Reason: err.Error()})
	}

	names := c.decodeEntries(raw, "group_names", "#Name", &report)
	for _, e := range c.decodeEntries(raw, "groups", "#Members", &report) {
		var members []string
		if err := e.Value.Decode(&members); err != nil {
			report = append(report, Defaulted{Field: "groups." + e.Key, Reason: err.Error()})
			continue
		}
		if members == nil {
			members = []string{}
		}
		g := model.Group{Key: e.Key, DisplayName: e.Key, Members: members}
		if v, ok := names.Get(e.Key); ok {
			if s, err := v.String(); err == nil {
				g.DisplayName = s
			}
		}
		cfg.Groups = append(cfg.Groups, g)
	}

	for _, e := range c.decodeEntries(raw, "settings", "#SlotRef", &report) {
		ordinal, ok := parseSlotKey(e.Key)
		if !ok {
			report = append(report, Defaulted{Field: "settings." + e.Key, Reason: "not a slot key"})
			continue
		}
		id, _ := e.Value.String()
		cfg.Slots = append(cfg.Slots, model.ActionSlot{Ordinal: ordinal, BindingID: id})
	}
	sort.SliceStable(cfg.Slots, func(i, j int) bool {
		return cfg.Slots[i].Ordinal < cfg.Slots[j].Ordinal
	})

	return cfg, report
}

// decodeEntries reads the object at field in source order and keeps the
// entries whose value satisfies def. Callers hold mu.
func (c *Codec) decodeEntries(raw map[string]json.RawMessage, field, def string, report *[]Defaulted) Ordered[cue.Value] {
	data, ok := raw[field]
	if !ok {
		return nil
	}
	var entries Ordered[json.RawMessage]
	if err := json.Unmarshal(data, &entries); err != nil {
		*report = append(*report, Defaulted{Field: field, Reason: "not an object"})
		return nil
	}
	constraint := c.def(def)
	var out Ordered[cue.Value]
	for _, e := range entries {
		name := field + "." + e.Key
		v, err := c.extract(name, e.Value)
		if err != nil {
			*report = append(*report, Defaulted{Field: name, Reason: err.Error()})
			continue
		}
		u, ok := conform(constraint, v)
		if !ok {
			*report = append(*report, Defaulted{Field: name, Reason: "does not match schema"})
			continue
		}
		out = append(out, Entry[cue.Value]{Key: e.Key, Value: u})
	}
	return out
}

func parseSlotKey(key string) (int, bool) {
	rest, ok := strings.CutPrefix(key, slotPrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// ConfigurationDocument builds the persisted shape of cfg. Display names
// are written for every group (the key when a group has none) and only for
// groups that exist.
func ConfigurationDocument(cfg model.Configuration) ConfigDocument {
	doc := ConfigDocument{
		NumContainers: cfg.GroupCount,
		NumDropdowns:  cfg.SlotCount,
		Theme:         string(cfg.Theme),
		DesignSystem:  string(cfg.DesignVariant),
		Groups:        make(Ordered[[]string], 0, len(cfg.Groups)),
		GroupNames:    make(Ordered[string], 0, len(cfg.Groups)),
		Settings:      make(Ordered[string], 0, len(cfg.Slots)),
	}
	if doc.Theme == "" {
		doc.Theme = string(model.ThemeLight)
	}
	if doc.DesignSystem == "" {
		doc.DesignSystem = string(model.VariantDefault)
	}
	for _, g := range cfg.Groups {
		members := g.Members
		if members == nil {
			members = []string{}
		}
		name := g.DisplayName
		if name == "" {
			name = g.Key
		}
		doc.Groups = append(doc.Groups, Entry[[]string]{Key: g.Key, Value: members})
		doc.GroupNames = append(doc.GroupNames, Entry[string]{Key: g.Key, Value: name})
	}
	for _, s := range cfg.Slots {
		doc.Settings = append(doc.Settings, Entry[string]{Key: model.SlotKey(s.Ordinal), Value: s.BindingID})
	}
	return doc
}

// EncodeConfiguration renders cfg as an indented JSON document and checks
// it against the schema before returning it.
func (c *Codec) EncodeConfiguration(cfg model.Configuration) ([]byte, error) {
	doc := ConfigurationDocument(cfg)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode configuration: %w", err)
	}
	if err := c.validateConfig(doc); err != nil {
		return nil, fmt.Errorf("encode configuration: %w", err)
	}
	return data, nil
}

// validateConfig checks the scalar fields as one document and each object
// entry on its own, mirroring how DecodeConfiguration reads them.
func (c *Codec) validateConfig(doc ConfigDocument) error {
	shell := doc
	shell.Groups, shell.GroupNames, shell.Settings = Ordered[[]string]{}, Ordered[string]{}, Ordered[string]{}
	data, err := json.Marshal(shell)
	if err != nil {
		return err
	}
	if err := c.validate("config.json", "#Config", data); err != nil {
		return err
	}
	if err := validateEntries(c, "groups", "#Members", doc.Groups); err != nil {
		return err
	}
	if err := validateEntries(c, "group_names", "#Name", doc.GroupNames); err != nil {
		return err
	}
	return validateEntries(c, "settings", "#SlotRef", doc.Settings)
}

func validateEntries[V any](c *Codec, field, def string, entries Ordered[V]) error {
	for _, e := range entries {
		data, err := json.Marshal(e.Value)
		if err != nil {
			return err
		}
		if err := c.validate(field+"."+e.Key, def, data); err != nil {
			return fmt.Errorf("%s.%s: %w", field, e.Key, err)
		}
	}
	return nil
}

func (c *Codec) validate(name, def string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, err := c.extract(name, data)
	if err != nil {
		return err
	}
	if _, ok := conform(c.def(def), v); !ok {
		u := c.def(def).Unify(v)
		return formatCUEError(u.Validate(cue.Concrete(true)))
	}
	return nil
}
