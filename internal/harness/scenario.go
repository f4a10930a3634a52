package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is one scripted editing session.
type Scenario struct {
	// Name uniquely identifies this scenario; it names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Apps is the installed-app inventory.
	Apps []string `yaml:"apps,omitempty"`

	// Steps run in order against the session.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one user operation.
type Step struct {
	Op string `yaml:"op"`

	Groups  *int   `yaml:"groups,omitempty"`
	Slots   *int   `yaml:"slots,omitempty"`
	Theme   string `yaml:"theme,omitempty"`
	Variant string `yaml:"variant,omitempty"`

	Group string `yaml:"group,omitempty"`
	Name  string `yaml:"name,omitempty"`

	App  string `yaml:"app,omitempty"`
	From string `yaml:"from,omitempty"`
	To   string `yaml:"to,omitempty"`

	Combo   string `yaml:"combo,omitempty"`
	Action  string `yaml:"action,omitempty"`
	Binding string `yaml:"binding,omitempty"`
	Slot    int    `yaml:"slot,omitempty"`

	// ExpectError is the validation reason the step must fail with.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Step ops.
const (
	OpSettings      = "settings"
	OpRename        = "rename"
	OpMove          = "move"
	OpAddBinding    = "add_binding"
	OpDeleteBinding = "delete_binding"
	OpAssignSlot    = "assign_slot"
	OpRecord        = "record"
	OpPress         = "press"
)

// Assertion validates the final state.
type Assertion struct {
	Type string `yaml:"type"`

	Group   string   `yaml:"group,omitempty"`
	Members []string `yaml:"members,omitempty"`
	Name    string   `yaml:"name,omitempty"`
	Apps    []string `yaml:"apps,omitempty"`
	Slot    int      `yaml:"slot,omitempty"`
	Binding string   `yaml:"binding,omitempty"`
	Actions []string `yaml:"actions,omitempty"`
	Count   *int     `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertGroupMembers = "group_members"
	AssertDisplayName  = "display_name"
	AssertPool         = "pool"
	AssertSlot         = "slot"
	AssertFired        = "fired"
	AssertBindingCount = "binding_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field checking.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // catches "assertion:" vs "assertions:"
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, s *Step) error {
	switch s.Op {
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	case OpSettings:
		if s.Groups == nil && s.Slots == nil && s.Theme == "" && s.Variant == "" {
			return fmt.Errorf("steps[%d]: settings needs at least one of groups, slots, theme, variant", index)
		}
	case OpRename:
		if s.Group == "" {
			return fmt.Errorf("steps[%d]: group is required for rename", index)
		}
	case OpMove:
		// Empty app is a valid negative case.
	case OpAddBinding, OpDeleteBinding:
	case OpAssignSlot:
		if s.Slot == 0 {
			return fmt.Errorf("steps[%d]: slot is required for assign_slot", index)
		}
	case OpRecord, OpPress:
		if s.Combo == "" {
			return fmt.Errorf("steps[%d]: combo is required for %s", index, s.Op)
		}
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, s.Op)
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertGroupMembers, AssertDisplayName:
		if a.Group == "" {
			return fmt.Errorf("assertions[%d]: group is required for %s", index, a.Type)
		}
	case AssertPool, AssertFired:
	case AssertSlot:
		if a.Slot == 0 {
			return fmt.Errorf("assertions[%d]: slot is required for slot", index)
		}
	case AssertBindingCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for binding_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
