package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/deckcfg/internal/model"
	"github.com/roach88/deckcfg/internal/session"
)

// AssertionError is returned when an assertion fails.
// It includes the step log to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Steps    []StepResult // Step log for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Steps) > 0 {
		fmt.Fprintf(&buf, "\nSteps:\n")
		for _, s := range e.Steps {
			if s.Reason != "" || s.Error != "" {
				fmt.Fprintf(&buf, "  [%d] %s -> %s\n", s.Index, s.Op, s.Error)
				continue
			}
			fmt.Fprintf(&buf, "  [%d] %s\n", s.Index, s.Op)
		}
	}
	return buf.String()
}

// AssertionContext provides the session state assertions read.
type AssertionContext struct {
	Session *session.Session
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error
		if actx == nil || actx.Session == nil {
			err = fmt.Errorf("assertion[%d]: %s requires a session", i, assertion.Type)
		} else {
			err = evaluate(result, assertion, actx.Session)
		}
		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}

func evaluate(result *Result, a Assertion, sess *session.Session) error {
	cfg := sess.Configuration()
	fail := func(expected, actual string) error {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: actual, Steps: result.Steps}
	}

	switch a.Type {
	case AssertGroupMembers:
		g := cfg.Group(a.Group)
		if g == nil {
			return fail(fmt.Sprintf("group %q", a.Group), "group not found")
		}
		if !slices.Equal(g.Members, a.Members) {
			return fail(fmt.Sprintf("members of %q = %v", a.Group, a.Members), fmt.Sprintf("%v", g.Members))
		}

	case AssertDisplayName:
		g := cfg.Group(a.Group)
		if g == nil {
			return fail(fmt.Sprintf("group %q", a.Group), "group not found")
		}
		if g.DisplayName != a.Name {
			return fail(fmt.Sprintf("display name of %q = %q", a.Group, a.Name), fmt.Sprintf("%q", g.DisplayName))
		}

	case AssertPool:
		if pool := sess.Pool(); !slices.Equal(pool, a.Apps) {
			return fail(fmt.Sprintf("pool = %v", a.Apps), fmt.Sprintf("%v", pool))
		}

	case AssertSlot:
		slot := cfg.Slot(a.Slot)
		if slot == nil {
			return fail(fmt.Sprintf("slot %d", a.Slot), "slot not found")
		}
		if !slotMatches(*slot, a.Binding, sess.Bindings()) {
			return fail(fmt.Sprintf("slot %d bound to %q", a.Slot, a.Binding), fmt.Sprintf("%q", slot.BindingID))
		}

	case AssertFired:
		if !slices.Equal(result.Fired, a.Actions) {
			return fail(fmt.Sprintf("fired %v", a.Actions), fmt.Sprintf("%v", result.Fired))
		}

	case AssertBindingCount:
		if n := len(sess.Bindings()); n != *a.Count {
			return fail(fmt.Sprintf("%d bindings", *a.Count), fmt.Sprintf("%d bindings", n))
		}

	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

// slotMatches accepts the binding's id or its action name. An empty want
// means unbound.
func slotMatches(slot model.ActionSlot, want string, bindings []model.Binding) bool {
	if want == "" || !slot.Bound() {
		return want == slot.BindingID
	}
	if slot.BindingID == want {
		return true
	}
	if i := model.FindBinding(bindings, slot.BindingID); i >= 0 {
		return model.SameName(bindings[i].Action, want)
	}
	return false
}
