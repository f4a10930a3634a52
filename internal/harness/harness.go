package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/deckcfg/internal/assign"
	"github.com/roach88/deckcfg/internal/chord"
	"github.com/roach88/deckcfg/internal/model"
	"github.com/roach88/deckcfg/internal/session"
	"github.com/roach88/deckcfg/internal/store"
	"github.com/roach88/deckcfg/internal/syncer"
	"github.com/roach88/deckcfg/internal/testutil"
)

// Harness drives one session through a scenario.
type Harness struct {
	session *session.Session
	clock   *testutil.ManualClock
	logger  *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation, with a
// manual clock and sequential ids. Pending saves are flushed when the
// session closes, so Result.Documents holds the final persisted state.
//
// An error is returned only when the harness itself fails; step and
// assertion failures are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(store.MemoryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	result := NewResult()
	clock := testutil.NewManualClock()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests

	sess, err := session.New(st,
		session.WithClock(clock),
		session.WithIDGenerator(model.NewSequenceGenerator()),
		session.WithInventory(testutil.StaticInventory(scenario.Apps)),
		session.WithLogger(logger),
		session.WithActionSink(func(b model.Binding) {
			result.Fired = append(result.Fired, b.Action)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	if err := sess.Load(ctx); err != nil {
		return nil, err
	}

	h := &Harness{session: sess, clock: clock, logger: logger}
	for i, step := range scenario.Steps {
		h.executeStep(ctx, i, step, result)
	}
	// Let debounced saves fire on their own before Close flushes the rest.
	h.clock.Advance(syncer.DefaultWindow)

	actx := &AssertionContext{Session: sess}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	if err := sess.Close(ctx); err != nil {
		return nil, fmt.Errorf("failed to flush session: %w", err)
	}
	for _, doc := range []string{model.DocConfiguration, model.DocBindings} {
		body, err := st.Load(ctx, doc)
		switch {
		case err == nil:
			result.Documents[doc] = body
		case model.IsNotFound(err):
		default:
			return nil, fmt.Errorf("failed to read %s: %w", doc, err)
		}
	}
	return result, nil
}

// executeStep applies one step and checks it against expect_error.
func (h *Harness) executeStep(ctx context.Context, i int, step Step, result *Result) {
	err := h.apply(ctx, step)

	sr := StepResult{Index: i, Op: step.Op}
	if err != nil {
		sr.Error = err.Error()
		sr.Reason = string(model.ReasonOf(err))
	}
	result.Steps = append(result.Steps, sr)

	switch {
	case step.ExpectError == "" && err != nil:
		result.AddError(fmt.Sprintf("steps[%d] %s: unexpected error: %v", i, step.Op, err))
	case step.ExpectError != "" && err == nil:
		result.AddError(fmt.Sprintf("steps[%d] %s: expected %s, got success", i, step.Op, step.ExpectError))
	case step.ExpectError != "" && sr.Reason != step.ExpectError:
		result.AddError(fmt.Sprintf("steps[%d] %s: expected %s, got %v", i, step.Op, step.ExpectError, err))
	}

	h.logger.Debug("step completed", "step", i, "op", step.Op, "reason", sr.Reason)
}

func (h *Harness) apply(ctx context.Context, step Step) error {
	sess := h.session
	switch step.Op {
	case OpSettings:
		next := sess.Settings()
		if step.Groups != nil {
			next.GroupCount = *step.Groups
		}
		if step.Slots != nil {
			next.SlotCount = *step.Slots
		}
		if step.Theme != "" {
			next.Theme = model.Theme(step.Theme)
		}
		if step.Variant != "" {
			next.DesignVariant = model.DesignVariant(step.Variant)
		}
		return sess.ApplySettings(ctx, next)

	case OpRename:
		return sess.RenameGroup(step.Group, step.Name)

	case OpMove:
		return sess.MoveApp(step.App, assign.ParseContainer(step.From), assign.ParseContainer(step.To))

	case OpAddBinding:
		if step.Combo == "" {
			_, err := sess.AddBinding(step.Action)
			return err
		}
		_, err := sess.AddBindingCombo(step.Combo, step.Action)
		return err

	case OpDeleteBinding:
		return sess.DeleteBinding(h.resolve(step.Binding))

	case OpAssignSlot:
		return sess.AssignSlot(step.Slot, h.resolve(step.Binding))

	case OpRecord:
		ev, err := chord.ParseEvent(step.Combo)
		if err != nil {
			return err
		}
		sess.StartRecording()
		out := sess.KeyDown(ev)
		sess.KeyUp(ev)
		if out.Committed == "" {
			return fmt.Errorf("record %q: no chord captured", step.Combo)
		}
		return nil

	case OpPress:
		_, err := sess.Press(step.Combo)
		return err
	}
	return fmt.Errorf("unknown op %q", step.Op)
}

// resolve maps an action name to its binding id. Unknown references pass
// through unchanged so the session reports them.
func (h *Harness) resolve(ref string) string {
	if ref == "" {
		return ""
	}
	if b, ok := h.session.ResolveBinding(ref); ok {
		return b.ID
	}
	return ref
}
