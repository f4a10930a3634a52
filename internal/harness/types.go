package harness

import (
	"bytes"
	"fmt"

	"github.com/roach88/deckcfg/internal/model"
)

// StepResult records what one step did.
type StepResult struct {
	Index  int    `json:"index"`
	Op     string `json:"op"`
	Reason string `json:"reason,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step behaved as expected and every assertion
	// held.
	Pass bool `json:"pass"`

	Steps []StepResult `json:"steps"`

	// Fired lists the actions fired by key presses, in order.
	Fired []string `json:"fired"`

	Errors []string `json:"errors,omitempty"`

	// Documents holds the persisted documents after the session closed,
	// keyed by document name. Absent documents were never saved.
	Documents map[string][]byte `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:      true,
		Steps:     []StepResult{},
		Fired:     []string{},
		Errors:    []string{},
		Documents: make(map[string][]byte),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Snapshot renders the fired actions and both persisted documents as text
// for golden comparison.
func (r *Result) Snapshot(name string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n", name)

	buf.WriteString("## fired\n")
	if len(r.Fired) == 0 {
		buf.WriteString("(none)\n")
	}
	for _, action := range r.Fired {
		buf.WriteString(action + "\n")
	}

	for _, doc := range []string{model.DocConfiguration, model.DocBindings} {
		fmt.Fprintf(&buf, "## %s\n", doc)
		body, ok := r.Documents[doc]
		if !ok {
			buf.WriteString("(none)\n")
			continue
		}
		buf.Write(body)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}
