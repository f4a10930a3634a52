package entity

import (
	"github.com/roach88/deckcfg/internal/model"
	"github.com/roach88/deckcfg/internal/reconcile"
)

// Tx is the working copy handed to a mutation. Changes become visible only
// when the mutation returns nil, and only for the streams it touched.
type Tx struct {
	cfg        model.Configuration
	bindings   []model.Binding
	config     bool
	binds      bool
	structural bool
}

// Configuration returns the working configuration. Call TouchConfiguration
// after changing it.
func (tx *Tx) Configuration() *model.Configuration {
	return &tx.cfg
}

// Bindings returns the working binding list.
func (tx *Tx) Bindings() []model.Binding {
	return tx.bindings
}

// SetBindings replaces the working binding list and touches the bindings
// stream.
func (tx *Tx) SetBindings(bindings []model.Binding) {
	tx.bindings = bindings
	tx.binds = true
}

// TouchConfiguration marks the configuration stream as changed.
func (tx *Tx) TouchConfiguration() {
	tx.config = true
}

// MarkStructural marks the commit as a group/slot count change, which is
// flushed immediately instead of debounced.
func (tx *Tx) MarkStructural() {
	tx.config = true
	tx.structural = true
}

func repairBindings(bindings []model.Binding) ([]model.Binding, []*model.InvariantViolation) {
	return reconcile.RepairBindings(model.CloneBindings(bindings))
}

func repairConfiguration(cfg *model.Configuration, bindings []model.Binding, ids model.IDGenerator) []*model.InvariantViolation {
	issues := reconcile.Repair(cfg, bindings)
	if err := reconcile.Conform(cfg, bindings, ids); err != nil {
		// Repair clamps counts, so Conform cannot see an out-of-range count.
		issues = append(issues, &model.InvariantViolation{Kind: model.InvariantCount, Subject: "configuration", Detail: err.Error()})
	}
	return issues
}
