package assign

import "errors"

// ErrNoDrag is returned by Drop when no drag is in progress.
var ErrNoDrag = errors.New("no drag in progress")

// Move is one requested membership change.
type Move struct {
	App  string
	From Container
	To   Container
}

// DragSession tracks a drag from pickup to drop. It does not touch the
// configuration itself; Drop yields the Move to apply.
type DragSession struct {
	active bool
	app    string
	from   Container
}

// Start picks up app from container from, replacing any drag in progress.
func (d *DragSession) Start(app string, from Container) {
	d.active = true
	d.app = app
	d.from = from
}

// Active reports whether a drag is in progress and what is being dragged.
func (d *DragSession) Active() (string, Container, bool) {
	return d.app, d.from, d.active
}

// Drop ends the drag over target.
func (d *DragSession) Drop(target Container) (Move, error) {
	if !d.active {
		return Move{}, ErrNoDrag
	}
	m := Move{App: d.app, From: d.from, To: target}
	d.Cancel()
	return m, nil
}

// Cancel abandons the drag.
func (d *DragSession) Cancel() {
	*d = DragSession{}
}
