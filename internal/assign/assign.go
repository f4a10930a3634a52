// Package assign moves applications between the unassigned pool and
// groups. It is the only code that changes group membership, and every
// move leaves each application in at most one group.
package assign

import (
	"strings"

	"github.com/roach88/deckcfg/internal/model"
)

// Container is either the pool or one group.
type Container struct {
	// Group is the group key; empty means the pool.
	Group string
}

// Pool is the unassigned pool.
var Pool = Container{}

// InGroup returns the container for group key.
func InGroup(key string) Container {
	return Container{Group: key}
}

// IsPool reports whether c is the pool.
func (c Container) IsPool() bool {
	return c.Group == ""
}

func (c Container) String() string {
	if c.IsPool() {
		return "pool"
	}
	return c.Group
}

// ParseContainer maps "pool" (any case) or "" to the pool and anything else
// to a group key.
func ParseContainer(s string) Container {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "pool") {
		return Pool
	}
	return InGroup(s)
}

// MoveApp moves app from one container to another. Returns whether the
// configuration changed.
//
//   - from == to: no-op.
//   - Pool to group g: append to g unless already a member.
//   - Group g to pool: remove from g; idempotent if absent.
//   - Group g1 to group g2: remove from g1, append to g2 unless already a
//     member.
//
// Appending to a group also removes the app from every other group, so a
// stale source never leaves a second copy behind.
func MoveApp(cfg *model.Configuration, app string, from, to Container) (bool, error) {
	if strings.TrimSpace(app) == "" {
		return false, model.NewValidationError(model.ReasonEmptyApp, "app", app, "application name is empty")
	}
	for _, c := range []Container{from, to} {
		if !c.IsPool() && cfg.Group(c.Group) == nil {
			return false, model.NewValidationError(model.ReasonUnknownGroup, "group", c.Group, "no group with key %q", c.Group)
		}
	}
	if from == to {
		return false, nil
	}

	changed := false
	if !from.IsPool() {
		changed = remove(cfg.Group(from.Group), app) || changed
	}
	if to.IsPool() {
		return changed, nil
	}
	for i := range cfg.Groups {
		if cfg.Groups[i].Key != to.Group {
			changed = remove(&cfg.Groups[i], app) || changed
		}
	}
	target := cfg.Group(to.Group)
	if !target.HasMember(app) {
		target.Members = append(target.Members, app)
		changed = true
	}
	return changed, nil
}

func remove(g *model.Group, app string) bool {
	for i, m := range g.Members {
		if m == app {
			g.Members = append(g.Members[:i:i], g.Members[i+1:]...)
			return true
		}
	}
	return false
}

// UnassignedApps returns the installed apps that belong to no group, in
// inventory order, without duplicates.
func UnassignedApps(cfg model.Configuration, installed []string) []string {
	assigned := make(map[string]bool)
	for _, g := range cfg.Groups {
		for _, m := range g.Members {
			assigned[m] = true
		}
	}
	pool := make([]string, 0, len(installed))
	seen := make(map[string]bool, len(installed))
	for _, app := range installed {
		if app == "" || assigned[app] || seen[app] {
			continue
		}
		seen[app] = true
		pool = append(pool, app)
	}
	return pool
}
