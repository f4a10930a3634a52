package model

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator produces binding ids and the short tokens used to
// disambiguate synthesized group keys.
// Implemented by UUIDGenerator (production) and SequenceGenerator (tests).
type IDGenerator interface {
	BindingID() string
	Token() string
}

// UUIDGenerator generates time-sortable binding ids ("bind-<uuidv7>") and
// random three-character tokens.
//
// Thread-safety: UUIDGenerator is stateless and safe for concurrent use.
type UUIDGenerator struct{}

// BindingID returns a new binding id.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDGenerator) BindingID() string {
	return "bind-" + uuid.Must(uuid.NewV7()).String()
}

// Token returns three random hex characters.
func (UUIDGenerator) Token() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:3]
}

// SequenceGenerator returns predictable ids for deterministic tests and
// golden snapshots: "bind-1", "bind-2", ... and tokens "t1", "t2", ...
//
// Thread-safety: SequenceGenerator is safe for concurrent use via internal mutex.
type SequenceGenerator struct {
	mu       sync.Mutex
	bindings int
	tokens   int
}

// NewSequenceGenerator creates a generator starting at 1.
func NewSequenceGenerator() *SequenceGenerator {
	return &SequenceGenerator{}
}

func (g *SequenceGenerator) BindingID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.bindings++
	return fmt.Sprintf("bind-%d", g.bindings)
}

func (g *SequenceGenerator) Token() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tokens++
	return fmt.Sprintf("t%d", g.tokens)
}
