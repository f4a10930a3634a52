package testutil

import (
	"context"
	"sync"

	"github.com/roach88/deckcfg/internal/model"
)

// MemoryBackend is an in-memory persistence collaborator with injectable
// failures and blocking saves.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type MemoryBackend struct {
	mu        sync.Mutex
	docs      map[string][]byte
	saves     map[string][][]byte
	loadErr   map[string]error
	saveErr   map[string][]error
	gates     map[string]*Gate
	inFlight  map[string]int
	maxFlight map[string]int
}

// Gate holds saves of one document until Release.
type Gate struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

// Entered receives once per save that reached the gate.
func (g *Gate) Entered() <-chan struct{} {
	return g.entered
}

// Release lets every held and future save through.
func (g *Gate) Release() {
	g.once.Do(func() { close(g.release) })
}

// NewMemoryBackend creates an empty backend: every load reports not found.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		docs:      make(map[string][]byte),
		saves:     make(map[string][][]byte),
		loadErr:   make(map[string]error),
		saveErr:   make(map[string][]error),
		gates:     make(map[string]*Gate),
		inFlight:  make(map[string]int),
		maxFlight: make(map[string]int),
	}
}

// Put seeds a document.
func (b *MemoryBackend) Put(name string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.docs[name] = append([]byte(nil), data...)
}

// Get returns the stored document.
func (b *MemoryBackend) Get(name string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.docs[name]
	return data, ok
}

// FailLoad makes every load of name fail with err until cleared with nil.
func (b *MemoryBackend) FailLoad(name string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loadErr[name] = err
}

// FailSaves queues errors returned by the next saves of name, one per save.
func (b *MemoryBackend) FailSaves(name string, errs ...error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.saveErr[name] = append(b.saveErr[name], errs...)
}

// Block holds subsequent saves of name until the returned gate is released.
func (b *MemoryBackend) Block(name string) *Gate {
	b.mu.Lock()
	defer b.mu.Unlock()
	g := &Gate{entered: make(chan struct{}, 64), release: make(chan struct{})}
	b.gates[name] = g
	return g
}

// Saves returns every payload that was saved successfully, oldest first.
func (b *MemoryBackend) Saves(name string) [][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]byte(nil), b.saves[name]...)
}

// MaxInFlight returns the highest number of concurrent saves seen for name.
func (b *MemoryBackend) MaxInFlight(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.maxFlight[name]
}

func (b *MemoryBackend) LoadConfiguration(ctx context.Context) ([]byte, error) {
	return b.load(ctx, model.DocConfiguration)
}

func (b *MemoryBackend) SaveConfiguration(ctx context.Context, data []byte) error {
	return b.save(ctx, model.DocConfiguration, data)
}

func (b *MemoryBackend) LoadBindings(ctx context.Context) ([]byte, error) {
	return b.load(ctx, model.DocBindings)
}

func (b *MemoryBackend) SaveBindings(ctx context.Context, data []byte) error {
	return b.save(ctx, model.DocBindings, data)
}

func (b *MemoryBackend) load(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.loadErr[name]; err != nil {
		return nil, &model.TransportError{Op: "load " + name, Err: err}
	}
	data, ok := b.docs[name]
	if !ok {
		return nil, &model.NotFoundError{Document: name}
	}
	return append([]byte(nil), data...), nil
}

func (b *MemoryBackend) save(ctx context.Context, name string, data []byte) error {
	b.mu.Lock()
	b.inFlight[name]++
	if b.inFlight[name] > b.maxFlight[name] {
		b.maxFlight[name] = b.inFlight[name]
	}
	gate := b.gates[name]
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.inFlight[name]--
		b.mu.Unlock()
	}()

	if gate != nil {
		gate.entered <- struct{}{}
		select {
		case <-gate.release:
		case <-ctx.Done():
			return &model.TransportError{Op: "save " + name, Err: ctx.Err()}
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if queued := b.saveErr[name]; len(queued) > 0 {
		b.saveErr[name] = queued[1:]
		return &model.TransportError{Op: "save " + name, Err: queued[0]}
	}
	copied := append([]byte(nil), data...)
	b.docs[name] = copied
	b.saves[name] = append(b.saves[name], copied)
	return nil
}

// StaticInventory lists a fixed set of installed applications.
type StaticInventory []string

// ListInstalledApps returns a copy of the list.
func (s StaticInventory) ListInstalledApps(context.Context) ([]string, error) {
	return append([]string(nil), s...), nil
}
