// Package session is one editing session: it owns the entity store for its
// lifetime, routes user input through the reconciler, the assignment engine
// and the chord recorder, and keeps the backend in sync.
//
// Every operation is synchronous. Edits are debounced per document; any
// settings change is flushed before ApplySettings returns. Failures never
// roll back local state: they post a notice and the next save carries the
// latest state.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/deckcfg/internal/assign"
	"github.com/roach88/deckcfg/internal/chord"
	"github.com/roach88/deckcfg/internal/entity"
	"github.com/roach88/deckcfg/internal/model"
	"github.com/roach88/deckcfg/internal/schema"
	"github.com/roach88/deckcfg/internal/syncer"
)

// Session is the editor core.
type Session struct {
	backend   Backend
	inventory Inventory
	codec     *schema.Codec
	store     *entity.Store
	sync      *syncer.Scheduler
	ids       model.IDGenerator
	clock     syncer.Clock
	logger    *slog.Logger
	notices   *NoticeBoard
	sink      ActionSink
	window    time.Duration
	noticeTTL time.Duration

	inputMu    sync.Mutex
	recorder   chord.Recorder
	dispatcher chord.Dispatcher
	drag       assign.DragSession

	appsMu sync.RWMutex
	apps   []string
}

// Option configures a Session.
type Option func(*Session)

// WithInventory sets the installed-apps source.
func WithInventory(inv Inventory) Option {
	return func(s *Session) {
		s.inventory = inv
	}
}

// WithClock sets the clock for debounce timers and notice expiry.
func WithClock(c syncer.Clock) Option {
	return func(s *Session) {
		s.clock = c
	}
}

// WithIDGenerator sets the binding id and group-key token source.
func WithIDGenerator(ids model.IDGenerator) Option {
	return func(s *Session) {
		s.ids = ids
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// WithDebounce sets the save quiet window.
func WithDebounce(d time.Duration) Option {
	return func(s *Session) {
		s.window = d
	}
}

// WithNoticeTTL sets how long notices stay visible.
func WithNoticeTTL(d time.Duration) Option {
	return func(s *Session) {
		s.noticeTTL = d
	}
}

// WithActionSink receives fired bindings.
func WithActionSink(sink ActionSink) Option {
	return func(s *Session) {
		s.sink = sink
	}
}

// WithCodec shares a document codec.
func WithCodec(c *schema.Codec) Option {
	return func(s *Session) {
		s.codec = c
	}
}

// snapshot is the payload of one save: the state of one document at a
// given store generation.
type snapshot struct {
	gen      uint64
	cfg      model.Configuration
	bindings []model.Binding
}

// New creates a session holding defaults. Call Load before use.
func New(backend Backend, opts ...Option) (*Session, error) {
	s := &Session{
		backend: backend,
		ids:     model.UUIDGenerator{},
		clock:   syncer.SystemClock{},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		window:  syncer.DefaultWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.codec == nil {
		codec, err := schema.NewCodec()
		if err != nil {
			return nil, err
		}
		s.codec = codec
	}
	s.notices = NewNoticeBoard(s.clock, s.noticeTTL)
	s.sync = syncer.New(
		syncer.WithClock(s.clock),
		syncer.WithWindow(s.window),
		syncer.WithLogger(s.logger),
		syncer.WithOutcome(s.onSaved),
	)
	s.sync.Register(model.DocConfiguration, s.saveConfiguration)
	s.sync.Register(model.DocBindings, s.saveBindings)
	s.store = entity.New(entity.WithObserver(s.onCommit))
	return s, nil
}

// Load fetches both documents concurrently and installs them. A missing
// document means defaults; a failed load posts a notice and also falls
// back to defaults. Load fails only when ctx is done.
func (s *Session) Load(ctx context.Context) error {
	var (
		cfgData, bindData []byte
		cfgErr, bindErr   error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cfgData, cfgErr = s.backend.LoadConfiguration(gctx)
		return ctx.Err()
	})
	g.Go(func() error {
		bindData, bindErr = s.backend.LoadBindings(gctx)
		return ctx.Err()
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	bindings := []model.Binding{}
	if s.loaded(model.DocBindings, bindErr) {
		var report []schema.Defaulted
		bindings, report = s.codec.DecodeBindings(bindData)
		s.logDefaulted(model.DocBindings, report)
	}
	cfg := model.DefaultConfiguration()
	if s.loaded(model.DocConfiguration, cfgErr) {
		var report []schema.Defaulted
		cfg, report = s.codec.DecodeConfiguration(cfgData)
		s.logDefaulted(model.DocConfiguration, report)
	}

	s.logRepairs(s.store.ReplaceBindings(bindings))
	s.logRepairs(s.store.ReplaceConfiguration(cfg, s.ids))

	if s.inventory != nil {
		// Failures are posted as notices; the pool stays empty.
		_ = s.RefreshApps(ctx)
	}
	return nil
}

func (s *Session) loaded(doc string, err error) bool {
	switch {
	case err == nil:
		return true
	case model.IsNotFound(err):
		s.logger.Debug("document not found, using defaults", "document", doc)
	default:
		s.logger.Warn("load failed, using defaults", "document", doc, "error", err)
		s.notices.Post(LevelError, fmt.Sprintf("Error loading %s: %v", doc, err))
	}
	return false
}

func (s *Session) logDefaulted(doc string, report []schema.Defaulted) {
	for _, d := range report {
		s.logger.Warn("field defaulted", "document", doc, "field", d.Field, "reason", d.Reason)
	}
}

func (s *Session) logRepairs(issues []*model.InvariantViolation) {
	for _, v := range issues {
		s.logger.Warn("invariant repaired", "kind", v.Kind, "subject", v.Subject, "detail", v.Detail)
	}
}

// onCommit schedules a debounced save of every document a commit touched.
func (s *Session) onCommit(c entity.Commit) {
	if c.Configuration {
		s.schedule(model.DocConfiguration, snapshot{gen: c.Generations[entity.StreamConfiguration], cfg: c.Snapshot})
	}
	if c.Bindings {
		s.schedule(model.DocBindings, snapshot{gen: c.Generations[entity.StreamBindings], bindings: c.BindingsSnapshot})
	}
}

func (s *Session) schedule(doc string, snap snapshot) {
	if err := s.sync.Schedule(doc, snap); err != nil {
		s.logger.Error("schedule save", "document", doc, "error", err)
	}
}

func (s *Session) saveConfiguration(ctx context.Context, payload any) error {
	snap := payload.(snapshot)
	data, err := s.codec.EncodeConfiguration(snap.cfg)
	if err != nil {
		return err
	}
	return s.backend.SaveConfiguration(ctx, data)
}

func (s *Session) saveBindings(ctx context.Context, payload any) error {
	snap := payload.(snapshot)
	data, err := s.codec.EncodeBindings(snap.bindings)
	if err != nil {
		return err
	}
	return s.backend.SaveBindings(ctx, data)
}

// onSaved marks the saved generation durable or reports the failure.
func (s *Session) onSaved(o syncer.Outcome) {
	snap := o.Payload.(snapshot)
	stream := entity.StreamConfiguration
	if o.Stream == model.DocBindings {
		stream = entity.StreamBindings
	}
	if o.Err != nil {
		s.notices.Post(LevelError, fmt.Sprintf("Error saving %s: %v", o.Stream, o.Err))
		return
	}
	if !s.store.MarkDurable(stream, snap.gen) {
		s.logger.Debug("saved an older generation", "document", o.Stream, "generation", snap.gen)
	}
}

// reject posts a notice for a validation failure and returns err.
func (s *Session) reject(err error) error {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		s.notices.Post(LevelError, verr.Message)
	}
	return err
}

// Configuration returns a snapshot of the configuration.
func (s *Session) Configuration() model.Configuration {
	return s.store.Configuration()
}

// Bindings returns a snapshot of the binding list.
func (s *Session) Bindings() []model.Binding {
	return s.store.Bindings()
}

// Notices returns the notices that have not expired.
func (s *Session) Notices() []Notice {
	return s.notices.Active()
}

// DismissNotice removes a notice before it expires.
func (s *Session) DismissNotice(id int) {
	s.notices.Dismiss(id)
}

// Dirty reports whether any document has edits not yet confirmed saved.
func (s *Session) Dirty() bool {
	return s.store.Dirty(entity.StreamConfiguration) || s.store.Dirty(entity.StreamBindings)
}

// Flush sends every pending save now.
func (s *Session) Flush(ctx context.Context) error {
	return errors.Join(
		s.sync.FlushNow(ctx, model.DocConfiguration),
		s.sync.FlushNow(ctx, model.DocBindings),
	)
}

// Close flushes pending saves and stops the scheduler.
func (s *Session) Close(ctx context.Context) error {
	return s.sync.Close(ctx)
}
