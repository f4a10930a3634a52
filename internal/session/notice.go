package session

import (
	"sync"
	"time"

	"github.com/roach88/deckcfg/internal/syncer"
)

// DefaultNoticeTTL is how long a notice stays visible.
const DefaultNoticeTTL = 5 * time.Second

// Level classifies a notice.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notice is a transient, auto-dismissing message for the user.
type Notice struct {
	ID      int
	Level   Level
	Message string
	Posted  time.Time
	Expires time.Time
}

// NoticeBoard holds the notices posted during a session.
//
// Thread-safety: safe for concurrent use; saves report failures from timer
// goroutines.
type NoticeBoard struct {
	mu      sync.Mutex
	clock   syncer.Clock
	ttl     time.Duration
	seq     int
	notices []Notice
}

// NewNoticeBoard creates a board. A non-positive ttl uses DefaultNoticeTTL.
func NewNoticeBoard(clock syncer.Clock, ttl time.Duration) *NoticeBoard {
	if ttl <= 0 {
		ttl = DefaultNoticeTTL
	}
	return &NoticeBoard{clock: clock, ttl: ttl}
}

// Post adds a notice.
func (b *NoticeBoard) Post(level Level, message string) Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	now := b.clock.Now()
	n := Notice{ID: b.seq, Level: level, Message: message, Posted: now, Expires: now.Add(b.ttl)}
	b.notices = append(b.notices, n)
	return n
}

// Active returns the unexpired notices, oldest first, and forgets the rest.
func (b *NoticeBoard) Active() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.clock.Now()
	kept := b.notices[:0]
	for _, n := range b.notices {
		if now.Before(n.Expires) {
			kept = append(kept, n)
		}
	}
	b.notices = kept
	return append([]Notice(nil), kept...)
}

// Dismiss removes a notice before it expires.
func (b *NoticeBoard) Dismiss(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, n := range b.notices {
		if n.ID == id {
			b.notices = append(b.notices[:i], b.notices[i+1:]...)
			return
		}
	}
}
