package store

import (
	"context"
	"errors"
	"log"
	"os"
	"slices"
	"sync"
	"time"
)

// Store owns the chat aggregate for the whole process. All mutation goes
// through Append/UpdateSessionUnread, guarded by one mutex: two webhook
// deliveries racing on the same contact must not drop an unread increment.
//
// The aggregate lives in memory; the backend is only read on cold start and
// written either synchronously (file) or on a debounce timer (blob), so a
// burst of webhooks coalesces into a single blob write.
type Store struct {
	mu       sync.Mutex
	backend  Backend
	debounce time.Duration

	agg   *Aggregate // nil until first load
	dirty bool
	timer *time.Timer
}

// New returns a store that writes through to the backend on every mutation.
func New(backend Backend) *Store {
	return &Store{backend: backend}
}

// NewDebounced returns a store that buffers writes and flushes at most once
// per debounce window. Data-loss bound on crash = one window.
func NewDebounced(backend Backend, debounce time.Duration) *Store {
	return &Store{backend: backend, debounce: debounce}
}

// Append adds msg to the sequence and upserts the owning session. Returns a
// snapshot of the session list. Persistence errors are logged, not returned:
// the chat UI must stay responsive even when the backing medium is down.
func (s *Store) Append(ctx context.Context, msg Message) []Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)

	s.agg.Messages = append(s.agg.Messages, msg)

	phone := NormalizePhone(msg.From)
	preview := Preview(msg.Type, msg.Message)

	found := false
	for i := range s.agg.Sessions {
		sess := &s.agg.Sessions[i]
		if sess.Phone != phone {
			continue
		}
		sess.LastMessage = preview
		sess.LastMessageTime = msg.Timestamp
		if !msg.IsFromMe {
			sess.UnreadCount++
		}
		found = true
		break
	}
	if !found {
		name := msg.User
		if name == "" {
			name = phone
		}
		unread := 1
		if msg.IsFromMe {
			unread = 0
		}
		s.agg.Sessions = append(s.agg.Sessions, Session{
			Phone:           phone,
			Name:            name,
			LastMessage:     preview,
			LastMessageTime: msg.Timestamp,
			UnreadCount:     unread,
		})
	}

	s.persistLocked(ctx)
	return slices.Clone(s.agg.Sessions)
}

// UpdateSessionUnread sets a session's unread counter directly. The admin UI
// calls this with 0 when a conversation is opened. Unknown contacts are a
// no-op; the session list snapshot is returned either way.
func (s *Store) UpdateSessionUnread(ctx context.Context, phone string, count int) []Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)

	phone = NormalizePhone(phone)
	for i := range s.agg.Sessions {
		if s.agg.Sessions[i].Phone == phone {
			s.agg.Sessions[i].UnreadCount = count
			s.persistLocked(ctx)
			break
		}
	}
	return slices.Clone(s.agg.Sessions)
}

// Load returns the full aggregate. Memory first; the backend is only hit on
// a per-process cold start.
func (s *Store) Load(ctx context.Context) Aggregate {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx)

	return Aggregate{
		Messages: slices.Clone(s.agg.Messages),
		Sessions: slices.Clone(s.agg.Sessions),
	}
}

// Flush forces any pending debounced write. Call on shutdown.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if !s.dirty || s.agg == nil {
		return nil
	}
	s.dirty = false
	return s.backend.Save(ctx, s.snapshotLocked())
}

// ensureLoaded populates the in-memory aggregate, falling back to an empty
// one when the backend read fails. The chat UI renders an empty conversation
// list instead of an error page when the backing medium is unreachable.
func (s *Store) ensureLoaded(ctx context.Context) {
	if s.agg != nil {
		return
	}
	agg, err := s.backend.Load(ctx)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) && !errors.Is(err, ErrEmptyBlob) {
			log.Printf("store: load failed, starting empty: %v", err)
		}
		agg = &Aggregate{Messages: []Message{}, Sessions: []Session{}}
	}
	if agg.Messages == nil {
		agg.Messages = []Message{}
	}
	if agg.Sessions == nil {
		agg.Sessions = []Session{}
	}
	s.agg = agg
}

// persistLocked schedules (debounced) or performs (synchronous) a save.
// Callers hold s.mu.
func (s *Store) persistLocked(ctx context.Context) {
	if s.debounce <= 0 {
		if err := s.backend.Save(ctx, s.snapshotLocked()); err != nil {
			log.Printf("store: save failed: %v", err)
		}
		return
	}

	s.dirty = true
	if s.timer != nil {
		// A flush is already pending; this write rides along with it.
		return
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		s.timer = nil
		if !s.dirty {
			s.mu.Unlock()
			return
		}
		s.dirty = false
		snap := s.snapshotLocked()
		s.mu.Unlock()

		if err := s.backend.Save(context.Background(), snap); err != nil {
			log.Printf("store: debounced save failed: %v", err)
		}
	})
}

func (s *Store) snapshotLocked() *Aggregate {
	return &Aggregate{
		Messages: slices.Clone(s.agg.Messages),
		Sessions: slices.Clone(s.agg.Sessions),
	}
}
