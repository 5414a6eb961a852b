package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend records saves and can be primed to fail loads.
type fakeBackend struct {
	mu      sync.Mutex
	saves   int
	last    *Aggregate
	loadErr error
}

func (f *fakeBackend) Load(_ context.Context) (*Aggregate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if f.last == nil {
		return nil, ErrEmptyBlob
	}
	return f.last, nil
}

func (f *fakeBackend) Save(_ context.Context, agg *Aggregate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	f.last = agg
	return nil
}

func (f *fakeBackend) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

func inbound(from, user, text string, ts int64) Message {
	return Message{
		ID:        ts,
		From:      from,
		User:      user,
		Type:      "text",
		Message:   text,
		Timestamp: ts,
	}
}

func TestAppend_NewInboundContact(t *testing.T) {
	s := New(&fakeBackend{})
	ctx := context.Background()

	sessions := s.Append(ctx, inbound("6281111@c.us", "Budi", "Hi", 1000))

	require.Len(t, sessions, 1)
	assert.Equal(t, "6281111", sessions[0].Phone)
	assert.Equal(t, "Budi", sessions[0].Name)
	assert.Equal(t, "Hi", sessions[0].LastMessage)
	assert.Equal(t, int64(1000), sessions[0].LastMessageTime)
	assert.Equal(t, 1, sessions[0].UnreadCount)

	agg := s.Load(ctx)
	require.Len(t, agg.Messages, 1)
	assert.Equal(t, "Hi", agg.Messages[0].Message)
}

func TestAppend_SameContactTwice_SingleSession(t *testing.T) {
	s := New(&fakeBackend{})
	ctx := context.Background()

	s.Append(ctx, inbound("6281111@c.us", "Budi", "Hi", 1000))
	sessions := s.Append(ctx, inbound("6281111@c.us", "Budi", "Halo?", 2000))

	require.Len(t, sessions, 1, "second message must not create a second session")
	assert.Equal(t, 2, sessions[0].UnreadCount)
	assert.Equal(t, "Halo?", sessions[0].LastMessage)
	assert.Equal(t, int64(2000), sessions[0].LastMessageTime)
}

func TestAppend_AdminMessageDoesNotIncrementUnread(t *testing.T) {
	s := New(&fakeBackend{})
	ctx := context.Background()

	msg := inbound("6281111@c.us", "", "Reply", 1000)
	msg.IsFromMe = true
	sessions := s.Append(ctx, msg)

	require.Len(t, sessions, 1)
	assert.Equal(t, 0, sessions[0].UnreadCount)
	// No display name on outbound: fall back to the phone
	assert.Equal(t, "6281111", sessions[0].Name)
}

func TestAppend_MediaPreviewPlaceholders(t *testing.T) {
	tests := []struct {
		msgType string
		want    string
	}{
		{"image", "[image]"},
		{"sticker", "[sticker]"},
		{"text", "lihat ini"},
	}

	for _, tt := range tests {
		t.Run(tt.msgType, func(t *testing.T) {
			s := New(&fakeBackend{})
			msg := inbound("6281111@c.us", "Budi", "lihat ini", 1000)
			msg.Type = tt.msgType
			sessions := s.Append(context.Background(), msg)
			require.Len(t, sessions, 1)
			assert.Equal(t, tt.want, sessions[0].LastMessage)
		})
	}
}

func TestUpdateSessionUnread_ResetIsIdempotent(t *testing.T) {
	s := New(&fakeBackend{})
	ctx := context.Background()

	s.Append(ctx, inbound("6281111@c.us", "Budi", "Hi", 1000))
	s.Append(ctx, inbound("6281111@c.us", "Budi", "Halo?", 2000))

	sessions := s.UpdateSessionUnread(ctx, "6281111", 0)
	require.Len(t, sessions, 1)
	assert.Equal(t, 0, sessions[0].UnreadCount)

	// Opening the conversation twice must stay at 0
	sessions = s.UpdateSessionUnread(ctx, "6281111", 0)
	assert.Equal(t, 0, sessions[0].UnreadCount)
}

func TestUpdateSessionUnread_UnknownContactIsNoop(t *testing.T) {
	s := New(&fakeBackend{})
	sessions := s.UpdateSessionUnread(context.Background(), "0000", 0)
	assert.Empty(t, sessions)
}

func TestLoad_BackendFailureYieldsEmptyAggregate(t *testing.T) {
	s := New(&fakeBackend{loadErr: errors.New("blob unreachable")})

	agg := s.Load(context.Background())

	assert.NotNil(t, agg.Messages)
	assert.NotNil(t, agg.Sessions)
	assert.Empty(t, agg.Messages)
	assert.Empty(t, agg.Sessions)
}

func TestRoundTrip_FileBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat_store.json")
	ctx := context.Background()

	s := New(NewFileBackend(path))
	s.Append(ctx, inbound("6281111@c.us", "Budi", "Hi", 1000))

	// Simulate a process restart: fresh store, no in-memory state
	restarted := New(NewFileBackend(path))
	agg := restarted.Load(ctx)

	require.Len(t, agg.Messages, 1)
	assert.Equal(t, "Hi", agg.Messages[0].Message)
	require.Len(t, agg.Sessions, 1)
	assert.Equal(t, "6281111", agg.Sessions[0].Phone)
	assert.Equal(t, 1, agg.Sessions[0].UnreadCount)
}

func TestDebounce_CoalescesBurstIntoOneWrite(t *testing.T) {
	backend := &fakeBackend{}
	s := NewDebounced(backend, 30*time.Millisecond)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		s.Append(ctx, inbound("6281111@c.us", "Budi", "spam", int64(1000+i)))
	}
	assert.Equal(t, 0, backend.saveCount(), "writes inside the window must be buffered")

	assert.Eventually(t, func() bool {
		return backend.saveCount() == 1
	}, time.Second, 10*time.Millisecond, "the burst should flush as exactly one write")

	backend.mu.Lock()
	defer backend.mu.Unlock()
	require.NotNil(t, backend.last)
	assert.Len(t, backend.last.Messages, 5)
}

func TestFlush_ForcesPendingWrite(t *testing.T) {
	backend := &fakeBackend{}
	s := NewDebounced(backend, time.Hour) // never fires on its own
	ctx := context.Background()

	s.Append(ctx, inbound("6281111@c.us", "Budi", "Hi", 1000))
	require.Equal(t, 0, backend.saveCount())

	require.NoError(t, s.Flush(ctx))
	assert.Equal(t, 1, backend.saveCount())

	// Nothing dirty: no extra write
	require.NoError(t, s.Flush(ctx))
	assert.Equal(t, 1, backend.saveCount())
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "6281111", NormalizePhone("6281111@c.us"))
	assert.Equal(t, "6281111", NormalizePhone("6281111"))
}
