// Package pending keeps the "next input" bindings of each chat: a user who
// pressed "write anonymously" and an administrator who pressed "reply".
package pending

import (
	"context"
	"sync"
	"time"
)

// Kind is the kind of input a chat is expected to send next.
type Kind string

const (
	// Compose means the next message of the chat is an anonymous submission.
	Compose Kind = "compose"
	// Reply means the next message of the admin chat answers AnonID.
	Reply Kind = "reply"
)

// Action is a pending binding for one chat.
type Action struct {
	Kind   Kind   `json:"kind"`
	AnonID string `json:"anon_id,omitempty"`
	// PromptMessageID is the transport message that asked for the input.
	PromptMessageID int `json:"prompt_message_id,omitempty"`
}

// Store holds at most one Action per chat.
type Store interface {
	Set(ctx context.Context, chatID int64, a Action) error
	Get(ctx context.Context, chatID int64) (Action, bool, error)
	Clear(ctx context.Context, chatID int64) error
}

type memoryEntry struct {
	action    Action
	expiresAt time.Time
}

// MemoryStore is a Store local to the process. A zero TTL keeps bindings forever.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[int64]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates a MemoryStore.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[int64]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *MemoryStore) Set(_ context.Context, chatID int64, a Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := memoryEntry{action: a}
	if m.ttl > 0 {
		e.expiresAt = m.now().Add(m.ttl)
	}
	m.entries[chatID] = e
	return nil
}

func (m *MemoryStore) Get(_ context.Context, chatID int64) (Action, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[chatID]
	if !ok {
		return Action{}, false, nil
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(m.entries, chatID)
		return Action{}, false, nil
	}
	return e.action, true, nil
}

func (m *MemoryStore) Clear(_ context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, chatID)
	return nil
}
