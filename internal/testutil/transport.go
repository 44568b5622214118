package testutil

import (
	"anonrelay/backend/internal/transport"
	"context"
	"sync"
)

// Callback is an acknowledged inline button press.
type Callback struct {
	ID   string
	Text string
}

// RecordingTransport keeps every message and callback answer in memory.
// FailFor makes Send fail for the given chat IDs. FailNext fails only the next Send.
type RecordingTransport struct {
	mu        sync.Mutex
	Sent      []transport.Outbound
	Answers   []Callback
	FailFor   map[int64]error
	FailNext  error
	AnswerErr error
	nextID    int
}

func NewRecordingTransport() *RecordingTransport {
	return &RecordingTransport{FailFor: make(map[int64]error)}
}

func (r *RecordingTransport) Send(_ context.Context, msg transport.Outbound) (transport.SentRef, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.FailNext; err != nil {
		r.FailNext = nil
		return transport.SentRef{}, err
	}
	if err, ok := r.FailFor[msg.ChatID]; ok {
		return transport.SentRef{}, err
	}
	r.nextID++
	r.Sent = append(r.Sent, msg)
	return transport.SentRef{ChatID: msg.ChatID, MessageID: r.nextID}, nil
}

func (r *RecordingTransport) AnswerCallback(_ context.Context, callbackID, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Answers = append(r.Answers, Callback{ID: callbackID, Text: text})
	return r.AnswerErr
}

// To returns the messages delivered to chatID, in order.
func (r *RecordingTransport) To(chatID int64) []transport.Outbound {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []transport.Outbound
	for _, m := range r.Sent {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

// Last returns the last message delivered to chatID.
func (r *RecordingTransport) Last(chatID int64) (transport.Outbound, bool) {
	msgs := r.To(chatID)
	if len(msgs) == 0 {
		return transport.Outbound{}, false
	}
	return msgs[len(msgs)-1], true
}

// SentCount returns the number of delivered messages.
func (r *RecordingTransport) SentCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Sent)
}

// AnswerCount returns the number of callback answers.
func (r *RecordingTransport) AnswerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Answers)
}

// SetFail makes Send to chatID fail with err. A nil err clears the failure.
func (r *RecordingTransport) SetFail(chatID int64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.FailFor, chatID)
		return
	}
	r.FailFor[chatID] = err
}

// SequenceIDs is an anonid.Generator returning ids in order.
type SequenceIDs struct {
	mu  sync.Mutex
	IDs []string
	Err error
}

func (s *SequenceIDs) Generate(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return "", s.Err
	}
	id := s.IDs[0]
	s.IDs = s.IDs[1:]
	return id, nil
}
