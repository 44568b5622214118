package telegram

import (
	"errors"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	sendErr  error
	updates  []chan tgbotapi.Update
	stopped  int
	nextID   int
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return tgbotapi.Message{}, f.sendErr
	}
	f.nextID++
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// GetUpdatesChan hands out a fresh channel per call so tests can simulate reconnects.
func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan tgbotapi.Update, 10)
	f.updates = append(f.updates, ch)
	return ch
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped++
}

func (f *fakeAPI) stream(i int) (chan tgbotapi.Update, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i >= len(f.updates) {
		return nil, false
	}
	return f.updates[i], true
}

func (f *fakeAPI) streams() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates)
}

var errBadRequest = errors.New("Bad Request: chat not found")
