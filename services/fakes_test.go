package services

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/garpunkal/ColourWang-sub000/config"
	"github.com/garpunkal/ColourWang-sub000/models"
)

// emitted is one captured transport send.
type emitted struct {
	SocketID string
	Code     string
	Event    string
	Payload  any
}

// fakeEmitter records everything the engine emits.
type fakeEmitter struct {
	mu     sync.Mutex
	events []emitted
}

func (f *fakeEmitter) ToSocket(socketID, event string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, emitted{SocketID: socketID, Event: event, Payload: payload})
}

func (f *fakeEmitter) ToRoom(code, event string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, emitted{Code: code, Event: event, Payload: payload})
}

func (f *fakeEmitter) Subscribe(socketID, code string) {}
func (f *fakeEmitter) Unsubscribe(socketID string)     {}

func (f *fakeEmitter) all(event string) []emitted {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []emitted
	for _, e := range f.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeEmitter) last(event string) (emitted, bool) {
	matches := f.all(event)
	if len(matches) == 0 {
		return emitted{}, false
	}
	return matches[len(matches)-1], true
}

func (f *fakeEmitter) socketEvents(socketID, event string) []emitted {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []emitted
	for _, e := range f.events {
		if e.SocketID == socketID && e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeEmitter) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = nil
}

// fakeContent is an in-memory ContentStore.
type fakeContent struct {
	mu        sync.Mutex
	pool      []models.PoolQuestion
	loadErr   error
	removeErr error
	removed   []uint
}

func (f *fakeContent) LoadPool() ([]models.PoolQuestion, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.pool, nil
}

func (f *fakeContent) Topics() ([]models.Topic, error) {
	seen := make(map[string]bool)
	var topics []models.Topic
	for _, q := range f.pool {
		if !seen[q.Topic.Name] {
			seen[q.Topic.Name] = true
			topics = append(topics, models.Topic{Name: q.Topic.Name})
		}
	}
	return topics, nil
}

func (f *fakeContent) RemoveQuestion(poolID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	f.removed = append(f.removed, poolID)
	return nil
}

var errPoolUnavailable = errors.New("pool unavailable")

// poolOf builds a pool with `perTopic` single-colour questions for each topic.
func poolOf(perTopic int, topics ...string) []models.PoolQuestion {
	var pool []models.PoolQuestion
	id := uint(0)
	for _, topic := range topics {
		for i := 0; i < perTopic; i++ {
			id++
			pool = append(pool, models.PoolQuestion{
				ID:    id,
				Text:  fmt.Sprintf("%s question %d", topic, i+1),
				Topic: models.Topic{Name: topic},
				Colours: []models.QuestionColour{
					{Name: "Red"},
				},
			})
		}
	}
	return pool
}

// newTestService wires a GameService against fakes with millisecond timers.
func newTestService(em Emitter, content ContentStore) *GameService {
	cfg := &config.Config{RoundIntroDelay: 1, CountdownDelay: 1}
	s := NewGameService(NewRegistry(), NewRoundGenerator(content), content, em, nil, cfg)
	s.introDelay = 5 * time.Millisecond
	s.countdownDelay = 5 * time.Millisecond
	return s
}

func roomStatus(s *GameService, code string) (models.GameStatus, bool) {
	g := s.registry.Get(code)
	if g == nil {
		return "", false
	}
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.Status, true
}

func waitForStatus(t *testing.T, s *GameService, code string, want models.GameStatus) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if status, ok := roomStatus(s, code); ok && status == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	status, ok := roomStatus(s, code)
	t.Fatalf("timed out waiting for status %s (have %s, exists %v)", want, status, ok)
}
