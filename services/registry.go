package services

import (
	"sync"

	"github.com/garpunkal/ColourWang-sub000/models"
)

// GameSummary is the lightweight listing shape for active rooms.
type GameSummary struct {
	Code        string            `json:"code"`
	Status      models.GameStatus `json:"status"`
	PlayerCount int               `json:"playerCount"`
}

// Registry is the process-wide table of live rooms, keyed by room code. Rooms
// are owned exclusively by the registry; everything else refers to them by
// code. The map lock only guards membership, never room state, so unrelated
// games never serialize on each other.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*models.Game
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*models.Game)}
}

func (r *Registry) Get(code string) *models.Game {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rooms[code]
}

// Put registers a room. It returns false if the code is already taken.
func (r *Registry) Put(g *models.Game) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rooms[g.Code]; exists {
		return false
	}
	r.rooms[g.Code] = g
	return true
}

// Remove unregisters a room and returns it, or nil if the code is unknown.
func (r *Registry) Remove(code string) *models.Game {
	r.mu.Lock()
	defer r.mu.Unlock()
	g := r.rooms[code]
	delete(r.rooms, code)
	return g
}

// Exists reports whether a room code is registered.
func (r *Registry) Exists(code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[code]
	return ok
}

// All returns every registered room. Callers lock each room individually.
func (r *Registry) All() []*models.Game {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rooms := make([]*models.Game, 0, len(r.rooms))
	for _, g := range r.rooms {
		rooms = append(rooms, g)
	}
	return rooms
}

// Summaries lists every live room. Each room is locked briefly while its
// summary is read.
func (r *Registry) Summaries() []GameSummary {
	r.mu.RLock()
	rooms := make([]*models.Game, 0, len(r.rooms))
	for _, g := range r.rooms {
		rooms = append(rooms, g)
	}
	r.mu.RUnlock()

	summaries := make([]GameSummary, 0, len(rooms))
	for _, g := range rooms {
		g.Mu.Lock()
		summaries = append(summaries, GameSummary{
			Code:        g.Code,
			Status:      g.Status,
			PlayerCount: len(g.Players),
		})
		g.Mu.Unlock()
	}
	return summaries
}
