package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	mathrand "math/rand"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/garpunkal/ColourWang-sub000/config"
	"github.com/garpunkal/ColourWang-sub000/models"
)

const (
	MaxPlayersPerRoom = 10

	defaultTimerDuration  = 30
	defaultResultDuration = 10

	mirrorTTL = 2 * time.Hour
)

// GameService runs every room: lifecycle, the session state machine
// (session.go) and player connections (players.go). All room mutations happen
// under the room's own mutex; the Redis mirror is written after the fact and
// is never authoritative.
type GameService struct {
	registry  *Registry
	generator *RoundGenerator
	content   ContentStore
	emitter   Emitter
	redis     *redis.Client // optional snapshot mirror, nil-safe

	introDelay     time.Duration
	countdownDelay time.Duration
}

func NewGameService(
	registry *Registry,
	generator *RoundGenerator,
	content ContentStore,
	emitter Emitter,
	redisClient *redis.Client,
	cfg *config.Config,
) *GameService {
	return &GameService{
		registry:       registry,
		generator:      generator,
		content:        content,
		emitter:        emitter,
		redis:          redisClient,
		introDelay:     time.Duration(cfg.RoundIntroDelay) * time.Second,
		countdownDelay: time.Duration(cfg.CountdownDelay) * time.Second,
	}
}

// CreateGame generates a question plan, registers a new room and makes the
// creating socket its host. Generation yielding no rounds at all is fatal for
// the room: nothing is registered and the caller gets an error.
func (s *GameService) CreateGame(socketID string, p CreateGamePayload) {
	rounds := s.generator.GenerateRounds(p.Rounds, p.QuestionsPerRound, p.SelectedTopics)
	if len(rounds) == 0 {
		s.emitError(socketID, "could not build any rounds from the question pool")
		return
	}

	timer := p.Timer
	if timer <= 0 {
		timer = defaultTimerDuration
	}
	resultDuration := p.ResultDuration
	if resultDuration <= 0 {
		resultDuration = defaultResultDuration
	}

	g := &models.Game{
		Code:                 s.newRoomCode(),
		Status:               models.StatusLobby,
		Rounds:               rounds,
		Questions:            rounds[0].Questions,
		TimerDuration:        timer,
		ResultDuration:       resultDuration,
		JokersEnabled:        p.JokersEnabled,
		SoundEnabled:         p.SoundEnabled,
		MusicEnabled:         p.MusicEnabled,
		BgmTrack:             p.BgmTrack,
		StreaksEnabled:       p.StreaksEnabled,
		FastestFingerEnabled: p.FastestFingerEnabled,
		AccessibleLabels:     p.AccessibleLabels,
		HostSocketID:         socketID,
	}

	if !s.registry.Put(g) {
		s.emitError(socketID, "could not allocate a room code, try again")
		return
	}

	log.Printf("[room %s] created with %d rounds (host %s)", g.Code, len(g.Rounds), socketID)

	s.emitter.Subscribe(socketID, g.Code)
	snap := g.Snapshot()
	s.mirror(snap)
	s.emitter.ToSocket(socketID, EventGameCreated, snap)
}

// KillGame destroys a room and tells everyone in it. Any timer still scheduled
// against the room fires into a failed registry lookup and does nothing.
func (s *GameService) KillGame(socketID, code string) {
	code = normalizeCode(code)
	g := s.registry.Remove(code)
	if g == nil {
		s.emitError(socketID, "room not found")
		return
	}

	g.Mu.Lock()
	g.Epoch++
	g.Mu.Unlock()

	log.Printf("[room %s] killed", code)
	s.emitter.ToRoom(code, EventGameEnded, nil)
	s.dropMirror(code)
}

type AvatarPair struct {
	Avatar      string `json:"avatar"`
	AvatarStyle string `json:"avatarStyle"`
}

type RoomCheckedPayload struct {
	Exists       bool              `json:"exists"`
	Status       models.GameStatus `json:"status,omitempty"`
	TakenAvatars []AvatarPair      `json:"takenAvatars,omitempty"`
}

// CheckRoom answers an existence probe without mutating anything.
func (s *GameService) CheckRoom(socketID, code string) {
	g := s.registry.Get(normalizeCode(code))
	if g == nil {
		s.emitter.ToSocket(socketID, EventRoomChecked, RoomCheckedPayload{Exists: false})
		return
	}

	g.Mu.Lock()
	payload := RoomCheckedPayload{
		Exists:       true,
		Status:       g.Status,
		TakenAvatars: make([]AvatarPair, 0, len(g.Players)),
	}
	for _, p := range g.Players {
		payload.TakenAvatars = append(payload.TakenAvatars, AvatarPair{
			Avatar:      p.Avatar,
			AvatarStyle: p.AvatarStyle,
		})
	}
	g.Mu.Unlock()

	s.emitter.ToSocket(socketID, EventRoomChecked, payload)
}

// ActiveGames lists every live room to the asking socket.
func (s *GameService) ActiveGames(socketID string) {
	s.emitter.ToSocket(socketID, EventActiveGamesList, s.registry.Summaries())
}

// UpdateBgm switches the room's background music track.
func (s *GameService) UpdateBgm(socketID string, p UpdateBgmPayload) {
	g, ok := s.lookupRoom(socketID, p.Code)
	if !ok {
		return
	}

	g.Mu.Lock()
	g.BgmTrack = p.Track
	snap := g.Snapshot()
	g.Mu.Unlock()

	s.publishState(snap)
}

// MirroredGame serves the REST room lookup: Redis mirror first, registry
// snapshot as fallback (and the mirror is refreshed on the way out).
func (s *GameService) MirroredGame(code string) (*models.Game, error) {
	code = normalizeCode(code)

	if s.redis != nil {
		data, err := s.redis.Get(context.Background(), mirrorKey(code)).Result()
		if err == nil {
			var g models.Game
			if err := json.Unmarshal([]byte(data), &g); err == nil {
				return &g, nil
			}
			log.Printf("[room %s] corrupt mirror entry, falling back to registry", code)
		} else if !errors.Is(err, redis.Nil) {
			log.Printf("[room %s] redis error reading mirror: %v", code, err)
		}
	}

	g := s.registry.Get(code)
	if g == nil {
		return nil, errors.New("room not found")
	}

	g.Mu.Lock()
	snap := g.Snapshot()
	g.Mu.Unlock()
	s.mirror(snap)
	return snap, nil
}

// lookupRoom resolves a code or reports room-not-found to the caller.
func (s *GameService) lookupRoom(socketID, code string) (*models.Game, bool) {
	g := s.registry.Get(normalizeCode(code))
	if g == nil {
		s.emitError(socketID, "room not found")
		return nil, false
	}
	return g, true
}

// publishState broadcasts a full room snapshot and mirrors it to Redis. The
// snapshot must already be detached from live state (see Game.Snapshot).
func (s *GameService) publishState(snap *models.Game) {
	s.emitter.ToRoom(snap.Code, EventGameStatusChanged, snap)
	s.mirror(snap)
}

func (s *GameService) emitError(socketID, message string) {
	s.emitter.ToSocket(socketID, EventError, message)
}

func (s *GameService) mirror(snap *models.Game) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(snap)
	if err != nil {
		log.Printf("[room %s] failed to marshal mirror snapshot: %v", snap.Code, err)
		return
	}
	if err := s.redis.Set(context.Background(), mirrorKey(snap.Code), data, mirrorTTL).Err(); err != nil {
		log.Printf("[room %s] failed to mirror snapshot to redis: %v", snap.Code, err)
	}
}

func (s *GameService) dropMirror(code string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(context.Background(), mirrorKey(code)).Err(); err != nil {
		log.Printf("[room %s] failed to drop mirror: %v", code, err)
	}
}

func mirrorKey(code string) string {
	return "room:" + code
}

// newRoomCode draws short uppercase codes until one is free.
func (s *GameService) newRoomCode() string {
	for {
		bytes := make([]byte, 3)
		if _, err := rand.Read(bytes); err != nil {
			log.Printf("room code generation: crypto source unavailable, using fallback: %v", err)
			for i := range bytes {
				bytes[i] = byte(mathrand.Intn(256))
			}
		}
		code := strings.ToUpper(hex.EncodeToString(bytes))[:6]
		if !s.registry.Exists(code) {
			return code
		}
	}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
