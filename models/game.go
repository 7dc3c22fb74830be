package models

import "sync"

type GameStatus string

const (
	StatusLobby      GameStatus = "LOBBY"
	StatusRoundIntro GameStatus = "ROUND_INTRO"
	StatusCountdown  GameStatus = "COUNTDOWN"
	StatusQuestion   GameStatus = "QUESTION"
	StatusResult     GameStatus = "RESULT"
	StatusFinalScore GameStatus = "FINAL_SCORE"
)

// Game is the authoritative state of one room. It is owned by the registry;
// handlers look it up by code and must hold Mu for every read or write.
type Game struct {
	Code                 string      `json:"code"`
	Status               GameStatus  `json:"status"`
	Players              []*Player   `json:"players"`
	Rounds               []*Round    `json:"rounds"`
	CurrentRoundIndex    int         `json:"currentRoundIndex"`
	Questions            []*Question `json:"questions"`
	CurrentQuestionIndex int         `json:"currentQuestionIndex"`
	TimerDuration        int         `json:"timerDuration"`
	ResultDuration       int         `json:"resultDuration"`
	JokersEnabled        bool        `json:"jokersEnabled"`
	SoundEnabled         bool        `json:"soundEnabled"`
	MusicEnabled         bool        `json:"musicEnabled"`
	BgmTrack             string      `json:"bgmTrack"`
	StreaksEnabled       bool        `json:"streaksEnabled"`
	FastestFingerEnabled bool        `json:"fastestFingerEnabled"`
	AccessibleLabels     bool        `json:"accessibleLabels"`
	HostSocketID         string      `json:"hostSocketId"`

	Mu sync.Mutex `json:"-"`

	// Epoch increments on every status change. Scheduled transitions capture it
	// and give up if it moved, so a timer racing a host action is a no-op.
	Epoch int `json:"-"`
}

// CurrentRound returns the active round, or nil outside any round.
func (g *Game) CurrentRound() *Round {
	if g.CurrentRoundIndex < 0 || g.CurrentRoundIndex >= len(g.Rounds) {
		return nil
	}
	return g.Rounds[g.CurrentRoundIndex]
}

// CurrentQuestion returns the active question, or nil if the index is out of range.
func (g *Game) CurrentQuestion() *Question {
	if g.CurrentQuestionIndex < 0 || g.CurrentQuestionIndex >= len(g.Questions) {
		return nil
	}
	return g.Questions[g.CurrentQuestionIndex]
}

// PlayerByID returns the player with the given stable id, or nil.
func (g *Game) PlayerByID(id string) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// PlayerBySocket returns the player currently bound to a transport connection,
// or nil. Stale sockets from past disconnects never match a live one.
func (g *Game) PlayerBySocket(socketID string) *Player {
	if socketID == "" {
		return nil
	}
	for _, p := range g.Players {
		if p.SocketID == socketID {
			return p
		}
	}
	return nil
}

// AllAnswered reports whether every player has submitted for the current question.
func (g *Game) AllAnswered() bool {
	if len(g.Players) == 0 {
		return false
	}
	for _, p := range g.Players {
		if !p.HasAnswered() {
			return false
		}
	}
	return true
}

// Snapshot deep-copies the room for broadcasting. Callers must hold Mu; the
// returned copy can be marshalled after the lock is released without racing
// later mutations.
func (g *Game) Snapshot() *Game {
	cp := &Game{
		Code:                 g.Code,
		Status:               g.Status,
		CurrentRoundIndex:    g.CurrentRoundIndex,
		CurrentQuestionIndex: g.CurrentQuestionIndex,
		TimerDuration:        g.TimerDuration,
		ResultDuration:       g.ResultDuration,
		JokersEnabled:        g.JokersEnabled,
		SoundEnabled:         g.SoundEnabled,
		MusicEnabled:         g.MusicEnabled,
		BgmTrack:             g.BgmTrack,
		StreaksEnabled:       g.StreaksEnabled,
		FastestFingerEnabled: g.FastestFingerEnabled,
		AccessibleLabels:     g.AccessibleLabels,
		HostSocketID:         g.HostSocketID,
	}

	cp.Players = make([]*Player, len(g.Players))
	for i, p := range g.Players {
		cp.Players[i] = p.Clone()
	}

	cp.Rounds = make([]*Round, len(g.Rounds))
	for i, r := range g.Rounds {
		cp.Rounds[i] = r.Clone()
	}
	if rd := cp.CurrentRound(); rd != nil {
		cp.Questions = rd.Questions
	}

	return cp
}
