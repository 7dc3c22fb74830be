package services

import "encoding/json"

// Inbound event names. Each maps to exactly one typed payload below; the hub
// dispatcher decodes by tag and calls the matching engine method, so an
// unknown tag can never reach the state machine.
const (
	EventCreateGame     = "create-game"
	EventJoinGame       = "join-game"
	EventRejoinGame     = "rejoin-game"
	EventStartGame      = "start-game"
	EventUseStealCard   = "use-steal-card"
	EventSubmitAnswer   = "submit-answer"
	EventTimeUp         = "time-up"
	EventNextQuestion   = "next-question"
	EventOverrideAnswer = "override-answer"
	EventRemoveQuestion = "remove-question"
	EventRemovePlayer   = "remove-player"
	EventLeaveGame      = "leave-game"
	EventRestartGame    = "restart-game"
	EventKillGame       = "kill-game"
	EventCheckRoom      = "check-room"
	EventUpdateBgm      = "update-bgm"
	EventActiveGames    = "get-active-games"
)

// Outbound event names.
const (
	EventGameCreated       = "game-created"
	EventJoinedGame        = "joined-game"
	EventGameStatusChanged = "game-status-changed"
	EventPlayerJoined      = "player-joined"
	EventPlayerAnswered    = "player-answered"
	EventStealCardUsed     = "steal-card-used"
	EventAnswerOverridden  = "answer-overridden"
	EventQuestionRemoved   = "question-removed"
	EventRoomChecked       = "room-checked"
	EventActiveGamesList   = "active-games"
	EventGameEnded         = "game-ended"
	EventError             = "error"
)

// Message is the wire envelope in both directions.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type CreateGamePayload struct {
	Rounds               int      `json:"rounds"`
	QuestionsPerRound    int      `json:"questionsPerRound"`
	Timer                int      `json:"timer"`
	ResultDuration       int      `json:"resultDuration"`
	JokersEnabled        bool     `json:"jokersEnabled"`
	SoundEnabled         bool     `json:"soundEnabled"`
	MusicEnabled         bool     `json:"musicEnabled"`
	BgmTrack             string   `json:"bgmTrack"`
	StreaksEnabled       bool     `json:"streaksEnabled"`
	FastestFingerEnabled bool     `json:"fastestFingerEnabled"`
	AccessibleLabels     bool     `json:"accessibleLabels"`
	SelectedTopics       []string `json:"selectedTopics"`
}

type JoinGamePayload struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Avatar      string `json:"avatar"`
	AvatarStyle string `json:"avatarStyle"`
}

type RejoinGamePayload struct {
	Code     string `json:"code"`
	PlayerID string `json:"playerId"`
	IsHost   bool   `json:"isHost"`
}

// CodePayload covers the events that carry nothing but a room code.
type CodePayload struct {
	Code string `json:"code"`
}

type SubmitAnswerPayload struct {
	Code         string   `json:"code"`
	Answers      []string `json:"answers"`
	UseStealCard bool     `json:"useStealCard"`
}

type OverrideAnswerPayload struct {
	Code      string   `json:"code"`
	NewAnswer []string `json:"newAnswer"`
}

type PlayerActionPayload struct {
	Code     string `json:"code"`
	PlayerID string `json:"playerId"`
}

type RestartGamePayload struct {
	Code              string   `json:"code"`
	Rounds            int      `json:"rounds"`
	QuestionsPerRound int      `json:"questionsPerRound"`
	Timer             int      `json:"timer"`
	SelectedTopics    []string `json:"selectedTopics"`
}

type UpdateBgmPayload struct {
	Code  string `json:"code"`
	Track string `json:"track"`
}

// Emitter is the transport capability the session engine consumes: send a
// named payload to one socket or to every socket subscribed to a room code,
// and bind/unbind a socket's room subscription. The websocket hub implements
// it; tests use a recording fake.
type Emitter interface {
	ToSocket(socketID, event string, payload any)
	ToRoom(code, event string, payload any)
	Subscribe(socketID, code string)
	Unsubscribe(socketID string)
}
