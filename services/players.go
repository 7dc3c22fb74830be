package services

import (
	"log"
	"math/rand"

	"github.com/google/uuid"

	"github.com/garpunkal/ColourWang-sub000/models"
)

const stealCardMax = 8

// fallbackAvatars is worked through in order when a joiner asks for no avatar.
var fallbackAvatars = []string{
	"fox", "owl", "frog", "panda", "koala", "tiger", "penguin", "sloth", "otter", "raccoon",
}

const defaultAvatarStyle = "flat"

type JoinedGamePayload struct {
	Game     *models.Game `json:"game"`
	PlayerID string       `json:"playerId"`
}

// JoinGame admits a new player: capacity and avatar checks, a fresh stable id,
// and a steal card drawn once for the whole session.
func (s *GameService) JoinGame(socketID string, p JoinGamePayload) {
	g, ok := s.lookupRoom(socketID, p.Code)
	if !ok {
		return
	}

	g.Mu.Lock()
	if g.Status == models.StatusFinalScore {
		g.Mu.Unlock()
		s.emitError(socketID, "that game has already finished")
		return
	}
	if len(g.Players) >= MaxPlayersPerRoom {
		g.Mu.Unlock()
		s.emitError(socketID, "room is full")
		return
	}

	style := p.AvatarStyle
	if style == "" {
		style = defaultAvatarStyle
	}
	avatar := p.Avatar
	if avatar == "" {
		avatar = firstFreeAvatar(g, style)
		if avatar == "" {
			g.Mu.Unlock()
			s.emitError(socketID, "no avatars left in this room")
			return
		}
	} else if avatarTaken(g, avatar, style) {
		g.Mu.Unlock()
		s.emitError(socketID, "that avatar is already taken")
		return
	}

	player := &models.Player{
		ID:             uuid.NewString(),
		SocketID:       socketID,
		Name:           p.Name,
		Avatar:         avatar,
		AvatarStyle:    style,
		StealCardValue: rand.Intn(stealCardMax) + 1,
	}
	g.Players = append(g.Players, player)
	snap := g.Snapshot()
	g.Mu.Unlock()

	log.Printf("[room %s] player %s (%s) joined, %d in room", snap.Code, player.ID, player.Name, len(snap.Players))
	s.emitter.Subscribe(socketID, snap.Code)
	s.emitter.ToSocket(socketID, EventJoinedGame, JoinedGamePayload{Game: snap, PlayerID: player.ID})
	s.emitter.ToRoom(snap.Code, EventPlayerJoined, snap.Players)
	s.mirror(snap)
}

// RejoinGame rebinds an existing identity (player or host) to a new transport
// connection after a disconnect. An unknown player id is a reported error.
func (s *GameService) RejoinGame(socketID string, p RejoinGamePayload) {
	g, ok := s.lookupRoom(socketID, p.Code)
	if !ok {
		return
	}

	g.Mu.Lock()
	playerID := ""
	if p.IsHost {
		g.HostSocketID = socketID
	} else {
		player := g.PlayerByID(p.PlayerID)
		if player == nil {
			g.Mu.Unlock()
			s.emitError(socketID, "player not found in this room")
			return
		}
		player.SocketID = socketID
		playerID = player.ID
	}
	inLobby := g.Status == models.StatusLobby
	snap := g.Snapshot()
	g.Mu.Unlock()

	log.Printf("[room %s] socket %s rejoined (host=%v)", snap.Code, socketID, p.IsHost)
	s.emitter.Subscribe(socketID, snap.Code)
	s.emitter.ToSocket(socketID, EventJoinedGame, JoinedGamePayload{Game: snap, PlayerID: playerID})
	if inLobby {
		// Late-binding lobby UIs converge on the fresh list.
		s.emitter.ToRoom(snap.Code, EventPlayerJoined, snap.Players)
	}
}

// RemovePlayer kicks a player. Host only.
func (s *GameService) RemovePlayer(socketID string, p PlayerActionPayload) {
	g, ok := s.lookupRoom(socketID, p.Code)
	if !ok {
		return
	}

	g.Mu.Lock()
	if g.HostSocketID != socketID {
		g.Mu.Unlock()
		s.emitError(socketID, "only the host can remove players")
		return
	}
	s.removePlayerLocked(g, socketID, p.PlayerID)
}

// LeaveGame is a player's voluntary exit. The caller's socket must belong to
// the player being removed; kicking someone else goes through RemovePlayer.
func (s *GameService) LeaveGame(socketID string, p PlayerActionPayload) {
	g, ok := s.lookupRoom(socketID, p.Code)
	if !ok {
		return
	}

	g.Mu.Lock()
	caller := g.PlayerBySocket(socketID)
	if caller == nil {
		g.Mu.Unlock()
		s.emitError(socketID, "you are not in this room")
		return
	}
	if caller.ID != p.PlayerID {
		g.Mu.Unlock()
		s.emitError(socketID, "you can only leave as yourself")
		return
	}
	s.removePlayerLocked(g, socketID, p.PlayerID)
}

// removePlayerLocked takes the room lock from the caller and releases it.
// Emptying a mid-game room resets it to LOBBY instead of destroying it.
func (s *GameService) removePlayerLocked(g *models.Game, callerSocketID, playerID string) {
	idx := -1
	for i, pl := range g.Players {
		if pl.ID == playerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		g.Mu.Unlock()
		s.emitError(callerSocketID, "player not found in this room")
		return
	}

	removed := g.Players[idx]
	g.Players = append(g.Players[:idx], g.Players[idx+1:]...)

	midGame := g.Status != models.StatusLobby && g.Status != models.StatusFinalScore
	if len(g.Players) == 0 && midGame {
		log.Printf("[room %s] emptied mid-game, resetting to lobby", g.Code)
		g.Status = models.StatusLobby
		g.Epoch++
		g.CurrentRoundIndex = 0
		g.CurrentQuestionIndex = 0
		if len(g.Rounds) > 0 {
			g.Questions = g.Rounds[0].Questions
		}
	}

	snap := g.Snapshot()
	removedSocket := removed.SocketID
	g.Mu.Unlock()

	log.Printf("[room %s] player %s (%s) removed", snap.Code, removed.ID, removed.Name)
	if removedSocket != "" {
		s.emitter.ToSocket(removedSocket, EventGameEnded, nil)
		s.emitter.Unsubscribe(removedSocket)
	}
	s.emitter.ToRoom(snap.Code, EventPlayerJoined, snap.Players)
	s.mirror(snap)
}

// HandleDisconnect reacts to a transport-level connection drop. A host leaving
// takes the room with it; a player's identity survives for a later rejoin,
// only the socket binding is cleared.
func (s *GameService) HandleDisconnect(socketID string) {
	for _, g := range s.registry.All() {
		g.Mu.Lock()
		if g.HostSocketID == socketID {
			code := g.Code
			g.Epoch++
			g.Mu.Unlock()

			s.registry.Remove(code)
			log.Printf("[room %s] host disconnected, game over", code)
			s.emitter.ToRoom(code, EventGameEnded, nil)
			s.dropMirror(code)
			continue
		}
		if p := g.PlayerBySocket(socketID); p != nil {
			p.SocketID = ""
		}
		g.Mu.Unlock()
	}
}

func avatarTaken(g *models.Game, avatar, style string) bool {
	for _, p := range g.Players {
		if p.Avatar == avatar && p.AvatarStyle == style {
			return true
		}
	}
	return false
}

func firstFreeAvatar(g *models.Game, style string) string {
	for _, avatar := range fallbackAvatars {
		if !avatarTaken(g, avatar, style) {
			return avatar
		}
	}
	return ""
}
