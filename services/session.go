package services

import (
	"log"
	"math/rand"
	"sort"
	"time"

	"github.com/garpunkal/ColourWang-sub000/models"
)

// The room status flow:
//
//	LOBBY → ROUND_INTRO → COUNTDOWN → QUESTION → RESULT
//	RESULT → COUNTDOWN (next question) | ROUND_INTRO (next round) | FINAL_SCORE
//	FINAL_SCORE → LOBBY (restart)
//
// ROUND_INTRO→COUNTDOWN and COUNTDOWN→QUESTION advance on scheduled timers;
// everything else is event-driven. Events that are illegal for the current
// status are dropped silently: they are stale client messages, not bugs.

// StartGame moves a lobby into the first round intro and arms the timer chain.
func (s *GameService) StartGame(socketID, code string) {
	g, ok := s.lookupRoom(socketID, code)
	if !ok {
		return
	}

	g.Mu.Lock()
	if g.Status != models.StatusLobby || len(g.Rounds) == 0 {
		g.Mu.Unlock()
		return
	}
	g.Status = models.StatusRoundIntro
	g.Epoch++
	g.CurrentRoundIndex = 0
	g.CurrentQuestionIndex = 0
	g.Questions = g.Rounds[0].Questions
	s.scheduleAdvance(g.Code, g.Epoch, s.introDelay, models.StatusRoundIntro, s.enterCountdown)
	snap := g.Snapshot()
	g.Mu.Unlock()

	log.Printf("[room %s] game started", snap.Code)
	s.publishState(snap)
}

// scheduleAdvance arms a one-shot phase transition. At fire time the room must
// still exist, still be in the expected status and still be on the same epoch;
// otherwise something else moved the room on and the timer is a no-op.
func (s *GameService) scheduleAdvance(code string, epoch int, delay time.Duration, from models.GameStatus, advance func(*models.Game) *models.Game) {
	time.AfterFunc(delay, func() {
		g := s.registry.Get(code)
		if g == nil {
			return
		}
		g.Mu.Lock()
		if g.Status != from || g.Epoch != epoch {
			g.Mu.Unlock()
			return
		}
		snap := advance(g)
		g.Mu.Unlock()
		if snap != nil {
			s.publishState(snap)
		}
	})
}

// enterCountdown moves ROUND_INTRO→COUNTDOWN. Caller holds the room lock.
func (s *GameService) enterCountdown(g *models.Game) *models.Game {
	g.Status = models.StatusCountdown
	g.Epoch++
	s.scheduleAdvance(g.Code, g.Epoch, s.countdownDelay, models.StatusCountdown, s.enterQuestion)
	return g.Snapshot()
}

// enterQuestion moves COUNTDOWN→QUESTION. Caller holds the room lock.
func (s *GameService) enterQuestion(g *models.Game) *models.Game {
	if g.CurrentQuestion() == nil {
		log.Printf("[room %s] no current question to enter, staying in %s", g.Code, g.Status)
		return nil
	}
	g.Status = models.StatusQuestion
	g.Epoch++
	return g.Snapshot()
}

// SubmitAnswer records a player's answer set for the current question.
// Resubmitting overwrites; only the final stored answer is scored. When the
// last unanswered player submits, the room moves straight to RESULT without
// waiting for time-up.
func (s *GameService) SubmitAnswer(socketID string, p SubmitAnswerPayload) {
	g, ok := s.lookupRoom(socketID, p.Code)
	if !ok {
		return
	}

	g.Mu.Lock()
	if g.Status != models.StatusQuestion {
		g.Mu.Unlock()
		return
	}
	player := g.PlayerBySocket(socketID)
	if player == nil {
		g.Mu.Unlock()
		s.emitError(socketID, "you are not in this room")
		return
	}

	var steal *StealCardUsedPayload
	if p.UseStealCard {
		steal = s.applyStealCardLocked(g, player)
	}

	now := time.Now().UnixMilli()
	answers := make([]string, 0, len(p.Answers))
	answers = append(answers, p.Answers...)
	player.LastAnswer = answers
	player.AnsweredAt = &now

	answered := answeredFlags(g)
	var resultSnap *models.Game
	if g.AllAnswered() {
		resultSnap = s.finishQuestionLocked(g)
	}
	code := g.Code
	g.Mu.Unlock()

	if steal != nil {
		s.emitter.ToRoom(code, EventStealCardUsed, steal)
	}
	s.emitter.ToRoom(code, EventPlayerAnswered, answered)
	if resultSnap != nil {
		s.publishState(resultSnap)
	}
}

// TimeUp forces the current question to RESULT, filling the empty set in for
// anyone who never answered. Any caller may send it; the host's timer does.
func (s *GameService) TimeUp(socketID, code string) {
	g, ok := s.lookupRoom(socketID, code)
	if !ok {
		return
	}

	g.Mu.Lock()
	if g.Status != models.StatusQuestion {
		g.Mu.Unlock()
		return
	}
	snap := s.finishQuestionLocked(g)
	g.Mu.Unlock()

	if snap != nil {
		s.publishState(snap)
	}
}

// finishQuestionLocked scores the current question and moves to RESULT.
// Caller holds the room lock.
func (s *GameService) finishQuestionLocked(g *models.Game) *models.Game {
	q := g.CurrentQuestion()
	if q == nil {
		log.Printf("[room %s] finish requested with no current question", g.Code)
		return nil
	}

	for _, p := range g.Players {
		if p.LastAnswer == nil {
			p.LastAnswer = []string{}
		}
	}
	ScoreQuestion(g.Players, q.CorrectColours, ScoreFlags{
		Streaks:       g.StreaksEnabled,
		FastestFinger: g.FastestFingerEnabled,
	})

	g.Status = models.StatusResult
	g.Epoch++
	return g.Snapshot()
}

// NextQuestion advances past the current result: next question, next round, or
// the final scoreboard when the last round is spent.
func (s *GameService) NextQuestion(socketID, code string) {
	g, ok := s.lookupRoom(socketID, code)
	if !ok {
		return
	}

	g.Mu.Lock()
	if g.Status != models.StatusResult {
		g.Mu.Unlock()
		return
	}

	for _, p := range g.Players {
		p.ResetQuestionState()
	}

	g.CurrentQuestionIndex++
	switch {
	case g.CurrentQuestionIndex < len(g.Questions):
		g.Status = models.StatusCountdown
		g.Epoch++
		s.scheduleAdvance(g.Code, g.Epoch, s.countdownDelay, models.StatusCountdown, s.enterQuestion)
	case g.CurrentRoundIndex+1 < len(g.Rounds):
		g.CurrentRoundIndex++
		g.CurrentQuestionIndex = 0
		g.Questions = g.CurrentRound().Questions
		g.Status = models.StatusRoundIntro
		g.Epoch++
		s.scheduleAdvance(g.Code, g.Epoch, s.introDelay, models.StatusRoundIntro, s.enterCountdown)
	default:
		g.Status = models.StatusFinalScore
		g.Epoch++
		log.Printf("[room %s] game over", g.Code)
	}
	snap := g.Snapshot()
	g.Mu.Unlock()

	s.publishState(snap)
}

type AnswerOverriddenPayload struct {
	NewAnswer      []string `json:"newAnswer"`
	OriginalAnswer []string `json:"originalAnswer"`
}

// OverrideAnswer replaces the current question's accepted answer set and
// recomputes the whole scoring pass for it. Host only.
func (s *GameService) OverrideAnswer(socketID string, p OverrideAnswerPayload) {
	g, ok := s.lookupRoom(socketID, p.Code)
	if !ok {
		return
	}

	g.Mu.Lock()
	if g.Status != models.StatusResult {
		g.Mu.Unlock()
		return
	}
	if g.HostSocketID != socketID {
		g.Mu.Unlock()
		s.emitError(socketID, "only the host can override an answer")
		return
	}
	q := g.CurrentQuestion()
	if q == nil {
		g.Mu.Unlock()
		return
	}

	original := q.CorrectColours
	replacement := make([]string, 0, len(p.NewAnswer))
	for _, name := range p.NewAnswer {
		replacement = append(replacement, ResolveColour(name))
	}
	q.CorrectColours = replacement

	OverrideScores(g.Players, replacement, ScoreFlags{
		Streaks:       g.StreaksEnabled,
		FastestFinger: g.FastestFingerEnabled,
	})

	payload := AnswerOverriddenPayload{NewAnswer: replacement, OriginalAnswer: original}
	code := g.Code
	snap := g.Snapshot()
	g.Mu.Unlock()

	log.Printf("[room %s] answer overridden: %v -> %v", code, original, replacement)
	s.emitter.ToRoom(code, EventAnswerOverridden, payload)
	s.publishState(snap)
}

type QuestionRemovedPayload struct {
	Success bool `json:"success"`
}

// RemoveQuestion deletes the current question from the content pool so it is
// never generated again. The room's already-drawn plan is untouched. Pool edit
// failures come back as success=false, never as a room error.
func (s *GameService) RemoveQuestion(socketID, code string) {
	g, ok := s.lookupRoom(socketID, code)
	if !ok {
		return
	}

	g.Mu.Lock()
	if g.Status != models.StatusResult {
		g.Mu.Unlock()
		return
	}
	if g.HostSocketID != socketID {
		g.Mu.Unlock()
		s.emitError(socketID, "only the host can remove a question")
		return
	}
	var poolID uint
	if q := g.CurrentQuestion(); q != nil {
		poolID = q.PoolID
	}
	roomCode := g.Code
	g.Mu.Unlock()

	success := false
	if poolID != 0 {
		if err := s.content.RemoveQuestion(poolID); err != nil {
			log.Printf("[room %s] failed to remove question %d from pool: %v", roomCode, poolID, err)
		} else {
			success = true
		}
	}
	s.emitter.ToRoom(roomCode, EventQuestionRemoved, QuestionRemovedPayload{Success: success})
}

// RestartGame regenerates the plan and sends a finished game back to LOBBY.
// Scores, streaks and steal cards all reset; player identities survive.
func (s *GameService) RestartGame(socketID string, p RestartGamePayload) {
	g, ok := s.lookupRoom(socketID, p.Code)
	if !ok {
		return
	}

	g.Mu.Lock()
	if g.Status != models.StatusFinalScore {
		g.Mu.Unlock()
		return
	}
	g.Mu.Unlock()

	rounds := s.generator.GenerateRounds(p.Rounds, p.QuestionsPerRound, p.SelectedTopics)
	if len(rounds) == 0 {
		s.emitError(socketID, "could not build any rounds from the question pool")
		return
	}

	g.Mu.Lock()
	if g.Status != models.StatusFinalScore {
		g.Mu.Unlock()
		return
	}
	g.Rounds = rounds
	g.CurrentRoundIndex = 0
	g.CurrentQuestionIndex = 0
	g.Questions = rounds[0].Questions
	if p.Timer > 0 {
		g.TimerDuration = p.Timer
	}
	for _, pl := range g.Players {
		pl.ResetGameState()
	}
	g.Status = models.StatusLobby
	g.Epoch++
	snap := g.Snapshot()
	g.Mu.Unlock()

	log.Printf("[room %s] restarted with %d rounds", snap.Code, len(rounds))
	s.publishState(snap)
}

type StealCardUsedPayload struct {
	PlayerID    string           `json:"playerId"`
	Value       int              `json:"value"`
	DisabledMap map[string][]int `json:"disabledMap"`
}

// UseStealCard plays a steal card outside of an answer submission.
func (s *GameService) UseStealCard(socketID, code string) {
	g, ok := s.lookupRoom(socketID, code)
	if !ok {
		return
	}

	g.Mu.Lock()
	if g.Status != models.StatusQuestion {
		g.Mu.Unlock()
		return
	}
	player := g.PlayerBySocket(socketID)
	if player == nil {
		g.Mu.Unlock()
		s.emitError(socketID, "you are not in this room")
		return
	}
	payload := s.applyStealCardLocked(g, player)
	roomCode := g.Code
	g.Mu.Unlock()

	if payload != nil {
		s.emitter.ToRoom(roomCode, EventStealCardUsed, payload)
	}
}

// applyStealCardLocked flips the player's one-shot steal card and blinds a
// random draw of option positions for every opponent. StealCardUsed is the
// single source of truth: the flip and the disabled-index assignment happen in
// the same critical section, so a retried submission cannot re-trigger it.
// Caller holds the room lock; a nil return means nothing happened.
func (s *GameService) applyStealCardLocked(g *models.Game, player *models.Player) *StealCardUsedPayload {
	if !g.JokersEnabled || player.StealCardUsed {
		return nil
	}
	q := g.CurrentQuestion()
	if q == nil {
		return nil
	}

	player.StealCardUsed = true

	count := player.StealCardValue
	if max := len(q.Options) - 1; count > max {
		// Leave every victim at least one selectable option.
		count = max
	}
	if count < 1 {
		return nil
	}

	disabled := make(map[string][]int, len(g.Players)-1)
	for _, opp := range g.Players {
		if opp.ID == player.ID {
			continue
		}
		indexes := rand.Perm(len(q.Options))[:count]
		sort.Ints(indexes)
		opp.DisabledIndexes = indexes
		disabled[opp.ID] = indexes
	}

	log.Printf("[room %s] player %s used steal card (%d)", g.Code, player.ID, player.StealCardValue)
	return &StealCardUsedPayload{
		PlayerID:    player.ID,
		Value:       player.StealCardValue,
		DisabledMap: disabled,
	}
}

// answeredFlags maps player id → answered for the current question.
// Caller holds the room lock.
func answeredFlags(g *models.Game) map[string]bool {
	flags := make(map[string]bool, len(g.Players))
	for _, p := range g.Players {
		flags[p.ID] = p.HasAnswered()
	}
	return flags
}
