package services

import (
	"testing"
	"time"

	"github.com/garpunkal/ColourWang-sub000/models"
)

func createRoom(t *testing.T, s *GameService, em *fakeEmitter, p CreateGamePayload) string {
	t.Helper()
	s.CreateGame("host", p)
	e, ok := em.last(EventGameCreated)
	if !ok {
		err, _ := em.last(EventError)
		t.Fatalf("no game-created event (error: %v)", err.Payload)
	}
	return e.Payload.(*models.Game).Code
}

func joinPlayer(t *testing.T, s *GameService, em *fakeEmitter, code, socketID, name string) string {
	t.Helper()
	s.JoinGame(socketID, JoinGamePayload{Code: code, Name: name})
	evs := em.socketEvents(socketID, EventJoinedGame)
	if len(evs) == 0 {
		err, _ := em.last(EventError)
		t.Fatalf("%s got no joined-game event (error: %v)", socketID, err.Payload)
	}
	return evs[len(evs)-1].Payload.(JoinedGamePayload).PlayerID
}

func playerState(t *testing.T, s *GameService, code, playerID string) *models.Player {
	t.Helper()
	g := s.registry.Get(code)
	if g == nil {
		t.Fatalf("room %s is gone", code)
	}
	g.Mu.Lock()
	defer g.Mu.Unlock()
	p := g.PlayerByID(playerID)
	if p == nil {
		t.Fatalf("player %s is gone from room %s", playerID, code)
	}
	return p.Clone()
}

func currentCorrect(t *testing.T, s *GameService, code string) []string {
	t.Helper()
	g := s.registry.Get(code)
	if g == nil {
		t.Fatalf("room %s is gone", code)
	}
	g.Mu.Lock()
	defer g.Mu.Unlock()
	q := g.CurrentQuestion()
	if q == nil {
		t.Fatalf("room %s has no current question in %s", code, g.Status)
	}
	return append([]string(nil), q.CorrectColours...)
}

func submit(s *GameService, socketID, code string, answers ...string) {
	s.SubmitAnswer(socketID, SubmitAnswerPayload{Code: code, Answers: answers})
}

func TestFullGameFlowTwoPlayers(t *testing.T) {
	em := &fakeEmitter{}
	s := newTestService(em, &fakeContent{pool: poolOf(4, "Flags")})

	code := createRoom(t, s, em, CreateGamePayload{
		Rounds: 1, QuestionsPerRound: 1, FastestFingerEnabled: true,
	})
	p1 := joinPlayer(t, s, em, code, "s1", "Ana")
	p2 := joinPlayer(t, s, em, code, "s2", "Ben")

	s.StartGame("host", code)
	waitForStatus(t, s, code, models.StatusQuestion)

	correct := currentCorrect(t, s, code)
	submit(s, "s1", code, correct...)

	if e, ok := em.last(EventPlayerAnswered); !ok {
		t.Fatal("no player-answered broadcast after a submission")
	} else {
		flags := e.Payload.(map[string]bool)
		if !flags[p1] || flags[p2] {
			t.Errorf("answered flags = %v, want only %s answered", flags, p1)
		}
	}

	submit(s, "s2", code, "#1E88E5")

	// The last submission tips the room into RESULT without waiting for time-up.
	if status, _ := roomStatus(s, code); status != models.StatusResult {
		t.Fatalf("status after all answered = %s, want RESULT", status)
	}

	if got := playerState(t, s, code, p1); got.Score != 15 || !got.IsCorrect || !got.IsFastestFinger {
		t.Errorf("p1 = score:%d correct:%v fastest:%v, want 15/true/true", got.Score, got.IsCorrect, got.IsFastestFinger)
	}
	if got := playerState(t, s, code, p2); got.Score != 0 || got.IsCorrect {
		t.Errorf("p2 = score:%d correct:%v, want 0/false", got.Score, got.IsCorrect)
	}

	s.NextQuestion("host", code)
	if status, _ := roomStatus(s, code); status != models.StatusFinalScore {
		t.Fatalf("status after last question = %s, want FINAL_SCORE", status)
	}
}

func TestAdvanceWithinRound(t *testing.T) {
	em := &fakeEmitter{}
	s := newTestService(em, &fakeContent{pool: poolOf(4, "Flags")})

	code := createRoom(t, s, em, CreateGamePayload{Rounds: 1, QuestionsPerRound: 2})
	p1 := joinPlayer(t, s, em, code, "s1", "Ana")

	s.StartGame("host", code)
	waitForStatus(t, s, code, models.StatusQuestion)
	submit(s, "s1", code, currentCorrect(t, s, code)...)

	s.NextQuestion("host", code)
	if status, _ := roomStatus(s, code); status != models.StatusCountdown {
		t.Fatalf("status after next-question = %s, want COUNTDOWN", status)
	}
	waitForStatus(t, s, code, models.StatusQuestion)

	if got := playerState(t, s, code, p1); got.LastAnswer != nil || got.AnsweredAt != nil {
		t.Error("per-question player state not reset on advance")
	}
}

func TestAdvanceAcrossRounds(t *testing.T) {
	em := &fakeEmitter{}
	s := newTestService(em, &fakeContent{pool: poolOf(4, "Flags", "Nature")})

	code := createRoom(t, s, em, CreateGamePayload{Rounds: 2, QuestionsPerRound: 1})
	joinPlayer(t, s, em, code, "s1", "Ana")

	s.StartGame("host", code)
	waitForStatus(t, s, code, models.StatusQuestion)
	first := currentCorrect(t, s, code)
	submit(s, "s1", code, first...)

	s.NextQuestion("host", code)
	if status, _ := roomStatus(s, code); status != models.StatusRoundIntro {
		t.Fatalf("status entering round 2 = %s, want ROUND_INTRO", status)
	}
	waitForStatus(t, s, code, models.StatusQuestion)
	submit(s, "s1", code, currentCorrect(t, s, code)...)

	s.NextQuestion("host", code)
	if status, _ := roomStatus(s, code); status != models.StatusFinalScore {
		t.Fatalf("status after final round = %s, want FINAL_SCORE", status)
	}
}

func TestTimeUpFillsEmptyAnswers(t *testing.T) {
	em := &fakeEmitter{}
	s := newTestService(em, &fakeContent{pool: poolOf(4, "Flags")})

	code := createRoom(t, s, em, CreateGamePayload{Rounds: 1, QuestionsPerRound: 1})
	p1 := joinPlayer(t, s, em, code, "s1", "Ana")
	p2 := joinPlayer(t, s, em, code, "s2", "Ben")

	s.StartGame("host", code)
	waitForStatus(t, s, code, models.StatusQuestion)
	submit(s, "s1", code, currentCorrect(t, s, code)...)

	s.TimeUp("host", code)
	if status, _ := roomStatus(s, code); status != models.StatusResult {
		t.Fatalf("status after time-up = %s, want RESULT", status)
	}

	if got := playerState(t, s, code, p1); got.Score != BasePoints {
		t.Errorf("p1 score = %d, want 10", got.Score)
	}
	got := playerState(t, s, code, p2)
	if got.LastAnswer == nil || len(got.LastAnswer) != 0 {
		t.Errorf("p2 answer = %v, want the recorded empty set", got.LastAnswer)
	}
	if got.IsCorrect || got.Score != 0 {
		t.Errorf("p2 = correct:%v score:%d, want incorrect 0", got.IsCorrect, got.Score)
	}
}

func TestResubmitOverwrites(t *testing.T) {
	em := &fakeEmitter{}
	s := newTestService(em, &fakeContent{pool: poolOf(4, "Flags")})

	code := createRoom(t, s, em, CreateGamePayload{Rounds: 1, QuestionsPerRound: 1})
	p1 := joinPlayer(t, s, em, code, "s1", "Ana")
	joinPlayer(t, s, em, code, "s2", "Ben")

	s.StartGame("host", code)
	waitForStatus(t, s, code, models.StatusQuestion)
	correct := currentCorrect(t, s, code)

	submit(s, "s1", code, "#212121") // changes their mind
	submit(s, "s1", code, correct...)
	submit(s, "s2", code, "#212121")

	if got := playerState(t, s, code, p1); got.Score != BasePoints || !got.IsCorrect {
		t.Errorf("p1 scored on the wrong submission: score:%d correct:%v", got.Score, got.IsCorrect)
	}
}

func TestIllegalPhaseEventsAreDropped(t *testing.T) {
	em := &fakeEmitter{}
	s := newTestService(em, &fakeContent{pool: poolOf(4, "Flags")})

	code := createRoom(t, s, em, CreateGamePayload{Rounds: 1, QuestionsPerRound: 1})
	joinPlayer(t, s, em, code, "s1", "Ana")
	em.reset()

	submit(s, "s1", code, "#E53935")
	s.TimeUp("host", code)
	s.NextQuestion("host", code)
	s.OverrideAnswer("host", OverrideAnswerPayload{Code: code, NewAnswer: []string{"Red"}})
	s.RestartGame("host", RestartGamePayload{Code: code, Rounds: 1, QuestionsPerRound: 1})

	if status, _ := roomStatus(s, code); status != models.StatusLobby {
		t.Fatalf("lobby moved to %s on out-of-phase events", status)
	}
	if errs := em.all(EventError); len(errs) != 0 {
		t.Errorf("out-of-phase events produced %d error events, want none", len(errs))
	}
}

func TestKilledRoomTimerIsInert(t *testing.T) {
	em := &fakeEmitter{}
	s := newTestService(em, &fakeContent{pool: poolOf(4, "Flags")})
	s.introDelay = 40 * time.Millisecond

	code := createRoom(t, s, em, CreateGamePayload{Rounds: 1, QuestionsPerRound: 1})
	joinPlayer(t, s, em, code, "s1", "Ana")

	s.StartGame("host", code)
	s.KillGame("host", code)
	time.Sleep(80 * time.Millisecond)

	if s.registry.Get(code) != nil {
		t.Fatal("killed room still registered")
	}
	for _, e := range em.all(EventGameStatusChanged) {
		if snap := e.Payload.(*models.Game); snap.Status == models.StatusCountdown {
			t.Error("intro timer advanced a killed room")
		}
	}
}

func TestEmptiedRoomTimerIsInert(t *testing.T) {
	em := &fakeEmitter{}
	s := newTestService(em, &fakeContent{pool: poolOf(4, "Flags")})
	s.introDelay = 40 * time.Millisecond

	code := createRoom(t, s, em, CreateGamePayload{Rounds: 1, QuestionsPerRound: 1})
	p1 := joinPlayer(t, s, em, code, "s1", "Ana")

	s.StartGame("host", code)
	s.LeaveGame("s1", PlayerActionPayload{Code: code, PlayerID: p1})

	if status, _ := roomStatus(s, code); status != models.StatusLobby {
		t.Fatalf("emptied mid-game room in %s, want LOBBY", status)
	}
	time.Sleep(80 * time.Millisecond)
	if status, _ := roomStatus(s, code); status != models.StatusLobby {
		t.Errorf("stale intro timer moved the reset room to %s", status)
	}
}

func TestStealCardDisablesOpponents(t *testing.T) {
	em := &fakeEmitter{}
	s := newTestService(em, &fakeContent{pool: poolOf(4, "Flags")})

	code := createRoom(t, s, em, CreateGamePayload{
		Rounds: 1, QuestionsPerRound: 1, JokersEnabled: true,
	})
	p1 := joinPlayer(t, s, em, code, "s1", "Ana")
	p2 := joinPlayer(t, s, em, code, "s2", "Ben")
	p3 := joinPlayer(t, s, em, code, "s3", "Cat")

	g := s.registry.Get(code)
	g.Mu.Lock()
	g.PlayerByID(p1).StealCardValue = 3
	g.Mu.Unlock()

	s.StartGame("host", code)
	waitForStatus(t, s, code, models.StatusQuestion)

	s.UseStealCard("s1", code)
	e, ok := em.last(EventStealCardUsed)
	if !ok {
		t.Fatal("no steal-card-used broadcast")
	}
	payload := e.Payload.(*StealCardUsedPayload)
	if payload.PlayerID != p1 || payload.Value != 3 {
		t.Errorf("payload = player:%s value:%d, want %s/3", payload.PlayerID, payload.Value, p1)
	}
	if _, hit := payload.DisabledMap[p1]; hit {
		t.Error("steal card blinded its own player")
	}
	for _, victim := range []string{p2, p3} {
		indexes := payload.DisabledMap[victim]
		if len(indexes) != 3 {
			t.Fatalf("victim %s has %d disabled options, want 3", victim, len(indexes))
		}
		seen := make(map[int]bool)
		for i, idx := range indexes {
			if idx < 0 || idx >= len(Palette) {
				t.Errorf("disabled index %d out of range", idx)
			}
			if seen[idx] {
				t.Errorf("disabled index %d repeated", idx)
			}
			seen[idx] = true
			if i > 0 && indexes[i-1] > idx {
				t.Error("disabled indexes not sorted")
			}
		}
		if got := playerState(t, s, code, victim); len(got.DisabledIndexes) != 3 {
			t.Errorf("victim %s state has %d disabled indexes, want 3", victim, len(got.DisabledIndexes))
		}
	}

	// The card is one-shot: a second play changes nothing.
	before := len(em.all(EventStealCardUsed))
	s.UseStealCard("s1", code)
	if after := len(em.all(EventStealCardUsed)); after != before {
		t.Error("second steal card play was not a no-op")
	}
}

func TestStealCardLeavesOneOption(t *testing.T) {
	em := &fakeEmitter{}
	s := newTestService(em, &fakeContent{pool: poolOf(4, "Flags")})

	code := createRoom(t, s, em, CreateGamePayload{
		Rounds: 1, QuestionsPerRound: 1, JokersEnabled: true,
	})
	p1 := joinPlayer(t, s, em, code, "s1", "Ana")
	p2 := joinPlayer(t, s, em, code, "s2", "Ben")

	g := s.registry.Get(code)
	g.Mu.Lock()
	g.PlayerByID(p1).StealCardValue = 99
	g.Mu.Unlock()

	s.StartGame("host", code)
	waitForStatus(t, s, code, models.StatusQuestion)
	s.UseStealCard("s1", code)

	e, ok := em.last(EventStealCardUsed)
	if !ok {
		t.Fatal("no steal-card-used broadcast")
	}
	if got := len(e.Payload.(*StealCardUsedPayload).DisabledMap[p2]); got != len(Palette)-1 {
		t.Errorf("oversized card disabled %d options, want %d (one left selectable)", got, len(Palette)-1)
	}
}

func TestStealCardIgnoredWhenJokersDisabled(t *testing.T) {
	em := &fakeEmitter{}
	s := newTestService(em, &fakeContent{pool: poolOf(4, "Flags")})

	code := createRoom(t, s, em, CreateGamePayload{Rounds: 1, QuestionsPerRound: 1})
	joinPlayer(t, s, em, code, "s1", "Ana")
	joinPlayer(t, s, em, code, "s2", "Ben")

	s.StartGame("host", code)
	waitForStatus(t, s, code, models.StatusQuestion)
	s.UseStealCard("s1", code)

	if _, ok := em.last(EventStealCardUsed); ok {
		t.Error("steal card fired with jokers disabled")
	}
}

func TestOverrideAnswerRescoresQuestion(t *testing.T) {
	em := &fakeEmitter{}
	s := newTestService(em, &fakeContent{pool: poolOf(4, "Flags")})

	code := createRoom(t, s, em, CreateGamePayload{
		Rounds: 1, QuestionsPerRound: 1, FastestFingerEnabled: true,
	})
	p1 := joinPlayer(t, s, em, code, "s1", "Ana")
	p2 := joinPlayer(t, s, em, code, "s2", "Ben")

	s.StartGame("host", code)
	waitForStatus(t, s, code, models.StatusQuestion)
	original := currentCorrect(t, s, code)
	submit(s, "s1", code, original...)
	submit(s, "s2", code, "#1E88E5")

	// Non-hosts cannot override.
	s.OverrideAnswer("s1", OverrideAnswerPayload{Code: code, NewAnswer: []string{"Blue"}})
	if errs := em.socketEvents("s1", EventError); len(errs) == 0 {
		t.Error("non-host override was not rejected")
	}

	s.OverrideAnswer("host", OverrideAnswerPayload{Code: code, NewAnswer: []string{"Blue"}})

	e, ok := em.last(EventAnswerOverridden)
	if !ok {
		t.Fatal("no answer-overridden broadcast")
	}
	payload := e.Payload.(AnswerOverriddenPayload)
	if len(payload.NewAnswer) != 1 || payload.NewAnswer[0] != "#1E88E5" {
		t.Errorf("new answer = %v, want the resolved palette hex", payload.NewAnswer)
	}
	if len(payload.OriginalAnswer) != 1 || payload.OriginalAnswer[0] != original[0] {
		t.Errorf("original answer = %v, want %v", payload.OriginalAnswer, original)
	}

	if got := playerState(t, s, code, p1); got.Score != 0 || got.IsCorrect {
		t.Errorf("p1 after override = score:%d correct:%v, want 0/false", got.Score, got.IsCorrect)
	}
	if got := playerState(t, s, code, p2); got.Score != 15 || !got.IsCorrect || !got.IsFastestFinger {
		t.Errorf("p2 after override = score:%d correct:%v fastest:%v, want 15/true/true", got.Score, got.IsCorrect, got.IsFastestFinger)
	}
}

func TestRemoveQuestionEditsPool(t *testing.T) {
	em := &fakeEmitter{}
	content := &fakeContent{pool: poolOf(4, "Flags")}
	s := newTestService(em, content)

	code := createRoom(t, s, em, CreateGamePayload{Rounds: 1, QuestionsPerRound: 1})
	joinPlayer(t, s, em, code, "s1", "Ana")

	s.StartGame("host", code)
	waitForStatus(t, s, code, models.StatusQuestion)
	submit(s, "s1", code, "#E53935")

	s.RemoveQuestion("s1", code)
	if errs := em.socketEvents("s1", EventError); len(errs) == 0 {
		t.Error("non-host removal was not rejected")
	}

	s.RemoveQuestion("host", code)
	e, ok := em.last(EventQuestionRemoved)
	if !ok {
		t.Fatal("no question-removed broadcast")
	}
	if !e.Payload.(QuestionRemovedPayload).Success {
		t.Error("removal reported failure")
	}
	if len(content.removed) != 1 {
		t.Fatalf("pool saw %d removals, want 1", len(content.removed))
	}

	// The drawn plan is untouched, only future generation changes.
	if q := currentCorrect(t, s, code); len(q) == 0 {
		t.Error("removal mutated the room's drawn plan")
	}
}

func TestRemoveQuestionPoolFailure(t *testing.T) {
	em := &fakeEmitter{}
	content := &fakeContent{pool: poolOf(4, "Flags")}
	s := newTestService(em, content)

	code := createRoom(t, s, em, CreateGamePayload{Rounds: 1, QuestionsPerRound: 1})
	joinPlayer(t, s, em, code, "s1", "Ana")

	s.StartGame("host", code)
	waitForStatus(t, s, code, models.StatusQuestion)
	submit(s, "s1", code, "#E53935")

	content.removeErr = errPoolUnavailable
	s.RemoveQuestion("host", code)

	e, ok := em.last(EventQuestionRemoved)
	if !ok {
		t.Fatal("no question-removed broadcast")
	}
	if e.Payload.(QuestionRemovedPayload).Success {
		t.Error("pool failure reported as success")
	}
	if errs := em.all(EventError); len(errs) != 0 {
		t.Error("pool failure surfaced as a room error")
	}
}

func TestRestartResetsForNewGame(t *testing.T) {
	em := &fakeEmitter{}
	s := newTestService(em, &fakeContent{pool: poolOf(6, "Flags")})

	code := createRoom(t, s, em, CreateGamePayload{Rounds: 1, QuestionsPerRound: 1})
	p1 := joinPlayer(t, s, em, code, "s1", "Ana")

	g := s.registry.Get(code)
	g.Mu.Lock()
	g.PlayerByID(p1).StealCardUsed = true
	g.Mu.Unlock()

	s.StartGame("host", code)
	waitForStatus(t, s, code, models.StatusQuestion)
	submit(s, "s1", code, currentCorrect(t, s, code)...)
	s.NextQuestion("host", code)
	if status, _ := roomStatus(s, code); status != models.StatusFinalScore {
		t.Fatalf("status = %s, want FINAL_SCORE before restart", status)
	}

	s.RestartGame("host", RestartGamePayload{Code: code, Rounds: 1, QuestionsPerRound: 2, Timer: 20})
	if status, _ := roomStatus(s, code); status != models.StatusLobby {
		t.Fatalf("status after restart = %s, want LOBBY", status)
	}

	got := playerState(t, s, code, p1)
	if got.Score != 0 || got.Streak != 0 || got.StealCardUsed {
		t.Errorf("player after restart = score:%d streak:%d stealUsed:%v, want all reset", got.Score, got.Streak, got.StealCardUsed)
	}

	g.Mu.Lock()
	defer g.Mu.Unlock()
	if g.TimerDuration != 20 {
		t.Errorf("timer after restart = %d, want 20", g.TimerDuration)
	}
	if g.CurrentRoundIndex != 0 || g.CurrentQuestionIndex != 0 {
		t.Error("round cursor not reset on restart")
	}
}

func TestHostDisconnectEndsGame(t *testing.T) {
	em := &fakeEmitter{}
	s := newTestService(em, &fakeContent{pool: poolOf(4, "Flags")})

	code := createRoom(t, s, em, CreateGamePayload{Rounds: 1, QuestionsPerRound: 1})
	joinPlayer(t, s, em, code, "s1", "Ana")

	s.HandleDisconnect("host")

	if s.registry.Get(code) != nil {
		t.Fatal("room survived its host disconnecting")
	}
	if _, ok := em.last(EventGameEnded); !ok {
		t.Error("no game-ended broadcast on host disconnect")
	}

	em.reset()
	s.StartGame("host", code)
	e, ok := em.last(EventError)
	if !ok || e.Payload.(string) != "room not found" {
		t.Errorf("event against the dead room got %v, want room not found", e.Payload)
	}
}
