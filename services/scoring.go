package services

import (
	"strings"

	"github.com/garpunkal/ColourWang-sub000/models"
)

const (
	BasePoints         = 10
	StreakBonus        = 5
	StreakThreshold    = 3
	FastestFingerBonus = 5
)

// ScoreFlags selects which bonus rules apply for a room.
type ScoreFlags struct {
	Streaks       bool
	FastestFinger bool
}

func normalizeAnswers(answers []string) map[string]struct{} {
	set := make(map[string]struct{}, len(answers))
	for _, a := range answers {
		set[strings.ToLower(strings.TrimSpace(a))] = struct{}{}
	}
	return set
}

// AnswersMatch compares a submitted answer set against the correct set,
// case-insensitively and order-insensitively. Duplicates collapse.
func AnswersMatch(submitted, correct []string) bool {
	s := normalizeAnswers(submitted)
	c := normalizeAnswers(correct)
	if len(s) != len(c) {
		return false
	}
	for name := range c {
		if _, ok := s[name]; !ok {
			return false
		}
	}
	return true
}

func answerOrEmpty(p *models.Player) []string {
	if p.LastAnswer == nil {
		return []string{}
	}
	return p.LastAnswer
}

// fastestCorrect returns the correct player with the smallest non-nil
// submission timestamp, scanning in player order so ties resolve to the
// earlier joiner. Nil when nobody qualifies.
func fastestCorrect(players []*models.Player) *models.Player {
	var winner *models.Player
	for _, p := range players {
		if !p.IsCorrect || p.AnsweredAt == nil {
			continue
		}
		if winner == nil || *p.AnsweredAt < *winner.AnsweredAt {
			winner = p
		}
	}
	return winner
}

// ScoreQuestion evaluates every player's stored answer against the correct set
// and applies the deltas. It runs exactly once per question, when the room
// moves into RESULT. The per-question breakdown fields are recomputed from
// scratch on every pass.
func ScoreQuestion(players []*models.Player, correct []string, flags ScoreFlags) {
	for _, p := range players {
		p.RoundScore = 0
		p.StreakPoints = 0
		p.FastestFingerPoints = 0
		p.IsFastestFinger = false

		p.IsCorrect = AnswersMatch(answerOrEmpty(p), correct)
		if p.IsCorrect {
			p.Streak++
			p.RoundScore = BasePoints
			if flags.Streaks && p.Streak >= StreakThreshold {
				p.StreakPoints = StreakBonus
			}
		} else {
			p.Streak = 0
		}
	}

	if flags.FastestFinger {
		if w := fastestCorrect(players); w != nil {
			w.FastestFingerPoints = FastestFingerBonus
			w.IsFastestFinger = true
		}
	}

	for _, p := range players {
		p.Score += p.RoundScore + p.StreakPoints + p.FastestFingerPoints
	}
}

// OverrideScores re-runs the current question's scoring against a replacement
// correct set. Players flipping correct→incorrect lose exactly what the
// original pass awarded them and their streak resets. Players flipping
// incorrect→correct gain the base points with the streak restarted at 1; the
// streak chain is deliberately not replayed. Fastest finger is recomputed
// wholesale among the new correct set.
func OverrideScores(players []*models.Player, newCorrect []string, flags ScoreFlags) {
	for _, p := range players {
		nowCorrect := AnswersMatch(answerOrEmpty(p), newCorrect)
		if nowCorrect == p.IsCorrect {
			continue
		}
		if p.IsCorrect {
			p.Score -= p.RoundScore + p.StreakPoints + p.FastestFingerPoints
			p.RoundScore = 0
			p.StreakPoints = 0
			p.FastestFingerPoints = 0
			p.Streak = 0
			p.IsCorrect = false
			p.IsFastestFinger = false
		} else {
			p.Score += BasePoints
			p.RoundScore = BasePoints
			p.Streak = 1
			p.IsCorrect = true
		}
	}

	if flags.FastestFinger {
		for _, p := range players {
			p.Score -= p.FastestFingerPoints
			p.FastestFingerPoints = 0
			p.IsFastestFinger = false
		}
		if w := fastestCorrect(players); w != nil {
			w.FastestFingerPoints = FastestFingerBonus
			w.IsFastestFinger = true
			w.Score += FastestFingerBonus
		}
	}
}
