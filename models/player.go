package models

type Player struct {
	ID          string `json:"id"`
	SocketID    string `json:"socketId"`
	Name        string `json:"name"`
	Avatar      string `json:"avatar"`
	AvatarStyle string `json:"avatarStyle"`

	Score int `json:"score"`

	// Breakdown of the last scoring pass, reset at the start of every pass.
	RoundScore          int `json:"roundScore"`
	StreakPoints        int `json:"streakPoints"`
	FastestFingerPoints int `json:"fastestFingerPoints"`

	LastAnswer      []string `json:"lastAnswer"`
	IsCorrect       bool     `json:"isCorrect"`
	IsFastestFinger bool     `json:"isFastestFinger"`
	Streak          int      `json:"streak"`
	AnsweredAt      *int64   `json:"answeredAt"`

	StealCardValue  int   `json:"stealCardValue"`
	StealCardUsed   bool  `json:"stealCardUsed"`
	DisabledIndexes []int `json:"disabledIndexes"`
}

// HasAnswered reports whether the player has submitted for the current question.
// A non-nil empty slice counts as answered (the empty set).
func (p *Player) HasAnswered() bool {
	return p.LastAnswer != nil
}

// ResetQuestionState clears everything scoped to a single question. Streak and
// steal-card state survive question advances.
func (p *Player) ResetQuestionState() {
	p.RoundScore = 0
	p.StreakPoints = 0
	p.FastestFingerPoints = 0
	p.LastAnswer = nil
	p.IsCorrect = false
	p.IsFastestFinger = false
	p.AnsweredAt = nil
	p.DisabledIndexes = nil
}

// ResetGameState clears everything for a fresh game on restart.
func (p *Player) ResetGameState() {
	p.ResetQuestionState()
	p.Score = 0
	p.Streak = 0
	p.StealCardUsed = false
}

// Clone copies the player, including its answer and disabled-index slices.
func (p *Player) Clone() *Player {
	cp := *p
	if p.LastAnswer != nil {
		cp.LastAnswer = make([]string, len(p.LastAnswer))
		copy(cp.LastAnswer, p.LastAnswer)
	}
	if p.DisabledIndexes != nil {
		cp.DisabledIndexes = make([]int, len(p.DisabledIndexes))
		copy(cp.DisabledIndexes, p.DisabledIndexes)
	}
	if p.AnsweredAt != nil {
		at := *p.AnsweredAt
		cp.AnsweredAt = &at
	}
	return &cp
}
