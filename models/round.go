package models

type Round struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Questions   []*Question `json:"questions"`
}

// Option is one selectable colour. Every question carries the same shared
// palette, so the option list itself gives nothing away.
type Option struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

type Question struct {
	ID             string   `json:"id"`
	Question       string   `json:"question"`
	CorrectColours []string `json:"correctColours"`
	Options        []Option `json:"options"`

	// PoolID is the content-pool row this question was drawn from, kept so the
	// host can remove a bad question from the pool mid-game.
	PoolID uint `json:"-"`
}

func (r *Round) Clone() *Round {
	cp := &Round{Title: r.Title, Description: r.Description}
	cp.Questions = make([]*Question, len(r.Questions))
	for i, q := range r.Questions {
		qc := *q
		qc.CorrectColours = append([]string(nil), q.CorrectColours...)
		cp.Questions[i] = &qc
	}
	return cp
}
