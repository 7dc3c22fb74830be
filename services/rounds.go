package services

import (
	"fmt"
	"log"
	"math/rand"
	"strings"

	"github.com/google/uuid"

	"github.com/garpunkal/ColourWang-sub000/models"
)

// Palette is the fixed shared option set. Every generated question offers the
// whole palette, so the options never hint at the answer.
var Palette = []models.Option{
	{Name: "Red", Hex: "#E53935"},
	{Name: "Orange", Hex: "#FB8C00"},
	{Name: "Yellow", Hex: "#FDD835"},
	{Name: "Green", Hex: "#43A047"},
	{Name: "Blue", Hex: "#1E88E5"},
	{Name: "Purple", Hex: "#8E24AA"},
	{Name: "Pink", Hex: "#EC407A"},
	{Name: "Brown", Hex: "#795548"},
	{Name: "Black", Hex: "#212121"},
	{Name: "White", Hex: "#FAFAFA"},
	{Name: "Grey", Hex: "#9E9E9E"},
	{Name: "Gold", Hex: "#C9A227"},
}

// ResolveColour maps a colour name from the content pool onto its palette hex
// code. Unknown names pass through unchanged.
func ResolveColour(name string) string {
	for _, opt := range Palette {
		if strings.EqualFold(opt.Name, strings.TrimSpace(name)) {
			return opt.Hex
		}
	}
	return name
}

// maxTopicFailures bounds how many topics in a row may be rejected for having
// too few unused questions before generation gives up and returns what it has.
const maxTopicFailures = 5

// RoundGenerator builds the question plan for a room from the content pool.
// Draws go through the locked top-level rand functions, so concurrent
// generation for different rooms is safe.
type RoundGenerator struct {
	content ContentStore
}

func NewRoundGenerator(content ContentStore) *RoundGenerator {
	return &RoundGenerator{content: content}
}

// GenerateRounds draws numRounds topics and questionsPerRound questions per
// topic. Questions are unique for the lifetime of the generated plan. A topic
// with fewer than half the requested questions still unused is skipped and
// another drawn; too many consecutive skips end generation early with fewer
// rounds than asked for. An empty result means the pool could not support the
// game at all and the room must not be created.
func (rg *RoundGenerator) GenerateRounds(numRounds, questionsPerRound int, selectedTopics []string) []*models.Round {
	pool, err := rg.content.LoadPool()
	if err != nil {
		log.Printf("round generation: failed to load question pool: %v", err)
		return nil
	}

	byTopic := make(map[string][]models.PoolQuestion)
	for _, q := range pool {
		byTopic[q.Topic.Name] = append(byTopic[q.Topic.Name], q)
	}

	catalog := make([]string, 0, len(byTopic))
	for name := range byTopic {
		if len(selectedTopics) > 0 && !containsFold(selectedTopics, name) {
			continue
		}
		catalog = append(catalog, name)
	}
	if len(catalog) == 0 || numRounds <= 0 || questionsPerRound <= 0 {
		return nil
	}

	rand.Shuffle(len(catalog), func(i, j int) {
		catalog[i], catalog[j] = catalog[j], catalog[i]
	})

	used := make(map[uint]bool)
	rounds := make([]*models.Round, 0, numRounds)
	cursor := 0
	failures := 0

	for len(rounds) < numRounds {
		if cursor >= len(catalog) {
			// Catalog exhausted: reshuffle and reuse. Topics may repeat in a
			// long game, but only after every topic has had a turn.
			rand.Shuffle(len(catalog), func(i, j int) {
				catalog[i], catalog[j] = catalog[j], catalog[i]
			})
			cursor = 0
		}
		topic := catalog[cursor]
		cursor++

		available := make([]models.PoolQuestion, 0, len(byTopic[topic]))
		for _, q := range byTopic[topic] {
			if !used[q.ID] {
				available = append(available, q)
			}
		}

		if len(available)*2 < questionsPerRound {
			failures++
			if failures >= maxTopicFailures {
				log.Printf("round generation: %d topics in a row too thin, stopping at %d/%d rounds",
					failures, len(rounds), numRounds)
				break
			}
			continue
		}
		failures = 0

		rand.Shuffle(len(available), func(i, j int) {
			available[i], available[j] = available[j], available[i]
		})
		take := questionsPerRound
		if take > len(available) {
			take = len(available)
		}

		questions := make([]*models.Question, 0, take)
		for _, pq := range available[:take] {
			used[pq.ID] = true
			questions = append(questions, buildQuestion(pq))
		}

		rounds = append(rounds, &models.Round{
			Title:       topic,
			Description: fmt.Sprintf("%d questions on %s", take, topic),
			Questions:   questions,
		})
	}

	return rounds
}

func buildQuestion(pq models.PoolQuestion) *models.Question {
	colours := make([]string, 0, len(pq.Colours))
	for _, c := range pq.Colours {
		colours = append(colours, ResolveColour(c.Name))
	}
	return &models.Question{
		ID:             uuid.NewString(),
		PoolID:         pq.ID,
		Question:       pq.Text,
		CorrectColours: colours,
		Options:        Palette,
	}
}

func containsFold(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}
