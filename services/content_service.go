package services

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strings"

	"gorm.io/gorm"

	"github.com/garpunkal/ColourWang-sub000/models"
)

// ContentStore is what the engine needs from question-content storage. The
// gorm-backed ContentService implements it in production; tests substitute an
// in-memory pool.
type ContentStore interface {
	LoadPool() ([]models.PoolQuestion, error)
	Topics() ([]models.Topic, error)
	RemoveQuestion(poolID uint) error
}

type ContentService struct {
	db *gorm.DB
}

func NewContentService(db *gorm.DB) *ContentService {
	return &ContentService{db: db}
}

// LoadPool returns the full question pool with topics and colours attached.
func (s *ContentService) LoadPool() ([]models.PoolQuestion, error) {
	var questions []models.PoolQuestion
	if err := s.db.Preload("Topic").Preload("Colours").Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("failed to load question pool: %w", err)
	}
	return questions, nil
}

// Topics returns the topic catalog.
func (s *ContentService) Topics() ([]models.Topic, error) {
	var topics []models.Topic
	if err := s.db.Order("name").Find(&topics).Error; err != nil {
		return nil, fmt.Errorf("failed to load topics: %w", err)
	}
	return topics, nil
}

// RemoveQuestion deletes a question and its colours from the pool. Rooms that
// already drew the question keep their copy; it just stops being generated.
func (s *ContentService) RemoveQuestion(poolID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", poolID).Delete(&models.QuestionColour{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.PoolQuestion{}, poolID).Error
	})
}

// SeedFromCSV loads the default question pool when the pool table is empty.
// Rows are "topic,question,colour|colour|..." with a header line.
func (s *ContentService) SeedFromCSV(path string) error {
	var count int64
	if err := s.db.Model(&models.PoolQuestion{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("unable to read seed file %s: %w", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return fmt.Errorf("unable to parse %s as CSV: %w", path, err)
	}

	topics := make(map[string]uint)
	seeded := 0
	for i, record := range records {
		if i == 0 || len(record) < 3 {
			continue
		}
		topicName := strings.TrimSpace(record[0])
		text := strings.TrimSpace(record[1])
		colours := strings.Split(record[2], "|")
		if topicName == "" || text == "" || len(colours) == 0 {
			log.Println("Skipping invalid seed record:", record)
			continue
		}

		topicID, ok := topics[topicName]
		if !ok {
			topic := models.Topic{Name: topicName}
			if err := s.db.Where("name = ?", topicName).FirstOrCreate(&topic).Error; err != nil {
				return err
			}
			topicID = topic.ID
			topics[topicName] = topicID
		}

		question := models.PoolQuestion{TopicID: topicID, Text: text}
		if err := s.db.Create(&question).Error; err != nil {
			return err
		}
		for _, colour := range colours {
			colour = strings.TrimSpace(colour)
			if colour == "" {
				continue
			}
			qc := models.QuestionColour{QuestionID: question.ID, Name: colour}
			if err := s.db.Create(&qc).Error; err != nil {
				return err
			}
		}
		seeded++
	}

	log.Printf("Seeded question pool with %d questions from %s", seeded, path)
	return nil
}
