package models

import (
	"time"

	"gorm.io/gorm"
)

// Topic tags a group of pool questions ("Flags of Europe", "Football Kits", ...).
type Topic struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Name      string         `json:"name" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Questions []PoolQuestion `json:"questions,omitempty" gorm:"foreignKey:TopicID"`
}

// PoolQuestion is a question as stored in the content pool, before it is drawn
// into a game and mapped onto the shared palette.
type PoolQuestion struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	TopicID   uint           `json:"topic_id" gorm:"not null"`
	Text      string         `json:"text" gorm:"not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Topic   Topic            `json:"topic,omitempty"`
	Colours []QuestionColour `json:"colours,omitempty" gorm:"foreignKey:QuestionID"`
}

// QuestionColour is one accepted colour name for a pool question.
type QuestionColour struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	QuestionID uint           `json:"question_id" gorm:"not null"`
	Name       string         `json:"name" gorm:"not null"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}
