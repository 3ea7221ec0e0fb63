package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Question struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ConceptID uuid.UUID `gorm:"type:uuid;not null;index:idx_question_concept" json:"concept_id"`
	Concept   *Concept  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ConceptID;references:ID" json:"concept,omitempty"`

	Text string `gorm:"column:text;not null" json:"text"`
	// 'mcq', 'numerical' or 'true_false'.
	Type string `gorm:"column:type;not null" json:"type"`
	// Options for MCQ questions, []string.
	Options       datatypes.JSON `gorm:"column:options;type:jsonb" json:"options,omitempty"`
	CorrectAnswer string         `gorm:"column:correct_answer;not null" json:"correct_answer"`
	// 'easy', 'medium' or 'hard'.
	Difficulty          string `gorm:"column:difficulty;not null" json:"difficulty"`
	ExpectedTimeSeconds int    `gorm:"column:expected_time_seconds;not null;default:120" json:"expected_time_seconds"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Question) TableName() string { return "question" }
