package types

import (
	"time"

	"github.com/google/uuid"
)

// QuestionAttempt is immutable once recorded; mastery is always re-derived
// from the full attempt log, never patched in place.
type QuestionAttempt struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StudentID  uuid.UUID       `gorm:"type:uuid;not null;index:idx_attempt_student_created,priority:1" json:"student_id"`
	Student    *StudentProfile `gorm:"constraint:OnDelete:CASCADE;foreignKey:StudentID;references:ID" json:"student,omitempty"`
	QuestionID uuid.UUID       `gorm:"type:uuid;not null;index:idx_attempt_question" json:"question_id"`
	Question   *Question       `gorm:"constraint:OnDelete:CASCADE;foreignKey:QuestionID;references:ID" json:"question,omitempty"`

	Answer           string  `gorm:"column:answer;not null" json:"answer"`
	IsCorrect        bool    `gorm:"column:is_correct;not null" json:"is_correct"`
	TimeTakenSeconds float64 `gorm:"column:time_taken_seconds;not null" json:"time_taken_seconds"`
	// Self-reported confidence, 1..5.
	Confidence int `gorm:"column:confidence;not null" json:"confidence"`

	CreatedAt time.Time `gorm:"not null;default:now();index:idx_attempt_student_created,priority:2" json:"created_at"`
}

func (QuestionAttempt) TableName() string { return "question_attempt" }
