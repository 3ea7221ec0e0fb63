package types

import (
	"time"

	"github.com/google/uuid"
)

// ConceptMastery is the derived per-(student, concept) score row. At most one
// row per pair; writes go through an upsert keyed on the unique index.
type ConceptMastery struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StudentID uuid.UUID       `gorm:"type:uuid;not null;index:idx_concept_mastery,unique,priority:1" json:"student_id"`
	Student   *StudentProfile `gorm:"constraint:OnDelete:CASCADE;foreignKey:StudentID;references:ID" json:"student,omitempty"`
	ConceptID uuid.UUID       `gorm:"type:uuid;not null;index:idx_concept_mastery,unique,priority:2" json:"concept_id"`
	Concept   *Concept        `gorm:"constraint:OnDelete:CASCADE;foreignKey:ConceptID;references:ID" json:"concept,omitempty"`

	TotalAttempts   int     `gorm:"column:total_attempts;not null;default:0" json:"total_attempts"`
	CorrectAttempts int     `gorm:"column:correct_attempts;not null;default:0" json:"correct_attempts"`
	AvgTimeSeconds  float64 `gorm:"column:avg_time_seconds;not null;default:0" json:"avg_time_seconds"`
	AvgConfidence   float64 `gorm:"column:avg_confidence;not null;default:0" json:"avg_confidence"`
	// 0..100.
	MasteryScore float64 `gorm:"column:mastery_score;not null;default:0" json:"mastery_score"`

	LastUpdated time.Time `gorm:"column:last_updated;not null;default:now()" json:"last_updated"`
	CreatedAt   time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (ConceptMastery) TableName() string { return "concept_mastery" }
