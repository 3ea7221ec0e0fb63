package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Topic struct {
	ID       uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name     string     `gorm:"column:name;not null;index:idx_topic_name,unique" json:"name"`
	ParentID *uuid.UUID `gorm:"type:uuid;index:idx_topic_parent" json:"parent_id,omitempty"`
	Parent   *Topic     `gorm:"constraint:OnDelete:SET NULL;foreignKey:ParentID;references:ID" json:"parent,omitempty"`

	// Relative importance on the target exam, 0..100.
	ExamWeight float64 `gorm:"column:exam_weight;not null" json:"exam_weight"`
	// Estimated study effort, must stay > 0.
	EstimatedHours float64 `gorm:"column:estimated_hours;not null" json:"estimated_hours"`
	Description    string  `gorm:"column:description" json:"description,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Topic) TableName() string { return "topic" }
