package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Concept struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TopicID uuid.UUID `gorm:"type:uuid;not null;index:idx_concept_topic" json:"topic_id"`
	Topic   *Topic    `gorm:"constraint:OnDelete:CASCADE;foreignKey:TopicID;references:ID" json:"topic,omitempty"`

	Name        string `gorm:"column:name;not null" json:"name"`
	Description string `gorm:"column:description" json:"description,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Concept) TableName() string { return "concept" }
