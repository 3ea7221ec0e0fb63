package types

import (
	"time"

	"github.com/google/uuid"
)

// TopicPrerequisite is one edge of the prerequisite DAG: TopicID requires
// PrerequisiteTopicID. Acyclicity is enforced by the knowledge graph service
// before any insert.
type TopicPrerequisite struct {
	ID                  uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TopicID             uuid.UUID `gorm:"type:uuid;not null;index:idx_topic_prereq,unique,priority:1" json:"topic_id"`
	Topic               *Topic    `gorm:"constraint:OnDelete:CASCADE;foreignKey:TopicID;references:ID" json:"topic,omitempty"`
	PrerequisiteTopicID uuid.UUID `gorm:"type:uuid;not null;index:idx_topic_prereq,unique,priority:2" json:"prerequisite_topic_id"`
	Prerequisite        *Topic    `gorm:"constraint:OnDelete:CASCADE;foreignKey:PrerequisiteTopicID;references:ID" json:"prerequisite,omitempty"`

	// Mastery the student needs on the prerequisite before this edge is
	// considered met, 0..100.
	MinimumMastery float64 `gorm:"column:minimum_mastery;not null;default:60" json:"minimum_mastery"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (TopicPrerequisite) TableName() string { return "topic_prerequisite" }
