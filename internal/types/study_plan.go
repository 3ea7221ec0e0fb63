package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type StudyPlan struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	StudentID uuid.UUID       `gorm:"type:uuid;not null;index:idx_study_plan_student" json:"student_id"`
	Student   *StudentProfile `gorm:"constraint:OnDelete:CASCADE;foreignKey:StudentID;references:ID" json:"student,omitempty"`

	// 'daily', 'weekly' or 'exam_countdown'.
	PlanType  string    `gorm:"column:plan_type;not null" json:"plan_type"`
	StartDate time.Time `gorm:"column:start_date;not null" json:"start_date"`
	EndDate   time.Time `gorm:"column:end_date;not null" json:"end_date"`
	// Ordered plan entries, []StudyPlanEntry.
	Topics   datatypes.JSON `gorm:"column:topics;type:jsonb;not null" json:"topics"`
	IsActive bool           `gorm:"column:is_active;not null;default:true" json:"is_active"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (StudyPlan) TableName() string { return "study_plan" }

// StudyPlanEntry is one scheduled topic inside StudyPlan.Topics.
type StudyPlanEntry struct {
	TopicID       uuid.UUID `json:"topic_id"`
	TopicName     string    `json:"topic_name"`
	PriorityScore float64   `json:"priority_score"`
	PlannedHours  float64   `json:"planned_hours"`
}
