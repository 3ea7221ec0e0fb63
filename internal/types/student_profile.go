package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StudentProfile struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Grade      int        `gorm:"column:grade;not null" json:"grade"`
	TargetExam string     `gorm:"column:target_exam;not null" json:"target_exam"`
	ExamDate   *time.Time `gorm:"column:exam_date" json:"exam_date,omitempty"`

	AvailableHoursPerDay float64 `gorm:"column:available_hours_per_day;not null;default:3" json:"available_hours_per_day"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (StudentProfile) TableName() string { return "student_profile" }
