package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/examtrack-backend/internal/platform/logger"
	"github.com/yungbote/examtrack-backend/internal/types"
)

type StudyPlanRepo interface {
	Create(ctx context.Context, tx *gorm.DB, plan *types.StudyPlan) error
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*types.StudyPlan, error)
	DeactivateActive(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) error
}

type studyPlanRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStudyPlanRepo(db *gorm.DB, baseLog *logger.Logger) StudyPlanRepo {
	return &studyPlanRepo{
		db:  db,
		log: baseLog.With("repo", "StudyPlanRepo"),
	}
}

func (r *studyPlanRepo) Create(ctx context.Context, tx *gorm.DB, plan *types.StudyPlan) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	return transaction.WithContext(ctx).Create(plan).Error
}

func (r *studyPlanRepo) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*types.StudyPlan, error) {
	if studentID == uuid.Nil {
		return nil, nil
	}
	var rows []*types.StudyPlan
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at desc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *studyPlanRepo) DeactivateActive(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if studentID == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.StudyPlan{}).
		Where("student_id = ? AND is_active = ?", studentID, true).
		Update("is_active", false).Error
}
