package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/examtrack-backend/internal/platform/logger"
	"github.com/yungbote/examtrack-backend/internal/types"
)

type StudentProfileRepo interface {
	Create(ctx context.Context, tx *gorm.DB, profile *types.StudentProfile) error
	GetByID(ctx context.Context, studentID uuid.UUID) (*types.StudentProfile, error)
}

type studentProfileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStudentProfileRepo(db *gorm.DB, baseLog *logger.Logger) StudentProfileRepo {
	return &studentProfileRepo{
		db:  db,
		log: baseLog.With("repo", "StudentProfileRepo"),
	}
}

func (r *studentProfileRepo) Create(ctx context.Context, tx *gorm.DB, profile *types.StudentProfile) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	return transaction.WithContext(ctx).Create(profile).Error
}

func (r *studentProfileRepo) GetByID(ctx context.Context, studentID uuid.UUID) (*types.StudentProfile, error) {
	if studentID == uuid.Nil {
		return nil, nil
	}
	var row types.StudentProfile
	err := r.db.WithContext(ctx).
		Where("id = ?", studentID).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}
