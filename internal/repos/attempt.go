package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/examtrack-backend/internal/platform/logger"
	"github.com/yungbote/examtrack-backend/internal/types"
)

type AttemptRepo interface {
	Create(ctx context.Context, tx *gorm.DB, attempt *types.QuestionAttempt) error
	// ListByStudentAndConcept returns all attempts for questions under one
	// concept, oldest first, so consistency windows see insertion order.
	ListByStudentAndConcept(ctx context.Context, studentID, conceptID uuid.UUID) ([]*types.QuestionAttempt, error)
	ListByStudent(ctx context.Context, studentID uuid.UUID, limit int) ([]*types.QuestionAttempt, error)
	CountByStudent(ctx context.Context, studentID uuid.UUID) (total int64, correct int64, err error)
	DistinctConceptIDs(ctx context.Context, studentID uuid.UUID) ([]uuid.UUID, error)
}

type attemptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAttemptRepo(db *gorm.DB, baseLog *logger.Logger) AttemptRepo {
	return &attemptRepo{
		db:  db,
		log: baseLog.With("repo", "AttemptRepo"),
	}
}

func (r *attemptRepo) Create(ctx context.Context, tx *gorm.DB, attempt *types.QuestionAttempt) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if attempt.ID == uuid.Nil {
		attempt.ID = uuid.New()
	}
	return transaction.WithContext(ctx).Create(attempt).Error
}

func (r *attemptRepo) ListByStudentAndConcept(ctx context.Context, studentID, conceptID uuid.UUID) ([]*types.QuestionAttempt, error) {
	if studentID == uuid.Nil || conceptID == uuid.Nil {
		return nil, nil
	}
	var rows []*types.QuestionAttempt
	err := r.db.WithContext(ctx).
		Joins("JOIN question ON question.id = question_attempt.question_id").
		Where("question_attempt.student_id = ? AND question.concept_id = ?", studentID, conceptID).
		Order("question_attempt.created_at asc, question_attempt.id asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *attemptRepo) ListByStudent(ctx context.Context, studentID uuid.UUID, limit int) ([]*types.QuestionAttempt, error) {
	if studentID == uuid.Nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}
	var rows []*types.QuestionAttempt
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *attemptRepo) CountByStudent(ctx context.Context, studentID uuid.UUID) (int64, int64, error) {
	if studentID == uuid.Nil {
		return 0, 0, nil
	}
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&types.QuestionAttempt{}).
		Where("student_id = ?", studentID).
		Count(&total).Error; err != nil {
		return 0, 0, err
	}
	var correct int64
	if err := r.db.WithContext(ctx).
		Model(&types.QuestionAttempt{}).
		Where("student_id = ? AND is_correct = ?", studentID, true).
		Count(&correct).Error; err != nil {
		return 0, 0, err
	}
	return total, correct, nil
}

func (r *attemptRepo) DistinctConceptIDs(ctx context.Context, studentID uuid.UUID) ([]uuid.UUID, error) {
	if studentID == uuid.Nil {
		return nil, nil
	}
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&types.QuestionAttempt{}).
		Joins("JOIN question ON question.id = question_attempt.question_id").
		Where("question_attempt.student_id = ?", studentID).
		Distinct("question.concept_id").
		Order("question.concept_id asc").
		Pluck("question.concept_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
