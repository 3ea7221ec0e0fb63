package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/examtrack-backend/internal/platform/logger"
	"github.com/yungbote/examtrack-backend/internal/types"
)

type QuestionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, question *types.Question) error
	GetByID(ctx context.Context, questionID uuid.UUID) (*types.Question, error)
	GetByIDs(ctx context.Context, questionIDs []uuid.UUID) (map[uuid.UUID]*types.Question, error)
	ListByConcept(ctx context.Context, conceptID uuid.UUID) ([]*types.Question, error)
}

type questionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	return &questionRepo{
		db:  db,
		log: baseLog.With("repo", "QuestionRepo"),
	}
}

func (r *questionRepo) Create(ctx context.Context, tx *gorm.DB, question *types.Question) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if question.ID == uuid.Nil {
		question.ID = uuid.New()
	}
	return transaction.WithContext(ctx).Create(question).Error
}

func (r *questionRepo) GetByID(ctx context.Context, questionID uuid.UUID) (*types.Question, error) {
	if questionID == uuid.Nil {
		return nil, nil
	}
	var row types.Question
	err := r.db.WithContext(ctx).
		Where("id = ?", questionID).
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

func (r *questionRepo) GetByIDs(ctx context.Context, questionIDs []uuid.UUID) (map[uuid.UUID]*types.Question, error) {
	out := make(map[uuid.UUID]*types.Question, len(questionIDs))
	if len(questionIDs) == 0 {
		return out, nil
	}
	var rows []*types.Question
	err := r.db.WithContext(ctx).
		Where("id IN ?", questionIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, q := range rows {
		out[q.ID] = q
	}
	return out, nil
}

func (r *questionRepo) ListByConcept(ctx context.Context, conceptID uuid.UUID) ([]*types.Question, error) {
	if conceptID == uuid.Nil {
		return nil, nil
	}
	var rows []*types.Question
	err := r.db.WithContext(ctx).
		Where("concept_id = ?", conceptID).
		Order("id asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
