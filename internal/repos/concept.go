package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/examtrack-backend/internal/platform/logger"
	"github.com/yungbote/examtrack-backend/internal/types"
)

type ConceptRepo interface {
	Create(ctx context.Context, tx *gorm.DB, concept *types.Concept) error
	GetByID(ctx context.Context, conceptID uuid.UUID) (*types.Concept, error)
	ListByTopic(ctx context.Context, topicID uuid.UUID) ([]*types.Concept, error)
	ListAll(ctx context.Context) ([]*types.Concept, error)
}

type conceptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConceptRepo(db *gorm.DB, baseLog *logger.Logger) ConceptRepo {
	return &conceptRepo{
		db:  db,
		log: baseLog.With("repo", "ConceptRepo"),
	}
}

func (r *conceptRepo) Create(ctx context.Context, tx *gorm.DB, concept *types.Concept) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if concept.ID == uuid.Nil {
		concept.ID = uuid.New()
	}
	return transaction.WithContext(ctx).Create(concept).Error
}

func (r *conceptRepo) GetByID(ctx context.Context, conceptID uuid.UUID) (*types.Concept, error) {
	if conceptID == uuid.Nil {
		return nil, nil
	}
	var row types.Concept
	err := r.db.WithContext(ctx).
		Where("id = ?", conceptID).
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

func (r *conceptRepo) ListByTopic(ctx context.Context, topicID uuid.UUID) ([]*types.Concept, error) {
	if topicID == uuid.Nil {
		return nil, nil
	}
	var rows []*types.Concept
	err := r.db.WithContext(ctx).
		Where("topic_id = ?", topicID).
		Order("id asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *conceptRepo) ListAll(ctx context.Context) ([]*types.Concept, error) {
	var rows []*types.Concept
	err := r.db.WithContext(ctx).
		Order("id asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
