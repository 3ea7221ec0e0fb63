package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/examtrack-backend/internal/platform/logger"
	"github.com/yungbote/examtrack-backend/internal/types"
)

type TopicRepo interface {
	Create(ctx context.Context, tx *gorm.DB, topic *types.Topic) error
	GetByID(ctx context.Context, topicID uuid.UUID) (*types.Topic, error)
	GetByName(ctx context.Context, name string) (*types.Topic, error)
	ListAll(ctx context.Context) ([]*types.Topic, error)
}

type topicRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTopicRepo(db *gorm.DB, baseLog *logger.Logger) TopicRepo {
	return &topicRepo{
		db:  db,
		log: baseLog.With("repo", "TopicRepo"),
	}
}

func (r *topicRepo) Create(ctx context.Context, tx *gorm.DB, topic *types.Topic) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if topic.ID == uuid.Nil {
		topic.ID = uuid.New()
	}
	return transaction.WithContext(ctx).Create(topic).Error
}

func (r *topicRepo) GetByID(ctx context.Context, topicID uuid.UUID) (*types.Topic, error) {
	if topicID == uuid.Nil {
		return nil, nil
	}
	var row types.Topic
	err := r.db.WithContext(ctx).
		Where("id = ?", topicID).
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

func (r *topicRepo) GetByName(ctx context.Context, name string) (*types.Topic, error) {
	if name == "" {
		return nil, nil
	}
	var row types.Topic
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
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

func (r *topicRepo) ListAll(ctx context.Context) ([]*types.Topic, error) {
	var rows []*types.Topic
	err := r.db.WithContext(ctx).
		Order("id asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
