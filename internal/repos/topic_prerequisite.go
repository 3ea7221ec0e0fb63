package repos

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/yungbote/examtrack-backend/internal/platform/logger"
	pkgerrors "github.com/yungbote/examtrack-backend/internal/pkg/errors"
	"github.com/yungbote/examtrack-backend/internal/types"
)

type TopicPrerequisiteRepo interface {
	Create(ctx context.Context, tx *gorm.DB, edge *types.TopicPrerequisite) error
	ListAll(ctx context.Context) ([]*types.TopicPrerequisite, error)
	ListByTopic(ctx context.Context, topicID uuid.UUID) ([]*types.TopicPrerequisite, error)
	ListByPrerequisite(ctx context.Context, prereqID uuid.UUID) ([]*types.TopicPrerequisite, error)
}

type topicPrerequisiteRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTopicPrerequisiteRepo(db *gorm.DB, baseLog *logger.Logger) TopicPrerequisiteRepo {
	return &topicPrerequisiteRepo{
		db:  db,
		log: baseLog.With("repo", "TopicPrerequisiteRepo"),
	}
}

func (r *topicPrerequisiteRepo) Create(ctx context.Context, tx *gorm.DB, edge *types.TopicPrerequisite) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if edge.ID == uuid.Nil {
		edge.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Create(edge).Error; err != nil {
		if isUniqueViolation(err) {
			return pkgerrors.ErrInvalidArgument
		}
		return err
	}
	return nil
}

func (r *topicPrerequisiteRepo) ListAll(ctx context.Context) ([]*types.TopicPrerequisite, error) {
	var rows []*types.TopicPrerequisite
	err := r.db.WithContext(ctx).
		Order("topic_id asc, prerequisite_topic_id asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *topicPrerequisiteRepo) ListByTopic(ctx context.Context, topicID uuid.UUID) ([]*types.TopicPrerequisite, error) {
	if topicID == uuid.Nil {
		return nil, nil
	}
	var rows []*types.TopicPrerequisite
	err := r.db.WithContext(ctx).
		Where("topic_id = ?", topicID).
		Order("prerequisite_topic_id asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *topicPrerequisiteRepo) ListByPrerequisite(ctx context.Context, prereqID uuid.UUID) ([]*types.TopicPrerequisite, error) {
	if prereqID == uuid.Nil {
		return nil, nil
	}
	var rows []*types.TopicPrerequisite
	err := r.db.WithContext(ctx).
		Where("prerequisite_topic_id = ?", prereqID).
		Order("topic_id asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// isUniqueViolation recognizes duplicate-key failures from Postgres (23505)
// and from sqlite in tests.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.TrimSpace(pgErr.Code) == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
