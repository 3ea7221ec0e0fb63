package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/examtrack-backend/internal/platform/logger"
	"github.com/yungbote/examtrack-backend/internal/types"
)

type MasteryRepo interface {
	// Upsert writes the recomputed record; on conflict the existing
	// (student, concept) row is overwritten, which serializes concurrent
	// recomputes at the storage layer.
	Upsert(ctx context.Context, tx *gorm.DB, record *types.ConceptMastery) error
	Get(ctx context.Context, studentID, conceptID uuid.UUID) (*types.ConceptMastery, error)
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*types.ConceptMastery, error)
	ListBelow(ctx context.Context, studentID uuid.UUID, threshold float64) ([]*types.ConceptMastery, error)
	AverageForStudent(ctx context.Context, studentID uuid.UUID) (float64, error)
}

type masteryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMasteryRepo(db *gorm.DB, baseLog *logger.Logger) MasteryRepo {
	return &masteryRepo{
		db:  db,
		log: baseLog.With("repo", "MasteryRepo"),
	}
}

func (r *masteryRepo) Upsert(ctx context.Context, tx *gorm.DB, record *types.ConceptMastery) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if record.StudentID == uuid.Nil || record.ConceptID == uuid.Nil {
		return nil
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.LastUpdated = time.Now().UTC()
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "student_id"}, {Name: "concept_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"total_attempts", "correct_attempts", "avg_time_seconds",
				"avg_confidence", "mastery_score", "last_updated",
			}),
		}).
		Create(record).Error
}

func (r *masteryRepo) Get(ctx context.Context, studentID, conceptID uuid.UUID) (*types.ConceptMastery, error) {
	if studentID == uuid.Nil || conceptID == uuid.Nil {
		return nil, nil
	}
	var row types.ConceptMastery
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND concept_id = ?", studentID, conceptID).
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

func (r *masteryRepo) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*types.ConceptMastery, error) {
	if studentID == uuid.Nil {
		return nil, nil
	}
	var rows []*types.ConceptMastery
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("concept_id asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *masteryRepo) ListBelow(ctx context.Context, studentID uuid.UUID, threshold float64) ([]*types.ConceptMastery, error) {
	if studentID == uuid.Nil {
		return nil, nil
	}
	var rows []*types.ConceptMastery
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND mastery_score < ?", studentID, threshold).
		Order("mastery_score asc, concept_id asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *masteryRepo) AverageForStudent(ctx context.Context, studentID uuid.UUID) (float64, error) {
	if studentID == uuid.Nil {
		return 0, nil
	}
	var avg *float64
	err := r.db.WithContext(ctx).
		Model(&types.ConceptMastery{}).
		Where("student_id = ?", studentID).
		Select("AVG(mastery_score)").
		Scan(&avg).Error
	if err != nil {
		return 0, err
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}
