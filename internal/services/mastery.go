package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	pkgerrors "github.com/yungbote/examtrack-backend/internal/pkg/errors"
	"github.com/yungbote/examtrack-backend/internal/platform/logger"
	"github.com/yungbote/examtrack-backend/internal/repos"
	"github.com/yungbote/examtrack-backend/internal/types"
)

// Component weights of the mastery blend. They must sum to 1.0.
const (
	masteryWeightAccuracy    = 0.5
	masteryWeightSpeed       = 0.2
	masteryWeightConfidence  = 0.2
	masteryWeightConsistency = 0.1

	// Consistency looks at the most recent attempts only.
	consistencyWindow = 10
	// Below this many recent attempts the consistency signal is treated
	// as neutral rather than computed.
	consistencyMinAttempts = 3

	defaultExpectedTimeSeconds = 120

	recalcConcurrency = 4
	mistakePatternTop = 5
)

// RecordAttemptInput is the write payload for one answered question.
type RecordAttemptInput struct {
	StudentID        uuid.UUID `json:"student_id"`
	QuestionID       uuid.UUID `json:"question_id"`
	Answer           string    `json:"answer"`
	TimeTakenSeconds float64   `json:"time_taken_seconds"`
	Confidence       int       `json:"confidence"`
}

// AttemptResult reports grading and the mastery score after recomputation.
type AttemptResult struct {
	AttemptID       uuid.UUID `json:"attempt_id"`
	ConceptID       uuid.UUID `json:"concept_id"`
	IsCorrect       bool      `json:"is_correct"`
	NewMasteryScore float64   `json:"new_mastery_score"`
}

// MistakePattern is one recurring wrong answer on a concept.
type MistakePattern struct {
	Answer string `json:"answer"`
	Count  int    `json:"count"`
}

// MistakeReport aggregates wrong answers for one (student, concept) pair.
type MistakeReport struct {
	ConceptID         uuid.UUID        `json:"concept_id"`
	TotalAttempts     int              `json:"total_attempts"`
	IncorrectAttempts int              `json:"incorrect_attempts"`
	MistakeRate       float64          `json:"mistake_rate"`
	Patterns          []MistakePattern `json:"patterns"`
}

// PerformanceSummary is the cross-concept rollup for one student.
type PerformanceSummary struct {
	StudentID       uuid.UUID `json:"student_id"`
	TotalAttempts   int64     `json:"total_attempts"`
	CorrectAttempts int64     `json:"correct_attempts"`
	Accuracy        float64   `json:"accuracy"`
	AverageMastery  float64   `json:"average_mastery"`
	ConceptsTracked int       `json:"concepts_tracked"`
}

type MasteryService interface {
	RecordAttempt(ctx context.Context, input RecordAttemptInput) (*AttemptResult, error)
	Recalculate(ctx context.Context, studentID, conceptID uuid.UUID) (float64, error)
	RecalculateStudent(ctx context.Context, studentID uuid.UUID) error
	GetMastery(ctx context.Context, studentID, conceptID uuid.UUID) (*types.ConceptMastery, error)
	ListMastery(ctx context.Context, studentID uuid.UUID) ([]*types.ConceptMastery, error)
	RecentAttempts(ctx context.Context, studentID uuid.UUID, limit int) ([]*types.QuestionAttempt, error)
	DetectLearningGaps(ctx context.Context, studentID uuid.UUID, threshold float64) ([]*types.ConceptMastery, error)
	MistakePatterns(ctx context.Context, studentID, conceptID uuid.UUID) (*MistakeReport, error)
	StudentPerformance(ctx context.Context, studentID uuid.UUID) (*PerformanceSummary, error)
}

type masteryService struct {
	db           *gorm.DB
	log          *logger.Logger
	attemptRepo  repos.AttemptRepo
	questionRepo repos.QuestionRepo
	masteryRepo  repos.MasteryRepo
	studentRepo  repos.StudentProfileRepo
}

func NewMasteryService(
	db *gorm.DB,
	baseLog *logger.Logger,
	attemptRepo repos.AttemptRepo,
	questionRepo repos.QuestionRepo,
	masteryRepo repos.MasteryRepo,
	studentRepo repos.StudentProfileRepo,
) MasteryService {
	return &masteryService{
		db:           db,
		log:          baseLog.With("service", "MasteryService"),
		attemptRepo:  attemptRepo,
		questionRepo: questionRepo,
		masteryRepo:  masteryRepo,
		studentRepo:  studentRepo,
	}
}

func (s *masteryService) RecordAttempt(ctx context.Context, input RecordAttemptInput) (*AttemptResult, error) {
	if input.StudentID == uuid.Nil || input.QuestionID == uuid.Nil {
		return nil, fmt.Errorf("%w: student_id and question_id are required", pkgerrors.ErrInvalidArgument)
	}
	if input.Confidence < 1 || input.Confidence > 5 {
		return nil, fmt.Errorf("%w: confidence must be between 1 and 5", pkgerrors.ErrInvalidArgument)
	}
	if input.TimeTakenSeconds < 0 {
		return nil, fmt.Errorf("%w: time_taken_seconds must be non-negative", pkgerrors.ErrInvalidArgument)
	}

	student, err := s.studentRepo.GetByID(ctx, input.StudentID)
	if err != nil {
		return nil, fmt.Errorf("load student: %w", err)
	}
	if student == nil {
		return nil, fmt.Errorf("%w: student %s", pkgerrors.ErrNotFound, input.StudentID)
	}

	question, err := s.questionRepo.GetByID(ctx, input.QuestionID)
	if err != nil {
		return nil, fmt.Errorf("load question: %w", err)
	}
	if question == nil {
		return nil, fmt.Errorf("%w: question %s", pkgerrors.ErrNotFound, input.QuestionID)
	}

	isCorrect := normalizeAnswer(input.Answer) == normalizeAnswer(question.CorrectAnswer)

	attempt := &types.QuestionAttempt{
		StudentID:        input.StudentID,
		QuestionID:       input.QuestionID,
		Answer:           input.Answer,
		IsCorrect:        isCorrect,
		TimeTakenSeconds: input.TimeTakenSeconds,
		Confidence:       input.Confidence,
	}
	if err := s.attemptRepo.Create(ctx, nil, attempt); err != nil {
		return nil, fmt.Errorf("create attempt: %w", err)
	}

	score, err := s.Recalculate(ctx, input.StudentID, question.ConceptID)
	if err != nil {
		return nil, err
	}

	s.log.Info("attempt recorded",
		"student_id", input.StudentID.String(),
		"question_id", input.QuestionID.String(),
		"is_correct", isCorrect)

	return &AttemptResult{
		AttemptID:       attempt.ID,
		ConceptID:       question.ConceptID,
		IsCorrect:       isCorrect,
		NewMasteryScore: score,
	}, nil
}

// Recalculate re-derives the mastery row for one (student, concept) pair from
// the complete attempt history. With no attempts it writes nothing and
// reports zero.
func (s *masteryService) Recalculate(ctx context.Context, studentID, conceptID uuid.UUID) (float64, error) {
	if studentID == uuid.Nil || conceptID == uuid.Nil {
		return 0, fmt.Errorf("%w: student_id and concept_id are required", pkgerrors.ErrInvalidArgument)
	}

	attempts, err := s.attemptRepo.ListByStudentAndConcept(ctx, studentID, conceptID)
	if err != nil {
		return 0, fmt.Errorf("list attempts: %w", err)
	}
	if len(attempts) == 0 {
		return 0, nil
	}

	questionIDs := make([]uuid.UUID, 0, len(attempts))
	seen := make(map[uuid.UUID]struct{}, len(attempts))
	for _, a := range attempts {
		if _, ok := seen[a.QuestionID]; ok {
			continue
		}
		seen[a.QuestionID] = struct{}{}
		questionIDs = append(questionIDs, a.QuestionID)
	}
	questions, err := s.questionRepo.GetByIDs(ctx, questionIDs)
	if err != nil {
		return 0, fmt.Errorf("load questions: %w", err)
	}

	stats := computeMasteryStats(attempts, questions)

	record := &types.ConceptMastery{
		StudentID:       studentID,
		ConceptID:       conceptID,
		TotalAttempts:   stats.totalAttempts,
		CorrectAttempts: stats.correctAttempts,
		AvgTimeSeconds:  stats.avgTimeSeconds,
		AvgConfidence:   stats.avgConfidence,
		MasteryScore:    stats.score,
	}
	if err := s.masteryRepo.Upsert(ctx, nil, record); err != nil {
		return 0, fmt.Errorf("upsert mastery: %w", err)
	}
	return stats.score, nil
}

// RecalculateStudent recomputes every concept the student has attempted.
// Concepts recompute independently, so the fan-out runs concurrently with a
// bounded group.
func (s *masteryService) RecalculateStudent(ctx context.Context, studentID uuid.UUID) error {
	if studentID == uuid.Nil {
		return fmt.Errorf("%w: student_id is required", pkgerrors.ErrInvalidArgument)
	}
	conceptIDs, err := s.attemptRepo.DistinctConceptIDs(ctx, studentID)
	if err != nil {
		return fmt.Errorf("list concepts: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(recalcConcurrency)
	for _, conceptID := range conceptIDs {
		conceptID := conceptID
		g.Go(func() error {
			_, err := s.Recalculate(gctx, studentID, conceptID)
			return err
		})
	}
	return g.Wait()
}

// GetMastery returns the stored record, or nil with no error when the student
// has not attempted the concept yet. No data is not an error on the read side.
func (s *masteryService) GetMastery(ctx context.Context, studentID, conceptID uuid.UUID) (*types.ConceptMastery, error) {
	record, err := s.masteryRepo.Get(ctx, studentID, conceptID)
	if err != nil {
		return nil, fmt.Errorf("get mastery: %w", err)
	}
	return record, nil
}

func (s *masteryService) ListMastery(ctx context.Context, studentID uuid.UUID) ([]*types.ConceptMastery, error) {
	rows, err := s.masteryRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list mastery: %w", err)
	}
	return rows, nil
}

func (s *masteryService) RecentAttempts(ctx context.Context, studentID uuid.UUID, limit int) ([]*types.QuestionAttempt, error) {
	rows, err := s.attemptRepo.ListByStudent(ctx, studentID, limit)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return rows, nil
}

// DetectLearningGaps returns concepts scored below the threshold, weakest
// first.
func (s *masteryService) DetectLearningGaps(ctx context.Context, studentID uuid.UUID, threshold float64) ([]*types.ConceptMastery, error) {
	if threshold <= 0 {
		threshold = DefaultMasteryThreshold
	}
	rows, err := s.masteryRepo.ListBelow(ctx, studentID, threshold)
	if err != nil {
		return nil, fmt.Errorf("list gaps: %w", err)
	}
	return rows, nil
}

// MistakePatterns surfaces the most frequent wrong answers on a concept.
// Answers are compared after normalization so "Paris " and "paris" count as
// one pattern.
func (s *masteryService) MistakePatterns(ctx context.Context, studentID, conceptID uuid.UUID) (*MistakeReport, error) {
	attempts, err := s.attemptRepo.ListByStudentAndConcept(ctx, studentID, conceptID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}

	report := &MistakeReport{ConceptID: conceptID, Patterns: []MistakePattern{}}
	report.TotalAttempts = len(attempts)

	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	for i, a := range attempts {
		if a.IsCorrect {
			continue
		}
		report.IncorrectAttempts++
		key := normalizeAnswer(a.Answer)
		if _, ok := counts[key]; !ok {
			firstSeen[key] = i
		}
		counts[key]++
	}
	if report.TotalAttempts > 0 {
		report.MistakeRate = float64(report.IncorrectAttempts) / float64(report.TotalAttempts)
	}

	patterns := make([]MistakePattern, 0, len(counts))
	for answer, count := range counts {
		patterns = append(patterns, MistakePattern{Answer: answer, Count: count})
	}
	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].Count != patterns[j].Count {
			return patterns[i].Count > patterns[j].Count
		}
		return firstSeen[patterns[i].Answer] < firstSeen[patterns[j].Answer]
	})
	if len(patterns) > mistakePatternTop {
		patterns = patterns[:mistakePatternTop]
	}
	report.Patterns = patterns
	return report, nil
}

func (s *masteryService) StudentPerformance(ctx context.Context, studentID uuid.UUID) (*PerformanceSummary, error) {
	student, err := s.studentRepo.GetByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load student: %w", err)
	}
	if student == nil {
		return nil, fmt.Errorf("%w: student %s", pkgerrors.ErrNotFound, studentID)
	}

	total, correct, err := s.attemptRepo.CountByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("count attempts: %w", err)
	}
	records, err := s.masteryRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list mastery: %w", err)
	}
	avg, err := s.masteryRepo.AverageForStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("average mastery: %w", err)
	}

	summary := &PerformanceSummary{
		StudentID:       studentID,
		TotalAttempts:   total,
		CorrectAttempts: correct,
		AverageMastery:  avg,
		ConceptsTracked: len(records),
	}
	if total > 0 {
		summary.Accuracy = float64(correct) / float64(total)
	}
	return summary, nil
}

type masteryStats struct {
	totalAttempts   int
	correctAttempts int
	avgTimeSeconds  float64
	avgConfidence   float64
	score           float64
}

// computeMasteryStats derives every component from the full attempt history.
// attempts must be ordered oldest first; questions may be missing entries for
// deleted questions, which fall back to the default expected time.
func computeMasteryStats(attempts []*types.QuestionAttempt, questions map[uuid.UUID]*types.Question) masteryStats {
	n := len(attempts)
	if n == 0 {
		return masteryStats{}
	}

	var correct int
	var timeSum, confidenceSum, expectedSum float64
	for _, a := range attempts {
		if a.IsCorrect {
			correct++
		}
		timeSum += a.TimeTakenSeconds
		confidenceSum += float64(a.Confidence)
		expected := defaultExpectedTimeSeconds
		if q, ok := questions[a.QuestionID]; ok && q != nil && q.ExpectedTimeSeconds > 0 {
			expected = q.ExpectedTimeSeconds
		}
		expectedSum += float64(expected)
	}

	avgTime := timeSum / float64(n)
	avgConfidence := confidenceSum / float64(n)
	expectedAvg := expectedSum / float64(n)

	accuracy := float64(correct) / float64(n)
	speed := 0.5
	if avgTime > 0 {
		speed = math.Min(1, expectedAvg/avgTime)
	}
	confidence := avgConfidence / 5

	return masteryStats{
		totalAttempts:   n,
		correctAttempts: correct,
		avgTimeSeconds:  avgTime,
		avgConfidence:   avgConfidence,
		score:           masteryScore(accuracy, speed, confidence, consistencyComponent(attempts)),
	}
}

// masteryScore blends the four components, each in [0, 1], into a 0..100
// score.
func masteryScore(accuracy, speed, confidence, consistency float64) float64 {
	score := 100 * (masteryWeightAccuracy*accuracy +
		masteryWeightSpeed*speed +
		masteryWeightConfidence*confidence +
		masteryWeightConsistency*consistency)
	return clamp(score, 0, 100)
}

// consistencyComponent measures how stable recent correctness is. Fewer than
// three recent attempts yields the neutral 0.5; an all-wrong window yields 0;
// otherwise one minus the coefficient of variation, clamped to [0, 1].
func consistencyComponent(attempts []*types.QuestionAttempt) float64 {
	recent := attempts
	if len(recent) > consistencyWindow {
		recent = recent[len(recent)-consistencyWindow:]
	}
	if len(recent) < consistencyMinAttempts {
		return 0.5
	}

	outcomes := make([]float64, len(recent))
	var sum float64
	for i, a := range recent {
		if a.IsCorrect {
			outcomes[i] = 1
		}
		sum += outcomes[i]
	}
	mean := sum / float64(len(outcomes))
	if mean == 0 {
		return 0
	}

	var sq float64
	for _, v := range outcomes {
		d := v - mean
		sq += d * d
	}
	stdev := math.Sqrt(sq / float64(len(outcomes)-1))
	return clamp(1-stdev/mean, 0, 1)
}

// normalizeAnswer makes grading case and whitespace insensitive.
func normalizeAnswer(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
