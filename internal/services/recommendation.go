package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/examtrack-backend/internal/clients/openai"
	"github.com/yungbote/examtrack-backend/internal/clients/redis"
	pkgerrors "github.com/yungbote/examtrack-backend/internal/pkg/errors"
	"github.com/yungbote/examtrack-backend/internal/platform/logger"
	"github.com/yungbote/examtrack-backend/internal/repos"
	"github.com/yungbote/examtrack-backend/internal/types"
)

const (
	elaborationTTL     = time.Hour
	elaborationTimeout = 8 * time.Second

	planCandidateLimit = 20
)

// Recommendation is the ephemeral per-topic ranking result. It is computed
// per request and never persisted.
type Recommendation struct {
	TopicID           uuid.UUID `json:"topic_id"`
	TopicName         string    `json:"topic_name"`
	PriorityScore     float64   `json:"priority_score"`
	CurrentMastery    float64   `json:"current_mastery"`
	ExamWeight        float64   `json:"exam_weight"`
	EstimatedHours    float64   `json:"estimated_hours"`
	ExpectedMarksGain float64   `json:"expected_marks_gain"`
	Explanation       string    `json:"explanation"`
}

// ConceptRecommendation ranks one concept inside a topic by remaining gap.
type ConceptRecommendation struct {
	ConceptID      uuid.UUID `json:"concept_id"`
	ConceptName    string    `json:"concept_name"`
	PriorityScore  float64   `json:"priority_score"`
	CurrentMastery float64   `json:"current_mastery"`
}

// Explanation is the full breakdown returned by Explain: the score, every
// numeric component, and rendered text.
type Explanation struct {
	TopicID       uuid.UUID       `json:"topic_id"`
	TopicName     string          `json:"topic_name"`
	PriorityScore float64         `json:"priority_score"`
	Components    ScoreComponents `json:"components"`
	Text          string          `json:"text"`
}

type RecommendationService interface {
	Next(ctx context.Context, studentID uuid.UUID, threshold float64) (*Recommendation, error)
	TopN(ctx context.Context, studentID uuid.UUID, n int, threshold float64) ([]*Recommendation, error)
	ConceptRecommendations(ctx context.Context, studentID, topicID uuid.UUID, n int) ([]*ConceptRecommendation, error)
	Explain(ctx context.Context, studentID, topicID uuid.UUID) (*Explanation, error)
	BuildStudyPlan(ctx context.Context, studentID uuid.UUID, planType string, days int) (*types.StudyPlan, error)
}

type recommendationService struct {
	db          *gorm.DB
	log         *logger.Logger
	topicRepo   repos.TopicRepo
	conceptRepo repos.ConceptRepo
	masteryRepo repos.MasteryRepo
	studentRepo repos.StudentProfileRepo
	planRepo    repos.StudyPlanRepo
	kg          KnowledgeGraphService
	ai          openai.Client
	cache       redis.Cache
}

func NewRecommendationService(
	db *gorm.DB,
	baseLog *logger.Logger,
	topicRepo repos.TopicRepo,
	conceptRepo repos.ConceptRepo,
	masteryRepo repos.MasteryRepo,
	studentRepo repos.StudentProfileRepo,
	planRepo repos.StudyPlanRepo,
	kg KnowledgeGraphService,
	ai openai.Client,
	cache redis.Cache,
) RecommendationService {
	return &recommendationService{
		db:          db,
		log:         baseLog.With("service", "RecommendationService"),
		topicRepo:   topicRepo,
		conceptRepo: conceptRepo,
		masteryRepo: masteryRepo,
		studentRepo: studentRepo,
		planRepo:    planRepo,
		kg:          kg,
		ai:          ai,
		cache:       cache,
	}
}

func (s *recommendationService) Next(ctx context.Context, studentID uuid.UUID, threshold float64) (*Recommendation, error) {
	recs, err := s.TopN(ctx, studentID, 1, threshold)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return recs[0], nil
}

// TopN ranks the student's unlockable topics by descending priority score.
// Ties break on ascending topic id so the ordering is total and stable
// across calls.
func (s *recommendationService) TopN(ctx context.Context, studentID uuid.UUID, n int, threshold float64) ([]*Recommendation, error) {
	if studentID == uuid.Nil {
		return nil, fmt.Errorf("%w: student_id is required", pkgerrors.ErrInvalidArgument)
	}
	if n <= 0 {
		n = 5
	}
	if threshold <= 0 {
		threshold = DefaultMasteryThreshold
	}

	student, err := s.studentRepo.GetByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load student: %w", err)
	}
	if student == nil {
		return []*Recommendation{}, nil
	}
	days := daysToExam(student, time.Now().UTC())

	candidates, err := s.kg.UnlockableTopics(ctx, studentID, threshold)
	if err != nil {
		return nil, err
	}

	// Request-scoped score cache: each topic is scored once per ranking
	// pass even when Explain or the plan builder revisits it.
	scores := make(map[uuid.UUID]ScoreComponents, len(candidates))
	recs := make([]*Recommendation, 0, len(candidates))
	for _, candidate := range candidates {
		comps, ok := scores[candidate.Topic.ID]
		if !ok {
			comps = ComputePriorityScore(ScoreInputs{
				CurrentMastery: candidate.CurrentMastery,
				ExamWeight:     candidate.Topic.ExamWeight,
				DaysToExam:     days,
				EstimatedHours: candidate.Topic.EstimatedHours,
			})
			scores[candidate.Topic.ID] = comps
		}
		recs = append(recs, &Recommendation{
			TopicID:           candidate.Topic.ID,
			TopicName:         candidate.Topic.Name,
			PriorityScore:     comps.PriorityScore,
			CurrentMastery:    comps.CurrentMastery,
			ExamWeight:        comps.ExamWeight,
			EstimatedHours:    candidate.Topic.EstimatedHours,
			ExpectedMarksGain: comps.ExpectedMarksGain,
			Explanation:       renderExplanation(candidate.Topic.Name, comps),
		})
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].PriorityScore != recs[j].PriorityScore {
			return recs[i].PriorityScore > recs[j].PriorityScore
		}
		return recs[i].TopicID.String() < recs[j].TopicID.String()
	})
	if len(recs) > n {
		recs = recs[:n]
	}
	return recs, nil
}

// ConceptRecommendations ranks concepts inside one topic by remaining gap
// alone; concepts carry no exam weight of their own.
func (s *recommendationService) ConceptRecommendations(ctx context.Context, studentID, topicID uuid.UUID, n int) ([]*ConceptRecommendation, error) {
	if n <= 0 {
		n = 5
	}
	concepts, err := s.conceptRepo.ListByTopic(ctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("list concepts: %w", err)
	}
	records, err := s.masteryRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list mastery: %w", err)
	}
	masteryByConcept := make(map[uuid.UUID]float64, len(records))
	for _, record := range records {
		masteryByConcept[record.ConceptID] = record.MasteryScore
	}

	recs := make([]*ConceptRecommendation, 0, len(concepts))
	for _, concept := range concepts {
		mastery := clamp(masteryByConcept[concept.ID], 0, 100)
		recs = append(recs, &ConceptRecommendation{
			ConceptID:      concept.ID,
			ConceptName:    concept.Name,
			PriorityScore:  100 - mastery,
			CurrentMastery: mastery,
		})
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].PriorityScore != recs[j].PriorityScore {
			return recs[i].PriorityScore > recs[j].PriorityScore
		}
		return recs[i].ConceptID.String() < recs[j].ConceptID.String()
	})
	if len(recs) > n {
		recs = recs[:n]
	}
	return recs, nil
}

// Explain recomputes the components for one topic and renders the
// deterministic template. When a text-generation client is wired in, a
// cached elaboration is appended; any upstream failure leaves the
// deterministic text untouched.
func (s *recommendationService) Explain(ctx context.Context, studentID, topicID uuid.UUID) (*Explanation, error) {
	topic, err := s.topicRepo.GetByID(ctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("load topic: %w", err)
	}
	if topic == nil {
		return nil, fmt.Errorf("%w: topic %s", pkgerrors.ErrNotFound, topicID)
	}
	student, err := s.studentRepo.GetByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load student: %w", err)
	}
	if student == nil {
		return nil, fmt.Errorf("%w: student %s", pkgerrors.ErrNotFound, studentID)
	}

	mastery, err := s.topicMastery(ctx, studentID, topicID)
	if err != nil {
		return nil, err
	}
	comps := ComputePriorityScore(ScoreInputs{
		CurrentMastery: mastery,
		ExamWeight:     topic.ExamWeight,
		DaysToExam:     daysToExam(student, time.Now().UTC()),
		EstimatedHours: topic.EstimatedHours,
	})

	text := renderExplanation(topic.Name, comps)
	if elaboration := s.elaborate(ctx, topic.Name, comps); elaboration != "" {
		text = text + "\n\n" + elaboration
	}

	return &Explanation{
		TopicID:       topic.ID,
		TopicName:     topic.Name,
		PriorityScore: comps.PriorityScore,
		Components:    comps,
		Text:          text,
	}, nil
}

// BuildStudyPlan packs the top recommendations into the student's available
// study hours. Previous active plans are deactivated so at most one plan per
// student is live.
func (s *recommendationService) BuildStudyPlan(ctx context.Context, studentID uuid.UUID, planType string, days int) (*types.StudyPlan, error) {
	switch planType {
	case "daily", "weekly", "exam_countdown":
	default:
		return nil, fmt.Errorf("%w: unknown plan_type %q", pkgerrors.ErrInvalidArgument, planType)
	}
	if days <= 0 {
		return nil, fmt.Errorf("%w: days must be positive", pkgerrors.ErrInvalidArgument)
	}

	student, err := s.studentRepo.GetByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load student: %w", err)
	}
	if student == nil {
		return nil, fmt.Errorf("%w: student %s", pkgerrors.ErrNotFound, studentID)
	}

	recs, err := s.TopN(ctx, studentID, planCandidateLimit, DefaultMasteryThreshold)
	if err != nil {
		return nil, err
	}

	hoursPerDay := student.AvailableHoursPerDay
	if hoursPerDay <= 0 {
		hoursPerDay = 3
	}
	budget := hoursPerDay * float64(days)

	entries := make([]types.StudyPlanEntry, 0, len(recs))
	for _, rec := range recs {
		if budget <= 0 {
			break
		}
		planned := math.Min(budget, rec.EstimatedHours)
		entries = append(entries, types.StudyPlanEntry{
			TopicID:       rec.TopicID,
			TopicName:     rec.TopicName,
			PriorityScore: rec.PriorityScore,
			PlannedHours:  planned,
		})
		budget -= planned
	}

	raw, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("marshal plan entries: %w", err)
	}

	now := time.Now().UTC()
	plan := &types.StudyPlan{
		StudentID: studentID,
		PlanType:  planType,
		StartDate: now,
		EndDate:   now.AddDate(0, 0, days),
		Topics:    datatypes.JSON(raw),
		IsActive:  true,
	}

	err = s.withTx(ctx, func(tx *gorm.DB) error {
		if err := s.planRepo.DeactivateActive(ctx, tx, studentID); err != nil {
			return fmt.Errorf("deactivate plans: %w", err)
		}
		if err := s.planRepo.Create(ctx, tx, plan); err != nil {
			return fmt.Errorf("create plan: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("study plan created",
		"student_id", studentID.String(),
		"plan_type", planType,
		"entries", len(entries))
	return plan, nil
}

// topicMastery averages the student's mastery across the topic's concepts,
// treating missing records as zero.
func (s *recommendationService) topicMastery(ctx context.Context, studentID, topicID uuid.UUID) (float64, error) {
	concepts, err := s.conceptRepo.ListByTopic(ctx, topicID)
	if err != nil {
		return 0, fmt.Errorf("list concepts: %w", err)
	}
	if len(concepts) == 0 {
		return 0, nil
	}
	records, err := s.masteryRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return 0, fmt.Errorf("list mastery: %w", err)
	}
	masteryByConcept := make(map[uuid.UUID]float64, len(records))
	for _, record := range records {
		masteryByConcept[record.ConceptID] = record.MasteryScore
	}
	var sum float64
	for _, concept := range concepts {
		sum += masteryByConcept[concept.ID]
	}
	return sum / float64(len(concepts)), nil
}

// elaborate asks the text-generation client for a short motivational
// paragraph, caching responses by their inputs. Always optional; an empty
// string means "use the deterministic text alone".
func (s *recommendationService) elaborate(ctx context.Context, topicName string, comps ScoreComponents) string {
	if s.ai == nil {
		return ""
	}

	key := elaborationCacheKey(topicName, comps)
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, key); ok {
			return cached
		}
	}

	prompt := fmt.Sprintf(
		"A student has %.1f%% mastery of %q, the topic is worth %.1f%% of their exam, the exam is %d days away and the topic takes about %.1f hours to study. Write two encouraging sentences on why to study it now.",
		comps.CurrentMastery, topicName, comps.ExamWeight, comps.DaysToExam, comps.EstimatedHours)

	callCtx, cancel := context.WithTimeout(ctx, elaborationTimeout)
	defer cancel()
	text, err := s.ai.GenerateText(callCtx, "You are a concise, encouraging study coach.", prompt)
	if err != nil {
		s.log.Warn("explanation elaboration unavailable (using template only)", "error", err)
		return ""
	}
	if s.cache != nil {
		s.cache.Put(ctx, key, text, elaborationTTL)
	}
	return text
}

func elaborationCacheKey(topicName string, comps ScoreComponents) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "explain|%s|%.2f|%.2f|%d|%.2f",
		topicName, comps.CurrentMastery, comps.ExamWeight, comps.DaysToExam, comps.EstimatedHours))
	return "explain:" + hex.EncodeToString(sum[:16])
}

// renderExplanation builds the deterministic explanation text from the score
// components. The output depends only on its inputs.
func renderExplanation(topicName string, comps ScoreComponents) string {
	urgencyNote := "You have ample time to master this topic."
	if comps.Urgency > 70 {
		urgencyNote = "Time is running out, prioritize this now."
	} else if comps.Urgency > 40 {
		urgencyNote = "You have moderate time to prepare."
	}

	effortNote := "Requires a significant time commitment."
	if comps.EstimatedHours < 3 {
		effortNote = "Quick to master."
	} else if comps.EstimatedHours < 8 {
		effortNote = "Moderate time investment needed."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Why study %s now? Priority score %.1f/100.\n", topicName, comps.PriorityScore)
	fmt.Fprintf(&b, "Mastery gap: you are at %.1f%% mastery, leaving a gap of %.1f points.\n", comps.CurrentMastery, comps.MasteryGap)
	fmt.Fprintf(&b, "Exam importance: this topic carries %.1f%% of your exam.\n", comps.ExamWeight)
	fmt.Fprintf(&b, "Urgency: %d days until your exam (urgency %.1f/100). %s\n", comps.DaysToExam, comps.Urgency, urgencyNote)
	fmt.Fprintf(&b, "Effort: roughly %.1f hours of study (efficiency %.1f/100). %s\n", comps.EstimatedHours, comps.Efficiency, effortNote)
	fmt.Fprintf(&b, "Expected impact: mastering this topic could add about %.1f marks.", comps.ExpectedMarksGain)
	return b.String()
}

// daysToExam derives urgency input from the profile; without an exam date a
// half-year horizon is assumed.
func daysToExam(student *types.StudentProfile, now time.Time) int {
	if student == nil || student.ExamDate == nil {
		return DefaultDaysToExam
	}
	days := int(math.Ceil(student.ExamDate.Sub(now).Hours() / 24))
	if days < 0 {
		days = 0
	}
	return days
}

func (s *recommendationService) withTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s.db == nil {
		return fn(nil)
	}
	return s.db.WithContext(ctx).Transaction(fn)
}
