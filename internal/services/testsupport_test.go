package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/yungbote/examtrack-backend/internal/pkg/errors"
	"github.com/yungbote/examtrack-backend/internal/platform/logger"
	"github.com/yungbote/examtrack-backend/internal/types"
)

// fixture is the shared in-memory store behind the fake repos. Tests seed it
// directly and hand the per-entity fakes to the services under test.
type fixture struct {
	topics    []*types.Topic
	edges     []*types.TopicPrerequisite
	concepts  []*types.Concept
	questions map[uuid.UUID]*types.Question
	attempts  []*types.QuestionAttempt
	mastery   map[string]*types.ConceptMastery
	students  map[uuid.UUID]*types.StudentProfile
	plans     []*types.StudyPlan
	clock     time.Time
}

func newFixture() *fixture {
	return &fixture{
		questions: make(map[uuid.UUID]*types.Question),
		mastery:   make(map[string]*types.ConceptMastery),
		students:  make(map[uuid.UUID]*types.StudentProfile),
		clock:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func masteryKey(studentID, conceptID uuid.UUID) string {
	return studentID.String() + "|" + conceptID.String()
}

func (f *fixture) addStudent(student *types.StudentProfile) *types.StudentProfile {
	if student.ID == uuid.Nil {
		student.ID = uuid.New()
	}
	f.students[student.ID] = student
	return student
}

func (f *fixture) addTopic(name string, weight, hours float64) *types.Topic {
	topic := &types.Topic{ID: uuid.New(), Name: name, ExamWeight: weight, EstimatedHours: hours}
	f.topics = append(f.topics, topic)
	return topic
}

func (f *fixture) addConcept(topicID uuid.UUID, name string) *types.Concept {
	concept := &types.Concept{ID: uuid.New(), TopicID: topicID, Name: name}
	f.concepts = append(f.concepts, concept)
	return concept
}

func (f *fixture) addQuestion(conceptID uuid.UUID, answer string, expectedSeconds int) *types.Question {
	q := &types.Question{
		ID:                  uuid.New(),
		ConceptID:           conceptID,
		Text:                "q",
		Type:                "mcq",
		CorrectAnswer:       answer,
		Difficulty:          "medium",
		ExpectedTimeSeconds: expectedSeconds,
	}
	f.questions[q.ID] = q
	return q
}

func (f *fixture) addEdge(topicID, prereqID uuid.UUID, minMastery float64) *types.TopicPrerequisite {
	edge := &types.TopicPrerequisite{
		ID:                  uuid.New(),
		TopicID:             topicID,
		PrerequisiteTopicID: prereqID,
		MinimumMastery:      minMastery,
	}
	f.edges = append(f.edges, edge)
	return edge
}

func (f *fixture) setMastery(studentID, conceptID uuid.UUID, score float64) {
	f.mastery[masteryKey(studentID, conceptID)] = &types.ConceptMastery{
		ID:           uuid.New(),
		StudentID:    studentID,
		ConceptID:    conceptID,
		MasteryScore: score,
	}
}

func (f *fixture) tick() time.Time {
	f.clock = f.clock.Add(time.Minute)
	return f.clock
}

type fakeTopicRepo struct{ f *fixture }

func (r *fakeTopicRepo) Create(_ context.Context, _ *gorm.DB, topic *types.Topic) error {
	if topic.ID == uuid.Nil {
		topic.ID = uuid.New()
	}
	r.f.topics = append(r.f.topics, topic)
	return nil
}

func (r *fakeTopicRepo) GetByID(_ context.Context, topicID uuid.UUID) (*types.Topic, error) {
	for _, topic := range r.f.topics {
		if topic.ID == topicID {
			return topic, nil
		}
	}
	return nil, nil
}

func (r *fakeTopicRepo) GetByName(_ context.Context, name string) (*types.Topic, error) {
	for _, topic := range r.f.topics {
		if topic.Name == name {
			return topic, nil
		}
	}
	return nil, nil
}

func (r *fakeTopicRepo) ListAll(_ context.Context) ([]*types.Topic, error) {
	out := append([]*types.Topic(nil), r.f.topics...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

type fakePrereqRepo struct{ f *fixture }

func (r *fakePrereqRepo) Create(_ context.Context, _ *gorm.DB, edge *types.TopicPrerequisite) error {
	for _, existing := range r.f.edges {
		if existing.TopicID == edge.TopicID && existing.PrerequisiteTopicID == edge.PrerequisiteTopicID {
			return fmt.Errorf("%w: prerequisite edge already exists", pkgerrors.ErrInvalidArgument)
		}
	}
	if edge.ID == uuid.Nil {
		edge.ID = uuid.New()
	}
	r.f.edges = append(r.f.edges, edge)
	return nil
}

func (r *fakePrereqRepo) ListAll(_ context.Context) ([]*types.TopicPrerequisite, error) {
	return append([]*types.TopicPrerequisite(nil), r.f.edges...), nil
}

func (r *fakePrereqRepo) ListByTopic(_ context.Context, topicID uuid.UUID) ([]*types.TopicPrerequisite, error) {
	var out []*types.TopicPrerequisite
	for _, edge := range r.f.edges {
		if edge.TopicID == topicID {
			out = append(out, edge)
		}
	}
	return out, nil
}

func (r *fakePrereqRepo) ListByPrerequisite(_ context.Context, prereqID uuid.UUID) ([]*types.TopicPrerequisite, error) {
	var out []*types.TopicPrerequisite
	for _, edge := range r.f.edges {
		if edge.PrerequisiteTopicID == prereqID {
			out = append(out, edge)
		}
	}
	return out, nil
}

type fakeConceptRepo struct{ f *fixture }

func (r *fakeConceptRepo) Create(_ context.Context, _ *gorm.DB, concept *types.Concept) error {
	if concept.ID == uuid.Nil {
		concept.ID = uuid.New()
	}
	r.f.concepts = append(r.f.concepts, concept)
	return nil
}

func (r *fakeConceptRepo) GetByID(_ context.Context, conceptID uuid.UUID) (*types.Concept, error) {
	for _, concept := range r.f.concepts {
		if concept.ID == conceptID {
			return concept, nil
		}
	}
	return nil, nil
}

func (r *fakeConceptRepo) ListByTopic(_ context.Context, topicID uuid.UUID) ([]*types.Concept, error) {
	var out []*types.Concept
	for _, concept := range r.f.concepts {
		if concept.TopicID == topicID {
			out = append(out, concept)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (r *fakeConceptRepo) ListAll(_ context.Context) ([]*types.Concept, error) {
	out := append([]*types.Concept(nil), r.f.concepts...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

type fakeQuestionRepo struct{ f *fixture }

func (r *fakeQuestionRepo) Create(_ context.Context, _ *gorm.DB, question *types.Question) error {
	if question.ID == uuid.Nil {
		question.ID = uuid.New()
	}
	r.f.questions[question.ID] = question
	return nil
}

func (r *fakeQuestionRepo) GetByID(_ context.Context, questionID uuid.UUID) (*types.Question, error) {
	return r.f.questions[questionID], nil
}

func (r *fakeQuestionRepo) GetByIDs(_ context.Context, questionIDs []uuid.UUID) (map[uuid.UUID]*types.Question, error) {
	out := make(map[uuid.UUID]*types.Question, len(questionIDs))
	for _, id := range questionIDs {
		if q, ok := r.f.questions[id]; ok {
			out[id] = q
		}
	}
	return out, nil
}

func (r *fakeQuestionRepo) ListByConcept(_ context.Context, conceptID uuid.UUID) ([]*types.Question, error) {
	var out []*types.Question
	for _, q := range r.f.questions {
		if q.ConceptID == conceptID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

type fakeAttemptRepo struct{ f *fixture }

func (r *fakeAttemptRepo) Create(_ context.Context, _ *gorm.DB, attempt *types.QuestionAttempt) error {
	if attempt.ID == uuid.Nil {
		attempt.ID = uuid.New()
	}
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = r.f.tick()
	}
	r.f.attempts = append(r.f.attempts, attempt)
	return nil
}

func (r *fakeAttemptRepo) ListByStudentAndConcept(_ context.Context, studentID, conceptID uuid.UUID) ([]*types.QuestionAttempt, error) {
	var out []*types.QuestionAttempt
	for _, attempt := range r.f.attempts {
		if attempt.StudentID != studentID {
			continue
		}
		q, ok := r.f.questions[attempt.QuestionID]
		if !ok || q.ConceptID != conceptID {
			continue
		}
		out = append(out, attempt)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeAttemptRepo) ListByStudent(_ context.Context, studentID uuid.UUID, limit int) ([]*types.QuestionAttempt, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []*types.QuestionAttempt
	for _, attempt := range r.f.attempts {
		if attempt.StudentID == studentID {
			out = append(out, attempt)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeAttemptRepo) CountByStudent(_ context.Context, studentID uuid.UUID) (int64, int64, error) {
	var total, correct int64
	for _, attempt := range r.f.attempts {
		if attempt.StudentID != studentID {
			continue
		}
		total++
		if attempt.IsCorrect {
			correct++
		}
	}
	return total, correct, nil
}

func (r *fakeAttemptRepo) DistinctConceptIDs(_ context.Context, studentID uuid.UUID) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{})
	var out []uuid.UUID
	for _, attempt := range r.f.attempts {
		if attempt.StudentID != studentID {
			continue
		}
		q, ok := r.f.questions[attempt.QuestionID]
		if !ok {
			continue
		}
		if _, dup := seen[q.ConceptID]; dup {
			continue
		}
		seen[q.ConceptID] = struct{}{}
		out = append(out, q.ConceptID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

type fakeMasteryRepo struct{ f *fixture }

func (r *fakeMasteryRepo) Upsert(_ context.Context, _ *gorm.DB, record *types.ConceptMastery) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.LastUpdated = r.f.tick()
	r.f.mastery[masteryKey(record.StudentID, record.ConceptID)] = record
	return nil
}

func (r *fakeMasteryRepo) Get(_ context.Context, studentID, conceptID uuid.UUID) (*types.ConceptMastery, error) {
	return r.f.mastery[masteryKey(studentID, conceptID)], nil
}

func (r *fakeMasteryRepo) ListByStudent(_ context.Context, studentID uuid.UUID) ([]*types.ConceptMastery, error) {
	var out []*types.ConceptMastery
	for _, record := range r.f.mastery {
		if record.StudentID == studentID {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ConceptID.String() < out[j].ConceptID.String() })
	return out, nil
}

func (r *fakeMasteryRepo) ListBelow(_ context.Context, studentID uuid.UUID, threshold float64) ([]*types.ConceptMastery, error) {
	var out []*types.ConceptMastery
	for _, record := range r.f.mastery {
		if record.StudentID == studentID && record.MasteryScore < threshold {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MasteryScore != out[j].MasteryScore {
			return out[i].MasteryScore < out[j].MasteryScore
		}
		return out[i].ConceptID.String() < out[j].ConceptID.String()
	})
	return out, nil
}

func (r *fakeMasteryRepo) AverageForStudent(_ context.Context, studentID uuid.UUID) (float64, error) {
	var sum float64
	var n int
	for _, record := range r.f.mastery {
		if record.StudentID == studentID {
			sum += record.MasteryScore
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return sum / float64(n), nil
}

type fakeStudentRepo struct{ f *fixture }

func (r *fakeStudentRepo) Create(_ context.Context, _ *gorm.DB, profile *types.StudentProfile) error {
	r.f.addStudent(profile)
	return nil
}

func (r *fakeStudentRepo) GetByID(_ context.Context, studentID uuid.UUID) (*types.StudentProfile, error) {
	return r.f.students[studentID], nil
}

type fakePlanRepo struct{ f *fixture }

func (r *fakePlanRepo) Create(_ context.Context, _ *gorm.DB, plan *types.StudyPlan) error {
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	r.f.plans = append(r.f.plans, plan)
	return nil
}

func (r *fakePlanRepo) ListByStudent(_ context.Context, studentID uuid.UUID) ([]*types.StudyPlan, error) {
	var out []*types.StudyPlan
	for _, plan := range r.f.plans {
		if plan.StudentID == studentID {
			out = append(out, plan)
		}
	}
	return out, nil
}

func (r *fakePlanRepo) DeactivateActive(_ context.Context, _ *gorm.DB, studentID uuid.UUID) error {
	for _, plan := range r.f.plans {
		if plan.StudentID == studentID {
			plan.IsActive = false
		}
	}
	return nil
}

func testLogger() *logger.Logger {
	log, err := logger.New("test")
	if err != nil {
		panic(err)
	}
	return log
}

func newKGService(f *fixture) KnowledgeGraphService {
	return NewKnowledgeGraphService(nil, testLogger(), &fakeTopicRepo{f}, &fakePrereqRepo{f}, &fakeConceptRepo{f}, &fakeMasteryRepo{f}, nil)
}

func newMasteryServiceForTest(f *fixture) MasteryService {
	return NewMasteryService(nil, testLogger(), &fakeAttemptRepo{f}, &fakeQuestionRepo{f}, &fakeMasteryRepo{f}, &fakeStudentRepo{f})
}

func newRecServiceForTest(f *fixture) RecommendationService {
	return NewRecommendationService(nil, testLogger(), &fakeTopicRepo{f}, &fakeConceptRepo{f}, &fakeMasteryRepo{f}, &fakeStudentRepo{f}, &fakePlanRepo{f}, newKGService(f), nil, nil)
}
