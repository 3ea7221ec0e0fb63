package curriculum

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	pkgerrors "github.com/yungbote/examtrack-backend/internal/pkg/errors"
	"github.com/yungbote/examtrack-backend/internal/platform/logger"
	"github.com/yungbote/examtrack-backend/internal/services"
	"github.com/yungbote/examtrack-backend/internal/types"
)

type memStore struct {
	topics   []*types.Topic
	edges    []*types.TopicPrerequisite
	concepts []*types.Concept
}

type memTopicRepo struct{ s *memStore }

func (r *memTopicRepo) Create(_ context.Context, _ *gorm.DB, topic *types.Topic) error {
	if topic.ID == uuid.Nil {
		topic.ID = uuid.New()
	}
	r.s.topics = append(r.s.topics, topic)
	return nil
}

func (r *memTopicRepo) GetByID(_ context.Context, topicID uuid.UUID) (*types.Topic, error) {
	for _, topic := range r.s.topics {
		if topic.ID == topicID {
			return topic, nil
		}
	}
	return nil, nil
}

func (r *memTopicRepo) GetByName(_ context.Context, name string) (*types.Topic, error) {
	for _, topic := range r.s.topics {
		if topic.Name == name {
			return topic, nil
		}
	}
	return nil, nil
}

func (r *memTopicRepo) ListAll(_ context.Context) ([]*types.Topic, error) {
	out := append([]*types.Topic(nil), r.s.topics...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

type memPrereqRepo struct{ s *memStore }

func (r *memPrereqRepo) Create(_ context.Context, _ *gorm.DB, edge *types.TopicPrerequisite) error {
	for _, existing := range r.s.edges {
		if existing.TopicID == edge.TopicID && existing.PrerequisiteTopicID == edge.PrerequisiteTopicID {
			return fmt.Errorf("%w: duplicate edge", pkgerrors.ErrInvalidArgument)
		}
	}
	if edge.ID == uuid.Nil {
		edge.ID = uuid.New()
	}
	r.s.edges = append(r.s.edges, edge)
	return nil
}

func (r *memPrereqRepo) ListAll(_ context.Context) ([]*types.TopicPrerequisite, error) {
	return append([]*types.TopicPrerequisite(nil), r.s.edges...), nil
}

func (r *memPrereqRepo) ListByTopic(_ context.Context, topicID uuid.UUID) ([]*types.TopicPrerequisite, error) {
	var out []*types.TopicPrerequisite
	for _, edge := range r.s.edges {
		if edge.TopicID == topicID {
			out = append(out, edge)
		}
	}
	return out, nil
}

func (r *memPrereqRepo) ListByPrerequisite(_ context.Context, prereqID uuid.UUID) ([]*types.TopicPrerequisite, error) {
	var out []*types.TopicPrerequisite
	for _, edge := range r.s.edges {
		if edge.PrerequisiteTopicID == prereqID {
			out = append(out, edge)
		}
	}
	return out, nil
}

type memConceptRepo struct{ s *memStore }

func (r *memConceptRepo) Create(_ context.Context, _ *gorm.DB, concept *types.Concept) error {
	if concept.ID == uuid.Nil {
		concept.ID = uuid.New()
	}
	r.s.concepts = append(r.s.concepts, concept)
	return nil
}

func (r *memConceptRepo) GetByID(_ context.Context, conceptID uuid.UUID) (*types.Concept, error) {
	for _, concept := range r.s.concepts {
		if concept.ID == conceptID {
			return concept, nil
		}
	}
	return nil, nil
}

func (r *memConceptRepo) ListByTopic(_ context.Context, topicID uuid.UUID) ([]*types.Concept, error) {
	var out []*types.Concept
	for _, concept := range r.s.concepts {
		if concept.TopicID == topicID {
			out = append(out, concept)
		}
	}
	return out, nil
}

func (r *memConceptRepo) ListAll(_ context.Context) ([]*types.Concept, error) {
	return append([]*types.Concept(nil), r.s.concepts...), nil
}

type memMasteryRepo struct{}

func (r *memMasteryRepo) Upsert(_ context.Context, _ *gorm.DB, _ *types.ConceptMastery) error {
	return nil
}
func (r *memMasteryRepo) Get(_ context.Context, _, _ uuid.UUID) (*types.ConceptMastery, error) {
	return nil, nil
}
func (r *memMasteryRepo) ListByStudent(_ context.Context, _ uuid.UUID) ([]*types.ConceptMastery, error) {
	return nil, nil
}
func (r *memMasteryRepo) ListBelow(_ context.Context, _ uuid.UUID, _ float64) ([]*types.ConceptMastery, error) {
	return nil, nil
}
func (r *memMasteryRepo) AverageForStudent(_ context.Context, _ uuid.UUID) (float64, error) {
	return 0, nil
}

func newTestLoader(t *testing.T, store *memStore) *Loader {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	topicRepo := &memTopicRepo{store}
	conceptRepo := &memConceptRepo{store}
	kg := services.NewKnowledgeGraphService(nil, log, topicRepo, &memPrereqRepo{store}, conceptRepo, &memMasteryRepo{}, nil)
	return NewLoader(log, kg, topicRepo, conceptRepo)
}

const sampleCurriculum = `
topics:
  - name: Numbers
    exam_weight: 10
    estimated_hours: 3
    concepts:
      - name: Integers
      - name: Fractions
  - name: Algebra
    exam_weight: 25
    estimated_hours: 8
    prerequisites:
      - Numbers
    concepts:
      - name: Linear equations
`

func TestLoadFile_ImportsTopicsAndEdges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curriculum.yaml")
	if err := os.WriteFile(path, []byte(sampleCurriculum), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	store := &memStore{}
	loader := newTestLoader(t, store)
	if err := loader.LoadFile(context.Background(), path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if len(store.topics) != 2 {
		t.Fatalf("topics = %d, want 2", len(store.topics))
	}
	if len(store.concepts) != 3 {
		t.Fatalf("concepts = %d, want 3", len(store.concepts))
	}
	if len(store.edges) != 1 {
		t.Fatalf("edges = %d, want 1", len(store.edges))
	}

	var numbers, algebra *types.Topic
	for _, topic := range store.topics {
		switch topic.Name {
		case "Numbers":
			numbers = topic
		case "Algebra":
			algebra = topic
		}
	}
	if numbers == nil || algebra == nil {
		t.Fatalf("imported topics missing: %+v", store.topics)
	}
	edge := store.edges[0]
	if edge.TopicID != algebra.ID || edge.PrerequisiteTopicID != numbers.ID {
		t.Fatalf("edge = %+v, want Algebra requires Numbers", edge)
	}
}

func TestImport_Idempotent(t *testing.T) {
	store := &memStore{}
	loader := newTestLoader(t, store)
	ctx := context.Background()

	var file File
	if err := yaml.Unmarshal([]byte(sampleCurriculum), &file); err != nil {
		t.Fatalf("parse sample: %v", err)
	}

	created, err := loader.Import(ctx, &file)
	if err != nil {
		t.Fatalf("first import: %v", err)
	}
	if created != 2 {
		t.Fatalf("created = %d, want 2", created)
	}

	created, err = loader.Import(ctx, &file)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if created != 0 {
		t.Fatalf("re-import created %d topics, want 0", created)
	}
	if len(store.topics) != 2 || len(store.concepts) != 3 || len(store.edges) != 1 {
		t.Fatalf("re-import duplicated rows: %d topics, %d concepts, %d edges",
			len(store.topics), len(store.concepts), len(store.edges))
	}
}

func TestImport_UnknownPrerequisiteFails(t *testing.T) {
	store := &memStore{}
	loader := newTestLoader(t, store)

	file := &File{Topics: []TopicSpec{{
		Name:           "Calculus",
		ExamWeight:     30,
		EstimatedHours: 10,
		Prerequisites:  []string{"Algebra"},
	}}}
	if _, err := loader.Import(context.Background(), file); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("forward reference err = %v, want ErrInvalidArgument", err)
	}
	if len(store.topics) != 0 {
		t.Fatalf("failed import still created topics")
	}
}

func TestLoadFromEnv_UnsetIsNoop(t *testing.T) {
	t.Setenv("CURRICULUM_FILE", "")
	store := &memStore{}
	loader := newTestLoader(t, store)
	if err := loader.LoadFromEnv(context.Background()); err != nil {
		t.Fatalf("LoadFromEnv with unset variable: %v", err)
	}
	if len(store.topics) != 0 {
		t.Fatalf("noop import created topics")
	}
}
