package curriculum

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	pkgerrors "github.com/yungbote/examtrack-backend/internal/pkg/errors"
	"github.com/yungbote/examtrack-backend/internal/platform/logger"
	"github.com/yungbote/examtrack-backend/internal/repos"
	"github.com/yungbote/examtrack-backend/internal/services"
	"github.com/yungbote/examtrack-backend/internal/types"
)

// File is the on-disk curriculum document. Topics reference prerequisites by
// name, so the file stays portable across environments with different ids.
type File struct {
	Topics []TopicSpec `yaml:"topics"`
}

type TopicSpec struct {
	Name           string        `yaml:"name"`
	ExamWeight     float64       `yaml:"exam_weight"`
	EstimatedHours float64       `yaml:"estimated_hours"`
	Description    string        `yaml:"description"`
	Prerequisites  []string      `yaml:"prerequisites"`
	Concepts       []ConceptSpec `yaml:"concepts"`
}

type ConceptSpec struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Loader imports a curriculum file through the knowledge graph service so
// every edge goes through the same validation and cycle checks as the API.
type Loader struct {
	log         *logger.Logger
	kg          services.KnowledgeGraphService
	topicRepo   repos.TopicRepo
	conceptRepo repos.ConceptRepo
}

func NewLoader(baseLog *logger.Logger, kg services.KnowledgeGraphService, topicRepo repos.TopicRepo, conceptRepo repos.ConceptRepo) *Loader {
	return &Loader{
		log:         baseLog.With("service", "CurriculumLoader"),
		kg:          kg,
		topicRepo:   topicRepo,
		conceptRepo: conceptRepo,
	}
}

// LoadFromEnv imports the file named by CURRICULUM_FILE. An unset variable
// is not an error; startup simply skips the import.
func (l *Loader) LoadFromEnv(ctx context.Context) error {
	path := os.Getenv("CURRICULUM_FILE")
	if path == "" {
		return nil
	}
	return l.LoadFile(ctx, path)
}

func (l *Loader) LoadFile(ctx context.Context, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read curriculum file: %w", err)
	}
	var file File
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse curriculum file: %w", err)
	}
	created, err := l.Import(ctx, &file)
	if err != nil {
		return err
	}
	l.log.Info("curriculum imported", "path", path, "topics_created", created)
	return nil
}

// Import creates any topics the store does not already hold, in file order,
// resolving prerequisite names against both the store and earlier entries.
// Re-importing the same file is a no-op. Returns the number of topics
// created.
func (l *Loader) Import(ctx context.Context, file *File) (int, error) {
	if file == nil {
		return 0, nil
	}

	created := 0
	for _, spec := range file.Topics {
		if spec.Name == "" {
			return created, fmt.Errorf("%w: curriculum topic without a name", pkgerrors.ErrInvalidArgument)
		}

		existing, err := l.topicRepo.GetByName(ctx, spec.Name)
		if err != nil {
			return created, fmt.Errorf("look up topic %q: %w", spec.Name, err)
		}
		if existing != nil {
			continue
		}

		prereqIDs := make([]uuid.UUID, 0, len(spec.Prerequisites))
		for _, prereqName := range spec.Prerequisites {
			prereq, err := l.topicRepo.GetByName(ctx, prereqName)
			if err != nil {
				return created, fmt.Errorf("look up prerequisite %q: %w", prereqName, err)
			}
			if prereq == nil {
				return created, fmt.Errorf("%w: prerequisite %q of topic %q not found; list prerequisites before their dependents", pkgerrors.ErrInvalidArgument, prereqName, spec.Name)
			}
			prereqIDs = append(prereqIDs, prereq.ID)
		}

		topic, err := l.kg.CreateTopic(ctx, services.CreateTopicInput{
			Name:            spec.Name,
			ExamWeight:      spec.ExamWeight,
			EstimatedHours:  spec.EstimatedHours,
			Description:     spec.Description,
			PrerequisiteIDs: prereqIDs,
		})
		if err != nil {
			if errors.Is(err, pkgerrors.ErrCycle) {
				return created, fmt.Errorf("curriculum topic %q: %w", spec.Name, err)
			}
			return created, fmt.Errorf("create topic %q: %w", spec.Name, err)
		}

		for _, conceptSpec := range spec.Concepts {
			if conceptSpec.Name == "" {
				return created, fmt.Errorf("%w: topic %q has a concept without a name", pkgerrors.ErrInvalidArgument, spec.Name)
			}
			concept := &types.Concept{
				TopicID:     topic.ID,
				Name:        conceptSpec.Name,
				Description: conceptSpec.Description,
			}
			if err := l.conceptRepo.Create(ctx, nil, concept); err != nil {
				return created, fmt.Errorf("create concept %q: %w", conceptSpec.Name, err)
			}
		}
		created++
	}
	return created, nil
}
