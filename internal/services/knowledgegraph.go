package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/examtrack-backend/internal/data/graph"
	pkgerrors "github.com/yungbote/examtrack-backend/internal/pkg/errors"
	"github.com/yungbote/examtrack-backend/internal/platform/logger"
	"github.com/yungbote/examtrack-backend/internal/platform/neo4jdb"
	"github.com/yungbote/examtrack-backend/internal/repos"
	"github.com/yungbote/examtrack-backend/internal/types"
)

// CreateTopicInput is the write payload for a new curriculum topic.
type CreateTopicInput struct {
	Name            string      `json:"name"`
	ParentID        *uuid.UUID  `json:"parent_id,omitempty"`
	ExamWeight      float64     `json:"exam_weight"`
	EstimatedHours  float64     `json:"estimated_hours"`
	Description     string      `json:"description,omitempty"`
	PrerequisiteIDs []uuid.UUID `json:"prerequisite_ids,omitempty"`
}

// UnlockableTopic pairs a ready-to-study topic with the student's current
// average mastery over its concepts.
type UnlockableTopic struct {
	Topic          *types.Topic `json:"topic"`
	CurrentMastery float64      `json:"current_mastery"`
}

// TopicNode is one entry of the hierarchy listing: the topic plus its direct
// prerequisite edges.
type TopicNode struct {
	Topic         *types.Topic               `json:"topic"`
	Prerequisites []*types.TopicPrerequisite `json:"prerequisites"`
}

type KnowledgeGraphService interface {
	CreateTopic(ctx context.Context, input CreateTopicInput) (*types.Topic, error)
	AddPrerequisite(ctx context.Context, topicID, prerequisiteID uuid.UUID, minimumMastery float64) (*types.TopicPrerequisite, error)
	Prerequisites(ctx context.Context, topicID uuid.UUID) ([]*types.Topic, error)
	Dependents(ctx context.Context, topicID uuid.UUID) ([]*types.Topic, error)
	PrerequisitesMet(ctx context.Context, studentID, topicID uuid.UUID, threshold float64) (bool, error)
	UnlockableTopics(ctx context.Context, studentID uuid.UUID, threshold float64) ([]UnlockableTopic, error)
	TopicHierarchy(ctx context.Context) ([]TopicNode, error)
}

type knowledgeGraphService struct {
	db          *gorm.DB
	log         *logger.Logger
	topicRepo   repos.TopicRepo
	prereqRepo  repos.TopicPrerequisiteRepo
	conceptRepo repos.ConceptRepo
	masteryRepo repos.MasteryRepo
	neo         *neo4jdb.Client
}

func NewKnowledgeGraphService(
	db *gorm.DB,
	baseLog *logger.Logger,
	topicRepo repos.TopicRepo,
	prereqRepo repos.TopicPrerequisiteRepo,
	conceptRepo repos.ConceptRepo,
	masteryRepo repos.MasteryRepo,
	neo *neo4jdb.Client,
) KnowledgeGraphService {
	return &knowledgeGraphService{
		db:          db,
		log:         baseLog.With("service", "KnowledgeGraphService"),
		topicRepo:   topicRepo,
		prereqRepo:  prereqRepo,
		conceptRepo: conceptRepo,
		masteryRepo: masteryRepo,
		neo:         neo,
	}
}

func (s *knowledgeGraphService) CreateTopic(ctx context.Context, input CreateTopicInput) (*types.Topic, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", pkgerrors.ErrInvalidArgument)
	}
	if input.ExamWeight < 0 || input.ExamWeight > 100 {
		return nil, fmt.Errorf("%w: exam_weight must be between 0 and 100", pkgerrors.ErrInvalidArgument)
	}
	if input.EstimatedHours <= 0 {
		return nil, fmt.Errorf("%w: estimated_hours must be positive", pkgerrors.ErrInvalidArgument)
	}

	existing, err := s.topicRepo.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("check topic name: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: topic %q already exists", pkgerrors.ErrInvalidArgument, name)
	}

	prereqTopics := make([]*types.Topic, 0, len(input.PrerequisiteIDs))
	for _, prereqID := range input.PrerequisiteIDs {
		prereq, err := s.topicRepo.GetByID(ctx, prereqID)
		if err != nil {
			return nil, fmt.Errorf("load prerequisite: %w", err)
		}
		if prereq == nil {
			return nil, fmt.Errorf("%w: prerequisite topic %s", pkgerrors.ErrNotFound, prereqID)
		}
		prereqTopics = append(prereqTopics, prereq)
	}

	topic := &types.Topic{
		ID:             uuid.New(),
		Name:           name,
		ParentID:       input.ParentID,
		ExamWeight:     input.ExamWeight,
		EstimatedHours: input.EstimatedHours,
		Description:    input.Description,
	}

	// A fresh topic has no dependents yet, so its prerequisite edges cannot
	// close a cycle on their own. The check still runs against the proposed
	// edge set to reject self-references and duplicated inputs early.
	edges, err := s.prereqRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list prerequisites: %w", err)
	}
	adjacency := buildAdjacency(edges)
	newEdges := make([]*types.TopicPrerequisite, 0, len(input.PrerequisiteIDs))
	for _, prereqID := range input.PrerequisiteIDs {
		if prereqID == topic.ID {
			return nil, fmt.Errorf("%w: topic cannot require itself", pkgerrors.ErrCycle)
		}
		if reaches(adjacency, prereqID, topic.ID) {
			return nil, fmt.Errorf("%w: adding %s -> %s", pkgerrors.ErrCycle, topic.ID, prereqID)
		}
		adjacency[topic.ID] = append(adjacency[topic.ID], prereqID)
		newEdges = append(newEdges, &types.TopicPrerequisite{
			TopicID:             topic.ID,
			PrerequisiteTopicID: prereqID,
			MinimumMastery:      DefaultMasteryThreshold,
		})
	}

	err = s.withTx(ctx, func(tx *gorm.DB) error {
		if err := s.topicRepo.Create(ctx, tx, topic); err != nil {
			return fmt.Errorf("create topic: %w", err)
		}
		for _, edge := range newEdges {
			if err := s.prereqRepo.Create(ctx, tx, edge); err != nil {
				return fmt.Errorf("create prerequisite edge: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.mirror(ctx, append(prereqTopics, topic), newEdges)
	s.log.Info("topic created", "topic_id", topic.ID.String(), "name", topic.Name)
	return topic, nil
}

func (s *knowledgeGraphService) AddPrerequisite(ctx context.Context, topicID, prerequisiteID uuid.UUID, minimumMastery float64) (*types.TopicPrerequisite, error) {
	if topicID == uuid.Nil || prerequisiteID == uuid.Nil {
		return nil, fmt.Errorf("%w: topic_id and prerequisite_topic_id are required", pkgerrors.ErrInvalidArgument)
	}
	if topicID == prerequisiteID {
		return nil, fmt.Errorf("%w: topic cannot require itself", pkgerrors.ErrCycle)
	}
	if minimumMastery < 0 || minimumMastery > 100 {
		return nil, fmt.Errorf("%w: minimum_mastery must be between 0 and 100", pkgerrors.ErrInvalidArgument)
	}
	if minimumMastery == 0 {
		minimumMastery = DefaultMasteryThreshold
	}

	topic, err := s.topicRepo.GetByID(ctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("load topic: %w", err)
	}
	if topic == nil {
		return nil, fmt.Errorf("%w: topic %s", pkgerrors.ErrNotFound, topicID)
	}
	prereq, err := s.topicRepo.GetByID(ctx, prerequisiteID)
	if err != nil {
		return nil, fmt.Errorf("load prerequisite: %w", err)
	}
	if prereq == nil {
		return nil, fmt.Errorf("%w: topic %s", pkgerrors.ErrNotFound, prerequisiteID)
	}

	// Reject before writing anything: if the prerequisite can already reach
	// the topic, the new edge would close a cycle.
	edges, err := s.prereqRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list prerequisites: %w", err)
	}
	if reaches(buildAdjacency(edges), prerequisiteID, topicID) {
		return nil, fmt.Errorf("%w: adding %s -> %s", pkgerrors.ErrCycle, topicID, prerequisiteID)
	}

	edge := &types.TopicPrerequisite{
		TopicID:             topicID,
		PrerequisiteTopicID: prerequisiteID,
		MinimumMastery:      minimumMastery,
	}
	if err := s.prereqRepo.Create(ctx, nil, edge); err != nil {
		return nil, err
	}

	s.mirror(ctx, []*types.Topic{topic, prereq}, []*types.TopicPrerequisite{edge})
	return edge, nil
}

func (s *knowledgeGraphService) Prerequisites(ctx context.Context, topicID uuid.UUID) ([]*types.Topic, error) {
	edges, err := s.prereqRepo.ListByTopic(ctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("list prerequisites: %w", err)
	}
	topics := make([]*types.Topic, 0, len(edges))
	for _, edge := range edges {
		topic, err := s.topicRepo.GetByID(ctx, edge.PrerequisiteTopicID)
		if err != nil {
			return nil, fmt.Errorf("load prerequisite: %w", err)
		}
		if topic != nil {
			topics = append(topics, topic)
		}
	}
	sortTopicsByID(topics)
	return topics, nil
}

func (s *knowledgeGraphService) Dependents(ctx context.Context, topicID uuid.UUID) ([]*types.Topic, error) {
	edges, err := s.prereqRepo.ListByPrerequisite(ctx, topicID)
	if err != nil {
		return nil, fmt.Errorf("list dependents: %w", err)
	}
	topics := make([]*types.Topic, 0, len(edges))
	for _, edge := range edges {
		topic, err := s.topicRepo.GetByID(ctx, edge.TopicID)
		if err != nil {
			return nil, fmt.Errorf("load dependent: %w", err)
		}
		if topic != nil {
			topics = append(topics, topic)
		}
	}
	sortTopicsByID(topics)
	return topics, nil
}

func (s *knowledgeGraphService) PrerequisitesMet(ctx context.Context, studentID, topicID uuid.UUID, threshold float64) (bool, error) {
	if threshold <= 0 {
		threshold = DefaultMasteryThreshold
	}
	snap, err := s.loadSnapshot(ctx, studentID)
	if err != nil {
		return false, err
	}
	// Unknown topics read as "no data yet" rather than erroring.
	if _, ok := snap.topics[topicID]; !ok {
		return false, nil
	}
	return snap.prerequisitesMet(topicID, threshold), nil
}

// UnlockableTopics returns every topic the student can start now: all
// prerequisite edges satisfied, not already mastered, and carrying at least
// one concept to study. The result is ordered by topic id so repeated calls
// over unchanged data agree.
func (s *knowledgeGraphService) UnlockableTopics(ctx context.Context, studentID uuid.UUID, threshold float64) ([]UnlockableTopic, error) {
	if studentID == uuid.Nil {
		return nil, fmt.Errorf("%w: student_id is required", pkgerrors.ErrInvalidArgument)
	}
	if threshold <= 0 {
		threshold = DefaultMasteryThreshold
	}
	snap, err := s.loadSnapshot(ctx, studentID)
	if err != nil {
		return nil, err
	}

	out := make([]UnlockableTopic, 0, len(snap.orderedTopics))
	for _, topic := range snap.orderedTopics {
		concepts := snap.conceptsByTopic[topic.ID]
		if len(concepts) == 0 {
			continue
		}
		current := snap.averageMastery(topic.ID)
		if current >= threshold {
			continue
		}
		if !snap.prerequisitesMet(topic.ID, threshold) {
			continue
		}
		out = append(out, UnlockableTopic{Topic: topic, CurrentMastery: current})
	}
	return out, nil
}

func (s *knowledgeGraphService) TopicHierarchy(ctx context.Context) ([]TopicNode, error) {
	topics, err := s.topicRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	edges, err := s.prereqRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list prerequisites: %w", err)
	}

	byTopic := make(map[uuid.UUID][]*types.TopicPrerequisite, len(topics))
	for _, edge := range edges {
		byTopic[edge.TopicID] = append(byTopic[edge.TopicID], edge)
	}

	nodes := make([]TopicNode, 0, len(topics))
	for _, topic := range topics {
		prereqs := byTopic[topic.ID]
		if prereqs == nil {
			prereqs = []*types.TopicPrerequisite{}
		}
		nodes = append(nodes, TopicNode{Topic: topic, Prerequisites: prereqs})
	}
	return nodes, nil
}

// graphSnapshot is one consistent read of everything the unlock checks need.
// Orchestration loads it once per call so every topic is judged against the
// same data.
type graphSnapshot struct {
	topics           map[uuid.UUID]*types.Topic
	orderedTopics    []*types.Topic
	prereqsByTopic   map[uuid.UUID][]*types.TopicPrerequisite
	conceptsByTopic  map[uuid.UUID][]*types.Concept
	masteryByConcept map[uuid.UUID]float64
}

func (s *knowledgeGraphService) loadSnapshot(ctx context.Context, studentID uuid.UUID) (*graphSnapshot, error) {
	topics, err := s.topicRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	edges, err := s.prereqRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list prerequisites: %w", err)
	}
	concepts, err := s.conceptRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list concepts: %w", err)
	}
	records, err := s.masteryRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list mastery: %w", err)
	}

	snap := &graphSnapshot{
		topics:           make(map[uuid.UUID]*types.Topic, len(topics)),
		orderedTopics:    topics,
		prereqsByTopic:   make(map[uuid.UUID][]*types.TopicPrerequisite),
		conceptsByTopic:  make(map[uuid.UUID][]*types.Concept),
		masteryByConcept: make(map[uuid.UUID]float64, len(records)),
	}
	for _, topic := range topics {
		snap.topics[topic.ID] = topic
	}
	for _, edge := range edges {
		snap.prereqsByTopic[edge.TopicID] = append(snap.prereqsByTopic[edge.TopicID], edge)
	}
	for _, concept := range concepts {
		snap.conceptsByTopic[concept.TopicID] = append(snap.conceptsByTopic[concept.TopicID], concept)
	}
	for _, record := range records {
		snap.masteryByConcept[record.ConceptID] = record.MasteryScore
	}
	return snap, nil
}

// averageMastery averages over every concept of the topic; a concept without
// a mastery record contributes zero. Topics without concepts score zero.
func (snap *graphSnapshot) averageMastery(topicID uuid.UUID) float64 {
	concepts := snap.conceptsByTopic[topicID]
	if len(concepts) == 0 {
		return 0
	}
	var sum float64
	for _, concept := range concepts {
		sum += snap.masteryByConcept[concept.ID]
	}
	return sum / float64(len(concepts))
}

// prerequisitesMet checks every incoming edge of the topic. An edge carrying
// its own minimum mastery overrides the caller's threshold for that edge.
func (snap *graphSnapshot) prerequisitesMet(topicID uuid.UUID, threshold float64) bool {
	for _, edge := range snap.prereqsByTopic[topicID] {
		required := threshold
		if edge.MinimumMastery > 0 {
			required = edge.MinimumMastery
		}
		if snap.averageMastery(edge.PrerequisiteTopicID) < required {
			return false
		}
	}
	return true
}

// buildAdjacency maps each topic to the topics it requires.
func buildAdjacency(edges []*types.TopicPrerequisite) map[uuid.UUID][]uuid.UUID {
	adjacency := make(map[uuid.UUID][]uuid.UUID, len(edges))
	for _, edge := range edges {
		adjacency[edge.TopicID] = append(adjacency[edge.TopicID], edge.PrerequisiteTopicID)
	}
	return adjacency
}

// reaches reports whether target is reachable from start along prerequisite
// edges. BFS over the edge list; the graph never holds cycles, so visited
// tracking is enough to terminate.
func reaches(adjacency map[uuid.UUID][]uuid.UUID, start, target uuid.UUID) bool {
	if start == target {
		return true
	}
	visited := map[uuid.UUID]struct{}{start: {}}
	queue := []uuid.UUID{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range adjacency[current] {
			if next == target {
				return true
			}
			if _, ok := visited[next]; ok {
				continue
			}
			visited[next] = struct{}{}
			queue = append(queue, next)
		}
	}
	return false
}

func (s *knowledgeGraphService) withTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s.db == nil {
		return fn(nil)
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// mirror pushes the touched slice of the graph into Neo4j. Failures are
// logged and swallowed; the relational store stays the source of truth.
func (s *knowledgeGraphService) mirror(ctx context.Context, topics []*types.Topic, edges []*types.TopicPrerequisite) {
	if s.neo == nil {
		return
	}
	if err := graph.SyncPrerequisiteGraph(ctx, s.neo, s.log, topics, edges); err != nil {
		s.log.Warn("graph mirror sync failed (continuing)", "error", err)
	}
}

func sortTopicsByID(topics []*types.Topic) {
	sort.Slice(topics, func(i, j int) bool {
		return topics[i].ID.String() < topics[j].ID.String()
	})
}
