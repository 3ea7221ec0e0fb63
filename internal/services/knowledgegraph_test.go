package services

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/google/uuid"

	pkgerrors "github.com/yungbote/examtrack-backend/internal/pkg/errors"
	"github.com/yungbote/examtrack-backend/internal/types"
)

func TestCreateTopic_Validation(t *testing.T) {
	f := newFixture()
	svc := newKGService(f)
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateTopicInput
	}{
		{"empty name", CreateTopicInput{Name: "  ", ExamWeight: 10, EstimatedHours: 2}},
		{"negative weight", CreateTopicInput{Name: "T", ExamWeight: -1, EstimatedHours: 2}},
		{"weight above 100", CreateTopicInput{Name: "T", ExamWeight: 101, EstimatedHours: 2}},
		{"zero hours", CreateTopicInput{Name: "T", ExamWeight: 10, EstimatedHours: 0}},
	}
	for _, tc := range cases {
		if _, err := svc.CreateTopic(ctx, tc.input); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
			t.Fatalf("%s: err = %v, want ErrInvalidArgument", tc.name, err)
		}
	}
	if len(f.topics) != 0 {
		t.Fatalf("rejected inputs still created %d topics", len(f.topics))
	}
}

func TestCreateTopic_DuplicateName(t *testing.T) {
	f := newFixture()
	f.addTopic("Algebra", 10, 3)
	svc := newKGService(f)

	_, err := svc.CreateTopic(context.Background(), CreateTopicInput{Name: "Algebra", ExamWeight: 10, EstimatedHours: 3})
	if !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("duplicate name err = %v, want ErrInvalidArgument", err)
	}
}

func TestCreateTopic_UnknownPrerequisite(t *testing.T) {
	f := newFixture()
	svc := newKGService(f)

	_, err := svc.CreateTopic(context.Background(), CreateTopicInput{
		Name:            "Calculus",
		ExamWeight:      20,
		EstimatedHours:  8,
		PrerequisiteIDs: []uuid.UUID{uuid.New()},
	})
	if !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("unknown prerequisite err = %v, want ErrNotFound", err)
	}
}

func TestAddPrerequisite_RejectsCycle(t *testing.T) {
	f := newFixture()
	a := f.addTopic("A", 10, 2)
	b := f.addTopic("B", 10, 2)
	c := f.addTopic("C", 10, 2)
	f.addEdge(b.ID, a.ID, 60) // B requires A
	f.addEdge(c.ID, b.ID, 60) // C requires B
	svc := newKGService(f)
	ctx := context.Background()

	before, err := svc.Prerequisites(ctx, a.ID)
	if err != nil {
		t.Fatalf("Prerequisites: %v", err)
	}

	// A requiring C would close A <- B <- C <- A.
	if _, err := svc.AddPrerequisite(ctx, a.ID, c.ID, 60); !errors.Is(err, pkgerrors.ErrCycle) {
		t.Fatalf("cycle edge err = %v, want ErrCycle", err)
	}
	if _, err := svc.AddPrerequisite(ctx, a.ID, a.ID, 60); !errors.Is(err, pkgerrors.ErrCycle) {
		t.Fatalf("self edge err = %v, want ErrCycle", err)
	}

	after, err := svc.Prerequisites(ctx, a.ID)
	if err != nil {
		t.Fatalf("Prerequisites: %v", err)
	}
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("graph changed by rejected insert: %v vs %v", before, after)
	}
	if len(f.edges) != 2 {
		t.Fatalf("edge count = %d, want unchanged 2", len(f.edges))
	}
}

func TestAddPrerequisite_AllowsDiamond(t *testing.T) {
	// D -> B -> A and D -> C -> A shares A without forming a cycle.
	f := newFixture()
	a := f.addTopic("A", 10, 2)
	b := f.addTopic("B", 10, 2)
	c := f.addTopic("C", 10, 2)
	d := f.addTopic("D", 10, 2)
	f.addEdge(b.ID, a.ID, 60)
	f.addEdge(c.ID, a.ID, 60)
	f.addEdge(d.ID, b.ID, 60)
	svc := newKGService(f)

	if _, err := svc.AddPrerequisite(context.Background(), d.ID, c.ID, 60); err != nil {
		t.Fatalf("diamond edge rejected: %v", err)
	}
}

func TestPrerequisitesAndDependents_Deterministic(t *testing.T) {
	f := newFixture()
	target := f.addTopic("Target", 10, 2)
	var prereqIDs []string
	for _, name := range []string{"P1", "P2", "P3"} {
		p := f.addTopic(name, 10, 2)
		f.addEdge(target.ID, p.ID, 60)
		prereqIDs = append(prereqIDs, p.ID.String())
	}
	svc := newKGService(f)
	ctx := context.Background()

	first, err := svc.Prerequisites(ctx, target.ID)
	if err != nil {
		t.Fatalf("Prerequisites: %v", err)
	}
	if len(first) != 3 {
		t.Fatalf("prerequisites = %d, want 3", len(first))
	}
	for i := 1; i < len(first); i++ {
		if first[i-1].ID.String() >= first[i].ID.String() {
			t.Fatalf("prerequisites not sorted by id: %s before %s", first[i-1].ID, first[i].ID)
		}
	}
	second, err := svc.Prerequisites(ctx, target.ID)
	if err != nil {
		t.Fatalf("Prerequisites: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("prerequisite order unstable across calls")
	}

	deps, err := svc.Dependents(ctx, f.topics[1].ID)
	if err != nil {
		t.Fatalf("Dependents: %v", err)
	}
	if len(deps) != 1 || deps[0].ID != target.ID {
		t.Fatalf("dependents = %v, want [Target]", deps)
	}
}

func TestUnlockableTopics_Boundary(t *testing.T) {
	f := newFixture()
	student := f.addStudent(&types.StudentProfile{Grade: 11, TargetExam: "boards"})
	base := f.addTopic("Base", 10, 2)
	baseConcept := f.addConcept(base.ID, "Base concept")
	next := f.addTopic("Next", 10, 4)
	f.addConcept(next.ID, "Next concept")
	f.addEdge(next.ID, base.ID, 60)
	svc := newKGService(f)
	ctx := context.Background()

	f.setMastery(student.ID, baseConcept.ID, 59.99)
	unlockable, err := svc.UnlockableTopics(ctx, student.ID, 60)
	if err != nil {
		t.Fatalf("UnlockableTopics: %v", err)
	}
	for _, u := range unlockable {
		if u.Topic.ID == next.ID {
			t.Fatalf("topic unlocked at 59.99 average, threshold 60")
		}
	}

	f.setMastery(student.ID, baseConcept.ID, 60.0)
	unlockable, err = svc.UnlockableTopics(ctx, student.ID, 60)
	if err != nil {
		t.Fatalf("UnlockableTopics: %v", err)
	}
	found := false
	for _, u := range unlockable {
		if u.Topic.ID == next.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("topic not unlocked at exactly the required mastery")
	}
}

func TestUnlockableTopics_Exclusions(t *testing.T) {
	f := newFixture()
	student := f.addStudent(&types.StudentProfile{Grade: 11, TargetExam: "boards"})

	mastered := f.addTopic("Mastered", 10, 2)
	masteredConcept := f.addConcept(mastered.ID, "c1")
	f.setMastery(student.ID, masteredConcept.ID, 85)

	empty := f.addTopic("No concepts", 10, 2)

	fresh := f.addTopic("Fresh", 10, 2)
	f.addConcept(fresh.ID, "c2")

	svc := newKGService(f)
	unlockable, err := svc.UnlockableTopics(context.Background(), student.ID, 60)
	if err != nil {
		t.Fatalf("UnlockableTopics: %v", err)
	}

	ids := make(map[uuid.UUID]float64)
	for _, u := range unlockable {
		ids[u.Topic.ID] = u.CurrentMastery
	}
	if _, ok := ids[mastered.ID]; ok {
		t.Fatalf("already mastered topic returned as unlockable")
	}
	if _, ok := ids[empty.ID]; ok {
		t.Fatalf("topic without concepts returned as unlockable")
	}
	current, ok := ids[fresh.ID]
	if !ok {
		t.Fatalf("unstarted topic missing from unlockable set")
	}
	if current != 0 {
		t.Fatalf("unstarted topic current mastery = %.2f, want 0", current)
	}
}

func TestPrerequisitesMet_EdgeMinimumOverridesThreshold(t *testing.T) {
	f := newFixture()
	student := f.addStudent(&types.StudentProfile{Grade: 11, TargetExam: "boards"})
	base := f.addTopic("Base", 10, 2)
	baseConcept := f.addConcept(base.ID, "c")
	next := f.addTopic("Next", 10, 2)
	f.addConcept(next.ID, "c2")
	f.addEdge(next.ID, base.ID, 50)
	f.setMastery(student.ID, baseConcept.ID, 55)

	svc := newKGService(f)
	met, err := svc.PrerequisitesMet(context.Background(), student.ID, next.ID, 60)
	if err != nil {
		t.Fatalf("PrerequisitesMet: %v", err)
	}
	if !met {
		t.Fatalf("edge minimum 50 not honored: 55 average reported as unmet")
	}
}

func TestPrerequisitesMet_UnknownTopicIsEmptyNotError(t *testing.T) {
	f := newFixture()
	student := f.addStudent(&types.StudentProfile{Grade: 11, TargetExam: "boards"})
	svc := newKGService(f)

	met, err := svc.PrerequisitesMet(context.Background(), student.ID, uuid.New(), 60)
	if err != nil {
		t.Fatalf("PrerequisitesMet on unknown topic: %v", err)
	}
	if met {
		t.Fatalf("unknown topic reported as met")
	}
}

func TestTopicHierarchy(t *testing.T) {
	f := newFixture()
	a := f.addTopic("A", 10, 2)
	b := f.addTopic("B", 10, 2)
	f.addEdge(b.ID, a.ID, 60)
	svc := newKGService(f)

	nodes, err := svc.TopicHierarchy(context.Background())
	if err != nil {
		t.Fatalf("TopicHierarchy: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("nodes = %d, want 2", len(nodes))
	}
	for _, node := range nodes {
		switch node.Topic.ID {
		case a.ID:
			if len(node.Prerequisites) != 0 {
				t.Fatalf("A has %d prerequisites, want 0", len(node.Prerequisites))
			}
		case b.ID:
			if len(node.Prerequisites) != 1 || node.Prerequisites[0].PrerequisiteTopicID != a.ID {
				t.Fatalf("B prerequisites = %v, want [A]", node.Prerequisites)
			}
		}
	}
}

func TestCreateTopic_PersistsEdges(t *testing.T) {
	f := newFixture()
	base := f.addTopic("Base", 10, 2)
	svc := newKGService(f)

	topic, err := svc.CreateTopic(context.Background(), CreateTopicInput{
		Name:            "Next",
		ExamWeight:      15,
		EstimatedHours:  4,
		PrerequisiteIDs: []uuid.UUID{base.ID},
	})
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}
	prereqs, err := svc.Prerequisites(context.Background(), topic.ID)
	if err != nil {
		t.Fatalf("Prerequisites: %v", err)
	}
	if len(prereqs) != 1 || prereqs[0].ID != base.ID {
		t.Fatalf("prerequisites = %v, want [Base]", prereqs)
	}
}
