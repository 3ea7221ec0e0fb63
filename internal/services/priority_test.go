package services

import (
	"math"
	"testing"
)

func TestComputePriorityScore_Composite(t *testing.T) {
	comps := ComputePriorityScore(ScoreInputs{
		CurrentMastery: 40,
		ExamWeight:     25,
		DaysToExam:     30,
		EstimatedHours: 4,
	})

	// 0.4*60 + 0.3*25 + 0.2*(100*(1-30/365)) + 0.1*min(100, 100/4)
	if math.Abs(comps.PriorityScore-52.3562) > 0.001 {
		t.Fatalf("priority score = %.4f, want 52.3562 +/- 0.001", comps.PriorityScore)
	}
	if comps.MasteryGap != 60 {
		t.Fatalf("mastery gap = %.2f, want 60", comps.MasteryGap)
	}
	if comps.Efficiency != 25 {
		t.Fatalf("efficiency = %.2f, want 25", comps.Efficiency)
	}
}

func TestComputePriorityScore_ExpectedMarksGain(t *testing.T) {
	comps := ComputePriorityScore(ScoreInputs{
		CurrentMastery: 40,
		ExamWeight:     10,
		DaysToExam:     DefaultDaysToExam,
		EstimatedHours: 5,
	})
	if math.Abs(comps.ExpectedMarksGain-6.0) > 1e-9 {
		t.Fatalf("expected marks gain = %.4f, want 6.0", comps.ExpectedMarksGain)
	}
}

func TestComputePriorityScore_UrgencyClamps(t *testing.T) {
	atExam := ComputePriorityScore(ScoreInputs{DaysToExam: 0, EstimatedHours: 1})
	if atExam.Urgency != 100 {
		t.Fatalf("urgency at 0 days = %.2f, want 100", atExam.Urgency)
	}

	past := ComputePriorityScore(ScoreInputs{DaysToExam: -10, EstimatedHours: 1})
	if past.Urgency != 100 {
		t.Fatalf("urgency with negative days = %.2f, want 100", past.Urgency)
	}
	if past.DaysToExam != 0 {
		t.Fatalf("days with negative input = %d, want 0", past.DaysToExam)
	}

	farOut := ComputePriorityScore(ScoreInputs{DaysToExam: 900, EstimatedHours: 1})
	if farOut.Urgency != 0 {
		t.Fatalf("urgency past horizon = %.2f, want 0", farOut.Urgency)
	}
}

func TestComputePriorityScore_EfficiencyCaps(t *testing.T) {
	tiny := ComputePriorityScore(ScoreInputs{DaysToExam: 100, EstimatedHours: 0.1})
	if tiny.Efficiency != 100 {
		t.Fatalf("efficiency for near-zero hours = %.2f, want capped 100", tiny.Efficiency)
	}
	zero := ComputePriorityScore(ScoreInputs{DaysToExam: 100, EstimatedHours: 0})
	if zero.Efficiency != 100 {
		t.Fatalf("efficiency for zero hours = %.2f, want capped 100", zero.Efficiency)
	}
	long := ComputePriorityScore(ScoreInputs{DaysToExam: 100, EstimatedHours: 50})
	if long.Efficiency != 2 {
		t.Fatalf("efficiency for 50 hours = %.2f, want 2", long.Efficiency)
	}
}

func TestComputePriorityScore_MasteryClamped(t *testing.T) {
	over := ComputePriorityScore(ScoreInputs{CurrentMastery: 140, ExamWeight: 50, DaysToExam: 100, EstimatedHours: 2})
	if over.MasteryGap != 0 {
		t.Fatalf("gap with mastery above 100 = %.2f, want 0", over.MasteryGap)
	}
	under := ComputePriorityScore(ScoreInputs{CurrentMastery: -5, ExamWeight: 50, DaysToExam: 100, EstimatedHours: 2})
	if under.MasteryGap != 100 {
		t.Fatalf("gap with negative mastery = %.2f, want 100", under.MasteryGap)
	}
}

func TestComputePriorityScore_Deterministic(t *testing.T) {
	in := ScoreInputs{CurrentMastery: 33.3, ExamWeight: 12.5, DaysToExam: 77, EstimatedHours: 6.25}
	first := ComputePriorityScore(in)
	for i := 0; i < 100; i++ {
		if got := ComputePriorityScore(in); got != first {
			t.Fatalf("iteration %d: components changed: %+v vs %+v", i, got, first)
		}
	}
}
