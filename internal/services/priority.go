package services

import "math"

// Weights of the additive priority formula. They must sum to 1.0; the
// ranking blends how far the student is from mastery, how much the topic is
// worth on the exam, how close the exam is and how cheap the topic is to
// study.
const (
	weightMasteryGap = 0.4
	weightExamWeight = 0.3
	weightUrgency    = 0.2
	weightEfficiency = 0.1
)

const (
	// DefaultDaysToExam is assumed when the student has no exam date.
	DefaultDaysToExam = 180
	// DefaultMasteryThreshold gates prerequisite checks and "already
	// mastered" exclusion.
	DefaultMasteryThreshold = 60.0

	urgencyHorizonDays = 365
	minEffortHours     = 0.5
)

// ScoreInputs are the numeric inputs of one topic's priority score.
type ScoreInputs struct {
	CurrentMastery float64
	ExamWeight     float64
	DaysToExam     int
	EstimatedHours float64
}

// ScoreComponents carries every term of the formula so explanations can
// render them without recomputing.
type ScoreComponents struct {
	MasteryGap        float64 `json:"mastery_gap"`
	CurrentMastery    float64 `json:"current_mastery"`
	ExamWeight        float64 `json:"exam_weight"`
	Urgency           float64 `json:"urgency"`
	DaysToExam        int     `json:"days_to_exam"`
	Efficiency        float64 `json:"efficiency"`
	EstimatedHours    float64 `json:"estimated_hours"`
	PriorityScore     float64 `json:"priority_score"`
	ExpectedMarksGain float64 `json:"expected_marks_gain"`
}

// ComputePriorityScore is a pure function of its inputs; identical inputs
// always produce identical components, which keeps rankings reproducible.
func ComputePriorityScore(in ScoreInputs) ScoreComponents {
	mastery := clamp(in.CurrentMastery, 0, 100)
	gap := 100 - mastery

	// 0 a year or more out, 100 at (or after) the exam.
	days := in.DaysToExam
	if days < 0 {
		days = 0
	}
	if days > urgencyHorizonDays {
		days = urgencyHorizonDays
	}
	urgency := 100 * (1 - float64(days)/float64(urgencyHorizonDays))

	efficiency := math.Min(100, 100/math.Max(in.EstimatedHours, minEffortHours))

	weight := clamp(in.ExamWeight, 0, 100)
	priority := weightMasteryGap*gap +
		weightExamWeight*weight +
		weightUrgency*urgency +
		weightEfficiency*efficiency

	return ScoreComponents{
		MasteryGap:        gap,
		CurrentMastery:    mastery,
		ExamWeight:        weight,
		Urgency:           urgency,
		DaysToExam:        days,
		Efficiency:        efficiency,
		EstimatedHours:    in.EstimatedHours,
		PriorityScore:     priority,
		ExpectedMarksGain: gap * weight / 100,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
