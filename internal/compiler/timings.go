package compiler

import "time"

// Stage describes a high-level compilation phase.
type Stage string

const (
	// StageParse is the input parsing stage.
	StageParse Stage = "parse"
	// StageAnalyze is the analysis-pass stage.
	StageAnalyze Stage = "analyze"
	// StageGenerate is the code-generation stage.
	StageGenerate Stage = "generate"
	// StageEmit is the object emission stage.
	StageEmit Stage = "emit"
)

// Stages lists every stage in pipeline order.
var Stages = []Stage{StageParse, StageAnalyze, StageGenerate, StageEmit}

// Timings holds stage durations.
type Timings struct {
	stages map[Stage]time.Duration
}

func (t *Timings) ensure() {
	if t.stages == nil {
		t.stages = make(map[Stage]time.Duration)
	}
}

// Set stores a duration for the given stage.
func (t *Timings) Set(stage Stage, dur time.Duration) {
	if t == nil {
		return
	}
	t.ensure()
	t.stages[stage] = dur
}

// Has reports whether a duration for stage is recorded.
func (t Timings) Has(stage Stage) bool {
	if t.stages == nil {
		return false
	}
	_, ok := t.stages[stage]
	return ok
}

// Duration returns the recorded duration for stage.
func (t Timings) Duration(stage Stage) time.Duration {
	if t.stages == nil {
		return 0
	}
	return t.stages[stage]
}

// Sum returns the sum of durations across the provided stages.
func (t Timings) Sum(stages ...Stage) time.Duration {
	if t.stages == nil {
		return 0
	}
	var total time.Duration
	for _, stage := range stages {
		total += t.stages[stage]
	}
	return total
}

// Total returns the sum across all known stages.
func (t Timings) Total() time.Duration {
	return t.Sum(Stages...)
}
