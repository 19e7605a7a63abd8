package metrics

import (
	"testing"
	"time"
)

type testRecorder struct {
	NoopRecorder
	stageDurations map[string]int
	stageResults   map[string]map[ResultLabel]int
	buildOutcomes  map[BuildOutcomeLabel]int
}

func newTestRecorder() *testRecorder {
	return &testRecorder{stageDurations: map[string]int{}, stageResults: map[string]map[ResultLabel]int{}, buildOutcomes: map[BuildOutcomeLabel]int{}}
}

func (t *testRecorder) ObserveStageDuration(stage string, _ time.Duration) {
	t.stageDurations[stage]++
}

func (t *testRecorder) IncStageResult(stage string, result ResultLabel) {
	m, ok := t.stageResults[stage]
	if !ok {
		m = map[ResultLabel]int{}
		t.stageResults[stage] = m
	}
	m[result]++
}
func (t *testRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) { t.buildOutcomes[outcome]++ }

func TestRecorderInterface(t *testing.T) {
	var r Recorder = newTestRecorder()
	r.ObserveStageDuration("patch", time.Millisecond)
	r.IncStageResult("patch", ResultSuccess)
	r.IncBuildOutcome(BuildOutcomeSuccess)
	r.ObserveDependencyFetch("common", time.Millisecond, true)

	tr := r.(*testRecorder)
	if tr.stageDurations["patch"] != 1 || tr.stageResults["patch"][ResultSuccess] != 1 || tr.buildOutcomes[BuildOutcomeSuccess] != 1 {
		t.Fatalf("unexpected recorder state: %+v", tr)
	}

	var noop Recorder = NoopRecorder{}
	noop.SetPatchesApplied(3)
}
