package pipeline

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/pluginbuild/internal/metrics"
)

// StageName identifies a pipeline stage.
type StageName string

// Stages in execution order.
const (
	StageFetch    StageName = "fetch"
	StagePatch    StageName = "patch"
	StageProject  StageName = "project"
	StageSolution StageName = "solution"
	StageBuild    StageName = "build"
	StagePackage  StageName = "package"
)

// Stage executes one step against the shared state.
type Stage func(ctx context.Context, st *State) error

// StageDef pairs a stage name with its executing function.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// StageErrorKind classifies how a stage ended.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Build must abort.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError wraps the cause of a failed stage.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func newFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

func newCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// StageResult records how a stage ended.
type StageResult struct {
	Name     StageName
	Result   metrics.ResultLabel
	Duration time.Duration
	Err      error
}
