package chat

import (
	"errors"
	"fmt"
)

var (
	// ErrGeneratorRequired is returned when a generator is not provided.
	ErrGeneratorRequired = errors.New("generator required")

	// ErrRetrieverRequired is returned when a retriever is not provided.
	ErrRetrieverRequired = errors.New("retriever required")

	// ErrEmptyQuestion is returned when the question has no content.
	ErrEmptyQuestion = errors.New("question is empty")

	// ErrEmptyText is returned when there is nothing to summarize.
	ErrEmptyText = errors.New("text is empty")
)

// Stage names a step of the answer pipeline.
type Stage string

const (
	StageSession    Stage = "session"
	StageRewrite    Stage = "rewrite"
	StageRetrieve   Stage = "retrieve"
	StageSynthesize Stage = "synthesize"
	StageSummarize  Stage = "summarize"
	StageRecord     Stage = "record"
)

// StageError reports the pipeline stage that failed. It unwraps to the
// underlying cause, typically one of the core sentinels.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("chat %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
