package ingestion

import (
	"errors"
	"fmt"
)

var (
	// ErrRepositoryRequired is returned when a chunk repository is not provided.
	ErrRepositoryRequired = errors.New("chunk repository required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")
)

// Stage names an ingestion step.
type Stage string

const (
	StageValidate Stage = "validate"
	StageEmbed    Stage = "embed"
	StageStore    Stage = "store"
)

// StageError reports which ingestion step failed. It unwraps to the cause,
// so errors.Is works against core and storage sentinels.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("ingestion %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
